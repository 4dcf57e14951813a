// Package worker records activity events consumed from AMQP.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"multitool/internal/amqp"
	applog "multitool/internal/log"
	"multitool/internal/metrics"
)

// Recorder stores an event, reporting false when it was already stored.
// *services.ActivityService implements it.
type Recorder interface {
	Record(ctx context.Context, event *amqp.ActivityEvent) (bool, error)
}

// Consumer delivers events to a handler until ctx ends. *amqp.Client
// implements it.
type Consumer interface {
	Consume(ctx context.Context, prefetch int, handler func(context.Context, *amqp.ActivityEvent) error) error
}

// ActivityWorker writes consumed events to the activity table.
type ActivityWorker struct {
	recorder Recorder
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

func NewActivityWorker(recorder Recorder, m *metrics.Metrics, logger *slog.Logger) *ActivityWorker {
	if logger == nil {
		logger = slog.Default()
	}
	return &ActivityWorker{recorder: recorder, metrics: m, logger: logger}
}

// HandleActivityMessage records one event. Events without a user are
// dropped with a nil error so they are acked and not redelivered; storage
// errors are returned so the consumer can requeue once.
func (w *ActivityWorker) HandleActivityMessage(ctx context.Context, event *amqp.ActivityEvent) error {
	if event.UserID <= 0 {
		w.logger.WarnContext(ctx, "Dropping activity event without user",
			applog.FieldMessageID, event.ID,
			applog.FieldActivityKind, event.Kind)
		w.metrics.ActivityConsumed(metrics.OutcomeDropped)
		return nil
	}
	if !amqp.KnownKind(event.Kind) {
		// Stored anyway so newer publishers are not lost.
		w.logger.WarnContext(ctx, "Unknown activity kind", applog.FieldActivityKind, event.Kind)
	}

	inserted, err := w.recorder.Record(ctx, event)
	if err != nil {
		w.logger.ErrorContext(ctx, "Failed to record activity",
			applog.FieldMessageID, event.ID,
			applog.FieldOperation, applog.OpConsume,
			applog.FieldError, err)
		w.metrics.ActivityConsumed(metrics.OutcomeError)
		return fmt.Errorf("record activity %s: %w", event.ID, err)
	}

	if !inserted {
		w.logger.DebugContext(ctx, "Duplicate activity event ignored", applog.FieldMessageID, event.ID)
		w.metrics.ActivityConsumed(metrics.OutcomeSkipped)
		return nil
	}

	w.logger.InfoContext(ctx, "Activity recorded",
		applog.FieldMessageID, event.ID,
		applog.FieldUserID, event.UserID,
		applog.FieldActivityKind, event.Kind,
		"subject_id", event.SubjectID)
	w.metrics.ActivityConsumed(metrics.OutcomeOK)
	return nil
}

// Run consumes until ctx is cancelled.
func (w *ActivityWorker) Run(ctx context.Context, consumer Consumer, prefetch int) error {
	w.logger.InfoContext(ctx, "Activity worker started", "prefetch", prefetch)
	err := consumer.Consume(ctx, prefetch, w.HandleActivityMessage)
	w.logger.InfoContext(ctx, "Activity worker stopped")
	return err
}
