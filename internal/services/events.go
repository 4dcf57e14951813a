// Package services holds the application's use cases. Services persist to
// SQLite first and publish activity events best effort afterwards.
package services

import (
	"context"
	"log/slog"

	"multitool/internal/amqp"
	applog "multitool/internal/log"
	"multitool/internal/metrics"
)

// ActivityPublisher is satisfied by *amqp.Client.
type ActivityPublisher interface {
	Publish(ctx context.Context, event *amqp.ActivityEvent) error
}

// Events publishes activity without ever failing the caller. A nil *Events
// or one without a publisher drops everything.
type Events struct {
	pub     ActivityPublisher
	metrics *metrics.Metrics
}

func NewEvents(pub ActivityPublisher, m *metrics.Metrics) *Events {
	return &Events{pub: pub, metrics: m}
}

func (e *Events) emit(ctx context.Context, userID int64, kind string, subjectID int64, payload any) {
	if e == nil {
		return
	}
	if e.pub == nil {
		e.metrics.ActivityPublished(metrics.OutcomeSkipped)
		return
	}

	event, err := amqp.NewActivityEvent(userID, kind, subjectID, payload)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to build activity event", applog.FieldActivityKind, kind, applog.FieldError, err)
		e.metrics.ActivityPublished(metrics.OutcomeError)
		return
	}

	if err := e.pub.Publish(ctx, event); err != nil {
		// The write already succeeded; the audit entry is lost.
		slog.ErrorContext(ctx, "Failed to publish activity event",
			applog.FieldActivityKind, kind,
			applog.FieldUserID, userID,
			"subject_id", subjectID,
			applog.FieldOperation, applog.OpPublish,
			applog.FieldError, err)
		e.metrics.ActivityPublished(metrics.OutcomeError)
		return
	}
	e.metrics.ActivityPublished(metrics.OutcomeOK)
}
