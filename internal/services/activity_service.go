package services

import (
	"context"
	"fmt"

	"multitool/internal/amqp"
	"multitool/internal/core"
	"multitool/internal/storage"
)

const (
	DefaultActivityLimit = 20
	MaxActivityLimit     = 100
)

// ActivityService records consumed events and serves the recent feed.
type ActivityService struct {
	storage *storage.SQLiteRepository
}

func NewActivityService(storage *storage.SQLiteRepository) *ActivityService {
	return &ActivityService{storage: storage}
}

// Record stores event. It reports false for an event already stored.
func (s *ActivityService) Record(ctx context.Context, event *amqp.ActivityEvent) (bool, error) {
	inserted, err := s.storage.RecordActivity(ctx, event.ID, core.Activity{
		UserID:     event.UserID,
		Kind:       event.Kind,
		SubjectID:  event.SubjectID,
		Payload:    event.PayloadString(),
		OccurredAt: event.OccurredAt,
	})
	if err != nil {
		return false, fmt.Errorf("record %s: %w", event.Kind, err)
	}
	return inserted, nil
}

// Recent returns the newest entries first. limit is clamped to
// [1, MaxActivityLimit]; zero means DefaultActivityLimit.
func (s *ActivityService) Recent(ctx context.Context, userID int64, limit int) ([]core.Activity, error) {
	switch {
	case limit <= 0:
		limit = DefaultActivityLimit
	case limit > MaxActivityLimit:
		limit = MaxActivityLimit
	}
	return s.storage.ListActivity(ctx, userID, limit)
}
