package services

import (
	"context"
	"strings"

	"multitool/internal/amqp"
	"multitool/internal/core"
	"multitool/internal/storage"
)

// ReminderService is owner-scoped CRUD over short notes.
type ReminderService struct {
	storage *storage.SQLiteRepository
	events  *Events
}

func NewReminderService(storage *storage.SQLiteRepository, events *Events) *ReminderService {
	return &ReminderService{storage: storage, events: events}
}

func (s *ReminderService) List(ctx context.Context, userID int64) ([]core.Reminder, error) {
	return s.storage.ListReminders(ctx, userID)
}

func (s *ReminderService) Get(ctx context.Context, userID, id int64) (core.Reminder, error) {
	return s.storage.Reminder(ctx, userID, id)
}

func (s *ReminderService) Create(ctx context.Context, userID int64, title, content string) (core.Reminder, error) {
	r := core.Reminder{UserID: userID, Title: strings.TrimSpace(title), Content: content}
	if err := r.Validate(); err != nil {
		return core.Reminder{}, err
	}

	created, err := s.storage.CreateReminder(ctx, r)
	if err != nil {
		return core.Reminder{}, err
	}
	s.events.emit(ctx, userID, amqp.KindReminderCreated, created.ID, map[string]string{"title": created.Title})
	return created, nil
}

// Update replaces title and content. Reminders of other users are reported
// as core.ErrNotFound.
func (s *ReminderService) Update(ctx context.Context, userID, id int64, title, content string) (core.Reminder, error) {
	r := core.Reminder{ID: id, UserID: userID, Title: strings.TrimSpace(title), Content: content}
	if err := r.Validate(); err != nil {
		return core.Reminder{}, err
	}

	updated, err := s.storage.UpdateReminder(ctx, r)
	if err != nil {
		return core.Reminder{}, err
	}
	s.events.emit(ctx, userID, amqp.KindReminderUpdated, id, map[string]string{"title": updated.Title})
	return updated, nil
}

func (s *ReminderService) Delete(ctx context.Context, userID, id int64) error {
	if err := s.storage.DeleteReminder(ctx, userID, id); err != nil {
		return err
	}
	s.events.emit(ctx, userID, amqp.KindReminderDeleted, id, nil)
	return nil
}
