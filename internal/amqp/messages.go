package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Activity kinds published by the services.
const (
	KindUserRegistered       = "user.registered"
	KindTaxParametersCreated = "tax_parameters.created"
	KindTaxParametersUpdated = "tax_parameters.updated"
	KindTaxParametersDeleted = "tax_parameters.deleted"
	KindTaxParametersSeeded  = "tax_parameters.seeded"
	KindReminderCreated      = "reminder.created"
	KindReminderUpdated      = "reminder.updated"
	KindReminderDeleted      = "reminder.deleted"
)

var knownKinds = map[string]bool{
	KindUserRegistered:       true,
	KindTaxParametersCreated: true,
	KindTaxParametersUpdated: true,
	KindTaxParametersDeleted: true,
	KindTaxParametersSeeded:  true,
	KindReminderCreated:      true,
	KindReminderUpdated:      true,
	KindReminderDeleted:      true,
}

// KnownKind reports whether kind is one the services publish.
func KnownKind(kind string) bool {
	return knownKinds[kind]
}

// ActivityEvent is a small audit message. The worker stores it as-is; the
// ID makes redelivery idempotent.
type ActivityEvent struct {
	ID         string          `json:"id"`
	UserID     int64           `json:"userId"`
	Kind       string          `json:"kind"`
	SubjectID  int64           `json:"subjectId"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	OccurredAt time.Time       `json:"occurredAt"`
}

// NewActivityEvent builds an event with a fresh ID. payload may be nil.
func NewActivityEvent(userID int64, kind string, subjectID int64, payload any) (*ActivityEvent, error) {
	var raw json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal payload: %w", err)
		}
		raw = b
	}
	return &ActivityEvent{
		ID:         uuid.NewString(),
		UserID:     userID,
		Kind:       kind,
		SubjectID:  subjectID,
		Payload:    raw,
		OccurredAt: time.Now().UTC(),
	}, nil
}

func (m *ActivityEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// PayloadString returns the payload as text, "{}" when absent.
func (m *ActivityEvent) PayloadString() string {
	if len(m.Payload) == 0 {
		return "{}"
	}
	return string(m.Payload)
}

// ActivityEventFromJSON decodes and validates an event.
func ActivityEventFromJSON(data []byte) (*ActivityEvent, error) {
	var msg ActivityEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.ID == "" {
		return nil, errors.New("activity event without id")
	}
	if msg.Kind == "" {
		return nil, errors.New("activity event without kind")
	}
	if msg.OccurredAt.IsZero() {
		msg.OccurredAt = time.Now().UTC()
	}
	return &msg, nil
}
