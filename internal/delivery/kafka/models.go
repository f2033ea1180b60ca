package kafka

import (
	"errors"
	"fmt"
	"time"

	"github.com/driveshare/marketing-dispatch/internal/domain"
)

const SchemaVersion = 1

type TrackingEventPayload struct {
	SchemaVersion int       `json:"schema_version"`
	EventID       string    `json:"event_id"`
	Type          string    `json:"type"`
	RecipientID   string    `json:"recipient_id"`
	OccurredAt    time.Time `json:"occurred_at"`
}

func (p TrackingEventPayload) Validate() error {
	if p.SchemaVersion != SchemaVersion {
		return fmt.Errorf("unsupported schema version %d", p.SchemaVersion)
	}
	if p.EventID == "" {
		return errors.New("missing event_id")
	}
	if !domain.TrackingEventType(p.Type).IsValid() {
		return fmt.Errorf("unknown event type %q", p.Type)
	}
	if p.RecipientID == "" {
		return errors.New("missing recipient_id")
	}
	if p.OccurredAt.IsZero() {
		return errors.New("missing occurred_at")
	}
	return nil
}

func (p TrackingEventPayload) Event() domain.TrackingEvent {
	return domain.TrackingEvent{
		ID:          p.EventID,
		Type:        domain.TrackingEventType(p.Type),
		RecipientID: p.RecipientID,
		OccurredAt:  p.OccurredAt,
	}
}
