package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/driveshare/marketing-dispatch/internal/domain"
	"github.com/driveshare/marketing-dispatch/internal/usecase"
	"github.com/google/uuid"
	"github.com/twmb/franz-go/pkg/kgo"
)

// producer is the part of *kgo.Client used for publishing.
type producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

// Gateway publishes tracking events for the consumer to apply.
type Gateway struct {
	client producer
	now    func() time.Time
}

func NewGateway(client producer) *Gateway {
	return &Gateway{client: client, now: time.Now}
}

func (g *Gateway) Track(ctx context.Context, eventType domain.TrackingEventType, recipientID string) error {
	payload := TrackingEventPayload{
		SchemaVersion: SchemaVersion,
		EventID:       uuid.NewString(),
		Type:          string(eventType),
		RecipientID:   recipientID,
		OccurredAt:    g.now().UTC(),
	}
	if err := payload.Validate(); err != nil {
		return fmt.Errorf("invalid tracking event: %w", err)
	}

	value, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal tracking event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, PublishTimeout)
	defer cancel()

	record := &kgo.Record{
		Topic: TopicTrackingEvents,
		Key:   []byte(recipientID),
		Value: value,
	}
	if err := g.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("publish tracking event: %w", err)
	}
	return nil
}

var _ usecase.TrackingGateway = (*Gateway)(nil)
