package kafka

import (
	"context"
	"time"

	"github.com/driveshare/marketing-dispatch/internal/domain"
	"github.com/driveshare/marketing-dispatch/internal/usecase"
	"github.com/google/uuid"
)

// DirectGateway applies tracking events in-process when the event pipeline is
// disabled.
type DirectGateway struct {
	stats *usecase.StatsRecorder
}

func NewDirectGateway(stats *usecase.StatsRecorder) usecase.TrackingGateway {
	return &DirectGateway{stats: stats}
}

func (g *DirectGateway) Track(ctx context.Context, eventType domain.TrackingEventType, recipientID string) error {
	return g.stats.ApplyEvents(ctx, []domain.TrackingEvent{{
		ID:          uuid.NewString(),
		Type:        eventType,
		RecipientID: recipientID,
		OccurredAt:  time.Now(),
	}})
}
