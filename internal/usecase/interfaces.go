package usecase

import (
	"context"
	"time"

	"github.com/driveshare/marketing-dispatch/internal/domain"
	"github.com/driveshare/marketing-dispatch/internal/repository"
)

// RecipientStore returns domain.ErrNoEligibleRecipient when the pool is empty.
type RecipientStore interface {
	ClaimNextRecipient(ctx context.Context) (domain.Recipient, error)
}

type StatsStore interface {
	ExecTx(ctx context.Context, fn func(repository.Querier) error) error
	IncrementDailyStat(ctx context.Context, day time.Time, field domain.StatField) error
	GetDailyStat(ctx context.Context, day time.Time) (domain.DailyStat, error)
	ListDailyStats(ctx context.Context, limit int) ([]domain.DailyStat, error)
}

// ProviderGateway delivers one message. Any failure is a
// *domain.ProviderSendError.
type ProviderGateway interface {
	Send(ctx context.Context, r domain.Recipient, tc domain.TemplateContext) error
	Provider() domain.Provider
}

type TemplateContextBuilder interface {
	Build(r domain.Recipient) domain.TemplateContext
}

// TrackingGateway routes open and click callbacks to the stats recorder,
// either in-process or through the event pipeline.
type TrackingGateway interface {
	Track(ctx context.Context, eventType domain.TrackingEventType, recipientID string) error
}

type Runner interface {
	Run(ctx context.Context) (domain.RunResult, error)
}

type StatsReader interface {
	History(ctx context.Context, limit int) ([]domain.DailyStat, error)
}
