package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/driveshare/marketing-dispatch/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store interface {
	ExecTx(ctx context.Context, fn func(Querier) error) error
	ClaimNextRecipient(ctx context.Context) (domain.Recipient, error)
	IncrementDailyStat(ctx context.Context, day time.Time, field domain.StatField) error
	GetDailyStat(ctx context.Context, day time.Time) (domain.DailyStat, error)
	ListDailyStats(ctx context.Context, limit int) ([]domain.DailyStat, error)
}

// Querier is the subset of Store available inside ExecTx.
type Querier interface {
	IncrementDailyStat(ctx context.Context, day time.Time, field domain.StatField) error
}

type store struct {
	pool    *pgxpool.Pool
	queries *Queries
}

func New(pool *pgxpool.Pool) Store {
	return &store{
		pool:    pool,
		queries: NewQueries(pool),
	}
}

func (s *store) ExecTx(ctx context.Context, fn func(Querier) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	q := s.queries.WithTx(tx)
	if err := fn(q); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("tx err: %v, rollback err: %v", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// ClaimNextRecipient returns domain.ErrNoEligibleRecipient when every user has
// already been claimed.
func (s *store) ClaimNextRecipient(ctx context.Context) (domain.Recipient, error) {
	r, err := s.queries.ClaimNextRecipient(ctx)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Recipient{}, domain.ErrNoEligibleRecipient
	}
	return r, err
}

func (s *store) IncrementDailyStat(ctx context.Context, day time.Time, field domain.StatField) error {
	return s.queries.IncrementDailyStat(ctx, day, field)
}

// GetDailyStat returns a zero-valued stat for days without a row.
func (s *store) GetDailyStat(ctx context.Context, day time.Time) (domain.DailyStat, error) {
	stat, err := s.queries.GetDailyStat(ctx, day)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.DailyStat{Date: day}, nil
	}
	return stat, err
}

func (s *store) ListDailyStats(ctx context.Context, limit int) ([]domain.DailyStat, error) {
	return s.queries.ListDailyStats(ctx, limit)
}
