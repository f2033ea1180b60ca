package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/driveshare/marketing-dispatch/internal/domain"
	"github.com/driveshare/marketing-dispatch/internal/metrics"
	"github.com/driveshare/marketing-dispatch/internal/repository"
)

const MaxHistoryLimit = 365

// StatsRecorder keeps the per-day campaign counters. Days are calendar days in
// the campaign time zone, stored as midnight UTC of that date.
type StatsRecorder struct {
	store StatsStore
	loc   *time.Location
	now   func() time.Time
}

func NewStatsRecorder(store StatsStore, loc *time.Location) *StatsRecorder {
	if loc == nil {
		loc = time.UTC
	}
	return &StatsRecorder{store: store, loc: loc, now: time.Now}
}

// DayOf maps an instant to its stats bucket.
func DayOf(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (s *StatsRecorder) Today() time.Time {
	return DayOf(s.now(), s.loc)
}

func (s *StatsRecorder) RecordSend(ctx context.Context, day time.Time) error {
	return s.increment(ctx, day, domain.StatSent)
}

func (s *StatsRecorder) RecordOpen(ctx context.Context, day time.Time) error {
	return s.increment(ctx, day, domain.StatOpen)
}

func (s *StatsRecorder) RecordClick(ctx context.Context, day time.Time) error {
	return s.increment(ctx, day, domain.StatClick)
}

func (s *StatsRecorder) increment(ctx context.Context, day time.Time, field domain.StatField) error {
	if err := s.store.IncrementDailyStat(ctx, day, field); err != nil {
		return &domain.PersistenceError{Op: "increment " + string(field), Err: err}
	}
	return nil
}

// SentOn returns the number of sends already recorded for day.
func (s *StatsRecorder) SentOn(ctx context.Context, day time.Time) (int, error) {
	stat, err := s.store.GetDailyStat(ctx, day)
	if err != nil {
		return 0, &domain.PersistenceError{Op: "read daily stat", Err: err}
	}
	return stat.SentCount, nil
}

// History returns the newest limit day buckets, newest first.
func (s *StatsRecorder) History(ctx context.Context, limit int) ([]domain.DailyStat, error) {
	if limit <= 0 {
		return nil, domain.ErrInvalidLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}
	stats, err := s.store.ListDailyStats(ctx, limit)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "list daily stats", Err: err}
	}
	return stats, nil
}

// ApplyEvents records a batch of tracking events in one transaction.
func (s *StatsRecorder) ApplyEvents(ctx context.Context, events []domain.TrackingEvent) error {
	if len(events) == 0 {
		return nil
	}
	err := s.store.ExecTx(ctx, func(q repository.Querier) error {
		for _, e := range events {
			if !e.Type.IsValid() {
				return fmt.Errorf("event %s: unknown type %q", e.ID, e.Type)
			}
			if err := q.IncrementDailyStat(ctx, DayOf(e.OccurredAt, s.loc), e.Type.StatField()); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return &domain.PersistenceError{Op: "apply tracking events", Err: err}
	}
	for _, e := range events {
		metrics.DefaultInstance().IncTrackingEvent(string(e.Type))
	}
	return nil
}
