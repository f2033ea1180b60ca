package usecase

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/driveshare/marketing-dispatch/internal/domain"
	"github.com/driveshare/marketing-dispatch/internal/repository"
)

// memStore is an in-memory RecipientStore and StatsStore. The *Fn hooks
// override individual operations.
type memStore struct {
	mu         sync.Mutex
	recipients []*domain.Recipient
	stats      map[time.Time]*domain.DailyStat
	claims     map[string]int

	claimFn     func(ctx context.Context) (domain.Recipient, error)
	incrementFn func(ctx context.Context, day time.Time, field domain.StatField) error
	getStatFn   func(ctx context.Context, day time.Time) (domain.DailyStat, error)
	listStatsFn func(ctx context.Context, limit int) ([]domain.DailyStat, error)
	execTxFn    func(ctx context.Context, fn func(repository.Querier) error) error
}

func newMemStore(recipients ...domain.Recipient) *memStore {
	s := &memStore{
		stats:  map[time.Time]*domain.DailyStat{},
		claims: map[string]int{},
	}
	for i := range recipients {
		r := recipients[i]
		s.recipients = append(s.recipients, &r)
	}
	return s
}

func (s *memStore) ClaimNextRecipient(ctx context.Context) (domain.Recipient, error) {
	if s.claimFn != nil {
		return s.claimFn(ctx)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.recipients {
		if r.LastMarketingEmailDate == nil {
			now := time.Now()
			r.LastMarketingEmailDate = &now
			s.claims[r.ID]++
			return *r, nil
		}
	}
	return domain.Recipient{}, domain.ErrNoEligibleRecipient
}

func (s *memStore) IncrementDailyStat(ctx context.Context, day time.Time, field domain.StatField) error {
	if s.incrementFn != nil {
		return s.incrementFn(ctx, day, field)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	stat, ok := s.stats[day]
	if !ok {
		stat = &domain.DailyStat{Date: day}
		s.stats[day] = stat
	}
	switch field {
	case domain.StatSent:
		stat.SentCount++
	case domain.StatOpen:
		stat.OpenCount++
	case domain.StatClick:
		stat.ClickCount++
	}
	return nil
}

func (s *memStore) GetDailyStat(ctx context.Context, day time.Time) (domain.DailyStat, error) {
	if s.getStatFn != nil {
		return s.getStatFn(ctx, day)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if stat, ok := s.stats[day]; ok {
		return *stat, nil
	}
	return domain.DailyStat{Date: day}, nil
}

func (s *memStore) ListDailyStats(ctx context.Context, limit int) ([]domain.DailyStat, error) {
	if s.listStatsFn != nil {
		return s.listStatsFn(ctx, limit)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.DailyStat, 0, len(s.stats))
	for _, stat := range s.stats {
		out = append(out, *stat)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memStore) ExecTx(ctx context.Context, fn func(repository.Querier) error) error {
	if s.execTxFn != nil {
		return s.execTxFn(ctx, fn)
	}
	return fn(s)
}

func (s *memStore) stat(day time.Time) domain.DailyStat {
	st, _ := s.GetDailyStat(context.Background(), day)
	return st
}

func (s *memStore) recipient(id string) domain.Recipient {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.recipients {
		if r.ID == id {
			return *r
		}
	}
	return domain.Recipient{}
}

type sendCall struct {
	recipient domain.Recipient
	context   domain.TemplateContext
	ctxErr    error
}

type mockGateway struct {
	provider domain.Provider
	calls    []sendCall
	sendFn   func(ctx context.Context, r domain.Recipient) error
}

func (g *mockGateway) Send(ctx context.Context, r domain.Recipient, tc domain.TemplateContext) error {
	var err error
	if g.sendFn != nil {
		err = g.sendFn(ctx, r)
	}
	g.calls = append(g.calls, sendCall{recipient: r, context: tc, ctxErr: ctx.Err()})
	return err
}

func (g *mockGateway) Provider() domain.Provider {
	if g.provider == "" {
		return domain.ProviderLog
	}
	return g.provider
}

type staticContexts struct{}

func (staticContexts) Build(r domain.Recipient) domain.TemplateContext {
	return domain.TemplateContext{"recipient_id": r.ID, "email": r.Email}
}
