package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/driveshare/marketing-dispatch/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Queries struct {
	db DBTX
}

func NewQueries(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx pgx.Tx) *Queries {
	return &Queries{db: tx}
}

// The outer IS NULL predicate keeps the update a compare-and-swap even if the
// row lock is acquired after another transaction has already claimed it.
const claimNextRecipient = `
UPDATE users
SET last_marketing_email_date = now()
WHERE id = (
    SELECT id FROM users
    WHERE last_marketing_email_date IS NULL
    ORDER BY id
    LIMIT 1
    FOR UPDATE SKIP LOCKED
)
AND last_marketing_email_date IS NULL
RETURNING id, email, full_name, last_marketing_email_date
`

func (q *Queries) ClaimNextRecipient(ctx context.Context) (domain.Recipient, error) {
	var (
		r       domain.Recipient
		claimed time.Time
	)
	err := q.db.QueryRow(ctx, claimNextRecipient).Scan(&r.ID, &r.Email, &r.FullName, &claimed)
	if err != nil {
		return domain.Recipient{}, err
	}
	r.LastMarketingEmailDate = &claimed
	return r, nil
}

var incrementDailyStat = map[domain.StatField]string{
	domain.StatSent: `
INSERT INTO marketing_daily_stats (date, sent_count) VALUES ($1, 1)
ON CONFLICT (date) DO UPDATE SET sent_count = marketing_daily_stats.sent_count + 1, updated_at = now()`,
	domain.StatOpen: `
INSERT INTO marketing_daily_stats (date, open_count) VALUES ($1, 1)
ON CONFLICT (date) DO UPDATE SET open_count = marketing_daily_stats.open_count + 1, updated_at = now()`,
	domain.StatClick: `
INSERT INTO marketing_daily_stats (date, click_count) VALUES ($1, 1)
ON CONFLICT (date) DO UPDATE SET click_count = marketing_daily_stats.click_count + 1, updated_at = now()`,
}

func (q *Queries) IncrementDailyStat(ctx context.Context, day time.Time, field domain.StatField) error {
	query, ok := incrementDailyStat[field]
	if !ok {
		return fmt.Errorf("unknown stat field %q", field)
	}
	_, err := q.db.Exec(ctx, query, day)
	return err
}

const getDailyStat = `
SELECT date, sent_count, open_count, click_count
FROM marketing_daily_stats
WHERE date = $1
`

func (q *Queries) GetDailyStat(ctx context.Context, day time.Time) (domain.DailyStat, error) {
	var s domain.DailyStat
	err := q.db.QueryRow(ctx, getDailyStat, day).Scan(&s.Date, &s.SentCount, &s.OpenCount, &s.ClickCount)
	return s, err
}

const listDailyStats = `
SELECT date, sent_count, open_count, click_count
FROM marketing_daily_stats
ORDER BY date DESC
LIMIT $1
`

func (q *Queries) ListDailyStats(ctx context.Context, limit int) ([]domain.DailyStat, error) {
	rows, err := q.db.Query(ctx, listDailyStats, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := []domain.DailyStat{}
	for rows.Next() {
		var s domain.DailyStat
		if err := rows.Scan(&s.Date, &s.SentCount, &s.OpenCount, &s.ClickCount); err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}
