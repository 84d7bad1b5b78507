package limiter

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PG is a PostgreSQL-backed limiter counting delivery records inside a
// sliding window ending at the current instant.
//
// The decision is check-then-act: the count and the later record insert are
// not one transaction, so concurrent requests for the same token can both
// pass when a single slot remains. Accepted limitation; enforcement is
// best-effort under concurrency.
type PG struct {
	pool   pgxQuerier
	window time.Duration
}

type pgxQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// NewPG constructs a PostgreSQL-backed limiter.
func NewPG(pool *pgxpool.Pool, window time.Duration) *PG {
	return &PG{pool: pool, window: window}
}

// NewPGWithQuerier constructs a PostgreSQL-backed limiter over any querier.
func NewPGWithQuerier(q pgxQuerier, window time.Duration) *PG {
	return &PG{pool: q, window: window}
}

// Allow permits the attempt iff the token's in-window delivery count is
// below its limit. A limit of zero or less never permits.
func (l *PG) Allow(ctx context.Context, tokenID int64, limitPerHour int) (bool, error) {
	if limitPerHour <= 0 {
		return false, nil
	}
	const q = `SELECT COUNT(*) FROM deliveries WHERE token_id=$1 AND created_at >= $2`
	since := time.Now().Add(-l.window)
	var count int
	if err := l.pool.QueryRow(ctx, q, tokenID, since).Scan(&count); err != nil {
		return false, err
	}
	return count < limitPerHour, nil
}
