package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mlewis26201/pushgate/internal/model"
)

// DeliveryRepo implements DeliveryRepository using PostgreSQL.
type DeliveryRepo struct{ db *DB }

// NewDeliveryRepo constructs a delivery log repository.
func NewDeliveryRepo(db *DB) *DeliveryRepo { return &DeliveryRepo{db: db} }

// defaultPageSize bounds unfiltered audit listings.
const defaultPageSize = 50

// Create appends one delivery record.
func (r *DeliveryRepo) Create(ctx context.Context, d *model.Delivery) (int64, error) {
	const q = `
INSERT INTO deliveries (token_id, message, outcome)
VALUES ($1, $2, $3)
RETURNING id`
	var id int64
	if err := r.db.Pool.QueryRow(ctx, q, d.TokenID, d.Message, d.Outcome).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

// CountSince counts a token's deliveries inside the sliding window.
func (r *DeliveryRepo) CountSince(ctx context.Context, tokenID int64, since time.Time) (int, error) {
	const q = `SELECT COUNT(*) FROM deliveries WHERE token_id=$1 AND created_at >= $2`
	var n int
	if err := r.db.Pool.QueryRow(ctx, q, tokenID, since).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// List returns filtered delivery records, newest first.
func (r *DeliveryRepo) List(ctx context.Context, f model.DeliveryFilter) ([]model.Delivery, error) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if f.TokenID != 0 {
		conds = append(conds, "token_id="+arg(f.TokenID))
	}
	if f.Outcome != "" {
		conds = append(conds, "outcome="+arg(f.Outcome))
	}
	if f.Search != "" {
		conds = append(conds, "message ILIKE "+arg("%"+f.Search+"%"))
	}

	q := "SELECT id, token_id, message, outcome, created_at FROM deliveries"
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	limit := f.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}
	q += " ORDER BY created_at DESC, id DESC LIMIT " + arg(limit) + " OFFSET " + arg(f.Offset)

	rows, err := r.db.Pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Delivery
	for rows.Next() {
		var d model.Delivery
		if err = rows.Scan(&d.ID, &d.TokenID, &d.Message, &d.Outcome, &d.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
