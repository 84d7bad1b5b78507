package repository

import (
	"context"
	"time"

	"github.com/mlewis26201/pushgate/internal/model"
)

// DeliveryRepository is the append-only delivery log. Records are never
// mutated or deleted by the core; retention is an external concern.
type DeliveryRepository interface {
	// Create appends one delivery record and returns its id.
	Create(ctx context.Context, d *model.Delivery) (int64, error)
	// CountSince counts a token's deliveries with created_at >= since.
	CountSince(ctx context.Context, tokenID int64, since time.Time) (int, error)
	// List returns filtered records, newest first.
	List(ctx context.Context, f model.DeliveryFilter) ([]model.Delivery, error)
}
