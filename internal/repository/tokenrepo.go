// Package repository defines storage interfaces implemented by concrete backends.
package repository

import (
	"context"

	"github.com/mlewis26201/pushgate/internal/model"
)

// TokenRepository provides CRUD access to stored bearer tokens.
type TokenRepository interface {
	// Create inserts a new token row and returns its id.
	Create(ctx context.Context, t *model.Token) (int64, error)
	// Get loads a token by id.
	Get(ctx context.Context, id int64) (*model.Token, error)
	// List returns all current tokens. Authentication scans rely on this
	// seeing every token committed before the read began.
	List(ctx context.Context) ([]model.Token, error)
	// Rotate replaces the ciphertext, resets created_at, and optionally
	// changes the hourly limit (nil keeps the current one).
	Rotate(ctx context.Context, id int64, encToken string, hourlyLimit *int) error
	// SetCiphertext replaces the ciphertext only, leaving created_at
	// untouched. Used by key rotation.
	SetCiphertext(ctx context.Context, id int64, encToken string) error
	// TouchLastUsed records a successful relay timestamp.
	TouchLastUsed(ctx context.Context, id int64) error
	// Delete removes a token; its delivery history cascades.
	Delete(ctx context.Context, id int64) error
}
