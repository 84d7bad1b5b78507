package repository

import (
	"context"

	"github.com/mlewis26201/pushgate/internal/model"
)

// AdminRepository stores admin password history. The most recently updated
// row is authoritative; older rows are retained for key rotation.
type AdminRepository interface {
	// Current returns the authoritative password row, or ErrNotFound.
	Current(ctx context.Context) (*model.AdminPassword, error)
	// Set inserts a new password row and returns its id.
	Set(ctx context.Context, encPassword string) (int64, error)
	// List returns all rows (newest first).
	List(ctx context.Context) ([]model.AdminPassword, error)
	// SetCiphertext replaces one row's ciphertext. Used by key rotation.
	SetCiphertext(ctx context.Context, id int64, encPassword string) error
}
