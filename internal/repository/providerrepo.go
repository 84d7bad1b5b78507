package repository

import (
	"context"

	"github.com/mlewis26201/pushgate/internal/model"
)

// ProviderRepository provides CRUD access to named provider credential sets.
type ProviderRepository interface {
	// Create inserts a new config and returns its id.
	Create(ctx context.Context, p *model.ProviderConfig) (int64, error)
	// Get loads a config by id.
	Get(ctx context.Context, id int64) (*model.ProviderConfig, error)
	// GetDefault returns the fallback config used when a relay request does
	// not select one explicitly: the first (lowest id) record.
	GetDefault(ctx context.Context) (*model.ProviderConfig, error)
	// List returns all configs ordered by id.
	List(ctx context.Context) ([]model.ProviderConfig, error)
	// Update replaces name and both ciphertexts.
	Update(ctx context.Context, p *model.ProviderConfig) error
	// SetCiphertexts replaces both ciphertexts only. Used by key rotation.
	SetCiphertexts(ctx context.Context, id int64, encAppToken, encUserKey string) error
	// Delete removes a config.
	Delete(ctx context.Context, id int64) error
}
