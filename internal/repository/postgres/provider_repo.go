package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/mlewis26201/pushgate/internal/errs"
	"github.com/mlewis26201/pushgate/internal/model"
)

// ProviderRepo implements ProviderRepository using PostgreSQL.
type ProviderRepo struct{ db *DB }

// NewProviderRepo constructs a provider config repository.
func NewProviderRepo(db *DB) *ProviderRepo { return &ProviderRepo{db: db} }

// Create inserts a new provider config row.
func (r *ProviderRepo) Create(ctx context.Context, p *model.ProviderConfig) (int64, error) {
	const q = `
INSERT INTO provider_configs (name, enc_app_token, enc_user_key)
VALUES ($1, $2, $3)
RETURNING id`
	var id int64
	err := r.db.Pool.QueryRow(ctx, q, p.Name, p.EncAppToken, p.EncUserKey).Scan(&id)
	if isUniqueViolation(err) {
		return 0, errs.ErrNameTaken
	}
	if err != nil {
		return 0, err
	}
	return id, nil
}

// Get selects a config by id.
func (r *ProviderRepo) Get(ctx context.Context, id int64) (*model.ProviderConfig, error) {
	const q = `
SELECT id, name, enc_app_token, enc_user_key, updated_at
FROM provider_configs WHERE id=$1`
	return r.scanOne(r.db.Pool.QueryRow(ctx, q, id))
}

// GetDefault selects the first (lowest id) config.
func (r *ProviderRepo) GetDefault(ctx context.Context) (*model.ProviderConfig, error) {
	const q = `
SELECT id, name, enc_app_token, enc_user_key, updated_at
FROM provider_configs ORDER BY id LIMIT 1`
	return r.scanOne(r.db.Pool.QueryRow(ctx, q))
}

func (r *ProviderRepo) scanOne(row pgx.Row) (*model.ProviderConfig, error) {
	var p model.ProviderConfig
	if err := row.Scan(&p.ID, &p.Name, &p.EncAppToken, &p.EncUserKey, &p.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// List returns all configs ordered by id.
func (r *ProviderRepo) List(ctx context.Context) ([]model.ProviderConfig, error) {
	const q = `
SELECT id, name, enc_app_token, enc_user_key, updated_at
FROM provider_configs ORDER BY id`
	rows, err := r.db.Pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.ProviderConfig
	for rows.Next() {
		var p model.ProviderConfig
		if err = rows.Scan(&p.ID, &p.Name, &p.EncAppToken, &p.EncUserKey, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Update replaces name and both ciphertexts.
func (r *ProviderRepo) Update(ctx context.Context, p *model.ProviderConfig) error {
	const q = `
UPDATE provider_configs
SET name=$2, enc_app_token=$3, enc_user_key=$4, updated_at=now()
WHERE id=$1`
	tag, err := r.db.Pool.Exec(ctx, q, p.ID, p.Name, p.EncAppToken, p.EncUserKey)
	if isUniqueViolation(err) {
		return errs.ErrNameTaken
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// SetCiphertexts replaces both ciphertexts only (key rotation).
func (r *ProviderRepo) SetCiphertexts(ctx context.Context, id int64, encAppToken, encUserKey string) error {
	const q = `
UPDATE provider_configs SET enc_app_token=$2, enc_user_key=$3 WHERE id=$1`
	tag, err := r.db.Pool.Exec(ctx, q, id, encAppToken, encUserKey)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// Delete removes a config row.
func (r *ProviderRepo) Delete(ctx context.Context, id int64) error {
	const q = `DELETE FROM provider_configs WHERE id=$1`
	tag, err := r.db.Pool.Exec(ctx, q, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}
