package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/mlewis26201/pushgate/internal/errs"
	"github.com/mlewis26201/pushgate/internal/model"
)

// TokenRepo implements TokenRepository using PostgreSQL.
type TokenRepo struct{ db *DB }

// NewTokenRepo constructs a token repository.
func NewTokenRepo(db *DB) *TokenRepo { return &TokenRepo{db: db} }

// Create inserts a new token row.
func (r *TokenRepo) Create(ctx context.Context, t *model.Token) (int64, error) {
	const q = `
INSERT INTO tokens (enc_token, hourly_limit)
VALUES ($1, $2)
RETURNING id`
	var id int64
	if err := r.db.Pool.QueryRow(ctx, q, t.EncToken, t.HourlyLimit).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

// Get selects a token by id.
func (r *TokenRepo) Get(ctx context.Context, id int64) (*model.Token, error) {
	const q = `
SELECT id, enc_token, hourly_limit, created_at, last_used
FROM tokens WHERE id=$1`
	row := r.db.Pool.QueryRow(ctx, q, id)
	var t model.Token
	if err := row.Scan(&t.ID, &t.EncToken, &t.HourlyLimit, &t.CreatedAt, &t.LastUsed); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

// List returns all token rows ordered by id.
func (r *TokenRepo) List(ctx context.Context) ([]model.Token, error) {
	const q = `
SELECT id, enc_token, hourly_limit, created_at, last_used
FROM tokens ORDER BY id`
	rows, err := r.db.Pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Token
	for rows.Next() {
		var t model.Token
		if err = rows.Scan(&t.ID, &t.EncToken, &t.HourlyLimit, &t.CreatedAt, &t.LastUsed); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Rotate replaces ciphertext and creation time; hourlyLimit nil keeps the current limit.
func (r *TokenRepo) Rotate(ctx context.Context, id int64, encToken string, hourlyLimit *int) error {
	const q = `
UPDATE tokens
SET enc_token=$2, created_at=now(), hourly_limit=COALESCE($3, hourly_limit)
WHERE id=$1`
	tag, err := r.db.Pool.Exec(ctx, q, id, encToken, hourlyLimit)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// SetCiphertext replaces ciphertext only (key rotation).
func (r *TokenRepo) SetCiphertext(ctx context.Context, id int64, encToken string) error {
	const q = `UPDATE tokens SET enc_token=$2 WHERE id=$1`
	tag, err := r.db.Pool.Exec(ctx, q, id, encToken)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// TouchLastUsed stamps last_used with the current time.
func (r *TokenRepo) TouchLastUsed(ctx context.Context, id int64) error {
	const q = `UPDATE tokens SET last_used=now() WHERE id=$1`
	_, err := r.db.Pool.Exec(ctx, q, id)
	return err
}

// Delete removes a token row; deliveries cascade via FK.
func (r *TokenRepo) Delete(ctx context.Context, id int64) error {
	const q = `DELETE FROM tokens WHERE id=$1`
	tag, err := r.db.Pool.Exec(ctx, q, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}
