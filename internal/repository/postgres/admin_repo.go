package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/mlewis26201/pushgate/internal/errs"
	"github.com/mlewis26201/pushgate/internal/model"
)

// AdminRepo implements AdminRepository using PostgreSQL.
type AdminRepo struct{ db *DB }

// NewAdminRepo constructs an admin password repository.
func NewAdminRepo(db *DB) *AdminRepo { return &AdminRepo{db: db} }

// Current selects the most recently updated password row.
func (r *AdminRepo) Current(ctx context.Context) (*model.AdminPassword, error) {
	const q = `
SELECT id, enc_password, updated_at
FROM admin_passwords ORDER BY updated_at DESC, id DESC LIMIT 1`
	row := r.db.Pool.QueryRow(ctx, q)
	var a model.AdminPassword
	if err := row.Scan(&a.ID, &a.EncPassword, &a.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

// Set inserts a new password row.
func (r *AdminRepo) Set(ctx context.Context, encPassword string) (int64, error) {
	const q = `
INSERT INTO admin_passwords (enc_password) VALUES ($1) RETURNING id`
	var id int64
	if err := r.db.Pool.QueryRow(ctx, q, encPassword).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

// List returns all rows newest first.
func (r *AdminRepo) List(ctx context.Context) ([]model.AdminPassword, error) {
	const q = `
SELECT id, enc_password, updated_at
FROM admin_passwords ORDER BY updated_at DESC, id DESC`
	rows, err := r.db.Pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.AdminPassword
	for rows.Next() {
		var a model.AdminPassword
		if err = rows.Scan(&a.ID, &a.EncPassword, &a.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// SetCiphertext replaces one row's ciphertext (key rotation).
func (r *AdminRepo) SetCiphertext(ctx context.Context, id int64, encPassword string) error {
	const q = `UPDATE admin_passwords SET enc_password=$2 WHERE id=$1`
	tag, err := r.db.Pool.Exec(ctx, q, id, encPassword)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}
