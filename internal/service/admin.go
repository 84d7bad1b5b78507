package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"

	"github.com/mlewis26201/pushgate/internal/crypto"
	"github.com/mlewis26201/pushgate/internal/errs"
	"github.com/mlewis26201/pushgate/internal/model"
	"github.com/mlewis26201/pushgate/internal/repository"
)

// AdminService exposes the administrative operations over the credential store.
type AdminService interface {
	// CreateToken mints a new bearer token; the plaintext is returned once
	// and never persisted. limit<=0 applies the default.
	CreateToken(ctx context.Context, limit int) (plaintext string, id int64, err error)
	// RotateToken replaces a token's plaintext (and optionally its limit),
	// invalidating the old value.
	RotateToken(ctx context.Context, id int64, limit *int) (plaintext string, err error)
	// DeleteToken removes a token; its delivery history is cascade-deleted.
	DeleteToken(ctx context.Context, id int64) error
	// ListTokens returns all token records (ciphertext included; callers
	// must not expose EncToken).
	ListTokens(ctx context.Context) ([]model.Token, error)

	CreateProvider(ctx context.Context, name, appToken, userKey string) (int64, error)
	UpdateProvider(ctx context.Context, id int64, name, appToken, userKey string) error
	DeleteProvider(ctx context.Context, id int64) error
	ListProviders(ctx context.Context) ([]model.ProviderConfig, error)

	// SetPassword stores a new admin password (encrypted); the newest row wins.
	SetPassword(ctx context.Context, password string) error
	// VerifyPassword checks a login attempt against the current password.
	VerifyPassword(ctx context.Context, password string) error

	// ListDeliveries returns filtered audit records, newest first.
	ListDeliveries(ctx context.Context, f model.DeliveryFilter) ([]model.Delivery, error)
}

type AdminServiceImpl struct {
	cipher     *crypto.Cipher
	tokens     repository.TokenRepository
	providers  repository.ProviderRepository
	admins     repository.AdminRepository
	deliveries repository.DeliveryRepository
}

// NewAdminService constructs AdminService with required dependencies.
func NewAdminService(
	cipher *crypto.Cipher,
	tokens repository.TokenRepository,
	providers repository.ProviderRepository,
	admins repository.AdminRepository,
	deliveries repository.DeliveryRepository,
) *AdminServiceImpl {
	return &AdminServiceImpl{
		cipher:     cipher,
		tokens:     tokens,
		providers:  providers,
		admins:     admins,
		deliveries: deliveries,
	}
}

// CreateToken generates a fresh token, checks it against every stored
// plaintext (uniqueness holds across key rotations, so ciphertext
// uniqueness alone is not enough), encrypts, and stores it.
func (s *AdminServiceImpl) CreateToken(ctx context.Context, limit int) (string, int64, error) {
	if limit <= 0 {
		limit = model.DefaultHourlyLimit
	}
	plain, err := s.newUniqueToken(ctx)
	if err != nil {
		return "", 0, err
	}
	enc, err := s.cipher.Encrypt(plain)
	if err != nil {
		return "", 0, err
	}
	id, err := s.tokens.Create(ctx, &model.Token{EncToken: enc, HourlyLimit: limit})
	if err != nil {
		return "", 0, err
	}
	return plain, id, nil
}

// RotateToken replaces the plaintext and creation time; limit nil keeps the
// configured limit.
func (s *AdminServiceImpl) RotateToken(ctx context.Context, id int64, limit *int) (string, error) {
	if limit != nil && *limit <= 0 {
		return "", errs.Validationf("limit must be positive")
	}
	if _, err := s.tokens.Get(ctx, id); err != nil {
		return "", err
	}
	plain, err := s.newUniqueToken(ctx)
	if err != nil {
		return "", err
	}
	enc, err := s.cipher.Encrypt(plain)
	if err != nil {
		return "", err
	}
	if err := s.tokens.Rotate(ctx, id, enc, limit); err != nil {
		return "", err
	}
	return plain, nil
}

func (s *AdminServiceImpl) newUniqueToken(ctx context.Context) (string, error) {
	existing, err := s.tokens.List(ctx)
	if err != nil {
		return "", fmt.Errorf("list tokens: %w", err)
	}
	for attempt := 0; attempt < 5; attempt++ {
		plain, err := crypto.NewToken()
		if err != nil {
			return "", err
		}
		if s.collides(existing, plain) {
			continue
		}
		return plain, nil
	}
	return "", errors.New("could not generate unique token")
}

func (s *AdminServiceImpl) collides(existing []model.Token, plain string) bool {
	for i := range existing {
		got, err := s.cipher.Decrypt(existing[i].EncToken)
		if err != nil {
			continue
		}
		if got == plain {
			return true
		}
	}
	return false
}

// DeleteToken removes the token record and, through the store's cascade,
// its delivery history.
func (s *AdminServiceImpl) DeleteToken(ctx context.Context, id int64) error {
	return s.tokens.Delete(ctx, id)
}

// ListTokens returns all token records.
func (s *AdminServiceImpl) ListTokens(ctx context.Context) ([]model.Token, error) {
	return s.tokens.List(ctx)
}

// CreateProvider encrypts and stores a named credential set.
func (s *AdminServiceImpl) CreateProvider(ctx context.Context, name, appToken, userKey string) (int64, error) {
	if name == "" || appToken == "" || userKey == "" {
		return 0, errs.Validationf("name, app token, and user key are required")
	}
	encApp, err := s.cipher.Encrypt(appToken)
	if err != nil {
		return 0, err
	}
	encUser, err := s.cipher.Encrypt(userKey)
	if err != nil {
		return 0, err
	}
	return s.providers.Create(ctx, &model.ProviderConfig{
		Name:        name,
		EncAppToken: encApp,
		EncUserKey:  encUser,
	})
}

// UpdateProvider replaces a credential set in full.
func (s *AdminServiceImpl) UpdateProvider(ctx context.Context, id int64, name, appToken, userKey string) error {
	if name == "" || appToken == "" || userKey == "" {
		return errs.Validationf("name, app token, and user key are required")
	}
	encApp, err := s.cipher.Encrypt(appToken)
	if err != nil {
		return err
	}
	encUser, err := s.cipher.Encrypt(userKey)
	if err != nil {
		return err
	}
	return s.providers.Update(ctx, &model.ProviderConfig{
		ID:          id,
		Name:        name,
		EncAppToken: encApp,
		EncUserKey:  encUser,
	})
}

// DeleteProvider removes a credential set.
func (s *AdminServiceImpl) DeleteProvider(ctx context.Context, id int64) error {
	return s.providers.Delete(ctx, id)
}

// ListProviders returns all credential sets.
func (s *AdminServiceImpl) ListProviders(ctx context.Context) ([]model.ProviderConfig, error) {
	return s.providers.List(ctx)
}

// SetPassword encrypts and appends a new admin password row.
func (s *AdminServiceImpl) SetPassword(ctx context.Context, password string) error {
	if password == "" {
		return errs.Validationf("password is required")
	}
	enc, err := s.cipher.Encrypt(password)
	if err != nil {
		return err
	}
	_, err = s.admins.Set(ctx, enc)
	return err
}

// VerifyPassword decrypts the current password row and compares in constant
// time. No stored password, a decryption failure, or a mismatch all surface
// as ErrUnauthorized.
func (s *AdminServiceImpl) VerifyPassword(ctx context.Context, password string) error {
	cur, err := s.admins.Current(ctx)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return errs.ErrUnauthorized
		}
		return err
	}
	stored, err := s.cipher.Decrypt(cur.EncPassword)
	if err != nil {
		return errs.ErrUnauthorized
	}
	if subtle.ConstantTimeCompare([]byte(stored), []byte(password)) != 1 {
		return errs.ErrUnauthorized
	}
	return nil
}

// ListDeliveries returns filtered audit records.
func (s *AdminServiceImpl) ListDeliveries(ctx context.Context, f model.DeliveryFilter) ([]model.Delivery, error) {
	return s.deliveries.List(ctx, f)
}
