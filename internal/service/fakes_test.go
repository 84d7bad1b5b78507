package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mlewis26201/pushgate/internal/crypto"
	"github.com/mlewis26201/pushgate/internal/errs"
	"github.com/mlewis26201/pushgate/internal/model"
	"github.com/mlewis26201/pushgate/internal/pushover"
)

func newTestCipher(t *testing.T) *crypto.Cipher {
	t.Helper()
	key, err := crypto.RandBytes(crypto.KeyLen)
	require.NoError(t, err)
	c, err := crypto.NewCipher(key)
	require.NoError(t, err)
	return c
}

/************ in-memory repositories ************/

type memTokens struct {
	rows    []model.Token
	nextID  int64
	listErr error
	touched []int64
}

func (m *memTokens) Create(ctx context.Context, t *model.Token) (int64, error) {
	m.nextID++
	row := *t
	row.ID = m.nextID
	row.CreatedAt = time.Now()
	m.rows = append(m.rows, row)
	return row.ID, nil
}

func (m *memTokens) Get(ctx context.Context, id int64) (*model.Token, error) {
	for i := range m.rows {
		if m.rows[i].ID == id {
			row := m.rows[i]
			return &row, nil
		}
	}
	return nil, errs.ErrNotFound
}

func (m *memTokens) List(ctx context.Context) ([]model.Token, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := make([]model.Token, len(m.rows))
	copy(out, m.rows)
	return out, nil
}

func (m *memTokens) Rotate(ctx context.Context, id int64, encToken string, hourlyLimit *int) error {
	for i := range m.rows {
		if m.rows[i].ID == id {
			m.rows[i].EncToken = encToken
			m.rows[i].CreatedAt = time.Now()
			if hourlyLimit != nil {
				m.rows[i].HourlyLimit = *hourlyLimit
			}
			return nil
		}
	}
	return errs.ErrNotFound
}

func (m *memTokens) SetCiphertext(ctx context.Context, id int64, encToken string) error {
	for i := range m.rows {
		if m.rows[i].ID == id {
			m.rows[i].EncToken = encToken
			return nil
		}
	}
	return errs.ErrNotFound
}

func (m *memTokens) TouchLastUsed(ctx context.Context, id int64) error {
	m.touched = append(m.touched, id)
	return nil
}

func (m *memTokens) Delete(ctx context.Context, id int64) error {
	for i := range m.rows {
		if m.rows[i].ID == id {
			m.rows = append(m.rows[:i], m.rows[i+1:]...)
			return nil
		}
	}
	return errs.ErrNotFound
}

type memProviders struct {
	rows   []model.ProviderConfig
	nextID int64
}

func (m *memProviders) Create(ctx context.Context, p *model.ProviderConfig) (int64, error) {
	for i := range m.rows {
		if m.rows[i].Name == p.Name {
			return 0, errs.ErrNameTaken
		}
	}
	m.nextID++
	row := *p
	row.ID = m.nextID
	m.rows = append(m.rows, row)
	return row.ID, nil
}

func (m *memProviders) Get(ctx context.Context, id int64) (*model.ProviderConfig, error) {
	for i := range m.rows {
		if m.rows[i].ID == id {
			row := m.rows[i]
			return &row, nil
		}
	}
	return nil, errs.ErrNotFound
}

func (m *memProviders) GetDefault(ctx context.Context) (*model.ProviderConfig, error) {
	if len(m.rows) == 0 {
		return nil, errs.ErrNotFound
	}
	low := 0
	for i := range m.rows {
		if m.rows[i].ID < m.rows[low].ID {
			low = i
		}
	}
	row := m.rows[low]
	return &row, nil
}

func (m *memProviders) List(ctx context.Context) ([]model.ProviderConfig, error) {
	out := make([]model.ProviderConfig, len(m.rows))
	copy(out, m.rows)
	return out, nil
}

func (m *memProviders) Update(ctx context.Context, p *model.ProviderConfig) error {
	for i := range m.rows {
		if m.rows[i].ID == p.ID {
			m.rows[i].Name = p.Name
			m.rows[i].EncAppToken = p.EncAppToken
			m.rows[i].EncUserKey = p.EncUserKey
			return nil
		}
	}
	return errs.ErrNotFound
}

func (m *memProviders) SetCiphertexts(ctx context.Context, id int64, encAppToken, encUserKey string) error {
	for i := range m.rows {
		if m.rows[i].ID == id {
			m.rows[i].EncAppToken = encAppToken
			m.rows[i].EncUserKey = encUserKey
			return nil
		}
	}
	return errs.ErrNotFound
}

func (m *memProviders) Delete(ctx context.Context, id int64) error {
	for i := range m.rows {
		if m.rows[i].ID == id {
			m.rows = append(m.rows[:i], m.rows[i+1:]...)
			return nil
		}
	}
	return errs.ErrNotFound
}

type memAdmins struct {
	rows   []model.AdminPassword
	nextID int64
}

func (m *memAdmins) Current(ctx context.Context) (*model.AdminPassword, error) {
	if len(m.rows) == 0 {
		return nil, errs.ErrNotFound
	}
	row := m.rows[len(m.rows)-1]
	return &row, nil
}

func (m *memAdmins) Set(ctx context.Context, encPassword string) (int64, error) {
	m.nextID++
	m.rows = append(m.rows, model.AdminPassword{ID: m.nextID, EncPassword: encPassword, UpdatedAt: time.Now()})
	return m.nextID, nil
}

func (m *memAdmins) List(ctx context.Context) ([]model.AdminPassword, error) {
	out := make([]model.AdminPassword, len(m.rows))
	copy(out, m.rows)
	return out, nil
}

func (m *memAdmins) SetCiphertext(ctx context.Context, id int64, encPassword string) error {
	for i := range m.rows {
		if m.rows[i].ID == id {
			m.rows[i].EncPassword = encPassword
			return nil
		}
	}
	return errs.ErrNotFound
}

type memDeliveries struct {
	rows      []model.Delivery
	nextID    int64
	createErr error
}

func (m *memDeliveries) Create(ctx context.Context, d *model.Delivery) (int64, error) {
	if m.createErr != nil {
		return 0, m.createErr
	}
	m.nextID++
	row := *d
	row.ID = m.nextID
	row.CreatedAt = time.Now()
	m.rows = append(m.rows, row)
	return row.ID, nil
}

func (m *memDeliveries) CountSince(ctx context.Context, tokenID int64, since time.Time) (int, error) {
	n := 0
	for i := range m.rows {
		if m.rows[i].TokenID == tokenID && !m.rows[i].CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (m *memDeliveries) List(ctx context.Context, f model.DeliveryFilter) ([]model.Delivery, error) {
	out := make([]model.Delivery, 0, len(m.rows))
	for i := len(m.rows) - 1; i >= 0; i-- {
		r := m.rows[i]
		if f.TokenID != 0 && r.TokenID != f.TokenID {
			continue
		}
		if f.Outcome != "" && r.Outcome != f.Outcome {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

/************ limiter and dispatcher fakes ************/

// countingLimiter mirrors the real store-backed behavior against memDeliveries.
type countingLimiter struct {
	deliveries *memDeliveries
	err        error
}

func (l *countingLimiter) Allow(ctx context.Context, tokenID int64, limitPerHour int) (bool, error) {
	if l.err != nil {
		return false, l.err
	}
	if limitPerHour <= 0 {
		return false, nil
	}
	n, err := l.deliveries.CountSince(ctx, tokenID, time.Now().Add(-time.Hour))
	if err != nil {
		return false, err
	}
	return n < limitPerHour, nil
}

type fakeDispatcher struct {
	res   pushover.Result
	err   error
	calls int

	gotApp, gotUser, gotMsg string
}

func (d *fakeDispatcher) Send(ctx context.Context, appToken, userKey, message string) (pushover.Result, error) {
	d.calls++
	d.gotApp, d.gotUser, d.gotMsg = appToken, userKey, message
	return d.res, d.err
}
