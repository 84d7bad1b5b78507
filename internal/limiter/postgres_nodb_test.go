package limiter

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

/************ fake pgx ************/

type fakeRow struct{ scan func(dest ...any) error }

func (r fakeRow) Scan(dest ...any) error { return r.scan(dest...) }

type fakePool struct {
	count    int
	qrErr    error
	queried  bool
	gotSince time.Time
}

func (f *fakePool) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (f *fakePool) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	f.queried = true
	if len(args) == 2 {
		if since, ok := args[1].(time.Time); ok {
			f.gotSince = since
		}
	}
	return fakeRow{scan: func(dest ...any) error {
		if f.qrErr != nil {
			return f.qrErr
		}
		*(dest[0].(*int)) = f.count
		return nil
	}}
}

func TestAllow_BelowLimit(t *testing.T) {
	fp := &fakePool{count: 4}
	l := NewPGWithQuerier(fp, time.Hour)

	ok, err := l.Allow(context.Background(), 1, 5)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestAllow_AtLimit(t *testing.T) {
	fp := &fakePool{count: 5}
	l := NewPGWithQuerier(fp, time.Hour)

	ok, err := l.Allow(context.Background(), 1, 5)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestAllow_ZeroLimit_NeverQueries(t *testing.T) {
	fp := &fakePool{count: 0}
	l := NewPGWithQuerier(fp, time.Hour)

	ok, err := l.Allow(context.Background(), 1, 0)
	require.NoError(t, err)
	require.False(t, ok)
	require.False(t, fp.queried)
}

func TestAllow_WindowBound(t *testing.T) {
	fp := &fakePool{count: 0}
	l := NewPGWithQuerier(fp, time.Hour)

	before := time.Now().Add(-time.Hour)
	_, err := l.Allow(context.Background(), 1, 5)
	require.NoError(t, err)
	after := time.Now().Add(-time.Hour)

	// since must be exactly one window behind "now"
	require.False(t, fp.gotSince.Before(before))
	require.False(t, fp.gotSince.After(after))
}

func TestAllow_QueryError(t *testing.T) {
	fp := &fakePool{qrErr: errors.New("db down")}
	l := NewPGWithQuerier(fp, time.Hour)

	_, err := l.Allow(context.Background(), 1, 5)
	require.Error(t, err)
}
