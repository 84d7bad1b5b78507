package postgres

import (
	"context"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"

	"github.com/mlewis26201/pushgate/internal/model"
)

func TestDeliveryRepo_Create(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewDeliveryRepo(db)
	ctx := context.Background()

	mock.ExpectQuery(`INSERT INTO deliveries \(token_id, message, outcome\) VALUES \(\$1, \$2, \$3\) RETURNING id`).
		WithArgs(int64(3), "hello", "200").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(11)))
	id, err := r.Create(ctx, &model.Delivery{TokenID: 3, Message: "hello", Outcome: "200"})
	require.NoError(t, err)
	require.Equal(t, int64(11), id)
}

func TestDeliveryRepo_CountSince(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewDeliveryRepo(db)
	ctx := context.Background()
	since := time.Now().Add(-time.Hour)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM deliveries WHERE token_id=\$1 AND created_at >= \$2`).
		WithArgs(int64(3), since).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(4))
	n, err := r.CountSince(ctx, 3, since)
	require.NoError(t, err)
	require.Equal(t, 4, n)
}

func TestDeliveryRepo_List_NoFilters(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewDeliveryRepo(db)
	ctx := context.Background()
	now := time.Now()

	mock.ExpectQuery(`SELECT id, token_id, message, outcome, created_at FROM deliveries ORDER BY created_at DESC, id DESC LIMIT \$1 OFFSET \$2`).
		WithArgs(50, 0).
		WillReturnRows(pgxmock.NewRows([]string{"id", "token_id", "message", "outcome", "created_at"}).
			AddRow(int64(2), int64(3), "b", "200", now).
			AddRow(int64(1), int64(3), "a", "error", now.Add(-time.Minute)))
	recs, err := r.List(ctx, model.DeliveryFilter{})
	require.NoError(t, err)
	require.Len(t, recs, 2)
	require.Equal(t, "b", recs[0].Message)
}

func TestDeliveryRepo_List_AllFilters(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewDeliveryRepo(db)
	ctx := context.Background()
	now := time.Now()

	mock.ExpectQuery(`SELECT id, token_id, message, outcome, created_at FROM deliveries WHERE token_id=\$1 AND outcome=\$2 AND message ILIKE \$3 ORDER BY created_at DESC, id DESC LIMIT \$4 OFFSET \$5`).
		WithArgs(int64(3), "200", "%disk%", 10, 20).
		WillReturnRows(pgxmock.NewRows([]string{"id", "token_id", "message", "outcome", "created_at"}).
			AddRow(int64(9), int64(3), "disk full", "200", now))
	recs, err := r.List(ctx, model.DeliveryFilter{TokenID: 3, Outcome: "200", Search: "disk", Limit: 10, Offset: 20})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	require.Equal(t, "disk full", recs[0].Message)
}
