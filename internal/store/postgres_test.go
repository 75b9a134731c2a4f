package store_test

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tartampluch/go-cycle/internal/config"
	"github.com/tartampluch/go-cycle/internal/engine"
	"github.com/tartampluch/go-cycle/internal/store"
)

// databaseURL returns the DSN of a disposable PostgreSQL instance or skips.
func databaseURL(t *testing.T) string {
	t.Helper()
	dsn := os.Getenv(config.EnvTestDatabase)
	if dsn == "" {
		t.Skip(config.EnvTestDatabase + " not set; skipping PostgreSQL integration test")
	}
	return dsn
}

func TestNewPeriodStore_NilDB(t *testing.T) {
	assert.Panics(t, func() { store.NewPeriodStore(nil, nil) })
}

func TestOpen_InvalidDSN(t *testing.T) {
	_, err := store.Open(context.Background(), "postgres://invalid host:0/db")
	assert.Error(t, err)
}

// TestPeriodStore_ListEvents runs against a temporary table inside a
// transaction that is always rolled back.
func TestPeriodStore_ListEvents(t *testing.T) {
	ctx := context.Background()
	db, err := store.Open(ctx, databaseURL(t))
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		CREATE TEMP TABLE periods (
			id uuid PRIMARY KEY DEFAULT gen_random_uuid(),
			user_id text NOT NULL,
			start_date date NOT NULL,
			end_date date,
			flow_level integer,
			notes text
		) ON COMMIT DROP`)
	require.NoError(t, err)

	_, err = tx.ExecContext(ctx, `
		INSERT INTO periods (user_id, start_date, end_date, flow_level, notes) VALUES
			('alice', '2024-02-26', NULL, 3, 'tired'),
			('alice', '2024-01-01', '2024-01-05', 4, NULL),
			('alice', '2024-01-29', NULL, NULL, NULL),
			('alice', '2024-03-25', NULL, 9, NULL),
			('bob',   '2024-01-15', NULL, 2, NULL)`)
	require.NoError(t, err)

	ps := store.NewPeriodStore(tx, nil)
	events, err := ps.ListEvents(ctx, "alice")
	require.NoError(t, err)

	// The flow level 9 row is rejected; bob's row is not visible.
	require.Len(t, events, 3)
	assert.Equal(t, "2024-01-01", events[0].StartDate.Format("2006-01-02"))
	assert.Equal(t, "2024-01-05", events[0].EndDate.Format("2006-01-02"))
	assert.Equal(t, 4, events[0].FlowLevel)
	assert.Equal(t, 0, events[1].FlowLevel)
	assert.True(t, events[1].EndDate.IsZero())
	assert.Equal(t, "tired", events[2].Notes)
	assert.NotEmpty(t, events[2].ID)

	_, ok := engine.Predict(events)
	assert.True(t, ok)
}
