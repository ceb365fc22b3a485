package storage_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ogulcanaydogan/xcli/pkg/model"
	"github.com/ogulcanaydogan/xcli/pkg/storage"
)

func newTestDB(t *testing.T) *storage.SQLite {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := storage.NewSQLite(dbPath, testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSQLite_AppendLoadAll(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	base := time.Date(2026, 5, 1, 9, 30, 0, 0, time.UTC)

	records := []model.UsageRecord{
		{Timestamp: base, Endpoint: "posts.create", Method: model.MethodPost, EstimatedCost: 0.01},
		{Timestamp: base.Add(-time.Hour), Endpoint: "posts.search", Method: model.MethodGet, EstimatedCost: 0.005},
		{Timestamp: base.Add(time.Hour), Endpoint: "posts.delete", Method: model.MethodDelete, EstimatedCost: 0.01},
	}
	for _, r := range records {
		require.NoError(t, db.Append(ctx, r))
	}

	got, err := db.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, got, 3)

	// Write order, not timestamp order.
	for i := range records {
		assert.Equal(t, records[i].Endpoint, got[i].Endpoint)
		assert.Equal(t, records[i].Method, got[i].Method)
		assert.InDelta(t, records[i].EstimatedCost, got[i].EstimatedCost, 1e-12)
		assert.True(t, records[i].Timestamp.Equal(got[i].Timestamp))
	}
}

func TestSQLite_Clear(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.Append(ctx, record("users.me", 0.01, time.Now())))
	require.NoError(t, db.Clear(ctx))

	got, err := db.LoadAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSQLite_Policy(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	policy, err := db.GetPolicy(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.DefaultPolicy(), policy)

	limit := 3.0
	require.NoError(t, db.SetPolicy(ctx, model.BudgetPolicy{DailyLimit: &limit, Action: model.ActionConfirm}))

	policy, err = db.GetPolicy(ctx)
	require.NoError(t, err)
	require.NotNil(t, policy.DailyLimit)
	assert.InDelta(t, 3.0, *policy.DailyLimit, 1e-9)
	assert.Equal(t, model.ActionConfirm, policy.Action)

	// Upsert keeps a single row.
	require.NoError(t, db.SetPolicy(ctx, model.BudgetPolicy{Action: model.ActionBlock}))
	policy, err = db.GetPolicy(ctx)
	require.NoError(t, err)
	assert.False(t, policy.HasLimit())
	assert.Equal(t, model.ActionBlock, policy.Action)

	require.NoError(t, db.ClearPolicy(ctx))
	policy, err = db.GetPolicy(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.DefaultPolicy(), policy)
}

func TestSQLite_Reopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	ctx := context.Background()

	db, err := storage.NewSQLite(dbPath, testLogger())
	require.NoError(t, err)
	require.NoError(t, db.Append(ctx, record("posts.get", 0.005, time.Now())))
	require.NoError(t, db.Close())

	db, err = storage.NewSQLite(dbPath, testLogger())
	require.NoError(t, err)
	defer db.Close()

	got, err := db.LoadAll(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}
