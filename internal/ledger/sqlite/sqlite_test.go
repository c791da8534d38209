package sqlite

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexshd/queuelaw/internal/ledger"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(filepath.Join(t.TempDir(), "nested", "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStoreRecord(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	saved, err := store.Record(ctx, ledger.Entry{
		Model:   "MCPCI",
		Request: json.RawMessage(`{"lamb":10,"mu":15,"lamb_list":[4,3,3]}`),
		Metrics: json.RawMessage(`{"System":{"W":0.2}}`),
		Rho:     0.666667,
	})
	require.NoError(t, err)

	_, err = uuid.Parse(saved.ID)
	assert.NoError(t, err, "record should assign a uuid")
	assert.False(t, saved.CreatedAt.IsZero())

	recent, err := store.ListRecent(ctx, "", 10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, saved.ID, recent[0].ID)
	assert.Equal(t, "MCPCI", recent[0].Model)
	assert.JSONEq(t, `{"System":{"W":0.2}}`, string(recent[0].Metrics))
	assert.InDelta(t, 0.666667, recent[0].Rho, 1e-12)
	assert.True(t, saved.CreatedAt.Equal(recent[0].CreatedAt))
}

func TestStoreRecordRejectsIncompleteEntries(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	_, err := store.Record(ctx, ledger.Entry{Request: json.RawMessage(`{}`), Metrics: json.RawMessage(`{}`)})
	assert.Error(t, err, "missing model")

	_, err = store.Record(ctx, ledger.Entry{Model: "MM1", Request: json.RawMessage(`{`), Metrics: json.RawMessage(`{}`)})
	assert.Error(t, err, "malformed request")

	_, err = store.Record(ctx, ledger.Entry{ID: "not-a-uuid", Model: "MM1", Request: json.RawMessage(`{}`), Metrics: json.RawMessage(`{}`)})
	assert.Error(t, err, "bad id")
}

func TestListRecentOrderingAndFilter(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	now := time.Now().UTC()
	entries := []ledger.Entry{
		{Model: "MM1", CreatedAt: now.Add(-2 * time.Hour)},
		{Model: "MCPSI", CreatedAt: now.Add(-1 * time.Hour)},
		{Model: "MM1", CreatedAt: now},
	}
	for _, e := range entries {
		e.Request = json.RawMessage(`{}`)
		e.Metrics = json.RawMessage(`{}`)
		_, err := store.Record(ctx, e)
		require.NoError(t, err)
	}

	recent, err := store.ListRecent(ctx, "", 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "MM1", recent[0].Model)
	assert.Equal(t, "MCPSI", recent[1].Model)
	assert.True(t, recent[0].CreatedAt.After(recent[1].CreatedAt))

	mm1, err := store.ListRecent(ctx, "MM1", 0)
	require.NoError(t, err)
	assert.Len(t, mm1, 2)
	for _, e := range mm1 {
		assert.Equal(t, "MM1", e.Model)
	}
}
