package buffer

import (
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "nested", "buffer.db"), "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStoreOrdersByPriorityThenTime(t *testing.T) {
	store := openTestStore(t)
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, store.Enqueue(Item{EntityID: "a", Entity: EntityTask, Operation: OperationUpdate, Priority: PriorityLow, Timestamp: base}))
	require.NoError(t, store.Enqueue(Item{EntityID: "b", Entity: EntityTask, Operation: OperationCreate, Priority: PriorityUrgent, Timestamp: base.Add(time.Minute)}))
	require.NoError(t, store.Enqueue(Item{EntityID: "c", Entity: EntityTask, Operation: OperationDelete, Timestamp: base}))

	items, err := store.GetBatch(10)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "b", items[0].EntityID)
	assert.Equal(t, "c", items[1].EntityID)
	assert.Equal(t, PriorityNormal, items[1].Priority)
	assert.Equal(t, "a", items[2].EntityID)

	size, err := store.Size()
	require.NoError(t, err)
	assert.Equal(t, 3, size)
}

func TestStoreRemoveAndRequeue(t *testing.T) {
	store := openTestStore(t)
	payload, _ := json.Marshal(map[string]string{"title": "x"})

	require.NoError(t, store.Enqueue(Item{EntityID: "a", Entity: EntityTask, Operation: OperationCreate, Data: payload}))
	require.NoError(t, store.Enqueue(Item{EntityID: "b", Entity: EntityTask, Operation: OperationCreate}))

	items, err := store.GetBatch(1)
	require.NoError(t, err)
	require.Len(t, items, 1)
	first := items[0]
	assert.JSONEq(t, `{"title":"x"}`, string(first.Data))

	first.Retries++
	require.NoError(t, store.Requeue(first))

	items, err = store.GetBatch(0)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "b", items[0].EntityID)
	assert.Equal(t, "a", items[1].EntityID)
	assert.Equal(t, 1, items[1].Retries)

	require.NoError(t, store.Remove(items[0]))
	require.NoError(t, store.Remove(Item{ID: items[1].ID}))
	size, err := store.Size()
	require.NoError(t, err)
	assert.Zero(t, size)
}

func TestStorePendingForAndCleanup(t *testing.T) {
	store := openTestStore(t)
	old := time.Now().Add(-48 * time.Hour)

	require.NoError(t, store.Enqueue(Item{EntityID: "a", Entity: EntityTask, Operation: OperationCreate, Timestamp: old}))
	require.NoError(t, store.Enqueue(Item{EntityID: "a", Entity: EntityTask, Operation: OperationStatus}))
	require.NoError(t, store.Enqueue(Item{EntityID: "b", Entity: EntityTask, Operation: OperationUpdate, Timestamp: old}))

	pending, err := store.PendingFor("a")
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, OperationCreate, pending[0].Operation)

	removed, err := store.Cleanup(time.Now().Add(-24 * time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	size, err := store.Size()
	require.NoError(t, err)
	assert.Equal(t, 1, size)
}

func TestClosedStore(t *testing.T) {
	var store *Store
	assert.Error(t, store.Enqueue(Item{}))
	_, err := store.Size()
	assert.Error(t, err)
	assert.NoError(t, store.Close())
}
