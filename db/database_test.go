package db

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "test.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStoreSetGetRemove(t *testing.T) {
	store := openTestStore(t)

	require.NoError(t, store.Set(map[string]any{
		KeyCurrent: 2,
		KeyTheme:   "dark",
	}))

	values, err := store.Get(KeyCurrent, KeyTheme, KeyCache)
	require.NoError(t, err)
	assert.Len(t, values, 2, "unknown keys are omitted")

	var current int
	require.NoError(t, json.Unmarshal(values[KeyCurrent], &current))
	assert.Equal(t, 2, current)

	require.NoError(t, store.Set(map[string]any{KeyCurrent: 3}))
	values, err = store.Get(KeyCurrent)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(values[KeyCurrent], &current))
	assert.Equal(t, 3, current, "set overwrites existing keys")

	require.NoError(t, store.Remove(KeyTheme))
	values, err = store.Get(KeyTheme)
	require.NoError(t, err)
	assert.Empty(t, values)
}

func TestStoreEmptyOperations(t *testing.T) {
	store := openTestStore(t)

	assert.NoError(t, store.Set(map[string]any{}))
	assert.NoError(t, store.Remove())

	values, err := store.Get(KeyModpacks)
	require.NoError(t, err)
	assert.Empty(t, values)
}
