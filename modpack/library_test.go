package modpack

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	values map[string]json.RawMessage
}

func newMemoryStore() *memoryStore {
	return &memoryStore{values: map[string]json.RawMessage{}}
}

func (s *memoryStore) Get(keys ...string) (map[string]json.RawMessage, error) {
	out := map[string]json.RawMessage{}
	for _, k := range keys {
		if v, ok := s.values[k]; ok {
			out[k] = v
		}
	}
	return out, nil
}

func (s *memoryStore) Set(values map[string]any) error {
	for k, v := range values {
		raw, err := json.Marshal(v)
		if err != nil {
			return err
		}
		s.values[k] = raw
	}
	return nil
}

func (s *memoryStore) Remove(keys ...string) error {
	for _, k := range keys {
		delete(s.values, k)
	}
	return nil
}

func ref(id string) ModReference {
	return ModReference{ID: id, Provider: ProviderModrinth, Enabled: true}
}

func TestLibraryEmpty(t *testing.T) {
	lib := NewLibrary(newMemoryStore())

	_, err := lib.Current()
	assert.ErrorIs(t, err, ErrNoModpack)

	_, err = lib.AddMod(ref("a"))
	assert.ErrorIs(t, err, ErrNoModpack)
}

func TestLibraryAddAndSelect(t *testing.T) {
	lib := NewLibrary(newMemoryStore())

	require.NoError(t, lib.Add(Modpack{Name: "first"}))
	require.NoError(t, lib.Add(Modpack{Name: "second"}))

	current, err := lib.Current()
	require.NoError(t, err)
	assert.Equal(t, "second", current.Name)

	require.NoError(t, lib.SetCurrent(0))
	current, err = lib.Current()
	require.NoError(t, err)
	assert.Equal(t, "first", current.Name)

	assert.ErrorIs(t, lib.SetCurrent(5), ErrOutOfRange)

	require.NoError(t, lib.RemoveCurrent())
	packs, idx, err := lib.List()
	require.NoError(t, err)
	assert.Len(t, packs, 1)
	assert.Equal(t, 0, idx)
	assert.Equal(t, "second", packs[0].Name)
}

func TestLibraryModOperations(t *testing.T) {
	lib := NewLibrary(newMemoryStore())
	require.NoError(t, lib.Add(Modpack{Name: "pack", Version: "1.19.2", Modloader: LoaderQuilt}))

	for _, id := range []string{"a", "b", "c"} {
		added, err := lib.AddMod(ref(id))
		require.NoError(t, err)
		assert.True(t, added)
	}

	added, err := lib.AddMod(ref("b"))
	require.NoError(t, err)
	assert.False(t, added, "duplicate mods are ignored")

	enabled, err := lib.ToggleMod(ref("b"))
	require.NoError(t, err)
	assert.False(t, enabled)

	require.NoError(t, lib.MoveMod(ref("c"), 0))
	require.NoError(t, lib.RemoveMod(ref("a")))
	assert.ErrorIs(t, lib.RemoveMod(ref("zzz")), ErrModNotFound)

	require.NoError(t, lib.SetVersion("1.20.1"))
	require.NoError(t, lib.SetModloader(LoaderFabric))

	current, err := lib.Current()
	require.NoError(t, err)
	assert.Equal(t, "1.20.1", current.Version)
	assert.Equal(t, LoaderFabric, current.Modloader)
	assert.Equal(t, []ModReference{
		ref("c"),
		{ID: "b", Provider: ProviderModrinth, Enabled: false},
	}, current.Mods)
}

func TestLibraryImportLeavesStoreOnRejection(t *testing.T) {
	store := newMemoryStore()
	lib := NewLibrary(store)

	_, err := lib.ImportFrom(strings.NewReader(`{"name":"broken"}`))
	assert.ErrorIs(t, err, ErrInvalidModpack)
	assert.Empty(t, store.values)

	m, err := lib.ImportFrom(strings.NewReader(`{"name":"ok","version":"1.19","modloader":"forge","mods":[]}`))
	require.NoError(t, err)
	assert.Equal(t, "ok", m.Name)

	current, err := lib.Current()
	require.NoError(t, err)
	assert.Equal(t, "ok", current.Name)
}
