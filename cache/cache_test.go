package cache

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"modpack-downloader/catalog"
	"modpack-downloader/modpack"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	mu     sync.Mutex
	values map[string]json.RawMessage
}

func newMemoryStore() *memoryStore {
	return &memoryStore{values: map[string]json.RawMessage{}}
}

func (s *memoryStore) Get(keys ...string) (map[string]json.RawMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := map[string]json.RawMessage{}
	for _, k := range keys {
		if v, ok := s.values[k]; ok {
			out[k] = v
		}
	}
	return out, nil
}

func (s *memoryStore) Set(values map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
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
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		delete(s.values, k)
	}
	return nil
}

type countingAdapter struct {
	provider modpack.Provider
	calls    atomic.Int32
	fail     map[string]bool
	delay    time.Duration
}

func (a *countingAdapter) Provider() modpack.Provider { return a.provider }

func (a *countingAdapter) ListFiles(context.Context, string) []catalog.Candidate { return nil }

func (a *countingAdapter) FetchMetadata(_ context.Context, id string) modpack.Metadata {
	a.calls.Add(1)
	time.Sleep(a.delay)
	if a.fail[id] {
		return modpack.ErrorMetadata
	}
	return modpack.Metadata{ID: id, Provider: a.provider, Title: "Title " + id, URL: "https://example/" + id}
}

func mr(id string) modpack.ModReference {
	return modpack.ModReference{ID: id, Provider: modpack.ProviderModrinth, Enabled: true}
}

func newTestCache(t *testing.T, store Store, adapter *countingAdapter) *Cache {
	t.Helper()
	c, err := New(store, catalog.NewRegistry(adapter), nil)
	require.NoError(t, err)
	return c
}

func TestPutMergesEntries(t *testing.T) {
	adapter := &countingAdapter{provider: modpack.ProviderModrinth}
	c := newTestCache(t, newMemoryStore(), adapter)

	require.NoError(t, c.Put(modpack.Metadata{ID: "a", Provider: modpack.ProviderModrinth, Title: "X"}))
	require.NoError(t, c.Put(modpack.Metadata{ID: "a", Provider: modpack.ProviderModrinth, IconURL: "y"}))

	got := c.Get(context.Background(), []modpack.ModReference{mr("a")})
	assert.Equal(t, map[Key]modpack.Metadata{
		{Provider: modpack.ProviderModrinth, ID: "a"}: {ID: "a", Provider: modpack.ProviderModrinth, Title: "X", IconURL: "y"},
	}, got)
	assert.Zero(t, adapter.calls.Load(), "cached entries are not fetched")
}

func TestGetFetchesMissingOnceAndPersists(t *testing.T) {
	store := newMemoryStore()
	adapter := &countingAdapter{provider: modpack.ProviderModrinth, fail: map[string]bool{"bad": true}}
	c := newTestCache(t, store, adapter)

	got := c.Get(context.Background(), []modpack.ModReference{mr("a"), mr("b"), mr("a"), mr("bad")})
	require.Len(t, got, 3)
	assert.Equal(t, "Title a", got[KeyOf(mr("a"))].Title)
	assert.Equal(t, "Title b", got[KeyOf(mr("b"))].Title)
	assert.True(t, got[KeyOf(mr("bad"))].IsError())
	assert.Equal(t, int32(3), adapter.calls.Load())

	_, ok := c.Lookup(mr("bad"))
	assert.False(t, ok, "failed fetches are not cached")

	reloaded := newTestCache(t, store, adapter)
	m, ok := reloaded.Lookup(mr("b"))
	require.True(t, ok)
	assert.Equal(t, "https://example/b", m.URL)
}

func TestConcurrentGetFetchesOnce(t *testing.T) {
	adapter := &countingAdapter{provider: modpack.ProviderModrinth, delay: 50 * time.Millisecond}
	c := newTestCache(t, newMemoryStore(), adapter)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got := c.Get(context.Background(), []modpack.ModReference{mr("shared")})
			assert.Equal(t, "Title shared", got[KeyOf(mr("shared"))].Title)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), adapter.calls.Load())
}

func TestWarmAndConcurrentPutsMerge(t *testing.T) {
	adapter := &countingAdapter{provider: modpack.ProviderModrinth}
	c := newTestCache(t, newMemoryStore(), adapter)

	c.Warm(context.Background(), mr("a"))
	c.Warm(context.Background(), mr("a"))
	assert.Equal(t, int32(1), adapter.calls.Load())

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		assert.NoError(t, c.Put(modpack.Metadata{ID: "a", Provider: modpack.ProviderModrinth, Description: "desc"}))
	}()
	go func() {
		defer wg.Done()
		assert.NoError(t, c.Put(modpack.Metadata{ID: "a", Provider: modpack.ProviderModrinth, IconURL: "icon"}))
	}()
	wg.Wait()

	m, ok := c.Lookup(mr("a"))
	require.True(t, ok)
	assert.Equal(t, "Title a", m.Title)
	assert.Equal(t, "desc", m.Description)
	assert.Equal(t, "icon", m.IconURL)
}

func TestProvidersDoNotCollide(t *testing.T) {
	adapter := &countingAdapter{provider: modpack.ProviderModrinth}
	c := newTestCache(t, newMemoryStore(), adapter)

	require.NoError(t, c.Put(
		modpack.Metadata{ID: "123", Provider: modpack.ProviderModrinth, Title: "A"},
		modpack.Metadata{ID: "123", Provider: modpack.ProviderCurseForge, Title: "B"},
	))

	a, _ := c.Lookup(mr("123"))
	b, _ := c.Lookup(modpack.ModReference{ID: "123", Provider: modpack.ProviderCurseForge})
	assert.Equal(t, "A", a.Title)
	assert.Equal(t, "B", b.Title)
}

func TestRemoveAndClear(t *testing.T) {
	store := newMemoryStore()
	adapter := &countingAdapter{provider: modpack.ProviderModrinth}
	c := newTestCache(t, store, adapter)

	require.NoError(t, c.Put(
		modpack.Metadata{ID: "a", Provider: modpack.ProviderModrinth, Title: "A"},
		modpack.Metadata{ID: "b", Provider: modpack.ProviderModrinth, Title: "B"},
	))

	require.NoError(t, c.Remove(mr("a")))
	_, ok := c.Lookup(mr("a"))
	assert.False(t, ok)
	assert.Len(t, c.All(), 1)

	require.NoError(t, c.Clear())
	assert.Empty(t, c.All())
	_, persisted := store.values[StoreKey]
	assert.False(t, persisted)
}

func TestUnknownProviderYieldsErrorRecord(t *testing.T) {
	c := newTestCache(t, newMemoryStore(), &countingAdapter{provider: modpack.ProviderModrinth})

	ref := modpack.ModReference{ID: "x", Provider: modpack.ProviderCurseForge}
	got := c.Get(context.Background(), []modpack.ModReference{ref})
	assert.True(t, got[KeyOf(ref)].IsError())
}
