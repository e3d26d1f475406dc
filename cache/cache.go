// Package cache memoizes mod metadata so titles and icons do not have to
// be fetched again on every listing. Entries never expire.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"modpack-downloader/catalog"
	"modpack-downloader/modpack"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// StoreKey is the key the cache is persisted under.
const StoreKey = "cache"

// Store is the key-value persistence backing the cache.
type Store interface {
	Get(keys ...string) (map[string]json.RawMessage, error)
	Set(values map[string]any) error
	Remove(keys ...string) error
}

// Key identifies a cached entry.
type Key struct {
	Provider modpack.Provider
	ID       string
}

// KeyOf returns the cache key of a mod reference.
func KeyOf(ref modpack.ModReference) Key {
	return Key{Provider: ref.Provider, ID: ref.ID}
}

func (k Key) String() string {
	return string(k.Provider) + ":" + k.ID
}

func parseKey(s string) (Key, bool) {
	provider, id, ok := strings.Cut(s, ":")
	if !ok || id == "" {
		return Key{}, false
	}
	return Key{Provider: modpack.Provider(provider), ID: id}, true
}

// Cache is a thread-safe, write-through metadata cache.
type Cache struct {
	mu       sync.Mutex
	entries  map[Key]modpack.Metadata
	store    Store
	catalogs catalog.Registry
	group    singleflight.Group
	log      *zap.SugaredLogger
}

// New loads the persisted cache from store.
func New(store Store, catalogs catalog.Registry, log *zap.SugaredLogger) (*Cache, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	c := &Cache{
		entries:  map[Key]modpack.Metadata{},
		store:    store,
		catalogs: catalogs,
		log:      log,
	}

	values, err := store.Get(StoreKey)
	if err != nil {
		return nil, fmt.Errorf("failed to load metadata cache: %w", err)
	}
	if raw, ok := values[StoreKey]; ok {
		var stored map[string]modpack.Metadata
		if err := json.Unmarshal(raw, &stored); err != nil {
			log.Warnw("Discarding unreadable metadata cache", zap.Error(err))
			return c, nil
		}
		for k, v := range stored {
			key, ok := parseKey(k)
			if !ok {
				log.Debugw("Skipping cache entry without provider", zap.String("key", k))
				continue
			}
			c.entries[key] = v
		}
	}
	return c, nil
}

// persist writes the full cache to the store. Callers hold c.mu.
func (c *Cache) persist() error {
	out := make(map[string]modpack.Metadata, len(c.entries))
	for k, v := range c.entries {
		out[k.String()] = v
	}
	if err := c.store.Set(map[string]any{StoreKey: out}); err != nil {
		return fmt.Errorf("failed to persist metadata cache: %w", err)
	}
	return nil
}

// Lookup returns the cached entry for ref without fetching.
func (c *Cache) Lookup(ref modpack.ModReference) (modpack.Metadata, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	m, ok := c.entries[KeyOf(ref)]
	return m, ok
}

// Put merges each entry over any existing entry with the same key.
// Entries without an id or provider are ignored.
func (c *Cache) Put(entries ...modpack.Metadata) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	changed := false
	for _, e := range entries {
		if e.IsError() || e.Provider == "" {
			continue
		}
		key := Key{Provider: e.Provider, ID: e.ID}
		c.entries[key] = c.entries[key].Merge(e)
		changed = true
	}
	if !changed {
		return nil
	}
	return c.persist()
}

// Remove deletes the entry for ref.
func (c *Cache) Remove(ref modpack.ModReference) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, KeyOf(ref))
	return c.persist()
}

// Clear drops every entry.
func (c *Cache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = map[Key]modpack.Metadata{}
	if err := c.store.Remove(StoreKey); err != nil {
		return fmt.Errorf("failed to clear metadata cache: %w", err)
	}
	return nil
}

// All returns a snapshot of every cached entry.
func (c *Cache) All() map[Key]modpack.Metadata {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[Key]modpack.Metadata, len(c.entries))
	for k, v := range c.entries {
		out[k] = v
	}
	return out
}

// Get returns metadata for every ref. Missing entries are fetched, one
// request per key even across concurrent callers, and written back before
// Get returns. A failed fetch yields modpack.ErrorMetadata for that key and
// is not cached.
func (c *Cache) Get(ctx context.Context, refs []modpack.ModReference) map[Key]modpack.Metadata {
	out := make(map[Key]modpack.Metadata, len(refs))
	var missing []modpack.ModReference

	c.mu.Lock()
	for _, ref := range refs {
		key := KeyOf(ref)
		if m, ok := c.entries[key]; ok {
			out[key] = m
		} else if _, dup := out[key]; !dup {
			out[key] = modpack.ErrorMetadata
			missing = append(missing, ref)
		}
	}
	c.mu.Unlock()

	if len(missing) == 0 {
		return out
	}

	fetched := make([]modpack.Metadata, len(missing))
	var wg sync.WaitGroup
	for i, ref := range missing {
		wg.Add(1)
		go func(i int, ref modpack.ModReference) {
			defer wg.Done()
			fetched[i] = c.fetch(ctx, ref)
		}(i, ref)
	}
	wg.Wait()

	for i, ref := range missing {
		key := KeyOf(ref)
		if m, ok := c.Lookup(ref); ok {
			out[key] = m
		} else {
			out[key] = fetched[i]
		}
	}
	return out
}

// Warm fetches and stores metadata for ref if it is not cached yet.
func (c *Cache) Warm(ctx context.Context, ref modpack.ModReference) {
	if _, ok := c.Lookup(ref); ok {
		return
	}
	c.fetch(ctx, ref)
}

func (c *Cache) fetch(ctx context.Context, ref modpack.ModReference) modpack.Metadata {
	key := KeyOf(ref)
	v, _, _ := c.group.Do(key.String(), func() (any, error) {
		if m, ok := c.Lookup(ref); ok {
			return m, nil
		}
		adapter, ok := c.catalogs.For(ref.Provider)
		if !ok {
			c.log.Warnw("No catalog for provider", zap.String("key", key.String()))
			return modpack.ErrorMetadata, nil
		}
		m := adapter.FetchMetadata(ctx, ref.ID)
		if m.IsError() {
			return m, nil
		}
		m.ID = ref.ID
		m.Provider = ref.Provider
		if err := c.Put(m); err != nil {
			c.log.Warnw("Failed to write metadata through", zap.String("key", key.String()), zap.Error(err))
		}
		return m, nil
	})
	return v.(modpack.Metadata)
}
