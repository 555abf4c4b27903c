package geolib

import (
	"encoding/json"
	"fmt"
	"time"
)

// Cache stores locations in a Store. Tags are bound once on
// construction: if store supports them, all operations are scoped to
// the given set of tags.
type Cache struct {
	store  Store
	prefix string
	tagged bool
}

// Get returns a cached location. Malformed values are treated as
// misses. Returned location always has Cached flag set.
func (c *Cache) Get(key string) (Location, bool) {
	data, ok := c.store.Get(c.prefix + key)
	if !ok {
		return Location{}, false
	}

	rv := Location{}

	if err := json.Unmarshal(data, &rv); err != nil {
		return Location{}, false
	}

	rv.Cached = true

	return rv, true
}

// Set stores a location under a given key. Existing value is
// overwritten.
func (c *Cache) Set(key string, location Location, ttl time.Duration) error {
	data, err := json.Marshal(location)
	if err != nil {
		return fmt.Errorf("cannot serialize location: %w", err)
	}

	if err := c.store.Put(c.prefix+key, data, ttl); err != nil {
		return fmt.Errorf("cannot put a value into the store: %w", err)
	}

	return nil
}

// Flush removes all items stored under the tags of this cache. If cache
// is not tagged, this is a no-op: untagged stores are never flushed
// completely.
func (c *Cache) Flush() error {
	if !c.tagged {
		return nil
	}

	if err := c.store.Flush(); err != nil {
		return fmt.Errorf("cannot flush a store: %w", err)
	}

	return nil
}

// SupportsTags tells if this cache is scoped by tags.
func (c *Cache) SupportsTags() bool {
	return c.tagged
}

// NewCache returns a new cache on top of a given store.
func NewCache(store Store, tags []string, prefix string) *Cache {
	rv := &Cache{
		store:  store,
		prefix: prefix,
	}

	if len(tags) > 0 && store.SupportsTags() {
		rv.store = store.Tags(tags)
		rv.tagged = true
	}

	return rv
}
