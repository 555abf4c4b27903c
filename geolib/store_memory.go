package geolib

import (
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto"
)

var errMemoryStoreRejected = errors.New("value was rejected by the store")

type memoryStore struct {
	cache *ristretto.Cache
}

func (m memoryStore) Get(key string) ([]byte, bool) {
	value, ok := m.cache.Get(key)
	if !ok {
		return nil, false
	}

	data, ok := value.([]byte)

	return data, ok
}

func (m memoryStore) Put(key string, value []byte, ttl time.Duration) error {
	if !m.cache.SetWithTTL(key, value, 1, ttl) {
		return errMemoryStoreRejected
	}

	m.cache.Wait()

	return nil
}

func (m memoryStore) Flush() error {
	m.cache.Clear()

	return nil
}

func (m memoryStore) SupportsTags() bool {
	return false
}

func (m memoryStore) Tags(_ []string) Store {
	return m
}

func (m memoryStore) Close() error {
	m.cache.Close()

	return nil
}

// NewMemoryStore returns in-memory store which keeps up to itemsCount
// items. It does not support tags.
func NewMemoryStore(itemsCount uint) (Store, error) {
	cacheConfig := &ristretto.Config{
		MaxCost:            int64(itemsCount),
		NumCounters:        10 * int64(itemsCount),
		BufferItems:        64,
		IgnoreInternalCost: true,
	}

	cache, err := ristretto.NewCache(cacheConfig)
	if err != nil {
		return nil, fmt.Errorf("cannot create ristretto cache: %w", err)
	}

	return memoryStore{
		cache: cache,
	}, nil
}
