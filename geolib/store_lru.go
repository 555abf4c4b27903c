package geolib

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

type lruStore struct {
	cache *expirable.LRU[string, []byte]
}

func (l lruStore) Get(key string) ([]byte, bool) {
	return l.cache.Get(key)
}

// Put ignores a given ttl: expirable LRU has a single ttl for all items.
func (l lruStore) Put(key string, value []byte, _ time.Duration) error {
	l.cache.Add(key, value)

	return nil
}

func (l lruStore) Flush() error {
	l.cache.Purge()

	return nil
}

func (l lruStore) SupportsTags() bool {
	return false
}

func (l lruStore) Tags(_ []string) Store {
	return l
}

// NewLRUStore returns in-memory LRU store. All items expire after ttl.
// It does not support tags.
func NewLRUStore(size int, ttl time.Duration) Store {
	return lruStore{
		cache: expirable.NewLRU[string, []byte](size, nil, ttl),
	}
}
