package geolib

import (
	"sort"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/puzpuzpuz/xsync/v3"
)

type taggedStore struct {
	namespaces      *xsync.MapOf[string, *gocache.Cache]
	namespace       string
	cleanupInterval time.Duration
}

func (t taggedStore) Get(key string) ([]byte, bool) {
	value, ok := t.current().Get(key)
	if !ok {
		return nil, false
	}

	data, ok := value.([]byte)

	return data, ok
}

func (t taggedStore) Put(key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}

	t.current().Set(key, value, ttl)

	return nil
}

func (t taggedStore) Flush() error {
	t.current().Flush()

	return nil
}

func (t taggedStore) SupportsTags() bool {
	return true
}

func (t taggedStore) Tags(tags []string) Store {
	sorted := append([]string(nil), tags...)
	sort.Strings(sorted)

	t.namespace = strings.Join(sorted, "|")

	return t
}

func (t taggedStore) current() *gocache.Cache {
	rv, _ := t.namespaces.LoadOrCompute(t.namespace, func() *gocache.Cache {
		return gocache.New(gocache.NoExpiration, t.cleanupInterval)
	})

	return rv
}

// NewTaggedStore returns in-memory store which supports tags. Each set
// of tags has its own independent namespace.
func NewTaggedStore(cleanupInterval time.Duration) Store {
	return taggedStore{
		namespaces:      xsync.NewMapOf[string, *gocache.Cache](),
		cleanupInterval: cleanupInterval,
	}
}
