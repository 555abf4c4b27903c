package geolib

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v3"
)

type badgerStore struct {
	db     *badger.DB
	prefix []byte
}

func (b badgerStore) Get(key string) ([]byte, bool) {
	var rv []byte

	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(b.key(key))
		if err != nil {
			return err
		}

		rv, err = item.ValueCopy(nil)

		return err
	})

	return rv, err == nil
}

func (b badgerStore) Put(key string, value []byte, ttl time.Duration) error {
	entry := badger.NewEntry(b.key(key), value)

	if ttl > 0 {
		entry = entry.WithTTL(ttl)
	}

	return b.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(entry)
	})
}

func (b badgerStore) Flush() error {
	if len(b.prefix) == 0 {
		return b.db.DropAll()
	}

	return b.db.DropPrefix(b.prefix)
}

func (b badgerStore) SupportsTags() bool {
	return true
}

func (b badgerStore) Tags(tags []string) Store {
	sorted := append([]string(nil), tags...)
	sort.Strings(sorted)

	b.prefix = []byte("tags:" + strings.Join(sorted, "|") + "/")

	return b
}

func (b badgerStore) Close() error {
	if err := b.db.Close(); err != nil && !errors.Is(err, badger.ErrDBClosed) {
		return err
	}

	return nil
}

func (b badgerStore) key(key string) []byte {
	rv := make([]byte, 0, len(b.prefix)+len(key))
	rv = append(rv, b.prefix...)

	return append(rv, key...)
}

// NewBadgerStore returns a persistent store which keeps data in a given
// directory. If directory is empty, data is kept in memory. This store
// supports tags: each set of tags is a key prefix.
func NewBadgerStore(directory string) (Store, error) {
	opts := badger.DefaultOptions(directory).WithLogger(nil)

	if directory == "" {
		opts = opts.WithInMemory(true)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("cannot open badger database: %w", err)
	}

	return badgerStore{
		db: db,
	}, nil
}
