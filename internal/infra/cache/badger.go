package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/dgraph-io/badger/v4"

	"github.com/Tealium/tealium-mcp-demo/internal/domain"
)

type BadgerConfig struct {
	// Path is ignored when InMemory is set.
	Path       string
	InMemory   bool
	SyncWrites bool
}

// BadgerCache stores entries in an embedded badger database for single-node
// deployments without Redis or Postgres.
type BadgerCache struct {
	db *badger.DB
}

func NewBadgerCache(cfg BadgerConfig) (*BadgerCache, error) {
	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if cfg.Path == "" {
			return nil, errors.New("badger path is required for persistent cache")
		}
		if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
			return nil, fmt.Errorf("create badger directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites).
		WithNumVersionsToKeep(1).
		WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger database: %w", err)
	}
	return &BadgerCache{db: db}, nil
}

func (b *BadgerCache) Close() error {
	return b.db.Close()
}

func (b *BadgerCache) Get(_ context.Context, key string) (*domain.CacheEntry, error) {
	var entry *domain.CacheEntry
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyPrefix + key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		} else if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			var e domain.CacheEntry
			if err := json.Unmarshal(val, &e); err != nil {
				return err
			}
			e.Key = key
			entry = &e
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (b *BadgerCache) Put(_ context.Context, entry domain.CacheEntry) error {
	val, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(keyPrefix+entry.Key), val)
	})
}

// Len counts stored entries.
func (b *BadgerCache) Len() (int, error) {
	n := 0
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			n++
		}
		return nil
	})
	return n, err
}
