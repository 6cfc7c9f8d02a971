package solutions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/dgraph-io/badger/v4"
)

// BadgerConfig selects where the database lives
type BadgerConfig struct {
	// Path is the database directory. Ignored when InMemory is set.
	Path     string
	InMemory bool
}

// BadgerStore persists records in a Badger key-value database
type BadgerStore struct {
	db *badger.DB
}

// OpenBadgerStore opens or creates the database
func OpenBadgerStore(cfg BadgerConfig) (*BadgerStore, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("path is required for a persistent solution store")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0750); err != nil {
			return nil, fmt.Errorf("create solution store directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithNumVersionsToKeep(1).WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open solution store: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

func (s *BadgerStore) Get(ctx context.Context, configName, hash string) (*Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var record Record
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(recordKey(configName, hash)))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &record)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrSolutionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read solution %s/%s: %w", configName, hash, err)
	}
	return &record, nil
}

func (s *BadgerStore) Put(ctx context.Context, record *Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateRecord(record); err != nil {
		return err
	}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode solution: %w", err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(recordKey(record.ConfigName, record.Hash)), data)
	})
	if err != nil {
		return fmt.Errorf("write solution %s/%s: %w", record.ConfigName, record.Hash, err)
	}
	return nil
}

func (s *BadgerStore) DeleteConfig(ctx context.Context, configName string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.db.DropPrefix([]byte(configPrefix(configName))); err != nil {
		return fmt.Errorf("drop solutions of %s: %w", configName, err)
	}
	return nil
}

// Count returns the number of stored records
func (s *BadgerStore) Count() (int, error) {
	count := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(keyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			count++
		}
		return nil
	})
	return count, err
}

func (s *BadgerStore) Close() error {
	return s.db.Close()
}
