package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/dgraph-io/badger/v4"
)

// maxConflictRetries bounds how often an update is replayed after losing an
// optimistic concurrency race.
const maxConflictRetries = 8

// conflictBackoff is the base delay before the first replay.
const conflictBackoff = 2 * time.Millisecond

// BadgerBackend stores documents in an embedded Badger database.
//
// Writers in this process take writeMu, so read-modify-write commands such as
// votes queue up instead of racing Badger's optimistic conflict detection.
type BadgerBackend struct {
	db      *badger.DB
	logger  *slog.Logger
	writeMu sync.Mutex
}

// OpenBadger opens (or creates) a Badger database at path.
// An empty path opens an in-memory database.
func OpenBadger(path string, logger *slog.Logger) (*BadgerBackend, error) {
	opts := badger.DefaultOptions(path)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = nil            // Badger's own logging is too chatty
	opts.SyncWrites = true       // Ledger writes must survive a crash
	opts.CompactL0OnClose = true // Faster startup

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	if logger != nil {
		logger.Info("Badger database opened successfully", "path", path)
	}

	return &BadgerBackend{db: db, logger: logger}, nil
}

// View runs fn in a read-only snapshot.
func (b *BadgerBackend) View(ctx context.Context, fn func(KV) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.db.View(func(txn *badger.Txn) error {
		return fn(badgerKV{txn: txn})
	})
}

// Update runs fn in a read-write transaction. When the commit still conflicts
// with another writer, fn is replayed against a fresh snapshot after a
// jittered exponential backoff.
func (b *BadgerBackend) Update(ctx context.Context, fn func(KV) error) error {
	b.writeMu.Lock()
	defer b.writeMu.Unlock()

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = conflictBackoff
	policy.RandomizationFactor = 0.5
	policy.Multiplier = 2

	attempt := 0
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		attempt++
		err := b.db.Update(func(txn *badger.Txn) error {
			return fn(badgerKV{txn: txn})
		})
		switch {
		case err == nil:
			return struct{}{}, nil
		case errors.Is(err, badger.ErrConflict):
			if b.logger != nil {
				b.logger.Debug("Retrying conflicted transaction", "attempt", attempt)
			}
			return struct{}{}, err
		default:
			return struct{}{}, backoff.Permanent(err)
		}
	}, backoff.WithBackOff(policy), backoff.WithMaxTries(maxConflictRetries+1))

	if errors.Is(err, badger.ErrConflict) {
		return fmt.Errorf("transaction kept conflicting: %w", ErrConflict)
	}
	return err
}

// Close gracefully closes the database.
func (b *BadgerBackend) Close() error {
	if b.logger != nil {
		b.logger.Info("Closing database connection")
	}
	return b.db.Close()
}

type badgerKV struct {
	txn *badger.Txn
}

func (kv badgerKV) Get(key []byte) ([]byte, error) {
	item, err := kv.txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get key: %w", err)
	}
	return item.ValueCopy(nil)
}

func (kv badgerKV) Set(key, value []byte) error {
	return kv.txn.Set(key, value)
}

func (kv badgerKV) Delete(key []byte) error {
	return kv.txn.Delete(key)
}

func (kv badgerKV) Scan(prefix []byte, fn func(key, value []byte) error) error {
	type pair struct{ key, value []byte }
	var pairs []pair

	it := kv.txn.NewIterator(badger.IteratorOptions{PrefetchValues: true, PrefetchSize: 100, Prefix: prefix})
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		item := it.Item()
		value, err := item.ValueCopy(nil)
		if err != nil {
			it.Close()
			return fmt.Errorf("failed to read value: %w", err)
		}
		pairs = append(pairs, pair{key: item.KeyCopy(nil), value: value})
	}
	it.Close()

	for _, p := range pairs {
		if err := fn(p.key, p.value); err != nil {
			return err
		}
	}
	return nil
}
