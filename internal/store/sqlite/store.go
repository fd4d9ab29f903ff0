// Package sqlite provides a SQLite implementation of store.Backend.
//
// Writers are serialized by a process-wide mutex around a SQL transaction;
// readers use WAL snapshots and never block writers.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/workbets/workbets-server/internal/store"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// Backend is a store.Backend over a single SQLite table.
type Backend struct {
	db     *sql.DB
	logger *slog.Logger

	memory  bool
	writeMu sync.Mutex
}

var _ store.Backend = (*Backend)(nil)

// Open creates a SQLite database at path, configures WAL mode and applies
// the schema. Use ":memory:" for a throwaway database.
func Open(path string, logger *slog.Logger) (*Backend, error) {
	memory := path == ":memory:"

	// Pragmas go in the DSN so every pooled connection gets them.
	dsn := path
	if !memory {
		dsn = "file:" + path + "?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if memory {
		// Each connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	} else {
		db.SetMaxOpenConns(4)
		db.SetMaxIdleConns(2)
		db.SetConnMaxLifetime(time.Hour)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("exec schema: %w", err)
	}

	if logger != nil {
		logger.Info("SQLite database opened successfully", "path", path)
	}

	return &Backend{db: db, logger: logger, memory: memory}, nil
}

// View runs fn in a read-only transaction.
func (b *Backend) View(ctx context.Context, fn func(store.KV) error) error {
	if b.memory {
		// A single shared connection cannot hold a reader open beside a writer.
		b.writeMu.Lock()
		defer b.writeMu.Unlock()
	}
	tx, err := b.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return fmt.Errorf("begin read tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // Read-only; nothing to undo

	return fn(&kv{ctx: ctx, tx: tx})
}

// Update runs fn in a write transaction, committing only if fn succeeds.
func (b *Backend) Update(ctx context.Context, fn func(store.KV) error) error {
	b.writeMu.Lock()
	defer b.writeMu.Unlock()

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	if err := fn(&kv{ctx: ctx, tx: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && b.logger != nil {
			b.logger.Error("Rollback failed", "error", rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// Close closes the underlying database connection.
func (b *Backend) Close() error {
	if b.logger != nil {
		b.logger.Info("Closing database connection")
	}
	return b.db.Close()
}

type kv struct {
	ctx context.Context
	tx  *sql.Tx
}

func (k *kv) Get(key []byte) ([]byte, error) {
	var value []byte
	err := k.tx.QueryRowContext(k.ctx, `SELECT value FROM documents WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get key: %w", err)
	}
	return value, nil
}

func (k *kv) Set(key, value []byte) error {
	if value == nil {
		value = []byte{}
	}
	_, err := k.tx.ExecContext(k.ctx,
		`INSERT INTO documents (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return fmt.Errorf("set key: %w", err)
	}
	return nil
}

func (k *kv) Delete(key []byte) error {
	if _, err := k.tx.ExecContext(k.ctx, `DELETE FROM documents WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete key: %w", err)
	}
	return nil
}

func (k *kv) Scan(prefix []byte, fn func(key, value []byte) error) error {
	var (
		rows *sql.Rows
		err  error
	)
	if end := store.PrefixEnd(prefix); end != nil {
		rows, err = k.tx.QueryContext(k.ctx,
			`SELECT key, value FROM documents WHERE key >= ? AND key < ? ORDER BY key`, prefix, end)
	} else {
		rows, err = k.tx.QueryContext(k.ctx,
			`SELECT key, value FROM documents WHERE key >= ? ORDER BY key`, prefix)
	}
	if err != nil {
		return fmt.Errorf("scan prefix: %w", err)
	}

	type pair struct{ key, value []byte }
	var pairs []pair
	for rows.Next() {
		var p pair
		if err := rows.Scan(&p.key, &p.value); err != nil {
			rows.Close()
			return fmt.Errorf("scan row: %w", err)
		}
		pairs = append(pairs, p)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("iterate rows: %w", err)
	}
	rows.Close()

	for _, p := range pairs {
		if err := fn(p.key, p.value); err != nil {
			return err
		}
	}
	return nil
}
