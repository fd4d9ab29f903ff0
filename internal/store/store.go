// Package store persists Workbets documents in a transactional key-value
// backend with secondary indexes.
//
// Every command runs inside one Update call, so a failed command leaves no
// partial writes behind. Typed access goes through the collection schemas in
// collections.go:
//
//	err := s.Update(ctx, func(tx *store.Tx) error {
//	    wager, err := store.Wagers.In(tx).Get(wagerID)
//	    ...
//	})
package store

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Transactor runs functions inside store transactions. Services depend on
// this rather than on *Store so tests can substitute their own.
type Transactor interface {
	View(ctx context.Context, fn func(*Tx) error) error
	Update(ctx context.Context, fn func(*Tx) error) error
}

// Store wraps a Backend and fans committed events out to subscribers.
type Store struct {
	backend Backend
	logger  *slog.Logger

	mu       sync.RWMutex
	emitters []EventEmitter
}

// New creates a Store over backend. The store owns the backend and closes it.
func New(backend Backend, logger *slog.Logger) *Store {
	return &Store{backend: backend, logger: logger}
}

// Subscribe registers an emitter for events from later commits.
func (s *Store) Subscribe(emitter EventEmitter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.emitters = append(s.emitters, emitter)
}

// View runs fn in a read-only snapshot.
func (s *Store) View(ctx context.Context, fn func(*Tx) error) error {
	return s.backend.View(ctx, func(kv KV) error {
		return fn(&Tx{kv: kv})
	})
}

// Update runs fn in a read-write transaction. Events queued with Tx.Emit are
// delivered only after the commit succeeds, and only once even when the
// backend replays fn.
func (s *Store) Update(ctx context.Context, fn func(*Tx) error) error {
	var committed *Tx
	err := s.backend.Update(ctx, func(kv KV) error {
		tx := &Tx{kv: kv, writable: true}
		if err := fn(tx); err != nil {
			return err
		}
		committed = tx
		return nil
	})
	if err != nil {
		return err
	}

	s.publish(committed.events)
	return nil
}

func (s *Store) publish(events []Event) {
	if len(events) == 0 {
		return
	}
	s.mu.RLock()
	emitters := make([]EventEmitter, len(s.emitters))
	copy(emitters, s.emitters)
	s.mu.RUnlock()

	for _, event := range events {
		for _, emitter := range emitters {
			emitter.Emit(event)
		}
	}
}

// Close closes the backend.
func (s *Store) Close() error {
	return s.backend.Close()
}

// Tx is one open transaction.
type Tx struct {
	kv       KV
	writable bool
	events   []Event
}

// Emit queues an event for delivery after commit.
func (tx *Tx) Emit(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	tx.events = append(tx.events, event)
}
