package store

import "context"

// KV is the byte-level view of one open transaction.
type KV interface {
	// Get returns ErrNotFound when key is absent.
	Get(key []byte) ([]byte, error)
	Set(key, value []byte) error
	Delete(key []byte) error
	// Scan calls fn for every key with prefix, in key order. The matching
	// pairs are read before the first call, so fn may write through the same KV.
	Scan(prefix []byte, fn func(key, value []byte) error) error
}

// Backend runs transactions against a key-value engine.
//
// Update must apply every write made by fn atomically or none of them. A
// backend using optimistic concurrency may call fn more than once; fn must
// not have side effects outside the KV.
type Backend interface {
	View(ctx context.Context, fn func(KV) error) error
	Update(ctx context.Context, fn func(KV) error) error
	Close() error
}

// PrefixEnd returns the smallest key greater than every key starting with
// prefix, or nil when no such key exists.
func PrefixEnd(prefix []byte) []byte {
	end := make([]byte, len(prefix))
	copy(end, prefix)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xff {
			end[i]++
			return end[:i+1]
		}
	}
	return nil
}
