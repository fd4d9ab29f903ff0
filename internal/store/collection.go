package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
)

// Repository is the capability set services use on one collection inside a
// transaction.
type Repository[T any] interface {
	Get(id string) (*T, error)
	Query(index, value string) ([]*T, error)
	Insert(doc *T) error
	Patch(id string, fn func(*T) error) (*T, error)
	Delete(id string) error
}

// Collection is the schema of one document type: its name, how to read a
// document's ID, and its secondary indexes.
type Collection[T any] struct {
	name    string
	idOf    func(*T) string
	indexes []Index[T]
}

// Index defines a secondary index on a collection.
type Index[T any] struct {
	name      string
	unique    bool
	keyGen    func(*T) []string
	transform func(string) string // Applied to generated keys and lookup values
}

// NewCollection creates a collection schema.
func NewCollection[T any](name string, idOf func(*T) string) *Collection[T] {
	return &Collection[T]{name: name, idOf: idOf}
}

// WithIndex adds a non-unique secondary index.
func (c *Collection[T]) WithIndex(name string, keyGen func(*T) []string) *Collection[T] {
	return c.WithIndexTransform(name, keyGen, nil)
}

// WithIndexTransform adds a non-unique index whose keys and lookups are
// normalized by transform, enabling case-insensitive lookups.
func (c *Collection[T]) WithIndexTransform(name string, keyGen func(*T) []string, transform func(string) string) *Collection[T] {
	c.indexes = append(c.indexes, Index[T]{name: name, keyGen: keyGen, transform: transform})
	return c
}

// WithUniqueIndex adds an index that admits one document per key.
// Insert and Patch fail with ErrAlreadyExists on a collision.
func (c *Collection[T]) WithUniqueIndex(name string, keyGen func(*T) []string, transform func(string) string) *Collection[T] {
	c.indexes = append(c.indexes, Index[T]{name: name, unique: true, keyGen: keyGen, transform: transform})
	return c
}

// Name returns the collection name.
func (c *Collection[T]) Name() string {
	return c.name
}

// In binds the collection to a transaction.
func (c *Collection[T]) In(tx *Tx) *Repo[T] {
	return &Repo[T]{c: c, tx: tx}
}

func (c *Collection[T]) index(name string) (*Index[T], error) {
	for i := range c.indexes {
		if c.indexes[i].name == name {
			return &c.indexes[i], nil
		}
	}
	return nil, fmt.Errorf("collection %s has no index %q", c.name, name)
}

func (c *Collection[T]) docPrefix() []byte {
	return []byte("doc:" + c.name + ":")
}

func (c *Collection[T]) docKey(id string) []byte {
	return append(c.docPrefix(), id...)
}

func (c *Collection[T]) indexPrefix(idx *Index[T], value string) []byte {
	return []byte("idx:" + c.name + ":" + idx.name + ":" + value + "\x00")
}

func (c *Collection[T]) uniqueKey(idx *Index[T], value string) []byte {
	return []byte("uidx:" + c.name + ":" + idx.name + ":" + value)
}

func (idx *Index[T]) keys(doc *T) []string {
	raw := idx.keyGen(doc)
	out := make([]string, 0, len(raw))
	for _, k := range raw {
		k = idx.normalize(k)
		if !slices.Contains(out, k) {
			out = append(out, k)
		}
	}
	return out
}

func (idx *Index[T]) normalize(value string) string {
	if idx.transform != nil {
		return idx.transform(value)
	}
	return value
}

// Repo is a Collection bound to a transaction.
type Repo[T any] struct {
	c  *Collection[T]
	tx *Tx
}

var _ Repository[struct{}] = (*Repo[struct{}])(nil)

// Get returns the document with id, or ErrNotFound.
func (r *Repo[T]) Get(id string) (*T, error) {
	data, err := r.tx.kv.Get(r.c.docKey(id))
	if err != nil {
		return nil, err
	}
	return r.decode(data)
}

// Exists reports whether a document with id exists.
func (r *Repo[T]) Exists(id string) (bool, error) {
	_, err := r.tx.kv.Get(r.c.docKey(id))
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// Query returns every document whose index key equals value, ordered by ID.
func (r *Repo[T]) Query(index, value string) ([]*T, error) {
	ids, err := r.QueryIDs(index, value)
	if err != nil {
		return nil, err
	}
	docs := make([]*T, 0, len(ids))
	for _, id := range ids {
		doc, err := r.Get(id)
		if err != nil {
			return nil, fmt.Errorf("%s index %s points at %s: %w", r.c.name, index, id, err)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// QueryIDs returns the IDs of documents whose index key equals value.
func (r *Repo[T]) QueryIDs(index, value string) ([]string, error) {
	idx, err := r.c.index(index)
	if err != nil {
		return nil, err
	}
	value = idx.normalize(value)

	if idx.unique {
		owner, err := r.tx.kv.Get(r.c.uniqueKey(idx, value))
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return []string{string(owner)}, nil
	}

	prefix := r.c.indexPrefix(idx, value)
	var ids []string
	err = r.tx.kv.Scan(prefix, func(key, _ []byte) error {
		ids = append(ids, string(key[len(prefix):]))
		return nil
	})
	return ids, err
}

// First returns the single document matching index and value, or ErrNotFound.
func (r *Repo[T]) First(index, value string) (*T, error) {
	docs, err := r.Query(index, value)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, ErrNotFound
	}
	return docs[0], nil
}

// All returns every document in the collection, ordered by ID.
func (r *Repo[T]) All() ([]*T, error) {
	var docs []*T
	err := r.tx.kv.Scan(r.c.docPrefix(), func(_, value []byte) error {
		doc, err := r.decode(value)
		if err != nil {
			return err
		}
		docs = append(docs, doc)
		return nil
	})
	return docs, err
}

// Insert stores a new document. It fails with ErrAlreadyExists when the ID
// or any unique index key is taken.
func (r *Repo[T]) Insert(doc *T) error {
	if !r.tx.writable {
		return ErrReadOnly
	}
	id := r.c.idOf(doc)
	if id == "" {
		return fmt.Errorf("insert into %s: empty id", r.c.name)
	}

	exists, err := r.Exists(id)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%s %s: %w", r.c.name, id, ErrAlreadyExists)
	}

	if err := r.claimIndexes(id, nil, doc); err != nil {
		return err
	}
	return r.put(id, doc)
}

// Patch loads the document, applies fn to it and saves the result, keeping
// the indexes in step. fn must not change the ID.
func (r *Repo[T]) Patch(id string, fn func(*T) error) (*T, error) {
	if !r.tx.writable {
		return nil, ErrReadOnly
	}
	old, err := r.Get(id)
	if err != nil {
		return nil, err
	}
	updated, err := r.Get(id)
	if err != nil {
		return nil, err
	}
	if err := fn(updated); err != nil {
		return nil, err
	}
	if r.c.idOf(updated) != id {
		return nil, fmt.Errorf("patch %s %s: id changed", r.c.name, id)
	}

	if err := r.releaseIndexes(id, old, updated); err != nil {
		return nil, err
	}
	if err := r.claimIndexes(id, old, updated); err != nil {
		return nil, err
	}
	if err := r.put(id, updated); err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes the document and its index entries. Deleting a missing
// document is not an error.
func (r *Repo[T]) Delete(id string) error {
	if !r.tx.writable {
		return ErrReadOnly
	}
	old, err := r.Get(id)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := r.releaseIndexes(id, old, nil); err != nil {
		return err
	}
	return r.tx.kv.Delete(r.c.docKey(id))
}

// claimIndexes writes the index entries of next that old does not already hold.
func (r *Repo[T]) claimIndexes(id string, old, next *T) error {
	for i := range r.c.indexes {
		idx := &r.c.indexes[i]
		var held []string
		if old != nil {
			held = idx.keys(old)
		}
		for _, value := range idx.keys(next) {
			if slices.Contains(held, value) {
				continue
			}
			if idx.unique {
				key := r.c.uniqueKey(idx, value)
				owner, err := r.tx.kv.Get(key)
				if err == nil && !bytes.Equal(owner, []byte(id)) {
					return fmt.Errorf("%s index %s conflict on %q: %w", r.c.name, idx.name, value, ErrAlreadyExists)
				}
				if err != nil && !errors.Is(err, ErrNotFound) {
					return err
				}
				if err := r.tx.kv.Set(key, []byte(id)); err != nil {
					return err
				}
				continue
			}
			if err := r.tx.kv.Set(append(r.c.indexPrefix(idx, value), id...), nil); err != nil {
				return err
			}
		}
	}
	return nil
}

// releaseIndexes removes the index entries of old that next no longer holds.
// A nil next releases everything.
func (r *Repo[T]) releaseIndexes(id string, old, next *T) error {
	for i := range r.c.indexes {
		idx := &r.c.indexes[i]
		var keep []string
		if next != nil {
			keep = idx.keys(next)
		}
		for _, value := range idx.keys(old) {
			if slices.Contains(keep, value) {
				continue
			}
			key := append(r.c.indexPrefix(idx, value), id...)
			if idx.unique {
				key = r.c.uniqueKey(idx, value)
			}
			if err := r.tx.kv.Delete(key); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *Repo[T]) put(id string, doc *T) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", r.c.name, err)
	}
	return r.tx.kv.Set(r.c.docKey(id), data)
}

func (r *Repo[T]) decode(data []byte) (*T, error) {
	var doc T
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s: %w", r.c.name, err)
	}
	return &doc, nil
}
