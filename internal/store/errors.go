package store

import "errors"

// Sentinel errors returned by the store. Services translate them into
// domain errors; they never reach API clients directly.
var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
	ErrConflict      = errors.New("store: concurrent update conflict")
	ErrReadOnly      = errors.New("store: write in read-only transaction")
)
