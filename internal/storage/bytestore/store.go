// Package bytestore implements the keyed byte store abstraction the rest of
// the runtime treats the embedded database through: a transactional
// (table, key) -> bytes map with range scan and atomic insert-if-absent.
// Checkpoints (internal/agent/checkpoint.go) and the event log
// (internal/agent/eventlog.go) are both built on top of a Store.
package bytestore

import (
	"context"
	"errors"
)

// ErrKeyExists is returned by InsertIfAbsent when the key is already taken.
var ErrKeyExists = errors.New("bytestore: key already exists")

// ErrNotFound is returned by Get when no value exists for the key.
var ErrNotFound = errors.New("bytestore: key not found")

// Entry is a single (key, value) pair returned by a range scan, ordered by
// key ascending.
type Entry struct {
	Key   string
	Value []byte
}

// Store is the keyed byte store contract (spec C1). Implementations must
// make InsertIfAbsent atomic: under concurrent callers racing on the same
// (table, key), exactly one call succeeds and the stored value is the
// winner's.
type Store interface {
	// Get returns the bytes stored at (table, key), or ErrNotFound.
	Get(ctx context.Context, table, key string) ([]byte, error)

	// Put unconditionally writes bytes at (table, key), overwriting any
	// existing value.
	Put(ctx context.Context, table, key string, value []byte) error

	// InsertIfAbsent writes value at (table, key) only if no value is
	// already present, atomically. Returns ErrKeyExists if it lost the
	// race.
	InsertIfAbsent(ctx context.Context, table, key string, value []byte) error

	// Delete removes (table, key). Deleting an absent key is not an error.
	Delete(ctx context.Context, table, key string) error

	// Scan returns every entry in table whose key lies in [start, end)
	// (end == "" means unbounded), ordered by key ascending.
	Scan(ctx context.Context, table, start, end string) ([]Entry, error)

	// Close releases any underlying resources (connections, file handles).
	Close() error
}
