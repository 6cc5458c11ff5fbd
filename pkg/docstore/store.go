// Package docstore defines the board document model and the gateway to the
// durable per-room document store.
package docstore

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when no document exists for a room. Note
	// mutations treat it as a benign no-op: documents are only ever created
	// by join handling, never as a side effect of a mutation.
	ErrNotFound = errors.New("docstore: document not found")

	// ErrConflict is returned when a transaction is aborted because a
	// concurrent transaction committed against the same document after the
	// read. The core performs no retry; callers log and move on.
	ErrConflict = errors.New("docstore: transaction aborted by concurrent write")
)

// TransactFunc is the pure transformation applied inside a transaction. It
// receives a private snapshot of the current notes and returns the full
// replacement sequence; it must not retain the input past the call.
type TransactFunc func(notes []Note) []Note

// Store is the document store gateway, keyed by room id. Implementations
// must be safe for concurrent use; Transact must provide isolation against
// concurrent writers at document granularity.
type Store interface {
	// Get returns a snapshot of the room's document, or ErrNotFound.
	Get(ctx context.Context, roomID string) (*Document, error)

	// SetMerge upserts the fields set on the patch, leaving the rest of the
	// document untouched. Creates the document if absent. No cross-writer
	// isolation: concurrent merge-writes are last-write-wins.
	SetMerge(ctx context.Context, roomID string, patch Patch) error

	// Transact atomically reads the document's notes, applies fn, and
	// commits the result iff no concurrent transaction committed since the
	// read. Returns ErrNotFound when the document is absent and ErrConflict
	// when the commit is aborted.
	Transact(ctx context.Context, roomID string, fn TransactFunc) error
}
