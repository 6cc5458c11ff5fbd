// Package memstore is the in-memory docstore.Store implementation.
package memstore

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/Himanshu5634/whiteboard-backend/pkg/docstore"
)

type versionedDoc struct {
	doc     docstore.Document
	version uint64
}

// MemStore keeps one versioned document per room. Transactions are
// optimistic: read a snapshot plus its version, apply the transform outside
// the lock, then commit only if the version is unchanged. A failed commit
// re-reads and retries; every retry implies another writer committed, so
// the store as a whole always makes progress.
type MemStore struct {
	mu     sync.RWMutex
	docs   map[string]*versionedDoc
	logger *slog.Logger
}

func New(logger *slog.Logger) *MemStore {
	return &MemStore{
		docs:   make(map[string]*versionedDoc),
		logger: logger.With(slog.String("component", "docstore_memstore")),
	}
}

// compile-time check to ensure MemStore implements Store.
var _ docstore.Store = (*MemStore)(nil)

func (s *MemStore) Get(ctx context.Context, roomID string) (*docstore.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	vd, ok := s.docs[roomID]
	if !ok {
		return nil, docstore.ErrNotFound
	}
	snapshot := vd.doc.Clone()
	return &snapshot, nil
}

func (s *MemStore) SetMerge(ctx context.Context, roomID string, patch docstore.Patch) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	vd, ok := s.docs[roomID]
	if !ok {
		vd = &versionedDoc{doc: docstore.Document{Notes: []docstore.Note{}}}
		s.docs[roomID] = vd
		s.logger.Debug("Created document", slog.String("roomID", roomID))
	}

	if patch.Notes != nil {
		vd.doc.Notes = docstore.CloneNotes(*patch.Notes)
	}
	if patch.CanvasState != nil {
		vd.doc.CanvasState = append(json.RawMessage(nil), *patch.CanvasState...)
	}
	vd.version++
	return nil
}

func (s *MemStore) Transact(ctx context.Context, roomID string, fn docstore.TransactFunc) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		s.mu.RLock()
		vd, ok := s.docs[roomID]
		if !ok {
			s.mu.RUnlock()
			return docstore.ErrNotFound
		}
		readVersion := vd.version
		snapshot := docstore.CloneNotes(vd.doc.Notes)
		s.mu.RUnlock()

		// The transform runs outside the lock on a private snapshot.
		newNotes := fn(snapshot)

		s.mu.Lock()
		vd, ok = s.docs[roomID]
		if !ok {
			s.mu.Unlock()
			return docstore.ErrNotFound
		}
		if vd.version != readVersion {
			// Concurrent commit since our read; re-read and retry.
			s.mu.Unlock()
			s.logger.Debug("Transaction retry after concurrent commit", slog.String("roomID", roomID))
			continue
		}
		if newNotes == nil {
			newNotes = []docstore.Note{}
		}
		vd.doc.Notes = newNotes
		vd.version++
		s.mu.Unlock()
		return nil
	}
}
