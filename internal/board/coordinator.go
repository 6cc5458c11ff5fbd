// Package board serializes structural mutations to a room's note list
// through the document store's transactional primitive.
package board

import (
	"context"
	"errors"
	"log/slog"

	"github.com/Himanshu5634/whiteboard-backend/pkg/docstore"
	"github.com/Himanshu5634/whiteboard-backend/pkg/state"
	"github.com/google/uuid"
)

type Coordinator struct {
	logger   *slog.Logger
	registry state.Manager
	store    docstore.Store
}

func NewCoordinator(logger *slog.Logger, registry state.Manager, store docstore.Store) *Coordinator {
	return &Coordinator{
		logger:   logger.With(slog.String("component", "note_coordinator")),
		registry: registry,
		store:    store,
	}
}

// Apply runs the mutation against the sender's room. It returns the
// resolved room id and whether the originating event should still be
// relayed to the room.
//
// Relay policy is optimistic and uniform: once the room resolves, the relay
// proceeds whether the transaction committed, no-opped (document or note
// missing) or aborted. The base protocol has no error channel, so
// suppressing the relay would desynchronize the sender from its peers with
// no recovery short of a rejoin; an abort only widens the window until the
// next committed write.
func (c *Coordinator) Apply(ctx context.Context, connID uuid.UUID, m Mutation) (string, bool) {
	roomID, ok := c.registry.LookupRoom(connID)
	if !ok {
		// Protocol misuse: a mutation from a connection in no room.
		c.logger.Debug("Discarding note mutation: connection is not in a room",
			slog.String("connID", connID.String()),
			slog.String("op", string(m.Op)),
		)
		return "", false
	}

	err := c.store.Transact(ctx, roomID, m.Transform())
	switch {
	case err == nil:
	case errors.Is(err, docstore.ErrNotFound):
		// Mutations never create documents; only join handling does.
		c.logger.Debug("Note mutation against missing document",
			slog.String("roomID", roomID),
			slog.String("op", string(m.Op)),
		)
	default:
		c.logger.Warn("Note mutation not persisted",
			slog.String("roomID", roomID),
			slog.String("op", string(m.Op)),
			slog.Any("error", err),
		)
	}
	return roomID, true
}
