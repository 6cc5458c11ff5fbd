// Package router dispatches inbound transport events to the room registry,
// the note mutation coordinator and the document store, and relays outbound
// events to the right audience (room-wide, room-minus-sender, or a single
// connection).
package router

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/Himanshu5634/whiteboard-backend/internal/board"
	"github.com/Himanshu5634/whiteboard-backend/pkg/docstore"
	"github.com/Himanshu5634/whiteboard-backend/pkg/state"
	"github.com/google/uuid"
)

type handlerFunc func(ctx context.Context, connID uuid.UUID, payload json.RawMessage)

type EventRouter struct {
	logger      *slog.Logger
	registry    state.Manager
	store       docstore.Store
	coordinator *board.Coordinator
	handlers    map[string]handlerFunc
}

func NewEventRouter(logger *slog.Logger, registry state.Manager, store docstore.Store, coordinator *board.Coordinator) *EventRouter {
	r := &EventRouter{
		logger:      logger.With(slog.String("component", "event_router")),
		registry:    registry,
		store:       store,
		coordinator: coordinator,
		handlers:    make(map[string]handlerFunc),
	}

	r.register(EventJoinRoom, r.handleJoinRoom)
	r.register(EventCanvasUpdate, r.handleCanvasUpdate)
	r.register(EventClear, r.handleClear)
	r.register(EventNoteCreate, r.handleNoteCreate)
	r.register(EventNoteMove, r.handleNoteMove)
	r.register(EventNoteUpdateText, r.handleNoteUpdateText)
	r.register(EventNoteDelete, r.handleNoteDelete)
	r.register(EventCursorMove, r.handleCursorMove)

	return r
}

func (r *EventRouter) register(event string, h handlerFunc) {
	if _, exists := r.handlers[event]; exists {
		panic("event handler already registered: " + event)
	}
	r.handlers[event] = h
}

// HandleMessage is the transport's message callback. Malformed envelopes
// and unknown events are discarded; no error is surfaced to the sender.
func (r *EventRouter) HandleMessage(ctx context.Context, connID uuid.UUID, msg []byte) {
	var env Envelope
	if err := json.Unmarshal(msg, &env); err != nil {
		r.logger.Warn("Failed to unmarshal client message", "connID", connID, "error", err)
		return
	}

	handler, ok := r.handlers[env.Event]
	if !ok {
		r.logger.Warn("Received unknown event", "event", env.Event, "connID", connID)
		return
	}

	r.logger.Debug("Dispatching event", slog.String("event", env.Event), slog.String("connID", connID.String()))
	handler(ctx, connID, env.Payload)
}

// HandleDisconnect runs the leave protocol. It is unconditional: a
// connection that never joined a room leaves nothing behind and triggers
// no broadcast.
func (r *EventRouter) HandleDisconnect(connID uuid.UUID) {
	roomID, left := r.registry.Leave(connID)
	if !left {
		r.logger.Debug("Disconnect without room membership", slog.String("connID", connID.String()))
		return
	}

	// Remaining members learn who left, then get the fresh user list.
	departed, err := json.Marshal(connID.String())
	if err != nil {
		r.logger.Error("Failed to marshal user-left payload", slog.Any("error", err))
		return
	}
	r.relayToRoom(roomID, connID, EventUserLeft, departed)
	r.publishPresence(roomID)
}

// resolveRoom looks up the sender's room. Events from connections in no
// room are protocol misuse and get discarded by the callers.
func (r *EventRouter) resolveRoom(connID uuid.UUID, event string) (string, bool) {
	roomID, ok := r.registry.LookupRoom(connID)
	if !ok {
		r.logger.Debug("Discarding event: connection is not in a room",
			slog.String("event", event),
			slog.String("connID", connID.String()),
		)
	}
	return roomID, ok
}
