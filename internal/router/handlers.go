package router

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/Himanshu5634/whiteboard-backend/internal/board"
	"github.com/Himanshu5634/whiteboard-backend/pkg/docstore"
	"github.com/google/uuid"
	"github.com/tidwall/gjson"
)

// handleJoinRoom registers the sender in the room, ensures the board
// document exists (the only place documents are ever created), sends the
// current board state to the sender and the updated user list to the room.
func (r *EventRouter) handleJoinRoom(ctx context.Context, connID uuid.UUID, payload json.RawMessage) {
	var p joinPayload
	if err := json.Unmarshal(payload, &p); err != nil || p.RoomID == "" {
		r.logger.Warn("Malformed join-room payload", "connID", connID, "error", err)
		return
	}

	prevRoomID, err := r.registry.Join(connID, p.RoomID, p.Username)
	if err != nil {
		r.logger.Warn("Join failed", "connID", connID, "roomID", p.RoomID, "error", err)
		return
	}
	if prevRoomID != "" {
		// The registry forced a leave of the previous room; its remaining
		// members need a fresh user list.
		r.publishPresence(prevRoomID)
	}

	doc, err := r.store.Get(ctx, p.RoomID)
	switch {
	case errors.Is(err, docstore.ErrNotFound):
		empty := []docstore.Note{}
		if mergeErr := r.store.SetMerge(ctx, p.RoomID, docstore.Patch{Notes: &empty}); mergeErr != nil {
			r.logger.Warn("Failed to create board document", slog.String("roomID", p.RoomID), slog.Any("error", mergeErr))
		}
		doc = &docstore.Document{Notes: []docstore.Note{}}
	case err != nil:
		// Store unavailable: non-fatal, the client starts from an empty
		// view and converges through subsequent relays.
		r.logger.Warn("Failed to load board document", slog.String("roomID", p.RoomID), slog.Any("error", err))
		doc = &docstore.Document{Notes: []docstore.Note{}}
	}

	r.sendTo(connID, EventLoadInitialState, initialState{
		Notes:       doc.Notes,
		CanvasState: doc.CanvasState,
	})
	r.publishPresence(p.RoomID)
}

// handleCanvasUpdate merge-persists the opaque canvas snapshot and relays
// it. Last-write-wins across writers: snapshots are idempotent overwrites,
// not incremental edits.
func (r *EventRouter) handleCanvasUpdate(ctx context.Context, connID uuid.UUID, payload json.RawMessage) {
	roomID, ok := r.resolveRoom(connID, EventCanvasUpdate)
	if !ok {
		return
	}

	canvas := append(json.RawMessage(nil), payload...)
	if err := r.store.SetMerge(ctx, roomID, docstore.Patch{CanvasState: &canvas}); err != nil {
		r.logger.Warn("Failed to persist canvas state", slog.String("roomID", roomID), slog.Any("error", err))
	}
	r.relayToRoom(roomID, connID, EventCanvasUpdate, payload)
}

// handleClear resets the board: notes to empty, canvas to absent.
func (r *EventRouter) handleClear(ctx context.Context, connID uuid.UUID, payload json.RawMessage) {
	roomID, ok := r.resolveRoom(connID, EventClear)
	if !ok {
		return
	}

	empty := []docstore.Note{}
	var nullCanvas json.RawMessage
	if err := r.store.SetMerge(ctx, roomID, docstore.Patch{Notes: &empty, CanvasState: &nullCanvas}); err != nil {
		r.logger.Warn("Failed to persist board clear", slog.String("roomID", roomID), slog.Any("error", err))
	}
	r.relayToRoom(roomID, connID, EventClear, payload)
}

func (r *EventRouter) handleNoteCreate(ctx context.Context, connID uuid.UUID, payload json.RawMessage) {
	if !gjson.GetBytes(payload, "id").Exists() {
		r.logger.Warn("Discarding note-create without id", "connID", connID)
		return
	}
	var note docstore.Note
	if err := json.Unmarshal(payload, &note); err != nil {
		r.logger.Warn("Malformed note-create payload", "connID", connID, "error", err)
		return
	}
	r.applyAndRelay(ctx, connID, EventNoteCreate, payload, board.Mutation{Op: board.OpCreate, Note: note})
}

func (r *EventRouter) handleNoteMove(ctx context.Context, connID uuid.UUID, payload json.RawMessage) {
	var p notePosition
	if err := json.Unmarshal(payload, &p); err != nil || p.ID == "" {
		r.logger.Warn("Malformed note-move payload", "connID", connID, "error", err)
		return
	}
	r.applyAndRelay(ctx, connID, EventNoteMove, payload, board.Mutation{Op: board.OpMove, NoteID: p.ID, Position: p.Position})
}

func (r *EventRouter) handleNoteUpdateText(ctx context.Context, connID uuid.UUID, payload json.RawMessage) {
	var p noteText
	if err := json.Unmarshal(payload, &p); err != nil || p.ID == "" {
		r.logger.Warn("Malformed note-update-text payload", "connID", connID, "error", err)
		return
	}
	r.applyAndRelay(ctx, connID, EventNoteUpdateText, payload, board.Mutation{Op: board.OpUpdateText, NoteID: p.ID, Text: p.Text})
}

func (r *EventRouter) handleNoteDelete(ctx context.Context, connID uuid.UUID, payload json.RawMessage) {
	id := noteIDFromPayload(payload)
	if id == "" {
		r.logger.Warn("Malformed note-delete payload", "connID", connID)
		return
	}
	r.applyAndRelay(ctx, connID, EventNoteDelete, payload, board.Mutation{Op: board.OpDelete, NoteID: id})
}

// handleCursorMove is an ephemeral relay: cursor positions are never
// persisted.
func (r *EventRouter) handleCursorMove(ctx context.Context, connID uuid.UUID, payload json.RawMessage) {
	roomID, ok := r.resolveRoom(connID, EventCursorMove)
	if !ok {
		return
	}
	r.relayToRoom(roomID, connID, EventCursorMove, payload)
}

// applyAndRelay runs a note mutation through the coordinator and then
// relays the original payload to the rest of the room. The relay happens
// after the persistence step completes, whatever its outcome (optimistic
// relay policy; see board.Coordinator.Apply).
func (r *EventRouter) applyAndRelay(ctx context.Context, connID uuid.UUID, event string, payload json.RawMessage, m board.Mutation) {
	roomID, relay := r.coordinator.Apply(ctx, connID, m)
	if !relay {
		return
	}
	r.relayToRoom(roomID, connID, event, payload)
}

// noteIDFromPayload accepts both wire shapes of a note-delete payload:
// a bare JSON string id and an {"id": ...} object.
func noteIDFromPayload(payload []byte) string {
	parsed := gjson.ParseBytes(payload)
	if parsed.Type == gjson.String {
		return parsed.String()
	}
	return parsed.Get("id").String()
}
