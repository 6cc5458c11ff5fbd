package router

import (
	"encoding/json"

	"github.com/Himanshu5634/whiteboard-backend/pkg/docstore"
)

// Envelope is the wire frame for every event in either direction.
type Envelope struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Inbound events.
const (
	EventJoinRoom       = "join-room"
	EventCanvasUpdate   = "canvas-state-update"
	EventClear          = "clear"
	EventNoteCreate     = "note-create"
	EventNoteMove       = "note-move"
	EventNoteUpdateText = "note-update-text"
	EventNoteDelete     = "note-delete"
	EventCursorMove     = "cursor-move"
)

// Outbound events.
const (
	EventLoadInitialState = "load-initial-state"
	EventRoomUsersUpdate  = "room-users-update"
	EventUserLeft         = "user-left"
)

type joinPayload struct {
	RoomID   string `json:"roomId"`
	Username string `json:"username"`
}

type notePosition struct {
	ID       string            `json:"id"`
	Position docstore.Position `json:"position"`
}

type noteText struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// sent to the joining connection only.
type initialState struct {
	Notes       []docstore.Note `json:"notes"`
	CanvasState json.RawMessage `json:"canvasState"`
}

// one element of a room-users-update snapshot.
type roomUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}
