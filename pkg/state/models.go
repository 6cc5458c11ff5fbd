package state

import (
	"time"

	"github.com/google/uuid"
)

// Sender is the registry's view of a transport connection: push frames to
// it, or tear it down. The registry never owns the connection.
type Sender interface {
	Send(msg []byte)
	Close(err error)
}

// representation of a single transport-layer connection.
type Connection struct {
	ID        uuid.UUID
	IPAddress string
	Transport Sender
	Username  string // display name supplied on join, empty before that
	RoomID    string // room the connection currently belongs to, empty if none
	CreatedAt time.Time
}

// canonical representation of a live collaboration room. A room exists in
// the directory iff it has at least one member.
type Room struct {
	ID      string
	Members map[uuid.UUID]*Connection
}

// Member is a point-in-time view of one room member, safe to use outside
// the registry's locks.
type Member struct {
	ID        uuid.UUID
	Username  string
	Transport Sender
}
