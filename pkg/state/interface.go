package state

import "github.com/google/uuid"

type Manager interface {
	// --- Connection Lifecycle ---
	RegisterConnection(connID uuid.UUID, transport Sender, ipAddr string) (*Connection, error)
	DeregisterConnection(connID uuid.UUID) error
	GetConnection(connID uuid.UUID) (*Connection, bool)
	GetAllConnections() []*Connection

	// --- Per-IP accounting (connection limiter) ---
	GetIPConnectionCount(ipAddr string) int
	FindOldestIPConnection(ipAddr string) (*Connection, bool)

	// --- Room & Membership Management ---
	// Join adds the connection to a room, creating the room if it doesn't
	// exist. A connection belongs to at most one room: joining while still
	// registered elsewhere forces an implicit leave of the previous room,
	// whose id is returned so presence can be republished there. Rejoining
	// the same room just overwrites the display name.
	Join(connID uuid.UUID, roomID, username string) (prevRoomID string, err error)

	// Leave removes the connection from its room, deleting the room when
	// it becomes empty. Returns false if the connection was in no room.
	Leave(connID uuid.UUID) (roomID string, left bool)

	LookupRoom(connID uuid.UUID) (roomID string, ok bool)

	// RoomMembers returns a snapshot of the room's membership, sorted by
	// connection id. ok is false if the room does not exist.
	RoomMembers(roomID string) (members []Member, ok bool)
}
