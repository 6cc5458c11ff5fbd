package statemanager

import (
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/Himanshu5634/whiteboard-backend/pkg/state"
	"github.com/google/uuid"
)

type InMemoryManager struct {
	conns map[uuid.UUID]*state.Connection
	rooms map[string]*state.Room

	connMu sync.RWMutex
	roomMu sync.RWMutex

	logger *slog.Logger
}

func NewInMemoryManager(logger *slog.Logger) *InMemoryManager {
	return &InMemoryManager{
		conns:  make(map[uuid.UUID]*state.Connection),
		rooms:  make(map[string]*state.Room),
		logger: logger.With(slog.String("component", "state_manager_inmemory")),
	}
}

// compile-time check to ensure InMemoryManager implements Manager.
var _ state.Manager = (*InMemoryManager)(nil)

func (m *InMemoryManager) RegisterConnection(connID uuid.UUID, transport state.Sender, ipAddr string) (*state.Connection, error) {
	m.connMu.Lock()
	defer m.connMu.Unlock()

	if _, exists := m.conns[connID]; exists {
		return nil, errors.New("connection is already registered")
	}
	newConn := &state.Connection{
		ID:        connID,
		IPAddress: ipAddr,
		Transport: transport,
		CreatedAt: time.Now(),
	}
	m.conns[connID] = newConn
	m.logger.Debug("Connection registered", slog.String("connID", connID.String()))
	return newConn, nil
}

func (m *InMemoryManager) DeregisterConnection(connID uuid.UUID) error {
	m.connMu.Lock()
	defer m.connMu.Unlock()

	if _, ok := m.conns[connID]; !ok {
		// connection is already deregistered
		return nil
	}
	delete(m.conns, connID)
	m.logger.Debug("Connection deregistered", slog.String("connID", connID.String()))
	return nil
}

func (m *InMemoryManager) GetConnection(connID uuid.UUID) (*state.Connection, bool) {
	m.connMu.RLock()
	defer m.connMu.RUnlock()
	conn, ok := m.conns[connID]
	return conn, ok
}

func (m *InMemoryManager) GetAllConnections() []*state.Connection {
	m.connMu.RLock()
	defer m.connMu.RUnlock()

	conns := make([]*state.Connection, 0, len(m.conns))
	for _, c := range m.conns {
		conns = append(conns, c)
	}
	return conns
}

func (m *InMemoryManager) GetIPConnectionCount(ipAddr string) int {
	m.connMu.RLock()
	defer m.connMu.RUnlock()

	count := 0
	for _, c := range m.conns {
		if c.IPAddress == ipAddr {
			count++
		}
	}
	return count
}

func (m *InMemoryManager) FindOldestIPConnection(ipAddr string) (*state.Connection, bool) {
	m.connMu.RLock()
	defer m.connMu.RUnlock()

	var oldest *state.Connection
	for _, c := range m.conns {
		if c.IPAddress != ipAddr {
			continue
		}
		if oldest == nil || c.CreatedAt.Before(oldest.CreatedAt) {
			oldest = c
		}
	}
	return oldest, oldest != nil
}

// --- Room & Membership Management ---

func (m *InMemoryManager) Join(connID uuid.UUID, roomID, username string) (string, error) {
	// Lock connections and rooms to make the join atomic.
	m.connMu.Lock()
	defer m.connMu.Unlock()
	m.roomMu.Lock()
	defer m.roomMu.Unlock()

	conn, ok := m.conns[connID]
	if !ok {
		return "", errors.New("cannot join room: connection not registered")
	}

	prevRoomID := ""
	if conn.RoomID != "" && conn.RoomID != roomID {
		// A connection belongs to at most one room. A join while still
		// registered elsewhere is protocol misuse; force the leave so the
		// old room's membership never goes stale.
		prevRoomID = conn.RoomID
		m.removeMemberLocked(conn)
		m.logger.Warn("Connection joined a second room; forced leave of previous room",
			slog.String("connID", connID.String()),
			slog.String("prevRoomID", prevRoomID),
			slog.String("roomID", roomID),
		)
	}

	// Find or create the room.
	room, exists := m.rooms[roomID]
	if !exists {
		room = &state.Room{
			ID:      roomID,
			Members: make(map[uuid.UUID]*state.Connection),
		}
		m.rooms[roomID] = room
	}

	conn.RoomID = roomID
	conn.Username = username
	room.Members[connID] = conn

	m.logger.Debug("Connection joined room", "connID", connID.String(), "roomID", roomID, "username", username)
	return prevRoomID, nil
}

func (m *InMemoryManager) Leave(connID uuid.UUID) (string, bool) {
	m.connMu.Lock()
	defer m.connMu.Unlock()
	m.roomMu.Lock()
	defer m.roomMu.Unlock()

	conn, ok := m.conns[connID]
	if !ok || conn.RoomID == "" {
		// Never joined (or already left): nothing to do.
		return "", false
	}

	roomID := conn.RoomID
	m.removeMemberLocked(conn)
	m.logger.Debug("Connection left room", "connID", connID.String(), "roomID", roomID)
	return roomID, true
}

// removeMemberLocked detaches conn from its current room and deletes the
// room when it becomes empty. Callers hold both mutexes.
func (m *InMemoryManager) removeMemberLocked(conn *state.Connection) {
	room, ok := m.rooms[conn.RoomID]
	if ok {
		delete(room.Members, conn.ID)
		if len(room.Members) == 0 {
			delete(m.rooms, room.ID)
			m.logger.Debug("Removed empty room", "roomID", room.ID)
		}
	}
	conn.RoomID = ""
}

func (m *InMemoryManager) LookupRoom(connID uuid.UUID) (string, bool) {
	m.connMu.RLock()
	defer m.connMu.RUnlock()

	conn, ok := m.conns[connID]
	if !ok || conn.RoomID == "" {
		return "", false
	}
	return conn.RoomID, true
}

func (m *InMemoryManager) RoomMembers(roomID string) ([]state.Member, bool) {
	m.roomMu.RLock()
	defer m.roomMu.RUnlock()

	room, ok := m.rooms[roomID]
	if !ok {
		return nil, false
	}

	members := make([]state.Member, 0, len(room.Members))
	for _, c := range room.Members {
		members = append(members, state.Member{
			ID:        c.ID,
			Username:  c.Username,
			Transport: c.Transport,
		})
	}
	sort.Slice(members, func(i, j int) bool {
		return members[i].ID.String() < members[j].ID.String()
	})
	return members, true
}
