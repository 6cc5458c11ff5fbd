package router

import (
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"
)

// publishPresence pushes the full membership list of a room to every
// current member. A missing room is a no-op, not an error: it may have
// been deleted concurrently with a departing member. No diffing; clients
// replace their local view wholesale.
func (r *EventRouter) publishPresence(roomID string) {
	members, ok := r.registry.RoomMembers(roomID)
	if !ok {
		return
	}

	users := make([]roomUser, 0, len(members))
	for _, m := range members {
		users = append(users, roomUser{ID: m.ID.String(), Username: m.Username})
	}
	frame, err := encodeEnvelope(EventRoomUsersUpdate, users)
	if err != nil {
		r.logger.Error("Failed to encode presence update", slog.String("roomID", roomID), slog.Any("error", err))
		return
	}

	for _, m := range members {
		m.Transport.Send(frame)
	}
}

// relayToRoom forwards an event to every room member except the sender.
// Fire level, at most once per member.
func (r *EventRouter) relayToRoom(roomID string, sender uuid.UUID, event string, payload json.RawMessage) {
	members, ok := r.registry.RoomMembers(roomID)
	if !ok {
		return
	}

	frame, err := json.Marshal(Envelope{Event: event, Payload: payload})
	if err != nil {
		r.logger.Error("Failed to encode relay frame", slog.String("event", event), slog.Any("error", err))
		return
	}

	for _, m := range members {
		if m.ID == sender {
			continue
		}
		m.Transport.Send(frame)
	}
}

// sendTo delivers an event to a single connection.
func (r *EventRouter) sendTo(connID uuid.UUID, event string, payload any) {
	conn, ok := r.registry.GetConnection(connID)
	if !ok {
		return
	}
	frame, err := encodeEnvelope(event, payload)
	if err != nil {
		r.logger.Error("Failed to encode event", slog.String("event", event), slog.Any("error", err))
		return
	}
	conn.Transport.Send(frame)
}

func encodeEnvelope(event string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Event: event, Payload: raw})
}
