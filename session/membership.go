package session

import (
	"context"
	"log"
	"time"

	"github.com/Arvi89/shared-cart/models"
)

// CreateRoom creates an empty room and returns its identifier
func (h *Hub) CreateRoom(ctx context.Context) (string, error) {
	return call(ctx, h, func() (string, error) {
		room := h.store.CreateRoom()
		log.Printf("Room %s created", room.ID)
		return room.ID, nil
	})
}

// CleanupEmptyRooms deletes rooms that have had no members for longer than the
// empty room TTL. It covers rooms nobody joined and rooms emptied by leave.
func (h *Hub) CleanupEmptyRooms(ctx context.Context) (int, error) {
	return call(ctx, h, func() (int, error) {
		count := h.store.CleanupEmptyRooms(time.Now().Add(-h.opts.EmptyRoomTTL))
		if count > 0 {
			log.Printf("Cleaned up %d empty rooms", count)
		}
		return count, nil
	})
}

// Join adds username to a room or, if it is already a member, rebinds it to conn.
// Either way every online member receives the updated cart list.
func (h *Hub) Join(ctx context.Context, roomID, username string, conn models.ConnectionID) (models.Snapshot, error) {
	username = normalizeUsername(username)
	if username == "" {
		return models.Snapshot{}, models.ErrInvalidName
	}

	return call(ctx, h, func() (models.Snapshot, error) {
		room, err := h.openRoom(roomID)
		if err != nil {
			return models.Snapshot{}, err
		}

		if member, exists := room.Member(username); exists {
			member.EvictionTimer.Cancel()
			member.EvictionTimer = nil

			previous, _ := room.Rebind(username, conn)
			h.moveSubscription(room.ID, previous, conn)
		} else {
			room.AddMember(username, conn)
			h.transport.Subscribe(room.ID, conn)
			log.Printf("User %s joined room %s", username, room.ID)
		}

		snapshot := room.Snapshot()
		h.sendEach(room.OnlineConnections(), cartUpdated(room))

		return snapshot, nil
	})
}

// Reconnect rebinds an existing member to a new connection and cancels its
// pending eviction. A missing room or member is not an error: nothing changes
// and the returned message says so.
func (h *Hub) Reconnect(ctx context.Context, roomID, username string, conn models.ConnectionID) (string, error) {
	username = normalizeUsername(username)

	return call(ctx, h, func() (string, error) {
		room, err := h.openRoom(roomID)
		if err != nil {
			return models.MessageNoReconnect, nil
		}

		member, exists := room.Member(username)
		if !exists {
			return models.MessageNoReconnect, nil
		}

		member.EvictionTimer.Cancel()
		member.EvictionTimer = nil

		previous, _ := room.Rebind(username, conn)
		h.moveSubscription(room.ID, previous, conn)
		h.sendEach(room.Connections(), cartUpdated(room))

		return models.MessageReconnected, nil
	})
}

// Leave removes a member and its cart from a room. The room is kept even when
// it becomes empty.
func (h *Hub) Leave(ctx context.Context, roomID, username string) (string, error) {
	username = normalizeUsername(username)

	return call(ctx, h, func() (string, error) {
		room, exists := h.store.GetRoom(roomID)
		if !exists {
			return "", models.ErrRoomNotFound
		}

		if member, ok := room.RemoveMember(username); ok {
			member.EvictionTimer.Cancel()
			member.EvictionTimer = nil
			h.transport.Unsubscribe(room.ID, member.Connection)
			log.Printf("User %s left room %s", username, room.ID)
		}

		if !room.IsEmpty() {
			h.sendEach(room.Connections(), cartUpdated(room))
		}

		return models.MessageLeft, nil
	})
}

// Snapshot returns a copy of a room's carts and members
func (h *Hub) Snapshot(ctx context.Context, roomID string) (models.Snapshot, error) {
	return call(ctx, h, func() (models.Snapshot, error) {
		room, exists := h.store.GetRoom(roomID)
		if !exists {
			return models.Snapshot{}, models.ErrRoomNotFound
		}
		return room.Snapshot(), nil
	})
}
