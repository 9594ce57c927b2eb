package session

import (
	"context"
	"log"

	"github.com/Arvi89/shared-cart/models"
)

// Disconnect handles a dropped connection. Every member bound to conn is marked
// offline and scheduled for eviction once the grace period elapses, unless it
// reconnects, rejoins or leaves first.
func (h *Hub) Disconnect(ctx context.Context, conn models.ConnectionID) error {
	return h.do(ctx, func() {
		for _, room := range h.store.FindByConnection(conn) {
			if room.Closing {
				continue
			}
			member, _ := room.MemberByConnection(conn)
			h.armEviction(room, member)
		}
	})
}

func (h *Hub) armEviction(room *models.Room, member *models.Member) {
	room.SetOffline(member.Username)
	member.EvictionTimer.Cancel()

	roomID, username := room.ID, member.Username
	member.EvictionTimer = models.NewEvictionTimer(h.opts.GracePeriod, func(t *models.EvictionTimer) {
		h.enqueue(func() {
			h.evict(roomID, username, t)
		})
	})

	log.Printf("User %s went offline in room %s, evicting in %v", username, roomID, h.opts.GracePeriod)
}

// evict removes a member whose grace period expired. The room may have changed
// since the timer was armed, so everything is looked up again.
func (h *Hub) evict(roomID, username string, timer *models.EvictionTimer) {
	room, exists := h.store.GetRoom(roomID)
	if !exists {
		return
	}

	member, exists := room.Member(username)
	if !exists || member.EvictionTimer != timer {
		return
	}
	if !timer.Fire() {
		return
	}

	room.RemoveMember(username)
	member.EvictionTimer = nil
	h.transport.Unsubscribe(roomID, member.Connection)
	log.Printf("User %s evicted from room %s", username, roomID)

	h.transport.Publish(roomID, cartUpdated(room))

	if room.IsEmpty() {
		h.store.DeleteRoom(roomID)
		log.Printf("Room %s deleted after last member was evicted", roomID)
	}
}
