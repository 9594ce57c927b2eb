package session

import (
	"context"
	"fmt"
	"log"

	"github.com/Arvi89/shared-cart/models"
)

// RedirectPath returns the thank-you page of an order
func RedirectPath(storeID, orderID int64) string {
	return fmt.Sprintf("/%d/thank-you/%d", storeID, orderID)
}

// CompleteCheckout closes a room after its order was placed.
//
// Pending evictions are canceled right away and the room stops accepting
// joins and cart updates. After the redirect delay every member receives a
// REDIRECT and its connection is closed; after the teardown delay the room is
// deleted. Completing a room that is already closing succeeds without
// redirecting again.
func (h *Hub) CompleteCheckout(ctx context.Context, roomID string, storeID, orderID int64) (string, error) {
	return call(ctx, h, func() (string, error) {
		room, exists := h.store.GetRoom(roomID)
		if !exists {
			return "", models.ErrRoomNotFound
		}
		if room.Closing {
			return models.MessageRedirecting, nil
		}

		room.Closing = true
		for _, member := range room.Members {
			member.EvictionTimer.Cancel()
			member.EvictionTimer = nil
		}

		conns := room.Connections()
		redirect := models.Event{
			Type:    models.EventTypeRedirect,
			Payload: RedirectPath(storeID, orderID),
		}

		h.after(h.opts.RedirectDelay, func() {
			h.transport.Publish(room.ID, redirect)
			for _, conn := range conns {
				h.transport.Close(conn)
			}
		})
		h.after(h.opts.TeardownDelay, func() {
			h.teardown(room)
		})

		log.Printf("Checkout completed for room %s (store %d, order %d)", room.ID, storeID, orderID)
		return models.MessageRedirecting, nil
	})
}

// teardown deletes a closed room and drops what is left of its broadcast group
func (h *Hub) teardown(room *models.Room) {
	current, exists := h.store.GetRoom(room.ID)
	if !exists || current != room {
		return
	}

	for _, member := range room.Members {
		member.EvictionTimer.Cancel()
		h.transport.Unsubscribe(room.ID, member.Connection)
	}

	h.store.DeleteRoom(room.ID)
	log.Printf("Room %s deleted after checkout", room.ID)
}
