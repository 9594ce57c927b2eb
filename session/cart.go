package session

import (
	"context"
	"math"

	"github.com/Arvi89/shared-cart/models"
)

// UpdateCart replaces a member's cart and sends the full cart list to every
// member of the room. It returns that list to the caller.
func (h *Hub) UpdateCart(ctx context.Context, roomID, username string, items []models.CartItem, subtotal float64) ([]models.CartEntry, error) {
	if err := validateCart(items, subtotal); err != nil {
		return nil, err
	}
	username = normalizeUsername(username)

	return call(ctx, h, func() ([]models.CartEntry, error) {
		room, err := h.openRoom(roomID)
		if err != nil {
			return nil, err
		}

		if !room.UpdateCart(username, items, subtotal) {
			return nil, models.ErrMemberNotFound
		}

		event := cartUpdated(room)
		h.sendEach(room.Connections(), event)

		return room.CartList(), nil
	})
}

// validateCart only rejects contents that cannot describe a cart. Pricing and
// stock are checked by the order service; a zero quantity is passed through.
func validateCart(items []models.CartItem, subtotal float64) error {
	if subtotal < 0 || math.IsNaN(subtotal) || math.IsInf(subtotal, 0) {
		return models.ErrInvalidCart
	}
	for _, item := range items {
		if item.Quantity < 0 {
			return models.ErrInvalidCart
		}
	}
	return nil
}
