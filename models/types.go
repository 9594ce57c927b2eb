package models

import (
	"encoding/json"
	"time"
)

// ConnectionID identifies a single live client connection.
// It changes every time a client reconnects.
type ConnectionID string

// CartItem is a single product line in a member's cart.
// Fields other than productId and quantity (name, price, image...) are kept
// in Details and sent back unchanged.
type CartItem struct {
	ProductID int64
	Quantity  int
	Details   map[string]json.RawMessage
}

// Member represents a participant of a shared cart room
type Member struct {
	Username      string
	Online        bool
	Connection    ConnectionID
	EvictionTimer *EvictionTimer
}

// CartEntry holds the cart of a single member.
// It is kept next to the Member record rather than inside it.
type CartEntry struct {
	Username   string       `json:"username"`
	Items      []CartItem   `json:"cartList"`
	Subtotal   float64      `json:"cartPrice"`
	Online     bool         `json:"online"`
	Connection ConnectionID `json:"-"`
}

// MemberView is the member shape exposed to clients
type MemberView struct {
	Username string `json:"username"`
	Online   bool   `json:"online"`
}

// Room represents a shared cart session
type Room struct {
	ID        string
	Members   []*Member
	Carts     []*CartEntry
	CreatedAt time.Time
	EmptiedAt time.Time
	Closing   bool
}

// Snapshot is a read-only copy of a room's state
type Snapshot struct {
	RoomID         string       `json:"roomId"`
	SharedCartList []CartEntry  `json:"sharedCartList"`
	Members        []MemberView `json:"members"`
}

// Event represents a frame sent to clients
type Event struct {
	Type    string      `json:"type"`
	AckID   string      `json:"ackId,omitempty"`
	Payload interface{} `json:"payload"`
}
