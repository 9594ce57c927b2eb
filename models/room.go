package models

import (
	"time"

	"golang.org/x/exp/slices"
)

// NewRoom creates a new empty shared cart room
func NewRoom(id string) *Room {
	return &Room{
		ID:        id,
		Members:   make([]*Member, 0),
		Carts:     make([]*CartEntry, 0),
		CreatedAt: time.Now(),
	}
}

// Member returns the member with the given username
func (r *Room) Member(username string) (*Member, bool) {
	idx := r.memberIndex(username)
	if idx < 0 {
		return nil, false
	}
	return r.Members[idx], true
}

// Cart returns the cart entry of the given username
func (r *Room) Cart(username string) (*CartEntry, bool) {
	idx := r.cartIndex(username)
	if idx < 0 {
		return nil, false
	}
	return r.Carts[idx], true
}

// MemberByConnection returns the member currently bound to conn
func (r *Room) MemberByConnection(conn ConnectionID) (*Member, bool) {
	idx := slices.IndexFunc(r.Members, func(m *Member) bool { return m.Connection == conn })
	if idx < 0 {
		return nil, false
	}
	return r.Members[idx], true
}

// AddMember adds a new online member together with an empty cart
func (r *Room) AddMember(username string, conn ConnectionID) bool {
	if r.memberIndex(username) >= 0 {
		return false
	}

	r.Members = append(r.Members, &Member{
		Username:   username,
		Online:     true,
		Connection: conn,
	})
	r.Carts = append(r.Carts, &CartEntry{
		Username:   username,
		Items:      []CartItem{},
		Online:     true,
		Connection: conn,
	})

	return true
}

// Rebind points an existing member and its cart at a new connection and marks
// both online. It returns the previous connection.
func (r *Room) Rebind(username string, conn ConnectionID) (ConnectionID, bool) {
	member, exists := r.Member(username)
	if !exists {
		return "", false
	}

	previous := member.Connection
	member.Connection = conn
	member.Online = true

	if cart, ok := r.Cart(username); ok {
		cart.Connection = conn
		cart.Online = true
	}

	return previous, true
}

// SetOffline marks a member and its cart offline without removing them
func (r *Room) SetOffline(username string) bool {
	member, exists := r.Member(username)
	if !exists {
		return false
	}

	member.Online = false
	if cart, ok := r.Cart(username); ok {
		cart.Online = false
	}

	return true
}

// RemoveMember removes a member and its cart from the room
func (r *Room) RemoveMember(username string) (*Member, bool) {
	member, exists := r.Member(username)
	if !exists {
		return nil, false
	}

	r.Members = slices.DeleteFunc(r.Members, func(m *Member) bool { return m.Username == username })
	r.Carts = slices.DeleteFunc(r.Carts, func(c *CartEntry) bool { return c.Username == username })

	if len(r.Members) == 0 {
		r.EmptiedAt = time.Now()
	}

	return member, true
}

// IdleSince returns when the room was last left empty, or its creation time if
// nobody ever left it
func (r *Room) IdleSince() time.Time {
	if r.EmptiedAt.After(r.CreatedAt) {
		return r.EmptiedAt
	}
	return r.CreatedAt
}

// UpdateCart overwrites the items and subtotal of a member's cart
func (r *Room) UpdateCart(username string, items []CartItem, subtotal float64) bool {
	cart, exists := r.Cart(username)
	if !exists {
		return false
	}

	if items == nil {
		items = []CartItem{}
	}
	cart.Items = slices.Clone(items)
	cart.Subtotal = subtotal

	return true
}

// CartList returns a deep copy of every cart in join order
func (r *Room) CartList() []CartEntry {
	list := make([]CartEntry, 0, len(r.Carts))
	for _, cart := range r.Carts {
		entry := *cart
		entry.Items = slices.Clone(cart.Items)
		if entry.Items == nil {
			entry.Items = []CartItem{}
		}
		list = append(list, entry)
	}
	return list
}

// MemberViews returns the members without their connection handles
func (r *Room) MemberViews() []MemberView {
	views := make([]MemberView, 0, len(r.Members))
	for _, member := range r.Members {
		views = append(views, MemberView{
			Username: member.Username,
			Online:   member.Online,
		})
	}
	return views
}

// Snapshot returns a copy of the room state safe to hand out
func (r *Room) Snapshot() Snapshot {
	return Snapshot{
		RoomID:         r.ID,
		SharedCartList: r.CartList(),
		Members:        r.MemberViews(),
	}
}

// Connections returns the connection of every member
func (r *Room) Connections() []ConnectionID {
	conns := make([]ConnectionID, 0, len(r.Members))
	for _, member := range r.Members {
		conns = append(conns, member.Connection)
	}
	return conns
}

// OnlineConnections returns the connection of every online member
func (r *Room) OnlineConnections() []ConnectionID {
	conns := make([]ConnectionID, 0, len(r.Members))
	for _, member := range r.Members {
		if member.Online {
			conns = append(conns, member.Connection)
		}
	}
	return conns
}

// IsEmpty reports whether the room has no members
func (r *Room) IsEmpty() bool {
	return len(r.Members) == 0
}

// Consistent reports whether members and carts hold the same usernames
func (r *Room) Consistent() bool {
	if len(r.Members) != len(r.Carts) {
		return false
	}
	for _, member := range r.Members {
		if r.cartIndex(member.Username) < 0 {
			return false
		}
	}
	return true
}

func (r *Room) memberIndex(username string) int {
	return slices.IndexFunc(r.Members, func(m *Member) bool { return m.Username == username })
}

func (r *Room) cartIndex(username string) int {
	return slices.IndexFunc(r.Carts, func(c *CartEntry) bool { return c.Username == username })
}
