package handlers

import (
	"sync"

	"github.com/Arvi89/shared-cart/models"
)

// SocketTransport tracks live websocket clients and the rooms they listen to.
// It implements session.Transport.
type SocketTransport struct {
	mu      sync.RWMutex
	clients map[models.ConnectionID]*client
	groups  map[string]map[models.ConnectionID]struct{}
}

// NewSocketTransport creates an empty transport
func NewSocketTransport() *SocketTransport {
	return &SocketTransport{
		clients: make(map[models.ConnectionID]*client),
		groups:  make(map[string]map[models.ConnectionID]struct{}),
	}
}

// register starts tracking a client
func (t *SocketTransport) register(c *client) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.clients[c.id] = c
}

// unregister stops tracking a client and drops it from every group
func (t *SocketTransport) unregister(conn models.ConnectionID) {
	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.clients, conn)
	for roomID, members := range t.groups {
		delete(members, conn)
		if len(members) == 0 {
			delete(t.groups, roomID)
		}
	}
}

// Send queues an event for a single connection
func (t *SocketTransport) Send(conn models.ConnectionID, event models.Event) error {
	t.mu.RLock()
	c, exists := t.clients[conn]
	t.mu.RUnlock()

	if !exists {
		return errUnknownConnection
	}
	return c.enqueue(event)
}

// Subscribe adds a connection to a room's group. Unknown connections are ignored.
func (t *SocketTransport) Subscribe(roomID string, conn models.ConnectionID) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.clients[conn]; !exists {
		return
	}

	members, exists := t.groups[roomID]
	if !exists {
		members = make(map[models.ConnectionID]struct{})
		t.groups[roomID] = members
	}
	members[conn] = struct{}{}
}

// Unsubscribe removes a connection from a room's group
func (t *SocketTransport) Unsubscribe(roomID string, conn models.ConnectionID) {
	t.mu.Lock()
	defer t.mu.Unlock()

	members, exists := t.groups[roomID]
	if !exists {
		return
	}
	delete(members, conn)
	if len(members) == 0 {
		delete(t.groups, roomID)
	}
}

// Publish queues an event for every connection in a room's group
func (t *SocketTransport) Publish(roomID string, event models.Event) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	for conn := range t.groups[roomID] {
		if c, exists := t.clients[conn]; exists {
			_ = c.enqueue(event)
		}
	}
}

// Close flushes and closes a connection
func (t *SocketTransport) Close(conn models.ConnectionID) {
	t.mu.RLock()
	c, exists := t.clients[conn]
	t.mu.RUnlock()

	if exists {
		c.close()
	}
}

// GroupSize returns the number of connections subscribed to a room
func (t *SocketTransport) GroupSize(roomID string) int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return len(t.groups[roomID])
}
