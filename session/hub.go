// Package session coordinates shared cart rooms: membership, cart
// synchronisation, disconnect grace periods and checkout teardown.
//
// Every room mutation runs on the goroutine executing Hub.Run, one event at a
// time and in arrival order. Public methods hand a closure to that goroutine
// and wait for it to finish; timers only ever enqueue work. The session store
// therefore needs no locking.
package session

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/Arvi89/shared-cart/db"
	"github.com/Arvi89/shared-cart/models"
)

// ErrHubStopped is returned when an operation is submitted after Run has returned
var ErrHubStopped = errors.New("session hub stopped")

// Transport delivers events to client connections.
//
// Implementations must not block: a send to an unknown or saturated
// connection is dropped and reported through the returned error.
type Transport interface {
	// Send delivers an event to a single connection
	Send(conn models.ConnectionID, event models.Event) error

	// Subscribe adds a connection to a room's broadcast group
	Subscribe(roomID string, conn models.ConnectionID)

	// Unsubscribe removes a connection from a room's broadcast group
	Unsubscribe(roomID string, conn models.ConnectionID)

	// Publish delivers an event to every connection in a room's broadcast group
	Publish(roomID string, event models.Event)

	// Close flushes pending events and closes a connection
	Close(conn models.ConnectionID)
}

// Options configures hub timings
type Options struct {
	GracePeriod   time.Duration
	RedirectDelay time.Duration
	TeardownDelay time.Duration

	// EmptyRoomTTL is how long a room may stay without members before
	// CleanupEmptyRooms removes it
	EmptyRoomTTL time.Duration
}

// Hub owns the session store and serialises all room operations
type Hub struct {
	store     *db.Store
	transport Transport
	opts      Options
	events    chan func()
	stopped   chan struct{}
	stopOnce  sync.Once
}

// NewHub creates a hub. Zero timings fall back to the defaults.
func NewHub(store *db.Store, transport Transport, opts Options) *Hub {
	if opts.GracePeriod <= 0 {
		opts.GracePeriod = models.DefaultGracePeriod
	}
	if opts.RedirectDelay <= 0 {
		opts.RedirectDelay = models.DefaultRedirectDelay
	}
	if opts.TeardownDelay <= 0 {
		opts.TeardownDelay = models.DefaultTeardownDelay
	}
	if opts.EmptyRoomTTL <= 0 {
		opts.EmptyRoomTTL = models.DefaultEmptyRoomTTL
	}

	return &Hub{
		store:     store,
		transport: transport,
		opts:      opts,
		events:    make(chan func(), 256),
		stopped:   make(chan struct{}),
	}
}

// Run processes events until ctx is canceled
func (h *Hub) Run(ctx context.Context) error {
	defer h.stopOnce.Do(func() { close(h.stopped) })

	log.Printf("Session hub started (grace period %v)", h.opts.GracePeriod)

	for {
		select {
		case fn := <-h.events:
			fn()
		case <-ctx.Done():
			h.shutdown()
			log.Println("Session hub stopped")
			return nil
		}
	}
}

// shutdown disarms every pending eviction timer
func (h *Hub) shutdown() {
	for _, roomID := range h.store.RoomIDs() {
		room, _ := h.store.GetRoom(roomID)
		for _, member := range room.Members {
			member.EvictionTimer.Cancel()
		}
	}
}

// do runs fn on the hub goroutine and waits for it to complete.
//
// fn is skipped when ctx is done by the time the hub picks it up, so a caller
// that already gave up does not change state. Once fn has started it runs to
// completion; a deadline hit while it runs may still yield ctx.Err().
func (h *Hub) do(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	task := func() {
		if ctx.Err() != nil {
			return
		}
		fn()
		close(done)
	}

	select {
	case h.events <- task:
	case <-h.stopped:
		return ErrHubStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-done:
		return nil
	case <-h.stopped:
		return ErrHubStopped
	case <-ctx.Done():
		// The task may have completed concurrently with the cancellation
		select {
		case <-done:
			return nil
		default:
			return ctx.Err()
		}
	}
}

// enqueue schedules fn on the hub goroutine without waiting.
// It must not be called from the hub goroutine itself.
func (h *Hub) enqueue(fn func()) {
	select {
	case h.events <- fn:
	case <-h.stopped:
	}
}

// after runs fn on the hub goroutine once d has elapsed
func (h *Hub) after(d time.Duration, fn func()) {
	time.AfterFunc(d, func() {
		h.enqueue(fn)
	})
}

func call[T any](ctx context.Context, h *Hub, fn func() (T, error)) (T, error) {
	var (
		result T
		opErr  error
	)
	if err := h.do(ctx, func() { result, opErr = fn() }); err != nil {
		var zero T
		return zero, err
	}
	return result, opErr
}

// cartUpdated builds a CART_UPDATED event carrying the room's full cart list
func cartUpdated(room *models.Room) models.Event {
	return models.Event{
		Type:    models.EventTypeCartUpdated,
		Payload: room.CartList(),
	}
}

// sendEach delivers event to every connection individually, skipping stale ones
func (h *Hub) sendEach(conns []models.ConnectionID, event models.Event) {
	for _, conn := range conns {
		if conn == "" {
			continue
		}
		_ = h.transport.Send(conn, event)
	}
}

// moveSubscription rebinds a room's broadcast group from one connection to another
func (h *Hub) moveSubscription(roomID string, previous, next models.ConnectionID) {
	if previous != "" && previous != next {
		h.transport.Unsubscribe(roomID, previous)
	}
	h.transport.Subscribe(roomID, next)
}

// normalizeUsername trims the identity key the same way for every operation
func normalizeUsername(username string) string {
	return strings.TrimSpace(username)
}

// openRoom returns a room that exists and is not being torn down
func (h *Hub) openRoom(roomID string) (*models.Room, error) {
	room, exists := h.store.GetRoom(roomID)
	if !exists || room.Closing {
		return nil, models.ErrRoomNotFound
	}
	return room, nil
}
