package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Arvi89/shared-cart/db"
	"github.com/Arvi89/shared-cart/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errStale = errors.New("stale connection")

// recordingTransport records every delivery instead of writing to sockets.
// Connections marked stale reject direct sends.
type recordingTransport struct {
	mu     sync.Mutex
	sent   map[models.ConnectionID][]models.Event
	groups map[string]map[models.ConnectionID]bool
	stale  map[models.ConnectionID]bool
	closed []models.ConnectionID
}

func newRecordingTransport() *recordingTransport {
	return &recordingTransport{
		sent:   make(map[models.ConnectionID][]models.Event),
		groups: make(map[string]map[models.ConnectionID]bool),
		stale:  make(map[models.ConnectionID]bool),
	}
}

func (r *recordingTransport) Send(conn models.ConnectionID, event models.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stale[conn] {
		return errStale
	}
	r.sent[conn] = append(r.sent[conn], event)
	return nil
}

func (r *recordingTransport) Subscribe(roomID string, conn models.ConnectionID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.groups[roomID] == nil {
		r.groups[roomID] = make(map[models.ConnectionID]bool)
	}
	r.groups[roomID][conn] = true
}

func (r *recordingTransport) Unsubscribe(roomID string, conn models.ConnectionID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.groups[roomID], conn)
}

func (r *recordingTransport) Publish(roomID string, event models.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for conn := range r.groups[roomID] {
		r.sent[conn] = append(r.sent[conn], event)
	}
}

func (r *recordingTransport) Close(conn models.ConnectionID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.closed = append(r.closed, conn)
}

func (r *recordingTransport) markStale(conn models.ConnectionID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.stale[conn] = true
}

// events returns the events of the given type delivered to conn
func (r *recordingTransport) events(conn models.ConnectionID, eventType string) []models.Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.Event
	for _, event := range r.sent[conn] {
		if event.Type == eventType {
			out = append(out, event)
		}
	}
	return out
}

// lastCartList returns the payload of the last CART_UPDATED delivered to conn
func (r *recordingTransport) lastCartList(t *testing.T, conn models.ConnectionID) []models.CartEntry {
	t.Helper()

	events := r.events(conn, models.EventTypeCartUpdated)
	require.NotEmpty(t, events, "no CART_UPDATED delivered to %s", conn)
	list, ok := events[len(events)-1].Payload.([]models.CartEntry)
	require.True(t, ok, "unexpected payload type %T", events[len(events)-1].Payload)
	return list
}

func (r *recordingTransport) subscribed(roomID string, conn models.ConnectionID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.groups[roomID][conn]
}

func (r *recordingTransport) closedConnections() []models.ConnectionID {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]models.ConnectionID(nil), r.closed...)
}

// newTestHub starts a hub with short timings and stops it when the test ends
func newTestHub(t *testing.T, opts Options) (*Hub, *recordingTransport) {
	t.Helper()

	transport := newRecordingTransport()
	hub := NewHub(db.NewStore(db.DefaultRoomIDLength), transport, opts)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = hub.Run(ctx)
		close(done)
	}()

	t.Cleanup(func() {
		cancel()
		<-done
	})

	return hub, transport
}

func fastOptions() Options {
	return Options{
		GracePeriod:   50 * time.Millisecond,
		RedirectDelay: 20 * time.Millisecond,
		TeardownDelay: 60 * time.Millisecond,
	}
}

// inspect runs fn against the store on the hub goroutine
func inspect(t *testing.T, hub *Hub, fn func(store *db.Store)) {
	t.Helper()
	require.NoError(t, hub.do(context.Background(), func() { fn(hub.store) }))
}

func createRoom(t *testing.T, hub *Hub) string {
	t.Helper()
	roomID, err := hub.CreateRoom(context.Background())
	require.NoError(t, err)
	return roomID
}

func join(t *testing.T, hub *Hub, roomID, username string, conn models.ConnectionID) models.Snapshot {
	t.Helper()
	snapshot, err := hub.Join(context.Background(), roomID, username, conn)
	require.NoError(t, err)
	return snapshot
}

func roomExists(hub *Hub, roomID string) bool {
	_, err := hub.Snapshot(context.Background(), roomID)
	return err == nil
}

// TestNewHubDefaults verifies that zero timings fall back to the defaults
func TestNewHubDefaults(t *testing.T) {
	hub := NewHub(db.NewStore(0), newRecordingTransport(), Options{})

	assert.Equal(t, models.DefaultGracePeriod, hub.opts.GracePeriod)
	assert.Equal(t, models.DefaultRedirectDelay, hub.opts.RedirectDelay)
	assert.Equal(t, models.DefaultTeardownDelay, hub.opts.TeardownDelay)
	assert.Equal(t, models.DefaultEmptyRoomTTL, hub.opts.EmptyRoomTTL)
}

// TestHubStopped verifies that operations fail once Run has returned
func TestHubStopped(t *testing.T) {
	hub := NewHub(db.NewStore(0), newRecordingTransport(), fastOptions())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = hub.Run(ctx)
		close(done)
	}()

	_, err := hub.CreateRoom(context.Background())
	require.NoError(t, err)

	cancel()
	<-done

	_, err = hub.CreateRoom(context.Background())
	assert.ErrorIs(t, err, ErrHubStopped)
}

// TestHubContextCanceled verifies that a canceled caller context is reported
func TestHubContextCanceled(t *testing.T) {
	// Run is never started, so nothing drains the queue
	hub := NewHub(db.NewStore(0), newRecordingTransport(), fastOptions())
	hub.events = make(chan func())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := hub.CreateRoom(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

// TestExpiredCallerChangesNothing verifies that work queued by a caller whose
// context expired before the hub reached it is dropped
func TestExpiredCallerChangesNothing(t *testing.T) {
	hub := NewHub(db.NewStore(0), newRecordingTransport(), fastOptions())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	// The queue is buffered, so the task is accepted before Run starts
	_, err := hub.CreateRoom(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	runCtx, stop := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = hub.Run(runCtx)
		close(done)
	}()
	t.Cleanup(func() {
		stop()
		<-done
	})

	inspect(t, hub, func(store *db.Store) {
		assert.Zero(t, store.Len())
	})
}

// TestCleanupEmptyRooms verifies that rooms without members are swept once
// idle for longer than the TTL, whether nobody joined or everybody left
func TestCleanupEmptyRooms(t *testing.T) {
	opts := fastOptions()
	opts.GracePeriod = time.Hour
	opts.EmptyRoomTTL = 30 * time.Millisecond
	hub, _ := newTestHub(t, opts)
	ctx := context.Background()

	neverJoined := createRoom(t, hub)
	left := createRoom(t, hub)
	join(t, hub, left, "alice", "c1")
	_, err := hub.Leave(ctx, left, "alice")
	require.NoError(t, err)
	occupied := createRoom(t, hub)
	join(t, hub, occupied, "bob", "c2")

	count, err := hub.CleanupEmptyRooms(ctx)
	require.NoError(t, err)
	assert.Zero(t, count, "rooms are younger than the TTL")

	time.Sleep(60 * time.Millisecond)

	count, err = hub.CleanupEmptyRooms(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	assert.False(t, roomExists(hub, neverJoined))
	assert.False(t, roomExists(hub, left))
	assert.True(t, roomExists(hub, occupied))
}

// TestCreateRoom verifies that rooms are created empty with short identifiers
func TestCreateRoom(t *testing.T) {
	hub, _ := newTestHub(t, fastOptions())

	roomID := createRoom(t, hub)
	assert.Len(t, roomID, db.DefaultRoomIDLength)

	snapshot, err := hub.Snapshot(context.Background(), roomID)
	require.NoError(t, err)
	assert.Equal(t, roomID, snapshot.RoomID)
	assert.Empty(t, snapshot.SharedCartList)
	assert.Empty(t, snapshot.Members)
}

// TestSnapshotUnknownRoom verifies the not-found error of Snapshot
func TestSnapshotUnknownRoom(t *testing.T) {
	hub, _ := newTestHub(t, fastOptions())

	_, err := hub.Snapshot(context.Background(), "nope")
	assert.ErrorIs(t, err, models.ErrRoomNotFound)
}

// TestMembersAndCartsStayConsistent runs a mixed sequence of membership
// operations and checks that every room keeps equal member and cart sets.
func TestMembersAndCartsStayConsistent(t *testing.T) {
	hub, _ := newTestHub(t, Options{GracePeriod: time.Hour})
	ctx := context.Background()

	first := createRoom(t, hub)
	second := createRoom(t, hub)

	join(t, hub, first, "alice", "c1")
	join(t, hub, first, "bob", "c2")
	join(t, hub, second, "carol", "c3")
	join(t, hub, first, "alice", "c4")

	_, err := hub.Leave(ctx, first, "bob")
	require.NoError(t, err)
	_, err = hub.Reconnect(ctx, second, "carol", "c5")
	require.NoError(t, err)
	_, err = hub.Reconnect(ctx, first, "bob", "c6")
	require.NoError(t, err)
	join(t, hub, second, "dave", "c7")
	_, err = hub.Leave(ctx, second, "nobody")
	require.NoError(t, err)
	require.NoError(t, hub.Disconnect(ctx, "c7"))

	inspect(t, hub, func(store *db.Store) {
		for _, id := range store.RoomIDs() {
			room, _ := store.GetRoom(id)
			assert.True(t, room.Consistent(), "room %s is inconsistent", id)
		}

		room, _ := store.GetRoom(first)
		assert.Len(t, room.Members, 1)
		room, _ = store.GetRoom(second)
		assert.Len(t, room.Members, 2)
	})
}
