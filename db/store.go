package db

import (
	"strings"
	"time"

	"github.com/Arvi89/shared-cart/models"
	"github.com/google/uuid"
)

// DefaultRoomIDLength is the length of generated room identifiers
const DefaultRoomIDLength = 5

// Store is a simple in-memory store for shared cart rooms.
//
// Store is not safe for concurrent use. It is owned by the session hub, which
// runs every room mutation on a single goroutine.
type Store struct {
	rooms    map[string]*models.Room
	idLength int
}

// NewStore creates a new in-memory store generating room ids of idLength characters
func NewStore(idLength int) *Store {
	if idLength <= 0 || idLength > 32 {
		idLength = DefaultRoomIDLength
	}

	return &Store{
		rooms:    make(map[string]*models.Room),
		idLength: idLength,
	}
}

// CreateRoom creates a new empty room with a short random identifier
func (s *Store) CreateRoom() *models.Room {
	roomID := s.newRoomID()
	for {
		if _, taken := s.rooms[roomID]; !taken {
			break
		}
		roomID = s.newRoomID()
	}

	room := models.NewRoom(roomID)
	s.rooms[room.ID] = room

	return room
}

// GetRoom returns a room by ID
func (s *Store) GetRoom(roomID string) (*models.Room, bool) {
	room, exists := s.rooms[roomID]
	return room, exists
}

// DeleteRoom removes a room from the store
func (s *Store) DeleteRoom(roomID string) bool {
	if _, exists := s.rooms[roomID]; !exists {
		return false
	}

	delete(s.rooms, roomID)
	return true
}

// CleanupEmptyRooms removes rooms that have no members and have been idle since
// before cutoff. Rooms being checked out are left to their own teardown.
func (s *Store) CleanupEmptyRooms(cutoff time.Time) int {
	count := 0
	for id, room := range s.rooms {
		if room.Closing || !room.IsEmpty() {
			continue
		}
		if room.IdleSince().Before(cutoff) {
			delete(s.rooms, id)
			count++
		}
	}

	return count
}

// FindByConnection returns every room where a member is bound to conn
func (s *Store) FindByConnection(conn models.ConnectionID) []*models.Room {
	var found []*models.Room
	for _, room := range s.rooms {
		if _, ok := room.MemberByConnection(conn); ok {
			found = append(found, room)
		}
	}
	return found
}

// RoomIDs returns the identifiers of all rooms
func (s *Store) RoomIDs() []string {
	ids := make([]string, 0, len(s.rooms))
	for id := range s.rooms {
		ids = append(ids, id)
	}
	return ids
}

// Len returns the number of rooms
func (s *Store) Len() int {
	return len(s.rooms)
}

func (s *Store) newRoomID() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return id[:s.idLength]
}
