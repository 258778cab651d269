package game

import (
	"sync"

	"github.com/charmbracelet/log"
	"github.com/lox/mahjongparlor/internal/roomid"
)

// Store owns every room plus the player-to-room mapping. The store lock
// guards the maps only; room state stays under each room's own mutex.
type Store struct {
	mu           sync.RWMutex
	rooms        map[string]*Room
	roomIDByUUID map[string]string
	openRooms    []string
	cfg          RoomConfig
	logger       *log.Logger
	generator    *roomid.Generator
}

// NewStore creates an empty room store. A nil generator falls back to
// crypto randomness for room ids.
func NewStore(cfg RoomConfig, logger *log.Logger, generator *roomid.Generator) *Store {
	if generator == nil {
		generator = roomid.NewGenerator(nil)
	}
	return &Store{
		rooms:        make(map[string]*Room),
		roomIDByUUID: make(map[string]string),
		cfg:          cfg,
		logger:       logger,
		generator:    generator,
	}
}

// GetOrCreateRoom returns the room with the given id, creating it lazily
func (s *Store) GetOrCreateRoom(id string) *Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getOrCreateRoomLocked(id)
}

func (s *Store) getOrCreateRoomLocked(id string) *Room {
	if room, ok := s.rooms[id]; ok {
		return room
	}
	room := NewRoom(id, s.cfg, s.logger)
	s.rooms[id] = room
	s.logger.Info("room created", "room", id, "rooms", len(s.rooms))
	return room
}

// GetRoom returns the room with the given id without creating it
func (s *Store) GetRoom(id string) (*Room, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	room, ok := s.rooms[id]
	return room, ok
}

// NewRoomID generates a fresh room id, retrying on the unlikely collision
// with an existing room.
func (s *Store) NewRoomID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.newRoomIDLocked()
}

func (s *Store) newRoomIDLocked() string {
	for {
		id := s.generator.Generate()
		if _, exists := s.rooms[id]; !exists {
			return id
		}
		s.logger.Warn("room id collision, regenerating", "room", id)
	}
}

// SearchForRoom finds a room for the player: their existing room if they
// are already mapped, else the oldest open room with a free seat, else a
// newly created one. A room about to seat its last player leaves the
// open set.
func (s *Store) SearchForRoom(uuid string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if roomID, ok := s.roomIDByUUID[uuid]; ok {
		return roomID
	}

	var kept []string
	found := ""
	for _, id := range s.openRooms {
		room, ok := s.rooms[id]
		if !ok {
			continue
		}
		seats := room.SeatCount()
		if seats >= s.cfg.MaxSeats {
			continue
		}
		if found == "" {
			found = id
			if seats == s.cfg.MaxSeats-1 {
				// this join fills the room, withdraw it
				continue
			}
		}
		kept = append(kept, id)
	}
	s.openRooms = kept
	if found != "" {
		s.logger.Info("matched player to open room", "uuid", uuid, "room", found)
		return found
	}

	id := s.newRoomIDLocked()
	s.getOrCreateRoomLocked(id)
	s.openRooms = append(s.openRooms, id)
	s.logger.Info("opened new room for player", "uuid", uuid, "room", id)
	return id
}

// AddPlayer seats a player in a room and records the uuid mapping. A
// room that fills up is withdrawn from the open set.
func (s *Store) AddPlayer(roomID, username, uuid string, isAI bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	room := s.getOrCreateRoomLocked(roomID)
	if err := room.AddPlayer(uuid, username, isAI); err != nil {
		return err
	}
	s.roomIDByUUID[uuid] = roomID
	if room.SeatCount() >= s.cfg.MaxSeats {
		s.removeOpenLocked(roomID)
	}
	return nil
}

// RemovePlayer takes a player out of their room and frees the room once
// no humans remain.
func (s *Store) RemovePlayer(uuid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	roomID, ok := s.roomIDByUUID[uuid]
	if !ok {
		return ErrUnknownPlayer
	}
	delete(s.roomIDByUUID, uuid)

	room, ok := s.rooms[roomID]
	if !ok {
		return nil
	}
	if err := room.RemovePlayer(uuid); err != nil {
		return err
	}
	if room.HumanCount() == 0 {
		s.deleteRoomLocked(roomID)
	}
	return nil
}

// RoomIDFor returns the room a player is mapped to
func (s *Store) RoomIDFor(uuid string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	roomID, ok := s.roomIDByUUID[uuid]
	return roomID, ok
}

// RoomFor returns the room a player is mapped to
func (s *Store) RoomFor(uuid string) (*Room, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	roomID, ok := s.roomIDByUUID[uuid]
	if !ok {
		return nil, false
	}
	room, ok := s.rooms[roomID]
	return room, ok
}

// DeleteRoomIfEmpty frees a room with no seated players
func (s *Store) DeleteRoomIfEmpty(roomID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[roomID]
	if !ok {
		return
	}
	if room.SeatCount() == 0 {
		s.deleteRoomLocked(roomID)
	}
}

func (s *Store) deleteRoomLocked(roomID string) {
	delete(s.rooms, roomID)
	s.removeOpenLocked(roomID)
	for uuid, id := range s.roomIDByUUID {
		if id == roomID {
			delete(s.roomIDByUUID, uuid)
		}
	}
	s.logger.Info("room deleted", "room", roomID, "rooms", len(s.rooms))
}

func (s *Store) removeOpenLocked(roomID string) {
	for i, id := range s.openRooms {
		if id == roomID {
			s.openRooms = append(s.openRooms[:i], s.openRooms[i+1:]...)
			return
		}
	}
}

// RoomCount returns the number of live rooms
func (s *Store) RoomCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rooms)
}
