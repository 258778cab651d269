package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/mahjongparlor/internal/randutil"
	"github.com/lox/mahjongparlor/internal/roomid"
)

// scriptedSource feeds a fixed sequence of values to the room id
// generator so collisions can be forced.
type scriptedSource struct {
	values []int
	idx    int
}

func (s *scriptedSource) IntN(n int) int {
	v := s.values[s.idx%len(s.values)]
	s.idx++
	return v % n
}

func newTestStore() *Store {
	return NewStore(DefaultRoomConfig(), testLogger(), nil)
}

func TestStoreGetOrCreateRoom(t *testing.T) {
	s := newTestStore()

	room := s.GetOrCreateRoom("ROOMAAAA")
	require.NotNil(t, room)
	assert.Equal(t, 1, s.RoomCount())

	again := s.GetOrCreateRoom("ROOMAAAA")
	assert.Same(t, room, again)
	assert.Equal(t, 1, s.RoomCount())

	_, ok := s.GetRoom("ROOMBBBB")
	assert.False(t, ok)
}

func TestStoreNewRoomIDRetriesOnCollision(t *testing.T) {
	// first generated id collides with an existing room, the second is fresh
	src := &scriptedSource{values: []int{
		0, 0, 0, 0, 0, 0, 0, 0,
		1, 1, 1, 1, 1, 1, 1, 1,
	}}
	gen := roomid.NewGenerator(src)
	first := gen.Generate()

	src.idx = 0
	s := NewStore(DefaultRoomConfig(), testLogger(), gen)
	s.GetOrCreateRoom(first)

	id := s.NewRoomID()
	assert.NotEqual(t, first, id)
	assert.NoError(t, roomid.Validate(id))
}

func TestStoreAddPlayerMapsUUID(t *testing.T) {
	s := newTestStore()

	require.NoError(t, s.AddPlayer("ROOMAAAA", "Alice", "a", false))

	roomID, ok := s.RoomIDFor("a")
	require.True(t, ok)
	assert.Equal(t, "ROOMAAAA", roomID)

	room, ok := s.RoomFor("a")
	require.True(t, ok)
	assert.True(t, room.HasPlayer("a"))

	host, ok := room.HostUUID()
	require.True(t, ok)
	assert.Equal(t, "a", host)
}

func TestStoreSearchForRoomPrefersExistingMapping(t *testing.T) {
	s := newTestStore()
	require.NoError(t, s.AddPlayer("ROOMAAAA", "Alice", "a", false))

	assert.Equal(t, "ROOMAAAA", s.SearchForRoom("a"))
}

func TestStoreSearchForRoomMatchmaking(t *testing.T) {
	s := newTestStore()

	// first searcher opens a room
	first := s.SearchForRoom("a")
	require.NoError(t, s.AddPlayer(first, "Alice", "a", false))

	// the next three land in the same room, the oldest open one
	for i, uuid := range []string{"b", "c", "d"} {
		got := s.SearchForRoom(uuid)
		assert.Equal(t, first, got, "searcher %d", i)
		require.NoError(t, s.AddPlayer(got, uuid, uuid, false))
	}

	// the room is full now, a fifth searcher opens a new one
	fifth := s.SearchForRoom("e")
	assert.NotEqual(t, first, fifth)
}

func TestStoreSearchForRoomSkipsFullRooms(t *testing.T) {
	s := newTestStore()

	first := s.SearchForRoom("a")
	second := s.SearchForRoom("b")
	assert.Equal(t, first, second)

	// fill the open room directly, then make sure a searcher avoids it
	for _, uuid := range []string{"a", "b", "c", "d"} {
		require.NoError(t, s.AddPlayer(first, uuid, uuid, false))
	}
	third := s.SearchForRoom("e")
	assert.NotEqual(t, first, third)
}

func TestStoreRemovePlayerFreesRoomWhenLastHumanLeaves(t *testing.T) {
	s := newTestStore()
	require.NoError(t, s.AddPlayer("ROOMAAAA", "Alice", "a", false))
	require.NoError(t, s.AddPlayer("ROOMAAAA", "Bot 1", "bot1", true))

	require.NoError(t, s.RemovePlayer("a"))

	// AI seats do not hold a room open
	_, ok := s.GetRoom("ROOMAAAA")
	assert.False(t, ok)
	assert.Equal(t, 0, s.RoomCount())

	_, ok = s.RoomIDFor("bot1")
	assert.False(t, ok)
}

func TestStoreRemovePlayerKeepsRoomWithHumansLeft(t *testing.T) {
	s := newTestStore()
	require.NoError(t, s.AddPlayer("ROOMAAAA", "Alice", "a", false))
	require.NoError(t, s.AddPlayer("ROOMAAAA", "Bob", "b", false))

	require.NoError(t, s.RemovePlayer("a"))

	room, ok := s.GetRoom("ROOMAAAA")
	require.True(t, ok)
	assert.Equal(t, 1, room.HumanCount())

	assert.ErrorIs(t, s.RemovePlayer("ghost"), ErrUnknownPlayer)
}

func TestStoreLeaveAndReenterMidGame(t *testing.T) {
	s := newTestStore()
	require.NoError(t, s.AddPlayer("ROOMAAAA", "Alice", "a", false))
	require.NoError(t, s.AddPlayer("ROOMAAAA", "Bob", "b", false))
	require.NoError(t, s.AddPlayer("ROOMAAAA", "Bot 1", "bot1", true))
	require.NoError(t, s.AddPlayer("ROOMAAAA", "Bot 2", "bot2", true))

	room, ok := s.GetRoom("ROOMAAAA")
	require.True(t, ok)
	require.NoError(t, room.StartGame("a", randutil.New(1)))

	// Bob leaves mid-game, the seat is retained
	require.NoError(t, s.RemovePlayer("b"))
	assert.Equal(t, 1, room.HumanCount())
	assert.True(t, room.HasPlayer("b"))

	// Bob re-enters the same room and counts as a human again
	require.NoError(t, s.AddPlayer("ROOMAAAA", "Bob", "b", false))
	assert.Equal(t, 2, room.HumanCount())

	// Alice leaving must not free the room out from under Bob
	require.NoError(t, s.RemovePlayer("a"))
	assert.Equal(t, 1, room.HumanCount())
	_, ok = s.GetRoom("ROOMAAAA")
	require.True(t, ok)
	roomID, ok := s.RoomIDFor("b")
	require.True(t, ok)
	assert.Equal(t, "ROOMAAAA", roomID)

	// once Bob leaves too the room is freed
	require.NoError(t, s.RemovePlayer("b"))
	_, ok = s.GetRoom("ROOMAAAA")
	assert.False(t, ok)
}

func TestStoreDeleteRoomIfEmpty(t *testing.T) {
	s := newTestStore()

	s.GetOrCreateRoom("ROOMAAAA")
	s.DeleteRoomIfEmpty("ROOMAAAA")
	assert.Equal(t, 0, s.RoomCount())

	require.NoError(t, s.AddPlayer("ROOMBBBB", "Alice", "a", false))
	s.DeleteRoomIfEmpty("ROOMBBBB")
	assert.Equal(t, 1, s.RoomCount())
}
