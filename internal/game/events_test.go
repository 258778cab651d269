package game

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/mahjongparlor/internal/tile"
)

// recordingSubscriber captures every event it sees, for asserting on
// what a room publishes.
type recordingSubscriber struct {
	mu     sync.Mutex
	events []GameEvent
}

func newRecordingSubscriber() *recordingSubscriber {
	return &recordingSubscriber{}
}

func (r *recordingSubscriber) OnEvent(event GameEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingSubscriber) ofType(et EventType) []GameEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []GameEvent
	for _, e := range r.events {
		if e.EventType() == et {
			out = append(out, e)
		}
	}
	return out
}

func TestEventBusPublishAndUnsubscribe(t *testing.T) {
	bus := NewEventBus()
	a := newRecordingSubscriber()
	b := newRecordingSubscriber()
	bus.Subscribe(a)
	bus.Subscribe(b)

	bus.Publish(NewGameEndedEvent())
	assert.Len(t, a.ofType(EventTypeGameEnded), 1)
	assert.Len(t, b.ofType(EventTypeGameEnded), 1)

	bus.Unsubscribe(a)
	bus.Publish(NewGameEndedEvent())
	assert.Len(t, a.ofType(EventTypeGameEnded), 1)
	assert.Len(t, b.ofType(EventTypeGameEnded), 2)
}

func TestTargetedEventsCarryTheirPlayer(t *testing.T) {
	e := NewTilesUpdatedEvent("abc", []tile.Tile{tile.New(tile.Bamboo, 1)})
	var targeted TargetedEvent = e
	assert.Equal(t, "abc", targeted.Target())

	// room-wide events have no target or an empty one
	discard := NewDiscardChangedEvent("", nil)
	assert.Equal(t, "", discard.Target())
}

func TestTilesUpdatedEventCopiesTiles(t *testing.T) {
	tiles := []tile.Tile{tile.New(tile.Bamboo, 1), tile.New(tile.Dots, 2)}
	e := NewTilesUpdatedEvent("abc", tiles)
	tiles[0] = tile.New(tile.Dragon, tile.Red)
	assert.Equal(t, tile.New(tile.Bamboo, 1), e.Tiles[0])
}

func TestClaimWindowEventsCarryGeneration(t *testing.T) {
	opened := NewClaimWindowOpenedEvent(7)
	closed := NewClaimWindowClosedEvent(7)
	assert.Equal(t, 7, opened.Generation)
	assert.Equal(t, 7, closed.Generation)
	assert.Equal(t, EventTypeClaimWindowOpened, opened.EventType())
	assert.Equal(t, EventTypeClaimWindowClosed, closed.EventType())
}

func TestRoomPublishesStateAndTimerOnDiscard(t *testing.T) {
	r, _ := startedRoom(t)
	rec := newRecordingSubscriber()
	r.Subscribe(rec)
	defer r.Unsubscribe(rec)

	snap, err := r.Snapshot("p0")
	require.NoError(t, err)
	require.NoError(t, r.EndTurn("p0", snap.Tiles[0]))

	// three claimants each get a state change and a countdown
	timers := rec.ofType(EventTypeClaimTimer)
	require.Len(t, timers, 3)
	for _, e := range timers {
		timer := e.(ClaimTimerEvent)
		assert.Nil(t, timer.StartTime)
		assert.Equal(t, DefaultRoomConfig().ClaimTimeoutMS, timer.MsDuration)
	}

	opened := rec.ofType(EventTypeClaimWindowOpened)
	require.Len(t, opened, 1)
	assert.Equal(t, r.ClaimGeneration(), opened[0].(ClaimWindowOpenedEvent).Generation)
}
