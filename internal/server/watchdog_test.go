package server

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/mahjongparlor/internal/game"
	"github.com/lox/mahjongparlor/internal/randutil"
)

const (
	watchdogTimeout = 5 * time.Second
	watchdogGrace   = 1 * time.Second
)

func watchdogRoom(t *testing.T) (*game.Room, []string) {
	t.Helper()
	logger := log.New(io.Discard)
	room := game.NewRoom("WATCH001", game.DefaultRoomConfig(), logger)
	uuids := []string{"p0", "p1", "p2", "p3"}
	for i, id := range uuids {
		require.NoError(t, room.AddPlayer(id, fmt.Sprintf("Player %d", i), false))
	}
	require.NoError(t, room.StartGame("p0", randutil.New(1)))
	return room, uuids
}

func stateOf(t *testing.T, room *game.Room, uuid string) game.PlayerState {
	t.Helper()
	snap, err := room.Snapshot(uuid)
	require.NoError(t, err)
	return snap.State
}

func discardFirstTile(t *testing.T, room *game.Room, uuid string) {
	t.Helper()
	snap, err := room.Snapshot(uuid)
	require.NoError(t, err)
	require.NoError(t, room.EndTurn(uuid, snap.Tiles[0]))
}

func TestWatchdogExpiresSilentClaimants(t *testing.T) {
	ctx := context.Background()
	mockClock := quartz.NewMock(t)
	room, uuids := watchdogRoom(t)

	w := NewClaimWatchdog(room, mockClock, watchdogTimeout, watchdogGrace, log.New(io.Discard))
	defer w.Stop()

	discardFirstTile(t, room, "p0")
	for _, id := range uuids[1:] {
		require.Equal(t, game.DeclareClaim, stateOf(t, room, id))
	}

	// nothing happens while the clients could still respond
	mockClock.Advance(watchdogTimeout).MustWait(ctx)
	assert.Equal(t, game.DeclareClaim, stateOf(t, room, "p1"))

	// past the grace period every silent claimant is passed
	mockClock.Advance(watchdogGrace).MustWait(ctx)
	assert.Equal(t, game.DrawTile, stateOf(t, room, "p1"))
	assert.Equal(t, game.NoAction, stateOf(t, room, "p2"))
	assert.Equal(t, game.NoAction, stateOf(t, room, "p3"))
}

func TestWatchdogDisarmsWhenWindowResolves(t *testing.T) {
	ctx := context.Background()
	mockClock := quartz.NewMock(t)
	room, uuids := watchdogRoom(t)

	w := NewClaimWatchdog(room, mockClock, watchdogTimeout, watchdogGrace, log.New(io.Discard))
	defer w.Stop()

	discardFirstTile(t, room, "p0")
	for _, id := range uuids[1:] {
		require.NoError(t, room.SubmitClaim(id, nil))
	}
	require.Equal(t, game.DrawTile, stateOf(t, room, "p1"))
	require.NoError(t, room.DrawTile("p1"))

	// the window resolved before the deadline; the expiry must not fire
	// into the next turn
	mockClock.Advance(watchdogTimeout + watchdogGrace).MustWait(ctx)
	assert.Equal(t, game.DiscardTile, stateOf(t, room, "p1"))
}

func TestWatchdogRearmsPerWindow(t *testing.T) {
	ctx := context.Background()
	mockClock := quartz.NewMock(t)
	room, uuids := watchdogRoom(t)

	w := NewClaimWatchdog(room, mockClock, watchdogTimeout, watchdogGrace, log.New(io.Discard))
	defer w.Stop()

	// first window resolves by hand, second is left to the watchdog
	discardFirstTile(t, room, "p0")
	for _, id := range uuids[1:] {
		require.NoError(t, room.SubmitClaim(id, nil))
	}
	require.NoError(t, room.DrawTile("p1"))
	discardFirstTile(t, room, "p1")

	mockClock.Advance(watchdogTimeout + watchdogGrace).MustWait(ctx)
	assert.Equal(t, game.DrawTile, stateOf(t, room, "p2"))
	assert.Equal(t, game.NoAction, stateOf(t, room, "p0"))
	assert.Equal(t, game.NoAction, stateOf(t, room, "p3"))
}

func TestWatchdogStopDetaches(t *testing.T) {
	ctx := context.Background()
	mockClock := quartz.NewMock(t)
	room, _ := watchdogRoom(t)

	w := NewClaimWatchdog(room, mockClock, watchdogTimeout, watchdogGrace, log.New(io.Discard))
	w.Stop()

	discardFirstTile(t, room, "p0")
	mockClock.Advance(watchdogTimeout + watchdogGrace).MustWait(ctx)

	// with the watchdog stopped the window stays open indefinitely
	assert.Equal(t, game.DeclareClaim, stateOf(t, room, "p1"))
}
