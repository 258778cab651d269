package ai

import (
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/mahjongparlor/internal/game"
	"github.com/lox/mahjongparlor/internal/randutil"
)

func TestRunnerFillSeats(t *testing.T) {
	logger := log.New(io.Discard)
	store := game.NewStore(game.DefaultRoomConfig(), logger, nil)
	require.NoError(t, store.AddPlayer("ROOMAAAA", "Human", "human", false))
	room, ok := store.GetRoom("ROOMAAAA")
	require.True(t, ok)

	runner := NewRunner("ROOMAAAA", store, logger)
	defer runner.Stop()

	require.NoError(t, runner.FillSeats(room, 3, "pass", randutil.New(7)))
	assert.Equal(t, 3, runner.SeatCount())
	assert.Equal(t, 4, room.SeatCount())
	assert.Equal(t, 1, room.HumanCount())
}

func TestRunnerRejectsUnknownStrategy(t *testing.T) {
	logger := log.New(io.Discard)
	store := game.NewStore(game.DefaultRoomConfig(), logger, nil)
	require.NoError(t, store.AddPlayer("ROOMAAAA", "Human", "human", false))
	room, ok := store.GetRoom("ROOMAAAA")
	require.True(t, ok)

	runner := NewRunner("ROOMAAAA", store, logger)
	defer runner.Stop()

	assert.Error(t, runner.FillSeats(room, 3, "bluff", randutil.New(7)))
	assert.Equal(t, 0, runner.SeatCount())
}

// TestGameAgainstBots drives a human seat through a full game against
// three AI opponents. The bots act from their own goroutines, so the
// human side polls for its next actionable state.
func TestGameAgainstBots(t *testing.T) {
	logger := log.New(io.Discard)
	store := game.NewStore(game.DefaultRoomConfig(), logger, nil)
	require.NoError(t, store.AddPlayer("ROOMAAAA", "Human", "human", false))
	room, ok := store.GetRoom("ROOMAAAA")
	require.True(t, ok)

	runner := NewRunner("ROOMAAAA", store, logger)
	defer runner.Stop()
	require.NoError(t, runner.FillSeats(room, 3, "greedy", randutil.New(7)))

	require.NoError(t, room.StartGame("human", randutil.New(3)))

	deadline := time.Now().Add(30 * time.Second)
	for !room.Finished() {
		require.True(t, time.Now().Before(deadline), "game did not finish in time")

		snap, err := room.Snapshot("human")
		require.NoError(t, err)

		switch snap.State {
		case game.DrawTile:
			require.NoError(t, room.DrawTile("human"))
		case game.DiscardTile:
			if snap.CanDeclareWin {
				require.NoError(t, room.DeclareWin("human"))
				continue
			}
			require.NoError(t, room.EndTurn("human", snap.Tiles[0]))
		case game.DeclareClaim:
			// passing may race a bot claim that already closed the window
			_ = room.SubmitClaim("human", nil)
		default:
			// waiting on the bots
			time.Sleep(time.Millisecond)
		}
	}

	assert.True(t, room.Finished())
	assert.False(t, room.InProgress())

	// every seat landed in a terminal state
	for _, uuid := range room.Seats() {
		snap, err := room.Snapshot(uuid)
		require.NoError(t, err)
		assert.Contains(t, []game.PlayerState{game.Win, game.Loss, game.Draw}, snap.State)
	}
}
