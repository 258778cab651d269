package ai

import (
	"context"
	"errors"
	"fmt"
	rand "math/rand/v2"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/lox/mahjongparlor/internal/game"
	"golang.org/x/sync/errgroup"
)

// Runner owns the AI seats of one room. Each seat gets its own goroutine
// under an errgroup; stopping the runner cancels them all.
type Runner struct {
	roomID string
	store  *game.Store
	logger *log.Logger

	ctx    context.Context
	cancel context.CancelFunc
	group  *errgroup.Group
	seats  []*Seat
}

// NewRunner creates a runner for a room's AI seats
func NewRunner(roomID string, store *game.Store, logger *log.Logger) *Runner {
	ctx, cancel := context.WithCancel(context.Background())
	group, ctx := errgroup.WithContext(ctx)
	return &Runner{
		roomID: roomID,
		store:  store,
		logger: logger.WithPrefix("ai-runner").With("room", roomID),
		ctx:    ctx,
		cancel: cancel,
		group:  group,
	}
}

// FillSeats seats count AI players in the room and starts their
// goroutines. Seats are numbered after any already running.
func (r *Runner) FillSeats(room *game.Room, count int, strategyName string, rng *rand.Rand) error {
	strategy, err := NewStrategy(strategyName)
	if err != nil {
		return err
	}

	for i := 0; i < count; i++ {
		seatUUID := uuid.NewString()
		username := fmt.Sprintf("Bot %d", len(r.seats)+1)

		if err := r.store.AddPlayer(r.roomID, username, seatUUID, true); err != nil {
			return fmt.Errorf("seating %s: %w", username, err)
		}

		seat := NewSeat(seatUUID, username, room, strategy, rand.New(rand.NewPCG(rng.Uint64(), rng.Uint64())), r.logger)
		room.Subscribe(seat)
		r.seats = append(r.seats, seat)

		r.group.Go(func() error {
			err := seat.Run(r.ctx)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})

		r.logger.Info("AI seat filled", "player", username, "strategy", strategyName)
	}
	return nil
}

// SeatCount returns the number of AI seats the runner manages
func (r *Runner) SeatCount() int {
	return len(r.seats)
}

// Stop cancels every seat goroutine and waits for them to exit
func (r *Runner) Stop() {
	r.cancel()
	if err := r.group.Wait(); err != nil {
		r.logger.Warn("AI seat exited with error", "error", err)
	}
	for _, seat := range r.seats {
		// Unsubscribing keeps the bus from queueing into dead seats
		seat.room.Unsubscribe(seat)
	}
	r.logger.Info("AI runner stopped", "seats", len(r.seats))
}
