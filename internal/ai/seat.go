package ai

import (
	"context"
	rand "math/rand/v2"
	"time"

	"github.com/charmbracelet/log"
	"github.com/lox/mahjongparlor/internal/game"
	"github.com/lox/mahjongparlor/internal/tile"
)

// Seat is an in-process AI player. It subscribes to the room's event bus,
// queues the events addressed to it and reacts from its own goroutine.
// Reacting from the bus callback would deadlock: the room publishes while
// holding its lock, and every reaction is a room operation that takes it.
type Seat struct {
	UUID     string
	Username string

	room     *game.Room
	strategy Strategy
	rng      *rand.Rand
	logger   *log.Logger
	events   chan game.GameEvent
}

// NewSeat creates an AI seat bound to a room
func NewSeat(uuid, username string, room *game.Room, strategy Strategy, rng *rand.Rand, logger *log.Logger) *Seat {
	return &Seat{
		UUID:     uuid,
		Username: username,
		room:     room,
		strategy: strategy,
		rng:      rng,
		logger:   logger.WithPrefix("ai").With("player", username),
		events:   make(chan game.GameEvent, 256),
	}
}

// OnEvent implements the EventSubscriber interface. Only events addressed
// to this seat matter; everything else is observable through snapshots.
func (s *Seat) OnEvent(event game.GameEvent) {
	targeted, ok := event.(game.TargetedEvent)
	if !ok || targeted.Target() != s.UUID {
		return
	}
	select {
	case s.events <- event:
	default:
		s.logger.Error("event queue full, dropping event", "type", event.EventType())
	}
}

// Run processes queued events until the context is cancelled
func (s *Seat) Run(ctx context.Context) error {
	for {
		select {
		case event := <-s.events:
			s.handle(event)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (s *Seat) handle(event game.GameEvent) {
	switch e := event.(type) {
	case game.StateChangedEvent:
		s.handleState(e.State)
	case game.MeldSubsetsEvent:
		s.completeMeld(e)
	}
}

func (s *Seat) handleState(state game.PlayerState) {
	switch state {
	case game.DrawTile:
		if err := s.room.DrawTile(s.UUID); err != nil {
			s.logger.Warn("draw failed", "error", err)
		}
	case game.DiscardTile:
		s.takeTurn()
	case game.DeclareClaim:
		s.respondToClaim()
	}
}

// takeTurn plays out the seat's discard phase: win if possible, reveal a
// concealed kong if the strategy wants to, otherwise discard.
func (s *Seat) takeTurn() {
	snap, err := s.room.Snapshot(s.UUID)
	if err != nil {
		s.logger.Warn("snapshot failed", "error", err)
		return
	}

	if snap.CanDeclareWin {
		if err := s.room.DeclareWin(s.UUID); err == nil {
			return
		} else {
			s.logger.Warn("win declaration failed", "error", err)
		}
	}
	if snap.CanDeclareKong && s.strategy.DeclaresKong() {
		if err := s.room.DeclareConcealedKong(s.UUID); err == nil {
			return
		} else {
			s.logger.Warn("kong declaration failed", "error", err)
		}
	}

	discard := s.strategy.Discard(s.rng, snap)
	if err := s.room.EndTurn(s.UUID, discard); err != nil {
		s.logger.Warn("discard failed", "tile", discard, "error", err)
	}
}

func (s *Seat) respondToClaim() {
	if err := s.room.DeclareClaimStart(s.UUID, time.Now()); err != nil {
		s.logger.Debug("claim start rejected", "error", err)
	}

	snap, err := s.room.Snapshot(s.UUID)
	if err != nil {
		s.logger.Warn("snapshot failed", "error", err)
		return
	}
	declared := s.strategy.Claim(s.rng, snap)
	if err := s.room.SubmitClaim(s.UUID, declared); err != nil {
		s.logger.Warn("claim submission failed", "error", err)
	}
}

func (s *Seat) completeMeld(e game.MeldSubsetsEvent) {
	if len(e.Subsets) == 0 || len(e.NewMeld) == 0 {
		return
	}
	subset := s.strategy.ChooseMeldSubset(s.rng, e.Subsets)
	tiles := make([]tile.Tile, 0, len(e.NewMeld)+len(subset))
	tiles = append(tiles, e.NewMeld...)
	tiles = append(tiles, subset...)
	if err := s.room.CompleteNewMeld(s.UUID, tiles); err != nil {
		s.logger.Warn("meld completion failed", "error", err)
	}
}
