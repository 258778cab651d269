package server

import (
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/lox/mahjongparlor/internal/game"
)

// ClaimWatchdog guards one room's claim windows against claimants that
// never respond, typically because their client disconnected mid-window.
// The clients are the authoritative countdown; the watchdog fires a full
// grace period after the countdown would have expired and synthesizes a
// pass for anyone still silent.
type ClaimWatchdog struct {
	room    *game.Room
	clock   quartz.Clock
	timeout time.Duration
	grace   time.Duration
	logger  *log.Logger

	mu    sync.Mutex
	timer *quartz.Timer
}

// NewClaimWatchdog creates a watchdog for the room and subscribes it to
// the room's event bus
func NewClaimWatchdog(room *game.Room, clock quartz.Clock, timeout, grace time.Duration, logger *log.Logger) *ClaimWatchdog {
	w := &ClaimWatchdog{
		room:    room,
		clock:   clock,
		timeout: timeout,
		grace:   grace,
		logger:  logger.WithPrefix("watchdog").With("room", room.ID),
	}
	room.Subscribe(w)
	return w
}

// OnEvent implements the EventSubscriber interface
func (w *ClaimWatchdog) OnEvent(event game.GameEvent) {
	switch e := event.(type) {
	case game.ClaimWindowOpenedEvent:
		w.arm(e.Generation)
	case game.ClaimWindowClosedEvent:
		w.disarm()
	}
}

// arm schedules an expiry for the given claim window. The expiry runs on
// the clock's goroutine and must not re-enter the watchdog lock.
func (w *ClaimWatchdog) arm(generation int) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.logger.Debug("claim window armed", "generation", generation, "deadline", w.timeout+w.grace)
	w.timer = w.clock.AfterFunc(w.timeout+w.grace, func() {
		w.logger.Debug("claim window deadline reached", "generation", generation)
		w.room.ExpireClaims(generation)
	})
}

// disarm cancels the pending expiry, if any
func (w *ClaimWatchdog) disarm() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
}

// Stop detaches the watchdog from the room and cancels any pending expiry
func (w *ClaimWatchdog) Stop() {
	w.room.Unsubscribe(w)
	w.disarm()
}
