package game

import (
	"sync"
	"time"

	"github.com/lox/mahjongparlor/internal/tile"
)

// EventType represents a game event type with type safety
type EventType string

// EventType constants for game domain events. Most map one to one onto
// outbound wire messages; the claim window events are internal signals
// consumed by the claim watchdog.
const (
	EventTypeTilesUpdated      EventType = "update_tiles"
	EventTypeTilesExtended     EventType = "extend_tiles"
	EventTypeStateChanged      EventType = "update_current_state"
	EventTypeDiscardChanged    EventType = "update_discarded_tile"
	EventTypeOpponentsUpdated  EventType = "update_opponents"
	EventTypePlayerUpdated     EventType = "update_player"
	EventTypeClaimTimer        EventType = "declare_claim_with_timer"
	EventTypeMeldSubsets       EventType = "valid_tile_sets_for_meld"
	EventTypeCanDeclareWin     EventType = "update_can_declare_win"
	EventTypeCanDeclareKong    EventType = "update_can_declare_kong"
	EventTypeConcealedKongs    EventType = "update_concealed_kongs"
	EventTypeChatMessage       EventType = "text_message"
	EventTypeGameEnded         EventType = "end_game"
	EventTypeClaimWindowOpened EventType = "claim_window_opened"
	EventTypeClaimWindowClosed EventType = "claim_window_closed"
)

// String returns the string representation of the event type
func (et EventType) String() string {
	return string(et)
}

// ChatType distinguishes server announcements from player chat
type ChatType string

const (
	ChatServer ChatType = "SERVER_MSG"
	ChatPlayer ChatType = "PLAYER_MSG"
)

// GameEvent represents any event that occurs during a mahjong game
type GameEvent interface {
	EventType() EventType
	Timestamp() time.Time
}

// TargetedEvent is a GameEvent addressed to a single player. Events
// without a target, or with an empty one, go to the whole room.
type TargetedEvent interface {
	GameEvent
	Target() string
}

// TilesUpdatedEvent carries a player's full sorted hand
type TilesUpdatedEvent struct {
	PlayerUUID string
	Tiles      []tile.Tile
	timestamp  time.Time
}

func (e TilesUpdatedEvent) EventType() EventType { return EventTypeTilesUpdated }
func (e TilesUpdatedEvent) Timestamp() time.Time { return e.timestamp }
func (e TilesUpdatedEvent) Target() string       { return e.PlayerUUID }

// NewTilesUpdatedEvent creates a new tiles updated event
func NewTilesUpdatedEvent(playerUUID string, tiles []tile.Tile) TilesUpdatedEvent {
	copied := make([]tile.Tile, len(tiles))
	copy(copied, tiles)
	return TilesUpdatedEvent{
		PlayerUUID: playerUUID,
		Tiles:      copied,
		timestamp:  time.Now(),
	}
}

// TilesExtendedEvent carries a single drawn tile appended to a hand
type TilesExtendedEvent struct {
	PlayerUUID string
	Tile       tile.Tile
	timestamp  time.Time
}

func (e TilesExtendedEvent) EventType() EventType { return EventTypeTilesExtended }
func (e TilesExtendedEvent) Timestamp() time.Time { return e.timestamp }
func (e TilesExtendedEvent) Target() string       { return e.PlayerUUID }

// NewTilesExtendedEvent creates a new tiles extended event
func NewTilesExtendedEvent(playerUUID string, t tile.Tile) TilesExtendedEvent {
	return TilesExtendedEvent{
		PlayerUUID: playerUUID,
		Tile:       t,
		timestamp:  time.Now(),
	}
}

// StateChangedEvent carries a player's new state
type StateChangedEvent struct {
	PlayerUUID string
	State      PlayerState
	timestamp  time.Time
}

func (e StateChangedEvent) EventType() EventType { return EventTypeStateChanged }
func (e StateChangedEvent) Timestamp() time.Time { return e.timestamp }
func (e StateChangedEvent) Target() string       { return e.PlayerUUID }

// NewStateChangedEvent creates a new state changed event
func NewStateChangedEvent(playerUUID string, state PlayerState) StateChangedEvent {
	return StateChangedEvent{
		PlayerUUID: playerUUID,
		State:      state,
		timestamp:  time.Now(),
	}
}

// DiscardChangedEvent carries the tile currently face up on the table. A
// nil tile means the discard was claimed or the table is empty. Room-wide
// unless PlayerUUID is set, which happens during state re-emission.
type DiscardChangedEvent struct {
	PlayerUUID string
	Tile       *tile.Tile
	timestamp  time.Time
}

func (e DiscardChangedEvent) EventType() EventType { return EventTypeDiscardChanged }
func (e DiscardChangedEvent) Timestamp() time.Time { return e.timestamp }
func (e DiscardChangedEvent) Target() string       { return e.PlayerUUID }

// NewDiscardChangedEvent creates a new discard changed event
func NewDiscardChangedEvent(playerUUID string, t *tile.Tile) DiscardChangedEvent {
	var copied *tile.Tile
	if t != nil {
		c := *t
		copied = &c
	}
	return DiscardChangedEvent{
		PlayerUUID: playerUUID,
		Tile:       copied,
		timestamp:  time.Now(),
	}
}

// OpponentsUpdatedEvent carries one player's view of the other seats
type OpponentsUpdatedEvent struct {
	PlayerUUID string
	Opponents  []Opponent
	timestamp  time.Time
}

func (e OpponentsUpdatedEvent) EventType() EventType { return EventTypeOpponentsUpdated }
func (e OpponentsUpdatedEvent) Timestamp() time.Time { return e.timestamp }
func (e OpponentsUpdatedEvent) Target() string       { return e.PlayerUUID }

// NewOpponentsUpdatedEvent creates a new opponents updated event
func NewOpponentsUpdatedEvent(playerUUID string, opponents []Opponent) OpponentsUpdatedEvent {
	return OpponentsUpdatedEvent{
		PlayerUUID: playerUUID,
		Opponents:  opponents,
		timestamp:  time.Now(),
	}
}

// PlayerUpdatedEvent carries a partial patch of the player's own melds
type PlayerUpdatedEvent struct {
	PlayerUUID    string
	RevealedMelds []Meld
	NewMeld       []tile.Tile
	timestamp     time.Time
}

func (e PlayerUpdatedEvent) EventType() EventType { return EventTypePlayerUpdated }
func (e PlayerUpdatedEvent) Timestamp() time.Time { return e.timestamp }
func (e PlayerUpdatedEvent) Target() string       { return e.PlayerUUID }

// NewPlayerUpdatedEvent creates a new player updated event
func NewPlayerUpdatedEvent(playerUUID string, revealedMelds []Meld, newMeld []tile.Tile) PlayerUpdatedEvent {
	return PlayerUpdatedEvent{
		PlayerUUID:    playerUUID,
		RevealedMelds: copyMelds(revealedMelds),
		NewMeld:       append([]tile.Tile(nil), newMeld...),
		timestamp:     time.Now(),
	}
}

// ClaimTimerEvent tells one claimant to run a claim countdown. StartTime
// is nil when the window just opened; on re-emission it carries the
// instant the client first reported, so a reloaded page can resume.
type ClaimTimerEvent struct {
	PlayerUUID string
	StartTime  *time.Time
	MsDuration int
	timestamp  time.Time
}

func (e ClaimTimerEvent) EventType() EventType { return EventTypeClaimTimer }
func (e ClaimTimerEvent) Timestamp() time.Time { return e.timestamp }
func (e ClaimTimerEvent) Target() string       { return e.PlayerUUID }

// NewClaimTimerEvent creates a new claim timer event
func NewClaimTimerEvent(playerUUID string, startTime *time.Time, msDuration int) ClaimTimerEvent {
	var copied *time.Time
	if startTime != nil {
		t := *startTime
		copied = &t
	}
	return ClaimTimerEvent{
		PlayerUUID: playerUUID,
		StartTime:  copied,
		MsDuration: msDuration,
		timestamp:  time.Now(),
	}
}

// MeldSubsetsEvent carries the hand subsets a claimant may choose from to
// complete their declared meld
type MeldSubsetsEvent struct {
	PlayerUUID   string
	Subsets      []Meld
	NewMeld      []tile.Tile
	TargetLength int
	timestamp    time.Time
}

func (e MeldSubsetsEvent) EventType() EventType { return EventTypeMeldSubsets }
func (e MeldSubsetsEvent) Timestamp() time.Time { return e.timestamp }
func (e MeldSubsetsEvent) Target() string       { return e.PlayerUUID }

// NewMeldSubsetsEvent creates a new meld subsets event
func NewMeldSubsetsEvent(playerUUID string, subsets []Meld, newMeld []tile.Tile, targetLength int) MeldSubsetsEvent {
	return MeldSubsetsEvent{
		PlayerUUID:   playerUUID,
		Subsets:      copyMelds(subsets),
		NewMeld:      append([]tile.Tile(nil), newMeld...),
		TargetLength: targetLength,
		timestamp:    time.Now(),
	}
}

// CanDeclareWinEvent tells a player whether their current hand wins
type CanDeclareWinEvent struct {
	PlayerUUID    string
	CanDeclareWin bool
	timestamp     time.Time
}

func (e CanDeclareWinEvent) EventType() EventType { return EventTypeCanDeclareWin }
func (e CanDeclareWinEvent) Timestamp() time.Time { return e.timestamp }
func (e CanDeclareWinEvent) Target() string       { return e.PlayerUUID }

// NewCanDeclareWinEvent creates a new can declare win event
func NewCanDeclareWinEvent(playerUUID string, canDeclareWin bool) CanDeclareWinEvent {
	return CanDeclareWinEvent{
		PlayerUUID:    playerUUID,
		CanDeclareWin: canDeclareWin,
		timestamp:     time.Now(),
	}
}

// CanDeclareKongEvent tells a player whether they hold four of a kind
type CanDeclareKongEvent struct {
	PlayerUUID     string
	CanDeclareKong bool
	timestamp      time.Time
}

func (e CanDeclareKongEvent) EventType() EventType { return EventTypeCanDeclareKong }
func (e CanDeclareKongEvent) Timestamp() time.Time { return e.timestamp }
func (e CanDeclareKongEvent) Target() string       { return e.PlayerUUID }

// NewCanDeclareKongEvent creates a new can declare kong event
func NewCanDeclareKongEvent(playerUUID string, canDeclareKong bool) CanDeclareKongEvent {
	return CanDeclareKongEvent{
		PlayerUUID:     playerUUID,
		CanDeclareKong: canDeclareKong,
		timestamp:      time.Now(),
	}
}

// ConcealedKongsEvent carries a player's concealed kongs
type ConcealedKongsEvent struct {
	PlayerUUID string
	Kongs      []Meld
	timestamp  time.Time
}

func (e ConcealedKongsEvent) EventType() EventType { return EventTypeConcealedKongs }
func (e ConcealedKongsEvent) Timestamp() time.Time { return e.timestamp }
func (e ConcealedKongsEvent) Target() string       { return e.PlayerUUID }

// NewConcealedKongsEvent creates a new concealed kongs event
func NewConcealedKongsEvent(playerUUID string, kongs []Meld) ConcealedKongsEvent {
	return ConcealedKongsEvent{
		PlayerUUID: playerUUID,
		Kongs:      copyMelds(kongs),
		timestamp:  time.Now(),
	}
}

// ChatMessageEvent carries a chat line to the whole room
type ChatMessageEvent struct {
	MsgType   ChatType
	Text      string
	timestamp time.Time
}

func (e ChatMessageEvent) EventType() EventType { return EventTypeChatMessage }
func (e ChatMessageEvent) Timestamp() time.Time { return e.timestamp }

// NewChatMessageEvent creates a new chat message event
func NewChatMessageEvent(msgType ChatType, text string) ChatMessageEvent {
	return ChatMessageEvent{
		MsgType:   msgType,
		Text:      text,
		timestamp: time.Now(),
	}
}

// GameEndedEvent is published when a game finishes by win or wall
// exhaustion
type GameEndedEvent struct {
	timestamp time.Time
}

func (e GameEndedEvent) EventType() EventType { return EventTypeGameEnded }
func (e GameEndedEvent) Timestamp() time.Time { return e.timestamp }

// NewGameEndedEvent creates a new game ended event
func NewGameEndedEvent() GameEndedEvent {
	return GameEndedEvent{timestamp: time.Now()}
}

// ClaimWindowOpenedEvent signals that a discard is open for claims. The
// generation identifies the window so stale expiries can be discarded.
type ClaimWindowOpenedEvent struct {
	Generation int
	timestamp  time.Time
}

func (e ClaimWindowOpenedEvent) EventType() EventType { return EventTypeClaimWindowOpened }
func (e ClaimWindowOpenedEvent) Timestamp() time.Time { return e.timestamp }

// NewClaimWindowOpenedEvent creates a new claim window opened event
func NewClaimWindowOpenedEvent(generation int) ClaimWindowOpenedEvent {
	return ClaimWindowOpenedEvent{Generation: generation, timestamp: time.Now()}
}

// ClaimWindowClosedEvent signals that a claim window resolved
type ClaimWindowClosedEvent struct {
	Generation int
	timestamp  time.Time
}

func (e ClaimWindowClosedEvent) EventType() EventType { return EventTypeClaimWindowClosed }
func (e ClaimWindowClosedEvent) Timestamp() time.Time { return e.timestamp }

// NewClaimWindowClosedEvent creates a new claim window closed event
func NewClaimWindowClosedEvent(generation int) ClaimWindowClosedEvent {
	return ClaimWindowClosedEvent{Generation: generation, timestamp: time.Now()}
}

// EventSubscriber can subscribe to game events
type EventSubscriber interface {
	OnEvent(event GameEvent)
}

// EventBus manages event publishing and subscription
type EventBus interface {
	Subscribe(subscriber EventSubscriber)
	Unsubscribe(subscriber EventSubscriber)
	Publish(event GameEvent)
}

// SimpleEventBus is a basic in-memory event bus implementation. Delivery
// is synchronous and in subscription order; subscribers that need to act
// on the room must do so from their own goroutine.
type SimpleEventBus struct {
	mu          sync.RWMutex
	subscribers []EventSubscriber
}

// NewEventBus creates a new event bus
func NewEventBus() EventBus {
	return &SimpleEventBus{
		subscribers: make([]EventSubscriber, 0),
	}
}

// Subscribe adds a subscriber to receive events
func (bus *SimpleEventBus) Subscribe(subscriber EventSubscriber) {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	bus.subscribers = append(bus.subscribers, subscriber)
}

// Unsubscribe removes a subscriber from receiving events
func (bus *SimpleEventBus) Unsubscribe(subscriber EventSubscriber) {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	for i, sub := range bus.subscribers {
		if sub == subscriber {
			bus.subscribers = append(bus.subscribers[:i], bus.subscribers[i+1:]...)
			break
		}
	}
}

// Publish sends an event to all subscribers
func (bus *SimpleEventBus) Publish(event GameEvent) {
	bus.mu.RLock()
	subscribers := make([]EventSubscriber, len(bus.subscribers))
	copy(subscribers, bus.subscribers)
	bus.mu.RUnlock()
	for _, subscriber := range subscribers {
		subscriber.OnEvent(event)
	}
}

func copyMelds(melds []Meld) []Meld {
	if melds == nil {
		return nil
	}
	out := make([]Meld, len(melds))
	for i, m := range melds {
		out[i] = append(Meld(nil), m...)
	}
	return out
}
