// Package game implements the authoritative mahjong engine.
//
// The main type is Room, which owns the full state of one four-player
// game: the wall, each seat's hand and melds, the current discard and
// the claim window against it. Every operation locks the room, mutates
// state and publishes the resulting events on the room's bus before
// returning, so subscribers observe a total order per room.
//
// # Basic Usage
//
// Create a room, seat four players and run the dealer's first turn:
//
//	r := game.NewRoom("ROOMAAAA", game.DefaultRoomConfig(), logger)
//	r.AddPlayer("uuid-1", "Alice", false)
//	// ... three more seats ...
//	r.StartGame("uuid-1", rng)
//	r.EndTurn("uuid-1", discard)
//
// A discard opens a claim window: every other seat enters DECLARE_CLAIM
// and must answer with SubmitClaim, a nil meld type being a pass. The
// window resolves once all three responses arrive (the claim watchdog
// synthesizes passes for seats that never answer) and the best claim
// wins: a win outranks pungs and kongs, which outrank chows.
//
// # Deterministic Testing
//
// StartGame accepts a *rand.Rand for the wall shuffle, so tests seed it
// for reproducible deals:
//
//	r.StartGame("uuid-1", randutil.New(42))
//
// # Architecture
//
// Room delegates to specialized components:
//   - tile.Wall: the shuffled, undealt tile stack
//   - analyzer functions: meld detection, claim ranking and the winning
//     hand check
//   - Store: room lookup, matchmaking and the player-to-room mapping
//   - EventBus: synchronous event fan-out to gateway, watchdog and AI
//     subscribers
//
// Bus delivery happens while the room lock is held, so subscribers must
// never call back into room operations synchronously.
package game
