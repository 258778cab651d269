package server

import (
	"fmt"
	rand "math/rand/v2"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/lox/mahjongparlor/internal/ai"
	"github.com/lox/mahjongparlor/internal/game"
	"github.com/lox/mahjongparlor/internal/randutil"
	"github.com/lox/mahjongparlor/internal/roomid"
	"github.com/lox/mahjongparlor/internal/tile"
)

// RoomService binds the transport to the room engine. Every handler
// resolves the caller's room, invokes one engine operation and lets the
// room's event subscriber push the results out; engine rejections are
// logged and dropped per the drop-and-log policy.
type RoomService struct {
	store  *game.Store
	server *Server
	cfg    *GameSettings
	clock  quartz.Clock
	logger *log.Logger

	mu          sync.Mutex
	rng         *rand.Rand
	usernames   map[string]string
	subscribers map[string]*roomSubscriber
	watchdogs   map[string]*ClaimWatchdog
	aiRunners   map[string]*ai.Runner
}

// NewRoomService creates a room service. The clock is injected so tests
// can drive the claim watchdog with a mock.
func NewRoomService(server *Server, cfg *GameSettings, clock quartz.Clock, logger *log.Logger) *RoomService {
	roomCfg := game.RoomConfig{
		MaxSeats:       cfg.MaxPlayers,
		ClaimTimeoutMS: cfg.ClaimTimeoutMS,
		IncludeBonus:   cfg.IncludeBonus,
	}

	var rng *rand.Rand
	if cfg.Seed != 0 {
		rng = randutil.New(cfg.Seed)
	} else {
		rng = randutil.NewRandom()
	}

	return &RoomService{
		store:       game.NewStore(roomCfg, logger, roomid.NewGenerator(rng)),
		server:      server,
		cfg:         cfg,
		clock:       clock,
		logger:      logger.WithPrefix("room-service"),
		rng:         rng,
		usernames:   make(map[string]string),
		subscribers: make(map[string]*roomSubscriber),
		watchdogs:   make(map[string]*ClaimWatchdog),
		aiRunners:   make(map[string]*ai.Runner),
	}
}

// Store exposes the underlying room store, used by tests and monitoring
func (rs *RoomService) Store() *game.Store {
	return rs.store
}

// Ready identifies the connection. Players without a username get a
// guest name; players already mapped to a room are reattached to it so a
// reloaded page lands back at its table.
func (rs *RoomService) Ready(conn *Connection, uuid string) {
	conn.SetPlayer(uuid)

	rs.mu.Lock()
	username, ok := rs.usernames[uuid]
	if !ok {
		username = fmt.Sprintf("Guest-%04d", rs.rng.IntN(10000))
		rs.usernames[uuid] = username
	}
	rs.mu.Unlock()

	if roomID, ok := rs.store.RoomIDFor(uuid); ok {
		conn.SetRoom(roomID)
	}

	rs.logger.Info("Player ready", "uuid", uuid, "username", username)
	rs.sendTo(uuid, MessageTypeUpdatePlayer, UpdatePlayerData{Username: username})
}

// EnterGame creates or joins a room for the player
func (rs *RoomService) EnterGame(conn *Connection, data EnterGameData) {
	roomID := data.RoomID
	switch {
	case data.ShouldCreateRoom:
		roomID = rs.store.NewRoomID()
	case roomID != "":
		if err := roomid.Validate(roomID); err != nil {
			rs.logger.Warn("Invalid room id, dropping", "room", roomID, "error", err)
			return
		}
	default:
		roomID = rs.store.SearchForRoom(data.PlayerUUID)
	}

	room := rs.ensureRoom(roomID)
	if err := rs.store.AddPlayer(roomID, data.Username, data.PlayerUUID, false); err != nil {
		rs.logger.Warn("Join rejected", "room", roomID, "player", data.Username, "error", err)
		return
	}

	rs.mu.Lock()
	rs.usernames[data.PlayerUUID] = data.Username
	rs.mu.Unlock()

	conn.SetPlayer(data.PlayerUUID)
	conn.SetRoom(roomID)
	rs.logger.Info("Player entered room", "room", roomID, "player", data.Username, "seats", room.SeatCount())
	rs.sendTo(data.PlayerUUID, MessageTypeUpdateRoomID, UpdateRoomIDData{RoomID: roomID})
	_ = room.EmitOpponents(data.PlayerUUID)
}

// StartGame begins the game, filling empty seats with AI first. Only the
// host may start.
func (rs *RoomService) StartGame(conn *Connection) {
	room, uuid, ok := rs.resolve(conn)
	if !ok {
		return
	}

	if host, ok := room.HostUUID(); !ok || host != uuid {
		rs.logger.Warn("start_game from non-host, dropping", "room", room.ID, "uuid", uuid)
		return
	}

	if missing := room.MaxSeats() - room.SeatCount(); missing > 0 {
		runner := rs.runnerFor(room)
		if err := runner.FillSeats(room, missing, rs.cfg.AIStrategy, rs.newRNG()); err != nil {
			rs.logger.Error("Failed to fill seats with AI", "room", room.ID, "error", err)
			return
		}
	}

	if err := room.StartGame(uuid, rs.newRNG()); err != nil {
		rs.logger.Warn("start_game rejected", "room", room.ID, "error", err)
	}
}

// DrawTile draws from the wall for the caller
func (rs *RoomService) DrawTile(conn *Connection) {
	room, uuid, ok := rs.resolve(conn)
	if !ok {
		return
	}
	if err := room.DrawTile(uuid); err != nil {
		rs.logger.Warn("draw_tile rejected", "room", room.ID, "uuid", uuid, "error", err)
	}
}

// EndTurn discards a tile for the caller
func (rs *RoomService) EndTurn(conn *Connection, discard tile.Tile) {
	room, uuid, ok := rs.resolve(conn)
	if !ok {
		return
	}
	if err := room.EndTurn(uuid, discard); err != nil {
		rs.logger.Warn("end_turn rejected", "room", room.ID, "uuid", uuid, "error", err)
	}
}

// DeclareClaimStart records the caller's countdown start time
func (rs *RoomService) DeclareClaimStart(conn *Connection, startTime time.Time) {
	room, uuid, ok := rs.resolve(conn)
	if !ok {
		return
	}
	if err := room.DeclareClaimStart(uuid, startTime); err != nil {
		rs.logger.Warn("declare_claim_start rejected", "room", room.ID, "uuid", uuid, "error", err)
	}
}

// UpdateClaimState submits the caller's claim; nil is a pass
func (rs *RoomService) UpdateClaimState(conn *Connection, declared *game.MeldType) {
	room, uuid, ok := rs.resolve(conn)
	if !ok {
		return
	}
	if err := room.SubmitClaim(uuid, declared); err != nil {
		rs.logger.Warn("update_claim_state rejected", "room", room.ID, "uuid", uuid, "error", err)
	}
}

// CompleteNewMeld finalizes the caller's claimed meld
func (rs *RoomService) CompleteNewMeld(conn *Connection, meldTiles []tile.Tile) {
	room, uuid, ok := rs.resolve(conn)
	if !ok {
		return
	}
	if err := room.CompleteNewMeld(uuid, meldTiles); err != nil {
		rs.logger.Warn("complete_new_meld rejected", "room", room.ID, "uuid", uuid, "error", err)
	}
}

// DeclareConcealedKong reveals the caller's in-hand four of a kind
func (rs *RoomService) DeclareConcealedKong(conn *Connection) {
	room, uuid, ok := rs.resolve(conn)
	if !ok {
		return
	}
	if err := room.DeclareConcealedKong(uuid); err != nil {
		rs.logger.Warn("declare_concealed_kong rejected", "room", room.ID, "uuid", uuid, "error", err)
	}
}

// DeclareWin verifies and settles the caller's win
func (rs *RoomService) DeclareWin(conn *Connection) {
	room, uuid, ok := rs.resolve(conn)
	if !ok {
		return
	}
	if err := room.DeclareWin(uuid); err != nil {
		rs.logger.Warn("declare_win rejected", "room", room.ID, "uuid", uuid, "error", err)
	}
}

// TextMessage relays chat to the caller's room, or to the lobby when the
// caller is not seated anywhere
func (rs *RoomService) TextMessage(conn *Connection, text string) {
	uuid := conn.GetPlayer()
	if uuid == "" {
		rs.logger.Warn("text_message before ready, dropping")
		return
	}

	if room, ok := rs.store.RoomFor(uuid); ok {
		if err := room.AddChatMessage(uuid, text); err != nil {
			rs.logger.Warn("text_message rejected", "room", room.ID, "uuid", uuid, "error", err)
		}
		return
	}

	rs.mu.Lock()
	username := rs.usernames[uuid]
	rs.mu.Unlock()

	msg, err := NewMessage(MessageTypeTextMessage, ChatData{
		MsgType: game.ChatPlayer,
		MsgText: fmt.Sprintf("%s: %s", username, text),
	})
	if err != nil {
		rs.logger.Error("Failed to create chat message", "error", err)
		return
	}
	rs.server.BroadcastToLobby(msg)
}

// RejoinGame sends the player their full room snapshot, or an empty one
// when they have no active room
func (rs *RoomService) RejoinGame(conn *Connection, uuid string) {
	conn.SetPlayer(uuid)

	room, ok := rs.store.RoomFor(uuid)
	if !ok {
		rs.logger.Debug("rejoin with no active room", "uuid", uuid)
		rs.sendConn(conn, MessageTypeRejoinSnapshot, RejoinSnapshotData{})
		return
	}

	snapshot, err := room.Snapshot(uuid)
	if err != nil {
		rs.logger.Warn("rejoin_game rejected", "room", room.ID, "uuid", uuid, "error", err)
		return
	}

	conn.SetRoom(room.ID)
	rs.logger.Info("Player rejoined", "room", room.ID, "uuid", uuid)
	rs.sendConn(conn, MessageTypeRejoinSnapshot, RejoinSnapshotData{Snapshot: snapshot})
}

// ReemitEvents re-sends the caller's transient events (claim timer,
// valid meld subsets)
func (rs *RoomService) ReemitEvents(conn *Connection) {
	room, uuid, ok := rs.resolve(conn)
	if !ok {
		return
	}
	if err := room.ReemitEvents(uuid); err != nil {
		rs.logger.Warn("reemit_events rejected", "room", room.ID, "uuid", uuid, "error", err)
	}
}

// LeaveGame removes the caller from their room and tears the room down
// once no humans remain
func (rs *RoomService) LeaveGame(conn *Connection) {
	uuid := conn.GetPlayer()
	if uuid == "" {
		return
	}
	roomID, ok := rs.store.RoomIDFor(uuid)
	if !ok {
		return
	}

	if err := rs.store.RemovePlayer(uuid); err != nil {
		rs.logger.Warn("leave_game rejected", "room", roomID, "uuid", uuid, "error", err)
		return
	}
	conn.SetRoom("")
	rs.logger.Info("Player left room", "room", roomID, "uuid", uuid)

	if _, alive := rs.store.GetRoom(roomID); !alive {
		rs.teardownRoom(roomID)
	}
}

// PlayerDisconnected handles a transport-level disconnect. The seat stays
// so the player can rejoin; the claim watchdog covers any window they
// leave open.
func (rs *RoomService) PlayerDisconnected(uuid string) {
	if roomID, ok := rs.store.RoomIDFor(uuid); ok {
		rs.logger.Info("Player disconnected, seat retained", "room", roomID, "uuid", uuid)
	}
}

// Stop tears down every room's watchdog and AI seats
func (rs *RoomService) Stop() {
	rs.mu.Lock()
	watchdogs := rs.watchdogs
	runners := rs.aiRunners
	rs.watchdogs = make(map[string]*ClaimWatchdog)
	rs.aiRunners = make(map[string]*ai.Runner)
	rs.mu.Unlock()

	for _, w := range watchdogs {
		w.Stop()
	}
	for _, r := range runners {
		r.Stop()
	}
}

// ensureRoom creates the room on first use and attaches its event
// subscriber and claim watchdog
func (rs *RoomService) ensureRoom(roomID string) *game.Room {
	room := rs.store.GetOrCreateRoom(roomID)

	rs.mu.Lock()
	defer rs.mu.Unlock()
	if _, ok := rs.subscribers[roomID]; ok {
		return room
	}

	sub := &roomSubscriber{
		roomID: roomID,
		server: rs.server,
		logger: rs.logger.WithPrefix("events").With("room", roomID),
	}
	room.Subscribe(sub)
	rs.subscribers[roomID] = sub

	if !rs.cfg.DisableWatchdog {
		timeout := time.Duration(rs.cfg.ClaimTimeoutMS) * time.Millisecond
		grace := time.Duration(rs.cfg.WatchdogGraceMS) * time.Millisecond
		rs.watchdogs[roomID] = NewClaimWatchdog(room, rs.clock, timeout, grace, rs.logger)
	}
	return room
}

// runnerFor returns the AI runner for the room, creating it on demand
func (rs *RoomService) runnerFor(room *game.Room) *ai.Runner {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	runner, ok := rs.aiRunners[room.ID]
	if !ok {
		runner = ai.NewRunner(room.ID, rs.store, rs.logger)
		rs.aiRunners[room.ID] = runner
	}
	return runner
}

// teardownRoom stops the watchdog and AI seats of a deleted room
func (rs *RoomService) teardownRoom(roomID string) {
	rs.mu.Lock()
	watchdog := rs.watchdogs[roomID]
	runner := rs.aiRunners[roomID]
	delete(rs.watchdogs, roomID)
	delete(rs.aiRunners, roomID)
	delete(rs.subscribers, roomID)
	rs.mu.Unlock()

	if watchdog != nil {
		watchdog.Stop()
	}
	if runner != nil {
		runner.Stop()
	}
	rs.logger.Info("Room torn down", "room", roomID)
}

// resolve maps a connection to its player and room, logging and dropping
// unknown callers
func (rs *RoomService) resolve(conn *Connection) (*game.Room, string, bool) {
	uuid := conn.GetPlayer()
	if uuid == "" {
		rs.logger.Warn("Message from unidentified connection, dropping")
		return nil, "", false
	}
	room, ok := rs.store.RoomFor(uuid)
	if !ok {
		rs.logger.Warn("Message from player with no room, dropping", "uuid", uuid)
		return nil, "", false
	}
	return room, uuid, true
}

// newRNG derives an independent rng from the service seed
func (rs *RoomService) newRNG() *rand.Rand {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return rand.New(rand.NewPCG(rs.rng.Uint64(), rs.rng.Uint64()))
}

// sendTo marshals and sends a targeted message, tolerating players that
// have no live connection
func (rs *RoomService) sendTo(uuid string, mt MessageType, data interface{}) {
	msg, err := NewMessage(mt, data)
	if err != nil {
		rs.logger.Error("Failed to create message", "type", mt, "error", err)
		return
	}
	if err := rs.server.SendToPlayer(uuid, msg); err != nil {
		rs.logger.Debug("Targeted send skipped", "type", mt, "uuid", uuid, "error", err)
	}
}

// sendConn sends a message directly on a connection
func (rs *RoomService) sendConn(conn *Connection, mt MessageType, data interface{}) {
	msg, err := NewMessage(mt, data)
	if err != nil {
		rs.logger.Error("Failed to create message", "type", mt, "error", err)
		return
	}
	if err := conn.SendMessage(msg); err != nil {
		rs.logger.Debug("Send failed", "type", mt, "error", err)
	}
}

// roomSubscriber forwards engine events to connected clients. Targeted
// events go to one player's connection; the rest broadcast to the room.
type roomSubscriber struct {
	roomID string
	server *Server
	logger *log.Logger
}

// OnEvent implements the EventSubscriber interface
func (sub *roomSubscriber) OnEvent(event game.GameEvent) {
	var (
		mt   MessageType
		data interface{}
	)

	switch e := event.(type) {
	case game.TilesUpdatedEvent:
		mt, data = MessageTypeUpdateTiles, UpdateTilesData{Tiles: e.Tiles}
	case game.TilesExtendedEvent:
		mt, data = MessageTypeExtendTiles, ExtendTilesData{Tile: e.Tile}
	case game.StateChangedEvent:
		mt, data = MessageTypeUpdateCurrentState, UpdateCurrentStateData{State: e.State}
	case game.DiscardChangedEvent:
		mt, data = MessageTypeUpdateDiscardedTile, UpdateDiscardedTileData{Tile: e.Tile}
	case game.OpponentsUpdatedEvent:
		mt, data = MessageTypeUpdateOpponents, UpdateOpponentsData{Opponents: e.Opponents}
	case game.PlayerUpdatedEvent:
		mt, data = MessageTypeUpdatePlayer, UpdatePlayerData{RevealedMelds: e.RevealedMelds, NewMeld: e.NewMeld}
	case game.ClaimTimerEvent:
		mt, data = MessageTypeClaimWithTimer, ClaimWithTimerData{StartTime: e.StartTime, MsDuration: e.MsDuration}
	case game.MeldSubsetsEvent:
		mt, data = MessageTypeMeldSubsets, MeldSubsetsData{
			ValidMeldSubsets:    e.Subsets,
			NewMeld:             e.NewMeld,
			NewMeldTargetLength: e.TargetLength,
		}
	case game.CanDeclareWinEvent:
		mt, data = MessageTypeCanDeclareWin, CanDeclareWinData{CanDeclareWin: e.CanDeclareWin}
	case game.CanDeclareKongEvent:
		mt, data = MessageTypeCanDeclareKong, CanDeclareKongData{CanDeclareKong: e.CanDeclareKong}
	case game.ConcealedKongsEvent:
		mt, data = MessageTypeConcealedKongs, ConcealedKongsData{ConcealedKongs: e.Kongs}
	case game.ChatMessageEvent:
		mt, data = MessageTypeTextMessage, ChatData{MsgType: e.MsgType, MsgText: e.Text}
	case game.GameEndedEvent:
		mt, data = MessageTypeEndGame, struct{}{}
	default:
		// Claim window open/close are internal watchdog signals
		return
	}

	msg, err := NewMessage(mt, data)
	if err != nil {
		sub.logger.Error("Failed to create message", "type", mt, "error", err)
		return
	}

	if targeted, ok := event.(game.TargetedEvent); ok && targeted.Target() != "" {
		if err := sub.server.SendToPlayer(targeted.Target(), msg); err != nil {
			// AI seats and disconnected players have no connection
			sub.logger.Debug("Targeted send skipped", "type", mt, "uuid", targeted.Target(), "error", err)
		}
		return
	}

	sub.server.BroadcastToRoom(sub.roomID, msg)
}
