package server

import (
	"encoding/json"
	"time"

	"github.com/lox/mahjongparlor/internal/game"
	"github.com/lox/mahjongparlor/internal/tile"
)

// Message represents the base WebSocket message structure
type Message struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
	RequestID string          `json:"requestId,omitempty"`
}

// NewMessage creates a new message with the current timestamp
func NewMessage(messageType MessageType, data interface{}) (*Message, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Message{
		Type:      messageType,
		Data:      dataBytes,
		Timestamp: time.Now(),
	}, nil
}

// Client → Server Messages

type ReadyData struct {
	PlayerUUID string `json:"player_uuid"`
}

type RejoinGameData struct {
	PlayerUUID string `json:"player_uuid"`
}

type EnterGameData struct {
	Username         string `json:"username"`
	PlayerUUID       string `json:"player_uuid"`
	RoomID           string `json:"room_id,omitempty"`
	ShouldCreateRoom bool   `json:"should_create_room,omitempty"`
}

type EndTurnData struct {
	DiscardedTile *tile.Tile `json:"discarded_tile"`
}

type DeclareClaimStartData struct {
	StartTime *time.Time `json:"declareClaimStartTime"`
}

type UpdateClaimStateData struct {
	DeclaredMeld *game.MeldType `json:"declared_meld"`
}

type CompleteNewMeldData struct {
	NewMeld []tile.Tile `json:"new_meld"`
}

type TextMessageData struct {
	Message string `json:"message"`
}

// Server → Client Messages

type UpdateTilesData struct {
	Tiles []tile.Tile `json:"tiles"`
}

type ExtendTilesData struct {
	Tile tile.Tile `json:"tile"`
}

type UpdateCurrentStateData struct {
	State game.PlayerState `json:"currentState"`
}

type UpdateDiscardedTileData struct {
	Tile *tile.Tile `json:"discardedTile"`
}

type UpdateOpponentsData struct {
	Opponents []game.Opponent `json:"opponents"`
}

type UpdateRoomIDData struct {
	RoomID string `json:"roomId"`
}

// UpdatePlayerData is a partial patch of the player's own public state
type UpdatePlayerData struct {
	Username      string      `json:"username,omitempty"`
	RevealedMelds []game.Meld `json:"revealedMelds,omitempty"`
	NewMeld       []tile.Tile `json:"newMeld,omitempty"`
}

type ClaimWithTimerData struct {
	StartTime  *time.Time `json:"startTime"`
	MsDuration int        `json:"msDuration"`
}

type MeldSubsetsData struct {
	ValidMeldSubsets    []game.Meld `json:"validMeldSubsets"`
	NewMeld             []tile.Tile `json:"newMeld"`
	NewMeldTargetLength int         `json:"newMeldTargetLength"`
}

type CanDeclareWinData struct {
	CanDeclareWin bool `json:"canDeclareWin"`
}

type CanDeclareKongData struct {
	CanDeclareKong bool `json:"canDeclareKong"`
}

type ConcealedKongsData struct {
	ConcealedKongs []game.Meld `json:"concealedKongs"`
}

type ChatData struct {
	MsgType game.ChatType `json:"msgType"`
	MsgText string        `json:"msgText"`
}

// RejoinSnapshotData carries a player's full view after a reconnect. An
// empty snapshot (no room id) means the player has no active room.
type RejoinSnapshotData struct {
	game.Snapshot
}
