package server

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/mahjongparlor/internal/game"
	"github.com/lox/mahjongparlor/internal/tile"
)

func TestNewMessageWrapsPayload(t *testing.T) {
	msg, err := NewMessage(MessageTypeReady, ReadyData{PlayerUUID: "abc"})
	require.NoError(t, err)

	assert.Equal(t, MessageTypeReady, msg.Type)
	assert.False(t, msg.Timestamp.IsZero())

	var data ReadyData
	require.NoError(t, json.Unmarshal(msg.Data, &data))
	assert.Equal(t, "abc", data.PlayerUUID)
}

func TestEndTurnDataWireFormat(t *testing.T) {
	discard := tile.New(tile.Bamboo, 5)
	raw, err := json.Marshal(EndTurnData{DiscardedTile: &discard})
	require.NoError(t, err)
	assert.JSONEq(t, `{"discarded_tile":{"suit":"bamboo","kind":5}}`, string(raw))

	var decoded EndTurnData
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.NotNil(t, decoded.DiscardedTile)
	assert.Equal(t, discard, *decoded.DiscardedTile)
}

func TestHonorTileWireFormat(t *testing.T) {
	east := tile.New(tile.Wind, tile.East)
	raw, err := json.Marshal(east)
	require.NoError(t, err)
	assert.JSONEq(t, `{"suit":"wind","kind":1}`, string(raw))
}

func TestUpdateClaimStateDataPassIsNull(t *testing.T) {
	raw, err := json.Marshal(UpdateClaimStateData{DeclaredMeld: nil})
	require.NoError(t, err)
	assert.JSONEq(t, `{"declared_meld":null}`, string(raw))

	var decoded UpdateClaimStateData
	require.NoError(t, json.Unmarshal([]byte(`{"declared_meld":"PUNG"}`), &decoded))
	require.NotNil(t, decoded.DeclaredMeld)
	assert.Equal(t, game.MeldPung, *decoded.DeclaredMeld)

	// a null meld decodes back to a pass
	var pass UpdateClaimStateData
	require.NoError(t, json.Unmarshal([]byte(`{"declared_meld":null}`), &pass))
	assert.Nil(t, pass.DeclaredMeld)
}

func TestUpdateClaimStateDataRejectsUnknownMeld(t *testing.T) {
	var decoded UpdateClaimStateData
	err := json.Unmarshal([]byte(`{"declared_meld":"SPLIT"}`), &decoded)
	assert.Error(t, err)
}

func TestPlayerStateWireNames(t *testing.T) {
	raw, err := json.Marshal(UpdateCurrentStateData{State: game.DeclareClaim})
	require.NoError(t, err)
	assert.JSONEq(t, `{"currentState":"DECLARE_CLAIM"}`, string(raw))

	var decoded UpdateCurrentStateData
	require.NoError(t, json.Unmarshal([]byte(`{"currentState":"DISCARD_TILE"}`), &decoded))
	assert.Equal(t, game.DiscardTile, decoded.State)
}

func TestDeclareClaimStartDataRoundTrip(t *testing.T) {
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	raw, err := json.Marshal(DeclareClaimStartData{StartTime: &start})
	require.NoError(t, err)

	var decoded DeclareClaimStartData
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.NotNil(t, decoded.StartTime)
	assert.True(t, decoded.StartTime.Equal(start))
}

func TestRejoinSnapshotDataEmbedsSnapshot(t *testing.T) {
	data := RejoinSnapshotData{Snapshot: game.Snapshot{
		RoomID:     "ROOMAAAA",
		Username:   "Alice",
		State:      game.DrawTile,
		InProgress: true,
	}}
	raw, err := json.Marshal(data)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "ROOMAAAA", decoded["roomId"])
	assert.Equal(t, "Alice", decoded["username"])
	assert.Equal(t, "DRAW_TILE", decoded["currentState"])
	assert.Equal(t, true, decoded["inProgress"])
}

func TestUpdatePlayerDataOmitsEmptyFields(t *testing.T) {
	raw, err := json.Marshal(UpdatePlayerData{Username: "Alice"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"username":"Alice"}`, string(raw))
}
