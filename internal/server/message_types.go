package server

// MessageType represents a WebSocket message type with type safety
type MessageType string

// WebSocket message type constants
// These are used for client-server communication protocol
const (
	// Client to server messages
	MessageTypeReady               MessageType = "ready"
	MessageTypeRejoinGame          MessageType = "rejoin_game"
	MessageTypeReemitEvents        MessageType = "reemit_events"
	MessageTypeEnterGame           MessageType = "enter_game"
	MessageTypeStartGame           MessageType = "start_game"
	MessageTypeDrawTile            MessageType = "draw_tile"
	MessageTypeEndTurn             MessageType = "end_turn"
	MessageTypeDeclareClaimStart   MessageType = "declare_claim_start"
	MessageTypeUpdateClaimState    MessageType = "update_claim_state"
	MessageTypeCompleteNewMeld     MessageType = "complete_new_meld"
	MessageTypeDeclareConcealedKong MessageType = "declare_concealed_kong"
	MessageTypeDeclareWin          MessageType = "declare_win"
	MessageTypeLeaveGame           MessageType = "leave_game"

	// Bidirectional messages
	MessageTypeTextMessage MessageType = "text_message"

	// Server to client messages
	MessageTypeUpdateTiles         MessageType = "update_tiles"
	MessageTypeExtendTiles         MessageType = "extend_tiles"
	MessageTypeUpdateCurrentState  MessageType = "update_current_state"
	MessageTypeUpdateDiscardedTile MessageType = "update_discarded_tile"
	MessageTypeUpdateOpponents     MessageType = "update_opponents"
	MessageTypeUpdateRoomID        MessageType = "update_room_id"
	MessageTypeUpdatePlayer        MessageType = "update_player"
	MessageTypeClaimWithTimer      MessageType = "declare_claim_with_timer"
	MessageTypeMeldSubsets         MessageType = "valid_tile_sets_for_meld"
	MessageTypeCanDeclareWin       MessageType = "update_can_declare_win"
	MessageTypeCanDeclareKong      MessageType = "update_can_declare_kong"
	MessageTypeConcealedKongs      MessageType = "update_concealed_kongs"
	MessageTypeEndGame             MessageType = "end_game"
	MessageTypeRejoinSnapshot      MessageType = "rejoin_snapshot"
)

// String returns the string representation of the message type
func (mt MessageType) String() string {
	return string(mt)
}
