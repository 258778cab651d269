package server

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
)

// Connection represents a WebSocket connection to a client
type Connection struct {
	conn        *websocket.Conn
	send        chan *Message
	playerUUID  string
	roomID      string
	logger      *log.Logger
	ctx         context.Context
	cancel      context.CancelFunc
	mu          sync.RWMutex
	closeOnce   sync.Once
	roomService *RoomService
}

// NewConnection creates a new connection wrapper
func NewConnection(conn *websocket.Conn, logger *log.Logger, roomService *RoomService) *Connection {
	ctx, cancel := context.WithCancel(context.Background())

	return &Connection{
		conn:        conn,
		send:        make(chan *Message, 256),
		logger:      logger.WithPrefix("conn"),
		ctx:         ctx,
		cancel:      cancel,
		roomService: roomService,
	}
}

// Start begins handling the connection
func (c *Connection) Start() {
	go c.writePump()
	go c.readPump()
}

// Close closes the connection
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		close(c.send)
		err = c.conn.Close()
	})
	return err
}

// SendMessage sends a message to the client
func (c *Connection) SendMessage(msg *Message) error {
	defer func() {
		if r := recover(); r != nil {
			// Channel was closed, this is expected during shutdown
			c.logger.Debug("Attempted to send message on closed connection", "error", r)
		}
	}()

	select {
	case c.send <- msg:
		return nil
	case <-c.ctx.Done():
		return c.ctx.Err()
	default:
		c.logger.Warn("Connection send buffer full, closing connection")
		_ = c.Close() // Ignore close errors
		return ErrConnectionClosed
	}
}

// SetPlayer associates this connection with a player uuid
func (c *Connection) SetPlayer(uuid string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.playerUUID = uuid
}

// GetPlayer returns the associated player uuid
func (c *Connection) GetPlayer() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.playerUUID
}

// SetRoom associates this connection with a room
func (c *Connection) SetRoom(roomID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.roomID = roomID
}

// GetRoom returns the associated room ID
func (c *Connection) GetRoom() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.roomID
}

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 8192
)

var (
	ErrConnectionClosed = websocket.ErrCloseSent
)

// readPump handles incoming messages from the client
func (c *Connection) readPump() {
	defer func() { _ = c.Close() }() // Ignore close errors during cleanup

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		var msg Message
		err := c.conn.ReadJSON(&msg)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket error", "error", err)
			}
			break
		}

		c.handleMessage(&msg)
	}
}

// writePump handles outgoing messages to the client
func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close() // Ignore close errors during cleanup
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteJSON(message); err != nil {
				c.logger.Error("Failed to write message", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.ctx.Done():
			return
		}
	}
}

// handleMessage processes incoming messages from the client. The policy
// is drop-and-log: malformed payloads and illegal operations are logged
// and discarded with no reply, and the client recovers state through
// rejoin_game or reemit_events.
func (c *Connection) handleMessage(msg *Message) {
	c.logger.Debug("Received message", "type", msg.Type, "player", c.GetPlayer())

	if c.roomService == nil {
		c.logger.Warn("Room service not available, dropping message", "type", msg.Type)
		return
	}

	switch msg.Type {
	case MessageTypeReady:
		var data ReadyData
		if !c.decode(msg, &data) {
			return
		}
		if data.PlayerUUID == "" {
			c.drop(msg, "missing player_uuid")
			return
		}
		c.roomService.Ready(c, data.PlayerUUID)

	case MessageTypeRejoinGame:
		var data RejoinGameData
		if !c.decode(msg, &data) {
			return
		}
		if data.PlayerUUID == "" {
			c.drop(msg, "missing player_uuid")
			return
		}
		c.roomService.RejoinGame(c, data.PlayerUUID)

	case MessageTypeReemitEvents:
		c.roomService.ReemitEvents(c)

	case MessageTypeEnterGame:
		var data EnterGameData
		if !c.decode(msg, &data) {
			return
		}
		if data.Username == "" || data.PlayerUUID == "" {
			c.drop(msg, "missing username or player_uuid")
			return
		}
		c.roomService.EnterGame(c, data)

	case MessageTypeStartGame:
		c.roomService.StartGame(c)

	case MessageTypeDrawTile:
		c.roomService.DrawTile(c)

	case MessageTypeEndTurn:
		var data EndTurnData
		if !c.decode(msg, &data) {
			return
		}
		if data.DiscardedTile == nil {
			c.drop(msg, "missing discarded_tile")
			return
		}
		c.roomService.EndTurn(c, *data.DiscardedTile)

	case MessageTypeDeclareClaimStart:
		var data DeclareClaimStartData
		if !c.decode(msg, &data) {
			return
		}
		if data.StartTime == nil {
			c.drop(msg, "missing declareClaimStartTime")
			return
		}
		c.roomService.DeclareClaimStart(c, *data.StartTime)

	case MessageTypeUpdateClaimState:
		var data UpdateClaimStateData
		if !c.decode(msg, &data) {
			return
		}
		// A nil declared_meld is a pass, so no field check here
		c.roomService.UpdateClaimState(c, data.DeclaredMeld)

	case MessageTypeCompleteNewMeld:
		var data CompleteNewMeldData
		if !c.decode(msg, &data) {
			return
		}
		if len(data.NewMeld) == 0 {
			c.drop(msg, "missing new_meld")
			return
		}
		c.roomService.CompleteNewMeld(c, data.NewMeld)

	case MessageTypeDeclareConcealedKong:
		c.roomService.DeclareConcealedKong(c)

	case MessageTypeDeclareWin:
		c.roomService.DeclareWin(c)

	case MessageTypeTextMessage:
		var data TextMessageData
		if !c.decode(msg, &data) {
			return
		}
		if data.Message == "" {
			c.drop(msg, "missing message")
			return
		}
		c.roomService.TextMessage(c, data.Message)

	case MessageTypeLeaveGame:
		c.roomService.LeaveGame(c)

	default:
		c.logger.Warn("Unknown message type, dropping", "type", msg.Type, "player", c.GetPlayer())
	}
}

// decode unmarshals the message payload, logging and dropping on failure
func (c *Connection) decode(msg *Message, out interface{}) bool {
	if err := json.Unmarshal(msg.Data, out); err != nil {
		c.logger.Warn("Malformed payload, dropping", "type", msg.Type, "player", c.GetPlayer(), "error", err)
		return false
	}
	return true
}

// drop logs a rejected message
func (c *Connection) drop(msg *Message, reason string) {
	c.logger.Warn("Invalid payload, dropping", "type", msg.Type, "player", c.GetPlayer(), "reason", reason)
}
