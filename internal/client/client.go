package client

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"github.com/lox/mahjongparlor/internal/game"
	"github.com/lox/mahjongparlor/internal/server" // Reuse message types
	"github.com/lox/mahjongparlor/internal/tile"
)

// Client represents a WebSocket client for the mahjong game
type Client struct {
	serverURL  string
	conn       *websocket.Conn
	send       chan *server.Message
	receive    chan *server.Message
	logger     *log.Logger
	ctx        context.Context
	cancel     context.CancelFunc
	mu         sync.RWMutex
	connected  bool
	playerUUID string
	roomID     string
	closeOnce  sync.Once

	// Event handlers
	eventHandlers map[server.MessageType][]EventHandler
}

// EventHandler is a function that handles incoming events
type EventHandler func(*server.Message)

// NewClient creates a new WebSocket client
func NewClient(serverURL string, logger *log.Logger) *Client {
	ctx, cancel := context.WithCancel(context.Background())

	return &Client{
		serverURL:     serverURL,
		send:          make(chan *server.Message, 256),
		receive:       make(chan *server.Message, 256),
		logger:        logger.WithPrefix("client"),
		ctx:           ctx,
		cancel:        cancel,
		eventHandlers: make(map[server.MessageType][]EventHandler),
	}
}

// Connect establishes a WebSocket connection to the server
func (c *Client) Connect() error {
	c.logger.Info("Connecting to server", "url", c.serverURL)

	u, err := url.Parse(c.serverURL)
	if err != nil {
		return fmt.Errorf("invalid server URL: %w", err)
	}

	// Convert http/https to ws/wss
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}

	// Add WebSocket path
	u.Path = "/ws"

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.mu.Unlock()

	go c.readPump()
	go c.writePump()
	go c.eventProcessor()

	c.logger.Info("Connected to server")
	return nil
}

// Disconnect closes the WebSocket connection
func (c *Client) Disconnect() error {
	c.closeOnce.Do(func() {
		c.cancel()

		c.mu.Lock()
		defer c.mu.Unlock()

		if c.conn != nil {
			_ = c.conn.Close() // Ignore close errors during shutdown
			c.connected = false
		}

		close(c.send)
		close(c.receive)

		c.logger.Info("Disconnected from server")
	})
	return nil
}

// IsConnected returns whether the client is connected
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

// PlayerUUID returns the identity this client presents to the server
func (c *Client) PlayerUUID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.playerUUID
}

// RoomID returns the room the client has joined, if any
func (c *Client) RoomID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.roomID
}

// SetRoomID records the room assignment received from the server
func (c *Client) SetRoomID(roomID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.roomID = roomID
}

// On registers an event handler for a message type
func (c *Client) On(messageType server.MessageType, handler EventHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.eventHandlers[messageType] = append(c.eventHandlers[messageType], handler)
}

// SendMessage sends a message to the server
func (c *Client) SendMessage(msg *server.Message) error {
	select {
	case c.send <- msg:
		return nil
	case <-c.ctx.Done():
		return c.ctx.Err()
	default:
		return fmt.Errorf("send buffer full")
	}
}

// sendTyped marshals and sends a typed payload
func (c *Client) sendTyped(mt server.MessageType, data interface{}) error {
	msg, err := server.NewMessage(mt, data)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", mt, err)
	}
	return c.SendMessage(msg)
}

// Ready identifies the client to the server
func (c *Client) Ready(playerUUID string) error {
	c.mu.Lock()
	c.playerUUID = playerUUID
	c.mu.Unlock()
	return c.sendTyped(server.MessageTypeReady, server.ReadyData{PlayerUUID: playerUUID})
}

// EnterGame joins or creates a room
func (c *Client) EnterGame(username, playerUUID, roomID string, createRoom bool) error {
	c.mu.Lock()
	c.playerUUID = playerUUID
	c.mu.Unlock()
	return c.sendTyped(server.MessageTypeEnterGame, server.EnterGameData{
		Username:         username,
		PlayerUUID:       playerUUID,
		RoomID:           roomID,
		ShouldCreateRoom: createRoom,
	})
}

// StartGame asks the server to begin the game (host only)
func (c *Client) StartGame() error {
	return c.sendTyped(server.MessageTypeStartGame, struct{}{})
}

// DrawTile draws from the wall
func (c *Client) DrawTile() error {
	return c.sendTyped(server.MessageTypeDrawTile, struct{}{})
}

// EndTurn discards a tile
func (c *Client) EndTurn(discard tile.Tile) error {
	return c.sendTyped(server.MessageTypeEndTurn, server.EndTurnData{DiscardedTile: &discard})
}

// DeclareClaimStart reports when the local claim countdown began
func (c *Client) DeclareClaimStart(startTime time.Time) error {
	return c.sendTyped(server.MessageTypeDeclareClaimStart, server.DeclareClaimStartData{StartTime: &startTime})
}

// SubmitClaim declares a meld against the current discard; nil passes
func (c *Client) SubmitClaim(declared *game.MeldType) error {
	return c.sendTyped(server.MessageTypeUpdateClaimState, server.UpdateClaimStateData{DeclaredMeld: declared})
}

// CompleteMeld finalizes a claimed meld with the chosen tiles
func (c *Client) CompleteMeld(meldTiles []tile.Tile) error {
	return c.sendTyped(server.MessageTypeCompleteNewMeld, server.CompleteNewMeldData{NewMeld: meldTiles})
}

// DeclareKong reveals an in-hand four of a kind
func (c *Client) DeclareKong() error {
	return c.sendTyped(server.MessageTypeDeclareConcealedKong, struct{}{})
}

// DeclareWin asks the server to verify the hand
func (c *Client) DeclareWin() error {
	return c.sendTyped(server.MessageTypeDeclareWin, struct{}{})
}

// Chat sends a chat line to the room or lobby
func (c *Client) Chat(text string) error {
	return c.sendTyped(server.MessageTypeTextMessage, server.TextMessageData{Message: text})
}

// Leave exits the current room
func (c *Client) Leave() error {
	return c.sendTyped(server.MessageTypeLeaveGame, struct{}{})
}

// Rejoin requests a snapshot of the client's active room
func (c *Client) Rejoin(playerUUID string) error {
	c.mu.Lock()
	c.playerUUID = playerUUID
	c.mu.Unlock()
	return c.sendTyped(server.MessageTypeRejoinGame, server.RejoinGameData{PlayerUUID: playerUUID})
}

// Reemit asks the server to re-send transient events
func (c *Client) Reemit() error {
	return c.sendTyped(server.MessageTypeReemitEvents, struct{}{})
}

// readPump handles incoming messages from the server
func (c *Client) readPump() {
	defer func() {
		c.mu.Lock()
		c.connected = false
		c.mu.Unlock()
	}()

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		var msg server.Message
		err := c.conn.ReadJSON(&msg)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket error", "error", err)
			}
			c.cancel()
			return
		}

		select {
		case c.receive <- &msg:
		case <-c.ctx.Done():
			return
		}
	}
}

// writePump handles outgoing messages to the server
func (c *Client) writePump() {
	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				c.logger.Error("Failed to write message", "error", err)
				c.cancel()
				return
			}

		case <-c.ctx.Done():
			return
		}
	}
}

// eventProcessor dispatches received messages to registered handlers
func (c *Client) eventProcessor() {
	for {
		select {
		case msg, ok := <-c.receive:
			if !ok {
				return
			}
			c.dispatch(msg)

		case <-c.ctx.Done():
			return
		}
	}
}

func (c *Client) dispatch(msg *server.Message) {
	c.mu.RLock()
	handlers := append([]EventHandler(nil), c.eventHandlers[msg.Type]...)
	c.mu.RUnlock()

	if len(handlers) == 0 {
		c.logger.Debug("No handler for message", "type", msg.Type)
		return
	}
	for _, handler := range handlers {
		handler(msg)
	}
}

// Done returns a channel closed when the connection shuts down
func (c *Client) Done() <-chan struct{} {
	return c.ctx.Done()
}
