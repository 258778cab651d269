package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
)

// Server represents the WebSocket server
type Server struct {
	addr        string
	upgrader    websocket.Upgrader
	connections map[*Connection]bool
	register    chan *Connection
	unregister  chan *Connection
	logger      *log.Logger
	mu          sync.RWMutex
	ctx         context.Context
	cancel      context.CancelFunc
	roomService *RoomService
}

// NewServer creates a new WebSocket server
func NewServer(addr string, logger *log.Logger) *Server {
	ctx, cancel := context.WithCancel(context.Background())

	return &Server{
		addr: addr,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// For development, allow all origins
				// In production, implement proper origin checking
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		connections: make(map[*Connection]bool),
		register:    make(chan *Connection),
		unregister:  make(chan *Connection),
		logger:      logger.WithPrefix("server"),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Start starts the WebSocket server
func (s *Server) Start() error {
	go s.run()

	// Create a dedicated mux for this server instance
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)

	s.logger.Info("Starting WebSocket server", "addr", s.addr)
	return http.ListenAndServe(s.addr, mux)
}

// Stop stops the WebSocket server
func (s *Server) Stop() error {
	s.cancel()

	// Close all connections
	s.mu.Lock()
	for conn := range s.connections {
		_ = conn.Close() // Ignore close errors during shutdown
	}
	s.mu.Unlock()

	return nil
}

// run handles connection lifecycle
func (s *Server) run() {
	for {
		select {
		case conn := <-s.register:
			s.mu.Lock()
			s.connections[conn] = true
			total := len(s.connections)
			s.mu.Unlock()
			s.logger.Info("Client connected", "total", total)

		case conn := <-s.unregister:
			s.mu.Lock()
			if _, ok := s.connections[conn]; ok {
				delete(s.connections, conn)
				_ = conn.Close() // Ignore close errors during unregistration
			}
			total := len(s.connections)
			s.mu.Unlock()

			// The seat stays occupied so the player can rejoin; the
			// claim watchdog covers any window they leave hanging.
			if uuid := conn.GetPlayer(); uuid != "" && s.roomService != nil {
				s.roomService.PlayerDisconnected(uuid)
			}
			s.logger.Info("Client disconnected", "total", total)

		case <-s.ctx.Done():
			return
		}
	}
}

// handleWebSocket handles WebSocket upgrade requests
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("Failed to upgrade connection", "error", err)
		return
	}

	client := NewConnection(conn, s.logger, s.roomService)
	s.register <- client
	client.Start()

	// Connection cleanup is handled by the connection itself
	go func() {
		<-client.ctx.Done()
		s.unregister <- client
	}()
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "OK") // Ignore write errors for health check
}

// BroadcastToRoom sends a message to all connections in a room, skipping
// any player uuids listed in skip
func (s *Server) BroadcastToRoom(roomID string, msg *Message, skip ...string) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	skipSet := make(map[string]bool, len(skip))
	for _, uuid := range skip {
		skipSet[uuid] = true
	}

	count := 0
	for conn := range s.connections {
		if conn.GetRoom() != roomID || skipSet[conn.GetPlayer()] {
			continue
		}
		if err := conn.SendMessage(msg); err != nil {
			s.logger.Error("Failed to send message to client", "error", err, "player", conn.GetPlayer())
		} else {
			count++
		}
	}

	s.logger.Debug("Broadcasted message to room", "room", roomID, "type", msg.Type, "recipients", count)
}

// BroadcastToLobby sends a message to every identified connection that is
// not in a room
func (s *Server) BroadcastToLobby(msg *Message) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for conn := range s.connections {
		if conn.GetPlayer() == "" || conn.GetRoom() != "" {
			continue
		}
		if err := conn.SendMessage(msg); err != nil {
			s.logger.Error("Failed to send message to client", "error", err, "player", conn.GetPlayer())
		} else {
			count++
		}
	}

	s.logger.Debug("Broadcasted message to lobby", "type", msg.Type, "recipients", count)
}

// SendToPlayer sends a message to a specific player's connection. AI
// seats have no connection, so an unknown uuid is not an error worth
// surfacing to callers.
func (s *Server) SendToPlayer(uuid string, msg *Message) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for conn := range s.connections {
		if conn.GetPlayer() == uuid {
			return conn.SendMessage(msg)
		}
	}

	return fmt.Errorf("player not connected: %s", uuid)
}

// GetConnectedPlayers returns a list of connected player uuids
func (s *Server) GetConnectedPlayers() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var players []string
	for conn := range s.connections {
		if uuid := conn.GetPlayer(); uuid != "" {
			players = append(players, uuid)
		}
	}

	return players
}

// SetRoomService sets the room service for the server
func (s *Server) SetRoomService(roomService *RoomService) {
	s.roomService = roomService
}
