package tui

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/lox/mahjongparlor/internal/client"
	"github.com/lox/mahjongparlor/internal/game"
	"github.com/lox/mahjongparlor/internal/server"
	"github.com/lox/mahjongparlor/internal/tile"
)

// ServerMsg wraps an incoming server message as a Bubble Tea message
type ServerMsg struct {
	Msg *server.Message
}

// Model is the Bubble Tea model for the mahjong table. All game state is
// event-driven from the server; the model never computes rules locally.
type Model struct {
	client *client.Client
	logger *log.Logger

	// UI components
	logViewport viewport.Model
	actionInput textinput.Model

	// Session
	username   string
	playerUUID string
	roomID     string

	// Table state, mirrored from server events
	hand           []tile.Tile
	state          game.PlayerState
	discard        *tile.Tile
	opponents      []game.Opponent
	revealedMelds  []game.Meld
	concealedKongs []game.Meld
	newMeld        []tile.Tile
	meldSubsets    []game.Meld
	meldTargetLen  int
	canWin         bool
	canKong        bool
	claimDeadline  time.Time
	gameOver       bool

	gameLog  []string
	width    int
	height   int
	quitting bool
}

// NewModel creates a TUI model bound to a connected client
func NewModel(c *client.Client, username, playerUUID string, logger *log.Logger) *Model {
	vp := viewport.New(10, 5)
	vp.SetContent("")

	ti := textinput.New()
	ti.Placeholder = "draw | discard <n> | claim pung | pass | win | say <msg> | help"
	ti.Focus()
	ti.CharLimit = 200
	ti.Width = 80
	ti.PromptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575")).Bold(true)
	ti.Prompt = "> "

	return &Model{
		client:      c,
		logger:      logger.WithPrefix("tui"),
		logViewport: vp,
		actionInput: ti,
		username:    username,
		playerUUID:  playerUUID,
		state:       game.NoAction,
	}
}

// Bind registers client handlers that forward every server message into
// the Bubble Tea program
func Bind(c *client.Client, p *tea.Program) {
	forward := func(msg *server.Message) { p.Send(ServerMsg{Msg: msg}) }
	for _, mt := range []server.MessageType{
		server.MessageTypeUpdateTiles,
		server.MessageTypeExtendTiles,
		server.MessageTypeUpdateCurrentState,
		server.MessageTypeUpdateDiscardedTile,
		server.MessageTypeUpdateOpponents,
		server.MessageTypeUpdateRoomID,
		server.MessageTypeUpdatePlayer,
		server.MessageTypeClaimWithTimer,
		server.MessageTypeMeldSubsets,
		server.MessageTypeCanDeclareWin,
		server.MessageTypeCanDeclareKong,
		server.MessageTypeConcealedKongs,
		server.MessageTypeTextMessage,
		server.MessageTypeEndGame,
		server.MessageTypeRejoinSnapshot,
	} {
		c.On(mt, forward)
	}
}

// Init initializes the TUI model
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles Bubble Tea messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.logViewport.Width = msg.Width - 4
		m.logViewport.Height = max(5, msg.Height-14)
		m.actionInput.Width = msg.Width - 6
		m.refreshLog()
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.quitting = true
			return m, tea.Quit
		case tea.KeyEnter:
			command := strings.TrimSpace(m.actionInput.Value())
			m.actionInput.SetValue("")
			if command != "" {
				return m, m.runCommand(command)
			}
			return m, nil
		}

	case ServerMsg:
		m.applyServerMessage(msg.Msg)
		if m.quitting {
			return m, tea.Quit
		}
		return m, nil
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.actionInput, cmd = m.actionInput.Update(msg)
	cmds = append(cmds, cmd)
	m.logViewport, cmd = m.logViewport.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

// applyServerMessage folds one server event into the display state
func (m *Model) applyServerMessage(msg *server.Message) {
	switch msg.Type {
	case server.MessageTypeUpdateTiles:
		var data server.UpdateTilesData
		if m.decode(msg, &data) {
			m.hand = data.Tiles
		}

	case server.MessageTypeExtendTiles:
		var data server.ExtendTilesData
		if m.decode(msg, &data) {
			m.hand = append(m.hand, data.Tile)
			tile.Sort(m.hand)
			m.appendLog(SuccessStyle.Render(fmt.Sprintf("Drew %s", data.Tile)))
		}

	case server.MessageTypeUpdateCurrentState:
		var data server.UpdateCurrentStateData
		if m.decode(msg, &data) {
			m.state = data.State
			m.onStateChange(data.State)
		}

	case server.MessageTypeUpdateDiscardedTile:
		var data server.UpdateDiscardedTileData
		if m.decode(msg, &data) {
			m.discard = data.Tile
			if data.Tile != nil {
				m.appendLog(DiscardStyle.Render(fmt.Sprintf("Discard: %s", *data.Tile)))
			}
		}

	case server.MessageTypeUpdateOpponents:
		var data server.UpdateOpponentsData
		if m.decode(msg, &data) {
			m.opponents = data.Opponents
		}

	case server.MessageTypeUpdateRoomID:
		var data server.UpdateRoomIDData
		if m.decode(msg, &data) {
			m.roomID = data.RoomID
			m.client.SetRoomID(data.RoomID)
			m.appendLog(SuccessStyle.Render(fmt.Sprintf("Joined room %s", data.RoomID)))
		}

	case server.MessageTypeUpdatePlayer:
		var data server.UpdatePlayerData
		if m.decode(msg, &data) {
			if data.Username != "" {
				m.username = data.Username
			}
			if data.RevealedMelds != nil {
				m.revealedMelds = data.RevealedMelds
			}
			m.newMeld = data.NewMeld
		}

	case server.MessageTypeClaimWithTimer:
		var data server.ClaimWithTimerData
		if m.decode(msg, &data) {
			start := time.Now()
			if data.StartTime != nil {
				start = *data.StartTime
			}
			m.claimDeadline = start.Add(time.Duration(data.MsDuration) * time.Millisecond)
			m.appendLog(WarningStyle.Render(fmt.Sprintf(
				"Claim window open for %.1fs: claim chow|pung|kong|win, or pass",
				float64(data.MsDuration)/1000)))
		}

	case server.MessageTypeMeldSubsets:
		var data server.MeldSubsetsData
		if m.decode(msg, &data) {
			m.meldSubsets = data.ValidMeldSubsets
			m.newMeld = data.NewMeld
			m.meldTargetLen = data.NewMeldTargetLength
			for i, subset := range data.ValidMeldSubsets {
				m.appendLog(WarningStyle.Render(fmt.Sprintf("  meld %d: %s", i+1, tilesString(subset))))
			}
			m.appendLog(WarningStyle.Render("Choose with: meld <n>"))
		}

	case server.MessageTypeCanDeclareWin:
		var data server.CanDeclareWinData
		if m.decode(msg, &data) {
			m.canWin = data.CanDeclareWin
			if data.CanDeclareWin {
				m.appendLog(SuccessStyle.Render("You can declare a win!"))
			}
		}

	case server.MessageTypeCanDeclareKong:
		var data server.CanDeclareKongData
		if m.decode(msg, &data) {
			m.canKong = data.CanDeclareKong
			if data.CanDeclareKong {
				m.appendLog(SuccessStyle.Render("You can declare a concealed kong"))
			}
		}

	case server.MessageTypeConcealedKongs:
		var data server.ConcealedKongsData
		if m.decode(msg, &data) {
			m.concealedKongs = data.ConcealedKongs
		}

	case server.MessageTypeTextMessage:
		var data server.ChatData
		if m.decode(msg, &data) {
			if data.MsgType == game.ChatServer {
				m.appendLog(InfoStyle.Render(data.MsgText))
			} else {
				m.appendLog(GameLogStyle.Render(data.MsgText))
			}
		}

	case server.MessageTypeEndGame:
		m.gameOver = true
		m.appendLog(HeaderStyle.Render(" Game over "))

	case server.MessageTypeRejoinSnapshot:
		var data server.RejoinSnapshotData
		if m.decode(msg, &data) && data.RoomID != "" {
			m.roomID = data.RoomID
			m.hand = data.Tiles
			m.state = data.State
			m.discard = data.DiscardedTile
			m.revealedMelds = data.RevealedMelds
			m.concealedKongs = data.ConcealedKongs
			m.newMeld = data.NewMeld
			m.canWin = data.CanDeclareWin
			m.canKong = data.CanDeclareKong
			m.appendLog(SuccessStyle.Render(fmt.Sprintf("Rejoined room %s", data.RoomID)))
		}
	}
	m.refreshLog()
}

// onStateChange reacts to the player's own state transitions
func (m *Model) onStateChange(state game.PlayerState) {
	switch state {
	case game.DrawTile:
		m.appendLog(TurnStyle.Render("Your turn: draw a tile"))
	case game.DiscardTile:
		m.appendLog(TurnStyle.Render("Your turn: discard a tile"))
	case game.DeclareClaim:
		// The client is the authoritative countdown; report its start
		if err := m.client.DeclareClaimStart(time.Now()); err != nil {
			m.logger.Warn("failed to report claim start", "error", err)
		}
	case game.Win:
		m.appendLog(SuccessStyle.Render("You win!"))
	case game.Loss:
		m.appendLog(ErrorStyle.Render("You lose."))
	case game.Draw:
		m.appendLog(WarningStyle.Render("Wall exhausted, the game is a draw."))
	}
}

// runCommand parses and executes a user command
func (m *Model) runCommand(command string) tea.Cmd {
	fields := strings.Fields(command)
	verb := strings.ToLower(fields[0])
	args := fields[1:]

	var err error
	switch verb {
	case "start":
		err = m.client.StartGame()
	case "draw":
		err = m.client.DrawTile()
	case "discard", "d":
		err = m.discardCommand(args)
	case "claim":
		err = m.claimCommand(args)
	case "pass":
		err = m.client.SubmitClaim(nil)
	case "meld":
		err = m.meldCommand(args)
	case "kong":
		err = m.client.DeclareKong()
	case "win":
		err = m.client.DeclareWin()
	case "say":
		err = m.client.Chat(strings.Join(args, " "))
	case "leave":
		err = m.client.Leave()
		m.resetTable()
	case "help":
		m.appendLog(InfoStyle.Render("Commands: start, draw, discard <n>, claim chow|pung|kong|win, pass, meld <n>, kong, win, say <msg>, leave, quit"))
	case "quit", "exit":
		m.quitting = true
		return tea.Quit
	default:
		m.appendLog(ErrorStyle.Render(fmt.Sprintf("Unknown command: %s (try help)", verb)))
	}

	if err != nil {
		m.appendLog(ErrorStyle.Render(fmt.Sprintf("Error: %v", err)))
	}
	m.refreshLog()
	return nil
}

func (m *Model) discardCommand(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: discard <tile number>")
	}
	idx, err := strconv.Atoi(args[0])
	if err != nil || idx < 1 || idx > len(m.hand) {
		return fmt.Errorf("tile number must be 1-%d", len(m.hand))
	}
	return m.client.EndTurn(m.hand[idx-1])
}

func (m *Model) claimCommand(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: claim chow|pung|kong|win")
	}
	meldType, err := game.ParseMeldType(strings.ToUpper(args[0]))
	if err != nil {
		return err
	}
	return m.client.SubmitClaim(&meldType)
}

func (m *Model) meldCommand(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: meld <option number>")
	}
	idx, err := strconv.Atoi(args[0])
	if err != nil || idx < 1 || idx > len(m.meldSubsets) {
		return fmt.Errorf("option must be 1-%d", len(m.meldSubsets))
	}
	tiles := make([]tile.Tile, 0, len(m.newMeld)+len(m.meldSubsets[idx-1]))
	tiles = append(tiles, m.newMeld...)
	tiles = append(tiles, m.meldSubsets[idx-1]...)
	m.meldSubsets = nil
	return m.client.CompleteMeld(tiles)
}

func (m *Model) resetTable() {
	m.roomID = ""
	m.hand = nil
	m.state = game.NoAction
	m.discard = nil
	m.opponents = nil
	m.revealedMelds = nil
	m.concealedKongs = nil
	m.newMeld = nil
	m.meldSubsets = nil
	m.canWin = false
	m.canKong = false
	m.gameOver = false
}

// View renders the table
func (m *Model) View() string {
	if m.quitting {
		return "Goodbye!\n"
	}

	var b strings.Builder

	title := fmt.Sprintf(" Mahjong Parlor - %s ", m.username)
	if m.roomID != "" {
		title = fmt.Sprintf(" Mahjong Parlor - %s - room %s ", m.username, m.roomID)
	}
	b.WriteString(HeaderStyle.Render(title))
	b.WriteString("\n\n")

	for _, opp := range m.opponents {
		marker := "  "
		if opp.IsCurrentTurn {
			marker = TurnStyle.Render("▶ ")
		}
		line := fmt.Sprintf("%s%s: %d tiles", marker, opp.Name, opp.TileCount)
		if len(opp.RevealedMelds) > 0 {
			melds := make([]string, len(opp.RevealedMelds))
			for i, meld := range opp.RevealedMelds {
				melds[i] = tilesString(meld)
			}
			line += "  melds: " + strings.Join(melds, " | ")
		}
		if len(opp.ConcealedKongs) > 0 {
			line += fmt.Sprintf("  kongs: %d", len(opp.ConcealedKongs))
		}
		b.WriteString(OpponentStyle.Render(line))
		b.WriteString("\n")
	}

	if m.discard != nil {
		b.WriteString(DiscardStyle.Render(fmt.Sprintf("  table discard: %s", *m.discard)))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	b.WriteString(HandStyle.Render("Hand: " + handString(m.hand)))
	b.WriteString("\n")
	if len(m.revealedMelds) > 0 {
		melds := make([]string, len(m.revealedMelds))
		for i, meld := range m.revealedMelds {
			melds[i] = tilesString(meld)
		}
		b.WriteString(HandStyle.Render("Revealed: " + strings.Join(melds, " | ")))
		b.WriteString("\n")
	}
	if len(m.concealedKongs) > 0 {
		melds := make([]string, len(m.concealedKongs))
		for i, meld := range m.concealedKongs {
			melds[i] = tilesString(meld)
		}
		b.WriteString(HandStyle.Render("Kongs: " + strings.Join(melds, " | ")))
		b.WriteString("\n")
	}

	b.WriteString(InfoStyle.Render(fmt.Sprintf("State: %s", m.state)))
	b.WriteString("\n\n")

	b.WriteString(m.logViewport.View())
	b.WriteString("\n")
	b.WriteString(m.actionInput.View())
	b.WriteString("\n")

	return b.String()
}

func (m *Model) appendLog(line string) {
	m.gameLog = append(m.gameLog, line)
	if len(m.gameLog) > 500 {
		m.gameLog = m.gameLog[len(m.gameLog)-500:]
	}
}

func (m *Model) refreshLog() {
	m.logViewport.SetContent(strings.Join(m.gameLog, "\n"))
	m.logViewport.GotoBottom()
}

func (m *Model) decode(msg *server.Message, out interface{}) bool {
	if err := json.Unmarshal(msg.Data, out); err != nil {
		m.logger.Warn("failed to decode message", "type", msg.Type, "error", err)
		return false
	}
	return true
}

// handString renders the hand with 1-based indexes for discard commands
func handString(hand []tile.Tile) string {
	if len(hand) == 0 {
		return "(empty)"
	}
	parts := make([]string, len(hand))
	for i, t := range hand {
		parts[i] = fmt.Sprintf("%d:%s", i+1, t)
	}
	return strings.Join(parts, "  ")
}

func tilesString(tiles []tile.Tile) string {
	parts := make([]string, len(tiles))
	for i, t := range tiles {
		parts[i] = t.String()
	}
	return strings.Join(parts, " ")
}
