package game

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/lox/mahjongparlor/internal/tile"
)

// Engine operation errors. Handlers log these and drop the request; no
// error frames go back to clients.
var (
	ErrRoomFull       = errors.New("room is full")
	ErrRoomNotFull    = errors.New("room is not full")
	ErrGameInProgress = errors.New("game already in progress")
	ErrGameNotStarted = errors.New("game not in progress")
	ErrNotHost        = errors.New("only the host can start the game")
	ErrUnknownPlayer  = errors.New("player not in room")
	ErrWrongState     = errors.New("action not allowed in current state")
	ErrTileNotInHand  = errors.New("tile not in hand")
	ErrDuplicateClaim = errors.New("claim already submitted")
	ErrInvalidMeld    = errors.New("meld does not match a valid subset")
	ErrNotWinning     = errors.New("hand is not a winning hand")
	ErrNoKong         = errors.New("no four of a kind in hand")
	ErrWallExhausted  = errors.New("wall is exhausted")
)

// RoomConfig controls per-room game behavior
type RoomConfig struct {
	MaxSeats       int
	ClaimTimeoutMS int
	IncludeBonus   bool
}

// DefaultRoomConfig returns the standard four-player configuration
func DefaultRoomConfig() RoomConfig {
	return RoomConfig{
		MaxSeats:       4,
		ClaimTimeoutMS: 5000,
		IncludeBonus:   false,
	}
}

// Opponent is one player's view of another seat
type Opponent struct {
	Name           string `json:"name"`
	RevealedMelds  []Meld `json:"revealedMelds"`
	TileCount      int    `json:"tileCount"`
	ConcealedKongs []Meld `json:"concealedKongs"`
	IsCurrentTurn  bool   `json:"isCurrentTurn"`
}

// Snapshot is the full view of a player plus room context, returned on
// rejoin and consumed by the in-process AI seats.
type Snapshot struct {
	RoomID         string      `json:"roomId"`
	Username       string      `json:"username"`
	Tiles          []tile.Tile `json:"tiles"`
	State          PlayerState `json:"currentState"`
	DiscardedTile  *tile.Tile  `json:"discardedTile"`
	PastDiscards   []tile.Tile `json:"pastDiscards"`
	RevealedMelds  []Meld      `json:"revealedMelds"`
	ConcealedKongs []Meld      `json:"concealedKongs"`
	NewMeld        []tile.Tile `json:"newMeld"`
	CanDeclareWin  bool        `json:"canDeclareWin"`
	CanDeclareKong bool        `json:"canDeclareKong"`
	InProgress     bool        `json:"inProgress"`
}

// Room holds the authoritative state of one game. Every operation takes
// the room mutex, mutates state, and publishes the resulting events on
// the bus before returning, so clients observe a total order per room.
type Room struct {
	ID string

	mu             sync.Mutex
	cfg            RoomConfig
	logger         *log.Logger
	bus            EventBus
	wall           *tile.Wall
	seats          []string
	players        map[string]*Player
	currentSeat    int
	currentDiscard *tile.Tile
	pastDiscards   []tile.Tile
	messages       []string
	claimed        map[string]bool
	claimGen       int
	humanCount     int
	inProgress     bool
	finished       bool
}

// NewRoom creates an empty room with the given id
func NewRoom(id string, cfg RoomConfig, logger *log.Logger) *Room {
	return &Room{
		ID:      id,
		cfg:     cfg,
		logger:  logger.With("room", id),
		bus:     NewEventBus(),
		players: make(map[string]*Player),
		claimed: make(map[string]bool),
	}
}

// Subscribe attaches a subscriber to the room's event bus
func (r *Room) Subscribe(sub EventSubscriber) {
	r.bus.Subscribe(sub)
}

// Unsubscribe detaches a subscriber from the room's event bus
func (r *Room) Unsubscribe(sub EventSubscriber) {
	r.bus.Unsubscribe(sub)
}

// AddPlayer seats a player. Re-adding a seated uuid reclaims the seat
// when the player left mid-game and is otherwise a no-op, so rejoins are
// idempotent. The first seat becomes host.
func (r *Room) AddPlayer(uuid, username string, isAI bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.players[uuid]; ok {
		if p.Departed {
			p.Departed = false
			if !p.IsAI {
				r.humanCount++
			}
			r.logger.Info("player returned", "player", p.Username, "uuid", uuid, "humans", r.humanCount)
			r.emitOpponentsLocked()
			r.announceLocked(fmt.Sprintf("%s returned to the game", p.Username))
		}
		return nil
	}
	if len(r.seats) >= r.cfg.MaxSeats {
		return ErrRoomFull
	}
	if r.inProgress || r.finished {
		return ErrGameInProgress
	}

	p := NewPlayer(uuid, username, isAI)
	p.IsHost = len(r.seats) == 0
	r.seats = append(r.seats, uuid)
	r.players[uuid] = p
	if !isAI {
		r.humanCount++
	}

	r.logger.Info("player joined", "player", username, "uuid", uuid, "ai", isAI, "seats", len(r.seats))
	r.emitOpponentsLocked()
	r.announceLocked(fmt.Sprintf("%s joined the game", username))
	return nil
}

// RemovePlayer takes a player out of the room. In the lobby the seat is
// freed and the host role moves to the next human seat; once a game is
// running the seat stays so turn order arithmetic holds, and the claim
// watchdog covers any window the departed player leaves open.
func (r *Room) RemovePlayer(uuid string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.players[uuid]
	if !ok {
		return ErrUnknownPlayer
	}
	if !p.IsAI {
		r.humanCount--
	}

	if !r.inProgress {
		delete(r.players, uuid)
		for i, id := range r.seats {
			if id == uuid {
				r.seats = append(r.seats[:i], r.seats[i+1:]...)
				break
			}
		}
		if p.IsHost {
			for _, id := range r.seats {
				if next := r.players[id]; !next.IsAI {
					next.IsHost = true
					break
				}
			}
		}
	} else {
		p.Departed = true
	}

	r.logger.Info("player left", "player", p.Username, "uuid", uuid, "humans", r.humanCount)
	r.emitOpponentsLocked()
	r.announceLocked(fmt.Sprintf("%s left the game", p.Username))
	return nil
}

// StartGame builds and shuffles the wall, deals 14 tiles to the dealer
// and 13 to everyone else, and opens the dealer's discard turn. Only the
// host may start, and only with a full room.
func (r *Room) StartGame(callerUUID string, rng *rand.Rand) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	caller, ok := r.players[callerUUID]
	if !ok {
		return ErrUnknownPlayer
	}
	if !caller.IsHost {
		return ErrNotHost
	}
	if r.inProgress || r.finished {
		return ErrGameInProgress
	}
	if len(r.seats) != r.cfg.MaxSeats {
		return ErrRoomNotFull
	}

	r.wall = tile.NewWall(rng, r.cfg.IncludeBonus)
	r.currentSeat = 0
	r.currentDiscard = nil
	r.pastDiscards = nil
	r.claimed = make(map[string]bool)
	r.claimGen = 0
	r.inProgress = true

	for i, uuid := range r.seats {
		p := r.players[uuid]
		count := 13
		if i == 0 {
			count = 14
		}
		p.AddToHand(r.wall.DrawN(count)...)
		r.bus.Publish(NewTilesUpdatedEvent(uuid, p.Hand))
	}

	dealer := r.players[r.seats[0]]
	dealer.State = DiscardTile
	for _, uuid := range r.seats[1:] {
		r.players[uuid].State = NoAction
	}

	r.logger.Info("game started", "dealer", dealer.Username, "wall", r.wall.Remaining(), "bonus", r.cfg.IncludeBonus)
	r.emitOpponentsLocked()
	for _, uuid := range r.seats {
		r.bus.Publish(NewStateChangedEvent(uuid, r.players[uuid].State))
	}
	r.refreshTurnFlagsLocked(dealer)
	r.announceLocked("The game has started")
	return nil
}

// DrawTile pops the wall tail into the player's hand. An exhausted wall
// ends the game in a draw.
func (r *Room) DrawTile(uuid string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.inProgress {
		return ErrGameNotStarted
	}
	p, ok := r.players[uuid]
	if !ok {
		return ErrUnknownPlayer
	}
	if p.State != DrawTile {
		return fmt.Errorf("%w: draw_tile in %s", ErrWrongState, p.State)
	}

	drawn, ok := r.wall.Draw()
	if !ok {
		r.logger.Warn("wall exhausted on draw", "player", p.Username)
		r.drawGameLocked()
		return nil
	}
	p.AddToHand(drawn)
	p.State = DiscardTile

	r.logger.Debug("tile drawn", "player", p.Username, "tile", drawn, "wall", r.wall.Remaining())
	r.bus.Publish(NewTilesExtendedEvent(uuid, drawn))
	r.bus.Publish(NewStateChangedEvent(uuid, p.State))
	r.refreshTurnFlagsLocked(p)
	return nil
}

// EndTurn discards a tile from the current player's hand and opens the
// claim window: every other seat enters DECLARE_CLAIM and is told to run
// a countdown.
func (r *Room) EndTurn(uuid string, discard tile.Tile) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.inProgress {
		return ErrGameNotStarted
	}
	p, ok := r.players[uuid]
	if !ok {
		return ErrUnknownPlayer
	}
	if p.State != DiscardTile {
		return fmt.Errorf("%w: end_turn in %s", ErrWrongState, p.State)
	}
	if !p.RemoveFromHand(discard) {
		return fmt.Errorf("%w: %s", ErrTileNotInHand, discard)
	}

	r.currentDiscard = &discard
	p.State = NoAction
	p.CanDeclareWin = false
	p.CanDeclareKong = false
	r.claimGen++
	r.claimed = make(map[string]bool)

	r.logger.Info("tile discarded", "player", p.Username, "tile", discard)
	r.bus.Publish(NewDiscardChangedEvent("", r.currentDiscard))
	r.emitOpponentsLocked()
	r.bus.Publish(NewStateChangedEvent(uuid, p.State))
	for _, id := range r.seats {
		if id == uuid {
			continue
		}
		claimant := r.players[id]
		claimant.State = DeclareClaim
		claimant.resetClaim()
		r.bus.Publish(NewStateChangedEvent(id, DeclareClaim))
		r.bus.Publish(NewClaimTimerEvent(id, nil, r.cfg.ClaimTimeoutMS))
	}
	r.bus.Publish(NewClaimWindowOpenedEvent(r.claimGen))
	return nil
}

// DeclareClaimStart records when a claimant's countdown began. Only the
// first report per window sticks, so a reloaded client resumes rather
// than restarts its timer.
func (r *Room) DeclareClaimStart(uuid string, startTime time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.inProgress {
		return ErrGameNotStarted
	}
	p, ok := r.players[uuid]
	if !ok {
		return ErrUnknownPlayer
	}
	if p.State != DeclareClaim {
		return fmt.Errorf("%w: declare_claim_start in %s", ErrWrongState, p.State)
	}
	if p.DeclareClaimStartTime == nil {
		p.DeclareClaimStartTime = &startTime
		r.logger.Debug("claim timer started", "player", p.Username, "start", startTime)
	}
	return nil
}

// SubmitClaim records a claimant's response to the current discard; a nil
// meld type is a pass. When the last of the three responses arrives the
// claim is arbitrated.
func (r *Room) SubmitClaim(uuid string, declared *MeldType) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.inProgress {
		return ErrGameNotStarted
	}
	p, ok := r.players[uuid]
	if !ok {
		return ErrUnknownPlayer
	}
	if p.State != DeclareClaim {
		return fmt.Errorf("%w: update_claim_state in %s", ErrWrongState, p.State)
	}
	if r.claimed[uuid] {
		return ErrDuplicateClaim
	}

	r.claimed[uuid] = true
	p.DeclaredMeldType = declared
	p.State = NoAction
	if declared != nil {
		r.logger.Info("claim submitted", "player", p.Username, "meld", *declared)
	} else {
		r.logger.Debug("claim passed", "player", p.Username)
	}
	r.bus.Publish(NewStateChangedEvent(uuid, p.State))

	if len(r.claimed) == len(r.seats)-1 {
		r.arbitrateLocked()
	}
	return nil
}

// ExpireClaims synthesizes a pass for every claimant that has not
// responded to the given claim window. The claim watchdog calls this
// after the countdown plus grace; stale generations are ignored.
func (r *Room) ExpireClaims(generation int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.inProgress || r.currentDiscard == nil || generation != r.claimGen {
		return
	}
	discarder := r.seats[r.currentSeat]
	for _, id := range r.seats {
		if id == discarder || r.claimed[id] {
			continue
		}
		p := r.players[id]
		r.claimed[id] = true
		p.DeclaredMeldType = nil
		p.State = NoAction
		r.logger.Warn("claim window expired, passing", "player", p.Username, "generation", generation)
		r.bus.Publish(NewStateChangedEvent(id, p.State))
	}
	if len(r.claimed) == len(r.seats)-1 {
		r.arbitrateLocked()
	}
}

// arbitrateLocked resolves the claim window. Claims are ranked, the win
// tie breaks toward the seat closest after the discarder, and lesser ties
// keep the first claim in seat order.
func (r *Room) arbitrateLocked() {
	discard := *r.currentDiscard
	discarderIdx := r.currentSeat

	type claim struct {
		player   *Player
		seatIdx  int
		relPos   int
		meldType MeldType
		rank     int
	}
	var claims []claim
	for i, id := range r.seats {
		p := r.players[id]
		if i == discarderIdx || p.DeclaredMeldType == nil {
			continue
		}
		relPos := (i - discarderIdx + len(r.seats)) % len(r.seats)
		meldType := *p.DeclaredMeldType
		rank := RankClaim(p.Hand, discard, meldType, p.MeldCount(), relPos == 1)
		r.logger.Debug("claim ranked", "player", p.Username, "meld", meldType, "rank", rank, "relPos", relPos)
		if rank > 0 {
			claims = append(claims, claim{p, i, relPos, meldType, rank})
		}
	}

	for _, p := range r.players {
		p.resetClaim()
	}
	r.claimed = make(map[string]bool)
	r.bus.Publish(NewClaimWindowClosedEvent(r.claimGen))

	var best *claim
	for i := range claims {
		c := &claims[i]
		if best == nil || c.rank > best.rank || (c.rank == best.rank && c.rank == 3 && c.relPos < best.relPos) {
			best = c
		}
	}

	if best == nil {
		r.pastDiscards = append(r.pastDiscards, discard)
		r.currentDiscard = nil
		r.advanceTurnLocked()
		return
	}

	r.currentDiscard = nil
	if best.meldType == MeldWin {
		r.logger.Info("discard claimed for win", "player", best.player.Username, "tile", discard)
		best.player.AddToHand(discard)
		r.winLocked(best.player)
		return
	}

	r.currentSeat = best.seatIdx
	winner := best.player
	winner.State = RevealMeld
	meldType := best.meldType
	winner.DeclaredMeldType = &meldType
	winner.ValidMeldSubsets = ValidSubsetsForMeld(winner.Hand, discard, meldType)
	winner.NewMeld = []tile.Tile{discard}

	r.logger.Info("discard claimed", "player", winner.Username, "meld", meldType, "tile", discard)
	r.bus.Publish(NewStateChangedEvent(winner.UUID, winner.State))
	r.emitMeldSubsetsLocked(winner)
	r.bus.Publish(NewDiscardChangedEvent("", nil))
	r.emitOpponentsLocked()
}

// CompleteNewMeld finalizes a claimed meld. The submitted tiles must be
// the claimed discard plus one of the valid subsets computed at claim
// time. A four tile meld is a kong and earns a replacement draw.
func (r *Room) CompleteNewMeld(uuid string, meldTiles []tile.Tile) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.inProgress {
		return ErrGameNotStarted
	}
	p, ok := r.players[uuid]
	if !ok {
		return ErrUnknownPlayer
	}
	if p.State != RevealMeld || len(p.NewMeld) == 0 {
		return fmt.Errorf("%w: complete_new_meld in %s", ErrWrongState, p.State)
	}

	discard := p.NewMeld[0]
	subset, ok := matchMeldSubset(meldTiles, discard, p.ValidMeldSubsets)
	if !ok {
		return fmt.Errorf("%w: %v", ErrInvalidMeld, meldTiles)
	}
	for _, t := range subset {
		if !p.RemoveFromHand(t) {
			return fmt.Errorf("%w: %s", ErrTileNotInHand, t)
		}
	}

	meld := make(Meld, len(meldTiles))
	copy(meld, meldTiles)
	tile.Sort(meld)
	p.RevealedMelds = append(p.RevealedMelds, meld)
	p.NewMeld = nil
	p.ValidMeldSubsets = nil
	p.DeclaredMeldType = nil

	if len(meld) == 4 {
		p.State = DrawTile
	} else {
		p.State = DiscardTile
	}

	r.logger.Info("meld completed", "player", p.Username, "meld", meld, "state", p.State)
	r.bus.Publish(NewTilesUpdatedEvent(uuid, p.Hand))
	r.bus.Publish(NewPlayerUpdatedEvent(uuid, p.RevealedMelds, p.NewMeld))
	r.bus.Publish(NewStateChangedEvent(uuid, p.State))
	r.emitOpponentsLocked()
	if p.State == DiscardTile {
		r.refreshTurnFlagsLocked(p)
	}
	return nil
}

// DeclareConcealedKong moves an in-hand four of a kind to the player's
// concealed kongs and sends them back to the wall for a replacement.
func (r *Room) DeclareConcealedKong(uuid string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.inProgress {
		return ErrGameNotStarted
	}
	p, ok := r.players[uuid]
	if !ok {
		return ErrUnknownPlayer
	}
	if p.State != DiscardTile {
		return fmt.Errorf("%w: declare_concealed_kong in %s", ErrWrongState, p.State)
	}
	kongTile, ok := TileForKong(p.Hand)
	if !ok {
		return ErrNoKong
	}

	for i := 0; i < 4; i++ {
		p.RemoveFromHand(kongTile)
	}
	p.ConcealedKongs = append(p.ConcealedKongs, Meld{kongTile, kongTile, kongTile, kongTile})
	p.State = DrawTile

	r.logger.Info("concealed kong declared", "player", p.Username, "tile", kongTile)
	r.bus.Publish(NewTilesUpdatedEvent(uuid, p.Hand))
	r.bus.Publish(NewConcealedKongsEvent(uuid, p.ConcealedKongs))
	r.bus.Publish(NewStateChangedEvent(uuid, p.State))
	r.emitOpponentsLocked()
	return nil
}

// DeclareWin verifies the player's concealed hand and, when it resolves,
// ends the game in their favor.
func (r *Room) DeclareWin(uuid string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.inProgress {
		return ErrGameNotStarted
	}
	p, ok := r.players[uuid]
	if !ok {
		return ErrUnknownPlayer
	}
	if p.State != DiscardTile {
		return fmt.Errorf("%w: declare_win in %s", ErrWrongState, p.State)
	}
	if !CanMeldConcealedHand(p.Hand, SetsToWin-p.MeldCount()) {
		r.logger.Info("win attempt failed", "player", p.Username)
		return ErrNotWinning
	}

	r.logger.Info("win declared", "player", p.Username)
	r.winLocked(p)
	return nil
}

// winLocked ends the game. The winner's concealed hand is decomposed into
// display melds, everyone's final state goes out, and the room closes
// with an end_game broadcast.
func (r *Room) winLocked(winner *Player) {
	if decomposition, ok := DecomposeWinningHand(winner.Hand, SetsToWin-winner.MeldCount()); ok {
		winner.RevealedMelds = append(winner.RevealedMelds, decomposition...)
		winner.Hand = nil
	} else {
		r.logger.Error("winning hand failed to decompose", "player", winner.Username, "hand", winner.Hand)
	}

	for _, id := range r.seats {
		p := r.players[id]
		if p == winner {
			p.State = Win
		} else {
			p.State = Loss
		}
		r.bus.Publish(NewStateChangedEvent(id, p.State))
	}
	r.bus.Publish(NewPlayerUpdatedEvent(winner.UUID, winner.RevealedMelds, winner.NewMeld))
	r.emitOpponentsLocked()
	r.announceLocked(fmt.Sprintf("%s wins the game", winner.Username))
	r.endGameLocked()
}

// drawGameLocked ends the game with no winner
func (r *Room) drawGameLocked() {
	for _, id := range r.seats {
		p := r.players[id]
		p.State = Draw
		r.bus.Publish(NewStateChangedEvent(id, p.State))
	}
	r.emitOpponentsLocked()
	r.announceLocked("The wall is exhausted, the game is a draw")
	r.endGameLocked()
}

func (r *Room) endGameLocked() {
	r.inProgress = false
	r.finished = true
	r.bus.Publish(NewGameEndedEvent())
	r.logger.Info("game ended")
}

// advanceTurnLocked passes the turn to the next seat, or calls the game a
// draw once the wall is out of tiles.
func (r *Room) advanceTurnLocked() {
	if r.wall.IsEmpty() {
		r.logger.Info("wall exhausted, game is a draw")
		r.drawGameLocked()
		return
	}
	r.currentSeat = (r.currentSeat + 1) % len(r.seats)
	next := r.players[r.seats[r.currentSeat]]
	next.State = DrawTile
	r.logger.Debug("turn advanced", "player", next.Username, "seat", r.currentSeat)
	r.bus.Publish(NewStateChangedEvent(next.UUID, next.State))
	r.emitOpponentsLocked()
}

// AddChatMessage appends a player's chat line to the room history and
// broadcasts it.
func (r *Room) AddChatMessage(uuid, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.players[uuid]
	if !ok {
		return ErrUnknownPlayer
	}
	line := fmt.Sprintf("%s: %s", p.Username, text)
	r.messages = append(r.messages, line)
	r.logger.Info("chat", "player", p.Username, "message", text)
	r.bus.Publish(NewChatMessageEvent(ChatPlayer, line))
	return nil
}

// announceLocked records and broadcasts a server message
func (r *Room) announceLocked(text string) {
	r.messages = append(r.messages, text)
	r.bus.Publish(NewChatMessageEvent(ChatServer, text))
}

// ReemitEvents re-sends the transient per-player events that a freshly
// reloaded client cannot reconstruct from its snapshot: a running claim
// timer or the valid subsets of an unfinished meld.
func (r *Room) ReemitEvents(uuid string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.players[uuid]
	if !ok {
		return ErrUnknownPlayer
	}
	switch p.State {
	case DeclareClaim:
		r.bus.Publish(NewClaimTimerEvent(uuid, p.DeclareClaimStartTime, r.cfg.ClaimTimeoutMS))
	case RevealMeld:
		r.emitMeldSubsetsLocked(p)
	default:
		r.logger.Debug("no transient events to re-emit", "player", p.Username, "state", p.State)
	}
	return nil
}

// Snapshot returns the player's full view for the rejoin flow
func (r *Room) Snapshot(uuid string) (Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.players[uuid]
	if !ok {
		return Snapshot{}, ErrUnknownPlayer
	}
	var discard *tile.Tile
	if r.currentDiscard != nil {
		t := *r.currentDiscard
		discard = &t
	}
	return Snapshot{
		RoomID:         r.ID,
		Username:       p.Username,
		Tiles:          p.HandCopy(),
		State:          p.State,
		DiscardedTile:  discard,
		PastDiscards:   append([]tile.Tile(nil), r.pastDiscards...),
		RevealedMelds:  copyMelds(p.RevealedMelds),
		ConcealedKongs: copyMelds(p.ConcealedKongs),
		NewMeld:        append([]tile.Tile(nil), p.NewMeld...),
		CanDeclareWin:  p.CanDeclareWin,
		CanDeclareKong: p.CanDeclareKong,
		InProgress:     r.inProgress,
	}, nil
}

// EmitOpponents publishes a fresh opponent projection for one player
func (r *Room) EmitOpponents(uuid string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.players[uuid]; !ok {
		return ErrUnknownPlayer
	}
	r.bus.Publish(NewOpponentsUpdatedEvent(uuid, r.opponentsForLocked(uuid)))
	return nil
}

// Opponents returns one player's view of the other seats in play order,
// starting at the seat after them.
func (r *Room) Opponents(uuid string) ([]Opponent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.players[uuid]; !ok {
		return nil, ErrUnknownPlayer
	}
	return r.opponentsForLocked(uuid), nil
}

func (r *Room) opponentsForLocked(uuid string) []Opponent {
	idx := -1
	for i, id := range r.seats {
		if id == uuid {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil
	}
	opponents := make([]Opponent, 0, len(r.seats)-1)
	for off := 1; off < len(r.seats); off++ {
		p := r.players[r.seats[(idx+off)%len(r.seats)]]
		opponents = append(opponents, Opponent{
			Name:           p.Username,
			RevealedMelds:  copyMelds(p.RevealedMelds),
			TileCount:      len(p.Hand),
			ConcealedKongs: copyMelds(p.ConcealedKongs),
			IsCurrentTurn:  p.State.IsTurn(),
		})
	}
	return opponents
}

func (r *Room) emitOpponentsLocked() {
	for _, uuid := range r.seats {
		r.bus.Publish(NewOpponentsUpdatedEvent(uuid, r.opponentsForLocked(uuid)))
	}
}

func (r *Room) emitMeldSubsetsLocked(p *Player) {
	targetLength := 3
	if p.DeclaredMeldType != nil && *p.DeclaredMeldType == MeldKong {
		targetLength = 4
	}
	r.bus.Publish(NewMeldSubsetsEvent(p.UUID, p.ValidMeldSubsets, p.NewMeld, targetLength))
}

// refreshTurnFlagsLocked recomputes and pushes the win and kong hints for
// a player holding a full hand on their own turn.
func (r *Room) refreshTurnFlagsLocked(p *Player) {
	p.CanDeclareWin = CanMeldConcealedHand(p.Hand, SetsToWin-p.MeldCount())
	_, p.CanDeclareKong = TileForKong(p.Hand)
	r.bus.Publish(NewCanDeclareWinEvent(p.UUID, p.CanDeclareWin))
	r.bus.Publish(NewCanDeclareKongEvent(p.UUID, p.CanDeclareKong))
}

// matchMeldSubset checks the submitted meld against the claimed discard
// plus each valid subset, comparing as multisets.
func matchMeldSubset(meldTiles []tile.Tile, discard tile.Tile, subsets []Meld) (Meld, bool) {
	submitted := make(map[tile.Tile]int)
	for _, t := range meldTiles {
		submitted[t]++
	}
	for _, subset := range subsets {
		if len(meldTiles) != len(subset)+1 {
			continue
		}
		expected := map[tile.Tile]int{discard: 1}
		for _, t := range subset {
			expected[t]++
		}
		if len(expected) != len(submitted) {
			continue
		}
		match := true
		for t, n := range expected {
			if submitted[t] != n {
				match = false
				break
			}
		}
		if match {
			return subset, true
		}
	}
	return nil, false
}

// HostUUID returns the uuid of the current host, if any
func (r *Room) HostUUID() (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range r.seats {
		if r.players[id].IsHost {
			return id, true
		}
	}
	return "", false
}

// Seats returns the seated uuids in play order
func (r *Room) Seats() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.seats...)
}

// SeatCount returns the number of occupied seats
func (r *Room) SeatCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.seats)
}

// HumanCount returns the number of seated humans
func (r *Room) HumanCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.humanCount
}

// InProgress reports whether a game is running
func (r *Room) InProgress() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.inProgress
}

// Finished reports whether a game has ended in this room
func (r *Room) Finished() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.finished
}

// HasPlayer reports whether the uuid is seated in this room
func (r *Room) HasPlayer(uuid string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.players[uuid]
	return ok
}

// MaxSeats returns the configured seat limit
func (r *Room) MaxSeats() int {
	return r.cfg.MaxSeats
}

// ClaimGeneration returns the id of the most recent claim window
func (r *Room) ClaimGeneration() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.claimGen
}

// Messages returns the chat history
func (r *Room) Messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.messages...)
}

// CountTiles sums every tile the room tracks: wall, hands, melds, kongs,
// the current discard and the discard history. Legal play never changes
// the total.
func (r *Room) CountTiles() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	total := 0
	if r.wall != nil {
		total += r.wall.Remaining()
	}
	for _, p := range r.players {
		total += len(p.Hand)
		for _, m := range p.RevealedMelds {
			total += len(m)
		}
		for _, k := range p.ConcealedKongs {
			total += len(k)
		}
	}
	if r.currentDiscard != nil {
		total++
	}
	total += len(r.pastDiscards)
	return total
}
