package game

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/lox/mahjongparlor/internal/tile"
)

// PlayerState represents what a player is expected to do next
type PlayerState int

const (
	NoAction PlayerState = iota
	DrawTile
	DiscardTile
	DeclareClaim
	RevealMeld
	Win
	Loss
	Draw
)

// String returns the wire representation of a player state
func (s PlayerState) String() string {
	switch s {
	case NoAction:
		return "NO_ACTION"
	case DrawTile:
		return "DRAW_TILE"
	case DiscardTile:
		return "DISCARD_TILE"
	case DeclareClaim:
		return "DECLARE_CLAIM"
	case RevealMeld:
		return "REVEAL_MELD"
	case Win:
		return "WIN"
	case Loss:
		return "LOSS"
	case Draw:
		return "DRAW"
	default:
		return "UNKNOWN"
	}
}

// IsTurn returns true for the states in which the player holds the turn
func (s PlayerState) IsTurn() bool {
	return s == DrawTile || s == DiscardTile || s == RevealMeld
}

// MarshalJSON encodes the state as its wire name
func (s PlayerState) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes a state from its wire name
func (s *PlayerState) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	for candidate := NoAction; candidate <= Draw; candidate++ {
		if candidate.String() == name {
			*s = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown player state: %q", name)
}

// MeldType represents the kind of meld a player declares against a discard
type MeldType int

const (
	MeldChow MeldType = iota
	MeldPung
	MeldKong
	MeldWin
)

// String returns the wire representation of a meld type
func (m MeldType) String() string {
	switch m {
	case MeldChow:
		return "CHOW"
	case MeldPung:
		return "PUNG"
	case MeldKong:
		return "KONG"
	case MeldWin:
		return "WIN"
	default:
		return "UNKNOWN"
	}
}

// ParseMeldType converts a wire name back to a MeldType
func ParseMeldType(name string) (MeldType, error) {
	for candidate := MeldChow; candidate <= MeldWin; candidate++ {
		if candidate.String() == name {
			return candidate, nil
		}
	}
	return 0, fmt.Errorf("unknown meld type: %q", name)
}

// MarshalJSON encodes the meld type as its wire name
func (m MeldType) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// UnmarshalJSON decodes a meld type from its wire name
func (m *MeldType) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	parsed, err := ParseMeldType(name)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Meld is a group of tiles revealed together: a chow or pung of three, a
// kong of four, or the winning pair of two
type Meld []tile.Tile

// Player represents one seat in a room
type Player struct {
	UUID     string
	Username string
	IsHost   bool
	IsAI     bool

	// Departed marks a player who left mid-game; the seat is retained
	// for turn order until they re-enter
	Departed bool

	Hand           []tile.Tile
	RevealedMelds  []Meld
	ConcealedKongs []Meld
	State          PlayerState

	// Claim-window bookkeeping
	DeclareClaimStartTime *time.Time
	DeclaredMeldType      *MeldType

	// In-flight meld completion
	ValidMeldSubsets []Meld
	NewMeld          []tile.Tile

	CanDeclareKong bool
	CanDeclareWin  bool
}

// NewPlayer creates a player with an empty hand in NO_ACTION
func NewPlayer(uuid, username string, isAI bool) *Player {
	return &Player{
		UUID:     uuid,
		Username: username,
		IsAI:     isAI,
		State:    NoAction,
	}
}

// AddToHand inserts tiles and keeps the hand sorted by (suit, kind)
func (p *Player) AddToHand(tiles ...tile.Tile) {
	p.Hand = append(p.Hand, tiles...)
	tile.Sort(p.Hand)
}

// HasTile returns true if the hand contains the tile
func (p *Player) HasTile(t tile.Tile) bool {
	for _, h := range p.Hand {
		if h == t {
			return true
		}
	}
	return false
}

// RemoveFromHand removes one copy of the tile, returning false if absent
func (p *Player) RemoveFromHand(t tile.Tile) bool {
	for i, h := range p.Hand {
		if h == t {
			p.Hand = append(p.Hand[:i], p.Hand[i+1:]...)
			return true
		}
	}
	return false
}

// MeldCount returns the number of sets the player has committed outside
// their concealed hand
func (p *Player) MeldCount() int {
	return len(p.RevealedMelds) + len(p.ConcealedKongs)
}

// HandCopy returns a copy of the hand for emission to clients
func (p *Player) HandCopy() []tile.Tile {
	out := make([]tile.Tile, len(p.Hand))
	copy(out, p.Hand)
	return out
}

// resetClaim clears the per-window claim bookkeeping
func (p *Player) resetClaim() {
	p.DeclareClaimStartTime = nil
	p.DeclaredMeldType = nil
}
