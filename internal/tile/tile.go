package tile

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Suit represents a mahjong tile family
type Suit int

const (
	Bamboo Suit = iota
	Dots
	Character
	Wind
	Dragon
	Flower
	Season
)

// String returns the string representation of a suit
func (s Suit) String() string {
	switch s {
	case Bamboo:
		return "bamboo"
	case Dots:
		return "dots"
	case Character:
		return "character"
	case Wind:
		return "wind"
	case Dragon:
		return "dragon"
	case Flower:
		return "flower"
	case Season:
		return "season"
	default:
		return "?"
	}
}

// IsNumeric returns true for the three suits whose kinds run 1-9
func (s Suit) IsNumeric() bool {
	return s == Bamboo || s == Dots || s == Character
}

// IsHonor returns true for winds and dragons
func (s Suit) IsHonor() bool {
	return s == Wind || s == Dragon
}

// IsBonus returns true for flowers and seasons
func (s Suit) IsBonus() bool {
	return s == Flower || s == Season
}

// MarshalJSON encodes the suit as its lowercase name
func (s Suit) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes a suit from its lowercase name
func (s *Suit) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	for candidate := Bamboo; candidate <= Season; candidate++ {
		if candidate.String() == name {
			*s = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown suit: %q", name)
}

// Kind is the rank of a tile within its suit. Numeric suits run 1-9,
// winds and bonus suits 1-4, dragons 1-3.
type Kind int

// Wind kinds
const (
	East Kind = iota + 1
	South
	West
	North
)

// Dragon kinds
const (
	Red Kind = iota + 1
	Green
	White
)

// Tile represents a single mahjong tile. Two tiles are equal iff both
// fields match, so values can be compared with == and used as map keys.
type Tile struct {
	Suit Suit `json:"suit"`
	Kind Kind `json:"kind"`
}

// New creates a new tile
func New(suit Suit, kind Kind) Tile {
	return Tile{Suit: suit, Kind: kind}
}

// String returns the string representation of a tile (e.g. "bamboo-3", "wind-east")
func (t Tile) String() string {
	return fmt.Sprintf("%s-%s", t.Suit, t.KindName())
}

// KindName returns the kind as a display name: the wind direction or dragon
// color for honor tiles, the digit otherwise
func (t Tile) KindName() string {
	switch t.Suit {
	case Wind:
		switch t.Kind {
		case East:
			return "east"
		case South:
			return "south"
		case West:
			return "west"
		case North:
			return "north"
		}
	case Dragon:
		switch t.Kind {
		case Red:
			return "red"
		case Green:
			return "green"
		case White:
			return "white"
		}
	}
	return fmt.Sprintf("%d", t.Kind)
}

// Less orders tiles by (suit, kind)
func (t Tile) Less(other Tile) bool {
	if t.Suit != other.Suit {
		return t.Suit < other.Suit
	}
	return t.Kind < other.Kind
}

// Sort sorts tiles in place by (suit, kind)
func Sort(tiles []Tile) {
	sort.Slice(tiles, func(i, j int) bool {
		return tiles[i].Less(tiles[j])
	})
}

// Set describes one family of tiles in the wall: the suit, the kinds it
// contains and how many copies of each kind are present.
type Set struct {
	Suit   Suit
	Kinds  []Kind
	Copies int
}

func numericKinds() []Kind {
	kinds := make([]Kind, 9)
	for i := range kinds {
		kinds[i] = Kind(i + 1)
	}
	return kinds
}

// Sets returns the tile sets that make up a wall. The standard sets hold
// four copies of each tile (136 total); the bonus sets add one copy of each
// flower and season (144 total).
func Sets(includeBonus bool) []Set {
	sets := []Set{
		{Suit: Bamboo, Kinds: numericKinds(), Copies: 4},
		{Suit: Dots, Kinds: numericKinds(), Copies: 4},
		{Suit: Character, Kinds: numericKinds(), Copies: 4},
		{Suit: Wind, Kinds: []Kind{East, South, West, North}, Copies: 4},
		{Suit: Dragon, Kinds: []Kind{Red, Green, White}, Copies: 4},
	}
	if includeBonus {
		sets = append(sets,
			Set{Suit: Flower, Kinds: []Kind{1, 2, 3, 4}, Copies: 1},
			Set{Suit: Season, Kinds: []Kind{1, 2, 3, 4}, Copies: 1},
		)
	}
	return sets
}
