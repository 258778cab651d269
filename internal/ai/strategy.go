package ai

import (
	"fmt"
	rand "math/rand/v2"

	"github.com/lox/mahjongparlor/internal/game"
	"github.com/lox/mahjongparlor/internal/tile"
)

// Strategy decides how an AI seat plays. All methods receive the seat's
// current snapshot, so strategies stay stateless and safe to share.
type Strategy interface {
	// Discard picks the tile to throw away on the seat's own turn
	Discard(rng *rand.Rand, snap game.Snapshot) tile.Tile
	// Claim answers an open claim window; nil is a pass
	Claim(rng *rand.Rand, snap game.Snapshot) *game.MeldType
	// ChooseMeldSubset picks among the offered subsets when completing
	// a claimed meld
	ChooseMeldSubset(rng *rand.Rand, subsets []game.Meld) game.Meld
	// DeclaresKong reports whether the seat reveals a concealed kong
	// when it holds one
	DeclaresKong() bool
}

// NewStrategy returns the strategy registered under the given name
func NewStrategy(name string) (Strategy, error) {
	switch name {
	case "pass":
		return PassStrategy{}, nil
	case "greedy":
		return GreedyStrategy{}, nil
	default:
		return nil, fmt.Errorf("unknown AI strategy: %s", name)
	}
}

// PassStrategy is the simplest filler seat: it discards at random, never
// claims and never reveals kongs. It still declares a win when the engine
// says the hand is complete.
type PassStrategy struct{}

func (PassStrategy) Discard(rng *rand.Rand, snap game.Snapshot) tile.Tile {
	return snap.Tiles[rng.IntN(len(snap.Tiles))]
}

func (PassStrategy) Claim(rng *rand.Rand, snap game.Snapshot) *game.MeldType {
	return nil
}

func (PassStrategy) ChooseMeldSubset(rng *rand.Rand, subsets []game.Meld) game.Meld {
	return subsets[0]
}

func (PassStrategy) DeclaresKong() bool { return false }

// GreedyStrategy claims every meld it can and keeps connected tiles,
// discarding the most isolated tile in its hand.
type GreedyStrategy struct{}

func (GreedyStrategy) Discard(rng *rand.Rand, snap game.Snapshot) tile.Tile {
	best := snap.Tiles[0]
	bestScore := -1
	for _, candidate := range snap.Tiles {
		score := isolationScore(snap.Tiles, candidate)
		if score > bestScore {
			best = candidate
			bestScore = score
		}
	}
	return best
}

func (GreedyStrategy) Claim(rng *rand.Rand, snap game.Snapshot) *game.MeldType {
	if snap.DiscardedTile == nil {
		return nil
	}
	discard := *snap.DiscardedTile
	sets := game.SetsToWin - len(snap.RevealedMelds) - len(snap.ConcealedKongs)

	winning := make([]tile.Tile, 0, len(snap.Tiles)+1)
	winning = append(winning, snap.Tiles...)
	winning = append(winning, discard)
	if game.CanMeldConcealedHand(winning, sets) {
		return meldTypePtr(game.MeldWin)
	}
	if game.CanMeldKong(snap.Tiles, discard) {
		return meldTypePtr(game.MeldKong)
	}
	if game.CanMeldPung(snap.Tiles, discard) {
		return meldTypePtr(game.MeldPung)
	}
	// Chows are only legal for the seat after the discarder; a misplaced
	// chow claim ranks zero during arbitration, so claiming is harmless.
	if game.CanMeldChow(snap.Tiles, discard) {
		return meldTypePtr(game.MeldChow)
	}
	return nil
}

func (GreedyStrategy) ChooseMeldSubset(rng *rand.Rand, subsets []game.Meld) game.Meld {
	return subsets[0]
}

func (GreedyStrategy) DeclaresKong() bool { return true }

// isolationScore measures how useless a tile is to the rest of the hand.
// Duplicates and numeric neighbors reduce the score; a lone honor tile
// scores highest.
func isolationScore(hand []tile.Tile, candidate tile.Tile) int {
	score := 4
	for _, t := range hand {
		if t == candidate {
			continue
		}
		if t.Suit != candidate.Suit {
			continue
		}
		diff := int(t.Kind) - int(candidate.Kind)
		if diff < 0 {
			diff = -diff
		}
		switch diff {
		case 0:
			score -= 2
		case 1, 2:
			if candidate.Suit.IsNumeric() {
				score--
			}
		}
	}
	return score
}

func meldTypePtr(mt game.MeldType) *game.MeldType {
	return &mt
}
