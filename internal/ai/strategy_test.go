package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/mahjongparlor/internal/game"
	"github.com/lox/mahjongparlor/internal/randutil"
	"github.com/lox/mahjongparlor/internal/tile"
)

func repeatTile(t tile.Tile, n int) []tile.Tile {
	out := make([]tile.Tile, n)
	for i := range out {
		out[i] = t
	}
	return out
}

func concat(groups ...[]tile.Tile) []tile.Tile {
	var out []tile.Tile
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

func snapshotWithHand(tiles []tile.Tile, discard *tile.Tile) game.Snapshot {
	return game.Snapshot{
		Tiles:         tiles,
		DiscardedTile: discard,
		State:         game.DeclareClaim,
	}
}

func TestNewStrategy(t *testing.T) {
	for _, name := range []string{"pass", "greedy"} {
		s, err := NewStrategy(name)
		require.NoError(t, err)
		assert.NotNil(t, s)
	}

	_, err := NewStrategy("bluff")
	assert.Error(t, err)
}

func TestPassStrategyNeverClaims(t *testing.T) {
	rng := randutil.New(1)
	s := PassStrategy{}
	discard := tile.New(tile.Bamboo, 5)
	snap := snapshotWithHand(repeatTile(discard, 3), &discard)

	assert.Nil(t, s.Claim(rng, snap))
	assert.False(t, s.DeclaresKong())
}

func TestPassStrategyDiscardsFromHand(t *testing.T) {
	rng := randutil.New(1)
	s := PassStrategy{}
	hand := []tile.Tile{
		tile.New(tile.Bamboo, 1),
		tile.New(tile.Dots, 5),
		tile.New(tile.Wind, tile.East),
	}
	got := s.Discard(rng, snapshotWithHand(hand, nil))
	assert.Contains(t, hand, got)
}

func TestGreedyClaimPrefersWin(t *testing.T) {
	rng := randutil.New(1)
	s := GreedyStrategy{}
	discard := tile.New(tile.Bamboo, 5)

	// 5-6-7 completes against the discard alongside three pungs and a pair
	hand := concat(
		[]tile.Tile{tile.New(tile.Bamboo, 6), tile.New(tile.Bamboo, 7)},
		repeatTile(tile.New(tile.Character, 2), 3),
		repeatTile(tile.New(tile.Dots, 3), 3),
		repeatTile(tile.New(tile.Wind, tile.East), 3),
		repeatTile(tile.New(tile.Dragon, tile.Red), 2),
	)

	got := s.Claim(rng, snapshotWithHand(hand, &discard))
	require.NotNil(t, got)
	assert.Equal(t, game.MeldWin, *got)
}

func TestGreedyClaimCountsCommittedMelds(t *testing.T) {
	rng := randutil.New(1)
	s := GreedyStrategy{}
	discard := tile.New(tile.Bamboo, 5)

	// one meld already revealed, so ten tiles plus the discard must make
	// three sets and a pair
	snap := game.Snapshot{
		Tiles: concat(
			[]tile.Tile{tile.New(tile.Bamboo, 6), tile.New(tile.Bamboo, 7)},
			repeatTile(tile.New(tile.Character, 2), 3),
			repeatTile(tile.New(tile.Wind, tile.East), 3),
			repeatTile(tile.New(tile.Dragon, tile.Red), 2),
		),
		DiscardedTile: &discard,
		RevealedMelds: []game.Meld{repeatTile(tile.New(tile.Dots, 3), 3)},
	}

	got := s.Claim(rng, snap)
	require.NotNil(t, got)
	assert.Equal(t, game.MeldWin, *got)
}

func TestGreedyClaimKongOverPung(t *testing.T) {
	rng := randutil.New(1)
	s := GreedyStrategy{}
	discard := tile.New(tile.Dots, 7)

	hand := concat(
		repeatTile(discard, 3),
		repeatTile(tile.New(tile.Wind, tile.North), 2),
	)
	got := s.Claim(rng, snapshotWithHand(hand, &discard))
	require.NotNil(t, got)
	assert.Equal(t, game.MeldKong, *got)
}

func TestGreedyClaimPung(t *testing.T) {
	rng := randutil.New(1)
	s := GreedyStrategy{}
	discard := tile.New(tile.Dots, 7)

	hand := concat(
		repeatTile(discard, 2),
		repeatTile(tile.New(tile.Wind, tile.North), 2),
	)
	got := s.Claim(rng, snapshotWithHand(hand, &discard))
	require.NotNil(t, got)
	assert.Equal(t, game.MeldPung, *got)
}

func TestGreedyClaimChow(t *testing.T) {
	rng := randutil.New(1)
	s := GreedyStrategy{}
	discard := tile.New(tile.Bamboo, 5)

	hand := []tile.Tile{
		tile.New(tile.Bamboo, 4),
		tile.New(tile.Bamboo, 6),
		tile.New(tile.Wind, tile.North),
	}
	got := s.Claim(rng, snapshotWithHand(hand, &discard))
	require.NotNil(t, got)
	assert.Equal(t, game.MeldChow, *got)
}

func TestGreedyClaimPassesWithNothing(t *testing.T) {
	rng := randutil.New(1)
	s := GreedyStrategy{}
	discard := tile.New(tile.Bamboo, 5)

	hand := []tile.Tile{
		tile.New(tile.Character, 1),
		tile.New(tile.Dots, 9),
		tile.New(tile.Wind, tile.North),
	}
	assert.Nil(t, s.Claim(rng, snapshotWithHand(hand, &discard)))
	assert.Nil(t, s.Claim(rng, snapshotWithHand(hand, nil)))
}

func TestGreedyDiscardsMostIsolatedTile(t *testing.T) {
	rng := randutil.New(1)
	s := GreedyStrategy{}

	// the lone wind is useless next to a run and a pair
	hand := []tile.Tile{
		tile.New(tile.Bamboo, 3),
		tile.New(tile.Bamboo, 4),
		tile.New(tile.Bamboo, 5),
		tile.New(tile.Dots, 7),
		tile.New(tile.Dots, 7),
		tile.New(tile.Wind, tile.West),
	}
	got := s.Discard(rng, snapshotWithHand(hand, nil))
	assert.Equal(t, tile.New(tile.Wind, tile.West), got)
}

func TestGreedyDeclaresKong(t *testing.T) {
	assert.True(t, GreedyStrategy{}.DeclaresKong())
}
