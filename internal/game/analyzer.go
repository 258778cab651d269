package game

import (
	"sort"

	"github.com/lox/mahjongparlor/internal/tile"
)

// SetsToWin is the number of three-or-four tile sets a winning hand needs
// alongside its single pair.
const SetsToWin = 4

// chowOffsets are the three ways a numeric discard can complete a run: as
// the high, middle or low tile.
var chowOffsets = [3][2]tile.Kind{{-2, -1}, {-1, 1}, {1, 2}}

// CanMeldChow returns true if the hand holds two tiles that form a run
// with the discard. Runs only exist in the numeric suits.
func CanMeldChow(hand []tile.Tile, discard tile.Tile) bool {
	return len(ChowSubsets(hand, discard)) > 0
}

// ChowSubsets returns every pair of hand tiles that completes a run with
// the discard, each pair sorted by kind.
func ChowSubsets(hand []tile.Tile, discard tile.Tile) []Meld {
	if !discard.Suit.IsNumeric() {
		return nil
	}
	held := make(map[tile.Kind]bool)
	for _, t := range hand {
		if t.Suit == discard.Suit {
			held[t.Kind] = true
		}
	}
	var subsets []Meld
	for _, offsets := range chowOffsets {
		lo, hi := discard.Kind+offsets[0], discard.Kind+offsets[1]
		if lo < 1 || hi > 9 {
			continue
		}
		if held[lo] && held[hi] {
			subsets = append(subsets, Meld{tile.New(discard.Suit, lo), tile.New(discard.Suit, hi)})
		}
	}
	return subsets
}

// CanMeldPung returns true if the hand holds at least two copies of the
// discard.
func CanMeldPung(hand []tile.Tile, discard tile.Tile) bool {
	return countOf(hand, discard) >= 2
}

// CanMeldKong returns true if the hand holds at least three copies of the
// discard.
func CanMeldKong(hand []tile.Tile, discard tile.Tile) bool {
	return countOf(hand, discard) >= 3
}

// TileForKong returns the lowest tile the hand holds four copies of, for
// declaring a concealed kong.
func TileForKong(hand []tile.Tile) (tile.Tile, bool) {
	counts := make(map[tile.Tile]int)
	for _, t := range hand {
		counts[t]++
	}
	candidates := make([]tile.Tile, 0, 1)
	for t, n := range counts {
		if n == 4 {
			candidates = append(candidates, t)
		}
	}
	if len(candidates) == 0 {
		return tile.Tile{}, false
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].Less(candidates[j]) })
	return candidates[0], true
}

// CanMeldConcealedHand reports whether the tiles resolve into targetSets
// complete sets plus exactly one pair. Honor tiles may only form pungs or
// the pair; numeric tiles may also form runs.
func CanMeldConcealedHand(tiles []tile.Tile, targetSets int) bool {
	honors := make(map[tile.Tile]int)
	numeric := make(map[tile.Suit]map[tile.Kind]int)
	for _, t := range tiles {
		if t.Suit.IsHonor() {
			honors[t]++
			continue
		}
		if numeric[t.Suit] == nil {
			numeric[t.Suit] = make(map[tile.Kind]int)
		}
		numeric[t.Suit][t.Kind]++
	}

	pairs := 0
	sets := 0
	for _, n := range honors {
		switch {
		case n == 3:
			sets++
		case n == 2 && pairs == 0:
			pairs++
		default:
			return false
		}
	}

	for _, suit := range numericSuitsOf(numeric) {
		counts := numeric[suit]
		if n, ok := resolveMelds(counts, 0); ok {
			sets += n
			continue
		}
		if pairs > 0 {
			return false
		}
		resolved := false
		for _, kind := range pairKinds(counts) {
			if isLonePair(counts, kind) {
				pairs++
				resolved = true
				break
			}
			if n, ok := resolveMelds(counts, kind); ok {
				sets += n
				pairs++
				resolved = true
				break
			}
		}
		if !resolved {
			return false
		}
	}

	return pairs == 1 && sets == targetSets
}

// resolveMelds tries to consume every tile in counts as runs and pungs,
// optionally removing a pair of pairKind first. A pairKind of zero means
// no pair is taken. Returns the number of sets formed.
func resolveMelds(counts map[tile.Kind]int, pairKind tile.Kind) (int, bool) {
	remaining := make(map[tile.Kind]int, len(counts))
	for k, n := range counts {
		remaining[k] = n
	}
	if pairKind != 0 {
		remaining[pairKind] -= 2
		if remaining[pairKind] <= 0 {
			delete(remaining, pairKind)
		}
	}
	chows, ok := resolveChows(remaining)
	if !ok {
		return 0, false
	}
	if len(remaining) == 0 {
		return chows, true
	}
	pungs, ok := resolvePungs(remaining)
	if !ok {
		return 0, false
	}
	return chows + pungs, true
}

// resolveChows consumes forced runs in place. A kind held 1, 2 or 4 times
// cannot complete pungs alone, so it must start a run; if the next two
// kinds are not held the suit cannot resolve. Consuming a run can leave
// the same kind forced again, so the scan only advances past kinds that
// are absent or pung-shaped.
func resolveChows(counts map[tile.Kind]int) (int, bool) {
	sets := 0
	for kind := tile.Kind(1); kind <= 7 && len(counts) > 0; {
		n := counts[kind]
		if n != 1 && n != 2 && n != 4 {
			kind++
			continue
		}
		for k := kind; k <= kind+2; k++ {
			if counts[k] == 0 {
				return 0, false
			}
		}
		for k := kind; k <= kind+2; k++ {
			counts[k]--
			if counts[k] == 0 {
				delete(counts, k)
			}
		}
		sets++
	}
	return sets, true
}

// resolvePungs consumes the remaining kinds as pungs in place. Any count
// other than exactly three means the suit cannot resolve.
func resolvePungs(counts map[tile.Kind]int) (int, bool) {
	sets := 0
	for kind, n := range counts {
		if n != 3 {
			return 0, false
		}
		delete(counts, kind)
		sets++
	}
	return sets, true
}

// isLonePair returns true if the suit consists of nothing but a pair of
// the given kind.
func isLonePair(counts map[tile.Kind]int, kind tile.Kind) bool {
	return len(counts) == 1 && counts[kind] == 2
}

// pairKinds returns the kinds held at least twice, lowest first.
func pairKinds(counts map[tile.Kind]int) []tile.Kind {
	var kinds []tile.Kind
	for k, n := range counts {
		if n >= 2 {
			kinds = append(kinds, k)
		}
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// numericSuitsOf returns the map's suits in a stable order.
func numericSuitsOf(numeric map[tile.Suit]map[tile.Kind]int) []tile.Suit {
	var suits []tile.Suit
	for s := range numeric {
		suits = append(suits, s)
	}
	sort.Slice(suits, func(i, j int) bool { return suits[i] < suits[j] })
	return suits
}

// RankClaim scores a declared claim against the current discard. Wins
// rank 3, pungs and kongs 2, chows 1, and an unsupported claim ranks 0.
// Chows are only open to the claimant seated directly after the
// discarder, signalled by chowAllowed.
func RankClaim(hand []tile.Tile, discard tile.Tile, meldType MeldType, revealedSets int, chowAllowed bool) int {
	switch meldType {
	case MeldWin:
		tiles := make([]tile.Tile, 0, len(hand)+1)
		tiles = append(tiles, hand...)
		tiles = append(tiles, discard)
		if CanMeldConcealedHand(tiles, SetsToWin-revealedSets) {
			return 3
		}
	case MeldPung:
		if CanMeldPung(hand, discard) {
			return 2
		}
	case MeldKong:
		if CanMeldKong(hand, discard) {
			return 2
		}
	case MeldChow:
		if chowAllowed && CanMeldChow(hand, discard) {
			return 1
		}
	}
	return 0
}

// ValidSubsetsForMeld returns the hand subsets that complete the declared
// meld against the discard. Pungs and kongs have a single subset of
// matching copies; chows may have up to three.
func ValidSubsetsForMeld(hand []tile.Tile, discard tile.Tile, meldType MeldType) []Meld {
	switch meldType {
	case MeldPung:
		return []Meld{{discard, discard}}
	case MeldKong:
		return []Meld{{discard, discard, discard}}
	case MeldChow:
		return ChowSubsets(hand, discard)
	default:
		return nil
	}
}

// DecomposeWinningHand splits a winning concealed hand into its sets and
// pair for display, the pair last. It backtracks over each numeric suit
// trying pair, pung then run at the lowest kind, so any hand accepted by
// CanMeldConcealedHand decomposes.
func DecomposeWinningHand(tiles []tile.Tile, targetSets int) ([]Meld, bool) {
	honors := make(map[tile.Tile]int)
	numeric := make(map[tile.Suit]map[tile.Kind]int)
	for _, t := range tiles {
		if t.Suit.IsHonor() {
			honors[t]++
			continue
		}
		if numeric[t.Suit] == nil {
			numeric[t.Suit] = make(map[tile.Kind]int)
		}
		numeric[t.Suit][t.Kind]++
	}

	var sets []Meld
	var pair Meld
	honorTiles := make([]tile.Tile, 0, len(honors))
	for t := range honors {
		honorTiles = append(honorTiles, t)
	}
	sort.Slice(honorTiles, func(i, j int) bool { return honorTiles[i].Less(honorTiles[j]) })
	for _, t := range honorTiles {
		switch honors[t] {
		case 3:
			sets = append(sets, Meld{t, t, t})
		case 2:
			if pair != nil {
				return nil, false
			}
			pair = Meld{t, t}
		default:
			return nil, false
		}
	}

	for _, suit := range numericSuitsOf(numeric) {
		counts := numeric[suit]
		total := 0
		for _, n := range counts {
			total += n
		}
		needsPair := total%3 == 2
		if needsPair && pair != nil {
			return nil, false
		}
		suitSets, suitPair, ok := decomposeSuit(counts, suit, needsPair)
		if !ok {
			return nil, false
		}
		sets = append(sets, suitSets...)
		if suitPair != nil {
			pair = suitPair
		}
	}

	if pair == nil || len(sets) != targetSets {
		return nil, false
	}
	return append(sets, pair), true
}

// decomposeSuit backtracks over one suit's counts. If needsPair is set
// exactly one pair must be consumed along the way.
func decomposeSuit(counts map[tile.Kind]int, suit tile.Suit, needsPair bool) ([]Meld, Meld, bool) {
	if len(counts) == 0 {
		if needsPair {
			return nil, nil, false
		}
		return nil, nil, true
	}
	kind := lowestKind(counts)

	if needsPair && counts[kind] >= 2 {
		take(counts, kind, 2)
		sets, _, ok := decomposeSuit(counts, suit, false)
		put(counts, kind, 2)
		if ok {
			return sets, Meld{tile.New(suit, kind), tile.New(suit, kind)}, true
		}
	}
	if counts[kind] >= 3 {
		take(counts, kind, 3)
		sets, pair, ok := decomposeSuit(counts, suit, needsPair)
		put(counts, kind, 3)
		if ok {
			t := tile.New(suit, kind)
			return append([]Meld{{t, t, t}}, sets...), pair, true
		}
	}
	if kind <= 7 && counts[kind] >= 1 && counts[kind+1] >= 1 && counts[kind+2] >= 1 {
		for k := kind; k <= kind+2; k++ {
			take(counts, k, 1)
		}
		sets, pair, ok := decomposeSuit(counts, suit, needsPair)
		for k := kind; k <= kind+2; k++ {
			put(counts, k, 1)
		}
		if ok {
			run := Meld{tile.New(suit, kind), tile.New(suit, kind+1), tile.New(suit, kind+2)}
			return append([]Meld{run}, sets...), pair, true
		}
	}
	return nil, nil, false
}

func lowestKind(counts map[tile.Kind]int) tile.Kind {
	lowest := tile.Kind(0)
	for k := range counts {
		if lowest == 0 || k < lowest {
			lowest = k
		}
	}
	return lowest
}

func take(counts map[tile.Kind]int, kind tile.Kind, n int) {
	counts[kind] -= n
	if counts[kind] <= 0 {
		delete(counts, kind)
	}
}

func put(counts map[tile.Kind]int, kind tile.Kind, n int) {
	counts[kind] += n
}

func countOf(hand []tile.Tile, t tile.Tile) int {
	n := 0
	for _, h := range hand {
		if h == t {
			n++
		}
	}
	return n
}
