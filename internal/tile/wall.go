package tile

import rand "math/rand/v2"

// Wall represents the ordered stack of undealt tiles for one game. Tiles
// are drawn from the tail; an empty wall ends the game in a draw.
type Wall struct {
	tiles []Tile
}

// NewWall builds a full wall from the configured tile sets and shuffles it
// with the provided rng
func NewWall(rng *rand.Rand, includeBonus bool) *Wall {
	w := &Wall{}
	for _, set := range Sets(includeBonus) {
		for i := 0; i < set.Copies; i++ {
			for _, kind := range set.Kinds {
				w.tiles = append(w.tiles, New(set.Suit, kind))
			}
		}
	}
	w.shuffle(rng)
	return w
}

// shuffle randomizes the wall in place with a Fisher-Yates shuffle
func (w *Wall) shuffle(rng *rand.Rand) {
	for i := len(w.tiles) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		w.tiles[i], w.tiles[j] = w.tiles[j], w.tiles[i]
	}
}

// Draw removes and returns the tile at the tail of the wall
func (w *Wall) Draw() (Tile, bool) {
	if len(w.tiles) == 0 {
		return Tile{}, false
	}

	t := w.tiles[len(w.tiles)-1]
	w.tiles = w.tiles[:len(w.tiles)-1]
	return t, true
}

// DrawN draws up to n tiles from the tail of the wall
func (w *Wall) DrawN(n int) []Tile {
	if n > len(w.tiles) {
		n = len(w.tiles)
	}

	tiles := make([]Tile, 0, n)
	for i := 0; i < n; i++ {
		t, ok := w.Draw()
		if !ok {
			break
		}
		tiles = append(tiles, t)
	}

	return tiles
}

// Remaining returns the number of undealt tiles
func (w *Wall) Remaining() int {
	return len(w.tiles)
}

// IsEmpty returns true if the wall has no tiles left
func (w *Wall) IsEmpty() bool {
	return len(w.tiles) == 0
}

// Tiles returns a copy of the remaining tiles, used by conservation checks
func (w *Wall) Tiles() []Tile {
	out := make([]Tile, len(w.tiles))
	copy(out, w.tiles)
	return out
}
