package tile

import (
	"testing"

	"github.com/lox/mahjongparlor/internal/randutil"
)

func TestNewWallSize(t *testing.T) {
	standard := NewWall(randutil.New(1), false)
	if standard.Remaining() != 136 {
		t.Errorf("standard wall has %d tiles, want 136", standard.Remaining())
	}

	bonus := NewWall(randutil.New(1), true)
	if bonus.Remaining() != 144 {
		t.Errorf("bonus wall has %d tiles, want 144", bonus.Remaining())
	}
}

func TestNewWallComposition(t *testing.T) {
	wall := NewWall(randutil.New(7), true)

	counts := make(map[Tile]int)
	for _, tl := range wall.Tiles() {
		counts[tl]++
	}

	if len(counts) != 42 {
		t.Fatalf("wall has %d distinct tiles, want 42", len(counts))
	}

	for tl, n := range counts {
		want := 4
		if tl.Suit.IsBonus() {
			want = 1
		}
		if n != want {
			t.Errorf("%s appears %d times, want %d", tl, n, want)
		}
	}
}

func TestWallShuffleDeterministic(t *testing.T) {
	a := NewWall(randutil.New(42), false)
	b := NewWall(randutil.New(42), false)

	at, bt := a.Tiles(), b.Tiles()
	for i := range at {
		if at[i] != bt[i] {
			t.Fatalf("walls with equal seeds diverge at %d: %v vs %v", i, at[i], bt[i])
		}
	}

	c := NewWall(randutil.New(43), false)
	same := true
	for i, tl := range c.Tiles() {
		if tl != at[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("walls with different seeds produced identical order")
	}
}

func TestWallDrawFromTail(t *testing.T) {
	wall := NewWall(randutil.New(3), false)
	tiles := wall.Tiles()

	drawn, ok := wall.Draw()
	if !ok {
		t.Fatal("draw from full wall failed")
	}
	if drawn != tiles[len(tiles)-1] {
		t.Errorf("drawn %v, want tail tile %v", drawn, tiles[len(tiles)-1])
	}
	if wall.Remaining() != len(tiles)-1 {
		t.Errorf("remaining = %d, want %d", wall.Remaining(), len(tiles)-1)
	}
}

func TestWallExhaustion(t *testing.T) {
	wall := NewWall(randutil.New(9), false)

	drawn := wall.DrawN(200)
	if len(drawn) != 136 {
		t.Errorf("drew %d tiles, want 136", len(drawn))
	}
	if !wall.IsEmpty() {
		t.Error("wall should be empty")
	}
	if _, ok := wall.Draw(); ok {
		t.Error("draw from empty wall should fail")
	}
}
