package tile

import (
	"encoding/json"
	"testing"
)

func TestTileString(t *testing.T) {
	tests := []struct {
		tile     Tile
		expected string
	}{
		{New(Bamboo, 3), "bamboo-3"},
		{New(Dots, 9), "dots-9"},
		{New(Character, 1), "character-1"},
		{New(Wind, East), "wind-east"},
		{New(Wind, North), "wind-north"},
		{New(Dragon, Red), "dragon-red"},
		{New(Dragon, White), "dragon-white"},
		{New(Flower, 2), "flower-2"},
	}

	for _, tt := range tests {
		if got := tt.tile.String(); got != tt.expected {
			t.Errorf("String() = %q, want %q", got, tt.expected)
		}
	}
}

func TestTileEquality(t *testing.T) {
	if New(Bamboo, 3) != New(Bamboo, 3) {
		t.Error("identical tiles should compare equal")
	}
	if New(Bamboo, 3) == New(Dots, 3) {
		t.Error("tiles of different suits should not compare equal")
	}
	if New(Wind, East) == New(Wind, South) {
		t.Error("tiles of different kinds should not compare equal")
	}
}

func TestTileJSON(t *testing.T) {
	tests := []struct {
		tile Tile
		json string
	}{
		{New(Bamboo, 5), `{"suit":"bamboo","kind":5}`},
		{New(Wind, West), `{"suit":"wind","kind":3}`},
		{New(Dragon, Green), `{"suit":"dragon","kind":2}`},
	}

	for _, tt := range tests {
		data, err := json.Marshal(tt.tile)
		if err != nil {
			t.Fatalf("Marshal(%v): %v", tt.tile, err)
		}
		if string(data) != tt.json {
			t.Errorf("Marshal(%v) = %s, want %s", tt.tile, data, tt.json)
		}

		var decoded Tile
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("Unmarshal(%s): %v", data, err)
		}
		if decoded != tt.tile {
			t.Errorf("round trip = %v, want %v", decoded, tt.tile)
		}
	}

	var bad Tile
	if err := json.Unmarshal([]byte(`{"suit":"clubs","kind":1}`), &bad); err == nil {
		t.Error("expected error for unknown suit")
	}
}

func TestSortOrdersBySuitThenKind(t *testing.T) {
	tiles := []Tile{
		New(Dragon, Red),
		New(Bamboo, 9),
		New(Bamboo, 1),
		New(Wind, East),
		New(Dots, 4),
	}

	Sort(tiles)

	expected := []Tile{
		New(Bamboo, 1),
		New(Bamboo, 9),
		New(Dots, 4),
		New(Wind, East),
		New(Dragon, Red),
	}
	for i := range expected {
		if tiles[i] != expected[i] {
			t.Fatalf("position %d = %v, want %v", i, tiles[i], expected[i])
		}
	}
}

func TestSuitPredicates(t *testing.T) {
	for _, s := range []Suit{Bamboo, Dots, Character} {
		if !s.IsNumeric() || s.IsHonor() || s.IsBonus() {
			t.Errorf("%s should be numeric only", s)
		}
	}
	for _, s := range []Suit{Wind, Dragon} {
		if !s.IsHonor() || s.IsNumeric() || s.IsBonus() {
			t.Errorf("%s should be honor only", s)
		}
	}
	for _, s := range []Suit{Flower, Season} {
		if !s.IsBonus() || s.IsNumeric() || s.IsHonor() {
			t.Errorf("%s should be bonus only", s)
		}
	}
}
