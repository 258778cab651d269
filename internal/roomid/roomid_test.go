package roomid

import (
	"testing"

	"github.com/lox/mahjongparlor/internal/randutil"
)

func TestGenerate(t *testing.T) {
	id := Generate()

	if len(id) != Length {
		t.Errorf("expected %d characters, got %d", Length, len(id))
	}

	if err := Validate(id); err != nil {
		t.Errorf("generated ID failed validation: %v", err)
	}
}

func TestGenerateUnique(t *testing.T) {
	ids := make(map[string]bool)

	for i := 0; i < 100; i++ {
		id := Generate()
		if ids[id] {
			t.Errorf("duplicate ID generated: %s", id)
		}
		ids[id] = true
	}
}

func TestGenerateWithRandSource(t *testing.T) {
	a := NewGenerator(randutil.New(99)).Generate()
	b := NewGenerator(randutil.New(99)).Generate()

	if a != b {
		t.Errorf("seeded generators should agree: %s vs %s", a, b)
	}

	if err := Validate(a); err != nil {
		t.Errorf("seeded ID failed validation: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{"valid mixed case", "Ab3kZ9qX", false},
		{"valid digits only", "01234567", false},
		{"too short", "Ab3kZ9q", true},
		{"too long", "Ab3kZ9qXY", true},
		{"punctuation", "Ab3k-9qX", true},
		{"space", "Ab3k 9qX", true},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.id)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate(%q) error = %v, wantErr %v", tt.id, err, tt.wantErr)
			}
		})
	}
}
