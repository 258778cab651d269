package roomid

import (
	"crypto/rand"
	"fmt"
)

// Length is the number of characters in a room ID
const Length = 8

// Alphanumeric alphabet, both cases
const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// RandSource interface for dependency injection of randomness
type RandSource interface {
	IntN(n int) int
}

// Generator handles room ID generation with configurable randomness
type Generator struct {
	randSource RandSource
}

// NewGenerator creates a new generator. A nil RandSource falls back to
// crypto/rand.
func NewGenerator(randSource RandSource) *Generator {
	return &Generator{randSource: randSource}
}

// Generate creates a new 8-character alphanumeric room ID
func Generate() string {
	return NewGenerator(nil).Generate()
}

// Generate creates a new room ID using the generator's RandSource
func (g *Generator) Generate() string {
	id := make([]byte, Length)
	if g.randSource != nil {
		for i := range id {
			id[i] = alphabet[g.randSource.IntN(len(alphabet))]
		}
		return string(id)
	}

	buf := make([]byte, Length)
	if _, err := rand.Read(buf); err != nil {
		panic("failed to generate random bytes: " + err.Error())
	}
	for i := range id {
		// 62 does not divide 256 evenly, but the resulting bias is
		// far below anything observable at this ID length
		id[i] = alphabet[int(buf[i])%len(alphabet)]
	}
	return string(id)
}

// Validate checks that a room ID is 8 alphanumeric characters
func Validate(id string) error {
	if len(id) != Length {
		return fmt.Errorf("room ID must be exactly %d characters, got %d", Length, len(id))
	}

	for i, char := range id {
		isUpper := char >= 'A' && char <= 'Z'
		isLower := char >= 'a' && char <= 'z'
		isDigit := char >= '0' && char <= '9'
		if !isUpper && !isLower && !isDigit {
			return fmt.Errorf("invalid character %c at position %d", char, i)
		}
	}

	return nil
}
