package randutil

import (
	rand "math/rand/v2"
	"time"
)

const (
	goldenRatio64 = 0x9e3779b97f4a7c15
)

// New returns a *rand.Rand seeded deterministically from the provided
// int64. rand/v2's PCG wants two well-spread 64-bit seeds, so the single
// seed is run through a splitmix-style mixer; equal seeds always give
// equal sequences, which is what wall shuffles and tests rely on.
func New(seed int64) *rand.Rand {
	u := uint64(seed)
	return rand.New(rand.NewPCG(mix(u), mix(u+goldenRatio64)))
}

// NewRandom returns a *rand.Rand seeded from the current time, for callers
// that don't need reproducibility
func NewRandom() *rand.Rand {
	return New(time.Now().UnixNano())
}

func mix(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}
