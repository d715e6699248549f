package randutil

import (
	rand "math/rand/v2"
	"time"
)

const (
	goldenRatio64 = 0x9e3779b97f4a7c15
)

// New returns a *rand.Rand seeded deterministically from the provided int64.
// All call sites derive their PCG state the same way so a seed printed in a
// log line reproduces the same deals and simulations.
func New(seed int64) *rand.Rand {
	u := uint64(seed)
	return rand.New(rand.NewPCG(mix(u), mix(u+goldenRatio64)))
}

// Seed returns seed when non-nil, otherwise a seed taken from the wall clock.
func Seed(seed *int64) int64 {
	if seed != nil {
		return *seed
	}
	return time.Now().UnixNano()
}

// Derive draws an independent stream from parent. Workers of a parallel
// simulation each derive their own stream so no generator is shared.
func Derive(parent *rand.Rand) *rand.Rand {
	if parent == nil {
		return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	a, b := parent.Uint64(), parent.Uint64()
	return rand.New(rand.NewPCG(mix(a), mix(b^goldenRatio64)))
}

func mix(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}
