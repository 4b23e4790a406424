package shared

import "math/rand"

// NewRand creates a scoped random generator from an explicit seed. Every
// random consumer (world, map generator) owns its own generator so replays
// with the same seed are deterministic and independent of each other.
func NewRand(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// UniformBetween draws a uniform float in [lo, hi).
func UniformBetween(rng *rand.Rand, lo, hi float64) float64 {
	if hi <= lo {
		return lo
	}
	return lo + rng.Float64()*(hi-lo)
}

// IntBetween draws a uniform integer in [lo, hi] inclusive.
func IntBetween(rng *rand.Rand, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + rng.Intn(hi-lo+1)
}
