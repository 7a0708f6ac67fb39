// Package rng implements the RNG port with hash-derived PCG streams: each
// (seed, stream name) pair maps through sha256 to an independent source, so
// simulations replay exactly for a fixed seed regardless of worker count.
package rng

import (
	"math/rand/v2"

	"opencm/domain/core"
	"opencm/ports"
)

type hashStream struct{}

// New returns the deterministic stream adapter.
func New() ports.RNG {
	return hashStream{}
}

func (hashStream) Stream(seed int64, parts ...string) rand.Source {
	derived := core.ComputeStreamSeed(seed, parts...)
	return rand.NewPCG(derived, 0x9e3779b97f4a7c15)
}

func (hashStream) Seed() int64 {
	// The global generator is seeded from OS entropy at startup.
	return rand.Int64()
}
