package ports

import "math/rand/v2"

// RNG provides deterministic random sources for Monte Carlo sampling.
// Identical (seed, parts) pairs must yield identical sources, so parallel
// workers and serial replays draw the same noise for the same sample.
type RNG interface {
	// Stream returns an independent source for one named stream.
	Stream(seed int64, parts ...string) rand.Source

	// Seed produces a fresh base seed from process-wide entropy, for
	// callers that did not ask for reproducibility.
	Seed() int64
}
