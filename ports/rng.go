package ports

import (
	"context"
	"math/rand"
)

// RNGPort provides seeded random number generation for deterministic
// resampling. Every randomized stage takes its stream from here so a run
// with the same seed reproduces the same p-values.
type RNGPort interface {
	// SeededStream creates a deterministic random number generator for a
	// named operation. The same (name, seed) pair always yields the same
	// stream.
	SeededStream(ctx context.Context, name string, seed int64) (*rand.Rand, error)
}
