package rng

import (
	"context"
	"hash/fnv"
	"math/rand"
)

// SeededAdapter provides deterministic random streams keyed by operation
// name and seed. The same (name, seed) pair always yields the same stream,
// which keeps bootstrap p-values reproducible across reruns.
type SeededAdapter struct{}

// NewSeededAdapter creates the default RNG adapter
func NewSeededAdapter() *SeededAdapter {
	return &SeededAdapter{}
}

// SeededStream creates a deterministic random number generator for a named
// operation
func (a *SeededAdapter) SeededStream(ctx context.Context, name string, seed int64) (*rand.Rand, error) {
	return rand.New(rand.NewSource(seed + int64(hashString(name)))), nil
}

func hashString(s string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(s))
	return h.Sum32()
}
