package mlmc

import (
	"fmt"
	"hash/fnv"
	"math/rand"
)

// === RunKey ===

// RunKey uniquely identifies a reproducible pilot run.
// Two runs with the same RunKey and identical configuration
// MUST produce bit-for-bit identical iteration traces.
type RunKey int64

// NewRunKey creates a RunKey from a seed value.
func NewRunKey(seed int64) RunKey {
	return RunKey(seed)
}

// StreamLevel returns the stream name for the sampling of level l.
// Each level of the telescoping sum draws its input realizations from
// its own stream so that the draws of one level never perturb another.
func StreamLevel(l int) string {
	return fmt.Sprintf("level_%d", l)
}

// === PartitionedRNG ===

// PartitionedRNG provides deterministic, isolated RNG instances per stream.
//
// Derivation formula: masterSeed XOR fnv1a64(streamName).
//
// Thread-safety: NOT thread-safe. The pilot loop owns it exclusively;
// input realizations are always drawn before a batch is dispatched to
// the evaluation workers.
type PartitionedRNG struct {
	key     RunKey
	streams map[string]*rand.Rand
}

// NewPartitionedRNG creates a PartitionedRNG from a RunKey.
func NewPartitionedRNG(key RunKey) *PartitionedRNG {
	return &PartitionedRNG{
		key:     key,
		streams: make(map[string]*rand.Rand),
	}
}

// ForStream returns a deterministically-seeded RNG for the named stream.
// The same stream name always returns the same *rand.Rand instance (cached).
// Never returns nil.
func (p *PartitionedRNG) ForStream(name string) *rand.Rand {
	if rng, ok := p.streams[name]; ok {
		return rng
	}

	rng := rand.New(rand.NewSource(int64(p.key) ^ fnv1a64(name)))
	p.streams[name] = rng
	return rng
}

// Key returns the RunKey used to create this PartitionedRNG.
func (p *PartitionedRNG) Key() RunKey {
	return p.key
}

// fnv1a64 computes a 64-bit FNV-1a hash of the input string.
func fnv1a64(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64())
}
