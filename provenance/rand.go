package provenance

import (
	"math/rand/v2"
	"sync"
)

// RNGCell is the narrow piece of mutable state spec §5/§9 calls for: "pass
// a seeded generator into the context and use interior mutability through
// a narrow cell." It wraps a math/rand/v2.Rand behind a mutex so the
// sample-k-proofs scheme can be driven from concurrent input-file loading
// (ioadapter) without a data race, while the fixed-point loop itself still
// only ever calls it from one goroutine at a time.
type RNGCell struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRNGCell seeds a generator from two uint64 seeds (math/rand/v2's
// ChaCha8 source takes a 32-byte key; PCG takes two uint64s — PCG is used
// here since the scheme only needs a fast, reproducible stream, not a CSPRNG).
func NewRNGCell(seed1, seed2 uint64) *RNGCell {
	return &RNGCell{rng: rand.New(rand.NewPCG(seed1, seed2))}
}

// Float64 returns the next uniform float64 in [0, 1).
func (c *RNGCell) Float64() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rng.Float64()
}

// WeightedSampleWithoutReplacement draws up to n indices from
// weights (0-based, len(weights) candidates), each round picking
// index i with probability proportional to its remaining weight. Used by
// sample-k-proofs to choose which clauses survive a truncation.
func (c *RNGCell) WeightedSampleWithoutReplacement(weights []float64, n int) []int {
	c.mu.Lock()
	defer c.mu.Unlock()

	remaining := append([]float64(nil), weights...)
	chosen := make([]int, 0, n)
	available := len(weights)
	if n > available {
		n = available
	}
	for len(chosen) < n {
		total := 0.0
		for _, w := range remaining {
			if w >= 0 {
				total += w
			}
		}
		if total <= 0 {
			// All remaining weights are zero: fill the rest in index order.
			for i := range remaining {
				if remaining[i] >= 0 {
					chosen = append(chosen, i)
					remaining[i] = -1
					if len(chosen) == n {
						break
					}
				}
			}
			break
		}
		r := c.rng.Float64() * total
		acc := 0.0
		for i, w := range remaining {
			if w < 0 {
				continue
			}
			acc += w
			if r <= acc {
				chosen = append(chosen, i)
				remaining[i] = -1
				break
			}
		}
	}
	return chosen
}
