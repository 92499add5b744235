// Package weights generates the fixed reference weight matrices shared by
// every worker and aggregator. The generator is a placeholder for "baked
// in" weights: in a deployment that loads weights from a versioned file
// instead, this package's For function is the seam to replace, and
// kernel_ver is the tag that must change alongside it.
package weights

import (
	"sync"

	"github.com/pouw-network/worker/internal/pouw/prng"
)

// Set holds the process-wide W1 (k x n) and W2 (n x n) matrices for a given
// (k, n) shape. It is immutable once built.
type Set struct {
	K, N int
	W1   []int8 // k * n, row-major
	W2   []int8 // n * n, row-major
}

var (
	mu   sync.Mutex
	sets = map[[2]int]*Set{}
)

// For returns the reference weight matrices for the given (k, n) shape,
// generating and caching them the first time a shape is requested. The
// weight-generation PRNG is seeded independently of any per-attempt PRNG,
// from the fixed tag FIXED_WEIGHTS_V1, consumed W1 first then W2 so that
// every caller observing the same shape observes byte-identical matrices.
func For(k, n int) *Set {
	key := [2]int{k, n}

	mu.Lock()
	defer mu.Unlock()

	if s, ok := sets[key]; ok {
		return s
	}

	seed := prng.FixedWeightsSeed()
	gen := prng.FromSeed(seed)

	w1 := make([]int8, k*n)
	gen.FillI8(w1)

	w2 := make([]int8, n*n)
	gen.FillI8(w2)

	s := &Set{K: k, N: n, W1: w1, W2: w2}
	sets[key] = s
	return s
}
