// Package attempt drives the ten-step pipeline from a (prev_hash, nonce,
// sizes) triple to a committed work root: derive the seed, generate inputs
// and weights, mix, run the two quantized GEMM layers, sample the final
// output deterministically, and hash the result into work_root.
package attempt

import (
	"context"
	"encoding/binary"
	"time"

	"lukechampine.com/blake3"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/pouw-network/worker/internal/pouw/executor"
	"github.com/pouw-network/worker/internal/pouw/mixing"
	"github.com/pouw-network/worker/internal/pouw/prng"
	"github.com/pouw-network/worker/internal/pouw/weights"
)

// SampleCount is S in spec terms: the number of Y2 elements carried into
// the work root.
const SampleCount = 256

// ScaleNum and ScaleDen are the protocol's fixed requantization scale.
const (
	ScaleNum int32 = 1
	ScaleDen int32 = 256
)

// Output is the result of one attempt.
type Output struct {
	WorkRoot  [32]byte
	ElapsedMS uint64
	Y1Samples []int8 // the full Y1 output (m x n); unused by the commitment, kept for diagnostics
	Y2Samples []int8
}

// Run executes one attempt: a pure function of (executor, prevHash, nonce,
// sizes) except for the wall-clock elapsed_ms measurement, which brackets
// only the two GEMM calls.
func Run(ctx context.Context, exec executor.Executor, prevHash chainhash.Hash, nonce uint32, sizes executor.Sizes) (*Output, error) {
	m, n, k := int(sizes.M), int(sizes.N), int(sizes.K)

	// 1. Derive the per-attempt seed.
	seed := prng.DeriveSeed([32]byte(prevHash), nonce)

	// 2. Generate A (m x k) from the per-attempt PRNG.
	gen := prng.FromSeed(seed)
	a := make([]int8, m*k)
	gen.FillI8(a)

	// 3. Generate W1 (k x n) then W2 (n x n) from the fixed weight seed,
	// independent of the per-attempt PRNG.
	w := weights.For(k, n)

	// 4. Build (pi, s) and transform A, W1.
	tr := mixing.Derive(seed, k)
	aPrime := tr.ApplyA(a, m, k)
	w1Prime := tr.ApplyW1(w.W1, k, n)

	// 5. Start the wall-clock timer.
	start := time.Now()

	// 6. Y1 = gemm_q8_relu(A', W1', m, n, k, 1, 256).
	y1, err := exec.GemmQ8ReLU(ctx, aPrime, w1Prime, sizes, ScaleNum, ScaleDen)
	if err != nil {
		return nil, err
	}

	// 7. Y2 = gemm_q8_relu(Y1, W2, m, n, n, 1, 256).
	y2Sizes := executor.Sizes{M: sizes.M, N: sizes.N, K: sizes.N, Batch: sizes.Batch}
	y2, err := exec.GemmQ8ReLU(ctx, y1, w.W2, y2Sizes, ScaleNum, ScaleDen)
	if err != nil {
		return nil, err
	}

	// 8. Stop the timer.
	elapsedMS := uint64(time.Since(start).Milliseconds())

	// 9. Shuffle [0, m*n) and take the first S indices to sample Y2.
	expanded := prng.Expand32(seed)
	indices := prng.ForwardFisherYates(expanded, m*n)
	sampleN := SampleCount
	if sampleN > len(indices) {
		sampleN = len(indices)
	}
	samples := make([]int8, sampleN)
	for i := 0; i < sampleN; i++ {
		samples[i] = y2[indices[i]]
	}

	// 10. work_root = H(samples || LE64(m) || LE64(n) || LE64(k)).
	workRoot := commit(samples, m, n, k)

	return &Output{
		WorkRoot:  workRoot,
		ElapsedMS: elapsedMS,
		Y1Samples: y1,
		Y2Samples: samples,
	}, nil
}

// commit hashes the sampled bytes together with the little-endian,
// fixed-8-byte-width sizes, so the work root agrees across platforms
// regardless of native word size.
func commit(samples []int8, m, n, k int) [32]byte {
	h := blake3.New(32, nil)

	raw := make([]byte, len(samples))
	for i, v := range samples {
		raw[i] = byte(v)
	}
	h.Write(raw)

	var sizeBuf [8]byte
	binary.LittleEndian.PutUint64(sizeBuf[:], uint64(m))
	h.Write(sizeBuf[:])
	binary.LittleEndian.PutUint64(sizeBuf[:], uint64(n))
	h.Write(sizeBuf[:])
	binary.LittleEndian.PutUint64(sizeBuf[:], uint64(k))
	h.Write(sizeBuf[:])

	sum := h.Sum(nil)
	var out [32]byte
	copy(out[:], sum)
	return out
}
