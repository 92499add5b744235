package mixing

import (
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// dot computes A (m x k) * B (k x n) in 64-bit signed arithmetic, matching
// the accumulation the quantized GEMM uses internally but without the
// requantization step, for comparing raw products under mixing.
func dot(a, b []int8, m, n, k int) []int64 {
	out := make([]int64, m*n)
	for r := 0; r < m; r++ {
		for c := 0; c < n; c++ {
			var acc int64
			for t := 0; t < k; t++ {
				acc += int64(a[r*k+t]) * int64(b[t*n+c])
			}
			out[r*n+c] = acc
		}
	}
	return out
}

func TestMixingPreservesProduct(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		k := rapid.IntRange(1, 12).Draw(t, "k")
		m := rapid.IntRange(1, 6).Draw(t, "m")
		n := rapid.IntRange(1, 6).Draw(t, "n")

		a := make([]int8, m*k)
		for i := range a {
			v := rapid.IntRange(-127, 127).Draw(t, "a_elem")
			a[i] = int8(v)
		}
		w1 := make([]int8, k*n)
		for i := range w1 {
			v := rapid.IntRange(-127, 127).Draw(t, "w1_elem")
			w1[i] = int8(v)
		}

		var seed [16]byte
		for i := range seed {
			seed[i] = byte(rapid.IntRange(0, 255).Draw(t, "seed_byte"))
		}

		tr := Derive(seed, k)
		aPrime := tr.ApplyA(a, m, k)
		w1Prime := tr.ApplyW1(w1, k, n)

		require.Equal(t, dot(a, w1, m, n, k), dot(aPrime, w1Prime, m, n, k))
	})
}

func TestSignFlipSaturatesMinInt8(t *testing.T) {
	require.Equal(t, int8(127), flipSign(-128))
	require.Equal(t, int8(-5), flipSign(5))
	require.Equal(t, int8(5), flipSign(-5))
}

func TestDerivePermutationIsBijection(t *testing.T) {
	seed := [16]byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}
	tr := Derive(seed, 32)

	seen := make(map[int]bool)
	for _, c := range tr.Perm {
		require.False(t, seen[c])
		seen[c] = true
	}
	require.Len(t, tr.Perm, 32)
}
