// Package mixing applies the per-attempt permutation and sign-flip to the
// input matrix A and the first weight matrix W1. The transform leaves the
// algebraic product A*W1 unchanged but forces an executor to traverse
// arbitrary data patterns instead of a fixed, precomputable one.
package mixing

import (
	"github.com/pouw-network/worker/internal/pouw/prng"
)

// Transform holds the permutation and sign mask derived from one attempt
// seed.
type Transform struct {
	Perm []int   // pi: [0,k) -> [0,k)
	Sign []int8  // s[c] in {-1, +1}, indexed by original column c
}

// Derive builds the permutation and sign mask for a column count k from the
// 16-byte attempt seed: the permutation by forward Fisher-Yates driven by
// BLAKE3(seed16) expanded to 32 bytes, the sign mask by drawing k bits from
// a fresh PRNG seeded with the same seed16 (bit 0 -> +1, bit 1 -> -1).
func Derive(seed16 [16]byte, k int) Transform {
	expanded := prng.Expand32(seed16)
	perm := prng.ForwardFisherYates(expanded, k)

	signGen := prng.FromSeed(seed16)
	sign := make([]int8, k)
	for c := 0; c < k; c++ {
		if signGen.NextU32()&1 == 0 {
			sign[c] = 1
		} else {
			sign[c] = -1
		}
	}

	return Transform{Perm: perm, Sign: sign}
}

// flipSign negates v, except i8::MIN (-128) which has no representable
// negation and saturates to 127 instead.
func flipSign(v int8) int8 {
	if v == -128 {
		return 127
	}
	return -v
}

// ApplyA produces A', shape m x k, row-major: for each new column index j,
// with c = perm[j], A'[:, j] = sign[c] * A[:, c].
func (t Transform) ApplyA(a []int8, m, k int) []int8 {
	out := make([]int8, m*k)
	for j, c := range t.Perm {
		s := t.Sign[c]
		for r := 0; r < m; r++ {
			v := a[r*k+c]
			if s < 0 {
				v = flipSign(v)
			}
			out[r*k+j] = v
		}
	}
	return out
}

// ApplyW1 produces W1', shape k x n, row-major: for each new row index j,
// with c = perm[j], W1'[j, :] = sign[c] * W1[c, :].
func (t Transform) ApplyW1(w1 []int8, k, n int) []int8 {
	out := make([]int8, k*n)
	for j, c := range t.Perm {
		s := t.Sign[c]
		src := w1[c*n : c*n+n]
		dst := out[j*n : j*n+n]
		if s < 0 {
			for i, v := range src {
				dst[i] = flipSign(v)
			}
		} else {
			copy(dst, src)
		}
	}
	return out
}
