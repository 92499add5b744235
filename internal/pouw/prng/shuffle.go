package prng

import "encoding/binary"

// shuffleSource is the RNG driving Fisher-Yates shuffles (both the mixing
// permutation and the attempt's output sampling). It is a SplitMix64
// stream, chosen because it needs no warm-up and is trivially reproducible
// from a 32-byte seed, unlike general-purpose library RNGs whose internal
// state layout is not part of any public contract.
type shuffleSource struct {
	state uint64
}

func newShuffleSource(seed32 [32]byte) *shuffleSource {
	// Fold the 32-byte expansion into a single 64-bit seed by XORing its
	// four 8-byte lanes, keeping every input byte significant.
	var s uint64
	for i := 0; i < 4; i++ {
		s ^= binary.LittleEndian.Uint64(seed32[i*8 : i*8+8])
	}
	return &shuffleSource{state: s}
}

func (sm *shuffleSource) nextU64() uint64 {
	sm.state += 0x9e3779b97f4a7c15
	z := sm.state
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

// genRange returns a uniformly-ish distributed value in [lo, hi) via
// Lemire-free modulo reduction; n here is at most m*n (a few million for
// the largest autotune sizes), tiny next to 2^64, so the modulo bias is
// negligible and immaterial to the determinism contract.
func (sm *shuffleSource) genRange(lo, hi int) int {
	span := uint64(hi - lo)
	return lo + int(sm.nextU64()%span)
}

// ForwardFisherYates shuffles the identity permutation of [0, n) in place
// using the forward variant pinned by the spec: for i from 0 to n-1, swap
// i with a draw from [i, n).
func ForwardFisherYates(seed32 [32]byte, n int) []int {
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	src := newShuffleSource(seed32)
	for i := 0; i < n; i++ {
		j := src.genRange(i, n)
		perm[i], perm[j] = perm[j], perm[i]
	}
	return perm
}
