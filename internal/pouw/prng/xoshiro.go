// Package prng implements the deterministic byte stream the worker uses to
// generate attempt inputs and reference weights. The generator is
// xoshiro128++, a 128-bit-state, 32-bit-output generator chosen for its
// speed and for being unambiguous to reimplement bit-for-bit in any
// language: the same 16-byte seed must always yield the same infinite
// output stream, in this implementation or any other.
package prng

import "math/bits"

// State is xoshiro128++'s 128-bit state, held as four 32-bit words.
type State struct {
	s [4]uint32
}

// FromSeed constructs a generator from a 16-byte seed, reading each state
// word as little-endian. A seed of all zeros is not a valid xoshiro128++
// state (the generator never leaves zero), so it is expanded instead via
// SplitMix64 seeded with zero (each output truncated to 32 bits), matching the behavior of reference xoshiro
// implementations that special-case the zero seed.
func FromSeed(seed [16]byte) *State {
	st := &State{}
	allZero := true
	for _, b := range seed {
		if b != 0 {
			allZero = false
			break
		}
	}
	if allZero {
		sm := splitMix64(0)
		for i := range st.s {
			st.s[i] = uint32(sm())
		}
		return st
	}
	for i := 0; i < 4; i++ {
		st.s[i] = uint32(seed[4*i]) | uint32(seed[4*i+1])<<8 | uint32(seed[4*i+2])<<16 | uint32(seed[4*i+3])<<24
	}
	return st
}

// splitMix64 returns a closure producing the standard SplitMix64 stream,
// used only to expand a degenerate all-zero seed into a valid xoshiro state.
func splitMix64(seed uint64) func() uint64 {
	state := seed
	return func() uint64 {
		state += 0x9e3779b97f4a7c15
		z := state
		z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
		z = (z ^ (z >> 27)) * 0x94d049bb133111eb
		z = z ^ (z >> 31)
		return z
	}
}

// NextU32 advances the generator and returns the next 32-bit output, using
// the "++" scrambler: rotl(s0+s3, 7) + s0.
func (st *State) NextU32() uint32 {
	s0, s1, s2, s3 := st.s[0], st.s[1], st.s[2], st.s[3]

	result := bits.RotateLeft32(s0+s3, 7) + s0

	t := s1 << 9

	s2 ^= s0
	s3 ^= s1
	s1 ^= s2
	s0 ^= s3
	s2 ^= t
	s3 = bits.RotateLeft32(s3, 11)

	st.s[0], st.s[1], st.s[2], st.s[3] = s0, s1, s2, s3
	return result
}

// NextI8 returns the low byte of NextU32, reinterpreted as a signed 8-bit
// integer.
func (st *State) NextI8() int8 {
	return int8(st.NextU32())
}

// FillI8 fills dst with successive NextI8 outputs.
func (st *State) FillI8(dst []int8) {
	for i := range dst {
		dst[i] = st.NextI8()
	}
}
