package prng

import (
	"encoding/binary"

	"lukechampine.com/blake3"
)

// FixedWeightsTag is the domain-separation tag hashed to produce the
// process-wide reference-weight seed. Any change to this tag is a change to
// the compute contract and requires a new kernel_ver.
const FixedWeightsTag = "FIXED_WEIGHTS_V1"

// DeriveSeed combines a 32-byte previous-attestation hash and a nonce into
// the 16-byte per-attempt seed: the first 16 bytes of
// BLAKE3(prevHash || LE32(nonce)).
func DeriveSeed(prevHash [32]byte, nonce uint32) [16]byte {
	var nonceBytes [4]byte
	binary.LittleEndian.PutUint32(nonceBytes[:], nonce)

	h := blake3.New(32, nil)
	h.Write(prevHash[:])
	h.Write(nonceBytes[:])
	sum := h.Sum(nil)

	var seed [16]byte
	copy(seed[:], sum[:16])
	return seed
}

// DeriveTagSeed hashes a plain ASCII tag with BLAKE3 and returns its first
// 16 bytes, the same construction used to derive the fixed weight seed.
func DeriveTagSeed(tag string) [16]byte {
	h := blake3.New(32, nil)
	h.Write([]byte(tag))
	sum := h.Sum(nil)

	var seed [16]byte
	copy(seed[:], sum[:16])
	return seed
}

// Expand32 hashes a 16-byte seed with BLAKE3 into a 32-byte digest, used to
// seed the SplitMix64 source behind the Fisher-Yates permutation and the
// sample shuffle in the attempt pipeline (spec calls this H(seed16) -> 32 bytes).
func Expand32(seed16 [16]byte) [32]byte {
	h := blake3.New(32, nil)
	h.Write(seed16[:])
	sum := h.Sum(nil)

	var out [32]byte
	copy(out[:], sum)
	return out
}

// FixedWeightsSeed is the fixed 16-byte seed for W1/W2 generation.
func FixedWeightsSeed() [16]byte {
	return DeriveTagSeed(FixedWeightsTag)
}
