// Package signer produces and verifies the secp256k1 signature binding a
// WorkReceipt to the worker that claims to have computed it.
package signer

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"lukechampine.com/blake3"

	"github.com/pouw-network/worker/internal/pouw/pouwerr"
	"github.com/pouw-network/worker/internal/pouw/receipt"
)

// Signer holds a secp256k1 signing key in memory for the worker's
// lifetime. The key is never logged and never serialized outside Sign.
type Signer struct {
	key *btcec.PrivateKey
}

// FromHex constructs a Signer from a 64-character hex-encoded 32-byte
// secp256k1 scalar.
func FromHex(skHex string) (*Signer, error) {
	if len(skHex) != 64 {
		return nil, pouwerr.New(pouwerr.Validation, "signer.FromHex", fmt.Errorf("WORKER_SK_HEX must be 64 hex characters, got %d", len(skHex)))
	}
	raw, err := hex.DecodeString(skHex)
	if err != nil {
		return nil, pouwerr.New(pouwerr.Validation, "signer.FromHex", fmt.Errorf("decoding WORKER_SK_HEX: %w", err))
	}
	key, _ := btcec.PrivKeyFromBytes(raw)
	if key == nil {
		return nil, pouwerr.New(pouwerr.Validation, "signer.FromHex", fmt.Errorf("invalid secp256k1 scalar"))
	}
	return &Signer{key: key}, nil
}

// Digest computes SHA256(BLAKE3(canonical_json_with_empty_sig)), the
// 32-byte message the secp256k1 signature covers. BLAKE3 is fast and
// collision-resistant for this domain; SHA-256 is the prehash format
// secp256k1 signing libraries universally accept.
func Digest(r receipt.WorkReceipt) ([32]byte, error) {
	canon, err := r.CanonicalJSON()
	if err != nil {
		return [32]byte{}, pouwerr.New(pouwerr.Internal, "signer.Digest", err)
	}
	b3 := blake3.Sum256(canon)
	return sha256.Sum256(b3[:]), nil
}

// Sign fills r.SigHex with the hex-encoded, 64-byte compact (r || s)
// signature over Digest(r), using deterministic RFC6979 ECDSA. It returns a
// copy; the input receipt is never mutated.
func (s *Signer) Sign(r receipt.WorkReceipt) (receipt.WorkReceipt, error) {
	digest, err := Digest(r)
	if err != nil {
		return receipt.WorkReceipt{}, err
	}

	sig := ecdsa.Sign(s.key, digest[:])

	rBytes := sig.R().Bytes()
	sBytes := sig.S().Bytes()

	var compact [64]byte
	copy(compact[32-len(rBytes):32], rBytes[:])
	copy(compact[64-len(sBytes):64], sBytes[:])

	r.SigHex = hex.EncodeToString(compact[:])
	return r, nil
}

// PublicKeyHex returns the compressed, hex-encoded public key corresponding
// to s, for operators to register out-of-band against device_did.
func (s *Signer) PublicKeyHex() string {
	return hex.EncodeToString(s.key.PubKey().SerializeCompressed())
}

// Verify checks that r.SigHex is a valid signature over Digest(r) with
// sig_hex cleared, under pubKey.
func Verify(r receipt.WorkReceipt, pubKey *btcec.PublicKey) (bool, error) {
	sigBytes, err := hex.DecodeString(r.SigHex)
	if err != nil {
		return false, pouwerr.New(pouwerr.Validation, "signer.Verify", fmt.Errorf("decoding sig_hex: %w", err))
	}
	if len(sigBytes) != 64 {
		return false, pouwerr.New(pouwerr.Validation, "signer.Verify", fmt.Errorf("sig_hex must decode to 64 bytes, got %d", len(sigBytes)))
	}

	var rScalar, sScalar btcec.ModNScalar
	rScalar.SetByteSlice(sigBytes[:32])
	sScalar.SetByteSlice(sigBytes[32:])
	sig := ecdsa.NewSignature(&rScalar, &sScalar)

	digest, err := Digest(r)
	if err != nil {
		return false, err
	}

	return sig.Verify(digest[:], pubKey), nil
}
