// Package receipt defines the structured work attestation submitted to the
// aggregator and its canonical serialization.
package receipt

import "encoding/json"

// Sizes mirrors the attempt's tensor shape for inclusion in a receipt.
type Sizes struct {
	M     uint32 `json:"m"`
	N     uint32 `json:"n"`
	K     uint32 `json:"k"`
	Batch uint32 `json:"batch"`
}

// WorkReceipt is the structured, signed attestation that a worker performed
// a specific attempt. Field order is fixed and is the canonical order:
// encoding/json marshals struct fields in declaration order, so this order
// is itself the canonicalization contract — no custom ordered-map encoder
// is needed.
type WorkReceipt struct {
	DeviceDID   string `json:"device_did"`
	EpochID     uint64 `json:"epoch_id"`
	PrevHashHex string `json:"prev_hash_hex"`
	Nonce       uint32 `json:"nonce"`
	WorkRootHex string `json:"work_root_hex"`
	Sizes       Sizes  `json:"sizes"`
	TimeMS      uint64 `json:"time_ms"`
	KernelVer   string `json:"kernel_ver"`
	DriverHint  string `json:"driver_hint"`
	SigHex      string `json:"sig_hex"`
}

// KernelVer identifies the exact compute contract: the quantized GEMM+ReLU
// arithmetic, the mixing rules, and the fixed weights. Any change to any of
// those three requires bumping this tag.
const KernelVer = "gemm_int8_relu_q_v1"

// CanonicalJSON serializes r with SigHex forced to empty, the exact bytes
// the signer hashes to produce the signing digest. It must never be called
// on a receipt whose other fields will change afterward: the contract is
// sign-once, never-mutate.
func (r WorkReceipt) CanonicalJSON() ([]byte, error) {
	r.SigHex = ""
	return json.Marshal(r)
}
