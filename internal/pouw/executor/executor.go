// Package executor provides the pluggable backend for the quantized GEMM
// primitive. The interface is a single capability, matching the spec's
// choice of a capability set of one over an inheritance tree of device
// abstractions: any variant just needs to compute gemm_q8_relu, and the
// worker dispatches to whichever variant was selected at construction.
package executor

import (
	"context"
)

// Sizes is the shape of one GEMM call.
type Sizes struct {
	M, N, K, Batch uint32
}

// Executor is the polymorphic compute primitive. Any two implementations
// must produce byte-identical output for identical inputs, including
// rounding.
type Executor interface {
	// GemmQ8ReLU computes Y = clamp(ReLU(quantize(A*B, num, den))), A shape
	// m x k, B shape k x n, Y shape m x n.
	GemmQ8ReLU(ctx context.Context, a, b []int8, sizes Sizes, scaleNum, scaleDen int32) ([]int8, error)
	// Name identifies the backend family for the receipt's driver_hint.
	Name() string
}

// WorkGroupHint carries the optional backend tuning knobs from
// configuration (WG_M, WG_N, TK). These affect only how the Accelerator
// backend partitions work, never the arithmetic result.
type WorkGroupHint struct {
	M, N, TK int
}
