package executor

import (
	"context"

	"github.com/pouw-network/worker/internal/pouw/gemm"
)

// Reference is the scalar executor: a straightforward triple-nested loop
// over gemm.Compute, used for verification and as the fallback when no
// accelerator is configured.
type Reference struct{}

// NewReference constructs a Reference executor. It never fails to
// initialize, unlike Accelerator, since it requires no device.
func NewReference() *Reference {
	return &Reference{}
}

func (r *Reference) Name() string { return "reference" }

func (r *Reference) GemmQ8ReLU(ctx context.Context, a, b []int8, sizes Sizes, scaleNum, scaleDen int32) ([]int8, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	return gemm.Compute(a, b, int(sizes.M), int(sizes.N), int(sizes.K), scaleNum, scaleDen), nil
}
