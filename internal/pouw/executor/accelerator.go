package executor

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/pouw-network/worker/internal/pouw/gemm"
	"github.com/pouw-network/worker/internal/pouw/pouwerr"
)

// Accelerator models a real OpenCL/CUDA device's 2-D global-work-size
// dispatch: the (m, n) output grid is partitioned into row tiles and
// computed across a worker pool, one goroutine per tile. No OpenCL or CUDA
// binding is available to a pure-Go build in this environment, so the
// "device" here is the machine's own CPU cores reached through goroutines
// rather than a kernel-compiled device context — the dispatch contract
// (grid partition, optional work-group sizing) is preserved even though the
// substrate is not a literal accelerator.
//
// Accelerator shares gemm.Compute's exact per-element arithmetic with
// Reference via gemm.ComputeRange, so the two backends are bit-exact by
// construction: the only difference between them is how the output grid is
// traversed, never how one element is computed.
type Accelerator struct {
	workers int
	hint    WorkGroupHint
}

// NewAccelerator discovers the "device" (here, the available CPU
// parallelism) and fails fast if none is usable, matching the spec's
// contract that accelerator initialization discovers one device and fails
// descriptively when unavailable.
func NewAccelerator(hint WorkGroupHint) (*Accelerator, error) {
	workers := runtime.NumCPU()
	if workers < 1 {
		return nil, pouwerr.New(pouwerr.Compute, "executor.NewAccelerator", fmt.Errorf("no usable compute device: runtime.NumCPU() = %d", workers))
	}
	log.Debugf("accelerator executor initialized with %d workers, hint=%+v", workers, hint)
	return &Accelerator{workers: workers, hint: hint}, nil
}

func (a *Accelerator) Name() string { return "accelerator" }

func (a *Accelerator) GemmQ8ReLU(ctx context.Context, in, b []int8, sizes Sizes, scaleNum, scaleDen int32) ([]int8, error) {
	m, n, k := int(sizes.M), int(sizes.N), int(sizes.K)
	y := make([]int8, m*n)

	rowTile := a.rowTileSize(m)
	if rowTile < 1 {
		rowTile = 1
	}

	var wg sync.WaitGroup

	for rowStart := 0; rowStart < m; rowStart += rowTile {
		rowEnd := rowStart + rowTile
		if rowEnd > m {
			rowEnd = m
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		wg.Add(1)
		go func(rowStart, rowEnd int) {
			defer wg.Done()
			gemm.ComputeRange(in, b, m, n, k, scaleNum, scaleDen, rowStart, rowEnd, y)
		}(rowStart, rowEnd)
	}

	wg.Wait()
	return y, nil
}

// rowTileSize picks how many rows each dispatched goroutine computes. WG_M,
// when set, is honored as an explicit tile height; otherwise rows are
// divided evenly across the discovered worker count.
func (a *Accelerator) rowTileSize(m int) int {
	if a.hint.M > 0 {
		return a.hint.M
	}
	if a.workers <= 0 {
		return m
	}
	tile := (m + a.workers - 1) / a.workers
	if tile < 1 {
		return 1
	}
	return tile
}
