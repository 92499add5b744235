package autotune

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pouw-network/worker/internal/pouw/executor"
)

// mockedExecutor's elapsed_ms is a fixed function of (m, n, k): each GEMM
// call sleeps for M*100 microseconds, so differences are measurable, and
// otherwise delegates to the reference backend for correctness.
type mockedExecutor struct {
	ref *executor.Reference
}

func (m *mockedExecutor) Name() string { return "mocked" }

func (m *mockedExecutor) GemmQ8ReLU(ctx context.Context, a, b []int8, sizes executor.Sizes, num, den int32) ([]int8, error) {
	time.Sleep(time.Duration(sizes.M) * 100 * time.Microsecond)
	return m.ref.GemmQ8ReLU(ctx, a, b, sizes, num, den)
}

func TestSelectPicksClosestToTarget(t *testing.T) {
	exec := &mockedExecutor{ref: executor.NewReference()}

	presets := []executor.Sizes{
		{M: 2, N: 2, K: 2, Batch: 1},
		{M: 5, N: 2, K: 2, Batch: 1},
		{M: 20, N: 2, K: 2, Batch: 1},
	}

	var prevHash [32]byte
	// Target 1ms: an attempt makes two GEMM calls, so M=2 takes ~0.4ms
	// (0ms), M=5 ~1ms and M=20 ~4ms; M=5 is closest.
	sizes, err := Select(context.Background(), exec, prevHash, 1, presets)
	require.NoError(t, err)
	require.Equal(t, presets[1], sizes)
}

func TestSelectFallsBackWhenAllCandidatesFail(t *testing.T) {
	exec := &alwaysFailExecutor{}
	var prevHash [32]byte

	sizes, err := Select(context.Background(), exec, prevHash, 100, BuiltinLadder())
	require.NoError(t, err)
	require.Equal(t, Fallback, sizes)
}

type alwaysFailExecutor struct{}

func (alwaysFailExecutor) Name() string { return "always-fail" }
func (alwaysFailExecutor) GemmQ8ReLU(ctx context.Context, a, b []int8, sizes executor.Sizes, num, den int32) ([]int8, error) {
	return nil, context.DeadlineExceeded
}

func TestParsePresets(t *testing.T) {
	sizes, err := ParsePresets("512,512,512;1024,1024,1024")
	require.NoError(t, err)
	require.Equal(t, []executor.Sizes{
		{M: 512, N: 512, K: 512, Batch: 1},
		{M: 1024, N: 1024, K: 1024, Batch: 1},
	}, sizes)
}

func TestParsePresetsRejectsMalformed(t *testing.T) {
	_, err := ParsePresets("512,512")
	require.Error(t, err)
}
