package attempt

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pouw-network/worker/internal/pouw/executor"
)

func TestRunIsDeterministic(t *testing.T) {
	ref := executor.NewReference()
	var prevHash [32]byte
	for i := range prevHash {
		prevHash[i] = 0x11
	}
	sizes := executor.Sizes{M: 8, N: 8, K: 8, Batch: 1}

	out1, err := Run(context.Background(), ref, prevHash, 7, sizes)
	require.NoError(t, err)
	out2, err := Run(context.Background(), ref, prevHash, 7, sizes)
	require.NoError(t, err)

	require.Equal(t, out1.WorkRoot, out2.WorkRoot)
	require.Equal(t, out1.Y2Samples, out2.Y2Samples)
}

func TestRunDiffersByNonce(t *testing.T) {
	ref := executor.NewReference()
	var prevHash [32]byte
	sizes := executor.Sizes{M: 8, N: 8, K: 8, Batch: 1}

	out1, err := Run(context.Background(), ref, prevHash, 1, sizes)
	require.NoError(t, err)
	out2, err := Run(context.Background(), ref, prevHash, 2, sizes)
	require.NoError(t, err)

	require.NotEqual(t, out1.WorkRoot, out2.WorkRoot)
}

// TestRunBackendEquivalence is scenario S6 at the attempt level: the same
// (prev_hash, nonce, sizes) must yield the same work_root regardless of
// backend.
func TestRunBackendEquivalence(t *testing.T) {
	ref := executor.NewReference()
	acc, err := executor.NewAccelerator(executor.WorkGroupHint{})
	require.NoError(t, err)

	var prevHash [32]byte
	for i := range prevHash {
		prevHash[i] = byte(i)
	}
	sizes := executor.Sizes{M: 64, N: 64, K: 64, Batch: 1}

	refOut, err := Run(context.Background(), ref, prevHash, 0, sizes)
	require.NoError(t, err)
	accOut, err := Run(context.Background(), acc, prevHash, 0, sizes)
	require.NoError(t, err)

	require.Equal(t, refOut.WorkRoot, accOut.WorkRoot)
}

func TestSampleCountCappedByOutputSize(t *testing.T) {
	ref := executor.NewReference()
	var prevHash [32]byte
	sizes := executor.Sizes{M: 2, N: 2, K: 2, Batch: 1}

	out, err := Run(context.Background(), ref, prevHash, 0, sizes)
	require.NoError(t, err)
	require.Len(t, out.Y2Samples, 4) // m*n = 4 < SampleCount
}
