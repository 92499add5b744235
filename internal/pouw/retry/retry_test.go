package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDoSucceedsWithoutRetry(t *testing.T) {
	calls := 0
	err := Do(context.Background(), DefaultConfig(), func() error {
		calls++
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 1, calls)
}

func TestDoRetriesThenSucceeds(t *testing.T) {
	calls := 0
	cfg := Config{MaxRetries: 3, Delay: time.Millisecond, BackoffMultiplier: 1, MaxDelay: time.Millisecond}
	err := Do(context.Background(), cfg, func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 3, calls)
}

func TestDoReturnsLastErrorAfterExhaustingRetries(t *testing.T) {
	calls := 0
	cfg := Config{MaxRetries: 2, Delay: time.Millisecond, BackoffMultiplier: 1, MaxDelay: time.Millisecond}
	err := Do(context.Background(), cfg, func() error {
		calls++
		return errors.New("permanent")
	})
	require.Error(t, err)
	require.Equal(t, 3, calls)
}

func TestDoRespectsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := Config{MaxRetries: 3, Delay: time.Second, BackoffMultiplier: 2, MaxDelay: time.Second}
	err := Do(ctx, cfg, func() error {
		return errors.New("fails")
	})
	require.Error(t, err)
}
