package ratelimit

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestTokensGrantedBoundedByRate checks testable property 10: over an
// interval T, the number of tokens granted is <= ceil(T * rate), plus one
// for the burst token the limiter starts with.
func TestTokensGrantedBoundedByRate(t *testing.T) {
	const ratePerSecond = 20.0
	lim := New(ratePerSecond)

	ctx, cancel := context.WithTimeout(context.Background(), 210*time.Millisecond)
	defer cancel()

	granted := 0
	start := time.Now()
	for {
		if err := lim.Wait(ctx); err != nil {
			break
		}
		granted++
	}
	elapsed := time.Since(start)

	maxAllowed := int(math.Ceil(elapsed.Seconds()*ratePerSecond)) + 1 // +1 for the initial burst token
	require.LessOrEqual(t, granted, maxAllowed)
}
