// Package autotune selects the tensor sizes used for every subsequent
// attempt, so the per-attempt wall-clock lands close to an operator-chosen
// target. It runs exactly once, at startup.
package autotune

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/pouw-network/worker/internal/pouw/attempt"
	"github.com/pouw-network/worker/internal/pouw/executor"
	"github.com/pouw-network/worker/internal/pouw/pouwerr"
)

// Fallback is used when no candidate completes.
var Fallback = executor.Sizes{M: 1024, N: 1024, K: 1024, Batch: 1}

// BuiltinLadder is the default candidate list when configuration supplies
// none: cube sizes from 512 to 1536.
func BuiltinLadder() []executor.Sizes {
	dims := []uint32{512, 768, 1024, 1280, 1536}
	out := make([]executor.Sizes, len(dims))
	for i, d := range dims {
		out[i] = executor.Sizes{M: d, N: d, K: d, Batch: 1}
	}
	return out
}

// ParsePresets parses the AUTOTUNE_PRESETS environment variable's
// "m,n,k;m,n,k;..." format.
func ParsePresets(raw string) ([]executor.Sizes, error) {
	var out []executor.Sizes
	for _, group := range strings.Split(raw, ";") {
		group = strings.TrimSpace(group)
		if group == "" {
			continue
		}
		parts := strings.Split(group, ",")
		if len(parts) != 3 {
			return nil, pouwerr.New(pouwerr.Validation, "autotune.ParsePresets", fmt.Errorf("preset %q must have exactly 3 comma-separated values", group))
		}
		var dims [3]uint64
		for i, p := range parts {
			v, err := strconv.ParseUint(strings.TrimSpace(p), 10, 32)
			if err != nil {
				return nil, pouwerr.New(pouwerr.Validation, "autotune.ParsePresets", fmt.Errorf("preset %q: %w", group, err))
			}
			dims[i] = v
		}
		out = append(out, executor.Sizes{M: uint32(dims[0]), N: uint32(dims[1]), K: uint32(dims[2]), Batch: 1})
	}
	return out, nil
}

// candidateResult pairs a candidate size with its measured elapsed time.
type candidateResult struct {
	sizes     executor.Sizes
	elapsedMS uint64
	order     int
}

// Select runs one attempt per candidate, with an incrementing nonce for
// deterministic variety, and picks the candidate whose elapsed_ms is
// closest to targetMS. Ties are broken by order of appearance. A candidate
// whose attempt fails is skipped; if none succeed, Fallback is returned.
func Select(ctx context.Context, exec executor.Executor, prevHash chainhash.Hash, targetMS uint64, presets []executor.Sizes) (executor.Sizes, error) {
	if len(presets) == 0 {
		presets = BuiltinLadder()
	}

	results := make([]candidateResult, 0, len(presets))
	for i, sizes := range presets {
		out, err := attempt.Run(ctx, exec, prevHash, uint32(i), sizes)
		if err != nil {
			log.Warnf("autotune candidate %d (%dx%dx%d) failed: %v", i, sizes.M, sizes.N, sizes.K, err)
			continue
		}
		results = append(results, candidateResult{sizes: sizes, elapsedMS: out.ElapsedMS, order: i})
	}

	if len(results) == 0 {
		log.Warnf("no autotune candidate completed, falling back to %dx%dx%d", Fallback.M, Fallback.N, Fallback.K)
		return Fallback, nil
	}

	sort.SliceStable(results, func(i, j int) bool {
		di := distance(results[i].elapsedMS, targetMS)
		dj := distance(results[j].elapsedMS, targetMS)
		if di != dj {
			return di < dj
		}
		return results[i].order < results[j].order
	})

	best := results[0]
	log.Infof("autotune selected %dx%dx%d (elapsed_ms=%d, target_ms=%d)", best.sizes.M, best.sizes.N, best.sizes.K, best.elapsedMS, targetMS)
	return best.sizes, nil
}

func distance(a, b uint64) uint64 {
	if a > b {
		return a - b
	}
	return b - a
}
