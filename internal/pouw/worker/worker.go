// Package worker drives the cooperative loop over nonces: acquire a
// rate-limit token, run one attempt, sign the receipt, hand it to the
// submitter on its own goroutine, and continue regardless of whether that
// submission succeeds.
package worker

import (
	"context"
	"encoding/hex"
	"sync/atomic"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/pouw-network/worker/internal/pouw/attempt"
	"github.com/pouw-network/worker/internal/pouw/executor"
	"github.com/pouw-network/worker/internal/pouw/health"
	"github.com/pouw-network/worker/internal/pouw/pouwerr"
	"github.com/pouw-network/worker/internal/pouw/ratelimit"
	"github.com/pouw-network/worker/internal/pouw/receipt"
	"github.com/pouw-network/worker/internal/pouw/signer"
	"github.com/pouw-network/worker/internal/pouw/submit"
)

// Params bundles everything one Loop needs; all fields are required.
type Params struct {
	Executor  executor.Executor
	Signer    *signer.Signer
	Submitter *submit.Submitter
	Limiter   *ratelimit.Limiter
	Health    *health.Server

	DeviceDID string
	EpochID   uint64
	Sizes     executor.Sizes
}

// Loop runs attempts with strictly increasing nonces, starting from
// startNonce, until ctx is canceled. A failed attempt or failed submission
// is logged, counted, and never stops the loop.
type Loop struct {
	p Params

	// hashesCompleted mirrors the teacher's atomic attempt counter,
	// exposed for diagnostics beyond what the health server already tracks.
	hashesCompleted uint64
}

// New constructs a Loop.
func New(p Params) *Loop {
	return &Loop{p: p}
}

// Run blocks until ctx is canceled, running one attempt per rate-limited
// iteration starting at startNonce and incrementing strictly.
func (l *Loop) Run(ctx context.Context, startNonce uint32, prevHash chainhash.Hash) error {
	nonce := startNonce

	for {
		if err := l.p.Limiter.Wait(ctx); err != nil {
			return ctx.Err()
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		l.runOnce(ctx, prevHash, nonce)
		nonce++
	}
}

func (l *Loop) runOnce(ctx context.Context, prevHash chainhash.Hash, nonce uint32) {
	out, err := attempt.Run(ctx, l.p.Executor, prevHash, nonce, l.p.Sizes)
	if err != nil {
		log.Errorf("attempt nonce=%d failed: %v", nonce, pouwerr.New(pouwerr.Compute, "worker.runOnce", err))
		l.p.Health.Observe(false, 0, pouwerr.Compute)
		return
	}

	atomic.AddUint64(&l.hashesCompleted, 1)

	r := receipt.WorkReceipt{
		DeviceDID:   l.p.DeviceDID,
		EpochID:     l.p.EpochID,
		PrevHashHex: hex.EncodeToString(prevHash[:]),
		Nonce:       nonce,
		WorkRootHex: hex.EncodeToString(out.WorkRoot[:]),
		Sizes: receipt.Sizes{
			M:     l.p.Sizes.M,
			N:     l.p.Sizes.N,
			K:     l.p.Sizes.K,
			Batch: l.p.Sizes.Batch,
		},
		TimeMS:     out.ElapsedMS,
		KernelVer:  receipt.KernelVer,
		DriverHint: l.p.Executor.Name(),
	}

	signed, err := l.p.Signer.Sign(r)
	if err != nil {
		log.Errorf("signing nonce=%d failed: %v", nonce, pouwerr.New(pouwerr.Signature, "worker.runOnce", err))
		l.p.Health.Observe(false, out.ElapsedMS, pouwerr.Signature)
		return
	}

	l.p.Health.Observe(true, out.ElapsedMS, pouwerr.Compute)

	// Submission runs on its own goroutine: the receipt is immutable, so
	// handing it off needs no further synchronization.
	go func(r receipt.WorkReceipt) {
		if err := l.p.Submitter.Submit(context.Background(), r); err != nil {
			log.Warnf("submission nonce=%d failed: %v", r.Nonce, err)
		}
	}(signed)
}

// HashesCompleted returns the number of attempts that produced a signed
// receipt, regardless of submission outcome.
func (l *Loop) HashesCompleted() uint64 {
	return atomic.LoadUint64(&l.hashesCompleted)
}
