// Package submit posts signed work receipts to the external aggregator. It
// is the one package in this tree that talks to the network, so it owns
// the retry/circuit-breaker/dedup stack around a single http.Client, the
// same shape liquidity/attestor.go uses for attestor HTTP calls.
package submit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/decred/dcrd/lru"

	"github.com/pouw-network/worker/internal/pouw/breaker"
	"github.com/pouw-network/worker/internal/pouw/pouwerr"
	"github.com/pouw-network/worker/internal/pouw/receipt"
	"github.com/pouw-network/worker/internal/pouw/retry"
)

// Submitter posts receipts to the aggregator over HTTP.
type Submitter struct {
	httpClient *http.Client
	url        string
	retryCfg   retry.Config
	breaker    *breaker.Breaker

	// recent deduplicates receipts the caller accidentally hands to Submit
	// twice for the same (device_did, nonce) pair, e.g. after a retried
	// caller-side operation; it is a convenience, not a correctness
	// requirement, since the aggregator is the authority on duplicates.
	recent *lru.Cache
}

// New constructs a Submitter posting to url.
func New(url string, retryCfg retry.Config, failureThreshold int, recoveryTimeout time.Duration) *Submitter {
	return &Submitter{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		url:        url,
		retryCfg:   retryCfg,
		breaker:    breaker.New(failureThreshold, recoveryTimeout),
		recent:     lru.NewCache(4096),
	}
}

// Submit POSTs r as JSON to the aggregator, retrying with backoff and
// gated by the circuit breaker. Success is any 2xx response; anything else
// is a pouwerr.Network failure.
func (s *Submitter) Submit(ctx context.Context, r receipt.WorkReceipt) error {
	dedupKey := fmt.Sprintf("%s:%d", r.DeviceDID, r.Nonce)
	if s.recent.Contains(dedupKey) {
		log.Debugf("skipping duplicate submission for %s", dedupKey)
		return nil
	}

	if !s.breaker.Allow() {
		return pouwerr.New(pouwerr.Network, "submit.Submit", fmt.Errorf("circuit breaker open (state=%s)", s.breaker.State()))
	}

	body, err := json.Marshal(r)
	if err != nil {
		return pouwerr.New(pouwerr.Internal, "submit.Submit", err)
	}

	err = retry.Do(ctx, s.retryCfg, func() error {
		return s.post(ctx, body)
	})
	if err != nil {
		s.breaker.RecordFailure()
		return pouwerr.New(pouwerr.Network, "submit.Submit", err)
	}

	s.breaker.RecordSuccess()
	s.recent.Add(dedupKey)
	return nil
}

func (s *Submitter) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("aggregator returned status %d", resp.StatusCode)
	}
	return nil
}

// BreakerState reports the circuit breaker's current state for the health
// endpoint.
func (s *Submitter) BreakerState() string {
	return s.breaker.State()
}
