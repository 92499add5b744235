package submit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pouw-network/worker/internal/pouw/receipt"
	"github.com/pouw-network/worker/internal/pouw/retry"
)

func testRetryConfig() retry.Config {
	return retry.Config{MaxRetries: 2, Delay: time.Millisecond, BackoffMultiplier: 1, MaxDelay: time.Millisecond}
}

func TestSubmitSuccess(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := New(srv.URL, testRetryConfig(), 5, time.Minute)
	err := s.Submit(context.Background(), receipt.WorkReceipt{DeviceDID: "d1", Nonce: 1})
	require.NoError(t, err)
	require.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestSubmitRetriesOnServerError(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		if n < 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := New(srv.URL, testRetryConfig(), 5, time.Minute)
	err := s.Submit(context.Background(), receipt.WorkReceipt{DeviceDID: "d1", Nonce: 1})
	require.NoError(t, err)
	require.GreaterOrEqual(t, atomic.LoadInt32(&calls), int32(2))
}

func TestSubmitOpensBreakerAfterRepeatedFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	s := New(srv.URL, testRetryConfig(), 1, time.Minute)
	err := s.Submit(context.Background(), receipt.WorkReceipt{DeviceDID: "d1", Nonce: 1})
	require.Error(t, err)
	require.Equal(t, "open", s.BreakerState())

	err = s.Submit(context.Background(), receipt.WorkReceipt{DeviceDID: "d1", Nonce: 2})
	require.Error(t, err)
}

func TestSubmitDeduplicatesSameNonce(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := New(srv.URL, testRetryConfig(), 5, time.Minute)
	r := receipt.WorkReceipt{DeviceDID: "d1", Nonce: 42}

	require.NoError(t, s.Submit(context.Background(), r))
	require.NoError(t, s.Submit(context.Background(), r))
	require.Equal(t, int32(1), atomic.LoadInt32(&calls))
}
