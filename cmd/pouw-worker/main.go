// pouw-worker runs the proof-of-useful-work attempt loop standalone: it
// loads configuration from the environment (with optional command line
// overrides), autotunes a GEMM problem size against a target attempt
// duration, serves health and metrics over HTTP, and submits signed
// receipts to an aggregator until interrupted.
package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/jrick/logrotate/rotator"

	"github.com/btcsuite/btclog"

	"github.com/pouw-network/worker/internal/pouw/autotune"
	"github.com/pouw-network/worker/internal/pouw/config"
	"github.com/pouw-network/worker/internal/pouw/executor"
	"github.com/pouw-network/worker/internal/pouw/health"
	"github.com/pouw-network/worker/internal/pouw/ratelimit"
	"github.com/pouw-network/worker/internal/pouw/retry"
	"github.com/pouw-network/worker/internal/pouw/signer"
	"github.com/pouw-network/worker/internal/pouw/submit"
	"github.com/pouw-network/worker/internal/pouw/worker"
)

// defaultBreakerFailureThreshold and defaultBreakerRecoveryTimeout match the
// original source's CircuitBreaker::new(5, Duration::from_secs(60)) call.
const (
	defaultBreakerFailureThreshold = 5
	defaultBreakerRecoveryTimeout  = 60 * time.Second
)

// cliOptions layers optional command line overrides on top of the
// environment-derived config, following the same env-plus-flags pattern
// the btcsuite daemons use for their own config structs.
type cliOptions struct {
	ListenAddr      string `short:"l" long:"listen" description:"Address to serve /health, /metrics and /status on"`
	AutotuneDisable bool   `long:"autotune-disable" description:"Skip autotuning and use the configured problem size as-is"`
	LogFile         string `long:"logfile" description:"File to rotate logs into, in addition to stderr"`
}

func main() {
	if err := realMain(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func realMain() error {
	var opts cliOptions
	if _, err := flags.NewParser(&opts, flags.Default).Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			return nil
		}
		return err
	}

	cfg, err := config.FromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	backend := setupLogging(opts.LogFile)
	defer backend.flush()
	useLoggers(backend)

	log := backend.Logger("MAIN")
	log.Infof("pouw-worker starting, device_did=%s aggregator=%s", cfg.DeviceDID, cfg.AggregatorURL)

	sgn, err := signer.FromHex(cfg.WorkerSKHex)
	if err != nil {
		return fmt.Errorf("load signing key: %w", err)
	}
	log.Infof("signer ready, pubkey=%s", sgn.PublicKeyHex())

	var execBackend executor.Executor
	accel, err := executor.NewAccelerator(executor.WorkGroupHint{M: cfg.WGM, N: cfg.WGN, TK: cfg.TK})
	if err != nil {
		log.Warnf("accelerator backend unavailable (%v), falling back to reference", err)
		execBackend = executor.NewReference()
	} else {
		execBackend = accel
	}
	log.Infof("executor backend: %s", execBackend.Name())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var prevHash [32]byte
	sizes := executor.Sizes{M: 1024, N: 1024, K: 1024, Batch: 1}

	autotuneDisable := cfg.AutotuneDisable || opts.AutotuneDisable
	if !autotuneDisable {
		presets, perr := autotune.ParsePresets(cfg.AutotunePresets)
		if perr != nil {
			log.Warnf("ignoring invalid AUTOTUNE_PRESETS (%v)", perr)
			presets = autotune.BuiltinLadder()
		}
		if len(presets) == 0 {
			presets = autotune.BuiltinLadder()
		}

		selected, err := autotune.Select(ctx, execBackend, prevHash, cfg.AutotuneTargetMS, presets)
		if err != nil {
			log.Warnf("autotune failed (%v), using fallback size", err)
		} else {
			sizes = selected
			log.Infof("autotune selected m=%d n=%d k=%d", sizes.M, sizes.N, sizes.K)
		}
	}

	counters := &health.Counters{}
	healthSrv := health.NewServer(counters)

	listenAddr := opts.ListenAddr
	if listenAddr == "" {
		listenAddr = cfg.HealthAddr
	}
	httpSrv := startHealthServer(listenAddr, healthSrv, log)
	defer httpSrv.Close()

	submitter := submit.New(cfg.AggregatorURL, retry.Config{
		MaxRetries:        cfg.MaxRetries,
		Delay:             time.Duration(cfg.RetryDelayMS) * time.Millisecond,
		BackoffMultiplier: 2.0,
		MaxDelay:          30 * time.Second,
	}, defaultBreakerFailureThreshold, defaultBreakerRecoveryTimeout)

	loop := worker.New(worker.Params{
		Executor:  execBackend,
		Signer:    sgn,
		Submitter: submitter,
		Limiter:   ratelimit.New(cfg.RateLimitPerSecond),
		Health:    healthSrv,
		DeviceDID: cfg.DeviceDID,
		EpochID:   0,
		Sizes:     sizes,
	})

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Infof("shutdown signal received")
		cancel()
	}()

	err = loop.Run(ctx, 0, prevHash)
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("worker loop: %w", err)
	}

	log.Infof("pouw-worker stopped, hashes_completed=%d", loop.HashesCompleted())
	return nil
}

func startHealthServer(addr string, healthSrv *health.Server, log btclog.Logger) *http.Server {
	httpSrv := &http.Server{Addr: addr, Handler: healthSrv.Handler()}
	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Errorf("health server stopped: %v", err)
		}
	}()
	log.Infof("health/metrics listening on %s", addr)
	return httpSrv
}

// logBackend mirrors the btcsuite daemons' pattern of a rotating log file
// plus a btclog.Backend that subsystems pull per-package loggers from.
type logBackend struct {
	backend *btclog.Backend
	rotator *rotator.Rotator
}

func setupLogging(logFile string) *logBackend {
	writers := []io.Writer{os.Stderr}

	lb := &logBackend{}
	if logFile != "" {
		r, err := rotator.New(logFile, 10*1024, false, 3)
		if err == nil {
			lb.rotator = r
			writers = append(writers, r)
		}
	}

	lb.backend = btclog.NewBackend(io.MultiWriter(writers...))
	return lb
}

func (lb *logBackend) Logger(subsystem string) btclog.Logger {
	l := lb.backend.Logger(subsystem)
	l.SetLevel(btclog.LevelInfo)
	return l
}

func (lb *logBackend) flush() {
	if lb.rotator != nil {
		lb.rotator.Close()
	}
}
