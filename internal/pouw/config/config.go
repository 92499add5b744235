// Package config loads the worker's environment-variable configuration, the
// way the teacher's mobile mining config is a plain struct populated by
// hand rather than a configuration-framework document.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pouw-network/worker/internal/pouw/pouwerr"
)

// Config holds every environment-variable-sourced setting the worker needs.
type Config struct {
	WorkerSKHex string
	DeviceDID   string

	AggregatorURL string

	AutotuneTargetMS uint64
	AutotunePresets  string // raw "m,n,k;m,n,k;..." string, parsed by autotune.ParsePresets
	AutotuneDisable  bool

	WGM int
	WGN int
	TK  int

	MaxRetries            int
	RetryDelayMS          uint64
	RateLimitPerSecond    float64
	MaxConcurrentRequests int

	LogLevel               string
	MetricsEnabled         bool
	HealthCheckIntervalMS  uint64
	HealthAddr             string
}

// Default returns the configuration's defaults, mirroring the original
// source's Config::default().
func Default() Config {
	return Config{
		DeviceDID:     "did:peaq:DEVICE123",
		AggregatorURL: "http://localhost:8081/verify",

		AutotuneTargetMS: 300,
		AutotunePresets:  "",
		AutotuneDisable:  false,

		MaxRetries:            3,
		RetryDelayMS:          1000,
		RateLimitPerSecond:    10,
		MaxConcurrentRequests: 5,

		LogLevel:              "info",
		MetricsEnabled:        true,
		HealthCheckIntervalMS: 30000,
		HealthAddr:            ":9090",
	}
}

// FromEnv loads configuration from the process environment, starting from
// Default and overriding with any variable that is set.
func FromEnv() (Config, error) {
	c := Default()

	skHex, ok := os.LookupEnv("WORKER_SK_HEX")
	if !ok {
		return Config{}, pouwerr.New(pouwerr.Validation, "config.FromEnv", fmt.Errorf("missing required environment variable: WORKER_SK_HEX"))
	}
	c.WorkerSKHex = skHex

	if v, ok := os.LookupEnv("DEVICE_DID"); ok {
		c.DeviceDID = v
	}
	if v, ok := os.LookupEnv("AGGREGATOR_URL"); ok {
		c.AggregatorURL = v
	}

	if err := parseUint(&c.AutotuneTargetMS, "AUTOTUNE_TARGET_MS"); err != nil {
		return Config{}, err
	}
	if v, ok := os.LookupEnv("AUTOTUNE_PRESETS"); ok {
		c.AutotunePresets = v
	}
	if v, ok := os.LookupEnv("AUTOTUNE_DISABLE"); ok {
		c.AutotuneDisable = v == "1"
	}

	if err := parseOptionalInt(&c.WGM, "WG_M"); err != nil {
		return Config{}, err
	}
	if err := parseOptionalInt(&c.WGN, "WG_N"); err != nil {
		return Config{}, err
	}
	if err := parseOptionalInt(&c.TK, "TK"); err != nil {
		return Config{}, err
	}

	if err := parseInt(&c.MaxRetries, "MAX_RETRIES"); err != nil {
		return Config{}, err
	}
	if err := parseUint(&c.RetryDelayMS, "RETRY_DELAY_MS"); err != nil {
		return Config{}, err
	}
	if err := parseFloat(&c.RateLimitPerSecond, "RATE_LIMIT_PER_SECOND"); err != nil {
		return Config{}, err
	}
	if err := parseInt(&c.MaxConcurrentRequests, "MAX_CONCURRENT_REQUESTS"); err != nil {
		return Config{}, err
	}

	if v, ok := os.LookupEnv("LOG_LEVEL"); ok {
		c.LogLevel = v
	}
	if v, ok := os.LookupEnv("METRICS_ENABLED"); ok {
		c.MetricsEnabled = v == "1"
	}
	if err := parseUint(&c.HealthCheckIntervalMS, "HEALTH_CHECK_INTERVAL_MS"); err != nil {
		return Config{}, err
	}
	if v, ok := os.LookupEnv("HEALTH_ADDR"); ok {
		c.HealthAddr = v
	}

	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks the invariants spec.md §6 names: key length, URL scheme,
// and a positive autotune target.
func (c Config) Validate() error {
	if len(c.WorkerSKHex) != 64 {
		return pouwerr.New(pouwerr.Validation, "config.Validate", fmt.Errorf("WORKER_SK_HEX must be 64 characters, got %d", len(c.WorkerSKHex)))
	}
	if !strings.HasPrefix(c.AggregatorURL, "http") {
		return pouwerr.New(pouwerr.Validation, "config.Validate", fmt.Errorf("AGGREGATOR_URL must be a valid HTTP URL, got %q", c.AggregatorURL))
	}
	if c.AutotuneTargetMS == 0 {
		return pouwerr.New(pouwerr.Validation, "config.Validate", fmt.Errorf("AUTOTUNE_TARGET_MS must be greater than 0"))
	}
	return nil
}

func parseUint(dst *uint64, name string) error {
	v, ok := os.LookupEnv(name)
	if !ok {
		return nil
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return pouwerr.New(pouwerr.Validation, "config.FromEnv", fmt.Errorf("invalid %s: %w", name, err))
	}
	*dst = n
	return nil
}

func parseInt(dst *int, name string) error {
	v, ok := os.LookupEnv(name)
	if !ok {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return pouwerr.New(pouwerr.Validation, "config.FromEnv", fmt.Errorf("invalid %s: %w", name, err))
	}
	*dst = n
	return nil
}

func parseOptionalInt(dst *int, name string) error {
	return parseInt(dst, name)
}

func parseFloat(dst *float64, name string) error {
	v, ok := os.LookupEnv(name)
	if !ok {
		return nil
	}
	n, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return pouwerr.New(pouwerr.Validation, "config.FromEnv", fmt.Errorf("invalid %s: %w", name, err))
	}
	*dst = n
	return nil
}
