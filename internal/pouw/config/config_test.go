package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func setEnv(t *testing.T, kv map[string]string) {
	t.Helper()
	for k, v := range kv {
		t.Setenv(k, v)
	}
}

func TestFromEnvRequiresWorkerSK(t *testing.T) {
	_, err := FromEnv()
	require.Error(t, err)
}

func TestFromEnvAppliesDefaults(t *testing.T) {
	setEnv(t, map[string]string{"WORKER_SK_HEX": strings.Repeat("01", 32)})

	c, err := FromEnv()
	require.NoError(t, err)
	require.Equal(t, "did:peaq:DEVICE123", c.DeviceDID)
	require.Equal(t, uint64(300), c.AutotuneTargetMS)
	require.Equal(t, 3, c.MaxRetries)
}

func TestFromEnvOverrides(t *testing.T) {
	setEnv(t, map[string]string{
		"WORKER_SK_HEX":      strings.Repeat("02", 32),
		"AGGREGATOR_URL":     "http://example.test/submit",
		"AUTOTUNE_TARGET_MS": "500",
		"AUTOTUNE_DISABLE":   "1",
	})

	c, err := FromEnv()
	require.NoError(t, err)
	require.Equal(t, "http://example.test/submit", c.AggregatorURL)
	require.Equal(t, uint64(500), c.AutotuneTargetMS)
	require.True(t, c.AutotuneDisable)
}

func TestValidateRejectsBadURL(t *testing.T) {
	c := Default()
	c.WorkerSKHex = strings.Repeat("03", 32)
	c.AggregatorURL = "ftp://example.test"

	require.Error(t, c.Validate())
}

func TestValidateRejectsShortKey(t *testing.T) {
	c := Default()
	c.WorkerSKHex = "deadbeef"

	require.Error(t, c.Validate())
}
