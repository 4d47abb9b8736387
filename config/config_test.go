package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSanitizeClampsInvalidLifecycle(t *testing.T) {
	cfg := DefaultConfig
	cfg.Lifecycle = "not-a-real-mode"
	sanitized := cfg.Sanitize()
	require.Equal(t, DefaultConfig.Lifecycle, sanitized.Lifecycle)
}

func TestSanitizeClampsNonPositiveDurations(t *testing.T) {
	cfg := DefaultConfig
	cfg.SlotTickInterval = -1
	cfg.MonitorRefreshInterval = 0

	sanitized := cfg.Sanitize()
	require.Equal(t, DefaultConfig.SlotTickInterval, sanitized.SlotTickInterval)
	require.Equal(t, DefaultConfig.MonitorRefreshInterval, sanitized.MonitorRefreshInterval)
}

func TestSanitizeFillsEmptyEndpoints(t *testing.T) {
	cfg := DefaultConfig
	cfg.BaseChainRPCEndpoint = ""
	cfg.BaseChainWSEndpoint = ""

	sanitized := cfg.Sanitize()
	require.Equal(t, DefaultConfig.BaseChainRPCEndpoint, sanitized.BaseChainRPCEndpoint)
	require.Equal(t, DefaultConfig.BaseChainWSEndpoint, sanitized.BaseChainWSEndpoint)
}

func TestSanitizePreservesValidValues(t *testing.T) {
	cfg := DefaultConfig
	cfg.MonitorShardCount = 8
	cfg.SlotTickInterval = 10 * time.Millisecond

	sanitized := cfg.Sanitize()
	require.Equal(t, 8, sanitized.MonitorShardCount)
	require.Equal(t, 10*time.Millisecond, sanitized.SlotTickInterval)
}
