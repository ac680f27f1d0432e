package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	require := require.New(t)

	t.Setenv("VISA_TIMEOUT_MS", "5000")
	t.Setenv("MAX_DATA_POINTS", "500")
	t.Setenv("SERVER_HOST", "0.0.0.0")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("DATA_EXPORT_DIR", "/tmp/exports")

	cfg, err := Load()
	require.NoError(err)
	require.Equal(5*time.Second, cfg.VISATimeout)
	require.Equal(500, cfg.BufferCapacity)
	require.Equal("0.0.0.0", cfg.Host)
	require.Equal(9090, cfg.Port)
	require.Equal("debug", cfg.LogLevel)
	require.Equal("/tmp/exports", cfg.DataDir)
	require.Equal("0.0.0.0:9090", cfg.Addr())
}

func TestLoadRejectsMalformedValues(t *testing.T) {
	require := require.New(t)

	t.Setenv("VISA_TIMEOUT_MS", "ten seconds")
	_, err := Load()
	require.ErrorIs(err, ErrInvalidConfig)
}

func TestValidateRanges(t *testing.T) {
	require := require.New(t)

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"timeout too small", func(c *Config) { c.VISATimeout = 500 * time.Millisecond }},
		{"timeout too large", func(c *Config) { c.VISATimeout = 301 * time.Second }},
		{"command length too small", func(c *Config) { c.MaxCommandLen = 4 }},
		{"response size too small", func(c *Config) { c.MaxResponseSize = 16 }},
		{"queue limit zero", func(c *Config) { c.ErrorQueueLimit = 0 }},
		{"buffer capacity zero", func(c *Config) { c.BufferCapacity = 0 }},
		{"interval too short", func(c *Config) { c.MeasurementInterval = time.Millisecond }},
		{"empty data dir", func(c *Config) { c.DataDir = "" }},
		{"port zero", func(c *Config) { c.Port = 0 }},
		{"port too large", func(c *Config) { c.Port = 70000 }},
		{"bad log level", func(c *Config) { c.LogLevel = "verbose" }},
	}
	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			require.ErrorIs(cfg.Validate(), ErrInvalidConfig)
		})
	}
}

func TestEnsureDirs(t *testing.T) {
	require := require.New(t)

	base := t.TempDir()
	cfg := Default()
	cfg.DataDir = filepath.Join(base, "data")
	cfg.ScreenshotDir = filepath.Join(base, "shots", "nested")
	cfg.WaveformDir = filepath.Join(base, "waveforms")

	require.NoError(cfg.EnsureDirs())
	for _, dir := range []string{cfg.DataDir, cfg.ScreenshotDir, cfg.WaveformDir} {
		info, err := os.Stat(dir)
		require.NoError(err)
		require.True(info.IsDir())
	}

	// Idempotent.
	require.NoError(cfg.EnsureDirs())
}
