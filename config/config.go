// Package config loads process configuration from the environment, with an
// optional .env file for development setups. Values are validated once at
// startup so every later consumer can trust them.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/anirudhiyengar-cell/Digantara-instrumentation/logger"
)

// ErrInvalidConfig indicates a configuration value outside its accepted
// range.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the process configuration of the instrumentation service.
type Config struct {
	// VISATimeout bounds every blocking instrument call.
	VISATimeout time.Duration
	// CommandDelay is inserted between consecutive configuration commands
	// on instruments that need breathing room.
	CommandDelay time.Duration
	// MaxCommandLen bounds outbound SCPI command length in bytes.
	MaxCommandLen int
	// MaxResponseSize caps instrument response size in bytes.
	MaxResponseSize int
	// ErrorQueueLimit caps error-queue drain iterations.
	ErrorQueueLimit int

	// PSUSettleTime is the wait after a power supply setpoint change.
	PSUSettleTime time.Duration
	// PSUResetTime is the wait after a power supply *RST.
	PSUResetTime time.Duration
	// ScopeFreezeTime is the wait after stopping scope acquisition before
	// reading display or waveform data.
	ScopeFreezeTime time.Duration

	// BufferCapacity bounds the in-memory measurement series.
	BufferCapacity int
	// MeasurementInterval is the default continuous sampling period.
	MeasurementInterval time.Duration

	// DataDir receives CSV/JSON exports.
	DataDir string
	// ScreenshotDir receives captured display images.
	ScreenshotDir string
	// WaveformDir receives waveform CSV exports.
	WaveformDir string

	// Host and Port bind the HTTP control panel.
	Host string
	Port int

	// LogLevel is one of debug, info, warn, error.
	LogLevel string
	// LogFile, when set, receives JSON log output in addition to stdout.
	LogFile string
}

// Default returns the configuration used when no environment is set.
func Default() Config {
	return Config{
		VISATimeout:         10 * time.Second,
		CommandDelay:        100 * time.Millisecond,
		MaxCommandLen:       1024,
		MaxResponseSize:     1 << 20,
		ErrorQueueLimit:     10,
		PSUSettleTime:       500 * time.Millisecond,
		PSUResetTime:        3 * time.Second,
		ScopeFreezeTime:     200 * time.Millisecond,
		BufferCapacity:      10000,
		MeasurementInterval: time.Second,
		DataDir:             "./data",
		ScreenshotDir:       "./screenshots",
		WaveformDir:         "./waveforms",
		Host:                "127.0.0.1",
		Port:                8080,
		LogLevel:            "info",
	}
}

// Load reads an optional .env file, applies environment overrides on top of
// the defaults, and validates the result.
func Load() (Config, error) {
	// A missing .env file is the normal production case.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logger.GetLogger().Warn("could not load .env file", "error", err)
	}

	cfg := Default()

	var err error
	cfg.VISATimeout, err = envDurationMS("VISA_TIMEOUT_MS", cfg.VISATimeout, err)
	cfg.CommandDelay, err = envDurationMS("VISA_COMMAND_DELAY_MS", cfg.CommandDelay, err)
	cfg.MaxCommandLen, err = envInt("MAX_COMMAND_LENGTH", cfg.MaxCommandLen, err)
	cfg.MaxResponseSize, err = envInt("MAX_RESPONSE_SIZE", cfg.MaxResponseSize, err)
	cfg.ErrorQueueLimit, err = envInt("ERROR_QUEUE_LIMIT", cfg.ErrorQueueLimit, err)
	cfg.PSUSettleTime, err = envDurationMS("PSU_SETTLE_TIME_MS", cfg.PSUSettleTime, err)
	cfg.PSUResetTime, err = envDurationMS("PSU_RESET_TIME_MS", cfg.PSUResetTime, err)
	cfg.ScopeFreezeTime, err = envDurationMS("SCOPE_FREEZE_TIME_MS", cfg.ScopeFreezeTime, err)
	cfg.BufferCapacity, err = envInt("MAX_DATA_POINTS", cfg.BufferCapacity, err)
	cfg.MeasurementInterval, err = envDurationMS("MEASUREMENT_INTERVAL_MS", cfg.MeasurementInterval, err)
	cfg.Port, err = envInt("SERVER_PORT", cfg.Port, err)
	if err != nil {
		return cfg, err
	}

	cfg.DataDir = envString("DATA_EXPORT_DIR", cfg.DataDir)
	cfg.ScreenshotDir = envString("SCREENSHOT_DIR", cfg.ScreenshotDir)
	cfg.WaveformDir = envString("WAVEFORM_DIR", cfg.WaveformDir)
	cfg.Host = envString("SERVER_HOST", cfg.Host)
	cfg.LogLevel = envString("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFile = envString("LOG_FILE", cfg.LogFile)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// Validate checks every field against its accepted range.
func (c Config) Validate() error {
	checks := []struct {
		ok  bool
		msg string
	}{
		{c.VISATimeout >= time.Second && c.VISATimeout <= 300*time.Second, "VISA timeout must be in [1s, 300s]"},
		{c.CommandDelay >= 0 && c.CommandDelay <= 5*time.Second, "command delay must be in [0, 5s]"},
		{c.MaxCommandLen >= 8 && c.MaxCommandLen <= 4096, "max command length must be in [8, 4096]"},
		{c.MaxResponseSize >= 64 && c.MaxResponseSize <= 256<<20, "max response size must be in [64, 256MiB]"},
		{c.ErrorQueueLimit >= 1 && c.ErrorQueueLimit <= 100, "error queue limit must be in [1, 100]"},
		{c.PSUSettleTime >= 0 && c.PSUSettleTime <= 10*time.Second, "PSU settle time must be in [0, 10s]"},
		{c.PSUResetTime >= 0 && c.PSUResetTime <= 30*time.Second, "PSU reset time must be in [0, 30s]"},
		{c.ScopeFreezeTime >= 0 && c.ScopeFreezeTime <= 10*time.Second, "scope freeze time must be in [0, 10s]"},
		{c.BufferCapacity >= 1 && c.BufferCapacity <= 1_000_000, "buffer capacity must be in [1, 1000000]"},
		{c.MeasurementInterval >= 10*time.Millisecond, "measurement interval must be at least 10ms"},
		{c.DataDir != "", "data directory must be set"},
		{c.ScreenshotDir != "", "screenshot directory must be set"},
		{c.WaveformDir != "", "waveform directory must be set"},
		{c.Host != "", "server host must be set"},
		{c.Port >= 1 && c.Port <= 65535, "server port must be in [1, 65535]"},
		{validLogLevel(c.LogLevel), "log level must be debug, info, warn or error"},
	}

	for _, check := range checks {
		if !check.ok {
			return fmt.Errorf("%w: %s", ErrInvalidConfig, check.msg)
		}
	}

	return nil
}

// EnsureDirs creates the export directories if they do not exist.
func (c Config) EnsureDirs() error {
	for _, dir := range []string{c.DataDir, c.ScreenshotDir, c.WaveformDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	return nil
}

// Addr returns the host:port bind address of the HTTP server.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func validLogLevel(level string) bool {
	switch level {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}

func envString(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}

	return def
}

func envInt(key string, def int, prevErr error) (int, error) {
	if prevErr != nil {
		return def, prevErr
	}
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def, fmt.Errorf("%w: %s=%q is not an integer", ErrInvalidConfig, key, v)
	}

	return n, nil
}

func envDurationMS(key string, def time.Duration, prevErr error) (time.Duration, error) {
	if prevErr != nil {
		return def, prevErr
	}
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def, fmt.Errorf("%w: %s=%q is not a millisecond count", ErrInvalidConfig, key, v)
	}

	return time.Duration(n) * time.Millisecond, nil
}
