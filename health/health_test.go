package health

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/anirudhiyengar-cell/Digantara-instrumentation/config"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.DataDir = filepath.Join(base, "data")
	cfg.ScreenshotDir = filepath.Join(base, "screenshots")
	cfg.WaveformDir = filepath.Join(base, "waveforms")
	require.NoError(t, cfg.EnsureDirs())

	return cfg
}

func TestHealthyReport(t *testing.T) {
	require := require.New(t)

	checker := NewChecker(testConfig(t), nil)
	checker.listPorts = func() ([]string, error) {
		return []string{"/dev/ttyUSB0"}, nil
	}

	report := checker.Run()
	require.Equal(StatusHealthy, report.Status)
	require.Len(report.Checks, 4)
	for _, check := range report.Checks {
		require.Equal(StatusHealthy, check.Status, "check %q", check.Name)
	}
}

func TestNoSerialPortsDegrades(t *testing.T) {
	require := require.New(t)

	checker := NewChecker(testConfig(t), nil)
	checker.listPorts = func() ([]string, error) {
		return nil, nil
	}

	report := checker.Run()
	require.Equal(StatusDegraded, report.Status)
}

func TestSerialEnumerationFailureIsUnknown(t *testing.T) {
	require := require.New(t)

	checker := NewChecker(testConfig(t), nil)
	checker.listPorts = func() ([]string, error) {
		return nil, errors.New("no permission")
	}

	report := checker.Run()
	// Unknown does not degrade the aggregate.
	require.Equal(StatusHealthy, report.Status)

	var serialCheck Check
	for _, check := range report.Checks {
		if check.Name == "serial transport" {
			serialCheck = check
		}
	}
	require.Equal(StatusUnknown, serialCheck.Status)
}

func TestMissingDirectoryDegrades(t *testing.T) {
	require := require.New(t)

	cfg := testConfig(t)
	cfg.WaveformDir = filepath.Join(t.TempDir(), "does-not-exist")
	checker := NewChecker(cfg, nil)
	checker.listPorts = func() ([]string, error) {
		return []string{"/dev/ttyUSB0"}, nil
	}

	report := checker.Run()
	require.Equal(StatusDegraded, report.Status)
}

func TestInvalidConfigIsUnhealthy(t *testing.T) {
	require := require.New(t)

	cfg := testConfig(t)
	cfg.Port = 0
	checker := NewChecker(cfg, nil)
	checker.listPorts = func() ([]string, error) {
		return []string{"/dev/ttyUSB0"}, nil
	}

	report := checker.Run()
	require.Equal(StatusUnhealthy, report.Status)
}
