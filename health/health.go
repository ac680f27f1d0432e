// Package health runs startup and liveness checks for the instrumentation
// service: configuration validity, export directory writability, serial
// transport availability, and runtime information. The aggregate report is
// JSON-tagged for the HTTP layer.
package health

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"go.bug.st/serial"

	"github.com/anirudhiyengar-cell/Digantara-instrumentation/config"
	"github.com/anirudhiyengar-cell/Digantara-instrumentation/logger"
)

// Status is the outcome of one check.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
	StatusUnknown   Status = "unknown"
)

// Check is the result of one health check.
type Check struct {
	Name    string         `json:"name"`
	Status  Status         `json:"status"`
	Message string         `json:"message,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// Report aggregates all checks.
type Report struct {
	Status    Status    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Checks    []Check   `json:"checks"`
}

// Checker runs health checks against the loaded configuration.
type Checker struct {
	cfg    config.Config
	logger logger.Logger

	// listPorts enumerates serial devices; replaced in tests.
	listPorts func() ([]string, error)
}

// NewChecker creates a health checker for the given configuration.
func NewChecker(cfg config.Config, l logger.Logger) *Checker {
	if l == nil {
		l = logger.GetLogger()
	}

	return &Checker{cfg: cfg, logger: l, listPorts: serial.GetPortsList}
}

// Run executes every check and aggregates the outcome: any unhealthy check
// makes the report unhealthy, otherwise any degraded check makes it
// degraded.
func (c *Checker) Run() Report {
	checks := []Check{
		c.checkConfig(),
		c.checkDirectories(),
		c.checkSerialPorts(),
		c.checkRuntime(),
	}

	overall := StatusHealthy
	for _, check := range checks {
		switch check.Status {
		case StatusUnhealthy:
			overall = StatusUnhealthy
		case StatusDegraded:
			if overall == StatusHealthy {
				overall = StatusDegraded
			}
		}
	}

	report := Report{
		Status:    overall,
		Timestamp: time.Now().UTC(),
		Checks:    checks,
	}
	if overall != StatusHealthy {
		c.logger.Warn("health check", "status", overall)
	}

	return report
}

func (c *Checker) checkConfig() Check {
	if err := c.cfg.Validate(); err != nil {
		return Check{Name: "configuration", Status: StatusUnhealthy, Message: err.Error()}
	}

	return Check{Name: "configuration", Status: StatusHealthy}
}

// checkDirectories verifies every export directory exists and is writable
// by creating and removing a probe file.
func (c *Checker) checkDirectories() Check {
	dirs := map[string]string{
		"data":        c.cfg.DataDir,
		"screenshots": c.cfg.ScreenshotDir,
		"waveforms":   c.cfg.WaveformDir,
	}

	details := map[string]any{}
	status := StatusHealthy
	for name, dir := range dirs {
		if err := probeDir(dir); err != nil {
			details[name] = err.Error()
			status = StatusDegraded
			continue
		}
		details[name] = "writable"
	}

	check := Check{Name: "export directories", Status: status, Details: details}
	if status != StatusHealthy {
		check.Message = "one or more export directories are not writable"
	}

	return check
}

func probeDir(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}

	probe := filepath.Join(dir, ".health_probe")
	if err := os.WriteFile(probe, nil, 0o644); err != nil {
		return err
	}

	return os.Remove(probe)
}

// checkSerialPorts enumerates serial devices. No ports is degraded rather
// than unhealthy: USB and LAN instruments work without any serial port.
func (c *Checker) checkSerialPorts() Check {
	ports, err := c.listPorts()
	if err != nil {
		return Check{Name: "serial transport", Status: StatusUnknown, Message: err.Error()}
	}
	if len(ports) == 0 {
		return Check{Name: "serial transport", Status: StatusDegraded, Message: "no serial ports detected"}
	}

	return Check{
		Name:    "serial transport",
		Status:  StatusHealthy,
		Details: map[string]any{"ports": ports},
	}
}

func (c *Checker) checkRuntime() Check {
	return Check{
		Name:   "runtime",
		Status: StatusHealthy,
		Details: map[string]any{
			"go_version": runtime.Version(),
			"os":         runtime.GOOS,
			"arch":       runtime.GOARCH,
			"goroutines": runtime.NumGoroutine(),
		},
	}
}
