package export

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/anirudhiyengar-cell/Digantara-instrumentation/keithley"
)

// StatsReport is the JSON document produced by WriteStatsJSON.
type StatsReport struct {
	Function   keithley.Function `json:"function"`
	Unit       string            `json:"unit"`
	Stats      keithley.Stats    `json:"stats"`
	ExportedAt time.Time         `json:"exported_at"`
}

// WriteStatsJSON writes a statistics summary of a measurement series to a
// JSON file inside baseDir and returns the resolved path.
func WriteStatsJSON(baseDir, name string, fn keithley.Function, stats keithley.Stats) (string, error) {
	if stats.Count == 0 {
		return "", ErrNoData
	}

	path, err := ResolveInBase(baseDir, name)
	if err != nil {
		return "", err
	}

	report := StatsReport{
		Function:   fn,
		Unit:       fn.Unit(),
		Stats:      stats,
		ExportedAt: time.Now().UTC(),
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return "", fmt.Errorf("write export file: %w", err)
	}

	return path, nil
}

// WriteScreenshot writes raw image bytes captured from an instrument display
// to a file inside baseDir and returns the resolved path.
func WriteScreenshot(baseDir, name string, img []byte) (string, error) {
	if len(img) == 0 {
		return "", ErrNoData
	}

	path, err := ResolveInBase(baseDir, name)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, img, 0o644); err != nil {
		return "", fmt.Errorf("write screenshot: %w", err)
	}

	return path, nil
}
