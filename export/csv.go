package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/anirudhiyengar-cell/Digantara-instrumentation/keithley"
	"github.com/anirudhiyengar-cell/Digantara-instrumentation/tektronix"
)

// writeCSVFile renders header and rows and writes the file in one shot. The
// series are bounded by the in-memory buffers, so rendering in memory first
// keeps partially written files off disk.
func writeCSVFile(baseDir, name string, header []string, rows [][]string) (string, error) {
	path, err := ResolveInBase(baseDir, name)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return "", err
	}
	if err := w.WriteAll(rows); err != nil {
		return "", err
	}

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("write export file: %w", err)
	}

	return path, nil
}

// WriteSamplesCSV writes a DMM measurement series to a CSV file inside
// baseDir and returns the resolved path.
func WriteSamplesCSV(baseDir, name string, samples []keithley.Sample) (string, error) {
	if len(samples) == 0 {
		return "", ErrNoData
	}

	rows := make([][]string, 0, len(samples))
	for _, s := range samples {
		rows = append(rows, []string{
			s.Timestamp.Format(time.RFC3339Nano),
			string(s.Function),
			strconv.FormatFloat(s.Value, 'g', -1, 64),
			s.Unit,
		})
	}

	return writeCSVFile(baseDir, name, []string{"timestamp", "function", "value", "unit"}, rows)
}

// WritePSUMeasurementsCSV writes power supply readbacks to a CSV file inside
// baseDir and returns the resolved path.
func WritePSUMeasurementsCSV(baseDir, name string, measurements []keithley.PSUMeasurement) (string, error) {
	if len(measurements) == 0 {
		return "", ErrNoData
	}

	rows := make([][]string, 0, len(measurements))
	for _, m := range measurements {
		rows = append(rows, []string{
			m.Timestamp.Format(time.RFC3339Nano),
			strconv.Itoa(m.Channel),
			strconv.FormatFloat(m.Voltage, 'g', -1, 64),
			strconv.FormatFloat(m.Current, 'g', -1, 64),
			strconv.FormatFloat(m.Power, 'g', -1, 64),
		})
	}

	return writeCSVFile(baseDir, name, []string{"timestamp", "channel", "voltage_v", "current_a", "power_w"}, rows)
}

// WriteWaveformCSV writes a scaled waveform record as time/voltage pairs to
// a CSV file inside baseDir and returns the resolved path.
func WriteWaveformCSV(baseDir, name string, wf *tektronix.Waveform) (string, error) {
	if wf == nil || len(wf.Points) == 0 {
		return "", ErrNoData
	}

	times := wf.Times()
	rows := make([][]string, 0, len(wf.Points))
	for i, v := range wf.Points {
		rows = append(rows, []string{
			strconv.FormatFloat(times[i], 'g', -1, 64),
			strconv.FormatFloat(v, 'g', -1, 64),
		})
	}

	return writeCSVFile(baseDir, name, []string{"time_s", "voltage_v"}, rows)
}
