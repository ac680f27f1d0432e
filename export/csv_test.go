package export

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/anirudhiyengar-cell/Digantara-instrumentation/keithley"
	"github.com/anirudhiyengar-cell/Digantara-instrumentation/tektronix"
)

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)

	return records
}

func TestWriteSamplesCSV(t *testing.T) {
	require := require.New(t)

	base := t.TempDir()
	ts := time.Date(2026, 8, 27, 10, 0, 0, 0, time.UTC)
	samples := []keithley.Sample{
		{Value: 1.25, Function: keithley.FuncDCVoltage, Unit: "V", Timestamp: ts},
		{Value: 1.26, Function: keithley.FuncDCVoltage, Unit: "V", Timestamp: ts.Add(time.Second)},
	}

	path, err := WriteSamplesCSV(base, "series.csv", samples)
	require.NoError(err)

	records := readCSV(t, path)
	require.Len(records, 3)
	require.Equal([]string{"timestamp", "function", "value", "unit"}, records[0])
	require.Equal([]string{"2026-08-27T10:00:00Z", "VOLT:DC", "1.25", "V"}, records[1])

	_, err = WriteSamplesCSV(base, "empty.csv", nil)
	require.ErrorIs(err, ErrNoData)

	_, err = WriteSamplesCSV(base, "../escape.csv", samples)
	require.ErrorIs(err, ErrInvalidFilename)
}

func TestWritePSUMeasurementsCSV(t *testing.T) {
	require := require.New(t)

	base := t.TempDir()
	ts := time.Date(2026, 8, 27, 10, 0, 0, 0, time.UTC)
	measurements := []keithley.PSUMeasurement{
		{Channel: 1, Voltage: 5, Current: 0.1, Power: 0.5, Timestamp: ts},
	}

	path, err := WritePSUMeasurementsCSV(base, "psu.csv", measurements)
	require.NoError(err)

	records := readCSV(t, path)
	require.Len(records, 2)
	require.Equal([]string{"2026-08-27T10:00:00Z", "1", "5", "0.1", "0.5"}, records[1])
}

func TestWriteWaveformCSV(t *testing.T) {
	require := require.New(t)

	base := t.TempDir()
	wf := &tektronix.Waveform{
		Channel:    1,
		Points:     []float64{0, 0.5, 1},
		XIncrement: 1e-6,
		XZero:      0,
	}

	path, err := WriteWaveformCSV(base, "waveform.csv", wf)
	require.NoError(err)

	records := readCSV(t, path)
	require.Len(records, 4)
	require.Equal([]string{"time_s", "voltage_v"}, records[0])
	require.Equal([]string{"1e-06", "0.5"}, records[2])

	_, err = WriteWaveformCSV(base, "empty.csv", &tektronix.Waveform{})
	require.ErrorIs(err, ErrNoData)
}

func TestWriteStatsJSON(t *testing.T) {
	require := require.New(t)

	base := t.TempDir()
	stats := keithley.Stats{Count: 10, Min: 1, Max: 2, Mean: 1.5, StdDev: 0.3}

	path, err := WriteStatsJSON(base, "stats.json", keithley.FuncDCVoltage, stats)
	require.NoError(err)

	data, err := os.ReadFile(path)
	require.NoError(err)

	var report StatsReport
	require.NoError(json.Unmarshal(data, &report))
	require.Equal(keithley.FuncDCVoltage, report.Function)
	require.Equal("V", report.Unit)
	require.Equal(stats, report.Stats)

	_, err = WriteStatsJSON(base, "empty.json", keithley.FuncDCVoltage, keithley.Stats{})
	require.ErrorIs(err, ErrNoData)
}

func TestWriteScreenshot(t *testing.T) {
	require := require.New(t)

	base := t.TempDir()
	img := []byte{0x89, 'P', 'N', 'G', 0, 1, 2}

	path, err := WriteScreenshot(base, "shot.png", img)
	require.NoError(err)
	require.True(strings.HasSuffix(path, "shot.png"))

	data, err := os.ReadFile(path)
	require.NoError(err)
	require.Equal(img, data)

	_, err = WriteScreenshot(base, "empty.png", nil)
	require.ErrorIs(err, ErrNoData)
}
