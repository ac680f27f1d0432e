package keithley

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/gotmc/query"

	"github.com/anirudhiyengar-cell/Digantara-instrumentation/internal/ring"
	"github.com/anirudhiyengar-cell/Digantara-instrumentation/logger"
)

// Function is a DMM measurement function in SCPI notation.
type Function string

const (
	FuncDCVoltage    Function = "VOLT:DC"
	FuncACVoltage    Function = "VOLT:AC"
	FuncDCCurrent    Function = "CURR:DC"
	FuncACCurrent    Function = "CURR:AC"
	FuncResistance2W Function = "RES"
	FuncResistance4W Function = "FRES"
	FuncCapacitance  Function = "CAP"
	FuncFrequency    Function = "FREQ"
	FuncTemperature  Function = "TEMP"
)

// Unit returns the measurement unit of the function.
func (f Function) Unit() string {
	switch f {
	case FuncDCVoltage, FuncACVoltage:
		return "V"
	case FuncDCCurrent, FuncACCurrent:
		return "A"
	case FuncResistance2W, FuncResistance4W:
		return "Ohm"
	case FuncCapacitance:
		return "F"
	case FuncFrequency:
		return "Hz"
	case FuncTemperature:
		return "C"
	default:
		return ""
	}
}

var functionNames = map[string]Function{
	"DC_VOLTAGE":    FuncDCVoltage,
	"AC_VOLTAGE":    FuncACVoltage,
	"DC_CURRENT":    FuncDCCurrent,
	"AC_CURRENT":    FuncACCurrent,
	"RESISTANCE_2W": FuncResistance2W,
	"RESISTANCE_4W": FuncResistance4W,
	"CAPACITANCE":   FuncCapacitance,
	"FREQUENCY":     FuncFrequency,
	"TEMPERATURE":   FuncTemperature,
}

// ParseFunction maps a human-readable function name such as "DC_VOLTAGE"
// onto its SCPI form. SCPI notation is accepted as-is.
func ParseFunction(name string) (Function, error) {
	if fn, ok := functionNames[strings.ToUpper(strings.TrimSpace(name))]; ok {
		return fn, nil
	}
	for _, fn := range functionNames {
		if string(fn) == strings.ToUpper(strings.TrimSpace(name)) {
			return fn, nil
		}
	}

	return "", fmt.Errorf("%w: %q", ErrUnknownFunction, name)
}

// Sample is one DMM reading.
type Sample struct {
	Value     float64   `json:"value"`
	Function  Function  `json:"function"`
	Unit      string    `json:"unit"`
	Timestamp time.Time `json:"timestamp"`
}

// Stats summarizes a measurement series.
type Stats struct {
	Count  int     `json:"count"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
}

// DMMConfig holds the buffering and timing parameters of a multimeter.
type DMMConfig struct {
	// BufferCapacity bounds the in-memory measurement series. Oldest
	// samples are dropped once the buffer is full.
	BufferCapacity int
	// DefaultInterval is the sampling period used when StartSampling is
	// called with a non-positive interval.
	DefaultInterval time.Duration
}

// DMM6500Config returns the default buffering parameters for a DMM6500.
func DMM6500Config() DMMConfig {
	return DMMConfig{
		BufferCapacity:  1000,
		DefaultInterval: time.Second,
	}
}

// DMM drives a Keithley DMM6500 digital multimeter, including a continuous
// sampling loop feeding a bounded in-memory series.
type DMM struct {
	Conn
	cfg    DMMConfig
	logger logger.Logger

	mu       sync.Mutex
	function Function
	buffer   *ring.Buffer[Sample]
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewDMM creates a multimeter driver on a connection handle.
func NewDMM(conn Conn, cfg DMMConfig, l logger.Logger) *DMM {
	if cfg.BufferCapacity <= 0 {
		cfg = DMM6500Config()
	}
	if cfg.DefaultInterval <= 0 {
		cfg.DefaultInterval = time.Second
	}
	if l == nil {
		l = logger.GetLogger()
	}

	return &DMM{
		Conn:     conn,
		cfg:      cfg,
		logger:   l,
		function: FuncDCVoltage,
		buffer:   ring.New[Sample](cfg.BufferCapacity),
	}
}

// Function returns the currently selected measurement function.
func (d *DMM) Function() Function {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.function
}

// SetFunction selects the measurement function on the instrument.
func (d *DMM) SetFunction(fn Function) error {
	if fn.Unit() == "" {
		return fmt.Errorf("%w: %q", ErrUnknownFunction, fn)
	}

	if err := d.Write(fmt.Sprintf("SENS:FUNC \"%s\"", fn)); err != nil {
		return err
	}

	d.mu.Lock()
	d.function = fn
	d.mu.Unlock()

	d.logger.Info("dmm function selected", "function", fn)

	return nil
}

// Measure triggers one reading with the selected function and records it in
// the measurement series.
func (d *DMM) Measure() (Sample, error) {
	val, err := query.Float64(d, "READ?")
	if err != nil {
		return Sample{}, fmt.Errorf("read measurement: %w", err)
	}

	fn := d.Function()
	sample := Sample{
		Value:     val,
		Function:  fn,
		Unit:      fn.Unit(),
		Timestamp: time.Now().UTC(),
	}
	if d.buffer.Append(sample) {
		d.logger.Debug("measurement buffer full, oldest sample dropped")
	}

	return sample, nil
}

// StartSampling begins a background measurement loop with the given period.
// Samples accumulate in the bounded series until StopSampling is called, the
// context is canceled, or a measurement fails.
func (d *DMM) StartSampling(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = d.cfg.DefaultInterval
	}

	d.mu.Lock()
	if d.cancel != nil {
		d.mu.Unlock()
		return ErrSamplingActive
	}
	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	done := make(chan struct{})
	d.done = done
	d.mu.Unlock()

	d.logger.Info("continuous sampling started", "interval", interval)

	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := d.Measure(); err != nil {
					d.logger.Error("continuous sampling stopped on error", "error", err)
					d.clearSampling()

					return
				}
			}
		}
	}()

	return nil
}

// StopSampling stops the background measurement loop and waits for it to
// exit. Calling it when no loop is running is a no-op.
func (d *DMM) StopSampling() {
	d.mu.Lock()
	cancel := d.cancel
	done := d.done
	d.cancel = nil
	d.done = nil
	d.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done

	d.logger.Info("continuous sampling stopped")
}

// Sampling reports whether the background measurement loop is running.
func (d *DMM) Sampling() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.cancel != nil
}

// clearSampling releases loop state after a self-terminated loop.
func (d *DMM) clearSampling() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
		d.done = nil
	}
}

// Samples returns a copy of the buffered measurement series in order.
func (d *DMM) Samples() []Sample {
	return d.buffer.Snapshot()
}

// ClearSamples discards the buffered measurement series.
func (d *DMM) ClearSamples() {
	d.buffer.Reset()
}

// Stats summarizes the buffered series. An empty series yields a zero
// Stats with Count 0.
func (d *DMM) Stats() Stats {
	samples := d.buffer.Snapshot()
	if len(samples) == 0 {
		return Stats{}
	}

	s := Stats{
		Count: len(samples),
		Min:   samples[0].Value,
		Max:   samples[0].Value,
	}
	sum := 0.0
	for _, sample := range samples {
		sum += sample.Value
		if sample.Value < s.Min {
			s.Min = sample.Value
		}
		if sample.Value > s.Max {
			s.Max = sample.Value
		}
	}
	s.Mean = sum / float64(s.Count)

	if s.Count > 1 {
		ss := 0.0
		for _, sample := range samples {
			diff := sample.Value - s.Mean
			ss += diff * diff
		}
		s.StdDev = math.Sqrt(ss / float64(s.Count-1))
	}

	return s
}
