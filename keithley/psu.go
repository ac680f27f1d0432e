package keithley

import (
	"fmt"
	"time"

	"github.com/gotmc/query"

	"github.com/anirudhiyengar-cell/Digantara-instrumentation/instrument"
	"github.com/anirudhiyengar-cell/Digantara-instrumentation/logger"
)

// Conn is the connection capability the drivers need. *scpi.Wrapper
// satisfies it.
type Conn interface {
	instrument.Connectable
	instrument.Identifier
	instrument.Writer
	instrument.Querier
	DrainErrorQueue() ([]string, error)
}

// PSUChannel holds the published output limits of one power supply channel.
type PSUChannel struct {
	Voltage instrument.Range
	Current instrument.Range
}

// PSUConfig holds the channel limits and settle timing of a power supply.
type PSUConfig struct {
	// Channels lists the output channels in order; channel numbers are
	// 1-based indexes into this slice.
	Channels []PSUChannel

	// SettleDelay is the wait after a setpoint change before the output is
	// considered stable.
	SettleDelay time.Duration
	// ResetDelay is the wait after *RST before the instrument accepts
	// further commands.
	ResetDelay time.Duration
}

// PSU2230GConfig returns the limits of the 2230G-30-1: two 30 V / 1.5 A
// channels and one 6 V / 5 A channel.
func PSU2230GConfig() PSUConfig {
	return PSUConfig{
		Channels: []PSUChannel{
			{Voltage: instrument.Range{Name: "voltage", Unit: "V", Min: 0, Max: 30}, Current: instrument.Range{Name: "current limit", Unit: "A", Min: 0, Max: 1.5}},
			{Voltage: instrument.Range{Name: "voltage", Unit: "V", Min: 0, Max: 30}, Current: instrument.Range{Name: "current limit", Unit: "A", Min: 0, Max: 1.5}},
			{Voltage: instrument.Range{Name: "voltage", Unit: "V", Min: 0, Max: 6}, Current: instrument.Range{Name: "current limit", Unit: "A", Min: 0, Max: 5}},
		},
		SettleDelay: 50 * time.Millisecond,
		ResetDelay:  time.Second,
	}
}

// PSUMeasurement is one readback of a power supply channel.
type PSUMeasurement struct {
	Channel   int       `json:"channel"`
	Voltage   float64   `json:"voltage"`
	Current   float64   `json:"current"`
	Power     float64   `json:"power"`
	Timestamp time.Time `json:"timestamp"`
}

// PSU drives a Keithley 2230G series programmable power supply.
//
// Channel-addressed operations select the channel (INST:NSEL) and issue the
// setpoint as one sequence; the connection handle's own lock serializes each
// command, and the driver does not interleave sequences across goroutines on
// the same handle.
type PSU struct {
	Conn
	cfg    PSUConfig
	logger logger.Logger
}

// NewPSU creates a power supply driver on an open or yet-to-be-opened
// connection handle. A zero-value config falls back to the 2230G limits.
func NewPSU(conn Conn, cfg PSUConfig, l logger.Logger) *PSU {
	if len(cfg.Channels) == 0 {
		cfg = PSU2230GConfig()
	}
	if l == nil {
		l = logger.GetLogger()
	}

	return &PSU{Conn: conn, cfg: cfg, logger: l}
}

// ChannelCount returns the number of output channels.
func (p *PSU) ChannelCount() int { return len(p.cfg.Channels) }

func (p *PSU) channel(ch int) (PSUChannel, error) {
	if ch < 1 || ch > len(p.cfg.Channels) {
		return PSUChannel{}, fmt.Errorf("%w: %d not in [1, %d]", ErrInvalidChannel, ch, len(p.cfg.Channels))
	}

	return p.cfg.Channels[ch-1], nil
}

func (p *PSU) selectChannel(ch int) error {
	return p.Write(fmt.Sprintf("INST:NSEL %d", ch))
}

// Configure sets the voltage setpoint and current limit of one channel,
// waits for the output to settle, then drains the instrument error queue so
// a rejected setpoint surfaces as ErrInstrumentFault instead of passing
// silently.
func (p *PSU) Configure(ch int, voltage, current float64) error {
	limits, err := p.channel(ch)
	if err != nil {
		return err
	}
	if err := limits.Voltage.Check(voltage); err != nil {
		return fmt.Errorf("channel %d: %w", ch, err)
	}
	if err := limits.Current.Check(current); err != nil {
		return fmt.Errorf("channel %d: %w", ch, err)
	}

	if err := p.selectChannel(ch); err != nil {
		return err
	}
	if err := p.Write(fmt.Sprintf("VOLT %g", voltage)); err != nil {
		return err
	}
	if err := p.Write(fmt.Sprintf("CURR %g", current)); err != nil {
		return err
	}
	time.Sleep(p.cfg.SettleDelay)

	entries, err := p.DrainErrorQueue()
	if err != nil {
		return err
	}
	if len(entries) > 0 {
		return fmt.Errorf("%w after configuring channel %d: %v", ErrInstrumentFault, ch, entries)
	}

	p.logger.Info("psu channel configured", "channel", ch, "voltage", voltage, "current", current)

	return nil
}

// SetVoltage changes the voltage setpoint of one channel and waits for the
// output to settle.
func (p *PSU) SetVoltage(ch int, voltage float64) error {
	limits, err := p.channel(ch)
	if err != nil {
		return err
	}
	if err := limits.Voltage.Check(voltage); err != nil {
		return fmt.Errorf("channel %d: %w", ch, err)
	}

	if err := p.selectChannel(ch); err != nil {
		return err
	}
	if err := p.Write(fmt.Sprintf("VOLT %g", voltage)); err != nil {
		return err
	}
	time.Sleep(p.cfg.SettleDelay)

	return nil
}

// SetCurrentLimit changes the current limit of one channel.
func (p *PSU) SetCurrentLimit(ch int, current float64) error {
	limits, err := p.channel(ch)
	if err != nil {
		return err
	}
	if err := limits.Current.Check(current); err != nil {
		return fmt.Errorf("channel %d: %w", ch, err)
	}

	if err := p.selectChannel(ch); err != nil {
		return err
	}

	return p.Write(fmt.Sprintf("CURR %g", current))
}

// EnableOutput turns one channel's output on.
func (p *PSU) EnableOutput(ch int) error {
	return p.setOutput(ch, true)
}

// DisableOutput turns one channel's output off.
func (p *PSU) DisableOutput(ch int) error {
	return p.setOutput(ch, false)
}

func (p *PSU) setOutput(ch int, on bool) error {
	if _, err := p.channel(ch); err != nil {
		return err
	}
	if err := p.selectChannel(ch); err != nil {
		return err
	}

	state := "OFF"
	if on {
		state = "ON"
	}
	if err := p.Write("CHAN:OUTP " + state); err != nil {
		return err
	}

	p.logger.Info("psu output", "channel", ch, "state", state)

	return nil
}

// DisableAllOutputs turns off every channel, continuing past individual
// failures and returning the first error encountered.
func (p *PSU) DisableAllOutputs() error {
	var firstErr error
	for ch := 1; ch <= len(p.cfg.Channels); ch++ {
		if err := p.DisableOutput(ch); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}

// Measure reads back voltage and current on one channel and derives power.
func (p *PSU) Measure(ch int) (PSUMeasurement, error) {
	if _, err := p.channel(ch); err != nil {
		return PSUMeasurement{}, err
	}
	if err := p.selectChannel(ch); err != nil {
		return PSUMeasurement{}, err
	}

	v, err := query.Float64(p, "MEAS:VOLT?")
	if err != nil {
		return PSUMeasurement{}, fmt.Errorf("measure voltage: %w", err)
	}
	i, err := query.Float64(p, "MEAS:CURR?")
	if err != nil {
		return PSUMeasurement{}, fmt.Errorf("measure current: %w", err)
	}

	return PSUMeasurement{
		Channel:   ch,
		Voltage:   v,
		Current:   i,
		Power:     v * i,
		Timestamp: time.Now().UTC(),
	}, nil
}

// MeasureAll reads back every channel in order. Used for snapshot exports of
// the whole supply.
func (p *PSU) MeasureAll() ([]PSUMeasurement, error) {
	measurements := make([]PSUMeasurement, 0, len(p.cfg.Channels))
	for ch := 1; ch <= len(p.cfg.Channels); ch++ {
		m, err := p.Measure(ch)
		if err != nil {
			return nil, fmt.Errorf("channel %d: %w", ch, err)
		}
		measurements = append(measurements, m)
	}

	return measurements, nil
}

// Reset restores factory defaults, clears status, and waits the configured
// reset delay before returning.
func (p *PSU) Reset() error {
	if err := p.Write("*RST"); err != nil {
		return err
	}
	time.Sleep(p.cfg.ResetDelay)

	return p.Write("*CLS")
}
