package tektronix

import (
	"fmt"
	"strings"
	"time"

	"github.com/gotmc/query"

	"github.com/anirudhiyengar-cell/Digantara-instrumentation/instrument"
	"github.com/anirudhiyengar-cell/Digantara-instrumentation/logger"
)

// Conn is the connection capability the scope driver needs. *scpi.Wrapper
// satisfies it.
type Conn interface {
	instrument.Connectable
	instrument.Identifier
	instrument.Writer
	instrument.Querier
	QueryBinary(cmd string) ([]byte, error)
}

// Coupling is a channel input coupling mode.
type Coupling string

const (
	CouplingDC    Coupling = "DC"
	CouplingAC    Coupling = "AC"
	CouplingDCRej Coupling = "DCREJ"
)

// Slope is a trigger edge slope.
type Slope string

const (
	SlopeRise   Slope = "RISE"
	SlopeFall   Slope = "FALL"
	SlopeEither Slope = "EITHER"
)

// MeasurementType is an automated measurement supported by the MSO24.
type MeasurementType string

const (
	MeasFrequency MeasurementType = "FREQUENCY"
	MeasPeriod    MeasurementType = "PERIOD"
	MeasPk2Pk     MeasurementType = "PK2PK"
	MeasRMS       MeasurementType = "RMS"
	MeasMean      MeasurementType = "MEAN"
	MeasAmplitude MeasurementType = "AMPLITUDE"
	MeasMaximum   MeasurementType = "MAXIMUM"
	MeasMinimum   MeasurementType = "MINIMUM"
	MeasRiseTime  MeasurementType = "RISETIME"
	MeasFallTime  MeasurementType = "FALLTIME"
)

var measurementTypes = map[MeasurementType]struct{}{
	MeasFrequency: {}, MeasPeriod: {}, MeasPk2Pk: {}, MeasRMS: {},
	MeasMean: {}, MeasAmplitude: {}, MeasMaximum: {}, MeasMinimum: {},
	MeasRiseTime: {}, MeasFallTime: {},
}

// ScopeConfig holds the channel count, the accepted discrete settings and
// the settle timing of the oscilloscope.
type ScopeConfig struct {
	Channels int

	// VerticalScales lists the accepted volts-per-division settings.
	VerticalScales instrument.Discrete
	// HorizontalScales lists the accepted seconds-per-division settings.
	HorizontalScales instrument.Discrete
	// TriggerLevel bounds the trigger level voltage.
	TriggerLevel instrument.Range
	// ProbeGain bounds the probe gain factor.
	ProbeGain instrument.Range

	// CommandDelay is the wait between consecutive configuration commands.
	CommandDelay time.Duration
	// FreezeDelay is the wait after stopping acquisition before reading
	// display or waveform data.
	FreezeDelay time.Duration
}

// MSO24Config returns the accepted settings of a 200 MHz MSO24.
func MSO24Config() ScopeConfig {
	return ScopeConfig{
		Channels: 4,
		VerticalScales: instrument.Discrete{
			Name: "vertical scale",
			Unit: "V/div",
			Values: []float64{
				0.001, 0.002, 0.005, 0.01, 0.02, 0.05,
				0.1, 0.2, 0.5, 1, 2, 5, 10,
			},
		},
		HorizontalScales: instrument.Discrete{
			Name: "horizontal scale",
			Unit: "s/div",
			Values: []float64{
				1e-9, 2e-9, 5e-9, 1e-8, 2e-8, 5e-8, 1e-7, 2e-7, 5e-7,
				1e-6, 2e-6, 5e-6, 1e-5, 2e-5, 5e-5, 1e-4, 2e-4, 5e-4,
				1e-3, 2e-3, 5e-3, 1e-2, 2e-2, 5e-2, 0.1, 0.2, 0.5,
				1, 2, 5, 10, 20, 50,
			},
		},
		TriggerLevel: instrument.Range{Name: "trigger level", Unit: "V", Min: -50, Max: 50},
		ProbeGain:    instrument.Range{Name: "probe gain", Unit: "x", Min: 0.001, Max: 1000},
		CommandDelay: 50 * time.Millisecond,
		FreezeDelay:  200 * time.Millisecond,
	}
}

// ChannelSetup is the vertical configuration of one scope channel.
type ChannelSetup struct {
	Scale     float64  `json:"scale"`
	Offset    float64  `json:"offset"`
	Coupling  Coupling `json:"coupling"`
	ProbeGain float64  `json:"probe_gain"`
}

// Scope drives a Tektronix MSO24 oscilloscope.
type Scope struct {
	Conn
	cfg    ScopeConfig
	logger logger.Logger
}

// NewScope creates an oscilloscope driver on a connection handle. A
// zero-value config falls back to the MSO24 settings.
func NewScope(conn Conn, cfg ScopeConfig, l logger.Logger) *Scope {
	if cfg.Channels == 0 {
		cfg = MSO24Config()
	}
	if l == nil {
		l = logger.GetLogger()
	}

	return &Scope{Conn: conn, cfg: cfg, logger: l}
}

func (s *Scope) checkChannel(ch int) error {
	if ch < 1 || ch > s.cfg.Channels {
		return fmt.Errorf("%w: %d not in [1, %d]", ErrInvalidChannel, ch, s.cfg.Channels)
	}

	return nil
}

func (s *Scope) pause() {
	if s.cfg.CommandDelay > 0 {
		time.Sleep(s.cfg.CommandDelay)
	}
}

// ConfigureChannel enables a channel display and applies its vertical
// settings. The scale must be one of the instrument's discrete steps.
func (s *Scope) ConfigureChannel(ch int, setup ChannelSetup) error {
	if err := s.checkChannel(ch); err != nil {
		return err
	}
	if err := s.cfg.VerticalScales.Check(setup.Scale); err != nil {
		return err
	}
	switch setup.Coupling {
	case CouplingDC, CouplingAC, CouplingDCRej:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidCoupling, setup.Coupling)
	}
	if err := s.cfg.ProbeGain.Check(setup.ProbeGain); err != nil {
		return err
	}

	steps := []string{
		fmt.Sprintf("CH%d:DISplay ON", ch),
		fmt.Sprintf("CH%d:SCAle %g", ch, setup.Scale),
		fmt.Sprintf("CH%d:OFFSet %g", ch, setup.Offset),
		fmt.Sprintf("CH%d:COUPling %s", ch, setup.Coupling),
		fmt.Sprintf("CH%d:PRObe:GAIN %g", ch, setup.ProbeGain),
	}
	for _, cmd := range steps {
		if err := s.Write(cmd); err != nil {
			return err
		}
		s.pause()
	}

	s.logger.Info("scope channel configured", "channel", ch, "scale", setup.Scale, "coupling", setup.Coupling)

	return nil
}

// ConfigureTimebase applies the horizontal scale and position. The scale
// must be one of the instrument's discrete steps.
func (s *Scope) ConfigureTimebase(scale, position float64) error {
	if err := s.cfg.HorizontalScales.Check(scale); err != nil {
		return err
	}

	if err := s.Write(fmt.Sprintf("HORizontal:SCAle %g", scale)); err != nil {
		return err
	}
	s.pause()

	return s.Write(fmt.Sprintf("HORizontal:POSition %g", position))
}

// ConfigureEdgeTrigger sets up an A-event edge trigger on one channel.
func (s *Scope) ConfigureEdgeTrigger(ch int, level float64, slope Slope) error {
	if err := s.checkChannel(ch); err != nil {
		return err
	}
	if err := s.cfg.TriggerLevel.Check(level); err != nil {
		return err
	}
	switch slope {
	case SlopeRise, SlopeFall, SlopeEither:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidSlope, slope)
	}

	steps := []string{
		"TRIGger:A:TYPE EDGE",
		fmt.Sprintf("TRIGger:A:EDGE:SOUrce CH%d", ch),
		fmt.Sprintf("TRIGger:A:LEVel:CH%d %g", ch, level),
		fmt.Sprintf("TRIGger:A:EDGE:SLOpe %s", slope),
	}
	for _, cmd := range steps {
		if err := s.Write(cmd); err != nil {
			return err
		}
		s.pause()
	}

	return nil
}

// Run starts continuous acquisition.
func (s *Scope) Run() error {
	return s.Write("ACQuire:STATE RUN")
}

// Stop halts acquisition, freezing the displayed waveform.
func (s *Scope) Stop() error {
	return s.Write("ACQuire:STATE STOP")
}

// SingleSequence arms a single-shot acquisition: the scope acquires one
// record on the next trigger and stops.
func (s *Scope) SingleSequence() error {
	if err := s.Write("ACQuire:STOPAfter SEQUENCE"); err != nil {
		return err
	}
	s.pause()

	return s.Write("ACQuire:STATE RUN")
}

// Measure configures measurement slot 1 for the given type and source and
// returns its value.
func (s *Scope) Measure(ch int, typ MeasurementType) (float64, error) {
	if err := s.checkChannel(ch); err != nil {
		return 0, err
	}
	typ = MeasurementType(strings.ToUpper(string(typ)))
	if _, ok := measurementTypes[typ]; !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidMeasurement, typ)
	}

	if err := s.Write(fmt.Sprintf("MEASUrement:MEAS1:TYPe %s", typ)); err != nil {
		return 0, err
	}
	s.pause()
	if err := s.Write(fmt.Sprintf("MEASUrement:MEAS1:SOUrce1 CH%d", ch)); err != nil {
		return 0, err
	}
	s.pause()

	val, err := query.Float64(s, "MEASUrement:MEAS1:VALue?")
	if err != nil {
		return 0, fmt.Errorf("measurement value: %w", err)
	}

	return val, nil
}

// Screenshot captures the display as a PNG image and returns the raw bytes.
// Acquisition is stopped for the duration of the transfer and resumed
// afterwards.
func (s *Scope) Screenshot() ([]byte, error) {
	if err := s.Stop(); err != nil {
		return nil, err
	}
	if s.cfg.FreezeDelay > 0 {
		time.Sleep(s.cfg.FreezeDelay)
	}
	defer func() {
		if err := s.Run(); err != nil {
			s.logger.Warn("could not resume acquisition after screenshot", "error", err)
		}
	}()

	if err := s.Write("SAVe:IMAGe:FILEFormat PNG"); err != nil {
		return nil, err
	}
	s.pause()

	img, err := s.QueryBinary("HARDCopy STARt")
	if err != nil {
		return nil, fmt.Errorf("screenshot transfer: %w", err)
	}

	s.logger.Info("screenshot captured", "bytes", len(img))

	return img, nil
}
