package tektronix

import (
	"fmt"
	"time"

	"github.com/gotmc/query"
)

// Waveform is one scaled channel record.
type Waveform struct {
	Channel int `json:"channel"`
	// Points holds the sample values in volts.
	Points []float64 `json:"points"`
	// XIncrement is the time step between consecutive points in seconds.
	XIncrement float64 `json:"x_increment"`
	// XZero is the time of the first point relative to the trigger.
	XZero float64 `json:"x_zero"`

	CapturedAt time.Time `json:"captured_at"`
}

// Times returns the time axis of the record in seconds.
func (w *Waveform) Times() []float64 {
	times := make([]float64, len(w.Points))
	for i := range times {
		times[i] = w.XZero + float64(i)*w.XIncrement
	}

	return times
}

// preamble holds the scaling factors of an outgoing waveform transfer.
type preamble struct {
	yMult float64
	yOff  float64
	yZero float64
	xIncr float64
	xZero float64
}

func (s *Scope) readPreamble() (preamble, error) {
	var p preamble
	var err error

	if p.yMult, err = query.Float64(s, "WFMOutpre:YMUlt?"); err != nil {
		return p, fmt.Errorf("preamble YMUlt: %w", err)
	}
	if p.yOff, err = query.Float64(s, "WFMOutpre:YOFf?"); err != nil {
		return p, fmt.Errorf("preamble YOFf: %w", err)
	}
	if p.yZero, err = query.Float64(s, "WFMOutpre:YZEro?"); err != nil {
		return p, fmt.Errorf("preamble YZEro: %w", err)
	}
	if p.xIncr, err = query.Float64(s, "WFMOutpre:XINcr?"); err != nil {
		return p, fmt.Errorf("preamble XINcr: %w", err)
	}
	if p.xZero, err = query.Float64(s, "WFMOutpre:XZEro?"); err != nil {
		return p, fmt.Errorf("preamble XZEro: %w", err)
	}

	return p, nil
}

// Waveform downloads the current record of one channel as signed 8-bit
// samples and scales it to volts using the transfer preamble. Acquisition is
// stopped for the duration of the transfer and resumed afterwards.
func (s *Scope) Waveform(ch int) (*Waveform, error) {
	if err := s.checkChannel(ch); err != nil {
		return nil, err
	}

	if err := s.Stop(); err != nil {
		return nil, err
	}
	if s.cfg.FreezeDelay > 0 {
		time.Sleep(s.cfg.FreezeDelay)
	}
	defer func() {
		if err := s.Run(); err != nil {
			s.logger.Warn("could not resume acquisition after waveform transfer", "error", err)
		}
	}()

	setup := []string{
		fmt.Sprintf("DATa:SOUrce CH%d", ch),
		"DATa:ENCdg RIBinary",
		"DATa:WIDth 1",
	}
	for _, cmd := range setup {
		if err := s.Write(cmd); err != nil {
			return nil, err
		}
		s.pause()
	}

	pre, err := s.readPreamble()
	if err != nil {
		return nil, err
	}

	raw, err := s.QueryBinary("CURVe?")
	if err != nil {
		return nil, fmt.Errorf("curve transfer: %w", err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: channel %d", ErrEmptyWaveform, ch)
	}

	points := make([]float64, len(raw))
	for i, b := range raw {
		// RIBinary width 1 is signed 8-bit.
		points[i] = (float64(int8(b))-pre.yOff)*pre.yMult + pre.yZero
	}

	s.logger.Info("waveform transferred", "channel", ch, "points", len(points))

	return &Waveform{
		Channel:    ch,
		Points:     points,
		XIncrement: pre.xIncr,
		XZero:      pre.xZero,
		CapturedAt: time.Now().UTC(),
	}, nil
}
