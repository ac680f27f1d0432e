package tektronix

import "errors"

var (
	// ErrInvalidChannel indicates a channel number outside the
	// oscilloscope's channel count.
	ErrInvalidChannel = errors.New("invalid channel")
	// ErrInvalidCoupling indicates an unsupported input coupling mode.
	ErrInvalidCoupling = errors.New("invalid coupling mode")
	// ErrInvalidSlope indicates an unsupported trigger slope.
	ErrInvalidSlope = errors.New("invalid trigger slope")
	// ErrInvalidMeasurement indicates an unsupported automated measurement
	// type.
	ErrInvalidMeasurement = errors.New("invalid measurement type")
	// ErrEmptyWaveform indicates that the instrument returned a curve with
	// no sample points.
	ErrEmptyWaveform = errors.New("empty waveform")
)
