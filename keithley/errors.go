package keithley

import "errors"

var (
	// ErrInvalidChannel indicates a channel number outside the instrument's
	// channel count.
	ErrInvalidChannel = errors.New("invalid channel")
	// ErrUnknownFunction indicates an unrecognized measurement function name.
	ErrUnknownFunction = errors.New("unknown measurement function")
	// ErrSamplingActive indicates that a continuous measurement loop is
	// already running.
	ErrSamplingActive = errors.New("continuous sampling already active")
	// ErrInstrumentFault indicates that the instrument reported entries on
	// its own error queue after a configuration sequence.
	ErrInstrumentFault = errors.New("instrument reported errors")
)
