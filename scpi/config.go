package scpi

import (
	"errors"
	"time"

	"github.com/anirudhiyengar-cell/Digantara-instrumentation/logger"
	"github.com/anirudhiyengar-cell/Digantara-instrumentation/visa"
)

// Config holds the communication parameters of one Wrapper.
//
// The wrapper treats its configuration as immutable for the lifetime of one
// connection handle; options are applied at construction time only.
type Config struct {
	// timeout bounds every blocking call: connect, write, query, disconnect.
	// Defaults to 10 seconds.
	timeout time.Duration

	// maxCommandLen bounds outbound command length in bytes.
	// Defaults to 1024.
	maxCommandLen int

	// maxResponseSize caps how many response bytes a query may return before
	// the wrapper reports a protocol error. Defaults to 1 MiB.
	maxResponseSize int

	// terminator is the line-termination byte appended to outbound commands
	// and stripped from responses. Defaults to '\n'.
	terminator byte

	// errorQueueLimit caps the iterations of DrainErrorQueue.
	// Defaults to 10.
	errorQueueLimit int

	// dialer maps the validated address onto a transport. Defaults to
	// visa.DefaultDialer; tests substitute mock transports here.
	dialer visa.Dialer

	// logger receives command/response records at debug level and lifecycle
	// events at info level.
	logger logger.Logger
}

// NewConfig creates a wrapper configuration with defaults applied, then
// customized by the given options.
func NewConfig(opts ...Option) (*Config, error) {
	cfg := &Config{
		timeout:         10 * time.Second,
		maxCommandLen:   1024,
		maxResponseSize: 1 << 20,
		terminator:      '\n',
		errorQueueLimit: 10,
		dialer:          visa.DefaultDialer,
		logger:          logger.GetLogger(),
	}

	for _, opt := range opts {
		if err := opt.apply(cfg); err != nil {
			return cfg, err
		}
	}

	return cfg, nil
}

// Timeout returns the configured per-call timeout.
func (cfg *Config) Timeout() time.Duration { return cfg.timeout }

// Option represents a functional option for configuring a Config.
type Option interface {
	apply(*Config) error
}

type optFunc struct {
	name      string
	applyFunc func(*Config) error
}

func (o *optFunc) apply(cfg *Config) error { return o.applyFunc(cfg) }

func newOptFunc(name string, f func(*Config) error) *optFunc {
	return &optFunc{name: name, applyFunc: f}
}

// WithTimeout sets the timeout bounding every blocking call.
// It must be between 1 millisecond and 300 seconds.
//
// The default value is 10 seconds.
func WithTimeout(val time.Duration) Option {
	return newOptFunc("WithTimeout", func(cfg *Config) error {
		if cfg == nil {
			return ErrConfigNil
		}

		if val < time.Millisecond || val > 300*time.Second {
			return errors.New("timeout out of range [1ms, 300s]")
		}
		cfg.timeout = val

		return nil
	})
}

// WithMaxCommandLength sets the maximum outbound command length in bytes.
// It must be between 8 and 4096.
//
// The default value is 1024.
func WithMaxCommandLength(val int) Option {
	return newOptFunc("WithMaxCommandLength", func(cfg *Config) error {
		if cfg == nil {
			return ErrConfigNil
		}

		if val < 8 || val > 4096 {
			return errors.New("max command length out of range [8, 4096]")
		}
		cfg.maxCommandLen = val

		return nil
	})
}

// WithMaxResponseSize caps the number of response bytes a query may return.
// A response exceeding the cap is a protocol error, not a truncation.
// It must be between 64 bytes and 256 MiB; waveform downloads need the
// headroom.
//
// The default value is 1 MiB.
func WithMaxResponseSize(val int) Option {
	return newOptFunc("WithMaxResponseSize", func(cfg *Config) error {
		if cfg == nil {
			return ErrConfigNil
		}

		if val < 64 || val > 256<<20 {
			return errors.New("max response size out of range [64, 256MiB]")
		}
		cfg.maxResponseSize = val

		return nil
	})
}

// WithTerminator sets the line-termination byte appended to outbound commands
// and stripped from responses.
//
// The default value is '\n'.
func WithTerminator(val byte) Option {
	return newOptFunc("WithTerminator", func(cfg *Config) error {
		if cfg == nil {
			return ErrConfigNil
		}

		if val != '\n' && val != '\r' {
			return errors.New("terminator must be LF or CR")
		}
		cfg.terminator = val

		return nil
	})
}

// WithErrorQueueLimit caps the iterations of DrainErrorQueue. Reaching the
// cap without the instrument reporting an empty queue is a hard failure.
// It must be between 1 and 100.
//
// The default value is 10.
func WithErrorQueueLimit(val int) Option {
	return newOptFunc("WithErrorQueueLimit", func(cfg *Config) error {
		if cfg == nil {
			return ErrConfigNil
		}

		if val < 1 || val > 100 {
			return errors.New("error queue limit out of range [1, 100]")
		}
		cfg.errorQueueLimit = val

		return nil
	})
}

// WithDialer substitutes the transport dialer. Intended for tests and for
// hosts with a nonstandard transport layout.
func WithDialer(d visa.Dialer) Option {
	return newOptFunc("WithDialer", func(cfg *Config) error {
		if cfg == nil {
			return ErrConfigNil
		}
		if d == nil {
			return errors.New("dialer is nil")
		}
		cfg.dialer = d

		return nil
	})
}

// WithLogger sets the logger for the wrapper.
//
// The default logger is the global logger instance.
func WithLogger(l logger.Logger) Option {
	return newOptFunc("WithLogger", func(cfg *Config) error {
		if cfg == nil {
			return ErrConfigNil
		}

		cfg.logger = l

		return nil
	})
}
