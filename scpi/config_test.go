package scpi

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/anirudhiyengar-cell/Digantara-instrumentation/visa"
)

func TestNewConfigDefaults(t *testing.T) {
	require := require.New(t)

	cfg, err := NewConfig()
	require.NoError(err)
	require.Equal(10*time.Second, cfg.timeout)
	require.Equal(1024, cfg.maxCommandLen)
	require.Equal(1<<20, cfg.maxResponseSize)
	require.Equal(byte('\n'), cfg.terminator)
	require.Equal(10, cfg.errorQueueLimit)
	require.NotNil(cfg.dialer)
	require.NotNil(cfg.logger)
}

func TestOptionRanges(t *testing.T) {
	require := require.New(t)

	t.Run("timeout", func(t *testing.T) {
		cfg, err := NewConfig(WithTimeout(250 * time.Millisecond))
		require.NoError(err)
		require.Equal(250*time.Millisecond, cfg.timeout)

		_, err = NewConfig(WithTimeout(0))
		require.Error(err)
		_, err = NewConfig(WithTimeout(301 * time.Second))
		require.Error(err)
	})

	t.Run("max command length", func(t *testing.T) {
		cfg, err := NewConfig(WithMaxCommandLength(256))
		require.NoError(err)
		require.Equal(256, cfg.maxCommandLen)

		_, err = NewConfig(WithMaxCommandLength(4))
		require.Error(err)
		_, err = NewConfig(WithMaxCommandLength(10000))
		require.Error(err)
	})

	t.Run("max response size", func(t *testing.T) {
		cfg, err := NewConfig(WithMaxResponseSize(4 << 20))
		require.NoError(err)
		require.Equal(4<<20, cfg.maxResponseSize)

		_, err = NewConfig(WithMaxResponseSize(16))
		require.Error(err)
		_, err = NewConfig(WithMaxResponseSize(512 << 20))
		require.Error(err)
	})

	t.Run("terminator", func(t *testing.T) {
		cfg, err := NewConfig(WithTerminator('\r'))
		require.NoError(err)
		require.Equal(byte('\r'), cfg.terminator)

		_, err = NewConfig(WithTerminator(';'))
		require.Error(err)
	})

	t.Run("error queue limit", func(t *testing.T) {
		cfg, err := NewConfig(WithErrorQueueLimit(1))
		require.NoError(err)
		require.Equal(1, cfg.errorQueueLimit)

		_, err = NewConfig(WithErrorQueueLimit(0))
		require.Error(err)
		_, err = NewConfig(WithErrorQueueLimit(101))
		require.Error(err)
	})

	t.Run("dialer", func(t *testing.T) {
		_, err := NewConfig(WithDialer(nil))
		require.Error(err)

		called := false
		d := func(addr visa.Address) (visa.Transport, error) {
			called = true
			return nil, nil
		}
		cfg, err := NewConfig(WithDialer(d))
		require.NoError(err)
		_, _ = cfg.dialer(visa.Address{})
		require.True(called)
	})
}

func TestOptionOnNilConfig(t *testing.T) {
	require := require.New(t)

	opts := []Option{
		WithTimeout(time.Second),
		WithMaxCommandLength(256),
		WithMaxResponseSize(1024),
		WithTerminator('\n'),
		WithErrorQueueLimit(5),
	}
	for _, opt := range opts {
		require.ErrorIs(opt.apply(nil), ErrConfigNil)
	}
}
