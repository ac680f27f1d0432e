package scpi

import (
	"errors"

	"github.com/anirudhiyengar-cell/Digantara-instrumentation/visa"
)

// ErrInvalidAddress indicates that a resource string failed the allow-list
// grammar. The address never reaches a transport.
//
// Re-exported from the visa package so call sites matching wrapper errors
// need only one import.
var ErrInvalidAddress = visa.ErrInvalidAddress

var (
	// ErrInvalidCommand indicates that a command failed length or character
	// validation. The command never reaches the transport.
	ErrInvalidCommand = errors.New("invalid SCPI command")

	// ErrNotConnected indicates an operation was attempted on a closed handle.
	ErrNotConnected = errors.New("instrument not connected")

	// ErrConnection indicates the transport could not be opened: device
	// absent, wrong address, permissions, or already in use.
	ErrConnection = errors.New("connection failed")

	// ErrTimeout indicates a write or read did not complete within the
	// configured timeout. The handle stays connected but its state on the
	// instrument side is unknown; re-establishing known state is the caller's
	// responsibility.
	ErrTimeout = errors.New("I/O timeout")

	// ErrProtocol indicates the response violated the transport framing
	// contract: it exceeded the configured maximum size or a binary block
	// header was malformed. Oversized responses are never silently truncated.
	ErrProtocol = errors.New("protocol error")
)

var (
	// ErrConfigNil indicates that a nil Config was provided.
	ErrConfigNil = errors.New("wrapper config is nil")

	// ErrErrorQueueOverflow indicates the instrument error queue did not
	// report empty within the configured iteration cap. The session state is
	// unknown at that point, so this is a hard failure.
	ErrErrorQueueOverflow = errors.New("instrument error queue did not drain within iteration cap")
)
