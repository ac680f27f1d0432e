package visa

import "errors"

var (
	// ErrInvalidAddress indicates that a resource string failed the allow-list
	// grammar. The address never reaches a transport.
	ErrInvalidAddress = errors.New("invalid VISA address")

	// ErrProhibitedCharacter indicates that a resource string contains control
	// characters or shell metacharacters. Rejected before pattern matching.
	ErrProhibitedCharacter = errors.New("VISA address contains prohibited characters")

	// ErrUnsupportedInterface indicates that the address is grammatically valid
	// but no transport is available for its interface type on this host.
	ErrUnsupportedInterface = errors.New("no transport available for interface type")

	// ErrInvalidTransition is returned when an attempt is made to transition
	// the connection state to an invalid state.
	ErrInvalidTransition = errors.New("invalid state transition")
)
