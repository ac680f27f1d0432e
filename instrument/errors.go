package instrument

import "errors"

var (
	// ErrAddressInUse indicates that a session is already open on the
	// requested resource address.
	ErrAddressInUse = errors.New("address already in use")
	// ErrSessionNotFound indicates that no session exists for the given id.
	ErrSessionNotFound = errors.New("session not found")
	// ErrValueOutOfRange indicates that a parameter value is outside the
	// instrument's accepted range.
	ErrValueOutOfRange = errors.New("value out of range")
	// ErrMalformedIdentity indicates an identification string that does not
	// have the standard four comma-separated fields.
	ErrMalformedIdentity = errors.New("malformed identification string")
)
