package instrument

import (
	"github.com/gotmc/query"
)

// Connectable is the lifecycle capability of a connection handle.
type Connectable interface {
	// Connect opens the handle and returns the instrument identification
	// string.
	Connect() (string, error)
	// Disconnect closes the handle. It is idempotent.
	Disconnect() error
	// Connected reports whether the handle is open.
	Connected() bool
}

// Querier is the command/response capability. It aliases query.Querier so
// the query helper functions (query.Float64, query.Int, ...) work against
// any driver.
type Querier = query.Querier

// Writer is the fire-and-forget command capability.
type Writer interface {
	Write(cmd string) error
}

// Identifier exposes the identification string cached at connect time.
type Identifier interface {
	Identity() string
}

// Device is what the session registry tracks: a handle that can be opened,
// closed, and identified. Every driver satisfies it by embedding the
// underlying wrapper.
type Device interface {
	Connectable
	Identifier
}
