package instrument

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v3"
	"go.uber.org/multierr"

	"github.com/anirudhiyengar-cell/Digantara-instrumentation/logger"
)

// Kind names the driver family a session was opened with.
type Kind string

const (
	KindGeneric Kind = "generic"
	KindPSU     Kind = "psu"
	KindDMM     Kind = "dmm"
	KindScope   Kind = "scope"
)

// Session is one open connection handle tracked by the registry.
type Session struct {
	ID        string    `json:"id"`
	Address   string    `json:"address"`
	Kind      Kind      `json:"kind"`
	Identity  string    `json:"identity"`
	CreatedAt time.Time `json:"created_at"`

	// Device is the driver owning the handle. Callers assert it to the
	// concrete driver type for kind-specific operations.
	Device Device `json:"-"`
}

// Registry tracks open sessions by id and enforces that at most one session
// exists per resource address.
//
// All methods are safe for concurrent use.
type Registry struct {
	sessions *xsync.MapOf[string, *Session]
	byAddr   *xsync.MapOf[string, string]
	logger   logger.Logger
}

// NewRegistry creates an empty session registry.
func NewRegistry(l logger.Logger) *Registry {
	if l == nil {
		l = logger.GetLogger()
	}

	return &Registry{
		sessions: xsync.NewMapOf[string, *Session](),
		byAddr:   xsync.NewMapOf[string, string](),
		logger:   l,
	}
}

// Add registers an open device under a fresh session id.
//
// The address claim is atomic: a second Add for the same address fails with
// ErrAddressInUse and leaves the existing session untouched.
func (r *Registry) Add(address string, kind Kind, dev Device) (*Session, error) {
	sess := &Session{
		ID:        uuid.NewString(),
		Address:   address,
		Kind:      kind,
		Identity:  dev.Identity(),
		CreatedAt: time.Now().UTC(),
		Device:    dev,
	}

	if existing, loaded := r.byAddr.LoadOrStore(address, sess.ID); loaded {
		return nil, fmt.Errorf("%w: %s held by session %s", ErrAddressInUse, address, existing)
	}
	r.sessions.Store(sess.ID, sess)

	r.logger.Info("session opened", "session_id", sess.ID, "address", address, "kind", kind)

	return sess, nil
}

// Get returns the session with the given id.
func (r *Registry) Get(id string) (*Session, error) {
	sess, ok := r.sessions.Load(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}

	return sess, nil
}

// Lookup returns the session holding the given resource address, if any.
func (r *Registry) Lookup(address string) (*Session, bool) {
	id, ok := r.byAddr.Load(address)
	if !ok {
		return nil, false
	}
	sess, ok := r.sessions.Load(id)

	return sess, ok
}

// Remove deletes the session and releases its address claim. The device is
// not disconnected; that is the caller's responsibility.
func (r *Registry) Remove(id string) (*Session, error) {
	sess, ok := r.sessions.LoadAndDelete(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	r.byAddr.Delete(sess.Address)

	r.logger.Info("session removed", "session_id", id, "address", sess.Address)

	return sess, nil
}

// Range calls fn for every session until fn returns false.
func (r *Registry) Range(fn func(*Session) bool) {
	r.sessions.Range(func(_ string, sess *Session) bool {
		return fn(sess)
	})
}

// Len returns the number of open sessions.
func (r *Registry) Len() int {
	return r.sessions.Size()
}

// CloseAll disconnects every device and empties the registry, aggregating
// disconnect failures. Used on server shutdown.
func (r *Registry) CloseAll() error {
	var errs error
	r.sessions.Range(func(id string, sess *Session) bool {
		errs = multierr.Append(errs, sess.Device.Disconnect())
		r.sessions.Delete(id)
		r.byAddr.Delete(sess.Address)

		return true
	})

	return errs
}
