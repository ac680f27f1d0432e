package visa

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/anirudhiyengar-cell/Digantara-instrumentation/logger"
)

// ConnState represents the externally observable state of a connection handle.
//
// A handle transitions only Disconnected -> Connected (on successful connect)
// -> Disconnected (on disconnect or fatal I/O failure). No intermediate state
// is observable.
type ConnState uint32

const (
	// DisconnectedState indicates that no transport channel is open.
	DisconnectedState ConnState = iota
	// ConnectedState indicates that the transport channel is open and the
	// handle is ready for commands.
	ConnectedState
)

// IsConnected returns if the current state is connected.
func (cs ConnState) IsConnected() bool { return cs == ConnectedState }

// String returns string representation of the current state.
func (cs ConnState) String() string {
	switch cs {
	case DisconnectedState:
		return "disconnected"
	case ConnectedState:
		return "connected"
	default:
		return "unknown"
	}
}

// ConnStateChangeHandler is invoked when the state of a connection handle
// changes.
//
// Note: the handler is invoked in blocking mode. Take care with long-running
// implementations.
type ConnStateChangeHandler func(prevState ConnState, newState ConnState)

// ConnStateMgr manages the connection state of one handle.
//
// It provides methods for managing state transitions and notifying listeners
// of state changes. State transitions are safe in concurrent environments.
type ConnStateMgr struct {
	mu       sync.Mutex
	cond     *sync.Cond
	state    atomic.Uint32
	logger   logger.Logger
	handlers []ConnStateChangeHandler
}

// NewConnStateMgr creates a new ConnStateMgr initialized to DisconnectedState.
//
// It accepts optional ConnStateChangeHandler functions invoked on every state
// change.
func NewConnStateMgr(l logger.Logger, handlers ...ConnStateChangeHandler) *ConnStateMgr {
	if l == nil {
		l = logger.GetLogger()
	}
	mgr := &ConnStateMgr{
		logger:   l,
		handlers: append([]ConnStateChangeHandler{}, handlers...),
	}
	mgr.state.Store(uint32(DisconnectedState))
	mgr.cond = sync.NewCond(&mgr.mu)

	return mgr
}

// State returns the current connection state.
func (cs *ConnStateMgr) State() ConnState {
	return ConnState(cs.state.Load())
}

// IsConnected returns if the current state is connected.
func (cs *ConnStateMgr) IsConnected() bool {
	return cs.State().IsConnected()
}

// AddHandler adds one or more ConnStateChangeHandler functions to be invoked
// on state changes.
func (cs *ConnStateMgr) AddHandler(handlers ...ConnStateChangeHandler) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.handlers = append(cs.handlers, handlers...)
}

// ToConnected transitions the handle to ConnectedState.
//
// The transition is only allowed from DisconnectedState; if the handle is
// already connected the call is a no-op. Returns ErrInvalidTransition on any
// other state.
func (cs *ConnStateMgr) ToConnected() error {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	curState := cs.State()
	if curState.IsConnected() {
		return nil // Already connected, no-op
	}
	if curState != DisconnectedState {
		return ErrInvalidTransition
	}

	// change state before the handlers run so concurrent observers never see
	// a half-open handle
	cs.setState(ConnectedState)

	cs.invokeHandlers(curState, ConnectedState)

	return nil
}

// ToDisconnected transitions the handle to DisconnectedState.
// The transition is allowed from any state and represents a disconnect or a
// fatal I/O failure.
func (cs *ConnStateMgr) ToDisconnected() {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	curState := cs.State()
	if curState == DisconnectedState {
		return // Already disconnected, no-op
	}

	// change state before the handlers run so concurrent observers never see
	// a half-open handle
	cs.setState(DisconnectedState)

	cs.invokeHandlers(curState, DisconnectedState)
}

// WaitState waits for the handle to reach the specified state or until the
// context is done. It returns nil if the desired state is reached, or the
// context error if it is canceled or times out.
func (cs *ConnStateMgr) WaitState(ctx context.Context, state ConnState) error {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if cs.State() == state {
		return nil
	}

	stopFunc := context.AfterFunc(ctx, func() {
		cs.cond.Broadcast()
	})
	defer stopFunc()

	for cs.State() != state {
		select {
		case <-ctx.Done():
			cs.logger.Debug("wait connection state canceled", "cur_state", cs.State(), "desired_state", state)
			return ctx.Err()
		default:
			cs.cond.Wait()
		}
	}

	return nil
}

// setState atomically sets the current state and broadcasts a signal to any
// waiting goroutines.
func (cs *ConnStateMgr) setState(newState ConnState) {
	cs.state.Store(uint32(newState))
	cs.cond.Broadcast()
}

// invokeHandlers invokes all registered handlers with the previous and new states.
func (cs *ConnStateMgr) invokeHandlers(prevState ConnState, newState ConnState) {
	for _, handler := range cs.handlers {
		if handler != nil {
			handler(prevState, newState)
		}
	}
}
