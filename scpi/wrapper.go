package scpi

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gotmc/query"
	"go.uber.org/multierr"

	"github.com/anirudhiyengar-cell/Digantara-instrumentation/internal/pool"
	"github.com/anirudhiyengar-cell/Digantara-instrumentation/logger"
	"github.com/anirudhiyengar-cell/Digantara-instrumentation/visa"
)

// readChunkSize is the transport read granularity while scanning for the
// response terminator.
const readChunkSize = 512

// Wrapper is a thread-safe, validated SCPI command wrapper around one
// instrument connection handle.
//
// One mutex guards the whole open/write/query/close sequence so that
// concurrent callers are strictly serialized per handle. The lock is
// per-Wrapper, not global: two wrappers talking to two instruments never
// block each other. The wrapper exclusively owns the underlying transport;
// no other code may touch it.
type Wrapper struct {
	mu        sync.Mutex
	cfg       *Config
	addr      visa.Address
	transport visa.Transport
	state     *visa.ConnStateMgr
	logger    logger.Logger
	identity  string
}

var _ query.Querier = (*Wrapper)(nil)

// New creates a Wrapper for the given VISA resource string.
//
// The address is validated against the allow-list grammar before anything
// else happens; a malformed or malicious address fails here with
// ErrInvalidAddress and never reaches a transport.
func New(address string, opts ...Option) (*Wrapper, error) {
	addr, err := visa.ParseAddress(address)
	if err != nil {
		return nil, err
	}

	cfg, err := NewConfig(opts...)
	if err != nil {
		return nil, err
	}

	w := &Wrapper{
		cfg:    cfg,
		addr:   addr,
		logger: cfg.logger.With("address", addr.Raw),
	}
	w.state = visa.NewConnStateMgr(w.logger)

	return w, nil
}

// Address returns the validated resource address of this handle.
func (w *Wrapper) Address() visa.Address { return w.addr }

// Connected reports whether the handle is open.
func (w *Wrapper) Connected() bool { return w.state.IsConnected() }

// Identity returns the instrument identification string obtained during
// Connect, or the empty string when disconnected.
func (w *Wrapper) Identity() string {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.identity
}

// OnStateChange registers a handler invoked on every connection state change.
func (w *Wrapper) OnStateChange(h visa.ConnStateChangeHandler) {
	w.state.AddHandler(h)
}

// Connect opens the connection handle and returns the instrument
// identification string from the standard *IDN? query.
//
// On any failure no partial state is left open: a partially-opened transport
// is closed before the error propagates, and the handle stays in the
// disconnected state. Connecting an already-connected handle is a no-op that
// returns the cached identification.
func (w *Wrapper) Connect() (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state.IsConnected() {
		w.logger.Warn("already connected")
		return w.identity, nil
	}

	transport, err := w.cfg.dialer(w.addr)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrConnection, err)
	}

	if err := transport.Open(w.cfg.timeout); err != nil {
		return "", fmt.Errorf("%w: %w", ErrConnection, err)
	}

	idn, err := w.exchangeLocked(transport, "*IDN?")
	if err != nil {
		// Partial handle: close the transport before the error propagates.
		_ = transport.Close()
		return "", fmt.Errorf("%w: identification query: %w", ErrConnection, err)
	}

	w.transport = transport
	w.identity = idn
	if err := w.state.ToConnected(); err != nil {
		_ = transport.Close()
		w.transport = nil
		w.identity = ""

		return "", err
	}

	w.logger.Info("connected", "idn", idn)

	return idn, nil
}

// Disconnect closes the connection handle and releases the transport.
//
// It is idempotent: calling it on an already-closed handle is a no-op, not an
// error. The transport resource is released and the handle marked
// disconnected even if the close itself fails.
func (w *Wrapper) Disconnect() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.state.IsConnected() {
		w.logger.Debug("disconnect on closed handle")
		return nil
	}

	var errs error
	if w.transport != nil {
		errs = multierr.Append(errs, w.transport.Close())
	}

	// Always reset handle state, even when close fails.
	w.transport = nil
	w.identity = ""
	w.state.ToDisconnected()

	w.logger.Info("disconnected")

	return errs
}

// Write sends a command with no response expected.
//
// The command is validated before any bytes are sent; a command failing the
// length/character contract is rejected with ErrInvalidCommand without
// touching the transport.
func (w *Wrapper) Write(cmd string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.state.IsConnected() {
		return fmt.Errorf("%w: %s", ErrNotConnected, w.addr.Raw)
	}

	return w.sendLocked(w.transport, cmd)
}

// Query sends a command and reads back the response within the timeout
// window. The raw response is returned with trailing line termination
// stripped; no semantic parsing occurs here.
//
// A response exceeding the configured maximum size is a protocol error, not
// a silent truncation.
func (w *Wrapper) Query(cmd string) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.state.IsConnected() {
		return "", fmt.Errorf("%w: %s", ErrNotConnected, w.addr.Raw)
	}

	resp, err := w.exchangeLocked(w.transport, cmd)
	if err != nil {
		return "", err
	}

	w.logger.Debug("scpi query", "cmd", cmd, "response", resp)

	return resp, nil
}

// QueryBinary sends a command and reads back an IEEE 488.2 definite-length
// block response ("#<n><length><payload>"), returning the raw payload bytes.
// Used for waveform curve downloads.
func (w *Wrapper) QueryBinary(cmd string) ([]byte, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.state.IsConnected() {
		return nil, fmt.Errorf("%w: %s", ErrNotConnected, w.addr.Raw)
	}

	if err := w.sendLocked(w.transport, cmd); err != nil {
		return nil, err
	}

	data, err := w.readBlockLocked(w.transport)
	if err != nil {
		return nil, err
	}

	w.logger.Debug("scpi binary query", "cmd", cmd, "bytes", len(data))

	return data, nil
}

// ReadRaw reads whatever bytes the instrument has pending, up to the
// configured maximum response size, without stripping termination.
func (w *Wrapper) ReadRaw() ([]byte, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.state.IsConnected() {
		return nil, fmt.Errorf("%w: %s", ErrNotConnected, w.addr.Raw)
	}

	w.armDeadline(w.transport)
	buf := make([]byte, w.cfg.maxResponseSize)
	n, err := w.transport.Read(buf)
	if err != nil && n == 0 {
		return nil, w.translateIOError("read", err)
	}

	w.logger.Debug("scpi read raw", "bytes", n)

	return buf[:n], nil
}

// Clear clears the instrument status and error queue via *CLS.
func (w *Wrapper) Clear() error {
	return w.Write("*CLS")
}

// DrainErrorQueue reads the instrument's own error queue (SYST:ERR?) until
// the instrument reports "no error", returning the drained entries.
//
// The loop is bounded by the configured iteration cap so it terminates even
// against an instrument that never reports an empty queue; reaching the cap
// returns the entries collected so far together with ErrErrorQueueOverflow.
func (w *Wrapper) DrainErrorQueue() ([]string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.state.IsConnected() {
		return nil, fmt.Errorf("%w: %s", ErrNotConnected, w.addr.Raw)
	}

	var entries []string
	for i := 0; i < w.cfg.errorQueueLimit; i++ {
		resp, err := w.exchangeLocked(w.transport, "SYST:ERR?")
		if err != nil {
			return entries, err
		}

		code, parseErr := parseErrorQueueCode(resp)
		if parseErr != nil {
			return entries, fmt.Errorf("%w: %w", ErrProtocol, parseErr)
		}
		if code == 0 {
			return entries, nil
		}

		w.logger.Warn("instrument error", "entry", resp)
		entries = append(entries, resp)
	}

	return entries, ErrErrorQueueOverflow
}

// With opens a wrapper for the given address, runs fn against it, and
// guarantees Disconnect on every exit path, including a panic inside fn.
func With(address string, fn func(*Wrapper) error, opts ...Option) (err error) {
	w, err := New(address, opts...)
	if err != nil {
		return err
	}

	if _, err = w.Connect(); err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, w.Disconnect())
	}()

	return fn(w)
}

// sendLocked validates and transmits one command on the given transport.
// Callers must hold w.mu.
func (w *Wrapper) sendLocked(transport visa.Transport, cmd string) error {
	cmd = strings.TrimSpace(cmd)

	rec := CommandRecord{Command: cmd}
	if err := validateCommand(cmd, w.cfg.maxCommandLen); err != nil {
		w.logger.Warn("command rejected", "cmd", rec.Command, "error", err)
		return err
	}
	rec.Validated = true

	w.armDeadline(transport)
	if _, err := transport.Write(append([]byte(cmd), w.cfg.terminator)); err != nil {
		return w.translateIOError("write", err)
	}

	w.logger.Debug("scpi write", "cmd", rec.Command, "validated", rec.Validated)

	return nil
}

// exchangeLocked performs one command/response exchange on the given
// transport. Callers must hold w.mu.
func (w *Wrapper) exchangeLocked(transport visa.Transport, cmd string) (string, error) {
	if err := w.sendLocked(transport, cmd); err != nil {
		return "", err
	}

	line, err := w.readLineLocked(transport)
	if err != nil {
		return "", err
	}

	return strings.TrimRight(line, "\r\n"), nil
}

// readLineLocked reads transport bytes until the terminator, bounding both
// elapsed time and response size. Callers must hold w.mu.
func (w *Wrapper) readLineLocked(transport visa.Transport) (string, error) {
	watchdog := pool.GetTimer(w.cfg.timeout)
	defer pool.PutTimer(watchdog)

	w.armDeadline(transport)

	var resp []byte
	buf := make([]byte, readChunkSize)
	for {
		select {
		case <-watchdog.C:
			return "", fmt.Errorf("%w: no response within %s", ErrTimeout, w.cfg.timeout)
		default:
		}

		n, err := transport.Read(buf)
		if n > 0 {
			resp = append(resp, buf[:n]...)
			if idx := bytes.IndexByte(resp, w.cfg.terminator); idx >= 0 {
				if idx > w.cfg.maxResponseSize {
					return "", fmt.Errorf("%w: response exceeds %d bytes", ErrProtocol, w.cfg.maxResponseSize)
				}

				return string(resp[:idx+1]), nil
			}
			if len(resp) > w.cfg.maxResponseSize {
				return "", fmt.Errorf("%w: response exceeds %d bytes", ErrProtocol, w.cfg.maxResponseSize)
			}
		}
		if err != nil {
			return "", w.translateIOError("read", err)
		}
	}
}

// readBlockLocked reads an IEEE 488.2 definite-length block. Callers must
// hold w.mu.
func (w *Wrapper) readBlockLocked(transport visa.Transport) ([]byte, error) {
	w.armDeadline(transport)

	header := make([]byte, 2)
	if err := w.readFullLocked(transport, header); err != nil {
		return nil, err
	}
	if header[0] != '#' {
		return nil, fmt.Errorf("%w: block response does not start with '#'", ErrProtocol)
	}
	nd := int(header[1] - '0')
	if nd < 1 || nd > 9 {
		return nil, fmt.Errorf("%w: invalid block length digit %q", ErrProtocol, header[1])
	}

	lenDigits := make([]byte, nd)
	if err := w.readFullLocked(transport, lenDigits); err != nil {
		return nil, err
	}
	payloadLen, err := strconv.Atoi(string(lenDigits))
	if err != nil {
		return nil, fmt.Errorf("%w: malformed block length %q", ErrProtocol, lenDigits)
	}
	if payloadLen > w.cfg.maxResponseSize {
		return nil, fmt.Errorf("%w: block payload %d exceeds %d bytes", ErrProtocol, payloadLen, w.cfg.maxResponseSize)
	}

	payload := make([]byte, payloadLen)
	if err := w.readFullLocked(transport, payload); err != nil {
		return nil, err
	}

	// The block is followed by the usual response terminator. Consume it so
	// it cannot terminate the next query's read; an instrument that omits it
	// just times out the drain read.
	tail := make([]byte, 1)
	if n, err := transport.Read(tail); err == nil && n == 1 && tail[0] != w.cfg.terminator {
		return nil, fmt.Errorf("%w: unexpected byte %q after block payload", ErrProtocol, tail[0])
	}

	return payload, nil
}

// readFullLocked fills p completely or fails. Callers must hold w.mu.
func (w *Wrapper) readFullLocked(transport visa.Transport, p []byte) error {
	read := 0
	for read < len(p) {
		n, err := transport.Read(p[read:])
		read += n
		if err != nil {
			if read == len(p) {
				break
			}
			return w.translateIOError("read", err)
		}
	}

	return nil
}

// armDeadline sets the transport deadline for the next I/O burst. Deadline
// support is transport-dependent; failures are logged and the watchdog timer
// remains the backstop.
func (w *Wrapper) armDeadline(transport visa.Transport) {
	if err := transport.SetDeadline(time.Now().Add(w.cfg.timeout)); err != nil {
		w.logger.Debug("transport does not support deadlines", "error", err)
	}
}

// translateIOError maps transport failures onto the wrapper error taxonomy.
// Only failure kinds the transport is documented to produce are translated;
// anything unexpected propagates as-is so it is never silently masked.
func (w *Wrapper) translateIOError(op string, err error) error {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return fmt.Errorf("%w: %s did not complete within %s", ErrTimeout, op, w.cfg.timeout)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %s did not complete within %s", ErrTimeout, op, w.cfg.timeout)
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: connection closed mid-%s", ErrProtocol, op)
	}

	return fmt.Errorf("%s: %w", op, err)
}

// parseErrorQueueCode extracts the numeric error code from a SYST:ERR?
// response of the form `-113,"Undefined header"`.
func parseErrorQueueCode(resp string) (int, error) {
	head, _, _ := strings.Cut(resp, ",")
	code, err := strconv.Atoi(strings.TrimSpace(head))
	if err != nil {
		return 0, fmt.Errorf("malformed error queue entry %q", resp)
	}

	return code, nil
}
