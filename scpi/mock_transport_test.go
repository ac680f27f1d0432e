package scpi

import (
	"errors"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/anirudhiyengar-cell/Digantara-instrumentation/visa"
)

// mockTransport simulates an instrument endpoint. It records whether Open was
// attempted, every command written, and raises an overlap flag if two callers
// ever use it concurrently.
type mockTransport struct {
	mu sync.Mutex

	openErr   error
	openCount int
	closed    int

	// responses maps a command to the FIFO of responses it produces.
	responses map[string][]string
	// binary maps a command to a raw byte response served verbatim.
	binary map[string][]byte

	writes   []string
	pending  []byte
	deadline time.Time

	// readDelay delays the next read that serves data, to exercise timeout
	// boundaries.
	readDelay time.Duration

	busy    atomic.Bool
	overlap atomic.Bool
}

func newMockTransport() *mockTransport {
	return &mockTransport{
		responses: map[string][]string{
			"*IDN?": {"KEITHLEY INSTRUMENTS,2230G-30-1,805224014806770001,1.16-1.04"},
		},
		binary: map[string][]byte{},
	}
}

// dialer returns a visa.Dialer serving this mock for every address.
func (m *mockTransport) dialer() visa.Dialer {
	return func(addr visa.Address) (visa.Transport, error) {
		return m, nil
	}
}

// addResponse queues one response line for the given command.
func (m *mockTransport) addResponse(cmd, resp string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[cmd] = append(m.responses[cmd], resp)
}

// addBinary sets the raw byte response served when cmd is written.
func (m *mockTransport) addBinary(cmd string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.binary[cmd] = data
}

// enter marks the transport busy and flags overlapping access. The short
// sleep widens the race window so overlapping callers are reliably caught.
func (m *mockTransport) enter() {
	if !m.busy.CompareAndSwap(false, true) {
		m.overlap.Store(true)
	}
	time.Sleep(time.Millisecond)
}

func (m *mockTransport) leave() {
	m.busy.Store(false)
}

func (m *mockTransport) Open(timeout time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.openCount++

	return m.openErr
}

func (m *mockTransport) Write(p []byte) (int, error) {
	m.enter()
	defer m.leave()

	m.mu.Lock()
	defer m.mu.Unlock()

	cmd := strings.TrimRight(string(p), "\r\n")
	m.writes = append(m.writes, cmd)

	if data, ok := m.binary[cmd]; ok {
		m.pending = append(m.pending, data...)
		delete(m.binary, cmd)
		return len(p), nil
	}

	if queue, ok := m.responses[cmd]; ok && len(queue) > 0 {
		m.pending = append(m.pending, []byte(queue[0]+"\n")...)
		m.responses[cmd] = queue[1:]
	}

	return len(p), nil
}

func (m *mockTransport) Read(p []byte) (int, error) {
	m.enter()
	defer m.leave()

	m.mu.Lock()
	delay := m.readDelay
	m.readDelay = 0
	deadline := m.deadline
	m.mu.Unlock()

	if delay > 0 {
		if !deadline.IsZero() && time.Now().Add(delay).After(deadline) {
			time.Sleep(time.Until(deadline))
			return 0, os.ErrDeadlineExceeded
		}
		time.Sleep(delay)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.pending) == 0 {
		if !deadline.IsZero() {
			return 0, os.ErrDeadlineExceeded
		}
		return 0, io.EOF
	}

	n := copy(p, m.pending)
	m.pending = m.pending[n:]

	return n, nil
}

func (m *mockTransport) SetDeadline(d time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deadline = d

	return nil
}

func (m *mockTransport) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed++

	return nil
}

// failingDialer returns a dialer whose transports always fail to open.
func failingDialer(openErr error) visa.Dialer {
	return func(addr visa.Address) (visa.Transport, error) {
		return &mockTransport{openErr: openErr}, nil
	}
}

var errDeviceAbsent = errors.New("device absent")
