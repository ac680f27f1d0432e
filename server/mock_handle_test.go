package server

import (
	"fmt"
	"sync"

	"github.com/anirudhiyengar-cell/Digantara-instrumentation/visa"
)

// fakeHandle is a scripted connection handle standing in for the SCPI
// wrapper in HTTP tests.
type fakeHandle struct {
	mu sync.Mutex

	idn       string
	connected bool

	writes    []string
	responses map[string][]string
	binary    map[string][]byte
}

func newFakeHandle(idn string) *fakeHandle {
	return &fakeHandle{
		idn:       idn,
		responses: map[string][]string{},
		binary:    map[string][]byte{},
	}
}

func (h *fakeHandle) addResponse(cmd, resp string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.responses[cmd] = append(h.responses[cmd], resp)
}

func (h *fakeHandle) addBinary(cmd string, data []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.binary[cmd] = data
}

func (h *fakeHandle) Connect() (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.connected = true

	return h.idn, nil
}

func (h *fakeHandle) Disconnect() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.connected = false

	return nil
}

func (h *fakeHandle) Connected() bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.connected
}

func (h *fakeHandle) Identity() string { return h.idn }

func (h *fakeHandle) Write(cmd string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.writes = append(h.writes, cmd)

	return nil
}

func (h *fakeHandle) Query(cmd string) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.writes = append(h.writes, cmd)
	fifo := h.responses[cmd]
	if len(fifo) == 0 {
		return "", fmt.Errorf("no scripted response for %q", cmd)
	}
	h.responses[cmd] = fifo[1:]

	return fifo[0], nil
}

func (h *fakeHandle) QueryBinary(cmd string) ([]byte, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.writes = append(h.writes, cmd)
	data, ok := h.binary[cmd]
	if !ok {
		return nil, fmt.Errorf("no scripted binary response for %q", cmd)
	}

	return data, nil
}

func (h *fakeHandle) DrainErrorQueue() ([]string, error) { return nil, nil }

// validatingFactory parses the address like the real wrapper before handing
// out the scripted handle, so malformed addresses fail the same way.
func validatingFactory(h *fakeHandle) HandleFactory {
	return func(address string) (Handle, error) {
		if _, err := visa.ParseAddress(address); err != nil {
			return nil, err
		}

		return h, nil
	}
}
