package tektronix

import (
	"fmt"
	"sync"
)

// fakeConn is a scripted connection handle for scope driver tests.
type fakeConn struct {
	mu sync.Mutex

	idn       string
	connected bool

	writes    []string
	responses map[string][]string
	binary    map[string][]byte

	writeErr error
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		idn:       "TEKTRONIX,MSO24,C012345,CF:91.1CT FV:2.0.3",
		responses: map[string][]string{},
		binary:    map[string][]byte{},
	}
}

func (c *fakeConn) addResponse(cmd, resp string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.responses[cmd] = append(c.responses[cmd], resp)
}

func (c *fakeConn) addBinary(cmd string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.binary[cmd] = data
}

func (c *fakeConn) commands() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]string, len(c.writes))
	copy(out, c.writes)

	return out
}

func (c *fakeConn) Connect() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connected = true

	return c.idn, nil
}

func (c *fakeConn) Disconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connected = false

	return nil
}

func (c *fakeConn) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.connected
}

func (c *fakeConn) Identity() string { return c.idn }

func (c *fakeConn) Write(cmd string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.writeErr != nil {
		return c.writeErr
	}
	c.writes = append(c.writes, cmd)

	return nil
}

func (c *fakeConn) Query(cmd string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.writes = append(c.writes, cmd)

	fifo, ok := c.responses[cmd]
	if !ok || len(fifo) == 0 {
		return "", fmt.Errorf("no scripted response for %q", cmd)
	}
	c.responses[cmd] = fifo[1:]

	return fifo[0], nil
}

func (c *fakeConn) QueryBinary(cmd string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.writes = append(c.writes, cmd)

	data, ok := c.binary[cmd]
	if !ok {
		return nil, fmt.Errorf("no scripted binary response for %q", cmd)
	}

	return data, nil
}
