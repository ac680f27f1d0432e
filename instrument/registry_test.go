package instrument

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeDevice is a minimal Device for registry tests.
type fakeDevice struct {
	mu            sync.Mutex
	idn           string
	connected     bool
	disconnectErr error
}

func (d *fakeDevice) Connect() (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.connected = true

	return d.idn, nil
}

func (d *fakeDevice) Disconnect() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.connected = false

	return d.disconnectErr
}

func (d *fakeDevice) Connected() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.connected
}

func (d *fakeDevice) Identity() string { return d.idn }

func TestRegistryAddGetRemove(t *testing.T) {
	require := require.New(t)

	reg := NewRegistry(nil)
	dev := &fakeDevice{idn: "KEITHLEY,2230G-30-1,SN1,1.0"}

	sess, err := reg.Add("USB0::0x05E6::0x2230::SN1::INSTR", KindPSU, dev)
	require.NoError(err)
	require.NotEmpty(sess.ID)
	require.Equal(KindPSU, sess.Kind)
	require.Equal("KEITHLEY,2230G-30-1,SN1,1.0", sess.Identity)
	require.Equal(1, reg.Len())

	got, err := reg.Get(sess.ID)
	require.NoError(err)
	require.Same(sess, got)

	byAddr, ok := reg.Lookup("USB0::0x05E6::0x2230::SN1::INSTR")
	require.True(ok)
	require.Same(sess, byAddr)

	removed, err := reg.Remove(sess.ID)
	require.NoError(err)
	require.Same(sess, removed)
	require.Equal(0, reg.Len())

	_, err = reg.Get(sess.ID)
	require.ErrorIs(err, ErrSessionNotFound)
	_, ok = reg.Lookup("USB0::0x05E6::0x2230::SN1::INSTR")
	require.False(ok)
}

func TestRegistryRejectsDuplicateAddress(t *testing.T) {
	require := require.New(t)

	reg := NewRegistry(nil)
	addr := "TCPIP0::192.168.1.50::5025::INSTR"

	first, err := reg.Add(addr, KindDMM, &fakeDevice{idn: "KEITHLEY,DMM6500,SN2,1.7"})
	require.NoError(err)

	_, err = reg.Add(addr, KindDMM, &fakeDevice{idn: "KEITHLEY,DMM6500,SN3,1.7"})
	require.ErrorIs(err, ErrAddressInUse)
	require.Equal(1, reg.Len())

	// The address frees up once the first session is removed.
	_, err = reg.Remove(first.ID)
	require.NoError(err)
	_, err = reg.Add(addr, KindDMM, &fakeDevice{idn: "KEITHLEY,DMM6500,SN3,1.7"})
	require.NoError(err)
}

func TestRegistryConcurrentAddSameAddress(t *testing.T) {
	require := require.New(t)

	reg := NewRegistry(nil)
	addr := "GPIB0::14::INSTR"

	const attempts = 16
	var wg sync.WaitGroup
	results := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := reg.Add(addr, KindGeneric, &fakeDevice{idn: "A,B,C,D"})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	won := 0
	for err := range results {
		if err == nil {
			won++
		} else {
			require.ErrorIs(err, ErrAddressInUse)
		}
	}
	require.Equal(1, won, "exactly one concurrent claim succeeds")
	require.Equal(1, reg.Len())
}

func TestRegistryCloseAll(t *testing.T) {
	require := require.New(t)

	reg := NewRegistry(nil)
	failing := errors.New("close failed")

	good := &fakeDevice{idn: "A,B,C,D", connected: true}
	bad := &fakeDevice{idn: "A,B,C,E", connected: true, disconnectErr: failing}

	_, err := reg.Add("GPIB0::1::INSTR", KindGeneric, good)
	require.NoError(err)
	_, err = reg.Add("GPIB0::2::INSTR", KindGeneric, bad)
	require.NoError(err)

	err = reg.CloseAll()
	require.ErrorIs(err, failing)
	require.Equal(0, reg.Len())
	require.False(good.Connected())
	require.False(bad.Connected())
}

func TestRegistryRange(t *testing.T) {
	require := require.New(t)

	reg := NewRegistry(nil)
	for _, addr := range []string{"GPIB0::1::INSTR", "GPIB0::2::INSTR", "GPIB0::3::INSTR"} {
		_, err := reg.Add(addr, KindGeneric, &fakeDevice{idn: "A,B,C,D"})
		require.NoError(err)
	}

	seen := 0
	reg.Range(func(sess *Session) bool {
		seen++
		return true
	})
	require.Equal(3, seen)

	// Early termination.
	seen = 0
	reg.Range(func(sess *Session) bool {
		seen++
		return false
	})
	require.Equal(1, seen)
}
