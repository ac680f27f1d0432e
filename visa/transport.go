package visa

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.bug.st/serial"
)

// DefaultSCPIPort is the conventional raw-socket SCPI port used when a TCPIP
// resource string carries no explicit port.
const DefaultSCPIPort = 5025

// Transport is a bidirectional byte channel to one physical instrument.
//
// A Transport starts closed; Open establishes the channel within the given
// timeout. Implementations enforce I/O timeouts through SetDeadline. A
// Transport is not safe for concurrent use; the scpi wrapper serializes all
// access to it.
type Transport interface {
	// Open establishes the underlying channel. Opening an already-open
	// transport is an error.
	Open(timeout time.Duration) error
	// Read reads available bytes into p.
	Read(p []byte) (int, error)
	// Write writes p to the instrument.
	Write(p []byte) (int, error)
	// SetDeadline sets the absolute deadline for future Read and Write calls.
	// A zero time clears the deadline.
	SetDeadline(t time.Time) error
	// Close releases the underlying channel. Closing a closed transport is a
	// no-op.
	Close() error
}

// Dialer maps a validated Address onto a Transport. The returned transport is
// not yet open. Tests substitute a Dialer to inject mock transports.
type Dialer func(addr Address) (Transport, error)

// DefaultDialer maps an address onto the built-in transport for its interface
// type: raw-socket TCP for TCPIP, a serial port for ASRL, and the Linux
// usbtmc character-device interface for USB. GPIB resources need a bus
// controller this package does not ship, so dialing them fails with
// ErrUnsupportedInterface.
func DefaultDialer(addr Address) (Transport, error) {
	switch addr.Interface {
	case InterfaceTCPIP:
		port := addr.Port
		if port == 0 {
			port = DefaultSCPIPort
		}
		return &tcpTransport{host: addr.Host, port: port}, nil
	case InterfaceASRL:
		return &serialTransport{device: serialDevicePath(addr.Board), baud: 9600}, nil
	case InterfaceUSB:
		return &usbtmcTransport{vendorID: addr.VendorID, productID: addr.ProductID, serial: addr.Serial}, nil
	case InterfaceGPIB:
		return nil, fmt.Errorf("%w: GPIB requires a bus controller", ErrUnsupportedInterface)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedInterface, addr.Interface)
	}
}

// serialDevicePath maps an ASRL board number onto a device path the way VISA
// implementations do on Linux: ASRL1 is the first serial port.
func serialDevicePath(board int) string {
	if board < 1 {
		board = 1
	}
	return fmt.Sprintf("/dev/ttyS%d", board-1)
}

// tcpTransport reaches a LAN instrument over a raw SCPI socket.
type tcpTransport struct {
	host string
	port int
	conn net.Conn
}

var errTransportClosed = errors.New("transport not open")

func (t *tcpTransport) Open(timeout time.Duration) error {
	if t.conn != nil {
		return errors.New("transport already open")
	}
	conn, err := net.DialTimeout("tcp", net.JoinHostPort(t.host, fmt.Sprint(t.port)), timeout)
	if err != nil {
		return err
	}
	t.conn = conn

	return nil
}

func (t *tcpTransport) Read(p []byte) (int, error) {
	if t.conn == nil {
		return 0, errTransportClosed
	}
	return t.conn.Read(p)
}

func (t *tcpTransport) Write(p []byte) (int, error) {
	if t.conn == nil {
		return 0, errTransportClosed
	}
	return t.conn.Write(p)
}

func (t *tcpTransport) SetDeadline(d time.Time) error {
	if t.conn == nil {
		return errTransportClosed
	}
	return t.conn.SetDeadline(d)
}

func (t *tcpTransport) Close() error {
	if t.conn == nil {
		return nil
	}
	err := t.conn.Close()
	t.conn = nil

	return err
}

// serialTransport reaches an instrument on a local serial port.
type serialTransport struct {
	device string
	baud   int
	port   serial.Port
}

func (t *serialTransport) Open(timeout time.Duration) error {
	if t.port != nil {
		return errors.New("transport already open")
	}
	mode := &serial.Mode{BaudRate: t.baud}
	port, err := serial.Open(t.device, mode)
	if err != nil {
		return err
	}
	t.port = port

	return nil
}

func (t *serialTransport) Read(p []byte) (int, error) {
	if t.port == nil {
		return 0, errTransportClosed
	}
	return t.port.Read(p)
}

func (t *serialTransport) Write(p []byte) (int, error) {
	if t.port == nil {
		return 0, errTransportClosed
	}
	return t.port.Write(p)
}

// SetDeadline approximates a deadline with the serial read timeout; the
// serial stack has no write deadline.
func (t *serialTransport) SetDeadline(d time.Time) error {
	if t.port == nil {
		return errTransportClosed
	}
	if d.IsZero() {
		return t.port.SetReadTimeout(serial.NoTimeout)
	}
	remaining := time.Until(d)
	if remaining < 0 {
		remaining = 0
	}

	return t.port.SetReadTimeout(remaining)
}

func (t *serialTransport) Close() error {
	if t.port == nil {
		return nil
	}
	err := t.port.Close()
	t.port = nil

	return err
}

// usbtmcTransport reaches a USB instrument through the Linux usbtmc class
// driver, which exposes each instrument as a /dev/usbtmcN character device.
type usbtmcTransport struct {
	vendorID  string
	productID string
	serial    string
	file      *os.File
}

func (t *usbtmcTransport) Open(timeout time.Duration) error {
	if t.file != nil {
		return errors.New("transport already open")
	}
	path, err := t.locateDevice()
	if err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return err
	}
	t.file = f

	return nil
}

// locateDevice scans /dev/usbtmc* and matches the sysfs USB identity
// (idVendor, idProduct, serial) against the address. If sysfs is unreadable
// the first usbtmc device found is used.
func (t *usbtmcTransport) locateDevice() (string, error) {
	devices, err := filepath.Glob("/dev/usbtmc*")
	if err != nil || len(devices) == 0 {
		return "", errors.New("no usbtmc devices present")
	}

	wantVendor := strings.TrimPrefix(strings.ToLower(t.vendorID), "0x")
	wantProduct := strings.TrimPrefix(strings.ToLower(t.productID), "0x")

	for _, dev := range devices {
		name := filepath.Base(dev)
		sysfs := filepath.Join("/sys/class/usbmisc", name, "device")
		vendor := readSysfsAttr(filepath.Join(sysfs, "..", "idVendor"))
		product := readSysfsAttr(filepath.Join(sysfs, "..", "idProduct"))
		if vendor == "" && product == "" {
			continue
		}
		if vendor != wantVendor || product != wantProduct {
			continue
		}
		if t.serial != "" {
			serialNo := readSysfsAttr(filepath.Join(sysfs, "..", "serial"))
			if serialNo != "" && serialNo != t.serial {
				continue
			}
		}

		return dev, nil
	}

	// No sysfs identity matched; fall back to the first device.
	return devices[0], nil
}

func readSysfsAttr(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

func (t *usbtmcTransport) Read(p []byte) (int, error) {
	if t.file == nil {
		return 0, errTransportClosed
	}
	return t.file.Read(p)
}

func (t *usbtmcTransport) Write(p []byte) (int, error) {
	if t.file == nil {
		return 0, errTransportClosed
	}
	return t.file.Write(p)
}

func (t *usbtmcTransport) SetDeadline(d time.Time) error {
	if t.file == nil {
		return errTransportClosed
	}
	return t.file.SetDeadline(d)
}

func (t *usbtmcTransport) Close() error {
	if t.file == nil {
		return nil
	}
	err := t.file.Close()
	t.file = nil

	return err
}
