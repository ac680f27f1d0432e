package visa

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// InterfaceType identifies the physical interface named by a resource string.
type InterfaceType uint8

const (
	// InterfaceUSB is a USBTMC instrument, e.g. "USB0::0x05E6::0x2230::SN123::INSTR".
	InterfaceUSB InterfaceType = iota
	// InterfaceTCPIP is a LAN instrument, e.g. "TCPIP0::192.168.1.100::INSTR".
	InterfaceTCPIP
	// InterfaceGPIB is a GPIB instrument behind a bus controller, e.g. "GPIB0::10::INSTR".
	InterfaceGPIB
	// InterfaceASRL is a serial instrument, e.g. "ASRL1::INSTR".
	InterfaceASRL
)

// String returns the resource-string prefix of the interface type.
func (it InterfaceType) String() string {
	switch it {
	case InterfaceUSB:
		return "USB"
	case InterfaceTCPIP:
		return "TCPIP"
	case InterfaceGPIB:
		return "GPIB"
	case InterfaceASRL:
		return "ASRL"
	default:
		return "unknown"
	}
}

// MaxAddressLen bounds the length of a resource string accepted by
// ParseAddress. Anything longer is rejected before pattern matching.
const MaxAddressLen = 256

// Address is a validated VISA resource string broken into its components.
// Only the fields relevant to the interface type are populated.
type Address struct {
	// Raw is the resource string exactly as supplied by the caller.
	Raw string
	// Interface identifies the physical interface type.
	Interface InterfaceType
	// Board is the interface board index (the digit after the prefix).
	Board int

	// VendorID and ProductID are the USB identifiers in "0xHHHH" form.
	VendorID  string
	ProductID string
	// Serial is the USB instrument serial number.
	Serial string

	// Host is the hostname or IPv4 address of a TCPIP resource.
	Host string
	// Port is the TCP port of a TCPIP resource; 0 selects the default
	// raw-socket SCPI port.
	Port int

	// Primary is the primary bus address of a GPIB resource.
	Primary int
}

// prohibited characters rejected before pattern matching: shell metacharacters
// and line breaks have no place in a resource string and are treated as
// injection attempts.
const prohibitedChars = ";|&$`<>\n\r"

var addressPatterns = []struct {
	iface InterfaceType
	re    *regexp.Regexp
}{
	{InterfaceUSB, regexp.MustCompile(`^USB(\d+)::(0x[0-9A-Fa-f]{4})::(0x[0-9A-Fa-f]{4})::([0-9A-Za-z]+)::INSTR$`)},
	{InterfaceTCPIP, regexp.MustCompile(`^TCPIP(\d*)::([0-9]{1,3}\.[0-9]{1,3}\.[0-9]{1,3}\.[0-9]{1,3})(?:::([0-9]+)|::inst0)?::INSTR$`)},
	{InterfaceTCPIP, regexp.MustCompile(`^TCPIP(\d*)::([A-Za-z0-9][A-Za-z0-9\-\.]*)(?:::inst0)?::INSTR$`)},
	{InterfaceGPIB, regexp.MustCompile(`^GPIB(\d*)::(\d+)::INSTR$`)},
	{InterfaceASRL, regexp.MustCompile(`^ASRL(\d+)::INSTR$`)},
}

// ParseAddress validates a VISA resource string against the allow-list
// grammar and returns its parsed form.
//
// Validation is purely local: no I/O is attempted, and a string that fails
// validation can never reach a transport. Strings containing control
// characters or shell metacharacters are rejected with ErrProhibitedCharacter
// wrapped in ErrInvalidAddress; everything else that does not match a known
// pattern is rejected with ErrInvalidAddress.
func ParseAddress(raw string) (Address, error) {
	if raw == "" {
		return Address{}, fmt.Errorf("%w: empty resource string", ErrInvalidAddress)
	}
	if len(raw) > MaxAddressLen {
		return Address{}, fmt.Errorf("%w: resource string exceeds %d characters", ErrInvalidAddress, MaxAddressLen)
	}
	if strings.ContainsAny(raw, prohibitedChars) {
		return Address{}, fmt.Errorf("%w: %w", ErrInvalidAddress, ErrProhibitedCharacter)
	}
	for _, r := range raw {
		if r < 0x20 || r > 0x7e {
			return Address{}, fmt.Errorf("%w: %w", ErrInvalidAddress, ErrProhibitedCharacter)
		}
	}

	for _, p := range addressPatterns {
		m := p.re.FindStringSubmatch(raw)
		if m == nil {
			continue
		}

		addr := Address{Raw: raw, Interface: p.iface}
		if m[1] != "" {
			addr.Board, _ = strconv.Atoi(m[1])
		}

		switch p.iface {
		case InterfaceUSB:
			addr.VendorID = m[2]
			addr.ProductID = m[3]
			addr.Serial = m[4]
		case InterfaceTCPIP:
			addr.Host = m[2]
			if len(m) > 3 && m[3] != "" {
				addr.Port, _ = strconv.Atoi(m[3])
			}
		case InterfaceGPIB:
			addr.Primary, _ = strconv.Atoi(m[2])
		case InterfaceASRL:
			// Board number is the serial port index; nothing else to parse.
		}

		return addr, nil
	}

	return Address{}, fmt.Errorf("%w: %q does not match any known resource format", ErrInvalidAddress, raw)
}

// String returns the raw resource string.
func (a Address) String() string { return a.Raw }
