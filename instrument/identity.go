package instrument

import (
	"fmt"
	"strings"
)

// Identity is the parsed form of a standard *IDN? response:
// "<manufacturer>,<model>,<serial>,<firmware>".
type Identity struct {
	Manufacturer string `json:"manufacturer"`
	Model        string `json:"model"`
	Serial       string `json:"serial"`
	Firmware     string `json:"firmware"`
}

// ParseIdentity splits an identification string into its four fields.
// Fields are trimmed of surrounding whitespace. A response with fewer than
// four fields fails with ErrMalformedIdentity.
func ParseIdentity(idn string) (Identity, error) {
	parts := strings.SplitN(idn, ",", 4)
	if len(parts) < 4 {
		return Identity{}, fmt.Errorf("%w: %q", ErrMalformedIdentity, idn)
	}

	return Identity{
		Manufacturer: strings.TrimSpace(parts[0]),
		Model:        strings.TrimSpace(parts[1]),
		Serial:       strings.TrimSpace(parts[2]),
		Firmware:     strings.TrimSpace(parts[3]),
	}, nil
}

// String reassembles the identity in the standard comma-separated form.
func (id Identity) String() string {
	return strings.Join([]string{id.Manufacturer, id.Model, id.Serial, id.Firmware}, ",")
}
