package scpi

import (
	"fmt"
	"strings"
)

// CommandRecord captures one outbound command for logging. Records are
// ephemeral: created per call and discarded once the call completes.
type CommandRecord struct {
	// Command is the outbound command string as supplied by the caller.
	Command string
	// Query indicates whether a response is expected.
	Query bool
	// Validated indicates whether validation completed before transmission.
	Validated bool
}

// Shell metacharacters are rejected even though the transport is not a
// shell; command strings end up in logs and exported filenames.
const commandProhibitedChars = ";|&$`<>"

// validateCommand checks a command against the outbound contract: non-empty,
// bounded length, ASCII, no NUL, no shell metacharacters, no control
// characters other than tab. The command is otherwise passed through
// unmodified; the instrument's own SCPI grammar is not re-validated here.
// Syntax errors are the instrument's concern, reported via its error queue.
func validateCommand(cmd string, maxLen int) error {
	if cmd == "" {
		return fmt.Errorf("%w: empty command", ErrInvalidCommand)
	}
	if len(cmd) > maxLen {
		return fmt.Errorf("%w: command exceeds %d bytes", ErrInvalidCommand, maxLen)
	}
	if strings.ContainsAny(cmd, commandProhibitedChars) {
		return fmt.Errorf("%w: command contains prohibited characters", ErrInvalidCommand)
	}
	for i := 0; i < len(cmd); i++ {
		c := cmd[i]
		if c == 0 {
			return fmt.Errorf("%w: command contains NUL byte", ErrInvalidCommand)
		}
		if c > 0x7e {
			return fmt.Errorf("%w: command contains non-ASCII byte 0x%02x", ErrInvalidCommand, c)
		}
		if c < 0x20 && c != '\t' {
			return fmt.Errorf("%w: command contains control character 0x%02x", ErrInvalidCommand, c)
		}
	}

	return nil
}
