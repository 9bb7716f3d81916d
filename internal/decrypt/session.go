package decrypt

import (
	"fmt"
	"io"
	"strings"
)

// Mode selects the artifact a decrypt attempt produces.
type Mode int

const (
	ModeImportFile Mode = iota + 1
	ModePlaintextZip
)

func (m Mode) String() string {
	switch m {
	case ModeImportFile:
		return "import"
	case ModePlaintextZip:
		return "zip"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseMode accepts the names returned by Mode.String.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "import":
		return ModeImportFile, nil
	case "zip", "plaintext":
		return ModePlaintextZip, nil
	default:
		return 0, fmt.Errorf("unknown mode %q", s)
	}
}

// Session is the user input of one attempt. File is nil when no file was
// chosen. Password is wiped after a successful attempt.
type Session struct {
	FileName string
	File     io.Reader
	Password []byte
}
