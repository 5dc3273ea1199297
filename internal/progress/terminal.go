// Package progress formats human-readable status output: colored ✓/✗ lines
// and a spinner for slow network steps. Both degrade to plain ASCII when
// stdout is not a terminal or NO_COLOR is set.
package progress

import (
	"os"

	"golang.org/x/term"

	"github.com/membank-rc/membank/internal/branding"
)

// Capabilities describes what the output terminal supports.
type Capabilities struct {
	IsTTY           bool
	SupportsColor   bool
	SupportsUnicode bool
}

// Detect inspects stdout and the environment. NO_COLOR disables color and
// MEMBANK_ASCII=1 forces ASCII symbols.
func Detect() Capabilities {
	isTTY := term.IsTerminal(int(os.Stdout.Fd()))
	noColor := os.Getenv("NO_COLOR") != ""
	forceASCII := os.Getenv(branding.EnvVar("ASCII")) == "1"

	return Capabilities{
		IsTTY:           isTTY,
		SupportsColor:   isTTY && !noColor,
		SupportsUnicode: isTTY && !forceASCII,
	}
}

// Plain is the capability set used for pipes, files and tests.
var Plain = Capabilities{SupportsUnicode: true}

// Symbols are the status markers printed before a line.
type Symbols struct {
	OK         string
	Fail       string
	Warn       string
	SpinnerSet int
}

// SelectSymbols returns Unicode or ASCII markers.
func SelectSymbols(caps Capabilities) Symbols {
	if caps.SupportsUnicode {
		return Symbols{OK: "✓", Fail: "✗", Warn: "!", SpinnerSet: 14}
	}
	return Symbols{OK: "[OK]", Fail: "[FAIL]", Warn: "[WARN]", SpinnerSet: 9}
}
