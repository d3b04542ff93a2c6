package diag

import (
	"os"
	"strings"
)

// Colorizer bolds single-quoted substrings in a diagnostic message when
// attached to a TTY.
type Colorizer interface {
	Bold(s string) string
}

// NoColor never emits escape codes (used for --color none and for
// non-terminal output streams under --color auto).
type NoColor struct{}

func (NoColor) Bold(s string) string { return s }

// ANSIColor wraps text in SGR bold/reset codes.
type ANSIColor struct{}

func (ANSIColor) Bold(s string) string { return "\x1b[1m" + s + "\x1b[0m" }

// ColorMode is the --color flag's value.
type ColorMode int

const (
	ColorAuto ColorMode = iota
	ColorNone
	ColorANSI
)

// ParseColorMode parses the --color flag value; unrecognized values fall
// back to ColorAuto, matching a CLI's typical lenient flag handling.
func ParseColorMode(s string) ColorMode {
	switch strings.ToLower(s) {
	case "none":
		return ColorNone
	case "ansi":
		return ColorANSI
	default:
		return ColorAuto
	}
}

// NewColorizer resolves a ColorMode against an output stream, probing
// for a terminal under ColorAuto via a stat-based character-device
// check (see DESIGN.md for why this stays on the standard library).
func NewColorizer(mode ColorMode, f *os.File) Colorizer {
	switch mode {
	case ColorNone:
		return NoColor{}
	case ColorANSI:
		return ANSIColor{}
	default:
		if isTerminal(f) {
			return ANSIColor{}
		}
		return NoColor{}
	}
}

func isTerminal(f *os.File) bool {
	if f == nil {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}

// colorizeQuoted bolds every 'single-quoted' run in msg.
func colorizeQuoted(c Colorizer, msg string) string {
	var b strings.Builder
	inQuote := false
	start := 0
	for i, r := range msg {
		if r == '\'' {
			if inQuote {
				b.WriteString(c.Bold(msg[start : i+1]))
				inQuote = false
				start = i + 1
			} else {
				b.WriteString(msg[start:i])
				start = i
				inQuote = true
			}
		}
	}
	b.WriteString(msg[start:])
	return b.String()
}
