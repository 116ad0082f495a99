// Package command turns raw command entries from configuration into the
// canonical definitions the terminal builders consume.
package command

import (
	"errors"
	"fmt"
	"strings"

	"github.com/loykin/devterm/internal/color"
	"github.com/loykin/devterm/internal/platform"
)

// ErrInvalidConfig marks a malformed command entry or a color pair that the
// active platform cannot render.
var ErrInvalidConfig = errors.New("invalid command configuration")

// Entry is a command as written in configuration: either a plain command
// string, or a structured form carrying a command and an optional color pair.
type Entry struct {
	Command string
	Colors  color.Colors
	// Structured is false for the plain string form.
	Structured bool
	// HasCommand records whether a structured entry carried a command key.
	HasCommand bool
}

// Plain returns the string form of an entry.
func Plain(cmd string) Entry { return Entry{Command: cmd} }

// Structured returns the structured form of an entry.
func Structured(cmd string, c color.Colors) Entry {
	return Entry{Command: cmd, Colors: c, Structured: true, HasCommand: true}
}

func (e Entry) String() string {
	if !e.Structured {
		return e.Command
	}
	if e.Colors.IsZero() {
		return fmt.Sprintf("{command: %q}", e.Command)
	}
	return fmt.Sprintf("{command: %q, colors: {text: %q, background: %q}}", e.Command, e.Colors.Text, e.Colors.Background)
}

// Definition is the canonical, validated form of an entry.
type Definition struct {
	Command string       `json:"command"`
	Colors  color.Colors `json:"colors"`
}

// Resolve validates e for os and returns its canonical definition.
// On macOS color tokens are lowercased before validation because Terminal's
// palette is lowercase. A non-empty color pair must be valid for os.
func Resolve(e Entry, os platform.OS) (Definition, error) {
	if !e.Structured {
		return Definition{Command: e.Command}, nil
	}
	if !e.HasCommand {
		return Definition{}, fmt.Errorf("%w: missing command", ErrInvalidConfig)
	}
	c := e.Colors
	if os == platform.Darwin {
		c.Text = strings.ToLower(c.Text)
		c.Background = strings.ToLower(c.Background)
	}
	if !c.IsZero() && !color.Valid(os, c) {
		return Definition{}, fmt.Errorf("%w: invalid colors text=%q background=%q for %s", ErrInvalidConfig, c.Text, c.Background, os)
	}
	return Definition{Command: e.Command, Colors: c}, nil
}
