// Package terminal renders the argv that opens a command in a new OS-native
// terminal window, and the argv that tears that window down again.
//
// Builders are pure: they never execute anything. The launcher runs the argv
// and reads the window or process identifier the invocation prints.
package terminal

import (
	"fmt"
	"strings"

	"github.com/loykin/devterm/internal/color"
	"github.com/loykin/devterm/internal/platform"
)

// DefaultLinuxTerminal is the emulator used on Linux when none is configured.
// Any emulator accepting gnome-terminal's "--title T -- prog args" syntax works.
const DefaultLinuxTerminal = "gnome-terminal"

// Builder renders launch and termination invocations for one OS family.
type Builder interface {
	OS() platform.OS
	// Open returns the argv that opens a terminal titled name running command.
	// Executing it prints the identifier of the new session on stdout.
	Open(name, command string, colors color.Colors) []string
	// Kill returns the argv that terminates the session identified by id.
	Kill(id int) []string
}

// Options tune the builders.
type Options struct {
	// WorkDir is the directory macOS tabs cd into before running the command.
	WorkDir string
	// Terminal is the Linux terminal emulator executable.
	Terminal string
}

// For returns the builder for os.
func For(os platform.OS, opts Options) (Builder, error) {
	switch os {
	case platform.Windows:
		return Windows{}, nil
	case platform.Linux:
		term := strings.TrimSpace(opts.Terminal)
		if term == "" {
			term = DefaultLinuxTerminal
		}
		return Linux{Terminal: term}, nil
	case platform.Darwin:
		return Darwin{WorkDir: opts.WorkDir}, nil
	default:
		return nil, fmt.Errorf("%w: %s", platform.ErrUnsupportedPlatform, os)
	}
}
