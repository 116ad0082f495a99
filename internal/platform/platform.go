// Package platform identifies the operating-system family devterm drives.
// The family is resolved once at startup and handed to the builders.
package platform

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

// ErrUnsupportedPlatform is returned for any OS outside Windows, Linux and macOS.
var ErrUnsupportedPlatform = errors.New("unsupported platform")

// OS is the closed set of supported operating-system families.
type OS int

const (
	Windows OS = iota + 1
	Linux
	Darwin
)

func (o OS) String() string {
	switch o {
	case Windows:
		return "windows"
	case Linux:
		return "linux"
	case Darwin:
		return "darwin"
	default:
		return fmt.Sprintf("os(%d)", int(o))
	}
}

// Valid reports whether o is one of the known families.
func (o OS) Valid() bool { return o == Windows || o == Linux || o == Darwin }

// Parse maps a platform identifier to an OS. Matching is case-insensitive and
// accepts "macos" as an alias for darwin.
func Parse(s string) (OS, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "windows":
		return Windows, nil
	case "linux":
		return Linux, nil
	case "darwin", "macos", "mac":
		return Darwin, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedPlatform, s)
	}
}

// Detect returns the family of the running host.
func Detect() (OS, error) { return Parse(runtime.GOOS) }

// Resolve returns the override when set, otherwise the host family.
func Resolve(override string) (OS, error) {
	if strings.TrimSpace(override) == "" {
		return Detect()
	}
	return Parse(override)
}
