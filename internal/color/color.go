package color

import (
	"slices"

	"github.com/loykin/devterm/internal/platform"
)

// Colors is an optional text/background pair applied to a terminal window.
// The zero value means "no recoloring".
type Colors struct {
	Text       string `yaml:"text" json:"text,omitempty"`
	Background string `yaml:"background" json:"background,omitempty"`
}

// IsZero reports whether neither token is set.
func (c Colors) IsZero() bool { return c.Text == "" && c.Background == "" }

var windowsPalette = []string{
	"Black", "DarkBlue", "DarkGreen", "DarkCyan", "DarkRed", "DarkMagenta",
	"DarkYellow", "Gray", "DarkGray", "Blue", "Green", "Cyan", "Red",
	"Magenta", "Yellow", "White",
}

// gnome-terminal accepts X11 color names; DarkYellow is not one of them.
var linuxPalette = []string{
	"Black", "DarkBlue", "DarkGreen", "DarkCyan", "DarkRed", "DarkMagenta",
	"Gray", "DarkGray", "Blue", "Green", "Cyan", "Red", "Magenta", "Yellow",
	"White",
}

var darwinPalette = []string{
	"black", "white", "red", "green", "blue", "cyan", "magenta", "yellow",
}

// Palette returns a copy of the color tokens accepted on os, in display order.
// Unknown families have an empty palette.
func Palette(os platform.OS) []string {
	switch os {
	case platform.Windows:
		return slices.Clone(windowsPalette)
	case platform.Linux:
		return slices.Clone(linuxPalette)
	case platform.Darwin:
		return slices.Clone(darwinPalette)
	default:
		return nil
	}
}

// Valid reports whether both tokens are set and belong to the palette of os.
// Matching is case-sensitive.
func Valid(os platform.OS, c Colors) bool {
	if c.Text == "" || c.Background == "" {
		return false
	}
	p := Palette(os)
	return slices.Contains(p, c.Text) && slices.Contains(p, c.Background)
}
