package terminal

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/loykin/devterm/internal/color"
	"github.com/loykin/devterm/internal/platform"
)

// Darwin drives Terminal.app through osascript. The window id of the new
// tab is returned on stdout.
type Darwin struct {
	WorkDir string
}

func (Darwin) OS() platform.OS { return platform.Darwin }

var nonAlnum = regexp.MustCompile(`[^a-zA-Z0-9]`)

func (d Darwin) Open(name, command string, colors color.Colors) []string {
	tab := "tab_" + nonAlnum.ReplaceAllString(strings.ToLower(name), "_")
	doScript := `clear && cd \"` + asQuote(shDouble(d.WorkDir)) + `\" && ` + asQuote(command)

	lines := []string{
		`tell application "Terminal"`,
		"activate",
		"set " + tab + ` to do script "` + doScript + `"`,
		"set custom title of " + tab + ` to "` + asQuote(name) + `"`,
	}
	if !colors.IsZero() {
		lines = append(lines,
			"set background color of "+tab+` to "`+colors.Background+`"`,
			"set normal text color of "+tab+` to "`+colors.Text+`"`,
		)
	}
	lines = append(lines,
		"delay 0.2",
		"set windowID to id of front window",
		"return windowID",
		"end tell",
	)
	return osascript(lines)
}

// Kill closes the window with the given id after killing every process
// attached to its tty. Killing is best effort; a missing window is a no-op.
func (Darwin) Kill(id int) []string {
	return osascript([]string{
		`tell application "Terminal"`,
		"set targetWindowId to " + strconv.Itoa(id),
		"if exists (window id targetWindowId) then",
		"set targetWindow to window id targetWindowId",
		"set targetTab to tab 1 of targetWindow",
		"set targetTty to tty of targetTab",
		"set ttyShort to text 9 thru -1 of targetTty",
		"try",
		`do shell script "ps -t " & ttyShort & " -o pid= | xargs kill -9"`,
		"end try",
		"delay 0.5",
		"close window id targetWindowId",
		"end if",
		"end tell",
	})
}

func osascript(lines []string) []string {
	argv := make([]string, 0, 1+2*len(lines))
	argv = append(argv, "osascript")
	for _, l := range lines {
		argv = append(argv, "-e", l)
	}
	return argv
}

var asReplacer = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// asQuote escapes s for an AppleScript double-quoted string literal.
func asQuote(s string) string { return asReplacer.Replace(s) }
