package terminal

import (
	"strconv"
	"strings"

	"github.com/loykin/devterm/internal/color"
	"github.com/loykin/devterm/internal/platform"
)

// Linux opens a terminal emulator running bash. The new shell writes its own
// PID to a temporary FIFO which the launching shell reads and prints; the FIFO
// is removed before the invocation returns.
type Linux struct {
	Terminal string
}

func (Linux) OS() platform.OS { return platform.Linux }

func (l Linux) Open(name, command string, colors color.Colors) []string {
	term := l.Terminal
	if term == "" {
		term = DefaultLinuxTerminal
	}
	colorsScript := ""
	if !colors.IsZero() {
		// OSC 11 sets the background, OSC 10 the foreground.
		colorsScript = `echo -e '\033]11;` + colors.Background + `\007\033]10;` + colors.Text + `\007';`
	}
	script := "pipe=$(mktemp -u); mkfifo $pipe; " + term + " --title '" + shSingle(name) + "' -- " +
		`bash -c "echo \$\$ > $pipe; ` + colorsScript + " " + shDouble(command) + `;  exec bash" & cat $pipe; rm $pipe`
	return []string{"bash", "-c", script}
}

// Kill sends SIGKILL to id.
func (Linux) Kill(id int) []string {
	return []string{"kill", "-9", strconv.Itoa(id)}
}

// shSingle escapes s for use inside a single-quoted shell word.
func shSingle(s string) string { return strings.ReplaceAll(s, "'", `'\''`) }

var shDoubleReplacer = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "$", `\$`, "`", "\\`")

// shDouble escapes s for use inside a double-quoted shell word, so the
// inner shell receives it verbatim.
func shDouble(s string) string { return shDoubleReplacer.Replace(s) }
