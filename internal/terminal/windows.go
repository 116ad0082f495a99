package terminal

import (
	"strconv"
	"strings"

	"github.com/loykin/devterm/internal/color"
	"github.com/loykin/devterm/internal/platform"
)

// Windows opens a detached PowerShell window through Start-Process and
// prints the new process id.
type Windows struct{}

func (Windows) OS() platform.OS { return platform.Windows }

// The inner script sits inside a single-quoted PowerShell literal, so every
// quote in it is doubled once; quotes inside its own literals twice.
func (Windows) Open(name, command string, colors color.Colors) []string {
	colorsScript := ""
	if !colors.IsZero() {
		colorsScript = "$Host.UI.RawUI.BackgroundColor = ''" + colors.Background + "''; " +
			"$Host.UI.RawUI.ForegroundColor = ''" + colors.Text + "''; " +
			"$env:NO_COLOR = ''1'';"
	}
	inner := "$Host.UI.RawUI.WindowTitle = ''" + psQuote(psQuote(name)) + "''; " +
		colorsScript + " Clear-Host; " + psQuote(command)
	script := "$process = Start-Process -FilePath powershell -ArgumentList '-NoExit', '-Command', '" +
		inner + "' -PassThru; Write-Output $process.Id"
	return []string{"powershell", "-Command", script}
}

// Kill force-terminates the process tree rooted at id.
func (Windows) Kill(id int) []string {
	return []string{"taskkill", "/PID", strconv.Itoa(id), "/T", "/F"}
}

func psQuote(s string) string { return strings.ReplaceAll(s, "'", "''") }
