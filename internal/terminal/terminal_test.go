package terminal

import (
	"errors"
	"os/exec"
	"runtime"
	"strings"
	"testing"

	"github.com/loykin/devterm/internal/color"
	"github.com/loykin/devterm/internal/platform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFor(t *testing.T) {
	b, err := For(platform.Linux, Options{})
	require.NoError(t, err)
	assert.Equal(t, Linux{Terminal: DefaultLinuxTerminal}, b)

	b, err = For(platform.Darwin, Options{WorkDir: "/src/app"})
	require.NoError(t, err)
	assert.Equal(t, platform.Darwin, b.OS())

	_, err = For(platform.OS(0), Options{})
	assert.True(t, errors.Is(err, platform.ErrUnsupportedPlatform))
}

func TestWindows_OpenPlain(t *testing.T) {
	argv := Windows{}.Open("Laravel Server", "php artisan serve", color.Colors{})
	require.Len(t, argv, 3)
	assert.Equal(t, []string{"powershell", "-Command"}, argv[:2])
	want := "$process = Start-Process -FilePath powershell -ArgumentList '-NoExit', '-Command', " +
		"'$Host.UI.RawUI.WindowTitle = ''Laravel Server'';  Clear-Host; php artisan serve' -PassThru; Write-Output $process.Id"
	assert.Equal(t, want, argv[2])
	assert.NotContains(t, argv[2], "NO_COLOR")
}

func TestWindows_OpenColors(t *testing.T) {
	argv := Windows{}.Open("Queue Worker", "php artisan queue:work", color.Colors{Text: "Yellow", Background: "Green"})
	script := argv[2]
	bg := strings.Index(script, "BackgroundColor = ''Green''")
	fg := strings.Index(script, "ForegroundColor = ''Yellow''")
	noColor := strings.Index(script, "$env:NO_COLOR = ''1'';")
	clear := strings.Index(script, "Clear-Host")
	cmd := strings.Index(script, "php artisan queue:work")
	require.True(t, bg > 0 && fg > 0 && noColor > 0, script)
	assert.True(t, bg < fg && fg < noColor && noColor < clear && clear < cmd, script)
	assert.True(t, strings.HasSuffix(script, "-PassThru; Write-Output $process.Id"))
}

func TestWindows_QuotesEscaped(t *testing.T) {
	script := Windows{}.Open("Bob's", "echo 'hi'", color.Colors{})[2]
	assert.Contains(t, script, "WindowTitle = ''Bob''''s''")
	assert.Contains(t, script, "echo ''hi''")
}

func TestWindows_Kill(t *testing.T) {
	assert.Equal(t, []string{"taskkill", "/PID", "4242", "/T", "/F"}, Windows{}.Kill(4242))
}

func TestLinux_OpenPlain(t *testing.T) {
	argv := Linux{}.Open("Laravel Server", "php artisan serve", color.Colors{})
	require.Len(t, argv, 3)
	assert.Equal(t, []string{"bash", "-c"}, argv[:2])
	want := `pipe=$(mktemp -u); mkfifo $pipe; gnome-terminal --title 'Laravel Server' -- ` +
		`bash -c "echo \$\$ > $pipe;  php artisan serve;  exec bash" & cat $pipe; rm $pipe`
	assert.Equal(t, want, argv[2])
	assert.Contains(t, argv[2], "php artisan serve")
	assert.Contains(t, argv[2], "Laravel Server")
	assert.NotContains(t, argv[2], `\033]`)
}

func TestLinux_OpenColors(t *testing.T) {
	script := Linux{Terminal: "mate-terminal"}.Open("Queue", "work", color.Colors{Text: "Yellow", Background: "Green"})[2]
	assert.Contains(t, script, "mate-terminal --title 'Queue'")
	assert.Contains(t, script, `echo -e '\033]11;Green\007\033]10;Yellow\007'; work;  exec bash`)
	assert.Less(t, strings.Index(script, "echo \\$\\$"), strings.Index(script, `\033]11;`))
}

func TestLinux_Escaping(t *testing.T) {
	script := Linux{}.Open("it's", `echo "$HOME" `+"`date`", color.Colors{})[2]
	assert.Contains(t, script, `--title 'it'\''s'`)
	assert.Contains(t, script, `echo \"\$HOME\" \`+"`date\\`")
}

// The inner command must reach the nested shell verbatim.
func TestLinux_EscapingRoundTrip(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires bash")
	}
	if _, err := exec.LookPath("bash"); err != nil {
		t.Skip("bash not available")
	}
	cmd := `printf '%s|' "a b" $((1+1)) \x`
	out, err := exec.Command("bash", "-c", `bash -c "`+shDouble(cmd)+`"`).Output()
	require.NoError(t, err)
	direct, err := exec.Command("bash", "-c", cmd).Output()
	require.NoError(t, err)
	assert.Equal(t, string(direct), string(out))
}

func TestLinux_Kill(t *testing.T) {
	assert.Equal(t, []string{"kill", "-9", "77"}, Linux{}.Kill(77))
}

func TestDarwin_OpenPlain(t *testing.T) {
	argv := Darwin{WorkDir: "/Users/dev/shop"}.Open("Laravel Server", "php artisan serve", color.Colors{})
	want := []string{
		"osascript",
		"-e", `tell application "Terminal"`,
		"-e", "activate",
		"-e", `set tab_laravel_server to do script "clear && cd \"/Users/dev/shop\" && php artisan serve"`,
		"-e", `set custom title of tab_laravel_server to "Laravel Server"`,
		"-e", "delay 0.2",
		"-e", "set windowID to id of front window",
		"-e", "return windowID",
		"-e", "end tell",
	}
	assert.Equal(t, want, argv)
}

func TestDarwin_OpenColors(t *testing.T) {
	argv := Darwin{WorkDir: "/p"}.Open("Vite", "npm run dev", color.Colors{Text: "yellow", Background: "green"})
	joined := strings.Join(argv, "\n")
	assert.Contains(t, joined, `set background color of tab_vite to "green"`)
	assert.Contains(t, joined, `set normal text color of tab_vite to "yellow"`)
	assert.Less(t, strings.Index(joined, "normal text color"), strings.Index(joined, "delay 0.2"))
	assert.Equal(t, "end tell", argv[len(argv)-1])
}

func TestDarwin_Escaping(t *testing.T) {
	argv := Darwin{WorkDir: `/p/"q"`}.Open(`say "hi"`, `echo "x" \n`, color.Colors{})
	joined := strings.Join(argv, "\n")
	assert.Contains(t, joined, `set tab_say__hi_ to do script "clear && cd \"/p/\\\"q\\\"\" && echo \"x\" \\n"`)
	assert.Contains(t, joined, `set custom title of tab_say__hi_ to "say \"hi\""`)
}

func TestDarwin_Kill(t *testing.T) {
	argv := Darwin{}.Kill(123)
	joined := strings.Join(argv, "\n")
	assert.Equal(t, "osascript", argv[0])
	assert.Contains(t, joined, "set targetWindowId to 123")
	assert.Contains(t, joined, "if exists (window id targetWindowId) then")
	assert.Less(t, strings.Index(joined, "try"), strings.Index(joined, "xargs kill -9"))
	assert.Less(t, strings.Index(joined, "end try"), strings.Index(joined, "close window id targetWindowId"))
	assert.Contains(t, joined, "delay 0.5")
}
