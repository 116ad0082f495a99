package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loykin/devterm"
	"github.com/loykin/devterm/internal/launcher"
)

type fakeTerminals struct {
	mu       sync.Mutex
	opens    int
	kills    int
	failOpen bool
}

func (f *fakeTerminals) Run(_ context.Context, argv []string) launcher.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	if argv[0] == "kill" {
		f.kills++
		return launcher.Result{Succeeded: true}
	}
	if f.failOpen {
		return launcher.Result{Stderr: "xterm: not found"}
	}
	f.opens++
	return launcher.Result{Succeeded: true, Stdout: strconv.Itoa(4000 + f.opens)}
}

const twoCommands = `
platform: linux
terminal: xterm
commands:
  Vite: npm run dev
  Queue:
    command: php artisan queue:work
    colors:
      text: Green
      background: Black
`

func writeConfig(t *testing.T, data string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "devterm.yaml")
	require.NoError(t, os.WriteFile(p, []byte(data), 0o644))
	return p
}

func run(t *testing.T, ex devterm.Executor, input string, args ...string) (string, error) {
	t.Helper()
	root := buildRoot(devterm.Options{
		Executor: ex,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	var out bytes.Buffer
	root.SetIn(strings.NewReader(input))
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestInteractive_NoCommands(t *testing.T) {
	path := writeConfig(t, "platform: linux\n")
	out, err := run(t, &fakeTerminals{}, "", "--config", path)
	require.ErrorIs(t, err, errNoCommands)
	assert.Contains(t, out, "No commands configured")
	assert.Contains(t, out, "devterm init")
}

func TestInteractive_ScriptedSession(t *testing.T) {
	path := writeConfig(t, twoCommands)
	ex := &fakeTerminals{}
	input := strings.Join([]string{
		"stop command", "Vite",
		"start command", "Vite",
		"restart command", "Back",
		"show all commands",
		"exit",
	}, "\n") + "\n"

	out, err := run(t, ex, input, "--config", path)
	require.NoError(t, err)

	assert.Contains(t, out, "✅ All development commands have been launched!")
	assert.Contains(t, out, "✅ Development command 'Vite' has been stopped!")
	assert.Contains(t, out, "✅ Development command 'Vite' has been launched!")
	assert.Contains(t, out, "choose the command you want to restart")
	assert.Contains(t, out, "php artisan queue:work")
	assert.Contains(t, out, "Exiting...")
	assert.Contains(t, out, "✅ All development commands have been stopped!")
	assert.NotContains(t, out, "is invalid")

	assert.Equal(t, 3, ex.opens)
	assert.Equal(t, 3, ex.kills)
}

func TestInteractive_StartOfferedOnlyForStopped(t *testing.T) {
	path := writeConfig(t, twoCommands)
	// everything runs after launch, so "start command" is not a valid answer
	out, err := run(t, &fakeTerminals{}, "start command\nexit\n", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, `Value "start command" is invalid`)
	assert.NotContains(t, out, "[2] start command")
}

func TestInteractive_NothingRunning(t *testing.T) {
	path := writeConfig(t, twoCommands)
	ex := &fakeTerminals{failOpen: true}
	out, err := run(t, ex, "stop command\nrestart command\nstart all commands\n", "--config", path)
	require.NoError(t, err, "end of input leaves the menu like exit")

	assert.Contains(t, out, "❌ Failed to launch development commands")
	assert.Contains(t, out, "xterm: not found")
	assert.Contains(t, out, "No running commands to stop")
	assert.Contains(t, out, "No running commands to restart")
	assert.Contains(t, out, "Exiting...")
	assert.Equal(t, 0, ex.kills)
}

func TestInteractive_SecondSessionIsLocked(t *testing.T) {
	path := writeConfig(t, twoCommands)
	c, err := devterm.LoadConfig(path)
	require.NoError(t, err)
	first, err := devterm.Open(context.Background(), c, devterm.Options{Executor: &fakeTerminals{}})
	require.NoError(t, err)
	defer func() { _ = first.Close() }()

	_, err = run(t, &fakeTerminals{}, "exit\n", "--config", path)
	require.ErrorIs(t, err, devterm.ErrLocked)

	// read-only commands ignore the lock
	out, err := run(t, &fakeTerminals{}, "", "list", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Vite")
}

func TestList(t *testing.T) {
	path := writeConfig(t, twoCommands)
	out, err := run(t, &fakeTerminals{}, "", "list", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "platform: linux")
	assert.Contains(t, out, "npm run dev")
	assert.Contains(t, out, "Green")
	assert.Contains(t, out, "Black")
}

func TestCheck(t *testing.T) {
	tests := []struct {
		name    string
		config  string
		args    []string
		wantErr bool
		want    []string
	}{
		{"valid", twoCommands, nil, false, []string{"✓ Vite", "✓ Queue", "2 commands OK for linux"}},
		{"yellow on linux", `
commands:
  Tail:
    command: tail -f log
    colors: {text: DarkYellow, background: Black}
`, []string{"--platform", "linux"}, true, []string{"✗ Tail", "colors for linux"}},
		{"macos lowercases", `
commands:
  Tail:
    command: tail -f log
    colors: {text: Yellow, background: Black}
`, []string{"--platform", "macos"}, false, []string{"✓ Tail", "darwin"}},
		{"missing command key", `
platform: windows
commands:
  Broken:
    colors: {text: White, background: Blue}
`, nil, true, []string{"✗ Broken"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := writeConfig(t, tc.config)
			args := append([]string{"check", "--config", path}, tc.args...)
			out, err := run(t, &fakeTerminals{}, "", args...)
			if tc.wantErr {
				require.ErrorIs(t, err, devterm.ErrInvalidConfig)
			} else {
				require.NoError(t, err)
			}
			for _, w := range tc.want {
				assert.Contains(t, out, w)
			}
		})
	}
}

func TestInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "devterm.yaml")
	out, err := run(t, nil, "", "init", path)
	require.NoError(t, err)
	assert.Contains(t, out, "wrote "+path)

	_, err = run(t, nil, "", "init", path)
	require.Error(t, err)
	_, err = run(t, nil, "", "init", "--force", path)
	require.NoError(t, err)

	c, err := devterm.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Vite", "Queue"}, c.Commands.Keys())
}

func TestHistory(t *testing.T) {
	path := writeConfig(t, twoCommands)
	_, err := run(t, &fakeTerminals{}, "", "history", "--config", path)
	require.Error(t, err)

	db := filepath.Join(filepath.Dir(path), "history.db")
	path = writeConfig(t, twoCommands+"history:\n  dsn: sqlite://"+db+"\n")
	_, err = run(t, &fakeTerminals{}, "exit\n", "--config", path)
	require.NoError(t, err)

	out, err := run(t, &fakeTerminals{}, "", "history", "--config", path, "--limit", "10")
	require.NoError(t, err)
	assert.Contains(t, out, "start")
	assert.Contains(t, out, "stop")
	assert.Contains(t, out, "Queue")
	assert.Contains(t, out, "linux")
}

func TestIsLoopback(t *testing.T) {
	tests := map[string]bool{
		"127.0.0.1:8787": true,
		"localhost:80":   true,
		"[::1]:8787":     true,
		":8787":          false,
		"0.0.0.0:8787":   false,
		"10.0.0.5:8787":  false,
		"garbage":        false,
	}
	for addr, want := range tests {
		if got := isLoopback(addr); got != want {
			t.Fatalf("isLoopback(%q) = %v, want %v", addr, got, want)
		}
	}
}
