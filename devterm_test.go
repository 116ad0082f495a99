package devterm

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loykin/devterm/internal/launcher"
	"github.com/loykin/devterm/internal/platform"
)

type recordingExec struct {
	mu    sync.Mutex
	argvs [][]string
	next  int
}

func (r *recordingExec) Run(_ context.Context, argv []string) launcher.Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.argvs = append(r.argvs, argv)
	if argv[0] == "kill" {
		return launcher.Result{Succeeded: true}
	}
	r.next++
	return launcher.Result{Succeeded: true, Stdout: strconv.Itoa(1000 + r.next)}
}

func writeConfig(t *testing.T, dir, data string) string {
	t.Helper()
	p := filepath.Join(dir, "devterm.yaml")
	require.NoError(t, os.WriteFile(p, []byte(data), 0o644))
	return p
}

func TestOpen_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "history.db")
	path := writeConfig(t, dir, `
platform: linux
terminal: xterm
history:
  dsn: sqlite://`+dbPath+`
commands:
  Laravel Server: php artisan serve
  Queue Worker:
    command: php artisan queue:work
    colors:
      text: Yellow
      background: Green
dynamic_commands:
  workers: |
    {{ range seq 1 2 }}
    "Worker {{ . }}": php artisan queue:work --name=w{{ . }}
    {{ end }}
`)
	c, err := LoadConfig(path)
	require.NoError(t, err)

	ex := &recordingExec{}
	app, err := Open(context.Background(), c, Options{Executor: ex})
	require.NoError(t, err)
	defer func() { assert.NoError(t, app.Close()) }()

	assert.Equal(t, platform.Linux, app.OS)
	assert.Equal(t, []string{"Laravel Server", "Queue Worker", "Worker 1", "Worker 2"}, app.Names())

	ctx := context.Background()
	require.NoError(t, app.StartAll(ctx))
	assert.Equal(t, app.Names(), app.RunningNames())
	assert.Equal(t, "bash", ex.argvs[0][0])
	assert.Contains(t, ex.argvs[0][2], "xterm --title 'Laravel Server'")
	assert.Contains(t, ex.argvs[1][2], `\033]11;Green\007\033]10;Yellow\007`)

	require.NoError(t, app.StopAll(ctx))
	assert.Empty(t, app.RunningNames())

	evts, err := app.HistoryReader().Recent(ctx, 100)
	require.NoError(t, err)
	assert.Len(t, evts, 8)
	assert.Equal(t, "stop", string(evts[0].Type))
}

func TestOpen_LockIsExclusive(t *testing.T) {
	dir := t.TempDir()
	c, err := LoadConfig(writeConfig(t, dir, "platform: windows\ncommands:\n  A: echo a\n"))
	require.NoError(t, err)

	first, err := Open(context.Background(), c, Options{Executor: &recordingExec{}})
	require.NoError(t, err)

	_, err = Open(context.Background(), c, Options{Executor: &recordingExec{}})
	require.ErrorIs(t, err, ErrLocked)

	_, err = Open(context.Background(), c, Options{Executor: &recordingExec{}, SkipLock: true})
	require.NoError(t, err)

	require.NoError(t, first.Close())
	second, err := Open(context.Background(), c, Options{Executor: &recordingExec{}})
	require.NoError(t, err)
	require.NoError(t, second.Close())
}

func TestOpen_RelativeSQLiteHistoryInWorkDir(t *testing.T) {
	dir := t.TempDir()
	c, err := LoadConfig(writeConfig(t, dir, "platform: linux\nhistory:\n  dsn: sqlite://.devterm/history.db\ncommands:\n  A: echo a\n"))
	require.NoError(t, err)

	app, err := Open(context.Background(), c, Options{Executor: &recordingExec{}, SkipLock: true})
	require.NoError(t, err)
	defer func() { assert.NoError(t, app.Close()) }()

	require.NoError(t, app.Start(context.Background(), "A"))
	_, err = os.Stat(filepath.Join(dir, ".devterm", "history.db"))
	require.NoError(t, err)
}

func TestOpen_Errors(t *testing.T) {
	dir := t.TempDir()

	c, err := LoadConfig(writeConfig(t, dir, "platform: plan9\n"))
	require.NoError(t, err)
	_, err = Open(context.Background(), c, Options{SkipLock: true})
	require.ErrorIs(t, err, ErrUnsupportedPlatform)

	c, err = LoadConfig(writeConfig(t, dir, "platform: linux\nhistory:\n  dsn: ftp://nowhere\n"))
	require.NoError(t, err)
	_, err = Open(context.Background(), c, Options{SkipLock: true})
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "unsupported DSN"))
}

func TestFuncSource(t *testing.T) {
	dir := t.TempDir()
	c, err := LoadConfig(writeConfig(t, dir, "platform: darwin\ncommands:\n  Web: npm start\n"))
	require.NoError(t, err)

	src := FuncSource("extra", func(context.Context) (any, error) {
		return map[string]string{"Docs": "mkdocs serve"}, nil
	})
	app, err := Open(context.Background(), c, Options{Executor: &recordingExec{}, Sources: []Source{src}, SkipLock: true})
	require.NoError(t, err)
	defer func() { _ = app.Close() }()
	assert.Equal(t, []string{"Web", "Docs"}, app.Names())
	assert.Nil(t, app.HistoryReader())
}
