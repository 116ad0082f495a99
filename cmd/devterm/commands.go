package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/loykin/devterm"
	"github.com/loykin/devterm/internal/auth"
	"github.com/loykin/devterm/internal/color"
	"github.com/loykin/devterm/internal/prompt"
	itls "github.com/loykin/devterm/internal/tls"
)

// errNoCommands makes the root command exit non-zero after it already
// explained the problem.
var errNoCommands = errors.New("no commands configured")

type command struct {
	flags *GlobalFlags
	opts  devterm.Options
}

func (c command) load() (*devterm.Config, error) {
	cfg, err := devterm.LoadConfig(c.flags.ConfigPath)
	if err != nil {
		return nil, err
	}
	if c.flags.Platform != "" {
		cfg.Platform = c.flags.Platform
	}
	return cfg, nil
}

// open loads the configuration and builds the app. Read-only commands skip
// the directory lock so they work next to a running session.
func (c command) open(ctx context.Context, readOnly bool) (*devterm.App, error) {
	cfg, err := c.load()
	if err != nil {
		return nil, err
	}
	opts := c.opts
	opts.SkipLock = opts.SkipLock || readOnly
	app, err := devterm.Open(ctx, cfg, opts)
	if errors.Is(err, devterm.ErrLocked) {
		return nil, fmt.Errorf("%w: another devterm session owns this directory", err)
	}
	return app, err
}

// Interactive starts everything and runs the menu until exit.
func (c command) Interactive(cmd *cobra.Command) error {
	ctx := cmd.Context()
	app, err := c.open(ctx, false)
	if err != nil {
		return err
	}
	defer func() { _ = app.Close() }()

	out := cmd.OutOrStdout()
	if len(app.Names()) == 0 {
		_, _ = fmt.Fprintln(out, errorStyle.Render("No commands configured. Please create and configure a devterm.yaml file."))
		_, _ = fmt.Fprintln(out, "devterm init")
		return errNoCommands
	}

	if addr := app.Config.Metrics.Listen; addr != "" {
		go func() {
			if err := devterm.ServeMetrics(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				app.Logger.Warn("metrics server stopped", "addr", addr, "error", err)
			}
		}()
	}

	m := &menu{mgr: app.Manager, choose: chooser(cmd), out: out}

	// the line prompt blocks in a read that a signal does not interrupt
	stopSignals := onSignal(func() {
		_, _ = fmt.Fprintln(out)
		m.infof("Exiting...")
		m.stopAll(context.Background())
		_ = app.Close()
		os.Exit(130)
	})
	defer stopSignals()

	return m.Run(ctx)
}

// onSignal runs fn on the first SIGINT or SIGTERM until stop is called.
func onSignal(fn func()) (stop func()) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
	done := make(chan struct{})
	go func() {
		select {
		case <-ch:
			fn()
		case <-done:
		}
	}()
	return func() {
		signal.Stop(ch)
		close(done)
	}
}

// chooser uses the TUI only when the command talks to real terminals.
func chooser(cmd *cobra.Command) prompt.Chooser {
	in, out := cmd.InOrStdin(), cmd.OutOrStdout()
	inF, okIn := in.(*os.File)
	outF, okOut := out.(*os.File)
	if okIn && okOut {
		return prompt.New(inF, outF)
	}
	return prompt.NewLine(in, out)
}

const sampleConfig = `# devterm configuration
# Each command opens in its own terminal window.
commands:
  Vite: npm run dev
  Queue:
    command: php artisan queue:work
    colors:
      text: Green
      background: Black

# Rendered with Go templates, parsed as a YAML mapping of commands.
# dynamic_commands:
#   workers: |
#     {{ range seq 1 2 }}
#     worker-{{ . }}: php artisan queue:work --name=w{{ . }}
#     {{ end }}

# terminal: gnome-terminal
# batch: abort
# history:
#   dsn: sqlite://.devterm/history.db
# metrics:
#   listen: 127.0.0.1:9090
`

func (c command) Init(out io.Writer, path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(out, "wrote %s\n", path)
	return nil
}

// List prints every configured command resolved for the active platform.
func (c command) List(cmd *cobra.Command) error {
	app, err := c.open(cmd.Context(), true)
	if err != nil {
		return err
	}
	defer func() { _ = app.Close() }()

	rows := make([][]string, 0, len(app.Names()))
	for _, st := range app.Statuses(cmd.Context()) {
		text, bg := "-", "-"
		if !st.Definition.Colors.IsZero() {
			text, bg = st.Definition.Colors.Text, st.Definition.Colors.Background
		}
		cmdText := st.Definition.Command
		if st.Invalid != "" {
			cmdText = "invalid: " + st.Invalid
		}
		rows = append(rows, []string{st.Name, cmdText, text, bg})
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "platform: %s\n", app.OS)
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), newTable("NAME", "COMMAND", "TEXT", "BACKGROUND").Rows(rows...).String())
	return nil
}

// Check resolves every command and fails when any is invalid.
func (c command) Check(cmd *cobra.Command) error {
	app, err := c.open(cmd.Context(), true)
	if err != nil {
		return err
	}
	defer func() { _ = app.Close() }()

	out := cmd.OutOrStdout()
	names := app.Names()
	if len(names) == 0 {
		return errNoCommands
	}
	bad := 0
	for _, name := range names {
		if _, err := app.Definition(name); err != nil {
			bad++
			_, _ = fmt.Fprintf(out, "✗ %s: %v\n", name, err)
			continue
		}
		_, _ = fmt.Fprintf(out, "✓ %s\n", name)
	}
	if bad > 0 {
		_, _ = fmt.Fprintf(out, "colors for %s: %s\n", app.OS, strings.Join(color.Palette(app.OS), ", "))
		return fmt.Errorf("%d of %d commands invalid: %w", bad, len(names), devterm.ErrInvalidConfig)
	}
	_, _ = fmt.Fprintf(out, "%d commands OK for %s\n", len(names), app.OS)
	return nil
}

// History prints the newest events of the configured store.
func (c command) History(cmd *cobra.Command, limit int) error {
	app, err := c.open(cmd.Context(), true)
	if err != nil {
		return err
	}
	defer func() { _ = app.Close() }()

	r := app.HistoryReader()
	if r == nil {
		return errors.New("history.dsn is not configured")
	}
	events, err := r.Recent(cmd.Context(), limit)
	if err != nil {
		return err
	}
	rows := make([][]string, 0, len(events))
	for _, e := range events {
		id := "-"
		if e.ID != 0 {
			id = strconv.Itoa(e.ID)
		}
		rows = append(rows, []string{
			e.OccurredAt.Local().Format(time.DateTime), string(e.Type), e.Name, id, e.Platform, e.Error,
		})
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), newTable("TIME", "EVENT", "NAME", "ID", "PLATFORM", "ERROR").Rows(rows...).String())
	return nil
}

// Serve runs headless: start all, serve the API and metrics, stop all on
// SIGINT or SIGTERM.
func (c command) Serve(cmd *cobra.Command, listen, base string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := c.open(ctx, false)
	if err != nil {
		return err
	}
	defer func() { _ = app.Close() }()

	if listen == "" {
		listen = app.Config.Server.Listen
	}
	if base == "" {
		base = app.Config.Server.BasePath
	}

	if err := app.StartAll(ctx); err != nil {
		app.Logger.Error("start all", "error", err)
	}

	tlsOpts, err := app.Config.TLS()
	if err != nil {
		return err
	}
	tlsCfg, err := itls.Setup(tlsOpts)
	if err != nil {
		return err
	}
	token := auth.NewToken(app.Config.Server.Token)
	if !token.Enabled() && !isLoopback(listen) {
		app.Logger.Warn("control API is reachable without a token", "addr", listen)
	}

	router := devterm.NewRouter(app.Manager, base).WithAuth(token)
	if h := app.HistoryReader(); h != nil {
		router.WithHistory(h)
	}
	host := devterm.NewHost(listen, router, devterm.MetricsHandler()).WithTLS(tlsCfg)

	errCh := make(chan error, 1)
	go func() { errCh <- host.Start() }()
	app.Logger.Info("serving", "url", host.Scheme()+"://"+listen+router.BasePath(), "auth", token.Enabled(), "session", app.Session())

	var serveErr error
	select {
	case <-ctx.Done():
		app.Logger.Info("shutting down")
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			serveErr = err
		}
	}

	// a fresh context: ctx is already cancelled here
	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := app.StopAll(stopCtx); err != nil {
		app.Logger.Error("stop all", "error", err)
	}
	if err := host.Shutdown(stopCtx); err != nil {
		app.Logger.Warn("shutdown", "error", err)
	}
	return serveErr
}

// isLoopback reports whether addr only listens on a loopback interface.
func isLoopback(addr string) bool {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return false
	}
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
