// Package devterm launches named development commands in OS-native terminal
// windows and keeps track of them so they can be stopped or restarted.
//
// Open builds a ready Manager from a loaded configuration; the returned App
// owns the resources (log file, history store, directory lock) that go with it.
package devterm

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"text/template"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	cfg "github.com/loykin/devterm/internal/config"
	"github.com/loykin/devterm/internal/dynamic"
	"github.com/loykin/devterm/internal/history"
	"github.com/loykin/devterm/internal/history/factory"
	"github.com/loykin/devterm/internal/launcher"
	"github.com/loykin/devterm/internal/lock"
	"github.com/loykin/devterm/internal/logger"
	"github.com/loykin/devterm/internal/manager"
	"github.com/loykin/devterm/internal/metrics"
	"github.com/loykin/devterm/internal/platform"
	"github.com/loykin/devterm/internal/probe"
	"github.com/loykin/devterm/internal/registry"
	iapi "github.com/loykin/devterm/internal/server"
	"github.com/loykin/devterm/internal/terminal"
)

// Re-export core types for external consumers.
// These are aliases so conversions are zero-cost.

type Manager = manager.Manager

type Status = manager.Status

type Config = cfg.Config

type Source = dynamic.Source

type Executor = launcher.Executor

type BatchPolicy = manager.BatchPolicy

const (
	BatchAbort    = manager.BatchAbort
	BatchContinue = manager.BatchContinue
)

var (
	ErrNotConfigured       = manager.ErrNotConfigured
	ErrAlreadyRunning      = manager.ErrAlreadyRunning
	ErrNotRunning          = manager.ErrNotRunning
	ErrInvalidConfig       = manager.ErrInvalidConfig
	ErrUnsupportedPlatform = manager.ErrUnsupportedPlatform
	ErrLaunchFailure       = manager.ErrLaunchFailure
	ErrTerminationFailure  = manager.ErrTerminationFailure
	ErrLocked              = lock.ErrLocked
)

func LoadConfig(path string) (*Config, error) { return cfg.Load(path) }

// FuncSource registers a Go function as a dynamic command source. fn may
// return map[string]string, map[string]any as decoded from JSON or YAML,
// map[string]command entries or a YAML node.
func FuncSource(name string, fn func(ctx context.Context) (any, error)) Source {
	return dynamic.Func(name, fn)
}

// FragmentSource is a text/template rendering a YAML mapping of commands.
func FragmentSource(name, text string, funcs template.FuncMap) Source {
	return dynamic.NewFragment(name, text, funcs)
}

// Options adjust Open. The zero value uses everything from the config.
type Options struct {
	// Logger replaces the logger built from the log section.
	Logger *slog.Logger
	// Executor replaces the os/exec runner.
	Executor Executor
	// Sources are appended after the config's dynamic_commands.
	Sources []Source
	// SkipLock ignores the lock setting.
	SkipLock bool
}

// App is a Manager plus everything that was opened to build it.
type App struct {
	*Manager

	Config  *Config
	Logger  *slog.Logger
	OS      platform.OS
	WorkDir string
	History factory.Store

	closers []io.Closer
}

// Open wires a Manager from c. Close must be called when done; it does not
// stop running commands.
func Open(ctx context.Context, c *Config, opts Options) (app *App, err error) {
	a := &App{Config: c}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	a.Logger = opts.Logger
	if a.Logger == nil {
		l, closer := logger.New(c.Logger(), os.Stderr)
		a.Logger = l
		a.closers = append(a.closers, closer)
	}

	a.OS, err = platform.Resolve(c.Platform)
	if err != nil {
		return nil, err
	}
	a.WorkDir, err = c.ResolveWorkDir()
	if err != nil {
		return nil, err
	}
	if c.Lock && !opts.SkipLock {
		l, err := lock.Acquire(a.WorkDir)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, closerFunc(l.Release))
	}

	builder, err := terminal.For(a.OS, terminal.Options{WorkDir: a.WorkDir, Terminal: c.Terminal})
	if err != nil {
		return nil, err
	}
	ex := opts.Executor
	if ex == nil {
		env, err := c.Environ()
		if err != nil {
			return nil, err
		}
		ex = launcher.ExecRunner{Dir: a.WorkDir, Env: env}
	}

	sources := make([]Source, 0, len(c.Fragments)+len(opts.Sources))
	for _, f := range c.Fragments {
		sources = append(sources, dynamic.NewFragment(f.Name, f.Text, nil))
	}
	sources = append(sources, opts.Sources...)

	reg := registry.New(ctx, c.Commands, sources, a.Logger)
	a.Manager = manager.New(reg, builder, ex, a.Logger)

	policy, err := manager.ParseBatchPolicy(c.Batch)
	if err != nil {
		return nil, err
	}
	a.Manager.SetBatchPolicy(policy)
	a.Manager.SetProber(probe.For(a.OS))

	dsn, err := c.HistoryDSN()
	if err != nil {
		return nil, err
	}
	if dsn != "" {
		store, err := factory.NewSinkFromDSN(dsn)
		if err != nil {
			return nil, err
		}
		a.History = store
		a.closers = append(a.closers, store)
		a.Manager.SetHistorySinks(store)
	}

	if err := RegisterMetricsDefault(); err != nil {
		a.Logger.Warn("metrics registration failed", "error", err)
	}
	return a, nil
}

// HistoryReader returns the configured history store, or nil.
func (a *App) HistoryReader() history.Reader {
	if a.History == nil {
		return nil
	}
	return a.History
}

// Close releases the lock, the history store and the log file, in that order.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

// NewRouter returns the HTTP control API for m.
func NewRouter(m *Manager, basePath string) *iapi.Router { return iapi.NewRouter(m, basePath) }

// NewHost returns the Echo server used by `devterm serve`.
func NewHost(addr string, r *iapi.Router, metrics http.Handler) *iapi.Host {
	return iapi.NewHost(addr, r, metrics)
}

// Metrics helpers (public facade)

func RegisterMetrics(r prometheus.Registerer) error { return metrics.Register(r) }
func RegisterMetricsDefault() error                 { return metrics.Register(prometheus.DefaultRegisterer) }
func MetricsHandler() http.Handler                  { return metrics.Handler() }

// ServeMetrics starts an HTTP server on addr exposing /metrics using the default registry.
// It returns any immediate listen error; otherwise it runs the server in the caller goroutine.
func ServeMetrics(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv.ListenAndServe()
}
