package manager

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/loykin/devterm/internal/command"
	"github.com/loykin/devterm/internal/history"
	"github.com/loykin/devterm/internal/launcher"
	"github.com/loykin/devterm/internal/metrics"
	"github.com/loykin/devterm/internal/platform"
	"github.com/loykin/devterm/internal/probe"
	"github.com/loykin/devterm/internal/registry"
	"github.com/loykin/devterm/internal/table"
	"github.com/loykin/devterm/internal/terminal"
)

// Manager starts, stops and restarts named commands in terminal windows.
// Every operation runs to completion under one mutex, so the interactive
// loop and the HTTP API can share a Manager.
type Manager struct {
	mu sync.Mutex

	reg     *registry.Registry
	tbl     *table.Table
	builder terminal.Builder
	exec    launcher.Executor
	log     *slog.Logger

	batch     BatchPolicy
	prober    probe.Prober
	histSinks []history.Sink
	session   string
	now       func() time.Time
}

// New wires a manager. The builder decides the OS family.
func New(reg *registry.Registry, b terminal.Builder, ex launcher.Executor, log *slog.Logger) *Manager {
	if log == nil {
		log = slog.Default()
	}
	return &Manager{
		reg:     reg,
		tbl:     table.New(),
		builder: b,
		exec:    ex,
		log:     log,
		prober:  probe.For(b.OS()),
		session: uuid.NewString(),
		now:     time.Now,
	}
}

// SetBatchPolicy selects how StartAll, StopAll and RestartAll handle failures.
func (m *Manager) SetBatchPolicy(p BatchPolicy) {
	m.mu.Lock()
	m.batch = p
	m.mu.Unlock()
}

// SetHistorySinks configures external history sinks.
// Passing nil or no sinks clears the list.
func (m *Manager) SetHistorySinks(sinks ...history.Sink) {
	m.mu.Lock()
	m.histSinks = append([]history.Sink(nil), sinks...)
	m.mu.Unlock()
}

// SetProber replaces the liveness prober used by Statuses.
func (m *Manager) SetProber(p probe.Prober) {
	m.mu.Lock()
	m.prober = p
	m.mu.Unlock()
}

// Session identifies this manager in history events.
func (m *Manager) Session() string { return m.session }

// OS is the platform the manager renders terminal commands for.
func (m *Manager) OS() platform.OS { return m.builder.OS() }

// Start refreshes the registry and launches name.
func (m *Manager) Start(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refreshLocked(ctx)
	return m.startLocked(ctx, name)
}

// StartAll refreshes once and starts every registered name in order.
func (m *Manager) StartAll(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refreshLocked(ctx)
	return m.batchLocked(ctx, m.reg.Names(), m.startLocked)
}

// Stop terminates the session recorded for name and forgets it.
func (m *Manager) Stop(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stopLocked(ctx, name)
}

// StopAll stops every running name in table order, as of the call.
func (m *Manager) StopAll(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.batchLocked(ctx, m.tbl.Names(), m.stopLocked)
}

// Restart stops name and starts it again. A failed stop skips the start.
func (m *Manager) Restart(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.stopLocked(ctx, name); err != nil {
		return err
	}
	m.refreshLocked(ctx)
	return m.startLocked(ctx, name)
}

// RestartAll is StopAll followed by StartAll. Under BatchAbort a failing
// StopAll skips the start phase.
func (m *Manager) RestartAll(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stopErr := m.batchLocked(ctx, m.tbl.Names(), m.stopLocked)
	if stopErr != nil && m.batch == BatchAbort {
		return stopErr
	}
	m.refreshLocked(ctx)
	startErr := m.batchLocked(ctx, m.reg.Names(), m.startLocked)
	return errors.Join(stopErr, startErr)
}

// Refresh rebuilds the registry from its static and dynamic inputs.
func (m *Manager) Refresh(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refreshLocked(ctx)
}

// Names lists the registered command names in order.
func (m *Manager) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reg.Names()
}

// RunningNames lists the running command names in start order.
func (m *Manager) RunningNames() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tbl.Names()
}

// Running returns a snapshot of the process table.
func (m *Manager) Running() []table.Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tbl.Records()
}

// IsRunning reports whether name has a record.
func (m *Manager) IsRunning(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tbl.Has(name)
}

// Definition resolves the current registry entry for name.
func (m *Manager) Definition(name string) (command.Definition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.reg.Find(name)
	if !ok {
		return command.Definition{}, fmt.Errorf("%w: %q", ErrNotConfigured, name)
	}
	def, err := command.Resolve(e, m.builder.OS())
	if err != nil {
		return command.Definition{}, fmt.Errorf("command %q: %w", name, err)
	}
	return def, nil
}

func (m *Manager) refreshLocked(ctx context.Context) {
	m.reg.Refresh(ctx)
	metrics.IncRefresh()
}

func (m *Manager) batchLocked(ctx context.Context, names []string, op func(context.Context, string) error) error {
	var errs []error
	for _, name := range names {
		if err := op(ctx, name); err != nil {
			if m.batch == BatchAbort {
				return err
			}
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *Manager) startLocked(ctx context.Context, name string) error {
	entry, ok := m.reg.Find(name)
	if !ok {
		return fmt.Errorf("%w: %q", ErrNotConfigured, name)
	}
	if m.tbl.Has(name) {
		return fmt.Errorf("%w: %q", ErrAlreadyRunning, name)
	}
	os := m.builder.OS()
	def, err := command.Resolve(entry, os)
	if err != nil {
		err = fmt.Errorf("command %q: %w", name, err)
		m.recordFailure(ctx, history.EventStartFailed, name, entry.Command, err)
		return err
	}

	// Once sent, a launch runs to completion: the window may already be
	// open, and losing its id would orphan it.
	ctx = context.WithoutCancel(ctx)
	argv := m.builder.Open(name, def.Command, def.Colors)
	m.log.Debug("launching terminal", "name", name, "argv", argv)
	t0 := m.now()
	id, err := launcher.Launch(ctx, m.exec, argv)
	if err != nil {
		err = fmt.Errorf("start %q: %w", name, err)
		m.recordFailure(ctx, history.EventStartFailed, name, def.Command, err)
		return err
	}
	started := m.now()
	m.tbl.Add(table.Record{Name: name, ID: id, StartedAt: started})

	metrics.IncStart(name)
	metrics.ObserveLaunchDuration(name, started.Sub(t0).Seconds())
	metrics.SetRunning(m.tbl.Len())
	m.emit(ctx, history.Event{Type: history.EventStart, OccurredAt: started, Name: name, ID: id, Command: def.Command})
	m.log.Info("command started", "name", name, "id", id, "os", os.String())
	return nil
}

func (m *Manager) stopLocked(ctx context.Context, name string) error {
	rec, ok := m.tbl.Get(name)
	if !ok {
		return fmt.Errorf("%w: %q", ErrNotRunning, name)
	}
	ctx = context.WithoutCancel(ctx)
	argv := m.builder.Kill(rec.ID)
	m.log.Debug("terminating session", "name", name, "id", rec.ID, "argv", argv)
	if err := launcher.Terminate(ctx, m.exec, argv); err != nil {
		err = fmt.Errorf("stop %q: %w", name, err)
		m.recordFailure(ctx, history.EventStopFailed, name, "", err)
		return err
	}
	m.tbl.Remove(name)

	metrics.IncStop(name)
	metrics.SetRunning(m.tbl.Len())
	m.emit(ctx, history.Event{Type: history.EventStop, OccurredAt: m.now(), Name: name, ID: rec.ID})
	m.log.Info("command stopped", "name", name, "id", rec.ID)
	return nil
}

func (m *Manager) recordFailure(ctx context.Context, typ history.EventType, name, cmd string, err error) {
	metrics.IncFailure(name, failureKind(err))
	m.emit(ctx, history.Event{Type: typ, OccurredAt: m.now(), Name: name, Command: cmd, Error: err.Error()})
	m.log.Warn("lifecycle operation failed", "name", name, "event", string(typ), "error", err)
}

// emit fans an event out to the history sinks. Sink failures are logged
// and never change the outcome of the operation.
func (m *Manager) emit(ctx context.Context, e history.Event) {
	if len(m.histSinks) == 0 {
		return
	}
	e.OccurredAt = e.OccurredAt.UTC()
	e.Session = m.session
	e.Platform = m.builder.OS().String()
	for _, s := range m.histSinks {
		if err := s.Send(ctx, e); err != nil {
			m.log.Warn("history sink failed", "name", e.Name, "event", string(e.Type), "error", err)
		}
	}
}
