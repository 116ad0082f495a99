package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/loykin/devterm"
	"github.com/loykin/devterm/internal/prompt"
)

const (
	actionShow       = "show all commands"
	actionStart      = "start command"
	actionStartAll   = "start all commands"
	actionStop       = "stop command"
	actionStopAll    = "stop all commands"
	actionRestart    = "restart command"
	actionRestartAll = "restart all commands"
	actionRefresh    = "refresh commands"
	actionExit       = "exit"

	back = "Back"
)

// menu is the interactive loop run by the root command.
type menu struct {
	mgr    *devterm.Manager
	choose prompt.Chooser
	out    io.Writer
}

// Run starts every command and then serves actions until exit is chosen or
// input ends. Either way everything still running is stopped on the way out.
func (m *menu) Run(ctx context.Context) error {
	m.startAll(ctx)
	for {
		action, err := m.choose.Choose("perform action", m.actions())
		if errors.Is(err, prompt.ErrAborted) {
			action = actionExit
		} else if err != nil {
			m.stopAll(ctx)
			return err
		}

		switch action {
		case actionShow:
			m.show(ctx)
		case actionStart:
			m.mgr.Refresh(ctx)
			if name, ok := m.pick("choose the command name you want to start", m.stopped()); ok {
				m.start(ctx, name)
			}
		case actionStartAll:
			m.startAll(ctx)
		case actionStop:
			running := m.mgr.RunningNames()
			if len(running) == 0 {
				m.errorf("No running commands to stop")
				continue
			}
			if name, ok := m.pick("choose the command you want to stop", running); ok {
				m.stop(ctx, name)
			}
		case actionStopAll:
			m.stopAll(ctx)
		case actionRestart:
			running := m.mgr.RunningNames()
			if len(running) == 0 {
				m.errorf("No running commands to restart")
				continue
			}
			if name, ok := m.pick("choose the command you want to restart", running); ok {
				m.restart(ctx, name)
			}
		case actionRestartAll:
			m.restartAll(ctx)
		case actionRefresh:
			m.mgr.Refresh(ctx)
			m.infof("🔃 %d commands configured", len(m.mgr.Names()))
		case actionExit:
			m.infof("Exiting...")
			m.stopAll(ctx)
			return nil
		}
	}
}

// actions lists what can be done right now. Start actions depend on what is
// stopped; stop and restart are always offered and explain themselves when
// there is nothing to act on.
func (m *menu) actions() []string {
	out := []string{actionShow}
	if len(m.stopped()) > 0 {
		out = append(out, actionStart)
	}
	if len(m.mgr.RunningNames()) == 0 {
		out = append(out, actionStartAll)
	}
	return append(out,
		actionStop, actionStopAll,
		actionRestart, actionRestartAll,
		actionRefresh, actionExit,
	)
}

// stopped returns configured names without a running record.
func (m *menu) stopped() []string {
	var out []string
	for _, n := range m.mgr.Names() {
		if !m.mgr.IsRunning(n) {
			out = append(out, n)
		}
	}
	return out
}

// pick asks for one of names; "Back" or aborted input returns false.
func (m *menu) pick(question string, names []string) (string, bool) {
	if len(names) == 0 {
		return "", false
	}
	opts := append(append([]string(nil), names...), back)
	name, err := m.choose.Choose(question, opts)
	if err != nil || name == back {
		return "", false
	}
	return name, true
}

func (m *menu) start(ctx context.Context, name string) {
	m.infof("🚀 Launching development command: %s...", name)
	if err := m.mgr.Start(ctx, name); err != nil {
		m.errorf("❌ Failed to launch development command '%s': %v", name, err)
		return
	}
	m.infof("✅ Development command '%s' has been launched!", name)
}

func (m *menu) startAll(ctx context.Context) {
	m.infof("🚀 Launching development commands...")
	if err := m.mgr.StartAll(ctx); err != nil {
		m.errorf("❌ Failed to launch development commands: %v", err)
		return
	}
	m.infof("✅ All development commands have been launched!")
}

func (m *menu) stop(ctx context.Context, name string) {
	m.infof("🛑 Stopping development command: %s...", name)
	if err := m.mgr.Stop(ctx, name); err != nil {
		m.errorf("❌ Failed to stop development command '%s': %v", name, err)
		return
	}
	m.infof("✅ Development command '%s' has been stopped!", name)
}

func (m *menu) stopAll(ctx context.Context) {
	m.infof("🛑 Stopping all development commands...")
	if err := m.mgr.StopAll(ctx); err != nil {
		m.errorf("❌ Failed to stop development commands: %v", err)
		return
	}
	m.infof("✅ All development commands have been stopped!")
}

func (m *menu) restart(ctx context.Context, name string) {
	m.infof("🔄 Restarting development command: %s...", name)
	if err := m.mgr.Restart(ctx, name); err != nil {
		m.errorf("❌ Failed to restart development command '%s': %v", name, err)
		return
	}
	m.infof("✅ Development command '%s' has been restarted!", name)
}

func (m *menu) restartAll(ctx context.Context) {
	m.infof("🔄 Restarting all development commands...")
	if err := m.mgr.RestartAll(ctx); err != nil {
		m.errorf("❌ Failed to restart all development commands: %v", err)
		return
	}
	m.infof("✅ All development commands have been restarted!")
}

func (m *menu) show(ctx context.Context) {
	m.mgr.Refresh(ctx)
	_, _ = fmt.Fprintln(m.out, statusTable(m.mgr.Statuses(ctx)))
}

func (m *menu) infof(format string, args ...any) {
	_, _ = fmt.Fprintln(m.out, fmt.Sprintf(format, args...))
}

func (m *menu) errorf(format string, args ...any) {
	_, _ = fmt.Fprintln(m.out, errorStyle.Render(fmt.Sprintf(format, args...)))
}

var (
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

// statusTable renders one row per command: state, id, liveness and command.
func statusTable(sts []devterm.Status) string {
	rows := make([][]string, 0, len(sts))
	for _, st := range sts {
		state, id, since, live := "stopped", "-", "-", "-"
		if st.Running {
			state = "running"
			id = strconv.Itoa(st.ID)
			since = st.StartedAt.Format(time.TimeOnly)
			live = st.Liveness
			if st.Process != "" {
				live += " (" + st.Process + ")"
			}
		}
		cmd := st.Command
		if st.Invalid != "" {
			cmd = "invalid: " + st.Invalid
		}
		rows = append(rows, []string{st.Name, state, id, since, live, cmd})
	}
	return newTable("NAME", "STATE", "ID", "SINCE", "LIVENESS", "COMMAND").Rows(rows...).String()
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(headers...)
}
