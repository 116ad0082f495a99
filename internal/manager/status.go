package manager

import (
	"context"
	"time"

	"github.com/loykin/devterm/internal/command"
	"github.com/loykin/devterm/internal/probe"
)

// Status describes one registered (or still recorded) command for display.
type Status struct {
	Name       string             `json:"name"`
	Command    string             `json:"command"`
	Definition command.Definition `json:"-"`
	Invalid    string             `json:"invalid,omitempty"`
	Running    bool               `json:"running"`
	ID         int                `json:"id,omitempty"`
	StartedAt  time.Time          `json:"started_at,omitzero"`
	Liveness   string             `json:"liveness,omitempty"`
	Process    string             `json:"process,omitempty"`
}

// Statuses lists every registered command in registry order, followed by
// running records whose name has since left the registry. Running entries
// are probed for liveness on the spot.
func (m *Manager) Statuses(ctx context.Context) []Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	os := m.builder.OS()
	names := m.reg.Names()
	out := make([]Status, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		seen[name] = true
		st := Status{Name: name}
		if e, ok := m.reg.Find(name); ok {
			st.Command = e.Command
			if def, err := command.Resolve(e, os); err != nil {
				st.Invalid = err.Error()
			} else {
				st.Definition = def
			}
		}
		m.fillRunning(ctx, &st)
		out = append(out, st)
	}
	for _, name := range m.tbl.Names() {
		if seen[name] {
			continue
		}
		st := Status{Name: name}
		m.fillRunning(ctx, &st)
		out = append(out, st)
	}
	return out
}

func (m *Manager) fillRunning(ctx context.Context, st *Status) {
	rec, ok := m.tbl.Get(st.Name)
	if !ok {
		return
	}
	st.Running = true
	st.ID = rec.ID
	st.StartedAt = rec.StartedAt
	if m.prober == nil {
		st.Liveness = probe.Unknown.String()
		return
	}
	ps := m.prober.Probe(ctx, rec.ID)
	st.Liveness = ps.State.String()
	st.Process = ps.Process
}
