// Package probe answers, on demand, whether a recorded identifier still
// refers to something alive. devterm never polls; the probe runs only when
// a user asks to see the running commands.
package probe

import (
	"context"

	gopsproc "github.com/shirou/gopsutil/v4/process"

	"github.com/loykin/devterm/internal/platform"
)

type State int

const (
	Unknown State = iota
	Alive
	Gone
)

func (s State) String() string {
	switch s {
	case Alive:
		return "alive"
	case Gone:
		return "gone"
	default:
		return "unknown"
	}
}

// Status is the probe result. Process is the executable name when known.
type Status struct {
	State   State
	Process string
}

// Prober inspects one identifier.
type Prober interface {
	Probe(ctx context.Context, id int) Status
}

// Func adapts a function to Prober.
type Func func(ctx context.Context, id int) Status

func (f Func) Probe(ctx context.Context, id int) Status { return f(ctx, id) }

// For returns the prober matching what the OS launcher records: process ids
// on Windows and Linux, Terminal window ids on macOS, which are not
// processes and always probe as Unknown.
func For(os platform.OS) Prober {
	if os == platform.Darwin {
		return Func(func(context.Context, int) Status { return Status{State: Unknown} })
	}
	return PIDProber{}
}

// PIDProber checks process ids with gopsutil.
type PIDProber struct{}

func (PIDProber) Probe(ctx context.Context, id int) Status {
	if id <= 0 {
		return Status{State: Gone}
	}
	ok, err := gopsproc.PidExistsWithContext(ctx, int32(id))
	if err != nil {
		return Status{State: Unknown}
	}
	if !ok {
		return Status{State: Gone}
	}
	st := Status{State: Alive}
	if p, err := gopsproc.NewProcessWithContext(ctx, int32(id)); err == nil {
		if name, err := p.NameWithContext(ctx); err == nil {
			st.Process = name
		}
	}
	return st
}
