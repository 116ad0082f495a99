// Package registry holds the set of launchable commands: static entries from
// configuration merged with the output of the dynamic sources.
package registry

import (
	"context"
	"log/slog"

	"github.com/loykin/devterm/internal/command"
	"github.com/loykin/devterm/internal/dynamic"
	"github.com/loykin/devterm/internal/ordered"
)

// Registry is rebuilt wholesale on every Refresh and never patched in place.
// It is not safe for concurrent use; the lifecycle manager serialises access.
type Registry struct {
	static  *ordered.Map[command.Entry]
	sources []dynamic.Source
	log     *slog.Logger

	cur *ordered.Map[command.Entry]
}

// New builds a registry and performs the initial refresh.
func New(ctx context.Context, static *ordered.Map[command.Entry], sources []dynamic.Source, log *slog.Logger) *Registry {
	if log == nil {
		log = slog.Default()
	}
	if static == nil {
		static = ordered.New[command.Entry]()
	}
	r := &Registry{static: static.Clone(), sources: append([]dynamic.Source(nil), sources...), log: log}
	r.Refresh(ctx)
	return r
}

// Refresh rebuilds the registry: static entries first in configuration order,
// then dynamic entries. A dynamic entry whose name already exists replaces
// the value but keeps the original position.
func (r *Registry) Refresh(ctx context.Context) {
	next := r.static.Clone()
	next.Merge(dynamic.Evaluate(ctx, r.log, r.sources...))
	r.cur = next
	r.log.Debug("command registry refreshed", "commands", next.Len(), "sources", len(r.sources))
}

// Find returns the raw entry registered under name.
func (r *Registry) Find(name string) (command.Entry, bool) { return r.cur.Get(name) }

// Names returns the registered names in order.
func (r *Registry) Names() []string { return r.cur.Keys() }

// Len returns the number of registered commands.
func (r *Registry) Len() int { return r.cur.Len() }

// Entries returns a copy of the current mapping.
func (r *Registry) Entries() *ordered.Map[command.Entry] { return r.cur.Clone() }
