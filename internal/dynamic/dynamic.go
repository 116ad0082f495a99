// Package dynamic evaluates dynamic command sources. Every source is
// evaluated in isolation: a source that fails, panics or yields anything other
// than a non-empty mapping of command entries contributes nothing, and never
// prevents its siblings from contributing.
package dynamic

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/loykin/devterm/internal/command"
	"github.com/loykin/devterm/internal/ordered"
	"gopkg.in/yaml.v3"
)

// Source produces a value that is expected to be a mapping of command name to
// command entry. Recognised shapes are *ordered.Map[command.Entry],
// map[string]command.Entry, map[string]string and *yaml.Node.
type Source interface {
	Name() string
	Evaluate(ctx context.Context) (any, error)
}

type funcSource struct {
	name string
	fn   func(ctx context.Context) (any, error)
}

func (f funcSource) Name() string                             { return f.name }
func (f funcSource) Evaluate(ctx context.Context) (any, error) { return f.fn(ctx) }

// Func registers a Go function as a named source.
func Func(name string, fn func(ctx context.Context) (any, error)) Source {
	return funcSource{name: name, fn: fn}
}

// Evaluate runs every source in order and merges the surviving mappings.
// Later sources override earlier ones on key collision; an overridden key
// keeps the position where it first appeared.
func Evaluate(ctx context.Context, log *slog.Logger, sources ...Source) *ordered.Map[command.Entry] {
	if log == nil {
		log = slog.Default()
	}
	out := ordered.New[command.Entry]()
	for _, src := range sources {
		entries, err := evalOne(ctx, src)
		if err != nil {
			log.Debug("dynamic source skipped", "source", src.Name(), "error", err)
			continue
		}
		out.Merge(entries)
	}
	return out
}

func evalOne(ctx context.Context, src Source) (entries *ordered.Map[command.Entry], err error) {
	defer func() {
		if r := recover(); r != nil {
			entries = nil
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	v, err := src.Evaluate(ctx)
	if err != nil {
		return nil, err
	}
	entries, err = asEntries(v)
	if err != nil {
		return nil, err
	}
	if entries.Len() == 0 {
		return nil, fmt.Errorf("empty mapping")
	}
	return entries, nil
}

func asEntries(v any) (*ordered.Map[command.Entry], error) {
	switch t := v.(type) {
	case *ordered.Map[command.Entry]:
		if t == nil {
			return nil, fmt.Errorf("nil mapping")
		}
		return t, nil
	case map[string]command.Entry:
		out := ordered.New[command.Entry]()
		for _, k := range sortedKeys(t) {
			out.Set(k, t[k])
		}
		return out, nil
	case map[string]string:
		out := ordered.New[command.Entry]()
		for _, k := range sortedKeys(t) {
			out.Set(k, command.Plain(t[k]))
		}
		return out, nil
	case map[string]any:
		// decoded JSON or YAML; values go through the same entry rules as
		// a rendered fragment
		var n yaml.Node
		if err := n.Encode(t); err != nil {
			return nil, err
		}
		return asEntries(&n)
	case *yaml.Node:
		if t == nil {
			return nil, fmt.Errorf("nil document")
		}
		n := t
		if n.Kind == yaml.DocumentNode {
			if len(n.Content) == 0 {
				return nil, fmt.Errorf("empty document")
			}
			n = n.Content[0]
		}
		if n.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("result is not a mapping")
		}
		return command.DecodeMap(n)
	default:
		return nil, fmt.Errorf("result of type %T is not a mapping", v)
	}
}

// Go maps are unordered; sort so refreshes are stable.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
