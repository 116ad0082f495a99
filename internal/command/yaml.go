package command

import (
	"fmt"

	"github.com/loykin/devterm/internal/ordered"
	"gopkg.in/yaml.v3"
)

// UnmarshalYAML accepts a scalar (plain form) or a mapping with "command"
// and "colors" keys (structured form). Unknown keys are ignored.
func (e *Entry) UnmarshalYAML(n *yaml.Node) error {
	n = deref(n)
	switch n.Kind {
	case yaml.ScalarNode:
		if isNull(n) {
			return fmt.Errorf("%w: empty command at line %d", ErrInvalidConfig, n.Line)
		}
		*e = Plain(n.Value)
		return nil
	case yaml.MappingNode:
		out := Entry{Structured: true}
		for i := 0; i+1 < len(n.Content); i += 2 {
			key, val := n.Content[i].Value, deref(n.Content[i+1])
			switch key {
			case "command":
				if val.Kind != yaml.ScalarNode || isNull(val) {
					return fmt.Errorf("%w: command must be a string at line %d", ErrInvalidConfig, val.Line)
				}
				out.Command = val.Value
				out.HasCommand = true
			case "colors":
				if val.Kind == yaml.ScalarNode && isNull(val) {
					continue
				}
				if val.Kind != yaml.MappingNode {
					return fmt.Errorf("%w: colors must be a mapping at line %d", ErrInvalidConfig, val.Line)
				}
				if err := val.Decode(&out.Colors); err != nil {
					return fmt.Errorf("%w: colors: %v", ErrInvalidConfig, err)
				}
			}
		}
		*e = out
		return nil
	default:
		return fmt.Errorf("%w: unexpected YAML node at line %d", ErrInvalidConfig, n.Line)
	}
}

// DecodeMap decodes a YAML mapping of name -> entry preserving key order.
// A null or empty document yields an empty map.
func DecodeMap(n *yaml.Node) (*ordered.Map[Entry], error) {
	out := ordered.New[Entry]()
	if n == nil {
		return out, nil
	}
	n = deref(n)
	if n.Kind == yaml.DocumentNode {
		if len(n.Content) == 0 {
			return out, nil
		}
		n = deref(n.Content[0])
	}
	if n.Kind == yaml.ScalarNode && isNull(n) {
		return out, nil
	}
	if n.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: expected a mapping of command names at line %d", ErrInvalidConfig, n.Line)
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		name := n.Content[i].Value
		if isNull(deref(n.Content[i+1])) {
			return nil, fmt.Errorf("command %q: %w: empty definition", name, ErrInvalidConfig)
		}
		var e Entry
		if err := n.Content[i+1].Decode(&e); err != nil {
			return nil, fmt.Errorf("command %q: %w", name, err)
		}
		out.Set(name, e)
	}
	return out, nil
}

func deref(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode {
		n = n.Alias
	}
	return n
}

func isNull(n *yaml.Node) bool {
	return n.Kind == yaml.ScalarNode && n.ShortTag() == "!!null"
}
