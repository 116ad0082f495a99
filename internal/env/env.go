// Package env composes the environment handed to launched terminals.
package env

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// ErrMalformed is returned for a KEY=VALUE entry without a key.
var ErrMalformed = errors.New("malformed environment entry")

type Var map[string]string

// Env is a layered environment: an optional OS base, then variables set in
// order, later ones winning.
type Env struct {
	Var  Var
	base Var
}

func New() *Env {
	return &Env{Var: make(Var)}
}

// FromOS uses the current process environment as the base layer.
func (e *Env) FromOS() {
	base := make(Var)
	for _, kv := range os.Environ() {
		if k, v, ok := Split(kv); ok {
			base[k] = v
		}
	}
	e.base = base
}

func (e *Env) Set(k, v string) {
	if e.Var == nil {
		e.Var = make(Var)
	}
	e.Var[k] = v
}

// SetPair sets a KEY=VALUE entry.
func (e *Env) SetPair(kv string) error {
	k, v, ok := Split(kv)
	if !ok {
		return fmt.Errorf("%w: %q is not KEY=VALUE", ErrMalformed, kv)
	}
	e.Set(k, v)
	return nil
}

// Load sets every variable of a .env file.
func (e *Env) Load(path string) error {
	vars, err := ParseFile(path)
	if err != nil {
		return err
	}
	for k, v := range vars {
		e.Set(k, v)
	}
	return nil
}

var ref = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// List returns the composed environment as sorted KEY=VALUE pairs. ${VAR}
// references in values are expanded once against the composed map; unknown
// references are left as written.
func (e *Env) List() []string {
	m := make(Var, len(e.base)+len(e.Var))
	for k, v := range e.base {
		m[k] = v
	}
	for k, v := range e.Var {
		m[k] = v
	}
	out := make([]string, 0, len(m))
	for k, v := range m {
		out = append(out, k+"="+expand(v, m))
	}
	sort.Strings(out)
	return out
}

func expand(s string, m Var) string {
	return ref.ReplaceAllStringFunc(s, func(match string) string {
		if v, ok := m[match[2:len(match)-1]]; ok {
			return v
		}
		return match
	})
}

// Split cuts KEY=VALUE. Entries without '=' or with an empty key are rejected.
func Split(kv string) (string, string, bool) {
	k, v, ok := strings.Cut(kv, "=")
	if !ok || k == "" {
		return "", "", false
	}
	return k, v, true
}

// ParseFile reads a .env file: KEY=VALUE lines, # comments, an optional
// "export " prefix and matching surrounding quotes on the value.
func ParseFile(path string) (Var, error) {
	clean := filepath.Clean(path)
	b, err := os.ReadFile(clean)
	if err != nil {
		return nil, fmt.Errorf("env file %s: %w", clean, err)
	}
	m := make(Var)
	for _, line := range strings.Split(string(b), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")
		k, v, ok := strings.Cut(line, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			continue
		}
		m[k] = unquote(strings.TrimSpace(v))
	}
	return m, nil
}

func unquote(v string) string {
	if len(v) >= 2 && (v[0] == '"' || v[0] == '\'') && v[len(v)-1] == v[0] {
		return v[1 : len(v)-1]
	}
	return v
}
