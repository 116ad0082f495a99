package dynamic

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"text/template"
	"unicode"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// Fragment is a named piece of dynamic-command text. The text is a Go
// text/template that must render a YAML mapping of command name to entry,
// for example:
//
//	{{ range seq 1 3 }}
//	"Worker {{ . }}": php artisan queue:work --name=worker-{{ . }}
//	{{ end }}
//
// Configuration is trusted: templates may read files, the environment and run
// shell commands through the shell func.
type Fragment struct {
	name  string
	text  string
	funcs template.FuncMap
}

// NewFragment returns a fragment source. extra funcs are added to (and may
// replace) the built-in template functions.
func NewFragment(name, text string, extra template.FuncMap) *Fragment {
	return &Fragment{name: name, text: text, funcs: extra}
}

func (f *Fragment) Name() string { return f.name }

// Text returns the raw template text.
func (f *Fragment) Text() string { return f.text }

// Evaluate renders the template and parses the output as YAML. It returns the
// document node; shape checks are left to the caller.
func (f *Fragment) Evaluate(ctx context.Context) (any, error) {
	out, err := f.Render(ctx)
	if err != nil {
		return nil, err
	}
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(out), &doc); err != nil {
		return nil, fmt.Errorf("fragment %s: parse yaml: %w", f.name, err)
	}
	return &doc, nil
}

// Render executes the template and returns the produced text.
func (f *Fragment) Render(ctx context.Context) (string, error) {
	funcs := builtinFuncs(ctx)
	for k, v := range f.funcs {
		funcs[k] = v
	}
	tpl, err := template.New(f.name).Option("missingkey=error").Funcs(funcs).Parse(f.text)
	if err != nil {
		return "", fmt.Errorf("fragment %s: parse: %w", f.name, err)
	}
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, nil); err != nil {
		return "", fmt.Errorf("fragment %s: execute: %w", f.name, err)
	}
	return buf.String(), nil
}

func builtinFuncs(ctx context.Context) template.FuncMap {
	return template.FuncMap{
		"env": os.Getenv,
		"envOr": func(key, def string) string {
			if v, ok := os.LookupEnv(key); ok && v != "" {
				return v
			}
			return def
		},
		"glob":  filepath.Glob,
		"seq":   seq,
		"lower": strings.ToLower,
		"upper": strings.ToUpper,
		"title": title,
		"trim":  strings.TrimSpace,
		"replace": func(old, new, s string) string {
			return strings.ReplaceAll(s, old, new)
		},
		"split": func(sep, s string) []string { return strings.Split(s, sep) },
		"join":  func(sep string, items []string) string { return strings.Join(items, sep) },
		"lines": func(s string) []string {
			var out []string
			for _, l := range strings.Split(s, "\n") {
				if l = strings.TrimSpace(l); l != "" {
					out = append(out, l)
				}
			}
			return out
		},
		"quote": strconv.Quote,
		"base":  filepath.Base,
		"dir":   filepath.Dir,
		"readFile": func(path string) (string, error) {
			b, err := os.ReadFile(filepath.Clean(path))
			return string(b), err
		},
		"shell": func(script string) (string, error) { return shell(ctx, script) },
	}
}

// seq returns the integers from..to inclusive, or to..from when reversed.
func seq(from, to int) []int {
	step := 1
	if to < from {
		step = -1
	}
	out := make([]int, 0, (to-from)*step+1)
	for i := from; ; i += step {
		out = append(out, i)
		if i == to {
			break
		}
	}
	return out
}

func title(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r, n := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[n:]
	}
	return strings.Join(words, " ")
}

func shell(ctx context.Context, script string) (string, error) {
	var cmd *exec.Cmd
	if runtime.GOOS == "windows" {
		// #nosec G204
		cmd = exec.CommandContext(ctx, "cmd", "/C", script)
	} else {
		// #nosec G204
		cmd = exec.CommandContext(ctx, "/bin/sh", "-c", script)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("shell %q: %w: %s", script, err, strings.TrimSpace(stderr.String()))
	}
	return strings.TrimSpace(stdout.String()), nil
}
