// Package launcher executes rendered terminal invocations and recovers the
// session identifier they print.
package launcher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

var (
	// ErrLaunchFailure is returned when a launch invocation fails or prints
	// something other than an integer identifier.
	ErrLaunchFailure = errors.New("launch failed")
	// ErrTerminationFailure is returned when a termination invocation fails.
	ErrTerminationFailure = errors.New("termination failed")
)

// Result is the outcome of running an argv to completion.
type Result struct {
	Succeeded bool
	Stdout    string
	Stderr    string
}

// Executor runs argv as discrete tokens, with no shell splitting of its own,
// and reports how it went.
type Executor interface {
	Run(ctx context.Context, argv []string) Result
}

// ExecutorFunc adapts a function to Executor.
type ExecutorFunc func(ctx context.Context, argv []string) Result

func (f ExecutorFunc) Run(ctx context.Context, argv []string) Result { return f(ctx, argv) }

// ExecRunner runs argv with os/exec.
type ExecRunner struct {
	// Dir is the working directory for spawned invocations; empty inherits.
	Dir string
	// Env overrides the environment; nil inherits.
	Env []string
}

func (r ExecRunner) Run(ctx context.Context, argv []string) Result {
	if len(argv) == 0 {
		return Result{Stderr: "empty command"}
	}
	// #nosec G204 argv is rendered by the terminal builders from trusted config
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = r.Dir
	cmd.Env = r.Env
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	res := Result{Succeeded: err == nil, Stdout: stdout.String(), Stderr: stderr.String()}
	if err != nil && strings.TrimSpace(res.Stderr) == "" {
		res.Stderr = err.Error()
	}
	return res
}

// Launch runs argv and parses its trimmed stdout as the session identifier.
func Launch(ctx context.Context, ex Executor, argv []string) (int, error) {
	res := ex.Run(ctx, argv)
	if !res.Succeeded {
		return 0, fmt.Errorf("%w: %s", ErrLaunchFailure, strings.TrimSpace(res.Stderr))
	}
	out := strings.TrimSpace(res.Stdout)
	id, err := strconv.Atoi(out)
	if err != nil {
		return 0, fmt.Errorf("%w: unexpected identifier %q", ErrLaunchFailure, out)
	}
	return id, nil
}

// Terminate runs a termination argv.
func Terminate(ctx context.Context, ex Executor, argv []string) error {
	res := ex.Run(ctx, argv)
	if !res.Succeeded {
		return fmt.Errorf("%w: %s", ErrTerminationFailure, strings.TrimSpace(res.Stderr))
	}
	return nil
}
