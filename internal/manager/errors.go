package manager

import (
	"errors"
	"fmt"
	"strings"

	"github.com/loykin/devterm/internal/command"
	"github.com/loykin/devterm/internal/launcher"
	"github.com/loykin/devterm/internal/platform"
)

var (
	ErrNotConfigured  = errors.New("command is not configured")
	ErrAlreadyRunning = errors.New("command is already running")
	ErrNotRunning     = errors.New("command is not running")

	// Re-exported so callers only need this package to classify failures.
	ErrInvalidConfig       = command.ErrInvalidConfig
	ErrUnsupportedPlatform = platform.ErrUnsupportedPlatform
	ErrLaunchFailure       = launcher.ErrLaunchFailure
	ErrTerminationFailure  = launcher.ErrTerminationFailure
)

// BatchPolicy decides what the "all" operations do when one item fails.
type BatchPolicy int

const (
	// BatchAbort returns the first failure; items already processed stay
	// as they are and the rest are not attempted.
	BatchAbort BatchPolicy = iota
	// BatchContinue attempts every item and returns the failures joined.
	BatchContinue
)

func (p BatchPolicy) String() string {
	if p == BatchContinue {
		return "continue"
	}
	return "abort"
}

// ParseBatchPolicy accepts "abort" (or empty) and "continue".
func ParseBatchPolicy(s string) (BatchPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "abort":
		return BatchAbort, nil
	case "continue":
		return BatchContinue, nil
	default:
		return BatchAbort, fmt.Errorf("%w: unknown batch policy %q", ErrInvalidConfig, s)
	}
}

// failureKind labels a failed operation for metrics.
func failureKind(err error) string {
	switch {
	case errors.Is(err, ErrLaunchFailure):
		return "launch"
	case errors.Is(err, ErrTerminationFailure):
		return "terminate"
	case errors.Is(err, ErrInvalidConfig):
		return "config"
	default:
		return "other"
	}
}
