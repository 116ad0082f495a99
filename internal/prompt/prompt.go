// Package prompt asks the operator to pick one option from a list.
//
// On a terminal the picker is a small Bubble Tea list; when stdin or stdout
// is not a terminal (pipes, CI, tests) it falls back to a numbered list read
// line by line.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/mattn/go-isatty"
)

// ErrAborted is returned when input ends or the operator cancels.
var ErrAborted = errors.New("prompt aborted")

// Chooser asks question and returns one of options.
type Chooser interface {
	Choose(question string, options []string) (string, error)
}

// IsTerminal reports whether f is an interactive terminal.
func IsTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// New picks the TUI when both ends are terminals and the line chooser otherwise.
func New(in, out *os.File) Chooser {
	if IsTerminal(in) && IsTerminal(out) {
		return &TUI{In: in, Out: out}
	}
	return NewLine(in, out)
}

// Line prints numbered options and reads the answer from a line of input.
// The answer may be the option number or its exact text.
type Line struct {
	in  *bufio.Reader
	out io.Writer
}

func NewLine(in io.Reader, out io.Writer) *Line {
	return &Line{in: bufio.NewReader(in), out: out}
}

func (l *Line) Choose(question string, options []string) (string, error) {
	if len(options) == 0 {
		return "", fmt.Errorf("%s: no options", question)
	}
	for {
		_, _ = fmt.Fprintf(l.out, " %s:\n", question)
		for i, o := range options {
			_, _ = fmt.Fprintf(l.out, "  [%d] %s\n", i+1, o)
		}
		_, _ = fmt.Fprint(l.out, " > ")

		line, err := l.in.ReadString('\n')
		answer := strings.TrimSpace(line)
		if answer == "" && err != nil {
			_, _ = fmt.Fprintln(l.out)
			return "", ErrAborted
		}
		if choice, ok := match(answer, options); ok {
			return choice, nil
		}
		_, _ = fmt.Fprintf(l.out, "Value %q is invalid\n", answer)
		if err != nil {
			return "", ErrAborted
		}
	}
}

func match(answer string, options []string) (string, bool) {
	if n, err := strconv.Atoi(answer); err == nil && n >= 1 && n <= len(options) {
		return options[n-1], true
	}
	for _, o := range options {
		if o == answer {
			return o, true
		}
	}
	return "", false
}
