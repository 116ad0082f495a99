package prompt

import (
	"fmt"
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	purple  = lipgloss.Color("#9D61FF")
	dimGray = lipgloss.Color("#9CA3AF")
	white   = lipgloss.Color("#E5E7EB")

	questionStyle = lipgloss.NewStyle().Bold(true).Foreground(white)
	selectedStyle = lipgloss.NewStyle().Foreground(purple).Bold(true)
	normalStyle   = lipgloss.NewStyle().Foreground(white)
	dimStyle      = lipgloss.NewStyle().Foreground(dimGray)
)

// TUI is an arrow-key list picker.
type TUI struct {
	In  io.Reader
	Out io.Writer
}

func (t *TUI) Choose(question string, options []string) (string, error) {
	if len(options) == 0 {
		return "", fmt.Errorf("%s: no options", question)
	}
	p := tea.NewProgram(newPickModel(question, options), tea.WithInput(t.In), tea.WithOutput(t.Out))
	final, err := p.Run()
	if err != nil {
		return "", err
	}
	m := final.(pickModel)
	if m.aborted {
		return "", ErrAborted
	}
	return m.options[m.cursor], nil
}

type pickModel struct {
	question string
	options  []string
	cursor   int
	done     bool
	aborted  bool
}

func newPickModel(question string, options []string) pickModel {
	return pickModel{question: question, options: options}
}

func (m pickModel) Init() tea.Cmd { return nil }

func (m pickModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch s := key.String(); s {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.options)-1 {
			m.cursor++
		}
	case "home", "g":
		m.cursor = 0
	case "end", "G":
		m.cursor = len(m.options) - 1
	case "enter":
		m.done = true
		return m, tea.Quit
	case "ctrl+c", "esc", "q":
		m.aborted = true
		return m, tea.Quit
	default:
		// 1-9 jump straight to an option
		if len(s) == 1 && s[0] >= '1' && s[0] <= '9' {
			if i := int(s[0] - '1'); i < len(m.options) {
				m.cursor = i
			}
		}
	}
	return m, nil
}

func (m pickModel) View() string {
	var b strings.Builder
	if m.done {
		b.WriteString(questionStyle.Render(m.question) + " " + selectedStyle.Render(m.options[m.cursor]) + "\n")
		return b.String()
	}
	if m.aborted {
		return ""
	}
	b.WriteString(questionStyle.Render(m.question) + "\n")
	for i, o := range m.options {
		if i == m.cursor {
			b.WriteString(selectedStyle.Render("> "+o) + "\n")
		} else {
			b.WriteString(normalStyle.Render("  "+o) + "\n")
		}
	}
	b.WriteString(dimStyle.Render("↑/↓ move · enter select · esc cancel") + "\n")
	return b.String()
}
