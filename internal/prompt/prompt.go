// Package prompt asks the user for arguments that were not given on the command line.
package prompt

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"
)

var (
	// ErrNotInteractive is returned when stdin or stdout is not a terminal.
	ErrNotInteractive = errors.New("interactive prompt requires a terminal")
	// ErrCancelled is returned when the user aborts a prompt.
	ErrCancelled = errors.New("prompt cancelled")
)

// Prompter resolves missing arguments.
type Prompter interface {
	Input(question, placeholder string, validate func(string) error) (string, error)
	Select(question string, options []string) (string, error)
}

// Terminal prompts on the process terminal.
type Terminal struct {
	in  *os.File
	out *os.File
}

func NewTerminal() *Terminal {
	return &Terminal{in: os.Stdin, out: os.Stdout}
}

func (t *Terminal) interactive() bool {
	return term.IsTerminal(int(t.in.Fd())) && term.IsTerminal(int(t.out.Fd()))
}

// Input asks for a single line of text.
func (t *Terminal) Input(question, placeholder string, validate func(string) error) (string, error) {
	if !t.interactive() {
		return "", ErrNotInteractive
	}
	final, err := tea.NewProgram(newInputModel(question, placeholder, validate), tea.WithInput(t.in), tea.WithOutput(t.out)).Run()
	if err != nil {
		return "", fmt.Errorf("run prompt: %w", err)
	}
	m := final.(inputModel)
	if m.cancelled {
		return "", ErrCancelled
	}
	return m.value, nil
}

// Select asks the user to pick one of options.
func (t *Terminal) Select(question string, options []string) (string, error) {
	if len(options) == 0 {
		return "", errors.New("nothing to select")
	}
	if !t.interactive() {
		return "", ErrNotInteractive
	}
	final, err := tea.NewProgram(newSelectModel(question, options), tea.WithInput(t.in), tea.WithOutput(t.out)).Run()
	if err != nil {
		return "", fmt.Errorf("run prompt: %w", err)
	}
	m := final.(selectModel)
	if m.cancelled {
		return "", ErrCancelled
	}
	return m.chosen, nil
}

//
// Text input
//

type inputModel struct {
	question  string
	input     textinput.Model
	validate  func(string) error
	err       error
	value     string
	done      bool
	cancelled bool
}

func newInputModel(question, placeholder string, validate func(string) error) inputModel {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.Focus()
	return inputModel{question: question, input: ti, validate: validate}
}

func (m inputModel) Init() tea.Cmd { return textinput.Blink }

func (m inputModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.cancelled = true
			return m, tea.Quit
		case tea.KeyEnter:
			v := strings.TrimSpace(m.input.Value())
			if v == "" {
				v = m.input.Placeholder
			}
			if m.validate != nil {
				if err := m.validate(v); err != nil {
					m.err = err
					return m, nil
				}
			}
			m.value = v
			m.done = true
			return m, tea.Quit
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.err = nil
	return m, cmd
}

func (m inputModel) View() string {
	if m.done {
		return fmt.Sprintf("? %s %s\n", m.question, m.value)
	}
	if m.cancelled {
		return ""
	}
	s := fmt.Sprintf("? %s %s\n", m.question, m.input.View())
	if m.err != nil {
		s += fmt.Sprintf(">> %v\n", m.err)
	}
	return s
}

//
// List select
//

type selectModel struct {
	question  string
	options   []string
	cursor    int
	chosen    string
	cancelled bool
}

func newSelectModel(question string, options []string) selectModel {
	return selectModel{question: question, options: options}
}

func (m selectModel) Init() tea.Cmd { return nil }

func (m selectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		m.cancelled = true
		return m, tea.Quit
	case tea.KeyUp:
		m.up()
	case tea.KeyDown, tea.KeyTab:
		m.down()
	case tea.KeyEnter:
		m.chosen = m.options[m.cursor]
		return m, tea.Quit
	case tea.KeyRunes:
		switch string(key.Runes) {
		case "k":
			m.up()
		case "j":
			m.down()
		case "q":
			m.cancelled = true
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m *selectModel) up() {
	if m.cursor > 0 {
		m.cursor--
	} else {
		m.cursor = len(m.options) - 1
	}
}

func (m *selectModel) down() {
	if m.cursor < len(m.options)-1 {
		m.cursor++
	} else {
		m.cursor = 0
	}
}

func (m selectModel) View() string {
	if m.chosen != "" {
		return fmt.Sprintf("? %s %s\n", m.question, m.chosen)
	}
	if m.cancelled {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "? %s\n", m.question)
	for i, opt := range m.options {
		cursor := "  "
		if i == m.cursor {
			cursor = "❯ "
		}
		fmt.Fprintf(&b, "%s%s\n", cursor, opt)
	}
	return b.String()
}
