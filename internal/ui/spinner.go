package ui

import (
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"
)

// Spinner shows progress on a terminal while a blocking call runs.
type Spinner struct {
	prog *tea.Program
	done chan struct{}
	once sync.Once
}

type stopMsg struct{}

type spinnerModel struct {
	spin     spinner.Model
	text     string
	quitting bool
}

func (m spinnerModel) Init() tea.Cmd { return m.spin.Tick }

func (m spinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case stopMsg:
		m.quitting = true
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m spinnerModel) View() string {
	if m.quitting {
		return ""
	}
	return m.spin.View() + " " + m.text
}

// StartSpinner renders text with a spinner on out. It is a no-op unless out is a terminal.
func StartSpinner(out io.Writer, text string) *Spinner {
	f, ok := out.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return &Spinner{}
	}

	m := spinnerModel{
		spin: spinner.New(spinner.WithSpinner(spinner.Dot)),
		text: text,
	}
	p := tea.NewProgram(m,
		tea.WithOutput(out),
		tea.WithInput(nil),
		tea.WithoutSignalHandler(),
	)
	s := &Spinner{prog: p, done: make(chan struct{})}
	go func() {
		defer close(s.done)
		_, _ = p.Run()
	}()
	return s
}

// Stop clears the spinner line and waits for the renderer to exit. Safe to call more than once.
func (s *Spinner) Stop() {
	if s == nil || s.prog == nil {
		return
	}
	s.once.Do(func() {
		s.prog.Send(stopMsg{})
		<-s.done
	})
}
