// Package ui renders command output: status lines, labels, spinners and group records.
//
// Styling is semantic (Success, Error, Info, Warning). With NO_COLOR set, or
// when the writer is not a terminal, output carries no ANSI codes.
package ui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

const (
	symbolSuccess = "✔"
	symbolError   = "✖"
	symbolInfo    = "ℹ"
	symbolWarning = "⚠"
)

// Printer writes styled lines to one writer.
type Printer struct {
	out io.Writer

	bold    lipgloss.Style
	command lipgloss.Style
	path    lipgloss.Style
	success lipgloss.Style
	fail    lipgloss.Style
	info    lipgloss.Style
	warning lipgloss.Style
}

// NewPrinter detects the color profile of out. noColor forces plain output.
func NewPrinter(out io.Writer, noColor bool) *Printer {
	r := lipgloss.NewRenderer(out)
	if noColor || termenv.EnvNoColor() {
		r.SetColorProfile(termenv.Ascii)
	}
	return &Printer{
		out:     out,
		bold:    r.NewStyle().Bold(true),
		command: r.NewStyle().Foreground(lipgloss.Color("6")),
		path:    r.NewStyle().Foreground(lipgloss.Color("2")),
		success: r.NewStyle().Foreground(lipgloss.Color("2")),
		fail:    r.NewStyle().Foreground(lipgloss.Color("1")),
		info:    r.NewStyle().Foreground(lipgloss.Color("4")),
		warning: r.NewStyle().Foreground(lipgloss.Color("3")),
	}
}

func (p *Printer) Bold(s string) string    { return p.bold.Render(s) }
func (p *Printer) Command(s string) string { return p.command.Render(s) }
func (p *Printer) Path(s string) string    { return p.path.Render(s) }

// Success prints a status line prefixed by a check mark.
func (p *Printer) Success(format string, a ...any) {
	p.status(p.success.Render(symbolSuccess), format, a...)
}

// Error prints "error: ..." prefixed by a cross.
func (p *Printer) Error(format string, a ...any) {
	p.status(p.fail.Render(symbolError), "error: "+format, a...)
}

// Info prints "info: ...".
func (p *Printer) Info(format string, a ...any) {
	p.status(p.info.Render(symbolInfo), "info: "+format, a...)
}

// Warning prints "warning: ...".
func (p *Printer) Warning(format string, a ...any) {
	p.status(p.warning.Render(symbolWarning), "warning: "+format, a...)
}

func (p *Printer) status(symbol, format string, a ...any) {
	fmt.Fprintf(p.out, "\n %s %s\n\n", symbol, fmt.Sprintf(format, a...))
}
