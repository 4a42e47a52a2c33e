// Package console renders a note run in the terminal: notices on one writer,
// the live Markdown on another.
package console

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

var (
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	headingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
)

// Notifier implements generator.Notifier for a terminal.
type Notifier struct {
	out     io.Writer
	notices io.Writer
	// started 记录是否已输出过标题，用于在小节之间补空行。
	started bool
}

// New 正文写到 out（通常是 stdout），提示写到 notices（通常是 stderr）。
func New(out, notices io.Writer) *Notifier {
	return &Notifier{out: out, notices: notices}
}

func (n *Notifier) Info(msg string) {
	fmt.Fprintln(n.notices, infoStyle.Render("ℹ "+msg))
}

func (n *Notifier) Success(msg string) {
	n.endSection()
	fmt.Fprintln(n.notices, successStyle.Render("✔ "+msg))
}

func (n *Notifier) Error(msg string, _ error) {
	fmt.Fprintln(n.notices, errorStyle.Render("✖ "+msg))
}

func (n *Notifier) Heading(line string) {
	n.endSection()
	fmt.Fprintln(n.out, headingStyle.Render(line))
	fmt.Fprintln(n.out)
	n.started = true
}

func (n *Notifier) Fragment(text string) {
	fmt.Fprint(n.out, text)
}

func (n *Notifier) endSection() {
	if n.started {
		fmt.Fprint(n.out, "\n\n")
		n.started = false
	}
}
