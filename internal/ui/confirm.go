package ui

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Prompter asks yes/no questions on a terminal.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer
	// AssumeYes answers every question with yes without reading input.
	AssumeYes bool
}

// NewPrompter reads answers from in and writes questions to out.
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewReader(in), out: out}
}

// StdPrompter prompts on stdin and stderr.
func StdPrompter() *Prompter { return NewPrompter(os.Stdin, os.Stderr) }

// Confirm asks prompt and reports whether the answer was yes.
func (p *Prompter) Confirm(prompt string) bool {
	return p.ask(StyleWarning.Render(prompt))
}

// ConfirmDanger is Confirm styled for destructive actions.
func (p *Prompter) ConfirmDanger(prompt string) bool {
	return p.ask(StyleError.Render("⚠ " + prompt))
}

func (p *Prompter) ask(styled string) bool {
	if p.AssumeYes {
		fmt.Fprintf(p.out, "%s [y/N]: y\n", styled)
		return true
	}
	fmt.Fprintf(p.out, "%s [y/N]: ", styled)
	line, _ := p.in.ReadString('\n')
	line = strings.TrimSpace(strings.ToLower(line))
	return line == "y" || line == "yes"
}
