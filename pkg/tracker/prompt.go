package tracker

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// ErrNonInteractive is returned by a Prompter that cannot ask the operator.
var ErrNonInteractive = errors.New("non-interactive session")

// Prompter asks the operator a yes/no question.
type Prompter interface {
	Confirm(ctx context.Context, question string) (bool, error)
}

// TerminalPrompter reads answers from an input stream. Anything other than
// "y" or "yes" is a no, including end of input.
type TerminalPrompter struct {
	in          *bufio.Reader
	out         io.Writer
	interactive bool
}

// NewTerminalPrompter prompts on out and reads from in, which counts as
// interactive only when it is a terminal.
func NewTerminalPrompter(in *os.File, out io.Writer) *TerminalPrompter {
	return NewPrompter(in, out, term.IsTerminal(int(in.Fd())))
}

// NewPrompter creates a prompter over arbitrary streams.
func NewPrompter(in io.Reader, out io.Writer, interactive bool) *TerminalPrompter {
	return &TerminalPrompter{in: bufio.NewReader(in), out: out, interactive: interactive}
}

func (p *TerminalPrompter) Confirm(ctx context.Context, question string) (bool, error) {
	if !p.interactive {
		return false, ErrNonInteractive
	}

	fmt.Fprintf(p.out, "%s [y/N] ", question)

	type answer struct {
		line string
		err  error
	}
	ch := make(chan answer, 1)
	go func() {
		line, err := p.in.ReadString('\n')
		ch <- answer{line, err}
	}()

	select {
	case <-ctx.Done():
		fmt.Fprintln(p.out)
		return false, ctx.Err()
	case a := <-ch:
		if a.err != nil && !errors.Is(a.err, io.EOF) {
			return false, fmt.Errorf("read answer: %w", a.err)
		}
		switch strings.ToLower(strings.TrimSpace(a.line)) {
		case "y", "yes":
			return true, nil
		}
		return false, nil
	}
}

// declinePrompter is used when no prompter is configured.
type declinePrompter struct{}

func (declinePrompter) Confirm(context.Context, string) (bool, error) {
	return false, ErrNonInteractive
}
