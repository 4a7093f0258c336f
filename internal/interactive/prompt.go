// Package interactive provides the confirmation prompt for destructive
// commands.
package interactive

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Prompter asks yes/no questions on the configured streams.
type Prompter struct {
	in      io.Reader
	out     io.Writer
	scanner *bufio.Scanner
}

// NewPrompter creates a prompter on stdin/stdout.
func NewPrompter() *Prompter {
	return NewPrompterWithIO(os.Stdin, os.Stdout)
}

// NewPrompterWithIO creates a prompter with custom streams for testing.
func NewPrompterWithIO(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{
		in:      in,
		out:     out,
		scanner: bufio.NewScanner(in),
	}
}

// IsTerminal reports whether stdin is a TTY.
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// Confirm asks a yes/no question and returns true only on an explicit yes.
// EOF, an empty line, and anything other than y/yes all decline.
func (p *Prompter) Confirm(format string, args ...any) bool {
	_, _ = fmt.Fprintf(p.out, format, args...)
	_, _ = fmt.Fprint(p.out, " [y/N] ")

	if !p.scanner.Scan() {
		return false
	}
	input := strings.ToLower(strings.TrimSpace(p.scanner.Text()))
	return input == "y" || input == "yes"
}
