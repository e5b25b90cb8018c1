package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Resolver fills in a connection parameter the operator did not supply
type Resolver interface {
	// Resolve returns value unchanged when it is non-empty. Otherwise it
	// obtains the value for label, hiding the input when secret is set.
	Resolve(value, label string, secret bool) (string, error)
}

// Terminal asks the operator on an input stream
type Terminal struct {
	in     io.Reader
	out    io.Writer
	reader *bufio.Reader
	// fd is the terminal descriptor of in, or -1 when in is not a terminal
	fd int
}

// NewTerminal returns a Terminal reading from stdin and prompting on stderr
func NewTerminal() *Terminal {
	return NewTerminalWithIO(os.Stdin, os.Stderr)
}

// NewTerminalWithIO returns a Terminal on the given streams. Echo is only
// suppressed when in is an *os.File attached to a terminal.
func NewTerminalWithIO(in io.Reader, out io.Writer) *Terminal {
	fd := -1
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fd = int(f.Fd())
	}
	return &Terminal{
		in:     in,
		out:    out,
		reader: bufio.NewReader(in),
		fd:     fd,
	}
}

func (t *Terminal) Resolve(value, label string, secret bool) (string, error) {
	if value != "" {
		return value, nil
	}
	fmt.Fprint(t.out, label)

	if secret && t.fd >= 0 {
		b, err := term.ReadPassword(t.fd)
		fmt.Fprintln(t.out)
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", strings.TrimSpace(label), err)
		}
		return strings.TrimSpace(string(b)), nil
	}

	line, err := t.reader.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("failed to read %s: %w", strings.TrimSpace(label), err)
	}
	return strings.TrimSpace(line), nil
}

// Static answers from a fixed label to value map and never blocks
type Static map[string]string

func (s Static) Resolve(value, label string, secret bool) (string, error) {
	if value != "" {
		return value, nil
	}
	v, ok := s[label]
	if !ok {
		return "", fmt.Errorf("no value for %q", strings.TrimSpace(label))
	}
	return v, nil
}
