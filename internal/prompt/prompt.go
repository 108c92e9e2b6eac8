// Package prompt reads secrets from the controlling terminal without echo.
package prompt

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

var (
	// ErrNotTerminal is returned when input is not an interactive terminal
	ErrNotTerminal = errors.New("stdin is not a terminal; cannot securely read password")
	// ErrEmptyPassword is returned when the user enters nothing
	ErrEmptyPassword = errors.New("empty password is not allowed")
	// ErrMismatch is returned when the confirmation differs from the first entry
	ErrMismatch = errors.New("passwords do not match")
)

// Prompter asks for passwords on a terminal
type Prompter struct {
	fd  int
	out io.Writer

	isTerminal   func(fd int) bool
	readPassword func(fd int) ([]byte, error)
}

// New creates a Prompter reading from stdin and writing prompts to stderr,
// so prompts never mix with the progress output on stdout.
func New() *Prompter {
	return &Prompter{
		fd:           int(os.Stdin.Fd()),
		out:          os.Stderr,
		isTerminal:   term.IsTerminal,
		readPassword: term.ReadPassword,
	}
}

// Password prints label and reads one non-empty password.
// With confirm set the password is asked twice and both entries must match.
func (p *Prompter) Password(label string, confirm bool) (string, error) {
	if !p.isTerminal(p.fd) {
		return "", ErrNotTerminal
	}

	first, err := p.read(label)
	if err != nil {
		return "", err
	}
	defer zeroize(first)

	if len(first) == 0 {
		return "", ErrEmptyPassword
	}

	if confirm {
		second, err := p.read("Confirm " + lowerFirst(label))
		if err != nil {
			return "", fmt.Errorf("failed to read password confirmation: %w", err)
		}
		defer zeroize(second)

		if subtle.ConstantTimeCompare(first, second) != 1 {
			return "", ErrMismatch
		}
	}

	return string(first), nil
}

func (p *Prompter) read(label string) ([]byte, error) {
	fmt.Fprintf(p.out, "%s: ", label)
	pw, err := p.readPassword(p.fd)
	fmt.Fprintln(p.out)
	if err != nil {
		return nil, fmt.Errorf("failed to read password: %w", err)
	}
	return pw, nil
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	b := []byte(s)
	if b[0] >= 'A' && b[0] <= 'Z' {
		b[0] += 'a' - 'A'
	}
	return string(b)
}

func zeroize(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
