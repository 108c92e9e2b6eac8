package prompt

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scripted(terminal bool, entries ...string) (*Prompter, *bytes.Buffer) {
	var out bytes.Buffer
	i := 0
	return &Prompter{
		out:        &out,
		isTerminal: func(int) bool { return terminal },
		readPassword: func(int) ([]byte, error) {
			if i >= len(entries) {
				return nil, errors.New("EOF")
			}
			i++
			return []byte(entries[i-1]), nil
		},
	}, &out
}

func TestPrompter_Password(t *testing.T) {
	p, out := scripted(true, "secret1")

	pw, err := p.Password("Current password", false)
	require.NoError(t, err)
	assert.Equal(t, "secret1", pw)
	assert.Equal(t, "Current password: \n", out.String())
}

func TestPrompter_PasswordConfirm(t *testing.T) {
	p, out := scripted(true, "secret2", "secret2")

	pw, err := p.Password("New password", true)
	require.NoError(t, err)
	assert.Equal(t, "secret2", pw)
	assert.Contains(t, out.String(), "Confirm new password: ")
}

func TestPrompter_PasswordErrors(t *testing.T) {
	tests := []struct {
		name     string
		terminal bool
		entries  []string
		confirm  bool
		want     error
	}{
		{name: "not a terminal", terminal: false, entries: []string{"x"}, want: ErrNotTerminal},
		{name: "empty", terminal: true, entries: []string{""}, want: ErrEmptyPassword},
		{name: "mismatch", terminal: true, entries: []string{"a", "b"}, confirm: true, want: ErrMismatch},
		{name: "length mismatch", terminal: true, entries: []string{"abc", "ab"}, confirm: true, want: ErrMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, _ := scripted(tt.terminal, tt.entries...)
			_, err := p.Password("Password", tt.confirm)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestPrompter_ReadFailure(t *testing.T) {
	p, _ := scripted(true)
	_, err := p.Password("Password", false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read password")

	p, _ = scripted(true, "only-once")
	_, err = p.Password("Password", true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "confirmation")
}
