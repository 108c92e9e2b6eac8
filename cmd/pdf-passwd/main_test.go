package main

import (
	"bytes"
	"context"
	"errors"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/pdf-passwd/internal/config"
	"github.com/a3tai/pdf-passwd/internal/pdf/pdftest"
)

const (
	testVersion = "1.2.3"
	devVersion  = "dev"
)

// fakePrompter answers prompts from a fixed list
type fakePrompter struct {
	answers []string
	labels  []string
	err     error
}

func (f *fakePrompter) Password(label string, _ bool) (string, error) {
	f.labels = append(f.labels, label)
	if f.err != nil {
		return "", f.err
	}
	if len(f.answers) == 0 {
		return "", errors.New("unexpected prompt")
	}
	pw := f.answers[0]
	f.answers = f.answers[1:]
	return pw, nil
}

func restoreLogger(t *testing.T) {
	t.Helper()
	out, flags := log.Writer(), log.Flags()
	t.Cleanup(func() {
		log.SetOutput(out)
		log.SetFlags(flags)
	})
}

func TestPrintVersion(t *testing.T) {
	oldVersion, oldBuildTime, oldGitCommit := version, buildTime, gitCommit
	version, buildTime, gitCommit = testVersion, "2023-12-01_10:30:00", "abc123"
	defer func() {
		version, buildTime, gitCommit = oldVersion, oldBuildTime, oldGitCommit
	}()

	var buf bytes.Buffer
	printVersion(&buf)

	output := buf.String()
	for _, want := range []string{
		"PDF Password Tool",
		"Version: " + testVersion,
		"Build Time: 2023-12-01_10:30:00",
		"Git Commit: abc123",
		"Built with: go",
	} {
		assert.Contains(t, output, want)
	}
}

func TestRun_Version(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"--version"}, &stdout, &stderr, &fakePrompter{})

	assert.Equal(t, exitOK, code)
	assert.Contains(t, stdout.String(), "Version: "+devVersion)
}

func TestRun_Help(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"remove", "--help"}, &stdout, &stderr, &fakePrompter{})

	assert.Equal(t, exitOK, code)
	assert.Contains(t, stderr.String(), "--input-dir")
}

func TestRun_UsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"no command", nil},
		{"unknown command", []string{"frobnicate"}},
		{"missing output", []string{"remove", "-i", "in", "-p", "x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			code := run(context.Background(), tt.args, &stdout, &stderr, &fakePrompter{})

			assert.Equal(t, exitUsage, code)
			assert.Contains(t, stderr.String(), "Error:")
		})
	}
}

func TestRun_InvalidInputDirectory(t *testing.T) {
	restoreLogger(t)
	root := t.TempDir()
	output := filepath.Join(root, "out")

	var stdout, stderr bytes.Buffer
	code := run(context.Background(),
		[]string{"remove", "-i", filepath.Join(root, "missing"), "-o", output, "-p", "x"},
		&stdout, &stderr, &fakePrompter{})

	assert.Equal(t, exitUsage, code)
	assert.Contains(t, stderr.String(), "is not a valid directory")
	assert.NoDirExists(t, output)
}

func TestRun_ChangeWithPrompts(t *testing.T) {
	restoreLogger(t)
	root := t.TempDir()
	input := filepath.Join(root, "docs")
	output := filepath.Join(root, "out")
	pdftest.WriteFile(t, input, "x.pdf", pdftest.Encrypted(t, 2, "secret1"))
	pdftest.WriteFile(t, input, "sub/y.pdf", pdftest.Document(1))

	prompter := &fakePrompter{answers: []string{"secret1", "secret2"}}
	var stdout, stderr bytes.Buffer
	code := run(context.Background(),
		[]string{"change", "-i", input, "-o", output, "--quiet"},
		&stdout, &stderr, prompter)

	require.Equal(t, exitOK, code, "stderr: %s", stderr.String())
	assert.Len(t, prompter.labels, 2)
	assert.Contains(t, stdout.String(), "Found 2 PDF files")
	assert.Contains(t, stdout.String(), "All files have been processed successfully!")

	assert.True(t, pdftest.IsEncrypted(t, filepath.Join(output, "x.pdf"), "secret2"))
	assert.False(t, pdftest.IsEncrypted(t, filepath.Join(output, "sub", "y.pdf"), ""))
}

func TestRun_RemoveWrongPassword(t *testing.T) {
	restoreLogger(t)
	root := t.TempDir()
	input := filepath.Join(root, "docs")
	output := filepath.Join(root, "out")
	pdftest.WriteFile(t, input, "a.pdf", pdftest.Encrypted(t, 1, "secret1"))
	pdftest.WriteFile(t, input, "b.pdf", pdftest.Encrypted(t, 1, "secret1"))

	var stdout, stderr bytes.Buffer
	code := run(context.Background(),
		[]string{"remove", "-i", input, "-o", output, "-p", "wrongpass", "--quiet"},
		&stdout, &stderr, &fakePrompter{})

	// per-file skips are not a failure of the run
	assert.Equal(t, exitOK, code)
	assert.Equal(t, 2, strings.Count(stderr.String(), "Incorrect password"))
	assert.Contains(t, stdout.String(), "Finished with 2 skipped file(s).")

	entries, err := os.ReadDir(output)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRun_PromptFailure(t *testing.T) {
	restoreLogger(t)
	root := t.TempDir()

	var stdout, stderr bytes.Buffer
	code := run(context.Background(),
		[]string{"remove", "-i", root, "-o", filepath.Join(root, "out")},
		&stdout, &stderr, &fakePrompter{err: errors.New("stdin is not a terminal")})

	assert.Equal(t, exitUsage, code)
	assert.Contains(t, stderr.String(), "stdin is not a terminal")
}

func TestRun_Cancelled(t *testing.T) {
	restoreLogger(t)
	root := t.TempDir()
	input := filepath.Join(root, "docs")
	pdftest.WriteFile(t, input, "a.pdf", pdftest.Document(1))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var stdout, stderr bytes.Buffer
	code := run(ctx,
		[]string{"remove", "-i", input, "-o", filepath.Join(root, "out"), "-p", "x", "--quiet"},
		&stdout, &stderr, &fakePrompter{})

	assert.Equal(t, exitFailed, code)
	assert.Contains(t, stderr.String(), "context canceled")
}

func TestCollectPasswords(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Command = config.CommandRemove

	prompter := &fakePrompter{answers: []string{"secret1"}}
	require.NoError(t, collectPasswords(cfg, prompter))
	assert.Equal(t, "secret1", cfg.CurrentPassword)
	assert.Equal(t, []string{"Enter the password for the PDF files"}, prompter.labels)

	serve := config.DefaultConfig()
	serve.Command = config.CommandServe
	prompter = &fakePrompter{}
	require.NoError(t, collectPasswords(serve, prompter))
	assert.Empty(t, prompter.labels)
}

func TestSetupLogging(t *testing.T) {
	restoreLogger(t)

	tests := []struct {
		name      string
		command   string
		logLevel  string
		wantFlags int
		wantQuiet bool
	}{
		{"batch info", config.CommandRemove, "info", 0, false},
		{"batch debug", config.CommandChange, "debug", log.LstdFlags | log.Lshortfile, false},
		{"serve info", config.CommandServe, "info", log.LstdFlags, true},
		{"serve debug", config.CommandServe, "debug", log.LstdFlags, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			cfg.Command = tt.command
			cfg.LogLevel = tt.logLevel

			var stderr bytes.Buffer
			setupLogging(cfg, &stderr)
			log.Print("probe")

			assert.Equal(t, tt.wantFlags, log.Flags())
			assert.Equal(t, tt.wantQuiet, stderr.Len() == 0)
		})
	}
}
