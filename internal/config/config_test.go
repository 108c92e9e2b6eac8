package config

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/pflag"

	pdferrors "github.com/a3tai/pdf-passwd/internal/pdf/errors"
	"github.com/a3tai/pdf-passwd/internal/pdf/wrapper"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Workers != 1 {
		t.Errorf("Expected default workers to be 1, got %d", cfg.Workers)
	}

	if cfg.KeyLength != 256 {
		t.Errorf("Expected default key length to be 256, got %d", cfg.KeyLength)
	}

	if cfg.Version != "1.0.0" {
		t.Errorf("Expected default version to be '1.0.0', got '%s'", cfg.Version)
	}

	if cfg.ServerName != "pdf-passwd" {
		t.Errorf("Expected default server name to be 'pdf-passwd', got '%s'", cfg.ServerName)
	}

	if cfg.LogLevel != "info" {
		t.Errorf("Expected default log level to be 'info', got '%s'", cfg.LogLevel)
	}

	if cfg.MaxFileSize != 100*1024*1024 {
		t.Errorf("Expected default max file size to be 100MB, got %d", cfg.MaxFileSize)
	}

	if cfg.Verifier != "ledongthuc" {
		t.Errorf("Expected default verifier to be 'ledongthuc', got '%s'", cfg.Verifier)
	}

	if cfg.Verify || cfg.EncryptPlain || cfg.Quiet {
		t.Error("Expected boolean options to default to false")
	}
}

func TestLoad_Remove(t *testing.T) {
	var usage bytes.Buffer
	cfg, err := Load([]string{"remove", "-i", "in", "--output-dir", "out", "-p", "secret1"}, &usage)
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}

	if cfg.Command != CommandRemove {
		t.Errorf("Command = %q, want %q", cfg.Command, CommandRemove)
	}
	if !filepath.IsAbs(cfg.InputDir) || filepath.Base(cfg.InputDir) != "in" {
		t.Errorf("InputDir = %q, want absolute path ending in 'in'", cfg.InputDir)
	}
	if filepath.Base(cfg.OutputDir) != "out" {
		t.Errorf("OutputDir = %q, want path ending in 'out'", cfg.OutputDir)
	}
	if cfg.CurrentPassword != "secret1" {
		t.Errorf("CurrentPassword = %q, want 'secret1'", cfg.CurrentPassword)
	}
	if cfg.NeedsCurrentPassword() || cfg.NeedsNewPassword() {
		t.Error("no password should need prompting")
	}

	job := cfg.Job()
	if job.NewPassword != "" || job.CurrentPassword != "secret1" || job.InputRoot != cfg.InputDir {
		t.Errorf("unexpected job: %+v", job)
	}
}

func TestLoad_Change(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		wantCurrent string
		wantNew     string
		needCurrent bool
		needNew     bool
	}{
		{
			name:        "all flags",
			args:        []string{"change", "-i", "in", "-o", "out", "-p", "secret1", "-n", "secret2"},
			wantCurrent: "secret1",
			wantNew:     "secret2",
		},
		{
			name:        "password alias",
			args:        []string{"change", "-i", "in", "-o", "out", "--password", "secret1", "--new-password", "secret2"},
			wantCurrent: "secret1",
			wantNew:     "secret2",
		},
		{
			name:        "current password wins over alias",
			args:        []string{"change", "-i", "in", "-o", "out", "--password", "a", "--current-password", "b", "-n", "c"},
			wantCurrent: "b",
			wantNew:     "c",
		},
		{
			name:        "missing new password",
			args:        []string{"change", "-i", "in", "-o", "out", "-p", "secret1"},
			wantCurrent: "secret1",
			needNew:     true,
		},
		{
			name:        "missing both",
			args:        []string{"change", "-i", "in", "-o", "out"},
			needCurrent: true,
			needNew:     true,
		},
		{
			name: "explicitly empty passwords",
			args: []string{"change", "-i", "in", "-o", "out", "-p", "", "-n", ""},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(tt.args, &bytes.Buffer{})
			if err != nil {
				t.Fatalf("Load() unexpected error: %v", err)
			}
			if cfg.CurrentPassword != tt.wantCurrent {
				t.Errorf("CurrentPassword = %q, want %q", cfg.CurrentPassword, tt.wantCurrent)
			}
			if cfg.NewPassword != tt.wantNew {
				t.Errorf("NewPassword = %q, want %q", cfg.NewPassword, tt.wantNew)
			}
			if cfg.NeedsCurrentPassword() != tt.needCurrent {
				t.Errorf("NeedsCurrentPassword() = %t, want %t", cfg.NeedsCurrentPassword(), tt.needCurrent)
			}
			if cfg.NeedsNewPassword() != tt.needNew {
				t.Errorf("NeedsNewPassword() = %t, want %t", cfg.NeedsNewPassword(), tt.needNew)
			}
		})
	}
}

func TestLoad_SharedFlags(t *testing.T) {
	cfg, err := Load([]string{
		"change", "-i", "in", "-o", "out", "-p", "a", "-n", "b",
		"--workers", "4", "--key-length", "128", "--encrypt-plain", "--verify",
		"--max-file-size", "2048", "--loglevel", "debug", "--quiet",
	}, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}

	if cfg.Workers != 4 {
		t.Errorf("Workers = %d, want 4", cfg.Workers)
	}
	if cfg.KeyLength != 128 {
		t.Errorf("KeyLength = %d, want 128", cfg.KeyLength)
	}
	if !cfg.EncryptPlain || !cfg.Verify || !cfg.Quiet {
		t.Errorf("boolean flags not applied: %+v", cfg)
	}
	if cfg.MaxFileSize != 2048 {
		t.Errorf("MaxFileSize = %d, want 2048", cfg.MaxFileSize)
	}
	if !cfg.IsDebug() {
		t.Error("IsDebug() should be true")
	}
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("PDFPASSWD_WORKERS", "3")
	t.Setenv("PDFPASSWD_KEY_LENGTH", "40")
	t.Setenv("PDFPASSWD_VERIFY", "true")
	t.Setenv("PDFPASSWD_LOGLEVEL", "warn")
	t.Setenv("PDFPASSWD_PASSWORD", "from-env")

	cfg, err := Load([]string{"remove", "-i", "in", "-o", "out"}, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}

	if cfg.Workers != 3 || cfg.KeyLength != 40 || !cfg.Verify || cfg.LogLevel != "warn" {
		t.Errorf("environment not applied: %s", cfg)
	}
	if cfg.CurrentPassword != "" || !cfg.NeedsCurrentPassword() {
		t.Error("passwords must never come from the environment")
	}

	// Flags take precedence over the environment.
	cfg, err = Load([]string{"remove", "-i", "in", "-o", "out", "--workers", "2"}, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if cfg.Workers != 2 {
		t.Errorf("Workers = %d, want flag value 2", cfg.Workers)
	}
}

func TestConfig_Factory(t *testing.T) {
	cfg, err := Load([]string{"remove", "-i", "in", "-o", "out", "--verifier", "pdfcpu", "--loglevel", "debug"}, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if cfg.Verifier != "pdfcpu" {
		t.Errorf("Verifier = %s, want pdfcpu", cfg.Verifier)
	}

	factory, err := cfg.Factory()
	if err != nil {
		t.Fatalf("Factory() unexpected error: %v", err)
	}
	if got := factory.Verifier(false).GetLibraryType(); got != wrapper.LibraryPDFCPU {
		t.Errorf("verifier library = %s, want pdfcpu", got)
	}

	cfg.Verifier = "mupdf"
	if _, err := cfg.Factory(); !pdferrors.IsConfiguration(err) {
		t.Errorf("expected configuration error for unknown verifier, got %v", err)
	}
}

func TestLoad_Serve(t *testing.T) {
	cfg, err := Load([]string{"serve", "--loglevel", "error"}, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if cfg.Command != CommandServe || cfg.LogLevel != "error" {
		t.Errorf("unexpected config: %s", cfg)
	}
	if cfg.NeedsCurrentPassword() || cfg.NeedsNewPassword() {
		t.Error("serve never prompts")
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"no command", nil},
		{"unknown command", []string{"frobnicate"}},
		{"missing input", []string{"remove", "-o", "out"}},
		{"missing output", []string{"remove", "-i", "in"}},
		{"unknown flag", []string{"remove", "-i", "in", "-o", "out", "--bogus"}},
		{"encrypt-plain on remove", []string{"remove", "-i", "in", "-o", "out", "--encrypt-plain"}},
		{"positional argument", []string{"remove", "-i", "in", "-o", "out", "extra"}},
		{"bad key length", []string{"remove", "-i", "in", "-o", "out", "--key-length", "64"}},
		{"zero workers", []string{"remove", "-i", "in", "-o", "out", "--workers", "0"}},
		{"bad size", []string{"remove", "-i", "in", "-o", "out", "--max-file-size", "0"}},
		{"bad log level", []string{"serve", "--loglevel", "verbose"}},
		{"unknown verifier", []string{"remove", "-i", "in", "-o", "out", "--verifier", "mupdf"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var usage bytes.Buffer
			_, err := Load(tt.args, &usage)
			if err == nil {
				t.Fatal("Load() expected error")
			}
			if !pdferrors.IsConfiguration(err) {
				t.Errorf("expected configuration error, got %T: %v", err, err)
			}
		})
	}
}

func TestLoad_VersionAndHelp(t *testing.T) {
	for _, arg := range []string{"-v", "--version", "-version"} {
		if _, err := Load([]string{arg}, &bytes.Buffer{}); !errors.Is(err, ErrVersionRequested) {
			t.Errorf("Load(%q) error = %v, want ErrVersionRequested", arg, err)
		}
	}

	var usage bytes.Buffer
	if _, err := Load([]string{"--help"}, &usage); !errors.Is(err, pflag.ErrHelp) {
		t.Errorf("Load(--help) error = %v, want pflag.ErrHelp", err)
	}
	if !strings.Contains(usage.String(), "Commands:") {
		t.Errorf("expected command list, got %q", usage.String())
	}

	usage.Reset()
	if _, err := Load([]string{"change", "--help"}, &usage); !errors.Is(err, pflag.ErrHelp) {
		t.Errorf("Load(change --help) error = %v, want pflag.ErrHelp", err)
	}
	for _, want := range []string{"--new-password", "PDFPASSWD_WORKERS"} {
		if !strings.Contains(usage.String(), want) {
			t.Errorf("usage missing %q", want)
		}
	}
}

func TestConfig_StringMasksPasswords(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Command = CommandChange
	cfg.CurrentPassword = "secret1"
	cfg.NewPassword = "secret2"

	s := cfg.String()
	if strings.Contains(s, "secret1") || strings.Contains(s, "secret2") {
		t.Errorf("String() leaks passwords: %s", s)
	}
	if !strings.Contains(s, "****") {
		t.Errorf("String() should mask passwords: %s", s)
	}
}
