package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/a3tai/pdf-passwd/internal/config"
	"github.com/a3tai/pdf-passwd/internal/mcp"
	"github.com/a3tai/pdf-passwd/internal/pdf"
	pdferrors "github.com/a3tai/pdf-passwd/internal/pdf/errors"
	"github.com/a3tai/pdf-passwd/internal/prompt"
)

var (
	version   = "dev"     // This will be set by build flags
	buildTime = "unknown" // This will be set by build flags
	gitCommit = "unknown" // This will be set by build flags
)

// Exit codes
const (
	exitOK     = 0
	exitFailed = 1
	exitUsage  = 2
)

type passwordPrompter interface {
	Password(label string, confirm bool) (string, error)
}

// setupLogging configures logging based on the command
func setupLogging(cfg *config.Config, stderr io.Writer) {
	log.SetOutput(stderr)

	if cfg.Command == config.CommandServe {
		// stdout carries the MCP protocol; stay silent unless debugging
		if !cfg.IsDebug() {
			log.SetOutput(io.Discard)
		}
		log.SetFlags(log.LstdFlags)
		return
	}

	if cfg.IsDebug() {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	} else {
		log.SetFlags(0)
	}
}

// collectPasswords prompts for every password not given on the command line
func collectPasswords(cfg *config.Config, p passwordPrompter) error {
	if cfg.NeedsCurrentPassword() {
		label := "Enter the current password for the PDF files"
		if cfg.Command == config.CommandRemove {
			label = "Enter the password for the PDF files"
		}
		pw, err := p.Password(label, false)
		if err != nil {
			return pdferrors.NewConfigurationError("password", err)
		}
		cfg.CurrentPassword = pw
	}

	if cfg.NeedsNewPassword() {
		pw, err := p.Password("Enter the new password for the PDF files", true)
		if err != nil {
			return pdferrors.NewConfigurationError("new-password", err)
		}
		cfg.NewPassword = pw
	}

	return nil
}

// runBatch handles remove and change
func runBatch(ctx context.Context, cfg *config.Config, stdout, stderr io.Writer) error {
	factory, err := cfg.Factory()
	if err != nil {
		return err
	}

	reporter := pdf.NewConsoleReporter(stdout, stderr, !cfg.Quiet, cfg.IsDebug())
	service := pdf.NewService(pdf.Options{Factory: factory, Reporter: reporter})

	if cfg.IsDebug() {
		log.Printf("Starting with configuration: %s", cfg.String())
	}

	_, err = service.Run(ctx, cfg.Job())
	return err
}

// runServe handles serve, stopping on SIGINT/SIGTERM or when stdin closes
func runServe(ctx context.Context, cfg *config.Config) error {
	factory, err := cfg.Factory()
	if err != nil {
		return err
	}

	server, err := mcp.NewServer(cfg, pdf.NewService(pdf.Options{Factory: factory}))
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}

	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- server.Run(ctx)
	}()

	select {
	case <-ctx.Done():
		log.Println("Received shutdown signal")
		return nil
	case err := <-serverErrCh:
		return err
	}
}

// run executes one invocation and returns the process exit code
func run(ctx context.Context, args []string, stdout, stderr io.Writer, p passwordPrompter) int {
	cfg, err := config.Load(args, stderr)
	switch {
	case errors.Is(err, config.ErrVersionRequested):
		printVersion(stdout)
		return exitOK
	case errors.Is(err, pflag.ErrHelp):
		return exitOK
	case err != nil:
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitUsage
	}

	setupLogging(cfg, stderr)

	if version != "dev" {
		cfg.Version = version
	}

	if cfg.Command == config.CommandServe {
		if err := runServe(ctx, cfg); err != nil {
			log.Printf("Server error: %v", err)
			return exitFailed
		}
		return exitOK
	}

	if err := collectPasswords(cfg, p); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitUsage
	}

	if err := runBatch(ctx, cfg, stdout, stderr); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		if pdferrors.IsConfiguration(err) {
			return exitUsage
		}
		return exitFailed
	}

	return exitOK
}

func main() {
	// Cancellation stops the batch between documents
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr, prompt.New())
	stop()
	os.Exit(code)
}

// printVersion prints version information
func printVersion(w io.Writer) {
	fmt.Fprintf(w, "PDF Password Tool\n")
	fmt.Fprintf(w, "Version: %s\n", version)
	fmt.Fprintf(w, "Build Time: %s\n", buildTime)
	fmt.Fprintf(w, "Git Commit: %s\n", gitCommit)
	fmt.Fprintf(w, "Built with: %s\n", runtime.Version())
}
