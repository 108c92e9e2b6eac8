package config

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/a3tai/pdf-passwd/internal/pdf"
	pdferrors "github.com/a3tai/pdf-passwd/internal/pdf/errors"
	"github.com/a3tai/pdf-passwd/internal/pdf/wrapper"
)

const (
	// Subcommands
	CommandRemove = "remove"
	CommandChange = "change"
	CommandServe  = "serve"

	// Default values
	DefaultLogLevel    = "info"
	DefaultWorkers     = 1
	DefaultKeyLength   = wrapper.KeyLengthAES256
	DefaultMaxFileSize = pdf.DefaultMaxFileSize
	DefaultVerifier    = string(wrapper.LibraryLedongthuc)

	// EnvPrefix prefixes every environment override, e.g. PDFPASSWD_WORKERS
	EnvPrefix = "PDFPASSWD"

	Version    = "1.0.0"
	ServerName = "pdf-passwd"
)

// ErrVersionRequested is returned by Load when the version flag is present
var ErrVersionRequested = errors.New("version requested")

// Config holds all configuration for one invocation
type Config struct {
	Command string

	// Batch configuration
	InputDir        string
	OutputDir       string
	CurrentPassword string
	NewPassword     string
	Workers         int
	KeyLength       int
	EncryptPlain    bool
	Verify          bool
	MaxFileSize     int64
	Verifier        string

	// Application configuration
	Version    string
	ServerName string
	LogLevel   string
	Quiet      bool

	// set when the password flag was given on the command line, even if empty
	currentPasswordSet bool
	newPasswordSet     bool
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Workers:     DefaultWorkers,
		KeyLength:   DefaultKeyLength,
		MaxFileSize: DefaultMaxFileSize,
		Verifier:    DefaultVerifier,
		Version:     Version,
		ServerName:  ServerName,
		LogLevel:    DefaultLogLevel,
	}
}

// Load parses args (without the program name) into a configuration.
// Usage is written to usage on parse errors and for -h/--help, in which case
// the returned error is pflag.ErrHelp.
func Load(args []string, usage io.Writer) (*Config, error) {
	if len(args) == 0 {
		printCommands(usage)
		return nil, pdferrors.NewConfigurationError("command", errors.New("no command given"))
	}

	switch args[0] {
	case "-v", "-version", "--version":
		return nil, ErrVersionRequested
	case "-h", "-help", "--help", "help":
		printCommands(usage)
		return nil, pflag.ErrHelp
	}

	cfg := DefaultConfig()
	cfg.Command = args[0]

	switch cfg.Command {
	case CommandRemove, CommandChange, CommandServe:
	default:
		printCommands(usage)
		return nil, pdferrors.NewConfigurationError("command", fmt.Errorf("unknown command %q", cfg.Command))
	}

	v := setupViperEnvironment(cfg)
	fs := defineCommandLineFlags(cfg, usage)
	bindFlagsToViper(v, fs)

	if err := fs.Parse(args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil, err
		}
		return nil, pdferrors.NewConfigurationError("flags", err)
	}
	if fs.NArg() > 0 {
		fs.Usage()
		return nil, pdferrors.NewConfigurationError("flags",
			fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " ")))
	}

	populateConfigFromViper(cfg, v)
	populatePasswords(cfg, fs)

	for _, dir := range []*string{&cfg.InputDir, &cfg.OutputDir} {
		if *dir == "" {
			continue
		}
		if expandedPath, err := filepath.Abs(*dir); err == nil {
			*dir = expandedPath
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setupViperEnvironment creates a viper instance with environment overrides and defaults.
// Passwords have no key here: they are never read from the environment.
func setupViperEnvironment(cfg *Config) *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("workers", cfg.Workers)
	v.SetDefault("key-length", cfg.KeyLength)
	v.SetDefault("verify", cfg.Verify)
	v.SetDefault("max-file-size", cfg.MaxFileSize)
	v.SetDefault("verifier", cfg.Verifier)
	v.SetDefault("loglevel", cfg.LogLevel)
	v.SetDefault("quiet", cfg.Quiet)

	return v
}

// defineCommandLineFlags sets up the flag set of cfg.Command
func defineCommandLineFlags(cfg *Config, usage io.Writer) *pflag.FlagSet {
	fs := pflag.NewFlagSet(cfg.Command, pflag.ContinueOnError)
	fs.SetOutput(usage)

	switch cfg.Command {
	case CommandRemove:
		fs.StringP("input-dir", "i", "", "Directory containing the PDF files to process (required)")
		fs.StringP("output-dir", "o", "", "Directory the processed files are written to (required)")
		fs.StringP("password", "p", "", "Current password of the PDF files (prompted if omitted)")
	case CommandChange:
		fs.StringP("input-dir", "i", "", "Directory containing the PDF files to process (required)")
		fs.StringP("output-dir", "o", "", "Directory the processed files are written to (required)")
		fs.StringP("current-password", "p", "", "Current password of the PDF files (prompted if omitted)")
		fs.String("password", "", "Alias of --current-password")
		fs.StringP("new-password", "n", "", "New password for the PDF files (prompted if omitted)")
		fs.Bool("encrypt-plain", false, "Also encrypt files that were not encrypted")
	}

	if cfg.Command != CommandServe {
		fs.Bool("quiet", cfg.Quiet, "Do not show the progress bar")
	}
	fs.Int("workers", cfg.Workers, "Number of files processed at once")
	fs.Int("key-length", cfg.KeyLength, "Encryption key length in bits: 40 (RC4), 128 or 256 (AES)")
	fs.Bool("verify", cfg.Verify, "Re-read every output file and compare its page count")
	fs.Int64("max-file-size", cfg.MaxFileSize, "Maximum PDF file size in bytes")
	fs.String("verifier", cfg.Verifier, "Library re-reading unencrypted outputs with --verify (ledongthuc, pdfcpu)")
	fs.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")

	fs.Usage = func() { printUsage(usage, fs) }

	return fs
}

// bindFlagsToViper binds the non-secret flags of fs to v
func bindFlagsToViper(v *viper.Viper, fs *pflag.FlagSet) {
	for _, key := range []string{"workers", "key-length", "verify", "max-file-size", "verifier", "loglevel", "quiet"} {
		if flag := fs.Lookup(key); flag != nil {
			_ = v.BindPFlag(key, flag)
		}
	}
}

// populateConfigFromViper fills the config struct with values from viper
func populateConfigFromViper(cfg *Config, v *viper.Viper) {
	cfg.Workers = v.GetInt("workers")
	cfg.KeyLength = v.GetInt("key-length")
	cfg.Verify = v.GetBool("verify")
	cfg.MaxFileSize = v.GetInt64("max-file-size")
	cfg.Verifier = v.GetString("verifier")
	cfg.LogLevel = v.GetString("loglevel")
	cfg.Quiet = v.GetBool("quiet")
}

// populatePasswords copies the directory and password flags, which bypass viper
func populatePasswords(cfg *Config, fs *pflag.FlagSet) {
	cfg.InputDir, _ = fs.GetString("input-dir")
	cfg.OutputDir, _ = fs.GetString("output-dir")
	cfg.EncryptPlain, _ = fs.GetBool("encrypt-plain")

	switch cfg.Command {
	case CommandRemove:
		cfg.CurrentPassword, _ = fs.GetString("password")
		cfg.currentPasswordSet = fs.Changed("password")
	case CommandChange:
		cfg.CurrentPassword, _ = fs.GetString("current-password")
		cfg.currentPasswordSet = fs.Changed("current-password")
		if !cfg.currentPasswordSet && fs.Changed("password") {
			cfg.CurrentPassword, _ = fs.GetString("password")
			cfg.currentPasswordSet = true
		}
		cfg.NewPassword, _ = fs.GetString("new-password")
		cfg.newPasswordSet = fs.Changed("new-password")
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	switch c.Command {
	case CommandRemove, CommandChange:
		if c.InputDir == "" {
			return pdferrors.NewConfigurationError("input-dir", errors.New("--input-dir is required"))
		}
		if c.OutputDir == "" {
			return pdferrors.NewConfigurationError("output-dir", errors.New("--output-dir is required"))
		}
	case CommandServe:
	default:
		return pdferrors.NewConfigurationError("command", fmt.Errorf("unknown command %q", c.Command))
	}

	if c.Workers < 1 {
		return pdferrors.NewConfigurationError("workers", errors.New("workers must be at least 1"))
	}

	if !wrapper.ValidKeyLength(c.KeyLength) {
		return pdferrors.NewConfigurationError("key-length",
			fmt.Errorf("invalid key length: %d (must be one of: 40, 128, 256)", c.KeyLength))
	}

	if c.MaxFileSize <= 0 {
		return pdferrors.NewConfigurationError("max-file-size", errors.New("maximum file size must be positive"))
	}

	if _, err := c.Factory(); err != nil {
		return err
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return pdferrors.NewConfigurationError("loglevel",
			fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel))
	}

	return nil
}

// NeedsCurrentPassword reports whether the current password has to be prompted for
func (c *Config) NeedsCurrentPassword() bool {
	return (c.Command == CommandRemove || c.Command == CommandChange) && !c.currentPasswordSet
}

// NeedsNewPassword reports whether the new password has to be prompted for
func (c *Config) NeedsNewPassword() bool {
	return c.Command == CommandChange && !c.newPasswordSet
}

// Job converts the configuration into a batch job
func (c *Config) Job() pdf.Job {
	return pdf.Job{
		InputRoot:       c.InputDir,
		OutputRoot:      c.OutputDir,
		CurrentPassword: c.CurrentPassword,
		NewPassword:     c.NewPassword,
		Workers:         c.Workers,
		KeyLength:       c.KeyLength,
		EncryptPlain:    c.EncryptPlain,
		Verify:          c.Verify,
		MaxFileSize:     c.MaxFileSize,
	}
}

// Factory builds the PDF library factory for the configured verifier
func (c *Config) Factory() (*wrapper.PDFLibraryFactory, error) {
	factory, err := wrapper.NewPDFLibraryFactoryWithConfig(wrapper.FactoryConfig{
		PreferredVerifier: wrapper.LibraryType(c.Verifier),
		DebugMode:         c.IsDebug(),
	})
	if err != nil {
		return nil, pdferrors.NewConfigurationError("verifier", err)
	}
	return factory, nil
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// String returns a string representation of the configuration with passwords masked
func (c *Config) String() string {
	return fmt.Sprintf("Config{Command: %s, InputDir: %s, OutputDir: %s, CurrentPassword: %s, NewPassword: %s, "+
		"Workers: %d, KeyLength: %d, EncryptPlain: %t, Verify: %t, MaxFileSize: %d, Verifier: %s, LogLevel: %s}",
		c.Command, c.InputDir, c.OutputDir, mask(c.CurrentPassword), mask(c.NewPassword),
		c.Workers, c.KeyLength, c.EncryptPlain, c.Verify, c.MaxFileSize, c.Verifier, c.LogLevel)
}

func mask(secret string) string {
	if secret == "" {
		return "<empty>"
	}
	return "****"
}

func printCommands(w io.Writer) {
	fmt.Fprintf(w, "Usage: %s <command> [options]\n", ServerName)
	fmt.Fprintf(w, "\nPDF Password Tool - remove or change the passwords of all PDF files in a directory tree\n\n")
	fmt.Fprintf(w, "Commands:\n")
	fmt.Fprintf(w, "  remove    Remove the password from PDF files\n")
	fmt.Fprintf(w, "  change    Change the password of PDF files\n")
	fmt.Fprintf(w, "  serve     Serve the batch operations as MCP tools over stdio\n")
	fmt.Fprintf(w, "\nRun '%s <command> --help' for the options of a command, '%s --version' for the version.\n",
		ServerName, ServerName)
}

func printUsage(w io.Writer, fs *pflag.FlagSet) {
	fmt.Fprintf(w, "Usage of %s %s:\n\n", ServerName, fs.Name())
	fmt.Fprintf(w, "Options:\n")
	fs.PrintDefaults()
	fmt.Fprintf(w, "\nExamples:\n")
	fmt.Fprintf(w, "  %s remove -i ./locked -o ./unlocked                 # prompts for the password\n", ServerName)
	fmt.Fprintf(w, "  %s change -i ./docs -o ./out -p old -n new --verify\n", ServerName)
	fmt.Fprintf(w, "\nEnvironment Variables:\n")
	fmt.Fprintf(w, "  %s_WORKERS       Number of files processed at once\n", EnvPrefix)
	fmt.Fprintf(w, "  %s_KEY_LENGTH    Encryption key length\n", EnvPrefix)
	fmt.Fprintf(w, "  %s_VERIFY        Verify output files\n", EnvPrefix)
	fmt.Fprintf(w, "  %s_MAX_FILE_SIZE Maximum file size\n", EnvPrefix)
	fmt.Fprintf(w, "  %s_VERIFIER      Library used by --verify\n", EnvPrefix)
	fmt.Fprintf(w, "  %s_LOGLEVEL      Log level\n", EnvPrefix)
	fmt.Fprintf(w, "  %s_QUIET         Hide the progress bar\n", EnvPrefix)
}
