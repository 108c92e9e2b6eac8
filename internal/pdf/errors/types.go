package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrWrongPassword is returned when the supplied password cannot unlock a document
var ErrWrongPassword = stderrors.New("incorrect password")

// Stage identifies the step of per-document processing that failed
type Stage int

const (
	StageUnknown Stage = iota
	StageRead
	StageValidate
	StageInspect
	StageDecrypt
	StageEncrypt
	StageWrite
	StageVerify
)

// String returns a string representation of the Stage
func (s Stage) String() string {
	switch s {
	case StageRead:
		return "read"
	case StageValidate:
		return "validate"
	case StageInspect:
		return "inspect"
	case StageDecrypt:
		return "decrypt"
	case StageEncrypt:
		return "encrypt"
	case StageWrite:
		return "write"
	case StageVerify:
		return "verify"
	default:
		return "unknown"
	}
}

// ConfigurationError aborts a run before any document is touched
type ConfigurationError struct {
	Field string `json:"field"`
	Err   error  `json:"error"`
}

// Error implements the error interface
func (e *ConfigurationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("configuration error: %v", e.Err)
	}
	return fmt.Sprintf("configuration error: %s: %v", e.Field, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// NewConfigurationError creates a ConfigurationError for the named setting
func NewConfigurationError(field string, err error) *ConfigurationError {
	return &ConfigurationError{Field: field, Err: err}
}

// WrongPasswordError marks a document the current password could not unlock
type WrongPasswordError struct {
	Path string `json:"path"`
}

// Error implements the error interface
func (e *WrongPasswordError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, ErrWrongPassword)
}

func (e *WrongPasswordError) Unwrap() error {
	return ErrWrongPassword
}

// ProcessingError is any other per-document failure
type ProcessingError struct {
	Path  string `json:"path"`
	Stage Stage  `json:"stage"`
	Err   error  `json:"error"`
}

// Error implements the error interface
func (e *ProcessingError) Error() string {
	return fmt.Sprintf("%s: %s failed: %v", e.Path, e.Stage, e.Err)
}

func (e *ProcessingError) Unwrap() error {
	return e.Err
}

// NewProcessingError wraps err as a failure of the given stage
func NewProcessingError(path string, stage Stage, err error) *ProcessingError {
	return &ProcessingError{Path: path, Stage: stage, Err: err}
}

// IsWrongPassword reports whether err stems from an incorrect password
func IsWrongPassword(err error) bool {
	return stderrors.Is(err, ErrWrongPassword)
}

// IsConfiguration reports whether err is a ConfigurationError
func IsConfiguration(err error) bool {
	var cfgErr *ConfigurationError
	return stderrors.As(err, &cfgErr)
}
