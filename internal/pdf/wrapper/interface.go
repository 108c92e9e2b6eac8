package wrapper

import (
	"fmt"
	"log"

	"github.com/a3tai/pdf-passwd/internal/pdf/security"
)

// Codec defines the security-handler operations the batch processor needs from a PDF library
type Codec interface {
	// Inspect parses the document and reports whether it is encrypted.
	// An encrypted document is unlocked with password; a wrong password yields ErrWrongPassword.
	Inspect(data []byte, password string) (*Inspection, error)

	// Decrypt returns the document rewritten without a security handler.
	Decrypt(data []byte, password string) ([]byte, error)

	// Encrypt returns the document protected by password used as both user and owner password.
	Encrypt(data []byte, password string, keyLength int) ([]byte, error)

	PageCounter
}

// PageCounter counts the pages of a document, unlocking it with password if needed
type PageCounter interface {
	PageCount(data []byte, password string) (int, error)
	GetLibraryType() LibraryType
}

// Inspection is what a single parse of a document tells us
type Inspection struct {
	Encrypted bool   `json:"encrypted"`
	Pages     int    `json:"pages"`
	Version   string `json:"version,omitempty"`

	// Encryption is set for encrypted documents
	Encryption *security.EncryptionInfo `json:"encryption,omitempty"`
}

// LibraryType represents the underlying PDF library being used
type LibraryType string

const (
	LibraryPDFCPU     LibraryType = "pdfcpu"
	LibraryLedongthuc LibraryType = "ledongthuc"
)

// Supported key lengths for new encryption
const (
	KeyLengthRC4    = 40
	KeyLengthAES128 = 128
	KeyLengthAES256 = 256
)

// ValidKeyLength reports whether keyLength is one of the supported key lengths
func ValidKeyLength(keyLength int) bool {
	switch keyLength {
	case KeyLengthRC4, KeyLengthAES128, KeyLengthAES256:
		return true
	default:
		return false
	}
}

// Error types for wrapper operations
type WrapperError struct {
	Library LibraryType `json:"library"`
	Op      string      `json:"operation"`
	Err     error       `json:"error"`
}

func (e *WrapperError) Error() string {
	return fmt.Sprintf("PDF %s library error in %s: %v", e.Library, e.Op, e.Err)
}

func (e *WrapperError) Unwrap() error {
	return e.Err
}

// Common error variables
var (
	ErrUnsupportedKeyLength = &WrapperError{Op: "encrypt", Err: fmt.Errorf("unsupported key length")}
	ErrEmptyDocument        = &WrapperError{Op: "open", Err: fmt.Errorf("document is empty")}
	ErrMalformedDocument    = &WrapperError{Op: "parse", Err: fmt.Errorf("malformed document")}
)

// recoverPanic turns a panic raised by a PDF library while parsing into an error.
// Call it deferred from functions with a named error result.
func recoverPanic(library LibraryType, op string, debug bool, err *error) {
	r := recover()
	if r == nil {
		return
	}
	if debug {
		log.Printf("%s %s: recovered from panic: %v", library, op, r)
	}
	*err = &WrapperError{
		Library: library,
		Op:      op,
		Err:     fmt.Errorf("%w: %v", ErrMalformedDocument, r),
	}
}
