package pdf

import (
	"fmt"
	"os"
	"strings"

	"github.com/a3tai/pdf-passwd/internal/pdf/wrapper"
)

// Validator handles document validation before and after processing
type Validator struct {
	maxFileSize int64
	factory     *wrapper.PDFLibraryFactory
}

// NewValidator creates a new PDF validator with the specified constraints
func NewValidator(maxFileSize int64, factory *wrapper.PDFLibraryFactory) *Validator {
	if factory == nil {
		factory = wrapper.NewPDFLibraryFactory()
	}
	return &Validator{
		maxFileSize: maxFileSize,
		factory:     factory,
	}
}

// ValidateFile stats an input document and checks it against the size constraints
func (v *Validator) ValidateFile(filePath string) error {
	if filePath == "" {
		return fmt.Errorf("path cannot be empty")
	}

	fileInfo, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return fmt.Errorf("file does not exist: %s", filePath)
	}
	if err != nil {
		return fmt.Errorf("cannot access file: %w", err)
	}

	return v.ValidateFileInfo(filePath, fileInfo)
}

// ValidateFileInfo performs basic validation on file info without opening the PDF
func (v *Validator) ValidateFileInfo(filePath string, fileInfo os.FileInfo) error {
	if fileInfo.IsDir() {
		return fmt.Errorf("path is a directory, not a file: %s", filePath)
	}

	if !strings.HasSuffix(strings.ToLower(filePath), DocumentExtension) {
		return fmt.Errorf("file is not a PDF: %s", filePath)
	}

	if fileInfo.Size() == 0 {
		return fmt.Errorf("file is empty: %s", filePath)
	}

	if v.maxFileSize > 0 && fileInfo.Size() > v.maxFileSize {
		return fmt.Errorf("file too large: %d bytes (max: %d bytes)",
			fileInfo.Size(), v.maxFileSize)
	}

	return nil
}

// VerifyOutput re-reads a written document and checks that it kept all its pages.
// Unencrypted output is read by a library independent of the one that wrote it.
func (v *Validator) VerifyOutput(data []byte, encrypted bool, password string, expectedPages int) error {
	verifier := v.factory.Verifier(encrypted)

	pages, err := verifier.PageCount(data, password)
	if err != nil {
		return fmt.Errorf("output is not readable by %s: %w", verifier.GetLibraryType(), err)
	}

	if pages != expectedPages {
		return fmt.Errorf("page count mismatch: expected %d, %s read %d",
			expectedPages, verifier.GetLibraryType(), pages)
	}

	return nil
}
