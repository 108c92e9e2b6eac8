package wrapper

import (
	"bytes"
	"fmt"
	"log"

	"github.com/ledongthuc/pdf"
)

// LedongthucLibrary implements PageCounter using ledongthuc/pdf.
// It shares no parsing code with pdfcpu, which makes it a useful second opinion
// on documents pdfcpu has written.
type LedongthucLibrary struct {
	config FactoryConfig
}

// NewLedongthucLibrary creates a new ledongthuc library wrapper
func NewLedongthucLibrary(config FactoryConfig) *LedongthucLibrary {
	return &LedongthucLibrary{config: config}
}

// GetLibraryType returns the library type
func (l *LedongthucLibrary) GetLibraryType() LibraryType {
	return LibraryLedongthuc
}

// PageCount returns the number of pages in the document.
// ledongthuc/pdf does not understand 256-bit AES security handlers.
func (l *LedongthucLibrary) PageCount(data []byte, password string) (_ int, err error) {
	if len(data) == 0 {
		return 0, ErrEmptyDocument
	}
	defer recoverPanic(LibraryLedongthuc, "page_count", l.config.DebugMode, &err)

	// The callback is polled until it returns an empty string.
	offered := false
	passwords := func() string {
		if offered {
			return ""
		}
		offered = true
		return password
	}

	r, err := pdf.NewReaderEncrypted(bytes.NewReader(data), int64(len(data)), passwords)
	if err != nil {
		return 0, &WrapperError{
			Library: LibraryLedongthuc,
			Op:      "page_count",
			Err:     fmt.Errorf("failed to open PDF: %w", err),
		}
	}

	pages := r.NumPage()
	if l.config.DebugMode {
		log.Printf("ledongthuc page_count: %d pages", pages)
	}
	return pages, nil
}
