package wrapper

import (
	"fmt"
)

// PDFLibraryFactory hands out library instances for the batch processor
type PDFLibraryFactory struct {
	config FactoryConfig
}

// FactoryConfig contains configuration options for the factory
type FactoryConfig struct {
	// PreferredVerifier is the library used to re-read written documents when it can handle them.
	PreferredVerifier LibraryType `json:"preferred_verifier"`

	// DebugMode enables debug logging for library operations
	DebugMode bool `json:"debug_mode"`
}

// NewPDFLibraryFactory creates a new factory with default configuration
func NewPDFLibraryFactory() *PDFLibraryFactory {
	return &PDFLibraryFactory{
		config: FactoryConfig{
			PreferredVerifier: LibraryLedongthuc,
			DebugMode:         false,
		},
	}
}

// NewPDFLibraryFactoryWithConfig creates a factory with custom configuration.
// An empty PreferredVerifier selects ledongthuc.
func NewPDFLibraryFactoryWithConfig(config FactoryConfig) (*PDFLibraryFactory, error) {
	if config.PreferredVerifier == "" {
		config.PreferredVerifier = LibraryLedongthuc
	}

	f := &PDFLibraryFactory{config: config}
	if err := f.ValidateLibraryType(config.PreferredVerifier); err != nil {
		return nil, err
	}
	return f, nil
}

// Codec returns the library that reads and writes security handlers
func (f *PDFLibraryFactory) Codec() Codec {
	return NewPDFCPULibrary(f.config)
}

// Create instantiates a page counter of the specified type
func (f *PDFLibraryFactory) Create(libType LibraryType) (PageCounter, error) {
	switch libType {
	case LibraryPDFCPU:
		return NewPDFCPULibrary(f.config), nil
	case LibraryLedongthuc:
		return NewLedongthucLibrary(f.config), nil
	default:
		return nil, &WrapperError{
			Library: libType,
			Op:      "create",
			Err:     fmt.Errorf("unknown library type: %s", libType),
		}
	}
}

// Verifier returns the page counter used to re-read a written document.
// Encrypted documents are always re-read by pdfcpu, which handles every
// key length it writes.
func (f *PDFLibraryFactory) Verifier(encrypted bool) PageCounter {
	if encrypted {
		return NewPDFCPULibrary(f.config)
	}

	counter, err := f.Create(f.config.PreferredVerifier)
	if err != nil {
		return NewPDFCPULibrary(f.config)
	}
	return counter
}

// GetSupportedLibraries returns a list of all supported library types
func (f *PDFLibraryFactory) GetSupportedLibraries() []LibraryType {
	return []LibraryType{
		LibraryPDFCPU,
		LibraryLedongthuc,
	}
}

// ValidateLibraryType checks if a library type is supported
func (f *PDFLibraryFactory) ValidateLibraryType(libType LibraryType) error {
	for _, supported := range f.GetSupportedLibraries() {
		if libType == supported {
			return nil
		}
	}
	return &WrapperError{
		Library: libType,
		Op:      "validate",
		Err:     fmt.Errorf("unsupported library type: %s", libType),
	}
}
