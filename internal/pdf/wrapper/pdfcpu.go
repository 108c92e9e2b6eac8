package wrapper

import (
	"bytes"
	"errors"
	"fmt"
	"log"
	"strings"

	pdferrors "github.com/a3tai/pdf-passwd/internal/pdf/errors"
	"github.com/a3tai/pdf-passwd/internal/pdf/security"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// PDFCPULibrary implements Codec using pdfcpu
type PDFCPULibrary struct {
	config FactoryConfig
}

// NewPDFCPULibrary creates a new pdfcpu library wrapper
func NewPDFCPULibrary(config FactoryConfig) *PDFCPULibrary {
	return &PDFCPULibrary{config: config}
}

// GetLibraryType returns the library type
func (p *PDFCPULibrary) GetLibraryType() LibraryType {
	return LibraryPDFCPU
}

// newConfiguration builds a relaxed pdfcpu configuration that tries password
// as both user and owner password.
func (p *PDFCPULibrary) newConfiguration(password string) *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	conf.UserPW = password
	conf.OwnerPW = password
	return conf
}

// Inspect reads the document context and reports its encryption state
func (p *PDFCPULibrary) Inspect(data []byte, password string) (_ *Inspection, err error) {
	if len(data) == 0 {
		return nil, ErrEmptyDocument
	}
	defer recoverPanic(LibraryPDFCPU, "inspect", p.config.DebugMode, &err)

	ctx, err := api.ReadContext(bytes.NewReader(data), p.newConfiguration(password))
	if err != nil {
		return nil, p.wrap("inspect", fmt.Errorf("failed to read PDF context: %w", err))
	}

	if err := ctx.EnsurePageCount(); err != nil {
		return nil, p.wrap("inspect", fmt.Errorf("failed to ensure page count: %w", err))
	}

	info := &Inspection{
		Encrypted: ctx.Encrypt != nil,
		Pages:     ctx.PageCount,
		Version:   ctx.HeaderVersion.String(),
	}
	if info.Encrypted && ctx.E != nil {
		info.Encryption = security.NewEncryptionInfo(ctx.E.V, ctx.E.R, ctx.E.L, ctx.AES4Streams, int32(ctx.E.P))
	}
	p.debugf("inspect: PDF %s, %d pages, encrypted=%t", info.Version, info.Pages, info.Encrypted)

	return info, nil
}

// Decrypt removes the security handler from an encrypted document
func (p *PDFCPULibrary) Decrypt(data []byte, password string) (_ []byte, err error) {
	defer recoverPanic(LibraryPDFCPU, "decrypt", p.config.DebugMode, &err)

	var out bytes.Buffer
	if err := api.Decrypt(bytes.NewReader(data), &out, p.newConfiguration(password)); err != nil {
		return nil, p.wrap("decrypt", err)
	}
	return out.Bytes(), nil
}

// Encrypt protects an unencrypted document with password
func (p *PDFCPULibrary) Encrypt(data []byte, password string, keyLength int) (_ []byte, err error) {
	defer recoverPanic(LibraryPDFCPU, "encrypt", p.config.DebugMode, &err)

	var conf *model.Configuration
	switch keyLength {
	case KeyLengthRC4:
		conf = model.NewRC4Configuration(password, password, keyLength)
	case KeyLengthAES128, KeyLengthAES256:
		conf = model.NewAESConfiguration(password, password, keyLength)
	default:
		return nil, &WrapperError{
			Library: LibraryPDFCPU,
			Op:      "encrypt",
			Err:     fmt.Errorf("unsupported key length %d: %w", keyLength, ErrUnsupportedKeyLength.Err),
		}
	}
	conf.ValidationMode = model.ValidationRelaxed

	var out bytes.Buffer
	if err := api.Encrypt(bytes.NewReader(data), &out, conf); err != nil {
		return nil, p.wrap("encrypt", err)
	}
	p.debugf("encrypt: %d bytes with %d-bit key", out.Len(), keyLength)
	return out.Bytes(), nil
}

// PageCount returns the number of pages, unlocking the document with password if needed
func (p *PDFCPULibrary) PageCount(data []byte, password string) (int, error) {
	info, err := p.Inspect(data, password)
	if err != nil {
		return 0, err
	}
	return info.Pages, nil
}

// wrap converts pdfcpu failures into WrapperErrors, keeping wrong-password
// failures recognizable through pdferrors.ErrWrongPassword.
func (p *PDFCPULibrary) wrap(op string, err error) error {
	p.debugf("%s failed: %v", op, err)
	if isPDFCPUPasswordError(err) {
		err = fmt.Errorf("%w (%v)", pdferrors.ErrWrongPassword, err)
	}
	return &WrapperError{Library: LibraryPDFCPU, Op: op, Err: err}
}

func (p *PDFCPULibrary) debugf(format string, args ...interface{}) {
	if p.config.DebugMode {
		log.Printf("pdfcpu "+format, args...)
	}
}

func isPDFCPUPasswordError(err error) bool {
	if errors.Is(err, pdfcpu.ErrWrongPassword) {
		return true
	}
	// Some code paths build the message without the sentinel.
	return strings.Contains(err.Error(), "correct password")
}
