// Package pdftest builds small PDF documents for tests.
package pdftest

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Document returns an unencrypted PDF with the given number of pages.
// Each page draws a line whose length depends on the page number so pages differ.
func Document(pages int) []byte {
	if pages < 1 {
		pages = 1
	}

	var buf bytes.Buffer
	size := 3 + 2*pages
	offsets := make([]int, size)

	buf.WriteString("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n")

	writeObj := func(num int, body string) {
		offsets[num] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", num, body)
	}

	writeObj(1, "<< /Type /Catalog /Pages 2 0 R >>")

	kids := ""
	for i := 0; i < pages; i++ {
		kids += fmt.Sprintf("%d 0 R ", 3+2*i)
	}
	writeObj(2, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", kids, pages))

	for i := 0; i < pages; i++ {
		pageNum := 3 + 2*i
		contentNum := pageNum + 1
		writeObj(pageNum, fmt.Sprintf(
			"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << >> /Contents %d 0 R >>",
			contentNum,
		))
		content := fmt.Sprintf("72 72 m %d 720 l S", 100+10*i)
		writeObj(contentNum, fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content))
	}

	xrefOffset := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", size)
	buf.WriteString("0000000000 65535 f \n")
	for num := 1; num < size; num++ {
		fmt.Fprintf(&buf, "%010d 00000 n \n", offsets[num])
	}
	fmt.Fprintf(&buf,
		"trailer\n<< /Size %d /Root 1 0 R /ID [<%s> <%s>] >>\nstartxref\n%d\n%%%%EOF\n",
		size, fileID, fileID, xrefOffset,
	)

	return buf.Bytes()
}

const fileID = "0123456789abcdef0123456789abcdef"

// Encrypted returns a PDF with the given number of pages protected by password
// using 256-bit AES.
func Encrypted(t testing.TB, pages int, password string) []byte {
	t.Helper()
	return EncryptedWithKey(t, pages, password, 256)
}

// EncryptedWithKey is Encrypted with a chosen key length (40, 128 or 256).
func EncryptedWithKey(t testing.TB, pages int, password string, keyLength int) []byte {
	t.Helper()

	var conf *model.Configuration
	if keyLength == 40 {
		conf = model.NewRC4Configuration(password, password, keyLength)
	} else {
		conf = model.NewAESConfiguration(password, password, keyLength)
	}
	conf.ValidationMode = model.ValidationRelaxed

	var out bytes.Buffer
	if err := api.Encrypt(bytes.NewReader(Document(pages)), &out, conf); err != nil {
		t.Fatalf("failed to encrypt test document: %v", err)
	}
	return out.Bytes()
}

// WriteFile writes data to root/rel, creating parent directories.
func WriteFile(t testing.TB, root, rel string, data []byte) string {
	t.Helper()

	path := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatalf("failed to create directory for %s: %v", rel, err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("failed to write %s: %v", rel, err)
	}
	return path
}

// IsEncrypted reports whether the PDF at path carries a security handler.
// It reads the document with password, failing the test on any error.
func IsEncrypted(t testing.TB, path, password string) bool {
	t.Helper()

	ctx := readContext(t, path, password)
	return ctx.Encrypt != nil
}

// PageCount returns the page count of the PDF at path, unlocking it with password.
func PageCount(t testing.TB, path, password string) int {
	t.Helper()

	ctx := readContext(t, path, password)
	if err := ctx.EnsurePageCount(); err != nil {
		t.Fatalf("failed to count pages of %s: %v", path, err)
	}
	return ctx.PageCount
}

func readContext(t testing.TB, path, password string) *model.Context {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	conf.UserPW = password
	conf.OwnerPW = password

	ctx, err := api.ReadContext(bytes.NewReader(data), conf)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	return ctx
}
