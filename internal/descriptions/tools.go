package descriptions

import "sort"

// Tool descriptions with practical examples and use cases

const (
	PDFListDocumentsDescription = `List the PDF files a batch over a directory would process.

**When to use:** Before removing or changing passwords, to see which files will be touched and which of them are encrypted.

**Why it's useful:** Uses the same recursive, case-insensitive discovery as the batch tools, so the list matches what a run processes. With a password every file is opened and its security handler reported.

**Examples:**
• Preview a run: "List the PDFs under /scans/locked"
• Check a password: "List /scans/locked with password 'secret1' to see which files it opens"

**Best practices:** Run with the password first; files reported as "incorrect password" will be skipped by the batch tools.`

	PDFRemovePasswordsDescription = `Remove the password from every PDF under input_dir.

**When to use:** A folder of password-protected PDFs has to be opened by tools or people that do not know the password.

**Why it's useful:** Each file is decrypted with the given password and written without encryption to the same relative path under output_dir. Files that are not encrypted are copied unchanged. A wrong password or a damaged file skips that file only.

**Examples:**
• Unlock statements: "Remove the password 'secret1' from /docs/statements into /docs/unlocked"

**Best practices:** output_dir must differ from input_dir. Enable verify to re-read every written file and compare its page count.`

	PDFChangePasswordsDescription = `Change the password of every encrypted PDF under input_dir.

**When to use:** Re-keying a folder of protected PDFs, e.g. after a password was shared too widely.

**Why it's useful:** Each encrypted file is decrypted with current_password and encrypted again with new_password (AES-256 unless key_length says otherwise), written to the same relative path under output_dir. Files that are not encrypted are copied unchanged unless encrypt_plain is set.

**Examples:**
• Rotate a password: "Change the password of /docs/hr from 'old' to 'new' into /docs/hr-rekeyed"
• Protect everything: "Change passwords in /docs with encrypt_plain so unencrypted files get the new password too"

**Best practices:** key_length 40 selects RC4 and exists only for old readers; prefer 128 or 256.`

	PDFServerInfoDescription = `Get server information, the available tools and their defaults.

**When to use:** At the start of a session to learn what this server can do.

**Best practices:** Check the default key length and verify setting before running the batch tools.`
)

// ToolDescriptions maps tool names to their descriptions
var ToolDescriptions = map[string]string{
	"pdf_list_documents":   PDFListDocumentsDescription,
	"pdf_remove_passwords": PDFRemovePasswordsDescription,
	"pdf_change_passwords": PDFChangePasswordsDescription,
	"pdf_server_info":      PDFServerInfoDescription,
}

// GetToolDescription returns the description for a tool
func GetToolDescription(toolName string) string {
	if desc, exists := ToolDescriptions[toolName]; exists {
		return desc
	}
	return "Tool description not available"
}

// GetAllToolNames returns the names of all described tools in alphabetical order
func GetAllToolNames() []string {
	names := make([]string, 0, len(ToolDescriptions))
	for name := range ToolDescriptions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
