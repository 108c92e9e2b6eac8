package pdf

import (
	"time"

	"github.com/a3tai/pdf-passwd/internal/pdf/security"
)

// DocumentState tells whether a document is guarded by a security handler
type DocumentState int

const (
	StatePlain DocumentState = iota
	StateEncrypted
)

// String returns a string representation of the DocumentState
func (s DocumentState) String() string {
	switch s {
	case StateEncrypted:
		return "encrypted"
	default:
		return "plain"
	}
}

// Outcome is the per-document result of a batch run
type Outcome string

const (
	OutcomeCopiedUnencrypted    Outcome = "copied-unencrypted"
	OutcomeCopiedAndEncrypted   Outcome = "copied-and-encrypted"
	OutcomeDecryptedRewritten   Outcome = "decrypted-and-rewritten"
	OutcomeDecryptedReencrypted Outcome = "decrypted-and-reencrypted"
	OutcomeSkippedWrongPassword Outcome = "skipped-wrong-password"
	OutcomeSkippedError         Outcome = "skipped-error"
)

// Skipped reports whether the outcome left no document in the output tree
func (o Outcome) Skipped() bool {
	return o == OutcomeSkippedWrongPassword || o == OutcomeSkippedError
}

// Job holds everything one batch run needs
type Job struct {
	InputRoot       string
	OutputRoot      string
	CurrentPassword string
	NewPassword     string // empty means the output is written without encryption

	// Workers is the number of documents processed at once. Values below 1 mean 1.
	Workers int

	// KeyLength selects the cipher for new encryption: 40 uses RC4, 128 and 256 use AES.
	KeyLength int

	// EncryptPlain also encrypts inputs that were not encrypted when NewPassword is set.
	EncryptPlain bool

	// Verify re-opens every written document and compares its page count.
	Verify bool

	MaxFileSize int64
}

// DocumentRef is a discovered input document
type DocumentRef struct {
	Path    string `json:"path"`
	RelPath string `json:"rel_path"`
}

// Result is the outcome of processing one document
type Result struct {
	Ref      DocumentRef   `json:"ref"`
	Outcome  Outcome       `json:"outcome"`
	Pages    int           `json:"pages,omitempty"`
	Err      error         `json:"-"`
	Duration time.Duration `json:"duration"`

	// Encryption describes the input's security handler when it was encrypted
	Encryption *security.EncryptionInfo `json:"encryption,omitempty"`
}

// DocumentInfo is a discovered document together with what inspecting it revealed
type DocumentInfo struct {
	Ref   DocumentRef
	State DocumentState
	Pages int

	Encryption *security.EncryptionInfo

	// Err is set when the document could not be inspected
	Err error
}

// Summary collects the results of a batch run in enumeration order
type Summary struct {
	RunID    string          `json:"run_id"`
	Results  []Result        `json:"results"`
	Counts   map[Outcome]int `json:"counts"`
	Duration time.Duration   `json:"duration"`

	// UnreadableDirs lists directories, relative to the input root, whose documents were left out
	UnreadableDirs []string `json:"unreadable_dirs,omitempty"`
}

func newSummary(runID string, size int) *Summary {
	return &Summary{
		RunID:   runID,
		Results: make([]Result, 0, size),
		Counts:  make(map[Outcome]int),
	}
}

func (s *Summary) add(r Result) {
	s.Results = append(s.Results, r)
	s.Counts[r.Outcome]++
}

// Total returns the number of documents the run looked at
func (s *Summary) Total() int {
	return len(s.Results)
}

// Processed returns the number of documents written to the output tree
func (s *Summary) Processed() int {
	n := 0
	for outcome, count := range s.Counts {
		if !outcome.Skipped() {
			n += count
		}
	}
	return n
}

// Skipped returns the number of documents left out of the output tree
func (s *Summary) Skipped() int {
	return s.Counts[OutcomeSkippedWrongPassword] + s.Counts[OutcomeSkippedError]
}
