package pdf

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	pdferrors "github.com/a3tai/pdf-passwd/internal/pdf/errors"
	"github.com/a3tai/pdf-passwd/internal/pdf/security"
	"github.com/a3tai/pdf-passwd/internal/pdf/wrapper"
)

const (
	// DefaultDirPerm is used for the output root and every mirrored subdirectory
	DefaultDirPerm = 0o750
	// DefaultFilePerm is applied to written documents
	DefaultFilePerm = 0o644
	// DefaultMaxFileSize bounds the size of a single input document
	DefaultMaxFileSize = 100 * 1024 * 1024
)

// Options configures a Service
type Options struct {
	Factory  *wrapper.PDFLibraryFactory
	Reporter Reporter
}

// Service runs password batches over directory trees
type Service struct {
	factory  *wrapper.PDFLibraryFactory
	codec    wrapper.Codec
	reporter Reporter
}

// NewService creates a new batch service; zero Options use pdfcpu and discard progress events
func NewService(opts Options) *Service {
	if opts.Factory == nil {
		opts.Factory = wrapper.NewPDFLibraryFactory()
	}
	if opts.Reporter == nil {
		opts.Reporter = NopReporter{}
	}

	return &Service{
		factory:  opts.Factory,
		codec:    opts.Factory.Codec(),
		reporter: opts.Reporter,
	}
}

// run carries the per-invocation state shared by all documents of a batch
type run struct {
	job       Job
	mirror    *security.PathValidator
	validator *Validator
}

// applyJobDefaults fills zero-value fields of a Job
func applyJobDefaults(job *Job) {
	if job.Workers < 1 {
		job.Workers = 1
	}
	if job.KeyLength == 0 {
		job.KeyLength = wrapper.KeyLengthAES256
	}
	if job.MaxFileSize == 0 {
		job.MaxFileSize = DefaultMaxFileSize
	}
}

// checkJob validates a job without touching the filesystem beyond stat calls
func checkJob(job *Job) error {
	if job.InputRoot == "" {
		return pdferrors.NewConfigurationError("input-dir", errors.New("input directory is required"))
	}
	if job.OutputRoot == "" {
		return pdferrors.NewConfigurationError("output-dir", errors.New("output directory is required"))
	}

	info, err := os.Stat(job.InputRoot)
	if err != nil {
		return pdferrors.NewConfigurationError("input-dir",
			fmt.Errorf("input path '%s' is not a valid directory: %w", job.InputRoot, err))
	}
	if !info.IsDir() {
		return pdferrors.NewConfigurationError("input-dir",
			fmt.Errorf("input path '%s' is not a valid directory", job.InputRoot))
	}

	absIn, err := filepath.Abs(job.InputRoot)
	if err != nil {
		return pdferrors.NewConfigurationError("input-dir", err)
	}
	absOut, err := filepath.Abs(job.OutputRoot)
	if err != nil {
		return pdferrors.NewConfigurationError("output-dir", err)
	}
	if filepath.Clean(absIn) == filepath.Clean(absOut) {
		return pdferrors.NewConfigurationError("output-dir",
			errors.New("output directory must differ from the input directory"))
	}

	if !wrapper.ValidKeyLength(job.KeyLength) {
		return pdferrors.NewConfigurationError("key-length",
			fmt.Errorf("unsupported key length %d (must be 40, 128 or 256)", job.KeyLength))
	}
	if job.MaxFileSize < 0 {
		return pdferrors.NewConfigurationError("max-file-size", errors.New("maximum file size must be positive"))
	}

	return nil
}

// Run processes every document under job.InputRoot.
// Per-document failures are recorded in the summary; the returned error is
// reserved for configuration problems, enumeration failures and cancellation.
// On cancellation the summary holds the documents finished so far.
func (s *Service) Run(ctx context.Context, job Job) (*Summary, error) {
	start := time.Now()
	applyJobDefaults(&job)

	if err := checkJob(&job); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(job.OutputRoot, DefaultDirPerm); err != nil {
		return nil, pdferrors.NewConfigurationError("output-dir",
			fmt.Errorf("cannot create output directory %s: %w", job.OutputRoot, err))
	}

	mirror, err := security.NewPathValidator(job.OutputRoot)
	if err != nil {
		return nil, pdferrors.NewConfigurationError("output-dir", err)
	}

	inputRoot, err := filepath.Abs(job.InputRoot)
	if err != nil {
		return nil, pdferrors.NewConfigurationError("input-dir", err)
	}

	var unreadable []string
	search := NewSearch(job.OutputRoot).OnSkip(func(path string, err error) {
		rel, relErr := filepath.Rel(inputRoot, path)
		if relErr != nil {
			rel = path
		}
		unreadable = append(unreadable, rel)
		s.reporter.DirectorySkipped(rel, err)
	})

	refs, err := search.Discover(job.InputRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to discover documents: %w", err)
	}

	summary := newSummary(uuid.NewString(), len(refs))
	summary.UnreadableDirs = unreadable
	s.reporter.Started(summary.RunID, &job, len(refs))

	r := &run{
		job:       job,
		mirror:    mirror,
		validator: NewValidator(job.MaxFileSize, s.factory),
	}

	results, runErr := s.dispatch(ctx, r, refs)
	for _, result := range results {
		// Documents never started because of cancellation have no outcome.
		if result.Outcome != "" {
			summary.add(result)
		}
	}

	summary.Duration = time.Since(start)
	s.reporter.Finished(summary)

	return summary, runErr
}

// dispatch processes refs sequentially or with a worker pool.
// Results are stored by enumeration index so the summary order never depends on scheduling.
func (s *Service) dispatch(ctx context.Context, r *run, refs []DocumentRef) ([]Result, error) {
	results := make([]Result, len(refs))

	workers := min(r.job.Workers, len(refs))
	if workers <= 1 {
		for i, ref := range refs {
			if err := ctx.Err(); err != nil {
				return results, err
			}
			results[i] = s.processDocument(r, ref)
			s.reporter.DocumentDone(results[i])
		}
		return results, nil
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = s.processDocument(r, refs[i])
				s.reporter.DocumentDone(results[i])
			}
		}()
	}

	var err error
feed:
	for i := range refs {
		select {
		case <-ctx.Done():
			err = ctx.Err()
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	return results, err
}

// processDocument converts one document and never lets its failure escape
func (s *Service) processDocument(r *run, ref DocumentRef) Result {
	start := time.Now()

	result := Result{Ref: ref}
	result.Outcome, result.Err = s.convert(r, &result)
	result.Duration = time.Since(start)

	return result
}

// stateOf maps an inspection onto the document state
func stateOf(info *wrapper.Inspection) DocumentState {
	if info.Encrypted {
		return StateEncrypted
	}
	return StatePlain
}

// convert runs the per-document pipeline, filling Pages and Encryption of result as they become known
func (s *Service) convert(r *run, result *Result) (Outcome, error) {
	ref := result.Ref
	fail := func(stage pdferrors.Stage, err error) (Outcome, error) {
		return OutcomeSkippedError, pdferrors.NewProcessingError(ref.RelPath, stage, err)
	}

	_, outPath, err := r.mirror.MirrorPath(r.job.InputRoot, ref.Path)
	if err != nil {
		return fail(pdferrors.StageValidate, err)
	}

	if err := r.validator.ValidateFile(ref.Path); err != nil {
		return fail(pdferrors.StageValidate, err)
	}

	data, err := os.ReadFile(ref.Path)
	if err != nil {
		return fail(pdferrors.StageRead, err)
	}

	info, err := s.codec.Inspect(data, r.job.CurrentPassword)
	if err != nil {
		if pdferrors.IsWrongPassword(err) {
			return OutcomeSkippedWrongPassword, &pdferrors.WrongPasswordError{Path: ref.RelPath}
		}
		return fail(pdferrors.StageInspect, err)
	}

	var (
		out       []byte
		outcome   Outcome
		encrypted bool
	)

	state := stateOf(info)
	result.Encryption = info.Encryption

	switch {
	case state == StatePlain && r.job.EncryptPlain && r.job.NewPassword != "":
		out, err = s.codec.Encrypt(data, r.job.NewPassword, r.job.KeyLength)
		if err != nil {
			return fail(pdferrors.StageEncrypt, err)
		}
		outcome, encrypted = OutcomeCopiedAndEncrypted, true

	case state == StatePlain:
		out, outcome = data, OutcomeCopiedUnencrypted

	default:
		plain, err := s.codec.Decrypt(data, r.job.CurrentPassword)
		if err != nil {
			if pdferrors.IsWrongPassword(err) {
				return OutcomeSkippedWrongPassword, &pdferrors.WrongPasswordError{Path: ref.RelPath}
			}
			return fail(pdferrors.StageDecrypt, err)
		}

		if r.job.NewPassword == "" {
			out, outcome = plain, OutcomeDecryptedRewritten
			break
		}

		out, err = s.codec.Encrypt(plain, r.job.NewPassword, r.job.KeyLength)
		if err != nil {
			return fail(pdferrors.StageEncrypt, err)
		}
		outcome, encrypted = OutcomeDecryptedReencrypted, true
	}

	if r.job.Verify {
		password := ""
		if encrypted {
			password = r.job.NewPassword
		}
		if err := r.validator.VerifyOutput(out, encrypted, password, info.Pages); err != nil {
			return fail(pdferrors.StageVerify, err)
		}
	}

	if err := writeFileAtomic(outPath, out); err != nil {
		return fail(pdferrors.StageWrite, err)
	}

	result.Pages = info.Pages
	return outcome, nil
}

// writeFileAtomic replaces path with data via a temporary file in the same directory,
// so an interrupted write never leaves a truncated document behind.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, DefaultDirPerm); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	if err := os.Chmod(tmpName, DefaultFilePerm); err != nil {
		return fmt.Errorf("failed to set permissions on %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}

	return nil
}

// ListDocuments returns the documents a run over root would process
func (s *Service) ListDocuments(root string) ([]DocumentRef, error) {
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return nil, pdferrors.NewConfigurationError("input-dir",
			fmt.Errorf("input path '%s' is not a valid directory", root))
	}
	return NewSearch().Discover(root)
}

// DescribeDocuments lists the documents under root and inspects each one with password.
// Inspection failures are reported per document.
func (s *Service) DescribeDocuments(root, password string) ([]DocumentInfo, error) {
	refs, err := s.ListDocuments(root)
	if err != nil {
		return nil, err
	}

	validator := NewValidator(DefaultMaxFileSize, s.factory)
	infos := make([]DocumentInfo, 0, len(refs))
	for _, ref := range refs {
		doc := DocumentInfo{Ref: ref}

		if err := validator.ValidateFile(ref.Path); err != nil {
			doc.Err = err
			infos = append(infos, doc)
			continue
		}

		data, err := os.ReadFile(ref.Path)
		if err != nil {
			doc.Err = err
			infos = append(infos, doc)
			continue
		}

		inspection, err := s.codec.Inspect(data, password)
		if err != nil {
			if pdferrors.IsWrongPassword(err) {
				// Encrypted for sure, but nothing else is readable without the password
				doc.State = StateEncrypted
				err = &pdferrors.WrongPasswordError{Path: ref.RelPath}
			}
			doc.Err = err
			infos = append(infos, doc)
			continue
		}

		doc.State = stateOf(inspection)
		doc.Pages = inspection.Pages
		doc.Encryption = inspection.Encryption
		infos = append(infos, doc)
	}

	return infos, nil
}
