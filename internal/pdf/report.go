package pdf

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/cheggaaa/pb/v3"
)

// Reporter receives progress events from a batch run.
// DocumentDone may be called from several goroutines; implementations serialize it.
type Reporter interface {
	DirectorySkipped(relPath string, err error)
	Started(runID string, job *Job, total int)
	DocumentDone(result Result)
	Finished(summary *Summary)
}

// outcomeOrder fixes the order outcomes are listed in summaries
var outcomeOrder = []Outcome{
	OutcomeCopiedUnencrypted,
	OutcomeCopiedAndEncrypted,
	OutcomeDecryptedRewritten,
	OutcomeDecryptedReencrypted,
	OutcomeSkippedWrongPassword,
	OutcomeSkippedError,
}

var outcomeLabels = map[Outcome]string{
	OutcomeCopiedUnencrypted:    "Copied (not encrypted)",
	OutcomeCopiedAndEncrypted:   "Copied and encrypted",
	OutcomeDecryptedRewritten:   "Decrypted",
	OutcomeDecryptedReencrypted: "Decrypted and re-encrypted",
	OutcomeSkippedWrongPassword: "Skipped (wrong password)",
	OutcomeSkippedError:         "Skipped (error)",
}

// FormatSummary renders a summary as the block printed at the end of a run
func FormatSummary(summary *Summary) string {
	var b strings.Builder

	b.WriteString("----- SUMMARY -----\n")
	fmt.Fprintf(&b, "%-28s %s\n", "Run:", summary.RunID)
	fmt.Fprintf(&b, "%-28s %d\n", "Documents found:", summary.Total())
	for _, outcome := range outcomeOrder {
		count := summary.Counts[outcome]
		if count == 0 && outcome == OutcomeCopiedAndEncrypted {
			continue
		}
		fmt.Fprintf(&b, "%-28s %d\n", outcomeLabels[outcome]+":", count)
	}
	fmt.Fprintf(&b, "%-28s %d\n", "Processed:", summary.Processed())
	fmt.Fprintf(&b, "%-28s %d\n", "Skipped:", summary.Skipped())
	if len(summary.UnreadableDirs) > 0 {
		fmt.Fprintf(&b, "%-28s %d\n", "Unreadable directories:", len(summary.UnreadableDirs))
	}
	fmt.Fprintf(&b, "%-28s %s\n", "Duration:", summary.Duration.Round(time.Millisecond))

	return b.String()
}

// FormatResult renders the diagnostic line for one document, or "" when there is nothing to say
func FormatResult(result Result) string {
	switch result.Outcome {
	case OutcomeCopiedUnencrypted:
		return fmt.Sprintf("Note: '%s' is not encrypted. Copying file directly.", result.Ref.RelPath)
	case OutcomeSkippedWrongPassword:
		return fmt.Sprintf("Error: Incorrect password for '%s'. Skipping file.", result.Ref.RelPath)
	case OutcomeSkippedError:
		return fmt.Sprintf("Error: could not process '%s': %v. Skipping file.", result.Ref.RelPath, result.Err)
	default:
		return ""
	}
}

// ConsoleReporter prints status lines and a progress bar
type ConsoleReporter struct {
	mu       sync.Mutex
	out      io.Writer
	errOut   io.Writer
	progress bool
	debug    bool
	bar      *pb.ProgressBar
}

// NewConsoleReporter creates a reporter writing status to out and diagnostics to errOut.
// Nil writers default to stdout and stderr.
func NewConsoleReporter(out, errOut io.Writer, progress, debug bool) *ConsoleReporter {
	if out == nil {
		out = os.Stdout
	}
	if errOut == nil {
		errOut = os.Stderr
	}
	return &ConsoleReporter{
		out:      out,
		errOut:   errOut,
		progress: progress,
		debug:    debug,
	}
}

// DirectorySkipped implements Reporter
func (r *ConsoleReporter) DirectorySkipped(relPath string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	fmt.Fprintf(r.errOut, "Warning: cannot read directory '%s': %v. Skipping its files.\n", relPath, err)
}

// Started implements Reporter
func (r *ConsoleReporter) Started(runID string, job *Job, total int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.debug {
		log.Printf("run %s: input=%s output=%s workers=%d", runID, job.InputRoot, job.OutputRoot, job.Workers)
	}

	fmt.Fprintf(r.out, "Output directory '%s' has been verified or created.\n", job.OutputRoot)
	if total == 0 {
		fmt.Fprintf(r.out, "No PDF files found in '%s' or any of its subdirectories.\n", job.InputRoot)
		return
	}
	fmt.Fprintf(r.out, "Found %d PDF files. Starting process...\n", total)

	if r.progress {
		r.bar = pb.New(total).
			SetTemplateString(`{{ string . "prefix" }} {{ counters . }} {{ bar . " " "━" "━" " " " "}} {{percent .}} {{rtime .}}`).
			SetWriter(r.out).
			Set("prefix", "Processing PDFs").
			Start()
	}
}

// DocumentDone implements Reporter
func (r *ConsoleReporter) DocumentDone(result Result) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// out carries the progress bar; diagnostics must not interleave with its redraws
	if line := FormatResult(result); line != "" {
		fmt.Fprintln(r.errOut, line)
	}

	if r.debug {
		encryption := "not encrypted"
		if result.Encryption != nil {
			encryption = result.Encryption.String()
		}
		log.Printf("%s: %s (%d pages, %s, %s)", result.Ref.RelPath, result.Outcome, result.Pages, encryption, result.Duration)
	}

	if r.bar != nil {
		r.bar.Increment()
	}
}

// Finished implements Reporter
func (r *ConsoleReporter) Finished(summary *Summary) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.bar != nil {
		r.bar.Finish()
		r.bar = nil
	}

	if summary.Total() == 0 {
		return
	}

	fmt.Fprintln(r.out)
	fmt.Fprint(r.out, FormatSummary(summary))
	if summary.Skipped() == 0 {
		fmt.Fprintln(r.out, "All files have been processed successfully!")
	} else {
		fmt.Fprintf(r.out, "Finished with %d skipped file(s).\n", summary.Skipped())
	}
}

// NopReporter discards all events
type NopReporter struct{}

func (NopReporter) DirectorySkipped(string, error) {}
func (NopReporter) Started(string, *Job, int) {}
func (NopReporter) DocumentDone(Result) {}
func (NopReporter) Finished(*Summary) {}
