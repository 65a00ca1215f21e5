package report

import (
	"fmt"
	"io"
	"strings"

	"lexharvest/internal/model"
)

// sampleSize is how many names the console summary shows.
const sampleSize = 10

// SimpleWriter outputs human-readable text reports.
// This format is designed for terminal display after a run completes.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors by default because:
// 1. It works in all terminals without compatibility issues
// 2. It's easier to pipe to files or other tools
// 3. Color can be added as an option later if needed
type SimpleWriter struct {
	baseWriter

	// verbose enables additional detail in the output.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the run summary in human-readable format.
func (w *SimpleWriter) Write(report *model.RunReport) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, report)
	w.writeSummary(&sb, report)
	w.writeSample(&sb, report)

	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the report header with endpoint information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *model.RunReport) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                       EXTRACTION REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	fmt.Fprintf(sb, "Endpoint:       %s\n", report.BaseURL)
	fmt.Fprintf(sb, "API Version:    %s\n", report.Version)
	fmt.Fprintf(sb, "Date:           %s\n", report.DateExtracted.Format("2006-01-02 15:04:05 MST"))

	switch {
	case report.ErrorMessage != "":
		fmt.Fprintf(sb, "Status:         ERROR - %s\n", report.ErrorMessage)
	case report.Truncated:
		sb.WriteString("Status:         TRUNCATED (safety ceiling hit, partial results)\n")
	default:
		sb.WriteString("Status:         Complete\n")
	}

	sb.WriteString("\n")
}

// writeSummary writes the run counters.
func (w *SimpleWriter) writeSummary(sb *strings.Builder, report *model.RunReport) {
	fmt.Fprintf(sb, "Total requests made:  %d\n", report.RequestCount)
	fmt.Fprintf(sb, "Total names found:    %d\n", report.NameCount())
	fmt.Fprintf(sb, "Prefixes explored:    %d\n", report.PrefixesExplored)
	fmt.Fprintf(sb, "Time elapsed:         %.2f seconds\n", report.ElapsedTime.Seconds())

	if w.verbose {
		fmt.Fprintf(sb, "Request interval:     %s\n", report.RequestInterval)
		if report.RateLimited {
			sb.WriteString("Rate limiting:        observed during calibration\n")
		}
		if len(report.PerformedSteps) > 0 {
			fmt.Fprintf(sb, "Steps performed:      %s\n", strings.Join(report.PerformedSteps, ", "))
		}
	}

	sb.WriteString("\n")
}

// writeSample writes the first few names of the sorted vocabulary.
func (w *SimpleWriter) writeSample(sb *strings.Builder, report *model.RunReport) {
	sample := report.Sample(sampleSize)
	if len(sample) == 0 {
		sb.WriteString("No names discovered.\n")
		return
	}

	fmt.Fprintf(sb, "First %d names (sorted):\n", len(sample))
	for _, name := range sample {
		fmt.Fprintf(sb, "  %s\n", name)
	}
}
