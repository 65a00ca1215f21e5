package report

import (
	"io"
	"sort"
	"strconv"

	"github.com/nao1215/markdown"

	"lexharvest/internal/model"
)

// MarkdownWriter outputs reports in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the run report in Markdown format.
func (w *MarkdownWriter) Write(report *model.RunReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeCalibration(md, report)
	w.writeSample(md, report)

	return len(md.String()), md.Build()
}

// writeHeader writes the run overview table.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.RunReport) {
	md.H1("Vocabulary Extraction Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Endpoint", "`" + report.BaseURL + "`"},
			{"API Version", report.Version},
			{"Date", report.DateExtracted.Format("2006-01-02 15:04:05 MST")},
			{"Requests", strconv.Itoa(report.RequestCount)},
			{"Prefixes Explored", strconv.Itoa(report.PrefixesExplored)},
			{"Unique Names", strconv.Itoa(report.NameCount())},
			{"Elapsed", report.ElapsedTime.String()},
			{"Status", w.getStatusText(report)},
		},
	})
	md.PlainText("")
}

// getStatusText returns the status text based on report state.
func (w *MarkdownWriter) getStatusText(report *model.RunReport) string {
	if report.ErrorMessage != "" {
		return "❌ Error - " + report.ErrorMessage
	}
	if report.Truncated {
		return "⚠️ Truncated (partial results)"
	}
	return "✅ Complete"
}

// writeCalibration writes the version discovery table when discovery ran.
func (w *MarkdownWriter) writeCalibration(md *markdown.Markdown, report *model.RunReport) {
	if len(report.VersionCounts) == 0 {
		return
	}

	md.H2("Version Discovery")
	md.PlainText("")

	versions := make([]string, 0, len(report.VersionCounts))
	for v := range report.VersionCounts {
		versions = append(versions, v)
	}
	sort.Strings(versions)

	rows := make([][]string, 0, len(versions))
	for _, v := range versions {
		chosen := ""
		if v == report.Version {
			chosen = "✅"
		}
		rows = append(rows, []string{v, strconv.Itoa(report.VersionCounts[v]), chosen})
	}

	md.Table(markdown.TableSet{
		Header: []string{"Version", "Result Count", "Chosen"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeSample writes the first few discovered names.
func (w *MarkdownWriter) writeSample(md *markdown.Markdown, report *model.RunReport) {
	md.H2("Sample Names")
	md.PlainText("")

	sample := report.Sample(sampleSize)
	if len(sample) == 0 {
		md.PlainText("No names discovered.")
		return
	}

	md.BulletList(sample...)
	md.PlainText("")
}
