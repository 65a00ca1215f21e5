package report

import (
	"encoding/json"
	"io"

	"lexharvest/internal/model"
)

// Document is the persisted JSON shape: a small metadata section followed
// by the sorted vocabulary. Downstream tooling diffs these files between
// runs, so the shape stays stable and minimal.
type Document struct {
	Metadata Metadata `json:"metadata"`
	Names    []string `json:"names"`
}

// Metadata describes the run that produced the vocabulary.
type Metadata struct {
	BaseURL      string `json:"base_url"`
	Version      string `json:"version"`
	RequestCount int    `json:"request_count"`
	TotalNames   int    `json:"total_names"`
}

// NewDocument builds the persisted document from a run report.
func NewDocument(report *model.RunReport) *Document {
	return &Document{
		Metadata: Metadata{
			BaseURL:      report.BaseURL,
			Version:      report.Version,
			RequestCount: report.RequestCount,
			TotalNames:   report.NameCount(),
		},
		Names: report.Names,
	}
}

// JSONWriter outputs reports in JSON format.
// This format is designed for tool integration and programmatic processing.
//
// Design decision: We use standard encoding/json rather than a third-party
// JSON library because:
// 1. It's part of the standard library (no extra dependencies)
// 2. It's sufficient for our needs
// 3. It provides consistent behavior across Go versions
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	// When false, output is compact (no extra whitespace).
	indent bool

	// indentPrefix is the prefix for each line in indented output.
	indentPrefix string

	// indentString is the indentation string (typically "  " or "\t").
	indentString string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
// The prefix is prepended to each line, and indent is used for each level.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint enables pretty-printed JSON with default indentation.
// This is a convenience wrapper for WithIndent("", "  ").
func WithPrettyPrint() JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = ""
		w.indentString = "  "
	}
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the run report as the persisted JSON document.
func (w *JSONWriter) Write(report *model.RunReport) (int, error) {
	var data []byte
	var err error

	doc := NewDocument(report)
	if w.indent {
		data, err = json.MarshalIndent(doc, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(doc)
	}
	if err != nil {
		return 0, err
	}

	// Add trailing newline for better terminal output
	data = append(data, '\n')

	return w.output.Write(data)
}
