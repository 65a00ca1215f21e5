package model

import (
	"sort"
	"time"
)

// RunReport is the result of one extraction run against one endpoint.
// It accumulates state as the pipeline advances: calibration fills in the
// version and interval, exploration fills in the vocabulary and counters.
//
// Design decision: We use a single struct for the whole run rather than
// separate calibration and crawl results because every consumer (report
// writers, the database, the history command) wants the combined view, and
// a single struct keeps serialization trivial.
type RunReport struct {
	// BaseURL is the autocomplete endpoint this run extracted.
	BaseURL string `json:"base_url"`

	// Version is the API version used for the crawl, either pinned by the
	// operator or chosen by version discovery.
	Version string `json:"version"`

	// RequestInterval is the steady-state pacing interval used for the
	// crawl, either pinned or measured by rate discovery.
	RequestInterval time.Duration `json:"request_interval"`

	// RateLimited records whether the rate probe observed a 429 response.
	RateLimited bool `json:"rate_limited"`

	// VersionCounts holds the result count observed per candidate version
	// during discovery. Empty when the version was pinned.
	VersionCounts map[string]int `json:"version_counts,omitempty"`

	// DateExtracted is the timestamp when the run started.
	DateExtracted time.Time `json:"date_extracted"`

	// Names is the discovered vocabulary, sorted and deduplicated.
	Names []string `json:"names"`

	// RequestCount is the total number of HTTP requests issued during the
	// run, including retries and calibration probes.
	RequestCount int `json:"request_count"`

	// PrefixesExplored is the number of prefixes dequeued and processed.
	PrefixesExplored int `json:"prefixes_explored"`

	// ElapsedTime is the wall-clock duration of the crawl.
	ElapsedTime time.Duration `json:"elapsed_time"`

	// Truncated is true when a safety valve (depth or request ceiling)
	// stopped the crawl before the frontier drained. The vocabulary may be
	// incomplete in that case.
	Truncated bool `json:"truncated,omitempty"`

	// PerformedSteps lists the pipeline steps that ran, in order.
	PerformedSteps []string `json:"performed_steps,omitempty"`

	// Error holds the first critical error encountered, if any.
	// Not serialized; ErrorMessage carries the text.
	Error error `json:"-"`

	// ErrorMessage is the human-readable form of Error.
	ErrorMessage string `json:"error,omitempty"`
}

// NewRunReport creates a RunReport for the given endpoint with the
// extraction timestamp set to now.
func NewRunReport(baseURL string) *RunReport {
	return &RunReport{
		BaseURL:       baseURL,
		DateExtracted: time.Now(),
		Names:         []string{},
	}
}

// SetNames stores the vocabulary, sorted. The explorer already deduplicates;
// sorting here keeps reporting deterministic regardless of discovery order.
func (r *RunReport) SetNames(names []string) {
	sorted := make([]string, len(names))
	copy(sorted, names)
	sort.Strings(sorted)
	r.Names = sorted
}

// NameCount returns the number of unique names discovered.
func (r *RunReport) NameCount() int {
	return len(r.Names)
}

// Sample returns up to n names from the front of the sorted vocabulary.
// Used by the console summary to show a taste of the result.
func (r *RunReport) Sample(n int) []string {
	if n > len(r.Names) {
		n = len(r.Names)
	}
	return r.Names[:n]
}

// Progress is one progress observation emitted during the crawl.
type Progress struct {
	// Prefix is the prefix being explored when the observation was taken.
	Prefix string

	// PrefixesExplored is the number of prefixes dequeued so far.
	PrefixesExplored int

	// NamesFound is the size of the name set so far.
	NamesFound int

	// Requests is the number of HTTP requests issued so far.
	Requests int
}
