package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and provide specific
// information about what is wrong with the configuration.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances in Validate(). This allows callers to use
// errors.Is() for programmatic error handling while still providing
// human-readable messages.
var (
	// ErrNoEndpoint is returned when no base URL is specified.
	ErrNoEndpoint = errors.New("no endpoint specified: provide at least one autocomplete base URL")

	// ErrEmptyAlphabet is returned when the prefix alphabet is empty.
	// An empty alphabet would seed an empty frontier.
	ErrEmptyAlphabet = errors.New("empty alphabet: at least one prefix character is required")

	// ErrInvalidPageLimit is returned when the page limit is not positive.
	// The limit doubles as the truncation threshold, so zero would mark
	// every page as full.
	ErrInvalidPageLimit = errors.New("invalid page limit: must be positive")

	// ErrInvalidMaxRetries is returned when the retry budget is not positive.
	// A budget of zero would mean no request is ever attempted.
	ErrInvalidMaxRetries = errors.New("invalid max retries: must be positive")

	// ErrInvalidRetryDelay is returned when the retry delay is negative.
	// Use 0 for immediate retries.
	ErrInvalidRetryDelay = errors.New("invalid retry delay: must be non-negative")

	// ErrInvalidInterval is returned when the request interval is negative.
	// Use 0 to let rate calibration measure a safe interval.
	ErrInvalidInterval = errors.New("invalid request interval: must be non-negative")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	// A timeout of zero or negative would cause immediate request failures.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidBatchSize is returned when the batch size is not positive.
	ErrInvalidBatchSize = errors.New("invalid batch size: must be positive")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified. Only one output format can be used at a time.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")
)
