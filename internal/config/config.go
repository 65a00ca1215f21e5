package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
// These mirror the behavior the extractor was tuned against: a paginated
// autocomplete endpoint with an unknown dataset, an unknown pagination cap,
// and an unknown throttling policy that must be discovered empirically.
const (
	// DefaultAlphabet is the prefix alphabet: lowercase letters, uppercase
	// letters, and digits (62 symbols). Names unreachable through this
	// alphabet are out of scope.
	DefaultAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	// DefaultPageLimit is the page size requested from the endpoint.
	// A response carrying this many candidates is treated as possibly
	// truncated and triggers prefix expansion.
	DefaultPageLimit = 100

	// DefaultMaxRetries is the attempt budget for one logical request.
	// Rate-limit responses and transport failures share this budget.
	DefaultMaxRetries = 3

	// DefaultRetryDelay is the base delay for failure backoff.
	// The actual wait is (attempt+1) * DefaultRetryDelay, so retries
	// back off linearly: 1s, 2s, 3s.
	DefaultRetryDelay = 1 * time.Second

	// DefaultRequestInterval is the steady-state pause between requests.
	// This is only a starting point; the rate calibration probe replaces
	// it with a measured safe interval before the crawl begins.
	DefaultRequestInterval = 100 * time.Millisecond

	// DefaultMinExpandDepth forces expansion of every prefix shorter than
	// this many characters regardless of page fullness. Short prefixes are
	// assumed truncated even when the endpoint claims otherwise.
	DefaultMinExpandDepth = 3

	// DefaultProgressEvery is the progress-report cadence, measured in
	// dequeued prefixes.
	DefaultProgressEvery = 10

	// DefaultRateProbeBurst is the number of rapid requests issued while
	// probing for rate limits.
	DefaultRateProbeBurst = 50

	// DefaultRateIntervalCap bounds the interval recommended by the rate
	// probe. Even a very slow observed throughput never produces a
	// recommendation above this value.
	DefaultRateIntervalCap = 500 * time.Millisecond

	// DefaultTimeout is the per-request transport timeout. The endpoint is
	// a lightweight autocomplete service, so a short timeout is enough and
	// keeps the retry ladder responsive.
	DefaultTimeout = 5 * time.Second

	// DefaultProbeTimeout is the shorter timeout used by calibration
	// probes. A probe that cannot answer quickly is counted as a miss
	// rather than retried.
	DefaultProbeTimeout = 2 * time.Second

	// DefaultMaxPrefixLength caps how deep the frontier may grow. The
	// full-page heuristic can expand forever against an endpoint that
	// always reports full pages, so a depth ceiling is a safety valve,
	// not an expected stopping condition.
	DefaultMaxPrefixLength = 12

	// DefaultMaxRequests caps the total number of requests in one crawl.
	// This is the second safety valve against pathological endpoints.
	DefaultMaxRequests = 200_000

	// DefaultBatchSize is the number of endpoints extracted concurrently
	// when multiple base URLs are given. Each endpoint's crawl stays
	// strictly sequential internally.
	DefaultBatchSize = 1

	// AppName is the application name used for XDG directory paths.
	AppName = "lexharvest"
)

// DefaultVersions is the candidate list for API version discovery,
// probed in order. Ties on result count keep the earliest candidate.
var DefaultVersions = []string{"v1", "v2", "v3", "v4", "latest"}

// Config holds all configuration options for lexharvest.
// It is populated from CLI flags and the optional config file, then passed
// through the application via dependency injection rather than global state.
//
// Design decision: We use a single flat struct instead of nested structs
// (e.g., CrawlConfig, ReportConfig) for simplicity. The number of options
// is manageable, and nesting would add complexity without significant benefit.
type Config struct {
	// BaseURLs are the autocomplete endpoints to extract, e.g.
	// "http://35.200.185.69:8000". At least one is required.
	BaseURLs []string

	// Version pins the API version. When empty, version discovery runs
	// before the crawl and picks the candidate with the richest results.
	Version string

	// RequestInterval is the steady-state pause between requests.
	// When zero, rate discovery runs before the crawl and measures a
	// safe interval.
	RequestInterval time.Duration

	// Alphabet is the prefix alphabet used to seed and expand the frontier.
	Alphabet string

	// PageLimit is the page size requested from the endpoint. It doubles
	// as the truncation threshold for the full-page heuristic.
	PageLimit int

	// MaxRetries is the attempt budget for one logical request.
	MaxRetries int

	// RetryDelay is the base delay for linear failure backoff.
	RetryDelay time.Duration

	// MinExpandDepth forces expansion of prefixes shorter than this.
	MinExpandDepth int

	// MaxPrefixLength caps frontier depth. Zero or negative disables the
	// cap; leaving it disabled is unsafe against adversarial endpoints.
	MaxPrefixLength int

	// MaxRequests caps total requests per crawl. Zero or negative disables.
	MaxRequests int

	// Timeout is the per-request transport timeout.
	Timeout time.Duration

	// ProxyAddress is an optional SOCKS5 proxy in "host:port" format.
	// Empty means direct connections.
	ProxyAddress string

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool

	// BatchSize is the number of endpoints extracted concurrently.
	BatchSize int

	// ConfigFilePath is the path to the configuration file. If empty, the
	// tool searches for .lexharvest in the current directory and then in
	// the user's home directory.
	ConfigFilePath string

	// Endpoints holds per-endpoint configurations loaded from the config
	// file (custom headers, version candidates, overrides).
	Endpoints *File

	// JSONReport enables JSON report output instead of the human-readable
	// summary. Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport enables Markdown report output.
	// Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is the output file path for the report. When set, the
	// report is written to this file instead of stdout.
	ReportFile string

	// DBDir is the directory for the SQLite run-history database.
	// When empty, runs are not persisted.
	DBDir string

	// SaveToDB indicates whether to save completed runs to the database.
	SaveToDB bool
}

// NewConfig creates a new Config with default values.
//
// Design decision: We use a constructor function instead of relying on
// zero values because many defaults are non-zero (page limit, timeouts,
// the alphabet). This also serves as documentation of what the defaults are.
func NewConfig() *Config {
	return &Config{
		Alphabet:        DefaultAlphabet,
		PageLimit:       DefaultPageLimit,
		MaxRetries:      DefaultMaxRetries,
		RetryDelay:      DefaultRetryDelay,
		MinExpandDepth:  DefaultMinExpandDepth,
		MaxPrefixLength: DefaultMaxPrefixLength,
		MaxRequests:     DefaultMaxRequests,
		Timeout:         DefaultTimeout,
		BatchSize:       DefaultBatchSize,
	}
}

// XDGDataDir returns the XDG data directory for lexharvest.
// On Linux: ~/.local/share/lexharvest
// On macOS: ~/Library/Application Support/lexharvest
// On Windows: %LOCALAPPDATA%\lexharvest
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for lexharvest.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns a specific error describing what is invalid.
//
// Design decision: We validate at the config level rather than at each
// point of use to fail fast and provide clear error messages upfront.
// This is called once after CLI parsing, before calibration begins.
func (c *Config) Validate() error {
	if len(c.BaseURLs) == 0 {
		return ErrNoEndpoint
	}

	// An empty alphabet would seed an empty frontier and find nothing.
	if c.Alphabet == "" {
		return ErrEmptyAlphabet
	}

	// The page limit is the truncation threshold; zero would mark every
	// response as full and expand every prefix.
	if c.PageLimit <= 0 {
		return ErrInvalidPageLimit
	}

	if c.MaxRetries <= 0 {
		return ErrInvalidMaxRetries
	}

	if c.RetryDelay < 0 {
		return ErrInvalidRetryDelay
	}

	if c.RequestInterval < 0 {
		return ErrInvalidInterval
	}

	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}

	// JSONReport and MarkdownReport are mutually exclusive
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	return nil
}
