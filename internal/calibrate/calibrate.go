package calibrate

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"lexharvest/internal/client"
	"lexharvest/internal/normalize"
)

// Prober issues one raw autocomplete request. Satisfied by client.Client;
// tests substitute scripted fakes.
type Prober interface {
	Autocomplete(ctx context.Context, prefix, version string, limit int) (*client.Response, error)
}

// Counter receives one tick per probe so calibration traffic shows up in
// the process-wide request count. Satisfied by client.Requester.
type Counter interface {
	CountRequest()
}

// Calibrator runs the two pre-flight discovery procedures against an
// endpoint before the crawl starts: which API version has the richest
// vocabulary, and how fast the endpoint tolerates being polled.
//
// Design decision: Probes are issued through the raw Prober rather than the
// resilient Requester because:
//  1. Version probes must not retry. A flaky version should score zero, not
//     consume three attempts and a backoff window per candidate.
//  2. Rate probes must run back to back with no pacing at all, which is the
//     opposite of what the Requester enforces.
type Calibrator struct {
	prober       Prober
	versions     []string
	probePrefix  string
	probeTimeout time.Duration
	burst        int
	intervalCap  time.Duration
	limitedPause time.Duration
	counter      Counter
	logger       *slog.Logger

	now func() time.Time
}

// Option configures a Calibrator.
type Option func(*Calibrator)

// WithVersions sets the candidate version identifiers, probed in order.
func WithVersions(versions []string) Option {
	return func(c *Calibrator) {
		if len(versions) > 0 {
			c.versions = versions
		}
	}
}

// WithProbePrefix sets the trivial prefix used by every probe.
func WithProbePrefix(prefix string) Option {
	return func(c *Calibrator) {
		if prefix != "" {
			c.probePrefix = prefix
		}
	}
}

// WithProbeTimeout sets the per-probe timeout.
func WithProbeTimeout(d time.Duration) Option {
	return func(c *Calibrator) {
		if d > 0 {
			c.probeTimeout = d
		}
	}
}

// WithBurst sets the number of rapid requests in the rate probe.
func WithBurst(n int) Option {
	return func(c *Calibrator) {
		if n > 0 {
			c.burst = n
		}
	}
}

// WithIntervalCap bounds the interval the rate probe may recommend.
func WithIntervalCap(d time.Duration) Option {
	return func(c *Calibrator) {
		if d > 0 {
			c.intervalCap = d
		}
	}
}

// WithCounter registers the process-wide request counter.
func WithCounter(counter Counter) Option {
	return func(c *Calibrator) {
		c.counter = counter
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Calibrator) {
		c.logger = logger
	}
}

// Default calibration parameters.
const (
	defaultProbePrefix  = "a"
	defaultProbeTimeout = 2 * time.Second
	defaultBurst        = 50
	defaultIntervalCap  = 500 * time.Millisecond

	// limitedPause is recommended when the rate probe trips a 429.
	defaultLimitedPause = 1 * time.Second
)

// defaultVersions is probed in order when WithVersions is not given.
var defaultVersions = []string{"v1", "v2", "v3", "v4", "latest"}

// New creates a Calibrator probing through the given Prober.
func New(prober Prober, opts ...Option) *Calibrator {
	c := &Calibrator{
		prober:       prober,
		versions:     defaultVersions,
		probePrefix:  defaultProbePrefix,
		probeTimeout: defaultProbeTimeout,
		burst:        defaultBurst,
		intervalCap:  defaultIntervalCap,
		limitedPause: defaultLimitedPause,
		now:          time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.logger == nil {
		c.logger = slog.Default()
	}

	return c
}

// VersionResult is the outcome of version discovery.
type VersionResult struct {
	// Version is the chosen identifier.
	Version string

	// Counts maps every probed version to its observed result count.
	// Failed probes score zero.
	Counts map[string]int
}

// RateResult is the outcome of rate discovery.
type RateResult struct {
	// Interval is the recommended steady-state pause between requests.
	Interval time.Duration

	// RateLimited is true when the probe burst tripped a 429.
	RateLimited bool

	// Requests is the number of probes that completed.
	Requests int

	// Rate is the observed throughput in requests per second. Zero when
	// the burst was rate-limited.
	Rate float64
}

// DiscoverVersion probes every candidate version once with the trivial
// prefix and picks the one reporting the most results. Ties keep the
// earliest-tried candidate, and a failed probe scores zero rather than
// aborting discovery. When nothing scores at all, the first candidate is
// kept as a best guess.
func (c *Calibrator) DiscoverVersion(ctx context.Context) (*VersionResult, error) {
	result := &VersionResult{
		Version: c.versions[0],
		Counts:  make(map[string]int, len(c.versions)),
	}

	best := 0
	for _, version := range c.versions {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		count := c.probeVersion(ctx, version)
		result.Counts[version] = count

		c.logger.Info("version probed", "version", version, "count", count)

		if count > best {
			best = count
			result.Version = version
		}
	}

	c.logger.Info("version discovery complete",
		"version", result.Version,
		"count", best,
	)
	return result, nil
}

// probeVersion issues one unretried probe and returns its result count.
func (c *Calibrator) probeVersion(ctx context.Context, version string) int {
	probeCtx, cancel := context.WithTimeout(ctx, c.probeTimeout)
	defer cancel()

	resp, err := c.prober.Autocomplete(probeCtx, c.probePrefix, version, 0)
	if err != nil {
		c.logger.Debug("version probe failed", "version", version, "error", err)
		return 0
	}
	if c.counter != nil {
		c.counter.CountRequest()
	}
	if resp.StatusCode != http.StatusOK {
		c.logger.Debug("version probe rejected",
			"version", version,
			"status", resp.StatusCode,
		)
		return 0
	}

	return normalize.Count(resp.Body)
}

// DiscoverRate fires a burst of back-to-back probes under the given version
// and derives a safe steady-state interval. The burst stops at the first
// rate-limit signal or transport failure.
//
// When the burst trips a 429 the recommendation is a conservative fixed
// pause. Otherwise the recommendation is the reciprocal of half the
// observed throughput, bounded above by the interval cap so a slow probe
// run never talks the crawl into waiting longer than the cap.
func (c *Calibrator) DiscoverRate(ctx context.Context, version string) (*RateResult, error) {
	result := &RateResult{}
	start := c.now()

	for i := 0; i < c.burst; i++ {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		probeCtx, cancel := context.WithTimeout(ctx, c.probeTimeout)
		resp, err := c.prober.Autocomplete(probeCtx, c.probePrefix, version, 0)
		cancel()

		if err != nil {
			c.logger.Debug("rate probe failed, stopping burst", "error", err)
			break
		}

		result.Requests++
		if c.counter != nil {
			c.counter.CountRequest()
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			c.logger.Info("rate limit tripped during burst",
				"requests", result.Requests,
			)
			result.RateLimited = true
			break
		}
	}

	if result.RateLimited {
		result.Interval = c.limitedPause
		return result, nil
	}

	elapsed := c.now().Sub(start)
	if result.Requests == 0 || elapsed <= 0 {
		// Nothing usable was observed; fall back to the cap.
		c.logger.Warn("rate probe observed no traffic, using interval cap")
		result.Interval = c.intervalCap
		return result, nil
	}

	result.Rate = float64(result.Requests) / elapsed.Seconds()
	safe := time.Duration(float64(time.Second) / (result.Rate / 2))
	if safe > c.intervalCap {
		safe = c.intervalCap
	}
	result.Interval = safe

	c.logger.Info("rate discovery complete",
		"requests", result.Requests,
		"elapsed", elapsed,
		"rate", result.Rate,
		"interval", result.Interval,
	)
	return result, nil
}
