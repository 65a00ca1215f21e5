package client

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// Outcome is the tagged result of one resilient request: either a parsed
// payload (Err nil) or a failure after the retry budget ran out. The caller
// treats a failed Outcome as "no data for this prefix" and keeps going.
type Outcome struct {
	// Payload is the raw JSON body of a successful response.
	Payload json.RawMessage

	// Attempts is the number of attempts consumed, including the
	// successful one. Useful for tests and diagnostics.
	Attempts int

	// Err is nil on success. On failure it wraps the last failure class
	// observed (ErrRateLimited, ErrUnexpectedStatus, or the transport
	// error), combined with ErrRetriesExhausted when the budget ran out.
	Err error
}

// OK reports whether the request ultimately succeeded.
func (o Outcome) OK() bool {
	return o.Err == nil
}

// Requester wraps a Client with retry, backoff, and pacing policy.
// It owns the process-wide request counter used for progress reporting.
//
// Two distinct delay policies live here and must not be merged:
//
//   - failure backoff: (attempt+1) * retryDelay after a 429 or a transport
//     failure, linear in the attempt index
//   - steady-state pacing: a fixed interval between consecutive attempts,
//     applied after every attempt regardless of its result
//
// The backoff schedule answers "the endpoint is unhappy"; the pacing
// interval answers "never be the reason it becomes unhappy".
type Requester struct {
	// client performs the raw requests.
	client *Client

	// maxRetries is the attempt budget for one logical request.
	// Rate-limit responses and transport failures share it.
	maxRetries int

	// retryDelay is the base delay for linear failure backoff.
	retryDelay time.Duration

	// pacer enforces the steady-state interval between attempts.
	// nil means pacing is disabled (interval zero).
	pacer *rate.Limiter

	// interval is the configured steady-state interval, kept for reporting.
	interval time.Duration

	// mu guards pacer and interval against SetInterval during calibration.
	mu sync.Mutex

	// requests counts every HTTP request that reached the endpoint.
	requests atomic.Int64

	// logger for structured logging.
	logger *slog.Logger
}

// RequesterOption configures a Requester.
type RequesterOption func(*Requester)

// WithMaxRetries sets the attempt budget for one logical request.
func WithMaxRetries(n int) RequesterOption {
	return func(r *Requester) {
		if n > 0 {
			r.maxRetries = n
		}
	}
}

// WithRetryDelay sets the base delay for linear failure backoff.
func WithRetryDelay(d time.Duration) RequesterOption {
	return func(r *Requester) {
		r.retryDelay = d
	}
}

// WithInterval sets the steady-state pacing interval.
// Zero disables pacing; calibration typically calls SetInterval later
// with the measured safe value.
func WithInterval(d time.Duration) RequesterOption {
	return func(r *Requester) {
		r.setInterval(d)
	}
}

// WithRequesterLogger sets a custom logger.
func WithRequesterLogger(logger *slog.Logger) RequesterOption {
	return func(r *Requester) {
		r.logger = logger
	}
}

// NewRequester creates a Requester with the given client and options.
func NewRequester(client *Client, opts ...RequesterOption) *Requester {
	r := &Requester{
		client:     client,
		maxRetries: 3,
		retryDelay: 1 * time.Second,
	}

	for _, opt := range opts {
		opt(r)
	}

	if r.logger == nil {
		r.logger = slog.Default()
	}

	return r
}

// SetInterval replaces the steady-state pacing interval. Rate calibration
// calls this once before the crawl starts; the crawl itself never changes it.
func (r *Requester) SetInterval(d time.Duration) {
	r.setInterval(d)
}

func (r *Requester) setInterval(d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.interval = d
	if d <= 0 {
		r.pacer = nil
		return
	}
	// Burst 1: the limiter releases one request per interval, which is
	// exactly the "sleep interval after every attempt" cadence.
	r.pacer = rate.NewLimiter(rate.Every(d), 1)
}

// Interval returns the current steady-state pacing interval.
func (r *Requester) Interval() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.interval
}

// Requests returns the total number of HTTP requests issued so far,
// across all Fetch calls on this Requester.
func (r *Requester) Requests() int {
	return int(r.requests.Load())
}

// CountRequest increments the request counter. Calibration probes that
// bypass Fetch (the raw burst probe) call this so the final tally covers
// every request sent to the endpoint.
func (r *Requester) CountRequest() {
	r.requests.Add(1)
}

// Fetch performs one logical request for the given prefix with retries.
//
// Policy, per failure class:
//   - 429: wait (attempt+1)*retryDelay, retry within the budget
//   - transport failure: same backoff schedule, same shared budget
//   - other non-200: immediate failure, no retry (the endpoint answered
//     deliberately; hammering it will not change the answer)
//
// Exhausting the budget degrades to a failed Outcome, never an abort.
// After every attempt the steady-state pacer runs, keeping request cadence
// independent of the backoff schedule.
func (r *Requester) Fetch(ctx context.Context, prefix, version string, limit int) Outcome {
	var out Outcome

	for attempt := 0; attempt < r.maxRetries; attempt++ {
		resp, err := r.client.Autocomplete(ctx, prefix, version, limit)
		out.Attempts++

		switch {
		case err != nil:
			// Transport failure. Retry on the backoff schedule unless
			// this was the last attempt.
			out.Err = fmt.Errorf("%w: %w", ErrRetriesExhausted, err)
			r.logger.Debug("request failed",
				"prefix", prefix,
				"attempt", attempt+1,
				"error", err,
			)
			if attempt < r.maxRetries-1 {
				if werr := r.backoff(ctx, attempt); werr != nil {
					out.Err = werr
					return out
				}
			}

		case resp.StatusCode == 429:
			r.requests.Add(1)
			out.Err = fmt.Errorf("%w: %w", ErrRetriesExhausted, ErrRateLimited)
			r.logger.Debug("rate limited",
				"prefix", prefix,
				"attempt", attempt+1,
			)
			if attempt < r.maxRetries-1 {
				if werr := r.backoff(ctx, attempt); werr != nil {
					out.Err = werr
					return out
				}
			}

		case resp.StatusCode == 200:
			r.requests.Add(1)
			out.Payload = resp.Body
			out.Err = nil
			r.pace(ctx)
			return out

		default:
			// The endpoint answered with a deliberate error. Not retryable.
			r.requests.Add(1)
			out.Err = fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
			r.logger.Warn("unexpected status",
				"prefix", prefix,
				"status", resp.StatusCode,
			)
			r.pace(ctx)
			return out
		}

		r.pace(ctx)
	}

	return out
}

// BoundRequester is a Requester with the API version and page limit fixed.
// The explorer works per-prefix and should not carry protocol parameters;
// binding them here keeps its fetch contract down to (ctx, prefix).
type BoundRequester struct {
	r       *Requester
	version string
	limit   int
}

// Bind fixes the version and page limit chosen by calibration, returning a
// fetcher suitable for the explorer.
func (r *Requester) Bind(version string, limit int) *BoundRequester {
	return &BoundRequester{r: r, version: version, limit: limit}
}

// Fetch performs one resilient request for the prefix.
func (b *BoundRequester) Fetch(ctx context.Context, prefix string) Outcome {
	return b.r.Fetch(ctx, prefix, b.version, b.limit)
}

// Requests returns the total requests issued by the underlying Requester.
func (b *BoundRequester) Requests() int {
	return b.r.Requests()
}

// backoff sleeps the linear failure backoff for the given attempt index,
// respecting context cancellation.
func (r *Requester) backoff(ctx context.Context, attempt int) error {
	wait := time.Duration(attempt+1) * r.retryDelay
	if wait <= 0 {
		return nil
	}

	r.logger.Debug("backing off", "wait", wait)

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// pace enforces the steady-state request interval. Cancellation during
// pacing is not an error worth surfacing; the next operation will see the
// dead context anyway.
func (r *Requester) pace(ctx context.Context) {
	r.mu.Lock()
	pacer := r.pacer
	r.mu.Unlock()

	if pacer == nil {
		return
	}
	_ = pacer.Wait(ctx) //nolint:errcheck // cancellation surfaces on the next request
}
