package explorer

import (
	"context"
	"log/slog"
	"sort"
	"time"
	"unicode/utf8"

	"lexharvest/internal/client"
	"lexharvest/internal/model"
	"lexharvest/internal/normalize"
)

// Fetcher issues one resilient request for a prefix and tracks the
// process-wide request count. In production this is a client.BoundRequester;
// tests substitute scripted fakes.
type Fetcher interface {
	// Fetch performs one logical request for the prefix, retries included.
	Fetch(ctx context.Context, prefix string) client.Outcome

	// Requests returns the total HTTP requests issued so far.
	Requests() int
}

// Explorer is the breadth-first traversal engine over the prefix space.
// It owns the frontier queue, the seen-prefix set, and the discovered-name
// set for exactly one crawl.
//
// Design decision: All crawl state lives in fields of one Explorer instance
// constructed fresh per run, never in package-level state. Collaborators are
// passed in explicitly, which is what makes the end-to-end tests with mock
// transports possible.
type Explorer struct {
	// fetcher performs resilient requests.
	fetcher Fetcher

	// alphabet is the character set used to seed and expand the frontier.
	alphabet []rune

	// pageLimit is the truncation threshold for the full-page heuristic.
	pageLimit int

	// minExpandDepth forces expansion of prefixes shorter than this many
	// characters regardless of page fullness. Short prefixes are assumed
	// truncated even when the endpoint reports a partial page; some API
	// versions under-report near the root.
	minExpandDepth int

	// maxPrefixLength caps frontier depth. The full-page heuristic can
	// expand forever against an endpoint that always reports full pages,
	// so the cap is a safety valve. Zero or negative disables it.
	maxPrefixLength int

	// maxRequests caps the total requests in one crawl. Zero or negative
	// disables it.
	maxRequests int

	// progressEvery is the progress cadence in dequeued prefixes.
	progressEvery int

	// progressFn receives periodic progress observations. May be nil.
	progressFn func(model.Progress)

	// logger for structured logging.
	logger *slog.Logger

	// Crawl state, reset by Run.

	// queue is the frontier: pending prefixes in FIFO order, which yields
	// breadth-first traversal since children always enter behind every
	// prefix of the current generation.
	queue []string

	// seen tracks prefixes already dequeued and processed. Duplicate
	// enqueues are tolerated; membership is checked on dequeue.
	seen map[string]bool

	// names is the discovered vocabulary.
	names map[string]bool
}

// ExplorerOption configures an Explorer.
type ExplorerOption func(*Explorer)

// WithAlphabet sets the prefix alphabet.
func WithAlphabet(alphabet string) ExplorerOption {
	return func(e *Explorer) {
		if alphabet != "" {
			e.alphabet = []rune(alphabet)
		}
	}
}

// WithPageLimit sets the truncation threshold for the full-page heuristic.
func WithPageLimit(limit int) ExplorerOption {
	return func(e *Explorer) {
		if limit > 0 {
			e.pageLimit = limit
		}
	}
}

// WithMinExpandDepth sets the depth below which every prefix is expanded
// regardless of page fullness.
func WithMinExpandDepth(depth int) ExplorerOption {
	return func(e *Explorer) {
		e.minExpandDepth = depth
	}
}

// WithMaxPrefixLength caps frontier depth. Zero or negative disables the cap.
func WithMaxPrefixLength(n int) ExplorerOption {
	return func(e *Explorer) {
		e.maxPrefixLength = n
	}
}

// WithMaxRequests caps total requests per crawl. Zero or negative disables.
func WithMaxRequests(n int) ExplorerOption {
	return func(e *Explorer) {
		e.maxRequests = n
	}
}

// WithProgressEvery sets the progress-report cadence in dequeued prefixes.
func WithProgressEvery(n int) ExplorerOption {
	return func(e *Explorer) {
		if n > 0 {
			e.progressEvery = n
		}
	}
}

// WithProgressFunc sets the callback receiving progress observations.
func WithProgressFunc(fn func(model.Progress)) ExplorerOption {
	return func(e *Explorer) {
		e.progressFn = fn
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) ExplorerOption {
	return func(e *Explorer) {
		e.logger = logger
	}
}

// defaultAlphabet matches the probing alphabet: lowercase, uppercase, digits.
const defaultAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// New creates an Explorer with the given fetcher and options.
func New(fetcher Fetcher, opts ...ExplorerOption) *Explorer {
	e := &Explorer{
		fetcher:        fetcher,
		alphabet:       []rune(defaultAlphabet),
		pageLimit:      100,
		minExpandDepth: 3,
		progressEvery:  10,
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.logger == nil {
		e.logger = slog.Default()
	}

	return e
}

// Result holds the outcome of one crawl.
type Result struct {
	// Names is the discovered vocabulary, sorted and deduplicated.
	Names []string

	// PrefixesExplored is the number of prefixes dequeued and processed.
	PrefixesExplored int

	// Requests is the total HTTP requests issued during the crawl.
	Requests int

	// Elapsed is the wall-clock crawl duration.
	Elapsed time.Duration

	// Truncated is true when a safety valve (depth or request ceiling)
	// suppressed part of the traversal. The vocabulary may be incomplete.
	Truncated bool
}

// Run performs the breadth-first crawl and returns the discovered
// vocabulary. The frontier is seeded with every single-character prefix;
// each dequeued prefix is fetched once, its names merged, and it is
// expanded into child prefixes when the page was full or the prefix is
// shorter than the minimum expansion depth.
//
// Failures never abort the crawl: a prefix whose request exhausted its
// retries simply contributes no names and no children. The only early
// returns are context cancellation (partial result plus ctx.Err()) and
// the request safety valve (partial result, Truncated set, nil error).
func (e *Explorer) Run(ctx context.Context) (*Result, error) {
	start := time.Now()

	// Fresh state per run; an Explorer is reusable but never concurrent.
	e.queue = make([]string, 0, len(e.alphabet))
	e.seen = make(map[string]bool)
	e.names = make(map[string]bool)

	for _, c := range e.alphabet {
		e.queue = append(e.queue, string(c))
	}

	result := &Result{}

	for len(e.queue) > 0 {
		select {
		case <-ctx.Done():
			e.finish(result, start)
			return result, ctx.Err()
		default:
		}

		// Request ceiling: stop before starting another prefix.
		if e.maxRequests > 0 && e.fetcher.Requests() >= e.maxRequests {
			e.logger.Warn("request ceiling reached, stopping crawl",
				"requests", e.fetcher.Requests(),
				"ceiling", e.maxRequests,
			)
			result.Truncated = true
			e.finish(result, start)
			return result, nil
		}

		prefix := e.queue[0]
		e.queue = e.queue[1:]

		// Defensive de-dup: duplicate enqueues become no-ops here.
		if e.seen[prefix] {
			continue
		}
		e.seen[prefix] = true
		result.PrefixesExplored++

		if e.progressFn != nil && result.PrefixesExplored%e.progressEvery == 0 {
			e.progressFn(model.Progress{
				Prefix:           prefix,
				PrefixesExplored: result.PrefixesExplored,
				NamesFound:       len(e.names),
				Requests:         e.fetcher.Requests(),
			})
		}

		outcome := e.fetcher.Fetch(ctx, prefix)
		if !outcome.OK() {
			// No data for this prefix; not a dead end worth special
			// handling, just nothing to merge and nothing to expand.
			e.logger.Debug("prefix yielded no data",
				"prefix", prefix,
				"error", outcome.Err,
			)
			continue
		}

		page := normalize.Normalize(outcome.Payload, e.pageLimit)
		for _, name := range page.Names {
			e.names[name] = true
		}

		if page.Full || utf8.RuneCountInString(prefix) < e.minExpandDepth {
			if !e.expand(prefix) {
				result.Truncated = true
			}
		}
	}

	e.finish(result, start)
	return result, nil
}

// expand enqueues every child of the prefix not already seen. It reports
// false when the depth cap suppressed the expansion.
func (e *Explorer) expand(prefix string) bool {
	if e.maxPrefixLength > 0 && utf8.RuneCountInString(prefix) >= e.maxPrefixLength {
		e.logger.Warn("depth ceiling reached, not expanding",
			"prefix", prefix,
			"ceiling", e.maxPrefixLength,
		)
		return false
	}

	for _, c := range e.alphabet {
		child := prefix + string(c)
		if !e.seen[child] {
			e.queue = append(e.queue, child)
		}
	}
	return true
}

// finish fills in the aggregate fields of the result.
func (e *Explorer) finish(result *Result, start time.Time) {
	result.Names = make([]string, 0, len(e.names))
	for name := range e.names {
		result.Names = append(result.Names, name)
	}
	sort.Strings(result.Names)
	result.Requests = e.fetcher.Requests()
	result.Elapsed = time.Since(start)
}
