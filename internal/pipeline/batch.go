package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"lexharvest/internal/model"
)

// BatchProcessor handles extraction of multiple endpoints.
// It uses errgroup to manage goroutines and respect concurrency limits.
//
// Design decision: We use a separate BatchProcessor rather than adding
// batch functionality to Pipeline because:
// 1. It keeps the Pipeline focused on single-endpoint execution
// 2. Each endpoint keeps its own sequential crawl and pacing state
// 3. It provides cleaner separation of concerns
type BatchProcessor struct {
	// pipelineFactory builds a fresh pipeline for one endpoint. Each
	// endpoint needs its own transport client and requester, so the
	// factory receives the base URL.
	pipelineFactory func(baseURL string) (*Pipeline, error)

	// concurrency is the maximum number of endpoints extracted at once.
	concurrency int

	// logger is used for batch-level logging.
	logger *slog.Logger

	// results stores completed run reports.
	// Access is synchronized via mutex.
	results []*model.RunReport
	mu      sync.Mutex
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of concurrent extractions.
// The default of 1 keeps total outbound load identical to a single
// sequential crawl; raising it only makes sense when the endpoints are
// distinct services.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a new BatchProcessor.
//
// The pipelineFactory function is called for each endpoint to create a
// fresh pipeline instance. This ensures that crawl state (pacing, request
// counters) never leaks between endpoints.
func NewBatchProcessor(pipelineFactory func(baseURL string) (*Pipeline, error), opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		pipelineFactory: pipelineFactory,
		concurrency:     1,
		results:         make([]*model.RunReport, 0),
	}

	for _, opt := range opts {
		opt(bp)
	}

	if bp.logger == nil {
		bp.logger = slog.Default()
	}

	return bp
}

// ProcessBatch extracts multiple endpoints, at most 'concurrency' at a time.
//
// Design decision: We use errgroup.SetLimit rather than a worker pool
// because it's simpler and errgroup handles the concurrency correctly.
// Each endpoint gets its own goroutine, but only 'concurrency' goroutines
// run simultaneously.
//
// Returns all reports collected, even for endpoints that failed.
// The error return indicates the batch was cancelled, not that an
// individual extraction failed; per-endpoint failures live in the reports.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, endpoints []string) ([]*model.RunReport, error) {
	bp.logger.Info("starting batch extraction",
		"total_endpoints", len(endpoints),
		"concurrency", bp.concurrency,
	)

	startTime := time.Now()

	// Pre-allocate results slice to maintain order
	bp.results = make([]*model.RunReport, len(endpoints))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, endpoint := range endpoints {
		i, endpoint := i, endpoint
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			bp.logger.Info("extracting endpoint",
				"endpoint", endpoint,
				"index", i+1,
				"total", len(endpoints),
			)

			report := model.NewRunReport(endpoint)

			p, err := bp.pipelineFactory(endpoint)
			if err != nil {
				report.Error = err
				report.ErrorMessage = err.Error()
				bp.mu.Lock()
				bp.results[i] = report
				bp.mu.Unlock()

				bp.logger.Warn("pipeline setup failed",
					"endpoint", endpoint,
					"error", err,
				)
				return nil
			}

			err = p.Execute(ctx, report)

			// Store result regardless of error; the report carries the
			// error information if the extraction failed.
			bp.mu.Lock()
			bp.results[i] = report
			bp.mu.Unlock()

			if err != nil {
				bp.logger.Warn("extraction failed",
					"endpoint", endpoint,
					"error", err,
				)
				// Don't return the error to errgroup - other endpoints
				// should still be extracted.
				return nil
			}

			bp.logger.Info("extraction completed",
				"endpoint", endpoint,
				"names", report.NameCount(),
			)
			return nil
		})
	}

	err := g.Wait()

	bp.logger.Info("batch extraction complete",
		"total_endpoints", len(endpoints),
		"elapsed", time.Since(startTime),
	)

	return bp.results, err
}
