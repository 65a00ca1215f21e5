package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"lexharvest/internal/calibrate"
	"lexharvest/internal/client"
	"lexharvest/internal/database"
	"lexharvest/internal/explorer"
	"lexharvest/internal/model"
)

// ConfigureStep records operator-pinned settings in the report so later
// steps and report writers see them without running calibration.
type ConfigureStep struct {
	version  string
	interval time.Duration
}

// NewConfigureStep creates a step applying pinned settings. Zero values
// are left untouched; the corresponding calibration step fills them in.
func NewConfigureStep(version string, interval time.Duration) *ConfigureStep {
	return &ConfigureStep{version: version, interval: interval}
}

// Name returns the step name.
func (s *ConfigureStep) Name() string {
	return "configure"
}

// Do applies the pinned settings to the report.
func (s *ConfigureStep) Do(_ context.Context, report *model.RunReport) error {
	if s.version != "" {
		report.Version = s.version
	}
	if s.interval > 0 {
		report.RequestInterval = s.interval
	}
	return nil
}

// VersionStep discovers the API version exposing the richest vocabulary.
// Skipped entirely (never added to the pipeline) when the operator pins a
// version on the command line.
type VersionStep struct {
	calibrator *calibrate.Calibrator
	logger     *slog.Logger
}

// NewVersionStep creates a version discovery step.
func NewVersionStep(calibrator *calibrate.Calibrator, logger *slog.Logger) *VersionStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &VersionStep{calibrator: calibrator, logger: logger}
}

// Name returns the step name.
func (s *VersionStep) Name() string {
	return "version-calibration"
}

// Do probes the candidate versions and records the winner in the report.
func (s *VersionStep) Do(ctx context.Context, report *model.RunReport) error {
	result, err := s.calibrator.DiscoverVersion(ctx)
	if err != nil {
		return fmt.Errorf("version discovery: %w", err)
	}

	report.Version = result.Version
	report.VersionCounts = result.Counts
	return nil
}

// IntervalSetter receives the pacing interval the rate step discovered.
// Satisfied by client.Requester.
type IntervalSetter interface {
	SetInterval(d time.Duration)
}

// RateStep discovers a safe request cadence and applies it to the
// requester the explorer will crawl through.
type RateStep struct {
	calibrator *calibrate.Calibrator
	pacer      IntervalSetter
	logger     *slog.Logger
}

// NewRateStep creates a rate discovery step. The discovered interval is
// pushed into pacer before the crawl starts.
func NewRateStep(calibrator *calibrate.Calibrator, pacer IntervalSetter, logger *slog.Logger) *RateStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &RateStep{calibrator: calibrator, pacer: pacer, logger: logger}
}

// Name returns the step name.
func (s *RateStep) Name() string {
	return "rate-calibration"
}

// Do runs the probe burst under the version chosen so far.
func (s *RateStep) Do(ctx context.Context, report *model.RunReport) error {
	result, err := s.calibrator.DiscoverRate(ctx, report.Version)
	if err != nil {
		return fmt.Errorf("rate discovery: %w", err)
	}

	report.RequestInterval = result.Interval
	report.RateLimited = result.RateLimited
	s.pacer.SetInterval(result.Interval)

	s.logger.Info("request interval set",
		"interval", result.Interval,
		"rate_limited", result.RateLimited,
	)
	return nil
}

// ExploreStep runs the breadth-first crawl. It binds the requester to the
// version the calibration steps settled on, which is why it must run after
// them (or after the operator pinned a version on the report).
type ExploreStep struct {
	requester *client.Requester
	pageLimit int
	opts      []explorer.ExplorerOption
	logger    *slog.Logger
}

// NewExploreStep creates the crawl step. The explorer options configure
// alphabet, expansion depth, safety ceilings, and progress reporting.
func NewExploreStep(requester *client.Requester, pageLimit int, logger *slog.Logger, opts ...explorer.ExplorerOption) *ExploreStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExploreStep{
		requester: requester,
		pageLimit: pageLimit,
		opts:      opts,
		logger:    logger,
	}
}

// Name returns the step name.
func (s *ExploreStep) Name() string {
	return "explore"
}

// Do performs the crawl and folds the result into the report. A cancelled
// crawl still records its partial vocabulary before the error propagates.
func (s *ExploreStep) Do(ctx context.Context, report *model.RunReport) error {
	bound := s.requester.Bind(report.Version, s.pageLimit)

	opts := append([]explorer.ExplorerOption{
		explorer.WithPageLimit(s.pageLimit),
		explorer.WithLogger(s.logger),
	}, s.opts...)

	result, err := explorer.New(bound, opts...).Run(ctx)
	if result != nil {
		report.SetNames(result.Names)
		report.RequestCount = result.Requests
		report.PrefixesExplored = result.PrefixesExplored
		report.ElapsedTime = result.Elapsed
		report.Truncated = result.Truncated
	}
	if err != nil {
		return fmt.Errorf("exploration: %w", err)
	}
	return nil
}

// PersistStep saves the completed run to the history database.
type PersistStep struct {
	db     *database.RunDB
	logger *slog.Logger
}

// NewPersistStep creates a persistence step writing to db.
func NewPersistStep(db *database.RunDB, logger *slog.Logger) *PersistStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &PersistStep{db: db, logger: logger}
}

// Name returns the step name.
func (s *PersistStep) Name() string {
	return "persist"
}

// Do stores the run.
func (s *PersistStep) Do(ctx context.Context, report *model.RunReport) error {
	id, err := s.db.SaveRun(ctx, report)
	if err != nil {
		return fmt.Errorf("persist run: %w", err)
	}

	s.logger.Info("run saved", "id", id, "endpoint", report.BaseURL)
	return nil
}
