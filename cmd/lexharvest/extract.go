package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"lexharvest/internal/calibrate"
	"lexharvest/internal/client"
	"lexharvest/internal/config"
	"lexharvest/internal/database"
	"lexharvest/internal/explorer"
	"lexharvest/internal/log"
	"lexharvest/internal/model"
	"lexharvest/internal/pipeline"
	"lexharvest/internal/report"
)

// NewExtractCmd creates the extract command.
func NewExtractCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract [base-url...]",
		Short: "Extract the vocabulary behind an autocomplete endpoint",
		Long: `Extract crawls an autocomplete endpoint and reconstructs the full set of
names its backing dataset contains.

The crawl seeds a frontier with every single-character prefix and walks it
breadth-first. A prefix whose result page is full (at the page limit) is
assumed truncated and expanded into all child prefixes. Unless pinned by
flags, the API version and request cadence are discovered by pre-flight
calibration probes.

Examples:
  # Extract a single endpoint with full auto-calibration
  lexharvest extract http://35.200.185.69:8000

  # Pin the API version and request interval (skips calibration)
  lexharvest extract --api-version v2 --interval 200ms http://35.200.185.69:8000

  # Write the JSON document to a file
  lexharvest extract --json -o names.json http://35.200.185.69:8000

  # Extract several endpoints, two at a time
  lexharvest extract --batch 2 http://a:8000 http://b:8000

  # Route requests through a SOCKS5 proxy
  lexharvest extract --proxy 127.0.0.1:1080 http://35.200.185.69:8000

Configuration file (.lexharvest) example:
  endpoints:
    http://35.200.185.69:8000:
      headers:
        X-API-Key: "secret"
      versions: [v1, v2, v3]
      alphabet: "abcdefghijklmnopqrstuvwxyz"`,
		Args: cobra.ArbitraryArgs,
		RunE: runExtractCmd,
	}

	// Crawl behavior flags
	cmd.Flags().StringP("api-version", "V", "",
		"Pin the API version (skips version discovery)")
	cmd.Flags().DurationP("interval", "i", 0,
		"Pin the steady-state request interval (0 = discover via rate probe)")
	cmd.Flags().StringP("alphabet", "a", config.DefaultAlphabet,
		"Prefix alphabet used to seed and expand the frontier")
	cmd.Flags().IntP("limit", "l", config.DefaultPageLimit,
		"Page size requested from the endpoint (full-page threshold)")
	cmd.Flags().IntP("retries", "r", config.DefaultMaxRetries,
		"Attempt budget for one logical request")
	cmd.Flags().Duration("retry-delay", config.DefaultRetryDelay,
		"Base delay for linear failure backoff")
	cmd.Flags().Int("min-depth", config.DefaultMinExpandDepth,
		"Always expand prefixes shorter than this many characters")
	cmd.Flags().Int("max-prefix-length", config.DefaultMaxPrefixLength,
		"Frontier depth ceiling (0 disables, unsafe against adversarial endpoints)")
	cmd.Flags().Int("max-requests", config.DefaultMaxRequests,
		"Total request ceiling per crawl (0 disables)")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Per-request transport timeout")
	cmd.Flags().StringP("proxy", "p", "",
		"SOCKS5 proxy address (e.g., 127.0.0.1:1080)")

	// Batch extraction flags
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of endpoints extracted concurrently")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .lexharvest in current or home directory)")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON document (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")

	// Persistence flags
	cmd.Flags().Bool("no-db", false,
		"Do not save the run to the history database")
	cmd.Flags().String("db-dir", "",
		"History database directory (default: XDG data directory)")

	return cmd
}

// runExtractCmd executes the extract command.
func runExtractCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := log.NewSecureLogger(os.Stderr, cfg.Verbose)
	slog.SetDefault(logger)

	// Set up context with signal handling for graceful shutdown.
	// A cancelled crawl still reports its partial vocabulary.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	return runExtract(ctx, cfg, logger)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from cobra command flags.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()

	var err error

	cfg.Version, err = cmd.Flags().GetString("api-version")
	if err != nil {
		return nil, err
	}

	cfg.RequestInterval, err = cmd.Flags().GetDuration("interval")
	if err != nil {
		return nil, err
	}

	cfg.Alphabet, err = cmd.Flags().GetString("alphabet")
	if err != nil {
		return nil, err
	}

	cfg.PageLimit, err = cmd.Flags().GetInt("limit")
	if err != nil {
		return nil, err
	}

	cfg.MaxRetries, err = cmd.Flags().GetInt("retries")
	if err != nil {
		return nil, err
	}

	cfg.RetryDelay, err = cmd.Flags().GetDuration("retry-delay")
	if err != nil {
		return nil, err
	}

	cfg.MinExpandDepth, err = cmd.Flags().GetInt("min-depth")
	if err != nil {
		return nil, err
	}

	cfg.MaxPrefixLength, err = cmd.Flags().GetInt("max-prefix-length")
	if err != nil {
		return nil, err
	}

	cfg.MaxRequests, err = cmd.Flags().GetInt("max-requests")
	if err != nil {
		return nil, err
	}

	cfg.Timeout, err = cmd.Flags().GetDuration("timeout")
	if err != nil {
		return nil, err
	}

	cfg.ProxyAddress, err = cmd.Flags().GetString("proxy")
	if err != nil {
		return nil, err
	}

	cfg.BatchSize, err = cmd.Flags().GetInt("batch")
	if err != nil {
		return nil, err
	}

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// Load endpoint-specific configurations from the config file.
	// If user explicitly specified a config file path, error if not found.
	// If no path specified, silently use empty config if no file found.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	if configPath != "" {
		cfg.Endpoints, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	} else if explicitConfigPath {
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	} else {
		cfg.Endpoints = &config.File{
			Endpoints: make(map[string]config.EndpointConfig),
		}
	}

	cfg.JSONReport, err = cmd.Flags().GetBool("json")
	if err != nil {
		return nil, err
	}

	cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown")
	if err != nil {
		return nil, err
	}

	cfg.ReportFile, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}

	noDB, err := cmd.Flags().GetBool("no-db")
	if err != nil {
		return nil, err
	}
	cfg.SaveToDB = !noDB

	cfg.DBDir, err = cmd.Flags().GetString("db-dir")
	if err != nil {
		return nil, err
	}
	if cfg.DBDir == "" {
		cfg.DBDir = config.XDGDataDir()
	}

	cfg.Verbose = getVerboseFlag(cmd)

	// Positional arguments are the endpoints to extract.
	cfg.BaseURLs = args

	return cfg, nil
}

// runExtract executes the extraction.
func runExtract(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	if len(cfg.BaseURLs) == 0 {
		return errors.New("no endpoints provided (specify one or more base URLs as arguments)")
	}

	logger.Info("starting extraction",
		"endpoints", cfg.BaseURLs,
		"batchSize", cfg.BatchSize,
		"saveToDB", cfg.SaveToDB,
	)

	var db *database.RunDB
	if cfg.SaveToDB {
		var err error
		db, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		logger.Info("database opened", "dir", cfg.DBDir)
	}

	bp := pipeline.NewBatchProcessor(
		func(baseURL string) (*pipeline.Pipeline, error) {
			return createPipelineForEndpoint(baseURL, cfg, db, logger)
		},
		pipeline.WithConcurrency(cfg.BatchSize),
		pipeline.WithBatchLogger(logger),
	)

	reports, err := bp.ProcessBatch(ctx, cfg.BaseURLs)

	// Output every collected report, including partial ones; a cancelled
	// run still shows what it found.
	for _, runReport := range reports {
		if runReport == nil {
			continue
		}
		if outputErr := outputReport(cfg, runReport); outputErr != nil {
			logger.Error("report output failed",
				"endpoint", runReport.BaseURL,
				"error", outputErr,
			)
		}
	}

	return err
}

// createPipelineForEndpoint builds a fresh pipeline for one endpoint:
// its own transport client, requester, calibrator, and steps.
func createPipelineForEndpoint(baseURL string, cfg *config.Config, db *database.RunDB, logger *slog.Logger) (*pipeline.Pipeline, error) {
	endpointCfg := cfg.Endpoints.GetEndpointConfig(baseURL)

	// Endpoint-specific overrides fall back to global settings.
	alphabet := cfg.Alphabet
	if endpointCfg.Alphabet != "" {
		alphabet = endpointCfg.Alphabet
	}
	pageLimit := cfg.PageLimit
	if endpointCfg.Limit > 0 {
		pageLimit = endpointCfg.Limit
	}
	maxPrefixLength := cfg.MaxPrefixLength
	if endpointCfg.MaxPrefixLength > 0 {
		maxPrefixLength = endpointCfg.MaxPrefixLength
	}

	clientOpts := []client.Option{
		client.WithTimeout(cfg.Timeout),
	}
	if len(endpointCfg.Headers) > 0 {
		clientOpts = append(clientOpts, client.WithHeaders(endpointCfg.Headers))
	}
	if cfg.ProxyAddress != "" {
		clientOpts = append(clientOpts, client.WithProxy(cfg.ProxyAddress))
	}

	c, err := client.New(baseURL, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create client for %s: %w", baseURL, err)
	}

	// Until rate calibration supplies a measured interval, pace at the
	// conservative default rather than hammering the endpoint.
	initialInterval := cfg.RequestInterval
	if initialInterval <= 0 {
		initialInterval = config.DefaultRequestInterval
	}

	requester := client.NewRequester(c,
		client.WithMaxRetries(cfg.MaxRetries),
		client.WithRetryDelay(cfg.RetryDelay),
		client.WithInterval(initialInterval),
		client.WithRequesterLogger(logger),
	)

	calibratorOpts := []calibrate.Option{
		calibrate.WithProbeTimeout(config.DefaultProbeTimeout),
		calibrate.WithBurst(config.DefaultRateProbeBurst),
		calibrate.WithIntervalCap(config.DefaultRateIntervalCap),
		calibrate.WithCounter(requester),
		calibrate.WithLogger(logger),
	}
	if len(endpointCfg.Versions) > 0 {
		calibratorOpts = append(calibratorOpts, calibrate.WithVersions(endpointCfg.Versions))
	}
	calibrator := calibrate.New(c, calibratorOpts...)

	p := pipeline.New(pipeline.WithLogger(logger))

	if cfg.Version != "" || cfg.RequestInterval > 0 {
		p.AddStep(pipeline.NewConfigureStep(cfg.Version, cfg.RequestInterval))
	}
	if cfg.Version == "" {
		p.AddStep(pipeline.NewVersionStep(calibrator, logger))
	}
	if cfg.RequestInterval <= 0 {
		p.AddStep(pipeline.NewRateStep(calibrator, requester, logger))
	}

	p.AddStep(pipeline.NewExploreStep(requester, pageLimit, logger,
		explorer.WithAlphabet(alphabet),
		explorer.WithMinExpandDepth(cfg.MinExpandDepth),
		explorer.WithMaxPrefixLength(maxPrefixLength),
		explorer.WithMaxRequests(cfg.MaxRequests),
		explorer.WithProgressEvery(config.DefaultProgressEvery),
		explorer.WithProgressFunc(func(p model.Progress) {
			fmt.Printf("Progress: %d prefixes explored, %d names found, %d requests made\n",
				p.PrefixesExplored, p.NamesFound, p.Requests)
		}),
	))

	if db != nil {
		p.AddStep(pipeline.NewPersistStep(db, logger))
	}

	return p, nil
}

// outputReport outputs the run report in the requested format.
func outputReport(cfg *config.Config, runReport *model.RunReport) error {
	var output *os.File
	if cfg.ReportFile != "" {
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		output = f
	} else {
		output = os.Stdout
	}

	var writer report.Writer
	switch {
	case cfg.JSONReport:
		writer = report.NewJSONWriter(output, report.WithPrettyPrint())
	case cfg.MarkdownReport:
		writer = report.NewMarkdownWriter(output)
	default:
		writer = report.NewSimpleWriter(output, report.WithVerbose(cfg.Verbose))
	}

	_, err := writer.Write(runReport)
	return err
}
