package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"lexharvest/internal/calibrate"
	"lexharvest/internal/client"
	"lexharvest/internal/config"
	"lexharvest/internal/log"
)

// NewCalibrateCmd creates the calibrate command.
func NewCalibrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "calibrate [base-url]",
		Short: "Probe an endpoint's API versions and rate limits without crawling",
		Long: `Calibrate runs the pre-flight discovery probes and prints the findings
without starting a crawl.

Version discovery requests a trivial prefix under every candidate version
and reports which one returns the most results. Rate discovery fires a
short burst of back-to-back requests and derives a safe steady-state
interval from the observed throughput.

Examples:
  # Probe an endpoint
  lexharvest calibrate http://35.200.185.69:8000

  # Probe custom version candidates
  lexharvest calibrate --versions v1,v2,beta http://35.200.185.69:8000

  # Machine-readable output
  lexharvest calibrate --json http://35.200.185.69:8000`,
		Args: cobra.ExactArgs(1),
		RunE: runCalibrateCmd,
	}

	cmd.Flags().StringSlice("versions", config.DefaultVersions,
		"Candidate API versions, probed in order")
	cmd.Flags().DurationP("timeout", "t", config.DefaultProbeTimeout,
		"Per-probe timeout")
	cmd.Flags().IntP("burst", "B", config.DefaultRateProbeBurst,
		"Number of rapid requests in the rate probe")
	cmd.Flags().StringP("proxy", "p", "",
		"SOCKS5 proxy address (e.g., 127.0.0.1:1080)")
	cmd.Flags().BoolP("json", "j", false,
		"Output findings as JSON")

	return cmd
}

// calibrationFindings is the JSON shape of the calibrate command output.
type calibrationFindings struct {
	BaseURL       string         `json:"base_url"`
	Version       string         `json:"version"`
	VersionCounts map[string]int `json:"version_counts"`
	Interval      time.Duration  `json:"interval_ns"`
	RateLimited   bool           `json:"rate_limited"`
	ProbeRequests int            `json:"probe_requests"`
	Rate          float64        `json:"rate_per_second,omitempty"`
}

// runCalibrateCmd executes the calibrate command.
func runCalibrateCmd(cmd *cobra.Command, args []string) error {
	baseURL := args[0]

	versions, err := cmd.Flags().GetStringSlice("versions")
	if err != nil {
		return err
	}
	timeout, err := cmd.Flags().GetDuration("timeout")
	if err != nil {
		return err
	}
	burst, err := cmd.Flags().GetInt("burst")
	if err != nil {
		return err
	}
	proxy, err := cmd.Flags().GetString("proxy")
	if err != nil {
		return err
	}
	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}

	logger := log.NewSecureLogger(os.Stderr, getVerboseFlag(cmd))
	slog.SetDefault(logger)

	clientOpts := []client.Option{client.WithTimeout(config.DefaultTimeout)}
	if proxy != "" {
		clientOpts = append(clientOpts, client.WithProxy(proxy))
	}

	c, err := client.New(baseURL, clientOpts...)
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}

	calibrator := calibrate.New(c,
		calibrate.WithVersions(versions),
		calibrate.WithProbeTimeout(timeout),
		calibrate.WithBurst(burst),
		calibrate.WithLogger(logger),
	)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	versionResult, err := calibrator.DiscoverVersion(ctx)
	if err != nil {
		return fmt.Errorf("version discovery failed: %w", err)
	}

	rateResult, err := calibrator.DiscoverRate(ctx, versionResult.Version)
	if err != nil {
		return fmt.Errorf("rate discovery failed: %w", err)
	}

	findings := calibrationFindings{
		BaseURL:       baseURL,
		Version:       versionResult.Version,
		VersionCounts: versionResult.Counts,
		Interval:      rateResult.Interval,
		RateLimited:   rateResult.RateLimited,
		ProbeRequests: rateResult.Requests,
		Rate:          rateResult.Rate,
	}

	if jsonOutput {
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(findings)
	}

	printFindings(cmd, findings)

	if allCountsZero(findings.VersionCounts) {
		return errors.New("no version probe returned results; the endpoint may be unreachable")
	}
	return nil
}

// printFindings writes human-readable calibration output.
func printFindings(cmd *cobra.Command, findings calibrationFindings) {
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "Calibration results for %s\n\n", findings.BaseURL)

	versions := make([]string, 0, len(findings.VersionCounts))
	for v := range findings.VersionCounts {
		versions = append(versions, v)
	}
	sort.Strings(versions)

	fmt.Fprintln(out, "Version probes:")
	for _, v := range versions {
		marker := " "
		if v == findings.Version {
			marker = "*"
		}
		fmt.Fprintf(out, "  %s %-8s %d results\n", marker, v, findings.VersionCounts[v])
	}

	fmt.Fprintf(out, "\nChosen version:    %s\n", findings.Version)
	if findings.RateLimited {
		fmt.Fprintf(out, "Rate limiting:     observed after %d requests\n", findings.ProbeRequests)
	} else {
		fmt.Fprintf(out, "Observed rate:     %.2f requests/second (%d probes)\n",
			findings.Rate, findings.ProbeRequests)
	}
	fmt.Fprintf(out, "Safe interval:     %s\n", findings.Interval)
}

// allCountsZero reports whether every probe scored zero.
func allCountsZero(counts map[string]int) bool {
	for _, c := range counts {
		if c != 0 {
			return false
		}
	}
	return true
}
