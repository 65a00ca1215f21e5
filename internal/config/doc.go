// Package config provides configuration structures and utilities for lexharvest.
// It defines the tunables of the prefix crawl (alphabet, page limit, retry and
// pacing policy, safety valves), the optional YAML config file with
// per-endpoint overrides, and report generation preferences.
package config
