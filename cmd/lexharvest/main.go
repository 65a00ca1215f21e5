// Package main provides the entry point for the lexharvest CLI.
//
// lexharvest reconstructs the vocabulary behind an opaque autocomplete
// endpoint by systematically probing it with prefix strings and
// aggregating the unique results.
//
// Usage:
//
//	lexharvest extract <base-url>
//	lexharvest calibrate <base-url>
//
// See --help for all available options.
package main

// main is the entry point for lexharvest.
func main() {
	Execute()
}
