// Package model defines the core data structures shared across lexharvest.
// The central type is RunReport, the accumulated result of one extraction
// run, which flows through the pipeline and into report writers and the
// run-history database.
package model
