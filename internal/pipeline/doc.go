// Package pipeline orchestrates the steps of one extraction run.
//
// A run is modeled as an ordered sequence of steps sharing a RunReport:
// version calibration, rate calibration, the breadth-first crawl, and
// persistence. Steps the operator disabled (a pinned version, --no-db)
// are simply never added, so the pipeline stays free of conditionals.
//
// BatchProcessor runs one pipeline per endpoint when the operator passes
// several base URLs. Within a single endpoint the crawl remains strictly
// sequential; concurrency only exists across endpoints.
package pipeline
