// Package database provides SQLite-based persistence for extraction runs.
//
// Each completed run is stored as one row holding the full report as JSON
// plus denormalized counters for cheap history listings. The history
// command reads this store to list past runs and to diff vocabularies
// between the two most recent runs of an endpoint.
//
// Design decision: We use modernc.org/sqlite (pure Go) rather than
// mattn/go-sqlite3 (CGO) to keep cross-compilation simple and avoid
// CGO dependencies.
package database
