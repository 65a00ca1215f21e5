package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"lexharvest/internal/model"
)

// RunDB provides SQLite-based storage for extraction run history.
// It manages connection pooling and provides methods for CRUD operations.
//
// Design decision: We use a single database file for all endpoints rather
// than one file per endpoint. This makes cross-endpoint queries (list all
// endpoints, compare runs) trivial and simplifies backup/restore.
type RunDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures RunDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	// This is recommended for most use cases.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a RunDB at the specified directory.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*RunDB, error) {
	dbPath := filepath.Join(dbDir, "lexharvest.db")

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// modernc.org/sqlite uses mode=rw to prevent creating new files and
	// mode=rwc to allow creation.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer, so a single connection avoids
	// SQLITE_BUSY under concurrent saves from the batch processor.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	rdb := &RunDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := rdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return rdb, nil
}

// Close closes the database connection.
func (rdb *RunDB) Close() error {
	return rdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (rdb *RunDB) createTables() error {
	schema := `
	-- Runs store one extraction per row, full report as JSON plus the
	-- counters needed for history listings without deserializing it.
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		base_url TEXT NOT NULL,
		version TEXT NOT NULL,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
		request_count INTEGER NOT NULL,
		name_count INTEGER NOT NULL,
		prefixes_explored INTEGER NOT NULL,
		elapsed_seconds REAL NOT NULL,
		truncated INTEGER NOT NULL DEFAULT 0,
		report_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_base_url ON runs(base_url);
	CREATE INDEX IF NOT EXISTS idx_runs_timestamp ON runs(timestamp);
	`

	_, err := rdb.db.ExecContext(context.Background(), schema)
	return err
}

// SaveRun stores a completed extraction run.
func (rdb *RunDB) SaveRun(ctx context.Context, report *model.RunReport) (int64, error) {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize run report: %w", err)
	}

	truncated := 0
	if report.Truncated {
		truncated = 1
	}

	query := `
	INSERT INTO runs (base_url, version, request_count, name_count, prefixes_explored, elapsed_seconds, truncated, report_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := rdb.db.ExecContext(ctx, query,
		report.BaseURL,
		report.Version,
		report.RequestCount,
		report.NameCount(),
		report.PrefixesExplored,
		report.ElapsedTime.Seconds(),
		truncated,
		string(reportJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to save run: %w", err)
	}

	return result.LastInsertId()
}

// LatestRun retrieves the most recent run for an endpoint.
// Returns nil without error when the endpoint has no recorded runs.
func (rdb *RunDB) LatestRun(ctx context.Context, baseURL string) (*model.RunReport, error) {
	query := `
	SELECT report_json FROM runs
	WHERE base_url = ?
	ORDER BY timestamp DESC, id DESC
	LIMIT 1
	`

	var reportJSON string
	err := rdb.db.QueryRowContext(ctx, query, baseURL).Scan(&reportJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest run: %w", err)
	}

	var report model.RunReport
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to parse run report: %w", err)
	}

	return &report, nil
}

// RunHistory retrieves all runs for an endpoint, newest first.
func (rdb *RunDB) RunHistory(ctx context.Context, baseURL string) ([]*model.RunReport, error) {
	query := `
	SELECT report_json FROM runs
	WHERE base_url = ?
	ORDER BY timestamp DESC, id DESC
	`

	rows, err := rdb.db.QueryContext(ctx, query, baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to get run history: %w", err)
	}
	defer rows.Close()

	var reports []*model.RunReport
	for rows.Next() {
		var reportJSON string
		if err := rows.Scan(&reportJSON); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}

		var report model.RunReport
		if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
			continue // Skip malformed rows
		}
		reports = append(reports, &report)
	}

	return reports, rows.Err()
}

// RunMetadata contains summary information about a stored run.
// This is used for displaying run history without loading the vocabulary.
type RunMetadata struct {
	// ID is the unique identifier of the run in the database.
	ID int64

	// BaseURL is the extracted endpoint.
	BaseURL string

	// Version is the API version used.
	Version string

	// Timestamp is when the run was stored.
	Timestamp time.Time

	// RequestCount is the total HTTP requests issued.
	RequestCount int

	// NameCount is the number of unique names discovered.
	NameCount int

	// PrefixesExplored is the number of prefixes processed.
	PrefixesExplored int

	// ElapsedSeconds is the wall-clock crawl duration.
	ElapsedSeconds float64

	// Truncated reports whether a safety ceiling stopped the run.
	Truncated bool
}

// RunHistoryWithMetadata retrieves run metadata for an endpoint, newest
// first. More efficient than RunHistory when the vocabulary is not needed.
func (rdb *RunDB) RunHistoryWithMetadata(ctx context.Context, baseURL string) ([]RunMetadata, error) {
	query := `
	SELECT id, base_url, version, timestamp, request_count, name_count, prefixes_explored, elapsed_seconds, truncated
	FROM runs
	WHERE base_url = ?
	ORDER BY timestamp DESC, id DESC
	`

	rows, err := rdb.db.QueryContext(ctx, query, baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to get run history: %w", err)
	}
	defer rows.Close()

	var results []RunMetadata
	for rows.Next() {
		var meta RunMetadata
		var timestamp string
		var truncated int

		err := rows.Scan(
			&meta.ID,
			&meta.BaseURL,
			&meta.Version,
			&timestamp,
			&meta.RequestCount,
			&meta.NameCount,
			&meta.PrefixesExplored,
			&meta.ElapsedSeconds,
			&truncated,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run metadata: %w", err)
		}

		meta.Timestamp = parseTimestamp(timestamp)
		meta.Truncated = truncated != 0
		results = append(results, meta)
	}

	return results, rows.Err()
}

// ListEndpoints returns every endpoint with at least one recorded run.
func (rdb *RunDB) ListEndpoints(ctx context.Context) ([]string, error) {
	query := `
	SELECT DISTINCT base_url FROM runs
	ORDER BY base_url
	`

	rows, err := rdb.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list endpoints: %w", err)
	}
	defer rows.Close()

	var endpoints []string
	for rows.Next() {
		var endpoint string
		if err := rows.Scan(&endpoint); err != nil {
			return nil, fmt.Errorf("failed to scan endpoint: %w", err)
		}
		endpoints = append(endpoints, endpoint)
	}

	return endpoints, rows.Err()
}

// GetRunByID retrieves a full run report by its database ID.
// Returns nil without error when no run has that ID.
func (rdb *RunDB) GetRunByID(ctx context.Context, id int64) (*model.RunReport, error) {
	query := `
	SELECT report_json FROM runs
	WHERE id = ?
	`

	var reportJSON string
	err := rdb.db.QueryRowContext(ctx, query, id).Scan(&reportJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	var report model.RunReport
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to parse run report: %w", err)
	}

	return &report, nil
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	time.RFC3339,              // Full RFC3339 format
	time.RFC3339Nano,          // RFC3339 with nanoseconds
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// SQLite may return timestamps in different formats depending on configuration.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
