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

	"github.com/evangoldenberg/trawl/internal/model"
)

// dbFile is the database filename inside the data directory.
const dbFile = "trawl.db"

// RunDB provides SQLite-based storage for collection runs.
//
// Design decision: We use a single database file for all runs rather
// than one file per source. This keeps cross-run comparison a single
// query and makes backup a single file copy.
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

	// EnableWAL enables Write-Ahead Logging for better concurrent
	// read performance.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a RunDB under the specified directory.
// If CreateIfNotExists is false and the database doesn't exist, an
// error is returned.
func Open(dbDir string, opts Options) (*RunDB, error) {
	dbPath := filepath.Join(dbDir, dbFile)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// modernc.org/sqlite connection strings: mode=rw prevents creating
	// new files, mode=rwc allows creation.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer.
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
	-- Runs store one row per collection run
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		source TEXT NOT NULL,
		started DATETIME NOT NULL,
		stored DATETIME DEFAULT CURRENT_TIMESTAMP,
		record_count INTEGER NOT NULL,
		skipped INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_runs_source ON runs(source);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started);

	-- Records store one row per collected item, fields as JSON
	CREATE TABLE IF NOT EXISTS records (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		ref TEXT NOT NULL,
		fields TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_records_run ON records(run_id);
	CREATE INDEX IF NOT EXISTS idx_records_ref ON records(ref);
	`

	_, err := rdb.db.ExecContext(context.Background(), schema)
	return err
}

// SaveRun stores a dataset as a new run and returns its id. The run
// and its records are written in one transaction so a failed save
// leaves no partial run behind.
func (rdb *RunDB) SaveRun(ctx context.Context, ds *model.Dataset) (int64, error) {
	tx, err := rdb.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.ExecContext(ctx,
		`INSERT INTO runs (source, started, record_count, skipped) VALUES (?, ?, ?, ?)`,
		ds.Source,
		ds.Started.UTC().Format("2006-01-02 15:04:05"),
		ds.Len(),
		ds.Skipped,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}
	runID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read run id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO records (run_id, position, ref, fields) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare record insert: %w", err)
	}
	defer stmt.Close()

	for i, rec := range ds.Records {
		fieldsJSON, err := json.Marshal(rec.Fields)
		if err != nil {
			return 0, fmt.Errorf("failed to serialize fields for %s: %w", rec.Ref, err)
		}
		if _, err := stmt.ExecContext(ctx, runID, i, rec.Ref, string(fieldsJSON)); err != nil {
			return 0, fmt.Errorf("failed to insert record %s: %w", rec.Ref, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit run: %w", err)
	}
	return runID, nil
}

// GetRun retrieves a stored run by id, rebuilding the dataset with
// records in their original discovery order. Returns nil when the run
// does not exist.
func (rdb *RunDB) GetRun(ctx context.Context, id int64) (*model.Dataset, error) {
	var (
		ds      model.Dataset
		started string
	)
	err := rdb.db.QueryRowContext(ctx,
		`SELECT source, started, skipped FROM runs WHERE id = ?`, id).
		Scan(&ds.Source, &started, &ds.Skipped)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	ds.Started = parseTimestamp(started)

	rows, err := rdb.db.QueryContext(ctx,
		`SELECT ref, fields FROM records WHERE run_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var ref, fieldsJSON string
		if err := rows.Scan(&ref, &fieldsJSON); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		rec := model.NewRecord(ref)
		if err := json.Unmarshal([]byte(fieldsJSON), &rec.Fields); err != nil {
			return nil, fmt.Errorf("failed to parse fields for %s: %w", ref, err)
		}
		ds.Append(rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &ds, nil
}

// LatestRun retrieves the most recent run for a source. Returns nil
// when the source has no stored runs.
func (rdb *RunDB) LatestRun(ctx context.Context, source string) (*model.Dataset, error) {
	var id int64
	err := rdb.db.QueryRowContext(ctx,
		`SELECT id FROM runs WHERE source = ? ORDER BY stored DESC, id DESC LIMIT 1`, source).
		Scan(&id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find latest run: %w", err)
	}
	return rdb.GetRun(ctx, id)
}

// RunMetadata contains summary information about a stored run. This is
// used for listing run history without loading full datasets.
type RunMetadata struct {
	// ID is the unique identifier of the run in the database.
	ID int64

	// Source describes where the run's records came from.
	Source string

	// Started is when the run began.
	Started time.Time

	// RecordCount is the number of records the run produced.
	RecordCount int

	// Skipped counts references dropped with transport errors.
	Skipped int
}

// ListRuns returns metadata for all stored runs, newest first.
func (rdb *RunDB) ListRuns(ctx context.Context) ([]RunMetadata, error) {
	rows, err := rdb.db.QueryContext(ctx,
		`SELECT id, source, started, record_count, skipped FROM runs ORDER BY stored DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var results []RunMetadata
	for rows.Next() {
		var (
			meta    RunMetadata
			started string
		)
		if err := rows.Scan(&meta.ID, &meta.Source, &started, &meta.RecordCount, &meta.Skipped); err != nil {
			return nil, fmt.Errorf("failed to scan run metadata: %w", err)
		}
		meta.Started = parseTimestamp(started)
		results = append(results, meta)
	}

	return results, rows.Err()
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

// parseTimestamp attempts to parse a timestamp string using multiple
// formats. SQLite may return timestamps in different formats depending
// on configuration. If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
