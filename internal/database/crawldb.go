package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/anteater/internal/model"
)

// FileName is the database file created inside the database directory.
const FileName = "anteater.db"

// timestampLayout is a fixed-width RFC 3339 layout so stored timestamps
// sort as text.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

// CrawlDB provides SQLite-based storage for page records and crawl reports.
type CrawlDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures CrawlDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a CrawlDB in dbDir.
// If CreateIfNotExists is false and the database doesn't exist, ErrNotFound
// is returned.
func Open(dbDir string, opts Options) (*CrawlDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// mode=rw refuses to create a missing file, mode=rwc creates it.
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

	cdb := &CrawlDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := cdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return cdb, nil
}

// Close closes the database connection.
func (cdb *CrawlDB) Close() error {
	return cdb.db.Close()
}

// Path returns the database file path.
func (cdb *CrawlDB) Path() string {
	return cdb.dbPath
}

// createTables creates the database schema if it doesn't exist.
func (cdb *CrawlDB) createTables() error {
	schema := `
	-- Page records keep the latest result for every processed URL
	CREATE TABLE IF NOT EXISTS pages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		url TEXT NOT NULL UNIQUE,
		final_url TEXT,
		status_code INTEGER,
		title TEXT,
		token_count INTEGER,
		fingerprint TEXT,
		checksum TEXT,
		outcome TEXT NOT NULL,
		links INTEGER,
		depth INTEGER,
		error TEXT,
		crawled_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_pages_outcome ON pages(outcome);
	CREATE INDEX IF NOT EXISTS idx_pages_checksum ON pages(checksum);

	-- Crawl reports store finished crawls as JSON
	CREATE TABLE IF NOT EXISTS crawl_reports (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		started_at TEXT NOT NULL,
		finished_at TEXT NOT NULL,
		pages_parsed INTEGER NOT NULL,
		unique_pages INTEGER NOT NULL,
		cancelled INTEGER NOT NULL DEFAULT 0,
		report_json TEXT NOT NULL,
		created_at TEXT DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_reports_started ON crawl_reports(started_at);
	`

	_, err := cdb.db.ExecContext(context.Background(), schema)
	return err
}

// InsertPageRecord inserts or replaces the record of rec.URL.
func (cdb *CrawlDB) InsertPageRecord(ctx context.Context, rec *model.PageRecord) error {
	query := `
	INSERT INTO pages (url, final_url, status_code, title, token_count, fingerprint, checksum, outcome, links, depth, error, crawled_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(url) DO UPDATE SET
		final_url = excluded.final_url,
		status_code = excluded.status_code,
		title = excluded.title,
		token_count = excluded.token_count,
		fingerprint = excluded.fingerprint,
		checksum = excluded.checksum,
		outcome = excluded.outcome,
		links = excluded.links,
		depth = excluded.depth,
		error = excluded.error,
		crawled_at = excluded.crawled_at
	`

	crawledAt := rec.CrawledAt
	if crawledAt.IsZero() {
		crawledAt = time.Now()
	}

	_, err := cdb.db.ExecContext(ctx, query,
		rec.URL,
		rec.FinalURL,
		rec.StatusCode,
		rec.Title,
		rec.TokenCount,
		rec.Fingerprint,
		rec.Checksum,
		rec.Outcome.String(),
		rec.Links,
		rec.Depth,
		rec.Error,
		formatTimestamp(crawledAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert page record: %w", err)
	}
	return nil
}

// GetPageRecord retrieves the record of url. It returns nil, nil when the
// URL has no record.
func (cdb *CrawlDB) GetPageRecord(ctx context.Context, url string) (*model.PageRecord, error) {
	query := `
	SELECT url, final_url, status_code, title, token_count, fingerprint, checksum, outcome, links, depth, error, crawled_at
	FROM pages
	WHERE url = ?
	`

	var rec model.PageRecord
	var outcome, crawledAt string

	err := cdb.db.QueryRowContext(ctx, query, url).Scan(
		&rec.URL,
		&rec.FinalURL,
		&rec.StatusCode,
		&rec.Title,
		&rec.TokenCount,
		&rec.Fingerprint,
		&rec.Checksum,
		&outcome,
		&rec.Links,
		&rec.Depth,
		&rec.Error,
		&crawledAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get page record: %w", err)
	}

	rec.Outcome, err = model.ParseOutcome(outcome)
	if err != nil {
		return nil, fmt.Errorf("failed to parse page record: %w", err)
	}
	rec.CrawledAt = parseTimestamp(crawledAt)
	return &rec, nil
}

// AcceptedFingerprints returns the fingerprint of every accepted page,
// keyed by URL.
func (cdb *CrawlDB) AcceptedFingerprints(ctx context.Context) (map[string]string, error) {
	rows, err := cdb.db.QueryContext(ctx,
		`SELECT url, fingerprint FROM pages WHERE outcome = ? AND fingerprint <> ''`,
		model.OutcomeAccepted.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list fingerprints: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var url, fp string
		if err := rows.Scan(&url, &fp); err != nil {
			return nil, fmt.Errorf("failed to scan fingerprint: %w", err)
		}
		out[url] = fp
	}
	return out, rows.Err()
}

// CountPagesByOutcome returns the number of stored pages per outcome.
func (cdb *CrawlDB) CountPagesByOutcome(ctx context.Context) (map[model.Outcome]int, error) {
	rows, err := cdb.db.QueryContext(ctx, `SELECT outcome, COUNT(*) FROM pages GROUP BY outcome`)
	if err != nil {
		return nil, fmt.Errorf("failed to count pages: %w", err)
	}
	defer rows.Close()

	counts := make(map[model.Outcome]int)
	for rows.Next() {
		var name string
		var n int
		if err := rows.Scan(&name, &n); err != nil {
			return nil, fmt.Errorf("failed to scan page count: %w", err)
		}
		o, err := model.ParseOutcome(name)
		if err != nil {
			continue // rows written by a newer version
		}
		counts[o] = n
	}
	return counts, rows.Err()
}

// SaveCrawlReport stores report and sets its ID.
func (cdb *CrawlDB) SaveCrawlReport(ctx context.Context, report *model.CrawlReport) (int64, error) {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize report: %w", err)
	}

	query := `
	INSERT INTO crawl_reports (started_at, finished_at, pages_parsed, unique_pages, cancelled, report_json)
	VALUES (?, ?, ?, ?, ?, ?)
	`

	result, err := cdb.db.ExecContext(ctx, query,
		formatTimestamp(report.StartedAt),
		formatTimestamp(report.FinishedAt),
		report.PagesParsed,
		report.UniquePages,
		report.Cancelled,
		string(reportJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to save crawl report: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read report ID: %w", err)
	}
	report.ID = id
	return id, nil
}

// GetLatestCrawlReport retrieves the most recently saved report, or nil
// when there is none.
func (cdb *CrawlDB) GetLatestCrawlReport(ctx context.Context) (*model.CrawlReport, error) {
	query := `
	SELECT id, report_json FROM crawl_reports
	ORDER BY id DESC
	LIMIT 1
	`
	return cdb.getCrawlReport(ctx, query)
}

// GetCrawlReportByID retrieves a report by its database ID, or nil when
// there is none.
func (cdb *CrawlDB) GetCrawlReportByID(ctx context.Context, id int64) (*model.CrawlReport, error) {
	query := `
	SELECT id, report_json FROM crawl_reports
	WHERE id = ?
	`
	return cdb.getCrawlReport(ctx, query, id)
}

func (cdb *CrawlDB) getCrawlReport(ctx context.Context, query string, args ...any) (*model.CrawlReport, error) {
	var id int64
	var reportJSON string
	err := cdb.db.QueryRowContext(ctx, query, args...).Scan(&id, &reportJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get crawl report: %w", err)
	}

	var report model.CrawlReport
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}
	report.ID = id
	return &report, nil
}

// CrawlReportMetadata contains summary information about a crawl report.
// This is used for displaying crawl history without loading the full report.
type CrawlReportMetadata struct {
	// ID is the unique identifier of the report in the database.
	ID int64

	// StartedAt and FinishedAt bound the crawl.
	StartedAt  time.Time
	FinishedAt time.Time

	// PagesParsed and UniquePages are the headline counters.
	PagesParsed int
	UniquePages int

	// Cancelled is true when the crawl was interrupted.
	Cancelled bool
}

// ListCrawlReports returns metadata of every saved report, newest first.
func (cdb *CrawlDB) ListCrawlReports(ctx context.Context) ([]CrawlReportMetadata, error) {
	query := `
	SELECT id, started_at, finished_at, pages_parsed, unique_pages, cancelled
	FROM crawl_reports
	ORDER BY id DESC
	`

	rows, err := cdb.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list crawl reports: %w", err)
	}
	defer rows.Close()

	results := make([]CrawlReportMetadata, 0)
	for rows.Next() {
		var meta CrawlReportMetadata
		var startedAt, finishedAt string

		err := rows.Scan(
			&meta.ID,
			&startedAt,
			&finishedAt,
			&meta.PagesParsed,
			&meta.UniquePages,
			&meta.Cancelled,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan metadata: %w", err)
		}

		meta.StartedAt = parseTimestamp(startedAt)
		meta.FinishedAt = parseTimestamp(finishedAt)
		results = append(results, meta)
	}

	return results, rows.Err()
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	time.RFC3339Nano,          // written by formatTimestamp
	"2006-01-02 15:04:05",     // SQLite CURRENT_TIMESTAMP
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
