package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/siteaudit/internal/model"
)

// dbFileName is the SQLite database file name inside the data directory.
const dbFileName = "siteaudit.db"

// SQLiteStore is the Gateway implementation backed by SQLite.
//
// Design decision: Foreign keys with ON DELETE CASCADE make the
// "parent crawl deleted" condition structural. When the crawl row is
// deleted externally, every subsequent child insert fails the foreign key
// constraint, which the store maps to the Terminal outcome. No polling of
// the crawl row is needed.
type SQLiteStore struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// OpenSQLite opens or creates the SQLite store in dbDir.
// The directory is created if missing. WAL mode and foreign key
// enforcement are always enabled.
func OpenSQLite(dbDir string) (*SQLiteStore, error) {
	if err := os.MkdirAll(dbDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	dbPath := filepath.Join(dbDir, dbFileName)

	db, err := sql.Open("sqlite", dbPath+"?mode=rwc")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	store := &SQLiteStore{db: db, dbPath: dbPath}

	ctx := context.Background()
	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA foreign_keys=ON"} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to apply %s: %w", pragma, err)
		}
	}

	if err := store.createTables(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string {
	return s.dbPath
}

// createTables creates the database schema if it doesn't exist.
func (s *SQLiteStore) createTables(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS crawls (
		id TEXT PRIMARY KEY,
		seed_url TEXT NOT NULL,
		status TEXT NOT NULL,
		pages_crawled INTEGER NOT NULL DEFAULT 0,
		links_found INTEGER NOT NULL DEFAULT 0,
		issues_found INTEGER NOT NULL DEFAULT 0,
		max_depth INTEGER NOT NULL DEFAULT 0,
		max_pages INTEGER NOT NULL DEFAULT 0,
		concurrency INTEGER NOT NULL DEFAULT 0,
		rate_limit REAL NOT NULL DEFAULT 0,
		max_external_links INTEGER NOT NULL DEFAULT 0,
		external_depth INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL,
		started_at DATETIME,
		completed_at DATETIME
	);

	CREATE TABLE IF NOT EXISTS pages (
		id TEXT PRIMARY KEY,
		crawl_id TEXT NOT NULL REFERENCES crawls(id) ON DELETE CASCADE,
		url TEXT NOT NULL,
		final_url TEXT NOT NULL,
		status_code INTEGER NOT NULL,
		fetch_method TEXT NOT NULL,
		latency_ms INTEGER NOT NULL,
		content_type TEXT,
		content_hash TEXT,
		title TEXT,
		meta_description TEXT,
		h1 TEXT,
		h2 TEXT,
		text_excerpt TEXT,
		word_count INTEGER NOT NULL DEFAULT 0,
		indexable INTEGER NOT NULL DEFAULT 1,
		depth INTEGER NOT NULL,
		page_size INTEGER NOT NULL DEFAULT 0,
		internal_links INTEGER NOT NULL DEFAULT 0,
		external_links INTEGER NOT NULL DEFAULT 0,
		duplicate INTEGER NOT NULL DEFAULT 0,
		fetch_error TEXT,
		UNIQUE(crawl_id, url)
	);

	CREATE INDEX IF NOT EXISTS idx_pages_crawl ON pages(crawl_id);
	CREATE INDEX IF NOT EXISTS idx_pages_hash ON pages(content_hash);

	CREATE TABLE IF NOT EXISTS links (
		id TEXT PRIMARY KEY,
		crawl_id TEXT NOT NULL REFERENCES crawls(id) ON DELETE CASCADE,
		source_page_id TEXT NOT NULL,
		source_url TEXT NOT NULL,
		target_url TEXT NOT NULL,
		anchor_text TEXT,
		external INTEGER NOT NULL DEFAULT 0,
		nofollow INTEGER NOT NULL DEFAULT 0,
		position TEXT,
		status_code INTEGER,
		is_broken INTEGER NOT NULL DEFAULT 0,
		latency_ms INTEGER NOT NULL DEFAULT 0,
		deny_reason TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_links_crawl ON links(crawl_id);
	CREATE INDEX IF NOT EXISTS idx_links_target ON links(target_url);

	CREATE TABLE IF NOT EXISTS images (
		id TEXT PRIMARY KEY,
		crawl_id TEXT NOT NULL REFERENCES crawls(id) ON DELETE CASCADE,
		page_id TEXT NOT NULL,
		src TEXT NOT NULL,
		alt TEXT,
		has_alt INTEGER NOT NULL DEFAULT 0,
		width INTEGER NOT NULL DEFAULT 0,
		height INTEGER NOT NULL DEFAULT 0,
		is_broken INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_images_crawl ON images(crawl_id);

	CREATE TABLE IF NOT EXISTS issues (
		id TEXT PRIMARY KEY,
		crawl_id TEXT NOT NULL REFERENCES crawls(id) ON DELETE CASCADE,
		page_id TEXT,
		type TEXT NOT NULL,
		severity TEXT NOT NULL,
		message TEXT NOT NULL,
		context TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_issues_crawl ON issues(crawl_id);
	CREATE INDEX IF NOT EXISTS idx_issues_severity ON issues(severity);
	`

	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// CreateCrawl inserts the crawl row, including the configuration
// snapshot. The snapshot columns are written once here and never updated.
func (s *SQLiteStore) CreateCrawl(ctx context.Context, crawl *model.Crawl) (Outcome, error) {
	_, err := s.db.ExecContext(ctx, `
	INSERT INTO crawls (id, seed_url, status, pages_crawled, links_found, issues_found,
		max_depth, max_pages, concurrency, rate_limit, max_external_links, external_depth,
		created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		crawl.ID, crawl.SeedURL, crawl.Status.String(),
		crawl.PagesCrawled, crawl.LinksFound, crawl.IssuesFound,
		crawl.Limits.MaxDepth, crawl.Limits.MaxPages, crawl.Limits.Concurrency,
		crawl.Limits.RateLimit, crawl.Limits.MaxExternalLinks, crawl.Limits.ExternalDepth,
		crawl.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return classifySQLError(err), fmt.Errorf("failed to create crawl: %w", err)
	}
	return Ok, nil
}

// UpdateCrawl updates status, counters, and timestamps for the crawl.
// Updating a deleted crawl affects zero rows, which is Terminal.
func (s *SQLiteStore) UpdateCrawl(ctx context.Context, crawl *model.Crawl) (Outcome, error) {
	res, err := s.db.ExecContext(ctx, `
	UPDATE crawls SET status = ?, pages_crawled = ?, links_found = ?, issues_found = ?,
		started_at = ?, completed_at = ?
	WHERE id = ?`,
		crawl.Status.String(), crawl.PagesCrawled, crawl.LinksFound, crawl.IssuesFound,
		nullableTime(crawl.StartedAt), nullableTime(crawl.CompletedAt),
		crawl.ID,
	)
	if err != nil {
		return classifySQLError(err), fmt.Errorf("failed to update crawl: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return Retryable, fmt.Errorf("failed to read update result: %w", err)
	}
	if affected == 0 {
		return Terminal, ErrCrawlDeleted
	}
	return Ok, nil
}

// UpsertPages writes a batch of page records in one transaction.
func (s *SQLiteStore) UpsertPages(ctx context.Context, pages []*model.PageRecord) (Outcome, error) {
	return s.upsert(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO pages (id, crawl_id, url, final_url, status_code, fetch_method, latency_ms,
			content_type, content_hash, title, meta_description, h1, h2, text_excerpt,
			word_count, indexable, depth, page_size, internal_links, external_links,
			duplicate, fetch_error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(crawl_id, url) DO UPDATE SET
			final_url = excluded.final_url,
			status_code = excluded.status_code,
			fetch_method = excluded.fetch_method,
			latency_ms = excluded.latency_ms,
			content_type = excluded.content_type,
			content_hash = excluded.content_hash,
			title = excluded.title,
			meta_description = excluded.meta_description,
			h1 = excluded.h1,
			h2 = excluded.h2,
			text_excerpt = excluded.text_excerpt,
			word_count = excluded.word_count,
			indexable = excluded.indexable,
			depth = excluded.depth,
			page_size = excluded.page_size,
			internal_links = excluded.internal_links,
			external_links = excluded.external_links,
			duplicate = excluded.duplicate,
			fetch_error = excluded.fetch_error`)
		if err != nil {
			return err
		}
		defer func() {
			_ = stmt.Close()
		}()

		for _, p := range pages {
			_, err := stmt.ExecContext(ctx,
				p.ID, p.CrawlID, p.URL, p.FinalURL, p.StatusCode, string(p.FetchMethod),
				p.LatencyMS, p.ContentType, p.ContentHash, p.Title, p.MetaDescription,
				strings.Join(p.H1, "\n"), strings.Join(p.H2, "\n"), p.TextExcerpt,
				p.WordCount, p.Indexable, p.Depth, p.PageSize,
				p.InternalLinks, p.ExternalLinks, p.Duplicate, p.FetchError,
			)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// UpsertLinks writes a batch of link records in one transaction.
func (s *SQLiteStore) UpsertLinks(ctx context.Context, links []*model.LinkRecord) (Outcome, error) {
	return s.upsert(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO links (id, crawl_id, source_page_id, source_url, target_url, anchor_text,
			external, nofollow, position, status_code, is_broken, latency_ms, deny_reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status_code = excluded.status_code,
			is_broken = excluded.is_broken,
			latency_ms = excluded.latency_ms,
			deny_reason = excluded.deny_reason`)
		if err != nil {
			return err
		}
		defer func() {
			_ = stmt.Close()
		}()

		for _, l := range links {
			var status sql.NullInt64
			if l.StatusCode != nil {
				status = sql.NullInt64{Int64: int64(*l.StatusCode), Valid: true}
			}
			_, err := stmt.ExecContext(ctx,
				l.ID, l.CrawlID, l.SourcePageID, l.SourceURL, l.TargetURL, l.AnchorText,
				l.External, l.NoFollow, string(l.Position), status, l.IsBroken,
				l.LatencyMS, l.DenyReason,
			)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// UpsertImages writes a batch of image records in one transaction.
func (s *SQLiteStore) UpsertImages(ctx context.Context, images []*model.ImageRecord) (Outcome, error) {
	return s.upsert(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO images (id, crawl_id, page_id, src, alt, has_alt, width, height, is_broken)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			is_broken = excluded.is_broken`)
		if err != nil {
			return err
		}
		defer func() {
			_ = stmt.Close()
		}()

		for _, img := range images {
			_, err := stmt.ExecContext(ctx,
				img.ID, img.CrawlID, img.PageID, img.Src, img.Alt, img.HasAlt,
				img.Width, img.Height, img.IsBroken,
			)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// UpsertIssues writes a batch of issues in one transaction.
func (s *SQLiteStore) UpsertIssues(ctx context.Context, issues []*model.Issue) (Outcome, error) {
	return s.upsert(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO issues (id, crawl_id, page_id, type, severity, message, context)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING`)
		if err != nil {
			return err
		}
		defer func() {
			_ = stmt.Close()
		}()

		for _, issue := range issues {
			_, err := stmt.ExecContext(ctx,
				issue.ID, issue.CrawlID, issue.PageID, issue.Type,
				issue.Severity.String(), issue.Message, issue.Context,
			)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// DeleteCrawl removes a crawl and, via cascade, all of its child records.
func (s *SQLiteStore) DeleteCrawl(ctx context.Context, crawlID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM crawls WHERE id = ?`, crawlID); err != nil {
		return fmt.Errorf("failed to delete crawl: %w", err)
	}
	return nil
}

// GetCrawl loads one crawl row. Returns nil when the crawl does not exist.
func (s *SQLiteStore) GetCrawl(ctx context.Context, crawlID string) (*model.Crawl, error) {
	var (
		crawl     model.Crawl
		status    string
		created   string
		started   sql.NullString
		completed sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
	SELECT id, seed_url, status, pages_crawled, links_found, issues_found,
		max_depth, max_pages, concurrency, rate_limit, max_external_links, external_depth,
		created_at, started_at, completed_at
	FROM crawls WHERE id = ?`, crawlID).Scan(
		&crawl.ID, &crawl.SeedURL, &status,
		&crawl.PagesCrawled, &crawl.LinksFound, &crawl.IssuesFound,
		&crawl.Limits.MaxDepth, &crawl.Limits.MaxPages, &crawl.Limits.Concurrency,
		&crawl.Limits.RateLimit, &crawl.Limits.MaxExternalLinks, &crawl.Limits.ExternalDepth,
		&created, &started, &completed,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get crawl: %w", err)
	}

	crawl.Status = model.CrawlStatus(status)
	crawl.CreatedAt = parseTimestamp(created)
	if started.Valid {
		crawl.StartedAt = parseTimestamp(started.String)
	}
	if completed.Valid {
		crawl.CompletedAt = parseTimestamp(completed.String)
	}
	return &crawl, nil
}

// ListIssues loads all issues for a crawl ordered by severity, highest first.
func (s *SQLiteStore) ListIssues(ctx context.Context, crawlID string) ([]*model.Issue, error) {
	rows, err := s.db.QueryContext(ctx, `
	SELECT id, crawl_id, page_id, type, severity, message, context
	FROM issues WHERE crawl_id = ?`, crawlID)
	if err != nil {
		return nil, fmt.Errorf("failed to list issues: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var issues []*model.Issue
	for rows.Next() {
		var (
			issue    model.Issue
			pageID   sql.NullString
			severity string
			pointer  sql.NullString
		)
		if err := rows.Scan(&issue.ID, &issue.CrawlID, &pageID, &issue.Type,
			&severity, &issue.Message, &pointer); err != nil {
			return nil, fmt.Errorf("failed to scan issue: %w", err)
		}
		issue.PageID = pageID.String
		issue.Severity = model.ParseSeverity(severity)
		issue.Context = pointer.String
		issues = append(issues, &issue)
	}
	return issues, rows.Err()
}

// upsert runs fn inside a transaction and classifies any error.
func (s *SQLiteStore) upsert(ctx context.Context, fn func(tx *sql.Tx) error) (Outcome, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return classifySQLError(err), fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return classifySQLError(err), fmt.Errorf("batch write failed: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return classifySQLError(err), fmt.Errorf("failed to commit batch: %w", err)
	}
	return Ok, nil
}

// classifySQLError maps a database error to an Outcome.
// A foreign key violation means the parent crawl row is gone: the cascade
// already removed the children and nothing referencing the crawl can ever
// be inserted again, so it is Terminal. Everything else is worth a retry.
func classifySQLError(err error) Outcome {
	if err == nil {
		return Ok
	}
	if strings.Contains(err.Error(), "FOREIGN KEY constraint failed") {
		return Terminal
	}
	return Retryable
}

// nullableTime converts a possibly-zero time to a nullable column value.
func nullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.Format(time.RFC3339)
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999",
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
