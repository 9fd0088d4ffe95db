package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/pagelift/pagelift/internal/models"
	"github.com/pagelift/pagelift/internal/session"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLiteStore implements Store using modernc.org/sqlite (pure Go, no CGO).
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteStore opens (or creates) a SQLite database at the given path.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	// Ensure parent directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite only supports one concurrent writer. Limiting to a single
	// connection serializes all DB access through Go's connection pool,
	// preventing "database is locked" errors from concurrent HTTP requests.
	// It also makes UpdateSessionRecord's conditional UPDATE an atomic
	// compare-and-swap from the application's point of view.
	db.SetMaxOpenConns(1)

	// Enable WAL mode for concurrent reads
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	// Set busy timeout so concurrent writes wait instead of failing immediately
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	return &SQLiteStore{db: db, now: time.Now}, nil
}

// newULID generates a new ULID string.
func newULID() string {
	entropy := rand.New(rand.NewSource(time.Now().UnixNano()))
	return ulid.MustNew(ulid.Timestamp(time.Now()), ulid.Monotonic(entropy, 0)).String()
}

// Migrate runs all embedded SQL migration files in order.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	// Create migrations tracking table
	_, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		filename TEXT PRIMARY KEY,
		applied_at DATETIME NOT NULL DEFAULT (datetime('now'))
	)`)
	if err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	// Sort by filename
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()

		// Check if already applied
		var count int
		err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_migrations WHERE filename = ?", name).Scan(&count)
		if err != nil {
			return fmt.Errorf("check migration %s: %w", name, err)
		}
		if count > 0 {
			continue
		}

		data, err := migrationsFS.ReadFile("migrations/" + name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}

		if _, err := s.db.ExecContext(ctx, string(data)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}

		if _, err := s.db.ExecContext(ctx, "INSERT INTO schema_migrations (filename) VALUES (?)", name); err != nil {
			return fmt.Errorf("record migration %s: %w", name, err)
		}
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// --- Review sessions ---

func (s *SQLiteStore) PutSession(ctx context.Context, sessionID, record string, ttl time.Duration) error {
	now := s.now().UTC()
	key := session.StorageKey(sessionID)
	expiresAt := now.Add(ttl)

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO review_sessions (key, session_id, record, expires_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET record=excluded.record, updated_at=excluded.updated_at`,
		key, sessionID, record, expiresAt, now, now,
	)
	if err != nil {
		return fmt.Errorf("put session: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetSession(ctx context.Context, sessionID string) (string, bool, error) {
	var record string
	err := s.db.QueryRowContext(ctx,
		"SELECT record FROM review_sessions WHERE key = ?", session.StorageKey(sessionID),
	).Scan(&record)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get session: %w", err)
	}
	return record, true, nil
}

func (s *SQLiteStore) UpdateSessionRecord(ctx context.Context, sessionID, prev, next string) (bool, error) {
	result, err := s.db.ExecContext(ctx,
		"UPDATE review_sessions SET record = ?, updated_at = ? WHERE key = ? AND record = ?",
		next, s.now().UTC(), session.StorageKey(sessionID), prev,
	)
	if err != nil {
		return false, fmt.Errorf("update session record: %w", err)
	}
	n, _ := result.RowsAffected()
	return n == 1, nil
}

func (s *SQLiteStore) ListSessions(ctx context.Context, limit int) ([]SessionRecord, error) {
	query := "SELECT key, session_id, record, expires_at FROM review_sessions ORDER BY created_at DESC"
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []SessionRecord
	for rows.Next() {
		var r SessionRecord
		if err := rows.Scan(&r.Key, &r.SessionID, &r.Record, &r.ExpiresAt); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func (s *SQLiteStore) DeleteSession(ctx context.Context, sessionID string) error {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM review_sessions WHERE key = ?", session.StorageKey(sessionID))
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("session not found: %s", sessionID)
	}
	return nil
}

func (s *SQLiteStore) PurgeExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM review_sessions WHERE expires_at <= ?", now.UTC())
	if err != nil {
		return 0, fmt.Errorf("purge expired sessions: %w", err)
	}
	return result.RowsAffected()
}

// --- Audit runs ---

func (s *SQLiteStore) CreateAuditRun(ctx context.Context, run *models.AuditRun) error {
	if run.ID == "" {
		run.ID = newULID()
	}
	run.CreatedAt = s.now().UTC()

	pages, err := json.Marshal(run.Pages)
	if err != nil {
		return fmt.Errorf("marshal audit pages: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO audit_runs (id, site_url, score, pages_crawled, pages, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, run.SiteURL, run.Score, run.PagesCrawled, string(pages), run.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create audit run: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetAuditRun(ctx context.Context, id string) (*models.AuditRun, error) {
	run := &models.AuditRun{}
	var pages string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, site_url, score, pages_crawled, pages, created_at
		FROM audit_runs WHERE id = ?`, id,
	).Scan(&run.ID, &run.SiteURL, &run.Score, &run.PagesCrawled, &pages, &run.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("audit run not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get audit run: %w", err)
	}
	if err := json.Unmarshal([]byte(pages), &run.Pages); err != nil {
		return nil, fmt.Errorf("unmarshal audit pages: %w", err)
	}
	return run, nil
}

func (s *SQLiteStore) ListAuditRuns(ctx context.Context, siteURL string, limit int) ([]*models.AuditRun, error) {
	query := `SELECT id, site_url, score, pages_crawled, pages, created_at FROM audit_runs`
	args := []any{}
	if siteURL != "" {
		query += " WHERE site_url = ?"
		args = append(args, siteURL)
	}
	query += " ORDER BY created_at DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list audit runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []*models.AuditRun
	for rows.Next() {
		run := &models.AuditRun{}
		var pages string
		if err := rows.Scan(&run.ID, &run.SiteURL, &run.Score, &run.PagesCrawled, &pages, &run.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit run: %w", err)
		}
		if err := json.Unmarshal([]byte(pages), &run.Pages); err != nil {
			return nil, fmt.Errorf("unmarshal audit pages: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// --- Generated content ---

func (s *SQLiteStore) CreateContentRecord(ctx context.Context, rec *models.ContentRecord) error {
	if rec.ID == "" {
		rec.ID = newULID()
	}
	rec.CreatedAt = s.now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO content_records (id, site_url, kind, target, payload, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.SiteURL, string(rec.Kind), rec.Target, rec.Payload, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create content record: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListContentRecords(ctx context.Context, siteURL string, kind models.ContentKind) ([]*models.ContentRecord, error) {
	query := `SELECT id, site_url, kind, target, payload, created_at FROM content_records WHERE site_url = ?`
	args := []any{siteURL}
	if kind != "" {
		query += " AND kind = ?"
		args = append(args, string(kind))
	}
	query += " ORDER BY created_at DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list content records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []*models.ContentRecord
	for rows.Next() {
		rec := &models.ContentRecord{}
		var kind string
		if err := rows.Scan(&rec.ID, &rec.SiteURL, &kind, &rec.Target, &rec.Payload, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan content record: %w", err)
		}
		rec.Kind = models.ContentKind(kind)
		records = append(records, rec)
	}
	return records, rows.Err()
}
