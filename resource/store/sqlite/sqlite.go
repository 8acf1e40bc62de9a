package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/mycok/halreslib/resource"
)

const schema = `
CREATE TABLE IF NOT EXISTS resources (
	id          TEXT NOT NULL,
	url         TEXT NOT NULL,
	scheme      TEXT NOT NULL,
	host        TEXT NOT NULL,
	path        TEXT NOT NULL,
	live_status TEXT NOT NULL,
	title       TEXT NOT NULL,
	auto_descr  TEXT NOT NULL,
	man_descr   TEXT NOT NULL,
	crea_user   TEXT NOT NULL,
	crea_time   TEXT NOT NULL,
	modi_user   TEXT NOT NULL,
	modi_time   TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS resources_id_idx ON resources (id);
`

var (
	insertResourceQuery = fmt.Sprintf(
		"INSERT INTO resources (%s) VALUES (%s)",
		strings.Join(resource.Columns, ", "),
		strings.TrimSuffix(strings.Repeat("?, ", len(resource.Columns)), ", "),
	)

	listURLsQuery = "SELECT url FROM resources ORDER BY rowid"
)

var _ resource.Store = (*SQLiteStore)(nil)

// SQLiteStore is a resource store backed by an embedded SQLite database file.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore opens the database at path, creating the file, its parent
// directory and the resources table when missing.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// SQLite allows a single writer; one connection keeps all writes of a
	// process serialized.
	db.SetMaxOpenConns(1)

	if _, err = db.Exec(schema); err != nil {
		db.Close()

		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &SQLiteStore{db: db, path: path}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string {
	return s.path
}

// Insert writes resources inside a single transaction.
func (s *SQLiteStore) Insert(ctx context.Context, resources []*resource.Resource) error {
	if len(resources) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("insert resources: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, insertResourceQuery)
	if err != nil {
		return fmt.Errorf("insert resources: %w", err)
	}
	defer stmt.Close()

	for _, r := range resources {
		if _, err = stmt.ExecContext(ctx, r.Values()...); err != nil {
			return fmt.Errorf("insert resources: %s: %w", r.URL, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("insert resources: %w", err)
	}

	return nil
}

// ListURLs returns the URL of every stored resource in insertion order.
func (s *SQLiteStore) ListURLs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, listURLsQuery)
	if err != nil {
		return nil, fmt.Errorf("list urls: %w", err)
	}
	defer rows.Close()

	urls := []string{}
	for rows.Next() {
		var u string
		if err = rows.Scan(&u); err != nil {
			return nil, fmt.Errorf("list urls: %w", err)
		}

		urls = append(urls, u)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("list urls: %w", err)
	}

	return urls, nil
}
