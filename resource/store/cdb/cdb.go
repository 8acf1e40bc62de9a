package cdb

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/mycok/halreslib/resource"
)

var (
	insertResourceQuery = fmt.Sprintf(
		"INSERT INTO resources (%s) VALUES (%s)",
		strings.Join(resource.Columns, ", "), placeholders(len(resource.Columns)),
	)

	listURLsQuery = "SELECT url FROM resources"
)

var _ resource.Store = (*CockroachDBStore)(nil)

// CockroachDBStore implements a persistent resource store on top of a
// CockroachDB or PostgreSQL instance. The resources table is expected to
// exist already.
type CockroachDBStore struct {
	db *sql.DB
}

// NewCockroachDBStore opens and pings a connection to the database at dsn.
func NewCockroachDBStore(dsn string) (*CockroachDBStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()

		return nil, err
	}

	return &CockroachDBStore{db}, nil
}

// Close terminates the connection to the database.
func (s *CockroachDBStore) Close() error {
	return s.db.Close()
}

// Insert writes resources inside a single transaction. Either every row is
// committed or none is.
func (s *CockroachDBStore) Insert(ctx context.Context, resources []*resource.Resource) error {
	if len(resources) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("insert resources: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, insertResourceQuery)
	if err != nil {
		_ = tx.Rollback()

		return fmt.Errorf("insert resources: %w", err)
	}
	defer stmt.Close()

	for _, r := range resources {
		if _, err = stmt.ExecContext(ctx, r.Values()...); err != nil {
			_ = tx.Rollback()

			return fmt.Errorf("insert resources: %s: %w", r.URL, describe(err))
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("insert resources: %w", err)
	}

	return nil
}

// ListURLs returns the URL of every stored resource.
func (s *CockroachDBStore) ListURLs(ctx context.Context) ([]string, error) {
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

func placeholders(n int) string {
	list := make([]string, n)
	for i := range list {
		list[i] = fmt.Sprintf("$%d", i+1)
	}

	return strings.Join(list, ", ")
}

// describe adds the postgres error code name to driver errors.
func describe(err error) error {
	pqErr, ok := err.(*pq.Error)
	if !ok {
		return err
	}

	return fmt.Errorf("%s: %w", pqErr.Code.Name(), err)
}
