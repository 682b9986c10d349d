// Package history keeps a SQLite log of completed scrape results.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/use-agent/shopsnap/models"
)

// DefaultLimit is used by Recent when limit is not positive.
const DefaultLimit = 20

// Store is a SQLite-backed result history.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens the database at path and creates the schema if needed.
// Use ":memory:" for an in-memory database.
func Open(path string) (*Store, error) {
	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer at a time.
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if _, err := conn.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}
	if path != ":memory:" {
		if _, err := conn.Exec("PRAGMA journal_mode = WAL"); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	s := &Store{db: conn, path: path}
	if err := s.createSchema(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS products (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			job_id TEXT NOT NULL UNIQUE,
			source_url TEXT NOT NULL,
			product_name TEXT NOT NULL DEFAULT '',
			product_model TEXT NOT NULL DEFAULT '',
			result_json TEXT NOT NULL,
			created_at TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_products_created_at ON products(created_at);
	`)
	return err
}

// Save records a completed result. Saving the same job twice replaces
// the earlier row.
func (s *Store) Save(ctx context.Context, jobID string, result *models.ProductResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("history: marshal result: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO products (job_id, source_url, product_name, product_model, result_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, jobID, result.SourceURL, result.ProductName, result.ProductModel, string(data),
		time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("history: insert %s: %w", jobID, err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]models.HistoryEntry, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, job_id, source_url, result_json, created_at
		FROM products
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("history: query: %w", err)
	}
	defer rows.Close()

	entries := []models.HistoryEntry{}
	for rows.Next() {
		var e models.HistoryEntry
		var resultJSON string
		if err := rows.Scan(&e.ID, &e.JobID, &e.SourceURL, &resultJSON, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("history: scan: %w", err)
		}
		var result models.ProductResult
		if err := json.Unmarshal([]byte(resultJSON), &result); err != nil {
			return nil, fmt.Errorf("history: decode %s: %w", e.JobID, err)
		}
		e.Result = &result
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Count returns the number of stored results.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM products").Scan(&n); err != nil {
		return 0, fmt.Errorf("history: count: %w", err)
	}
	return n, nil
}
