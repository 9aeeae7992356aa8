/*
Package sqlite provides a SQLite-backed timeclock.Gateway.

PURPOSE:
  Persists the engine's tables as ordered rows in a single SQLite table.
  Each row is stored as a JSON object of its string columns, keyed by the
  logical table name and an autoincrement sequence that preserves insertion
  order.

CONTRACT:
  ReadRows:     SELECT ordered by seq
  AppendRow:    one INSERT, never touches existing rows
  ReplaceRows:  DELETE + INSERTs inside one SQL transaction
  ReadTailRows: last N by seq, returned oldest first

CONCURRENCY:
  Uses sync.RWMutex on top of SQLite's own locking. The engine already
  serializes writers; the mutex keeps direct users of the gateway safe too.

WAL MODE:
  Opened with WAL (Write-Ahead Logging): readers don't block the writer.

USAGE:
  gw, err := sqlite.New("./data/timeclock.db")
  if err != nil {
      log.Fatal(err)
  }
  defer gw.Close()
  eng := timeclock.New(gw)

SEE ALSO:
  - timeclock/gateway.go: Contract
  - timeclock/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/warp/timeclock-engine/timeclock"
)

// Store implements timeclock.Gateway and timeclock.TailReader.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New opens (and migrates) the database at dbPath.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Every pooled connection would otherwise get its own empty database.
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the connection for the readiness endpoint.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) migrate() error {
	schema := `
	-- One row per logical row, insertion order = seq
	CREATE TABLE IF NOT EXISTS table_rows (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		tbl TEXT NOT NULL,
		data_json TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_table_rows_tbl_seq
		ON table_rows(tbl, seq);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// GATEWAY (timeclock.Gateway interface)
// =============================================================================

// ReadRows returns every row of table in insertion order.
func (s *Store) ReadRows(ctx context.Context, table string) ([]timeclock.Row, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryRows(ctx,
		`SELECT data_json FROM table_rows WHERE tbl = ? ORDER BY seq ASC`, table)
}

// AppendRow inserts one row after all existing ones.
func (s *Store) AppendRow(ctx context.Context, table string, row timeclock.Row) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.insertRow(ctx, s.db, table, row)
}

// ReplaceRows swaps the whole table atomically.
func (s *Store) ReplaceRows(ctx context.Context, table string, rows []timeclock.Row) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if _, err := sqlTx.ExecContext(ctx, `DELETE FROM table_rows WHERE tbl = ?`, table); err != nil {
		return fmt.Errorf("failed to clear %s: %w", table, err)
	}
	for _, row := range rows {
		if err := s.insertRow(ctx, sqlTx, table, row); err != nil {
			return err
		}
	}
	return sqlTx.Commit()
}

// ReadTailRows returns the last limit rows, oldest first.
func (s *Store) ReadTailRows(ctx context.Context, table string, limit int) ([]timeclock.Row, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.queryRows(ctx, `
		SELECT data_json FROM table_rows
		WHERE tbl = ?
		ORDER BY seq DESC
		LIMIT ?
	`, table, max(0, limit))
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
	return rows, nil
}

func (s *Store) insertRow(ctx context.Context, db interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}, table string, row timeclock.Row) error {
	data, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("failed to encode %s row: %w", table, err)
	}
	_, err = db.ExecContext(ctx,
		`INSERT INTO table_rows (tbl, data_json, created_at) VALUES (?, ?, ?)`,
		table, string(data), time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to append %s row: %w", table, err)
	}
	return nil
}

func (s *Store) queryRows(ctx context.Context, query string, args ...any) ([]timeclock.Row, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query rows: %w", err)
	}
	defer rows.Close()

	out := []timeclock.Row{}
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		row := timeclock.Row{}
		if err := json.Unmarshal([]byte(data), &row); err != nil {
			return nil, fmt.Errorf("failed to decode row: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `DELETE FROM table_rows`)
	return err
}

// Counts returns the number of rows per logical table.
func (s *Store) Counts(ctx context.Context) (map[string]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT tbl, COUNT(*) FROM table_rows GROUP BY tbl`)
	if err != nil {
		return nil, fmt.Errorf("failed to count rows: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var (
			tbl string
			n   int
		)
		if err := rows.Scan(&tbl, &n); err != nil {
			return nil, err
		}
		out[tbl] = n
	}
	return out, rows.Err()
}
