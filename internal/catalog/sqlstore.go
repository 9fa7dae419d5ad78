package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"
)

// SQLStore is a Source backed by an SQLite file. Records are stored as JSON
// documents keyed by table and lower-cased key.
type SQLStore struct {
	conn *sql.DB
	path string
	mu   sync.RWMutex
}

// OpenSQL opens an SQLite catalog at path, creating parent directories.
// WAL mode is enabled for concurrent reads.
func OpenSQL(path string) (*SQLStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create catalog db directory: %w", err)
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open catalog db: %w", err)
	}

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	return &SQLStore{conn: conn, path: path}, nil
}

// Close closes the database connection.
func (s *SQLStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.Close()
}

// Path returns the database file path.
func (s *SQLStore) Path() string {
	return s.path
}

// Migrate applies all pending schema migrations.
func (s *SQLStore) Migrate() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.conn.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("create schema_version table: %w", err)
	}

	var current int
	if err := s.conn.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&current); err != nil {
		return fmt.Errorf("get schema version: %w", err)
	}

	migrations := []struct {
		version int
		sql     string
	}{
		{1, migrationV1Records},
		{2, migrationV2Imports},
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}

		tx, err := s.conn.Begin()
		if err != nil {
			return fmt.Errorf("begin transaction: %w", err)
		}
		if _, err := tx.Exec(m.sql); err != nil {
			tx.Rollback()
			return fmt.Errorf("apply migration v%d: %w", m.version, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", m.version); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration v%d: %w", m.version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration v%d: %w", m.version, err)
		}
	}
	return nil
}

const migrationV1Records = `
CREATE TABLE IF NOT EXISTS records (
	tbl TEXT NOT NULL,
	key TEXT NOT NULL,
	data TEXT NOT NULL,
	PRIMARY KEY (tbl, key)
);
`

const migrationV2Imports = `
CREATE TABLE IF NOT EXISTS imports (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	record_count INTEGER NOT NULL,
	imported_at DATETIME DEFAULT CURRENT_TIMESTAMP
);
`

// SchemaVersion returns the highest applied migration.
func (s *SQLStore) SchemaVersion() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var v int
	if err := s.conn.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&v); err != nil {
		return 0, fmt.Errorf("get schema version: %w", err)
	}
	return v, nil
}

// Import upserts every record of from in a single transaction and returns
// the number of records written.
func (s *SQLStore) Import(ctx context.Context, from *Memory) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin import: %w", err)
	}

	n := 0
	err = from.each(func(t Table, key string, rec Record) error {
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("encode %s/%s: %w", t, key, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO records (tbl, key, data) VALUES (?, ?, ?)
			ON CONFLICT(tbl, key) DO UPDATE SET data = excluded.data
		`, string(t), key, string(data))
		if err != nil {
			return fmt.Errorf("upsert %s/%s: %w", t, key, err)
		}
		n++
		return nil
	})
	if err != nil {
		tx.Rollback()
		return 0, err
	}

	if _, err := tx.ExecContext(ctx, "INSERT INTO imports (record_count) VALUES (?)", n); err != nil {
		tx.Rollback()
		return 0, fmt.Errorf("record import: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit import: %w", err)
	}
	return n, nil
}

// Lookup implements Source.
func (s *SQLStore) Lookup(ctx context.Context, table Table, key string) (Record, bool, error) {
	if !table.Valid() {
		return nil, false, fmt.Errorf("lookup %s: %w", table, ErrUnknownTable)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var data string
	err := s.conn.QueryRowContext(ctx,
		"SELECT data FROM records WHERE tbl = ? AND key = ?",
		string(table), normalizeKey(key)).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("lookup %s/%s: %w", table, key, err)
	}

	var rec Record
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return nil, false, fmt.Errorf("decode %s/%s: %w", table, key, err)
	}
	return rec, true, nil
}

// Keys returns the sorted keys stored for table.
func (s *SQLStore) Keys(ctx context.Context, table Table) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.conn.QueryContext(ctx, "SELECT key FROM records WHERE tbl = ? ORDER BY key", string(table))
	if err != nil {
		return nil, fmt.Errorf("list %s keys: %w", table, err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("scan %s key: %w", table, err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}
