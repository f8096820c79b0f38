// Package store keeps a SQLite index of the current snapshot so it can be
// explored with ad hoc SQL. The index is stored in .trx/index.db and holds no
// history: every Import replaces its contents.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// DefaultFile is the index file name inside the .trx directory.
const DefaultFile = "index.db"

// Store manages the snapshot index database.
type Store struct {
	db     *sql.DB
	dbPath string
}

// Open opens or creates the index database at path, creating parent
// directories as needed. It initializes the schema if the database is new.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create index directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open index db: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	st := &Store{db: db, dbPath: path}
	if err := st.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return st, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.dbPath
}

// DB returns the underlying database connection for advanced operations.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Stats holds row counts of the index tables.
type Stats struct {
	Requirements int64  `yaml:"requirements" json:"requirements"`
	Tests        int64  `yaml:"tests" json:"tests"`
	Links        int64  `yaml:"links" json:"links"`
	Executions   int64  `yaml:"executions" json:"executions"`
	Releases     int64  `yaml:"releases" json:"releases"`
	TestRuns     int64  `yaml:"test_runs" json:"test_runs"`
	ImportedAt   string `yaml:"imported_at,omitempty" json:"imported_at,omitempty"`
}

// Stats returns statistics about the index contents.
func (s *Store) Stats() (*Stats, error) {
	var stats Stats
	counts := []struct {
		table string
		dst   *int64
	}{
		{"requirements", &stats.Requirements},
		{"tests", &stats.Tests},
		{"links", &stats.Links},
		{"executions", &stats.Executions},
		{"releases", &stats.Releases},
		{"test_runs", &stats.TestRuns},
	}
	for _, c := range counts {
		if err := s.db.QueryRow("SELECT COUNT(*) FROM " + c.table).Scan(c.dst); err != nil {
			return nil, fmt.Errorf("count %s: %w", c.table, err)
		}
	}

	err := s.db.QueryRow("SELECT value FROM meta WHERE key = 'imported_at'").Scan(&stats.ImportedAt)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("read import time: %w", err)
	}

	return &stats, nil
}
