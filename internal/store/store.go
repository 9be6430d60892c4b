// Package store persists forms and submissions in a SQL document store.
// Definitions and answers are stored as JSON columns; sqlite and postgres
// are both supported behind database/sql.
package store

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/formhive/formhive/internal/config"
)

type Store struct {
	db     *sql.DB
	driver string
}

// Open connects to the configured database, verifies the connection and
// creates the schema if missing.
func Open(cfg config.DatabaseConfig) (*Store, error) {
	var db *sql.DB
	var err error

	switch cfg.Type {
	case "sqlite":
		db, err = sql.Open("sqlite", cfg.Database)
	case "postgres":
		connectionString := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			cfg.Host, cfg.Port, cfg.Username, cfg.Password, cfg.Database, cfg.SSLMode)
		db, err = sql.Open("postgres", connectionString)
	default:
		return nil, fmt.Errorf("unsupported database type: %s", cfg.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Store{db: db, driver: cfg.Type}
	if err := s.createTables(); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return s, nil
}

// OpenSQLite opens an sqlite store at the given path. Used by tests and
// local development.
func OpenSQLite(path string) (*Store, error) {
	return Open(config.DatabaseConfig{Type: "sqlite", Database: path})
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createTables() error {
	var createTableSQL string

	switch s.driver {
	case "sqlite":
		createTableSQL = `
		CREATE TABLE IF NOT EXISTS forms (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			description TEXT,
			fields TEXT NOT NULL,
			settings TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'draft',
			submissions INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			published_at DATETIME
		);
		CREATE TABLE IF NOT EXISTS submissions (
			id TEXT PRIMARY KEY,
			form_id TEXT NOT NULL,
			fields TEXT NOT NULL,
			ip_address TEXT,
			user_agent TEXT,
			referrer TEXT,
			submitted_at DATETIME NOT NULL,
			status TEXT NOT NULL DEFAULT 'pending'
		);
		CREATE INDEX IF NOT EXISTS idx_submissions_form_id ON submissions(form_id);
		CREATE INDEX IF NOT EXISTS idx_submissions_submitted_at ON submissions(submitted_at);
		CREATE INDEX IF NOT EXISTS idx_forms_status ON forms(status);
		`
	case "postgres":
		createTableSQL = `
		CREATE TABLE IF NOT EXISTS forms (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			description TEXT,
			fields JSONB NOT NULL,
			settings JSONB NOT NULL,
			status TEXT NOT NULL DEFAULT 'draft',
			submissions BIGINT NOT NULL DEFAULT 0,
			created_at TIMESTAMP WITH TIME ZONE NOT NULL,
			updated_at TIMESTAMP WITH TIME ZONE NOT NULL,
			published_at TIMESTAMP WITH TIME ZONE
		);
		CREATE TABLE IF NOT EXISTS submissions (
			id TEXT PRIMARY KEY,
			form_id TEXT NOT NULL,
			fields JSONB NOT NULL,
			ip_address TEXT,
			user_agent TEXT,
			referrer TEXT,
			submitted_at TIMESTAMP WITH TIME ZONE NOT NULL,
			status TEXT NOT NULL DEFAULT 'pending'
		);
		CREATE INDEX IF NOT EXISTS idx_submissions_form_id ON submissions(form_id);
		CREATE INDEX IF NOT EXISTS idx_submissions_submitted_at ON submissions(submitted_at);
		CREATE INDEX IF NOT EXISTS idx_forms_status ON forms(status);
		`
	}

	_, err := s.db.Exec(createTableSQL)
	return err
}

// rebind rewrites ? placeholders to $n for postgres. sqlite queries pass
// through untouched.
func (s *Store) rebind(query string) string {
	if s.driver != "postgres" {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
