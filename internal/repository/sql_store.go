package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

type Dialect string

const (
	DialectSQLite   Dialect = "sqlite3"
	DialectPostgres Dialect = "postgres"
)

// SQLStore keeps key/value pairs in a single table. The same statements work
// on SQLite and Postgres apart from placeholder syntax.
type SQLStore struct {
	DB      *sql.DB
	dialect Dialect
}

func NewSQLStore(db *sql.DB, dialect Dialect) (*SQLStore, error) {
	createTableSQL := `
	CREATE TABLE IF NOT EXISTS kv_slots (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);`
	if _, err := db.Exec(createTableSQL); err != nil {
		return nil, fmt.Errorf("failed to create kv_slots table: %w", err)
	}
	return &SQLStore{DB: db, dialect: dialect}, nil
}

// OpenSQLiteStore opens (creating if needed) the database file at path.
func OpenSQLiteStore(path string) (*SQLStore, error) {
	if path == "" {
		path = filepath.Join("data", "bikeshare.db")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	log.Printf("Opening snapshot database at %s", path)
	db, err := sql.Open(string(DialectSQLite), path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	store, err := NewSQLStore(db, DialectSQLite)
	if err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func OpenPostgresStore(dbURL string) (*SQLStore, error) {
	if dbURL == "" {
		return nil, errors.New("DATABASE_URL not set")
	}
	db, err := sql.Open(string(DialectPostgres), dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open DB: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to DB: %w", err)
	}
	store, err := NewSQLStore(db, DialectPostgres)
	if err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLStore) Close() error {
	if s.DB != nil {
		return s.DB.Close()
	}
	return nil
}

func (s *SQLStore) placeholders() (string, string) {
	if s.dialect == DialectPostgres {
		return "$1", "$2"
	}
	return "?", "?"
}

func (s *SQLStore) Get(ctx context.Context, key string) (string, bool, error) {
	p1, _ := s.placeholders()
	var value string
	err := s.DB.QueryRowContext(ctx, `SELECT value FROM kv_slots WHERE key = `+p1, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("error querying slot %q: %w", key, err)
	}
	return value, true, nil
}

func (s *SQLStore) Set(ctx context.Context, key, value string) error {
	p1, p2 := s.placeholders()
	query := `
		INSERT INTO kv_slots (key, value, updated_at)
		VALUES (` + p1 + `, ` + p2 + `, CURRENT_TIMESTAMP)
		ON CONFLICT (key) DO UPDATE SET
		value = excluded.value,
		updated_at = CURRENT_TIMESTAMP`
	if _, err := s.DB.ExecContext(ctx, query, key, value); err != nil {
		return fmt.Errorf("error writing slot %q: %w", key, err)
	}
	return nil
}

func (s *SQLStore) Delete(ctx context.Context, key string) error {
	p1, _ := s.placeholders()
	if _, err := s.DB.ExecContext(ctx, `DELETE FROM kv_slots WHERE key = `+p1, key); err != nil {
		return fmt.Errorf("error deleting slot %q: %w", key, err)
	}
	return nil
}
