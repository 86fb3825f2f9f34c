package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 0 - Initial schema (pre-migration)
// 1 - Added index on atoms.kind
const currentSchemaVersion = 1

// SQLiteStore is the durable Store, one row per atom.
type SQLiteStore struct {
	db *sql.DB
}

// Open opens or creates the atom database at path, then applies pragmas
// (WAL journal, NORMAL sync, 5s busy timeout, foreign keys) and migrations.
// Reopening an existing database is safe.
func Open(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open atom db %s: %w", path, err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect atom db %s: %w", path, err)
	}

	// One writer at a time; reads share the same connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, err
	}
	if err := applySchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Put stores atom under its id, replacing any previous atom with that id.
func (s *SQLiteStore) Put(ctx context.Context, atom Atom) error {
	if err := atom.Validate(); err != nil {
		return fmt.Errorf("put atom: %w", err)
	}

	payload, err := marshalAtom(atom)
	if err != nil {
		return fmt.Errorf("put atom: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO atoms (id, kind, captured_at, payload)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			kind = excluded.kind,
			captured_at = excluded.captured_at,
			payload = excluded.payload
	`,
		atom.ID,
		string(atom.Kind),
		atom.CapturedAt,
		payload,
	)
	if err != nil {
		return fmt.Errorf("put atom %s: %w", atom.ID, err)
	}
	return nil
}

// Get returns the atom stored under id, or ErrNotFound.
func (s *SQLiteStore) Get(ctx context.Context, id string) (Atom, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		"SELECT payload FROM atoms WHERE id = ?", id,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return Atom{}, fmt.Errorf("get atom %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Atom{}, fmt.Errorf("get atom %s: %w", id, err)
	}

	atom, err := unmarshalAtom(payload)
	if err != nil {
		return Atom{}, fmt.Errorf("get atom %s: %w", id, err)
	}
	return atom, nil
}

var atomPragmas = []string{
	"PRAGMA journal_mode = WAL",
	"PRAGMA synchronous = NORMAL",
	"PRAGMA busy_timeout = 5000",
	"PRAGMA foreign_keys = ON",
}

func applyPragmas(db *sql.DB) error {
	for _, pragma := range atomPragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("atom db pragma %q: %w", pragma, err)
		}
	}
	return nil
}

// applySchema creates the atoms table and migrates it to currentSchemaVersion.
func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("atom db schema: %w", err)
	}
	if err := runMigrations(db); err != nil {
		return fmt.Errorf("atom db migrations: %w", err)
	}
	return nil
}

// runMigrations brings user_version up to currentSchemaVersion.
func runMigrations(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}

	if version < 1 {
		if err := migrateToV1(db); err != nil {
			return err
		}
	}

	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}

	return nil
}

// migrateToV1 indexes atoms by kind for audit exports.
func migrateToV1(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_atoms_kind
		ON atoms(kind, captured_at)
	`)
	if err != nil {
		return fmt.Errorf("migrate to v1: %w", err)
	}
	return nil
}
