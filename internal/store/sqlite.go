package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"voxstream/internal/world"
)

// SQLite stores encoded chunks in a single table keyed by region.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens or creates the database file at path. ":memory:" opens a
// private in-memory database.
func OpenSQLite(path string) (*SQLite, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// One connection serialises writers and keeps :memory: databases alive.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS chunks (
		key BLOB PRIMARY KEY,
		data BLOB NOT NULL
	);`); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Load(r world.Region) ([]world.Material, bool, error) {
	var b []byte
	err := s.db.QueryRow(`SELECT data FROM chunks WHERE key = ?`, Key(r)).Scan(&b)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, false, nil
	case err != nil:
		return nil, false, fmt.Errorf("sqlite load %v: %w", r, err)
	}
	data, err := Decode(b, r.Volume())
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (s *SQLite) Save(r world.Region, data []world.Material) error {
	_, err := s.db.Exec(`INSERT INTO chunks(key, data) VALUES(?, ?)
		ON CONFLICT(key) DO UPDATE SET data = excluded.data`, Key(r), Encode(data))
	if err != nil {
		return fmt.Errorf("sqlite save %v: %w", r, err)
	}
	return nil
}

// Len counts the stored chunks.
func (s *SQLite) Len() (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM chunks`).Scan(&n)
	return n, err
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
