// Package store is a content-addressed archive of script binaries,
// keyed by SHA-256 digest and backed by SQLite.
package store

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound indicates the requested digest is not in the archive.
var ErrNotFound = errors.New("script not found")

// Store archives script binaries by content hash.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// Entry describes one archived script.
type Entry struct {
	Digest string
	Name   string
	Size   int
}

// Open opens (or creates) an archive at path. Use ":memory:" for an
// ephemeral archive.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening archive: %w", err)
	}

	// Set busy timeout for concurrent access
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS scripts (
		digest TEXT PRIMARY KEY,
		name   TEXT NOT NULL,
		bytes  BLOB NOT NULL
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating table: %w", err)
	}

	return &Store{db: db}, nil
}

// Put archives a script binary and returns its digest. Storing the
// same bytes twice is harmless; the newer name wins.
func (s *Store) Put(name string, data []byte) (string, error) {
	digest := Digest(data)

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO scripts (digest, name, bytes) VALUES (?, ?, ?)`,
		digest, name, data,
	)
	if err != nil {
		return "", fmt.Errorf("archiving %s: %w", name, err)
	}
	return digest, nil
}

// Get returns the bytes archived under digest.
func (s *Store) Get(digest string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var data []byte
	err := s.db.QueryRow(`SELECT bytes FROM scripts WHERE digest = ?`, digest).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", digest, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", digest, err)
	}
	return data, nil
}

// List returns every archived script, ordered by name.
func (s *Store) List() ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`SELECT digest, name, length(bytes) FROM scripts ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing archive: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Digest, &e.Name, &e.Size); err != nil {
			return nil, fmt.Errorf("listing archive: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Close closes the archive.
func (s *Store) Close() error {
	return s.db.Close()
}

// Digest returns the hex SHA-256 content address for data.
func Digest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
