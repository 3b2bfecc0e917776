// Package storage provides the durable local slot: a small SQLite-backed
// key-value store holding the pieces of client state that must survive a
// restart (the auth token and the display-mode flag). Each entry carries
// an updated_at timestamp so preference reconciliation can resolve
// last-writer-wins deterministically.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Well-known slot keys.
const (
	KeyToken    = "token"
	KeyDarkMode = "darkMode"
)

type Slot struct {
	db *sql.DB
}

func OpenSlot(dbPath string) (*Slot, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Slot{db: db}, nil
}

func (s *Slot) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Get reads a key. ok is false when the key is absent.
func (s *Slot) Get(key string) (value string, updatedAt time.Time, ok bool, err error) {
	row := s.db.QueryRow(`SELECT value, updated_at FROM slot WHERE key = ?`, key)
	if err := row.Scan(&value, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", time.Time{}, false, nil
		}
		return "", time.Time{}, false, fmt.Errorf("read slot %q: %w", key, err)
	}
	return value, updatedAt, true, nil
}

// Put writes a key, stamping updated_at with the current time.
func (s *Slot) Put(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO slot (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("write slot %q: %w", key, err)
	}
	return nil
}

// Delete removes a key; deleting an absent key is not an error.
func (s *Slot) Delete(key string) error {
	if _, err := s.db.Exec(`DELETE FROM slot WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete slot %q: %w", key, err)
	}
	return nil
}
