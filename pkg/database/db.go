// Package database opens the ALEX123 SQLite database.
package database

import (
	"database/sql"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	_ "github.com/mattn/go-sqlite3"

	"lipidlibrarian/pkg/logger"
)

type Config struct {
	Path string
}

// DefaultConfig honours LIPIDLIBRARIAN_DB_PATH and falls back to
// ~/.lipidlibrarian/alex123.db.
func DefaultConfig() Config {
	if p := os.Getenv("LIPIDLIBRARIAN_DB_PATH"); p != "" {
		return Config{Path: p}
	}

	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		home = "."
	}
	return Config{
		Path: filepath.Join(home, ".lipidlibrarian", "alex123.db"),
	}
}

// InMemory reports whether the config points at an SQLite memory database.
func (c Config) InMemory() bool {
	return c.Path == ":memory:" || filepath.Base(c.Path) == ":memory:"
}

func EnsureDataDir(cfg Config) error {
	if cfg.InMemory() {
		return nil
	}
	return os.MkdirAll(filepath.Dir(cfg.Path), 0o755)
}

func Open(cfg Config) (*sql.DB, error) {
	if err := EnsureDataDir(cfg); err != nil {
		return nil, errors.Wrap(err, "ensure data dir")
	}

	db, err := sql.Open("sqlite3", cfg.Path)
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite")
	}
	if cfg.InMemory() {
		// every pooled connection would otherwise get its own empty database
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec(`PRAGMA foreign_keys = ON;`); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "pragma foreign_keys")
	}
	if !cfg.InMemory() {
		if _, err := db.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
			_ = db.Close()
			return nil, errors.Wrap(err, "pragma journal_mode")
		}
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "ping sqlite")
	}

	return db, nil
}

// OpenExisting opens a database file that must already exist. Connectors use
// it so a missing file is reported instead of silently creating an empty one.
func OpenExisting(cfg Config) (*sql.DB, error) {
	if !cfg.InMemory() {
		if _, err := os.Stat(cfg.Path); err != nil {
			return nil, errors.Wrapf(err, "alex123 database %s", cfg.Path)
		}
	}
	return Open(cfg)
}

func MustOpen(cfg Config) *sql.DB {
	db, err := Open(cfg)
	if err != nil {
		logger.Logger.Fatalw("failed to open db", "path", cfg.Path, "error", err)
	}
	return db
}
