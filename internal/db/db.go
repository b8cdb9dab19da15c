package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/EightFlix/Error/internal/config"
)

// CurrentSchemaVersion is the latest schema version.
// Bump this when adding migrations.
const CurrentSchemaVersion = 2

// FileName is the database file created under the base directory.
const FileName = "eightflix.db"

// Init initializes the SQLite database at baseDir/eightflix.db.
// The baseDir parameter allows tests to use t.TempDir().
func Init(baseDir string) (*sql.DB, error) {
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}
	_ = os.Chmod(baseDir, 0700)

	// Pragmas in the DSN apply to every pooled connection.
	dbPath := filepath.Join(baseDir, FileName)
	dsn := dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := verifyWALMode(db); err != nil {
		db.Close()
		return nil, err
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	_ = os.Chmod(dbPath, 0600)

	return db, nil
}

// ConfigurePool applies connection pool settings from config.
// Only sets limits if explicitly configured (non-zero values).
func ConfigurePool(db *sql.DB, cfg *config.Config) {
	if cfg == nil {
		return
	}
	if cfg.DBMaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	}
	if cfg.DBMaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.DBMaxIdleConns)
	}
}

// migrations are applied in order; entry i moves the schema from version i to i+1.
var migrations = []string{
	// 1: file records. seq is the stable rowid the FTS index points at.
	`
	CREATE TABLE IF NOT EXISTS files (
	  seq        INTEGER PRIMARY KEY AUTOINCREMENT,
	  id         TEXT    NOT NULL UNIQUE,
	  file_name  TEXT    NOT NULL,
	  caption    TEXT    NOT NULL DEFAULT '',
	  file_size  INTEGER NOT NULL DEFAULT 0,
	  quality    TEXT    NOT NULL DEFAULT 'unknown',
	  created_at INTEGER NOT NULL,
	  updated_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_files_updated ON files(updated_at DESC);
	CREATE INDEX IF NOT EXISTS idx_files_name ON files(file_name);
	CREATE INDEX IF NOT EXISTS idx_files_quality ON files(quality);
	`,
	// 2: full-text index over name and caption, kept in sync by triggers.
	`
	CREATE VIRTUAL TABLE IF NOT EXISTS files_fts USING fts5(
	  file_name,
	  caption,
	  content='files',
	  content_rowid='seq',
	  tokenize='porter unicode61 remove_diacritics 2'
	);

	CREATE TRIGGER IF NOT EXISTS files_ai AFTER INSERT ON files BEGIN
	  INSERT INTO files_fts(rowid, file_name, caption)
	  VALUES (new.seq, new.file_name, new.caption);
	END;

	CREATE TRIGGER IF NOT EXISTS files_ad AFTER DELETE ON files BEGIN
	  INSERT INTO files_fts(files_fts, rowid, file_name, caption)
	  VALUES ('delete', old.seq, old.file_name, old.caption);
	END;

	CREATE TRIGGER IF NOT EXISTS files_au AFTER UPDATE OF file_name, caption ON files BEGIN
	  INSERT INTO files_fts(files_fts, rowid, file_name, caption)
	  VALUES ('delete', old.seq, old.file_name, old.caption);
	  INSERT INTO files_fts(rowid, file_name, caption)
	  VALUES (new.seq, new.file_name, new.caption);
	END;

	INSERT INTO files_fts(files_fts) VALUES ('rebuild');
	`,
}

// migrate applies schema migrations based on user_version.
func migrate(db *sql.DB) error {
	version, err := GetUserVersion(db)
	if err != nil {
		return err
	}

	for v := version; v < len(migrations); v++ {
		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("migration %d failed: %w", v+1, err)
		}
		if _, err := tx.Exec(migrations[v]); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", v+1, err)
		}
		if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version=%d", v+1)); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to set user_version: %w", err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migration %d failed: %w", v+1, err)
		}
	}

	return nil
}

// verifyWALMode checks that WAL mode is active (set via connection string).
func verifyWALMode(db *sql.DB) error {
	var journalMode string
	if err := db.QueryRow("PRAGMA journal_mode;").Scan(&journalMode); err != nil {
		return fmt.Errorf("failed to verify journal mode: %w", err)
	}
	if journalMode != "wal" {
		return fmt.Errorf("expected WAL mode, got %s", journalMode)
	}
	return nil
}

// GetUserVersion returns the current schema version (user_version pragma).
func GetUserVersion(db *sql.DB) (int, error) {
	var version int
	if err := db.QueryRow("PRAGMA user_version;").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get user_version: %w", err)
	}
	return version, nil
}
