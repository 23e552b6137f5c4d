package sqlite

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/swimhack/ezedit-gateway/internal/port"
)

// Store implements port.Store using SQLite
type Store struct {
	db *sql.DB
}

// Ensure Store implements port.Store
var _ port.Store = (*Store)(nil)

// Open opens a connection to the SQLite database
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Set pragmas for better performance
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA temp_store = MEMORY",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma %s: %w", pragma, err)
		}
	}

	store := &Store{db: db}

	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Ping checks database connectivity
func (s *Store) Ping() error {
	return s.db.Ping()
}

// migrate creates or updates the database schema
func (s *Store) migrate() error {
	migrations := []string{
		// Remote FTP endpoints and their credentials
		`CREATE TABLE IF NOT EXISTS connections (
			id TEXT PRIMARY KEY,
			label TEXT NOT NULL DEFAULT '',
			host TEXT NOT NULL,
			port INTEGER NOT NULL DEFAULT 21,
			username TEXT NOT NULL,
			password TEXT NOT NULL,
			root_dir TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,

		// Advisory locks, one row per (connection, path). Expiry is lazy:
		// rows outlive their TTL and are ignored or reclaimed by readers.
		`CREATE TABLE IF NOT EXISTS file_locks (
			connection_id TEXT NOT NULL,
			path TEXT NOT NULL,
			holder TEXT NOT NULL,
			expires_at TIMESTAMP NOT NULL,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL,
			PRIMARY KEY (connection_id, path)
		)`,

		// Mirrored remote file metadata
		`CREATE TABLE IF NOT EXISTS file_records (
			connection_id TEXT NOT NULL,
			path TEXT NOT NULL,
			size INTEGER NOT NULL DEFAULT 0,
			modified_at TIMESTAMP NOT NULL,
			last_sync_at TIMESTAMP NOT NULL,
			PRIMARY KEY (connection_id, path)
		)`,

		// Pre-mutation snapshots
		`CREATE TABLE IF NOT EXISTS backups (
			id TEXT PRIMARY KEY,
			connection_id TEXT NOT NULL,
			path TEXT NOT NULL,
			original_content BLOB,
			new_content BLOB,
			checksum TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL
		)`,

		// Create indexes for better query performance
		`CREATE INDEX IF NOT EXISTS idx_file_locks_expires ON file_locks(expires_at)`,
		`CREATE INDEX IF NOT EXISTS idx_file_records_connection ON file_records(connection_id)`,
		`CREATE INDEX IF NOT EXISTS idx_backups_connection_path ON backups(connection_id, path)`,
		`CREATE INDEX IF NOT EXISTS idx_backups_created ON backups(created_at)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, migration)
		}
	}

	return nil
}
