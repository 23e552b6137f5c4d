package port

import (
	"time"

	"github.com/swimhack/ezedit-gateway/internal/domain"
)

// ConnectionRepository persists FTP connection credentials.
// Lookups return (nil, nil) when no row matches.
type ConnectionRepository interface {
	CreateConnection(c *domain.Connection) error
	GetConnection(id string) (*domain.Connection, error)
	ListConnections() ([]*domain.Connection, error)
	DeleteConnection(id string) error
}

// LockRepository persists advisory file locks. Writes are upserts keyed by
// (connection, path) so lock renewal and retries stay idempotent.
type LockRepository interface {
	GetLock(connectionID, path string) (*domain.FileLock, error)
	UpsertLock(lock *domain.FileLock) error
	DeleteLock(connectionID, path string) error
	DeleteExpiredLocks(before time.Time) (int64, error)
}

// FileRecordRepository persists the locally mirrored file metadata cache.
type FileRecordRepository interface {
	UpsertFileRecord(rec *domain.FileRecord) error
	GetFileRecord(connectionID, path string) (*domain.FileRecord, error)
	RenameFileRecord(connectionID, oldPath, newPath string) error
	DeleteFileRecord(connectionID, path string) error
	ListFileRecords(connectionID string) ([]*domain.FileRecord, error)
}

// BackupRepository persists pre-mutation snapshots.
type BackupRepository interface {
	CreateBackup(b *domain.Backup) error
	ListBackups(connectionID, path string) ([]*domain.Backup, error)
	DeleteBackupsBefore(cutoff time.Time) (int64, error)
}

// Store combines every repository backed by the same database.
type Store interface {
	ConnectionRepository
	LockRepository
	FileRecordRepository
	BackupRepository
	Ping() error
	Close() error
}
