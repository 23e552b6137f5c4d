package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/swimhack/ezedit-gateway/internal/domain"
)

// GetLock retrieves the lock row for a (connection, path) pair, expired or
// not. Returns (nil, nil) when no row exists; expiry is interpreted by the
// lock manager, not here.
func (s *Store) GetLock(connectionID, path string) (*domain.FileLock, error) {
	query := `
		SELECT connection_id, path, holder, expires_at, created_at, updated_at
		FROM file_locks
		WHERE connection_id = ? AND path = ?
	`

	lock := &domain.FileLock{}
	err := s.db.QueryRow(query, connectionID, path).Scan(
		&lock.ConnectionID, &lock.Path, &lock.Holder, &lock.ExpiresAt, &lock.CreatedAt, &lock.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return lock, nil
}

// UpsertLock inserts or replaces the lock row for the lock's (connection,
// path) pair. Upsert keeps acquisition, renewal, and reclaim idempotent
// under retries.
func (s *Store) UpsertLock(lock *domain.FileLock) error {
	now := time.Now().UTC()
	if lock.CreatedAt.IsZero() {
		lock.CreatedAt = now
	}
	lock.UpdatedAt = now

	query := `
		INSERT INTO file_locks (connection_id, path, holder, expires_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(connection_id, path) DO UPDATE SET
			holder = excluded.holder,
			expires_at = excluded.expires_at,
			updated_at = excluded.updated_at
	`
	_, err := s.db.Exec(query,
		lock.ConnectionID, lock.Path, lock.Holder, lock.ExpiresAt, lock.CreatedAt, lock.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert lock: %w", err)
	}
	return nil
}

// DeleteLock removes the lock row for a (connection, path) pair. Deleting a
// missing row is not an error.
func (s *Store) DeleteLock(connectionID, path string) error {
	_, err := s.db.Exec(`DELETE FROM file_locks WHERE connection_id = ? AND path = ?`, connectionID, path)
	return err
}

// DeleteExpiredLocks removes lock rows whose expiry is before the given
// instant and returns the number of rows removed.
func (s *Store) DeleteExpiredLocks(before time.Time) (int64, error) {
	res, err := s.db.Exec(`DELETE FROM file_locks WHERE expires_at < ?`, before)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
