package sqlite

import (
	"fmt"
	"time"

	"github.com/swimhack/ezedit-gateway/internal/domain"
)

// CreateBackup inserts a snapshot row. Backups are append-only.
func (s *Store) CreateBackup(b *domain.Backup) error {
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO backups (id, connection_id, path, original_content, new_content, checksum, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.Exec(query,
		b.ID, b.ConnectionID, b.Path, b.OriginalContent, b.NewContent, b.Checksum, b.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert backup: %w", err)
	}
	return nil
}

// ListBackups returns the snapshots for a (connection, path) pair, newest
// first.
func (s *Store) ListBackups(connectionID, path string) ([]*domain.Backup, error) {
	query := `
		SELECT id, connection_id, path, original_content, new_content, checksum, created_at
		FROM backups
		WHERE connection_id = ? AND path = ?
		ORDER BY created_at DESC
	`

	rows, err := s.db.Query(query, connectionID, path)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var backups []*domain.Backup
	for rows.Next() {
		b := &domain.Backup{}
		if err := rows.Scan(
			&b.ID, &b.ConnectionID, &b.Path, &b.OriginalContent, &b.NewContent, &b.Checksum, &b.CreatedAt,
		); err != nil {
			return nil, err
		}
		backups = append(backups, b)
	}
	return backups, rows.Err()
}

// DeleteBackupsBefore removes snapshots created before the cutoff and
// returns the number of rows removed. Used by the janitor when a retention
// period is configured; with no retention backups are kept indefinitely.
func (s *Store) DeleteBackupsBefore(cutoff time.Time) (int64, error) {
	res, err := s.db.Exec(`DELETE FROM backups WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
