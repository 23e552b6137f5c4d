package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/swimhack/ezedit-gateway/internal/domain"
)

// UpsertFileRecord inserts or refreshes the metadata row for the record's
// (connection, path) pair.
func (s *Store) UpsertFileRecord(rec *domain.FileRecord) error {
	if rec.LastSyncAt.IsZero() {
		rec.LastSyncAt = time.Now().UTC()
	}

	query := `
		INSERT INTO file_records (connection_id, path, size, modified_at, last_sync_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(connection_id, path) DO UPDATE SET
			size = excluded.size,
			modified_at = excluded.modified_at,
			last_sync_at = excluded.last_sync_at
	`
	_, err := s.db.Exec(query,
		rec.ConnectionID, rec.Path, rec.Size, rec.ModifiedAt, rec.LastSyncAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert file record: %w", err)
	}
	return nil
}

// GetFileRecord retrieves the metadata row for a (connection, path) pair.
// Returns (nil, nil) when no row exists.
func (s *Store) GetFileRecord(connectionID, path string) (*domain.FileRecord, error) {
	query := `
		SELECT connection_id, path, size, modified_at, last_sync_at
		FROM file_records
		WHERE connection_id = ? AND path = ?
	`

	rec := &domain.FileRecord{}
	err := s.db.QueryRow(query, connectionID, path).Scan(
		&rec.ConnectionID, &rec.Path, &rec.Size, &rec.ModifiedAt, &rec.LastSyncAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// RenameFileRecord moves a metadata row to a new path. A conflicting row at
// the destination is replaced, mirroring FTP rename semantics.
func (s *Store) RenameFileRecord(connectionID, oldPath, newPath string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM file_records WHERE connection_id = ? AND path = ?`, connectionID, newPath); err != nil {
		return err
	}
	if _, err := tx.Exec(
		`UPDATE file_records SET path = ?, last_sync_at = ? WHERE connection_id = ? AND path = ?`,
		newPath, time.Now().UTC(), connectionID, oldPath,
	); err != nil {
		return fmt.Errorf("failed to rename file record: %w", err)
	}

	return tx.Commit()
}

// DeleteFileRecord removes the metadata row for a (connection, path) pair.
func (s *Store) DeleteFileRecord(connectionID, path string) error {
	_, err := s.db.Exec(`DELETE FROM file_records WHERE connection_id = ? AND path = ?`, connectionID, path)
	return err
}

// ListFileRecords returns all metadata rows for a connection ordered by path.
func (s *Store) ListFileRecords(connectionID string) ([]*domain.FileRecord, error) {
	query := `
		SELECT connection_id, path, size, modified_at, last_sync_at
		FROM file_records
		WHERE connection_id = ?
		ORDER BY path
	`

	rows, err := s.db.Query(query, connectionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*domain.FileRecord
	for rows.Next() {
		rec := &domain.FileRecord{}
		if err := rows.Scan(
			&rec.ConnectionID, &rec.Path, &rec.Size, &rec.ModifiedAt, &rec.LastSyncAt,
		); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
