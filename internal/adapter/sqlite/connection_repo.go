package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/swimhack/ezedit-gateway/internal/domain"
)

// CreateConnection inserts a new connection row.
func (s *Store) CreateConnection(c *domain.Connection) error {
	now := time.Now().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now

	query := `
		INSERT INTO connections (id, label, host, port, username, password, root_dir, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.Exec(query,
		c.ID, c.Label, c.Host, c.Port, c.Username, c.Password, c.RootDir, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert connection: %w", err)
	}
	return nil
}

// GetConnection retrieves a connection by id. Returns (nil, nil) when the id
// is unknown.
func (s *Store) GetConnection(id string) (*domain.Connection, error) {
	query := `
		SELECT id, label, host, port, username, password, root_dir, created_at, updated_at
		FROM connections
		WHERE id = ?
	`

	c := &domain.Connection{}
	err := s.db.QueryRow(query, id).Scan(
		&c.ID, &c.Label, &c.Host, &c.Port, &c.Username, &c.Password, &c.RootDir, &c.CreatedAt, &c.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// ListConnections returns all connections ordered by label then host.
func (s *Store) ListConnections() ([]*domain.Connection, error) {
	query := `
		SELECT id, label, host, port, username, password, root_dir, created_at, updated_at
		FROM connections
		ORDER BY label, host
	`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var conns []*domain.Connection
	for rows.Next() {
		c := &domain.Connection{}
		if err := rows.Scan(
			&c.ID, &c.Label, &c.Host, &c.Port, &c.Username, &c.Password, &c.RootDir, &c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			return nil, err
		}
		conns = append(conns, c)
	}
	return conns, rows.Err()
}

// DeleteConnection removes a connection and everything keyed to it: locks,
// file records, and backups. Cascading cleanup keeps the store free of
// orphan rows when a site is disconnected.
func (s *Store) DeleteConnection(id string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	statements := []string{
		`DELETE FROM file_locks WHERE connection_id = ?`,
		`DELETE FROM file_records WHERE connection_id = ?`,
		`DELETE FROM backups WHERE connection_id = ?`,
		`DELETE FROM connections WHERE id = ?`,
	}
	for _, stmt := range statements {
		if _, err := tx.Exec(stmt, id); err != nil {
			return fmt.Errorf("failed to delete connection data: %w", err)
		}
	}

	return tx.Commit()
}
