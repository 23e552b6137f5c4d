package domain

import "time"

// Backup is a point-in-time snapshot captured immediately before a
// destructive write or delete. It is best-effort: a failed capture is
// logged and the mutation proceeds without one. Backups are never mutated
// after creation.
type Backup struct {
	ID              string    `json:"id"`
	ConnectionID    string    `json:"connectionId"`
	Path            string    `json:"path"`
	OriginalContent []byte    `json:"-"`
	NewContent      []byte    `json:"-"`
	Checksum        string    `json:"checksum"`
	CreatedAt       time.Time `json:"createdAt"`
}

// IsDelete reports whether the backup was taken for a delete rather than an
// overwrite.
func (b *Backup) IsDelete() bool {
	return b.NewContent == nil
}
