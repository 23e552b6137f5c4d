package backup

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/swimhack/ezedit-gateway/internal/domain"
	"github.com/swimhack/ezedit-gateway/internal/port"
)

// Checksum returns the SHA-256 hex digest of content. This is the checksum
// clients hold for optimistic-concurrency checks.
func Checksum(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// Verify compares the checksum a caller last read against the live remote
// content. An empty expected checksum skips the check. On mismatch the
// caller gets a domain.ConflictError and must reload instead of
// overwriting.
func Verify(expected string, live []byte) error {
	if expected == "" {
		return nil
	}
	if actual := Checksum(live); actual != expected {
		return &domain.ConflictError{Expected: expected, Actual: actual}
	}
	return nil
}

// Recorder stores last-known-good snapshots before destructive mutations.
// Everything here is best-effort: a missing backup is logged, never allowed
// to block a user's save.
type Recorder struct {
	backups port.BackupRepository
	logger  *zap.Logger
}

// New creates a new backup Recorder
func New(backups port.BackupRepository, logger *zap.Logger) *Recorder {
	return &Recorder{backups: backups, logger: logger}
}

// Record stores a snapshot of original alongside the content about to
// replace it (nil for deletes). Storage failures are logged and swallowed.
func (r *Recorder) Record(connectionID, path string, original, newContent []byte) *domain.Backup {
	b := &domain.Backup{
		ID:              uuid.NewString(),
		ConnectionID:    connectionID,
		Path:            path,
		OriginalContent: original,
		NewContent:      newContent,
		Checksum:        Checksum(original),
	}

	if err := r.backups.CreateBackup(b); err != nil {
		r.logger.Warn("failed to store backup, continuing without one",
			zap.String("connection_id", connectionID),
			zap.String("path", path),
			zap.Error(err))
		return nil
	}
	return b
}

// Capture fetches the current remote content through the caller's session
// and records it. A failed fetch (file does not exist yet, transient read
// error) logs a warning and returns nil; the caller's mutation proceeds.
func (r *Recorder) Capture(sess port.Session, connectionID, path, remotePath string, newContent []byte) *domain.Backup {
	original, err := sess.Download(remotePath)
	if err != nil {
		r.logger.Warn("skipping backup, could not fetch current content",
			zap.String("connection_id", connectionID),
			zap.String("path", path),
			zap.Error(err))
		return nil
	}
	return r.Record(connectionID, path, original, newContent)
}
