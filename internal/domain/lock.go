package domain

import "time"

// DefaultLockTTL is the lock lifetime applied when a caller does not ask for
// a specific duration. Clients renew every 30 seconds while editing, so the
// TTL is deliberately large relative to the renewal cadence.
const DefaultLockTTL = 15 * time.Minute

// FileLock is an advisory exclusive lock on one (connection, path) pair.
// At most one unexpired lock exists per pair. The lock is cooperative: the
// remote FTP server knows nothing about it, and only well-behaved gateway
// clients honor it.
type FileLock struct {
	ConnectionID string    `json:"connectionId"`
	Path         string    `json:"path"`
	Holder       string    `json:"holder"`
	ExpiresAt    time.Time `json:"expiresAt"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Expired reports whether the lock is past its expiry at the given instant.
// An expired lock is treated exactly like no lock at all.
func (l *FileLock) Expired(now time.Time) bool {
	return now.After(l.ExpiresAt)
}

// HeldBy reports whether holder owns the lock.
func (l *FileLock) HeldBy(holder string) bool {
	return l.Holder == holder
}
