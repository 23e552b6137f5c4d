package locks

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/swimhack/ezedit-gateway/internal/domain"
	"github.com/swimhack/ezedit-gateway/internal/port"
)

// Config contains lock manager configuration
type Config struct {
	// DefaultTTL is the lock lifetime used when a caller does not request a
	// specific duration.
	DefaultTTL time.Duration
}

// DefaultConfig returns default lock manager configuration
func DefaultConfig() *Config {
	return &Config{DefaultTTL: domain.DefaultLockTTL}
}

// Manager is the sole arbiter of advisory file locks. Locks are time-boxed:
// an expired row behaves exactly like no lock, so there is no reaper in the
// acquisition path and reclaiming a stale lock is just acquiring it.
type Manager struct {
	cfg    *Config
	locks  port.LockRepository
	logger *zap.Logger
	now    func() time.Time
}

// New creates a new lock Manager
func New(cfg *Config, locks port.LockRepository, logger *zap.Logger) *Manager {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.DefaultTTL <= 0 {
		cfg.DefaultTTL = domain.DefaultLockTTL
	}
	return &Manager{cfg: cfg, locks: locks, logger: logger, now: time.Now}
}

// Acquire takes the lock for (connectionID, path) on behalf of holder, or
// renews it when holder already owns it. Renewal extends the expiry and
// never shortens it. An unexpired lock owned by someone else fails with
// domain.LockedError. ttl <= 0 selects the configured default.
func (m *Manager) Acquire(connectionID, path, holder string, ttl time.Duration) (*domain.FileLock, error) {
	if holder == "" {
		return nil, fmt.Errorf("%w: lock holder is required", domain.ErrInvalidInput)
	}
	if ttl <= 0 {
		ttl = m.cfg.DefaultTTL
	}
	path = domain.NormalizePath(path)
	now := m.now()

	existing, err := m.locks.GetLock(connectionID, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read lock: %w", err)
	}

	if existing != nil && !existing.Expired(now) && !existing.HeldBy(holder) {
		return nil, &domain.LockedError{Holder: existing.Holder, ExpiresAt: existing.ExpiresAt}
	}

	lock := &domain.FileLock{
		ConnectionID: connectionID,
		Path:         path,
		Holder:       holder,
		ExpiresAt:    now.Add(ttl),
	}
	if existing != nil && !existing.Expired(now) && existing.HeldBy(holder) {
		lock.CreatedAt = existing.CreatedAt
		if existing.ExpiresAt.After(lock.ExpiresAt) {
			lock.ExpiresAt = existing.ExpiresAt
		}
	}

	if err := m.locks.UpsertLock(lock); err != nil {
		return nil, fmt.Errorf("failed to store lock: %w", err)
	}

	m.logger.Debug("lock acquired",
		zap.String("connection_id", connectionID),
		zap.String("path", path),
		zap.String("holder", holder),
		zap.Time("expires_at", lock.ExpiresAt))
	return lock, nil
}

// Status returns the active lock for (connectionID, path), or nil when the
// path is unlocked or the lock has expired.
func (m *Manager) Status(connectionID, path string) (*domain.FileLock, error) {
	path = domain.NormalizePath(path)

	lock, err := m.locks.GetLock(connectionID, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read lock: %w", err)
	}
	if lock == nil || lock.Expired(m.now()) {
		return nil, nil
	}
	return lock, nil
}

// Guard fails with domain.LockedError when an unexpired lock owned by
// someone other than actor covers (connectionID, path). Mutating handlers
// call this before touching the remote file.
func (m *Manager) Guard(connectionID, path, actor string) error {
	lock, err := m.Status(connectionID, path)
	if err != nil {
		return err
	}
	if lock != nil && !lock.HeldBy(actor) {
		return &domain.LockedError{Holder: lock.Holder, ExpiresAt: lock.ExpiresAt}
	}
	return nil
}

// Release drops the lock for (connectionID, path) when holder owns it.
// Releasing a lock you do not hold, or one that does not exist, is a no-op
// rather than an error.
func (m *Manager) Release(connectionID, path, holder string) error {
	path = domain.NormalizePath(path)

	lock, err := m.locks.GetLock(connectionID, path)
	if err != nil {
		return fmt.Errorf("failed to read lock: %w", err)
	}
	if lock == nil || !lock.HeldBy(holder) {
		return nil
	}

	if err := m.locks.DeleteLock(connectionID, path); err != nil {
		return fmt.Errorf("failed to release lock: %w", err)
	}

	m.logger.Debug("lock released",
		zap.String("connection_id", connectionID),
		zap.String("path", path),
		zap.String("holder", holder))
	return nil
}
