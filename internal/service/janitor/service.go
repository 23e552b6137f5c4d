package janitor

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/swimhack/ezedit-gateway/internal/port"
)

// Config holds janitor settings
type Config struct {
	// SweepInterval is how often expired locks and stale backups are
	// purged.
	SweepInterval time.Duration

	// BackupRetention is how long backups are kept. Zero disables backup
	// pruning.
	BackupRetention time.Duration
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		SweepInterval:   time.Minute,
		BackupRetention: 30 * 24 * time.Hour,
	}
}

// Service periodically removes expired lock rows and backups past their
// retention window. Expiry is already enforced lazily at read time; the
// sweep just keeps the tables from growing without bound.
type Service struct {
	cfg     *Config
	locks   port.LockRepository
	backups port.BackupRepository
	logger  *zap.Logger

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New creates a new janitor Service
func New(cfg *Config, locks port.LockRepository, backups port.BackupRepository, logger *zap.Logger) *Service {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Service{
		cfg:     cfg,
		locks:   locks,
		backups: backups,
		logger:  logger,
	}
}

// Start begins the sweep loop. It blocks until ctx is cancelled or Stop is
// called.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()

	s.logger.Info("starting janitor",
		zap.Duration("sweep_interval", s.cfg.SweepInterval),
		zap.Duration("backup_retention", s.cfg.BackupRetention))

	s.wg.Add(1)
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("janitor stopped")
			return nil
		case <-ticker.C:
			s.sweep()
		}
	}
}

// Stop cancels the sweep loop and waits for it to exit.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	cancel := s.cancel
	s.mu.Unlock()

	cancel()
	s.wg.Wait()
}

func (s *Service) sweep() {
	now := time.Now().UTC()

	if n, err := s.locks.DeleteExpiredLocks(now); err != nil {
		s.logger.Error("failed to purge expired locks", zap.Error(err))
	} else if n > 0 {
		s.logger.Info("purged expired locks", zap.Int64("count", n))
	}

	if s.cfg.BackupRetention <= 0 {
		return
	}
	cutoff := now.Add(-s.cfg.BackupRetention)
	if n, err := s.backups.DeleteBackupsBefore(cutoff); err != nil {
		s.logger.Error("failed to prune old backups", zap.Error(err))
	} else if n > 0 {
		s.logger.Info("pruned old backups", zap.Int64("count", n))
	}
}
