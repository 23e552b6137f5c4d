package gateway

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/swimhack/ezedit-gateway/internal/domain"
	"github.com/swimhack/ezedit-gateway/internal/port"
	"github.com/swimhack/ezedit-gateway/internal/service/backup"
	"github.com/swimhack/ezedit-gateway/internal/service/credentials"
	"github.com/swimhack/ezedit-gateway/internal/service/locks"
)

// Config holds gateway settings
type Config struct {
	// MaxUploadSize is the largest accepted upload in bytes. Zero or
	// negative disables the cap.
	MaxUploadSize int64

	// ReadRetries is the number of extra read attempts after a transient
	// failure or empty content.
	ReadRetries int

	// ReadRetryDelay is the pause between read attempts.
	ReadRetryDelay time.Duration
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		MaxUploadSize:  50 << 20,
		ReadRetries:    2,
		ReadRetryDelay: 2 * time.Second,
	}
}

// Service implements the gateway operations. Each request resolves
// credentials, consults the lock manager, opens one FTP session for the
// remote work, then finishes with best-effort bookkeeping: record upsert,
// lock release, event publish. Once the remote mutation succeeded, a
// bookkeeping failure is logged but never turned into a request failure,
// the remote server being the source of truth.
type Service struct {
	cfg      *Config
	creds    *credentials.Resolver
	locks    *locks.Manager
	backups  *backup.Recorder
	sessions port.SessionFactory
	records  port.FileRecordRepository
	events   port.Publisher
	logger   *zap.Logger
}

// New creates a new gateway Service
func New(
	cfg *Config,
	creds *credentials.Resolver,
	lockMgr *locks.Manager,
	backups *backup.Recorder,
	sessions port.SessionFactory,
	records port.FileRecordRepository,
	events port.Publisher,
	logger *zap.Logger,
) *Service {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Service{
		cfg:      cfg,
		creds:    creds,
		locks:    lockMgr,
		backups:  backups,
		sessions: sessions,
		records:  records,
		events:   events,
		logger:   logger,
	}
}

// TestRequest carries the credentials for a one-off connectivity probe.
type TestRequest struct {
	Host     string
	Port     int
	Username string
	Password string
}

// TestConnection verifies that the given credentials can open a session and
// reach the server's root directory. Nothing is stored. An empty password
// is allowed for anonymous servers.
func (s *Service) TestConnection(ctx context.Context, req TestRequest) error {
	if req.Host == "" {
		return fmt.Errorf("%w: host is required", domain.ErrInvalidInput)
	}
	if req.Username == "" {
		return fmt.Errorf("%w: username is required", domain.ErrInvalidInput)
	}

	creds := port.Credentials{Host: req.Host, Port: req.Port, Username: req.Username, Password: req.Password}
	return s.sessions.WithSession(ctx, creds, func(sess port.Session) error {
		return sess.ChangeDir("/")
	})
}

// List returns the entries of a remote directory in server order and
// refreshes the local file records for the files seen.
func (s *Service) List(ctx context.Context, connectionID, path string) ([]domain.FileEntry, error) {
	conn, err := s.creds.Resolve(connectionID)
	if err != nil {
		return nil, err
	}
	dir := domain.NormalizePath(path)

	var entries []domain.FileEntry
	err = s.sessions.WithSession(ctx, credentials.SessionCredentials(conn), func(sess port.Session) error {
		var lerr error
		entries, lerr = sess.List(remotePath(conn, dir))
		return lerr
	})
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	for _, e := range entries {
		if e.IsDirectory {
			continue
		}
		rec := &domain.FileRecord{
			ConnectionID: conn.ID,
			Path:         domain.JoinPath(dir, e.Name),
			Size:         e.Size,
			ModifiedAt:   e.Modified,
			LastSyncAt:   now,
		}
		if err := s.records.UpsertFileRecord(rec); err != nil {
			s.logger.Warn("failed to refresh file record",
				zap.String("connection_id", conn.ID),
				zap.String("path", rec.Path),
				zap.Error(err))
		}
	}
	return entries, nil
}

// Read downloads a remote file and returns its content with a SHA-256
// checksum for later optimistic-concurrency checks. Transient failures and
// empty responses are retried a couple of times before surfacing.
func (s *Service) Read(ctx context.Context, connectionID, path string) ([]byte, string, error) {
	conn, err := s.creds.Resolve(connectionID)
	if err != nil {
		return nil, "", err
	}
	npath := domain.NormalizePath(path)
	remote := remotePath(conn, npath)

	var content []byte
	attempts := 1 + s.cfg.ReadRetries
	for attempt := 1; attempt <= attempts; attempt++ {
		err = s.sessions.WithSession(ctx, credentials.SessionCredentials(conn), func(sess port.Session) error {
			var derr error
			content, derr = sess.Download(remote)
			return derr
		})
		if err == nil && len(content) > 0 {
			break
		}
		if err != nil {
			if te, ok := domain.AsTransfer(err); !ok || !te.Retryable() {
				return nil, "", err
			}
		}
		if attempt == attempts {
			break
		}
		s.logger.Debug("retrying read",
			zap.String("connection_id", conn.ID),
			zap.String("path", npath),
			zap.Int("attempt", attempt),
			zap.Error(err))
		select {
		case <-ctx.Done():
			return nil, "", domain.NewTransferError(domain.KindTimeout, ctx.Err())
		case <-time.After(s.cfg.ReadRetryDelay):
		}
	}
	if err != nil {
		return nil, "", err
	}
	if len(content) == 0 {
		return nil, "", fmt.Errorf("%s: %w", npath, domain.ErrEmptyContent)
	}

	s.events.Publish(domain.MutationEvent{
		ConnectionID: conn.ID,
		Kind:         domain.EventAccessed,
		Path:         npath,
	})
	return content, backup.Checksum(content), nil
}

// WriteRequest carries one save.
type WriteRequest struct {
	ConnectionID     string
	Path             string
	Content          []byte
	OriginalChecksum string
	Actor            string
}

// Write saves content to the remote file. The sequence is strictly
// lock-check, checksum verify, backup, remote store, record update, unlock,
// publish. A lock held by another actor rejects the write before any remote
// traffic; a checksum mismatch against the live remote content rejects it
// before the overwrite.
func (s *Service) Write(ctx context.Context, req WriteRequest) (string, error) {
	conn, err := s.creds.Resolve(req.ConnectionID)
	if err != nil {
		return "", err
	}
	npath := domain.NormalizePath(req.Path)

	if err := s.locks.Guard(conn.ID, npath, req.Actor); err != nil {
		return "", err
	}

	remote := remotePath(conn, npath)
	err = s.sessions.WithSession(ctx, credentials.SessionCredentials(conn), func(sess port.Session) error {
		original, derr := sess.Download(remote)
		if derr == nil {
			if verr := backup.Verify(req.OriginalChecksum, original); verr != nil {
				return verr
			}
			s.backups.Record(conn.ID, npath, original, req.Content)
		} else {
			s.logger.Warn("no pre-write snapshot, writing anyway",
				zap.String("connection_id", conn.ID),
				zap.String("path", npath),
				zap.Error(derr))
		}
		return sess.Upload(remote, req.Content)
	})
	if err != nil {
		return "", err
	}

	s.finishMutation(conn.ID, npath, req.Actor, domain.MutationEvent{
		ConnectionID: conn.ID,
		Kind:         domain.EventUpdated,
		Path:         npath,
		Actor:        req.Actor,
	}, func() error {
		now := time.Now().UTC()
		return s.records.UpsertFileRecord(&domain.FileRecord{
			ConnectionID: conn.ID,
			Path:         npath,
			Size:         int64(len(req.Content)),
			ModifiedAt:   now,
			LastSyncAt:   now,
		})
	})
	return backup.Checksum(req.Content), nil
}

// Rename moves a remote file. Both the old and the new path must be free of
// other holders' locks.
func (s *Service) Rename(ctx context.Context, connectionID, oldPath, newPath, actor string) error {
	conn, err := s.creds.Resolve(connectionID)
	if err != nil {
		return err
	}
	oldN := domain.NormalizePath(oldPath)
	newN := domain.NormalizePath(newPath)

	if err := s.locks.Guard(conn.ID, oldN, actor); err != nil {
		return err
	}
	if err := s.locks.Guard(conn.ID, newN, actor); err != nil {
		return err
	}

	err = s.sessions.WithSession(ctx, credentials.SessionCredentials(conn), func(sess port.Session) error {
		return sess.Rename(remotePath(conn, oldN), remotePath(conn, newN))
	})
	if err != nil {
		return err
	}

	s.finishMutation(conn.ID, oldN, actor, domain.MutationEvent{
		ConnectionID: conn.ID,
		Kind:         domain.EventRenamed,
		Path:         newN,
		OldPath:      oldN,
		Actor:        actor,
	}, func() error {
		return s.records.RenameFileRecord(conn.ID, oldN, newN)
	})
	return nil
}

// Delete removes a remote file, keeping a best-effort snapshot of its last
// content.
func (s *Service) Delete(ctx context.Context, connectionID, path, actor string) error {
	conn, err := s.creds.Resolve(connectionID)
	if err != nil {
		return err
	}
	npath := domain.NormalizePath(path)

	if err := s.locks.Guard(conn.ID, npath, actor); err != nil {
		return err
	}

	remote := remotePath(conn, npath)
	err = s.sessions.WithSession(ctx, credentials.SessionCredentials(conn), func(sess port.Session) error {
		s.backups.Capture(sess, conn.ID, npath, remote, nil)
		return sess.Remove(remote)
	})
	if err != nil {
		return err
	}

	s.finishMutation(conn.ID, npath, actor, domain.MutationEvent{
		ConnectionID: conn.ID,
		Kind:         domain.EventDeleted,
		Path:         npath,
		Actor:        actor,
	}, func() error {
		return s.records.DeleteFileRecord(conn.ID, npath)
	})
	return nil
}

// Upload stores a new file under dir and returns the stored path. Uploads
// do not consult the lock table; they are expected to target fresh names.
func (s *Service) Upload(ctx context.Context, connectionID, dir, filename string, content []byte) (string, error) {
	conn, err := s.creds.Resolve(connectionID)
	if err != nil {
		return "", err
	}
	if filename == "" {
		return "", fmt.Errorf("%w: filename is required", domain.ErrInvalidInput)
	}
	if s.cfg.MaxUploadSize > 0 && int64(len(content)) > s.cfg.MaxUploadSize {
		return "", fmt.Errorf("%d bytes: %w", len(content), domain.ErrFileTooLarge)
	}

	npath := domain.JoinPath(dir, filename)
	remote := remotePath(conn, npath)
	err = s.sessions.WithSession(ctx, credentials.SessionCredentials(conn), func(sess port.Session) error {
		s.backups.Capture(sess, conn.ID, npath, remote, content)
		return sess.Upload(remote, content)
	})
	if err != nil {
		return "", err
	}

	s.finishMutation(conn.ID, npath, "", domain.MutationEvent{
		ConnectionID: conn.ID,
		Kind:         domain.EventUploaded,
		Path:         npath,
	}, func() error {
		now := time.Now().UTC()
		return s.records.UpsertFileRecord(&domain.FileRecord{
			ConnectionID: conn.ID,
			Path:         npath,
			Size:         int64(len(content)),
			ModifiedAt:   now,
			LastSyncAt:   now,
		})
	})
	return npath, nil
}

// Lock acquires or renews an advisory lock for actor. minutes <= 0 falls
// back to the configured default TTL.
func (s *Service) Lock(ctx context.Context, connectionID, path, actor string, minutes int) (*domain.FileLock, error) {
	conn, err := s.creds.Resolve(connectionID)
	if err != nil {
		return nil, err
	}
	npath := domain.NormalizePath(path)

	var ttl time.Duration
	if minutes > 0 {
		ttl = time.Duration(minutes) * time.Minute
	}
	lock, err := s.locks.Acquire(conn.ID, npath, actor, ttl)
	if err != nil {
		return nil, err
	}

	s.events.Publish(domain.MutationEvent{
		ConnectionID: conn.ID,
		Kind:         domain.EventLocked,
		Path:         npath,
		Actor:        actor,
	})
	return lock, nil
}

// finishMutation runs the post-mutation bookkeeping shared by every write
// path: local record update, lock release for the acting holder, event
// publish. The remote change already happened, so failures here only log.
func (s *Service) finishMutation(connectionID, path, actor string, event domain.MutationEvent, updateRecord func() error) {
	if err := updateRecord(); err != nil {
		s.logger.Warn("failed to update file record after mutation",
			zap.String("connection_id", connectionID),
			zap.String("path", path),
			zap.Error(err))
	}
	if actor != "" {
		if err := s.locks.Release(connectionID, path, actor); err != nil {
			s.logger.Warn("failed to release lock after mutation",
				zap.String("connection_id", connectionID),
				zap.String("path", path),
				zap.Error(err))
		}
	}
	s.events.Publish(event)
}

// remotePath maps a gateway path onto the connection's remote namespace.
// Lock and record keys always use the gateway path; only the FTP calls see
// the root prefix.
func remotePath(conn *domain.Connection, npath string) string {
	if conn.RootDir == "" {
		return npath
	}
	return domain.JoinPath(conn.RootDir, npath)
}
