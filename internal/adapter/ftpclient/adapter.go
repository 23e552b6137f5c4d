package ftpclient

import (
	"context"
	"crypto/tls"
	"time"

	"github.com/gonzalop/ftp"
	"go.uber.org/zap"

	"github.com/swimhack/ezedit-gateway/internal/port"
)

// Config contains FTP session adapter configuration
type Config struct {
	// ConnectTimeout bounds the dial, login, and each subsequent transfer.
	// Legacy servers are slow; keep this generous.
	ConnectTimeout time.Duration

	// Secure upgrades the control connection with explicit TLS (FTPS).
	// Off by default: the sites this gateway targets speak plaintext FTP.
	Secure bool

	// TLSSkipVerify disables certificate verification when Secure is set.
	TLSSkipVerify bool
}

// DefaultConfig returns default adapter configuration
func DefaultConfig() *Config {
	return &Config{
		ConnectTimeout: 30 * time.Second,
	}
}

// Adapter opens one transient FTP session per logical operation. There is
// no pooling: every request dials, logs in, performs its operation, and
// closes the control connection. Data transfers are passive, so the
// gateway works from behind NAT and firewalls.
type Adapter struct {
	cfg    *Config
	logger *zap.Logger
}

// Ensure Adapter implements port.SessionFactory
var _ port.SessionFactory = (*Adapter)(nil)

// New creates a new FTP session adapter
func New(cfg *Config, logger *zap.Logger) *Adapter {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 30 * time.Second
	}
	return &Adapter{cfg: cfg, logger: logger}
}

// WithSession dials the server described by creds, logs in, runs fn with a
// live session, and closes the control connection on every exit path. Any
// error from the dial, the login, or fn itself is classified into a
// domain.TransferError before it reaches the caller.
func (a *Adapter) WithSession(ctx context.Context, creds port.Credentials, fn func(port.Session) error) error {
	if err := ctx.Err(); err != nil {
		return Classify(err)
	}

	timeout := a.cfg.ConnectTimeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}

	opts := []ftp.Option{ftp.WithTimeout(timeout)}
	if a.cfg.Secure {
		opts = append(opts, ftp.WithExplicitTLS(&tls.Config{
			ServerName:         creds.Host,
			InsecureSkipVerify: a.cfg.TLSSkipVerify,
		}))
	}

	client, err := ftp.Dial(creds.Addr(), opts...)
	if err != nil {
		a.logger.Debug("ftp dial failed", zap.String("host", creds.Host), zap.Error(err))
		return Classify(err)
	}
	defer func() {
		// Scoped acquisition: the control connection is released no matter
		// how fn exits.
		if qerr := client.Quit(); qerr != nil {
			a.logger.Debug("ftp quit failed", zap.String("host", creds.Host), zap.Error(qerr))
		}
	}()

	if err := client.Login(creds.Username, creds.Password); err != nil {
		a.logger.Debug("ftp login rejected",
			zap.String("host", creds.Host),
			zap.String("username", creds.Username),
			zap.Error(err))
		return Classify(err)
	}

	if err := fn(&session{client: client}); err != nil {
		return Classify(err)
	}
	return nil
}
