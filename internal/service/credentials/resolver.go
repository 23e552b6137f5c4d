package credentials

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/swimhack/ezedit-gateway/internal/domain"
	"github.com/swimhack/ezedit-gateway/internal/port"
)

// Resolver looks up connection credentials by id. It is a pure lookup with
// no side effects. The password is returned to callers that open sessions
// but never reaches a log line.
type Resolver struct {
	conns  port.ConnectionRepository
	logger *zap.Logger
}

// New creates a new credential Resolver
func New(conns port.ConnectionRepository, logger *zap.Logger) *Resolver {
	return &Resolver{conns: conns, logger: logger}
}

// Resolve returns the connection for id. Unknown ids fail with
// domain.ErrNotFound; a failing backing store is wrapped and surfaced as-is.
func (r *Resolver) Resolve(id string) (*domain.Connection, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: connection id is required", domain.ErrInvalidInput)
	}

	conn, err := r.conns.GetConnection(id)
	if err != nil {
		return nil, fmt.Errorf("failed to load connection %s: %w", id, err)
	}
	if conn == nil {
		r.logger.Debug("unknown connection", zap.String("connection_id", id))
		return nil, fmt.Errorf("connection %s: %w", id, domain.ErrNotFound)
	}
	return conn, nil
}

// SessionCredentials converts a connection into the credentials the session
// adapter consumes.
func SessionCredentials(conn *domain.Connection) port.Credentials {
	return port.Credentials{
		Host:     conn.Host,
		Port:     conn.Port,
		Username: conn.Username,
		Password: conn.Password,
	}
}
