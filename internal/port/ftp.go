package port

import (
	"context"
	"net"
	"strconv"

	"github.com/swimhack/ezedit-gateway/internal/domain"
)

// Credentials is what the session adapter needs to open one FTP session.
// It is passed by value and never logged.
type Credentials struct {
	Host     string
	Port     int
	Username string
	Password string
}

// Addr returns the dial address for the credentials.
func (c Credentials) Addr() string {
	port := c.Port
	if port == 0 {
		port = domain.DefaultFTPPort
	}
	return net.JoinHostPort(c.Host, strconv.Itoa(port))
}

// Session is one live FTP control connection. A session performs exactly one
// logical operation and is closed by the factory afterwards; callers must
// not retain it past the WithSession callback.
type Session interface {
	List(path string) ([]domain.FileEntry, error)
	Download(path string) ([]byte, error)
	Upload(path string, data []byte) error
	Rename(oldPath, newPath string) error
	Remove(path string) error
	ChangeDir(path string) error
}

// SessionFactory opens a transient FTP session per request. The connection
// is closed on every exit path: fn returning an error, a panic, or a
// timeout. Errors returned by fn and by the transport are classified into
// domain.TransferError kinds.
type SessionFactory interface {
	WithSession(ctx context.Context, creds Credentials, fn func(Session) error) error
}
