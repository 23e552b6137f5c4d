package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/swimhack/ezedit-gateway/internal/domain"
	"github.com/swimhack/ezedit-gateway/internal/port"
	"github.com/swimhack/ezedit-gateway/internal/service/gateway"
)

// Config holds HTTP server settings
type Config struct {
	BindAddr     string
	AuthToken    string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		BindAddr:     "0.0.0.0:8080",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// FileGateway is the slice of gateway operations the HTTP surface exposes.
type FileGateway interface {
	TestConnection(ctx context.Context, req gateway.TestRequest) error
	List(ctx context.Context, connectionID, path string) ([]domain.FileEntry, error)
	Read(ctx context.Context, connectionID, path string) ([]byte, string, error)
	Write(ctx context.Context, req gateway.WriteRequest) (string, error)
	Rename(ctx context.Context, connectionID, oldPath, newPath, actor string) error
	Delete(ctx context.Context, connectionID, path, actor string) error
	Upload(ctx context.Context, connectionID, dir, filename string, content []byte) (string, error)
	Lock(ctx context.Context, connectionID, path, actor string, minutes int) (*domain.FileLock, error)
}

// Subscriber hands out per-connection mutation event streams.
type Subscriber interface {
	Subscribe(connectionID string) (<-chan domain.MutationEvent, func())
}

// Pinger reports backing-store health.
type Pinger interface {
	Ping() error
}

// Server is the HTTP API server
type Server struct {
	cfg     *Config
	gw      FileGateway
	conns   port.ConnectionRepository
	events  Subscriber
	pinger  Pinger
	logger  *zap.Logger
	server  *http.Server
	handler http.Handler
}

// NewServer creates a new HTTP API server
func NewServer(cfg *Config, gw FileGateway, conns port.ConnectionRepository, events Subscriber, pinger Pinger, logger *zap.Logger) *Server {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	s := &Server{
		cfg:    cfg,
		gw:     gw,
		conns:  conns,
		events: events,
		pinger: pinger,
		logger: logger,
	}

	mux := http.NewServeMux()

	mux.HandleFunc("/health", s.handleHealth)

	mux.HandleFunc("/api/ftp/test", s.handleTest)
	mux.HandleFunc("/api/ftp/list", s.handleList)
	mux.HandleFunc("/api/ftp/read", s.handleRead)
	mux.HandleFunc("/api/ftp/write", s.handleWrite)
	mux.HandleFunc("/api/ftp/rename", s.handleRename)
	mux.HandleFunc("/api/ftp/delete", s.handleDelete)
	mux.HandleFunc("/api/ftp/upload", s.handleUpload)
	mux.HandleFunc("/api/ftp/lock", s.handleLock)

	mux.HandleFunc("/api/connections", s.handleConnections)
	mux.HandleFunc("/api/connections/", s.handleConnectionByID)

	mux.HandleFunc("/api/logs/", s.handleLogStream)

	s.handler = s.withLogging(s.withCORS(s.withAuth(mux)))
	s.server = &http.Server{
		Addr:         cfg.BindAddr,
		Handler:      s.handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return s
}

// Handler exposes the full middleware chain, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.server.Addr))
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	return nil
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("stopping HTTP server")
	return s.server.Shutdown(ctx)
}
