package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/swimhack/ezedit-gateway/internal/adapter/ftpclient"
	"github.com/swimhack/ezedit-gateway/internal/adapter/sqlite"
	"github.com/swimhack/ezedit-gateway/internal/config"
	"github.com/swimhack/ezedit-gateway/internal/logger"
	"github.com/swimhack/ezedit-gateway/internal/service/backup"
	"github.com/swimhack/ezedit-gateway/internal/service/credentials"
	"github.com/swimhack/ezedit-gateway/internal/service/events"
	"github.com/swimhack/ezedit-gateway/internal/service/gateway"
	"github.com/swimhack/ezedit-gateway/internal/service/janitor"
	"github.com/swimhack/ezedit-gateway/internal/service/locks"
	"github.com/swimhack/ezedit-gateway/internal/service/server"
)

const version = "0.1.0"

func main() {
	// Parse command line flags
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("starting ezedit-gateway",
		zap.String("version", version),
		zap.String("config", *configPath),
	)

	// Open database
	store, err := sqlite.Open(cfg.Database.Path)
	if err != nil {
		log.Fatal("failed to open database", zap.Error(err), zap.String("path", cfg.Database.Path))
	}
	defer store.Close()

	// FTP session adapter
	ftpAdapter := ftpclient.New(&ftpclient.Config{
		ConnectTimeout: cfg.FTP.GetConnectTimeout(),
		Secure:         cfg.FTP.Secure,
		TLSSkipVerify:  cfg.FTP.SkipTLSVerify,
	}, log)

	// Services
	broadcaster := events.New(log)
	lockManager := locks.New(&locks.Config{DefaultTTL: cfg.Locks.GetDefaultTTL()}, store, log)
	recorder := backup.New(store, log)
	resolver := credentials.New(store, log)

	gatewayService := gateway.New(&gateway.Config{
		MaxUploadSize:  cfg.Upload.GetMaxSize(),
		ReadRetries:    2,
		ReadRetryDelay: 2 * time.Second,
	}, resolver, lockManager, recorder, ftpAdapter, store, broadcaster, log)

	janitorService := janitor.New(&janitor.Config{
		SweepInterval:   cfg.Janitor.GetSweepInterval(),
		BackupRetention: cfg.Backups.GetRetention(),
	}, store, store, log)

	// Create HTTP server
	httpServer := server.NewServer(&server.Config{
		BindAddr:     cfg.HTTP.BindAddr,
		AuthToken:    cfg.HTTP.AuthToken,
		ReadTimeout:  cfg.HTTP.GetReadTimeout(),
		WriteTimeout: cfg.HTTP.GetWriteTimeout(),
		IdleTimeout:  cfg.HTTP.GetIdleTimeout(),
	}, gatewayService, store, broadcaster, store, log)

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start HTTP server
	go func() {
		if err := httpServer.Start(); err != nil {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// Start janitor
	if cfg.Janitor.Enabled {
		go func() {
			if err := janitorService.Start(ctx); err != nil && err != context.Canceled {
				log.Error("janitor stopped with error", zap.Error(err))
			}
		}()
	}

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	log.Info("application started successfully",
		zap.String("http_addr", cfg.HTTP.BindAddr),
		zap.String("database", cfg.Database.Path),
	)
	<-sigChan

	log.Info("shutdown signal received, stopping services...")

	cancel()

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if cfg.Janitor.Enabled {
		janitorService.Stop()
	}

	if err := httpServer.Stop(shutdownCtx); err != nil {
		log.Error("failed to stop HTTP server gracefully", zap.Error(err))
	}

	log.Info("shutdown complete")
}
