// Package testutil provides shared helpers for integration tests.
package testutil

import (
	"context"
	"net"
	"os"
	"strconv"
	"testing"

	"github.com/gonzalop/ftp/server"
)

// StartFTPServer starts an in-process FTP server rooted at a fresh temp
// directory and returns its address plus the root directory. When users is
// non-empty, only the listed user/password pairs may log in; otherwise any
// credentials are accepted with write access. The server is shut down when
// the test finishes.
func StartFTPServer(t *testing.T, users map[string]string) (string, string) {
	t.Helper()

	rootDir := t.TempDir()

	driver, err := server.NewFSDriver(rootDir,
		server.WithAuthenticator(func(user, pass, host string, remoteIP net.IP) (string, bool, error) {
			if len(users) == 0 {
				return rootDir, false, nil
			}
			if want, ok := users[user]; ok && want == pass {
				return rootDir, false, nil
			}
			return "", false, os.ErrPermission
		}),
	)
	if err != nil {
		t.Fatalf("failed to create FTP driver: %v", err)
	}

	srv, err := server.NewServer("127.0.0.1:0", server.WithDriver(driver))
	if err != nil {
		t.Fatalf("failed to create FTP server: %v", err)
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}

	go func() {
		if serveErr := srv.Serve(ln); serveErr != nil && serveErr != server.ErrServerClosed {
			t.Logf("ftp server stopped: %v", serveErr)
		}
	}()

	t.Cleanup(func() {
		_ = srv.Shutdown(context.Background())
	})

	return ln.Addr().String(), rootDir
}

// SplitAddr breaks a host:port address into its parts.
func SplitAddr(t *testing.T, addr string) (string, int) {
	t.Helper()

	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		t.Fatalf("invalid address %q: %v", addr, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		t.Fatalf("invalid port in %q: %v", addr, err)
	}
	return host, port
}

// ClosedPortAddr returns an address on which nothing is listening.
func ClosedPortAddr(t *testing.T) string {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()
	return addr
}
