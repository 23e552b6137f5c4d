package ftpclient

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/gonzalop/ftp"

	"github.com/swimhack/ezedit-gateway/internal/domain"
)

// timeoutErr satisfies net.Error the way a dial timeout does.
type timeoutErr struct{}

func (timeoutErr) Error() string   { return "dial tcp 10.0.0.1:21: i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestClassifyKinds(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want domain.TransferKind
	}{
		{
			name: "protocol 530",
			err:  &ftp.ProtocolError{Command: "PASS", Response: "530 Login incorrect.", Code: 530},
			want: domain.KindAuthFailed,
		},
		{
			name: "protocol 550",
			err:  &ftp.ProtocolError{Command: "DELE", Response: "550 Permission denied", Code: 550},
			want: domain.KindRemoteFailed,
		},
		{
			name: "wrapped protocol error",
			err:  fmt.Errorf("delete: %w", &ftp.ProtocolError{Command: "DELE", Response: "553 Not allowed", Code: 553}),
			want: domain.KindRemoteFailed,
		},
		{
			name: "context deadline",
			err:  context.DeadlineExceeded,
			want: domain.KindTimeout,
		},
		{
			name: "net timeout",
			err:  timeoutErr{},
			want: domain.KindTimeout,
		},
		{
			name: "dns failure",
			err:  &net.DNSError{Err: "no such host", Name: "ftp.invalid", IsNotFound: true},
			want: domain.KindHostUnreachable,
		},
		{
			name: "530 in message text",
			err:  errors.New("server said 530 before login"),
			want: domain.KindAuthFailed,
		},
		{
			name: "timeout in message text",
			err:  errors.New("read tcp 10.0.0.1:21: operation timed out"),
			want: domain.KindTimeout,
		},
		{
			name: "ENOTFOUND in message text",
			err:  errors.New("getaddrinfo ENOTFOUND ftp.legacy.example"),
			want: domain.KindHostUnreachable,
		},
		{
			name: "connection refused in message text",
			err:  errors.New("dial tcp 127.0.0.1:21: connect: connection refused"),
			want: domain.KindConnectionRefused,
		},
		{
			name: "ECONNREFUSED in message text",
			err:  errors.New("connect ECONNREFUSED 203.0.113.9:21"),
			want: domain.KindConnectionRefused,
		},
		{
			name: "unrecognized",
			err:  errors.New("something odd happened"),
			want: domain.KindUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.err)
			te, ok := domain.AsTransfer(got)
			if !ok {
				t.Fatalf("Classify() = %v, want TransferError", got)
			}
			if te.Kind != tt.want {
				t.Errorf("Kind = %s, want %s", te.Kind, tt.want)
			}
			if !errors.Is(got, tt.err) && te.Err == nil {
				t.Error("classified error lost its cause")
			}
		})
	}
}

func TestClassifyNil(t *testing.T) {
	if got := Classify(nil); got != nil {
		t.Errorf("Classify(nil) = %v, want nil", got)
	}
}

func TestClassifyPassesThroughDomainErrors(t *testing.T) {
	locked := &domain.LockedError{Holder: "alice", ExpiresAt: time.Now().Add(time.Minute)}
	conflict := &domain.ConflictError{Expected: "a", Actual: "b"}
	transfer := domain.NewTransferError(domain.KindTimeout, errors.New("slow"))

	tests := []struct {
		name string
		err  error
	}{
		{name: "locked", err: locked},
		{name: "conflict", err: conflict},
		{name: "already classified", err: transfer},
		{name: "not found", err: domain.ErrNotFound},
		{name: "wrapped not found", err: fmt.Errorf("resolve: %w", domain.ErrNotFound)},
		{name: "too large", err: domain.ErrFileTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.err {
				t.Errorf("Classify() = %v, want the error unchanged", got)
			}
		})
	}
}
