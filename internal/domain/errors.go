package domain

import (
	"errors"
	"fmt"
	"time"
)

// Common domain errors
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrFileTooLarge = errors.New("file exceeds the maximum upload size")
	ErrEmptyContent = errors.New("remote file content is empty or unreadable")
	ErrUnauthorized = errors.New("missing or invalid credentials")
)

// TransferKind classifies a failed exchange with a remote FTP server.
// Raw transport errors are mapped into one of these kinds at the session
// adapter boundary; handlers never see raw protocol errors.
type TransferKind string

const (
	KindAuthFailed        TransferKind = "auth_failed"
	KindTimeout           TransferKind = "timeout"
	KindHostUnreachable   TransferKind = "host_unreachable"
	KindConnectionRefused TransferKind = "connection_refused"
	KindRemoteFailed      TransferKind = "remote_failed"
	KindUnknown           TransferKind = "unknown"
)

// TransferError wraps a transport failure with its classified kind.
type TransferError struct {
	Kind TransferKind
	Err  error
}

// Error returns the error message
func (e *TransferError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return string(e.Kind)
}

// Unwrap returns the underlying error
func (e *TransferError) Unwrap() error {
	return e.Err
}

// Retryable reports whether retrying the operation without changing inputs
// can plausibly succeed.
func (e *TransferError) Retryable() bool {
	switch e.Kind {
	case KindTimeout, KindHostUnreachable, KindConnectionRefused:
		return true
	}
	return false
}

// UserMessage returns the canned, user-facing message for the error kind.
// For generic remote failures the raw server message is appended for
// diagnostics.
func (e *TransferError) UserMessage() string {
	switch e.Kind {
	case KindAuthFailed:
		return "Login authentication failed. Please verify your username and password."
	case KindTimeout:
		return "The FTP server took too long to respond. Please try again."
	case KindHostUnreachable:
		return "FTP host not found. Please verify the hostname."
	case KindConnectionRefused:
		return "Connection refused by the FTP server. Please verify the host and port."
	case KindRemoteFailed:
		if e.Err != nil {
			return "The FTP server rejected the operation: " + e.Err.Error()
		}
		return "The FTP server rejected the operation."
	}
	return "An unexpected error occurred while talking to the FTP server."
}

// NewTransferError creates a classified transfer error.
func NewTransferError(kind TransferKind, err error) *TransferError {
	return &TransferError{Kind: kind, Err: err}
}

// AsTransfer extracts a TransferError from an error chain.
func AsTransfer(err error) (*TransferError, bool) {
	var te *TransferError
	if errors.As(err, &te) {
		return te, true
	}
	return nil, false
}

// LockedError signals that another holder's unexpired advisory lock covers
// the target path. It is a concurrency signal rather than a failure: the
// caller should surface the holder and offer wait-and-retry.
type LockedError struct {
	Holder    string
	ExpiresAt time.Time
}

// Error returns the error message
func (e *LockedError) Error() string {
	return fmt.Sprintf("file is locked by %s until %s", e.Holder, e.ExpiresAt.Format(time.RFC3339))
}

// IsLocked returns true if the error chain contains a LockedError.
func IsLocked(err error) bool {
	var le *LockedError
	return errors.As(err, &le)
}

// ConflictError signals an optimistic-concurrency failure: the remote file
// changed after the caller last read it. The caller must reload and re-apply
// its changes; the gateway never force-overwrites.
type ConflictError struct {
	Expected string
	Actual   string
}

// Error returns the error message
func (e *ConflictError) Error() string {
	return "file changed on the server since it was last read"
}

// IsConflict returns true if the error chain contains a ConflictError.
func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}
