package ftpclient

import (
	"context"
	"errors"
	"net"
	"strings"

	"github.com/gonzalop/ftp"

	"github.com/swimhack/ezedit-gateway/internal/domain"
)

// Classify maps a raw transport error into the gateway's error taxonomy.
// Errors that already belong to the taxonomy, and plain domain errors
// raised inside a session callback, pass through untouched so callers can
// keep matching on them with errors.Is/errors.As.
//
// Substring matching on error text is inherently fragile, which is why it
// lives behind this single function with a test per known pattern and an
// explicit unknown fallback instead of a guess.
func Classify(err error) error {
	if err == nil {
		return nil
	}

	if _, ok := domain.AsTransfer(err); ok {
		return err
	}
	if domain.IsLocked(err) || domain.IsConflict(err) {
		return err
	}
	if errors.Is(err, domain.ErrNotFound) ||
		errors.Is(err, domain.ErrInvalidInput) ||
		errors.Is(err, domain.ErrFileTooLarge) ||
		errors.Is(err, domain.ErrEmptyContent) {
		return err
	}

	// Structured protocol errors first: code 530 is a credential rejection,
	// everything else is a remote failure whose raw message we keep for
	// diagnostics.
	var pe *ftp.ProtocolError
	if errors.As(err, &pe) {
		if pe.Code == 530 {
			return domain.NewTransferError(domain.KindAuthFailed, err)
		}
		return domain.NewTransferError(domain.KindRemoteFailed, err)
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return domain.NewTransferError(domain.KindTimeout, err)
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return domain.NewTransferError(domain.KindHostUnreachable, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return domain.NewTransferError(domain.KindTimeout, err)
	}

	// Last resort: recognize the usual suspects by message text.
	msg := err.Error()
	switch {
	case strings.Contains(msg, "530"):
		return domain.NewTransferError(domain.KindAuthFailed, err)
	case strings.Contains(msg, "timed out"), strings.Contains(msg, "timeout"):
		return domain.NewTransferError(domain.KindTimeout, err)
	case strings.Contains(msg, "no such host"), strings.Contains(msg, "ENOTFOUND"):
		return domain.NewTransferError(domain.KindHostUnreachable, err)
	case strings.Contains(msg, "connection refused"), strings.Contains(msg, "ECONNREFUSED"):
		return domain.NewTransferError(domain.KindConnectionRefused, err)
	case strings.HasPrefix(msg, "ftp:"):
		return domain.NewTransferError(domain.KindRemoteFailed, err)
	}

	return domain.NewTransferError(domain.KindUnknown, err)
}
