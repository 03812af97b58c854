package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/koustreak/sqlgate/internal/errs"
)

// PostgreSQL SQLSTATE classes that change how an error is classified.
// Full list: https://www.postgresql.org/docs/current/errcodes-appendix.html
const (
	classConnection     = "08" // connection exception
	classInvalidAuth    = "28" // invalid authorization specification
	classInsufficient   = "42501"
	codeQueryCanceled   = "57014"
	classOperatorAction = "57" // admin shutdown, cannot connect now, …
)

// mapError translates pgx / pgconn native errors into *errs.Error.
func mapError(err error, msg string) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return errs.Wrap(errs.ErrKindTimeout, msg, err)
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return errs.Wrap(errs.ErrKindNotFound, msg, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return errs.Wrap(classify(pgErr.Code), fmt.Sprintf("%s: %s", msg, pgErr.Message), err)
	}

	// Fallthrough: connection-level errors (TLS, network, auth handshake)
	if pgconn.SafeToRetry(err) || pgconn.Timeout(err) {
		return errs.Wrap(errs.ErrKindConnectionFailed, msg, err)
	}
	return errs.Wrap(errs.ErrKindQueryFailed, msg, err)
}

// classify maps a SQLSTATE code to an ErrKind.
func classify(code string) errs.ErrKind {
	switch {
	case code == codeQueryCanceled:
		return errs.ErrKindTimeout
	case code == classInsufficient:
		return errs.ErrKindPermissionDenied
	case hasClass(code, classConnection), hasClass(code, classInvalidAuth), hasClass(code, classOperatorAction):
		return errs.ErrKindConnectionFailed
	default:
		return errs.ErrKindQueryFailed
	}
}

func hasClass(code, class string) bool {
	return len(code) >= 2 && code[:2] == class
}
