package sqlite

import (
	"context"
	"database/sql"
	"errors"

	msqlite "modernc.org/sqlite"

	"github.com/koustreak/sqlgate/internal/errs"
)

// Primary SQLite result codes (extended codes carry these in the low byte).
const (
	codeBusy     = 5
	codeLocked   = 6
	codeReadOnly = 8
	codeCantOpen = 14
	codeAuth     = 23
	codeNotADB   = 26
)

// mapError translates modernc.org/sqlite errors into *errs.Error.
func mapError(err error, msg string) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return errs.Wrap(errs.ErrKindTimeout, msg, err)
	}

	if errors.Is(err, sql.ErrNoRows) {
		return errs.Wrap(errs.ErrKindNotFound, msg, err)
	}

	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		return errs.Wrap(classify(sqliteErr.Code()), msg, err)
	}

	return errs.Wrap(errs.ErrKindQueryFailed, msg, err)
}

func classify(code int) errs.ErrKind {
	switch code & 0xff {
	case codeCantOpen, codeNotADB, codeAuth:
		return errs.ErrKindConnectionFailed
	case codeBusy, codeLocked:
		return errs.ErrKindTimeout
	case codeReadOnly:
		return errs.ErrKindPermissionDenied
	default:
		return errs.ErrKindQueryFailed
	}
}
