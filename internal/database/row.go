package database

import (
	"context"

	"github.com/google/uuid"

	"github.com/koustreak/sqlgate/internal/errs"
)

// ScanRows reads every row from the result set and returns the column names
// and the rows, each row ordered like the columns. Cell values are passed
// through Normalize.
//
// The returned row slice is always non-nil (empty slice on zero rows).
// ScanRows always closes the Rows; callers do not need to call Close().
func ScanRows(rows Rows) ([]string, [][]any, error) {
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, nil, errs.Wrap(errs.ErrKindQueryFailed, "failed to read column names", err)
	}

	result := make([][]any, 0)

	for rows.Next() {
		// Allocate scan targets as *any so the driver can write any type.
		dest := make([]any, len(columns))
		destPtrs := make([]any, len(columns))
		for i := range dest {
			destPtrs[i] = &dest[i]
		}

		if err := rows.Scan(destPtrs...); err != nil {
			return nil, nil, asQueryError(err, "failed to scan row")
		}

		for i := range dest {
			dest[i] = Normalize(dest[i])
		}
		result = append(result, dest)
	}

	if err := rows.Err(); err != nil {
		return nil, nil, asQueryError(err, "error during row iteration")
	}

	return columns, result, nil
}

// Scalar runs query and returns the first column of the first row,
// normalized. It is meant for COUNT(*)-style single-value queries.
func Scalar(ctx context.Context, s Session, query string, args ...any) (any, error) {
	var v any
	if err := s.QueryRow(ctx, query, args...).Scan(&v); err != nil {
		return nil, err
	}
	return Normalize(v), nil
}

// Normalize converts driver-specific cell values into JSON-friendly ones:
// raw bytes become strings and 16-byte UUIDs become their canonical text.
func Normalize(v any) any {
	switch x := v.(type) {
	case []byte:
		return string(x)
	case [16]byte:
		return uuid.UUID(x).String()
	default:
		return v
	}
}

// asQueryError keeps an already-classified error as is and wraps anything
// else as a query failure.
func asQueryError(err error, msg string) error {
	if errs.KindOf(err) != errs.ErrKindUnknown {
		return err
	}
	return errs.Wrap(errs.ErrKindQueryFailed, msg, err)
}
