// Package schema derives a normalized Schema from an engine's native
// catalog metadata.
package schema

import (
	"context"
	"fmt"
	"strconv"

	"github.com/koustreak/sqlgate/internal/database"
	"github.com/koustreak/sqlgate/internal/errs"
)

// Introspect opens one session through a, enumerates the tables of the
// adapter's namespace for cfg, and returns the assembled Schema.
//
// A failure to open the session is a connection failure. Any failure after
// that aborts the whole scan and is reported as an introspection failure;
// partially built schemas are never returned.
func Introspect(ctx context.Context, a database.Adapter, cfg *database.Config) (*Schema, error) {
	newReader, ok := readers[a.Engine()]
	if !ok {
		return nil, errs.Newf(errs.ErrKindInvalidInput, "no catalog reader for engine %q", a.Engine())
	}

	ns := a.Namespace(cfg)
	name := ns
	if name == "" {
		name = cfg.Database
	}

	var out *Schema
	opened := false
	err := database.WithSession(ctx, a, cfg, func(s database.Session) error {
		opened = true
		tables, err := scan(ctx, newReader(s, ns), s, a.Dialect(), ns)
		if err != nil {
			return err
		}
		out = &Schema{Name: name, Tables: tables}
		return nil
	})
	if err != nil {
		if !opened {
			if errs.KindOf(err) == errs.ErrKindUnknown {
				return nil, errs.Wrap(errs.ErrKindConnectionFailed, "could not open session to "+cfg.Target(), err)
			}
			return nil, err
		}
		if errs.IsIntrospectionFailed(err) {
			return nil, err
		}
		return nil, errs.Wrap(errs.ErrKindIntrospectionFailed, "failed to introspect "+name, err)
	}
	return out, nil
}

func scan(ctx context.Context, r reader, s database.Session, d database.Dialect, ns string) ([]Table, error) {
	names, err := r.ListTables(ctx)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindIntrospectionFailed, "list tables", err)
	}

	tables := make([]Table, 0, len(names))
	for _, name := range names {
		cols, err := r.Columns(ctx, name)
		if err != nil {
			return nil, errs.Wrap(errs.ErrKindIntrospectionFailed, "columns of "+name, err)
		}

		count, err := rowCount(ctx, s, d, ns, name)
		if err != nil {
			return nil, errs.Wrap(errs.ErrKindIntrospectionFailed, "row count of "+name, err)
		}

		desc, err := r.Description(ctx, name)
		if err != nil {
			return nil, errs.Wrap(errs.ErrKindIntrospectionFailed, "description of "+name, err)
		}

		tables = append(tables, Table{
			Name:        name,
			RowCount:    count,
			Description: desc,
			Columns:     cols,
		})
	}
	return tables, nil
}

// rowCount runs an exact COUNT(*). This is a full scan on most engines.
func rowCount(ctx context.Context, s database.Session, d database.Dialect, ns, table string) (int64, error) {
	q, args := database.Select(table, d).In(ns).Count().Build()
	v, err := database.Scalar(ctx, s, q, args...)
	if err != nil {
		return 0, err
	}
	return toInt64(v)
}

func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int32:
		return int64(n), nil
	case int:
		return int64(n), nil
	case uint64:
		return int64(n), nil
	case float64:
		return int64(n), nil
	case string:
		return strconv.ParseInt(n, 10, 64)
	default:
		return 0, fmt.Errorf("unexpected count type %T", v)
	}
}

// collect drains rows with scanFn, closing them on every path.
func collect[T any](rows database.Rows, scanFn func(database.Rows) (T, error)) ([]T, error) {
	defer rows.Close()

	out := make([]T, 0)
	for rows.Next() {
		v, err := scanFn(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func scanName(rows database.Rows) (string, error) {
	var name string
	err := rows.Scan(&name)
	return name, err
}
