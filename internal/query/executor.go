package query

import (
	"context"
	"regexp"
	"time"

	"github.com/koustreak/sqlgate/internal/database"
	"github.com/koustreak/sqlgate/internal/errs"
	"github.com/koustreak/sqlgate/internal/logger"
)

// DefaultPreviewLimit is the number of rows TableData returns when the
// caller passes a non-positive limit.
const DefaultPreviewLimit = 25

var tableNamePattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// Executor runs queries through an adapter, one fresh session per call.
type Executor struct {
	log *logger.Logger
}

// NewExecutor returns an Executor. A nil logger falls back to the global one.
func NewExecutor(log *logger.Logger) *Executor {
	if log == nil {
		log = logger.L()
	}
	return &Executor{log: log}
}

// Run executes text in ad-hoc mode. It always returns a Result: any failure,
// including failing to open the session, is captured in Result.Error.
func (e *Executor) Run(ctx context.Context, a database.Adapter, cfg *database.Config, text string) *Result {
	start := time.Now()
	cols, rows, err := e.fetch(ctx, a, cfg, text)
	elapsed := millisSince(start)

	if err != nil {
		detail := errs.Detail(err)
		e.log.With().Str("engine", string(a.Engine())).Str("target", cfg.Target()).Err(err).Logger().
			Debug("ad-hoc query failed")
		return &Result{
			Columns:       []string{},
			Rows:          [][]any{},
			RowCount:      0,
			ExecutionTime: elapsed,
			Error:         &detail,
		}
	}

	return &Result{
		Columns:       cols,
		Rows:          rows,
		RowCount:      len(rows),
		ExecutionTime: elapsed,
	}
}

// Execute runs text for a published endpoint. Unlike Run, failures are
// returned as errors: a failure to open the session keeps its kind and
// everything else is a query failure.
func (e *Executor) Execute(ctx context.Context, a database.Adapter, cfg *database.Config, text string, args ...any) (*Result, error) {
	start := time.Now()
	cols, rows, err := e.fetch(ctx, a, cfg, text, args...)
	elapsed := millisSince(start)

	if err != nil {
		if !errs.IsConnectionFailed(err) && !errs.IsTimeout(err) {
			err = errs.Wrap(errs.ErrKindQueryFailed, "Query execution failed", err)
		}
		e.log.WarnWith("published query failed", err, map[string]any{
			"engine": string(a.Engine()),
			"target": cfg.Target(),
		})
		return nil, err
	}

	return &Result{
		Columns:       cols,
		Rows:          rows,
		RowCount:      len(rows),
		ExecutionTime: elapsed,
	}, nil
}

// TableData returns the first limit rows of table as ordered records. The
// table name must be letters, digits, and underscores only.
func (e *Executor) TableData(ctx context.Context, a database.Adapter, cfg *database.Config, table string, limit int) ([]Record, error) {
	if err := ValidateTableName(table); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultPreviewLimit
	}

	q, args := database.Select(table, a.Dialect()).In(a.Namespace(cfg)).Limit(limit).Build()

	var (
		cols []string
		rows [][]any
	)
	err := database.WithSession(ctx, a, cfg, func(s database.Session) error {
		r, err := s.Query(ctx, q, args...)
		if err != nil {
			return err
		}
		cols, rows, err = database.ScanRows(r)
		return err
	})
	if err != nil {
		return nil, err
	}
	return Records(cols, rows), nil
}

// ValidateTableName rejects anything but [A-Za-z0-9_]+.
func ValidateTableName(name string) error {
	if !tableNamePattern.MatchString(name) {
		return errs.Newf(errs.ErrKindInvalidInput, "Invalid table name %q", name)
	}
	return nil
}

// fetch opens a session, runs text, and scans every row. With no rows the
// column list is empty.
func (e *Executor) fetch(ctx context.Context, a database.Adapter, cfg *database.Config, text string, args ...any) ([]string, [][]any, error) {
	var (
		cols []string
		rows [][]any
	)
	err := database.WithSession(ctx, a, cfg, func(s database.Session) error {
		r, err := s.Query(ctx, text, args...)
		if err != nil {
			return err
		}
		cols, rows, err = database.ScanRows(r)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	if len(rows) == 0 {
		cols = []string{}
	}
	return cols, rows, nil
}

func millisSince(t time.Time) float64 {
	return float64(time.Since(t)) / float64(time.Millisecond)
}
