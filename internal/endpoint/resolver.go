// Package endpoint serves published endpoints: it resolves a stored definition by
// connection and path, binds the caller's parameters into its query
// template, and runs it through the query executor.
package endpoint

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/koustreak/sqlgate/internal/binder"
	"github.com/koustreak/sqlgate/internal/database"
	"github.com/koustreak/sqlgate/internal/errs"
	"github.com/koustreak/sqlgate/internal/logger"
	"github.com/koustreak/sqlgate/internal/query"
	"github.com/koustreak/sqlgate/internal/store"
)

// Lookup is the read side of the persistence layer the resolver needs.
type Lookup interface {
	FindEndpoint(ctx context.Context, connID, path string) (*store.Endpoint, error)
	GetConnection(ctx context.Context, id string) (*store.Connection, error)
}

// Resolver finds the published endpoint for a request.
type Resolver struct {
	lookup Lookup
}

// NewResolver returns a Resolver reading from l.
func NewResolver(l Lookup) *Resolver {
	return &Resolver{lookup: l}
}

// Resolve returns the connection and endpoint stored for (connID, path).
// The method is accepted for logging only; endpoints are keyed by path.
//
// Errors: NotFound when no endpoint is stored at path, PermissionDenied when
// it exists but is unpublished, NotFound when its connection is gone.
func (r *Resolver) Resolve(ctx context.Context, connID, method, path string) (*store.Connection, *store.Endpoint, error) {
	ep, err := r.lookup.FindEndpoint(ctx, connID, NormalizePath(path))
	if err != nil {
		if errs.IsNotFound(err) {
			return nil, nil, errs.New(errs.ErrKindNotFound, "API endpoint not found")
		}
		return nil, nil, err
	}
	if !ep.IsPublished {
		return nil, nil, errs.New(errs.ErrKindPermissionDenied, "API is not published")
	}

	conn, err := r.lookup.GetConnection(ctx, connID)
	if err != nil {
		if errs.IsNotFound(err) {
			return nil, nil, errs.New(errs.ErrKindNotFound, "Database connection not found")
		}
		return nil, nil, err
	}
	return conn, ep, nil
}

// NormalizePath returns p with exactly one leading slash.
func NormalizePath(p string) string {
	return "/" + strings.TrimLeft(p, "/")
}

// PublishURL derives the public URL of an endpoint: base, the connection id,
// then the endpoint path.
func PublishURL(base, connID, path string) string {
	return strings.TrimRight(base, "/") + "/" + connID + NormalizePath(path)
}

// Response is what a published endpoint returns: rows are objects whose
// keys follow the column order.
type Response struct {
	Columns       []string       `json:"columns"`
	Rows          []query.Record `json:"rows"`
	RowCount      int            `json:"rowCount"`
	ExecutionTime float64        `json:"executionTime"`
}

// Options tunes how the Service binds parameters.
type Options struct {
	// BoundParameters sends declared values as driver arguments instead of
	// substituting them into the query text.
	BoundParameters bool

	// ConnectTimeout is applied to every session the Service opens.
	ConnectTimeout time.Duration
}

// Service resolves and runs published endpoints.
type Service struct {
	resolver *Resolver
	adapters *database.Registry
	exec     *query.Executor
	opts     Options
	log      *logger.Logger
}

// NewService wires a Service.
func NewService(l Lookup, adapters *database.Registry, exec *query.Executor, opts Options, log *logger.Logger) *Service {
	if log == nil {
		log = logger.L()
	}
	return &Service{
		resolver: NewResolver(l),
		adapters: adapters,
		exec:     exec,
		opts:     opts,
		log:      log,
	}
}

// Serve handles one call to a published endpoint. Query-string values are
// matched against the endpoint's declared parameters; when a name repeats,
// the last value wins.
func (s *Service) Serve(ctx context.Context, connID, method, path string, params url.Values) (*Response, error) {
	conn, ep, err := s.resolver.Resolve(ctx, connID, method, path)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(ep.Query) == "" {
		return nil, errs.New(errs.ErrKindQueryFailed, "No query defined for this API")
	}

	adapter, err := s.adapters.Get(conn.Engine)
	if err != nil {
		return nil, err
	}

	supplied := make(map[string]string, len(params))
	for name, values := range params {
		if len(values) > 0 {
			supplied[name] = values[len(values)-1]
		}
	}

	var (
		text string
		args []any
	)
	if s.opts.BoundParameters {
		text, args = binder.Prepare(ep.Query, ep.ParameterNames(), supplied, adapter.Dialect().Placeholder)
	} else {
		text = binder.Bind(ep.Query, ep.ParameterNames(), supplied)
	}

	s.log.With().
		Str("connection", connID).
		Str("method", method).
		Str("path", ep.Path).
		Logger().
		Debug("serving published endpoint")

	res, err := s.exec.Execute(ctx, adapter, conn.Config(s.opts.ConnectTimeout), text, args...)
	if err != nil {
		return nil, err
	}

	return &Response{
		Columns:       res.Columns,
		Rows:          query.Records(res.Columns, res.Rows),
		RowCount:      res.RowCount,
		ExecutionTime: res.ExecutionTime,
	}, nil
}
