// Package connection implements the operations behind the management API:
// registering databases, introspecting them, previewing and querying their
// data, and generating and publishing endpoints over them.
package connection

import (
	"context"
	"strings"
	"time"

	"github.com/koustreak/sqlgate/internal/database"
	"github.com/koustreak/sqlgate/internal/endpoint"
	"github.com/koustreak/sqlgate/internal/errs"
	"github.com/koustreak/sqlgate/internal/generate"
	"github.com/koustreak/sqlgate/internal/logger"
	"github.com/koustreak/sqlgate/internal/query"
	"github.com/koustreak/sqlgate/internal/schema"
	"github.com/koustreak/sqlgate/internal/store"
)

// Store is the persistence the Service needs. *store.Store implements it.
type Store interface {
	CreateConnection(ctx context.Context, c *store.Connection) error
	GetConnection(ctx context.Context, id string) (*store.Connection, error)
	ListConnections(ctx context.Context, userID string) ([]*store.Connection, error)
	UpdateConnectionStatus(ctx context.Context, id string, r store.StatusRefresh) error

	SaveEndpoint(ctx context.Context, connID string, ep *store.Endpoint) error
	GetEndpoint(ctx context.Context, connID, id string) (*store.Endpoint, error)
	ListEndpoints(ctx context.Context, connID string) ([]*store.Endpoint, error)
	PublishEndpoint(ctx context.Context, connID, id, url string) (*store.Endpoint, error)
}

// Generator produces query suggestions and endpoint definitions from a
// prompt and the schema description text. *generate.Service implements it.
type Generator interface {
	SuggestQuery(ctx context.Context, engine database.Engine, schemaText, prompt string) (*generate.QuerySuggestion, error)
	GenerateEndpoint(ctx context.Context, engine database.Engine, schemaText, prompt string, options map[string]any) (*store.Endpoint, error)
}

// Options holds the settings the Service applies to every call.
type Options struct {
	// BaseURL prefixes published endpoint URLs.
	BaseURL string

	ConnectTimeout time.Duration

	// PreviewLimit is the row count returned by TableData.
	PreviewLimit int
}

// Service implements the management operations.
type Service struct {
	store    Store
	adapters *database.Registry
	exec     *query.Executor
	gen      Generator
	opts     Options
	log      *logger.Logger
	now      func() time.Time
}

// NewService wires a Service. A nil logger falls back to the global one.
func NewService(st Store, adapters *database.Registry, exec *query.Executor, gen Generator, opts Options, log *logger.Logger) *Service {
	if log == nil {
		log = logger.L()
	}
	if opts.PreviewLimit <= 0 {
		opts.PreviewLimit = query.DefaultPreviewLimit
	}
	return &Service{
		store:    st,
		adapters: adapters,
		exec:     exec,
		gen:      gen,
		opts:     opts,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// RegisterRequest is the payload of a connection registration.
type RegisterRequest struct {
	UserID       string `json:"user_id"`
	Name         string `json:"name"`
	Type         string `json:"type"`
	Host         string `json:"host"`
	Port         int    `json:"port"`
	Username     string `json:"username"`
	Password     string `json:"password"`
	DatabaseName string `json:"database_name"`
}

func (r *RegisterRequest) validate() (database.Engine, error) {
	if strings.TrimSpace(r.UserID) == "" {
		return "", errs.New(errs.ErrKindInvalidInput, "user_id is required")
	}
	if strings.TrimSpace(r.Name) == "" {
		return "", errs.New(errs.ErrKindInvalidInput, "name is required")
	}
	engine, err := database.ParseEngine(r.Type)
	if err != nil {
		return "", errs.Wrap(errs.ErrKindInvalidInput, "invalid database type", err)
	}
	if strings.TrimSpace(r.DatabaseName) == "" {
		return "", errs.New(errs.ErrKindInvalidInput, "database_name is required")
	}
	if !engine.FileBased() && strings.TrimSpace(r.Host) == "" {
		return "", errs.Newf(errs.ErrKindInvalidInput, "host is required for %s", engine)
	}
	if r.Port < 0 || r.Port > 65535 {
		return "", errs.Newf(errs.ErrKindInvalidInput, "invalid port %d", r.Port)
	}
	return engine, nil
}

// Register stores a new connection after exactly one reachability test.
// An unreachable database is stored as disconnected; it never fails the
// registration.
func (s *Service) Register(ctx context.Context, req *RegisterRequest) (*store.Connection, error) {
	engine, err := req.validate()
	if err != nil {
		return nil, err
	}
	adapter, err := s.adapters.Get(engine)
	if err != nil {
		return nil, err
	}

	conn := &store.Connection{
		UserID:       req.UserID,
		Name:         req.Name,
		Engine:       engine,
		Host:         req.Host,
		Port:         req.Port,
		Username:     req.Username,
		Password:     req.Password,
		DatabaseName: req.DatabaseName,
		Status:       store.StatusDisconnected,
	}
	cfg := conn.Config(s.opts.ConnectTimeout)
	if conn.Port == 0 {
		conn.Port = cfg.Port
	}

	ok, cause := database.Reachable(ctx, adapter, cfg)
	if ok {
		now := s.now()
		conn.Status = store.StatusConnected
		conn.LastConnected = &now
	} else {
		s.log.WarnWith("database unreachable at registration", cause, map[string]any{
			"engine": string(engine),
			"target": cfg.Target(),
		})
	}

	if err := s.store.CreateConnection(ctx, conn); err != nil {
		return nil, err
	}
	return conn, nil
}

// List returns the user's connections. It never returns a nil slice.
func (s *Service) List(ctx context.Context, userID string) ([]*store.Connection, error) {
	conns, err := s.store.ListConnections(ctx, userID)
	if err != nil {
		return nil, err
	}
	if conns == nil {
		conns = []*store.Connection{}
	}
	return conns, nil
}

// Introspect reads the connection's schema and persists the refreshed
// counters. A connectivity failure marks the connection disconnected before
// it is returned.
func (s *Service) Introspect(ctx context.Context, id string) (*schema.Schema, error) {
	conn, adapter, err := s.resolve(ctx, id)
	if err != nil {
		return nil, err
	}

	sc, err := schema.Introspect(ctx, adapter, conn.Config(s.opts.ConnectTimeout))
	if err != nil {
		if errs.IsConnectionFailed(err) {
			if uerr := s.store.UpdateConnectionStatus(ctx, id, store.StatusRefresh{Status: store.StatusDisconnected}); uerr != nil {
				s.log.WarnWith("failed to mark connection disconnected", uerr, map[string]any{"connection": id})
			}
		}
		return nil, err
	}

	tables, rows := sc.Counts()
	now := s.now()
	if err := s.store.UpdateConnectionStatus(ctx, id, store.StatusRefresh{
		Status:        store.StatusConnected,
		LastConnected: &now,
		TableCount:    &tables,
		TotalRows:     &rows,
	}); err != nil {
		return nil, err
	}
	return sc, nil
}

// TableData returns the first rows of table.
func (s *Service) TableData(ctx context.Context, id, table string) ([]query.Record, error) {
	conn, adapter, err := s.resolve(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.exec.TableData(ctx, adapter, conn.Config(s.opts.ConnectTimeout), table, s.opts.PreviewLimit)
}

// Query runs text in ad-hoc mode. Execution failures are reported inside
// the Result; only an unknown connection is an error.
func (s *Service) Query(ctx context.Context, id, text string) (*query.Result, error) {
	conn, adapter, err := s.resolve(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.exec.Run(ctx, adapter, conn.Config(s.opts.ConnectTimeout), text), nil
}

// SchemaText introspects the connection and renders the description used
// as generation context.
func (s *Service) SchemaText(ctx context.Context, id string) (*store.Connection, string, error) {
	conn, adapter, err := s.resolve(ctx, id)
	if err != nil {
		return nil, "", err
	}
	sc, err := schema.Introspect(ctx, adapter, conn.Config(s.opts.ConnectTimeout))
	if err != nil {
		return nil, "", err
	}
	return conn, schema.Describe(sc), nil
}

// SuggestQuery asks the generator for a query over the connection's schema.
// The suggestion is not executed.
func (s *Service) SuggestQuery(ctx context.Context, id, prompt string) (*generate.QuerySuggestion, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, errs.New(errs.ErrKindInvalidInput, "prompt is required")
	}
	conn, text, err := s.SchemaText(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.gen.SuggestQuery(ctx, conn.Engine, text, prompt)
}

// GenerateEndpoint generates an unpublished endpoint over the connection's
// schema and stores it.
func (s *Service) GenerateEndpoint(ctx context.Context, id, prompt string, options map[string]any) (*store.Endpoint, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, errs.New(errs.ErrKindInvalidInput, "prompt is required")
	}
	conn, text, err := s.SchemaText(ctx, id)
	if err != nil {
		return nil, err
	}

	ep, err := s.gen.GenerateEndpoint(ctx, conn.Engine, text, prompt, options)
	if err != nil {
		return nil, err
	}
	if err := s.store.SaveEndpoint(ctx, id, ep); err != nil {
		return nil, err
	}

	s.log.With().
		Str("connection", id).
		Str("endpoint", ep.ID).
		Str("path", ep.Path).
		Logger().
		Info("endpoint generated")
	return ep, nil
}

// Publish marks a stored endpoint as published and returns its public URL.
func (s *Service) Publish(ctx context.Context, id, endpointID string) (string, error) {
	if strings.TrimSpace(endpointID) == "" {
		return "", errs.New(errs.ErrKindInvalidInput, "endpoint id is required")
	}
	if _, err := s.store.GetConnection(ctx, id); err != nil {
		return "", err
	}

	ep, err := s.store.GetEndpoint(ctx, id, endpointID)
	if err != nil {
		return "", err
	}

	url := endpoint.PublishURL(s.opts.BaseURL, id, ep.Path)
	if _, err := s.store.PublishEndpoint(ctx, id, endpointID, url); err != nil {
		return "", err
	}

	s.log.With().Str("connection", id).Str("endpoint", endpointID).Str("url", url).Logger().
		Info("endpoint published")
	return url, nil
}

// Endpoints lists the endpoints stored for a connection.
func (s *Service) Endpoints(ctx context.Context, id string) ([]*store.Endpoint, error) {
	if _, err := s.store.GetConnection(ctx, id); err != nil {
		return nil, err
	}
	eps, err := s.store.ListEndpoints(ctx, id)
	if err != nil {
		return nil, err
	}
	if eps == nil {
		eps = []*store.Endpoint{}
	}
	return eps, nil
}

func (s *Service) resolve(ctx context.Context, id string) (*store.Connection, database.Adapter, error) {
	conn, err := s.store.GetConnection(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	adapter, err := s.adapters.Get(conn.Engine)
	if err != nil {
		return nil, nil, err
	}
	return conn, adapter, nil
}
