package store

import (
	"time"

	"github.com/koustreak/sqlgate/internal/database"
)

// Status is the last known reachability of a connection.
type Status string

const (
	StatusConnected    Status = "connected"
	StatusDisconnected Status = "disconnected"
)

// Connection is a registered database. Password is never serialized.
type Connection struct {
	ID            string          `json:"id"`
	UserID        string          `json:"user_id"`
	Name          string          `json:"name"`
	Engine        database.Engine `json:"type"`
	Host          string          `json:"host"`
	Port          int             `json:"port"`
	Username      string          `json:"username"`
	Password      string          `json:"-"`
	DatabaseName  string          `json:"database_name"`
	Status        Status          `json:"status"`
	LastConnected *time.Time      `json:"last_connected"`
	TableCount    int             `json:"table_count"`
	TotalRows     int64           `json:"total_rows"`
	CreatedAt     time.Time       `json:"created_at"`
}

// Config returns the adapter configuration for c.
func (c *Connection) Config(connectTimeout time.Duration) *database.Config {
	cfg := database.DefaultConfig(c.Engine)
	cfg.Host = c.Host
	if c.Port != 0 {
		cfg.Port = c.Port
	}
	cfg.User = c.Username
	cfg.Password = c.Password
	cfg.Database = c.DatabaseName
	if connectTimeout > 0 {
		cfg.ConnectTimeout = connectTimeout
	}
	return cfg
}

// StatusRefresh carries the values a reachability test or an introspection
// derived for a connection. Nil fields leave the stored value unchanged.
type StatusRefresh struct {
	Status        Status
	LastConnected *time.Time
	TableCount    *int
	TotalRows     *int64
}

// Parameter is one declared endpoint parameter. Only declared names are
// ever bound into the endpoint's query.
type Parameter struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Required    bool   `json:"required"`
	Description string `json:"description"`
	Example     any    `json:"example,omitempty"`
}

// RequestBody describes an endpoint's request payload.
type RequestBody struct {
	Required    bool           `json:"required"`
	Content     map[string]any `json:"content"`
	Description string         `json:"description"`
}

// Response is one documented endpoint response.
type Response struct {
	Status      int    `json:"status"`
	Description string `json:"description"`
	Example     any    `json:"example"`
}

// Endpoint is a generated API definition backed by a query template. It is
// served only once IsPublished is set.
type Endpoint struct {
	ID           string       `json:"id"`
	Title        string       `json:"title"`
	Description  string       `json:"description"`
	Method       string       `json:"method"`
	Path         string       `json:"path"`
	Summary      string       `json:"summary"`
	Tags         []string     `json:"tags"`
	Parameters   []Parameter  `json:"parameters"`
	RequestBody  *RequestBody `json:"requestBody,omitempty"`
	Responses    []Response   `json:"responses"`
	Security     []string     `json:"security,omitempty"`
	CreatedAt    time.Time    `json:"createdAt"`
	IsPublished  bool         `json:"isPublished"`
	PublishedURL *string      `json:"publishedUrl"`
	Query        string       `json:"query,omitempty"`
}

// ParameterNames returns the declared parameter names in order.
func (e *Endpoint) ParameterNames() []string {
	names := make([]string, len(e.Parameters))
	for i, p := range e.Parameters {
		names[i] = p.Name
	}
	return names
}
