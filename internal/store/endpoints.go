package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/koustreak/sqlgate/internal/errs"
)

// SaveEndpoint stores ep for connection connID. An endpoint already stored
// at the same path for that connection is replaced.
func (s *Store) SaveEndpoint(ctx context.Context, connID string, ep *Endpoint) error {
	if ep.ID == "" {
		ep.ID = newID()
	}
	if ep.CreatedAt.IsZero() {
		ep.CreatedAt = time.Now().UTC()
	}

	spec, err := json.Marshal(ep)
	if err != nil {
		return storeError("failed to encode endpoint", err)
	}

	var url sql.NullString
	if ep.PublishedURL != nil {
		url = sql.NullString{String: *ep.PublishedURL, Valid: true}
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO endpoints (id, connection_id, path, method, is_published, published_url, spec, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (connection_id, path) DO UPDATE SET
		     id = excluded.id,
		     method = excluded.method,
		     is_published = excluded.is_published,
		     published_url = excluded.published_url,
		     spec = excluded.spec,
		     created_at = excluded.created_at`,
		ep.ID, connID, ep.Path, ep.Method, ep.IsPublished, url, string(spec), formatTime(ep.CreatedAt),
	)
	if err != nil {
		return storeError("failed to save endpoint", err)
	}
	return nil
}

// FindEndpoint returns the endpoint stored at path for connection connID.
func (s *Store) FindEndpoint(ctx context.Context, connID, path string) (*Endpoint, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT spec, is_published, published_url FROM endpoints WHERE connection_id = ? AND path = ?`,
		connID, path)
	ep, err := scanEndpoint(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.New(errs.ErrKindNotFound, "API endpoint not found")
	}
	if err != nil {
		return nil, storeError("failed to find endpoint", err)
	}
	return ep, nil
}

// GetEndpoint returns endpoint id of connection connID.
func (s *Store) GetEndpoint(ctx context.Context, connID, id string) (*Endpoint, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT spec, is_published, published_url FROM endpoints WHERE connection_id = ? AND id = ?`,
		connID, id)
	ep, err := scanEndpoint(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.New(errs.ErrKindNotFound, "API specification not found")
	}
	if err != nil {
		return nil, storeError("failed to get endpoint", err)
	}
	return ep, nil
}

// ListEndpoints returns the endpoints of connection connID, newest first.
func (s *Store) ListEndpoints(ctx context.Context, connID string) ([]*Endpoint, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT spec, is_published, published_url FROM endpoints
		 WHERE connection_id = ? ORDER BY created_at DESC, path`, connID)
	if err != nil {
		return nil, storeError("failed to list endpoints", err)
	}
	defer rows.Close()

	out := make([]*Endpoint, 0)
	for rows.Next() {
		ep, err := scanEndpoint(rows)
		if err != nil {
			return nil, storeError("failed to scan endpoint", err)
		}
		out = append(out, ep)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("failed to list endpoints", err)
	}
	return out, nil
}

// PublishEndpoint marks endpoint id of connection connID as published at url
// and returns the updated endpoint.
func (s *Store) PublishEndpoint(ctx context.Context, connID, id, url string) (*Endpoint, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, storeError("failed to begin transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx,
		`SELECT spec, is_published, published_url FROM endpoints WHERE connection_id = ? AND id = ?`,
		connID, id)
	ep, err := scanEndpoint(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.New(errs.ErrKindNotFound, "API specification not found")
	}
	if err != nil {
		return nil, storeError("failed to load endpoint", err)
	}

	ep.IsPublished = true
	ep.PublishedURL = &url

	spec, err := json.Marshal(ep)
	if err != nil {
		return nil, storeError("failed to encode endpoint", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE endpoints SET is_published = 1, published_url = ?, spec = ? WHERE connection_id = ? AND id = ?`,
		url, string(spec), connID, id,
	); err != nil {
		return nil, storeError("failed to publish endpoint", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, storeError("failed to commit publish", err)
	}
	return ep, nil
}

// scanEndpoint decodes the stored spec and overlays the publication columns,
// which are authoritative.
func scanEndpoint(sc scanner) (*Endpoint, error) {
	var (
		spec      string
		published bool
		url       sql.NullString
	)
	if err := sc.Scan(&spec, &published, &url); err != nil {
		return nil, err
	}

	var ep Endpoint
	if err := json.Unmarshal([]byte(spec), &ep); err != nil {
		return nil, err
	}
	ep.IsPublished = published
	ep.PublishedURL = nil
	if url.Valid {
		u := url.String
		ep.PublishedURL = &u
	}
	return &ep, nil
}
