package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/koustreak/sqlgate/internal/database"
	"github.com/koustreak/sqlgate/internal/errs"
)

const connectionColumns = `id, user_id, name, engine, host, port, username, password,
	database_name, status, last_connected, table_count, total_rows, created_at`

// CreateConnection inserts c, assigning ID and CreatedAt when empty.
func (s *Store) CreateConnection(ctx context.Context, c *Connection) error {
	if c.ID == "" {
		c.ID = newID()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	if c.Status == "" {
		c.Status = StatusDisconnected
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO connections (`+connectionColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.UserID, c.Name, string(c.Engine), c.Host, c.Port, c.Username, c.Password,
		c.DatabaseName, string(c.Status), nullTime(c.LastConnected), c.TableCount, c.TotalRows,
		formatTime(c.CreatedAt),
	)
	if err != nil {
		return storeError("failed to create connection", err)
	}
	return nil
}

// GetConnection returns the connection with id.
func (s *Store) GetConnection(ctx context.Context, id string) (*Connection, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+connectionColumns+` FROM connections WHERE id = ?`, id)

	c, err := scanConnection(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.New(errs.ErrKindNotFound, "Database connection not found")
	}
	if err != nil {
		return nil, storeError("failed to get connection", err)
	}
	return c, nil
}

// ListConnections returns the user's connections, oldest first.
func (s *Store) ListConnections(ctx context.Context, userID string) ([]*Connection, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+connectionColumns+` FROM connections WHERE user_id = ? ORDER BY created_at, id`, userID)
	if err != nil {
		return nil, storeError("failed to list connections", err)
	}
	defer rows.Close()

	out := make([]*Connection, 0)
	for rows.Next() {
		c, err := scanConnection(rows)
		if err != nil {
			return nil, storeError("failed to scan connection", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("failed to list connections", err)
	}
	return out, nil
}

// UpdateConnectionStatus persists r for connection id.
func (s *Store) UpdateConnectionStatus(ctx context.Context, id string, r StatusRefresh) error {
	var (
		tables sql.NullInt64
		total  sql.NullInt64
	)
	if r.TableCount != nil {
		tables = sql.NullInt64{Int64: int64(*r.TableCount), Valid: true}
	}
	if r.TotalRows != nil {
		total = sql.NullInt64{Int64: *r.TotalRows, Valid: true}
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE connections
		 SET status = ?,
		     last_connected = COALESCE(?, last_connected),
		     table_count = COALESCE(?, table_count),
		     total_rows = COALESCE(?, total_rows)
		 WHERE id = ?`,
		string(r.Status), nullTime(r.LastConnected), tables, total, id,
	)
	if err != nil {
		return storeError("failed to update connection status", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storeError("failed to update connection status", err)
	}
	if n == 0 {
		return errs.New(errs.ErrKindNotFound, "Database connection not found")
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanConnection(sc scanner) (*Connection, error) {
	var (
		c             Connection
		engine        string
		status        string
		lastConnected sql.NullString
		createdAt     string
	)
	if err := sc.Scan(
		&c.ID, &c.UserID, &c.Name, &engine, &c.Host, &c.Port, &c.Username, &c.Password,
		&c.DatabaseName, &status, &lastConnected, &c.TableCount, &c.TotalRows, &createdAt,
	); err != nil {
		return nil, err
	}

	c.Engine = database.Engine(engine)
	c.Status = Status(status)

	var err error
	if c.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if lastConnected.Valid {
		t, err := parseTime(lastConnected.String)
		if err != nil {
			return nil, err
		}
		c.LastConnected = &t
	}
	return &c, nil
}
