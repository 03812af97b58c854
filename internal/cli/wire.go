package cli

import (
	"context"
	"fmt"

	"github.com/koustreak/sqlgate/internal/config"
	"github.com/koustreak/sqlgate/internal/database"
	"github.com/koustreak/sqlgate/internal/database/mysql"
	"github.com/koustreak/sqlgate/internal/database/postgres"
	"github.com/koustreak/sqlgate/internal/database/sqlite"
	"github.com/koustreak/sqlgate/internal/filestore"
	"github.com/koustreak/sqlgate/internal/filestore/minio"
	"github.com/koustreak/sqlgate/internal/logger"
)

// newRegistry registers one adapter per supported engine. When an object
// store is configured, SQLite files named s3://bucket/key are fetched
// through it; the returned close function releases that client.
func newRegistry(ctx context.Context, cfg *config.Config, log *logger.Logger) (*database.Registry, func() error, error) {
	closeFn := func() error { return nil }

	var opts []sqlite.Option
	if fc := cfg.FilestoreConfig(); fc.Enabled() {
		drv, err := minio.New(ctx, fc)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to object store: %w", err)
		}
		opts = append(opts, sqlite.WithResolver(filestore.NewCache(drv, fc.CacheDir)))
		closeFn = drv.Close

		log.With().Str("endpoint", fc.Endpoint).Str("cache_dir", fc.CacheDir).Logger().
			Info("object store enabled for sqlite files")
	}

	return database.NewRegistry(postgres.New(), mysql.New(), sqlite.New(opts...)), closeFn, nil
}
