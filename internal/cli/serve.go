package cli

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/koustreak/sqlgate/internal/connection"
	"github.com/koustreak/sqlgate/internal/endpoint"
	"github.com/koustreak/sqlgate/internal/generate"
	"github.com/koustreak/sqlgate/internal/logger"
	"github.com/koustreak/sqlgate/internal/query"
	"github.com/koustreak/sqlgate/internal/server"
	"github.com/koustreak/sqlgate/internal/store"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Long: `Open the connection store, apply its migrations, and serve the management
API and every published endpoint until interrupted.`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}

	cmd.Flags().String("addr", "", "listen address (default :8000)")
	cmd.Flags().String("base-url", "", "prefix of published endpoint URLs")
	cmd.Flags().Duration("request-timeout", 0, "per-request timeout")
	cmd.Flags().String("store", "", "path of the SQLite store file")
	cmd.Flags().Int("table-preview-limit", 0, "rows returned by the table data endpoint")
	cmd.Flags().Bool("bound-parameters", false, "bind published endpoint parameters as driver arguments")

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := configFrom(cmd.Context())
	if err != nil {
		return err
	}
	log := logger.FromContext(cmd.Context())

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if dir := filepath.Dir(cfg.Store.Path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create store directory: %w", err)
		}
	}
	st, err := store.Open(ctx, cfg.Store.Path)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	adapters, closeRegistry, err := newRegistry(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() { _ = closeRegistry() }()

	client, err := generate.NewClient(ctx, cfg.GenerateConfig())
	if err != nil {
		return err
	}
	if cfg.Generator.APIKey == "" {
		log.Warn("generator api key not set; ai-query and generate-api will fail")
	}

	exec := query.NewExecutor(log)
	conns := connection.NewService(st, adapters, exec, generate.NewService(client), connection.Options{
		BaseURL:        cfg.Server.BaseURL,
		ConnectTimeout: cfg.Database.ConnectTimeout,
		PreviewLimit:   cfg.Database.TablePreviewLimit,
	}, log)
	published := endpoint.NewService(st, adapters, exec, endpoint.Options{
		BoundParameters: cfg.Endpoints.BoundParameters,
		ConnectTimeout:  cfg.Database.ConnectTimeout,
	}, log)

	srv := server.New(server.Config{
		Addr:           cfg.Server.Addr,
		RequestTimeout: cfg.Server.RequestTimeout,
	}, conns, published, log)

	log.With().
		Str("version", Version).
		Str("store", cfg.Store.Path).
		Any("engines", adapters.Engines()).
		Logger().
		Info("starting sqlgate")

	return srv.Serve(ctx)
}
