package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/koustreak/sqlgate/internal/database"
	"github.com/koustreak/sqlgate/internal/logger"
	"github.com/koustreak/sqlgate/internal/schema"
)

type introspectOptions struct {
	engine   string
	host     string
	port     int
	user     string
	password string
	database string
	schema   string
	text     bool
}

func newIntrospectCmd() *cobra.Command {
	var opts introspectOptions

	cmd := &cobra.Command{
		Use:   "introspect",
		Short: "Print the normalized schema of a database",
		Long: `Connect once, read the catalog, and print the schema as JSON, or as the
plain-text description used for generation prompts with --text.`,
		Example: `  sqlgate introspect --engine sqlite --database ./app.db --text
  sqlgate introspect --engine postgres --host localhost --user app --database shop`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runIntrospect(cmd, &opts)
		},
	}

	cmd.Flags().StringVar(&opts.engine, "engine", "", "database engine (postgres|mysql|sqlite)")
	cmd.Flags().StringVar(&opts.host, "host", "localhost", "database host")
	cmd.Flags().IntVar(&opts.port, "port", 0, "database port (default: engine default)")
	cmd.Flags().StringVar(&opts.user, "user", "", "database user")
	cmd.Flags().StringVar(&opts.password, "password", "", "database password")
	cmd.Flags().StringVar(&opts.database, "database", "", "database name, or file path for sqlite")
	cmd.Flags().StringVar(&opts.schema, "schema", "", "postgres schema (default: public)")
	cmd.Flags().BoolVar(&opts.text, "text", false, "print the plain-text schema description")
	_ = cmd.MarkFlagRequired("engine")
	_ = cmd.MarkFlagRequired("database")

	return cmd
}

func runIntrospect(cmd *cobra.Command, opts *introspectOptions) error {
	cfg, err := configFrom(cmd.Context())
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	engine, err := database.ParseEngine(opts.engine)
	if err != nil {
		return err
	}

	adapters, closeRegistry, err := newRegistry(ctx, cfg, logger.FromContext(ctx))
	if err != nil {
		return err
	}
	defer func() { _ = closeRegistry() }()

	adapter, err := adapters.Get(engine)
	if err != nil {
		return err
	}

	dbCfg := database.DefaultConfig(engine)
	dbCfg.Host = opts.host
	if opts.port != 0 {
		dbCfg.Port = opts.port
	}
	dbCfg.User = opts.user
	dbCfg.Password = opts.password
	dbCfg.Database = opts.database
	dbCfg.Schema = opts.schema
	if cfg.Database.ConnectTimeout > 0 {
		dbCfg.ConnectTimeout = cfg.Database.ConnectTimeout
	}

	sc, err := schema.Introspect(ctx, adapter, dbCfg)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if opts.text {
		_, err = fmt.Fprintln(out, schema.Describe(sc))
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(sc)
}
