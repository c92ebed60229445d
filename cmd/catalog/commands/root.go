package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/marshallshelly/pebble-catalog/internal/catalog"
	"github.com/marshallshelly/pebble-catalog/internal/config"
	"github.com/marshallshelly/pebble-catalog/internal/logging"
	"github.com/marshallshelly/pebble-catalog/pkg/builder"
	"github.com/marshallshelly/pebble-catalog/pkg/runtime"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	configPath string
	dbURL      string
	verbose    bool
	jsonOutput bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Catalog and order schema for PostgreSQL",
	Long: `catalog manages a product catalog and order schema on PostgreSQL.

It creates the schema, loads the reference dataset, runs the named query
library, exports and reloads the whole catalog as SQL, and checks the
database against the models.

Configuration is read from config/catalog.yaml (or --config); environment
variables such as DATABASE_URL and LOG_LEVEL override the file and --db
overrides both.`,
	Version:       "0.4.0",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to the config file (default: config/catalog.yaml)")
	rootCmd.PersistentFlags().StringVar(&dbURL, "db", "", "Database connection URL, overrides database.url")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log at debug level")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
}

// app holds what a command needs once configuration is resolved.
type app struct {
	cfg *config.Config
	log *slog.Logger
	rt  *runtime.DB
	db  *builder.DB
}

// loadConfig reads the config file. Without one, --db alone is enough.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		if configPath != "" || dbURL == "" {
			return nil, err
		}
		cfg = config.Default()
	}
	if dbURL != "" {
		cfg.Database.URL = dbURL
	}
	if verbose {
		cfg.Log.Level = "debug"
	}

	return cfg, nil
}

// newApp loads configuration, builds the logger and opens the pool.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if cfg.Database.URL == "" {
		return nil, errors.New("no database URL: set database.url, DATABASE_URL or --db")
	}

	log, err := logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Pretty)
	if err != nil {
		return nil, err
	}

	rt, err := runtime.Connect(ctx, &runtime.Config{
		URL:             cfg.Database.URL,
		MaxConns:        cfg.Database.MaxConns,
		MinConns:        cfg.Database.MinConns,
		MaxConnLifetime: cfg.Database.MaxConnLifetime,
		ConnectTimeout:  cfg.Database.ConnectTimeout,
	})
	if err != nil {
		return nil, errors.Wrap(err, "connect to database")
	}

	reg, err := catalog.NewRegistry()
	if err != nil {
		rt.Close()
		return nil, err
	}
	log.Debug("connected", slog.Int("tables", len(reg.AllNames())))

	return &app{cfg: cfg, log: log, rt: rt, db: builder.New(rt, reg)}, nil
}

func (a *app) Close() {
	a.rt.Close()
}

// withApp runs fn with a connected app and closes it afterwards.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	return fn(ctx, a)
}
