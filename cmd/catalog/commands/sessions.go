package commands

import (
	"context"
	"time"

	"github.com/marshallshelly/pebble-catalog/cmd/catalog/output"
	"github.com/marshallshelly/pebble-catalog/internal/store"
	"github.com/spf13/cobra"
)

var maxLifetime time.Duration

// sessionsCmd groups session maintenance
var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Maintain the session table",
}

// sessionsGCCmd removes idle sessions
var sessionsGCCmd = &cobra.Command{
	Use:   "gc",
	Short: "Delete sessions idle for longer than the max lifetime",
	Long: `Delete sessions whose last access is older than the max lifetime
(sessions.maxLifetime, 24h unless configured).

Examples:
  catalog sessions gc
  catalog sessions gc --max-lifetime 2h`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, runSessionsGC)
	},
}

func init() {
	rootCmd.AddCommand(sessionsCmd)
	sessionsCmd.AddCommand(sessionsGCCmd)

	sessionsGCCmd.Flags().DurationVar(&maxLifetime, "max-lifetime", 0, "Override sessions.maxLifetime")
}

func runSessionsGC(ctx context.Context, a *app) error {
	ttl := a.cfg.Sessions.MaxLifetime
	if maxLifetime > 0 {
		ttl = maxLifetime
	}

	n, err := store.New(a.db).GCSessions(ctx, ttl)
	if err != nil {
		return err
	}

	output.Success("Removed %d session(s) idle for more than %s", n, ttl)
	return nil
}
