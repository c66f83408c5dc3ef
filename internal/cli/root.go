// Package cli defines the chorewheel command tree.
package cli

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/dukerupert/chorewheel/internal/chore"
	"github.com/dukerupert/chorewheel/internal/config"
	"github.com/dukerupert/chorewheel/internal/database"
	"github.com/dukerupert/chorewheel/internal/logging"
	"github.com/dukerupert/chorewheel/internal/metrics"
	"github.com/dukerupert/chorewheel/internal/recurrence"
)

// app carries the resolved configuration shared by every subcommand.
type app struct {
	cfg    config.Config
	logger *slog.Logger
}

func NewRootCmd() *cobra.Command {
	a := &app{}

	var (
		dbPath    string
		logLevel  string
		logFormat string
		timezone  string
	)

	root := &cobra.Command{
		Use:           "chorewheel",
		Short:         "Recurring chore scheduler with member rotation",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			flags := cmd.Flags()
			override(flags, "db", &cfg.DBPath, dbPath)
			override(flags, "log-level", &cfg.LogLevel, logLevel)
			override(flags, "log-format", &cfg.LogFormat, logFormat)
			override(flags, "timezone", &cfg.Timezone, timezone)
			if err := cfg.Validate(); err != nil {
				return err
			}

			a.cfg = cfg
			if w := cmd.ErrOrStderr(); w == os.Stderr {
				a.logger = logging.Setup(cfg.LogLevel, cfg.LogFormat)
			} else {
				a.logger = logging.New(w, cfg.LogLevel, cfg.LogFormat, false)
			}
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&dbPath, "db", "", "SQLite database path (env CHOREWHEEL_DB_PATH)")
	pf.StringVar(&logLevel, "log-level", "", "debug, info, warn or error (env CHOREWHEEL_LOG_LEVEL)")
	pf.StringVar(&logFormat, "log-format", "", "text, json or auto (env CHOREWHEEL_LOG_FORMAT)")
	pf.StringVar(&timezone, "timezone", "", "IANA zone that decides the current day (env CHOREWHEEL_TIMEZONE)")

	root.AddCommand(
		newServeCmd(a),
		newGenerateCmd(a),
		newSweepCmd(a),
		newPreviewCmd(a),
	)

	return root
}

// override replaces an environment-derived setting when its flag was given.
func override(flags *pflag.FlagSet, name string, dst *string, val string) {
	if flags.Changed(name) {
		*dst = val
	}
}

func (a *app) openDB() (*sql.DB, error) {
	db, err := database.Open(a.cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return db, nil
}

func (a *app) newGenerator(db *sql.DB, m metrics.Collector, opts ...chore.Option) *chore.Generator {
	base := []chore.Option{
		chore.WithLocation(a.cfg.Location()),
		chore.WithHistoryWindow(a.cfg.HistoryWindow),
		chore.WithLogger(a.logger.With("component", "generator")),
		chore.WithMetrics(m),
	}
	return chore.NewGenerator(chore.NewSQLTransactor(database.NewUnitOfWork(db)), append(base, opts...)...)
}

// today returns the current date in the configured zone.
func (a *app) today() time.Time {
	return recurrence.Day(time.Now().In(a.cfg.Location()))
}
