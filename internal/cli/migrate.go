package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ChieftanRat/renovation-material-tracker/internal/config"
	"github.com/ChieftanRat/renovation-material-tracker/internal/store"
)

// MigrateOptions holds flags for the migrate command.
type MigrateOptions struct {
	*RootOptions
	Database string
}

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &MigrateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Long: `Apply schema migrations without wiping data. Each pending step runs in
its own transaction and is recorded in the ledger; a failing step aborts the
run and leaves earlier steps committed.

Example:
  renovation migrate --db renovation.db`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (overrides config)")

	return cmd
}

func runMigrate(opts *MigrateOptions, cmd *cobra.Command) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}
	if opts.Database != "" {
		cfg.DBPath = opts.Database
	}

	// Open applies the schema and all pending migrations.
	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return WrapExitError(ExitFailure, "migration failed", err)
	}
	defer st.Close()

	count, err := st.MigrationCount(cmd.Context())
	if err != nil {
		return WrapExitError(ExitFailure, "failed to read migration ledger", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Database %s is up to date (%d migrations applied).\n", cfg.DBPath, count)
	return nil
}
