package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/ChieftanRat/renovation-material-tracker/internal/backup"
	"github.com/ChieftanRat/renovation-material-tracker/internal/config"
)

// BackupOptions holds flags for the backup command.
type BackupOptions struct {
	*RootOptions
	Database    string
	Output      string
	IncludeSeed bool
}

// NewBackupCommand creates the backup command.
func NewBackupCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BackupOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Export a SQL backup",
		Long: `Export the database as a replayable SQL script. Rows identical to the
canonical seed data are excluded by default so backups stay diff-friendly.

Example:
  renovation backup --db renovation.db
  renovation backup --out snapshot.sql --include-seed`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBackup(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (overrides config)")
	cmd.Flags().StringVar(&opts.Output, "out", "", "output file (defaults to <backup_dir>/backup_YYYYMMDD_HHMMSS.sql)")
	cmd.Flags().BoolVar(&opts.IncludeSeed, "include-seed", false, "include seeded data in the export")

	return cmd
}

func runBackup(opts *BackupOptions, cmd *cobra.Command) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}
	if opts.Database != "" {
		cfg.DBPath = opts.Database
	}

	out := opts.Output
	if out == "" {
		stamp := time.Now().UTC().Format("20060102_150405")
		out = filepath.Join(cfg.BackupDir, fmt.Sprintf("backup_%s.sql", stamp))
	}
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return WrapExitError(ExitCommandError, "failed to create output directory", err)
	}

	exporter := backup.NewExporter(cfg.DBPath)
	if err := exporter.ExportToFile(cmd.Context(), out, opts.IncludeSeed); err != nil {
		return WrapExitError(ExitFailure, "backup failed", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Backup written to %s\n", out)
	return nil
}
