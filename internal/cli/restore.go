package cli

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ChieftanRat/renovation-material-tracker/internal/backup"
	"github.com/ChieftanRat/renovation-material-tracker/internal/config"
)

// RestoreOptions holds flags for the restore command.
type RestoreOptions struct {
	*RootOptions
	Database string
	Backup   string
	Yes      bool
}

// NewRestoreCommand creates the restore command.
func NewRestoreCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RestoreOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "restore",
		Short: "Apply a SQL backup to the database",
		Long: `Replay a backup script against the database in a single transaction.
If any statement fails, the whole restore rolls back and the database is
left exactly as it was.

Example:
  renovation restore --backup backups/backup_20250101_120000.sql --yes`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRestore(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (overrides config)")
	cmd.Flags().StringVar(&opts.Backup, "backup", "", "path to the backup SQL file (required)")
	cmd.Flags().BoolVar(&opts.Yes, "yes", false, "apply without confirmation prompt")
	_ = cmd.MarkFlagRequired("backup")

	return cmd
}

func runRestore(opts *RestoreOptions, cmd *cobra.Command) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}
	if opts.Database != "" {
		cfg.DBPath = opts.Database
	}

	if !opts.Yes {
		fmt.Fprintf(cmd.OutOrStdout(), "Apply backup %s to %s? [y/N]: ", opts.Backup, cfg.DBPath)
		reader := bufio.NewReader(cmd.InOrStdin())
		answer, _ := reader.ReadString('\n')
		answer = strings.ToLower(strings.TrimSpace(answer))
		if answer != "y" && answer != "yes" {
			fmt.Fprintln(cmd.OutOrStdout(), "Restore cancelled.")
			return &ExitError{Code: ExitFailure, Message: "restore cancelled"}
		}
	}

	if err := backup.RestoreFile(cmd.Context(), cfg.DBPath, opts.Backup); err != nil {
		return WrapExitError(ExitFailure, "restore failed", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Backup applied to %s\n", cfg.DBPath)
	return nil
}
