package cli

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ChieftanRat/renovation-material-tracker/internal/store"
)

// runCommand executes the root command with args, returning stdout and the
// execution error.
func runCommand(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	if stdin != "" {
		cmd.SetIn(strings.NewReader(stdin))
	}
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestMigrateCommand(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "cli.db")

	out, err := runCommand(t, "", "migrate", "--db", dbPath)
	require.NoError(t, err)
	require.Equal(t, fmt.Sprintf("Database %s is up to date (2 migrations applied).\n", dbPath), out)

	// Second run is a no-op with the same report.
	out, err = runCommand(t, "", "migrate", "--db", dbPath)
	require.NoError(t, err)
	require.Contains(t, out, "2 migrations applied")
}

func TestBackupCommand(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "cli.db")
	outPath := filepath.Join(dir, "snapshot.sql")

	s, err := store.Open(dbPath)
	require.NoError(t, err)
	_, err = s.CreateProject(t.Context(), store.Project{Name: "CLI Project"})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	out, err := runCommand(t, "", "backup", "--db", dbPath, "--out", outPath)
	require.NoError(t, err)
	require.Contains(t, out, outPath)

	script, err := os.ReadFile(outPath)
	require.NoError(t, err)
	require.Contains(t, string(script), "BEGIN TRANSACTION;")
	require.Contains(t, string(script), "CLI Project")
}

func TestRestoreCommand(t *testing.T) {
	dir := t.TempDir()
	srcPath := filepath.Join(dir, "src.db")
	dstPath := filepath.Join(dir, "dst.db")
	backupPath := filepath.Join(dir, "backup.sql")

	s, err := store.Open(srcPath)
	require.NoError(t, err)
	_, err = s.CreateVendor(t.Context(), store.Vendor{Name: "Restored Vendor"})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = runCommand(t, "", "backup", "--db", srcPath, "--out", backupPath)
	require.NoError(t, err)

	// Declining the prompt cancels with a failure exit code.
	out, err := runCommand(t, "n\n", "restore", "--db", dstPath, "--backup", backupPath)
	require.Error(t, err)
	require.Equal(t, ExitFailure, GetExitCode(err))
	require.Contains(t, out, "Restore cancelled.")

	// Prepare the target schema, then apply with --yes.
	d, err := store.Open(dstPath)
	require.NoError(t, err)
	require.NoError(t, d.Close())

	out, err = runCommand(t, "", "restore", "--db", dstPath, "--backup", backupPath, "--yes")
	require.NoError(t, err)
	require.Contains(t, out, "Backup applied")

	d, err = store.Open(dstPath)
	require.NoError(t, err)
	defer d.Close()
	v, err := d.GetVendor(t.Context(), 1)
	require.NoError(t, err)
	require.Equal(t, "Restored Vendor", v.Name)
}

func TestGetExitCode(t *testing.T) {
	require.Equal(t, ExitCommandError, GetExitCode(&ExitError{Code: ExitCommandError}))
	require.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))

	wrapped := fmt.Errorf("outer: %w", &ExitError{Code: ExitCommandError, Message: "inner"})
	require.Equal(t, ExitCommandError, GetExitCode(wrapped))
}
