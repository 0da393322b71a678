package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

func TestLoad_MissingFileFallsBack(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

func TestLoad_YAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
db_path: /var/lib/renovation/app.db
listen_addr: 0.0.0.0:9000
api_key: hunter2
backup_dir: /var/backups/renovation
backup_interval: 30m
retention_days: 7
max_page_size: 50
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "/var/lib/renovation/app.db", cfg.DBPath)
	require.Equal(t, "0.0.0.0:9000", cfg.ListenAddr)
	require.Equal(t, "hunter2", cfg.APIKey)
	require.Equal(t, Duration(30*time.Minute), cfg.BackupInterval)
	require.Equal(t, 7, cfg.RetentionDays)
	require.Equal(t, 50, cfg.MaxPageSize)
	require.Equal(t, 7*24*time.Hour, cfg.Retention())
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api_key: onlykey\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "onlykey", cfg.APIKey)
	require.Equal(t, Default().DBPath, cfg.DBPath)
	require.Equal(t, Default().BackupInterval, cfg.BackupInterval)
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("db_path: from-file.db\nretention_days: 7\n"), 0o644))

	t.Setenv("RENOVATION_DB", "from-env.db")
	t.Setenv("RENOVATION_API_KEY", "env-key")
	t.Setenv("BACKUP_RETENTION_DAYS", "14")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "from-env.db", cfg.DBPath)
	require.Equal(t, "env-key", cfg.APIKey)
	require.Equal(t, 14, cfg.RetentionDays)
}

func TestLoad_Validation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("retention_days: -1\n"), 0o644))
	_, err := Load(path)
	require.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte("max_page_size: 0\n"), 0o644))
	_, err = Load(path)
	require.Error(t, err)
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("db_path: [unclosed\n"), 0o644))
	_, err := Load(path)
	require.Error(t, err)
}
