// Package config loads process configuration from an optional YAML file
// with environment-variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration accepts "30m"-style strings in YAML, which time.Duration itself
// does not.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// Config holds everything the process needs at startup.
type Config struct {
	DBPath         string   `yaml:"db_path"`
	ListenAddr     string   `yaml:"listen_addr"`
	APIKey         string   `yaml:"api_key"`
	BackupDir      string   `yaml:"backup_dir"`
	BackupInterval Duration `yaml:"backup_interval"`
	RetentionDays  int      `yaml:"retention_days"`
	MaxPageSize    int      `yaml:"max_page_size"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		DBPath:         "renovation.db",
		ListenAddr:     "127.0.0.1:8000",
		BackupDir:      "backups",
		BackupInterval: Duration(time.Hour),
		RetentionDays:  30,
		MaxPageSize:    100,
	}
}

// Load reads the YAML file at path, falling back to defaults when path is
// empty or the file does not exist, then applies environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnv()

	if cfg.RetentionDays < 0 {
		return Config{}, fmt.Errorf("retention_days must be non-negative, got %d", cfg.RetentionDays)
	}
	if cfg.MaxPageSize < 1 {
		return Config{}, fmt.Errorf("max_page_size must be at least 1, got %d", cfg.MaxPageSize)
	}
	return cfg, nil
}

// Retention converts the day-based retention setting to a duration.
func (c Config) Retention() time.Duration {
	return time.Duration(c.RetentionDays) * 24 * time.Hour
}

func (c *Config) applyEnv() {
	if v := os.Getenv("RENOVATION_DB"); v != "" {
		c.DBPath = v
	}
	if v := os.Getenv("RENOVATION_API_KEY"); v != "" {
		c.APIKey = v
	}
	if v := os.Getenv("RENOVATION_LISTEN_ADDR"); v != "" {
		c.ListenAddr = v
	}
	if v := os.Getenv("RENOVATION_BACKUP_DIR"); v != "" {
		c.BackupDir = v
	}
	if v := os.Getenv("BACKUP_RETENTION_DAYS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.RetentionDays = n
		}
	}
}
