package backup

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Clock abstracts wall time so scheduler behavior is testable.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Scheduler throttles automatic backups and prunes old ones by retention
// age. It owns the last-backup timestamp: one instance is constructed at
// process start and handed to whatever triggers post-mutation backups.
type Scheduler struct {
	exporter  *Exporter
	dir       string
	interval  time.Duration
	retention time.Duration
	clock     Clock
	logger    *slog.Logger

	mu         sync.Mutex
	lastBackup time.Time
}

// SchedulerOption adjusts scheduler construction.
type SchedulerOption func(*Scheduler)

// WithClock overrides the wall clock. Used by tests.
func WithClock(c Clock) SchedulerOption {
	return func(s *Scheduler) { s.clock = c }
}

// WithLogger sets the logger for swallowed automatic-backup failures.
func WithLogger(l *slog.Logger) SchedulerOption {
	return func(s *Scheduler) { s.logger = l }
}

// NewScheduler creates a scheduler writing timestamped backups into dir.
// The last-backup time is initialized from the newest existing backup file
// so restarts do not reset the throttle.
func NewScheduler(exporter *Exporter, dir string, interval, retention time.Duration, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		exporter:  exporter,
		dir:       dir,
		interval:  interval,
		retention: retention,
		clock:     systemClock{},
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.lastBackup = newestFileTime(dir)
	return s
}

// LastBackup returns the time of the most recent successful backup, or the
// zero time when none exists.
func (s *Scheduler) LastBackup() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastBackup
}

// Retention returns the configured retention window.
func (s *Scheduler) Retention() time.Duration {
	return s.retention
}

// MaybeBackup exports a new backup if forced, or if the minimum interval has
// elapsed since the last one. A forced backup that fails returns the error;
// an interval-throttled automatic backup that fails is logged and swallowed
// so it never fails the mutation that triggered it.
func (s *Scheduler) MaybeBackup(ctx context.Context, force bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	if !force && now.Sub(s.lastBackup) < s.interval {
		return nil
	}

	if err := s.writeBackup(ctx, now); err != nil {
		if force {
			return err
		}
		s.logger.Error("automatic backup failed", "error", err)
		return nil
	}
	s.lastBackup = now
	s.prune(now)
	return nil
}

// writeBackup exports through a uuid-suffixed temp file and renames it into
// place, so a half-written export never looks like a valid backup.
func (s *Scheduler) writeBackup(ctx context.Context, now time.Time) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create backup dir: %w", err)
	}

	name := fmt.Sprintf("backup_%s.sql", now.UTC().Format("20060102_150405"))
	final := filepath.Join(s.dir, name)
	tmp := final + ".tmp-" + uuid.NewString()

	if err := s.exporter.ExportToFile(ctx, tmp, false); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, final); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("finalize backup: %w", err)
	}
	s.logger.Info("backup written", "path", final)
	return nil
}

// prune removes backup files older than the retention window.
func (s *Scheduler) prune(now time.Time) {
	if s.retention <= 0 {
		return
	}
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		s.logger.Error("prune backups: read dir", "error", err)
		return
	}
	cutoff := now.Add(-s.retention)
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".sql" {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			path := filepath.Join(s.dir, entry.Name())
			if err := os.Remove(path); err != nil {
				s.logger.Error("prune backups: remove", "path", path, "error", err)
				continue
			}
			s.logger.Info("pruned old backup", "path", path)
		}
	}
}

// newestFileTime returns the newest mtime among files in dir, or the zero
// time when the directory is missing or empty.
func newestFileTime(dir string) time.Time {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return time.Time{}
	}
	var newest time.Time
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(newest) {
			newest = info.ModTime()
		}
	}
	return newest
}
