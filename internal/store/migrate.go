package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Migration is one named schema transformation. Steps must be safe to run
// against a database that is already partially in the target shape: a
// column-add checks for the column first, a restructure checks for the new
// table. Once recorded in the ledger a step is never re-applied.
type Migration struct {
	Name  string
	Apply func(ctx context.Context, tx *sql.Tx) error
}

// Migrations is the fixed, ordered migration table. Append-only: entries are
// never reordered, renamed, or removed once released.
var Migrations = []Migration{
	{Name: "001_add_archived_at", Apply: migrateAddArchivedAt},
	{Name: "002_work_session_entries", Apply: migrateWorkSessionEntries},
}

// RunMigrations ensures the ledger table exists and applies each pending
// migration in declaration order. Every step runs in its own transaction
// together with its ledger insert, so a failure partway leaves earlier steps
// committed and the ledger consistent with what actually ran.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
		  name TEXT PRIMARY KEY,
		  applied_at TEXT NOT NULL
		)
	`); err != nil {
		return fmt.Errorf("ensure migrations table: %w", err)
	}

	applied, err := appliedMigrations(ctx, db)
	if err != nil {
		return err
	}

	// Table restructuring drops and renames tables that other tables
	// reference; enforcement is restored once the run finishes.
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = OFF"); err != nil {
		return fmt.Errorf("disable foreign keys: %w", err)
	}
	defer db.ExecContext(ctx, "PRAGMA foreign_keys = ON")

	for _, m := range Migrations {
		if applied[m.Name] {
			continue
		}
		if err := applyMigration(ctx, db, m); err != nil {
			return err
		}
	}

	return nil
}

// applyMigration runs one step and records it, atomically.
func applyMigration(ctx context.Context, db *sql.DB, m Migration) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return &MigrationError{Name: m.Name, Err: fmt.Errorf("begin tx: %w", err)}
	}
	defer tx.Rollback() // No-op if committed

	if err := m.Apply(ctx, tx); err != nil {
		return &MigrationError{Name: m.Name, Err: err}
	}

	appliedAt := time.Now().UTC().Format("2006-01-02T15:04:05")
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO schema_migrations (name, applied_at) VALUES (?, ?)",
		m.Name, appliedAt,
	); err != nil {
		return &MigrationError{Name: m.Name, Err: fmt.Errorf("record in ledger: %w", err)}
	}

	if err := tx.Commit(); err != nil {
		return &MigrationError{Name: m.Name, Err: fmt.Errorf("commit: %w", err)}
	}
	return nil
}

// appliedMigrations returns the set of migration names already in the ledger.
func appliedMigrations(ctx context.Context, db *sql.DB) (map[string]bool, error) {
	rows, err := db.QueryContext(ctx, "SELECT name FROM schema_migrations")
	if err != nil {
		return nil, fmt.Errorf("read migration ledger: %w", err)
	}
	defer rows.Close()

	applied := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan migration ledger: %w", err)
		}
		applied[name] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read migration ledger: %w", err)
	}
	return applied, nil
}

// MigrationCount returns the number of ledger entries. Zero when the ledger
// table does not exist yet.
func (s *Store) MigrationCount(ctx context.Context) (int, error) {
	ok, err := hasTable(ctx, s.db, "schema_migrations")
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_migrations").Scan(&count); err != nil {
		return 0, fmt.Errorf("count migrations: %w", err)
	}
	return count, nil
}

// migrateAddArchivedAt adds the archived_at soft-delete marker to every
// entity table that predates archival support.
func migrateAddArchivedAt(ctx context.Context, tx *sql.Tx) error {
	tables := []string{
		"projects",
		"tasks",
		"vendors",
		"material_purchases",
		"laborers",
		"work_sessions",
	}
	for _, table := range tables {
		ok, err := hasColumn(ctx, tx, table, "archived_at")
		if err != nil {
			return err
		}
		if ok {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			fmt.Sprintf("ALTER TABLE %s ADD COLUMN archived_at TEXT", table),
		); err != nil {
			return fmt.Errorf("add archived_at to %s: %w", table, err)
		}
	}
	return nil
}

// migrateWorkSessionEntries splits the legacy single-entry work_sessions
// table into work_sessions + work_session_entries. Copy-rename strategy:
// create the new shape, copy every row across, drop the old table, rename
// the new one into place, then rebuild indexes. Preserves all session ids.
func migrateWorkSessionEntries(ctx context.Context, tx *sql.Tx) error {
	ok, err := hasTable(ctx, tx, "work_session_entries")
	if err != nil {
		return err
	}
	if ok {
		return nil
	}

	stmts := []string{
		`CREATE TABLE work_sessions_new (
		  id INTEGER PRIMARY KEY AUTOINCREMENT,
		  project_id INTEGER NOT NULL,
		  task_id INTEGER NOT NULL,
		  work_date TEXT NOT NULL,
		  archived_at TEXT,
		  FOREIGN KEY (project_id) REFERENCES projects(id),
		  FOREIGN KEY (task_id) REFERENCES tasks(id)
		)`,
		`INSERT INTO work_sessions_new (id, project_id, task_id, work_date, archived_at)
		 SELECT id, project_id, task_id, work_date, archived_at
		 FROM work_sessions`,
		`CREATE TABLE work_session_entries (
		  id INTEGER PRIMARY KEY AUTOINCREMENT,
		  work_session_id INTEGER NOT NULL,
		  laborer_id INTEGER NOT NULL,
		  clock_in_time TEXT NOT NULL,
		  clock_out_time TEXT NOT NULL,
		  CHECK (
		    julianday('2000-01-01 ' || clock_out_time) >
		    julianday('2000-01-01 ' || clock_in_time)
		  ),
		  FOREIGN KEY (work_session_id) REFERENCES work_sessions(id) ON DELETE CASCADE,
		  FOREIGN KEY (laborer_id) REFERENCES laborers(id)
		)`,
		`INSERT INTO work_session_entries (work_session_id, laborer_id, clock_in_time, clock_out_time)
		 SELECT id, laborer_id, clock_in_time, clock_out_time
		 FROM work_sessions`,
		`DROP TABLE work_sessions`,
		`ALTER TABLE work_sessions_new RENAME TO work_sessions`,
		`CREATE INDEX idx_work_sessions_project_id ON work_sessions(project_id)`,
		`CREATE INDEX idx_work_sessions_task_id ON work_sessions(task_id)`,
		`CREATE INDEX idx_work_session_entries_session_id ON work_session_entries(work_session_id)`,
		`CREATE INDEX idx_work_session_entries_laborer_id ON work_session_entries(laborer_id)`,
	}
	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("restructure work sessions: %w", err)
		}
	}
	return nil
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func hasColumn(ctx context.Context, q querier, table, column string) (bool, error) {
	rows, err := q.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return false, fmt.Errorf("table_info %s: %w", table, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cid     int
			name    string
			colType string
			notNull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dflt, &pk); err != nil {
			return false, fmt.Errorf("scan table_info %s: %w", table, err)
		}
		if name == column {
			return true, nil
		}
	}
	return false, rows.Err()
}

func hasTable(ctx context.Context, q querier, table string) (bool, error) {
	var name string
	err := q.QueryRowContext(ctx,
		"SELECT name FROM sqlite_master WHERE type='table' AND name = ?",
		table,
	).Scan(&name)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check table %s: %w", table, err)
	}
	return true, nil
}
