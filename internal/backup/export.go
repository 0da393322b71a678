// Package backup implements the export/restore/scheduling subsystem.
//
// Exports are plain-text SQL scripts: one transaction of INSERT statements
// in dependency order, diff-minimized by excluding rows identical to the
// canonical seed dataset. Restores replay a script atomically.
package backup

import (
	"bufio"
	"context"
	"database/sql"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/ChieftanRat/renovation-material-tracker/internal/store"
)

// tableOrder fixes the export order so parents precede children. Tables not
// listed here are appended alphabetically.
var tableOrder = []string{
	"projects",
	"tasks",
	"vendors",
	"laborers",
	"material_purchases",
	"work_sessions",
	"work_session_entries",
}

// Exporter serializes the current database state into a replayable SQL
// script. It is read-only with respect to the live database: it opens its
// own connection and never mutates state.
type Exporter struct {
	path string
	now  func() time.Time
}

// NewExporter creates an exporter for the database file at path.
func NewExporter(path string) *Exporter {
	return &Exporter{path: path, now: time.Now}
}

// Export writes the backup script to w. When includeSeed is false (the
// default posture), rows byte-identical to the canonical seed dataset are
// omitted so repeated backups of a lightly-modified database stay small.
func (e *Exporter) Export(ctx context.Context, w io.Writer, includeSeed bool) error {
	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?mode=ro", e.path))
	if err != nil {
		return fmt.Errorf("open database read-only: %w", err)
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}

	var seedDB *sql.DB
	if !includeSeed {
		seedDB, err = openSeedDB(ctx)
		if err != nil {
			return err
		}
		defer seedDB.Close()
	}

	tables, err := listTables(ctx, db)
	if err != nil {
		return err
	}

	out := bufio.NewWriter(w)
	fmt.Fprintln(out, "-- Renovation Material Tracker backup")
	fmt.Fprintf(out, "-- Source DB: %s\n", e.path)
	fmt.Fprintf(out, "-- Generated: %sZ\n", e.now().UTC().Format("2006-01-02T15:04:05"))
	fmt.Fprintln(out, "BEGIN TRANSACTION;")

	for _, table := range orderedTables(tables) {
		columns, err := tableColumns(ctx, db, table)
		if err != nil {
			return err
		}

		var seedSet map[string]struct{}
		if seedDB != nil {
			ok, err := seedHasTable(ctx, seedDB, table)
			if err != nil {
				return err
			}
			if ok {
				seedSet, err = renderedRows(ctx, seedDB, table, columns)
				if err != nil {
					return err
				}
			}
		}

		if err := exportTable(ctx, db, out, table, columns, seedSet); err != nil {
			return err
		}
	}

	fmt.Fprintln(out, "COMMIT;")
	if err := out.Flush(); err != nil {
		return fmt.Errorf("write backup: %w", err)
	}
	return nil
}

// ExportToFile writes the backup script to the given path.
func (e *Exporter) ExportToFile(ctx context.Context, path string, includeSeed bool) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create backup file: %w", err)
	}
	if err := e.Export(ctx, f, includeSeed); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// openSeedDB loads schema and seed into an ephemeral in-memory database.
func openSeedDB(ctx context.Context) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open seed database: %w", err)
	}
	if _, err := db.ExecContext(ctx, store.SchemaSQL()); err != nil {
		db.Close()
		return nil, fmt.Errorf("load seed schema: %w", err)
	}
	if _, err := db.ExecContext(ctx, store.SeedSQL()); err != nil {
		db.Close()
		return nil, fmt.Errorf("load seed data: %w", err)
	}
	return db, nil
}

// listTables returns every application table. The migration ledger is
// excluded: it belongs to whatever database the backup lands on, and the
// migration runner rebuilds it there.
func listTables(ctx context.Context, db *sql.DB) ([]string, error) {
	rows, err := db.QueryContext(ctx,
		"SELECT name FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%' AND name != 'schema_migrations'",
	)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan table name: %w", err)
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

func orderedTables(tables []string) []string {
	present := make(map[string]bool, len(tables))
	for _, t := range tables {
		present[t] = true
	}

	ordered := make([]string, 0, len(tables))
	picked := make(map[string]bool)
	for _, t := range tableOrder {
		if present[t] {
			ordered = append(ordered, t)
			picked[t] = true
		}
	}

	var rest []string
	for _, t := range tables {
		if !picked[t] {
			rest = append(rest, t)
		}
	}
	sort.Strings(rest)
	return append(ordered, rest...)
}

func tableColumns(ctx context.Context, db *sql.DB, table string) ([]string, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return nil, fmt.Errorf("table_info %s: %w", table, err)
	}
	defer rows.Close()

	var columns []string
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
			return nil, fmt.Errorf("scan table_info %s: %w", table, err)
		}
		columns = append(columns, name)
	}
	return columns, rows.Err()
}

func seedHasTable(ctx context.Context, db *sql.DB, table string) (bool, error) {
	var name string
	err := db.QueryRowContext(ctx,
		"SELECT name FROM sqlite_master WHERE type='table' AND name = ?", table,
	).Scan(&name)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check seed table %s: %w", table, err)
	}
	return true, nil
}

// renderedRows returns the set of rows in a table keyed by their rendered
// literal tuple. Rendering is deterministic, so byte-identical rows in the
// live database produce identical keys.
func renderedRows(ctx context.Context, db *sql.DB, table string, columns []string) (map[string]struct{}, error) {
	set := make(map[string]struct{})
	err := scanTable(ctx, db, table, columns, func(values string) error {
		set[values] = struct{}{}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return set, nil
}

func exportTable(ctx context.Context, db *sql.DB, out io.Writer, table string, columns []string, seedSet map[string]struct{}) error {
	cols := strings.Join(columns, ", ")
	return scanTable(ctx, db, table, columns, func(values string) error {
		if seedSet != nil {
			if _, ok := seedSet[values]; ok {
				return nil
			}
		}
		_, err := fmt.Fprintf(out, "INSERT INTO %s (%s) VALUES (%s);\n", table, cols, values)
		return err
	})
}

// scanTable reads every row of a table and calls fn with the rendered
// comma-joined literal tuple.
func scanTable(ctx context.Context, db *sql.DB, table string, columns []string, fn func(values string) error) error {
	rows, err := db.QueryContext(ctx,
		fmt.Sprintf("SELECT %s FROM %s", strings.Join(columns, ", "), table),
	)
	if err != nil {
		return fmt.Errorf("read %s: %w", table, err)
	}
	defer rows.Close()

	values := make([]any, len(columns))
	ptrs := make([]any, len(columns))
	for i := range values {
		ptrs[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return fmt.Errorf("scan %s row: %w", table, err)
		}
		literals := make([]string, len(values))
		for i, v := range values {
			literals[i] = sqlLiteral(v)
		}
		if err := fn(strings.Join(literals, ", ")); err != nil {
			return fmt.Errorf("export %s: %w", table, err)
		}
	}
	return rows.Err()
}

// sqlLiteral renders one column value as a SQL literal: NULL for nil,
// numbers verbatim, binary as X'hex', and text single-quoted with embedded
// quotes doubled. Unicode text passes through byte-for-byte.
func sqlLiteral(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case bool:
		if x {
			return "1"
		}
		return "0"
	case []byte:
		return "X'" + hex.EncodeToString(x) + "'"
	case string:
		return "'" + strings.ReplaceAll(x, "'", "''") + "'"
	case time.Time:
		return "'" + x.UTC().Format("2006-01-02T15:04:05") + "'"
	default:
		return "'" + strings.ReplaceAll(fmt.Sprint(x), "'", "''") + "'"
	}
}
