package backup

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
)

// RestoreError aggregates a failed restore. The target database is left
// exactly as it was before the attempt.
type RestoreError struct {
	Reason string
	Err    error
}

func (e *RestoreError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("restore failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("restore failed: %s", e.Reason)
}

func (e *RestoreError) Unwrap() error {
	return e.Err
}

// Restore applies a backup script to db as a single transaction. If any
// statement fails, every change is rolled back and nothing is committed.
// Restoring onto a non-empty database can collide on primary keys; that
// surfaces as a hard failure, never a silent merge.
//
// The script's own BEGIN/COMMIT statements are skipped: the restore owns
// the transaction.
func Restore(ctx context.Context, db *sql.DB, script string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return &RestoreError{Reason: "begin transaction", Err: err}
	}
	defer tx.Rollback() // No-op if committed

	for _, stmt := range splitStatements(script) {
		upper := strings.ToUpper(stmt)
		if strings.HasPrefix(upper, "BEGIN") || strings.HasPrefix(upper, "COMMIT") {
			continue
		}
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return &RestoreError{
				Reason: fmt.Sprintf("statement %q", truncate(stmt, 80)),
				Err:    err,
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return &RestoreError{Reason: "commit", Err: err}
	}
	return nil
}

// RestoreFile applies the backup file at backupPath to the database at dbPath.
func RestoreFile(ctx context.Context, dbPath, backupPath string) error {
	script, err := os.ReadFile(backupPath)
	if err != nil {
		return &RestoreError{Reason: "read backup file", Err: err}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return &RestoreError{Reason: "open database", Err: err}
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		return &RestoreError{Reason: "connect to database", Err: err}
	}

	return Restore(ctx, db, string(script))
}

// splitStatements splits a SQL script on semicolons, respecting single- and
// double-quoted literals and line comments. A semicolon inside a quoted
// string is data, not a separator. Comment-only and empty fragments are
// dropped.
func splitStatements(script string) []string {
	var (
		stmts     []string
		b         strings.Builder
		inSingle  bool
		inDouble  bool
		inComment bool
	)

	runes := []rune(script)
	for i := 0; i < len(runes); i++ {
		r := runes[i]

		if inComment {
			if r == '\n' {
				inComment = false
			}
			continue
		}

		switch {
		case r == '\'' && !inDouble:
			inSingle = !inSingle
		case r == '"' && !inSingle:
			inDouble = !inDouble
		case r == '-' && !inSingle && !inDouble:
			if i+1 < len(runes) && runes[i+1] == '-' {
				inComment = true
				i++
				continue
			}
		case r == ';' && !inSingle && !inDouble:
			if stmt := strings.TrimSpace(b.String()); stmt != "" {
				stmts = append(stmts, stmt)
			}
			b.Reset()
			continue
		}

		b.WriteRune(r)
	}

	if stmt := strings.TrimSpace(b.String()); stmt != "" {
		stmts = append(stmts, stmt)
	}
	return stmts
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
