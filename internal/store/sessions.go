package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/ChieftanRat/renovation-material-tracker/internal/queryfilter"
)

// SessionFilters is the closed filter set for work session list queries.
// Columns carry the ws alias because the list query joins entries via an
// EXISTS subquery.
var SessionFilters = []queryfilter.Descriptor{
	{Param: "project_id", Column: "ws.project_id", Type: queryfilter.Int},
	{Param: "task_id", Column: "ws.task_id", Type: queryfilter.Int},
	{Param: "start_date", Column: "ws.work_date", Type: queryfilter.Date},
	{Param: "end_date", Column: "ws.work_date", Type: queryfilter.Date},
}

// SessionArchivedColumn is the aliased archived marker for session lists.
const SessionArchivedColumn = "ws.archived_at"

func validateSession(ws WorkSession) error {
	if _, err := parseDate(ws.WorkDate, "work_date"); err != nil {
		return err
	}
	if len(ws.Entries) == 0 {
		return NewValidation("entries must be a non-empty list")
	}
	for i, e := range ws.Entries {
		in, err := parseClockTime(e.ClockInTime, fmt.Sprintf("entry %d: clock_in_time", i+1))
		if err != nil {
			return err
		}
		out, err := parseClockTime(e.ClockOutTime, fmt.Sprintf("entry %d: clock_out_time", i+1))
		if err != nil {
			return err
		}
		if !out.After(in) {
			return NewValidation("clock_out_time must be after clock_in_time")
		}
	}
	return nil
}

// CreateWorkSession inserts a session and all of its entries in one
// transaction and returns the session id.
func (s *Store) CreateWorkSession(ctx context.Context, ws WorkSession) (int64, error) {
	if err := validateSession(ws); err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("create work session: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	res, err := tx.ExecContext(ctx, `
		INSERT INTO work_sessions (project_id, task_id, work_date)
		VALUES (?, ?, ?)
	`, ws.ProjectID, ws.TaskID, ws.WorkDate)
	if err != nil {
		return 0, fmt.Errorf("create work session: %w", mapSQLiteError(err))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("create work session: last insert id: %w", err)
	}

	if err := insertEntries(ctx, tx, id, ws.Entries); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("create work session: commit: %w", err)
	}
	return id, nil
}

// GetWorkSession fetches one session with its entries.
func (s *Store) GetWorkSession(ctx context.Context, id int64) (*WorkSession, error) {
	var ws WorkSession
	err := s.db.QueryRowContext(ctx, `
		SELECT id, project_id, task_id, work_date, archived_at
		FROM work_sessions WHERE id = ?
	`, id).Scan(&ws.ID, &ws.ProjectID, &ws.TaskID, &ws.WorkDate, &ws.ArchivedAt)
	if err == sql.ErrNoRows {
		return nil, NewNotFound(EntityWorkSession, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get work session: %w", err)
	}

	entries, err := s.entriesForSessions(ctx, []int64{id})
	if err != nil {
		return nil, err
	}
	ws.Entries = entries[id]
	if ws.Entries == nil {
		ws.Entries = []WorkSessionEntry{}
	}
	return &ws, nil
}

// ListWorkSessions returns one page of sessions, each with its full entry
// set, plus the total match count. The laborerID filter, when non-nil,
// matches sessions with at least one entry for that laborer.
func (s *Store) ListWorkSessions(ctx context.Context, pred queryfilter.Predicate, page queryfilter.Page, laborerID *int64) ([]WorkSession, int, error) {
	if laborerID != nil {
		pred = pred.And(
			"EXISTS (SELECT 1 FROM work_session_entries wse WHERE wse.work_session_id = ws.id AND wse.laborer_id = ?)",
			*laborerID,
		)
	}

	var total int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM work_sessions ws"+pred.Where(), pred.Args...,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count work sessions: %w", err)
	}

	args := append(append([]any(nil), pred.Args...), page.Limit(), page.Offset())
	rows, err := s.db.QueryContext(ctx, `
		SELECT ws.id, ws.project_id, ws.task_id, ws.work_date, ws.archived_at
		FROM work_sessions ws`+pred.Where()+`
		ORDER BY ws.id
		LIMIT ? OFFSET ?
	`, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list work sessions: %w", err)
	}
	defer rows.Close()

	items := []WorkSession{}
	ids := []int64{}
	for rows.Next() {
		var ws WorkSession
		if err := rows.Scan(&ws.ID, &ws.ProjectID, &ws.TaskID, &ws.WorkDate, &ws.ArchivedAt); err != nil {
			return nil, 0, fmt.Errorf("scan work session: %w", err)
		}
		ws.Entries = []WorkSessionEntry{}
		items = append(items, ws)
		ids = append(ids, ws.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list work sessions: %w", err)
	}

	if len(ids) > 0 {
		bySession, err := s.entriesForSessions(ctx, ids)
		if err != nil {
			return nil, 0, err
		}
		for i := range items {
			if entries, ok := bySession[items[i].ID]; ok {
				items[i].Entries = entries
			}
		}
	}
	return items, total, nil
}

// UpdateWorkSession replaces the full record including its entry set:
// existing entries are deleted and the supplied set reinserted, all in one
// transaction. Entries are never partially patched.
func (s *Store) UpdateWorkSession(ctx context.Context, id int64, ws WorkSession) error {
	if err := validateSession(ws); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("update work session: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	res, err := tx.ExecContext(ctx, `
		UPDATE work_sessions
		SET project_id = ?, task_id = ?, work_date = ?
		WHERE id = ?
	`, ws.ProjectID, ws.TaskID, ws.WorkDate, id)
	if err != nil {
		return fmt.Errorf("update work session: %w", mapSQLiteError(err))
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update work session: rows affected: %w", err)
	}
	if affected == 0 {
		return NewNotFound(EntityWorkSession, id)
	}

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM work_session_entries WHERE work_session_id = ?", id,
	); err != nil {
		return fmt.Errorf("update work session: clear entries: %w", err)
	}
	if err := insertEntries(ctx, tx, id, ws.Entries); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("update work session: commit: %w", err)
	}
	return nil
}

func insertEntries(ctx context.Context, tx *sql.Tx, sessionID int64, entries []WorkSessionEntry) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO work_session_entries (work_session_id, laborer_id, clock_in_time, clock_out_time)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("insert entries: prepare: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.ExecContext(ctx, sessionID, e.LaborerID, e.ClockInTime, e.ClockOutTime); err != nil {
			return fmt.Errorf("insert entry: %w", mapSQLiteError(err))
		}
	}
	return nil
}

// entriesForSessions batch-fetches entries for the given session ids,
// ordered by entry id within each session.
func (s *Store) entriesForSessions(ctx context.Context, ids []int64) (map[int64][]WorkSessionEntry, error) {
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, work_session_id, laborer_id, clock_in_time, clock_out_time
		FROM work_session_entries
		WHERE work_session_id IN (`+placeholders+`)
		ORDER BY id
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("list session entries: %w", err)
	}
	defer rows.Close()

	bySession := make(map[int64][]WorkSessionEntry)
	for rows.Next() {
		var e WorkSessionEntry
		if err := rows.Scan(&e.ID, &e.WorkSessionID, &e.LaborerID, &e.ClockInTime, &e.ClockOutTime); err != nil {
			return nil, fmt.Errorf("scan session entry: %w", err)
		}
		bySession[e.WorkSessionID] = append(bySession[e.WorkSessionID], e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list session entries: %w", err)
	}
	return bySession, nil
}
