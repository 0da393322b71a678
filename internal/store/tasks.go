package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ChieftanRat/renovation-material-tracker/internal/queryfilter"
)

// TaskFilters is the closed filter set for task list queries.
var TaskFilters = []queryfilter.Descriptor{
	{Param: "project_id", Column: "project_id", Type: queryfilter.Int},
}

func validateTask(t Task) error {
	start, err := parseDatetime(t.StartDatetime, "start_datetime")
	if err != nil {
		return err
	}
	end, err := parseDatetime(t.EndDatetime, "end_datetime")
	if err != nil {
		return err
	}
	if !end.After(start) {
		return NewValidation("end_datetime must be after start_datetime")
	}
	return nil
}

// CreateTask inserts a task and returns its generated id.
func (s *Store) CreateTask(ctx context.Context, t Task) (int64, error) {
	if err := validateTask(t); err != nil {
		return 0, err
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO tasks (project_id, name, start_datetime, end_datetime)
		VALUES (?, ?, ?, ?)
	`, t.ProjectID, t.Name, t.StartDatetime, t.EndDatetime)
	if err != nil {
		return 0, fmt.Errorf("create task: %w", mapSQLiteError(err))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("create task: last insert id: %w", err)
	}
	return id, nil
}

// GetTask fetches one task by id.
func (s *Store) GetTask(ctx context.Context, id int64) (*Task, error) {
	var t Task
	err := s.db.QueryRowContext(ctx, `
		SELECT id, project_id, name, start_datetime, end_datetime, archived_at
		FROM tasks WHERE id = ?
	`, id).Scan(&t.ID, &t.ProjectID, &t.Name, &t.StartDatetime, &t.EndDatetime, &t.ArchivedAt)
	if err == sql.ErrNoRows {
		return nil, NewNotFound(EntityTask, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return &t, nil
}

// ListTasks returns one page of tasks matching the predicate plus the total.
func (s *Store) ListTasks(ctx context.Context, pred queryfilter.Predicate, page queryfilter.Page) ([]Task, int, error) {
	var total int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM tasks"+pred.Where(), pred.Args...,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count tasks: %w", err)
	}

	args := append(append([]any(nil), pred.Args...), page.Limit(), page.Offset())
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, project_id, name, start_datetime, end_datetime, archived_at
		FROM tasks`+pred.Where()+`
		ORDER BY id
		LIMIT ? OFFSET ?
	`, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	items := []Task{}
	for rows.Next() {
		var t Task
		if err := rows.Scan(&t.ID, &t.ProjectID, &t.Name, &t.StartDatetime, &t.EndDatetime, &t.ArchivedAt); err != nil {
			return nil, 0, fmt.Errorf("scan task: %w", err)
		}
		items = append(items, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list tasks: %w", err)
	}
	return items, total, nil
}

// UpdateTask replaces the full record.
func (s *Store) UpdateTask(ctx context.Context, id int64, t Task) error {
	if err := validateTask(t); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE tasks
		SET project_id = ?, name = ?, start_datetime = ?, end_datetime = ?
		WHERE id = ?
	`, t.ProjectID, t.Name, t.StartDatetime, t.EndDatetime, id)
	if err != nil {
		return fmt.Errorf("update task: %w", mapSQLiteError(err))
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update task: rows affected: %w", err)
	}
	if affected == 0 {
		return NewNotFound(EntityTask, id)
	}
	return nil
}
