package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ChieftanRat/renovation-material-tracker/internal/queryfilter"
)

// ProjectFilters is the closed filter set for project list queries.
var ProjectFilters = []queryfilter.Descriptor{
	{Param: "start_date", Column: "start_date", Type: queryfilter.Date},
	{Param: "end_date", Column: "end_date", Type: queryfilter.Date},
}

// validateProject checks cross-field invariants shared by create and update.
func validateProject(p Project) error {
	if p.StartDate != nil && p.EndDate != nil {
		start, err := parseDate(*p.StartDate, "start_date")
		if err != nil {
			return err
		}
		end, err := parseDate(*p.EndDate, "end_date")
		if err != nil {
			return err
		}
		if end.Before(start) {
			return NewValidation("end_date must be on or after start_date")
		}
	} else {
		if p.StartDate != nil {
			if _, err := parseDate(*p.StartDate, "start_date"); err != nil {
				return err
			}
		}
		if p.EndDate != nil {
			if _, err := parseDate(*p.EndDate, "end_date"); err != nil {
				return err
			}
		}
	}
	return nil
}

// CreateProject inserts a project and returns its generated id.
func (s *Store) CreateProject(ctx context.Context, p Project) (int64, error) {
	if err := validateProject(p); err != nil {
		return 0, err
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO projects (name, description, start_date, end_date)
		VALUES (?, ?, ?, ?)
	`, p.Name, p.Description, p.StartDate, p.EndDate)
	if err != nil {
		return 0, fmt.Errorf("create project: %w", mapSQLiteError(err))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("create project: last insert id: %w", err)
	}
	return id, nil
}

// GetProject fetches one project by id.
func (s *Store) GetProject(ctx context.Context, id int64) (*Project, error) {
	var p Project
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, description, start_date, end_date, archived_at
		FROM projects WHERE id = ?
	`, id).Scan(&p.ID, &p.Name, &p.Description, &p.StartDate, &p.EndDate, &p.ArchivedAt)
	if err == sql.ErrNoRows {
		return nil, NewNotFound(EntityProject, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}
	return &p, nil
}

// ListProjects returns one page of projects matching the predicate, plus the
// total match count computed over the same predicate.
func (s *Store) ListProjects(ctx context.Context, pred queryfilter.Predicate, page queryfilter.Page) ([]Project, int, error) {
	var total int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM projects"+pred.Where(), pred.Args...,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count projects: %w", err)
	}

	args := append(append([]any(nil), pred.Args...), page.Limit(), page.Offset())
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, description, start_date, end_date, archived_at
		FROM projects`+pred.Where()+`
		ORDER BY id
		LIMIT ? OFFSET ?
	`, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	items := []Project{}
	for rows.Next() {
		var p Project
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.StartDate, &p.EndDate, &p.ArchivedAt); err != nil {
			return nil, 0, fmt.Errorf("scan project: %w", err)
		}
		items = append(items, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list projects: %w", err)
	}
	return items, total, nil
}

// UpdateProject replaces the full record. NotFound when the id does not exist.
func (s *Store) UpdateProject(ctx context.Context, id int64, p Project) error {
	if err := validateProject(p); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE projects
		SET name = ?, description = ?, start_date = ?, end_date = ?
		WHERE id = ?
	`, p.Name, p.Description, p.StartDate, p.EndDate, id)
	if err != nil {
		return fmt.Errorf("update project: %w", mapSQLiteError(err))
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update project: rows affected: %w", err)
	}
	if affected == 0 {
		return NewNotFound(EntityProject, id)
	}
	return nil
}
