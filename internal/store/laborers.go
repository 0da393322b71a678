package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ChieftanRat/renovation-material-tracker/internal/queryfilter"
)

// LaborerFilters is empty: laborer lists filter only on the archived marker.
var LaborerFilters = []queryfilter.Descriptor{}

func validateLaborer(l Laborer) error {
	if l.HourlyRate == nil && l.DailyRate == nil {
		return NewValidation("provide hourly_rate or daily_rate")
	}
	if l.HourlyRate != nil {
		if err := nonNegative(*l.HourlyRate, "hourly_rate"); err != nil {
			return err
		}
	}
	if l.DailyRate != nil {
		if err := nonNegative(*l.DailyRate, "daily_rate"); err != nil {
			return err
		}
	}
	return nil
}

// CreateLaborer inserts a laborer and returns its generated id.
func (s *Store) CreateLaborer(ctx context.Context, l Laborer) (int64, error) {
	if err := validateLaborer(l); err != nil {
		return 0, err
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO laborers (name, hourly_rate, daily_rate)
		VALUES (?, ?, ?)
	`, l.Name, l.HourlyRate, l.DailyRate)
	if err != nil {
		return 0, fmt.Errorf("create laborer: %w", mapSQLiteError(err))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("create laborer: last insert id: %w", err)
	}
	return id, nil
}

// GetLaborer fetches one laborer by id.
func (s *Store) GetLaborer(ctx context.Context, id int64) (*Laborer, error) {
	var l Laborer
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, hourly_rate, daily_rate, archived_at
		FROM laborers WHERE id = ?
	`, id).Scan(&l.ID, &l.Name, &l.HourlyRate, &l.DailyRate, &l.ArchivedAt)
	if err == sql.ErrNoRows {
		return nil, NewNotFound(EntityLaborer, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get laborer: %w", err)
	}
	return &l, nil
}

// ListLaborers returns one page of laborers matching the predicate plus the total.
func (s *Store) ListLaborers(ctx context.Context, pred queryfilter.Predicate, page queryfilter.Page) ([]Laborer, int, error) {
	var total int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM laborers"+pred.Where(), pred.Args...,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count laborers: %w", err)
	}

	args := append(append([]any(nil), pred.Args...), page.Limit(), page.Offset())
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, hourly_rate, daily_rate, archived_at
		FROM laborers`+pred.Where()+`
		ORDER BY id
		LIMIT ? OFFSET ?
	`, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list laborers: %w", err)
	}
	defer rows.Close()

	items := []Laborer{}
	for rows.Next() {
		var l Laborer
		if err := rows.Scan(&l.ID, &l.Name, &l.HourlyRate, &l.DailyRate, &l.ArchivedAt); err != nil {
			return nil, 0, fmt.Errorf("scan laborer: %w", err)
		}
		items = append(items, l)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list laborers: %w", err)
	}
	return items, total, nil
}

// UpdateLaborer replaces the full record.
func (s *Store) UpdateLaborer(ctx context.Context, id int64, l Laborer) error {
	if err := validateLaborer(l); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE laborers
		SET name = ?, hourly_rate = ?, daily_rate = ?
		WHERE id = ?
	`, l.Name, l.HourlyRate, l.DailyRate, id)
	if err != nil {
		return fmt.Errorf("update laborer: %w", mapSQLiteError(err))
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update laborer: rows affected: %w", err)
	}
	if affected == 0 {
		return NewNotFound(EntityLaborer, id)
	}
	return nil
}
