package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ChieftanRat/renovation-material-tracker/internal/queryfilter"
)

// VendorFilters is empty: vendor lists filter only on the archived marker.
var VendorFilters = []queryfilter.Descriptor{}

// CreateVendor inserts a vendor and returns its generated id.
func (s *Store) CreateVendor(ctx context.Context, v Vendor) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO vendors (name) VALUES (?)", v.Name,
	)
	if err != nil {
		return 0, fmt.Errorf("create vendor: %w", mapSQLiteError(err))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("create vendor: last insert id: %w", err)
	}
	return id, nil
}

// GetVendor fetches one vendor by id.
func (s *Store) GetVendor(ctx context.Context, id int64) (*Vendor, error) {
	var v Vendor
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, archived_at FROM vendors WHERE id = ?", id,
	).Scan(&v.ID, &v.Name, &v.ArchivedAt)
	if err == sql.ErrNoRows {
		return nil, NewNotFound(EntityVendor, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get vendor: %w", err)
	}
	return &v, nil
}

// ListVendors returns one page of vendors matching the predicate plus the total.
func (s *Store) ListVendors(ctx context.Context, pred queryfilter.Predicate, page queryfilter.Page) ([]Vendor, int, error) {
	var total int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM vendors"+pred.Where(), pred.Args...,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count vendors: %w", err)
	}

	args := append(append([]any(nil), pred.Args...), page.Limit(), page.Offset())
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, archived_at
		FROM vendors`+pred.Where()+`
		ORDER BY id
		LIMIT ? OFFSET ?
	`, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list vendors: %w", err)
	}
	defer rows.Close()

	items := []Vendor{}
	for rows.Next() {
		var v Vendor
		if err := rows.Scan(&v.ID, &v.Name, &v.ArchivedAt); err != nil {
			return nil, 0, fmt.Errorf("scan vendor: %w", err)
		}
		items = append(items, v)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list vendors: %w", err)
	}
	return items, total, nil
}

// UpdateVendor replaces the full record.
func (s *Store) UpdateVendor(ctx context.Context, id int64, v Vendor) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE vendors SET name = ? WHERE id = ?", v.Name, id,
	)
	if err != nil {
		return fmt.Errorf("update vendor: %w", mapSQLiteError(err))
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update vendor: rows affected: %w", err)
	}
	if affected == 0 {
		return NewNotFound(EntityVendor, id)
	}
	return nil
}
