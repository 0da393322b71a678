package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ChieftanRat/renovation-material-tracker/internal/queryfilter"
)

// PurchaseFilters is the closed filter set for material purchase lists.
// start_date/end_date bound the purchase date inclusively.
var PurchaseFilters = []queryfilter.Descriptor{
	{Param: "project_id", Column: "project_id", Type: queryfilter.Int},
	{Param: "task_id", Column: "task_id", Type: queryfilter.Int},
	{Param: "vendor_id", Column: "vendor_id", Type: queryfilter.Int},
	{Param: "start_date", Column: "purchase_date", Type: queryfilter.Date},
	{Param: "end_date", Column: "purchase_date", Type: queryfilter.Date},
}

func validatePurchase(p MaterialPurchase) error {
	if err := nonNegative(p.UnitCost, "unit_cost"); err != nil {
		return err
	}
	if err := nonNegative(p.Quantity, "quantity"); err != nil {
		return err
	}
	if err := nonNegative(p.DeliveryCost, "delivery_cost"); err != nil {
		return err
	}
	purchased, err := parseDate(p.PurchaseDate, "purchase_date")
	if err != nil {
		return err
	}
	today := time.Now().UTC().Truncate(24 * time.Hour)
	if purchased.After(today) {
		return NewValidation("purchase_date cannot be in the future")
	}
	return nil
}

// CreateMaterialPurchase inserts a purchase and returns its generated id.
// The stored total is always derived from unit cost and quantity.
func (s *Store) CreateMaterialPurchase(ctx context.Context, p MaterialPurchase) (int64, error) {
	if err := validatePurchase(p); err != nil {
		return 0, err
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO material_purchases (
		  project_id, task_id, vendor_id, material_description,
		  unit_cost, quantity, total_material_cost, delivery_cost, purchase_date
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		p.ProjectID, p.TaskID, p.VendorID, p.MaterialDescription,
		p.UnitCost, p.Quantity, p.UnitCost*p.Quantity, p.DeliveryCost, p.PurchaseDate,
	)
	if err != nil {
		return 0, fmt.Errorf("create material purchase: %w", mapSQLiteError(err))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("create material purchase: last insert id: %w", err)
	}
	return id, nil
}

// GetMaterialPurchase fetches one purchase by id.
func (s *Store) GetMaterialPurchase(ctx context.Context, id int64) (*MaterialPurchase, error) {
	var p MaterialPurchase
	err := s.db.QueryRowContext(ctx, `
		SELECT id, project_id, task_id, vendor_id, material_description,
		       unit_cost, quantity, total_material_cost, delivery_cost,
		       purchase_date, archived_at
		FROM material_purchases WHERE id = ?
	`, id).Scan(
		&p.ID, &p.ProjectID, &p.TaskID, &p.VendorID, &p.MaterialDescription,
		&p.UnitCost, &p.Quantity, &p.TotalMaterialCost, &p.DeliveryCost,
		&p.PurchaseDate, &p.ArchivedAt,
	)
	if err == sql.ErrNoRows {
		return nil, NewNotFound(EntityMaterialPurchase, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get material purchase: %w", err)
	}
	return &p, nil
}

// ListMaterialPurchases returns one page of purchases plus the total.
func (s *Store) ListMaterialPurchases(ctx context.Context, pred queryfilter.Predicate, page queryfilter.Page) ([]MaterialPurchase, int, error) {
	var total int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM material_purchases"+pred.Where(), pred.Args...,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count material purchases: %w", err)
	}

	args := append(append([]any(nil), pred.Args...), page.Limit(), page.Offset())
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, project_id, task_id, vendor_id, material_description,
		       unit_cost, quantity, total_material_cost, delivery_cost,
		       purchase_date, archived_at
		FROM material_purchases`+pred.Where()+`
		ORDER BY id
		LIMIT ? OFFSET ?
	`, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list material purchases: %w", err)
	}
	defer rows.Close()

	items := []MaterialPurchase{}
	for rows.Next() {
		var p MaterialPurchase
		if err := rows.Scan(
			&p.ID, &p.ProjectID, &p.TaskID, &p.VendorID, &p.MaterialDescription,
			&p.UnitCost, &p.Quantity, &p.TotalMaterialCost, &p.DeliveryCost,
			&p.PurchaseDate, &p.ArchivedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("scan material purchase: %w", err)
		}
		items = append(items, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list material purchases: %w", err)
	}
	return items, total, nil
}

// UpdateMaterialPurchase replaces the full record, re-deriving the total.
func (s *Store) UpdateMaterialPurchase(ctx context.Context, id int64, p MaterialPurchase) error {
	if err := validatePurchase(p); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE material_purchases
		SET project_id = ?, task_id = ?, vendor_id = ?, material_description = ?,
		    unit_cost = ?, quantity = ?, total_material_cost = ?,
		    delivery_cost = ?, purchase_date = ?
		WHERE id = ?
	`,
		p.ProjectID, p.TaskID, p.VendorID, p.MaterialDescription,
		p.UnitCost, p.Quantity, p.UnitCost*p.Quantity, p.DeliveryCost, p.PurchaseDate,
		id,
	)
	if err != nil {
		return fmt.Errorf("update material purchase: %w", mapSQLiteError(err))
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update material purchase: rows affected: %w", err)
	}
	if affected == 0 {
		return NewNotFound(EntityMaterialPurchase, id)
	}
	return nil
}
