package store

import (
	"context"
	"fmt"
)

// Entity names an application table. Only these fixed identifiers are ever
// interpolated into SQL; caller-supplied strings never are.
type Entity string

const (
	EntityProject          Entity = "projects"
	EntityTask             Entity = "tasks"
	EntityVendor           Entity = "vendors"
	EntityLaborer          Entity = "laborers"
	EntityMaterialPurchase Entity = "material_purchases"
	EntityWorkSession      Entity = "work_sessions"
)

// dependent is a foreign-key reference that blocks physical deletion.
type dependent struct {
	table  string
	column string
}

// dependents maps each entity to the references that block hard delete.
// MaterialPurchase and WorkSession have no dependents and are always
// hard-deletable; a session's entries go with it via FK cascade.
var dependents = map[Entity][]dependent{
	EntityProject: {
		{table: "tasks", column: "project_id"},
		{table: "material_purchases", column: "project_id"},
		{table: "work_sessions", column: "project_id"},
	},
	EntityTask: {
		{table: "material_purchases", column: "task_id"},
		{table: "work_sessions", column: "task_id"},
	},
	EntityVendor: {
		{table: "material_purchases", column: "vendor_id"},
	},
	EntityLaborer: {
		{table: "work_session_entries", column: "laborer_id"},
	},
	EntityMaterialPurchase: nil,
	EntityWorkSession:      nil,
}

// EntityByName resolves a table name to a known Entity. Used by the
// transport layer to map URL segments onto the closed entity set.
func EntityByName(name string) (Entity, bool) {
	e := Entity(name)
	_, ok := dependents[e]
	return e, ok
}

// DeleteOutcome reports what a delete request actually did.
type DeleteOutcome struct {
	ID       int64
	Archived bool
	Deleted  bool
}

// Delete removes the record if nothing references it, otherwise archives it.
// The dependency check and the delete/archive run in one transaction so a
// dependent row inserted concurrently cannot slip between check and act.
func (s *Store) Delete(ctx context.Context, entity Entity, id int64) (DeleteOutcome, error) {
	deps, ok := dependents[entity]
	if !ok {
		return DeleteOutcome{}, fmt.Errorf("unknown entity %q", entity)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return DeleteOutcome{}, fmt.Errorf("delete %s: begin tx: %w", entity, err)
	}
	defer tx.Rollback() // No-op if committed

	var exists int
	err = tx.QueryRowContext(ctx,
		fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE id = ?", entity), id,
	).Scan(&exists)
	if err != nil {
		return DeleteOutcome{}, fmt.Errorf("delete %s: check existence: %w", entity, err)
	}
	if exists == 0 {
		return DeleteOutcome{}, NewNotFound(entity, id)
	}

	referenced := false
	for _, dep := range deps {
		var count int
		err = tx.QueryRowContext(ctx,
			fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s = ?", dep.table, dep.column), id,
		).Scan(&count)
		if err != nil {
			return DeleteOutcome{}, fmt.Errorf("delete %s: check %s: %w", entity, dep.table, err)
		}
		if count > 0 {
			referenced = true
			break
		}
	}

	outcome := DeleteOutcome{ID: id}
	if referenced {
		_, err = tx.ExecContext(ctx,
			fmt.Sprintf("UPDATE %s SET archived_at = ? WHERE id = ?", entity),
			nowUTC(), id,
		)
		if err != nil {
			return DeleteOutcome{}, fmt.Errorf("archive %s: %w", entity, mapSQLiteError(err))
		}
		outcome.Archived = true
	} else {
		_, err = tx.ExecContext(ctx,
			fmt.Sprintf("DELETE FROM %s WHERE id = ?", entity), id,
		)
		if err != nil {
			return DeleteOutcome{}, fmt.Errorf("delete %s: %w", entity, mapSQLiteError(err))
		}
		outcome.Deleted = true
	}

	if err := tx.Commit(); err != nil {
		return DeleteOutcome{}, fmt.Errorf("delete %s: commit: %w", entity, err)
	}
	return outcome, nil
}

// Archive sets the archived-at marker. Idempotent: archiving an
// already-archived record succeeds and reports the same outcome.
func (s *Store) Archive(ctx context.Context, entity Entity, id int64) error {
	return s.setArchived(ctx, entity, id, true)
}

// Restore clears the archived-at marker unconditionally. No dependency
// check is needed to un-archive.
func (s *Store) Restore(ctx context.Context, entity Entity, id int64) error {
	return s.setArchived(ctx, entity, id, false)
}

func (s *Store) setArchived(ctx context.Context, entity Entity, id int64, archived bool) error {
	if _, ok := dependents[entity]; !ok {
		return fmt.Errorf("unknown entity %q", entity)
	}

	var marker any
	if archived {
		marker = nowUTC()
	}
	res, err := s.db.ExecContext(ctx,
		fmt.Sprintf("UPDATE %s SET archived_at = ? WHERE id = ?", entity),
		marker, id,
	)
	if err != nil {
		return fmt.Errorf("set archived on %s: %w", entity, mapSQLiteError(err))
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set archived on %s: rows affected: %w", entity, err)
	}
	if affected == 0 {
		return NewNotFound(entity, id)
	}
	return nil
}
