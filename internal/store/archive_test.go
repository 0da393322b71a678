package store

import (
	"net/url"
	"testing"

	"github.com/ChieftanRat/renovation-material-tracker/internal/queryfilter"
)

func firstPage() queryfilter.Page {
	return queryfilter.Page{Number: 1, Size: queryfilter.DefaultPageSize}
}

func TestDelete_UnreferencedVendorIsRemoved(t *testing.T) {
	s := createTestStore(t)
	ctx := testCtx(t)

	id := createTestVendor(t, s, "Paint Depot")

	outcome, err := s.Delete(ctx, EntityVendor, id)
	if err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	if !outcome.Deleted || outcome.Archived {
		t.Errorf("outcome = %+v, want hard delete", outcome)
	}

	if _, err := s.GetVendor(ctx, id); !IsNotFound(err) {
		t.Errorf("GetVendor() after delete = %v, want not found", err)
	}
}

func TestDelete_ReferencedVendorIsArchived(t *testing.T) {
	s := createTestStore(t)
	ctx := testCtx(t)

	projectID := createTestProject(t, s)
	vendorID := createTestVendor(t, s, "Lumber Yard")
	_, err := s.CreateMaterialPurchase(ctx, MaterialPurchase{
		ProjectID:           projectID,
		VendorID:            vendorID,
		MaterialDescription: "2x4 studs",
		UnitCost:            4.5,
		Quantity:            80,
		PurchaseDate:        "2025-01-10",
	})
	if err != nil {
		t.Fatalf("CreateMaterialPurchase() failed: %v", err)
	}

	outcome, err := s.Delete(ctx, EntityVendor, vendorID)
	if err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	if !outcome.Archived || outcome.Deleted {
		t.Errorf("outcome = %+v, want archive", outcome)
	}

	// The record survives, marked archived.
	v, err := s.GetVendor(ctx, vendorID)
	if err != nil {
		t.Fatalf("GetVendor() after archive failed: %v", err)
	}
	if v.ArchivedAt == nil {
		t.Error("archived vendor has no archived_at marker")
	}

	// Default listings hide it; include_archived reveals it.
	pred, err := queryfilter.Compile(url.Values{}, VendorFilters, queryfilter.Options{})
	if err != nil {
		t.Fatalf("Compile() failed: %v", err)
	}
	vendors, total, err := s.ListVendors(ctx, pred, firstPage())
	if err != nil {
		t.Fatalf("ListVendors() failed: %v", err)
	}
	if total != 0 || len(vendors) != 0 {
		t.Errorf("default list shows archived vendor: total=%d items=%d", total, len(vendors))
	}

	pred, err = queryfilter.Compile(url.Values{}, VendorFilters, queryfilter.Options{IncludeArchived: true})
	if err != nil {
		t.Fatalf("Compile() failed: %v", err)
	}
	vendors, total, err = s.ListVendors(ctx, pred, firstPage())
	if err != nil {
		t.Fatalf("ListVendors(include_archived) failed: %v", err)
	}
	if total != 1 || len(vendors) != 1 {
		t.Errorf("include_archived list: total=%d items=%d, want 1/1", total, len(vendors))
	}
}

func TestDelete_LaborerBlockedByEntries(t *testing.T) {
	s := createTestStore(t)
	ctx := testCtx(t)

	projectID := createTestProject(t, s)
	taskID := createTestTask(t, s, projectID)
	laborerID := createTestLaborer(t, s)
	_, err := s.CreateWorkSession(ctx, WorkSession{
		ProjectID: projectID,
		TaskID:    taskID,
		WorkDate:  "2025-01-08",
		Entries: []WorkSessionEntry{
			{LaborerID: laborerID, ClockInTime: "08:00", ClockOutTime: "16:00"},
		},
	})
	if err != nil {
		t.Fatalf("CreateWorkSession() failed: %v", err)
	}

	outcome, err := s.Delete(ctx, EntityLaborer, laborerID)
	if err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	if !outcome.Archived {
		t.Errorf("outcome = %+v, want archive (laborer has session entries)", outcome)
	}
}

func TestDelete_SessionCascadesEntries(t *testing.T) {
	s := createTestStore(t)
	ctx := testCtx(t)

	projectID := createTestProject(t, s)
	taskID := createTestTask(t, s, projectID)
	laborerID := createTestLaborer(t, s)
	sessionID, err := s.CreateWorkSession(ctx, WorkSession{
		ProjectID: projectID,
		TaskID:    taskID,
		WorkDate:  "2025-01-08",
		Entries: []WorkSessionEntry{
			{LaborerID: laborerID, ClockInTime: "08:00", ClockOutTime: "12:00"},
			{LaborerID: laborerID, ClockInTime: "13:00", ClockOutTime: "17:00"},
		},
	})
	if err != nil {
		t.Fatalf("CreateWorkSession() failed: %v", err)
	}

	// Sessions have no dependents of their own, so this is always a hard
	// delete, and the entries go with the session.
	outcome, err := s.Delete(ctx, EntityWorkSession, sessionID)
	if err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	if !outcome.Deleted {
		t.Errorf("outcome = %+v, want hard delete", outcome)
	}

	var entries int
	err = s.db.QueryRow(
		"SELECT COUNT(*) FROM work_session_entries WHERE work_session_id = ?", sessionID,
	).Scan(&entries)
	if err != nil {
		t.Fatalf("count entries: %v", err)
	}
	if entries != 0 {
		t.Errorf("%d entries survived session delete, want 0", entries)
	}
}

func TestDelete_ProjectBlockedByTask(t *testing.T) {
	s := createTestStore(t)
	ctx := testCtx(t)

	projectID := createTestProject(t, s)
	createTestTask(t, s, projectID)

	outcome, err := s.Delete(ctx, EntityProject, projectID)
	if err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	if !outcome.Archived {
		t.Errorf("outcome = %+v, want archive (project has a task)", outcome)
	}
}

func TestDelete_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.Delete(testCtx(t), EntityProject, 9999)
	if !IsNotFound(err) {
		t.Errorf("Delete(missing) = %v, want not found", err)
	}
}

func TestArchiveRestore_Idempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := testCtx(t)

	id := createTestProject(t, s)

	for i := 0; i < 2; i++ {
		if err := s.Archive(ctx, EntityProject, id); err != nil {
			t.Fatalf("Archive() round %d failed: %v", i, err)
		}
	}
	p, err := s.GetProject(ctx, id)
	if err != nil {
		t.Fatalf("GetProject() failed: %v", err)
	}
	if p.ArchivedAt == nil {
		t.Error("project not archived")
	}

	for i := 0; i < 2; i++ {
		if err := s.Restore(ctx, EntityProject, id); err != nil {
			t.Fatalf("Restore() round %d failed: %v", i, err)
		}
	}
	p, err = s.GetProject(ctx, id)
	if err != nil {
		t.Fatalf("GetProject() failed: %v", err)
	}
	if p.ArchivedAt != nil {
		t.Errorf("project still archived after restore: %v", *p.ArchivedAt)
	}
}

func TestArchive_NotFound(t *testing.T) {
	s := createTestStore(t)

	if err := s.Archive(testCtx(t), EntityVendor, 424242); !IsNotFound(err) {
		t.Errorf("Archive(missing) = %v, want not found", err)
	}
	if err := s.Restore(testCtx(t), EntityVendor, 424242); !IsNotFound(err) {
		t.Errorf("Restore(missing) = %v, want not found", err)
	}
}

func TestEntityByName(t *testing.T) {
	if _, ok := EntityByName("projects"); !ok {
		t.Error("projects should resolve")
	}
	if _, ok := EntityByName("schema_migrations"); ok {
		t.Error("schema_migrations must not resolve to a deletable entity")
	}
}
