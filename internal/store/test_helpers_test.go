package store

import (
	"context"
	"path/filepath"
	"testing"
)

func testCtx(t *testing.T) context.Context {
	t.Helper()
	return context.Background()
}

// createTestStore creates a migrated store on a temp file.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func strPtr(s string) *string { return &s }

func floatPtr(f float64) *float64 { return &f }

func int64Ptr(n int64) *int64 { return &n }

// createTestProject inserts a minimal project and returns its id.
func createTestProject(t *testing.T, s *Store) int64 {
	t.Helper()
	id, err := s.CreateProject(testCtx(t), Project{Name: "Test Project"})
	if err != nil {
		t.Fatalf("CreateProject() failed: %v", err)
	}
	return id
}

// createTestTask inserts a minimal task under the given project.
func createTestTask(t *testing.T, s *Store, projectID int64) int64 {
	t.Helper()
	id, err := s.CreateTask(testCtx(t), Task{
		ProjectID:     projectID,
		Name:          "Test Task",
		StartDatetime: "2025-01-06 08:00",
		EndDatetime:   "2025-01-10 17:00",
	})
	if err != nil {
		t.Fatalf("CreateTask() failed: %v", err)
	}
	return id
}

// createTestVendor inserts a vendor and returns its id.
func createTestVendor(t *testing.T, s *Store, name string) int64 {
	t.Helper()
	id, err := s.CreateVendor(testCtx(t), Vendor{Name: name})
	if err != nil {
		t.Fatalf("CreateVendor() failed: %v", err)
	}
	return id
}

// createTestLaborer inserts an hourly laborer and returns its id.
func createTestLaborer(t *testing.T, s *Store) int64 {
	t.Helper()
	id, err := s.CreateLaborer(testCtx(t), Laborer{Name: "Test Laborer", HourlyRate: floatPtr(30)})
	if err != nil {
		t.Fatalf("CreateLaborer() failed: %v", err)
	}
	return id
}
