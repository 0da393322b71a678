package store

import (
	"net/url"
	"testing"

	"github.com/ChieftanRat/renovation-material-tracker/internal/queryfilter"
)

func TestCreateProject_DateValidation(t *testing.T) {
	s := createTestStore(t)
	ctx := testCtx(t)

	// end before start is rejected
	_, err := s.CreateProject(ctx, Project{
		Name:      "Bad Dates",
		StartDate: strPtr("2025-02-01"),
		EndDate:   strPtr("2025-01-01"),
	})
	if !IsValidation(err) {
		t.Errorf("end < start: got %v, want validation error", err)
	}

	// equal start and end is a one-day project, allowed
	_, err = s.CreateProject(ctx, Project{
		Name:      "One Day",
		StartDate: strPtr("2025-01-15"),
		EndDate:   strPtr("2025-01-15"),
	})
	if err != nil {
		t.Errorf("end == start: got %v, want success", err)
	}

	_, err = s.CreateProject(ctx, Project{Name: "Garbled", StartDate: strPtr("Jan 5 2025")})
	if !IsValidation(err) {
		t.Errorf("malformed date: got %v, want validation error", err)
	}
}

func TestUpdateProject(t *testing.T) {
	s := createTestStore(t)
	ctx := testCtx(t)

	id := createTestProject(t, s)
	err := s.UpdateProject(ctx, id, Project{
		Name:        "Renamed",
		Description: strPtr("full gut renovation"),
	})
	if err != nil {
		t.Fatalf("UpdateProject() failed: %v", err)
	}

	p, err := s.GetProject(ctx, id)
	if err != nil {
		t.Fatalf("GetProject() failed: %v", err)
	}
	if p.Name != "Renamed" || p.Description == nil || *p.Description != "full gut renovation" {
		t.Errorf("updated project = %+v", p)
	}

	if err := s.UpdateProject(ctx, 9999, Project{Name: "Ghost"}); !IsNotFound(err) {
		t.Errorf("UpdateProject(missing) = %v, want not found", err)
	}
}

func TestListProjects_DateRangeFilter(t *testing.T) {
	s := createTestStore(t)
	ctx := testCtx(t)

	dates := []string{"2025-01-01", "2025-02-01", "2025-03-01"}
	for _, d := range dates {
		if _, err := s.CreateProject(ctx, Project{Name: "P " + d, StartDate: strPtr(d)}); err != nil {
			t.Fatalf("CreateProject() failed: %v", err)
		}
	}

	values := url.Values{"start_date": {"2025-02-01"}}
	pred, err := queryfilter.Compile(values, ProjectFilters, queryfilter.Options{})
	if err != nil {
		t.Fatalf("Compile() failed: %v", err)
	}
	items, total, err := s.ListProjects(ctx, pred, firstPage())
	if err != nil {
		t.Fatalf("ListProjects() failed: %v", err)
	}
	if total != 2 || len(items) != 2 {
		t.Errorf("start_date>=2025-02-01: total=%d items=%d, want 2/2", total, len(items))
	}

	values = url.Values{"start_date": {"2025-01-15"}, "end_date": {"2025-02-15"}}
	pred, err = queryfilter.Compile(values, ProjectFilters, queryfilter.Options{})
	if err != nil {
		t.Fatalf("Compile() failed: %v", err)
	}
	items, total, err = s.ListProjects(ctx, pred, firstPage())
	if err != nil {
		t.Fatalf("ListProjects() failed: %v", err)
	}
	if total != 1 || len(items) != 1 || items[0].Name != "P 2025-02-01" {
		t.Errorf("window filter: total=%d items=%+v", total, items)
	}
}

func TestListProjects_Pagination(t *testing.T) {
	s := createTestStore(t)
	ctx := testCtx(t)

	for i := 0; i < 5; i++ {
		if _, err := s.CreateProject(ctx, Project{Name: "Paged"}); err != nil {
			t.Fatalf("CreateProject() failed: %v", err)
		}
	}

	pred, err := queryfilter.Compile(url.Values{}, ProjectFilters, queryfilter.Options{})
	if err != nil {
		t.Fatalf("Compile() failed: %v", err)
	}

	page := queryfilter.Page{Number: 2, Size: 2}
	items, total, err := s.ListProjects(ctx, pred, page)
	if err != nil {
		t.Fatalf("ListProjects() failed: %v", err)
	}
	if total != 5 {
		t.Errorf("total = %d, want 5", total)
	}
	if len(items) != 2 || items[0].ID != 3 || items[1].ID != 4 {
		t.Errorf("page 2 = %+v, want ids 3 and 4", items)
	}

	// Beyond the last page: empty data, same total.
	page = queryfilter.Page{Number: 9, Size: 2}
	items, total, err = s.ListProjects(ctx, pred, page)
	if err != nil {
		t.Fatalf("ListProjects() failed: %v", err)
	}
	if total != 5 || len(items) != 0 {
		t.Errorf("beyond-end page: total=%d items=%d, want 5/0", total, len(items))
	}
}
