package api

import (
	"net/http"
	"strconv"

	"github.com/ChieftanRat/renovation-material-tracker/internal/queryfilter"
	"github.com/ChieftanRat/renovation-material-tracker/internal/store"
)

// --- projects ---

func (s *Server) createProject(w http.ResponseWriter, r *http.Request) {
	var p store.Project
	if !decodeBody(w, r, &p) {
		return
	}
	id, err := s.store.CreateProject(r.Context(), p)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.afterMutation(r)
	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (s *Server) getProject(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	p, err := s.store.GetProject(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) listProjects(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := queryfilter.ParsePage(q, s.cfg.MaxPageSize)
	if err != nil {
		s.writeError(w, err)
		return
	}
	pred, err := queryfilter.Compile(q, store.ProjectFilters, queryfilter.Options{
		IncludeArchived: queryfilter.IncludeArchived(q),
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	items, total, err := s.store.ListProjects(r.Context(), pred, page)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newListResponse(items, page, total))
}

func (s *Server) updateProject(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var p store.Project
	if !decodeBody(w, r, &p) {
		return
	}
	if err := s.store.UpdateProject(r.Context(), id, p); err != nil {
		s.writeError(w, err)
		return
	}
	s.afterMutation(r)
	writeJSON(w, http.StatusOK, map[string]int64{"id": id})
}

// --- tasks ---

func (s *Server) createTask(w http.ResponseWriter, r *http.Request) {
	var t store.Task
	if !decodeBody(w, r, &t) {
		return
	}
	id, err := s.store.CreateTask(r.Context(), t)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.afterMutation(r)
	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (s *Server) getTask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	t, err := s.store.GetTask(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) listTasks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := queryfilter.ParsePage(q, s.cfg.MaxPageSize)
	if err != nil {
		s.writeError(w, err)
		return
	}
	pred, err := queryfilter.Compile(q, store.TaskFilters, queryfilter.Options{
		IncludeArchived: queryfilter.IncludeArchived(q),
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	items, total, err := s.store.ListTasks(r.Context(), pred, page)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newListResponse(items, page, total))
}

func (s *Server) updateTask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var t store.Task
	if !decodeBody(w, r, &t) {
		return
	}
	if err := s.store.UpdateTask(r.Context(), id, t); err != nil {
		s.writeError(w, err)
		return
	}
	s.afterMutation(r)
	writeJSON(w, http.StatusOK, map[string]int64{"id": id})
}

// --- vendors ---

func (s *Server) createVendor(w http.ResponseWriter, r *http.Request) {
	var v store.Vendor
	if !decodeBody(w, r, &v) {
		return
	}
	id, err := s.store.CreateVendor(r.Context(), v)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.afterMutation(r)
	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (s *Server) getVendor(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	v, err := s.store.GetVendor(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) listVendors(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := queryfilter.ParsePage(q, s.cfg.MaxPageSize)
	if err != nil {
		s.writeError(w, err)
		return
	}
	pred, err := queryfilter.Compile(q, store.VendorFilters, queryfilter.Options{
		IncludeArchived: queryfilter.IncludeArchived(q),
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	items, total, err := s.store.ListVendors(r.Context(), pred, page)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newListResponse(items, page, total))
}

func (s *Server) updateVendor(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var v store.Vendor
	if !decodeBody(w, r, &v) {
		return
	}
	if err := s.store.UpdateVendor(r.Context(), id, v); err != nil {
		s.writeError(w, err)
		return
	}
	s.afterMutation(r)
	writeJSON(w, http.StatusOK, map[string]int64{"id": id})
}

// --- laborers ---

func (s *Server) createLaborer(w http.ResponseWriter, r *http.Request) {
	var l store.Laborer
	if !decodeBody(w, r, &l) {
		return
	}
	id, err := s.store.CreateLaborer(r.Context(), l)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.afterMutation(r)
	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (s *Server) getLaborer(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	l, err := s.store.GetLaborer(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

func (s *Server) listLaborers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := queryfilter.ParsePage(q, s.cfg.MaxPageSize)
	if err != nil {
		s.writeError(w, err)
		return
	}
	pred, err := queryfilter.Compile(q, store.LaborerFilters, queryfilter.Options{
		IncludeArchived: queryfilter.IncludeArchived(q),
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	items, total, err := s.store.ListLaborers(r.Context(), pred, page)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newListResponse(items, page, total))
}

func (s *Server) updateLaborer(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var l store.Laborer
	if !decodeBody(w, r, &l) {
		return
	}
	if err := s.store.UpdateLaborer(r.Context(), id, l); err != nil {
		s.writeError(w, err)
		return
	}
	s.afterMutation(r)
	writeJSON(w, http.StatusOK, map[string]int64{"id": id})
}

// --- material purchases ---

func (s *Server) createPurchase(w http.ResponseWriter, r *http.Request) {
	var p store.MaterialPurchase
	if !decodeBody(w, r, &p) {
		return
	}
	id, err := s.store.CreateMaterialPurchase(r.Context(), p)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.afterMutation(r)
	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (s *Server) getPurchase(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	p, err := s.store.GetMaterialPurchase(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) listPurchases(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := queryfilter.ParsePage(q, s.cfg.MaxPageSize)
	if err != nil {
		s.writeError(w, err)
		return
	}
	pred, err := queryfilter.Compile(q, store.PurchaseFilters, queryfilter.Options{
		IncludeArchived: queryfilter.IncludeArchived(q),
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	items, total, err := s.store.ListMaterialPurchases(r.Context(), pred, page)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newListResponse(items, page, total))
}

func (s *Server) updatePurchase(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var p store.MaterialPurchase
	if !decodeBody(w, r, &p) {
		return
	}
	if err := s.store.UpdateMaterialPurchase(r.Context(), id, p); err != nil {
		s.writeError(w, err)
		return
	}
	s.afterMutation(r)
	writeJSON(w, http.StatusOK, map[string]int64{"id": id})
}

// --- work sessions ---

func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	var ws store.WorkSession
	if !decodeBody(w, r, &ws) {
		return
	}
	id, err := s.store.CreateWorkSession(r.Context(), ws)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.afterMutation(r)
	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	ws, err := s.store.GetWorkSession(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ws)
}

func (s *Server) listSessions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := queryfilter.ParsePage(q, s.cfg.MaxPageSize)
	if err != nil {
		s.writeError(w, err)
		return
	}
	pred, err := queryfilter.Compile(q, store.SessionFilters, queryfilter.Options{
		IncludeArchived: queryfilter.IncludeArchived(q),
		ArchivedColumn:  store.SessionArchivedColumn,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	var laborerID *int64
	if raw, ok := q["laborer_id"]; ok {
		if len(raw) != 1 {
			s.writeError(w, queryfilter.NewValidationError("laborer_id must be supplied at most once"))
			return
		}
		n, err := strconv.ParseInt(raw[0], 10, 64)
		if err != nil {
			s.writeError(w, queryfilter.NewValidationError("laborer_id must be an integer"))
			return
		}
		laborerID = &n
	}

	items, total, err := s.store.ListWorkSessions(r.Context(), pred, page, laborerID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newListResponse(items, page, total))
}

func (s *Server) updateSession(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var ws store.WorkSession
	if !decodeBody(w, r, &ws) {
		return
	}
	if err := s.store.UpdateWorkSession(r.Context(), id, ws); err != nil {
		s.writeError(w, err)
		return
	}
	s.afterMutation(r)
	writeJSON(w, http.StatusOK, map[string]int64{"id": id})
}
