// Package api is the thin HTTP glue over the store: routing, JSON
// marshaling, API-key auth, and request logging. All invariants live in the
// store and backup packages; handlers only translate.
package api

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ChieftanRat/renovation-material-tracker/internal/backup"
	"github.com/ChieftanRat/renovation-material-tracker/internal/config"
	"github.com/ChieftanRat/renovation-material-tracker/internal/store"
)

// Server wires the store and backup scheduler to HTTP endpoints.
type Server struct {
	store  *store.Store
	sched  *backup.Scheduler
	cfg    config.Config
	logger *slog.Logger
}

// New creates a server. The scheduler handle is shared with whatever else
// triggers post-mutation backups; the server never constructs its own.
func New(st *store.Store, sched *backup.Scheduler, cfg config.Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{store: st, sched: sched, cfg: cfg, logger: logger}
}

// Handler builds the full route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /backups", s.handleBackupStatus)
	mux.HandleFunc("POST /backups", s.auth(s.handleForceBackup))
	mux.HandleFunc("GET /migrations", s.handleMigrations)

	s.registerResource(mux, "projects", store.EntityProject, resourceHandlers{
		create: s.createProject,
		get:    s.getProject,
		list:   s.listProjects,
		update: s.updateProject,
	})
	s.registerResource(mux, "tasks", store.EntityTask, resourceHandlers{
		create: s.createTask,
		get:    s.getTask,
		list:   s.listTasks,
		update: s.updateTask,
	})
	s.registerResource(mux, "vendors", store.EntityVendor, resourceHandlers{
		create: s.createVendor,
		get:    s.getVendor,
		list:   s.listVendors,
		update: s.updateVendor,
	})
	s.registerResource(mux, "laborers", store.EntityLaborer, resourceHandlers{
		create: s.createLaborer,
		get:    s.getLaborer,
		list:   s.listLaborers,
		update: s.updateLaborer,
	})
	s.registerResource(mux, "material-purchases", store.EntityMaterialPurchase, resourceHandlers{
		create: s.createPurchase,
		get:    s.getPurchase,
		list:   s.listPurchases,
		update: s.updatePurchase,
	})
	s.registerResource(mux, "work-sessions", store.EntityWorkSession, resourceHandlers{
		create: s.createSession,
		get:    s.getSession,
		list:   s.listSessions,
		update: s.updateSession,
	})

	return s.logRequests(mux)
}

// resourceHandlers are the per-entity pieces of the shared route shape.
type resourceHandlers struct {
	create http.HandlerFunc
	get    http.HandlerFunc
	list   http.HandlerFunc
	update http.HandlerFunc
}

func (s *Server) registerResource(mux *http.ServeMux, path string, entity store.Entity, h resourceHandlers) {
	mux.HandleFunc("GET /"+path, h.list)
	mux.HandleFunc("GET /"+path+"/{id}", h.get)
	mux.HandleFunc("POST /"+path, s.auth(h.create))
	mux.HandleFunc("PUT /"+path+"/{id}", s.auth(h.update))
	mux.HandleFunc("DELETE /"+path+"/{id}", s.auth(s.handleDelete(entity)))
	mux.HandleFunc("POST /"+path+"/{id}/archive", s.auth(s.handleArchive(entity, true)))
	mux.HandleFunc("POST /"+path+"/{id}/restore", s.auth(s.handleArchive(entity, false)))
}

// auth checks the X-API-Key header or a Bearer token against the configured
// secret. Mutating endpoints only.
func (s *Server) auth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.APIKey == "" {
			s.logger.Error("api key is not configured")
			writeJSON(w, http.StatusForbidden, errorBody("API key not configured."))
			return
		}
		apiKey := r.Header.Get("X-API-Key")
		var bearer string
		if h := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(h), "bearer ") {
			bearer = strings.TrimSpace(h[7:])
		}
		if apiKey == "" && bearer == "" {
			writeJSON(w, http.StatusUnauthorized, errorBody("Authentication required."))
			return
		}
		if apiKey != s.cfg.APIKey && bearer != s.cfg.APIKey {
			writeJSON(w, http.StatusForbidden, errorBody("Invalid credentials."))
			return
		}
		next(w, r)
	}
}

// logRequests stamps every request with a uuid and logs method, path,
// status, and duration.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Info("request",
			"id", uuid.NewString(),
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleBackupStatus(w http.ResponseWriter, r *http.Request) {
	var last *string
	if t := s.sched.LastBackup(); !t.IsZero() {
		v := t.UTC().Format("2006-01-02T15:04:05")
		last = &v
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"last_backup_at": last,
		"retention_days": s.cfg.RetentionDays,
	})
}

func (s *Server) handleForceBackup(w http.ResponseWriter, r *http.Request) {
	if err := s.sched.MaybeBackup(r.Context(), true); err != nil {
		s.logger.Error("forced backup failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorBody("Backup failed."))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleMigrations(w http.ResponseWriter, r *http.Request) {
	count, err := s.store.MigrationCount(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"count": count})
}

func (s *Server) handleDelete(entity store.Entity) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		outcome, err := s.store.Delete(r.Context(), entity, id)
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.afterMutation(r)
		body := map[string]any{"id": outcome.ID}
		if outcome.Archived {
			body["archived"] = true
		} else {
			body["deleted"] = true
		}
		writeJSON(w, http.StatusOK, body)
	}
}

func (s *Server) handleArchive(entity store.Entity, archive bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		var err error
		if archive {
			err = s.store.Archive(r.Context(), entity, id)
		} else {
			err = s.store.Restore(r.Context(), entity, id)
		}
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.afterMutation(r)
		writeJSON(w, http.StatusOK, map[string]any{"id": id, "archived": archive})
	}
}

// afterMutation triggers a throttled automatic backup. Failures never fail
// the mutation; the scheduler logs and swallows them.
func (s *Server) afterMutation(r *http.Request) {
	_ = s.sched.MaybeBackup(r.Context(), false)
}
