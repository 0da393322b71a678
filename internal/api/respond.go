package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/ChieftanRat/renovation-material-tracker/internal/queryfilter"
	"github.com/ChieftanRat/renovation-material-tracker/internal/store"
)

// listResponse is the shared page envelope for every list endpoint.
type listResponse struct {
	Data       any `json:"data"`
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

func newListResponse(data any, page queryfilter.Page, total int) listResponse {
	return listResponse{
		Data:       data,
		Page:       page.Number,
		PageSize:   page.Size,
		Total:      total,
		TotalPages: page.TotalPages(total),
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("encode response", "error", err)
	}
}

func errorBody(msg string) map[string]string {
	return map[string]string{"error": msg}
}

// writeError maps store and filter errors onto status codes.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var ve *queryfilter.ValidationError
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, errorBody(ve.Msg))
	case store.IsValidation(err):
		var se *store.Error
		errors.As(err, &se)
		writeJSON(w, http.StatusBadRequest, errorBody(se.Message))
	case store.IsNotFound(err):
		writeJSON(w, http.StatusNotFound, errorBody("Not found."))
	case store.IsConstraintViolation(err):
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
	default:
		s.logger.Error("unhandled error", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorBody("Unexpected server error."))
	}
}

// pathID parses the {id} path segment. Writes a 400 and returns false on a
// malformed id.
func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("Invalid id."))
		return 0, false
	}
	return id, true
}

// decodeBody reads a JSON object into dst. Writes a 400 and returns false
// on malformed input.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("Invalid JSON payload."))
		return false
	}
	return true
}
