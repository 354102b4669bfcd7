package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"

	"github.com/Bukialo/crm-api/internal/repository"
	"github.com/Bukialo/crm-api/internal/validation"
)

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

type errorResponse struct {
	Error  string                  `json:"error"`
	Fields []validation.FieldError `json:"fields,omitempty"`
}

// writeError maps domain errors onto HTTP statuses. Validation problems
// carry their per-field detail; everything unexpected collapses to a 500
// with a generic message so internals never leak to API clients.
func writeError(w http.ResponseWriter, err error) {
	var verr *validation.ValidationError
	if errors.As(err, &verr) {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:  "validation failed",
			Fields: verr.Fields,
		})
		return
	}
	var unknownAction *validation.UnknownActionTypeError
	if errors.As(err, &unknownAction) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: unknownAction.Error()})
		return
	}
	switch {
	case errors.Is(err, repository.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "resource not found"})
	case errors.Is(err, repository.ErrExecutionImmutable):
		writeJSON(w, http.StatusConflict, errorResponse{Error: "execution is already finished"})
	default:
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request payload"})
		return false
	}
	return true
}
