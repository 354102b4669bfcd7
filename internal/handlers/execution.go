package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/Bukialo/crm-api/internal/repository"
	"github.com/Bukialo/crm-api/internal/validation"
)

type ExecutionHandler struct {
	repo   repository.ExecutionRepository
	logger zerolog.Logger
}

func NewExecutionHandler(repo repository.ExecutionRepository, logger zerolog.Logger) *ExecutionHandler {
	return &ExecutionHandler{
		repo:   repo,
		logger: logger.With().Str("handler", "execution").Logger(),
	}
}

func (h *ExecutionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := validation.ParseID(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}

	execution, err := h.repo.GetByID(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, execution)
}

// Stats aggregates execution outcomes over a trailing window, 30 days by
// default.
func (h *ExecutionHandler) Stats(w http.ResponseWriter, r *http.Request) {
	days := 30
	if raw := strings.TrimSpace(r.URL.Query().Get("days")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 365 {
			verr := &validation.ValidationError{}
			verr.Add("days", "must be an integer between 1 and 365")
			writeError(w, verr)
			return
		}
		days = parsed
	}

	stats, err := h.repo.Stats(days)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to compute execution stats")
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
