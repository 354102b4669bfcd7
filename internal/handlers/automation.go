package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/Bukialo/crm-api/internal/models"
	"github.com/Bukialo/crm-api/internal/notification"
	"github.com/Bukialo/crm-api/internal/repository"
	"github.com/Bukialo/crm-api/internal/trigger"
	"github.com/Bukialo/crm-api/internal/validation"
)

type AutomationHandler struct {
	repo          repository.AutomationRepository
	executions    repository.ExecutionRepository
	dispatcher    *trigger.Dispatcher
	notifications notification.Service
	logger        zerolog.Logger
}

func NewAutomationHandler(
	repo repository.AutomationRepository,
	executions repository.ExecutionRepository,
	dispatcher *trigger.Dispatcher,
	notifications notification.Service,
	logger zerolog.Logger,
) *AutomationHandler {
	return &AutomationHandler{
		repo:          repo,
		executions:    executions,
		dispatcher:    dispatcher,
		notifications: notifications,
		logger:        logger.With().Str("handler", "automation").Logger(),
	}
}

// listResponse wraps paginated collections.
type listResponse struct {
	Items    interface{} `json:"items"`
	Total    int         `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"pageSize"`
}

func (h *AutomationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input validation.CreateAutomationInput
	if !decodeBody(w, r, &input) {
		return
	}

	automation, err := validation.ValidateCreate(input)
	if err != nil {
		writeError(w, err)
		return
	}

	created, err := h.repo.Create(automation)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to create automation")
		writeError(w, err)
		return
	}

	if h.notifications != nil {
		if err := h.notifications.NotifyAutomationCreated(r.Context(), created.ID, created.Name); err != nil {
			h.logger.Warn().Err(err).Str("automation_id", created.ID).Msg("Failed to publish creation notification")
		}
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *AutomationHandler) List(w http.ResponseWriter, r *http.Request) {
	query, err := validation.ValidateListQuery(r.URL.Query())
	if err != nil {
		writeError(w, err)
		return
	}

	automations, total, err := h.repo.List(query)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list automations")
		writeError(w, err)
		return
	}
	if automations == nil {
		automations = []models.Automation{}
	}
	writeJSON(w, http.StatusOK, listResponse{
		Items:    automations,
		Total:    total,
		Page:     query.Page,
		PageSize: query.PageSize,
	})
}

func (h *AutomationHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := validation.ParseID(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}

	automation, err := h.repo.GetByID(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, automation)
}

func (h *AutomationHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := validation.ParseID(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}

	var input validation.UpdateAutomationInput
	if !decodeBody(w, r, &input) {
		return
	}
	update, err := validation.ValidateUpdate(input)
	if err != nil {
		writeError(w, err)
		return
	}

	updated, err := h.repo.Update(id, update)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// Toggle flips the active flag. Inactive automations keep their definition
// but are skipped by the dispatcher and the scheduler.
func (h *AutomationHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	id, err := validation.ParseID(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}

	toggled, err := h.repo.Toggle(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toggled)
}

func (h *AutomationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := validation.ParseID(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.repo.Delete(id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Execute fires one automation manually, bypassing trigger matching. The
// automation does not need to be active; a manual run is an explicit request.
func (h *AutomationHandler) Execute(w http.ResponseWriter, r *http.Request) {
	id, err := validation.ParseID(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}

	var input validation.ExecuteRequest
	if !decodeBody(w, r, &input) {
		return
	}
	if err := validation.ValidateExecuteRequest(input); err != nil {
		writeError(w, err)
		return
	}

	automation, err := h.repo.GetByID(id)
	if err != nil {
		writeError(w, err)
		return
	}

	execution, err := h.dispatcher.Fire(r.Context(), automation, input.TriggerData)
	if err != nil {
		h.logger.Error().Err(err).Str("automation_id", id).Msg("Failed to fire automation manually")
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, execution)
}

func (h *AutomationHandler) ListExecutions(w http.ResponseWriter, r *http.Request) {
	id, err := validation.ParseID(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	query, err := validation.ValidateListQuery(r.URL.Query())
	if err != nil {
		writeError(w, err)
		return
	}

	offset := (query.Page - 1) * query.PageSize
	executions, err := h.executions.ListByAutomation(id, query.PageSize, offset)
	if err != nil {
		h.logger.Error().Err(err).Str("automation_id", id).Msg("Failed to list executions")
		writeError(w, err)
		return
	}
	if executions == nil {
		executions = []models.Execution{}
	}
	writeJSON(w, http.StatusOK, executions)
}
