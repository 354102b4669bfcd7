package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/Bukialo/crm-api/internal/notification"
	"github.com/Bukialo/crm-api/internal/validation"
)

type NotificationHandler struct {
	service notification.Service
	logger  zerolog.Logger
}

func NewNotificationHandler(service notification.Service, logger zerolog.Logger) *NotificationHandler {
	return &NotificationHandler{
		service: service,
		logger:  logger.With().Str("handler", "notification").Logger(),
	}
}

func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 25
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	notifications, err := h.service.ListRecent(r.Context(), limit)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list notifications")
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"notifications": notifications,
	})
}

func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	id, err := validation.ParseID(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}

	notif, err := h.service.MarkRead(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, notif)
}
