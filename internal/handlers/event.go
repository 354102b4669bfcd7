package handlers

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/Bukialo/crm-api/internal/trigger"
	"github.com/Bukialo/crm-api/internal/validation"
)

// EventHandler is the REST ingestion path for business events, used by
// services that do not publish to Kafka.
type EventHandler struct {
	dispatcher *trigger.Dispatcher
	logger     zerolog.Logger
}

func NewEventHandler(dispatcher *trigger.Dispatcher, logger zerolog.Logger) *EventHandler {
	return &EventHandler{
		dispatcher: dispatcher,
		logger:     logger.With().Str("handler", "event").Logger(),
	}
}

func (h *EventHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	var ev trigger.Event
	if !decodeBody(w, r, &ev) {
		return
	}
	if !ev.Type.IsValid() {
		verr := &validation.ValidationError{}
		verr.Add("type", "must be a recognized trigger type")
		writeError(w, verr)
		return
	}
	if ev.Payload == nil {
		ev.Payload = map[string]interface{}{}
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}

	launched, err := h.dispatcher.Dispatch(r.Context(), ev)
	if err != nil {
		h.logger.Error().Err(err).Str("trigger_type", string(ev.Type)).Msg("Failed to dispatch event")
		writeError(w, err)
		return
	}

	ids := make([]string, 0, len(launched))
	for _, execution := range launched {
		ids = append(ids, execution.ID)
	}
	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"launched":   len(launched),
		"executions": ids,
	})
}
