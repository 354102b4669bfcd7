package routes

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Bukialo/crm-api/internal/handlers"
)

// NewRouter sets up the API routes.
func NewRouter(
	health *handlers.HealthHandler,
	automations *handlers.AutomationHandler,
	executions *handlers.ExecutionHandler,
	events *handlers.EventHandler,
	notifications *handlers.NotificationHandler,
) *mux.Router {
	router := mux.NewRouter()

	// Operational endpoints
	router.HandleFunc("/health", health.Check).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	// Automation definitions
	router.HandleFunc("/api/automations", automations.Create).Methods(http.MethodPost)
	router.HandleFunc("/api/automations", automations.List).Methods(http.MethodGet)
	router.HandleFunc("/api/automations/{id}", automations.Get).Methods(http.MethodGet)
	router.HandleFunc("/api/automations/{id}", automations.Update).Methods(http.MethodPut)
	router.HandleFunc("/api/automations/{id}", automations.Delete).Methods(http.MethodDelete)
	router.HandleFunc("/api/automations/{id}/toggle", automations.Toggle).Methods(http.MethodPatch)
	router.HandleFunc("/api/automations/{id}/execute", automations.Execute).Methods(http.MethodPost)
	router.HandleFunc("/api/automations/{id}/executions", automations.ListExecutions).Methods(http.MethodGet)

	// Execution tracking
	router.HandleFunc("/api/executions/stats", executions.Stats).Methods(http.MethodGet)
	router.HandleFunc("/api/executions/{id}", executions.Get).Methods(http.MethodGet)

	// Event ingestion
	router.HandleFunc("/api/events", events.Ingest).Methods(http.MethodPost)

	// Notifications
	router.HandleFunc("/api/notifications", notifications.List).Methods(http.MethodGet)
	router.HandleFunc("/api/notifications/{id}/read", notifications.MarkRead).Methods(http.MethodPost)

	return router
}
