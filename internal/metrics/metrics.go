package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EventsReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crm_automation_events_received_total",
		Help: "Total number of business events received, labelled by trigger type.",
	}, []string{"trigger_type"})

	AutomationsMatched = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crm_automations_matched_total",
		Help: "Total number of automations whose trigger conditions matched an event.",
	}, []string{"trigger_type"})

	ActionsExecuted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crm_automation_actions_executed_total",
		Help: "Total number of actions executed, labelled by type and status.",
	}, []string{"action_type", "status"})

	ExecutionsCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crm_automation_executions_completed_total",
		Help: "Total number of finished executions, labelled by terminal status.",
	}, []string{"status"})
)
