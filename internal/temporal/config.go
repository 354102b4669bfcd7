package temporal

import (
	"time"

	"github.com/Bukialo/crm-api/internal/models"
)

// TaskQueueName is the Temporal task queue automation runs are scheduled on.
const TaskQueueName = "CRM_AUTOMATIONS"

// RunWorkflowIDPrefix is the prefix used for automation run workflow IDs.
// The execution id is appended, so retrying a launch stays idempotent.
const RunWorkflowIDPrefix = "crm-automation-run-"

// DefaultActivityTimeout is the default timeout for automation activities.
const DefaultActivityTimeout = 2 * time.Minute

// RunParams defines the input for automation run workflows. The full action
// list is embedded so the workflow is replay-safe even if the automation is
// edited while an execution is in flight.
type RunParams struct {
	ExecutionID    string
	AutomationID   string
	AutomationName string
	Actions        []models.Action
	TriggerData    map[string]interface{}
}

// ActionInput is the per-action activity payload.
type ActionInput struct {
	ExecutionID  string
	AutomationID string
	Action       models.Action
	TriggerData  map[string]interface{}
}
