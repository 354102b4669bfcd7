package temporal

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	tc "go.temporal.io/sdk/client"

	"github.com/Bukialo/crm-api/internal/models"
)

// WorkflowName is the registered name of the automation run workflow. Kept
// here so the launcher does not import the workflows package it schedules.
const WorkflowName = "AutomationWorkflow"

// RunLauncher starts automation run workflows on the shared task queue.
type RunLauncher struct {
	client tc.Client
}

func NewRunLauncher(client tc.Client) *RunLauncher {
	return &RunLauncher{client: client}
}

// Launch schedules the workflow for one execution. The workflow ID is
// derived from the execution id, so a duplicate launch for the same
// execution is rejected by the server rather than run twice.
func (l *RunLauncher) Launch(ctx context.Context, automation models.Automation, execution models.Execution) error {
	var triggerData map[string]interface{}
	if len(execution.TriggeredBy) > 0 {
		// TriggeredBy is stored as raw jsonb; decode errors are impossible
		// here because the value was marshalled on insert.
		triggerData = decodeTriggerData(execution.TriggeredBy)
	}

	options := tc.StartWorkflowOptions{
		ID:        RunWorkflowIDPrefix + execution.ID,
		TaskQueue: TaskQueueName,
	}
	_, err := l.client.ExecuteWorkflow(ctx, options, WorkflowName, RunParams{
		ExecutionID:    execution.ID,
		AutomationID:   automation.ID,
		AutomationName: automation.Name,
		Actions:        automation.Actions,
		TriggerData:    triggerData,
	})
	return errors.Wrapf(err, "start workflow for execution %s", execution.ID)
}

func decodeTriggerData(raw json.RawMessage) map[string]interface{} {
	var data map[string]interface{}
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil
	}
	return data
}
