package workflows

import (
	"fmt"
	"time"

	"go.temporal.io/sdk/workflow"

	"github.com/Bukialo/crm-api/internal/models"
	"github.com/Bukialo/crm-api/internal/temporal"
	"github.com/Bukialo/crm-api/internal/temporal/activities"
)

// AutomationWorkflow runs the actions of one automation execution in order.
// Delays are absorbed by the workflow via durable timers, so a chain that
// waits days survives worker restarts. A failed action is recorded and the
// chain continues; the execution ends as failed when any action failed.
func AutomationWorkflow(ctx workflow.Context, params temporal.RunParams) error {
	ao := workflow.ActivityOptions{
		StartToCloseTimeout: temporal.DefaultActivityTimeout,
		HeartbeatTimeout:    30 * time.Second,
	}
	ctx = workflow.WithActivityOptions(ctx, ao)

	logger := workflow.GetLogger(ctx)
	logger.Info("Starting automation run",
		"AutomationID", params.AutomationID,
		"ExecutionID", params.ExecutionID,
		"Actions", len(params.Actions))

	// The actual implementation lives on the worker; this is just a proxy.
	var a *activities.Activities

	if err := workflow.ExecuteActivity(ctx, a.MarkRunningActivity, params).Get(ctx, nil); err != nil {
		logger.Error("Failed to mark execution as running.", "error", err)
		return err
	}

	ordered := temporal.SortedActions(params.Actions)
	failed := 0
	for _, action := range ordered {
		if action.DelayMinutes > 0 {
			logger.Info("Waiting before next action",
				"ActionType", action.Type,
				"DelayMinutes", action.DelayMinutes)
			if err := workflow.Sleep(ctx, time.Duration(action.DelayMinutes)*time.Minute); err != nil {
				return err
			}
		}

		input := temporal.ActionInput{
			ExecutionID:  params.ExecutionID,
			AutomationID: params.AutomationID,
			Action:       action,
			TriggerData:  params.TriggerData,
		}
		var result models.ActionResult
		err := workflow.ExecuteActivity(ctx, a.ExecuteActionActivity, input).Get(ctx, &result)
		if err != nil {
			// The activity itself failed past its retries. Record the
			// failure and keep going, same as an in-action error.
			result = models.ActionResult{
				Order:      action.Order,
				Type:       action.Type,
				Status:     models.ActionResultFailed,
				Error:      err.Error(),
				ExecutedAt: workflow.Now(ctx).UTC(),
			}
		}
		if result.Status == models.ActionResultFailed {
			failed++
		}

		if err := workflow.ExecuteActivity(ctx, a.RecordActionResultActivity, params.ExecutionID, result).Get(ctx, nil); err != nil {
			logger.Error("Failed to record action result.", "error", err)
			return err
		}
	}

	status := models.ExecutionCompleted
	errorMessage := ""
	if failed > 0 {
		status = models.ExecutionFailed
		errorMessage = fmt.Sprintf("%d of %d actions failed", failed, len(ordered))
	}
	if err := workflow.ExecuteActivity(ctx, a.CompleteExecutionActivity, params, status, errorMessage, len(ordered)).Get(ctx, nil); err != nil {
		logger.Error("Failed to finalize execution.", "error", err)
		return err
	}

	logger.Info("Automation run finished.", "ExecutionID", params.ExecutionID, "Status", status)
	return nil
}
