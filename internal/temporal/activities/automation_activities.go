package activities

import (
	"context"
	"time"

	"go.temporal.io/sdk/activity"

	"github.com/Bukialo/crm-api/internal/actions"
	"github.com/Bukialo/crm-api/internal/metrics"
	"github.com/Bukialo/crm-api/internal/models"
	"github.com/Bukialo/crm-api/internal/notification"
	"github.com/Bukialo/crm-api/internal/repository"
	"github.com/Bukialo/crm-api/internal/temporal"
	"github.com/Bukialo/crm-api/internal/validation"
)

type Activities struct {
	ExecutionRepo repository.ExecutionRepository
	Registry      *actions.Registry
	Notifications notification.Service
}

func (a *Activities) MarkRunningActivity(ctx context.Context, params temporal.RunParams) error {
	logger := activity.GetLogger(ctx)
	logger.Info("Marking execution as running", "executionID", params.ExecutionID)

	if err := a.ExecutionRepo.MarkRunning(params.ExecutionID); err != nil {
		logger.Error("Failed to mark execution as running", "error", err)
		return err
	}
	if a.Notifications != nil {
		if err := a.Notifications.NotifyExecutionStarted(ctx, params.AutomationID, params.ExecutionID, params.AutomationName); err != nil {
			logger.Warn("Failed to publish start notification", "error", err)
		}
	}
	return nil
}

// ExecuteActionActivity runs one action and reports its outcome as data
// rather than as an activity error. The workflow decides what a failed
// action means for the execution as a whole.
func (a *Activities) ExecuteActionActivity(ctx context.Context, input temporal.ActionInput) (models.ActionResult, error) {
	logger := activity.GetLogger(ctx)
	logger.Info("Executing action",
		"executionID", input.ExecutionID,
		"actionType", input.Action.Type,
		"order", input.Action.Order)

	result := models.ActionResult{
		Order:      input.Action.Order,
		Type:       input.Action.Type,
		Status:     models.ActionResultSuccess,
		ExecutedAt: time.Now().UTC(),
	}

	if err := a.runAction(ctx, input); err != nil {
		logger.Error("Action failed", "actionType", input.Action.Type, "error", err)
		result.Status = models.ActionResultFailed
		result.Error = err.Error()
	}

	metrics.ActionsExecuted.WithLabelValues(string(input.Action.Type), string(result.Status)).Inc()
	return result, nil
}

func (a *Activities) runAction(ctx context.Context, input temporal.ActionInput) error {
	// Parameters are revalidated here because the stored jsonb flattens
	// dates and integers; the validator restores the typed values the
	// executors expect.
	params, err := validation.ValidateActionParameters(input.Action.Type, input.Action.Parameters)
	if err != nil {
		return err
	}
	executor, err := a.Registry.Get(input.Action.Type)
	if err != nil {
		return err
	}
	return executor.Execute(ctx, params, input.TriggerData)
}

func (a *Activities) RecordActionResultActivity(ctx context.Context, executionID string, result models.ActionResult) error {
	logger := activity.GetLogger(ctx)
	if err := a.ExecutionRepo.AppendActionResult(executionID, result); err != nil {
		logger.Error("Failed to record action result", "executionID", executionID, "error", err)
		return err
	}
	return nil
}

func (a *Activities) CompleteExecutionActivity(ctx context.Context, params temporal.RunParams, status models.ExecutionStatus, errorMessage string, actionsRun int) error {
	logger := activity.GetLogger(ctx)
	logger.Info("Completing execution", "executionID", params.ExecutionID, "status", status)

	if err := a.ExecutionRepo.Complete(params.ExecutionID, status, errorMessage); err != nil {
		logger.Error("Failed to complete execution", "error", err)
		return err
	}
	metrics.ExecutionsCompleted.WithLabelValues(string(status)).Inc()

	if a.Notifications != nil {
		var err error
		if status == models.ExecutionFailed {
			err = a.Notifications.NotifyExecutionFailed(ctx, params.AutomationID, params.ExecutionID, params.AutomationName, errorMessage)
		} else {
			err = a.Notifications.NotifyExecutionSucceeded(ctx, params.AutomationID, params.ExecutionID, params.AutomationName, actionsRun)
		}
		if err != nil {
			logger.Warn("Failed to publish completion notification", "error", err)
		}
	}
	return nil
}
