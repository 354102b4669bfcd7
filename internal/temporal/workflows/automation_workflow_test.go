package workflows

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/testsuite"

	"github.com/Bukialo/crm-api/internal/models"
	"github.com/Bukialo/crm-api/internal/temporal"
	"github.com/Bukialo/crm-api/internal/temporal/activities"
)

func runParams(actions ...models.Action) temporal.RunParams {
	return temporal.RunParams{
		ExecutionID:    "exec-1",
		AutomationID:   "auto-1",
		AutomationName: "Welcome",
		Actions:        actions,
		TriggerData:    map[string]interface{}{"contactId": "contact-1"},
	}
}

func TestAutomationWorkflowRunsActionsInOrder(t *testing.T) {
	suite := testsuite.WorkflowTestSuite{}
	env := suite.NewTestWorkflowEnvironment()

	var a *activities.Activities
	var executed []models.ActionType

	env.OnActivity(a.MarkRunningActivity, mock.Anything, mock.Anything).Return(nil)
	env.OnActivity(a.ExecuteActionActivity, mock.Anything, mock.Anything).Return(
		func(_ context.Context, input temporal.ActionInput) (models.ActionResult, error) {
			executed = append(executed, input.Action.Type)
			return models.ActionResult{
				Order:      input.Action.Order,
				Type:       input.Action.Type,
				Status:     models.ActionResultSuccess,
				ExecutedAt: time.Now().UTC(),
			}, nil
		})
	env.OnActivity(a.RecordActionResultActivity, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	env.OnActivity(a.CompleteExecutionActivity, mock.Anything, mock.Anything, models.ExecutionCompleted, "", 3).Return(nil)

	// Declared out of order on purpose.
	env.ExecuteWorkflow(AutomationWorkflow, runParams(
		models.Action{Type: models.ActionAddTag, Order: 3},
		models.Action{Type: models.ActionSendEmail, Order: 1},
		models.Action{Type: models.ActionCreateTask, Order: 2},
	))

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())
	assert.Equal(t, []models.ActionType{
		models.ActionSendEmail,
		models.ActionCreateTask,
		models.ActionAddTag,
	}, executed)
	env.AssertExpectations(t)
}

func TestAutomationWorkflowSleepsForDelayedActions(t *testing.T) {
	suite := testsuite.WorkflowTestSuite{}
	env := suite.NewTestWorkflowEnvironment()

	var a *activities.Activities
	start := env.Now()
	var executedAt time.Time

	env.OnActivity(a.MarkRunningActivity, mock.Anything, mock.Anything).Return(nil)
	env.OnActivity(a.ExecuteActionActivity, mock.Anything, mock.Anything).Return(
		func(_ context.Context, input temporal.ActionInput) (models.ActionResult, error) {
			executedAt = env.Now()
			return models.ActionResult{
				Order:  input.Action.Order,
				Type:   input.Action.Type,
				Status: models.ActionResultSuccess,
			}, nil
		})
	env.OnActivity(a.RecordActionResultActivity, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	env.OnActivity(a.CompleteExecutionActivity, mock.Anything, mock.Anything, models.ExecutionCompleted, "", 1).Return(nil)

	env.ExecuteWorkflow(AutomationWorkflow, runParams(
		models.Action{Type: models.ActionSendEmail, Order: 1, DelayMinutes: 1440},
	))

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())
	assert.GreaterOrEqual(t, executedAt.Sub(start), 24*time.Hour)
}

func TestAutomationWorkflowContinuesPastFailedAction(t *testing.T) {
	suite := testsuite.WorkflowTestSuite{}
	env := suite.NewTestWorkflowEnvironment()

	var a *activities.Activities
	var recorded []models.ActionResult

	env.OnActivity(a.MarkRunningActivity, mock.Anything, mock.Anything).Return(nil)
	env.OnActivity(a.ExecuteActionActivity, mock.Anything, mock.Anything).Return(
		func(_ context.Context, input temporal.ActionInput) (models.ActionResult, error) {
			result := models.ActionResult{
				Order:  input.Action.Order,
				Type:   input.Action.Type,
				Status: models.ActionResultSuccess,
			}
			if input.Action.Type == models.ActionSendEmail {
				result.Status = models.ActionResultFailed
				result.Error = "smtp unreachable"
			}
			return result, nil
		})
	env.OnActivity(a.RecordActionResultActivity, mock.Anything, mock.Anything, mock.Anything).Return(
		func(_ context.Context, executionID string, result models.ActionResult) error {
			recorded = append(recorded, result)
			return nil
		})
	env.OnActivity(a.CompleteExecutionActivity, mock.Anything, mock.Anything, models.ExecutionFailed, fmt.Sprintf("%d of %d actions failed", 1, 2), 2).Return(nil)

	env.ExecuteWorkflow(AutomationWorkflow, runParams(
		models.Action{Type: models.ActionSendEmail, Order: 1},
		models.Action{Type: models.ActionAddTag, Order: 2},
	))

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())
	require.Len(t, recorded, 2)
	assert.Equal(t, models.ActionResultFailed, recorded[0].Status)
	assert.Equal(t, models.ActionResultSuccess, recorded[1].Status)
	env.AssertExpectations(t)
}
