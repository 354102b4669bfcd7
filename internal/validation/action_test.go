package validation

import (
	"testing"
	"time"

	"github.com/Bukialo/crm-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateActionParameters_SendEmail(t *testing.T) {
	got, err := ValidateActionParameters(models.ActionSendEmail, map[string]interface{}{
		"templateId": "b29e4f00-6f0f-4c1a-9a37-0d2f4a3cfebc",
		"variables":  map[string]interface{}{"firstName": "Ana"},
		"to":         []interface{}{"ana@example.com"},
	})
	require.NoError(t, err)
	assert.Equal(t, "b29e4f00-6f0f-4c1a-9a37-0d2f4a3cfebc", got["templateId"])
	assert.Equal(t, []string{"ana@example.com"}, got["to"])

	_, err = ValidateActionParameters(models.ActionSendEmail, map[string]interface{}{
		"templateId": "tpl-1",
		"to":         []interface{}{"not-an-email"},
	})
	verr := requireValidationError(t, err)
	assert.Contains(t, fieldNames(verr), "to")

	_, err = ValidateActionParameters(models.ActionSendEmail, map[string]interface{}{})
	verr = requireValidationError(t, err)
	assert.Contains(t, fieldNames(verr), "templateId")
}

func TestValidateActionParameters_CreateTask(t *testing.T) {
	got, err := ValidateActionParameters(models.ActionCreateTask, map[string]interface{}{
		"title":        "Call back the client",
		"assignedToId": "agent-7",
		"dueDate":      "2026-03-15",
	})
	require.NoError(t, err)
	assert.Equal(t, string(models.PriorityMedium), got["priority"], "priority defaults to MEDIUM")
	due, ok := got["dueDate"].(time.Time)
	require.True(t, ok, "dueDate coerced to time.Time")
	assert.Equal(t, 2026, due.Year())

	_, err = ValidateActionParameters(models.ActionCreateTask, map[string]interface{}{
		"title":        "   ",
		"assignedToId": "agent-7",
		"priority":     "WHENEVER",
	})
	verr := requireValidationError(t, err)
	assert.ElementsMatch(t, []string{"title", "priority"}, fieldNames(verr))
}

func TestValidateActionParameters_AddTag(t *testing.T) {
	got, err := ValidateActionParameters(models.ActionAddTag, map[string]interface{}{
		"tags": []interface{}{"vip"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"vip"}, got["tags"])

	for name, params := range map[string]map[string]interface{}{
		"missing": {},
		"empty":   {"tags": []interface{}{}},
		"blank":   {"tags": []interface{}{"  "}},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ValidateActionParameters(models.ActionAddTag, params)
			verr := requireValidationError(t, err)
			assert.Contains(t, fieldNames(verr), "tags")
		})
	}
}

func TestValidateActionParameters_UpdateStatus(t *testing.T) {
	got, err := ValidateActionParameters(models.ActionUpdateStatus, map[string]interface{}{
		"status": "CLIENTE",
		"reason": "trip booked",
	})
	require.NoError(t, err)
	assert.Equal(t, "CLIENTE", got["status"])

	_, err = ValidateActionParameters(models.ActionUpdateStatus, map[string]interface{}{
		"status": "VIP",
	})
	verr := requireValidationError(t, err)
	assert.Contains(t, fieldNames(verr), "status")
}

func TestValidateActionParameters_ScheduleCall(t *testing.T) {
	got, err := ValidateActionParameters(models.ActionScheduleCall, map[string]interface{}{
		"title":         "Quote follow-up",
		"scheduledDate": "2026-09-01T10:00:00Z",
	})
	require.NoError(t, err)
	assert.Equal(t, 30, got["duration"], "duration defaults to 30 minutes")

	_, err = ValidateActionParameters(models.ActionScheduleCall, map[string]interface{}{
		"title":         "Quote follow-up",
		"scheduledDate": "2026-09-01T10:00:00Z",
		"duration":      2,
	})
	verr := requireValidationError(t, err)
	assert.Contains(t, fieldNames(verr), "duration")
}

func TestValidateActionParameters_FreeFormTypes(t *testing.T) {
	params := map[string]interface{}{"whatever": map[string]interface{}{"shape": true}}
	for _, actionType := range []models.ActionType{models.ActionGenerateQuote, models.ActionSendWhatsApp} {
		got, err := ValidateActionParameters(actionType, params)
		require.NoError(t, err, "action %s", actionType)
		assert.Equal(t, params, got)
	}
}

func TestValidateActionParameters_UnknownType(t *testing.T) {
	_, err := ValidateActionParameters(models.ActionType("FOO"), map[string]interface{}{})
	require.Error(t, err)
	var unknown *UnknownActionTypeError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "FOO", unknown.ActionType)
}
