package validation

import (
	"fmt"
	"net/url"
	"testing"

	"github.com/Bukialo/crm-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func sendEmailAction(order int) ActionInput {
	return ActionInput{
		Type:       string(models.ActionSendEmail),
		Parameters: map[string]interface{}{"templateId": "b29e4f00-6f0f-4c1a-9a37-0d2f4a3cfebc"},
		Order:      intPtr(order),
	}
}

func TestValidateCreate_WelcomeAutomation(t *testing.T) {
	automation, err := ValidateCreate(CreateAutomationInput{
		Name:              "Welcome",
		TriggerType:       string(models.TriggerContactCreated),
		TriggerConditions: map[string]interface{}{"status": "INTERESADO"},
		Actions:           []ActionInput{sendEmailAction(1)},
	})
	require.NoError(t, err)

	assert.Equal(t, "Welcome", automation.Name)
	assert.Equal(t, models.TriggerContactCreated, automation.TriggerType)
	assert.Equal(t, map[string]interface{}{"status": "INTERESADO"}, automation.TriggerConditions)
	require.Len(t, automation.Actions, 1)
	assert.Equal(t, 0, automation.Actions[0].DelayMinutes, "delayMinutes defaults to 0")
	assert.Equal(t, 1, automation.Actions[0].Order)
	assert.True(t, automation.IsActive, "isActive defaults to true")
}

func TestValidateCreate_ActionListBounds(t *testing.T) {
	base := CreateAutomationInput{
		Name:              "Bounds",
		TriggerType:       string(models.TriggerCustom),
		TriggerConditions: map[string]interface{}{},
	}

	t.Run("empty list rejected", func(t *testing.T) {
		in := base
		in.Actions = []ActionInput{}
		_, err := ValidateCreate(in)
		verr := requireValidationError(t, err)
		assert.Contains(t, fieldNames(verr), "actions")
	})

	t.Run("eleven actions rejected", func(t *testing.T) {
		in := base
		for i := 1; i <= 11; i++ {
			in.Actions = append(in.Actions, sendEmailAction(i))
		}
		_, err := ValidateCreate(in)
		verr := requireValidationError(t, err)
		assert.Contains(t, fieldNames(verr), "actions")
	})

	t.Run("ten actions accepted", func(t *testing.T) {
		in := base
		for i := 1; i <= 10; i++ {
			in.Actions = append(in.Actions, sendEmailAction(i))
		}
		automation, err := ValidateCreate(in)
		require.NoError(t, err)
		assert.Len(t, automation.Actions, 10)
	})
}

func TestValidateCreate_DuplicateOrderAccepted(t *testing.T) {
	// The base schema declares no uniqueness constraint on order; two
	// actions sharing a value must pass.
	automation, err := ValidateCreate(CreateAutomationInput{
		Name:              "Ties",
		TriggerType:       string(models.TriggerCustom),
		TriggerConditions: map[string]interface{}{},
		Actions:           []ActionInput{sendEmailAction(1), sendEmailAction(1)},
	})
	require.NoError(t, err)
	assert.Len(t, automation.Actions, 2)
}

func TestValidateCreate_AllViolationsEnumerated(t *testing.T) {
	_, err := ValidateCreate(CreateAutomationInput{
		Name:        "",
		TriggerType: "NOT_A_TRIGGER",
		Actions: []ActionInput{
			{
				Type:         string(models.ActionCreateTask),
				Parameters:   map[string]interface{}{},
				DelayMinutes: intPtr(-5),
				Order:        intPtr(1),
			},
		},
	})
	verr := requireValidationError(t, err)
	names := fieldNames(verr)
	assert.Contains(t, names, "name")
	assert.Contains(t, names, "triggerType")
	assert.Contains(t, names, "triggerConditions")
	assert.Contains(t, names, "actions[0].parameters.title")
	assert.Contains(t, names, "actions[0].parameters.assignedToId")
}

func TestValidateCreate_DeepConditionErrorsPrefixed(t *testing.T) {
	_, err := ValidateCreate(CreateAutomationInput{
		Name:              "Bad conditions",
		TriggerType:       string(models.TriggerPaymentOverdue),
		TriggerConditions: map[string]interface{}{"minAmount": -10},
		Actions:           []ActionInput{sendEmailAction(1)},
	})
	verr := requireValidationError(t, err)
	names := fieldNames(verr)
	assert.Contains(t, names, "triggerConditions.daysOverdue")
	assert.Contains(t, names, "triggerConditions.minAmount")
}

func TestValidateCreate_NameLength(t *testing.T) {
	long := ""
	for i := 0; i < 256; i++ {
		long += "x"
	}
	_, err := ValidateCreate(CreateAutomationInput{
		Name:              long,
		TriggerType:       string(models.TriggerCustom),
		TriggerConditions: map[string]interface{}{},
		Actions:           []ActionInput{sendEmailAction(1)},
	})
	verr := requireValidationError(t, err)
	assert.Contains(t, fieldNames(verr), "name")
}

func TestValidateUpdate_PartialSemantics(t *testing.T) {
	t.Run("empty update is valid", func(t *testing.T) {
		update, err := ValidateUpdate(UpdateAutomationInput{})
		require.NoError(t, err)
		assert.Nil(t, update.Name)
		assert.Nil(t, update.Actions)
	})

	t.Run("supplied actions still bounded", func(t *testing.T) {
		_, err := ValidateUpdate(UpdateAutomationInput{Actions: []ActionInput{}})
		verr := requireValidationError(t, err)
		assert.Contains(t, fieldNames(verr), "actions")
	})

	t.Run("trigger change revalidates conditions", func(t *testing.T) {
		triggerType := string(models.TriggerBirthday)
		update, err := ValidateUpdate(UpdateAutomationInput{
			TriggerType:       &triggerType,
			TriggerConditions: map[string]interface{}{},
		})
		require.NoError(t, err)
		assert.Equal(t, map[string]interface{}{"daysBefore": 0, "includeInactive": false}, update.TriggerConditions)
	})
}

func TestValidateListQuery(t *testing.T) {
	cases := []struct {
		name      string
		query     url.Values
		want      ListQuery
		wantField string
	}{
		{
			name:  "defaults",
			query: url.Values{},
			want:  ListQuery{Page: 1, PageSize: 20},
		},
		{
			name:  "filters parsed",
			query: url.Values{"isActive": {"true"}, "triggerType": {"BIRTHDAY"}, "page": {"2"}, "pageSize": {"50"}},
			want: ListQuery{
				IsActive:    func() *bool { v := true; return &v }(),
				TriggerType: func() *models.TriggerType { v := models.TriggerBirthday; return &v }(),
				Page:        2,
				PageSize:    50,
			},
		},
		{
			name:      "pageSize above cap",
			query:     url.Values{"page": {"2"}, "pageSize": {"250"}},
			wantField: "pageSize",
		},
		{
			name:      "page zero",
			query:     url.Values{"page": {"0"}},
			wantField: "page",
		},
		{
			name:      "isActive not boolean",
			query:     url.Values{"isActive": {"yes"}},
			wantField: "isActive",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ValidateListQuery(tc.query)
			if tc.wantField != "" {
				verr := requireValidationError(t, err)
				assert.Contains(t, fieldNames(verr), tc.wantField)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseID(t *testing.T) {
	id, err := ParseID("B29E4F00-6F0F-4C1A-9A37-0D2F4A3CFEBC")
	require.NoError(t, err)
	assert.Equal(t, "b29e4f00-6f0f-4c1a-9a37-0d2f4a3cfebc", id)

	_, err = ParseID("not-a-uuid")
	verr := requireValidationError(t, err)
	assert.Contains(t, fieldNames(verr), "id")
}

func TestValidateExecuteRequest(t *testing.T) {
	require.NoError(t, ValidateExecuteRequest(ExecuteRequest{TriggerData: map[string]interface{}{}}))

	err := ValidateExecuteRequest(ExecuteRequest{})
	verr := requireValidationError(t, err)
	assert.Contains(t, fieldNames(verr), "triggerData")
}

func TestValidationError_Message(t *testing.T) {
	verr := &ValidationError{}
	verr.Add("name", "is required")
	verr.Add("actions", "must contain at least 1 action")
	assert.Equal(t, "validation failed: name: is required; actions: must contain at least 1 action", verr.Error())
	assert.Equal(t, fmt.Sprintf("%v", verr), verr.Error())
}
