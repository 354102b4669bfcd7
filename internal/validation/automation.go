package validation

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/Bukialo/crm-api/internal/models"
	"github.com/google/uuid"
)

const (
	maxNameLength        = 255
	maxDescriptionLength = 1000
	minActions           = 1
	maxActions           = 10
	defaultPage          = 1
	defaultPageSize      = 20
	maxPageSize          = 100
)

// ActionInput is the wire shape of one action entry.
type ActionInput struct {
	Type         string                 `json:"type"`
	Parameters   map[string]interface{} `json:"parameters"`
	DelayMinutes *int                   `json:"delayMinutes"`
	Order        *int                   `json:"order"`
}

// CreateAutomationInput is the wire shape of POST /api/automations.
type CreateAutomationInput struct {
	Name              string                 `json:"name"`
	Description       *string                `json:"description"`
	TriggerType       string                 `json:"triggerType"`
	TriggerConditions map[string]interface{} `json:"triggerConditions"`
	Actions           []ActionInput          `json:"actions"`
	IsActive          *bool                  `json:"isActive"`
}

// UpdateAutomationInput is the wire shape of PUT /api/automations/{id}.
// Every field is optional; absent fields leave the stored value untouched.
type UpdateAutomationInput struct {
	Name              *string                `json:"name"`
	Description       *string                `json:"description"`
	TriggerType       *string                `json:"triggerType"`
	TriggerConditions map[string]interface{} `json:"triggerConditions"`
	Actions           []ActionInput          `json:"actions"`
	IsActive          *bool                  `json:"isActive"`
}

// AutomationUpdate is the validated, normalized form of a partial update.
type AutomationUpdate struct {
	Name              *string
	Description       *string
	TriggerType       *models.TriggerType
	TriggerConditions map[string]interface{}
	Actions           []models.Action
	IsActive          *bool
}

// ListQuery is the validated form of the list endpoint's query string.
type ListQuery struct {
	IsActive    *bool
	TriggerType *models.TriggerType
	Page        int
	PageSize    int
}

// ExecuteRequest is the wire shape of POST /api/automations/{id}/execute.
// TriggerData is forwarded to the execution engine as the event snapshot.
type ExecuteRequest struct {
	TriggerData map[string]interface{} `json:"triggerData"`
}

// ValidateCreate checks a full automation payload and returns the normalized
// model: coerced trigger conditions, coerced action parameters, defaults
// applied. Every violated constraint is reported; nothing is persisted on
// partial success.
func ValidateCreate(in CreateAutomationInput) (models.Automation, error) {
	verr := &ValidationError{}

	name := strings.TrimSpace(in.Name)
	if name == "" || len(name) > maxNameLength {
		verr.Add("name", fmt.Sprintf("must be between 1 and %d characters", maxNameLength))
	}

	var description string
	if in.Description != nil {
		if len(*in.Description) > maxDescriptionLength {
			verr.Add("description", fmt.Sprintf("must be at most %d characters", maxDescriptionLength))
		} else {
			description = *in.Description
		}
	}

	triggerType := models.TriggerType(in.TriggerType)
	if !triggerType.IsValid() {
		verr.Add("triggerType", "must be a recognized trigger type")
	}

	var conditions map[string]interface{}
	if in.TriggerConditions == nil {
		verr.Add("triggerConditions", "is required")
	} else if triggerType.IsValid() {
		normalized, err := ValidateTriggerConditions(triggerType, in.TriggerConditions)
		if err != nil {
			if nested, ok := err.(*ValidationError); ok {
				verr.Merge("triggerConditions", nested)
			} else {
				verr.Add("triggerConditions", err.Error())
			}
		} else {
			conditions = normalized
		}
	}

	actions := validateActions(in.Actions, verr)

	isActive := true
	if in.IsActive != nil {
		isActive = *in.IsActive
	}

	if err := verr.AsError(); err != nil {
		return models.Automation{}, err
	}
	return models.Automation{
		Name:              name,
		Description:       description,
		TriggerType:       triggerType,
		TriggerConditions: conditions,
		Actions:           actions,
		IsActive:          isActive,
	}, nil
}

// ValidateUpdate checks a partial update payload. Supplied actions must
// still satisfy the full list rules; trigger conditions are deep-validated
// only when the trigger type is part of the same update, since the stored
// type is unknown at this layer.
func ValidateUpdate(in UpdateAutomationInput) (AutomationUpdate, error) {
	verr := &ValidationError{}
	var update AutomationUpdate

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" || len(name) > maxNameLength {
			verr.Add("name", fmt.Sprintf("must be between 1 and %d characters", maxNameLength))
		} else {
			update.Name = &name
		}
	}
	if in.Description != nil {
		if len(*in.Description) > maxDescriptionLength {
			verr.Add("description", fmt.Sprintf("must be at most %d characters", maxDescriptionLength))
		} else {
			update.Description = in.Description
		}
	}
	if in.TriggerType != nil {
		triggerType := models.TriggerType(*in.TriggerType)
		if !triggerType.IsValid() {
			verr.Add("triggerType", "must be a recognized trigger type")
		} else {
			update.TriggerType = &triggerType
		}
	}
	if in.TriggerConditions != nil {
		if update.TriggerType != nil {
			normalized, err := ValidateTriggerConditions(*update.TriggerType, in.TriggerConditions)
			if err != nil {
				if nested, ok := err.(*ValidationError); ok {
					verr.Merge("triggerConditions", nested)
				} else {
					verr.Add("triggerConditions", err.Error())
				}
			} else {
				update.TriggerConditions = normalized
			}
		} else {
			update.TriggerConditions = in.TriggerConditions
		}
	}
	if in.Actions != nil {
		update.Actions = validateActions(in.Actions, verr)
	}
	update.IsActive = in.IsActive

	if err := verr.AsError(); err != nil {
		return AutomationUpdate{}, err
	}
	return update, nil
}

// validateActions applies the 1-10 list rules and the per-action deep
// parameter check. Duplicate order values are accepted: the base schema
// declares no uniqueness constraint, and execution sorts stably.
func validateActions(inputs []ActionInput, verr *ValidationError) []models.Action {
	if len(inputs) < minActions {
		verr.Add("actions", fmt.Sprintf("must contain at least %d action", minActions))
		return nil
	}
	if len(inputs) > maxActions {
		verr.Add("actions", fmt.Sprintf("must contain at most %d actions", maxActions))
		return nil
	}

	actions := make([]models.Action, 0, len(inputs))
	for i, in := range inputs {
		prefix := fmt.Sprintf("actions[%d]", i)
		actionType := models.ActionType(in.Type)
		if !actionType.IsValid() {
			verr.Add(prefix+".type", "must be a recognized action type")
			continue
		}

		params := in.Parameters
		if params == nil {
			verr.Add(prefix+".parameters", "is required")
			continue
		}
		normalized, err := ValidateActionParameters(actionType, params)
		if err != nil {
			if nested, ok := err.(*ValidationError); ok {
				verr.Merge(prefix+".parameters", nested)
			} else {
				verr.Add(prefix+".parameters", err.Error())
			}
			continue
		}

		delay := 0
		if in.DelayMinutes != nil {
			if *in.DelayMinutes < 0 {
				verr.Add(prefix+".delayMinutes", "must be greater than or equal to 0")
				continue
			}
			delay = *in.DelayMinutes
		}

		if in.Order == nil {
			verr.Add(prefix+".order", "is required")
			continue
		}
		if *in.Order < 1 {
			verr.Add(prefix+".order", "must be an integer greater than or equal to 1")
			continue
		}

		actions = append(actions, models.Action{
			Type:         actionType,
			Parameters:   normalized,
			DelayMinutes: delay,
			Order:        *in.Order,
		})
	}
	return actions
}

// ValidateListQuery parses the list endpoint's filters and pagination.
func ValidateListQuery(values url.Values) (ListQuery, error) {
	verr := &ValidationError{}
	query := ListQuery{Page: defaultPage, PageSize: defaultPageSize}

	if raw := strings.TrimSpace(values.Get("isActive")); raw != "" {
		switch raw {
		case "true":
			v := true
			query.IsActive = &v
		case "false":
			v := false
			query.IsActive = &v
		default:
			verr.Add("isActive", `must be "true" or "false"`)
		}
	}
	if raw := strings.TrimSpace(values.Get("triggerType")); raw != "" {
		triggerType := models.TriggerType(raw)
		if !triggerType.IsValid() {
			verr.Add("triggerType", "must be a recognized trigger type")
		} else {
			query.TriggerType = &triggerType
		}
	}
	if raw := strings.TrimSpace(values.Get("page")); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			verr.Add("page", "must be a positive integer")
		} else {
			query.Page = page
		}
	}
	if raw := strings.TrimSpace(values.Get("pageSize")); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil || size < 1 || size > maxPageSize {
			verr.Add("pageSize", fmt.Sprintf("must be an integer between 1 and %d", maxPageSize))
		} else {
			query.PageSize = size
		}
	}

	if err := verr.AsError(); err != nil {
		return ListQuery{}, err
	}
	return query, nil
}

// ParseID validates a UUID path parameter and returns its canonical form.
func ParseID(raw string) (string, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		verr := &ValidationError{}
		verr.Add("id", "must be a valid UUID")
		return "", verr
	}
	return id.String(), nil
}

// ValidateExecuteRequest checks a manual execution request.
func ValidateExecuteRequest(in ExecuteRequest) error {
	if in.TriggerData == nil {
		verr := &ValidationError{}
		verr.Add("triggerData", "is required")
		return verr
	}
	return nil
}
