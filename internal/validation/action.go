package validation

import (
	"net/mail"
	"strings"

	"github.com/Bukialo/crm-api/internal/models"
)

// parameterSchema validates and coerces the parameters for one action type.
type parameterSchema func(params map[string]interface{}) (map[string]interface{}, *ValidationError)

// parameterSchemas is the immutable action dispatch table. Every member of
// the closed action enum has an entry; GENERATE_QUOTE and SEND_WHATSAPP
// accept a free-form map.
var parameterSchemas = map[models.ActionType]parameterSchema{
	models.ActionSendEmail:     sendEmailParameters,
	models.ActionCreateTask:    createTaskParameters,
	models.ActionAddTag:        addTagParameters,
	models.ActionUpdateStatus:  updateStatusParameters,
	models.ActionAssignAgent:   assignAgentParameters,
	models.ActionScheduleCall:  scheduleCallParameters,
	models.ActionGenerateQuote: freeFormParameters,
	models.ActionSendWhatsApp:  freeFormParameters,
}

// ValidateActionParameters checks parameters against the schema for
// actionType. Unknown action types are a hard failure: an
// UnknownActionTypeError is returned with no partial validation attempted.
func ValidateActionParameters(actionType models.ActionType, parameters map[string]interface{}) (map[string]interface{}, error) {
	schema, ok := parameterSchemas[actionType]
	if !ok {
		return nil, &UnknownActionTypeError{ActionType: string(actionType)}
	}
	if parameters == nil {
		parameters = map[string]interface{}{}
	}
	out, verr := schema(parameters)
	if err := verr.AsError(); err != nil {
		return nil, err
	}
	return out, nil
}

func sendEmailParameters(p map[string]interface{}) (map[string]interface{}, *ValidationError) {
	verr := &ValidationError{}
	out := map[string]interface{}{}

	requireNonEmptyString(p, out, verr, "templateId")

	if v, present := p["variables"]; present {
		vars, ok := asMap(v)
		if !ok {
			verr.Add("variables", "must be an object")
		} else {
			out["variables"] = vars
		}
	}
	// When "to" is omitted the executor falls back to the contact's own
	// email address; that policy lives with the caller, not here.
	if v, present := p["to"]; present {
		recipients, ok := asStringSlice(v)
		if !ok {
			verr.Add("to", "must be an array of email addresses")
		} else {
			for _, addr := range recipients {
				if _, err := mail.ParseAddress(addr); err != nil {
					verr.Add("to", "contains an invalid email address: "+addr)
				}
			}
			if verr.Empty() {
				out["to"] = recipients
			}
		}
	}
	return out, verr
}

func createTaskParameters(p map[string]interface{}) (map[string]interface{}, *ValidationError) {
	verr := &ValidationError{}
	out := map[string]interface{}{}

	requireNonEmptyString(p, out, verr, "title")
	requireNonEmptyString(p, out, verr, "assignedToId")

	if v, present := p["description"]; present {
		s, ok := asString(v)
		if !ok {
			verr.Add("description", "must be a string")
		} else {
			out["description"] = s
		}
	}
	if v, present := p["priority"]; present {
		s, ok := asString(v)
		if !ok || !models.TaskPriority(s).IsValid() {
			verr.Add("priority", "must be one of LOW, MEDIUM, HIGH, URGENT")
		} else {
			out["priority"] = s
		}
	} else {
		out["priority"] = string(models.PriorityMedium)
	}
	if v, present := p["dueDate"]; present {
		t, ok := asTime(v)
		if !ok {
			verr.Add("dueDate", "must be a valid date")
		} else {
			out["dueDate"] = t
		}
	}
	return out, verr
}

func addTagParameters(p map[string]interface{}) (map[string]interface{}, *ValidationError) {
	verr := &ValidationError{}
	out := map[string]interface{}{}

	v, present := p["tags"]
	if !present {
		verr.Add("tags", "is required")
		return out, verr
	}
	tags, ok := asStringSlice(v)
	if !ok || len(tags) == 0 {
		verr.Add("tags", "must be a non-empty array of strings")
		return out, verr
	}
	for _, tag := range tags {
		if strings.TrimSpace(tag) == "" {
			verr.Add("tags", "must not contain empty strings")
			return out, verr
		}
	}
	out["tags"] = tags
	return out, verr
}

func updateStatusParameters(p map[string]interface{}) (map[string]interface{}, *ValidationError) {
	verr := &ValidationError{}
	out := map[string]interface{}{}

	v, present := p["status"]
	if !present {
		verr.Add("status", "is required")
	} else {
		s, ok := asString(v)
		if !ok || !models.ContactStatus(s).IsValid() {
			verr.Add("status", "must be one of INTERESADO, PASAJERO, CLIENTE")
		} else {
			out["status"] = s
		}
	}
	if v, present := p["reason"]; present {
		s, ok := asString(v)
		if !ok {
			verr.Add("reason", "must be a string")
		} else {
			out["reason"] = s
		}
	}
	return out, verr
}

func assignAgentParameters(p map[string]interface{}) (map[string]interface{}, *ValidationError) {
	verr := &ValidationError{}
	out := map[string]interface{}{}
	requireNonEmptyString(p, out, verr, "agentId")
	return out, verr
}

func scheduleCallParameters(p map[string]interface{}) (map[string]interface{}, *ValidationError) {
	verr := &ValidationError{}
	out := map[string]interface{}{}

	requireNonEmptyString(p, out, verr, "title")

	if v, present := p["scheduledDate"]; present {
		t, ok := asTime(v)
		if !ok {
			verr.Add("scheduledDate", "must be a valid date")
		} else {
			out["scheduledDate"] = t
		}
	} else {
		verr.Add("scheduledDate", "is required")
	}
	if v, present := p["duration"]; present {
		n, ok := asInt(v)
		if !ok || n < 5 || n > 480 {
			verr.Add("duration", "must be an integer between 5 and 480")
		} else {
			out["duration"] = n
		}
	} else {
		out["duration"] = 30
	}
	if v, present := p["description"]; present {
		s, ok := asString(v)
		if !ok {
			verr.Add("description", "must be a string")
		} else {
			out["description"] = s
		}
	}
	return out, verr
}

func freeFormParameters(p map[string]interface{}) (map[string]interface{}, *ValidationError) {
	return p, &ValidationError{}
}

func requireNonEmptyString(p, out map[string]interface{}, verr *ValidationError, field string) {
	v, present := p[field]
	if !present {
		verr.Add(field, "is required")
		return
	}
	s, ok := asString(v)
	if !ok || strings.TrimSpace(s) == "" {
		verr.Add(field, "must be a non-empty string")
		return
	}
	out[field] = s
}
