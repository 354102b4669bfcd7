package actions

import (
	"fmt"
	"time"
)

// Parameter maps arrive normalized, so the readers below only deal with the
// types the validators emit.

func paramString(p map[string]interface{}, key string) string {
	if v, ok := p[key].(string); ok {
		return v
	}
	return ""
}

func paramInt(p map[string]interface{}, key string, fallback int) int {
	switch v := p[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return fallback
	}
}

func paramTime(p map[string]interface{}, key string) (time.Time, bool) {
	t, ok := p[key].(time.Time)
	return t, ok
}

func paramStrings(p map[string]interface{}, key string) []string {
	switch v := p[key].(type) {
	case []string:
		return v
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func paramMap(p map[string]interface{}, key string) map[string]interface{} {
	if v, ok := p[key].(map[string]interface{}); ok {
		return v
	}
	return nil
}

// contactIDFrom pulls the contact reference out of the trigger payload.
// Every CRM-side executor needs one; a missing id is an execution error, not
// a validation error, because the payload shape depends on the event source.
func contactIDFrom(triggerData map[string]interface{}) (string, error) {
	if id, ok := triggerData["contactId"].(string); ok && id != "" {
		return id, nil
	}
	return "", fmt.Errorf("trigger data does not carry a contactId")
}
