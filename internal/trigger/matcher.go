package trigger

import (
	"fmt"

	"github.com/Bukialo/crm-api/internal/models"
)

// Matcher decides whether an event satisfies the stored conditions of an
// active automation. Conditions are read straight from the jsonb column, so
// numeric values may arrive as float64.
type Matcher struct{}

func NewMatcher() *Matcher {
	return &Matcher{}
}

// Matches evaluates the automation's trigger conditions against the event
// payload. Automations whose condition map is empty match every event of
// their trigger type.
func (m *Matcher) Matches(automation models.Automation, ev Event) bool {
	if automation.TriggerType != ev.Type {
		return false
	}
	cond := automation.TriggerConditions
	if len(cond) == 0 {
		return true
	}

	switch ev.Type {
	case models.TriggerContactCreated:
		return m.matchContactCreated(cond, ev.Payload)
	case models.TriggerNoActivity30Days:
		return m.matchNoActivity(cond, ev.Payload)
	case models.TriggerPaymentOverdue:
		return m.matchPaymentOverdue(cond, ev.Payload)
	case models.TriggerTripCompleted:
		return m.matchTripCompleted(cond, ev.Payload)
	case models.TriggerBirthday:
		return m.matchBirthday(cond, ev.Payload)
	default:
		return m.matchLoose(cond, ev.Payload)
	}
}

func (m *Matcher) matchContactCreated(cond, payload map[string]interface{}) bool {
	if want, ok := condString(cond, "status"); ok {
		if got, _ := condString(payload, "status"); got != want {
			return false
		}
	}
	if want, ok := condString(cond, "source"); ok {
		if got, _ := condString(payload, "source"); got != want {
			return false
		}
	}
	if want, ok := condString(cond, "budgetRange"); ok {
		if got, _ := condString(payload, "budgetRange"); got != want {
			return false
		}
	}
	if want, ok := condStrings(cond, "tags"); ok {
		got, _ := condStrings(payload, "tags")
		if !subset(want, got) {
			return false
		}
	}
	return true
}

func (m *Matcher) matchNoActivity(cond, payload map[string]interface{}) bool {
	if want, ok := condInt(cond, "days"); ok {
		got, found := condInt(payload, "daysInactive")
		if !found || got < want {
			return false
		}
	}
	if want, ok := condString(cond, "status"); ok {
		if got, _ := condString(payload, "status"); got != want {
			return false
		}
	}
	if excluded, ok := condStrings(cond, "excludeTags"); ok {
		got, _ := condStrings(payload, "tags")
		if intersects(excluded, got) {
			return false
		}
	}
	return true
}

func (m *Matcher) matchPaymentOverdue(cond, payload map[string]interface{}) bool {
	if want, ok := condInt(cond, "daysOverdue"); ok {
		got, found := condInt(payload, "daysOverdue")
		if !found || got < want {
			return false
		}
	}
	amount, hasAmount := condFloat(payload, "amount")
	if min, ok := condFloat(cond, "minAmount"); ok {
		if !hasAmount || amount < min {
			return false
		}
	}
	if max, ok := condFloat(cond, "maxAmount"); ok {
		if !hasAmount || amount > max {
			return false
		}
	}
	return true
}

func (m *Matcher) matchTripCompleted(cond, payload map[string]interface{}) bool {
	if want, ok := condString(cond, "destination"); ok {
		if got, _ := condString(payload, "destination"); got != want {
			return false
		}
	}
	if want, ok := condFloat(cond, "minRating"); ok {
		got, found := condFloat(payload, "rating")
		if !found || got < want {
			return false
		}
	}
	if want, ok := condInt(cond, "daysAfterReturn"); ok {
		got, found := condInt(payload, "daysSinceReturn")
		if !found || got < want {
			return false
		}
	}
	return true
}

// matchBirthday fires when the contact's birthday is exactly daysBefore days
// away. Inactive contacts are skipped unless includeInactive is set.
func (m *Matcher) matchBirthday(cond, payload map[string]interface{}) bool {
	want, ok := condInt(cond, "daysBefore")
	if !ok {
		want = 0
	}
	got, found := condInt(payload, "daysUntilBirthday")
	if !found || got != want {
		return false
	}
	if include, ok := condBool(cond, "includeInactive"); !ok || !include {
		if active, found := condBool(payload, "isActive"); found && !active {
			return false
		}
	}
	if wantStatus, ok := condString(cond, "status"); ok {
		if got, _ := condString(payload, "status"); got != wantStatus {
			return false
		}
	}
	return true
}

// matchLoose compares every condition key against the payload value by its
// string rendering. Used for trigger types without a registered schema.
func (m *Matcher) matchLoose(cond, payload map[string]interface{}) bool {
	for key, want := range cond {
		got, found := payload[key]
		if !found {
			return false
		}
		if fmt.Sprintf("%v", got) != fmt.Sprintf("%v", want) {
			return false
		}
	}
	return true
}

func condString(m map[string]interface{}, key string) (string, bool) {
	v, ok := m[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func condInt(m map[string]interface{}, key string) (int, bool) {
	v, ok := m[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}

func condFloat(m map[string]interface{}, key string) (float64, bool) {
	v, ok := m[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

func condBool(m map[string]interface{}, key string) (bool, bool) {
	v, ok := m[key]
	if !ok {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}

func condStrings(m map[string]interface{}, key string) ([]string, bool) {
	v, ok := m[key]
	if !ok {
		return nil, false
	}
	switch vs := v.(type) {
	case []string:
		return vs, true
	case []interface{}:
		out := make([]string, 0, len(vs))
		for _, item := range vs {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	default:
		return nil, false
	}
}

func subset(want, got []string) bool {
	for _, w := range want {
		found := false
		for _, g := range got {
			if g == w {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func intersects(a, b []string) bool {
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return true
			}
		}
	}
	return false
}
