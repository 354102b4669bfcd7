package validation

import (
	"fmt"

	"github.com/Bukialo/crm-api/internal/models"
)

// conditionSchema validates and coerces the trigger conditions for one
// trigger type. It returns the normalized object and every violation found.
type conditionSchema func(conds map[string]interface{}) (map[string]interface{}, *ValidationError)

// conditionSchemas is the immutable trigger dispatch table, built once at
// package init. Triggers absent from it (SEASONAL_OPPORTUNITY, CUSTOM) accept
// any object unvalidated.
var conditionSchemas = map[models.TriggerType]conditionSchema{
	models.TriggerContactCreated:   contactCreatedConditions,
	models.TriggerNoActivity30Days: noActivityConditions,
	models.TriggerPaymentOverdue:   paymentOverdueConditions,
	models.TriggerTripCompleted:    tripCompletedConditions,
	models.TriggerBirthday:         birthdayConditions,
}

// ValidateTriggerConditions checks conditions against the schema registered
// for triggerType. On success it returns the coerced object with defaults
// applied; unknown fields are ignored, not rejected. Trigger types with no
// registered schema accept the conditions unchanged.
func ValidateTriggerConditions(triggerType models.TriggerType, conditions map[string]interface{}) (map[string]interface{}, error) {
	schema, ok := conditionSchemas[triggerType]
	if !ok {
		if conditions == nil {
			conditions = map[string]interface{}{}
		}
		return conditions, nil
	}
	if conditions == nil {
		conditions = map[string]interface{}{}
	}
	out, verr := schema(conditions)
	if err := verr.AsError(); err != nil {
		return nil, err
	}
	return out, nil
}

func contactCreatedConditions(c map[string]interface{}) (map[string]interface{}, *ValidationError) {
	verr := &ValidationError{}
	out := map[string]interface{}{}

	if v, present := c["status"]; present {
		s, ok := asString(v)
		if !ok || !models.ContactStatus(s).IsValid() {
			verr.Add("status", "must be one of INTERESADO, PASAJERO, CLIENTE")
		} else {
			out["status"] = s
		}
	}
	if v, present := c["source"]; present {
		s, ok := asString(v)
		if !ok || !models.LeadSource(s).IsValid() {
			verr.Add("source", "must be one of WEBSITE, REFERRAL, SOCIAL_MEDIA, ADVERTISING, DIRECT, PARTNER, OTHER")
		} else {
			out["source"] = s
		}
	}
	if v, present := c["budgetRange"]; present {
		s, ok := asString(v)
		if !ok || !models.BudgetRange(s).IsValid() {
			verr.Add("budgetRange", "must be one of LOW, MEDIUM, HIGH, LUXURY")
		} else {
			out["budgetRange"] = s
		}
	}
	if v, present := c["tags"]; present {
		tags, ok := asStringSlice(v)
		if !ok {
			verr.Add("tags", "must be an array of strings")
		} else {
			out["tags"] = tags
		}
	}
	return out, verr
}

func noActivityConditions(c map[string]interface{}) (map[string]interface{}, *ValidationError) {
	verr := &ValidationError{}
	out := map[string]interface{}{}

	requireIntInRange(c, out, verr, "days", 1, 365)

	if v, present := c["status"]; present {
		s, ok := asString(v)
		if !ok || !models.ContactStatus(s).IsValid() {
			verr.Add("status", "must be one of INTERESADO, PASAJERO, CLIENTE")
		} else {
			out["status"] = s
		}
	}
	if v, present := c["excludeTags"]; present {
		tags, ok := asStringSlice(v)
		if !ok {
			verr.Add("excludeTags", "must be an array of strings")
		} else {
			out["excludeTags"] = tags
		}
	}
	return out, verr
}

func paymentOverdueConditions(c map[string]interface{}) (map[string]interface{}, *ValidationError) {
	verr := &ValidationError{}
	out := map[string]interface{}{}

	requireIntInRange(c, out, verr, "daysOverdue", 1, 365)

	for _, field := range []string{"minAmount", "maxAmount"} {
		if v, present := c[field]; present {
			amount, ok := asFloat(v)
			if !ok || amount < 0 {
				verr.Add(field, "must be a number greater than or equal to 0")
			} else {
				out[field] = amount
			}
		}
	}
	return out, verr
}

func tripCompletedConditions(c map[string]interface{}) (map[string]interface{}, *ValidationError) {
	verr := &ValidationError{}
	out := map[string]interface{}{}

	if v, present := c["destination"]; present {
		s, ok := asString(v)
		if !ok {
			verr.Add("destination", "must be a string")
		} else {
			out["destination"] = s
		}
	}
	if v, present := c["minRating"]; present {
		rating, ok := asInt(v)
		if !ok || rating < 1 || rating > 5 {
			verr.Add("minRating", "must be an integer between 1 and 5")
		} else {
			out["minRating"] = rating
		}
	}
	optionalIntInRange(c, out, verr, "daysAfterReturn", 0, 30, 1)
	return out, verr
}

func birthdayConditions(c map[string]interface{}) (map[string]interface{}, *ValidationError) {
	verr := &ValidationError{}
	out := map[string]interface{}{}

	optionalIntInRange(c, out, verr, "daysBefore", 0, 30, 0)

	if v, present := c["status"]; present {
		s, ok := asString(v)
		if !ok || !models.ContactStatus(s).IsValid() {
			verr.Add("status", "must be one of INTERESADO, PASAJERO, CLIENTE")
		} else {
			out["status"] = s
		}
	}
	if v, present := c["includeInactive"]; present {
		b, ok := asBool(v)
		if !ok {
			verr.Add("includeInactive", "must be a boolean")
		} else {
			out["includeInactive"] = b
		}
	} else {
		out["includeInactive"] = false
	}
	return out, verr
}

func requireIntInRange(c, out map[string]interface{}, verr *ValidationError, field string, min, max int) {
	v, present := c[field]
	if !present {
		verr.Add(field, "is required")
		return
	}
	n, ok := asInt(v)
	if !ok || n < min || n > max {
		verr.Add(field, fmt.Sprintf("must be an integer between %d and %d", min, max))
		return
	}
	out[field] = n
}

func optionalIntInRange(c, out map[string]interface{}, verr *ValidationError, field string, min, max, def int) {
	v, present := c[field]
	if !present {
		out[field] = def
		return
	}
	n, ok := asInt(v)
	if !ok || n < min || n > max {
		verr.Add(field, fmt.Sprintf("must be an integer between %d and %d", min, max))
		return
	}
	out[field] = n
}
