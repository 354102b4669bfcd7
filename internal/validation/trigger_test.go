package validation

import (
	"testing"

	"github.com/Bukialo/crm-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateTriggerConditions_ContactCreated(t *testing.T) {
	cases := []struct {
		name       string
		conditions map[string]interface{}
		want       map[string]interface{}
		wantFields []string
	}{
		{
			name:       "empty conditions accepted",
			conditions: map[string]interface{}{},
			want:       map[string]interface{}{},
		},
		{
			name: "all fields valid",
			conditions: map[string]interface{}{
				"status":      "INTERESADO",
				"source":      "WEBSITE",
				"budgetRange": "LUXURY",
				"tags":        []interface{}{"vip", "honeymoon"},
			},
			want: map[string]interface{}{
				"status":      "INTERESADO",
				"source":      "WEBSITE",
				"budgetRange": "LUXURY",
				"tags":        []string{"vip", "honeymoon"},
			},
		},
		{
			name:       "unknown fields ignored",
			conditions: map[string]interface{}{"somethingElse": 42},
			want:       map[string]interface{}{},
		},
		{
			name: "every bad field reported",
			conditions: map[string]interface{}{
				"status":      "PROSPECT",
				"source":      "CARRIER_PIGEON",
				"budgetRange": "INFINITE",
			},
			wantFields: []string{"status", "source", "budgetRange"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ValidateTriggerConditions(models.TriggerContactCreated, tc.conditions)
			if len(tc.wantFields) > 0 {
				require.Error(t, err)
				verr := requireValidationError(t, err)
				assert.ElementsMatch(t, tc.wantFields, fieldNames(verr))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestValidateTriggerConditions_RequiredFields(t *testing.T) {
	cases := []struct {
		name        string
		triggerType models.TriggerType
		conditions  map[string]interface{}
		wantField   string
	}{
		{"no activity missing days", models.TriggerNoActivity30Days, map[string]interface{}{}, "days"},
		{"no activity days out of range", models.TriggerNoActivity30Days, map[string]interface{}{"days": 400}, "days"},
		{"payment overdue missing daysOverdue", models.TriggerPaymentOverdue, map[string]interface{}{}, "daysOverdue"},
		{"payment overdue negative amount", models.TriggerPaymentOverdue,
			map[string]interface{}{"daysOverdue": 7, "minAmount": -1}, "minAmount"},
		{"trip completed bad rating", models.TriggerTripCompleted, map[string]interface{}{"minRating": 11}, "minRating"},
		{"birthday daysBefore out of range", models.TriggerBirthday, map[string]interface{}{"daysBefore": 90}, "daysBefore"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ValidateTriggerConditions(tc.triggerType, tc.conditions)
			verr := requireValidationError(t, err)
			assert.Contains(t, fieldNames(verr), tc.wantField)
		})
	}
}

func TestValidateTriggerConditions_Defaults(t *testing.T) {
	got, err := ValidateTriggerConditions(models.TriggerBirthday, map[string]interface{}{})
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"daysBefore": 0, "includeInactive": false}, got)

	got, err = ValidateTriggerConditions(models.TriggerTripCompleted, map[string]interface{}{})
	require.NoError(t, err)
	assert.Equal(t, 1, got["daysAfterReturn"])
}

func TestValidateTriggerConditions_NumericCoercion(t *testing.T) {
	got, err := ValidateTriggerConditions(models.TriggerNoActivity30Days, map[string]interface{}{
		"days": float64(45), // json decodes numbers as float64
	})
	require.NoError(t, err)
	assert.Equal(t, 45, got["days"])

	_, err = ValidateTriggerConditions(models.TriggerNoActivity30Days, map[string]interface{}{
		"days": 4.5,
	})
	require.Error(t, err)
}

func TestValidateTriggerConditions_PermissiveFallback(t *testing.T) {
	// Triggers without a registered schema accept any object unchanged.
	freeform := map[string]interface{}{
		"season":   "summer",
		"anything": []interface{}{1, 2, 3},
		"nested":   map[string]interface{}{"deep": true},
	}
	for _, triggerType := range []models.TriggerType{
		models.TriggerSeasonalOpportunity,
		models.TriggerCustom,
		models.TriggerTripQuoteRequested,
	} {
		got, err := ValidateTriggerConditions(triggerType, freeform)
		require.NoError(t, err, "trigger %s", triggerType)
		assert.Equal(t, freeform, got)
	}
}

func requireValidationError(t *testing.T, err error) *ValidationError {
	t.Helper()
	require.Error(t, err)
	verr, ok := err.(*ValidationError)
	require.True(t, ok, "expected *ValidationError, got %T", err)
	return verr
}

func fieldNames(verr *ValidationError) []string {
	names := make([]string, 0, len(verr.Fields))
	for _, f := range verr.Fields {
		names = append(names, f.Field)
	}
	return names
}
