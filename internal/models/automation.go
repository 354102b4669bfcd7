package models

import (
	"encoding/json"
	"time"
)

// TriggerType identifies the business event an automation reacts to.
type TriggerType string

const (
	TriggerContactCreated      TriggerType = "CONTACT_CREATED"
	TriggerTripQuoteRequested  TriggerType = "TRIP_QUOTE_REQUESTED"
	TriggerPaymentOverdue      TriggerType = "PAYMENT_OVERDUE"
	TriggerTripCompleted       TriggerType = "TRIP_COMPLETED"
	TriggerNoActivity30Days    TriggerType = "NO_ACTIVITY_30_DAYS"
	TriggerSeasonalOpportunity TriggerType = "SEASONAL_OPPORTUNITY"
	TriggerBirthday            TriggerType = "BIRTHDAY"
	TriggerCustom              TriggerType = "CUSTOM"
)

// IsValid checks membership in the closed trigger enum.
func (t TriggerType) IsValid() bool {
	switch t {
	case TriggerContactCreated, TriggerTripQuoteRequested, TriggerPaymentOverdue,
		TriggerTripCompleted, TriggerNoActivity30Days, TriggerSeasonalOpportunity,
		TriggerBirthday, TriggerCustom:
		return true
	default:
		return false
	}
}

// TriggerTypes lists every recognized trigger type.
func TriggerTypes() []TriggerType {
	return []TriggerType{
		TriggerContactCreated, TriggerTripQuoteRequested, TriggerPaymentOverdue,
		TriggerTripCompleted, TriggerNoActivity30Days, TriggerSeasonalOpportunity,
		TriggerBirthday, TriggerCustom,
	}
}

// ActionType identifies one step of an automation's effect.
type ActionType string

const (
	ActionSendEmail     ActionType = "SEND_EMAIL"
	ActionCreateTask    ActionType = "CREATE_TASK"
	ActionScheduleCall  ActionType = "SCHEDULE_CALL"
	ActionAddTag        ActionType = "ADD_TAG"
	ActionUpdateStatus  ActionType = "UPDATE_STATUS"
	ActionGenerateQuote ActionType = "GENERATE_QUOTE"
	ActionAssignAgent   ActionType = "ASSIGN_AGENT"
	ActionSendWhatsApp  ActionType = "SEND_WHATSAPP"
)

// IsValid checks membership in the closed action enum.
func (t ActionType) IsValid() bool {
	switch t {
	case ActionSendEmail, ActionCreateTask, ActionScheduleCall, ActionAddTag,
		ActionUpdateStatus, ActionGenerateQuote, ActionAssignAgent, ActionSendWhatsApp:
		return true
	default:
		return false
	}
}

// ContactStatus is the lifecycle stage of a CRM contact.
type ContactStatus string

const (
	StatusInteresado ContactStatus = "INTERESADO"
	StatusPasajero   ContactStatus = "PASAJERO"
	StatusCliente    ContactStatus = "CLIENTE"
)

func (s ContactStatus) IsValid() bool {
	switch s {
	case StatusInteresado, StatusPasajero, StatusCliente:
		return true
	default:
		return false
	}
}

// LeadSource is where a contact originally came from.
type LeadSource string

const (
	SourceWebsite     LeadSource = "WEBSITE"
	SourceReferral    LeadSource = "REFERRAL"
	SourceSocialMedia LeadSource = "SOCIAL_MEDIA"
	SourceAdvertising LeadSource = "ADVERTISING"
	SourceDirect      LeadSource = "DIRECT"
	SourcePartner     LeadSource = "PARTNER"
	SourceOther       LeadSource = "OTHER"
)

func (s LeadSource) IsValid() bool {
	switch s {
	case SourceWebsite, SourceReferral, SourceSocialMedia, SourceAdvertising,
		SourceDirect, SourcePartner, SourceOther:
		return true
	default:
		return false
	}
}

// BudgetRange buckets a contact's travel budget.
type BudgetRange string

const (
	BudgetLow    BudgetRange = "LOW"
	BudgetMedium BudgetRange = "MEDIUM"
	BudgetHigh   BudgetRange = "HIGH"
	BudgetLuxury BudgetRange = "LUXURY"
)

func (b BudgetRange) IsValid() bool {
	switch b {
	case BudgetLow, BudgetMedium, BudgetHigh, BudgetLuxury:
		return true
	default:
		return false
	}
}

// TaskPriority is the urgency of a CRM task created by an automation.
type TaskPriority string

const (
	PriorityLow    TaskPriority = "LOW"
	PriorityMedium TaskPriority = "MEDIUM"
	PriorityHigh   TaskPriority = "HIGH"
	PriorityUrgent TaskPriority = "URGENT"
)

func (p TaskPriority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	default:
		return false
	}
}

// Action is one ordered step of an automation. Order sequences execution
// (ascending); DelayMinutes is waited after the previous step completes, or
// after trigger fire for the first step.
type Action struct {
	Type         ActionType             `json:"type" db:"type"`
	Parameters   map[string]interface{} `json:"parameters" db:"parameters"`
	DelayMinutes int                    `json:"delayMinutes" db:"delay_minutes"`
	Order        int                    `json:"order" db:"order"`
}

// Automation pairs a trigger condition with an ordered list of actions.
type Automation struct {
	ID                string                 `json:"id" db:"id"`
	Name              string                 `json:"name" db:"name"`
	Description       string                 `json:"description" db:"description"`
	TriggerType       TriggerType            `json:"triggerType" db:"trigger_type"`
	TriggerConditions map[string]interface{} `json:"triggerConditions" db:"trigger_conditions"`
	Actions           []Action               `json:"actions" db:"actions"`
	IsActive          bool                   `json:"isActive" db:"is_active"`
	CreatedAt         time.Time              `json:"createdAt" db:"created_at"`
	UpdatedAt         time.Time              `json:"updatedAt" db:"updated_at"`
}

// MarshalActions serializes the action list for jsonb storage.
func (a *Automation) MarshalActions() ([]byte, error) {
	return json.Marshal(a.Actions)
}
