package models

import "time"

// Contact is the CRM record automations act on. Only the columns the
// automation engine reads and writes are modeled here.
type Contact struct {
	ID          string        `json:"id" db:"id"`
	FirstName   string        `json:"firstName" db:"first_name"`
	LastName    string        `json:"lastName" db:"last_name"`
	Email       string        `json:"email" db:"email"`
	Phone       string        `json:"phone" db:"phone"`
	Status      ContactStatus `json:"status" db:"status"`
	Source      LeadSource    `json:"source" db:"source"`
	BudgetRange *BudgetRange  `json:"budgetRange,omitempty" db:"budget_range"`
	Tags        []string      `json:"tags" db:"tags"`
	AgentID     *string       `json:"agentId,omitempty" db:"agent_id"`
	Birthday    *time.Time    `json:"birthday,omitempty" db:"birthday"`
	IsActive    bool          `json:"isActive" db:"is_active"`
	LastContact *time.Time    `json:"lastContact,omitempty" db:"last_contact"`
	CreatedAt   time.Time     `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time     `json:"updatedAt" db:"updated_at"`
}

// Task is a follow-up item created by the CREATE_TASK action.
type Task struct {
	ID           string       `json:"id" db:"id"`
	Title        string       `json:"title" db:"title"`
	Description  string       `json:"description" db:"description"`
	Priority     TaskPriority `json:"priority" db:"priority"`
	AssignedToID string       `json:"assignedToId" db:"assigned_to_id"`
	ContactID    *string      `json:"contactId,omitempty" db:"contact_id"`
	DueDate      *time.Time   `json:"dueDate,omitempty" db:"due_date"`
	Completed    bool         `json:"completed" db:"completed"`
	CreatedAt    time.Time    `json:"createdAt" db:"created_at"`
}

// ScheduledCall is an agenda entry created by the SCHEDULE_CALL action.
type ScheduledCall struct {
	ID              string    `json:"id" db:"id"`
	Title           string    `json:"title" db:"title"`
	Description     string    `json:"description" db:"description"`
	ContactID       *string   `json:"contactId,omitempty" db:"contact_id"`
	ScheduledDate   time.Time `json:"scheduledDate" db:"scheduled_date"`
	DurationMinutes int       `json:"durationMinutes" db:"duration_minutes"`
	CreatedAt       time.Time `json:"createdAt" db:"created_at"`
}

// Quote is a trip quote draft created by the GENERATE_QUOTE action.
type Quote struct {
	ID          string                 `json:"id" db:"id"`
	ContactID   string                 `json:"contactId" db:"contact_id"`
	Destination string                 `json:"destination" db:"destination"`
	Details     map[string]interface{} `json:"details" db:"details"`
	Status      string                 `json:"status" db:"status"`
	CreatedAt   time.Time              `json:"createdAt" db:"created_at"`
}

// Payment tracks what a contact owes for a booked trip; the scheduler scans
// it for PAYMENT_OVERDUE triggers.
type Payment struct {
	ID        string     `json:"id" db:"id"`
	ContactID string     `json:"contactId" db:"contact_id"`
	Amount    float64    `json:"amount" db:"amount"`
	DueDate   time.Time  `json:"dueDate" db:"due_date"`
	PaidAt    *time.Time `json:"paidAt,omitempty" db:"paid_at"`
	CreatedAt time.Time  `json:"createdAt" db:"created_at"`
}

// EmailTemplate holds the subject and body used by the SEND_EMAIL action.
// Bodies may reference variables as {{name}}.
type EmailTemplate struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Subject   string    `json:"subject" db:"subject"`
	Body      string    `json:"body" db:"body"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
