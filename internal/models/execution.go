package models

import (
	"encoding/json"
	"time"
)

// ExecutionStatus is the lifecycle state of one automation run.
type ExecutionStatus string

const (
	ExecutionPending   ExecutionStatus = "pending"
	ExecutionRunning   ExecutionStatus = "running"
	ExecutionCompleted ExecutionStatus = "completed"
	ExecutionFailed    ExecutionStatus = "failed"
	ExecutionPaused    ExecutionStatus = "paused"
)

func (s ExecutionStatus) IsValid() bool {
	switch s {
	case ExecutionPending, ExecutionRunning, ExecutionCompleted, ExecutionFailed, ExecutionPaused:
		return true
	default:
		return false
	}
}

// Terminal reports whether the execution can no longer change.
func (s ExecutionStatus) Terminal() bool {
	return s == ExecutionCompleted || s == ExecutionFailed
}

// ActionResultStatus is the outcome of a single action within a run.
type ActionResultStatus string

const (
	ActionResultSuccess ActionResultStatus = "success"
	ActionResultFailed  ActionResultStatus = "failed"
	ActionResultPending ActionResultStatus = "pending"
)

// ActionResult is one entry in an execution's per-action log.
type ActionResult struct {
	Order      int                `json:"order"`
	Type       ActionType         `json:"type"`
	Status     ActionResultStatus `json:"status"`
	Error      string             `json:"error,omitempty"`
	ExecutedAt time.Time          `json:"executedAt"`
}

// Execution is one runtime instance of an automation firing. TriggeredBy is
// the snapshot of the event payload that fired it. The record is immutable
// once the status is terminal.
type Execution struct {
	ID              string          `json:"id" db:"id"`
	AutomationID    string          `json:"automationId" db:"automation_id"`
	Status          ExecutionStatus `json:"status" db:"status"`
	TriggeredBy     json.RawMessage `json:"triggeredBy" db:"triggered_by"`
	ActionsExecuted []ActionResult  `json:"actionsExecuted" db:"actions_executed"`
	Error           *string         `json:"error,omitempty" db:"error"`
	StartedAt       *time.Time      `json:"startedAt" db:"started_at"`
	CompletedAt     *time.Time      `json:"completedAt" db:"completed_at"`
	CreatedAt       time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time       `json:"updatedAt" db:"updated_at"`
}
