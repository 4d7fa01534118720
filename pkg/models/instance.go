package models

import "time"

// InstanceStatus is the lifecycle state of a process instance.
type InstanceStatus string

const (
	InstanceStatusActive    InstanceStatus = "active"
	InstanceStatusCompleted InstanceStatus = "completed"
	InstanceStatusCancelled InstanceStatus = "cancelled"
)

// ProcessInstance is one live execution of a workflow, positioned at exactly
// one activity. It is mutated only by the engine on advancement.
type ProcessInstance struct {
	ID                string         `json:"id"                  validate:"required"`
	WorkflowID        string         `json:"workflow_id"         validate:"required"`
	CurrentActivityID string         `json:"current_activity_id" validate:"required"`
	Status            InstanceStatus `json:"status"              validate:"required,oneof=active completed cancelled"`
	CreatedBy         string         `json:"created_by"`
	CreatedAt         time.Time      `json:"created_at"`
	Assignment        AssignmentRef  `json:"assignment"`
	Variables         map[string]any `json:"variables,omitempty"`
}

// HistoryAction classifies an audit record.
type HistoryAction string

const (
	HistoryActionStarted   HistoryAction = "started"
	HistoryActionCompleted HistoryAction = "completed"
	HistoryActionCommented HistoryAction = "commented"
)

// HistoryEntry is an immutable audit record of an instance entering, leaving
// or being commented on at an activity. Entries are append-only and are the
// sole input to duration and workload analytics.
type HistoryEntry struct {
	ID         string        `json:"id"          validate:"required"`
	ProcessID  string        `json:"process_id"  validate:"required"`
	ActivityID string        `json:"activity_id" validate:"required"`
	Action     HistoryAction `json:"action"      validate:"required,oneof=started completed commented"`
	Comment    string        `json:"comment,omitempty"`
	Data       map[string]any `json:"data,omitempty"`
	Timestamp  time.Time     `json:"timestamp"`
	UserID     string        `json:"user_id"`
}
