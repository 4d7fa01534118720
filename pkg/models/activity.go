// Package models defines the core domain models for graph-based business processes.
package models

// ActivityKind classifies a node in the process graph.
type ActivityKind string

const (
	ActivityKindStart    ActivityKind = "start"
	ActivityKindTask     ActivityKind = "task"
	ActivityKindDecision ActivityKind = "decision"
	ActivityKindEnd      ActivityKind = "end"
)

// DefaultDueHours is the SLA applied to activities that do not configure one.
const DefaultDueHours = 24

// Activity is a node in the process graph. Fields are ordered by OrderIndex
// and kept contiguous by the designer operations.
type Activity struct {
	ID          string            `json:"id"          validate:"required"`
	WorkflowID  string            `json:"workflow_id"`
	Kind        ActivityKind      `json:"kind"        validate:"required,oneof=start task decision end"`
	Name        string            `json:"name"        validate:"required,min=1"`
	Description string            `json:"description,omitempty"`
	PositionX   float64           `json:"position_x"`
	PositionY   float64           `json:"position_y"`
	Fields      []*FieldDefinition `json:"fields,omitempty"`
	DueHours    int               `json:"due_hours"`
	Assignment  AssignmentConfig  `json:"assignment"`
	Actions     []AutomatedAction `json:"actions,omitempty"`
}

func (a *Activity) IsStart() bool { return a.Kind == ActivityKindStart }
func (a *Activity) IsEnd() bool   { return a.Kind == ActivityKindEnd }

// AutomatedAction is an HTTP-like step executed outside the core when an
// activity is entered. The config payload is opaque here and validated at the
// boundary against a JSON schema.
type AutomatedAction struct {
	ID     string         `json:"id"   validate:"required"`
	Type   string         `json:"type" validate:"required"`
	Config map[string]any `json:"config,omitempty"`
}

// Transition is a directed, optionally conditioned edge between two
// activities. A blank Condition always passes.
type Transition struct {
	ID         string `json:"id"          validate:"required"`
	WorkflowID string `json:"workflow_id"`
	SourceID   string `json:"source_id"   validate:"required"`
	TargetID   string `json:"target_id"   validate:"required"`
	Condition  string `json:"condition,omitempty"`
}
