// Package web provides HTTP request and response types for the process API.
package web

import "github.com/procline/procline/pkg/models"

// CreateWorkflowRequest represents the request body for creating a workflow.
type CreateWorkflowRequest struct {
	Name        string `json:"name"        validate:"required,min=3"`
	Description string `json:"description"`
	Owner       string `json:"owner"       validate:"required"`
}

// UpdateWorkflowRequest represents the request body for updating a workflow.
// All fields are optional to support partial updates; the graph is managed
// through the activity and transition endpoints.
type UpdateWorkflowRequest struct {
	Name        *string                `json:"name,omitempty"   validate:"omitempty,min=3"`
	Description *string                `json:"description,omitempty"`
	Status      *models.WorkflowStatus `json:"status,omitempty" validate:"omitempty,oneof=draft published archived"`
}

// CreateActivityRequest represents the request body for adding an activity.
type CreateActivityRequest struct {
	Kind        string                  `json:"kind"        validate:"required,oneof=start task decision end"`
	Name        string                  `json:"name"        validate:"required,min=1"`
	Description string                  `json:"description"`
	PositionX   float64                 `json:"position_x"`
	PositionY   float64                 `json:"position_y"`
	DueHours    int                     `json:"due_hours"`
	Assignment  models.AssignmentConfig `json:"assignment"`
}

// UpdateActivityRequest represents the request body for updating an activity.
// Kind cannot be changed after creation.
type UpdateActivityRequest struct {
	Name        *string                  `json:"name,omitempty" validate:"omitempty,min=1"`
	Description *string                  `json:"description,omitempty"`
	PositionX   *float64                 `json:"position_x,omitempty"`
	PositionY   *float64                 `json:"position_y,omitempty"`
	DueHours    *int                     `json:"due_hours,omitempty"`
	Assignment  *models.AssignmentConfig `json:"assignment,omitempty"`
}

// CreateTransitionRequest represents the request body for adding a transition.
type CreateTransitionRequest struct {
	SourceID  string `json:"source_id" validate:"required"`
	TargetID  string `json:"target_id" validate:"required"`
	Condition string `json:"condition"`
}

// FieldRequest represents the request body for creating or updating a field
// definition on an activity.
type FieldRequest struct {
	Name                string              `json:"name"  validate:"required"`
	Label               string              `json:"label" validate:"required"`
	Type                models.FieldType    `json:"type"  validate:"required,oneof=text textarea number currency date select boolean email phone lookup provider"`
	Required            bool                `json:"required"`
	Options             []string            `json:"options,omitempty"`
	Min                 *float64            `json:"min,omitempty"`
	Max                 *float64            `json:"max,omitempty"`
	Pattern             string              `json:"pattern,omitempty"`
	Source              *models.FieldSource `json:"source,omitempty"`
	VisibilityCondition string              `json:"visibility_condition,omitempty"`
}

func (r FieldRequest) toModel() *models.FieldDefinition {
	return &models.FieldDefinition{
		Name:                r.Name,
		Label:               r.Label,
		Type:                r.Type,
		Required:            r.Required,
		Options:             r.Options,
		Min:                 r.Min,
		Max:                 r.Max,
		Pattern:             r.Pattern,
		Source:              r.Source,
		VisibilityCondition: r.VisibilityCondition,
	}
}

// ReorderFieldRequest represents the request body for moving a field.
type ReorderFieldRequest struct {
	NewIndex int `json:"new_index"`
}

// ImportWorkflowRequest represents the request body for importing an
// interchange document as a new workflow.
type ImportWorkflowRequest struct {
	Name     string `json:"name"     validate:"required,min=3"`
	Owner    string `json:"owner"    validate:"required"`
	Document string `json:"document" validate:"required"`
}

// StartInstanceRequest represents the request body for starting an instance.
type StartInstanceRequest struct {
	WorkflowID      string         `json:"workflow_id" validate:"required"`
	StartActivityID string         `json:"start_activity_id"`
	Initiator       string         `json:"initiator"   validate:"required"`
	Variables       map[string]any `json:"variables,omitempty"`
}

// AdvanceInstanceRequest represents the request body for advancing an instance.
type AdvanceInstanceRequest struct {
	Actor     string         `json:"actor" validate:"required"`
	Variables map[string]any `json:"variables,omitempty"`
}

// CommentRequest represents the request body for commenting on an instance.
type CommentRequest struct {
	Actor   string `json:"actor"   validate:"required"`
	Comment string `json:"comment" validate:"required"`
}
