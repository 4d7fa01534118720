package models

import "time"

// WorkflowStatus represents the lifecycle state of a workflow definition.
type WorkflowStatus string

const (
	WorkflowStatusDraft     WorkflowStatus = "draft"     // Editable, not executable
	WorkflowStatusPublished WorkflowStatus = "published" // Executable
	WorkflowStatusArchived  WorkflowStatus = "archived"  // Historical, not executable
)

// Workflow is a process definition: the activity graph plus metadata.
// Activities and Transitions keep their insertion order; designer operations
// and the auto-layout rely on that order being stable.
type Workflow struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"   validate:"required,min=3"`
	Description string         `json:"description,omitempty"`
	Status      WorkflowStatus `json:"status" validate:"required"`
	Activities  []*Activity    `json:"activities"`
	Transitions []*Transition  `json:"transitions"`
	Owner       string         `json:"owner"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// ActivityByID returns the activity with the given id, or nil.
func (w *Workflow) ActivityByID(id string) *Activity {
	for _, a := range w.Activities {
		if a.ID == id {
			return a
		}
	}

	return nil
}

// StartActivities returns all start-typed activities in insertion order.
func (w *Workflow) StartActivities() []*Activity {
	starts := make([]*Activity, 0, 1)

	for _, a := range w.Activities {
		if a.IsStart() {
			starts = append(starts, a)
		}
	}

	return starts
}

// TransitionsFrom returns the outgoing transitions of an activity in the
// order they were defined. The engine evaluates conditions in exactly this
// order, so callers must not reorder the result.
func (w *Workflow) TransitionsFrom(activityID string) []*Transition {
	out := make([]*Transition, 0, 2)

	for _, t := range w.Transitions {
		if t.SourceID == activityID {
			out = append(out, t)
		}
	}

	return out
}
