// Package testutil provides test data builders shared across package tests.
package testutil

import (
	"time"

	"github.com/google/uuid"

	"github.com/procline/procline/pkg/models"
)

// CreateTestWorkflow creates a draft workflow with no graph content.
func CreateTestWorkflow(overrides ...func(*models.Workflow)) *models.Workflow {
	now := time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC)

	w := &models.Workflow{
		ID:          uuid.New().String(),
		Name:        "Test Workflow",
		Status:      models.WorkflowStatusDraft,
		Activities:  []*models.Activity{},
		Transitions: []*models.Transition{},
		Owner:       "user-1",
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	for _, override := range overrides {
		override(w)
	}

	return w
}

// CreateTestActivity creates a task activity with default values that can be
// overridden.
func CreateTestActivity(overrides ...func(*models.Activity)) *models.Activity {
	a := &models.Activity{
		ID:       uuid.New().String(),
		Kind:     models.ActivityKindTask,
		Name:     "Test Activity",
		DueHours: models.DefaultDueHours,
		Assignment: models.AssignmentConfig{
			Type: models.AssignmentTypeCreator,
		},
	}

	for _, override := range overrides {
		override(a)
	}

	return a
}

// WithActivityID sets the activity id.
func WithActivityID(id string) func(*models.Activity) {
	return func(a *models.Activity) {
		a.ID = id
	}
}

// WithKind sets the activity kind.
func WithKind(kind models.ActivityKind) func(*models.Activity) {
	return func(a *models.Activity) {
		a.Kind = kind
	}
}

// WithActivityName sets the activity name.
func WithActivityName(name string) func(*models.Activity) {
	return func(a *models.Activity) {
		a.Name = name
	}
}

// WithAssignment sets the assignment configuration.
func WithAssignment(cfg models.AssignmentConfig) func(*models.Activity) {
	return func(a *models.Activity) {
		a.Assignment = cfg
	}
}

// CreateTestField creates a field definition owned by the given activity.
func CreateTestField(activityID string, name string, orderIndex int) *models.FieldDefinition {
	return &models.FieldDefinition{
		ID:         uuid.New().String(),
		ActivityID: activityID,
		Name:       name,
		Label:      name,
		Type:       models.FieldTypeText,
		OrderIndex: orderIndex,
	}
}
