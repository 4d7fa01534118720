// Package designer implements the editing operations of the process graph:
// activity and transition CRUD plus field management. All operations mutate
// the workflow in memory only; persisting the result is the caller's job.
package designer

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/google/uuid"

	"github.com/procline/procline/pkg/diag"
	"github.com/procline/procline/pkg/models"
)

var (
	// ErrActivityNotFound indicates the referenced activity is not in the graph.
	ErrActivityNotFound = errors.New("activity not found")

	// ErrTransitionNotFound indicates the referenced transition is not in the graph.
	ErrTransitionNotFound = errors.New("transition not found")

	// ErrFieldNotFound indicates the referenced field is not on the activity.
	ErrFieldNotFound = errors.New("field not found")

	// ErrDuplicateFieldName indicates the technical name is already taken
	// within the activity.
	ErrDuplicateFieldName = errors.New("duplicate field name")

	// ErrInvalidFieldName indicates the technical name is not lowercase
	// [a-z0-9_].
	ErrInvalidFieldName = errors.New("invalid field name")

	// ErrInvalidFieldType indicates the field type is not a supported input type.
	ErrInvalidFieldType = errors.New("invalid field type")
)

var fieldNamePattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// AddActivity appends an activity to the workflow, generating an id when the
// caller did not provide one.
func AddActivity(w *models.Workflow, activity *models.Activity) *models.Activity {
	if activity.ID == "" {
		activity.ID = uuid.New().String()
	}

	if activity.DueHours <= 0 {
		activity.DueHours = models.DefaultDueHours
	}

	activity.WorkflowID = w.ID
	w.Activities = append(w.Activities, activity)

	return activity
}

// RemoveActivity deletes an activity together with its incident transitions
// and its own fields.
func RemoveActivity(w *models.Workflow, activityID string) error {
	idx := -1

	for i, a := range w.Activities {
		if a.ID == activityID {
			idx = i

			break
		}
	}

	if idx < 0 {
		return fmt.Errorf("remove activity %s: %w", activityID, ErrActivityNotFound)
	}

	w.Activities = append(w.Activities[:idx], w.Activities[idx+1:]...)

	kept := w.Transitions[:0]

	for _, t := range w.Transitions {
		if t.SourceID != activityID && t.TargetID != activityID {
			kept = append(kept, t)
		}
	}

	w.Transitions = kept

	return nil
}

// AddTransition adds a directed edge. A second edge over the same
// (source, target) pair is a no-op: the existing transition is returned
// unchanged, which tolerates double-clicks in the designer, and the ignored
// duplicate is reported on the diagnostics collector.
func AddTransition(w *models.Workflow, sourceID, targetID, condition string, diags *diag.Collector) (*models.Transition, error) {
	if w.ActivityByID(sourceID) == nil {
		return nil, fmt.Errorf("add transition source %s: %w", sourceID, ErrActivityNotFound)
	}

	if w.ActivityByID(targetID) == nil {
		return nil, fmt.Errorf("add transition target %s: %w", targetID, ErrActivityNotFound)
	}

	for _, t := range w.Transitions {
		if t.SourceID == sourceID && t.TargetID == targetID {
			if diags != nil {
				diags.Add(diag.CodeDuplicateTransition, t.ID,
					"transition %s -> %s already exists, duplicate ignored", sourceID, targetID)
			}

			return t, nil
		}
	}

	t := &models.Transition{
		ID:         uuid.New().String(),
		WorkflowID: w.ID,
		SourceID:   sourceID,
		TargetID:   targetID,
		Condition:  condition,
	}
	w.Transitions = append(w.Transitions, t)

	return t, nil
}

// RemoveTransition deletes a transition by id.
func RemoveTransition(w *models.Workflow, transitionID string) error {
	for i, t := range w.Transitions {
		if t.ID == transitionID {
			w.Transitions = append(w.Transitions[:i], w.Transitions[i+1:]...)

			return nil
		}
	}

	return fmt.Errorf("remove transition %s: %w", transitionID, ErrTransitionNotFound)
}

// AddField appends a field to an activity. The order index is assigned at the
// end of the current sequence regardless of what the caller set.
func AddField(w *models.Workflow, activityID string, field *models.FieldDefinition) (*models.FieldDefinition, error) {
	activity := w.ActivityByID(activityID)
	if activity == nil {
		return nil, fmt.Errorf("add field to %s: %w", activityID, ErrActivityNotFound)
	}

	if !fieldNamePattern.MatchString(field.Name) {
		return nil, fmt.Errorf("field name %q: %w", field.Name, ErrInvalidFieldName)
	}

	if !field.Type.Valid() {
		return nil, fmt.Errorf("field type %q: %w", field.Type, ErrInvalidFieldType)
	}

	for _, f := range activity.Fields {
		if f.Name == field.Name {
			return nil, fmt.Errorf("field name %q: %w", field.Name, ErrDuplicateFieldName)
		}
	}

	if field.ID == "" {
		field.ID = uuid.New().String()
	}

	field.ActivityID = activityID
	field.OrderIndex = len(activity.Fields)
	activity.Fields = append(activity.Fields, field)

	return field, nil
}

// UpdateField replaces the mutable attributes of a field, keeping id,
// activity and order index. Renaming is checked for uniqueness.
func UpdateField(w *models.Workflow, activityID, fieldID string, updated models.FieldDefinition) (*models.FieldDefinition, error) {
	activity := w.ActivityByID(activityID)
	if activity == nil {
		return nil, fmt.Errorf("update field on %s: %w", activityID, ErrActivityNotFound)
	}

	var target *models.FieldDefinition

	for _, f := range activity.Fields {
		if f.ID == fieldID {
			target = f

			break
		}
	}

	if target == nil {
		return nil, fmt.Errorf("update field %s: %w", fieldID, ErrFieldNotFound)
	}

	if !updated.Type.Valid() {
		return nil, fmt.Errorf("field type %q: %w", updated.Type, ErrInvalidFieldType)
	}

	if updated.Name != target.Name {
		if !fieldNamePattern.MatchString(updated.Name) {
			return nil, fmt.Errorf("field name %q: %w", updated.Name, ErrInvalidFieldName)
		}

		for _, f := range activity.Fields {
			if f.ID != fieldID && f.Name == updated.Name {
				return nil, fmt.Errorf("field name %q: %w", updated.Name, ErrDuplicateFieldName)
			}
		}
	}

	target.Name = updated.Name
	target.Label = updated.Label
	target.Type = updated.Type
	target.Required = updated.Required
	target.Options = updated.Options
	target.Min = updated.Min
	target.Max = updated.Max
	target.Pattern = updated.Pattern
	target.Source = updated.Source
	target.VisibilityCondition = updated.VisibilityCondition

	return target, nil
}

// RemoveField deletes a field and renumbers the remaining order indexes so
// they stay contiguous 0..n-1 in the surviving order.
func RemoveField(w *models.Workflow, activityID, fieldID string) error {
	activity := w.ActivityByID(activityID)
	if activity == nil {
		return fmt.Errorf("remove field on %s: %w", activityID, ErrActivityNotFound)
	}

	idx := -1

	for i, f := range activity.Fields {
		if f.ID == fieldID {
			idx = i

			break
		}
	}

	if idx < 0 {
		return fmt.Errorf("remove field %s: %w", fieldID, ErrFieldNotFound)
	}

	activity.Fields = append(activity.Fields[:idx], activity.Fields[idx+1:]...)
	renumber(activity)

	return nil
}

// ReorderField moves a field to a new position and renumbers the sequence.
// Positions outside the valid range clamp to the ends.
func ReorderField(w *models.Workflow, activityID, fieldID string, newIndex int) error {
	activity := w.ActivityByID(activityID)
	if activity == nil {
		return fmt.Errorf("reorder field on %s: %w", activityID, ErrActivityNotFound)
	}

	idx := -1

	for i, f := range activity.Fields {
		if f.ID == fieldID {
			idx = i

			break
		}
	}

	if idx < 0 {
		return fmt.Errorf("reorder field %s: %w", fieldID, ErrFieldNotFound)
	}

	if newIndex < 0 {
		newIndex = 0
	}

	if newIndex >= len(activity.Fields) {
		newIndex = len(activity.Fields) - 1
	}

	field := activity.Fields[idx]
	activity.Fields = append(activity.Fields[:idx], activity.Fields[idx+1:]...)
	activity.Fields = append(activity.Fields[:newIndex],
		append([]*models.FieldDefinition{field}, activity.Fields[newIndex:]...)...)
	renumber(activity)

	return nil
}

func renumber(activity *models.Activity) {
	for i, f := range activity.Fields {
		f.OrderIndex = i
	}
}
