// Package engine advances process instances across the activity graph.
// Advance is a pure state transform over an immutable graph snapshot: it
// either succeeds with a mutated instance plus new history entries, or fails
// fast leaving the instance untouched. The caller serializes calls per
// instance and performs all I/O around the engine.
package engine

import (
	"errors"
	"fmt"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"

	"github.com/procline/procline/pkg/assignment"
	"github.com/procline/procline/pkg/conditions"
	"github.com/procline/procline/pkg/diag"
	"github.com/procline/procline/pkg/models"
)

var (
	// ErrNoViableTransition indicates no outgoing transition condition held.
	// The advance request is rejected; the instance is unchanged.
	ErrNoViableTransition = errors.New("no viable transition")

	// ErrInstanceNotActive indicates the instance is completed or cancelled.
	ErrInstanceNotActive = errors.New("instance is not active")

	// ErrActivityNotInGraph indicates the instance points at an activity the
	// graph snapshot does not contain.
	ErrActivityNotInGraph = errors.New("current activity not in graph")
)

// Engine evaluates transitions and resolves assignees. Safe for concurrent
// use across distinct instances.
type Engine struct {
	evaluator *conditions.Evaluator
	resolver  *assignment.Resolver
	clock     clock.Clock
}

// New creates an engine. A nil clock defaults to wall time.
func New(evaluator *conditions.Evaluator, resolver *assignment.Resolver, clk clock.Clock) *Engine {
	if clk == nil {
		clk = clock.New()
	}

	return &Engine{evaluator: evaluator, resolver: resolver, clock: clk}
}

// Result is the outcome of a successful Advance.
type Result struct {
	Instance   *models.ProcessInstance
	NewEntries []models.HistoryEntry
	Completed  bool
}

// Start instantiates a workflow at the given start activity. The initiator
// becomes the creator; the start activity's assignment is resolved
// immediately so the first step has an owner.
func (e *Engine) Start(
	w *models.Workflow,
	startActivityID string,
	initiator string,
	variables map[string]any,
	snapshot assignment.WorkloadSnapshot,
	diags *diag.Collector,
) (*Result, error) {
	start := w.ActivityByID(startActivityID)
	if start == nil {
		return nil, fmt.Errorf("start activity %s: %w", startActivityID, ErrActivityNotInGraph)
	}

	if !start.IsStart() {
		return nil, fmt.Errorf("activity %s is %s, not a start activity", startActivityID, start.Kind)
	}

	now := e.clock.Now().UTC()

	instance := &models.ProcessInstance{
		ID:                uuid.New().String(),
		WorkflowID:        w.ID,
		CurrentActivityID: start.ID,
		Status:            models.InstanceStatusActive,
		CreatedBy:         initiator,
		CreatedAt:         now,
		Assignment:        e.resolver.Resolve(start.Assignment, initiator, snapshot, diags),
		Variables:         variables,
	}

	started := models.HistoryEntry{
		ID:         uuid.New().String(),
		ProcessID:  instance.ID,
		ActivityID: start.ID,
		Action:     models.HistoryActionStarted,
		Timestamp:  now,
		UserID:     initiator,
	}

	return &Result{Instance: instance, NewEntries: []models.HistoryEntry{started}}, nil
}

// Advance submits the current activity and moves the instance along the
// first transition whose condition holds, in definition order. Submitted
// variables are merged over the accumulated ones before evaluation.
//
// On ErrNoViableTransition the instance is returned to the caller exactly as
// it was: no history is produced and no field changes.
func (e *Engine) Advance(
	w *models.Workflow,
	instance *models.ProcessInstance,
	submitted map[string]any,
	actor string,
	snapshot assignment.WorkloadSnapshot,
	diags *diag.Collector,
) (*Result, error) {
	if instance.Status != models.InstanceStatusActive {
		return nil, fmt.Errorf("instance %s: %w", instance.ID, ErrInstanceNotActive)
	}

	current := w.ActivityByID(instance.CurrentActivityID)
	if current == nil {
		return nil, fmt.Errorf("instance %s at %s: %w", instance.ID, instance.CurrentActivityID, ErrActivityNotInGraph)
	}

	variables := mergeVariables(instance.Variables, submitted)

	next := e.pickTransition(w, current.ID, variables, diags)
	if next == nil {
		return nil, fmt.Errorf("instance %s at activity %q: %w", instance.ID, current.Name, ErrNoViableTransition)
	}

	target := w.ActivityByID(next.TargetID)
	if target == nil {
		return nil, fmt.Errorf("transition %s target %s: %w", next.ID, next.TargetID, ErrActivityNotInGraph)
	}

	now := e.clock.Now().UTC()

	completed := models.HistoryEntry{
		ID:         uuid.New().String(),
		ProcessID:  instance.ID,
		ActivityID: current.ID,
		Action:     models.HistoryActionCompleted,
		Data:       submitted,
		Timestamp:  now,
		UserID:     actor,
	}

	started := models.HistoryEntry{
		ID:         uuid.New().String(),
		ProcessID:  instance.ID,
		ActivityID: target.ID,
		Action:     models.HistoryActionStarted,
		Timestamp:  now,
		UserID:     actor,
	}

	instance.CurrentActivityID = target.ID
	instance.Variables = variables
	instance.Assignment = e.resolver.Resolve(target.Assignment, instance.CreatedBy, snapshot, diags)

	result := &Result{
		Instance:   instance,
		NewEntries: []models.HistoryEntry{completed, started},
	}

	if target.IsEnd() {
		instance.Status = models.InstanceStatusCompleted
		result.Completed = true
	}

	return result, nil
}

// Cancel marks an active instance cancelled and records who did it.
func (e *Engine) Cancel(instance *models.ProcessInstance, actor string) (*Result, error) {
	if instance.Status != models.InstanceStatusActive {
		return nil, fmt.Errorf("instance %s: %w", instance.ID, ErrInstanceNotActive)
	}

	instance.Status = models.InstanceStatusCancelled

	entry := models.HistoryEntry{
		ID:         uuid.New().String(),
		ProcessID:  instance.ID,
		ActivityID: instance.CurrentActivityID,
		Action:     models.HistoryActionCommented,
		Comment:    "cancelled",
		Timestamp:  e.clock.Now().UTC(),
		UserID:     actor,
	}

	return &Result{Instance: instance, NewEntries: []models.HistoryEntry{entry}}, nil
}

// Comment appends a comment entry without moving the instance.
func (e *Engine) Comment(instance *models.ProcessInstance, actor, comment string) models.HistoryEntry {
	return models.HistoryEntry{
		ID:         uuid.New().String(),
		ProcessID:  instance.ID,
		ActivityID: instance.CurrentActivityID,
		Action:     models.HistoryActionCommented,
		Comment:    comment,
		Timestamp:  e.clock.Now().UTC(),
		UserID:     actor,
	}
}

// pickTransition returns the first transition out of activityID whose
// condition evaluates true, in the order transitions were defined. The engine
// applies no reordering; an unconditioned catch-all only acts as a fallback
// if the designer placed it last.
func (e *Engine) pickTransition(w *models.Workflow, activityID string, variables map[string]any, diags *diag.Collector) *models.Transition {
	for _, t := range w.TransitionsFrom(activityID) {
		if e.evaluator.Evaluate(t.Condition, variables, t.ID, diags) {
			return t
		}
	}

	return nil
}

func mergeVariables(accumulated, submitted map[string]any) map[string]any {
	merged := make(map[string]any, len(accumulated)+len(submitted))

	for k, v := range accumulated {
		merged[k] = v
	}

	for k, v := range submitted {
		merged[k] = v
	}

	return merged
}
