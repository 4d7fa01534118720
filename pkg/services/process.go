package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/procline/procline/pkg/analytics"
	"github.com/procline/procline/pkg/assignment"
	"github.com/procline/procline/pkg/designer"
	"github.com/procline/procline/pkg/diag"
	"github.com/procline/procline/pkg/engine"
	"github.com/procline/procline/pkg/models"
	"github.com/procline/procline/pkg/persistence"
)

// Directory supplies pool membership for assignment resolution. Org tenancy
// lives outside this module; the server wires a concrete directory in.
type Directory interface {
	DepartmentMembers(ctx context.Context) (map[string][]string, error)
	PositionMembers(ctx context.Context) (map[string][]string, error)
}

// StaticDirectory is a fixed in-memory Directory, used in tests and
// single-tenant deployments configured from a file.
type StaticDirectory struct {
	Departments map[string][]string
	Positions   map[string][]string
}

func (d StaticDirectory) DepartmentMembers(_ context.Context) (map[string][]string, error) {
	return d.Departments, nil
}

func (d StaticDirectory) PositionMembers(_ context.Context) (map[string][]string, error) {
	return d.Positions, nil
}

// ProcessService runs instances: start, advance, cancel, comment, report.
// Advancement is serialized per instance id; concurrent calls for distinct
// instances proceed independently.
type ProcessService struct {
	persistence persistence.Persistence
	engine      *engine.Engine
	directory   Directory

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewProcessService creates a process service.
func NewProcessService(p persistence.Persistence, e *engine.Engine, directory Directory) *ProcessService {
	if directory == nil {
		directory = StaticDirectory{}
	}

	return &ProcessService{
		persistence: p,
		engine:      e,
		directory:   directory,
		locks:       make(map[string]*sync.Mutex),
	}
}

// lockFor returns the advancement mutex of one instance id.
func (s *ProcessService) lockFor(instanceID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.locks[instanceID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[instanceID] = lock
	}

	return lock
}

// releaseLock drops the mutex of an instance that left the active status.
// Terminal instances reject advancement on status, so a late caller that
// allocates a fresh mutex still fails cleanly.
func (s *ProcessService) releaseLock(instanceID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.locks, instanceID)
}

// StartResult is returned by Start and Advance with any non-fatal findings.
type StartResult struct {
	Instance    *models.ProcessInstance `json:"instance"`
	History     []models.HistoryEntry   `json:"history"`
	Completed   bool                    `json:"completed"`
	Diagnostics []diag.Diagnostic       `json:"diagnostics,omitempty"`
}

// Start instantiates a workflow at the given start activity.
func (s *ProcessService) Start(ctx context.Context, workflowID, startActivityID, initiator string, variables map[string]any) (*StartResult, error) {
	w, err := s.persistence.Workflows().GetByID(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	if !designer.Executable(w) {
		return nil, ErrNotExecutable
	}

	if startActivityID == "" {
		startActivityID = w.StartActivities()[0].ID
	}

	snapshot, err := s.buildSnapshot(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	var diags diag.Collector

	result, err := s.engine.Start(w, startActivityID, initiator, variables, snapshot, &diags)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidRequest, err.Error())
	}

	if err := s.persistence.Instances().Save(ctx, result.Instance); err != nil {
		return nil, err
	}

	if err := s.persistence.Instances().AppendHistory(ctx, result.NewEntries); err != nil {
		return nil, err
	}

	return &StartResult{
		Instance:    result.Instance,
		History:     result.NewEntries,
		Diagnostics: diags.Items(),
	}, nil
}

// Advance submits the current activity of an instance. Calls for the same
// instance id are serialized; the engine call itself is pure and the
// workload snapshot is captured once, before advancement.
func (s *ProcessService) Advance(ctx context.Context, instanceID string, submitted map[string]any, actor string) (*StartResult, error) {
	lock := s.lockFor(instanceID)
	lock.Lock()
	defer lock.Unlock()

	instance, err := s.persistence.Instances().GetByID(ctx, instanceID)
	if err != nil {
		return nil, err
	}

	w, err := s.persistence.Workflows().GetByID(ctx, instance.WorkflowID)
	if err != nil {
		return nil, err
	}

	snapshot, err := s.buildSnapshot(ctx, instance.WorkflowID)
	if err != nil {
		return nil, err
	}

	var diags diag.Collector

	result, err := s.engine.Advance(w, instance, submitted, actor, snapshot, &diags)
	if errors.Is(err, engine.ErrNoViableTransition) {
		return nil, fmt.Errorf("%w: %s", ErrAdvancementFailed, err.Error())
	}

	if errors.Is(err, engine.ErrInstanceNotActive) {
		s.releaseLock(instanceID)

		return nil, fmt.Errorf("%w: %s", ErrInstanceInactive, err.Error())
	}

	if err != nil {
		return nil, err
	}

	if err := s.persistence.Instances().Save(ctx, result.Instance); err != nil {
		return nil, err
	}

	if err := s.persistence.Instances().AppendHistory(ctx, result.NewEntries); err != nil {
		return nil, err
	}

	if result.Completed {
		s.releaseLock(instanceID)
	}

	return &StartResult{
		Instance:    result.Instance,
		History:     result.NewEntries,
		Completed:   result.Completed,
		Diagnostics: diags.Items(),
	}, nil
}

// Cancel marks an active instance cancelled.
func (s *ProcessService) Cancel(ctx context.Context, instanceID, actor string) (*models.ProcessInstance, error) {
	lock := s.lockFor(instanceID)
	lock.Lock()
	defer lock.Unlock()

	instance, err := s.persistence.Instances().GetByID(ctx, instanceID)
	if err != nil {
		return nil, err
	}

	result, err := s.engine.Cancel(instance, actor)
	if errors.Is(err, engine.ErrInstanceNotActive) {
		s.releaseLock(instanceID)

		return nil, fmt.Errorf("%w: %s", ErrInstanceInactive, err.Error())
	}

	if err != nil {
		return nil, err
	}

	if err := s.persistence.Instances().Save(ctx, result.Instance); err != nil {
		return nil, err
	}

	if err := s.persistence.Instances().AppendHistory(ctx, result.NewEntries); err != nil {
		return nil, err
	}

	s.releaseLock(instanceID)

	return result.Instance, nil
}

// Comment appends a comment to the instance history.
func (s *ProcessService) Comment(ctx context.Context, instanceID, actor, comment string) (models.HistoryEntry, error) {
	instance, err := s.persistence.Instances().GetByID(ctx, instanceID)
	if err != nil {
		return models.HistoryEntry{}, err
	}

	entry := s.engine.Comment(instance, actor, comment)

	if err := s.persistence.Instances().AppendHistory(ctx, []models.HistoryEntry{entry}); err != nil {
		return models.HistoryEntry{}, err
	}

	return entry, nil
}

// Get returns one instance.
func (s *ProcessService) Get(ctx context.Context, instanceID string) (*models.ProcessInstance, error) {
	return s.persistence.Instances().GetByID(ctx, instanceID)
}

// ListByWorkflow returns all instances of a workflow.
func (s *ProcessService) ListByWorkflow(ctx context.Context, workflowID string) ([]*models.ProcessInstance, error) {
	return s.persistence.Instances().ListByWorkflow(ctx, workflowID)
}

// History returns the audit log of an instance, timestamp ascending.
func (s *ProcessService) History(ctx context.Context, instanceID string) ([]models.HistoryEntry, error) {
	if _, err := s.persistence.Instances().GetByID(ctx, instanceID); err != nil {
		return nil, err
	}

	return s.persistence.Instances().History(ctx, instanceID)
}

// DurationReport aggregates time spent per activity across all instances of
// a workflow.
type DurationReport struct {
	WorkflowID string             `json:"workflow_id"`
	Hours      map[string]float64 `json:"hours_by_activity"`
}

// Durations builds the duration report for a workflow.
func (s *ProcessService) Durations(ctx context.Context, workflowID string) (*DurationReport, error) {
	entries, err := s.persistence.Instances().HistoryByWorkflow(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	report := &DurationReport{WorkflowID: workflowID, Hours: make(map[string]float64)}

	for activityID, total := range analytics.ActivityDurations(entries) {
		report.Hours[activityID] = total.Hours()
	}

	return report, nil
}

// buildSnapshot captures the workload snapshot used for one advancement.
// The snapshot is consistent (one read of instances, one of history) but may
// be slightly stale, which the resolver tolerates.
func (s *ProcessService) buildSnapshot(ctx context.Context, workflowID string) (assignment.WorkloadSnapshot, error) {
	active, err := s.persistence.Instances().ListActive(ctx)
	if err != nil {
		return assignment.WorkloadSnapshot{}, err
	}

	entries, err := s.persistence.Instances().HistoryByWorkflow(ctx, workflowID)
	if err != nil {
		return assignment.WorkloadSnapshot{}, err
	}

	departments, err := s.directory.DepartmentMembers(ctx)
	if err != nil {
		return assignment.WorkloadSnapshot{}, err
	}

	positions, err := s.directory.PositionMembers(ctx)
	if err != nil {
		return assignment.WorkloadSnapshot{}, err
	}

	return analytics.BuildSnapshot(active, entries, departments, positions), nil
}
