package services

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/procline/procline/pkg/bpmn"
	"github.com/procline/procline/pkg/designer"
	"github.com/procline/procline/pkg/diag"
	"github.com/procline/procline/pkg/layout"
	"github.com/procline/procline/pkg/models"
	"github.com/procline/procline/pkg/persistence"
)

// WorkflowService owns designer-side operations: definition CRUD, graph
// edits, validation, auto-layout and interchange import/export. Each edit
// loads the definition, mutates it in memory and persists the batch.
type WorkflowService struct {
	persistence persistence.Persistence
	validate    *validator.Validate
	layoutCfg   layout.Config
}

// NewWorkflowService creates a workflow service.
func NewWorkflowService(p persistence.Persistence) *WorkflowService {
	return &WorkflowService{
		persistence: p,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
		layoutCfg:   layout.DefaultConfig(),
	}
}

// HealthCheck checks the health of the persistence layer.
func (s *WorkflowService) HealthCheck(ctx context.Context) (string, bool) {
	if err := s.persistence.HealthCheck(ctx); err != nil {
		return "persistence layer is unhealthy: " + err.Error(), false
	}

	return "persistence layer is healthy", true
}

// List returns all workflow definitions.
func (s *WorkflowService) List(ctx context.Context) ([]*models.Workflow, error) {
	return s.persistence.Workflows().List(ctx)
}

// Get returns one workflow with its validation diagnostics.
func (s *WorkflowService) Get(ctx context.Context, id string) (*models.Workflow, []diag.Diagnostic, error) {
	w, err := s.persistence.Workflows().GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	var diags diag.Collector

	designer.Validate(w, &diags)

	return w, diags.Items(), nil
}

// Create adds a new workflow definition.
func (s *WorkflowService) Create(ctx context.Context, workflow *models.Workflow) (*models.Workflow, error) {
	if workflow == nil {
		return nil, ErrWorkflowNil
	}

	if workflow.Name == "" {
		return nil, ErrWorkflowNameRequired
	}

	now := time.Now().UTC()
	workflow.ID = uuid.New().String()
	workflow.CreatedAt = now
	workflow.UpdatedAt = now

	if workflow.Status == "" {
		workflow.Status = models.WorkflowStatusDraft
	}

	if err := s.validate.Struct(workflow); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidRequest, err.Error())
	}

	if err := s.persistence.Workflows().Save(ctx, workflow); err != nil {
		return nil, fmt.Errorf("failed to create workflow: %w", err)
	}

	return workflow, nil
}

// Update replaces a workflow definition, keeping identity and creation time.
func (s *WorkflowService) Update(ctx context.Context, id string, workflow *models.Workflow) (*models.Workflow, error) {
	existing, err := s.persistence.Workflows().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	workflow.ID = id
	workflow.CreatedAt = existing.CreatedAt
	workflow.UpdatedAt = time.Now().UTC()

	if err := s.validate.Struct(workflow); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidRequest, err.Error())
	}

	if err := s.persistence.Workflows().Save(ctx, workflow); err != nil {
		return nil, fmt.Errorf("failed to update workflow: %w", err)
	}

	return workflow, nil
}

// Delete removes a workflow definition.
func (s *WorkflowService) Delete(ctx context.Context, id string) error {
	return s.persistence.Workflows().Delete(ctx, id)
}

// Edit loads a workflow, applies fn to it and persists the result when fn
// succeeds. Graph edit endpoints (activities, fields, transitions) all pass
// through here so a failed edit never half-saves.
func (s *WorkflowService) Edit(ctx context.Context, id string, fn func(*models.Workflow) error) (*models.Workflow, error) {
	w, err := s.persistence.Workflows().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := fn(w); err != nil {
		return nil, err
	}

	w.UpdatedAt = time.Now().UTC()

	if err := s.persistence.Workflows().Save(ctx, w); err != nil {
		return nil, fmt.Errorf("failed to save workflow: %w", err)
	}

	return w, nil
}

// AutoLayout recomputes positions for the whole graph and persists them.
func (s *WorkflowService) AutoLayout(ctx context.Context, id string) (*models.Workflow, error) {
	return s.Edit(ctx, id, func(w *models.Workflow) error {
		layout.Apply(w, s.layoutCfg)

		return nil
	})
}

// Export serializes the workflow to the interchange dialect.
func (s *WorkflowService) Export(ctx context.Context, id string) ([]byte, error) {
	w, err := s.persistence.Workflows().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return bpmn.Export(w)
}

// Import creates a new workflow from an interchange document. The import is
// all-or-nothing: nothing is persisted when parsing fails.
func (s *WorkflowService) Import(ctx context.Context, name, owner string, data []byte) (*models.Workflow, error) {
	activities, transitions, err := bpmn.Import(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrImportFailed, err.Error())
	}

	now := time.Now().UTC()

	w := &models.Workflow{
		ID:          uuid.New().String(),
		Name:        name,
		Status:      models.WorkflowStatusDraft,
		Activities:  activities,
		Transitions: transitions,
		Owner:       owner,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	for _, a := range w.Activities {
		a.WorkflowID = w.ID
	}

	for _, t := range w.Transitions {
		t.WorkflowID = w.ID
	}

	if err := s.persistence.Workflows().Save(ctx, w); err != nil {
		return nil, fmt.Errorf("failed to save imported workflow: %w", err)
	}

	return w, nil
}
