// Package persistence provides the data storage abstraction for workflow
// definitions, process instances and history. The core packages never touch
// it; services call it around the pure operations.
package persistence

import (
	"context"

	"github.com/procline/procline/pkg/models"
)

// Persistence is the storage root handed to services.
type Persistence interface {
	Workflows() WorkflowRepository
	Instances() InstanceRepository
	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}

// WorkflowRepository stores workflow definitions with their full graph.
type WorkflowRepository interface {
	List(ctx context.Context) ([]*models.Workflow, error)
	GetByID(ctx context.Context, id string) (*models.Workflow, error)
	// Save upserts the workflow and its activities, fields and transitions
	// as one batch; graph elements no longer referenced are deleted
	// (orphan cleanup against the saved id set).
	Save(ctx context.Context, workflow *models.Workflow) error
	Delete(ctx context.Context, id string) error
}

// InstanceRepository stores process instances and their append-only history.
type InstanceRepository interface {
	GetByID(ctx context.Context, id string) (*models.ProcessInstance, error)
	ListByWorkflow(ctx context.Context, workflowID string) ([]*models.ProcessInstance, error)
	ListActive(ctx context.Context) ([]*models.ProcessInstance, error)
	Save(ctx context.Context, instance *models.ProcessInstance) error
	// History returns entries for a process ordered by timestamp ascending.
	History(ctx context.Context, processID string) ([]models.HistoryEntry, error)
	// HistoryByWorkflow returns entries across all instances of a workflow,
	// used by analytics.
	HistoryByWorkflow(ctx context.Context, workflowID string) ([]models.HistoryEntry, error)
	// AppendHistory writes new entries. Entries are never updated or
	// deleted once written.
	AppendHistory(ctx context.Context, entries []models.HistoryEntry) error
}
