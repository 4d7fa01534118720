package file

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/procline/procline/pkg/models"
	"github.com/procline/procline/pkg/persistence"
)

// WorkflowRepository stores one JSON document per workflow, graph included.
// Saving rewrites the whole document, which gives the batch-upsert plus
// orphan-cleanup semantics of the contract for free.
type WorkflowRepository struct {
	root string
}

func (r *WorkflowRepository) path(id string) string {
	return filepath.Join(r.root, "workflows", id+".json")
}

func (r *WorkflowRepository) List(ctx context.Context) ([]*models.Workflow, error) {
	entries, err := fs.Glob(os.DirFS(filepath.Join(r.root, "workflows")), "*.json")
	if err != nil {
		return nil, persistence.NewStoreError("List", "", err)
	}

	sort.Strings(entries)

	workflows := make([]*models.Workflow, 0, len(entries))

	for _, name := range entries {
		w, err := r.GetByID(ctx, name[:len(name)-len(".json")])
		if err != nil {
			return nil, err
		}

		workflows = append(workflows, w)
	}

	return workflows, nil
}

func (r *WorkflowRepository) GetByID(_ context.Context, id string) (*models.Workflow, error) {
	data, err := os.ReadFile(r.path(id))
	if os.IsNotExist(err) {
		return nil, persistence.NewStoreError("GetByID", id, persistence.ErrWorkflowNotFound)
	}

	if err != nil {
		return nil, persistence.NewStoreError("GetByID", id, err)
	}

	var w models.Workflow

	if err := json.Unmarshal(data, &w); err != nil {
		return nil, persistence.NewStoreError("GetByID", id, fmt.Errorf("decode workflow: %w", err))
	}

	// Loosely-typed config is validated when loaded, not trusted at use.
	for _, a := range w.Activities {
		for _, action := range a.Actions {
			if err := models.ValidateAutomatedAction(action); err != nil {
				return nil, persistence.NewStoreError("GetByID", id, err)
			}
		}
	}

	return &w, nil
}

func (r *WorkflowRepository) Save(_ context.Context, workflow *models.Workflow) error {
	data, err := json.MarshalIndent(workflow, "", "  ")
	if err != nil {
		return persistence.NewStoreError("Save", workflow.ID, err)
	}

	tmp := r.path(workflow.ID) + ".tmp"

	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return persistence.NewStoreError("Save", workflow.ID, err)
	}

	if err := os.Rename(tmp, r.path(workflow.ID)); err != nil {
		return persistence.NewStoreError("Save", workflow.ID, err)
	}

	return nil
}

func (r *WorkflowRepository) Delete(_ context.Context, id string) error {
	err := os.Remove(r.path(id))
	if os.IsNotExist(err) {
		return persistence.NewStoreError("Delete", id, persistence.ErrWorkflowNotFound)
	}

	if err != nil {
		return persistence.NewStoreError("Delete", id, err)
	}

	return nil
}
