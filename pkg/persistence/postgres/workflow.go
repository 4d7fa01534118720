package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lib/pq"

	"github.com/procline/procline/pkg/models"
	"github.com/procline/procline/pkg/persistence"
)

// WorkflowRepository handles workflow-related database operations. The graph
// is normalized into activities and transitions rows; activity documents
// (fields, assignment, actions) travel as JSONB. Save is a batch upsert in
// one transaction with delete-not-in-set orphan cleanup.
type WorkflowRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func (r *WorkflowRepository) List(ctx context.Context) ([]*models.Workflow, error) {
	query := `
		SELECT id, name, description, status, owner, created_at, updated_at
		FROM workflows
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, persistence.NewStoreError("List", "", err)
	}

	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	workflows := make([]*models.Workflow, 0)

	for rows.Next() {
		var w models.Workflow

		err := rows.Scan(&w.ID, &w.Name, &w.Description, &w.Status, &w.Owner, &w.CreatedAt, &w.UpdatedAt)
		if err != nil {
			return nil, persistence.NewStoreError("List", "", err)
		}

		if err := r.loadGraph(ctx, &w); err != nil {
			return nil, err
		}

		workflows = append(workflows, &w)
	}

	if err := rows.Err(); err != nil {
		return nil, persistence.NewStoreError("List", "", err)
	}

	return workflows, nil
}

func (r *WorkflowRepository) GetByID(ctx context.Context, id string) (*models.Workflow, error) {
	query := `
		SELECT id, name, description, status, owner, created_at, updated_at
		FROM workflows
		WHERE id = $1
	`

	var w models.Workflow

	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&w.ID, &w.Name, &w.Description, &w.Status, &w.Owner, &w.CreatedAt, &w.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, persistence.NewStoreError("GetByID", id, persistence.ErrWorkflowNotFound)
	}

	if err != nil {
		return nil, persistence.NewStoreError("GetByID", id, err)
	}

	if err := r.loadGraph(ctx, &w); err != nil {
		return nil, err
	}

	return &w, nil
}

func (r *WorkflowRepository) loadGraph(ctx context.Context, w *models.Workflow) error {
	activityRows, err := r.db.QueryContext(ctx,
		`SELECT doc FROM activities WHERE workflow_id = $1 ORDER BY position`, w.ID)
	if err != nil {
		return persistence.NewStoreError("loadGraph", w.ID, err)
	}

	defer func() {
		if err := activityRows.Close(); err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	w.Activities = make([]*models.Activity, 0)

	for activityRows.Next() {
		var doc []byte

		if err := activityRows.Scan(&doc); err != nil {
			return persistence.NewStoreError("loadGraph", w.ID, err)
		}

		var a models.Activity

		if err := json.Unmarshal(doc, &a); err != nil {
			return persistence.NewStoreError("loadGraph", w.ID, fmt.Errorf("decode activity: %w", err))
		}

		// Loosely-typed config is validated when loaded, not trusted at use.
		for _, action := range a.Actions {
			if err := models.ValidateAutomatedAction(action); err != nil {
				return persistence.NewStoreError("loadGraph", w.ID, err)
			}
		}

		w.Activities = append(w.Activities, &a)
	}

	if err := activityRows.Err(); err != nil {
		return persistence.NewStoreError("loadGraph", w.ID, err)
	}

	transitionRows, err := r.db.QueryContext(ctx,
		`SELECT id, source_id, target_id, condition FROM transitions WHERE workflow_id = $1 ORDER BY position`, w.ID)
	if err != nil {
		return persistence.NewStoreError("loadGraph", w.ID, err)
	}

	defer func() {
		if err := transitionRows.Close(); err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	w.Transitions = make([]*models.Transition, 0)

	for transitionRows.Next() {
		t := models.Transition{WorkflowID: w.ID}

		if err := transitionRows.Scan(&t.ID, &t.SourceID, &t.TargetID, &t.Condition); err != nil {
			return persistence.NewStoreError("loadGraph", w.ID, err)
		}

		w.Transitions = append(w.Transitions, &t)
	}

	return transitionRows.Err()
}

func (r *WorkflowRepository) Save(ctx context.Context, workflow *models.Workflow) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return persistence.NewStoreError("Save", workflow.ID, err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO workflows (id, name, description, status, owner, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			status = EXCLUDED.status,
			owner = EXCLUDED.owner,
			updated_at = EXCLUDED.updated_at
	`, workflow.ID, workflow.Name, workflow.Description, workflow.Status, workflow.Owner,
		workflow.CreatedAt, workflow.UpdatedAt)
	if err != nil {
		return persistence.NewStoreError("Save", workflow.ID, err)
	}

	activityIDs := make([]string, 0, len(workflow.Activities))

	for i, a := range workflow.Activities {
		var doc []byte

		doc, err = json.Marshal(a)
		if err != nil {
			return persistence.NewStoreError("Save", workflow.ID, err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO activities (id, workflow_id, doc, position)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (id) DO UPDATE SET doc = EXCLUDED.doc, position = EXCLUDED.position
		`, a.ID, workflow.ID, doc, i)
		if err != nil {
			return persistence.NewStoreError("Save", workflow.ID, err)
		}

		activityIDs = append(activityIDs, a.ID)
	}

	transitionIDs := make([]string, 0, len(workflow.Transitions))

	for i, t := range workflow.Transitions {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO transitions (id, workflow_id, source_id, target_id, condition, position)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (id) DO UPDATE SET
				source_id = EXCLUDED.source_id,
				target_id = EXCLUDED.target_id,
				condition = EXCLUDED.condition,
				position = EXCLUDED.position
		`, t.ID, workflow.ID, t.SourceID, t.TargetID, t.Condition, i)
		if err != nil {
			return persistence.NewStoreError("Save", workflow.ID, err)
		}

		transitionIDs = append(transitionIDs, t.ID)
	}

	// Orphan cleanup: graph elements dropped from the model are deleted.
	_, err = tx.ExecContext(ctx,
		`DELETE FROM activities WHERE workflow_id = $1 AND id <> ALL($2)`,
		workflow.ID, pq.Array(activityIDs))
	if err != nil {
		return persistence.NewStoreError("Save", workflow.ID, err)
	}

	_, err = tx.ExecContext(ctx,
		`DELETE FROM transitions WHERE workflow_id = $1 AND id <> ALL($2)`,
		workflow.ID, pq.Array(transitionIDs))
	if err != nil {
		return persistence.NewStoreError("Save", workflow.ID, err)
	}

	if err = tx.Commit(); err != nil {
		return persistence.NewStoreError("Save", workflow.ID, err)
	}

	return nil
}

func (r *WorkflowRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM workflows WHERE id = $1`, id)
	if err != nil {
		return persistence.NewStoreError("Delete", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return persistence.NewStoreError("Delete", id, err)
	}

	if affected == 0 {
		return persistence.NewStoreError("Delete", id, persistence.ErrWorkflowNotFound)
	}

	return nil
}
