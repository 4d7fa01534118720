package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/procline/procline/pkg/models"
	"github.com/procline/procline/pkg/persistence"
)

// InstanceRepository handles instance and history database operations.
// History rows are insert-only; there is no update or delete path.
type InstanceRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func (r *InstanceRepository) GetByID(ctx context.Context, id string) (*models.ProcessInstance, error) {
	query := `
		SELECT id, workflow_id, current_activity_id, status, created_by, created_at, assignment, variables
		FROM instances
		WHERE id = $1
	`

	instance, err := scanInstance(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, persistence.NewStoreError("GetByID", id, persistence.ErrInstanceNotFound)
	}

	if err != nil {
		return nil, persistence.NewStoreError("GetByID", id, err)
	}

	return instance, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInstance(row rowScanner) (*models.ProcessInstance, error) {
	var (
		instance      models.ProcessInstance
		assignmentDoc []byte
		variablesDoc  []byte
	)

	err := row.Scan(&instance.ID, &instance.WorkflowID, &instance.CurrentActivityID,
		&instance.Status, &instance.CreatedBy, &instance.CreatedAt, &assignmentDoc, &variablesDoc)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(assignmentDoc, &instance.Assignment); err != nil {
		return nil, err
	}

	if len(variablesDoc) > 0 {
		if err := json.Unmarshal(variablesDoc, &instance.Variables); err != nil {
			return nil, err
		}
	}

	return &instance, nil
}

func (r *InstanceRepository) ListByWorkflow(ctx context.Context, workflowID string) ([]*models.ProcessInstance, error) {
	query := `
		SELECT id, workflow_id, current_activity_id, status, created_by, created_at, assignment, variables
		FROM instances
		WHERE workflow_id = $1
		ORDER BY created_at
	`

	return r.list(ctx, query, workflowID)
}

func (r *InstanceRepository) ListActive(ctx context.Context) ([]*models.ProcessInstance, error) {
	query := `
		SELECT id, workflow_id, current_activity_id, status, created_by, created_at, assignment, variables
		FROM instances
		WHERE status = $1
		ORDER BY created_at
	`

	return r.list(ctx, query, string(models.InstanceStatusActive))
}

func (r *InstanceRepository) list(ctx context.Context, query string, arg any) ([]*models.ProcessInstance, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, persistence.NewStoreError("List", "", err)
	}

	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	instances := make([]*models.ProcessInstance, 0)

	for rows.Next() {
		instance, err := scanInstance(rows)
		if err != nil {
			return nil, persistence.NewStoreError("List", "", err)
		}

		instances = append(instances, instance)
	}

	if err := rows.Err(); err != nil {
		return nil, persistence.NewStoreError("List", "", err)
	}

	return instances, nil
}

func (r *InstanceRepository) Save(ctx context.Context, instance *models.ProcessInstance) error {
	assignmentDoc, err := json.Marshal(instance.Assignment)
	if err != nil {
		return persistence.NewStoreError("Save", instance.ID, err)
	}

	variablesDoc, err := json.Marshal(instance.Variables)
	if err != nil {
		return persistence.NewStoreError("Save", instance.ID, err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO instances (id, workflow_id, current_activity_id, status, created_by, created_at, assignment, variables)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			current_activity_id = EXCLUDED.current_activity_id,
			status = EXCLUDED.status,
			assignment = EXCLUDED.assignment,
			variables = EXCLUDED.variables
	`, instance.ID, instance.WorkflowID, instance.CurrentActivityID, instance.Status,
		instance.CreatedBy, instance.CreatedAt, assignmentDoc, variablesDoc)
	if err != nil {
		return persistence.NewStoreError("Save", instance.ID, err)
	}

	return nil
}

func (r *InstanceRepository) History(ctx context.Context, processID string) ([]models.HistoryEntry, error) {
	query := `
		SELECT id, process_id, activity_id, action, comment, data, timestamp, user_id
		FROM history
		WHERE process_id = $1
		ORDER BY timestamp
	`

	return r.history(ctx, query, processID)
}

func (r *InstanceRepository) HistoryByWorkflow(ctx context.Context, workflowID string) ([]models.HistoryEntry, error) {
	query := `
		SELECT h.id, h.process_id, h.activity_id, h.action, h.comment, h.data, h.timestamp, h.user_id
		FROM history h
		JOIN instances i ON i.id = h.process_id
		WHERE i.workflow_id = $1
		ORDER BY h.timestamp
	`

	return r.history(ctx, query, workflowID)
}

func (r *InstanceRepository) history(ctx context.Context, query string, arg any) ([]models.HistoryEntry, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, persistence.NewStoreError("History", "", err)
	}

	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	entries := make([]models.HistoryEntry, 0)

	for rows.Next() {
		var (
			entry   models.HistoryEntry
			dataDoc []byte
		)

		err := rows.Scan(&entry.ID, &entry.ProcessID, &entry.ActivityID, &entry.Action,
			&entry.Comment, &dataDoc, &entry.Timestamp, &entry.UserID)
		if err != nil {
			return nil, persistence.NewStoreError("History", "", err)
		}

		if len(dataDoc) > 0 {
			if err := json.Unmarshal(dataDoc, &entry.Data); err != nil {
				return nil, persistence.NewStoreError("History", "", err)
			}
		}

		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, persistence.NewStoreError("History", "", err)
	}

	return entries, nil
}

func (r *InstanceRepository) AppendHistory(ctx context.Context, entries []models.HistoryEntry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return persistence.NewStoreError("AppendHistory", "", err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, entry := range entries {
		var dataDoc []byte

		dataDoc, err = json.Marshal(entry.Data)
		if err != nil {
			return persistence.NewStoreError("AppendHistory", entry.ID, err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO history (id, process_id, activity_id, action, comment, data, timestamp, user_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, entry.ID, entry.ProcessID, entry.ActivityID, entry.Action,
			entry.Comment, dataDoc, entry.Timestamp, entry.UserID)
		if err != nil {
			return persistence.NewStoreError("AppendHistory", entry.ID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return persistence.NewStoreError("AppendHistory", "", err)
	}

	return nil
}
