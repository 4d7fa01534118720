package file

import (
	"bufio"
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

// InstanceRepository stores one JSON document per instance and an append-only
// JSON-lines log per process for history.
type InstanceRepository struct {
	root string
}

func (r *InstanceRepository) path(id string) string {
	return filepath.Join(r.root, "instances", id+".json")
}

func (r *InstanceRepository) historyPath(processID string) string {
	return filepath.Join(r.root, "history", processID+".jsonl")
}

func (r *InstanceRepository) GetByID(_ context.Context, id string) (*models.ProcessInstance, error) {
	data, err := os.ReadFile(r.path(id))
	if os.IsNotExist(err) {
		return nil, persistence.NewStoreError("GetByID", id, persistence.ErrInstanceNotFound)
	}

	if err != nil {
		return nil, persistence.NewStoreError("GetByID", id, err)
	}

	var instance models.ProcessInstance

	if err := json.Unmarshal(data, &instance); err != nil {
		return nil, persistence.NewStoreError("GetByID", id, fmt.Errorf("decode instance: %w", err))
	}

	return &instance, nil
}

func (r *InstanceRepository) ListByWorkflow(ctx context.Context, workflowID string) ([]*models.ProcessInstance, error) {
	return r.list(ctx, func(i *models.ProcessInstance) bool {
		return i.WorkflowID == workflowID
	})
}

func (r *InstanceRepository) ListActive(ctx context.Context) ([]*models.ProcessInstance, error) {
	return r.list(ctx, func(i *models.ProcessInstance) bool {
		return i.Status == models.InstanceStatusActive
	})
}

func (r *InstanceRepository) list(ctx context.Context, keep func(*models.ProcessInstance) bool) ([]*models.ProcessInstance, error) {
	names, err := fs.Glob(os.DirFS(filepath.Join(r.root, "instances")), "*.json")
	if err != nil {
		return nil, persistence.NewStoreError("List", "", err)
	}

	sort.Strings(names)

	instances := make([]*models.ProcessInstance, 0, len(names))

	for _, name := range names {
		instance, err := r.GetByID(ctx, name[:len(name)-len(".json")])
		if err != nil {
			return nil, err
		}

		if keep(instance) {
			instances = append(instances, instance)
		}
	}

	return instances, nil
}

func (r *InstanceRepository) Save(_ context.Context, instance *models.ProcessInstance) error {
	data, err := json.MarshalIndent(instance, "", "  ")
	if err != nil {
		return persistence.NewStoreError("Save", instance.ID, err)
	}

	tmp := r.path(instance.ID) + ".tmp"

	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return persistence.NewStoreError("Save", instance.ID, err)
	}

	if err := os.Rename(tmp, r.path(instance.ID)); err != nil {
		return persistence.NewStoreError("Save", instance.ID, err)
	}

	return nil
}

func (r *InstanceRepository) History(_ context.Context, processID string) ([]models.HistoryEntry, error) {
	f, err := os.Open(r.historyPath(processID))
	if os.IsNotExist(err) {
		return []models.HistoryEntry{}, nil
	}

	if err != nil {
		return nil, persistence.NewStoreError("History", processID, err)
	}

	defer f.Close()

	var entries []models.HistoryEntry

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var entry models.HistoryEntry

		if err := json.Unmarshal(line, &entry); err != nil {
			return nil, persistence.NewStoreError("History", processID, fmt.Errorf("decode entry: %w", err))
		}

		entries = append(entries, entry)
	}

	if err := scanner.Err(); err != nil {
		return nil, persistence.NewStoreError("History", processID, err)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.Before(entries[j].Timestamp)
	})

	return entries, nil
}

func (r *InstanceRepository) HistoryByWorkflow(ctx context.Context, workflowID string) ([]models.HistoryEntry, error) {
	instances, err := r.ListByWorkflow(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	var all []models.HistoryEntry

	for _, instance := range instances {
		entries, err := r.History(ctx, instance.ID)
		if err != nil {
			return nil, err
		}

		all = append(all, entries...)
	}

	return all, nil
}

func (r *InstanceRepository) AppendHistory(_ context.Context, entries []models.HistoryEntry) error {
	for _, entry := range entries {
		f, err := os.OpenFile(r.historyPath(entry.ProcessID), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return persistence.NewStoreError("AppendHistory", entry.ProcessID, err)
		}

		line, err := json.Marshal(entry)
		if err != nil {
			f.Close()

			return persistence.NewStoreError("AppendHistory", entry.ProcessID, err)
		}

		if _, err := f.Write(append(line, '\n')); err != nil {
			f.Close()

			return persistence.NewStoreError("AppendHistory", entry.ProcessID, err)
		}

		if err := f.Close(); err != nil {
			return persistence.NewStoreError("AppendHistory", entry.ProcessID, err)
		}
	}

	return nil
}
