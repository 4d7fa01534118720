// Package file implements persistence on top of JSON documents on disk.
// Suitable for local development and single-node deployments; the layout is
// one file per workflow and per instance, with history appended to a
// per-instance log file.
package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/procline/procline/pkg/persistence"
)

// Persistence is the file-backed storage root.
type Persistence struct {
	workflows *WorkflowRepository
	instances *InstanceRepository
}

// NewPersistence creates the directory layout under root.
func NewPersistence(root string) (*Persistence, error) {
	for _, dir := range []string{"workflows", "instances", "history"} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0o755); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
	}

	return &Persistence{
		workflows: &WorkflowRepository{root: root},
		instances: &InstanceRepository{root: root},
	}, nil
}

func (p *Persistence) Workflows() persistence.WorkflowRepository { return p.workflows }
func (p *Persistence) Instances() persistence.InstanceRepository { return p.instances }

func (p *Persistence) HealthCheck(_ context.Context) error {
	_, err := os.Stat(p.workflows.root)

	return err
}

func (p *Persistence) Close(_ context.Context) error { return nil }
