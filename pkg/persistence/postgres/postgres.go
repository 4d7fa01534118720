// Package postgres provides the PostgreSQL persistence implementation.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/lib/pq" // database/sql driver

	"github.com/procline/procline/pkg/persistence"
)

// Persistence implements the persistence layer on PostgreSQL.
type Persistence struct {
	db        *sql.DB
	logger    *slog.Logger
	workflows *WorkflowRepository
	instances *InstanceRepository
}

// NewPersistence connects, pings and migrates the schema.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (*Persistence, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := migrate(ctx, db); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Persistence{
		db:        db,
		logger:    logger,
		workflows: &WorkflowRepository{db: db, logger: logger},
		instances: &InstanceRepository{db: db, logger: logger},
	}, nil
}

func (p *Persistence) Workflows() persistence.WorkflowRepository { return p.workflows }
func (p *Persistence) Instances() persistence.InstanceRepository { return p.instances }

// HealthCheck verifies the database connection is healthy.
func (p *Persistence) HealthCheck(ctx context.Context) error {
	if err := p.db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (p *Persistence) Close(_ context.Context) error {
	if p.db != nil {
		if err := p.db.Close(); err != nil {
			return fmt.Errorf("failed to close database connection: %w", err)
		}
	}

	return nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS workflows (
			id          TEXT PRIMARY KEY,
			name        TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			status      TEXT NOT NULL,
			owner       TEXT NOT NULL DEFAULT '',
			created_at  TIMESTAMPTZ NOT NULL,
			updated_at  TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS activities (
			id          TEXT PRIMARY KEY,
			workflow_id TEXT NOT NULL REFERENCES workflows(id) ON DELETE CASCADE,
			doc         JSONB NOT NULL,
			position    INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS transitions (
			id          TEXT PRIMARY KEY,
			workflow_id TEXT NOT NULL REFERENCES workflows(id) ON DELETE CASCADE,
			source_id   TEXT NOT NULL,
			target_id   TEXT NOT NULL,
			condition   TEXT NOT NULL DEFAULT '',
			position    INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS instances (
			id                  TEXT PRIMARY KEY,
			workflow_id         TEXT NOT NULL,
			current_activity_id TEXT NOT NULL,
			status              TEXT NOT NULL,
			created_by          TEXT NOT NULL DEFAULT '',
			created_at          TIMESTAMPTZ NOT NULL,
			assignment          JSONB NOT NULL,
			variables           JSONB
		)`,
		`CREATE TABLE IF NOT EXISTS history (
			id          TEXT PRIMARY KEY,
			process_id  TEXT NOT NULL,
			activity_id TEXT NOT NULL,
			action      TEXT NOT NULL,
			comment     TEXT NOT NULL DEFAULT '',
			data        JSONB,
			timestamp   TIMESTAMPTZ NOT NULL,
			user_id     TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_activities_workflow ON activities(workflow_id)`,
		`CREATE INDEX IF NOT EXISTS idx_transitions_workflow ON transitions(workflow_id)`,
		`CREATE INDEX IF NOT EXISTS idx_instances_workflow ON instances(workflow_id)`,
		`CREATE INDEX IF NOT EXISTS idx_history_process ON history(process_id)`,
	}

	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}

	return nil
}
