// Package cmd provides shared wiring helpers for the command-line binaries.
package cmd

import (
	"context"
	"log/slog"
	"strings"

	"github.com/procline/procline/pkg/persistence"
	"github.com/procline/procline/pkg/persistence/file"
	"github.com/procline/procline/pkg/persistence/postgres"
)

// NewPersistence creates a persistence backend from a database URL. URLs with
// a postgres:// or postgresql:// scheme get the SQL backend; anything else is
// treated as a filesystem path.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) persistence.Persistence {
	if strings.HasPrefix(databaseURL, "postgres://") || strings.HasPrefix(databaseURL, "postgresql://") {
		p, err := postgres.NewPersistence(ctx, logger, databaseURL)
		if err != nil {
			logger.ErrorContext(ctx, "Failed to connect to postgres", "error", err)
			panic(err)
		}

		return p
	}

	p, err := file.NewPersistence(databaseURL)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to initialize file persistence", "error", err)
		panic(err)
	}

	return p
}
