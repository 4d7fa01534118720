package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/procline/procline/pkg/services"
)

// NewDirectory loads a static org directory from a JSON file. An empty path
// yields an empty directory, which restricts pooled assignment to fallback
// behavior.
func NewDirectory(path string) (services.Directory, error) {
	if path == "" {
		return services.StaticDirectory{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory file: %w", err)
	}

	var directory struct {
		Departments map[string][]string `json:"departments"`
		Positions   map[string][]string `json:"positions"`
	}

	if err := json.Unmarshal(data, &directory); err != nil {
		return nil, fmt.Errorf("failed to parse directory file: %w", err)
	}

	return services.StaticDirectory{
		Departments: directory.Departments,
		Positions:   directory.Positions,
	}, nil
}
