package models_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/procline/procline/pkg/models"
)

func TestValidateAutomatedAction(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		action  models.AutomatedAction
		wantErr bool
	}{
		{
			name: "minimal valid config",
			action: models.AutomatedAction{
				ID:     "act-1",
				Type:   "http",
				Config: map[string]any{"url": "https://example.com/hook"},
			},
			wantErr: false,
		},
		{
			name: "full config",
			action: models.AutomatedAction{
				ID:   "act-2",
				Type: "http",
				Config: map[string]any{
					"url":             "https://example.com/hook",
					"method":          "POST",
					"headers":         map[string]any{"X-Token": "abc"},
					"timeout_seconds": 30,
				},
			},
			wantErr: false,
		},
		{
			name: "missing url",
			action: models.AutomatedAction{
				ID:     "act-3",
				Type:   "http",
				Config: map[string]any{"method": "POST"},
			},
			wantErr: true,
		},
		{
			name: "bad method",
			action: models.AutomatedAction{
				ID:     "act-4",
				Type:   "http",
				Config: map[string]any{"url": "https://example.com", "method": "FETCH"},
			},
			wantErr: true,
		},
		{
			name: "missing type",
			action: models.AutomatedAction{
				ID:     "act-5",
				Config: map[string]any{"url": "https://example.com"},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := models.ValidateAutomatedAction(tt.action)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
