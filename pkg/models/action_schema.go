package models

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// automatedActionSchema constrains the opaque config of an automated action.
// Steps are HTTP-like: a URL, an optional method/headers/body template. The
// core never executes them; it only guarantees shape at the boundary.
const automatedActionSchema = `{
	"type": "object",
	"properties": {
		"url":     {"type": "string", "minLength": 1},
		"method":  {"type": "string", "enum": ["GET", "POST", "PUT", "PATCH", "DELETE"]},
		"headers": {"type": "object", "additionalProperties": {"type": "string"}},
		"body":    {"type": ["object", "string", "null"]},
		"timeout_seconds": {"type": "number", "minimum": 0}
	},
	"required": ["url"],
	"additionalProperties": true
}`

var actionSchemaLoader = gojsonschema.NewStringLoader(automatedActionSchema)

// ValidateAutomatedAction checks an action's config against the step schema.
// Called when loading persisted workflows and when accepting designer edits,
// never on the hot advancement path.
func ValidateAutomatedAction(action AutomatedAction) error {
	if action.Type == "" {
		return fmt.Errorf("automated action %s: missing type", action.ID)
	}

	result, err := gojsonschema.Validate(actionSchemaLoader, gojsonschema.NewGoLoader(action.Config))
	if err != nil {
		return fmt.Errorf("automated action %s: %w", action.ID, err)
	}

	if !result.Valid() {
		first := result.Errors()[0]

		return fmt.Errorf("automated action %s: config %s", action.ID, first.String())
	}

	return nil
}
