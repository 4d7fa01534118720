// Package diag carries non-fatal diagnostics raised by core operations.
// Diagnostics are distinct from errors: a warning never aborts the operation
// that produced it, but callers must be able to surface it.
package diag

import "fmt"

// Code identifies the diagnostic kind.
type Code string

const (
	CodeBrokenCondition     Code = "broken_condition"
	CodeNoEligibleAssignee  Code = "no_eligible_assignee"
	CodeUnreachableActivity Code = "unreachable_activity"
	CodeDuplicateTransition Code = "duplicate_transition"
	CodeMissingStart        Code = "missing_start_activity"
	CodeInvalidFieldSource  Code = "invalid_field_source"
	CodeInvalidFieldName    Code = "invalid_field_name"
)

// Diagnostic is one non-fatal finding tied to a model element.
type Diagnostic struct {
	Code      Code   `json:"code"`
	Message   string `json:"message"`
	ElementID string `json:"element_id,omitempty"`
}

func (d Diagnostic) String() string {
	if d.ElementID == "" {
		return fmt.Sprintf("%s: %s", d.Code, d.Message)
	}

	return fmt.Sprintf("%s [%s]: %s", d.Code, d.ElementID, d.Message)
}

// Collector accumulates diagnostics over one operation. The zero value is
// ready to use. Not safe for concurrent use; operations are synchronous.
type Collector struct {
	items []Diagnostic
}

// Add records a diagnostic.
func (c *Collector) Add(code Code, elementID, format string, args ...any) {
	c.items = append(c.items, Diagnostic{
		Code:      code,
		Message:   fmt.Sprintf(format, args...),
		ElementID: elementID,
	})
}

// Items returns the collected diagnostics in the order they were added.
func (c *Collector) Items() []Diagnostic {
	return c.items
}

// Empty reports whether nothing was collected.
func (c *Collector) Empty() bool { return len(c.items) == 0 }
