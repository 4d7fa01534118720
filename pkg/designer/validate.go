package designer

import (
	"github.com/procline/procline/pkg/diag"
	"github.com/procline/procline/pkg/models"
)

// Validate inspects the workflow and reports model-quality findings on the
// diagnostics collector. Findings never block editing; executability is a
// separate question answered by Executable.
func Validate(w *models.Workflow, diags *diag.Collector) {
	starts := w.StartActivities()
	if len(starts) == 0 {
		diags.Add(diag.CodeMissingStart, w.ID, "workflow has no start activity and cannot be executed")
	}

	reachable := reachableFrom(w, starts)

	for _, a := range w.Activities {
		if len(starts) > 0 && !reachable[a.ID] {
			diags.Add(diag.CodeUnreachableActivity, a.ID, "activity %q is not reachable from any start activity", a.Name)
		}

		for _, f := range a.Fields {
			if !fieldNamePattern.MatchString(f.Name) {
				diags.Add(diag.CodeInvalidFieldName, f.ID, "field name %q must be lowercase [a-z0-9_]", f.Name)
			}

			if f.Source != nil {
				validateFieldSource(w, a, f, diags)
			}
		}
	}
}

// Executable reports whether the workflow can be instantiated: at least one
// start activity must exist.
func Executable(w *models.Workflow) bool {
	return len(w.StartActivities()) > 0
}

// validateFieldSource checks that a prefill source denotes a field on an
// activity from which the owning activity is reachable (a "previous"
// activity). Checked at designer time only; the engine trusts the model.
func validateFieldSource(w *models.Workflow, owner *models.Activity, f *models.FieldDefinition, diags *diag.Collector) {
	source := w.ActivityByID(f.Source.ActivityID)
	if source == nil {
		diags.Add(diag.CodeInvalidFieldSource, f.ID, "field %q sources a missing activity %s", f.Name, f.Source.ActivityID)

		return
	}

	found := false

	for _, sf := range source.Fields {
		if sf.Name == f.Source.FieldName {
			found = true

			break
		}
	}

	if !found {
		diags.Add(diag.CodeInvalidFieldSource, f.ID, "field %q sources unknown field %q on activity %q", f.Name, f.Source.FieldName, source.Name)

		return
	}

	downstream := reachableFrom(w, []*models.Activity{source})
	if !downstream[owner.ID] {
		diags.Add(diag.CodeInvalidFieldSource, f.ID, "field %q sources activity %q which is not upstream of %q", f.Name, source.Name, owner.Name)
	}
}

// reachableFrom returns the set of activity ids reachable from the seeds,
// seeds included.
func reachableFrom(w *models.Workflow, seeds []*models.Activity) map[string]bool {
	reachable := make(map[string]bool, len(w.Activities))
	queue := make([]string, 0, len(seeds))

	for _, s := range seeds {
		queue = append(queue, s.ID)
	}

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]

		if reachable[id] {
			continue
		}

		reachable[id] = true

		for _, t := range w.TransitionsFrom(id) {
			if !reachable[t.TargetID] {
				queue = append(queue, t.TargetID)
			}
		}
	}

	return reachable
}
