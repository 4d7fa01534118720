package bpmn

import (
	"encoding/xml"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/procline/procline/pkg/models"
)

// ErrMalformedDocument indicates the input is not a usable interchange file.
// Imports are all-or-nothing: on any failure no activities are produced.
var ErrMalformedDocument = errors.New("malformed interchange document")

// Import parses an interchange document into fresh activities and
// transitions. Every element gets a newly generated id so an import can never
// collide with ids already present in the importing workflow; topology is
// re-linked through the foreign ids before they are discarded.
func Import(data []byte) ([]*models.Activity, []*models.Transition, error) {
	var doc Definitions

	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}

	type nodeGroup struct {
		kind  models.ActivityKind
		nodes []Node
	}

	groups := []nodeGroup{
		{models.ActivityKindStart, doc.Process.StartEvents},
		{models.ActivityKindTask, doc.Process.UserTasks},
		{models.ActivityKindDecision, doc.Process.ExclusiveGateways},
		{models.ActivityKindEnd, doc.Process.EndEvents},
	}

	bounds := make(map[string]Bounds)

	if doc.Diagram != nil {
		for _, s := range doc.Diagram.Plane.Shapes {
			bounds[s.BpmnElement] = s.Bounds
		}
	}

	idMap := make(map[string]string)

	var activities []*models.Activity

	for _, g := range groups {
		for _, n := range g.nodes {
			if n.ID == "" {
				return nil, nil, fmt.Errorf("%w: node without id", ErrMalformedDocument)
			}

			if _, dup := idMap[n.ID]; dup {
				return nil, nil, fmt.Errorf("%w: duplicate node id %q", ErrMalformedDocument, n.ID)
			}

			a := &models.Activity{
				ID:       uuid.New().String(),
				Kind:     g.kind,
				Name:     n.Name,
				DueHours: models.DefaultDueHours,
			}

			if b, ok := bounds[n.ID]; ok {
				a.PositionX = float64(b.X)
				a.PositionY = float64(b.Y)
			}

			idMap[n.ID] = a.ID
			activities = append(activities, a)
		}
	}

	var transitions []*models.Transition

	for _, f := range doc.Process.SequenceFlows {
		sourceID, ok := idMap[f.SourceRef]
		if !ok {
			return nil, nil, fmt.Errorf("%w: flow %q references unknown source %q", ErrMalformedDocument, f.ID, f.SourceRef)
		}

		targetID, ok := idMap[f.TargetRef]
		if !ok {
			return nil, nil, fmt.Errorf("%w: flow %q references unknown target %q", ErrMalformedDocument, f.ID, f.TargetRef)
		}

		transitions = append(transitions, &models.Transition{
			ID:        uuid.New().String(),
			SourceID:  sourceID,
			TargetID:  targetID,
			Condition: f.Name,
		})
	}

	return activities, transitions, nil
}
