package bpmn

import (
	"encoding/xml"
	"fmt"

	"github.com/procline/procline/pkg/models"
)

// Export serializes a workflow graph to the interchange dialect.
func Export(w *models.Workflow) ([]byte, error) {
	process := Process{
		ID:           "process_" + w.ID,
		Name:         w.Name,
		IsExecutable: true,
	}

	incoming := make(map[string][]string, len(w.Activities))
	outgoing := make(map[string][]string, len(w.Activities))

	for _, t := range w.Transitions {
		flowID := "flow_" + t.ID
		process.SequenceFlows = append(process.SequenceFlows, SequenceFlow{
			ID:        flowID,
			Name:      t.Condition,
			SourceRef: "node_" + t.SourceID,
			TargetRef: "node_" + t.TargetID,
		})
		outgoing[t.SourceID] = append(outgoing[t.SourceID], flowID)
		incoming[t.TargetID] = append(incoming[t.TargetID], flowID)
	}

	plane := Plane{
		ID:          "plane_" + w.ID,
		BpmnElement: process.ID,
	}

	for _, a := range w.Activities {
		node := Node{
			ID:       "node_" + a.ID,
			Name:     a.Name,
			Incoming: incoming[a.ID],
			Outgoing: outgoing[a.ID],
		}

		switch a.Kind {
		case models.ActivityKindStart:
			process.StartEvents = append(process.StartEvents, node)
		case models.ActivityKindEnd:
			process.EndEvents = append(process.EndEvents, node)
		case models.ActivityKindDecision:
			process.ExclusiveGateways = append(process.ExclusiveGateways, node)
		case models.ActivityKindTask:
			process.UserTasks = append(process.UserTasks, node)
		default:
			return nil, fmt.Errorf("export: activity %s has unknown kind %q", a.ID, a.Kind)
		}

		plane.Shapes = append(plane.Shapes, Shape{
			ID:          "shape_" + a.ID,
			BpmnElement: node.ID,
			Bounds: Bounds{
				X:      int(a.PositionX),
				Y:      int(a.PositionY),
				Width:  shapeWidth,
				Height: shapeHeight,
			},
		})
	}

	positions := make(map[string]*models.Activity, len(w.Activities))
	for _, a := range w.Activities {
		positions["node_"+a.ID] = a
	}

	for _, f := range process.SequenceFlows {
		src, ok := positions[f.SourceRef]
		if !ok {
			return nil, fmt.Errorf("export: flow %s references missing source activity", f.ID)
		}

		dst, ok := positions[f.TargetRef]
		if !ok {
			return nil, fmt.Errorf("export: flow %s references missing target activity", f.ID)
		}

		plane.Edges = append(plane.Edges, Edge{
			ID:          "edge_" + f.ID,
			BpmnElement: f.ID,
			Waypoints: []Waypoint{
				{X: int(src.PositionX) + shapeWidth, Y: int(src.PositionY) + shapeHeight/2},
				{X: int(dst.PositionX), Y: int(dst.PositionY) + shapeHeight/2},
			},
		})
	}

	doc := Definitions{
		Xmlns:   xmlns,
		Process: process,
		Diagram: &Diagram{
			ID:    "diagram_" + w.ID,
			Plane: plane,
		},
	}

	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("export workflow %s: %w", w.ID, err)
	}

	return append([]byte(xml.Header), out...), nil
}
