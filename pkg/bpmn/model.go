// Package bpmn converts process graphs to and from a BPMN-like XML dialect.
// The dialect carries topology, naming, conditions (as flow names) and
// diagram coordinates; field definitions, SLAs and assignment rules are not
// part of the interchange format.
package bpmn

import "encoding/xml"

// Definitions is the document root.
type Definitions struct {
	XMLName         xml.Name `xml:"definitions"`
	Xmlns           string   `xml:"xmlns,attr"`
	TargetNamespace string   `xml:"targetNamespace,attr,omitempty"`
	Process         Process  `xml:"process"`
	Diagram         *Diagram `xml:"BPMNDiagram,omitempty"`
}

// Process holds the typed node elements and sequence flows.
type Process struct {
	ID                string        `xml:"id,attr"`
	Name              string        `xml:"name,attr,omitempty"`
	IsExecutable      bool          `xml:"isExecutable,attr"`
	StartEvents       []Node        `xml:"startEvent"`
	EndEvents         []Node        `xml:"endEvent"`
	UserTasks         []Node        `xml:"userTask"`
	ExclusiveGateways []Node        `xml:"exclusiveGateway"`
	SequenceFlows     []SequenceFlow `xml:"sequenceFlow"`
}

// Node is any typed process element. Incoming/outgoing carry flow ids.
type Node struct {
	ID       string   `xml:"id,attr"`
	Name     string   `xml:"name,attr,omitempty"`
	Incoming []string `xml:"incoming"`
	Outgoing []string `xml:"outgoing"`
}

// SequenceFlow is a directed edge. The transition condition travels in the
// name attribute.
type SequenceFlow struct {
	ID        string `xml:"id,attr"`
	Name      string `xml:"name,attr,omitempty"`
	SourceRef string `xml:"sourceRef,attr"`
	TargetRef string `xml:"targetRef,attr"`
}

// Diagram is the visual section: one shape per node, one edge per flow.
type Diagram struct {
	ID    string  `xml:"id,attr,omitempty"`
	Plane Plane   `xml:"BPMNPlane"`
}

type Plane struct {
	ID          string  `xml:"id,attr,omitempty"`
	BpmnElement string  `xml:"bpmnElement,attr,omitempty"`
	Shapes      []Shape `xml:"BPMNShape"`
	Edges       []Edge  `xml:"BPMNEdge"`
}

type Shape struct {
	ID          string `xml:"id,attr"`
	BpmnElement string `xml:"bpmnElement,attr"`
	Bounds      Bounds `xml:"Bounds"`
}

type Bounds struct {
	X      int `xml:"x,attr"`
	Y      int `xml:"y,attr"`
	Width  int `xml:"width,attr"`
	Height int `xml:"height,attr"`
}

type Edge struct {
	ID          string     `xml:"id,attr"`
	BpmnElement string     `xml:"bpmnElement,attr"`
	Waypoints   []Waypoint `xml:"waypoint"`
}

type Waypoint struct {
	X int `xml:"x,attr"`
	Y int `xml:"y,attr"`
}

const (
	xmlns = "http://www.omg.org/spec/BPMN/20100524/MODEL"

	shapeWidth  = 160
	shapeHeight = 80
)
