package model

import "time"

// HandleKind distinguishes the direction of a handle.
type HandleKind string

const (
	HandleSource HandleKind = "source"
	HandleTarget HandleKind = "target"
)

// IsValid checks whether the handle kind is a known value.
func (k HandleKind) IsValid() bool {
	return k == HandleSource || k == HandleTarget
}

// HandlePosition is the side of the node box a handle is anchored to.
type HandlePosition string

const (
	PositionTop    HandlePosition = "top"
	PositionBottom HandlePosition = "bottom"
	PositionLeft   HandlePosition = "left"
	PositionRight  HandlePosition = "right"
)

// IsValid checks whether the handle position is a known value.
func (p HandlePosition) IsValid() bool {
	switch p {
	case PositionTop, PositionBottom, PositionLeft, PositionRight:
		return true
	}
	return false
}

// Anchor returns the handle's attachment point as fractions of the node's
// bounding box. The mapping is a pure function of the position: the editor
// and the status overlay both derive screen coordinates from it and must
// agree without sharing state.
func (p HandlePosition) Anchor() (x, y float64) {
	switch p {
	case PositionTop:
		return 0.5, 0
	case PositionBottom:
		return 0.5, 1
	case PositionLeft:
		return 0, 0.5
	case PositionRight:
		return 1, 0.5
	}
	// Unknown positions anchor to the center rather than failing a render.
	return 0.5, 0.5
}

// Handle is a labeled attachment point on a node. The id distinguishes
// multiple handles on one node; the empty id is the default handle.
type Handle struct {
	NodeID   string         `json:"node_id"`
	ID       string         `json:"id"`
	Kind     HandleKind     `json:"kind"`
	Position HandlePosition `json:"position"`
}

// AttachHandle constructs a handle on the given node.
func AttachHandle(node *Node, position HandlePosition, kind HandleKind, id string) Handle {
	return Handle{
		NodeID:   node.ID,
		ID:       id,
		Kind:     kind,
		Position: position,
	}
}

// Handle ids used by the linear chain wiring.
const (
	HandleOutput = "output"
	HandleInput  = "input"
)

// Connection is a directed edge from one node's output handle to another
// node's input handle.
type Connection struct {
	AutomationID string    `json:"automation_id"`
	SourceID     string    `json:"source_id"`
	SourceHandle string    `json:"source_handle"`
	TargetID     string    `json:"target_id"`
	TargetHandle string    `json:"target_handle"`
	CreatedAt    time.Time `json:"created_at"`
}

// ConnectionDraft is an in-progress connection being dragged from a source
// handle. At most one draft exists per graph; while it does, every
// handle-anchored affordance in the graph is suppressed.
type ConnectionDraft struct {
	SourceID     string `json:"source_id"`
	SourceHandle string `json:"source_handle"`
}
