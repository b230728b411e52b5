package domain

// NodeID identifies a node. Node and slot identities are drawn from one shared
// counter, so a NodeID never collides with a SlotID.
type NodeID int

// SlotID identifies an input or output slot.
type SlotID int

// EdgeID identifies an edge of the topology graph. Ownership edges and
// connection edges share the counter, so connection ids have gaps.
type EdgeID int

// NodeKey names a registered node kind.
type NodeKey string

// SlotKey names a registered slot kind.
type SlotKey string

// NoParent is the parent id carried by node vertices.
const NoParent NodeID = -1

// VertexType tags a vertex of the topology graph.
type VertexType int

const (
	VertexNode VertexType = iota
	VertexInput
	VertexOutput
)

func (t VertexType) String() string {
	switch t {
	case VertexNode:
		return "node"
	case VertexInput:
		return "input"
	case VertexOutput:
		return "output"
	default:
		return "unknown"
	}
}

// MarshalText encodes the vertex type by name.
func (t VertexType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// SlotType is the direction of a slot.
type SlotType int

const (
	SlotInput SlotType = iota
	SlotOutput
)

func (t SlotType) String() string {
	if t == SlotOutput {
		return "output"
	}
	return "input"
}

// Vertex returns the vertex tag used for slots of this direction.
func (t SlotType) Vertex() VertexType {
	if t == SlotOutput {
		return VertexOutput
	}
	return VertexInput
}

// ParseSlotType converts "input"/"output" into a SlotType.
func ParseSlotType(s string) (SlotType, bool) {
	switch s {
	case "input", "in":
		return SlotInput, true
	case "output", "out":
		return SlotOutput, true
	}
	return SlotInput, false
}

// LinkInfo is a user-visible connection: an output slot feeding an input slot.
type LinkInfo struct {
	ID   EdgeID `json:"id" yaml:"id"`
	From SlotID `json:"from" yaml:"from"`
	To   SlotID `json:"to" yaml:"to"`
}

// VertexInfo describes one vertex of the topology graph.
type VertexInfo struct {
	ID     int        `json:"id" yaml:"id"`
	Parent NodeID     `json:"parent" yaml:"parent"`
	Type   VertexType `json:"type" yaml:"type"`
}
