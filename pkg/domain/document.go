package domain

// DocumentVersion is written into every persisted graph.
const DocumentVersion = "1"

// Document is the persisted representation of a whole graph.
type Document struct {
	Version  string       `json:"version" yaml:"version"`
	Revision string       `json:"revision,omitempty" yaml:"revision,omitempty"`
	Nodes    []NodeRecord `json:"nodes" yaml:"nodes"`
	// Links holds [output slot id, input slot id] pairs.
	Links [][]int `json:"links" yaml:"links"`
	// Sealed holds an encrypted copy of the whole document. Sealed documents
	// carry no nodes or links of their own.
	Sealed string `json:"sealed,omitempty" yaml:"sealed,omitempty"`

	decodeErrs []error
}

// NodeRecord carries enough to rebuild a node through its deserializer.
type NodeRecord struct {
	Key     NodeKey        `json:"key" yaml:"key" mapstructure:"key"`
	ID      NodeID         `json:"id" yaml:"id" mapstructure:"id"`
	X       float64        `json:"x" yaml:"x" mapstructure:"x"`
	Y       float64        `json:"y" yaml:"y" mapstructure:"y"`
	Inputs  []SlotRecord   `json:"inputs,omitempty" yaml:"inputs,omitempty" mapstructure:"inputs"`
	Outputs []SlotRecord   `json:"outputs,omitempty" yaml:"outputs,omitempty" mapstructure:"outputs"`
	State   map[string]any `json:"state,omitempty" yaml:"state,omitempty" mapstructure:"state"`
}

// SlotRecord is a persisted slot.
type SlotRecord struct {
	Key SlotKey `json:"key" yaml:"key" mapstructure:"key"`
	ID  SlotID  `json:"id" yaml:"id" mapstructure:"id"`
}

// Pair returns the output and input slot ids of a persisted link.
// ok is false if the entry is not a pair.
func Pair(link []int) (from, to SlotID, ok bool) {
	if len(link) != 2 {
		return 0, 0, false
	}
	return SlotID(link[0]), SlotID(link[1]), true
}

// Record captures a node and its slots for persistence.
func Record(n Node) NodeRecord {
	x, y := n.Position()
	rec := NodeRecord{
		Key:   n.Key(),
		ID:    n.ID(),
		X:     x,
		Y:     y,
		State: n.State(),
	}
	for _, s := range n.Inputs() {
		rec.Inputs = append(rec.Inputs, SlotRecord{Key: s.Key(), ID: s.ID()})
	}
	for _, s := range n.Outputs() {
		rec.Outputs = append(rec.Outputs, SlotRecord{Key: s.Key(), ID: s.ID()})
	}
	return rec
}

// Clone returns a copy of the document that shares no slices or maps with d.
// State values are copied one level deep.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	out := &Document{Version: d.Version, Revision: d.Revision, Sealed: d.Sealed}
	out.decodeErrs = append([]error(nil), d.decodeErrs...)
	if d.Nodes != nil {
		out.Nodes = make([]NodeRecord, len(d.Nodes))
		for i, n := range d.Nodes {
			n.Inputs = append([]SlotRecord(nil), n.Inputs...)
			n.Outputs = append([]SlotRecord(nil), n.Outputs...)
			if n.State != nil {
				state := make(map[string]any, len(n.State))
				for k, v := range n.State {
					state[k] = v
				}
				n.State = state
			}
			out.Nodes[i] = n
		}
	}
	if d.Links != nil {
		out.Links = make([][]int, len(d.Links))
		for i, l := range d.Links {
			out.Links[i] = append([]int(nil), l...)
		}
	}
	return out
}
