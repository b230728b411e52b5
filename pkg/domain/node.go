package domain

// Connection is a live data-flow link between two slots.
// Disconnect releases it. Implementations may assume it is called at most once
// by the engine, which guards against double release.
type Connection interface {
	Disconnect()
}

// Slot is a typed port owned by a node.
// Compatibility and value transport are owned by the slot kind, never by the engine.
type Slot interface {
	ID() SlotID
	Key() SlotKey
	// CanConnectTo reports whether this (output) slot accepts an input of the given kind.
	CanConnectTo(other SlotKey) bool
	// ConnectTo establishes the live connection from this (output) slot to other.
	ConnectTo(other Slot) (Connection, error)
}

// Node is a processing unit created by a registered node factory.
type Node interface {
	ID() NodeID
	Key() NodeKey

	// Init is called once, after construction and before the node's slots are
	// added to the graph.
	Init(host Host) error

	SetPosition(x, y float64, screenSpace bool)
	Position() (x, y float64)

	Inputs() []Slot
	Outputs() []Slot
	// Input returns the input slot with the given id, or nil.
	Input(id SlotID) Slot
	// Output returns the output slot with the given id, or nil.
	Output(id SlotID) Slot

	// State returns the node-specific data persisted alongside the node.
	State() map[string]any
}

// Host is the view of the engine a node sees while it is built or restored.
type Host interface {
	// NextID draws a fresh identity from the shared node/slot counter.
	NextID() int

	// NewSlot constructs a slot of a registered kind owned by the given node.
	NewSlot(key SlotKey, owner NodeID) (Slot, error)

	// RestoreSlot rebuilds a persisted slot of a registered kind.
	RestoreSlot(owner NodeID, rec SlotRecord) (Slot, error)

	// RegisterSlot adds a slot the node exposes after its initial construction.
	RegisterSlot(node NodeID, slot SlotID, typ SlotType) bool

	// UnregisterSlot removes a slot and every connection touching it.
	UnregisterSlot(node NodeID, slot SlotID) bool
}
