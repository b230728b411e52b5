package dataflow

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/aretw0/dataflow/internal/logging"
	"github.com/aretw0/dataflow/internal/topology"
	"github.com/aretw0/dataflow/pkg/catalog"
	"github.com/aretw0/dataflow/pkg/domain"
	"github.com/aretw0/dataflow/pkg/ids"
	"github.com/aretw0/dataflow/pkg/metrics"
	"github.com/aretw0/dataflow/pkg/ports"
	"github.com/aretw0/dataflow/pkg/registry"
)

// DefaultLockTTL bounds how long a named save or load holds the store lock.
const DefaultLockTTL = 30 * time.Second

// Engine owns the graph of nodes, slots and connections.
// It is not safe for concurrent use; see Guard.
type Engine struct {
	registry *registry.Registry
	ids      *ids.Allocator
	graph    *topology.Graph
	nodes    map[domain.NodeID]domain.Node

	// pending is the node whose Init is running. It is not in the graph yet.
	pending domain.Node

	store   ports.GraphStore
	locker  ports.DistributedLocker
	lockTTL time.Duration
	plugins []registry.Plugin
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithRegistry shares an existing registry instead of creating one.
func WithRegistry(r *registry.Registry) Option {
	return func(e *Engine) {
		e.registry = r
	}
}

// WithPlugins installs plugins into the registry when the engine is created.
func WithPlugins(plugins ...registry.Plugin) Option {
	return func(e *Engine) {
		e.plugins = append(e.plugins, plugins...)
	}
}

// WithStore sets the store used by Save and Load.
func WithStore(s ports.GraphStore) Option {
	return func(e *Engine) {
		e.store = s
	}
}

// WithLocker serialises named saves and loads across processes.
func WithLocker(l ports.DistributedLocker, ttl time.Duration) Option {
	return func(e *Engine) {
		e.locker = l
		if ttl > 0 {
			e.lockTTL = ttl
		}
	}
}

// WithMetrics records topology mutations into m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// New creates an empty engine.
// Plugins given through WithPlugins are installed before New returns; a
// plugin that fails is logged and skipped, and New reports the error only
// when no plugin could be installed at all.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{
		ids:     ids.New(),
		graph:   topology.New(),
		nodes:   make(map[domain.NodeID]domain.Node),
		lockTTL: DefaultLockTTL,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = logging.NewNop()
	}
	if e.registry == nil {
		e.registry = registry.New()
	}

	if len(e.plugins) > 0 {
		installed, err := registry.Install(e.registry, e.logger, e.plugins...)
		if err != nil && len(installed) == 0 {
			return nil, fmt.Errorf("failed to install plugins: %w", err)
		}
		e.logger.Debug("plugins installed", "plugins", installed)
	}
	return e, nil
}

// Registry returns the factory registry.
func (e *Engine) Registry() *registry.Registry { return e.registry }

// Catalog returns the display tree of registered node kinds.
func (e *Engine) Catalog() *catalog.Tree { return e.registry.Catalog() }

// NextID draws the next node/slot identity.
func (e *Engine) NextID() int { return e.ids.NextID() }

// NextNodeID draws the next node identity.
func (e *Engine) NextNodeID() domain.NodeID { return domain.NodeID(e.ids.NextID()) }

// NextSlotID draws the next slot identity. It shares the counter with nodes.
func (e *Engine) NextSlotID() domain.SlotID { return domain.SlotID(e.ids.NextID()) }

// NextEdgeID draws the next edge identity.
func (e *Engine) NextEdgeID() domain.EdgeID { return domain.EdgeID(e.ids.NextEdgeID()) }

// NewSlot builds a slot of a registered kind.
func (e *Engine) NewSlot(key domain.SlotKey, owner domain.NodeID) (domain.Slot, error) {
	construct, err := e.registry.SlotFactory(key)
	if err != nil {
		return nil, err
	}
	return construct(e, owner)
}

// RestoreSlot rebuilds a persisted slot of a registered kind.
func (e *Engine) RestoreSlot(owner domain.NodeID, rec domain.SlotRecord) (domain.Slot, error) {
	deserialize, err := e.registry.SlotDeserializer(rec.Key)
	if err != nil {
		return nil, err
	}
	return deserialize(e, owner, rec)
}

// CreateNode constructs a node of a registered kind, initialises it, adds it
// with its slots to the graph and finally moves it to the given position.
// Nothing is added when construction or initialisation fails.
func (e *Engine) CreateNode(key domain.NodeKey, x, y float64, screenSpace bool) (domain.NodeID, error) {
	construct, err := e.registry.NodeFactory(key)
	if err != nil {
		return 0, err
	}

	node, err := construct(e)
	if err != nil {
		return 0, fmt.Errorf("failed to construct node %q: %w", key, err)
	}
	if node == nil {
		return 0, fmt.Errorf("failed to construct node %q: factory returned nil", key)
	}

	e.pending = node
	err = node.Init(e)
	e.pending = nil
	if err != nil {
		return 0, fmt.Errorf("failed to initialise node %q: %w", key, err)
	}

	if err := e.attach(node); err != nil {
		return 0, fmt.Errorf("failed to add node %q: %w", key, err)
	}
	node.SetPosition(x, y, screenSpace)

	e.metrics.NodeCreated(string(key))
	e.observe()
	e.logger.Debug("node created", "id", node.ID(), "key", key,
		"inputs", len(node.Inputs()), "outputs", len(node.Outputs()))
	return node.ID(), nil
}

// attach adds the node vertex and one vertex plus ownership edge per slot.
// All identities are checked first so a clash leaves the graph unchanged.
func (e *Engine) attach(node domain.Node) error {
	inputs, outputs := node.Inputs(), node.Outputs()

	seen := make(map[int]bool, 1+len(inputs)+len(outputs))
	claim := func(id int) error {
		if _, taken := e.graph.Vertex(id); taken || seen[id] {
			return fmt.Errorf("identity %d is already in use", id)
		}
		seen[id] = true
		return nil
	}
	if err := claim(int(node.ID())); err != nil {
		return err
	}
	for _, s := range inputs {
		if err := claim(int(s.ID())); err != nil {
			return err
		}
	}
	for _, s := range outputs {
		if err := claim(int(s.ID())); err != nil {
			return err
		}
	}

	nv, err := e.graph.AddVertex(int(node.ID()), domain.NoParent, domain.VertexNode)
	if err != nil {
		return err
	}
	for _, s := range inputs {
		if _, err := e.graph.AddSlot(nv, int(s.ID()), domain.SlotInput, e.NextEdgeID()); err != nil {
			return err
		}
	}
	for _, s := range outputs {
		if _, err := e.graph.AddSlot(nv, int(s.ID()), domain.SlotOutput, e.NextEdgeID()); err != nil {
			return err
		}
	}
	e.nodes[node.ID()] = node
	return nil
}

// RemoveNode disconnects every slot of the node, then erases the slots and
// the node. It reports false for unknown ids.
func (e *Engine) RemoveNode(id domain.NodeID) bool {
	v, ok := e.graph.Vertex(int(id))
	if !ok || v.Type != domain.VertexNode {
		e.logger.Debug("remove node: unknown id", "id", id)
		return false
	}

	released := 0
	for _, slot := range e.graph.Slots(int(id)) {
		released += len(e.graph.ConnectionsOf(slot.ID))
		e.graph.RemoveVertex(slot.ID)
	}
	e.graph.RemoveVertex(int(id))
	delete(e.nodes, id)

	e.metrics.NodeRemoved()
	e.metrics.LinksReleasedN(released)
	e.observe()
	e.logger.Debug("node removed", "id", id, "released", released)
	return true
}

// AddEdge connects an output slot to an input slot.
// It returns false, and changes nothing, when either id is unknown, the slots
// have the wrong direction, the kinds are incompatible or the slot refuses
// the connection.
func (e *Engine) AddEdge(from, to domain.SlotID) (domain.EdgeID, bool) {
	fv, ok := e.graph.Vertex(int(from))
	if !ok {
		return e.reject("unknown", "add edge: unknown output", "from", from)
	}
	tv, ok := e.graph.Vertex(int(to))
	if !ok {
		return e.reject("unknown", "add edge: unknown input", "to", to)
	}
	if fv.Type != domain.VertexOutput || tv.Type != domain.VertexInput {
		return e.reject("direction", "add edge: not an output/input pair", "from", from, "to", to)
	}

	out := e.slot(fv)
	in := e.slot(tv)
	if out == nil || in == nil {
		return e.reject("unknown", "add edge: slot has no owner", "from", from, "to", to)
	}
	if !out.CanConnectTo(in.Key()) {
		return e.reject("incompatible", "add edge: incompatible kinds", "from", out.Key(), "to", in.Key())
	}

	conn, err := out.ConnectTo(in)
	if err != nil {
		return e.reject("refused", "add edge: connection refused", "from", from, "to", to, "error", err)
	}

	id := e.NextEdgeID()
	if _, err := e.graph.Connect(fv, tv, id, topology.NewLink(conn)); err != nil {
		if conn != nil {
			conn.Disconnect()
		}
		return e.reject("refused", "add edge: graph rejected connection", "error", err)
	}

	e.metrics.LinkCreated()
	e.observe()
	e.logger.Debug("link created", "id", id, "from", from, "to", to)
	return id, true
}

func (e *Engine) reject(reason, msg string, args ...any) (domain.EdgeID, bool) {
	e.metrics.LinkRejected(reason)
	e.logger.Debug(msg, args...)
	return 0, false
}

// slot resolves the slot object behind a slot vertex.
func (e *Engine) slot(v *topology.Vertex) domain.Slot {
	node, ok := e.nodes[v.Parent]
	if !ok {
		return nil
	}
	if v.Type == domain.VertexOutput {
		return node.Output(domain.SlotID(v.ID))
	}
	return node.Input(domain.SlotID(v.ID))
}

// RemoveEdge releases and removes a connection.
// Ownership edges and unknown ids are ignored.
func (e *Engine) RemoveEdge(id domain.EdgeID) bool {
	if !e.graph.Disconnect(id) {
		e.logger.Debug("remove edge: unknown connection", "id", id)
		return false
	}
	e.metrics.LinksReleasedN(1)
	e.observe()
	return true
}

// RegisterSlot adds a slot that a node exposes after construction.
// During the node's Init the slot is accepted as long as the node exposes it;
// it enters the graph with the node. Registering an already present slot of
// the same node and direction succeeds without changes.
func (e *Engine) RegisterSlot(nodeID domain.NodeID, slotID domain.SlotID, typ domain.SlotType) bool {
	if e.pending != nil && e.pending.ID() == nodeID {
		return exposes(e.pending, slotID, typ)
	}

	nv, ok := e.graph.Vertex(int(nodeID))
	if !ok || nv.Type != domain.VertexNode {
		e.logger.Debug("register slot: unknown node", "node", nodeID, "slot", slotID)
		return false
	}
	if sv, ok := e.graph.Vertex(int(slotID)); ok {
		return sv.Parent == nodeID && sv.Type == typ.Vertex()
	}
	if !exposes(e.nodes[nodeID], slotID, typ) {
		e.logger.Debug("register slot: node does not expose slot", "node", nodeID, "slot", slotID, "type", typ)
		return false
	}
	if _, err := e.graph.AddSlot(nv, int(slotID), typ, e.NextEdgeID()); err != nil {
		e.logger.Debug("register slot failed", "node", nodeID, "slot", slotID, "error", err)
		return false
	}
	return true
}

// UnregisterSlot releases every connection of the slot and removes it.
// The slot must belong to the node.
func (e *Engine) UnregisterSlot(nodeID domain.NodeID, slotID domain.SlotID) bool {
	sv, ok := e.graph.Vertex(int(slotID))
	if !ok || !sv.IsSlot() || sv.Parent != nodeID {
		e.logger.Debug("unregister slot: unknown slot", "node", nodeID, "slot", slotID)
		return false
	}
	released := len(e.graph.ConnectionsOf(int(slotID)))
	e.graph.RemoveVertex(int(slotID))

	e.metrics.LinksReleasedN(released)
	e.observe()
	return true
}

func exposes(node domain.Node, id domain.SlotID, typ domain.SlotType) bool {
	if node == nil {
		return false
	}
	if typ == domain.SlotOutput {
		return node.Output(id) != nil
	}
	return node.Input(id) != nil
}

// Clear releases every connection, empties the graph and resets both
// identity counters to zero.
func (e *Engine) Clear() {
	released := e.graph.ConnectionCount()
	e.graph.Reset()
	e.nodes = make(map[domain.NodeID]domain.Node)
	e.ids.Reset()

	e.metrics.LinksReleasedN(released)
	e.observe()
}

// Node returns the node with the given id.
func (e *Engine) Node(id domain.NodeID) (domain.Node, bool) {
	n, ok := e.nodes[id]
	return n, ok
}

// Nodes returns every node ordered by id.
func (e *Engine) Nodes() []domain.Node {
	out := make([]domain.Node, 0, len(e.nodes))
	for _, n := range e.nodes {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

// Links returns every live connection ordered by id.
func (e *Engine) Links() []domain.LinkInfo {
	return e.graph.Connections()
}

// LinksOf returns the live connections of one slot.
func (e *Engine) LinksOf(slot domain.SlotID) []domain.LinkInfo {
	return e.graph.ConnectionsOf(int(slot))
}

// Vertex describes the vertex with the given identity.
func (e *Engine) Vertex(id int) (domain.VertexInfo, bool) {
	v, ok := e.graph.Vertex(id)
	if !ok {
		return domain.VertexInfo{}, false
	}
	return domain.VertexInfo{ID: v.ID, Parent: v.Parent, Type: v.Type}, true
}

// Stats summarises the graph.
type Stats struct {
	Nodes       int `json:"nodes"`
	Slots       int `json:"slots"`
	Ownership   int `json:"ownership_edges"`
	Connections int `json:"connections"`
	NextID      int `json:"next_id"`
	NextEdgeID  int `json:"next_edge_id"`
}

// Stats returns counts of the graph's vertices and edges.
func (e *Engine) Stats() Stats {
	next, nextEdge := e.ids.Peek()
	return Stats{
		Nodes:       len(e.nodes),
		Slots:       e.graph.Len() - len(e.nodes),
		Ownership:   e.graph.OwnershipCount(),
		Connections: e.graph.ConnectionCount(),
		NextID:      next,
		NextEdgeID:  nextEdge,
	}
}

func (e *Engine) observe() {
	e.metrics.Observe(len(e.nodes), e.graph.ConnectionCount())
}
