package topology

import (
	"fmt"
	"sort"

	"github.com/aretw0/dataflow/pkg/domain"
)

// Vertex is a node or slot in the graph.
type Vertex struct {
	ID     int
	Parent domain.NodeID // domain.NoParent for node vertices
	Type   domain.VertexType

	in  map[domain.EdgeID]*Edge
	out map[domain.EdgeID]*Edge
}

// InEdges returns the incoming edges ordered by id.
func (v *Vertex) InEdges() []*Edge { return sortedEdges(v.in) }

// OutEdges returns the outgoing edges ordered by id.
func (v *Vertex) OutEdges() []*Edge { return sortedEdges(v.out) }

// IsSlot reports whether the vertex stands for a slot.
func (v *Vertex) IsSlot() bool { return v.Type != domain.VertexNode }

// connections returns the edge set holding this slot's live connections.
func (v *Vertex) connections() map[domain.EdgeID]*Edge {
	switch v.Type {
	case domain.VertexOutput:
		return v.out
	case domain.VertexInput:
		return v.in
	}
	return nil
}

// Edge joins two vertices. Link is nil for ownership edges.
type Edge struct {
	ID   domain.EdgeID
	From *Vertex
	To   *Vertex
	Link *Link
}

// IsConnection reports whether the edge is a data-flow connection.
func (e *Edge) IsConnection() bool { return e.Link != nil }

// Info returns the user-visible triple of a connection edge.
func (e *Edge) Info() domain.LinkInfo {
	return domain.LinkInfo{ID: e.ID, From: domain.SlotID(e.From.ID), To: domain.SlotID(e.To.ID)}
}

// Graph is the vertex/edge store, indexed by identity.
type Graph struct {
	vertices map[int]*Vertex
	edges    map[domain.EdgeID]*Edge
	conns    int
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		vertices: make(map[int]*Vertex),
		edges:    make(map[domain.EdgeID]*Edge),
	}
}

// AddVertex inserts a vertex. It fails if the identity is already taken.
func (g *Graph) AddVertex(id int, parent domain.NodeID, typ domain.VertexType) (*Vertex, error) {
	if _, exists := g.vertices[id]; exists {
		return nil, fmt.Errorf("vertex %d already exists", id)
	}
	v := &Vertex{
		ID:     id,
		Parent: parent,
		Type:   typ,
		in:     make(map[domain.EdgeID]*Edge),
		out:    make(map[domain.EdgeID]*Edge),
	}
	g.vertices[id] = v
	return v, nil
}

// AddSlot inserts a slot vertex together with its ownership edge.
func (g *Graph) AddSlot(node *Vertex, slotID int, typ domain.SlotType, edgeID domain.EdgeID) (*Vertex, error) {
	if node == nil || node.Type != domain.VertexNode {
		return nil, fmt.Errorf("slot %d: owner is not a node vertex", slotID)
	}
	slot, err := g.AddVertex(slotID, domain.NodeID(node.ID), typ.Vertex())
	if err != nil {
		return nil, err
	}
	if typ == domain.SlotInput {
		g.attach(&Edge{ID: edgeID, From: slot, To: node})
	} else {
		g.attach(&Edge{ID: edgeID, From: node, To: slot})
	}
	return slot, nil
}

// Vertex looks up a vertex by identity.
func (g *Graph) Vertex(id int) (*Vertex, bool) {
	v, ok := g.vertices[id]
	return v, ok
}

// Connect records a connection edge from an output slot to an input slot.
func (g *Graph) Connect(from, to *Vertex, id domain.EdgeID, link *Link) (*Edge, error) {
	switch {
	case from == nil || to == nil:
		return nil, fmt.Errorf("connect: missing endpoint")
	case from.Type != domain.VertexOutput:
		return nil, fmt.Errorf("connect: vertex %d is not an output slot", from.ID)
	case to.Type != domain.VertexInput:
		return nil, fmt.Errorf("connect: vertex %d is not an input slot", to.ID)
	case link == nil:
		return nil, fmt.Errorf("connect: nil link")
	}
	e := &Edge{ID: id, From: from, To: to, Link: link}
	g.attach(e)
	return e, nil
}

// Disconnect releases and removes the connection edge with the given id.
// Ownership edges are never matched. Unknown ids are a no-op.
func (g *Graph) Disconnect(id domain.EdgeID) bool {
	e, ok := g.edges[id]
	if !ok || e.From.Type != domain.VertexOutput || !e.IsConnection() {
		return false
	}
	e.Link.Release()
	g.detach(e)
	return true
}

// RemoveVertex releases every connection of the vertex, detaches its
// remaining edges and erases it. Unknown ids are a no-op.
func (g *Graph) RemoveVertex(id int) bool {
	v, ok := g.vertices[id]
	if !ok {
		return false
	}
	for _, e := range sortedEdges(v.connections()) {
		e.Link.Release()
	}
	for _, e := range v.InEdges() {
		g.detach(e)
	}
	for _, e := range v.OutEdges() {
		g.detach(e)
	}
	delete(g.vertices, id)
	return true
}

// Slots returns the slot vertices owned by a node vertex, ordered by id.
func (g *Graph) Slots(node int) []*Vertex {
	v, ok := g.vertices[node]
	if !ok || v.Type != domain.VertexNode {
		return nil
	}
	var out []*Vertex
	for _, e := range v.in {
		out = append(out, e.From)
	}
	for _, e := range v.out {
		out = append(out, e.To)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Connections returns every connection as (id, output, input), ordered by id.
func (g *Graph) Connections() []domain.LinkInfo {
	out := make([]domain.LinkInfo, 0, g.conns)
	for _, e := range g.edges {
		if e.IsConnection() {
			out = append(out, e.Info())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ConnectionsOf returns the connections of one slot, ordered by id.
func (g *Graph) ConnectionsOf(id int) []domain.LinkInfo {
	v, ok := g.vertices[id]
	if !ok {
		return nil
	}
	edges := sortedEdges(v.connections())
	out := make([]domain.LinkInfo, 0, len(edges))
	for _, e := range edges {
		out = append(out, e.Info())
	}
	return out
}

// Len returns the number of vertices.
func (g *Graph) Len() int { return len(g.vertices) }

// EdgeCount returns the number of edges of both kinds.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// ConnectionCount returns the number of connection edges.
func (g *Graph) ConnectionCount() int { return g.conns }

// OwnershipCount returns the number of ownership edges.
func (g *Graph) OwnershipCount() int { return len(g.edges) - g.conns }

// Reset releases every live connection and empties the graph.
func (g *Graph) Reset() {
	for _, e := range g.edges {
		if e.IsConnection() {
			e.Link.Release()
		}
	}
	g.vertices = make(map[int]*Vertex)
	g.edges = make(map[domain.EdgeID]*Edge)
	g.conns = 0
}

func (g *Graph) attach(e *Edge) {
	g.edges[e.ID] = e
	e.From.out[e.ID] = e
	e.To.in[e.ID] = e
	if e.IsConnection() {
		g.conns++
	}
}

func (g *Graph) detach(e *Edge) {
	if _, ok := g.edges[e.ID]; !ok {
		return
	}
	delete(g.edges, e.ID)
	delete(e.From.out, e.ID)
	delete(e.To.in, e.ID)
	if e.IsConnection() {
		g.conns--
	}
}

func sortedEdges(m map[domain.EdgeID]*Edge) []*Edge {
	out := make([]*Edge, 0, len(m))
	for _, e := range m {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
