// Package registry maps node and slot kind keys to their construction and
// deserialization functions.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/dataflow/pkg/catalog"
	"github.com/aretw0/dataflow/pkg/domain"
)

// NodeFactory constructs a fresh node of a kind.
type NodeFactory func(host domain.Host) (domain.Node, error)

// NodeDeserializer rebuilds a persisted node of a kind.
type NodeDeserializer func(host domain.Host, rec domain.NodeRecord) (domain.Node, error)

// SlotFactory constructs a fresh slot of a kind, owned by owner.
type SlotFactory func(host domain.Host, owner domain.NodeID) (domain.Slot, error)

// SlotDeserializer rebuilds a persisted slot of a kind, owned by owner.
type SlotDeserializer func(host domain.Host, owner domain.NodeID, rec domain.SlotRecord) (domain.Slot, error)

type nodeKind struct {
	label       string
	construct   NodeFactory
	deserialize NodeDeserializer
}

type slotKind struct {
	construct   SlotFactory
	deserialize SlotDeserializer
}

// Registry manages the available node and slot kinds.
// Registering an existing key overwrites it.
type Registry struct {
	mu      sync.RWMutex
	nodes   map[domain.NodeKey]nodeKind
	slots   map[domain.SlotKey]slotKind
	catalog *catalog.Tree
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		nodes:   make(map[domain.NodeKey]nodeKind),
		slots:   make(map[domain.SlotKey]slotKind),
		catalog: catalog.New(),
	}
}

// RegisterNodeFactory adds a node kind and lists it in the catalog under label.
// Re-registering a key moves its catalog entry to the new label.
func (r *Registry) RegisterNodeFactory(key domain.NodeKey, label string, construct NodeFactory, deserialize NodeDeserializer) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.nodes[key]; ok {
		r.catalog.Remove(string(key), prev.label)
	}
	r.nodes[key] = nodeKind{label: label, construct: construct, deserialize: deserialize}
	r.catalog.Add(string(key), label)
}

// RegisterSlotFactory adds a slot kind.
func (r *Registry) RegisterSlotFactory(key domain.SlotKey, construct SlotFactory, deserialize SlotDeserializer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.slots[key] = slotKind{construct: construct, deserialize: deserialize}
}

// NodeFactory returns the constructor of a node kind.
// Returns domain.ErrNotFound if the kind was never registered.
func (r *Registry) NodeFactory(key domain.NodeKey) (NodeFactory, error) {
	r.mu.RLock()
	kind, ok := r.nodes[key]
	r.mu.RUnlock()

	if !ok || kind.construct == nil {
		return nil, fmt.Errorf("node factory %q: %w", key, domain.ErrNotFound)
	}
	return kind.construct, nil
}

// NodeDeserializer returns the deserializer of a node kind.
// Returns domain.ErrNotFound if the kind was never registered.
func (r *Registry) NodeDeserializer(key domain.NodeKey) (NodeDeserializer, error) {
	r.mu.RLock()
	kind, ok := r.nodes[key]
	r.mu.RUnlock()

	if !ok || kind.deserialize == nil {
		return nil, fmt.Errorf("node deserializer %q: %w", key, domain.ErrNotFound)
	}
	return kind.deserialize, nil
}

// SlotFactory returns the constructor of a slot kind.
// Returns domain.ErrNotFound if the kind was never registered.
func (r *Registry) SlotFactory(key domain.SlotKey) (SlotFactory, error) {
	r.mu.RLock()
	kind, ok := r.slots[key]
	r.mu.RUnlock()

	if !ok || kind.construct == nil {
		return nil, fmt.Errorf("slot factory %q: %w", key, domain.ErrNotFound)
	}
	return kind.construct, nil
}

// SlotDeserializer returns the deserializer of a slot kind.
// Returns domain.ErrNotFound if the kind was never registered.
func (r *Registry) SlotDeserializer(key domain.SlotKey) (SlotDeserializer, error) {
	r.mu.RLock()
	kind, ok := r.slots[key]
	r.mu.RUnlock()

	if !ok || kind.deserialize == nil {
		return nil, fmt.Errorf("slot deserializer %q: %w", key, domain.ErrNotFound)
	}
	return kind.deserialize, nil
}

// Label returns the display label a node kind was registered with.
func (r *Registry) Label(key domain.NodeKey) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	kind, ok := r.nodes[key]
	return kind.label, ok
}

// NodeKeys returns the registered node kinds, sorted.
func (r *Registry) NodeKeys() []domain.NodeKey {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]domain.NodeKey, 0, len(r.nodes))
	for k := range r.nodes {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// SlotKeys returns the registered slot kinds, sorted.
func (r *Registry) SlotKeys() []domain.SlotKey {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]domain.SlotKey, 0, len(r.slots))
	for k := range r.slots {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Catalog returns the display tree of registered node kinds.
func (r *Registry) Catalog() *catalog.Tree {
	return r.catalog
}
