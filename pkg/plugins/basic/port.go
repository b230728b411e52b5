package basic

import (
	"fmt"
	"sync"

	"github.com/aretw0/dataflow/pkg/domain"
)

const (
	// FloatSlot carries float64 values.
	FloatSlot domain.SlotKey = "float"
	// TextSlot carries strings.
	TextSlot domain.SlotKey = "text"
)

// Port is the slot implementation shared by every kind of this plugin.
type Port struct {
	id    domain.SlotID
	key   domain.SlotKey
	owner domain.NodeID

	mu      sync.RWMutex
	value   any
	changed signal
}

func newPort(id domain.SlotID, key domain.SlotKey, owner domain.NodeID) *Port {
	return &Port{id: id, key: key, owner: owner, value: zero(key)}
}

func zero(key domain.SlotKey) any {
	if key == TextSlot {
		return ""
	}
	return 0.0
}

func (p *Port) ID() domain.SlotID    { return p.id }
func (p *Port) Key() domain.SlotKey  { return p.key }
func (p *Port) Owner() domain.NodeID { return p.owner }

// CanConnectTo accepts inputs of the same kind only.
func (p *Port) CanConnectTo(other domain.SlotKey) bool {
	return other == p.key
}

// ConnectTo subscribes other to this port's changes and pushes the current value.
func (p *Port) ConnectTo(other domain.Slot) (domain.Connection, error) {
	in, ok := other.(*Port)
	if !ok {
		return nil, fmt.Errorf("slot %d is not a basic port: %w", other.ID(), domain.ErrIncompatible)
	}
	if !p.CanConnectTo(in.key) {
		return nil, fmt.Errorf("%s -> %s: %w", p.key, in.key, domain.ErrIncompatible)
	}
	conn := p.changed.subscribe(in.Set)
	in.Set(p.Value())
	return conn, nil
}

// Set stores a value and notifies subscribers when it changed.
func (p *Port) Set(v any) {
	p.mu.Lock()
	if p.value == v {
		p.mu.Unlock()
		return
	}
	p.value = v
	p.mu.Unlock()

	p.changed.emit(v)
}

// Value returns the current value.
func (p *Port) Value() any {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.value
}

// Float returns the current value as a float64 (0 for non-numeric values).
func (p *Port) Float() float64 {
	f, _ := p.Value().(float64)
	return f
}

// Subscribers returns how many handlers listen to this port.
func (p *Port) Subscribers() int {
	return p.changed.len()
}

func (p *Port) onChange(fn func(any)) {
	p.changed.subscribe(fn)
}
