package basic

import (
	"fmt"
	"sync"

	"github.com/aretw0/dataflow/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

// base carries what every node kind of this plugin shares.
type base struct {
	id  domain.NodeID
	key domain.NodeKey

	mu      sync.RWMutex
	x, y    float64
	screen  bool
	inputs  []*Port
	outputs []*Port
	host    domain.Host
}

func (b *base) ID() domain.NodeID   { return b.id }
func (b *base) Key() domain.NodeKey { return b.key }

// Init keeps the host for later slot changes.
func (b *base) Init(host domain.Host) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.host = host
	return nil
}

func (b *base) SetPosition(x, y float64, screenSpace bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.x, b.y, b.screen = x, y, screenSpace
}

func (b *base) Position() (float64, float64) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.x, b.y
}

// ScreenSpace reports whether the last position was given in screen coordinates.
func (b *base) ScreenSpace() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.screen
}

func (b *base) Inputs() []domain.Slot {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return slots(b.inputs)
}

func (b *base) Outputs() []domain.Slot {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return slots(b.outputs)
}

func (b *base) Input(id domain.SlotID) domain.Slot {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if p := find(b.inputs, id); p != nil {
		return p
	}
	return nil
}

func (b *base) Output(id domain.SlotID) domain.Slot {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if p := find(b.outputs, id); p != nil {
		return p
	}
	return nil
}

// Port returns the plugin port with the given id, searching inputs then outputs.
func (b *base) Port(id domain.SlotID) *Port {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if p := find(b.inputs, id); p != nil {
		return p
	}
	return find(b.outputs, id)
}

func (b *base) restorePosition(rec domain.NodeRecord) {
	b.x, b.y = rec.X, rec.Y
}

func slots(ports []*Port) []domain.Slot {
	out := make([]domain.Slot, len(ports))
	for i, p := range ports {
		out[i] = p
	}
	return out
}

func find(ports []*Port, id domain.SlotID) *Port {
	for _, p := range ports {
		if p.id == id {
			return p
		}
	}
	return nil
}

// newPorts builds n fresh ports of a kind owned by owner.
func newPorts(host domain.Host, key domain.SlotKey, owner domain.NodeID, n int) ([]*Port, error) {
	out := make([]*Port, 0, n)
	for i := 0; i < n; i++ {
		s, err := host.NewSlot(key, owner)
		if err != nil {
			return nil, err
		}
		p, ok := s.(*Port)
		if !ok {
			return nil, fmt.Errorf("slot kind %q is not provided by the basic plugin", key)
		}
		out = append(out, p)
	}
	return out, nil
}

// restorePorts rebuilds persisted ports of one kind, checking the expected
// count (-1 for any).
func restorePorts(host domain.Host, owner domain.NodeID, key domain.SlotKey, recs []domain.SlotRecord, want int) ([]*Port, error) {
	if want >= 0 && len(recs) != want {
		return nil, fmt.Errorf("node %d: expected %d slots, got %d: %w", owner, want, len(recs), domain.ErrMalformedDocument)
	}
	out := make([]*Port, 0, len(recs))
	for _, rec := range recs {
		if rec.Key != key {
			return nil, fmt.Errorf("node %d: slot %d has kind %q, want %q: %w", owner, rec.ID, rec.Key, key, domain.ErrMalformedDocument)
		}
		s, err := host.RestoreSlot(owner, rec)
		if err != nil {
			return nil, err
		}
		p, ok := s.(*Port)
		if !ok {
			return nil, fmt.Errorf("slot kind %q is not provided by the basic plugin", rec.Key)
		}
		out = append(out, p)
	}
	return out, nil
}

// decodeState fills out from a persisted state map.
func decodeState(state map[string]any, out any) error {
	if len(state) == 0 {
		return nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(state); err != nil {
		return fmt.Errorf("decode node state: %v: %w", err, domain.ErrMalformedDocument)
	}
	return nil
}

// encodeState turns a state struct into a persisted map.
func encodeState(in any) map[string]any {
	out := make(map[string]any)
	if err := mapstructure.Decode(in, &out); err != nil {
		return nil
	}
	return out
}
