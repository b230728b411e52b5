package basic

import (
	"fmt"

	"github.com/aretw0/dataflow/pkg/domain"
	"github.com/aretw0/dataflow/pkg/registry"
)

// Plugin registers the basic slot and node kinds.
type Plugin struct{}

// New returns the basic plugin.
func New() Plugin { return Plugin{} }

func (Plugin) Name() string { return "basic" }

// RegisterSlotFactories adds the "float" and "text" slot kinds.
func (Plugin) RegisterSlotFactories(r *registry.Registry) error {
	for _, key := range []domain.SlotKey{FloatSlot, TextSlot} {
		r.RegisterSlotFactory(key, slotFactory(key), slotDeserializer(key))
	}
	return nil
}

// RegisterNodeFactories adds the node kinds. The slot kinds they use must
// already be registered.
func (Plugin) RegisterNodeFactories(r *registry.Registry) error {
	for _, key := range []domain.SlotKey{FloatSlot, TextSlot} {
		if _, err := r.SlotFactory(key); err != nil {
			return fmt.Errorf("basic plugin requires slot kind: %w", err)
		}
	}

	r.RegisterNodeFactory(KeyConstant, "Generators/Constant", newConstant, restoreConstant)
	r.RegisterNodeFactory(KeyLabel, "Generators/Label", newLabel, restoreLabel)
	r.RegisterNodeFactory(KeyAdd, "Math/Add", newArithmetic(KeyAdd), restoreArithmetic(KeyAdd))
	r.RegisterNodeFactory(KeySub, "Math/Sub", newArithmetic(KeySub), restoreArithmetic(KeySub))
	r.RegisterNodeFactory(KeySum, "Math/Sum", newArithmetic(KeySum), restoreArithmetic(KeySum))
	r.RegisterNodeFactory(KeyDisplay, "Output/Display", newDisplay, restoreDisplay)
	return nil
}

func slotFactory(key domain.SlotKey) registry.SlotFactory {
	return func(host domain.Host, owner domain.NodeID) (domain.Slot, error) {
		return newPort(domain.SlotID(host.NextID()), key, owner), nil
	}
}

func slotDeserializer(key domain.SlotKey) registry.SlotDeserializer {
	return func(host domain.Host, owner domain.NodeID, rec domain.SlotRecord) (domain.Slot, error) {
		if rec.Key != key {
			return nil, fmt.Errorf("slot %d: kind %q restored as %q: %w", rec.ID, rec.Key, key, domain.ErrMalformedDocument)
		}
		return newPort(rec.ID, key, owner), nil
	}
}
