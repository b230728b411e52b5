package registry_test

import (
	"errors"
	"testing"

	"github.com/aretw0/dataflow/pkg/domain"
	"github.com/aretw0/dataflow/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nodeFactory(tag string) registry.NodeFactory {
	return func(host domain.Host) (domain.Node, error) {
		return nil, errors.New(tag)
	}
}

func nodeDeserializer(tag string) registry.NodeDeserializer {
	return func(host domain.Host, rec domain.NodeRecord) (domain.Node, error) {
		return nil, errors.New(tag)
	}
}

func slotFactory(tag string) registry.SlotFactory {
	return func(host domain.Host, owner domain.NodeID) (domain.Slot, error) {
		return nil, errors.New(tag)
	}
}

func slotDeserializer(tag string) registry.SlotDeserializer {
	return func(host domain.Host, owner domain.NodeID, rec domain.SlotRecord) (domain.Slot, error) {
		return nil, errors.New(tag)
	}
}

func TestRegistry_NotFound(t *testing.T) {
	r := registry.New()

	_, err := r.NodeFactory("missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = r.NodeDeserializer("missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = r.SlotFactory("missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = r.SlotDeserializer("missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Contains(t, err.Error(), "missing")
}

func TestRegistry_LastRegistrationWins(t *testing.T) {
	r := registry.New()
	r.RegisterNodeFactory("add", "Math/Add", nodeFactory("first"), nodeDeserializer("first"))
	r.RegisterNodeFactory("add", "Math/Add", nodeFactory("second"), nodeDeserializer("second"))
	r.RegisterSlotFactory("float", slotFactory("first"), slotDeserializer("first"))
	r.RegisterSlotFactory("float", slotFactory("second"), slotDeserializer("second"))

	build, err := r.NodeFactory("add")
	require.NoError(t, err)
	_, err = build(nil)
	assert.EqualError(t, err, "second")

	restore, err := r.NodeDeserializer("add")
	require.NoError(t, err)
	_, err = restore(nil, domain.NodeRecord{})
	assert.EqualError(t, err, "second")

	slot, err := r.SlotFactory("float")
	require.NoError(t, err)
	_, err = slot(nil, 0)
	assert.EqualError(t, err, "second")

	slotRestore, err := r.SlotDeserializer("float")
	require.NoError(t, err)
	_, err = slotRestore(nil, 0, domain.SlotRecord{})
	assert.EqualError(t, err, "second")

	assert.Equal(t, []domain.NodeKey{"add"}, r.NodeKeys())
	assert.Equal(t, []domain.SlotKey{"float"}, r.SlotKeys())
	assert.Equal(t, 1, r.Catalog().Len())
}

func TestRegistry_CatalogFedByNodeKinds(t *testing.T) {
	r := registry.New()
	r.RegisterSlotFactory("float", slotFactory("s"), slotDeserializer("s"))
	r.RegisterNodeFactory("Math/Add", "Math/Add", nodeFactory("a"), nodeDeserializer("a"))
	r.RegisterNodeFactory("Math/Sub", "Math/Sub", nodeFactory("b"), nodeDeserializer("b"))

	var names []string
	r.Catalog().Walk(func(prev, depth int, leaf bool, key, name string) {
		names = append(names, name)
	})
	assert.Equal(t, []string{"Math", "Add", "Sub"}, names, "slots never enter the catalog")

	label, ok := r.Label("Math/Sub")
	assert.True(t, ok)
	assert.Equal(t, "Math/Sub", label)
}

func TestRegistry_RelabelMovesCatalogEntry(t *testing.T) {
	r := registry.New()
	r.RegisterNodeFactory("k", "Math/Add", nodeFactory("a"), nodeDeserializer("a"))
	r.RegisterNodeFactory("k", "Ops/Plus", nodeFactory("b"), nodeDeserializer("b"))

	var names []string
	r.Catalog().Walk(func(prev, depth int, leaf bool, key, name string) {
		names = append(names, name)
	})
	assert.Equal(t, []string{"Ops", "Plus"}, names)
	assert.Equal(t, 1, r.Catalog().Len())

	_, ok := r.Catalog().Lookup("Math/Add")
	assert.False(t, ok)
	label, _ := r.Label("k")
	assert.Equal(t, "Ops/Plus", label)
}

func TestRegistry_RelabelKeepsLabelTakenByAnotherKind(t *testing.T) {
	r := registry.New()
	r.RegisterNodeFactory("a", "Math/Add", nodeFactory("a"), nodeDeserializer("a"))
	r.RegisterNodeFactory("b", "Math/Add", nodeFactory("b"), nodeDeserializer("b"))
	r.RegisterNodeFactory("a", "Math/Plus", nodeFactory("a"), nodeDeserializer("a"))

	key, ok := r.Catalog().Lookup("Math/Add")
	require.True(t, ok)
	assert.Equal(t, "b", key)
	key, ok = r.Catalog().Lookup("Math/Plus")
	require.True(t, ok)
	assert.Equal(t, "a", key)
}

type recordingPlugin struct {
	name    string
	calls   *[]string
	slotErr error
}

func (p recordingPlugin) Name() string { return p.name }

func (p recordingPlugin) RegisterSlotFactories(r *registry.Registry) error {
	*p.calls = append(*p.calls, p.name+":slots")
	return p.slotErr
}

func (p recordingPlugin) RegisterNodeFactories(r *registry.Registry) error {
	*p.calls = append(*p.calls, p.name+":nodes")
	return nil
}

func TestInstall_TwoPhaseOrdering(t *testing.T) {
	var calls []string
	r := registry.New()

	names, err := registry.Install(r, nil,
		recordingPlugin{name: "a", calls: &calls},
		recordingPlugin{name: "b", calls: &calls},
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, names)
	assert.Equal(t, []string{"a:slots", "b:slots", "a:nodes", "b:nodes"}, calls)
}

func TestInstall_BrokenPluginSkipped(t *testing.T) {
	var calls []string
	r := registry.New()

	names, err := registry.Install(r, nil,
		recordingPlugin{name: "broken", calls: &calls, slotErr: errors.New("no")},
		recordingPlugin{name: "ok", calls: &calls},
	)
	assert.Error(t, err)
	assert.Equal(t, []string{"ok"}, names)
	assert.Equal(t, []string{"broken:slots", "ok:slots", "ok:nodes"}, calls)
}
