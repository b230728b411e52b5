package basic_test

import (
	"testing"

	"github.com/aretw0/dataflow"
	"github.com/aretw0/dataflow/pkg/domain"
	"github.com/aretw0/dataflow/pkg/plugins/basic"
	"github.com/aretw0/dataflow/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngine(t *testing.T) *dataflow.Engine {
	t.Helper()
	eng, err := dataflow.New(dataflow.WithPlugins(basic.New()))
	require.NoError(t, err)
	return eng
}

func create[T domain.Node](t *testing.T, eng *dataflow.Engine, key domain.NodeKey) T {
	t.Helper()
	id, err := eng.CreateNode(key, 0, 0, false)
	require.NoError(t, err)
	n, ok := eng.Node(id)
	require.True(t, ok)
	typed, ok := n.(T)
	require.True(t, ok, "node %s has type %T", key, n)
	return typed
}

func connect(t *testing.T, eng *dataflow.Engine, from domain.Slot, to domain.Slot) domain.EdgeID {
	t.Helper()
	id, ok := eng.AddEdge(from.ID(), to.ID())
	require.True(t, ok, "connect %d -> %d", from.ID(), to.ID())
	return id
}

func TestSub_FoldsInOrder(t *testing.T) {
	eng := newEngine(t)
	a := create[*basic.Constant](t, eng, basic.KeyConstant)
	b := create[*basic.Constant](t, eng, basic.KeyConstant)
	sub := create[*basic.Arithmetic](t, eng, basic.KeySub)
	display := create[*basic.Display](t, eng, basic.KeyDisplay)

	a.Set(5)
	b.Set(2)
	connect(t, eng, a.Outputs()[0], sub.Inputs()[0])
	connect(t, eng, b.Outputs()[0], sub.Inputs()[1])
	connect(t, eng, sub.Outputs()[0], display.Inputs()[0])

	assert.Equal(t, 3.0, sub.Result())
	last, _ := display.Last()
	assert.Equal(t, 3.0, last)

	b.Set(10)
	last, _ = display.Last()
	assert.Equal(t, -5.0, last)
}

func TestPort_KindsMustMatch(t *testing.T) {
	eng := newEngine(t)
	label := create[*basic.Label](t, eng, basic.KeyLabel)
	display := create[*basic.Display](t, eng, basic.KeyDisplay)

	out := label.Outputs()[0]
	in := display.Inputs()[0]
	assert.False(t, out.CanConnectTo(in.Key()))

	_, ok := eng.AddEdge(out.ID(), in.ID())
	assert.False(t, ok)

	_, err := out.ConnectTo(in)
	assert.ErrorIs(t, err, domain.ErrIncompatible)
}

func TestPort_DisconnectStopsUpdates(t *testing.T) {
	eng := newEngine(t)
	c := create[*basic.Constant](t, eng, basic.KeyConstant)
	display := create[*basic.Display](t, eng, basic.KeyDisplay)

	out := c.Outputs()[0].(*basic.Port)
	edge := connect(t, eng, out, display.Inputs()[0])
	assert.Equal(t, 1, out.Subscribers())

	c.Set(1)
	require.True(t, eng.RemoveEdge(edge))
	assert.Equal(t, 0, out.Subscribers())

	c.Set(2)
	last, updates := display.Last()
	assert.Equal(t, 1.0, last)
	assert.Equal(t, 1, updates)
}

func TestCycle_DoesNotRecurse(t *testing.T) {
	eng := newEngine(t)
	c := create[*basic.Constant](t, eng, basic.KeyConstant)
	add := create[*basic.Arithmetic](t, eng, basic.KeyAdd)

	c.Set(1)
	connect(t, eng, c.Outputs()[0], add.Inputs()[0])
	connect(t, eng, add.Outputs()[0], add.Inputs()[1])

	c.Set(2)
	assert.NotZero(t, add.Result())
}

func TestSum_FixedKindsRejectDynamicInputs(t *testing.T) {
	eng := newEngine(t)
	add := create[*basic.Arithmetic](t, eng, basic.KeyAdd)

	_, err := add.AddInput()
	assert.Error(t, err)
	assert.Error(t, add.RemoveInput(add.Inputs()[0].ID()))
	assert.Len(t, add.Inputs(), 2)
}

func TestSum_DynamicInputsSurviveRestore(t *testing.T) {
	eng := newEngine(t)
	sum := create[*basic.Arithmetic](t, eng, basic.KeySum)
	_, err := sum.AddInput()
	require.NoError(t, err)
	require.Len(t, sum.Inputs(), 3)

	fresh := newEngine(t)
	report, err := fresh.Restore(eng.Snapshot())
	require.NoError(t, err)
	require.Empty(t, report.Skipped)

	n, ok := fresh.Node(sum.ID())
	require.True(t, ok)
	assert.Len(t, n.Inputs(), 3)
	assert.Equal(t, 4, fresh.Stats().Slots)
}

func TestLabel_StateRoundTrip(t *testing.T) {
	eng := newEngine(t)
	label := create[*basic.Label](t, eng, basic.KeyLabel)
	label.Set("hello")
	label.SetPosition(3, 4, true)
	assert.True(t, label.ScreenSpace())

	fresh := newEngine(t)
	_, err := fresh.Restore(eng.Snapshot())
	require.NoError(t, err)

	n, ok := fresh.Node(label.ID())
	require.True(t, ok)
	assert.Equal(t, map[string]any{"text": "hello"}, n.State())
	x, y := n.Position()
	assert.Equal(t, 3.0, x)
	assert.Equal(t, 4.0, y)
}

func TestConstant_MalformedState(t *testing.T) {
	eng := newEngine(t)
	doc := &domain.Document{
		Version: domain.DocumentVersion,
		Nodes: []domain.NodeRecord{{
			Key:     basic.KeyConstant,
			ID:      0,
			Outputs: []domain.SlotRecord{{Key: basic.FloatSlot, ID: 1}},
			State:   map[string]any{"value": "not a number"},
		}},
	}
	report, err := eng.Restore(doc)
	require.NoError(t, err)
	require.Len(t, report.Skipped, 1)
	assert.ErrorIs(t, report.Skipped[0], domain.ErrMalformedDocument)
}

func TestPlugin_SlotKindMismatchOnRestore(t *testing.T) {
	eng := newEngine(t)
	doc := &domain.Document{
		Version: domain.DocumentVersion,
		Nodes: []domain.NodeRecord{{
			Key:     basic.KeyConstant,
			ID:      0,
			Outputs: []domain.SlotRecord{{Key: basic.TextSlot, ID: 1}},
		}},
	}
	report, err := eng.Restore(doc)
	require.NoError(t, err)
	require.Len(t, report.Skipped, 1)
	assert.Empty(t, eng.Nodes())
}

func TestPlugin_RequiresSlotKinds(t *testing.T) {
	r := registry.New()
	err := basic.New().RegisterNodeFactories(r)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Empty(t, r.NodeKeys())

	installed, err := registry.Install(r, nil, basic.New())
	require.NoError(t, err)
	assert.Equal(t, []string{"basic"}, installed)
	assert.Len(t, r.NodeKeys(), 6)
	assert.Equal(t, []domain.SlotKey{basic.FloatSlot, basic.TextSlot}, r.SlotKeys())
}
