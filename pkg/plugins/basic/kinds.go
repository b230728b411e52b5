package basic

import (
	"fmt"
	"slices"
	"sync"

	"github.com/aretw0/dataflow/pkg/domain"
)

// Node kind keys provided by the plugin.
const (
	KeyConstant domain.NodeKey = "basic.constant"
	KeyLabel    domain.NodeKey = "basic.label"
	KeyAdd      domain.NodeKey = "basic.add"
	KeySub      domain.NodeKey = "basic.sub"
	KeySum      domain.NodeKey = "basic.sum"
	KeyDisplay  domain.NodeKey = "basic.display"
)

// Constant emits a configured float.
type Constant struct {
	base
	value float64
}

type constantState struct {
	Value float64 `mapstructure:"value"`
}

func newConstant(host domain.Host) (domain.Node, error) {
	n := &Constant{base: base{id: domain.NodeID(host.NextID()), key: KeyConstant}}
	out, err := newPorts(host, FloatSlot, n.id, 1)
	if err != nil {
		return nil, err
	}
	n.outputs = out
	return n, nil
}

func restoreConstant(host domain.Host, rec domain.NodeRecord) (domain.Node, error) {
	n := &Constant{base: base{id: rec.ID, key: KeyConstant, host: host}}
	out, err := restorePorts(host, n.id, FloatSlot, rec.Outputs, 1)
	if err != nil {
		return nil, err
	}
	var st constantState
	if err := decodeState(rec.State, &st); err != nil {
		return nil, err
	}
	n.outputs = out
	n.restorePosition(rec)
	n.Set(st.Value)
	return n, nil
}

// Set changes the emitted value.
func (n *Constant) Set(v float64) {
	n.mu.Lock()
	n.value = v
	out := n.outputs[0]
	n.mu.Unlock()
	out.Set(v)
}

// Value returns the configured value.
func (n *Constant) Value() float64 {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.value
}

func (n *Constant) State() map[string]any {
	return encodeState(constantState{Value: n.Value()})
}

// Label emits a configured string.
type Label struct {
	base
	text string
}

type labelState struct {
	Text string `mapstructure:"text"`
}

func newLabel(host domain.Host) (domain.Node, error) {
	n := &Label{base: base{id: domain.NodeID(host.NextID()), key: KeyLabel}}
	out, err := newPorts(host, TextSlot, n.id, 1)
	if err != nil {
		return nil, err
	}
	n.outputs = out
	return n, nil
}

func restoreLabel(host domain.Host, rec domain.NodeRecord) (domain.Node, error) {
	n := &Label{base: base{id: rec.ID, key: KeyLabel, host: host}}
	out, err := restorePorts(host, n.id, TextSlot, rec.Outputs, 1)
	if err != nil {
		return nil, err
	}
	var st labelState
	if err := decodeState(rec.State, &st); err != nil {
		return nil, err
	}
	n.outputs = out
	n.restorePosition(rec)
	n.Set(st.Text)
	return n, nil
}

// Set changes the emitted text.
func (n *Label) Set(s string) {
	n.mu.Lock()
	n.text = s
	out := n.outputs[0]
	n.mu.Unlock()
	out.Set(s)
}

func (n *Label) State() map[string]any {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return encodeState(labelState{Text: n.text})
}

// Arithmetic folds its float inputs into one float output.
type Arithmetic struct {
	base
	fold    func(acc, v float64, first bool) float64
	busy    bool
	busyMu  sync.Mutex
	dynamic bool
}

func add(acc, v float64, first bool) float64 { return acc + v }

func sub(acc, v float64, first bool) float64 {
	if first {
		return v
	}
	return acc - v
}

func arithmeticKind(key domain.NodeKey) (fold func(float64, float64, bool) float64, inputs int, dynamic bool) {
	switch key {
	case KeySub:
		return sub, 2, false
	case KeySum:
		return add, 2, true
	default:
		return add, 2, false
	}
}

func newArithmetic(key domain.NodeKey) func(domain.Host) (domain.Node, error) {
	return func(host domain.Host) (domain.Node, error) {
		fold, inputs, dynamic := arithmeticKind(key)
		n := &Arithmetic{base: base{id: domain.NodeID(host.NextID()), key: key}, fold: fold, dynamic: dynamic}
		in, err := newPorts(host, FloatSlot, n.id, inputs)
		if err != nil {
			return nil, err
		}
		out, err := newPorts(host, FloatSlot, n.id, 1)
		if err != nil {
			return nil, err
		}
		n.inputs, n.outputs = in, out
		n.wire(in...)
		return n, nil
	}
}

func restoreArithmetic(key domain.NodeKey) func(domain.Host, domain.NodeRecord) (domain.Node, error) {
	return func(host domain.Host, rec domain.NodeRecord) (domain.Node, error) {
		fold, inputs, dynamic := arithmeticKind(key)
		if dynamic {
			inputs = -1
		}
		n := &Arithmetic{base: base{id: rec.ID, key: key, host: host}, fold: fold, dynamic: dynamic}
		in, err := restorePorts(host, n.id, FloatSlot, rec.Inputs, inputs)
		if err != nil {
			return nil, err
		}
		out, err := restorePorts(host, n.id, FloatSlot, rec.Outputs, 1)
		if err != nil {
			return nil, err
		}
		n.inputs, n.outputs = in, out
		n.restorePosition(rec)
		n.wire(in...)
		return n, nil
	}
}

func (n *Arithmetic) wire(ports ...*Port) {
	for _, p := range ports {
		p.onChange(func(any) { n.recompute() })
	}
	n.recompute()
}

// recompute pushes the folded input values to the output.
// Re-entrant calls, as produced by cycles, are dropped.
func (n *Arithmetic) recompute() {
	n.busyMu.Lock()
	if n.busy {
		n.busyMu.Unlock()
		return
	}
	n.busy = true
	n.busyMu.Unlock()
	defer func() {
		n.busyMu.Lock()
		n.busy = false
		n.busyMu.Unlock()
	}()

	n.mu.RLock()
	acc := 0.0
	for i, p := range n.inputs {
		acc = n.fold(acc, p.Float(), i == 0)
	}
	out := n.outputs[0]
	n.mu.RUnlock()

	out.Set(acc)
}

// Result returns the current output value.
func (n *Arithmetic) Result() float64 {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.outputs[0].Float()
}

// AddInput grows a dynamic node by one float input and registers it with the host.
func (n *Arithmetic) AddInput() (domain.SlotID, error) {
	n.mu.RLock()
	host, dynamic := n.host, n.dynamic
	n.mu.RUnlock()
	if !dynamic {
		return 0, fmt.Errorf("node %s has a fixed number of inputs", n.key)
	}
	if host == nil {
		return 0, fmt.Errorf("node %d is not attached to a graph", n.id)
	}

	ports, err := newPorts(host, FloatSlot, n.id, 1)
	if err != nil {
		return 0, err
	}
	p := ports[0]

	n.mu.Lock()
	n.inputs = append(n.inputs, p)
	n.mu.Unlock()

	if !host.RegisterSlot(n.id, p.id, domain.SlotInput) {
		n.mu.Lock()
		n.inputs = slices.DeleteFunc(n.inputs, func(q *Port) bool { return q == p })
		n.mu.Unlock()
		return 0, fmt.Errorf("node %d: slot %d was rejected by the graph", n.id, p.id)
	}
	n.wire(p)
	return p.id, nil
}

// RemoveInput drops a dynamic input, disconnecting it first.
func (n *Arithmetic) RemoveInput(id domain.SlotID) error {
	n.mu.RLock()
	host, dynamic := n.host, n.dynamic
	n.mu.RUnlock()
	if !dynamic {
		return fmt.Errorf("node %s has a fixed number of inputs", n.key)
	}
	if host == nil || !host.UnregisterSlot(n.id, id) {
		return fmt.Errorf("node %d: slot %d is not registered", n.id, id)
	}

	n.mu.Lock()
	n.inputs = slices.DeleteFunc(n.inputs, func(q *Port) bool { return q.id == id })
	n.mu.Unlock()
	n.recompute()
	return nil
}

func (n *Arithmetic) State() map[string]any {
	if !n.dynamic {
		return nil
	}
	n.mu.RLock()
	defer n.mu.RUnlock()
	return map[string]any{"inputs": len(n.inputs)}
}

// Display remembers the last float it received.
type Display struct {
	base
	last    float64
	updates int
}

func newDisplay(host domain.Host) (domain.Node, error) {
	n := &Display{base: base{id: domain.NodeID(host.NextID()), key: KeyDisplay}}
	in, err := newPorts(host, FloatSlot, n.id, 1)
	if err != nil {
		return nil, err
	}
	n.inputs = in
	n.wire()
	return n, nil
}

func restoreDisplay(host domain.Host, rec domain.NodeRecord) (domain.Node, error) {
	n := &Display{base: base{id: rec.ID, key: KeyDisplay, host: host}}
	in, err := restorePorts(host, n.id, FloatSlot, rec.Inputs, 1)
	if err != nil {
		return nil, err
	}
	n.inputs = in
	n.restorePosition(rec)
	n.wire()
	return n, nil
}

func (n *Display) wire() {
	n.inputs[0].onChange(func(v any) {
		f, _ := v.(float64)
		n.mu.Lock()
		n.last = f
		n.updates++
		n.mu.Unlock()
	})
}

// Last returns the most recent value and how many updates were seen.
func (n *Display) Last() (float64, int) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.last, n.updates
}

func (n *Display) State() map[string]any { return nil }
