package dataflow_test

import (
	"errors"
	"fmt"

	"github.com/aretw0/dataflow/pkg/domain"
	"github.com/aretw0/dataflow/pkg/registry"
)

const (
	stubSlot      domain.SlotKey = "stub"
	otherSlot     domain.SlotKey = "other"
	stubSource    domain.NodeKey = "stub.source"
	stubSink      domain.NodeKey = "stub.sink"
	stubOther     domain.NodeKey = "stub.other"
	stubBroken    domain.NodeKey = "stub.broken"
	stubSelfReg   domain.NodeKey = "stub.selfreg"
	stubBadInit   domain.NodeKey = "stub.badinit"
	stubFanIn     domain.NodeKey = "stub.fanin"
	stubHomed     domain.NodeKey = "stub.homed"
	missingNodeID domain.NodeID  = 9999
)

var errBroken = errors.New("broken factory")

// stubKit registers minimal node and slot kinds that count released connections.
type stubKit struct {
	released int
	// initResults collects what RegisterSlot returned during Init of stub.selfreg.
	initResults []bool
}

type stubConn struct{ kit *stubKit }

func (c *stubConn) Disconnect() { c.kit.released++ }

type stubPort struct {
	id  domain.SlotID
	key domain.SlotKey
	kit *stubKit
}

func (p *stubPort) ID() domain.SlotID   { return p.id }
func (p *stubPort) Key() domain.SlotKey { return p.key }
func (p *stubPort) CanConnectTo(other domain.SlotKey) bool {
	return other == p.key
}
func (p *stubPort) ConnectTo(other domain.Slot) (domain.Connection, error) {
	return &stubConn{kit: p.kit}, nil
}

type stubNode struct {
	id      domain.NodeID
	key     domain.NodeKey
	x, y    float64
	ins     []domain.Slot
	outs    []domain.Slot
	kit     *stubKit
	initErr error
}

func (n *stubNode) ID() domain.NodeID   { return n.id }
func (n *stubNode) Key() domain.NodeKey { return n.key }
func (n *stubNode) Init(host domain.Host) error {
	if n.initErr != nil {
		return n.initErr
	}
	if n.key == stubHomed {
		n.SetPosition(0, 0, false)
	}
	if n.key == stubSelfReg {
		n.kit.initResults = append(n.kit.initResults,
			host.RegisterSlot(n.id, n.ins[0].ID(), domain.SlotInput),
			host.RegisterSlot(n.id, n.ins[0].ID(), domain.SlotOutput),
			host.RegisterSlot(n.id, domain.SlotID(12345), domain.SlotInput),
		)
	}
	return nil
}
func (n *stubNode) SetPosition(x, y float64, _ bool) { n.x, n.y = x, y }
func (n *stubNode) Position() (float64, float64)     { return n.x, n.y }
func (n *stubNode) Inputs() []domain.Slot            { return n.ins }
func (n *stubNode) Outputs() []domain.Slot           { return n.outs }
func (n *stubNode) Input(id domain.SlotID) domain.Slot {
	return findSlot(n.ins, id)
}
func (n *stubNode) Output(id domain.SlotID) domain.Slot {
	return findSlot(n.outs, id)
}
func (n *stubNode) State() map[string]any { return nil }

func findSlot(slots []domain.Slot, id domain.SlotID) domain.Slot {
	for _, s := range slots {
		if s.ID() == id {
			return s
		}
	}
	return nil
}

// register installs the stub kinds into r.
func (k *stubKit) register(r *registry.Registry) {
	for _, key := range []domain.SlotKey{stubSlot, otherSlot} {
		key := key
		r.RegisterSlotFactory(key,
			func(host domain.Host, owner domain.NodeID) (domain.Slot, error) {
				return &stubPort{id: domain.SlotID(host.NextID()), key: key, kit: k}, nil
			},
			func(host domain.Host, owner domain.NodeID, rec domain.SlotRecord) (domain.Slot, error) {
				return &stubPort{id: rec.ID, key: rec.Key, kit: k}, nil
			})
	}

	kind := func(key domain.NodeKey, label string, ins, outs int, slot domain.SlotKey, initErr error) {
		r.RegisterNodeFactory(key, label,
			func(host domain.Host) (domain.Node, error) {
				n := &stubNode{id: domain.NodeID(host.NextID()), key: key, kit: k, initErr: initErr}
				for i := 0; i < ins; i++ {
					s, err := host.NewSlot(slot, n.id)
					if err != nil {
						return nil, err
					}
					n.ins = append(n.ins, s)
				}
				for i := 0; i < outs; i++ {
					s, err := host.NewSlot(slot, n.id)
					if err != nil {
						return nil, err
					}
					n.outs = append(n.outs, s)
				}
				return n, nil
			},
			func(host domain.Host, rec domain.NodeRecord) (domain.Node, error) {
				if len(rec.Inputs) != ins || len(rec.Outputs) != outs {
					return nil, fmt.Errorf("slot count mismatch: %w", domain.ErrMalformedDocument)
				}
				n := &stubNode{id: rec.ID, key: key, kit: k, x: rec.X, y: rec.Y}
				for _, s := range rec.Inputs {
					slot, err := host.RestoreSlot(n.id, s)
					if err != nil {
						return nil, err
					}
					n.ins = append(n.ins, slot)
				}
				for _, s := range rec.Outputs {
					slot, err := host.RestoreSlot(n.id, s)
					if err != nil {
						return nil, err
					}
					n.outs = append(n.outs, slot)
				}
				return n, nil
			})
	}

	kind(stubSource, "Stub/Source", 0, 1, stubSlot, nil)
	kind(stubSink, "Stub/Sink", 1, 0, stubSlot, nil)
	kind(stubOther, "Stub/Other", 1, 0, otherSlot, nil)
	kind(stubFanIn, "Stub/FanIn", 2, 1, stubSlot, nil)
	kind(stubSelfReg, "Stub/SelfRegistering", 1, 0, stubSlot, nil)
	kind(stubHomed, "Stub/Homed", 0, 1, stubSlot, nil)
	kind(stubBadInit, "Stub/BadInit", 1, 1, stubSlot, errors.New("init failed"))

	r.RegisterNodeFactory(stubBroken, "Stub/Broken",
		func(host domain.Host) (domain.Node, error) { return nil, errBroken },
		func(host domain.Host, rec domain.NodeRecord) (domain.Node, error) { return nil, errBroken })
}
