package network

import (
	"fmt"

	"github.com/flowcore-go/flowcore/component"
	"github.com/flowcore-go/flowcore/conn"
	"github.com/flowcore-go/flowcore/port"
)

type wiredNode struct {
	spec  *NodeSpec
	ports *component.Ports
}

// Build turns g into a Network ready to Run. Every output Endpoint that
// appears in a ConnSpec.From gets a live OutputPort; every input
// Endpoint named by a ConnSpec.To or IIPSpec.To gets a live InputPort.
// A declared port that is neither connected nor given an IIP is simply
// absent from the resulting component.Ports map: Logic must only index
// ports it knows were wired.
func (b *Builder) Build(g *Graph, opts ...Option) (*Network, error) {
	cfg := defaultConfig()
	for _, o := range opts {
		o(cfg)
	}

	nodes := make(map[string]*wiredNode, len(g.Nodes))
	for i := range g.Nodes {
		ns := &g.Nodes[i]
		if _, dup := nodes[ns.Name]; dup {
			return nil, fmt.Errorf("network: duplicate node name %q", ns.Name)
		}
		nodes[ns.Name] = &wiredNode{spec: ns, ports: &component.Ports{
			In: make(map[string]*port.InputPort), InArray: make(map[string]*port.ArrayInputPort),
			Out: make(map[string]*port.OutputPort), OutArray: make(map[string]*port.ArrayOutputPort),
		}}
	}

	conns := make(map[string]*conn.Connection, len(g.Conns))
	for _, cs := range g.Conns {
		if cs.Name == "" {
			return nil, fmt.Errorf("network: connection with empty name into %s.%s", cs.To.Node, cs.To.Port)
		}
		if len(cs.From) == 0 {
			return nil, fmt.Errorf("network: connection %q has no upstream", cs.Name)
		}
		capacity := cs.Capacity
		if capacity <= 0 {
			capacity = cfg.defaultCapacity
		}
		c := conn.New(cs.Name, capacity, len(cs.From))
		conns[cs.Name] = c

		toNode, err := findNode(g, cs.To.Node)
		if err != nil {
			return nil, err
		}
		toWired := nodes[cs.To.Node]
		inDescriptor := descriptorFor(toNode.Def, cs.To.Port, isArrayInput(toNode.Def, cs.To.Port), true)
		if isArrayInput(toNode.Def, cs.To.Port) {
			ap, ok := toWired.ports.InArray[cs.To.Port]
			if !ok {
				ap = port.NewArrayInputPort(cs.To.Port)
				toWired.ports.InArray[cs.To.Port] = ap
			}
			owner := cs.To.Node
			ip := port.NewInputPort(cs.To.Port, owner, inDescriptor, b.Registry, b.Ledger, c, nil, false, port.Hooks{})
			ap.Set(cs.To.Index, ip)
		} else {
			owner := cs.To.Node
			ip := port.NewInputPort(cs.To.Port, owner, inDescriptor, b.Registry, b.Ledger, c, nil, false, port.Hooks{})
			toWired.ports.In[cs.To.Port] = ip
		}

		for _, from := range cs.From {
			fromNode, err := findNode(g, from.Node)
			if err != nil {
				return nil, err
			}
			fromWired := nodes[from.Node]
			outDescriptor := descriptorFor(fromNode.Def, from.Port, isArrayOutput(fromNode.Def, from.Port), false)
			if isArrayOutput(fromNode.Def, from.Port) {
				ap, ok := fromWired.ports.OutArray[from.Port]
				if !ok {
					ap = port.NewArrayOutputPort(from.Port)
					fromWired.ports.OutArray[from.Port] = ap
				}
				op := port.NewOutputPort(from.Port, from.Node, outDescriptor, b.Registry, b.Ledger, c, port.Hooks{})
				ap.Set(from.Index, op)
			} else {
				op := port.NewOutputPort(from.Port, from.Node, outDescriptor, b.Registry, b.Ledger, c, port.Hooks{})
				fromWired.ports.Out[from.Port] = op
			}
		}
	}

	for _, iip := range g.IIPs {
		toNode, err := findNode(g, iip.To.Node)
		if err != nil {
			return nil, err
		}
		toWired := nodes[iip.To.Node]
		descriptor := descriptorFor(toNode.Def, iip.To.Port, isArrayInput(toNode.Def, iip.To.Port), true)
		if isArrayInput(toNode.Def, iip.To.Port) {
			ap, ok := toWired.ports.InArray[iip.To.Port]
			if !ok {
				ap = port.NewArrayInputPort(iip.To.Port)
				toWired.ports.InArray[iip.To.Port] = ap
			}
			ip := port.NewInputPort(iip.To.Port, iip.To.Node, descriptor, b.Registry, b.Ledger, nil, iip.Value, true, port.Hooks{})
			ap.Set(iip.To.Index, ip)
		} else {
			if _, exists := toWired.ports.In[iip.To.Port]; exists {
				return nil, fmt.Errorf("network: %s.%s has both a connection and an IIP", iip.To.Node, iip.To.Port)
			}
			ip := port.NewInputPort(iip.To.Port, iip.To.Node, descriptor, b.Registry, b.Ledger, nil, iip.Value, true, port.Hooks{})
			toWired.ports.In[iip.To.Port] = ip
		}
	}

	n := &Network{
		registry:       b.Registry,
		ledger:         b.Ledger,
		conns:          conns,
		instances:      make(map[string]*component.Instance, len(nodes)),
		runLedger:      newRunLedger(),
		metrics:        cfg.metrics,
		hkTick:         cfg.hkTick,
		shutdownWindow: cfg.shutdownWindow,
	}
	for name, w := range nodes {
		inst := component.NewInstance(w.spec.Def, name, w.ports, b.Ledger, n.onStateChange)
		n.instances[name] = inst
	}
	// Re-wire port hooks now that each Instance exists, so suspension
	// observations route to the right RunState bucket (spec section
	// 4.5 distinguishes SuspendedSend from SuspendedReceive).
	for name, w := range nodes {
		inst := n.instances[name]
		for _, p := range w.ports.In {
			p.SetHooks(inst.Hooks(component.SuspendedReceive))
		}
		for _, ap := range w.ports.InArray {
			for _, p := range ap.Elements() {
				p.SetHooks(inst.Hooks(component.SuspendedReceive))
			}
		}
		for _, p := range w.ports.Out {
			p.SetHooks(inst.Hooks(component.SuspendedSend))
		}
		for _, ap := range w.ports.OutArray {
			for _, p := range ap.Elements() {
				p.SetHooks(inst.Hooks(component.SuspendedSend))
			}
		}
	}
	return n, nil
}

func isArrayInput(def *component.Definition, name string) bool {
	for _, in := range def.Inputs {
		if in.Name == name {
			return in.Array
		}
	}
	return false
}

func isArrayOutput(def *component.Definition, name string) bool {
	for _, out := range def.Outputs {
		if out.Name == name {
			return out.Array
		}
	}
	return false
}
