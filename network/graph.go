// Package network assembles component.Definitions and conn.Connections
// into a runnable graph and drives it to completion (spec section 4 /
// section 4.5): Builder wires ports, Network.Run launches one goroutine
// per component via golang.org/x/sync/errgroup, and a background
// quiescence poll (hk) distinguishes a graph that finished cleanly from
// one that deadlocked.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package network

import (
	"fmt"

	"github.com/flowcore-go/flowcore/component"
	"github.com/flowcore-go/flowcore/packet"
	"github.com/flowcore-go/flowcore/typereg"
)

// Endpoint names one port on one named component instance; Index is
// only meaningful when the port is declared as an array port.
type Endpoint struct {
	Node  string
	Port  string
	Index int
}

// ConnSpec wires a fan-in set of output Endpoints to exactly one input
// Endpoint through a bounded Connection (spec section 3: "exactly one
// downstream input port").
type ConnSpec struct {
	Name     string
	Capacity int
	From     []Endpoint
	To       Endpoint
}

// IIPSpec attaches an Initial Information Packet to an input Endpoint
// instead of a Connection.
type IIPSpec struct {
	To    Endpoint
	Value any
}

// NodeSpec places one Definition into the graph under a unique name.
type NodeSpec struct {
	Name string
	Def  *component.Definition
}

// Graph is the declarative description a Builder turns into wired
// Instances: nodes, the connections between them, and any IIPs.
type Graph struct {
	Nodes []NodeSpec
	Conns []ConnSpec
	IIPs  []IIPSpec
}

// Builder wires a Graph's declarations into live ports, connections,
// and component Instances sharing one typereg.Registry and
// packet.Ledger.
type Builder struct {
	Registry *typereg.Registry
	Ledger   *packet.Ledger
}

// NewBuilder creates a Builder with a fresh registry and ledger.
func NewBuilder() *Builder {
	return &Builder{Registry: typereg.NewRegistry(), Ledger: packet.NewLedger()}
}

func descriptorFor(def *component.Definition, portName string, array bool, isInput bool) string {
	if isInput {
		for _, in := range def.Inputs {
			if in.Name == portName && in.Array == array {
				return in.Type
			}
		}
	} else {
		for _, out := range def.Outputs {
			if out.Name == portName && out.Array == array {
				return out.Type
			}
		}
	}
	return ""
}

func findNode(g *Graph, name string) (*NodeSpec, error) {
	for i := range g.Nodes {
		if g.Nodes[i].Name == name {
			return &g.Nodes[i], nil
		}
	}
	return nil, fmt.Errorf("network: unknown node %q", name)
}
