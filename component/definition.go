// Package component implements the authoring interface and per-activation
// runtime of spec section 3 / section 4.4 / section 6.1: a Definition
// separates port + metadata declarations from the per-run Instance,
// following spec section 9's call to replace the original's
// decorator-declared ports with a plain builder over data rather than
// runtime reflection.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package component

import (
	"context"

	"github.com/flowcore-go/flowcore/port"
)

// InputSpec declares one named input port.
type InputSpec struct {
	Name        string
	Type        string // typereg descriptor; "" means "any"
	Array       bool
	HasIIP      bool
	IIP         any
	Description string
}

// OutputSpec declares one named output port.
type OutputSpec struct {
	Name        string
	Type        string
	Array       bool
	Description string
}

// Ports is the set of ports a Logic procedure receives by name.
type Ports struct {
	In       map[string]*port.InputPort
	InArray  map[string]*port.ArrayInputPort
	Out      map[string]*port.OutputPort
	OutArray map[string]*port.ArrayOutputPort
}

// Logic is the user-supplied procedure that implements a component; it
// runs to completion exactly once per Instance (spec section 4.4 step
// 3). Long-running components typically loop over an InputPort's
// Iterate channel until it closes.
type Logic func(ctx context.Context, ports *Ports) error

// Definition is a reusable component description: a name, its declared
// ports, and the procedure that implements it. The same Definition can
// back multiple named Instances within one Network (e.g. two Prefix
// components configured with different IIPs).
type Definition struct {
	Name    string
	Inputs  []InputSpec
	Outputs []OutputSpec
	Logic   Logic
}
