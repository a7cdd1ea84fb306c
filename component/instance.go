package component

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/flowcore-go/flowcore/cmn/debug"
	"github.com/flowcore-go/flowcore/cmn/xerrors"
	"github.com/flowcore-go/flowcore/packet"
	"github.com/flowcore-go/flowcore/port"
)

// StateObserver is notified of every RunState transition an Instance
// makes; the Network wires one in to maintain the ledger its quiescence
// and deadlock predicates (spec section 4.5) read.
type StateObserver func(instance string, state RunState)

var errUnbalancedBrackets = errors.New("component terminated with unbalanced brackets on an input port")

// Instance is one activation of a Definition against a concrete set of
// Ports and a shared packet Ledger (spec section 4.4). Exactly one
// Instance runs per named node in a Network graph.
type Instance struct {
	Def   *Definition
	Name  string
	Ports *Ports

	ledger   *packet.Ledger
	observer StateObserver

	mu      sync.Mutex
	state   RunState
	lastErr error
}

// NewInstance binds def to name, ports, and ledger. observer may be nil
// (tests that don't care about state transitions).
func NewInstance(def *Definition, name string, ports *Ports, ledger *packet.Ledger, observer StateObserver) *Instance {
	return &Instance{Def: def, Name: name, Ports: ports, ledger: ledger, observer: observer, state: NotStarted}
}

// Hooks builds the port.Hooks pair an input or output port should invoke
// on suspension/resumption, routed to this instance's RunState (spec
// section 4.5 distinguishes SuspendedSend from SuspendedReceive).
func (inst *Instance) Hooks(suspended RunState) port.Hooks {
	return port.Hooks{
		OnSuspend: func() { inst.setState(suspended) },
		OnResume:  func() { inst.setState(Active) },
	}
}

// SelfStarting reports whether every scalar and array input port on
// this instance carries no real Connection (spec section 3): such a
// component is scheduled for one initial run even though no predecessor
// ever sends it a packet.
func (inst *Instance) SelfStarting() bool {
	for _, p := range inst.Ports.In {
		if !p.IsSelfStarting() {
			return false
		}
	}
	for _, ap := range inst.Ports.InArray {
		for _, p := range ap.Elements() {
			if !p.IsSelfStarting() {
				return false
			}
		}
	}
	return true
}

func (inst *Instance) State() RunState {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	return inst.state
}

func (inst *Instance) setState(s RunState) {
	inst.mu.Lock()
	inst.state = s
	inst.mu.Unlock()
	if inst.observer != nil {
		inst.observer(inst.Name, s)
	}
}

// Run executes the Definition's Logic to completion (spec section 4.4):
// it marks the instance Active, runs Logic, recovers a panic into a
// ComponentError, then regardless of outcome closes every output port.
// Only when Logic returned without error does it go on to check for
// unbalanced brackets and leaked packets; a failed run goes straight to
// Errored without either check. Run is called at most once per Instance.
func (inst *Instance) Run(ctx context.Context) (err error) {
	inst.setState(Active)

	defer func() {
		if r := recover(); r != nil {
			err = xerrors.NewComponentError(inst.Name, errFromRecover(r))
		}
		inst.closeOutputs()

		switch {
		case err != nil:
			inst.setState(Errored)
			inst.lastErr = err
		case !inst.bracketsBalanced():
			err = xerrors.NewComponentError(inst.Name, errUnbalancedBrackets)
			inst.setState(Errored)
			inst.lastErr = err
		default:
			if leaked := inst.ledger.OutstandingOwnedBy(inst.Name); len(leaked) > 0 {
				inst.ledger.ReclaimLeaked(leaked, inst.Name)
				err = xerrors.NewPacketLeakError(inst.Name, len(leaked))
				inst.setState(Errored)
				inst.lastErr = err
			} else {
				inst.setState(Terminated)
			}
		}
	}()

	debug.Assert(inst.Def.Logic != nil, "component ", inst.Name, " has no Logic")
	if logicErr := inst.Def.Logic(ctx, inst.Ports); logicErr != nil {
		return xerrors.NewComponentError(inst.Name, logicErr)
	}
	return nil
}

func (inst *Instance) closeOutputs() {
	for _, p := range inst.Ports.Out {
		p.Close()
	}
	for _, ap := range inst.Ports.OutArray {
		ap.Close()
	}
}

func (inst *Instance) bracketsBalanced() bool {
	for _, p := range inst.Ports.In {
		if !p.BracketBalanced() {
			return false
		}
	}
	for _, ap := range inst.Ports.InArray {
		for _, p := range ap.Elements() {
			if !p.BracketBalanced() {
				return false
			}
		}
	}
	return true
}

func errFromRecover(r any) error {
	if err, ok := r.(error); ok {
		return err
	}
	return fmt.Errorf("%v", r)
}
