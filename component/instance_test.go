package component_test

import (
	"context"
	"errors"
	"testing"

	"github.com/flowcore-go/flowcore/component"
	"github.com/flowcore-go/flowcore/conn"
	"github.com/flowcore-go/flowcore/packet"
	"github.com/flowcore-go/flowcore/port"
	"github.com/flowcore-go/flowcore/typereg"
)

func newScalarPair(reg *typereg.Registry, ledger *packet.Ledger, capacity int) (*port.OutputPort, *port.InputPort) {
	c := conn.New("a-b", capacity, 1)
	out := port.NewOutputPort("OUT", "a", "", reg, ledger, c, port.Hooks{})
	in := port.NewInputPort("IN", "b", "", reg, ledger, c, nil, false, port.Hooks{})
	return out, in
}

func TestSelfStartingWithNoConnections(t *testing.T) {
	def := &component.Definition{Name: "Gen", Logic: func(ctx context.Context, p *component.Ports) error { return nil }}
	inst := component.NewInstance(def, "gen1", &component.Ports{}, packet.NewLedger(), nil)
	if !inst.SelfStarting() {
		t.Fatal("instance with no input ports should be self-starting")
	}
}

func TestRunTerminatesAndClosesOutputs(t *testing.T) {
	ledger := packet.NewLedger()
	reg := typereg.NewRegistry()
	out, in := newScalarPair(reg, ledger, 4)

	var states []component.RunState
	def := &component.Definition{Name: "Echo", Logic: func(ctx context.Context, p *component.Ports) error {
		return p.Out["OUT"].Send(ctx, ledger.Create(packet.Normal, "hi", "a"))
	}}
	inst := component.NewInstance(def, "echo1", &component.Ports{Out: map[string]*port.OutputPort{"OUT": out}}, ledger,
		func(name string, s component.RunState) { states = append(states, s) })

	if err := inst.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if inst.State() != component.Terminated {
		t.Fatalf("state = %v, want Terminated", inst.State())
	}
	_, ok, err := in.Receive(context.Background())
	if err != nil || !ok {
		t.Fatalf("expected the sent packet to be receivable: ok=%v err=%v", ok, err)
	}
	if _, ok, _ := in.Receive(context.Background()); ok {
		t.Fatal("expected EOS after output closed")
	}
}

func TestRunReportsLogicError(t *testing.T) {
	boom := errors.New("boom")
	def := &component.Definition{Name: "Bad", Logic: func(ctx context.Context, p *component.Ports) error { return boom }}
	inst := component.NewInstance(def, "bad1", &component.Ports{}, packet.NewLedger(), nil)

	err := inst.Run(context.Background())
	if err == nil {
		t.Fatal("expected a ComponentError")
	}
	if inst.State() != component.Errored {
		t.Fatalf("state = %v, want Errored", inst.State())
	}
}

func TestRunDetectsLeakedPacket(t *testing.T) {
	ledger := packet.NewLedger()
	def := &component.Definition{Name: "Leaky", Logic: func(ctx context.Context, p *component.Ports) error {
		ledger.Create(packet.Normal, "leak", "leaky1")
		return nil
	}}
	inst := component.NewInstance(def, "leaky1", &component.Ports{}, ledger, nil)

	err := inst.Run(context.Background())
	if err == nil {
		t.Fatal("expected a PacketLeakError")
	}
}
