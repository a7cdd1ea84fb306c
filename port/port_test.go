package port_test

import (
	"context"
	"testing"

	"github.com/flowcore-go/flowcore/conn"
	"github.com/flowcore-go/flowcore/packet"
	"github.com/flowcore-go/flowcore/port"
	"github.com/flowcore-go/flowcore/typereg"
)

func TestIIPExactlyOnceThenEOS(t *testing.T) {
	ledger := packet.NewLedger()
	in := port.NewInputPort("CFG", "comp", "string", typereg.NewRegistry(), ledger, nil, "x-", true, port.Hooks{})

	pkt, ok, err := in.Receive(context.Background())
	if err != nil || !ok {
		t.Fatalf("expected one packet, got ok=%v err=%v", ok, err)
	}
	if pkt.Content() != "x-" {
		t.Fatalf("content = %v, want x-", pkt.Content())
	}
	_ = ledger.Drop(pkt, "comp", packet.Delivered)

	_, ok, err = in.Receive(context.Background())
	if err != nil || ok {
		t.Fatalf("expected end-of-stream, got ok=%v err=%v", ok, err)
	}
}

func TestSendReceiveRoundTripValidatesType(t *testing.T) {
	ledger := packet.NewLedger()
	reg := typereg.NewRegistry()
	c := conn.New("a-b", 4, 1)
	out := port.NewOutputPort("OUT", "src", "int", reg, ledger, c, port.Hooks{})
	in := port.NewInputPort("IN", "dst", "int", reg, ledger, c, nil, false, port.Hooks{})

	pkt := ledger.Create(packet.Normal, float64(7), "src")
	ctx := context.Background()
	if err := out.Send(ctx, pkt); err != nil {
		t.Fatalf("send: %v", err)
	}
	got, ok, err := in.Receive(ctx)
	if err != nil || !ok {
		t.Fatalf("receive: ok=%v err=%v", ok, err)
	}
	if got.Content() != 7 {
		t.Fatalf("content = %v (%T), want coerced int 7", got.Content(), got.Content())
	}
	if got.Owner() != "dst" {
		t.Fatalf("owner = %q, want dst", got.Owner())
	}
}

func TestSendRejectsInvalidContent(t *testing.T) {
	ledger := packet.NewLedger()
	reg := typereg.NewRegistry()
	c := conn.New("a-b", 4, 1)
	out := port.NewOutputPort("OUT", "src", "int", reg, ledger, c, port.Hooks{})

	pkt := ledger.Create(packet.Normal, "abc", "src")
	if err := out.Send(context.Background(), pkt); err == nil {
		t.Fatal("expected PacketValidationError sending a non-int through an int port")
	}
	if !pkt.Dropped() {
		t.Fatal("a packet rejected at send should be dropped, not leaked")
	}
}

func TestCloseOutputClosesConnectionUpstream(t *testing.T) {
	ledger := packet.NewLedger()
	reg := typereg.NewRegistry()
	c := conn.New("a-b", 4, 1)
	out := port.NewOutputPort("OUT", "src", "", reg, ledger, c, port.Hooks{})
	in := port.NewInputPort("IN", "dst", "", reg, ledger, c, nil, false, port.Hooks{})

	out.Close()
	_, ok, err := in.Receive(context.Background())
	if err != nil || ok {
		t.Fatalf("expected EOS after output close, got ok=%v err=%v", ok, err)
	}
}

func TestBracketMismatchIsValidationError(t *testing.T) {
	ledger := packet.NewLedger()
	reg := typereg.NewRegistry()
	c := conn.New("a-b", 4, 1)
	out := port.NewOutputPort("OUT", "src", "", reg, ledger, c, port.Hooks{})
	in := port.NewInputPort("IN", "dst", "", reg, ledger, c, nil, false, port.Hooks{})

	close := ledger.Create(packet.CloseBracket, nil, "src")
	if err := out.Send(context.Background(), close); err != nil {
		t.Fatalf("send: %v", err)
	}
	_, _, err := in.Receive(context.Background())
	if err == nil {
		t.Fatal("expected PacketValidationError for unmatched close-bracket")
	}
}
