package packet_test

import (
	"testing"

	"github.com/flowcore-go/flowcore/packet"
)

func TestTransferMovesOwnership(t *testing.T) {
	p := packet.New(packet.Normal, "hello", "alice")
	if err := p.Transfer("alice", "conn:a-b"); err != nil {
		t.Fatalf("transfer from owner should succeed: %v", err)
	}
	if got := p.Owner(); got != "conn:a-b" {
		t.Fatalf("owner = %q, want conn:a-b", got)
	}
	if err := p.Transfer("alice", "bob"); err == nil {
		t.Fatal("transfer from non-owner should fail")
	}
}

func TestDoubleDropFails(t *testing.T) {
	p := packet.New(packet.Normal, 42, "bob")
	if err := p.Drop("bob"); err != nil {
		t.Fatalf("first drop should succeed: %v", err)
	}
	if !p.Dropped() {
		t.Fatal("expected Dropped() true after drop")
	}
	if err := p.Drop("bob"); err == nil {
		t.Fatal("second drop should fail with OwnershipError")
	}
	if p.Content() != nil {
		t.Fatal("content should be released on drop")
	}
}

func TestTransferAfterDropFails(t *testing.T) {
	p := packet.New(packet.Normal, "x", "alice")
	if err := p.Drop("alice"); err != nil {
		t.Fatalf("drop: %v", err)
	}
	if err := p.Transfer("alice", "bob"); err == nil {
		t.Fatal("transfer of a dropped packet should fail")
	}
}

func TestLedgerConservation(t *testing.T) {
	l := packet.NewLedger()
	a := l.Create(packet.Normal, "a", "gen")
	b := l.Create(packet.Normal, "b", "gen")

	if err := a.Transfer("gen", "sink"); err != nil {
		t.Fatal(err)
	}
	if err := l.Drop(a, "sink", packet.Delivered); err != nil {
		t.Fatal(err)
	}
	if err := l.Drop(b, "gen", packet.Discarded); err != nil {
		t.Fatal(err)
	}

	stats := l.Stats()
	if stats.Created != 2 || stats.Delivered != 1 || stats.Discarded != 1 || stats.Leaked != 0 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestOutstandingOwnedByDetectsLeak(t *testing.T) {
	l := packet.NewLedger()
	l.Create(packet.Normal, "x", "leaky")
	leaked := l.OutstandingOwnedBy("leaky")
	if len(leaked) != 1 {
		t.Fatalf("expected 1 outstanding packet, got %d", len(leaked))
	}
	l.ReclaimLeaked(leaked, "leaky")
	if got := l.Stats().Leaked; got != 1 {
		t.Fatalf("leaked = %d, want 1", got)
	}
	if len(l.OutstandingOwnedBy("leaky")) != 0 {
		t.Fatal("packet should no longer be outstanding after reclaim")
	}
}
