package packet

import "sync"

// Disposition records why a packet was dropped, letting a Ledger
// distinguish the two terminal dispositions spec section 8's conservation
// law counts separately: a packet that reached a sink and was consumed
// there ("delivered") versus one discarded mid-pipeline, e.g. by a
// filtering component that creates it and drops it without ever sending
// it onward ("dropped"). A packet still owned when its owner terminates
// is counted separately as "leaked" and is always a PacketLeakError.
type Disposition uint8

const (
	Delivered Disposition = iota
	Discarded
)

// Ledger tracks every live packet created within one Network so that
// Network.run() can verify the conservation-of-packets invariant:
// created == delivered + discarded + leaked.
type Ledger struct {
	mu        sync.Mutex
	live      map[string]*Packet
	created   int64
	delivered int64
	discarded int64
	leaked    int64
}

func NewLedger() *Ledger {
	return &Ledger{live: make(map[string]*Packet)}
}

// Create materializes a new Packet owned by owner and tracks it.
func (l *Ledger) Create(kind Kind, content any, owner string) *Packet {
	p := New(kind, content, owner)
	l.mu.Lock()
	l.live[p.id] = p
	l.created++
	l.mu.Unlock()
	return p
}

// Drop finalizes a packet's lifecycle with the given disposition.
func (l *Ledger) Drop(p *Packet, by string, disp Disposition) error {
	if err := p.Drop(by); err != nil {
		return err
	}
	l.mu.Lock()
	delete(l.live, p.id)
	switch disp {
	case Delivered:
		l.delivered++
	default:
		l.discarded++
	}
	l.mu.Unlock()
	return nil
}

// OutstandingOwnedBy returns the packets still live and owned by owner,
// used by the component runtime at termination to detect PacketLeakError.
func (l *Ledger) OutstandingOwnedBy(owner string) []*Packet {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []*Packet
	for _, p := range l.live {
		if p.Owner() == owner {
			out = append(out, p)
		}
	}
	return out
}

// ReclaimLeaked finalizes every packet in pkts as leaked: it drops
// ownership (owner must be each packet's current owner) and removes it
// from the live set, then adds the count to the leaked tally. Called by
// the component runtime after it has reported a PacketLeakError for
// packets still owned by a terminated component, and by Network
// cancellation/deadlock unwind for packets still buffered in a
// force-closed Connection (owned, in that case, by the connection's
// synthetic "conn:<name>" tag rather than a component).
func (l *Ledger) ReclaimLeaked(pkts []*Packet, owner string) {
	if len(pkts) == 0 {
		return
	}
	l.mu.Lock()
	for _, p := range pkts {
		_ = p.Drop(owner)
		delete(l.live, p.id)
	}
	l.leaked += int64(len(pkts))
	l.mu.Unlock()
}

type Stats struct {
	Created, Delivered, Discarded, Leaked int64
}

func (l *Ledger) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return Stats{Created: l.created, Delivered: l.delivered, Discarded: l.discarded, Leaked: l.leaked}
}
