// Package port implements InputPort, OutputPort, and their array
// variants (spec section 3 / section 4.3): named endpoints attached to
// a Component that mediate send/receive against a Connection or a
// single-shot IIP source.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package port

import (
	"context"
	"errors"
	"sync"

	"github.com/flowcore-go/flowcore/cmn/xerrors"
	"github.com/flowcore-go/flowcore/conn"
	"github.com/flowcore-go/flowcore/packet"
	"github.com/flowcore-go/flowcore/typereg"
)

// Hooks lets the component runtime observe exactly the suspension
// transitions spec section 4.5 requires the scheduler to track, without
// port/conn knowing anything about components or the network ledger.
type Hooks struct {
	OnSuspend func()
	OnResume  func()
}

// InputPort is a scalar input endpoint: either a Connection, an IIP, or
// neither (an unconnected optional input, always end-of-stream).
type InputPort struct {
	Name       string
	Owner      string
	Descriptor string

	registry *typereg.Registry
	ledger   *packet.Ledger
	conn     *conn.Connection
	iip      *iip
	hooks    Hooks

	mu           sync.Mutex
	open         bool
	closedLocal  bool // not set anywhere; reader-side closure (Close, ReceiveOnce) clears open
	bracketDepth int
}

// NewInputPort wires name/owner to either c (a real connection) or an
// IIP value, never both (spec section 3: "mutually exclusive with a
// connection").
func NewInputPort(name, owner, descriptor string, registry *typereg.Registry, ledger *packet.Ledger, c *conn.Connection, iipValue any, hasIIP bool, hooks Hooks) *InputPort {
	p := &InputPort{
		Name: name, Owner: owner, Descriptor: descriptor,
		registry: registry, ledger: ledger, conn: c, hooks: hooks, open: true,
	}
	if hasIIP {
		p.iip = newIIP(iipValue)
	}
	return p
}

// IsSelfStarting reports whether this port carries no real Connection.
// An IIP-only port still counts as self-starting (spec section 3: self-
// starting means "no connected input ports"; an IIP is not a Connection).
func (p *InputPort) IsSelfStarting() bool { return p.conn == nil }

// SetHooks rebinds the suspend/resume callbacks, used by the network
// builder to route a port's suspension observations to its owning
// Instance once that Instance exists (ports are constructed before the
// Instance that will observe them).
func (p *InputPort) SetHooks(h Hooks) {
	p.mu.Lock()
	p.hooks = h
	p.mu.Unlock()
}

func (p *InputPort) Open() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.open
}

// Close marks the port closed from the reader's side. It does not touch
// the underlying Connection: closing an *input* port is a local
// bookkeeping act (it stops future Receive calls); closing the
// Connection happens from the writer side (OutputPort.Close).
func (p *InputPort) Close() {
	p.mu.Lock()
	p.open = false
	p.mu.Unlock()
}

// Receive blocks until a packet is available or end-of-stream (spec
// section 4.3). On end-of-stream it returns (nil, false); subsequent
// calls keep returning (nil, false) without blocking.
func (p *InputPort) Receive(ctx context.Context) (*packet.Packet, bool, error) {
	p.mu.Lock()
	if !p.open {
		p.mu.Unlock()
		return nil, false, nil
	}
	iipSrc := p.iip
	p.mu.Unlock()

	if iipSrc != nil {
		if v, ok := iipSrc.take(); ok {
			pkt := p.ledger.Create(packet.Normal, v, p.Owner)
			return pkt, true, nil
		}
		// IIP consumed and no real connection backs this port: EOS forever.
		if p.conn == nil {
			return nil, false, nil
		}
	}

	if p.conn == nil {
		return nil, false, nil
	}

	pkt, ok, err := p.conn.Get(ctx, p.hooks.OnSuspend, p.hooks.OnResume)
	if err != nil || !ok {
		return nil, false, err
	}
	if err := pkt.Transfer(connOwnerTag(p.conn), p.Owner); err != nil {
		return nil, false, err
	}
	if err := p.trackBracket(pkt); err != nil {
		return nil, false, err
	}
	return pkt, true, nil
}

// ReceiveOnce reads the IIP (or the first real packet) if present, then
// closes the port from the reader's side; it returns def if nothing is
// available. Used for single-value configuration inputs (spec section
// 4.3).
func (p *InputPort) ReceiveOnce(ctx context.Context, def any) (any, error) {
	pkt, ok, err := p.Receive(ctx)
	p.Close()
	if err != nil {
		return def, err
	}
	if !ok {
		return def, nil
	}
	content := pkt.Content()
	if err := p.ledger.Drop(pkt, p.Owner, packet.Delivered); err != nil {
		return def, err
	}
	return content, nil
}

// Iterate returns a channel yielding packets until end-of-stream, then
// closes it; a lazy, finite, non-restartable sequence per spec section
// 4.3. If ctx is canceled mid-iteration the channel closes without
// leaking the in-flight packet: the iterating goroutine drops it as
// discarded. A receive error also ends the sequence; callers that need
// to tell it apart from end-of-stream check ctx.Err() themselves.
func (p *InputPort) Iterate(ctx context.Context) <-chan *packet.Packet {
	out := make(chan *packet.Packet)
	go func() {
		defer close(out)
		for {
			pkt, ok, err := p.Receive(ctx)
			if err != nil || !ok {
				return
			}
			select {
			case out <- pkt:
			case <-ctx.Done():
				// Caller is gone; drop what we hold so ownership
				// cannot leak (spec section 4.1).
				_ = p.ledger.Drop(pkt, p.Owner, packet.Discarded)
				return
			}
		}
	}()
	return out
}

// Drop discards a received packet the component chooses not to forward,
// counted as "discarded" toward the conservation-of-packets invariant.
func (p *InputPort) Drop(pkt *packet.Packet) error {
	return p.ledger.Drop(pkt, p.Owner, packet.Discarded)
}

// Consume marks a received packet as having reached its terminal sink,
// counted as "delivered".
func (p *InputPort) Consume(pkt *packet.Packet) error {
	return p.ledger.Drop(pkt, p.Owner, packet.Delivered)
}

func (p *InputPort) trackBracket(pkt *packet.Packet) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch pkt.Kind() {
	case packet.OpenBracket:
		p.bracketDepth++
	case packet.CloseBracket:
		if p.bracketDepth == 0 {
			return xerrors.NewPacketValidationError(p.Name, nil, errUnmatchedClose)
		}
		p.bracketDepth--
	}
	return nil
}

// BracketBalanced reports whether every open-bracket received on this
// port has a matching close-bracket, checked at component termination.
func (p *InputPort) BracketBalanced() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.bracketDepth == 0
}

var errUnmatchedClose = errors.New("close-bracket without matching open-bracket")

func connOwnerTag(c *conn.Connection) string { return "conn:" + c.Name() }
