// Package packet implements the runtime's packet ownership and lifecycle
// discipline (spec section 3, section 4.1): every live Packet has exactly
// one owner, ownership moves atomically on send/receive, and dropping a
// packet is terminal.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package packet

import (
	"sync"

	"github.com/flowcore-go/flowcore/cmn/xerrors"
	"github.com/flowcore-go/flowcore/cmn/xid"
)

// Kind distinguishes data packets from the bracket packets used to frame
// substreams.
type Kind uint8

const (
	Normal Kind = iota
	OpenBracket
	CloseBracket
)

func (k Kind) String() string {
	switch k {
	case OpenBracket:
		return "open-bracket"
	case CloseBracket:
		return "close-bracket"
	default:
		return "normal"
	}
}

// Packet is the runtime's unit of data. Content is opaque to the core;
// it is validated against the sending OutputPort's declared type at send
// time (port.OutputPort.Send, via the typereg package), not here.
type Packet struct {
	mu      sync.Mutex
	id      string
	kind    Kind
	content any
	owner   string
	dropped bool
}

// New creates a Packet owned by owner. Prefer (*Ledger).Create in
// production code so conservation-of-packets accounting stays correct;
// New is exported for tests. A packet made by New is not tracked by any
// Ledger. IIP packets are materialized through (*Ledger).Create by
// port.InputPort.Receive, so they count toward the ledger's totals.
func New(kind Kind, content any, owner string) *Packet {
	return &Packet{id: xid.New(), kind: kind, content: content, owner: owner}
}

func (p *Packet) ID() string { return p.id }

func (p *Packet) Kind() Kind {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.kind
}

func (p *Packet) Content() any {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.content
}

func (p *Packet) Owner() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.owner
}

func (p *Packet) Dropped() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dropped
}

// Transfer moves ownership from "from" to "to" atomically. It fails with
// OwnershipError if the packet has already been dropped or is not
// currently owned by "from" (double-send, stale reference, race).
func (p *Packet) Transfer(from, to string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.dropped {
		return xerrors.NewOwnershipError("transfer", "", from)
	}
	if p.owner != from {
		return xerrors.NewOwnershipError("transfer", p.owner, from)
	}
	p.owner = to
	return nil
}

// SetContent replaces the packet's content. It is used exactly once, by
// OutputPort.Send, to install the type-validated/coerced value in place
// of the caller-supplied one; content is otherwise immutable once sent
// (spec section 3).
func (p *Packet) SetContent(v any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.dropped {
		return xerrors.NewOwnershipError("set-content", "", p.owner)
	}
	p.content = v
	return nil
}

// Drop consumes ownership and destroys the packet. "by" must be the
// current owner. Drop is idempotent in the sense that a second call
// always fails with OwnershipError, matching spec section 4.1's
// "attempting to mutate or re-send a dropped packet fails".
func (p *Packet) Drop(by string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.dropped {
		return xerrors.NewOwnershipError("drop", "", by)
	}
	if p.owner != by {
		return xerrors.NewOwnershipError("drop", p.owner, by)
	}
	p.dropped = true
	p.content = nil
	p.owner = ""
	return nil
}
