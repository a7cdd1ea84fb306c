package port

import (
	"context"
	"sync"

	"github.com/flowcore-go/flowcore/cmn/xerrors"
	"github.com/flowcore-go/flowcore/conn"
	"github.com/flowcore-go/flowcore/packet"
	"github.com/flowcore-go/flowcore/typereg"
)

// OutputPort is a scalar output endpoint attached to exactly one
// Connection; fan-out is modelled by wiring multiple OutputPorts to the
// same Connection (spec section 3).
type OutputPort struct {
	Name       string
	Owner      string
	Descriptor string

	registry *typereg.Registry
	ledger   *packet.Ledger
	conn     *conn.Connection
	hooks    Hooks

	mu   sync.Mutex
	open bool
}

func NewOutputPort(name, owner, descriptor string, registry *typereg.Registry, ledger *packet.Ledger, c *conn.Connection, hooks Hooks) *OutputPort {
	return &OutputPort{Name: name, Owner: owner, Descriptor: descriptor, registry: registry, ledger: ledger, conn: c, hooks: hooks, open: true}
}

// NewPacket materializes a Normal packet owned by this port's owner,
// ready to pass to Send. Components create outgoing packets through
// their OutputPort rather than touching a Ledger directly.
func (p *OutputPort) NewPacket(content any) *packet.Packet {
	return p.ledger.Create(packet.Normal, content, p.Owner)
}

// Send validates pkt's content against the port's declared type, then
// delegates to Connection.Put and transfers ownership to the
// connection (spec section 4.3). On a closed connection the packet is
// dropped and ConnectionClosedError is returned.
func (p *OutputPort) Send(ctx context.Context, pkt *packet.Packet) error {
	p.mu.Lock()
	open := p.open
	p.mu.Unlock()
	if !open {
		_ = p.ledger.Drop(pkt, p.Owner, packet.Discarded)
		return xerrors.NewPortNotOpenError(p.Name)
	}

	if pkt.Owner() != p.Owner {
		return xerrors.NewOwnershipError("send", pkt.Owner(), p.Owner)
	}

	if pkt.Kind() == packet.Normal {
		valid, err := p.validate(pkt.Content())
		if err != nil {
			_ = p.ledger.Drop(pkt, p.Owner, packet.Discarded)
			return err
		}
		if err := pkt.SetContent(valid); err != nil {
			return err
		}
	}

	tag := connOwnerTag(p.conn)
	if err := pkt.Transfer(p.Owner, tag); err != nil {
		return err
	}
	if err := p.conn.Put(ctx, pkt, p.hooks.OnSuspend, p.hooks.OnResume); err != nil {
		// Put failed (closed, or canceled): the connection never took
		// ownership; claw it back so we can drop it cleanly.
		_ = pkt.Transfer(tag, p.Owner)
		_ = p.ledger.Drop(pkt, p.Owner, packet.Discarded)
		return err
	}
	return nil
}

func (p *OutputPort) validate(content any) (any, error) {
	if p.Descriptor == "" {
		return content, nil
	}
	h, err := p.registry.Resolve(p.Descriptor)
	if err != nil {
		return nil, err
	}
	v, err := h.Validate(content)
	if err != nil {
		return nil, xerrors.NewPacketValidationError(p.Name, content, err)
	}
	return v, nil
}

// Close closes the output port and, since exactly one output port owns
// a given connection's upstream slot in this core's 1:1 port-to-slot
// model, propagates to the Connection's upstream count (spec section
// 4.4 step 4: "closes all output ports").
func (p *OutputPort) Close() {
	p.mu.Lock()
	if !p.open {
		p.mu.Unlock()
		return
	}
	p.open = false
	p.mu.Unlock()
	p.conn.CloseUpstream()
}

// SetHooks rebinds the suspend/resume callbacks; see InputPort.SetHooks.
func (p *OutputPort) SetHooks(h Hooks) {
	p.mu.Lock()
	p.hooks = h
	p.mu.Unlock()
}

func (p *OutputPort) Open() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.open
}
