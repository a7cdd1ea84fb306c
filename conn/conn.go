// Package conn implements the bounded FIFO Connection of spec section
// 3 / section 4.2: a backpressured queue between >=1 upstream output
// ports and exactly one downstream input port. Waiters are served in
// strict FIFO order (spec section 4.2's "no upstream starves"), which
// rules out sync.Cond (Go gives no ordering guarantee across
// Signal/Broadcast wakeups) in favor of an explicit per-direction queue
// of single-use wake channels, the pattern the teacher's transport
// package uses for its stream collector's control channel
// (transport/collect.go) generalized from one channel to a FIFO of them.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package conn

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/flowcore-go/flowcore/cmn/debug"
	"github.com/flowcore-go/flowcore/cmn/nlog"
	"github.com/flowcore-go/flowcore/cmn/xerrors"
	"github.com/flowcore-go/flowcore/packet"
)

// DefaultCapacity is the network-wide default connection capacity
// spec section 4.2 calls out ("typical: 10").
const DefaultCapacity = 10

// Connection is a bounded FIFO of *packet.Packet.
type Connection struct {
	name     string
	capacity int

	mu           sync.Mutex
	queue        []*packet.Packet
	closed       bool
	openUpstream int32

	putWaiters []chan struct{}
	getWaiters []chan struct{}
}

// New creates a Connection with the given capacity (clamped to >=1 per
// spec section 4.2) and upstreamCount open senders.
func New(name string, capacity, upstreamCount int) *Connection {
	if capacity < 1 {
		capacity = 1
	}
	if upstreamCount < 1 {
		upstreamCount = 1
	}
	return &Connection{name: name, capacity: capacity, openUpstream: int32(upstreamCount)}
}

func (c *Connection) Name() string     { return c.name }
func (c *Connection) Capacity() int    { return c.capacity }

func (c *Connection) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue)
}

func (c *Connection) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Drained reports whether the connection is closed and has no buffered
// packets left, i.e. a receiver would observe end-of-stream right now.
func (c *Connection) Drained() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed && len(c.queue) == 0
}

func removeWaiter(list *[]chan struct{}, target chan struct{}) bool {
	s := *list
	for i, w := range s {
		if w == target {
			*list = append(s[:i], s[i+1:]...)
			return true
		}
	}
	return false
}

func wakeFront(list *[]chan struct{}) {
	s := *list
	if len(s) == 0 {
		return
	}
	w := s[0]
	*list = s[1:]
	close(w)
}

// Put blocks while the connection is full, waking in FIFO order as space
// frees. onSuspend/onResume, when non-nil, bracket the interval during
// which the caller is actually parked (not merely attempting) -- the
// suspension point spec section 4.5 requires the scheduler to observe.
func (c *Connection) Put(ctx context.Context, pkt *packet.Packet, onSuspend, onResume func()) error {
	for {
		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			return xerrors.NewConnectionClosedError(c.name)
		}
		if len(c.queue) < c.capacity {
			c.queue = append(c.queue, pkt)
			wakeFront(&c.getWaiters)
			c.mu.Unlock()
			return nil
		}
		wait := make(chan struct{})
		c.putWaiters = append(c.putWaiters, wait)
		c.mu.Unlock()

		if onSuspend != nil {
			onSuspend()
		}
		select {
		case <-wait:
			if onResume != nil {
				onResume()
			}
		case <-ctx.Done():
			c.mu.Lock()
			found := removeWaiter(&c.putWaiters, wait)
			c.mu.Unlock()
			if onResume != nil {
				onResume()
			}
			if found {
				return ctx.Err()
			}
			// Woken concurrently with cancellation: a slot was granted
			// to us and the waiter already closed; don't drop it on
			// the floor, consume the grant and re-evaluate state.
		}
	}
}

// Get blocks while the connection is empty and at least one upstream is
// still open. It returns (nil, false, nil) on end-of-stream.
func (c *Connection) Get(ctx context.Context, onSuspend, onResume func()) (*packet.Packet, bool, error) {
	for {
		c.mu.Lock()
		if len(c.queue) > 0 {
			pkt := c.queue[0]
			c.queue = c.queue[1:]
			wakeFront(&c.putWaiters)
			c.mu.Unlock()
			return pkt, true, nil
		}
		if c.closed || atomic.LoadInt32(&c.openUpstream) <= 0 {
			c.mu.Unlock()
			return nil, false, nil
		}
		wait := make(chan struct{})
		c.getWaiters = append(c.getWaiters, wait)
		c.mu.Unlock()

		if onSuspend != nil {
			onSuspend()
		}
		select {
		case <-wait:
			if onResume != nil {
				onResume()
			}
		case <-ctx.Done():
			c.mu.Lock()
			found := removeWaiter(&c.getWaiters, wait)
			c.mu.Unlock()
			if onResume != nil {
				onResume()
			}
			if found {
				return nil, false, ctx.Err()
			}
		}
	}
}

// CloseUpstream decrements the open-upstream count; when it reaches
// zero the connection is marked closed and any blocked Get wakes to
// observe end-of-stream once the queue drains.
func (c *Connection) CloseUpstream() {
	if atomic.AddInt32(&c.openUpstream, -1) > 0 {
		return
	}
	c.mu.Lock()
	debug.Assert(!c.closed, "connection already closed", c.name)
	c.closed = true
	getW := c.getWaiters
	c.getWaiters = nil
	c.mu.Unlock()
	nlog.Infof("connection %q: all upstreams closed", c.name)
	wakeAllSlice(getW)
}

// CloseNow force-closes the connection regardless of remaining open
// upstreams, used by Network cancellation (spec section 4.5) and by
// deadlock unwind, both of which call CloseNow on every connection of
// the Network, in no particular order. Any packets still buffered in
// the queue at the moment of closure are handed back to the caller
// rather than discarded silently: they are nominally owned by this
// connection (the synthetic "conn:<name>" tag, per port.OutputPort.Send)
// and the caller is responsible for reconciling them against its
// packet.Ledger as leaked, or conservation-of-packets (spec section 8)
// will under-count.
func (c *Connection) CloseNow() []*packet.Packet {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	atomic.StoreInt32(&c.openUpstream, 0)
	drained := c.queue
	c.queue = nil
	getW := c.getWaiters
	putW := c.putWaiters
	c.getWaiters = nil
	c.putWaiters = nil
	c.mu.Unlock()
	wakeAllSlice(getW)
	wakeAllSlice(putW)
	return drained
}

func wakeAllSlice(list []chan struct{}) {
	for _, w := range list {
		close(w)
	}
}
