package network

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/flowcore-go/flowcore/cmn/nlog"
	"github.com/flowcore-go/flowcore/cmn/xerrors"
	"github.com/flowcore-go/flowcore/cmn/xid"
	"github.com/flowcore-go/flowcore/component"
	"github.com/flowcore-go/flowcore/conn"
	"github.com/flowcore-go/flowcore/hk"
	"github.com/flowcore-go/flowcore/metrics"
	"github.com/flowcore-go/flowcore/packet"
	"github.com/flowcore-go/flowcore/typereg"
)

// Network is a wired, runnable graph of component.Instances sharing one
// typereg.Registry and packet.Ledger, built by Builder.Build.
type Network struct {
	registry       *typereg.Registry
	ledger         *packet.Ledger
	conns          map[string]*conn.Connection
	instances      map[string]*component.Instance
	runLedger      *runLedger
	metrics        *metrics.Registry
	hkTick         time.Duration
	shutdownWindow time.Duration
}

func (n *Network) onStateChange(name string, s component.RunState) {
	n.runLedger.set(name, s)
	if n.metrics != nil {
		n.metrics.SetComponentState(name, int(s))
	}
}

// Run launches every Instance concurrently and blocks until the graph
// drains naturally, is judged deadlocked (spec section 4.5: every live
// instance is simultaneously blocked on a Connection with none active),
// or ctx is canceled from outside. On deadlock or cancellation it
// force-closes every connection so blocked calls unwind: a Put fails
// with ConnectionClosedError and a Get observes end-of-stream (or, on
// cancellation, may return the context's error); on cancellation, the wait for every Instance to then return is
// itself bounded by the configured shutdown window (spec section 4.5:
// "waits for each Component to exit within a bounded shutdown window;
// any exceeding it is aborted and reported") so a component that never
// reaches another send/receive after cancellation cannot hang Run
// forever -- it is instead named in the report as unresponsive.
func (n *Network) Run(ctx context.Context) (*Report, error) {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	keeper := hk.New(n.hkTick)
	go keeper.Run()
	keeper.WaitStarted()
	defer keeper.Stop()

	deadlock := make(chan []string, 1)
	keeper.Reg(&hk.Job{Name: "quiescence", F: func() time.Duration {
		return n.pollQuiescence(deadlock)
	}})

	g, gctx := errgroup.WithContext(runCtx)
	for name, inst := range n.instances {
		name, inst := name, inst
		g.Go(func() error {
			if err := inst.Run(gctx); err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			return nil
		})
	}

	done := make(chan error, 1)
	go func() { done <- g.Wait() }()

	var errs xerrors.Errs
	report := &Report{}
	select {
	case err := <-done:
		errs.Add(err)
	case participants := <-deadlock:
		nlog.Warnf("network: deadlock detected, participants=%v", participants)
		report.Deadlocked = true
		report.Participants = participants
		report.Digest = xid.Digest(participants...)
		n.forceCloseAll()
		errs.Add(<-done)
		errs.Add(xerrors.NewDeadlockError(participants))
	case <-ctx.Done():
		nlog.Warnf("network: canceled, forcing shutdown (window=%s)", n.shutdownWindow)
		report.Canceled = true
		n.forceCloseAll()
		select {
		case err := <-done:
			errs.Add(err)
		case <-time.After(n.shutdownWindow):
			stragglers := n.liveInstanceNames()
			nlog.Warnf("network: shutdown window elapsed, still live: %v", stragglers)
			report.Unresponsive = stragglers
		}
		errs.Add(ctx.Err())
	}

	report.Stats = n.ledger.Stats()
	n.observeMetrics(report.Stats)
	return report, errs.JoinErr()
}

// liveInstanceNames returns the names of every Instance that has not
// yet reached a terminal RunState, used to name the stragglers a
// bounded shutdown window gave up waiting for.
func (n *Network) liveInstanceNames() []string {
	var out []string
	for name, inst := range n.instances {
		if !inst.State().Done() {
			out = append(out, name)
		}
	}
	return out
}

// pollQuiescence is the hk.Job callback driving the deadlock check: it
// returns 0 (unregistering itself) once the graph is fully done or a
// deadlock has been reported, otherwise the next poll interval. A
// deadlock is only declared when at least one blocked instance is
// Suspended-Receive (spec section 4.5's Quiescent predicate; spec
// section 8's deadlock-detection-soundness property requires the
// reported set contain a Suspended-Receive participant) -- a cycle
// where every live instance is merely Suspended-Send on a full
// downstream connection does not, by itself, satisfy either.
func (n *Network) pollQuiescence(deadlock chan<- []string) time.Duration {
	snap := n.runLedger.snapshot()
	n.observeConnectionLengths()
	if snap.allDone {
		return 0
	}
	if !snap.anyActive && snap.anySuspendedReceive && len(snap.blockedNames) > 0 {
		select {
		case deadlock <- snap.blockedNames:
		default:
		}
		return 0
	}
	return n.hkTick
}

// forceCloseAll force-closes every Connection, failing any blocked Put
// with ConnectionClosedError and waking any blocked Get with
// end-of-stream, and reconciles whatever each one was still
// holding against the Ledger as leaked -- otherwise packets buffered in
// a connection at the moment of a deadlock/cancellation unwind would
// vanish from Stats without being counted anywhere (spec section 8's
// conservation-of-packets invariant).
func (n *Network) forceCloseAll() {
	for name, c := range n.conns {
		drained := c.CloseNow()
		if len(drained) == 0 {
			continue
		}
		n.ledger.ReclaimLeaked(drained, "conn:"+name)
	}
}

func (n *Network) observeMetrics(stats packet.Stats) {
	if n.metrics == nil {
		return
	}
	n.metrics.ObserveStats(stats.Created, stats.Delivered, stats.Discarded, stats.Leaked)
}

func (n *Network) observeConnectionLengths() {
	if n.metrics == nil {
		return
	}
	for name, c := range n.conns {
		n.metrics.SetConnectionLength(name, c.Len())
	}
}
