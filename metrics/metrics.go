// Package metrics exposes a Network's packet-conservation counters and
// per-component run state as Prometheus collectors, replacing the
// teacher's name-keyed stats.Tracker map (stats/common_statsd.go) --
// string-keyed counters bucketed by kind -- with typed
// prometheus/client_golang vectors labeled by component/connection
// name, the idiomatic shape for this ecosystem's dependency.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the set of collectors one Network registers against a
// prometheus.Registerer. A nil *Registry is valid and every method on
// it becomes a no-op, so instrumenting a Network stays optional.
type Registry struct {
	packetsCreated   prometheus.Counter
	packetsDelivered prometheus.Counter
	packetsDiscarded prometheus.Counter
	packetsLeaked    prometheus.Counter
	connectionLength *prometheus.GaugeVec
	componentState   *prometheus.GaugeVec

	mu   sync.Mutex
	last struct{ created, delivered, discarded, leaked int64 }
}

// New builds a Registry and registers its collectors with reg. Pass
// prometheus.NewRegistry() for an isolated registry (tests, multiple
// concurrent Networks) or prometheus.DefaultRegisterer for a process
// singleton.
func New(namespace string, reg prometheus.Registerer) *Registry {
	r := &Registry{
		packetsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "fbp", Name: "packets_created_total",
			Help: "Total packets materialized by Create or an IIP.",
		}),
		packetsDelivered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "fbp", Name: "packets_delivered_total",
			Help: "Total packets consumed at a terminal sink.",
		}),
		packetsDiscarded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "fbp", Name: "packets_dropped_total",
			Help: "Total packets discarded mid-pipeline by their holder.",
		}),
		packetsLeaked: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "fbp", Name: "packets_leaked_total",
			Help: "Total packets reclaimed from a component that terminated while still owning them.",
		}),
		connectionLength: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "fbp", Name: "connection_length",
			Help: "Current number of packets buffered in a connection.",
		}, []string{"connection"}),
		componentState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "fbp", Name: "component_state",
			Help: "Current RunState of a component, as its integer encoding.",
		}, []string{"component"}),
	}
	reg.MustRegister(r.packetsCreated, r.packetsDelivered, r.packetsDiscarded,
		r.packetsLeaked, r.connectionLength, r.componentState)
	return r
}

// ObserveStats mirrors a packet.Ledger snapshot into the four
// conservation counters. Counters only move forward, so call this with
// monotonically non-decreasing totals (a Ledger's Stats never regress).
func (r *Registry) ObserveStats(created, delivered, discarded, leaked int64) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	addDelta(r.packetsCreated, &r.last.created, created)
	addDelta(r.packetsDelivered, &r.last.delivered, delivered)
	addDelta(r.packetsDiscarded, &r.last.discarded, discarded)
	addDelta(r.packetsLeaked, &r.last.leaked, leaked)
}

// addDelta advances a monotonic Counter by the amount total has grown
// since the last observation; the Ledger, not the counter, is the
// source of truth for the running total.
func addDelta(c prometheus.Counter, prev *int64, total int64) {
	if delta := total - *prev; delta > 0 {
		c.Add(float64(delta))
		*prev = total
	}
}

// SetConnectionLength reports the current queue depth of a named
// connection.
func (r *Registry) SetConnectionLength(connection string, n int) {
	if r == nil {
		return
	}
	r.connectionLength.WithLabelValues(connection).Set(float64(n))
}

// SetComponentState reports a component's current RunState, encoded by
// the caller as its integer value (component.RunState's underlying
// type) so this package stays independent of the component package.
func (r *Registry) SetComponentState(name string, state int) {
	if r == nil {
		return
	}
	r.componentState.WithLabelValues(name).Set(float64(state))
}
