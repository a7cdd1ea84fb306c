package network

import (
	"time"

	"github.com/flowcore-go/flowcore/conn"
	"github.com/flowcore-go/flowcore/metrics"
)

type config struct {
	metrics         *metrics.Registry
	hkTick          time.Duration
	shutdownWindow  time.Duration
	defaultCapacity int
}

func defaultConfig() *config {
	return &config{
		hkTick:          25 * time.Millisecond,
		shutdownWindow:  5 * time.Second,
		defaultCapacity: conn.DefaultCapacity,
	}
}

// Option configures a Network at Build time.
type Option func(*config)

// WithMetrics registers the Network's packet and run-state counters
// against reg.
func WithMetrics(reg *metrics.Registry) Option {
	return func(c *config) { c.metrics = reg }
}

// WithQuiescencePoll overrides the interval at which the Network checks
// whether every live component is blocked (spec section 4.5). The
// default, 25ms, favors prompt deadlock detection over poll overhead.
func WithQuiescencePoll(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.hkTick = d
		}
	}
}

// WithShutdownWindow overrides how long Run waits, once the caller's
// context is canceled, for every component to exit before giving up and
// reporting the stragglers (spec section 4.5 Cancellation: "waits for
// each Component to exit within a bounded shutdown window; any exceeding
// it is aborted and reported"). The default is 5s.
func WithShutdownWindow(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.shutdownWindow = d
		}
	}
}

// WithDefaultCapacity overrides the capacity a ConnSpec gets when it
// doesn't set its own (spec section 4.2's "typical: 10").
func WithDefaultCapacity(capacity int) Option {
	return func(c *config) {
		if capacity > 0 {
			c.defaultCapacity = capacity
		}
	}
}

// Config is the explicit settings struct a Network is built from,
// following the teacher's convention of passing configuration at
// construction rather than through a process-wide global (spec section
// 9 reserves implicit global state for the type-handler list alone,
// contrast the teacher's own cmn.GCO). New translates a Config into the
// Option values Builder.Build already consumes, so existing callers
// that prefer functional options keep working unchanged.
type Config struct {
	// DefaultCapacity is used for any ConnSpec that doesn't set its own
	// Capacity. Zero means "use the package default" (conn.DefaultCapacity).
	DefaultCapacity int
	// ShutdownWindow bounds how long Run waits, after the caller's
	// context is canceled, for every component to exit. When it elapses
	// Run stops waiting and lists the stragglers in Report.Unresponsive;
	// their goroutines are not stopped and keep running. Zero means "use
	// the package default".
	ShutdownWindow time.Duration
	// HousekeepingInterval is how often Run polls for quiescence. Zero
	// means "use the package default".
	HousekeepingInterval time.Duration
	// Metrics, if set, registers the Network's packet and run-state
	// counters against it.
	Metrics *metrics.Registry
}

// DefaultConfig returns the Config New falls back to for any field left
// at its zero value.
func DefaultConfig() Config {
	d := defaultConfig()
	return Config{
		DefaultCapacity:      d.defaultCapacity,
		ShutdownWindow:       d.shutdownWindow,
		HousekeepingInterval: d.hkTick,
	}
}

// New builds a Network from g using cfg. It is the constructor
// SPEC_FULL.md's ambient-configuration section names; Builder.Build
// with functional Options remains available for callers that want to
// compose options rather than fill in a struct.
func New(g *Graph, cfg Config) (*Network, error) {
	opts := []Option{
		WithDefaultCapacity(cfg.DefaultCapacity),
		WithShutdownWindow(cfg.ShutdownWindow),
		WithQuiescencePoll(cfg.HousekeepingInterval),
	}
	if cfg.Metrics != nil {
		opts = append(opts, WithMetrics(cfg.Metrics))
	}
	return NewBuilder().Build(g, opts...)
}
