package network

import (
	"sync"

	"github.com/flowcore-go/flowcore/component"
)

// runLedger tracks every Instance's last-observed RunState so the
// quiescence poll (spec section 4.5) can decide, without touching any
// Instance directly, whether the Network as a whole has stopped making
// progress.
type runLedger struct {
	mu     sync.Mutex
	states map[string]component.RunState
}

func newRunLedger() *runLedger {
	return &runLedger{states: make(map[string]component.RunState)}
}

func (l *runLedger) set(name string, s component.RunState) {
	l.mu.Lock()
	l.states[name] = s
	l.mu.Unlock()
}

// snapshot reports whether every tracked instance is Done, whether at
// least one is Blocked (and specifically whether at least one of those
// is Suspended-Receive, not merely Suspended-Send -- spec section 4.5's
// Quiescent predicate and section 8's deadlock-soundness property are
// both stated in terms of Suspended-Receive), and the names of the
// Blocked ones, which the caller uses as a deadlock report's participant
// list.
type snapshot struct {
	allDone             bool
	anyActive           bool
	anySuspendedReceive bool
	blockedNames        []string
}

func (l *runLedger) snapshot() snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	s := snapshot{allDone: true}
	for name, state := range l.states {
		if !state.Done() {
			s.allDone = false
		}
		if state == component.Active {
			s.anyActive = true
		}
		if state == component.SuspendedReceive {
			s.anySuspendedReceive = true
		}
		if state.Blocked() {
			s.blockedNames = append(s.blockedNames, name)
		}
	}
	return s
}
