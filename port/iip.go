package port

import "sync"

// iip is a single-shot value attached to an input port at graph-build
// time (spec section 3's InitializationPacket source). It is observable
// as exactly one packet followed by end-of-stream, and is mutually
// exclusive with a real Connection -- checked for scalar ports by
// network.Builder.Build at wiring time, not here.
type iip struct {
	mu       sync.Mutex
	value    any
	consumed bool
}

func newIIP(value any) *iip {
	return &iip{value: value}
}

// take returns the value and true exactly once.
func (s *iip) take() (any, bool) {
	if s == nil {
		return nil, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.consumed {
		return nil, false
	}
	s.consumed = true
	return s.value, true
}
