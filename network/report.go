package network

import "github.com/flowcore-go/flowcore/packet"

// Report summarizes one Run: the final packet-conservation tally (spec
// section 8); if the graph deadlocked rather than draining naturally,
// the participants and a stable digest identifying the incident for
// correlation across log lines; and if Run returned because the
// caller's context was canceled, whether the shutdown window elapsed
// before every Instance exited and, if so, which ones were still live
// (spec section 4.5 Cancellation, spec section 8 scenario 6).
type Report struct {
	Stats        packet.Stats
	Deadlocked   bool
	Participants []string
	Digest       string
	Canceled     bool
	Unresponsive []string
}
