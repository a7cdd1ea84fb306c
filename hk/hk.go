// Package hk runs a small set of named periodic callbacks on a single
// ticker loop, generalizing the teacher's transport stream collector's
// ticker-plus-control-channel pattern (transport/collect.go) from
// per-stream idle-timeout tracking to arbitrary periodic work -- here,
// a Network's quiescence poll (spec section 4.5).
/*
 * Copyright (c) 2018-2023, NVIDIA CORPORATION. All rights reserved.
 */
package hk

import (
	"sync"
	"time"

	"github.com/flowcore-go/flowcore/cmn/debug"
)

// Job is a periodically invoked callback. F returns the duration until
// its next invocation; a return <= 0 unregisters it.
type Job struct {
	Name string
	F    func() time.Duration
}

type ctrlMsg struct {
	job *Job
	add bool
}

type entry struct {
	job       *Job
	remaining time.Duration
}

// Housekeeper drives Job.F on a shared ticker. Registration and
// removal go through ctrlCh so the run loop never touches its job map
// from another goroutine, mirroring transport/collect.go's ctrlCh.
type Housekeeper struct {
	tick      time.Duration
	ctrlCh    chan ctrlMsg
	stopCh    chan struct{}
	startedCh chan struct{}
	closeOnce sync.Once
}

// New creates a Housekeeper that ticks every interval tick.
func New(tick time.Duration) *Housekeeper {
	debug.Assert(tick > 0, "housekeeper tick must be positive")
	return &Housekeeper{
		tick:      tick,
		ctrlCh:    make(chan ctrlMsg),
		stopCh:    make(chan struct{}),
		startedCh: make(chan struct{}),
	}
}

// Reg registers job, due on its first tick.
func (h *Housekeeper) Reg(job *Job) {
	select {
	case h.ctrlCh <- ctrlMsg{job: job, add: true}:
	case <-h.stopCh:
	}
}

// Unreg removes a job by name if present.
func (h *Housekeeper) Unreg(name string) {
	select {
	case h.ctrlCh <- ctrlMsg{job: &Job{Name: name}, add: false}:
	case <-h.stopCh:
	}
}

// Stop ends the run loop; safe to call more than once.
func (h *Housekeeper) Stop() {
	h.closeOnce.Do(func() { close(h.stopCh) })
}

// WaitStarted blocks until Run's ticker is live.
func (h *Housekeeper) WaitStarted() { <-h.startedCh }

// Run drives all registered jobs until Stop is called. It is meant to
// run in its own goroutine for the lifetime of one Network.
func (h *Housekeeper) Run() {
	ticker := time.NewTicker(h.tick)
	defer ticker.Stop()

	entries := make(map[string]*entry)
	close(h.startedCh)
	for {
		select {
		case <-ticker.C:
			for name, e := range entries {
				e.remaining -= h.tick
				if e.remaining > 0 {
					continue
				}
				next := e.job.F()
				if next <= 0 {
					delete(entries, name)
					continue
				}
				e.remaining = next
			}
		case msg := <-h.ctrlCh:
			if msg.add {
				entries[msg.job.Name] = &entry{job: msg.job, remaining: h.tick}
			} else {
				delete(entries, msg.job.Name)
			}
		case <-h.stopCh:
			return
		}
	}
}
