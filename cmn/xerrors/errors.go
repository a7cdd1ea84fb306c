// Package xerrors defines the runtime's error taxonomy (spec section 7)
// and an aggregator for joining independent per-component failures,
// following the shape of the teacher's cmn/cos err.go (ErrNotFound, Errs).
/*
 * Copyright (c) 2018-2023, NVIDIA CORPORATION. All rights reserved.
 */
package xerrors

import (
	"fmt"
	"sync"

	pkgerrors "github.com/pkg/errors"
)

// PacketValidationError: content failed a port's type check at send.
type PacketValidationError struct {
	Port    string
	Content any
	Cause   error
}

func NewPacketValidationError(port string, content any, cause error) *PacketValidationError {
	return &PacketValidationError{Port: port, Content: content, Cause: cause}
}

func (e *PacketValidationError) Error() string {
	return fmt.Sprintf("packet validation failed on port %q: %v", e.Port, e.Cause)
}

func (e *PacketValidationError) Unwrap() error { return e.Cause }

// TypeHandlerError: no handler claims a descriptor.
type TypeHandlerError struct {
	Descriptor string
}

func NewTypeHandlerError(descriptor string) *TypeHandlerError {
	return &TypeHandlerError{Descriptor: descriptor}
}

func (e *TypeHandlerError) Error() string {
	return fmt.Sprintf("no type handler claims descriptor %q", e.Descriptor)
}

// OwnershipError: operation on a packet not owned by the caller, or a
// double-drop/double-send.
type OwnershipError struct {
	Op       string
	Owner    string
	Attempted string
}

func NewOwnershipError(op, owner, attempted string) *OwnershipError {
	return &OwnershipError{Op: op, Owner: owner, Attempted: attempted}
}

func (e *OwnershipError) Error() string {
	if e.Owner == "" {
		return fmt.Sprintf("%s: packet already dropped or sent (attempted by %q)", e.Op, e.Attempted)
	}
	return fmt.Sprintf("%s: packet owned by %q, not %q", e.Op, e.Owner, e.Attempted)
}

// PacketLeakError: a Component terminated while still owning packets.
// Fatal to its Network.
type PacketLeakError struct {
	Component string
	Count     int
}

func NewPacketLeakError(component string, count int) *PacketLeakError {
	return &PacketLeakError{Component: component, Count: count}
}

func (e *PacketLeakError) Error() string {
	return fmt.Sprintf("component %q terminated while owning %d packet(s)", e.Component, e.Count)
}

// ConnectionClosedError: send on a closed connection.
type ConnectionClosedError struct {
	Connection string
}

func NewConnectionClosedError(conn string) *ConnectionClosedError {
	return &ConnectionClosedError{Connection: conn}
}

func (e *ConnectionClosedError) Error() string {
	return fmt.Sprintf("connection %q is closed", e.Connection)
}

// PortNotOpenError: operation on an already-closed port.
type PortNotOpenError struct {
	Port string
}

func NewPortNotOpenError(port string) *PortNotOpenError {
	return &PortNotOpenError{Port: port}
}

func (e *PortNotOpenError) Error() string {
	return fmt.Sprintf("port %q is not open", e.Port)
}

// ComponentError: user-logic failure; wraps the underlying cause and the
// component name. Wrapped with github.com/pkg/errors so Network.run()
// reports can print a stack trace for unexpected panics recovered from
// user logic.
type ComponentError struct {
	Component string
	Cause     error
}

func NewComponentError(component string, cause error) *ComponentError {
	return &ComponentError{Component: component, Cause: pkgerrors.WithStack(cause)}
}

func (e *ComponentError) Error() string {
	return fmt.Sprintf("component %q failed: %v", e.Component, e.Cause)
}

func (e *ComponentError) Unwrap() error { return e.Cause }

// DeadlockError: reported by the Network when quiescence is reached with
// live components still present.
type DeadlockError struct {
	Participants []string
}

func NewDeadlockError(participants []string) *DeadlockError {
	return &DeadlockError{Participants: participants}
}

func (e *DeadlockError) Error() string {
	return fmt.Sprintf("deadlock detected, participants=%v", e.Participants)
}

// Errs aggregates distinct errors observed across components during a
// single Network run, deduplicating by message text (mirrors the
// teacher's cmn/cos.Errs).
type Errs struct {
	mu   sync.Mutex
	errs []error
}

func (e *Errs) Add(err error) {
	if err == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, existing := range e.errs {
		if existing.Error() == err.Error() {
			return
		}
	}
	e.errs = append(e.errs, err)
}

func (e *Errs) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.errs)
}

// JoinErr returns nil if no error was added, the sole error if exactly
// one was added, or a joined error (via errors.Join semantics) otherwise.
func (e *Errs) JoinErr() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	switch len(e.errs) {
	case 0:
		return nil
	case 1:
		return e.errs[0]
	default:
		return &joined{errs: append([]error(nil), e.errs...)}
	}
}

type joined struct{ errs []error }

func (j *joined) Error() string {
	s := "multiple errors:"
	for _, err := range j.errs {
		s += " [" + err.Error() + "]"
	}
	return s
}

func (j *joined) Unwrap() []error { return j.errs }
