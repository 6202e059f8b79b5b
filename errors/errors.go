// MIT License
//
// Copyright (c) 2022-2026 GoAkt Team
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidActorSystemName is returned when the actor system name contains invalid characters.
	// A valid name must consist of only alphanumeric characters ([a-zA-Z0-9]), with optional
	// hyphens or underscores that are not leading.
	ErrInvalidActorSystemName = errors.New("invalid ActorSystem name, must contain only word characters (i.e. [a-zA-Z0-9] plus non-leading '-' or '_')")
	// ErrNameRequired is returned when an actor system name is required but not provided.
	ErrNameRequired = errors.New("actor system name is required")
	// ErrActorSystemNotStarted indicates that an actor system has not been started before use.
	ErrActorSystemNotStarted = errors.New("actor system is not running")
	// ErrActorSystemAlreadyStarted is returned when starting an actor system that is already running.
	ErrActorSystemAlreadyStarted = errors.New("actor system has already started")

	// ErrDead indicates that the actor is no longer alive or has been terminated.
	ErrDead = errors.New("actor is not alive")
	// ErrUndefinedActor is returned when an actor reference is nil or not bound to a system.
	ErrUndefinedActor = errors.New("actor is not defined")
	// ErrUndefinedBehavior is returned when spawning an actor without a behavior.
	ErrUndefinedBehavior = errors.New("behavior is not defined")
	// ErrActorNotFound indicates that the specified actor could not be found in the system.
	ErrActorNotFound = errors.New("actor not found")
	// ErrActorAlreadyExists is returned when trying to create an actor with a name that already exists.
	ErrActorAlreadyExists = errors.New("actor already exists")
	// ErrReservedName is returned when attempting to spawn an actor with a reserved name.
	ErrReservedName = errors.New("actor name is reserved")
	// ErrInvalidActorName is returned when the actor name is empty or malformed.
	ErrInvalidActorName = errors.New("invalid actor name")
	// ErrUnhandled is returned when an actor receives a message it cannot handle.
	ErrUnhandled = errors.New("unhandled message")
	// ErrMailboxFull is returned by a bounded mailbox that reached its capacity.
	ErrMailboxFull = errors.New("mailbox is full")
	// ErrInvalidMessage indicates that a message is nil or cannot be delivered.
	ErrInvalidMessage = errors.New("invalid message")

	// ErrInvalidServiceKey is returned when a service key has no name.
	ErrInvalidServiceKey = errors.New("invalid service key")
	// ErrNotLocal is returned when an operation requires an actor living on this node.
	ErrNotLocal = errors.New("actor is not local")

	// ErrClusterDisabled indicates an attempt to access cluster features when clustering is not enabled.
	ErrClusterDisabled = errors.New("cluster is not enabled")
	// ErrNotJoined is returned when the node has not joined a cluster yet.
	ErrNotJoined = errors.New("node has not joined the cluster")
	// ErrAlreadyJoined is returned when joining twice.
	ErrAlreadyJoined = errors.New("node has already joined the cluster")
	// ErrJoinFailure is returned when none of the seeds could be reached.
	ErrJoinFailure = errors.New("failed to join the cluster")
	// ErrPeerNotFound is returned when the specified peer in the cluster is not available.
	ErrPeerNotFound = errors.New("peer is not found")
	// ErrRemoteSendFailure is returned when sending a remote message fails.
	ErrRemoteSendFailure = errors.New("remote send failed")
	// ErrInvalidRemoteMessage indicates that a frame received from a peer is malformed.
	ErrInvalidRemoteMessage = errors.New("invalid remote message")
	// ErrInvalidAddress is returned when an actor address cannot be parsed.
	ErrInvalidAddress = errors.New("invalid address")
	// ErrTypeNotRegistered is returned when a message type is unknown to the serializer.
	ErrTypeNotRegistered = errors.New("type is not registered")
)

// NewErrActorNotFound formats an ErrActorNotFound with the given actor path.
func NewErrActorNotFound(actorPath string) error {
	return fmt.Errorf("(actor=%s) %w", actorPath, ErrActorNotFound)
}

// NewErrActorAlreadyExists formats an ErrActorAlreadyExists for the given actor name.
func NewErrActorAlreadyExists(actorName string) error {
	return fmt.Errorf("actor=(%s) %w", actorName, ErrActorAlreadyExists)
}

// NewErrReservedName formats an ErrReservedName with the given name.
func NewErrReservedName(name string) error {
	return fmt.Errorf("name=(%s) %w", name, ErrReservedName)
}

// NewErrRemoteSendFailure wraps the transport error with ErrRemoteSendFailure.
func NewErrRemoteSendFailure(err error) error {
	return errors.Join(ErrRemoteSendFailure, err)
}

// NewErrInvalidRemoteMessage wraps a decoding error with ErrInvalidRemoteMessage.
func NewErrInvalidRemoteMessage(err error) error {
	return errors.Join(ErrInvalidRemoteMessage, err)
}

// NewErrInvalidAddress formats an ErrInvalidAddress with the offending input.
func NewErrInvalidAddress(address string, err error) error {
	return fmt.Errorf("address=(%s) %w: %w", address, ErrInvalidAddress, err)
}

// PanicError wraps a value recovered from a panicking handler
type PanicError struct {
	err error
}

var _ error = (*PanicError)(nil)

// NewPanicError creates an instance of PanicError
func NewPanicError(err error) *PanicError {
	return &PanicError{err}
}

// Error implements the standard error interface
func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.err)
}

func (e *PanicError) Unwrap() error {
	return e.err
}

// HandlerError is the error recorded when a behavior signals a failure.
// It carries the name of the actor that failed.
type HandlerError struct {
	actor string
	err   error
}

var _ error = (*HandlerError)(nil)

// NewHandlerError creates an instance of HandlerError
func NewHandlerError(actor string, err error) *HandlerError {
	return &HandlerError{actor: actor, err: err}
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("actor=(%s) handler failed: %v", e.actor, e.err)
}

func (e *HandlerError) Unwrap() error {
	return e.err
}
