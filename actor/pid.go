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

package actor

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	uatomic "go.uber.org/atomic"

	"github.com/tochemey/typedakt/address"
	gerrors "github.com/tochemey/typedakt/errors"
	"github.com/tochemey/typedakt/log"
)

const (
	idle int32 = iota
	busy
)

// PID is a reference to an actor. It is the only way to send it messages.
//
// A PID obtained from Spawn is local. A PID received from another node,
// through a listing or inside a message, is remote and only carries the
// actor address. Two PIDs are equal when their addresses are.
type PID struct {
	address *address.Address
	system  *actorSystem

	mailbox    Mailbox
	initial    Behavior
	behavior   Behavior
	context    *Context
	processing atomic.Int32
	running    *uatomic.Bool
	throughput int
	processed  *uatomic.Int64
	logger     log.Logger

	stopOnce sync.Once
	stopped  chan struct{}
}

func newPID(system *actorSystem, addr *address.Address, initial Behavior, mailbox Mailbox, throughput int) *PID {
	pid := &PID{
		address:    addr,
		system:     system,
		mailbox:    mailbox,
		initial:    initial,
		running:    uatomic.NewBool(true),
		throughput: throughput,
		processed:  uatomic.NewInt64(0),
		logger:     system.logger,
		stopped:    make(chan struct{}),
	}
	pid.context = newContext(pid)
	return pid
}

// newRemotePID creates a reference that only knows the actor address
func newRemotePID(system *actorSystem, addr *address.Address) *PID {
	return &PID{address: addr, system: system}
}

// Address returns the actor address
func (pid *PID) Address() *address.Address {
	return pid.address
}

// Name returns the actor name
func (pid *PID) Name() string {
	return pid.address.Name()
}

// ID returns the actor incarnation id
func (pid *PID) ID() string {
	return pid.address.ID()
}

// String returns the actor address string
func (pid *PID) String() string {
	if pid == nil || pid.address == nil {
		return ""
	}
	return pid.address.String()
}

// Equals reports whether both references point to the same actor
func (pid *PID) Equals(other *PID) bool {
	if pid == nil || other == nil {
		return pid == other
	}
	return pid.address.Equals(other.address)
}

// IsLocal reports whether the actor lives in this process
func (pid *PID) IsLocal() bool {
	return pid != nil && pid.mailbox != nil
}

// IsRunning reports whether a local actor is alive. Remote references
// always report false.
func (pid *PID) IsRunning() bool {
	return pid.IsLocal() && pid.running.Load()
}

// ProcessedCount returns the number of messages processed by a local actor
func (pid *PID) ProcessedCount() int64 {
	if !pid.IsLocal() {
		return 0
	}
	return pid.processed.Load()
}

// MarshalBinary encodes the reference as its address string so that it
// can travel inside messages
func (pid *PID) MarshalBinary() ([]byte, error) {
	if pid == nil || pid.address == nil {
		return nil, gerrors.ErrUndefinedActor
	}
	return []byte(pid.address.String()), nil
}

// UnmarshalBinary decodes a reference encoded by MarshalBinary. The result
// is detached and gets resolved by the actor system on use.
func (pid *PID) UnmarshalBinary(data []byte) error {
	addr, err := address.Parse(string(data))
	if err != nil {
		return err
	}
	*pid = PID{address: addr}
	return nil
}

// enqueue pushes the envelope in the mailbox and schedules a drain
func (pid *PID) enqueue(envelope *Envelope) error {
	if !pid.running.Load() {
		return gerrors.ErrDead
	}
	if err := pid.mailbox.Enqueue(envelope); err != nil {
		return err
	}
	pid.schedule()
	return nil
}

// schedule submits a drain unless one is already running
func (pid *PID) schedule() {
	if !pid.processing.CompareAndSwap(idle, busy) {
		return
	}
	if err := pid.system.pool.Submit(pid.drain); err != nil {
		pid.processing.Store(idle)
		pid.logger.Warnf("actor=(%s) could not be scheduled: %v", pid.Name(), err)
	}
}

// drain processes up to throughput messages then hands the worker back
func (pid *PID) drain() {
	for range pid.throughput {
		envelope := pid.mailbox.Dequeue()
		if envelope == nil {
			break
		}
		pid.handle(envelope)
		if !pid.running.Load() {
			// the actor is gone, it stays busy so that it never runs again
			return
		}
	}

	pid.processing.Store(idle)
	if !pid.mailbox.IsEmpty() {
		pid.schedule()
	}
}

func (pid *PID) handle(envelope *Envelope) {
	ctx := pid.context
	ctx.reset(envelope)
	defer ctx.reset(nil)

	switch envelope.Message().(type) {
	case *startSignal:
		pid.transition(ctx, pid.initial, true)
		return
	case *poisonPill:
		pid.terminate(nil)
		return
	}

	next, err := pid.invoke(ctx, func() Behavior {
		return pid.behavior.Receive(ctx, envelope.Message())
	})
	pid.processed.Inc()
	pid.system.processedCount.Inc()
	if err != nil {
		pid.terminate(err)
		return
	}
	pid.transition(ctx, next, false)
}

// invoke runs a handler, turning panics into errors. Effects are flushed
// when the handler returns normally and dropped when it panics.
func (pid *PID) invoke(ctx *Context, handler func() Behavior) (next Behavior, err error) {
	defer func() {
		if r := recover(); r != nil {
			ctx.discard()
			err = toPanicError(r)
		}
	}()
	next = handler()
	ctx.flush()
	return next, nil
}

// transition applies the behavior returned by a handler. At start, the
// markers are meaningless and stop the actor.
func (pid *PID) transition(ctx *Context, next Behavior, starting bool) {
	for {
		switch behavior := next.(type) {
		case nil:
			if starting {
				pid.terminate(gerrors.ErrUndefinedBehavior)
				return
			}
			pid.logger.Warnf("actor=(%s) returned a nil behavior, keeping the current one", pid.Name())
			return
		case *marker:
			switch behavior.kind {
			case stoppedMarker:
				pid.terminate(nil)
			case failedMarker:
				cause := behavior.err
				if cause == nil {
					cause = errors.New("handler failed")
				}
				pid.terminate(cause)
			case sameMarker, unhandledMarker:
				if starting {
					pid.terminate(gerrors.ErrUndefinedBehavior)
					return
				}
				if behavior.kind == unhandledMarker {
					pid.system.unhandled(pid, ctx.Sender(), ctx.Message())
				}
			}
			return
		case *setup:
			resolved, err := pid.invoke(ctx, func() Behavior {
				return behavior.factory(ctx)
			})
			if err != nil {
				pid.terminate(err)
				return
			}
			next = resolved
			starting = true
		default:
			pid.behavior = next
			return
		}
	}
}

// terminate stops the actor once. Pending messages go to dead letters.
func (pid *PID) terminate(cause error) {
	pid.stopOnce.Do(func() {
		pid.running.Store(false)

		if cause != nil {
			pid.logger.Error(gerrors.NewHandlerError(pid.Name(), cause))
		}

		if pid.behavior != nil {
			ctx := pid.context
			ctx.reset(NewEnvelope(postStop, nil))
			if _, err := pid.invoke(ctx, func() Behavior {
				return pid.behavior.Receive(ctx, postStop)
			}); err != nil {
				pid.logger.Warnf("actor=(%s) failed on PostStop: %v", pid.Name(), err)
			}
		}

		pid.system.removeActor(pid)

		for envelope := pid.mailbox.Dequeue(); envelope != nil; envelope = pid.mailbox.Dequeue() {
			switch envelope.Message().(type) {
			case *startSignal, *poisonPill:
				continue
			}
			pid.system.deadLetter(envelope.Sender(), pid, envelope.Message(), "actor stopped")
		}
		pid.mailbox.Dispose()

		pid.logger.Debugf("actor=(%s) stopped", pid.Name())
		close(pid.stopped)
	})
}

// toPanicError converts a recovered value into a PanicError carrying the
// location of the panic
func toPanicError(recovered any) error {
	var err error
	switch v := recovered.(type) {
	case error:
		err = v
	default:
		err = fmt.Errorf("%v", v)
	}

	if _, file, line, ok := runtime.Caller(3); ok {
		err = fmt.Errorf("%w at %s:%d", err, file, line)
	}
	return gerrors.NewPanicError(err)
}
