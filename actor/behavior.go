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

// Behavior defines how an actor reacts to the next message.
//
// Receive is called with one message at a time and returns the behavior
// to use for the following message: Same keeps the current one, Stopped
// ends the actor, Unhandled drops the message, Failed reports a fault and
// any other value replaces the current behavior.
type Behavior interface {
	Receive(ctx *Context, message any) Behavior
}

// BehaviorFunc is a closure behavior
type BehaviorFunc func(ctx *Context, message any) Behavior

// Receive calls f(ctx, message)
func (f BehaviorFunc) Receive(ctx *Context, message any) Behavior {
	return f(ctx, message)
}

type markerKind int

const (
	sameMarker markerKind = iota
	stoppedMarker
	unhandledMarker
	failedMarker
)

// marker is a behavior result that never receives messages itself
type marker struct {
	kind markerKind
	err  error
}

func (m *marker) Receive(*Context, any) Behavior {
	return Unhandled()
}

var (
	same      = &marker{kind: sameMarker}
	stopped   = &marker{kind: stoppedMarker}
	unhandled = &marker{kind: unhandledMarker}
)

// Same keeps the current behavior for the next message
func Same() Behavior {
	return same
}

// Stopped stops the actor once the current message has been processed
func Stopped() Behavior {
	return stopped
}

// Unhandled reports that the message was not expected in the current state.
// The message is dropped and the behavior is kept.
func Unhandled() Behavior {
	return unhandled
}

// Failed reports a handler fault. The actor stops with the given cause and
// nothing else in the system is affected.
func Failed(err error) Behavior {
	return &marker{kind: failedMarker, err: err}
}

// setup defers the creation of a behavior until the actor starts
type setup struct {
	factory func(ctx *Context) Behavior
}

func (s *setup) Receive(*Context, any) Behavior {
	return Unhandled()
}

// Setup creates the behavior when the actor starts, or when returned from
// a handler, with access to the actor's context. Effects requested from
// the factory, such as registering with the receptionist, are applied
// before the first message is processed.
func Setup(factory func(ctx *Context) Behavior) Behavior {
	return &setup{factory: factory}
}

// Case is one typed branch of a Receive behavior
type Case interface {
	handle(ctx *Context, message any) (Behavior, bool)
}

type typedCase[T any] struct {
	guard   func(T) bool
	handler func(ctx *Context, message T) Behavior
}

func (c typedCase[T]) handle(ctx *Context, message any) (Behavior, bool) {
	typed, ok := message.(T)
	if !ok {
		return nil, false
	}
	if c.guard != nil && !c.guard(typed) {
		return nil, false
	}
	return c.handler(ctx, typed), true
}

// On handles the messages of type T
func On[T any](handler func(ctx *Context, message T) Behavior) Case {
	return typedCase[T]{handler: handler}
}

// OnWhen handles the messages of type T satisfying the guard
func OnWhen[T any](guard func(T) bool, handler func(ctx *Context, message T) Behavior) Case {
	return typedCase[T]{guard: guard, handler: handler}
}

// Receive builds a behavior out of typed cases tried in order.
// A message matching no case is unhandled.
func Receive(cases ...Case) Behavior {
	return BehaviorFunc(func(ctx *Context, message any) Behavior {
		for _, c := range cases {
			if next, ok := c.handle(ctx, message); ok {
				return next
			}
		}
		return Unhandled()
	})
}
