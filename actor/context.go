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
	"context"

	"github.com/tochemey/typedakt/log"
)

// Context is handed to behaviors along with each message. It gives access
// to the actor identity and to the effects a handler may request.
//
// Tell, Stop, Register, Deregister, Subscribe and Unsubscribe are
// buffered and applied, in call order, once the handler returns. When the
// handler panics they are dropped. Spawn takes effect immediately since
// its result is needed by the handler.
//
// A Context is only valid during the call it was passed to.
type Context struct {
	self    *PID
	message any
	sender  *PID
	effects []func()
}

func newContext(self *PID) *Context {
	return &Context{self: self}
}

func (c *Context) reset(envelope *Envelope) {
	c.effects = c.effects[:0]
	if envelope == nil {
		c.message, c.sender = nil, nil
		return
	}
	c.message, c.sender = envelope.Message(), envelope.Sender()
}

// flush applies the buffered effects in order
func (c *Context) flush() {
	effects := c.effects
	c.effects = c.effects[:0]
	for _, effect := range effects {
		effect()
	}
}

func (c *Context) discard() {
	c.effects = c.effects[:0]
}

func (c *Context) defer_(effect func()) {
	c.effects = append(c.effects, effect)
}

// Self returns the reference of the running actor
func (c *Context) Self() *PID {
	return c.self
}

// Sender returns the sender of the current message, nil when the message
// was not sent by an actor
func (c *Context) Sender() *PID {
	return c.sender
}

// Message returns the message being processed
func (c *Context) Message() any {
	return c.message
}

// ActorSystem returns the actor system hosting the actor
func (c *Context) ActorSystem() ActorSystem {
	return c.self.system
}

// Logger returns the actor system logger
func (c *Context) Logger() log.Logger {
	return c.self.logger
}

// Receptionist returns the directory of the actor system
func (c *Context) Receptionist() *Receptionist {
	return c.self.system.receptionist
}

// Tell sends a message to the given actor once the handler returns.
// Messages sent to the same actor keep their order.
func (c *Context) Tell(to *PID, message any) {
	self := c.self
	c.defer_(func() {
		if err := self.system.tell(context.Background(), self, to, message); err != nil {
			self.logger.Warnf("actor=(%s) failed to send message to actor=(%s): %v", self.Name(), to.String(), err)
		}
	})
}

// Stop stops the given local actor once the messages already queued in
// its mailbox have been processed
func (c *Context) Stop(pid *PID) {
	self := c.self
	c.defer_(func() {
		if err := self.system.StopActor(context.Background(), pid); err != nil {
			self.logger.Warnf("actor=(%s) failed to stop actor=(%s): %v", self.Name(), pid.String(), err)
		}
	})
}

// Spawn creates a new actor in the same actor system
func (c *Context) Spawn(name string, behavior Behavior, opts ...SpawnOption) (*PID, error) {
	return c.self.system.Spawn(context.Background(), name, behavior, opts...)
}

// SpawnAnonymous creates a new actor with a generated name
func (c *Context) SpawnAnonymous(behavior Behavior, opts ...SpawnOption) (*PID, error) {
	return c.self.system.SpawnAnonymous(context.Background(), behavior, opts...)
}

// Register registers ref under the given key with the receptionist
func (c *Context) Register(key Key, ref *PID) {
	self := c.self
	c.defer_(func() {
		if err := self.system.receptionist.Register(context.Background(), key, ref); err != nil {
			self.logger.Warnf("actor=(%s) failed to register actor=(%s) under key=(%s): %v", self.Name(), ref.String(), key.ID(), err)
		}
	})
}

// Deregister removes ref from the given key
func (c *Context) Deregister(key Key, ref *PID) {
	self := c.self
	c.defer_(func() {
		if err := self.system.receptionist.Deregister(context.Background(), key, ref); err != nil {
			self.logger.Warnf("actor=(%s) failed to deregister actor=(%s) from key=(%s): %v", self.Name(), ref.String(), key.ID(), err)
		}
	})
}

// Subscribe subscribes the running actor to the listings of the given key
func (c *Context) Subscribe(key Key, opts ...SubscribeOption) {
	self := c.self
	c.defer_(func() {
		if err := self.system.receptionist.Subscribe(context.Background(), key, self, opts...); err != nil {
			self.logger.Warnf("actor=(%s) failed to subscribe to key=(%s): %v", self.Name(), key.ID(), err)
		}
	})
}

// Unsubscribe cancels the subscription of the running actor to the given key
func (c *Context) Unsubscribe(key Key) {
	self := c.self
	c.defer_(func() {
		if err := self.system.receptionist.Unsubscribe(context.Background(), key, self); err != nil {
			self.logger.Warnf("actor=(%s) failed to unsubscribe from key=(%s): %v", self.Name(), key.ID(), err)
		}
	})
}
