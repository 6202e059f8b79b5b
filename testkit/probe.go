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

package testkit

import (
	"context"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tochemey/typedakt/actor"
)

const (
	MessagesQueueMax int           = 1000
	DefaultTimeout   time.Duration = 3 * time.Second
)

// Probe defines the probe interface that helps perform some assertions
// when implementing unit tests with actors
type Probe interface {
	// ExpectMessage asserts that the next message received by the probe equals the given one
	ExpectMessage(message any) any
	// ExpectMessageWithin asserts that the next message received within the duration equals the given one
	ExpectMessageWithin(duration time.Duration, message any) any
	// ExpectNoMessage asserts that no message is received
	ExpectNoMessage()
	// ExpectNoMessageWithin asserts that no message is received within the duration
	ExpectNoMessageWithin(duration time.Duration)
	// ExpectAnyMessage asserts that a message is received and returns it
	ExpectAnyMessage() any
	// ExpectAnyMessageWithin asserts that a message is received within the duration and returns it
	ExpectAnyMessageWithin(duration time.Duration) any
	// ExpectMessageOfType asserts that the next message has the Go type of the given value
	ExpectMessageOfType(messageType any) any
	// ExpectMessageOfTypeWithin asserts that the next message received within the duration has the Go type of the given value
	ExpectMessageOfTypeWithin(duration time.Duration, messageType any) any
	// AwaitListing consumes the received listings of the given key until
	// one carries size refs. Any other message fails the test
	AwaitListing(duration time.Duration, key actor.Key, size int) *actor.Listing
	// Send sends a message to the given actor with the probe as sender
	Send(to *actor.PID, message any)
	// Sender returns the sender of last received message
	Sender() *actor.PID
	// PID returns the pid of the probe actor
	PID() *actor.PID
	// Stop stops the probe actor
	Stop()
}

type message struct {
	sender  *actor.PID
	payload any
}

// forward asks the probe actor to send a message on behalf of the test
type forward struct {
	to      *actor.PID
	message any
}

// probeBehavior pushes every received message to the queue
func probeBehavior(queue chan<- message) actor.Behavior {
	return actor.BehaviorFunc(func(ctx *actor.Context, msg any) actor.Behavior {
		switch m := msg.(type) {
		case *forward:
			ctx.Tell(m.to, m.message)
		case *actor.PostStop:
		default:
			queue <- message{sender: ctx.Sender(), payload: msg}
		}
		return actor.Same()
	})
}

// probe defines the test probe implementation
type probe struct {
	pt *testing.T

	testCtx        context.Context
	actorSystem    actor.ActorSystem
	pid            *actor.PID
	lastSender     *actor.PID
	messageQueue   chan message
	defaultTimeout time.Duration
}

var _ Probe = (*probe)(nil)

func newProbe(ctx context.Context, actorSystem actor.ActorSystem, t *testing.T) (*probe, error) {
	queue := make(chan message, MessagesQueueMax)
	pid, err := actorSystem.SpawnAnonymous(ctx, probeBehavior(queue))
	if err != nil {
		return nil, err
	}

	return &probe{
		pt:             t,
		testCtx:        ctx,
		actorSystem:    actorSystem,
		pid:            pid,
		messageQueue:   queue,
		defaultTimeout: DefaultTimeout,
	}, nil
}

// ExpectMessage asserts that the next message equals the given one
func (x *probe) ExpectMessage(message any) any {
	return x.expectMessage(x.defaultTimeout, message)
}

// ExpectMessageWithin asserts that the next message received within the duration equals the given one
func (x *probe) ExpectMessageWithin(duration time.Duration, message any) any {
	return x.expectMessage(duration, message)
}

// ExpectNoMessage asserts that no message is received
func (x *probe) ExpectNoMessage() {
	x.expectNoMessage(x.defaultTimeout)
}

// ExpectNoMessageWithin asserts that no message is received within the duration
func (x *probe) ExpectNoMessageWithin(duration time.Duration) {
	x.expectNoMessage(duration)
}

// ExpectAnyMessage expects any message
func (x *probe) ExpectAnyMessage() any {
	return x.expectAnyMessage(x.defaultTimeout)
}

// ExpectAnyMessageWithin expects any message within a time duration
func (x *probe) ExpectAnyMessageWithin(duration time.Duration) any {
	return x.expectAnyMessage(duration)
}

// ExpectMessageOfType asserts the type of the next message
func (x *probe) ExpectMessageOfType(messageType any) any {
	return x.expectMessageOfType(x.defaultTimeout, messageType)
}

// ExpectMessageOfTypeWithin asserts the type of the next message received within the duration
func (x *probe) ExpectMessageOfTypeWithin(duration time.Duration, messageType any) any {
	return x.expectMessageOfType(duration, messageType)
}

// AwaitListing consumes the listings of the key until one carries size refs
func (x *probe) AwaitListing(duration time.Duration, key actor.Key, size int) *actor.Listing {
	deadline := time.Now().Add(duration)
	last := -1
	for {
		remaining := time.Until(deadline)
		received := x.receiveOne(max(remaining, 0))
		require.NotNil(x.pt, received, fmt.Sprintf("timeout (%v) while waiting for a listing of %s with %d refs, last one had %d", duration, key.ID(), size, last))

		listing, ok := received.(*actor.Listing)
		require.True(x.pt, ok, fmt.Sprintf("expected a listing, found %T", received))
		require.True(x.pt, listing.IsForKey(key), fmt.Sprintf("expected a listing of %s, found one of %s", key.ID(), listing.Key().ID()))

		last = listing.Len()
		if last == size {
			return listing
		}
	}
}

// Send sends a message to the given actor with the probe as sender
func (x *probe) Send(to *actor.PID, message any) {
	require.NoError(x.pt, x.actorSystem.Tell(x.testCtx, x.pid, &forward{to: to, message: message}))
}

// Sender returns the last sender
func (x *probe) Sender() *actor.PID {
	return x.lastSender
}

// PID returns the pid of the probe actor
func (x *probe) PID() *actor.PID {
	return x.pid
}

// Stop stops the probe actor
func (x *probe) Stop() {
	require.NoError(x.pt, x.actorSystem.StopActor(x.testCtx, x.pid))
}

// receiveOne receives one message within a maximum time duration
func (x *probe) receiveOne(duration time.Duration) any {
	timer := time.NewTimer(duration)
	defer timer.Stop()

	select {
	case m, ok := <-x.messageQueue:
		if !ok {
			return nil
		}
		if m.payload != nil {
			x.lastSender = m.sender
		}
		return m.payload
	case <-timer.C:
		return nil
	}
}

func (x *probe) expectMessage(duration time.Duration, message any) any {
	received := x.receiveOne(duration)
	require.NotNil(x.pt, received, fmt.Sprintf("timeout (%v) during expectMessage while waiting for %v", duration, message))
	require.Equal(x.pt, message, received, fmt.Sprintf("expected %v, found %v", message, received))
	return received
}

func (x *probe) expectNoMessage(duration time.Duration) {
	received := x.receiveOne(duration)
	require.Nil(x.pt, received, fmt.Sprintf("received unexpected message %v", received))
}

func (x *probe) expectAnyMessage(duration time.Duration) any {
	received := x.receiveOne(duration)
	require.NotNil(x.pt, received, fmt.Sprintf("timeout (%v) during expectAnyMessage while waiting", duration))
	return received
}

func (x *probe) expectMessageOfType(duration time.Duration, messageType any) any {
	received := x.receiveOne(duration)
	require.NotNil(x.pt, received, fmt.Sprintf("timeout (%v) during expectMessageOfType while waiting", duration))

	expected := reflect.TypeOf(messageType)
	actual := reflect.TypeOf(received)
	require.Equal(x.pt, expected, actual, fmt.Sprintf("expected %v, found %v", expected, actual))
	return received
}
