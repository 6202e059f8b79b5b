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
	"time"

	"github.com/tochemey/typedakt/internal/peers"
)

// UnhandledMessage is published on the events stream when a behavior
// returns Unhandled
type UnhandledMessage struct {
	sender   *PID
	receiver *PID
	message  any
	time     time.Time
}

// Sender returns the sender of the message, nil when there is none
func (x *UnhandledMessage) Sender() *PID {
	return x.sender
}

// Receiver returns the actor that did not handle the message
func (x *UnhandledMessage) Receiver() *PID {
	return x.receiver
}

// Message returns the unhandled message
func (x *UnhandledMessage) Message() any {
	return x.message
}

// Time returns when the message was dropped
func (x *UnhandledMessage) Time() time.Time {
	return x.time
}

// Member is a snapshot of a cluster member
type Member = peers.Member

// MemberStatus is the lifecycle stage of a cluster member
type MemberStatus = peers.MemberStatus

const (
	// Joining is the status of a node that has started but not yet joined
	Joining = peers.Joining
	// Up is the status of a member taking part in the cluster
	Up = peers.Up
	// Leaving is the status of a member gracefully exiting
	Leaving = peers.Leaving
	// Removed is the terminal status of a member
	Removed = peers.Removed
)

// ClusterEventType defines the kind of membership change
type ClusterEventType = peers.EventType

const (
	MemberJoined  = peers.MemberJoined
	MemberUp      = peers.MemberUp
	MemberLeft    = peers.MemberLeft
	MemberRemoved = peers.MemberRemoved
)

// ClusterEvent is published on the events stream on every membership change
type ClusterEvent = peers.Event

// unhandled records a message a behavior did not expect
func (x *actorSystem) unhandled(receiver, sender *PID, message any) {
	x.unhandledCount.Inc()
	x.logger.Debugf("actor=(%s) did not handle message=(%T)", receiver.Name(), message)
	x.eventsStream.Publish(x.eventsTopic, &UnhandledMessage{
		sender:   sender,
		receiver: receiver,
		message:  message,
		time:     time.Now().UTC(),
	})
}
