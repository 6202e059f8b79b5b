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

import "time"

// Deadletter is published on the events stream when a message could not
// be delivered: the receiver is stopped, unknown, unreachable or its
// mailbox is full.
type Deadletter struct {
	sender   *PID
	receiver *PID
	message  any
	reason   string
	sendTime time.Time
}

// Sender returns the sender of the message, nil when there is none
func (x *Deadletter) Sender() *PID {
	return x.sender
}

// Receiver returns the intended receiver
func (x *Deadletter) Receiver() *PID {
	return x.receiver
}

// Message returns the undelivered message
func (x *Deadletter) Message() any {
	return x.message
}

// Reason explains why the message was not delivered
func (x *Deadletter) Reason() string {
	return x.reason
}

// SendTime returns the time the delivery failed
func (x *Deadletter) SendTime() time.Time {
	return x.sendTime
}

// deadLetter records an undelivered message. It never fails the sender.
func (x *actorSystem) deadLetter(sender, receiver *PID, message any, reason string) {
	x.deadlettersCount.Inc()
	x.logger.Debugf("deadletter from=(%s) to=(%s) message=(%T): %s", sender.String(), receiver.String(), message, reason)
	x.eventsStream.Publish(x.eventsTopic, &Deadletter{
		sender:   sender,
		receiver: receiver,
		message:  message,
		reason:   reason,
		sendTime: time.Now().UTC(),
	})
}
