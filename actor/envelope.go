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

// Envelope is a message queued in a mailbox along with its sender
type Envelope struct {
	message  any
	sender   *PID
	sentTime time.Time
}

// NewEnvelope creates an Envelope. The sender can be nil.
func NewEnvelope(message any, sender *PID) *Envelope {
	return &Envelope{
		message:  message,
		sender:   sender,
		sentTime: time.Now().UTC(),
	}
}

// Message returns the enveloped message
func (e *Envelope) Message() any {
	return e.message
}

// Sender returns the sender, nil when sent from outside an actor
func (e *Envelope) Sender() *PID {
	return e.sender
}

// SentTime returns the time the envelope was created
func (e *Envelope) SentTime() time.Time {
	return e.sentTime
}
