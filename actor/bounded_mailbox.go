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
	gods "github.com/Workiva/go-datastructures/queue"

	gerrors "github.com/tochemey/typedakt/errors"
)

// BoundedMailbox is a bounded MPSC mailbox backed by a ring buffer.
// A full mailbox rejects new messages with ErrMailboxFull instead of
// blocking the sender.
type BoundedMailbox struct {
	underlying *gods.RingBuffer
}

// enforce compilation error
var _ Mailbox = (*BoundedMailbox)(nil)

// NewBoundedMailbox creates a bounded mailbox. The ring buffer rounds the
// capacity up to the next power of two.
func NewBoundedMailbox(capacity int) *BoundedMailbox {
	if capacity <= 0 {
		capacity = 1
	}
	return &BoundedMailbox{
		underlying: gods.NewRingBuffer(uint64(capacity)),
	}
}

// Enqueue inserts a message into the mailbox
func (mailbox *BoundedMailbox) Enqueue(envelope *Envelope) error {
	ok, err := mailbox.underlying.Offer(envelope)
	if err != nil {
		return err
	}
	if !ok {
		return gerrors.ErrMailboxFull
	}
	return nil
}

// Dequeue removes and returns the next message, nil when empty
func (mailbox *BoundedMailbox) Dequeue() *Envelope {
	if mailbox.underlying.Len() == 0 {
		return nil
	}
	item, err := mailbox.underlying.Get()
	if err != nil {
		return nil
	}
	envelope, _ := item.(*Envelope)
	return envelope
}

// IsEmpty reports whether the mailbox currently has no messages
func (mailbox *BoundedMailbox) IsEmpty() bool {
	return mailbox.underlying.Len() == 0
}

// Len returns the current number of messages in the mailbox
func (mailbox *BoundedMailbox) Len() int64 {
	return int64(mailbox.underlying.Len())
}

// Capacity returns the effective capacity of the mailbox
func (mailbox *BoundedMailbox) Capacity() int64 {
	return int64(mailbox.underlying.Cap())
}

// Dispose releases the underlying ring buffer
func (mailbox *BoundedMailbox) Dispose() {
	mailbox.underlying.Dispose()
}
