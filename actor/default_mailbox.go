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
	"sync"
	"sync/atomic"
)

// mpscNode defines a node of the MPSC queue
type mpscNode struct {
	next atomic.Pointer[mpscNode]
	data *Envelope
}

var mpscNodePool = sync.Pool{New: func() any { return new(mpscNode) }}

// DefaultMailbox is the unbounded lock-free mailbox used by default.
//
// Many goroutines may call Enqueue concurrently but a single goroutine
// calls Dequeue, which the runtime guarantees by draining each actor on
// one worker at a time. Ordering is FIFO across all producers, which
// gives FIFO per sender and receiver pair.
type DefaultMailbox struct {
	head   atomic.Pointer[mpscNode] // consumer only
	_pad1  [64]byte
	tail   atomic.Pointer[mpscNode] // producers only
	_pad2  [64]byte
	length atomic.Int64
}

// enforce compilation error when interface contract changes
var _ Mailbox = (*DefaultMailbox)(nil)

// NewDefaultMailbox creates a DefaultMailbox. It starts with a dummy node
// so that producers can append by swapping the tail.
func NewDefaultMailbox() *DefaultMailbox {
	dummy := mpscNodePool.Get().(*mpscNode)
	dummy.next.Store(nil)
	dummy.data = nil
	m := &DefaultMailbox{}
	m.head.Store(dummy)
	m.tail.Store(dummy)
	return m
}

// Enqueue places the given value in the mailbox. It never fails.
func (m *DefaultMailbox) Enqueue(value *Envelope) error {
	n := mpscNodePool.Get().(*mpscNode)
	n.data = value
	n.next.Store(nil)

	prev := m.tail.Swap(n)
	prev.next.Store(n)
	m.length.Add(1)
	return nil
}

// Dequeue removes and returns the value at the head of the mailbox.
// It returns nil when the mailbox is empty.
func (m *DefaultMailbox) Dequeue() *Envelope {
	head := m.head.Load()
	next := head.next.Load()
	if next == nil {
		return nil
	}

	m.head.Store(next)
	value := next.data
	next.data = nil

	head.next.Store(nil)
	mpscNodePool.Put(head)
	m.length.Add(-1)
	return value
}

// Len returns the number of messages in the mailbox
func (m *DefaultMailbox) Len() int64 {
	return m.length.Load()
}

// IsEmpty returns true when the mailbox is empty
func (m *DefaultMailbox) IsEmpty() bool {
	return m.head.Load().next.Load() == nil
}

// Dispose is a no-op for this mailbox
func (m *DefaultMailbox) Dispose() {}
