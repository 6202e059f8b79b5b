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

package peers

import (
	"slices"
	"sync"
	"time"
)

// inbox restores the sending order of the message frames of one peer
// incarnation. A frame arriving ahead of its turn is held until the
// missing ones show up or the gap timeout expires, in which case the
// missing frames are considered lost.
type inbox struct {
	mu      sync.Mutex
	next    uint64
	pending map[uint64][]byte
	timer   *time.Timer
	timeout time.Duration
	deliver func([]byte)
	closed  bool
}

func newInbox(timeout time.Duration, deliver func([]byte)) *inbox {
	return &inbox{
		next:    1,
		pending: make(map[uint64][]byte),
		timeout: timeout,
		deliver: deliver,
	}
}

func (x *inbox) receive(seq uint64, payload []byte) {
	x.mu.Lock()
	defer x.mu.Unlock()

	if x.closed || seq < x.next {
		return
	}

	if seq > x.next {
		x.pending[seq] = payload
		if x.timer == nil {
			x.timer = time.AfterFunc(x.timeout, x.skipGap)
		}
		return
	}

	x.deliver(payload)
	x.next++
	x.flush()
}

// flush delivers the contiguous frames held in pending
func (x *inbox) flush() {
	for {
		payload, ok := x.pending[x.next]
		if !ok {
			break
		}
		delete(x.pending, x.next)
		x.deliver(payload)
		x.next++
	}

	if len(x.pending) == 0 && x.timer != nil {
		x.timer.Stop()
		x.timer = nil
	}
}

func (x *inbox) skipGap() {
	x.mu.Lock()
	defer x.mu.Unlock()

	x.timer = nil
	if x.closed || len(x.pending) == 0 {
		return
	}

	seqs := make([]uint64, 0, len(x.pending))
	for seq := range x.pending {
		seqs = append(seqs, seq)
	}
	x.next = slices.Min(seqs)
	x.flush()

	if len(x.pending) > 0 && x.timer == nil {
		x.timer = time.AfterFunc(x.timeout, x.skipGap)
	}
}

func (x *inbox) close() {
	x.mu.Lock()
	x.closed = true
	if x.timer != nil {
		x.timer.Stop()
		x.timer = nil
	}
	x.pending = nil
	x.mu.Unlock()
}
