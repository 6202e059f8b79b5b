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
	"sync"

	"github.com/Workiva/go-datastructures/queue"
	"go.uber.org/atomic"
)

const outboxBatchSize = 64

// outbox serializes the message frames sent to one peer incarnation.
// Sequence numbers are assigned in enqueue order and frames are written
// in that same order by a single goroutine, so the receiver can restore
// the sending order.
type outbox struct {
	target *Peer
	seq    *atomic.Uint64
	mu     sync.Mutex
	queue  *queue.Queue
	done   chan struct{}
}

func newOutbox(target *Peer) *outbox {
	return &outbox{
		target: target,
		seq:    atomic.NewUint64(0),
		queue:  queue.New(outboxBatchSize),
		done:   make(chan struct{}),
	}
}

// enqueue frames the payload with the next sequence number
func (o *outbox) enqueue(from *Peer, payload []byte) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	frame, err := encodeFrame(messageFrame, &envelope{
		From:        from.Name,
		Incarnation: from.Incarnation,
		Seq:         o.seq.Inc(),
		Payload:     payload,
	})
	if err != nil {
		o.seq.Dec()
		return err
	}
	return o.queue.Put(frame)
}

// run writes queued frames until the outbox is disposed
func (o *outbox) run(write func(target *Peer, frame []byte)) {
	defer close(o.done)
	for {
		items, err := o.queue.Get(outboxBatchSize)
		if err != nil {
			return
		}
		for _, item := range items {
			write(o.target, item.([]byte))
		}
	}
}

func (o *outbox) dispose() {
	o.queue.Dispose()
	<-o.done
}
