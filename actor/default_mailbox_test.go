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
	"runtime"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gerrors "github.com/tochemey/typedakt/errors"
)

type sequenced struct {
	producer int
	seq      int
}

func TestDefaultMailbox(t *testing.T) {
	t.Run("With basic operations", func(t *testing.T) {
		mailbox := NewDefaultMailbox()

		in1 := NewEnvelope("a", nil)
		in2 := NewEnvelope("b", nil)
		require.NoError(t, mailbox.Enqueue(in1))
		require.NoError(t, mailbox.Enqueue(in2))
		assert.EqualValues(t, 2, mailbox.Len())

		assert.Same(t, in1, mailbox.Dequeue())
		assert.Same(t, in2, mailbox.Dequeue())
		assert.True(t, mailbox.IsEmpty())
		assert.Zero(t, mailbox.Len())
		assert.Nil(t, mailbox.Dequeue())
		mailbox.Dispose()
	})
	t.Run("With multiple producers keeps the order of each producer", func(t *testing.T) {
		const producers = 8
		const perProducer = 500
		mailbox := NewDefaultMailbox()

		var wg sync.WaitGroup
		for p := range producers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := range perProducer {
					_ = mailbox.Enqueue(NewEnvelope(sequenced{producer: p, seq: i}, nil))
				}
			}()
		}

		last := make(map[int]int)
		for p := range producers {
			last[p] = -1
		}

		received := 0
		for received < producers*perProducer {
			envelope := mailbox.Dequeue()
			if envelope == nil {
				runtime.Gosched()
				continue
			}
			msg := envelope.Message().(sequenced)
			require.Equal(t, last[msg.producer]+1, msg.seq)
			last[msg.producer] = msg.seq
			received++
		}
		wg.Wait()
		assert.True(t, mailbox.IsEmpty())
	})
}

func TestBoundedMailbox(t *testing.T) {
	t.Run("With capacity reached", func(t *testing.T) {
		mailbox := NewBoundedMailbox(2)
		require.EqualValues(t, 2, mailbox.Capacity())

		require.NoError(t, mailbox.Enqueue(NewEnvelope(1, nil)))
		require.NoError(t, mailbox.Enqueue(NewEnvelope(2, nil)))
		err := mailbox.Enqueue(NewEnvelope(3, nil))
		require.ErrorIs(t, err, gerrors.ErrMailboxFull)
		assert.EqualValues(t, 2, mailbox.Len())

		assert.Equal(t, 1, mailbox.Dequeue().Message())
		require.NoError(t, mailbox.Enqueue(NewEnvelope(3, nil)))
		assert.Equal(t, 2, mailbox.Dequeue().Message())
		assert.Equal(t, 3, mailbox.Dequeue().Message())
		assert.Nil(t, mailbox.Dequeue())
		assert.True(t, mailbox.IsEmpty())
	})
	t.Run("With disposed mailbox", func(t *testing.T) {
		mailbox := NewBoundedMailbox(4)
		mailbox.Dispose()
		assert.Error(t, mailbox.Enqueue(NewEnvelope(1, nil)))
	})
}
