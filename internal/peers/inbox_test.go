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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type collector struct {
	mu       sync.Mutex
	payloads []string
}

func (c *collector) deliver(payload []byte) {
	c.mu.Lock()
	c.payloads = append(c.payloads, string(payload))
	c.mu.Unlock()
}

func (c *collector) get() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.payloads...)
}

func TestInbox(t *testing.T) {
	t.Run("With in order frames", func(t *testing.T) {
		sink := new(collector)
		box := newInbox(time.Second, sink.deliver)
		box.receive(1, []byte("a"))
		box.receive(2, []byte("b"))
		assert.Equal(t, []string{"a", "b"}, sink.get())
	})
	t.Run("With out of order frames", func(t *testing.T) {
		sink := new(collector)
		box := newInbox(time.Second, sink.deliver)
		box.receive(3, []byte("c"))
		box.receive(2, []byte("b"))
		assert.Empty(t, sink.get())
		box.receive(1, []byte("a"))
		assert.Equal(t, []string{"a", "b", "c"}, sink.get())
	})
	t.Run("With duplicate frames", func(t *testing.T) {
		sink := new(collector)
		box := newInbox(time.Second, sink.deliver)
		box.receive(1, []byte("a"))
		box.receive(1, []byte("a"))
		assert.Equal(t, []string{"a"}, sink.get())
	})
	t.Run("With lost frame", func(t *testing.T) {
		sink := new(collector)
		box := newInbox(50*time.Millisecond, sink.deliver)
		box.receive(1, []byte("a"))
		box.receive(3, []byte("c"))
		box.receive(4, []byte("d"))
		require.Eventually(t, func() bool {
			return len(sink.get()) == 3
		}, time.Second, 10*time.Millisecond)
		assert.Equal(t, []string{"a", "c", "d"}, sink.get())

		// the late frame is dropped
		box.receive(2, []byte("b"))
		assert.Len(t, sink.get(), 3)
	})
	t.Run("With closed inbox", func(t *testing.T) {
		sink := new(collector)
		box := newInbox(time.Second, sink.deliver)
		box.receive(2, []byte("b"))
		box.close()
		box.receive(1, []byte("a"))
		assert.Empty(t, sink.get())
	})
}

func TestFrame(t *testing.T) {
	frame, err := encodeFrame(messageFrame, &envelope{From: "node1", Incarnation: "i", Seq: 7, Payload: []byte("x")})
	require.NoError(t, err)

	kind, env, err := decodeFrame(frame)
	require.NoError(t, err)
	assert.Equal(t, messageFrame, kind)
	assert.EqualValues(t, 7, env.Seq)
	assert.Equal(t, "node1", env.From)

	_, _, err = decodeFrame([]byte{9, 1})
	assert.ErrorIs(t, err, ErrInvalidFrame)
	_, _, err = decodeFrame(nil)
	assert.ErrorIs(t, err, ErrInvalidFrame)
}

func TestMemberStatus(t *testing.T) {
	assert.Equal(t, "Up", Up.String())
	assert.True(t, Joining.Active())
	assert.False(t, Leaving.Active())
	assert.Equal(t, "MemberRemoved", MemberRemoved.String())
}
