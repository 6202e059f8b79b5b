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

package eventstream

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drain(sub Subscriber) []*Message {
	var out []*Message
	for msg := range sub.Iterator() {
		out = append(out, msg)
	}
	return out
}

func TestStream(t *testing.T) {
	t.Run("With subscription", func(t *testing.T) {
		broker := New()
		sub := broker.AddSubscriber()
		broker.Subscribe(sub, "deadletters")
		broker.Subscribe(sub, "cluster")
		require.Equal(t, 1, broker.SubscribersCount("deadletters"))
		assert.ElementsMatch(t, []string{"deadletters", "cluster"}, sub.Topics())

		broker.Publish("deadletters", "first")
		broker.Publish("cluster", "second")
		broker.Publish("deadletters", "third")
		broker.Publish("unknown", "dropped")

		messages := drain(sub)
		require.Len(t, messages, 3)
		assert.Equal(t, "first", messages[0].Payload())
		assert.Equal(t, "cluster", messages[1].Topic())
		assert.Equal(t, "third", messages[2].Payload())
		assert.Empty(t, drain(sub))

		broker.Close()
		assert.False(t, sub.Active())
	})
	t.Run("With unsubscription", func(t *testing.T) {
		broker := New()
		sub := broker.AddSubscriber()
		broker.Subscribe(sub, "t1")
		broker.Subscribe(sub, "t2")
		broker.Unsubscribe(sub, "t1")
		assert.Zero(t, broker.SubscribersCount("t1"))

		broker.Publish("t1", "dropped")
		broker.Publish("t2", "kept")
		messages := drain(sub)
		require.Len(t, messages, 1)
		assert.Equal(t, "kept", messages[0].Payload())
	})
	t.Run("With removed subscriber", func(t *testing.T) {
		broker := New()
		sub := broker.AddSubscriber()
		broker.Subscribe(sub, "t1")
		broker.RemoveSubscriber(sub)
		assert.Zero(t, broker.SubscribersCount("t1"))
		assert.False(t, sub.Active())

		broker.Subscribe(sub, "t1")
		assert.Zero(t, broker.SubscribersCount("t1"))
		broker.Publish("t1", "dropped")
		assert.Empty(t, drain(sub))
	})
}
