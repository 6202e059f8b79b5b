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

import "github.com/tochemey/typedakt/internal/xsync"

// Stream is a topic based in-process publish/subscribe broker.
// The actor system publishes dead letters, unhandled messages and
// cluster membership events on it.
type Stream interface {
	AddSubscriber() Subscriber
	// RemoveSubscriber unsubscribes the subscriber from every topic and shuts it down
	RemoveSubscriber(sub Subscriber)
	SubscribersCount(topic string) int
	Subscribe(sub Subscriber, topic string)
	Unsubscribe(sub Subscriber, topic string)
	// Publish delivers msg to the active subscribers of topic.
	// Events published by one goroutine keep their order.
	Publish(topic string, msg any)
	Close()
}

type eventsStream struct {
	subscribers *xsync.Map[string, Subscriber]
	topics      *xsync.Map[string, *xsync.Map[string, Subscriber]]
}

var _ Stream = (*eventsStream)(nil)

// New creates an instance of Stream
func New() Stream {
	return &eventsStream{
		subscribers: xsync.NewMap[string, Subscriber](),
		topics:      xsync.NewMap[string, *xsync.Map[string, Subscriber]](),
	}
}

func (b *eventsStream) AddSubscriber() Subscriber {
	sub := newSubscriber()
	b.subscribers.Set(sub.ID(), sub)
	return sub
}

func (b *eventsStream) RemoveSubscriber(sub Subscriber) {
	for _, topic := range sub.Topics() {
		b.Unsubscribe(sub, topic)
	}
	b.subscribers.Delete(sub.ID())
	sub.Shutdown()
}

func (b *eventsStream) SubscribersCount(topic string) int {
	if subscribers, ok := b.topics.Get(topic); ok {
		return subscribers.Len()
	}
	return 0
}

func (b *eventsStream) Subscribe(sub Subscriber, topic string) {
	if !sub.Active() {
		return
	}

	sub.subscribe(topic)
	b.topics.SetIfAbsent(topic, xsync.NewMap[string, Subscriber]())
	subscribers, _ := b.topics.Get(topic)
	subscribers.Set(sub.ID(), sub)
}

func (b *eventsStream) Unsubscribe(sub Subscriber, topic string) {
	sub.unsubscribe(topic)
	if subscribers, ok := b.topics.Get(topic); ok {
		subscribers.Delete(sub.ID())
	}
}

func (b *eventsStream) Publish(topic string, msg any) {
	subscribers, ok := b.topics.Get(topic)
	if !ok {
		return
	}

	message := NewMessage(topic, msg)
	subscribers.Range(func(_ string, sub Subscriber) {
		sub.signal(message)
	})
}

func (b *eventsStream) Close() {
	for _, sub := range b.subscribers.Values() {
		sub.Shutdown()
	}
	b.subscribers.Reset()
	b.topics.Reset()
}
