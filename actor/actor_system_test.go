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
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/goleak"

	gerrors "github.com/tochemey/typedakt/errors"
	"github.com/tochemey/typedakt/eventstream"
	"github.com/tochemey/typedakt/log"
)

func TestActorSystem(t *testing.T) {
	t.Run("New instance with Defaults", func(t *testing.T) {
		system, err := NewActorSystem("testSys")
		require.NoError(t, err)
		require.NotNil(t, system)
		assert.Equal(t, "testSys", system.Name())
		assert.False(t, system.Running())
		assert.Zero(t, system.Uptime())
	})
	t.Run("New instance with Missing Name", func(t *testing.T) {
		system, err := NewActorSystem("")
		require.Error(t, err)
		assert.Nil(t, system)
		assert.ErrorIs(t, err, gerrors.ErrNameRequired)
	})
	t.Run("With invalid actor system Name", func(t *testing.T) {
		system, err := NewActorSystem("$omeN@me")
		require.Error(t, err)
		assert.Nil(t, system)
		assert.ErrorIs(t, err, gerrors.ErrInvalidActorSystemName)
	})
	t.Run("With invalid cluster config", func(t *testing.T) {
		system, err := NewActorSystem("testSys", WithCluster(NewClusterConfig()))
		require.Error(t, err)
		assert.Nil(t, system)
	})
	t.Run("With Start and Stop", func(t *testing.T) {
		defer goleak.VerifyNone(t)
		ctx := context.Background()
		system, err := NewActorSystem("testSys",
			WithLogger(log.DiscardLogger),
			WithWorkers(4),
			WithThroughput(8),
			WithMeterProvider(noop.NewMeterProvider()))
		require.NoError(t, err)

		require.NoError(t, system.Start(ctx))
		assert.True(t, system.Running())
		assert.ErrorIs(t, system.Start(ctx), gerrors.ErrActorSystemAlreadyStarted)
		assert.NotNil(t, system.Receptionist())
		assert.Empty(t, system.Actors())

		require.NoError(t, system.Stop(ctx))
		assert.False(t, system.Running())
		assert.ErrorIs(t, system.Stop(ctx), gerrors.ErrActorSystemNotStarted)
	})
	t.Run("With Spawn when not started", func(t *testing.T) {
		system, err := NewActorSystem("testSys", WithLogger(log.DiscardLogger))
		require.NoError(t, err)
		pid, err := system.Spawn(context.Background(), "test", testBehavior(nil))
		require.Error(t, err)
		assert.ErrorIs(t, err, gerrors.ErrActorSystemNotStarted)
		assert.Nil(t, pid)
		assert.ErrorIs(t, system.Tell(context.Background(), nil, "hello"), gerrors.ErrActorSystemNotStarted)
	})
	t.Run("With Spawn", func(t *testing.T) {
		ctx := context.Background()
		system := newTestSystem(t)
		messages := make(chan any, 10)

		pid, err := system.Spawn(ctx, "test", testBehavior(messages))
		require.NoError(t, err)
		require.NotNil(t, pid)
		assert.True(t, pid.IsLocal())
		assert.True(t, pid.IsRunning())
		assert.Equal(t, "test", pid.Name())

		found, err := system.LocalActor("test")
		require.NoError(t, err)
		assert.True(t, pid.Equals(found))
		assert.Len(t, system.Actors(), 1)

		require.NoError(t, system.Tell(ctx, pid, "hello"))
		assert.Equal(t, "hello", receive(t, messages))

		require.NoError(t, system.Stop(ctx))
	})
	t.Run("With Spawn with an existing name", func(t *testing.T) {
		ctx := context.Background()
		system := newTestSystem(t)

		_, err := system.Spawn(ctx, "test", testBehavior(nil))
		require.NoError(t, err)
		_, err = system.Spawn(ctx, "test", testBehavior(nil))
		require.Error(t, err)
		assert.ErrorIs(t, err, gerrors.ErrActorAlreadyExists)

		require.NoError(t, system.Stop(ctx))
	})
	t.Run("With Spawn with invalid inputs", func(t *testing.T) {
		ctx := context.Background()
		system := newTestSystem(t)

		_, err := system.Spawn(ctx, "GoAktCustom", testBehavior(nil))
		assert.ErrorIs(t, err, gerrors.ErrReservedName)

		_, err = system.Spawn(ctx, "$invalid", testBehavior(nil))
		assert.ErrorIs(t, err, gerrors.ErrInvalidActorName)

		_, err = system.Spawn(ctx, "test", nil)
		assert.ErrorIs(t, err, gerrors.ErrUndefinedBehavior)

		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		_, err = system.Spawn(cancelled, "test", testBehavior(nil))
		assert.ErrorIs(t, err, context.Canceled)

		require.NoError(t, system.Stop(ctx))
	})
	t.Run("With SpawnAnonymous", func(t *testing.T) {
		ctx := context.Background()
		system := newTestSystem(t)
		messages := make(chan any, 1)

		pid, err := system.SpawnAnonymous(ctx, testBehavior(messages))
		require.NoError(t, err)
		other, err := system.SpawnAnonymous(ctx, testBehavior(messages))
		require.NoError(t, err)
		assert.NotEqual(t, pid.Name(), other.Name())

		require.NoError(t, system.Stop(ctx))
	})
	t.Run("With Tell to an undefined actor", func(t *testing.T) {
		ctx := context.Background()
		system := newTestSystem(t)

		assert.ErrorIs(t, system.Tell(ctx, nil, "hello"), gerrors.ErrUndefinedActor)

		pid, err := system.Spawn(ctx, "test", testBehavior(nil))
		require.NoError(t, err)
		assert.ErrorIs(t, system.Tell(ctx, pid, nil), gerrors.ErrInvalidMessage)

		require.NoError(t, system.Stop(ctx))
	})
	t.Run("With FIFO per sender and receiver pair", func(t *testing.T) {
		ctx := context.Background()
		system := newTestSystem(t, WithWorkers(8), WithThroughput(4))

		const (
			producers = 8
			count     = 500
		)

		messages := make(chan any, producers*count)
		receiver, err := system.Spawn(ctx, "receiver", testBehavior(messages))
		require.NoError(t, err)

		type start struct{}
		for i := range producers {
			name := fmt.Sprintf("producer-%d", i)
			producer, err := system.Spawn(ctx, name, BehaviorFunc(func(ctx *Context, message any) Behavior {
				if _, ok := message.(*start); ok {
					for seq := range count {
						ctx.Tell(receiver, &testPing{Seq: seq, Sender: name})
					}
				}
				return Same()
			}))
			require.NoError(t, err)
			require.NoError(t, system.Tell(ctx, producer, &start{}))
		}

		next := make(map[string]int)
		for range producers * count {
			ping := receive(t, messages).(*testPing)
			require.Equal(t, next[ping.Sender], ping.Seq, "out of order message from %s", ping.Sender)
			next[ping.Sender]++
		}

		require.NoError(t, system.Stop(ctx))
	})
	t.Run("With FIFO from many goroutines", func(t *testing.T) {
		ctx := context.Background()
		system := newTestSystem(t)

		const (
			senders = 4
			count   = 1000
		)

		messages := make(chan any, senders*count)
		receiver, err := system.Spawn(ctx, "receiver", testBehavior(messages))
		require.NoError(t, err)

		var wg sync.WaitGroup
		for i := range senders {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for seq := range count {
					_ = system.Tell(ctx, receiver, &testPing{Seq: seq, Sender: fmt.Sprint(i)})
				}
			}()
		}
		wg.Wait()

		next := make(map[string]int)
		for range senders * count {
			ping := receive(t, messages).(*testPing)
			require.Equal(t, next[ping.Sender], ping.Seq)
			next[ping.Sender]++
		}
		require.Eventually(t, func() bool { return receiver.ProcessedCount() == senders*count }, receiveTimeout, 10*time.Millisecond)

		require.NoError(t, system.Stop(ctx))
	})
	t.Run("With StopActor", func(t *testing.T) {
		ctx := context.Background()
		system := newTestSystem(t)
		messages := make(chan any, 10)

		pid, err := system.Spawn(ctx, "test", recorder(messages))
		require.NoError(t, err)

		require.NoError(t, system.Tell(ctx, pid, "before"))
		require.NoError(t, system.StopActor(ctx, pid))

		assert.Equal(t, "before", receive(t, messages))
		assert.IsType(t, new(PostStop), receive(t, messages))

		require.Eventually(t, func() bool { return !pid.IsRunning() }, receiveTimeout, 10*time.Millisecond)
		_, err = system.LocalActor("test")
		assert.ErrorIs(t, err, gerrors.ErrActorNotFound)
		assert.ErrorIs(t, system.StopActor(ctx, pid), gerrors.ErrDead)

		require.NoError(t, system.Stop(ctx))
	})
	t.Run("With Stop stopping every actor", func(t *testing.T) {
		ctx := context.Background()
		system := newTestSystem(t)
		messages := make(chan any, 10)

		pid, err := system.Spawn(ctx, "test", recorder(messages))
		require.NoError(t, err)

		require.NoError(t, system.Stop(ctx))
		assert.IsType(t, new(PostStop), receive(t, messages))
		assert.False(t, pid.IsRunning())
	})
	t.Run("With dead letters", func(t *testing.T) {
		ctx := context.Background()
		system := newTestSystem(t)

		subscriber, err := system.Subscribe()
		require.NoError(t, err)

		pid, err := system.Spawn(ctx, "test", testBehavior(nil))
		require.NoError(t, err)
		require.NoError(t, system.StopActor(ctx, pid))
		require.Eventually(t, func() bool { return !pid.IsRunning() }, receiveTimeout, 10*time.Millisecond)

		// a stale reference never fails the sender
		require.NoError(t, system.Tell(ctx, pid, "hello"))
		require.Eventually(t, func() bool { return system.DeadlettersCount() == 1 }, receiveTimeout, 10*time.Millisecond)

		letter := nextEvent[*Deadletter](t, subscriber)
		assert.Equal(t, "hello", letter.Message())
		assert.True(t, pid.Equals(letter.Receiver()))
		assert.Nil(t, letter.Sender())
		assert.NotEmpty(t, letter.Reason())

		require.NoError(t, system.Unsubscribe(subscriber))
		require.NoError(t, system.Stop(ctx))
	})
	t.Run("With a stale reference to a respawned actor", func(t *testing.T) {
		ctx := context.Background()
		system := newTestSystem(t)
		messages := make(chan any, 10)

		pid, err := system.Spawn(ctx, "test", testBehavior(messages))
		require.NoError(t, err)
		require.NoError(t, system.Tell(ctx, pid, &testStop{}))
		require.Eventually(t, func() bool { return !pid.IsRunning() }, receiveTimeout, 10*time.Millisecond)

		successor, err := system.Spawn(ctx, "test", testBehavior(messages))
		require.NoError(t, err)
		assert.False(t, pid.Equals(successor))

		require.NoError(t, system.Tell(ctx, pid, "stale"))
		require.NoError(t, system.Tell(ctx, successor, "fresh"))
		assert.Equal(t, "fresh", receive(t, messages))
		require.Eventually(t, func() bool { return system.DeadlettersCount() == 1 }, receiveTimeout, 10*time.Millisecond)

		require.NoError(t, system.Stop(ctx))
	})
	t.Run("With a full bounded mailbox", func(t *testing.T) {
		ctx := context.Background()
		system := newTestSystem(t)

		started := make(chan struct{})
		release := make(chan struct{})
		var once sync.Once
		pid, err := system.Spawn(ctx, "test", BehaviorFunc(func(*Context, any) Behavior {
			once.Do(func() {
				close(started)
				<-release
			})
			return Same()
		}), WithMailbox(NewBoundedMailbox(2)))
		require.NoError(t, err)

		require.NoError(t, system.Tell(ctx, pid, 1))
		<-started

		require.NoError(t, system.Tell(ctx, pid, 2))
		require.NoError(t, system.Tell(ctx, pid, 3))
		err = system.Tell(ctx, pid, 4)
		require.Error(t, err)
		assert.ErrorIs(t, err, gerrors.ErrMailboxFull)
		assert.EqualValues(t, 1, system.DeadlettersCount())

		close(release)
		require.NoError(t, system.Stop(ctx))
	})
	t.Run("With Metric", func(t *testing.T) {
		ctx := context.Background()
		system := newTestSystem(t, WithMeterProvider(noop.NewMeterProvider()))
		messages := make(chan any, 10)

		pid, err := system.Spawn(ctx, "test", testBehavior(messages))
		require.NoError(t, err)
		require.NoError(t, system.Tell(ctx, pid, "hello"))
		require.NoError(t, system.Tell(ctx, pid, 3.14))
		receive(t, messages)

		require.Eventually(t, func() bool { return system.UnhandledCount() == 1 }, receiveTimeout, 10*time.Millisecond)
		snapshot := system.Metric(ctx)
		require.NotNil(t, snapshot)
		assert.EqualValues(t, 2, snapshot.ActorsCount())
		assert.EqualValues(t, 1, snapshot.UnhandledCount())
		assert.GreaterOrEqual(t, snapshot.ProcessedCount(), int64(2))
		assert.Zero(t, snapshot.DeadlettersCount())

		require.NoError(t, system.Stop(ctx))
		assert.Nil(t, system.Metric(ctx))
	})
	t.Run("With cluster operations when cluster is disabled", func(t *testing.T) {
		ctx := context.Background()
		system := newTestSystem(t)

		assert.ErrorIs(t, system.Join(ctx), gerrors.ErrClusterDisabled)
		assert.ErrorIs(t, system.Leave(ctx), gerrors.ErrClusterDisabled)
		_, err := system.Members()
		assert.ErrorIs(t, err, gerrors.ErrClusterDisabled)

		require.NoError(t, system.Stop(ctx))
	})
	t.Run("With restart", func(t *testing.T) {
		ctx := context.Background()
		system := newTestSystem(t)
		require.NoError(t, system.Stop(ctx))
		require.NoError(t, system.Start(ctx))

		messages := make(chan any, 1)
		pid, err := system.Spawn(ctx, "test", testBehavior(messages))
		require.NoError(t, err)
		require.NoError(t, system.Tell(ctx, pid, "hello"))
		assert.Equal(t, "hello", receive(t, messages))
		require.NoError(t, system.Stop(ctx))
	})
}

// nextEvent returns the next event of type T published on the stream
func nextEvent[T any](t *testing.T, subscriber eventstream.Subscriber) T {
	t.Helper()
	deadline := time.Now().Add(receiveTimeout)
	for time.Now().Before(deadline) {
		for message := range subscriber.Iterator() {
			if event, ok := message.Payload().(T); ok {
				return event
			}
		}
		pause(10 * time.Millisecond)
	}
	var zero T
	t.Fatal(errors.New("timed out waiting for an event"))
	return zero
}
