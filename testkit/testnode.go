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

package testkit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tochemey/typedakt/actor"
	"github.com/tochemey/typedakt/eventstream"
)

// TestNode is one clustered actor system started by MultiNodes
type TestNode struct {
	actorSystem actor.ActorSystem
	nodeName    string
	testingT    *testing.T
}

// NodeName returns the name given to the node
func (x TestNode) NodeName() string {
	return x.nodeName
}

// ActorSystem returns the actor system of the node
func (x TestNode) ActorSystem() actor.ActorSystem {
	return x.actorSystem
}

// Spawn creates an actor on the node
func (x TestNode) Spawn(ctx context.Context, name string, behavior actor.Behavior, opts ...actor.SpawnOption) *actor.PID {
	pid, err := x.actorSystem.Spawn(ctx, name, behavior, opts...)
	require.NoError(x.testingT, err)
	require.NotNil(x.testingT, pid)
	return pid
}

// SpawnProbe creates a probe on the node
func (x TestNode) SpawnProbe(ctx context.Context) Probe {
	testProbe, err := newProbe(ctx, x.actorSystem, x.testingT)
	require.NoError(x.testingT, err)
	return testProbe
}

// Subscribe creates an event subscriber removed at the end of the test
func (x TestNode) Subscribe() eventstream.Subscriber {
	subscriber, err := x.actorSystem.Subscribe()
	require.NoError(x.testingT, err)
	x.testingT.Cleanup(func() {
		_ = x.actorSystem.Unsubscribe(subscriber)
	})
	return subscriber
}

// Kill stops the named actor of the node
func (x TestNode) Kill(ctx context.Context, name string) {
	pid, err := x.actorSystem.LocalActor(name)
	require.NoError(x.testingT, err)
	require.NoError(x.testingT, x.actorSystem.StopActor(ctx, pid))
}

// AwaitMembers waits until the node sees count Up members
func (x TestNode) AwaitMembers(count int, timeout time.Duration) {
	require.Eventually(x.testingT, func() bool {
		members, err := x.actorSystem.Members()
		if err != nil {
			return false
		}

		up := 0
		for _, member := range members {
			if member.Status == actor.Up {
				up++
			}
		}
		return up == count
	}, timeout, 50*time.Millisecond)
}
