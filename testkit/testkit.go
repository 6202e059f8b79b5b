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

// Package testkit helps testing behaviors: it runs a throwaway actor
// system, records messages with probes and starts local clusters.
package testkit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tochemey/typedakt/actor"
	"github.com/tochemey/typedakt/eventstream"
	"github.com/tochemey/typedakt/log"
)

// TestKit defines actor test kit
type TestKit struct {
	actorSystem actor.ActorSystem
	kt          *testing.T
	logger      log.Logger
	options     []actor.Option
}

// New creates an instance of TestKit
func New(ctx context.Context, t *testing.T, opts ...Option) *TestKit {
	testkit := &TestKit{
		kt:     t,
		logger: log.DiscardLogger,
	}

	for _, opt := range opts {
		opt.Apply(testkit)
	}

	options := append([]actor.Option{actor.WithLogger(testkit.logger)}, testkit.options...)
	system, err := actor.NewActorSystem("testkit", options...)
	if err != nil {
		t.Fatal(err.Error())
	}

	if err := system.Start(ctx); err != nil {
		t.Fatal(err.Error())
	}

	testkit.actorSystem = system
	return testkit
}

// ActorSystem returns the testkit actor system
func (k *TestKit) ActorSystem() actor.ActorSystem {
	return k.actorSystem
}

// Spawn creates an actor
func (k *TestKit) Spawn(ctx context.Context, name string, behavior actor.Behavior, opts ...actor.SpawnOption) *actor.PID {
	pid, err := k.actorSystem.Spawn(ctx, name, behavior, opts...)
	if err != nil {
		k.kt.Fatal(err.Error())
	}
	return pid
}

// NewProbe create a test probe
func (k *TestKit) NewProbe(ctx context.Context) Probe {
	testProbe, err := newProbe(ctx, k.actorSystem, k.kt)
	if err != nil {
		k.kt.Fatal(err.Error())
	}
	return testProbe
}

// Subscribe creates an event subscriber removed at the end of the test
func (k *TestKit) Subscribe() eventstream.Subscriber {
	subscriber, err := k.actorSystem.Subscribe()
	require.NoError(k.kt, err)
	k.kt.Cleanup(func() {
		_ = k.actorSystem.Unsubscribe(subscriber)
	})
	return subscriber
}

// Kill stops the named actor
func (k *TestKit) Kill(ctx context.Context, name string) {
	pid, err := k.actorSystem.LocalActor(name)
	require.NoError(k.kt, err)
	require.NoError(k.kt, k.actorSystem.StopActor(ctx, pid))
}

// Shutdown stops the test kit
func (k *TestKit) Shutdown(ctx context.Context) {
	if err := k.actorSystem.Stop(ctx); err != nil {
		k.kt.Fatal(err.Error())
	}
}
