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
	"testing"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/server"
	"github.com/stretchr/testify/require"
	"github.com/travisjeffery/go-dynaport"

	"github.com/tochemey/typedakt/discovery/nats"
	"github.com/tochemey/typedakt/log"
)

const (
	receiveTimeout = 5 * time.Second
	clusterTimeout = 10 * time.Second
)

// testPing is exchanged between nodes in the cluster tests
type testPing struct {
	Seq    int
	Sender string
}

type testPanic struct{}

type testFail struct{}

type testStop struct{}

func pause(duration time.Duration) {
	time.Sleep(duration)
}

// recorder forwards every message, PostStop included, to the channel
func recorder(messages chan<- any) Behavior {
	return BehaviorFunc(func(_ *Context, message any) Behavior {
		messages <- message
		return Same()
	})
}

// testBehavior is the default behavior of the test actors
func testBehavior(messages chan<- any) Behavior {
	return BehaviorFunc(func(_ *Context, message any) Behavior {
		switch message.(type) {
		case *testPanic:
			panic("boom")
		case *testFail:
			return Failed(context.Canceled)
		case *testStop:
			return Stopped()
		case *PostStop:
			return Same()
		case *testPing, string, int:
			messages <- message
			return Same()
		default:
			return Unhandled()
		}
	})
}

func receive(t *testing.T, messages <-chan any) any {
	t.Helper()
	select {
	case message := <-messages:
		return message
	case <-time.After(receiveTimeout):
		t.Fatal("timed out waiting for a message")
		return nil
	}
}

func newTestSystem(t *testing.T, opts ...Option) ActorSystem {
	t.Helper()
	opts = append([]Option{WithLogger(log.DiscardLogger)}, opts...)
	system, err := NewActorSystem("testSys", opts...)
	require.NoError(t, err)
	require.NoError(t, system.Start(context.Background()))
	return system
}

func startNatsServer(t *testing.T) *natsserver.Server {
	t.Helper()
	serv, err := natsserver.NewServer(&natsserver.Options{
		Host: "127.0.0.1",
		Port: -1,
	})

	require.NoError(t, err)

	ready := make(chan bool)
	go func() {
		ready <- true
		serv.Start()
	}()
	<-ready

	if !serv.ReadyForConnections(2 * time.Second) {
		t.Fatalf("nats-io server failed to start")
	}

	return serv
}

func testClusterConfig(gossipPort int) *ClusterConfig {
	return NewClusterConfig().
		WithHost("127.0.0.1").
		WithGossipPort(gossipPort).
		WithJoinTimeout(5*time.Second).
		WithJoinRetryInterval(100*time.Millisecond).
		WithShutdownTimeout(time.Second).
		WithGossipInterval(100*time.Millisecond).
		WithProbeInterval(200*time.Millisecond).
		WithPushPullInterval(time.Second).
		WithSerializableTypes(new(testPing))
}

// startNode starts a clustered actor system joined through the given seeds
func startNode(t *testing.T, seeds ...string) (ActorSystem, string) {
	t.Helper()
	gossipPort := dynaport.Get(1)[0]
	system, err := NewActorSystem("testCluster",
		WithLogger(log.DiscardLogger),
		WithCluster(testClusterConfig(gossipPort)))
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, system.Start(ctx))
	require.NoError(t, system.Join(ctx, seeds...))
	return system, system.(*actorSystem).hostPort
}

// startNatsNode starts a clustered actor system discovering its peers
// through the NATS server
func startNatsNode(t *testing.T, serverAddr string) ActorSystem {
	t.Helper()
	gossipPort := dynaport.Get(1)[0]
	provider := nats.NewDiscovery(&nats.Config{
		NatsServer:  "nats://" + serverAddr,
		NatsSubject: "testCluster",
		Host:        "127.0.0.1",
		GossipPort:  gossipPort,
		Timeout:     500 * time.Millisecond,
	}, nats.WithLogger(log.DiscardLogger))

	system, err := NewActorSystem("testCluster",
		WithLogger(log.DiscardLogger),
		WithCluster(testClusterConfig(gossipPort).WithDiscovery(provider)))
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, system.Start(ctx))
	require.NoError(t, system.Join(ctx))
	return system
}
