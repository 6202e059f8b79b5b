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
	"fmt"
	"testing"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/server"
	"github.com/stretchr/testify/require"
	"github.com/travisjeffery/go-dynaport"
	"go.uber.org/atomic"
	"go.uber.org/multierr"

	"github.com/tochemey/typedakt/actor"
	"github.com/tochemey/typedakt/discovery/nats"
	"github.com/tochemey/typedakt/internal/xsync"
	"github.com/tochemey/typedakt/log"
)

// MultiNodes runs a local cluster whose nodes discover each other through
// an embedded NATS server
type MultiNodes struct {
	gt           *testing.T
	logger       log.Logger
	nodes        *xsync.Map[string, *TestNode]
	serializable []any
	started      *atomic.Bool
	server       *natsserver.Server
	host         string
}

// NewMultiNodes creates a MultiNodes. The given values register the
// message types exchanged between the nodes
func NewMultiNodes(t *testing.T, logger log.Logger, serializable ...any) *MultiNodes {
	return &MultiNodes{
		gt:           t,
		logger:       logger,
		nodes:        xsync.NewMap[string, *TestNode](),
		serializable: serializable,
		started:      atomic.NewBool(false),
	}
}

// Start starts the embedded NATS server. It must be called before StartNode
func (m *MultiNodes) Start() {
	if m.started.Load() {
		return
	}

	host := "127.0.0.1"
	serv, err := natsserver.NewServer(&natsserver.Options{
		Host:  host,
		Port:  -1,
		NoLog: true,
	})
	require.NoError(m.gt, err)

	ready := make(chan bool)
	go func() {
		ready <- true
		serv.Start()
	}()
	<-ready

	if !serv.ReadyForConnections(2 * time.Second) {
		m.gt.Fatalf("nats-io server failed to start")
	}

	m.server = serv
	m.host = host
	m.started.Store(true)
}

// Stop stops every node then the NATS server
func (m *MultiNodes) Stop() {
	if !m.started.Load() {
		return
	}

	ctx := context.Background()
	var err error
	for _, node := range m.nodes.Values() {
		if node.actorSystem.Running() {
			err = multierr.Append(err, node.actorSystem.Stop(ctx))
		}
	}

	if m.server != nil {
		m.server.Shutdown()
	}

	m.started.Store(false)
	m.nodes.Reset()
	require.NoError(m.gt, err)
}

// StartNode starts a node and joins it to the cluster
func (m *MultiNodes) StartNode(ctx context.Context, name string) *TestNode {
	require.True(m.gt, m.started.Load(), "multi-nodes must be started before starting a node")

	gossipPort := dynaport.Get(1)[0]
	provider := nats.NewDiscovery(&nats.Config{
		NatsServer:  fmt.Sprintf("nats://%s", m.server.Addr().String()),
		NatsSubject: "testSubject",
		Host:        m.host,
		GossipPort:  gossipPort,
		Timeout:     500 * time.Millisecond,
	}, nats.WithLogger(m.logger))

	config := actor.NewClusterConfig().
		WithHost(m.host).
		WithGossipPort(gossipPort).
		WithDiscovery(provider).
		WithJoinTimeout(5 * time.Second).
		WithJoinRetryInterval(100 * time.Millisecond).
		WithShutdownTimeout(time.Second).
		WithGossipInterval(100 * time.Millisecond).
		WithProbeInterval(200 * time.Millisecond).
		WithPushPullInterval(time.Second).
		WithSerializableTypes(m.serializable...)

	actorSystem, err := actor.NewActorSystem("testSystem",
		actor.WithLogger(m.logger),
		actor.WithCluster(config))
	require.NoError(m.gt, err)
	require.NoError(m.gt, actorSystem.Start(ctx))
	require.NoError(m.gt, actorSystem.Join(ctx))

	node := &TestNode{
		actorSystem: actorSystem,
		nodeName:    name,
		testingT:    m.gt,
	}

	m.nodes.Set(name, node)
	return node
}

// StopNode stops the named node
func (m *MultiNodes) StopNode(ctx context.Context, name string) {
	node, ok := m.nodes.Get(name)
	require.True(m.gt, ok, "node %s not found", name)
	require.NoError(m.gt, node.actorSystem.Stop(ctx))
	m.nodes.Delete(name)
}
