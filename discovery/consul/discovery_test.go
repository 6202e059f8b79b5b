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

package consul

import (
	"context"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/hashicorp/consul/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/consul"
	"github.com/travisjeffery/go-dynaport"

	"github.com/tochemey/typedakt/discovery"
)

const actorSystemName = "AccountsSystem"

func TestPeerAddress(t *testing.T) {
	t.Run("With advertised gossip address", func(t *testing.T) {
		address, ok := peerAddress(&api.ServiceEntry{Service: &api.AgentService{
			Address: "10.0.0.1",
			Port:    3322,
			Meta:    map[string]string{gossipMeta: "10.0.0.2:3322"},
		}})
		require.True(t, ok)
		assert.Equal(t, "10.0.0.2:3322", address)
	})
	t.Run("With node address fallback", func(t *testing.T) {
		address, ok := peerAddress(&api.ServiceEntry{
			Node:    &api.Node{Address: "10.0.0.3"},
			Service: &api.AgentService{Port: 3322},
		})
		require.True(t, ok)
		assert.Equal(t, "10.0.0.3:3322", address)
	})
	t.Run("With incomplete entries", func(t *testing.T) {
		for _, entry := range []*api.ServiceEntry{
			nil,
			{},
			{Service: &api.AgentService{Address: "10.0.0.1"}},
			{Service: &api.AgentService{Port: 3322}},
		} {
			_, ok := peerAddress(entry)
			assert.False(t, ok)
		}
	})
}

func TestDiscovery(t *testing.T) {
	t.Run("With a new instance", func(t *testing.T) {
		provider := NewDiscovery(nil)
		require.NotNil(t, provider)
		var p any = provider
		_, ok := p.(discovery.Provider)
		assert.True(t, ok)
		assert.Equal(t, "consul", provider.ID())
	})
	t.Run("With invalid configuration", func(t *testing.T) {
		provider := NewDiscovery(&Config{Address: "127.0.0.1:8500", Host: "127.0.0.1", GossipPort: 3322})
		assert.ErrorIs(t, provider.Initialize(), discovery.ErrInvalidConfig)
	})
	t.Run("With operations before Initialize", func(t *testing.T) {
		provider := NewDiscovery(&Config{})
		assert.ErrorIs(t, provider.Register(), discovery.ErrNotInitialized)
		assert.ErrorIs(t, provider.Deregister(), discovery.ErrNotInitialized)
		_, err := provider.DiscoverPeers()
		assert.ErrorIs(t, err, discovery.ErrNotInitialized)
		assert.NoError(t, provider.Close())
	})
	t.Run("With Sanitize defaults", func(t *testing.T) {
		config := &Config{HealthCheck: new(HealthCheck)}
		config.Sanitize()
		assert.NotNil(t, config.Context)
		assert.Equal(t, 10*time.Second, config.Timeout)
		assert.Equal(t, 10*time.Second, config.HealthCheck.Interval)
		assert.Equal(t, 3*time.Second, config.HealthCheck.Timeout)
	})
	t.Run("With DiscoverPeers", func(t *testing.T) {
		endpoint := startConsulAgent(t)

		provider1, _ := newPeer(t, endpoint)
		provider2, addr2 := newPeer(t, endpoint)

		assert.ErrorIs(t, provider1.Initialize(), discovery.ErrAlreadyInitialized)
		assert.ErrorIs(t, provider1.Register(), discovery.ErrAlreadyRegistered)

		require.Eventually(t, func() bool {
			peers, err := provider1.DiscoverPeers()
			return err == nil && len(peers) == 1 && peers[0] == addr2
		}, 10*time.Second, 100*time.Millisecond)

		require.NoError(t, provider2.Deregister())
		assert.ErrorIs(t, provider2.Deregister(), discovery.ErrNotRegistered)

		require.Eventually(t, func() bool {
			peers, err := provider1.DiscoverPeers()
			return err == nil && len(peers) == 0
		}, 10*time.Second, 100*time.Millisecond)

		require.NoError(t, provider1.Deregister())
		require.NoError(t, provider1.Close())
		require.NoError(t, provider2.Close())
	})
}

func newPeer(t *testing.T, endpoint string) (*Discovery, string) {
	t.Helper()
	gossipPort := dynaport.Get(1)[0]
	provider := NewDiscovery(&Config{
		Context:         t.Context(),
		Address:         endpoint,
		Timeout:         5 * time.Second,
		ActorSystemName: actorSystemName,
		Host:            "127.0.0.1",
		GossipPort:      gossipPort,
	})

	require.NoError(t, provider.Initialize())
	require.NoError(t, provider.Register())
	return provider, net.JoinHostPort("127.0.0.1", strconv.Itoa(gossipPort))
}

func startConsulAgent(t *testing.T) string {
	t.Helper()
	testcontainers.SkipIfProviderIsNotHealthy(t)

	container, err := consul.Run(t.Context(), "hashicorp/consul:1.15")
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, container.Terminate(context.Background()))
	})

	endpoint, err := container.ApiEndpoint(t.Context())
	require.NoError(t, err)
	return endpoint
}
