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

package redis

import (
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/travisjeffery/go-dynaport"

	"github.com/tochemey/typedakt/discovery"
	"github.com/tochemey/typedakt/log"
)

func TestDiscovery(t *testing.T) {
	t.Run("With a new instance", func(t *testing.T) {
		provider := NewDiscovery(nil)
		require.NotNil(t, provider)
		var p any = provider
		_, ok := p.(discovery.Provider)
		assert.True(t, ok)
		assert.Equal(t, "redis", provider.ID())
	})
	t.Run("With invalid configuration", func(t *testing.T) {
		provider := NewDiscovery(&Config{
			ActorSystemName: "AccountsSystem",
			Address:         "not-an-address",
			Host:            "127.0.0.1",
			GossipPort:      3322,
		})
		assert.ErrorIs(t, provider.Initialize(), discovery.ErrInvalidConfig)
	})
	t.Run("With Sanitize defaults", func(t *testing.T) {
		config := new(Config)
		config.Sanitize()
		assert.NotNil(t, config.Context)
		assert.Equal(t, 5*time.Second, config.Timeout)
		assert.Equal(t, 30*time.Second, config.TTL)
	})
	t.Run("With operations before Initialize", func(t *testing.T) {
		provider := NewDiscovery(&Config{})
		assert.ErrorIs(t, provider.Register(), discovery.ErrNotInitialized)
		assert.ErrorIs(t, provider.Deregister(), discovery.ErrNotInitialized)
		_, err := provider.DiscoverPeers()
		assert.ErrorIs(t, err, discovery.ErrNotInitialized)
		assert.NoError(t, provider.Close())
	})
	t.Run("With DiscoverPeers", func(t *testing.T) {
		endpoint := startRedisServer(t)

		provider1, addr1 := newPeer(t, endpoint)
		provider2, addr2 := newPeer(t, endpoint)

		assert.ErrorIs(t, provider1.Register(), discovery.ErrAlreadyRegistered)

		peers, err := provider1.DiscoverPeers()
		require.NoError(t, err)
		assert.Equal(t, []string{addr2}, peers)

		peers, err = provider2.DiscoverPeers()
		require.NoError(t, err)
		assert.Equal(t, []string{addr1}, peers)

		// the keep alive outlives the time-to-live
		time.Sleep(2500 * time.Millisecond)
		peers, err = provider1.DiscoverPeers()
		require.NoError(t, err)
		assert.Equal(t, []string{addr2}, peers)

		require.NoError(t, provider2.Deregister())
		assert.ErrorIs(t, provider2.Deregister(), discovery.ErrNotRegistered)

		peers, err = provider1.DiscoverPeers()
		require.NoError(t, err)
		assert.Empty(t, peers)

		require.NoError(t, provider1.Close())
		require.NoError(t, provider2.Close())
	})
}

func startRedisServer(t *testing.T) string {
	t.Helper()
	testcontainers.SkipIfProviderIsNotHealthy(t)

	container, err := testcontainers.GenericContainer(t.Context(), testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForListeningPort("6379/tcp"),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, testcontainers.TerminateContainer(container))
	})

	endpoint, err := container.Endpoint(t.Context(), "")
	require.NoError(t, err)
	return endpoint
}

func newPeer(t *testing.T, endpoint string) (*Discovery, string) {
	t.Helper()
	gossipPort := dynaport.Get(1)[0]
	provider := NewDiscovery(&Config{
		Context:         t.Context(),
		Address:         endpoint,
		ActorSystemName: "AccountsSystem",
		Host:            "127.0.0.1",
		GossipPort:      gossipPort,
		TTL:             2 * time.Second,
		Timeout:         5 * time.Second,
	}, WithLogger(log.DiscardLogger))

	require.NoError(t, provider.Initialize())
	require.NoError(t, provider.Register())
	return provider, net.JoinHostPort("127.0.0.1", strconv.Itoa(gossipPort))
}
