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

package dnssd

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tochemey/typedakt/discovery"
)

type fakeResolver struct {
	addrs []net.IPAddr
	err   error
}

func (f fakeResolver) LookupIPAddr(context.Context, string) ([]net.IPAddr, error) {
	return f.addrs, f.err
}

func TestDiscovery(t *testing.T) {
	addrs := []net.IPAddr{
		{IP: net.ParseIP("10.0.0.1")},
		{IP: net.ParseIP("10.0.0.2")},
		{IP: net.ParseIP("fd00::3")},
	}

	t.Run("With a new instance", func(t *testing.T) {
		provider := NewDiscovery(nil)
		require.NotNil(t, provider)
		var p any = provider
		_, ok := p.(discovery.Provider)
		assert.True(t, ok)
		assert.Equal(t, "dns-sd", provider.ID())
	})
	t.Run("With invalid configuration", func(t *testing.T) {
		provider := NewDiscovery(&Config{GossipPort: 3322})
		assert.ErrorIs(t, provider.Initialize(), discovery.ErrInvalidConfig)
	})
	t.Run("With operations before Initialize", func(t *testing.T) {
		provider := NewDiscovery(&Config{DomainName: "nodes.local", GossipPort: 3322})
		assert.ErrorIs(t, provider.Register(), discovery.ErrNotInitialized)
		assert.ErrorIs(t, provider.Deregister(), discovery.ErrNotInitialized)
		_, err := provider.DiscoverPeers()
		assert.ErrorIs(t, err, discovery.ErrNotInitialized)
	})
	t.Run("With DiscoverPeers", func(t *testing.T) {
		provider := NewDiscovery(&Config{DomainName: "nodes.local", GossipPort: 3322, Host: "10.0.0.1"})
		provider.resolver = fakeResolver{addrs: addrs}

		require.NoError(t, provider.Initialize())
		assert.ErrorIs(t, provider.Initialize(), discovery.ErrAlreadyInitialized)
		require.NoError(t, provider.Register())

		peers, err := provider.DiscoverPeers()
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"10.0.0.2:3322", "[fd00::3]:3322"}, peers)

		require.NoError(t, provider.Deregister())
		require.NoError(t, provider.Close())
	})
	t.Run("With IPv6 only", func(t *testing.T) {
		provider := NewDiscovery(&Config{DomainName: "nodes.local", GossipPort: 3322, IPv6: true})
		provider.resolver = fakeResolver{addrs: addrs}
		require.NoError(t, provider.Initialize())

		peers, err := provider.DiscoverPeers()
		require.NoError(t, err)
		assert.Equal(t, []string{"[fd00::3]:3322"}, peers)
	})
	t.Run("With lookup failure", func(t *testing.T) {
		provider := NewDiscovery(&Config{DomainName: "nodes.local", GossipPort: 3322})
		provider.resolver = fakeResolver{err: errors.New("no such host")}
		require.NoError(t, provider.Initialize())

		_, err := provider.DiscoverPeers()
		assert.ErrorContains(t, err, "no such host")
	})
	t.Run("With localhost", func(t *testing.T) {
		provider := NewDiscovery(&Config{DomainName: "localhost", GossipPort: 3322, Host: "10.0.0.1"})
		require.NoError(t, provider.Initialize())

		peers, err := provider.DiscoverPeers()
		require.NoError(t, err)
		assert.Contains(t, peers, "127.0.0.1:3322")
	})
}
