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

package static

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tochemey/typedakt/discovery"
)

func TestStaticProvider(t *testing.T) {
	t.Run("With new instance", func(t *testing.T) {
		provider := NewDiscovery(&Config{})
		require.NotNil(t, provider)
		var p any = provider
		_, ok := p.(discovery.Provider)
		assert.True(t, ok)
		assert.Equal(t, "static", provider.ID())
	})
	t.Run("With DiscoverPeers", func(t *testing.T) {
		hosts := []string{"127.0.0.1:3322", "127.0.0.1:3324"}
		provider := NewDiscovery(&Config{Hosts: hosts})
		require.NoError(t, provider.Initialize())
		require.NoError(t, provider.Register())

		peers, err := provider.DiscoverPeers()
		require.NoError(t, err)
		assert.Equal(t, hosts, peers)

		require.NoError(t, provider.Deregister())
		require.NoError(t, provider.Close())
	})
	t.Run("With duplicate hosts", func(t *testing.T) {
		provider := NewDiscovery(&Config{Hosts: []string{"127.0.0.1:3324", "127.0.0.1:3322", "127.0.0.1:3324"}})
		require.NoError(t, provider.Initialize())

		peers, err := provider.DiscoverPeers()
		require.NoError(t, err)
		assert.Equal(t, []string{"127.0.0.1:3324", "127.0.0.1:3322"}, peers)
	})
	t.Run("With Initialize twice", func(t *testing.T) {
		provider := NewDiscovery(&Config{Hosts: []string{"127.0.0.1:3322"}})
		require.NoError(t, provider.Initialize())
		assert.ErrorIs(t, provider.Initialize(), discovery.ErrAlreadyInitialized)
	})
	t.Run("With invalid config", func(t *testing.T) {
		provider := NewDiscovery(&Config{Hosts: []string{"127.0.0.1"}})
		assert.ErrorIs(t, provider.Initialize(), discovery.ErrInvalidConfig)

		provider = NewDiscovery(&Config{})
		assert.ErrorIs(t, provider.Initialize(), discovery.ErrInvalidConfig)

		provider = NewDiscovery(nil)
		assert.ErrorIs(t, provider.Initialize(), discovery.ErrInvalidConfig)
	})
	t.Run("Without initialization", func(t *testing.T) {
		provider := NewDiscovery(&Config{Hosts: []string{"127.0.0.1:3322"}})
		assert.ErrorIs(t, provider.Register(), discovery.ErrNotInitialized)
		assert.ErrorIs(t, provider.Deregister(), discovery.ErrNotInitialized)
		_, err := provider.DiscoverPeers()
		assert.ErrorIs(t, err, discovery.ErrNotInitialized)
	})
}
