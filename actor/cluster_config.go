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
	"time"

	"github.com/tochemey/typedakt/discovery"
	"github.com/tochemey/typedakt/internal/validation"
	"github.com/tochemey/typedakt/remote"
)

// ClusterConfig defines the cluster mode settings
type ClusterConfig struct {
	host              string
	gossipPort        int
	seeds             []string
	discovery         discovery.Provider
	joinTimeout       time.Duration
	joinRetryInterval time.Duration
	shutdownTimeout   time.Duration
	gossipInterval    time.Duration
	probeInterval     time.Duration
	pushPullInterval  time.Duration
	reorderTimeout    time.Duration
	serializer        remote.Serializer
}

// enforce compilation error
var _ validation.Validator = (*ClusterConfig)(nil)

// NewClusterConfig creates an instance of ClusterConfig binding every
// interface. The gossip port has to be set.
func NewClusterConfig() *ClusterConfig {
	return &ClusterConfig{
		host:              "0.0.0.0",
		joinTimeout:       5 * time.Second,
		joinRetryInterval: 200 * time.Millisecond,
		shutdownTimeout:   3 * time.Second,
		pushPullInterval:  30 * time.Second,
		reorderTimeout:    time.Second,
		serializer:        remote.NewCBORSerializer(),
	}
}

// WithHost sets the address the node binds and advertises.
// 0.0.0.0 advertises the first private address of the host.
func (x *ClusterConfig) WithHost(host string) *ClusterConfig {
	x.host = host
	return x
}

// WithGossipPort sets the memberlist port
func (x *ClusterConfig) WithGossipPort(port int) *ClusterConfig {
	x.gossipPort = port
	return x
}

// WithSeeds sets the host:port gossip addresses used when joining
// without explicit seeds
func (x *ClusterConfig) WithSeeds(seeds ...string) *ClusterConfig {
	x.seeds = seeds
	return x
}

// WithDiscovery sets the provider used to register the node and to find
// seeds when none is configured
func (x *ClusterConfig) WithDiscovery(provider discovery.Provider) *ClusterConfig {
	x.discovery = provider
	return x
}

// WithJoinTimeout sets how long joining may take, retries included
func (x *ClusterConfig) WithJoinTimeout(timeout time.Duration) *ClusterConfig {
	x.joinTimeout = timeout
	return x
}

// WithJoinRetryInterval sets the delay between join attempts
func (x *ClusterConfig) WithJoinRetryInterval(interval time.Duration) *ClusterConfig {
	x.joinRetryInterval = interval
	return x
}

// WithShutdownTimeout sets how long leaving the cluster may take
func (x *ClusterConfig) WithShutdownTimeout(timeout time.Duration) *ClusterConfig {
	x.shutdownTimeout = timeout
	return x
}

// WithGossipInterval overrides the memberlist gossip interval
func (x *ClusterConfig) WithGossipInterval(interval time.Duration) *ClusterConfig {
	x.gossipInterval = interval
	return x
}

// WithProbeInterval overrides the memberlist failure detection interval
func (x *ClusterConfig) WithProbeInterval(interval time.Duration) *ClusterConfig {
	x.probeInterval = interval
	return x
}

// WithPushPullInterval sets the period of the full directory exchange
// between nodes. Zero disables it.
func (x *ClusterConfig) WithPushPullInterval(interval time.Duration) *ClusterConfig {
	x.pushPullInterval = interval
	return x
}

// WithReorderTimeout sets how long an out of order remote message waits
// for the missing ones
func (x *ClusterConfig) WithReorderTimeout(timeout time.Duration) *ClusterConfig {
	x.reorderTimeout = timeout
	return x
}

// WithSerializer sets the serializer of remote messages
func (x *ClusterConfig) WithSerializer(serializer remote.Serializer) *ClusterConfig {
	x.serializer = serializer
	return x
}

// WithSerializableTypes registers the message types exchanged between
// nodes with the default serializer
func (x *ClusterConfig) WithSerializableTypes(values ...any) *ClusterConfig {
	remote.RegisterSerializableTypes(values...)
	return x
}

// Host returns the bind host
func (x *ClusterConfig) Host() string {
	return x.host
}

// GossipPort returns the memberlist port
func (x *ClusterConfig) GossipPort() int {
	return x.gossipPort
}

// Seeds returns the configured seeds
func (x *ClusterConfig) Seeds() []string {
	return x.seeds
}

// Discovery returns the discovery provider
func (x *ClusterConfig) Discovery() discovery.Provider {
	return x.discovery
}

// Validate validates the cluster config
func (x *ClusterConfig) Validate() error {
	return validation.
		New().
		AddValidator(validation.NewEmptyStringValidator("host", x.host)).
		AddAssertion(x.gossipPort > 0 && x.gossipPort <= 65535, "gossip port is invalid").
		AddAssertion(x.joinTimeout > 0, "join timeout is invalid").
		AddAssertion(x.joinRetryInterval > 0, "join retry interval is invalid").
		AddAssertion(x.shutdownTimeout > 0, "shutdown timeout is invalid").
		AddAssertion(x.reorderTimeout > 0, "reorder timeout is invalid").
		AddAssertion(x.pushPullInterval >= 0, "push/pull interval is invalid").
		AddAssertion(x.serializer != nil, "serializer is not set").
		Validate()
}
