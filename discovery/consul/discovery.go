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

// Package consul provides a discovery provider registering the nodes as
// consul services named after the actor system.
package consul

import (
	"context"
	"errors"
	"fmt"
	"net"
	"slices"
	"strconv"
	"sync"

	goset "github.com/deckarep/golang-set/v2"
	"github.com/hashicorp/consul/api"
	"go.uber.org/atomic"

	"github.com/tochemey/typedakt/discovery"
)

// gossipMeta is the service metadata key holding the gossip address
const gossipMeta = "gossip-address"

// Discovery finds the nodes of an actor system among the consul services
type Discovery struct {
	config      *Config
	initialized *atomic.Bool
	registered  *atomic.Bool
	mu          sync.RWMutex

	client    *api.Client
	serviceID string
}

var _ discovery.Provider = (*Discovery)(nil)

// NewDiscovery creates a consul provider. A nil config fails on Initialize.
func NewDiscovery(config *Config) *Discovery {
	if config == nil {
		config = new(Config)
	}

	return &Discovery{
		config:      config,
		initialized: atomic.NewBool(false),
		registered:  atomic.NewBool(false),
		serviceID:   net.JoinHostPort(config.Host, strconv.Itoa(config.GossipPort)),
	}
}

// ID returns the discovery provider id
func (x *Discovery) ID() string {
	return "consul"
}

// Initialize creates the consul client and checks a leader is elected
func (x *Discovery) Initialize() error {
	x.mu.Lock()
	defer x.mu.Unlock()

	if x.initialized.Load() {
		return discovery.ErrAlreadyInitialized
	}

	x.config.Sanitize()
	if err := x.config.Validate(); err != nil {
		return errors.Join(discovery.ErrInvalidConfig, err)
	}

	settings := api.DefaultConfig()
	settings.Address = x.config.Address
	settings.Datacenter = x.config.Datacenter
	settings.Token = x.config.Token

	client, err := api.NewClient(settings)
	if err != nil {
		return fmt.Errorf("failed to create consul client: %w", err)
	}

	leader, err := client.Status().LeaderWithQueryOptions(x.queryOptions())
	if err != nil {
		return fmt.Errorf("failed to reach consul at %s: %w", x.config.Address, err)
	}
	if leader == "" {
		return fmt.Errorf("consul at %s has no leader", x.config.Address)
	}

	x.client = client
	x.initialized.Store(true)
	return nil
}

// Register adds this node to the consul catalog
func (x *Discovery) Register() error {
	x.mu.Lock()
	defer x.mu.Unlock()

	if err := x.ready(); err != nil {
		return err
	}
	if x.registered.Load() {
		return discovery.ErrAlreadyRegistered
	}

	ctx, cancel := context.WithTimeout(x.config.Context, x.config.Timeout)
	defer cancel()

	if err := x.client.Agent().ServiceRegisterOpts(x.registration(), api.ServiceRegisterOpts{}.WithContext(ctx)); err != nil {
		return fmt.Errorf("failed to register %s as %s: %w", x.serviceID, x.config.ActorSystemName, err)
	}

	x.registered.Store(true)
	return nil
}

// registration describes this node as a consul service. The gossip
// address travels in the metadata so that peers never guess it from the
// catalog addresses.
func (x *Discovery) registration() *api.AgentServiceRegistration {
	service := &api.AgentServiceRegistration{
		ID:      x.serviceID,
		Name:    x.config.ActorSystemName,
		Port:    x.config.GossipPort,
		Address: x.config.Host,
		Tags:    []string{x.config.ActorSystemName},
		Meta:    map[string]string{gossipMeta: x.serviceID},
	}

	if check := x.config.HealthCheck; check != nil {
		service.Check = &api.AgentServiceCheck{
			Interval: check.Interval.String(),
			Timeout:  check.Timeout.String(),
			TCP:      x.serviceID,
		}
	}
	return service
}

// Deregister removes this node from the consul catalog
func (x *Discovery) Deregister() error {
	x.mu.Lock()
	defer x.mu.Unlock()

	if err := x.ready(); err != nil {
		return err
	}
	if !x.registered.Load() {
		return discovery.ErrNotRegistered
	}

	if err := x.client.Agent().ServiceDeregisterOpts(x.serviceID, x.queryOptions()); err != nil {
		return fmt.Errorf("failed to deregister %s: %w", x.serviceID, err)
	}

	x.registered.Store(false)
	return nil
}

// DiscoverPeers returns the sorted gossip addresses of the other nodes
// registered under the actor system name
func (x *Discovery) DiscoverPeers() ([]string, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	if err := x.ready(); err != nil {
		return nil, err
	}
	if !x.registered.Load() {
		return nil, discovery.ErrNotRegistered
	}

	entries, _, err := x.client.Health().Service(
		x.config.ActorSystemName,
		x.config.ActorSystemName,
		x.config.OnlyPassing,
		x.queryOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to list the nodes of %s: %w", x.config.ActorSystemName, err)
	}

	addresses := goset.NewThreadUnsafeSet[string]()
	for _, entry := range entries {
		if address, ok := peerAddress(entry); ok && address != x.serviceID {
			addresses.Add(address)
		}
	}

	peers := addresses.ToSlice()
	slices.Sort(peers)
	return peers, nil
}

// Close releases the consul client
func (x *Discovery) Close() error {
	x.mu.Lock()
	defer x.mu.Unlock()

	x.initialized.Store(false)
	x.registered.Store(false)
	x.client = nil
	return nil
}

func (x *Discovery) ready() error {
	if !x.initialized.Load() {
		return discovery.ErrNotInitialized
	}
	return nil
}

func (x *Discovery) queryOptions() *api.QueryOptions {
	opts := &api.QueryOptions{
		AllowStale: x.config.AllowStale,
		Datacenter: x.config.Datacenter,
	}
	return opts.WithContext(x.config.Context)
}

// peerAddress returns the gossip address of a catalog entry: the one
// advertised in the metadata, else the service or node address with the
// service port
func peerAddress(entry *api.ServiceEntry) (string, bool) {
	if entry == nil || entry.Service == nil {
		return "", false
	}
	if address := entry.Service.Meta[gossipMeta]; address != "" {
		return address, true
	}

	host := entry.Service.Address
	if host == "" && entry.Node != nil {
		host = entry.Node.Address
	}
	if host == "" || entry.Service.Port <= 0 {
		return "", false
	}
	return net.JoinHostPort(host, strconv.Itoa(entry.Service.Port)), true
}
