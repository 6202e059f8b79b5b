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

// Package mdns provides a discovery provider for nodes sharing a local
// network, advertising the gossip address over multicast DNS.
package mdns

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	goset "github.com/deckarep/golang-set/v2"
	"github.com/grandcat/zeroconf"
	"go.uber.org/atomic"

	"github.com/tochemey/typedakt/discovery"
)

// gossipRecord prefixes the TXT record carrying the gossip address
const gossipRecord = "gossip="

// Discovery defines the mDNS discovery provider
type Discovery struct {
	config *Config
	mu     sync.Mutex

	initialized *atomic.Bool
	registered  *atomic.Bool

	server  *zeroconf.Server
	address string
}

var _ discovery.Provider = (*Discovery)(nil)

// NewDiscovery returns an instance of the mDNS discovery provider
func NewDiscovery(config *Config) *Discovery {
	if config == nil {
		config = new(Config)
	}

	return &Discovery{
		config:      config,
		initialized: atomic.NewBool(false),
		registered:  atomic.NewBool(false),
		address:     net.JoinHostPort(config.Host, strconv.Itoa(config.GossipPort)),
	}
}

// ID returns the discovery provider identifier
func (d *Discovery) ID() string {
	return "mdns"
}

// Initialize validates the configuration
func (d *Discovery) Initialize() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.initialized.Load() {
		return discovery.ErrAlreadyInitialized
	}

	if err := d.config.Validate(); err != nil {
		return errors.Join(discovery.ErrInvalidConfig, err)
	}

	if d.config.BrowseTimeout <= 0 {
		d.config.BrowseTimeout = 2 * time.Second
	}

	d.initialized.Store(true)
	return nil
}

// Register advertises this node
func (d *Discovery) Register() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.initialized.Load() {
		return discovery.ErrNotInitialized
	}

	if d.registered.Load() {
		return discovery.ErrAlreadyRegistered
	}

	instance := fmt.Sprintf("%s-%d", d.config.ServiceName, d.config.GossipPort)
	server, err := zeroconf.RegisterProxy(
		instance,
		d.config.Service,
		d.config.Domain,
		d.config.GossipPort,
		instance,
		[]string{d.config.Host},
		[]string{gossipRecord + d.address},
		nil)
	if err != nil {
		return fmt.Errorf("failed to advertise %s: %w", d.address, err)
	}

	d.server = server
	d.registered.Store(true)
	return nil
}

// Deregister stops advertising this node
func (d *Discovery) Deregister() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.initialized.Load() {
		return discovery.ErrNotInitialized
	}

	if !d.registered.Load() {
		return discovery.ErrNotRegistered
	}

	d.shutdown()
	return nil
}

// DiscoverPeers browses the service for the configured timeout and
// returns the gossip addresses of the other nodes
func (d *Discovery) DiscoverPeers() ([]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.initialized.Load() {
		return nil, discovery.ErrNotInitialized
	}

	if !d.registered.Load() {
		return nil, discovery.ErrNotRegistered
	}

	var traffic zeroconf.IPType = zeroconf.IPv4
	if d.config.IPv6 {
		traffic = zeroconf.IPv4AndIPv6
	}

	resolver, err := zeroconf.NewResolver(zeroconf.SelectIPTraffic(traffic))
	if err != nil {
		return nil, fmt.Errorf("failed to create the mDNS resolver: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), d.config.BrowseTimeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry, 100)
	if err := resolver.Browse(ctx, d.config.Service, d.config.Domain, entries); err != nil {
		return nil, fmt.Errorf("failed to browse %s: %w", d.config.Service, err)
	}

	peers := goset.NewSet[string]()
	for {
		select {
		case <-ctx.Done():
			return peers.ToSlice(), nil
		case entry, ok := <-entries:
			if !ok {
				return peers.ToSlice(), nil
			}
			for _, address := range d.addresses(entry) {
				if address != d.address {
					peers.Add(address)
				}
			}
		}
	}
}

// Close stops advertising this node
func (d *Discovery) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.shutdown()
	d.initialized.Store(false)
	return nil
}

// addresses returns the gossip addresses of the entry. The TXT record is
// preferred over the resolved addresses
func (d *Discovery) addresses(entry *zeroconf.ServiceEntry) []string {
	if entry == nil || entry.Port <= 0 {
		return nil
	}

	for _, text := range entry.Text {
		if address, ok := strings.CutPrefix(text, gossipRecord); ok {
			return []string{address}
		}
	}

	port := strconv.Itoa(entry.Port)
	addresses := make([]string, 0, len(entry.AddrIPv4)+len(entry.AddrIPv6))
	for _, ip := range entry.AddrIPv4 {
		addresses = append(addresses, net.JoinHostPort(ip.String(), port))
	}

	if d.config.IPv6 {
		for _, ip := range entry.AddrIPv6 {
			addresses = append(addresses, net.JoinHostPort(ip.String(), port))
		}
	}
	return addresses
}

func (d *Discovery) shutdown() {
	if d.server != nil {
		d.server.Shutdown()
		d.server = nil
	}
	d.registered.Store(false)
}
