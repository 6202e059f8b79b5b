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

// Package dnssd provides a discovery provider resolving the A and AAAA
// records of a DNS name, e.g. a headless service. Every resolved address
// is expected to gossip on the same port.
package dnssd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	goset "github.com/deckarep/golang-set/v2"
	"go.uber.org/atomic"

	"github.com/tochemey/typedakt/discovery"
	"github.com/tochemey/typedakt/internal/validation"
)

// Config represents the DNS provider configuration
type Config struct {
	// DomainName is the DNS name to resolve
	DomainName string
	// GossipPort is the membership port shared by the nodes
	GossipPort int
	// Host is the advertised host of this node. It is excluded from the peers
	Host string
	// IPv6 only keeps the IPv6 addresses. Both families are kept otherwise
	IPv6 bool
	// Timeout bounds a lookup. It defaults to 5s
	Timeout time.Duration
}

// Validate checks the configuration
func (c Config) Validate() error {
	return validation.New(validation.FailFast()).
		AddValidator(validation.NewEmptyStringValidator("DomainName", c.DomainName)).
		AddAssertion(c.GossipPort > 0, "GossipPort is invalid").
		Validate()
}

// resolver is satisfied by net.Resolver
type resolver interface {
	LookupIPAddr(ctx context.Context, host string) ([]net.IPAddr, error)
}

// Discovery represents the DNS service discovery
type Discovery struct {
	mu          sync.Mutex
	config      *Config
	resolver    resolver
	initialized *atomic.Bool
}

var _ discovery.Provider = (*Discovery)(nil)

// NewDiscovery returns an instance of the DNS discovery provider
func NewDiscovery(config *Config) *Discovery {
	if config == nil {
		config = new(Config)
	}

	return &Discovery{
		config:      config,
		resolver:    net.DefaultResolver,
		initialized: atomic.NewBool(false),
	}
}

// ID returns the discovery provider id
func (d *Discovery) ID() string {
	return "dns-sd"
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

	if d.config.Timeout <= 0 {
		d.config.Timeout = 5 * time.Second
	}

	d.initialized.Store(true)
	return nil
}

// Register is a no-op since the DNS records are managed elsewhere
func (d *Discovery) Register() error {
	if !d.initialized.Load() {
		return discovery.ErrNotInitialized
	}
	return nil
}

// Deregister is a no-op since the DNS records are managed elsewhere
func (d *Discovery) Deregister() error {
	if !d.initialized.Load() {
		return discovery.ErrNotInitialized
	}
	return nil
}

// DiscoverPeers resolves the DNS name
func (d *Discovery) DiscoverPeers() ([]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.initialized.Load() {
		return nil, discovery.ErrNotInitialized
	}

	ctx, cancel := context.WithTimeout(context.Background(), d.config.Timeout)
	defer cancel()

	addrs, err := d.resolver.LookupIPAddr(ctx, d.config.DomainName)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", d.config.DomainName, err)
	}

	port := strconv.Itoa(d.config.GossipPort)
	self := net.JoinHostPort(d.config.Host, port)
	peers := goset.NewSet[string]()
	for _, addr := range addrs {
		isIPv6 := addr.IP.To4() == nil
		if d.config.IPv6 && !isIPv6 {
			continue
		}

		address := net.JoinHostPort(addr.IP.String(), port)
		if address != self {
			peers.Add(address)
		}
	}
	return peers.ToSlice(), nil
}

// Close resets the provider
func (d *Discovery) Close() error {
	d.initialized.Store(false)
	return nil
}
