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

// Package redis provides a discovery provider keeping one expiring key per
// node under the actor system name.
package redis

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
	"github.com/redis/go-redis/v9"
	"go.uber.org/atomic"

	"github.com/tochemey/typedakt/discovery"
	"github.com/tochemey/typedakt/log"
)

// scanCount is the SCAN batch size hint
const scanCount = 100

// Discovery represents the redis discovery provider
type Discovery struct {
	config      *Config
	initialized *atomic.Bool
	registered  *atomic.Bool
	mu          sync.RWMutex

	client  *redis.Client
	stopped chan struct{}
	done    chan struct{}

	prefix  string
	address string
	logger  log.Logger
}

var _ discovery.Provider = (*Discovery)(nil)

// NewDiscovery creates an instance of the redis discovery provider
func NewDiscovery(config *Config, opts ...Option) *Discovery {
	if config == nil {
		config = new(Config)
	}

	d := &Discovery{
		config:      config,
		initialized: atomic.NewBool(false),
		registered:  atomic.NewBool(false),
		prefix:      config.ActorSystemName + ":nodes:",
		address:     net.JoinHostPort(config.Host, strconv.Itoa(config.GossipPort)),
		logger:      log.DefaultLogger,
	}

	for _, opt := range opts {
		opt.Apply(d)
	}
	return d
}

// ID returns the discovery provider id
func (d *Discovery) ID() string {
	return "redis"
}

// Initialize connects to the redis server
func (d *Discovery) Initialize() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.initialized.Load() {
		return discovery.ErrAlreadyInitialized
	}

	d.config.Sanitize()
	if err := d.config.Validate(); err != nil {
		return errors.Join(discovery.ErrInvalidConfig, err)
	}

	client := redis.NewClient(&redis.Options{
		Addr:         d.config.Address,
		Username:     d.config.Username,
		Password:     d.config.Password,
		DB:           d.config.DB,
		DialTimeout:  d.config.Timeout,
		ReadTimeout:  d.config.Timeout,
		WriteTimeout: d.config.Timeout,
	})

	ctx, cancel := context.WithTimeout(d.config.Context, d.config.Timeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		if cerr := client.Close(); cerr != nil {
			return errors.Join(err, fmt.Errorf("failed to close redis client: %w", cerr))
		}
		return fmt.Errorf("failed to connect to redis: %w", err)
	}

	d.client = client
	d.initialized.Store(true)
	return nil
}

// Register writes the gossip address of this node and keeps refreshing its
// expiry until Deregister
func (d *Discovery) Register() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.initialized.Load() {
		return discovery.ErrNotInitialized
	}

	if d.registered.Load() {
		return discovery.ErrAlreadyRegistered
	}

	if err := d.refresh(); err != nil {
		return fmt.Errorf("failed to register %s: %w", d.address, err)
	}

	d.stopped = make(chan struct{})
	d.done = make(chan struct{})
	go d.keepAlive(d.stopped, d.done)

	d.registered.Store(true)
	return nil
}

// DiscoverPeers returns the gossip addresses registered by the other nodes
func (d *Discovery) DiscoverPeers() ([]string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if !d.initialized.Load() {
		return nil, discovery.ErrNotInitialized
	}

	if !d.registered.Load() {
		return nil, discovery.ErrNotRegistered
	}

	ctx, cancel := context.WithTimeout(d.config.Context, d.config.Timeout)
	defer cancel()

	peers := goset.NewSet[string]()
	iter := d.client.Scan(ctx, 0, d.prefix+"*", scanCount).Iterator()
	for iter.Next(ctx) {
		address := strings.TrimPrefix(iter.Val(), d.prefix)
		if address == d.address {
			continue
		}
		peers.Add(address)
	}

	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to discover peers: %w", err)
	}
	return peers.ToSlice(), nil
}

// Deregister stops the refresh and deletes the node key
func (d *Discovery) Deregister() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.initialized.Load() {
		return discovery.ErrNotInitialized
	}

	if !d.registered.Load() {
		return discovery.ErrNotRegistered
	}

	d.stopKeepAlive()

	ctx, cancel := context.WithTimeout(d.config.Context, d.config.Timeout)
	defer cancel()

	if err := d.client.Del(ctx, d.key()).Err(); err != nil {
		return fmt.Errorf("failed to deregister %s: %w", d.address, err)
	}

	d.registered.Store(false)
	return nil
}

// Close closes the redis client
func (d *Discovery) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopKeepAlive()
	d.initialized.Store(false)
	d.registered.Store(false)

	if d.client == nil {
		return nil
	}

	client := d.client
	d.client = nil
	return client.Close()
}

func (d *Discovery) key() string {
	return d.prefix + d.address
}

func (d *Discovery) refresh() error {
	ctx, cancel := context.WithTimeout(d.config.Context, d.config.Timeout)
	defer cancel()
	return d.client.Set(ctx, d.key(), d.address, d.config.TTL).Err()
}

func (d *Discovery) keepAlive(stopped <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(d.config.TTL / 2)
	defer ticker.Stop()

	for {
		select {
		case <-stopped:
			return
		case <-ticker.C:
			if err := d.refresh(); err != nil {
				d.logger.Warnf("failed to refresh the registration of %s: %v", d.address, err)
			}
		}
	}
}

func (d *Discovery) stopKeepAlive() {
	if d.stopped == nil {
		return
	}
	close(d.stopped)
	<-d.done
	d.stopped = nil
	d.done = nil
}
