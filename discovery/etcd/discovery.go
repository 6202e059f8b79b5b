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

// Package etcd provides a discovery provider keeping one leased key per
// node under the actor system name.
package etcd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"slices"
	"strconv"
	"sync"
	"time"

	goset "github.com/deckarep/golang-set/v2"
	"github.com/fxamacker/cbor/v2"
	clientv3 "go.etcd.io/etcd/client/v3"
	"go.etcd.io/etcd/client/v3/namespace"
	"go.uber.org/atomic"

	"github.com/tochemey/typedakt/discovery"
)

// record is the value stored under the key of a node
type record struct {
	Address      string `cbor:"1,keyasint"`
	System       string `cbor:"2,keyasint"`
	RegisteredAt int64  `cbor:"3,keyasint"`
}

// Discovery finds the nodes of an actor system through leased etcd keys
type Discovery struct {
	config      *Config
	initialized *atomic.Bool
	registered  *atomic.Bool
	mu          sync.RWMutex

	client  *clientv3.Client
	kv      clientv3.KV
	lease   clientv3.Lease
	leaseID clientv3.LeaseID
	stop    context.CancelFunc

	address string
}

var _ discovery.Provider = (*Discovery)(nil)

// NewDiscovery creates an etcd provider. A nil config fails on Initialize.
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

// ID returns the discovery provider id
func (x *Discovery) ID() string {
	return "etcd"
}

// Initialize connects to the etcd cluster and checks the first endpoint
func (x *Discovery) Initialize() error {
	x.mu.Lock()
	defer x.mu.Unlock()

	if x.initialized.Load() {
		return discovery.ErrAlreadyInitialized
	}

	if x.config.Context == nil {
		x.config.Context = context.Background()
	}

	if err := x.config.Validate(); err != nil {
		return errors.Join(discovery.ErrInvalidConfig, err)
	}

	client, err := clientv3.New(clientv3.Config{
		Endpoints:   x.config.Endpoints,
		DialTimeout: x.config.DialTimeout,
		TLS:         x.config.TLS,
		Username:    x.config.Username,
		Password:    x.config.Password,
		Context:     x.config.Context,
	})
	if err != nil {
		return err
	}

	if err := x.ping(client); err != nil {
		return errors.Join(err, client.Close())
	}

	prefix := x.config.ActorSystemName + "/"
	x.client = client
	x.kv = namespace.NewKV(client.KV, prefix)
	x.lease = namespace.NewLease(client.Lease, prefix)
	x.initialized.Store(true)
	return nil
}

func (x *Discovery) ping(client *clientv3.Client) error {
	ctx, cancel := context.WithTimeout(x.config.Context, x.config.DialTimeout)
	defer cancel()
	if _, err := client.Status(ctx, x.config.Endpoints[0]); err != nil {
		return fmt.Errorf("failed to connect to etcd: %w", err)
	}
	return nil
}

// Register stores the record of this node under a lease renewed until
// Deregister
func (x *Discovery) Register() error {
	x.mu.Lock()
	defer x.mu.Unlock()

	if err := x.ready(); err != nil {
		return err
	}
	if x.registered.Load() {
		return discovery.ErrAlreadyRegistered
	}

	value, err := cbor.Marshal(&record{
		Address:      x.address,
		System:       x.config.ActorSystemName,
		RegisteredAt: time.Now().UTC().UnixNano(),
	})
	if err != nil {
		return fmt.Errorf("failed to encode the registration of %s: %w", x.address, err)
	}

	ctx, cancel := context.WithTimeout(x.config.Context, x.config.Timeout)
	defer cancel()

	grant, err := x.lease.Grant(ctx, x.config.TTL)
	if err != nil {
		return fmt.Errorf("failed to grant a lease of %ds: %w", x.config.TTL, err)
	}

	if _, err := x.kv.Put(ctx, x.address, string(value), clientv3.WithLease(grant.ID)); err != nil {
		return fmt.Errorf("failed to register %s: %w", x.address, err)
	}

	if err := x.keepAlive(grant.ID); err != nil {
		return err
	}

	x.leaseID = grant.ID
	x.registered.Store(true)
	return nil
}

// keepAlive renews the lease in the background until stop is called
func (x *Discovery) keepAlive(id clientv3.LeaseID) error {
	ctx, cancel := context.WithCancel(x.config.Context)
	renewals, err := x.lease.KeepAlive(ctx, id)
	if err != nil {
		cancel()
		return fmt.Errorf("failed to keep lease %x alive: %w", int64(id), err)
	}

	// renewals stop when nobody reads them
	go func() {
		for range renewals {
		}
	}()

	x.stop = cancel
	return nil
}

// DiscoverPeers returns the sorted gossip addresses of the other nodes of
// the actor system. Records that cannot be decoded are skipped.
func (x *Discovery) DiscoverPeers() ([]string, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	if err := x.ready(); err != nil {
		return nil, err
	}
	if !x.registered.Load() {
		return nil, discovery.ErrNotRegistered
	}

	ctx, cancel := context.WithTimeout(x.config.Context, x.config.Timeout)
	defer cancel()

	resp, err := x.kv.Get(ctx, "", clientv3.WithPrefix())
	if err != nil {
		return nil, fmt.Errorf("failed to list the nodes of %s: %w", x.config.ActorSystemName, err)
	}

	addresses := goset.NewThreadUnsafeSet[string]()
	for _, kv := range resp.Kvs {
		var node record
		if err := cbor.Unmarshal(kv.Value, &node); err != nil {
			continue
		}
		if node.Address == x.address || node.System != x.config.ActorSystemName {
			continue
		}
		addresses.Add(node.Address)
	}

	peers := addresses.ToSlice()
	slices.Sort(peers)
	return peers, nil
}

// Deregister stops renewing the lease and revokes it. A failed revoke
// leaves the key to expire with the lease.
func (x *Discovery) Deregister() error {
	x.mu.Lock()
	defer x.mu.Unlock()

	if err := x.ready(); err != nil {
		return err
	}
	if !x.registered.Load() {
		return discovery.ErrNotRegistered
	}

	x.stopKeepAlive()
	if x.leaseID != clientv3.NoLease {
		ctx, cancel := context.WithTimeout(x.config.Context, x.config.Timeout)
		_, _ = x.lease.Revoke(ctx, x.leaseID)
		cancel()
		x.leaseID = clientv3.NoLease
	}

	x.registered.Store(false)
	return nil
}

// Close releases the etcd client
func (x *Discovery) Close() error {
	x.mu.Lock()
	defer x.mu.Unlock()

	x.stopKeepAlive()
	x.initialized.Store(false)
	x.registered.Store(false)

	if x.client == nil {
		return nil
	}

	client := x.client
	x.client = nil
	if err := client.Close(); err != nil {
		return fmt.Errorf("failed to close etcd client: %w", err)
	}
	return nil
}

func (x *Discovery) ready() error {
	if !x.initialized.Load() {
		return discovery.ErrNotInitialized
	}
	return nil
}

func (x *Discovery) stopKeepAlive() {
	if x.stop != nil {
		x.stop()
		x.stop = nil
	}
}
