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

// Package nats provides a discovery provider where nodes find each other
// by exchanging requests over a NATS subject.
package nats

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/flowchartsman/retry"
	"github.com/fxamacker/cbor/v2"
	"github.com/nats-io/nats.go"
	"go.uber.org/atomic"

	"github.com/tochemey/typedakt/discovery"
	"github.com/tochemey/typedakt/log"
)

type messageType int

const (
	registerMessage messageType = iota + 1
	deregisterMessage
	requestMessage
	responseMessage
)

// message is exchanged on the discovery subject
type message struct {
	Type messageType `cbor:"1,keyasint"`
	Name string      `cbor:"2,keyasint"`
	Host string      `cbor:"3,keyasint"`
	Port int         `cbor:"4,keyasint"`
}

// Discovery represents the nats discovery
type Discovery struct {
	config *Config
	mu     sync.Mutex

	initialized *atomic.Bool
	registered  *atomic.Bool

	connection    *nats.Conn
	subscriptions []*nats.Subscription

	hostNode        *discovery.Node
	logger          log.Logger
	connectAttempts int
}

// enforce compilation error
var _ discovery.Provider = (*Discovery)(nil)

// NewDiscovery returns an instance of the nats discovery provider
func NewDiscovery(config *Config, opts ...Option) *Discovery {
	d := &Discovery{
		initialized: atomic.NewBool(false),
		registered:  atomic.NewBool(false),
		config:          config,
		logger:          log.DefaultLogger,
		connectAttempts: 5,
	}

	for _, opt := range opts {
		opt.Apply(d)
	}

	return d
}

// ID returns the discovery provider id
func (d *Discovery) ID() string {
	return "nats"
}

// Initialize connects to the NATS server
func (d *Discovery) Initialize() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.initialized.Load() {
		return discovery.ErrAlreadyInitialized
	}

	if d.config == nil {
		return discovery.ErrInvalidConfig
	}

	if err := d.config.Validate(); err != nil {
		return errors.Join(discovery.ErrInvalidConfig, err)
	}

	if d.config.Timeout <= 0 {
		d.config.Timeout = time.Second
	}

	hostNode := &discovery.Node{Host: d.config.Host, GossipPort: d.config.GossipPort}
	hostNode.Name = hostNode.GossipAddress()

	opts := nats.GetDefaultOptions()
	opts.Url = d.config.NatsServer
	opts.Name = hostNode.Name
	opts.ReconnectWait = 2 * time.Second
	opts.MaxReconnect = -1

	var connection *nats.Conn
	// the delay between attempts grows from 100ms up to the reconnect wait
	retrier := retry.NewRetrier(d.connectAttempts, 100*time.Millisecond, opts.ReconnectWait)
	if err := retrier.Run(func() error {
		var err error
		connection, err = opts.Connect()
		return err
	}); err != nil {
		return fmt.Errorf("failed to connect to nats server=%s: %w", d.config.NatsServer, err)
	}

	d.connection = connection
	d.hostNode = hostNode
	d.initialized.Store(true)
	return nil
}

// Register answers the identification requests of the other nodes
func (d *Discovery) Register() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.initialized.Load() {
		return discovery.ErrNotInitialized
	}

	if d.registered.Load() {
		return discovery.ErrAlreadyRegistered
	}

	subscription, err := d.connection.Subscribe(d.config.NatsSubject, d.handle)
	if err != nil {
		return err
	}

	d.subscriptions = append(d.subscriptions, subscription)
	d.registered.Store(true)
	return nil
}

// Deregister stops answering and notifies the other nodes
func (d *Discovery) Deregister() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.registered.Load() {
		return discovery.ErrNotRegistered
	}

	if err := d.unsubscribe(); err != nil {
		return err
	}
	d.registered.Store(false)

	if d.connection == nil {
		return nil
	}
	return d.publish(d.config.NatsSubject, "", deregisterMessage)
}

// DiscoverPeers broadcasts an identification request and collects the
// answers received within the configured timeout
func (d *Discovery) DiscoverPeers() ([]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.initialized.Load() {
		return nil, discovery.ErrNotInitialized
	}

	if !d.registered.Load() {
		return nil, discovery.ErrNotRegistered
	}

	inbox := nats.NewInbox()
	sub, err := d.connection.SubscribeSync(inbox)
	if err != nil {
		return nil, err
	}
	defer func() { _ = sub.Unsubscribe() }()

	if err := d.publish(d.config.NatsSubject, inbox, requestMessage); err != nil {
		return nil, err
	}

	var peers []string
	me := d.hostNode.GossipAddress()
	deadline := time.Now().Add(d.config.Timeout)

	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return peers, nil
		}

		msg, err := sub.NextMsg(remaining)
		if err != nil {
			if errors.Is(err, nats.ErrTimeout) {
				return peers, nil
			}
			return nil, err
		}

		reply := new(message)
		if err := cbor.Unmarshal(msg.Data, reply); err != nil {
			d.logger.Warnf("dropped invalid discovery reply: %v", err)
			continue
		}

		addr := (&discovery.Node{Host: reply.Host, GossipPort: reply.Port}).GossipAddress()
		if addr == me {
			continue
		}
		peers = append(peers, addr)
	}
}

// Close closes the provider
func (d *Discovery) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.initialized.Store(false)
	d.registered.Store(false)

	if d.connection == nil {
		return nil
	}

	defer func() {
		d.connection.Close()
		d.connection = nil
	}()

	if err := d.unsubscribe(); err != nil {
		return err
	}
	return d.connection.Flush()
}

func (d *Discovery) handle(msg *nats.Msg) {
	request := new(message)
	if err := cbor.Unmarshal(msg.Data, request); err != nil {
		d.logger.Warnf("dropped invalid discovery message: %v", err)
		return
	}

	switch request.Type {
	case registerMessage:
		d.logger.Infof("received a registration request from peer[name=%s, host=%s, port=%d]",
			request.Name, request.Host, request.Port)
	case deregisterMessage:
		d.logger.Infof("received a de-registration request from peer[name=%s, host=%s, port=%d]",
			request.Name, request.Host, request.Port)
	case requestMessage:
		d.logger.Debugf("received an identification request from peer[name=%s, host=%s, port=%d]",
			request.Name, request.Host, request.Port)

		if msg.Reply == "" {
			return
		}
		if err := d.publish(msg.Reply, "", responseMessage); err != nil {
			d.logger.Errorf("failed to reply to the identification request from peer[name=%s, host=%s, port=%d]: %v",
				request.Name, request.Host, request.Port, err)
		}
	}
}

func (d *Discovery) publish(subject, reply string, kind messageType) error {
	data, err := cbor.Marshal(&message{
		Type: kind,
		Name: d.hostNode.Name,
		Host: d.hostNode.Host,
		Port: d.hostNode.GossipPort,
	})
	if err != nil {
		return err
	}
	if reply == "" {
		return d.connection.Publish(subject, data)
	}
	return d.connection.PublishRequest(subject, reply, data)
}

func (d *Discovery) unsubscribe() error {
	for _, subscription := range d.subscriptions {
		if subscription != nil && subscription.IsValid() {
			if err := subscription.Unsubscribe(); err != nil {
				return err
			}
		}
	}
	d.subscriptions = nil
	return nil
}
