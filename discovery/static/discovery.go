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

// Package static provides a discovery provider backed by a fixed list of
// gossip addresses.
package static

import (
	"errors"
	"fmt"

	"go.uber.org/atomic"

	"github.com/tochemey/typedakt/discovery"
)

// Discovery represents the static discovery provider
type Discovery struct {
	config        *Config
	isInitialized *atomic.Bool
}

// enforce compilation error
var _ discovery.Provider = (*Discovery)(nil)

// NewDiscovery creates an instance of Discovery
func NewDiscovery(config *Config) *Discovery {
	return &Discovery{
		config:        config,
		isInitialized: atomic.NewBool(false),
	}
}

// ID returns the discovery provider id
func (d *Discovery) ID() string {
	return "static"
}

// Initialize validates the list of hosts
func (d *Discovery) Initialize() error {
	if d.isInitialized.Load() {
		return discovery.ErrAlreadyInitialized
	}
	if d.config == nil {
		return discovery.ErrInvalidConfig
	}
	if err := d.config.Validate(); err != nil {
		return errors.Join(discovery.ErrInvalidConfig, err)
	}
	d.isInitialized.Store(true)
	return nil
}

// Register is a no-op since the hosts are fixed
func (d *Discovery) Register() error {
	if !d.isInitialized.Load() {
		return discovery.ErrNotInitialized
	}
	return nil
}

// Deregister is a no-op since the hosts are fixed
func (d *Discovery) Deregister() error {
	if !d.isInitialized.Load() {
		return discovery.ErrNotInitialized
	}
	return nil
}

// DiscoverPeers returns the configured hosts
func (d *Discovery) DiscoverPeers() ([]string, error) {
	if !d.isInitialized.Load() {
		return nil, fmt.Errorf("static discovery: %w", discovery.ErrNotInitialized)
	}
	return d.config.seeds(), nil
}

// Close resets the provider
func (d *Discovery) Close() error {
	d.isInitialized.Store(false)
	return nil
}
