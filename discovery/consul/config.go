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

package consul

import (
	"context"
	"time"

	"github.com/tochemey/typedakt/internal/validation"
)

// Config defines the consul provider configuration
type Config struct {
	// Context is used for the consul requests. It defaults to context.Background()
	Context context.Context
	// Address is the consul agent address
	Address string
	// Datacenter is the consul datacenter. The agent's own one is used when empty
	Datacenter string
	// Token is the consul ACL token
	Token string
	// Timeout bounds every consul request. It defaults to 10s
	Timeout time.Duration
	// ActorSystemName is used as the consul service name
	ActorSystemName string
	// Host is the advertised host of this node
	Host string
	// GossipPort is the membership port of this node
	GossipPort int
	// OnlyPassing restricts the discovered peers to the ones with a passing health check
	OnlyPassing bool
	// AllowStale lets followers answer the catalog queries
	AllowStale bool
	// HealthCheck configures the TCP check registered with the service.
	// No check is registered when nil
	HealthCheck *HealthCheck
}

// HealthCheck defines the consul TCP health check of the gossip port
type HealthCheck struct {
	// Interval is the check frequency
	Interval time.Duration
	// Timeout is the check timeout
	Timeout time.Duration
}

var _ validation.Validator = (*Config)(nil)

// Sanitize sets the defaults
func (config *Config) Sanitize() {
	if config.Context == nil {
		config.Context = context.Background()
	}

	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}

	if config.HealthCheck != nil {
		if config.HealthCheck.Interval <= 0 {
			config.HealthCheck.Interval = 10 * time.Second
		}
		if config.HealthCheck.Timeout <= 0 {
			config.HealthCheck.Timeout = 3 * time.Second
		}
	}
}

// Validate checks the configuration
func (config *Config) Validate() error {
	return validation.New(validation.FailFast()).
		AddValidator(validation.NewEmptyStringValidator("ActorSystemName", config.ActorSystemName)).
		AddValidator(validation.NewEmptyStringValidator("Address", config.Address)).
		AddValidator(validation.NewEmptyStringValidator("Host", config.Host)).
		AddAssertion(config.GossipPort > 0, "GossipPort is invalid").
		Validate()
}
