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

package redis

import (
	"context"
	"time"

	"github.com/tochemey/typedakt/internal/validation"
)

// Config holds the redis provider configuration
type Config struct {
	// Context is used for the redis requests. It defaults to context.Background()
	Context context.Context
	// Address is the redis server host:port
	Address string
	// Username and Password are optional
	Username string
	Password string
	// DB is the redis database index
	DB int
	// ActorSystemName namespaces the registrations
	ActorSystemName string
	// Host is the advertised host of this node
	Host string
	// GossipPort is the membership port of this node
	GossipPort int
	// TTL is the registration expiry. The key is refreshed at half of it
	TTL time.Duration
	// Timeout bounds every redis request. It defaults to 5s
	Timeout time.Duration
}

var _ validation.Validator = (*Config)(nil)

// Sanitize sets the defaults
func (c *Config) Sanitize() {
	if c.Context == nil {
		c.Context = context.Background()
	}
	if c.Timeout <= 0 {
		c.Timeout = 5 * time.Second
	}
	if c.TTL <= 0 {
		c.TTL = 30 * time.Second
	}
}

// Validate checks the configuration
func (c *Config) Validate() error {
	return validation.New(validation.FailFast()).
		AddValidator(validation.NewEmptyStringValidator("ActorSystemName", c.ActorSystemName)).
		AddValidator(validation.NewTCPAddressValidator(c.Address)).
		AddValidator(validation.NewEmptyStringValidator("Host", c.Host)).
		AddAssertion(c.GossipPort > 0, "GossipPort is invalid").
		AddAssertion(c.TTL >= time.Second, "TTL must be at least one second").
		Validate()
}
