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

package etcd

import (
	"context"
	"crypto/tls"
	"time"

	"github.com/tochemey/typedakt/internal/validation"
)

// Config holds the etcd provider configuration
type Config struct {
	// Context is used for the etcd requests. It defaults to context.Background()
	Context context.Context
	// Endpoints lists the etcd cluster endpoints
	Endpoints []string
	// ActorSystemName namespaces the registrations
	ActorSystemName string
	// Host is the advertised host of this node
	Host string
	// GossipPort is the membership port of this node
	GossipPort int
	// TTL is the registration lease time-to-live in seconds
	TTL int64
	// TLS is optional
	TLS *tls.Config
	// DialTimeout bounds the client connection
	DialTimeout time.Duration
	// Username and Password are optional
	Username string
	Password string
	// Timeout bounds every etcd request
	Timeout time.Duration
}

var _ validation.Validator = (*Config)(nil)

// Validate checks the configuration
func (c *Config) Validate() error {
	return validation.New(validation.FailFast()).
		AddValidator(validation.NewEmptyStringValidator("ActorSystemName", c.ActorSystemName)).
		AddValidator(validation.NewEmptyStringValidator("Host", c.Host)).
		AddAssertion(c.GossipPort > 0, "GossipPort is invalid").
		AddAssertion(c.TTL > 0, "TTL must be greater than 0").
		AddAssertion(c.DialTimeout > 0, "DialTimeout must be greater than 0").
		AddAssertion(c.Timeout > 0, "Timeout must be greater than 0").
		AddAssertion(len(c.Endpoints) > 0, "Endpoints must not be empty").
		Validate()
}
