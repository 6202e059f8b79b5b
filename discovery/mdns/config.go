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

package mdns

import (
	"time"

	"github.com/tochemey/typedakt/internal/validation"
)

// Config represents the mDNS provider configuration
type Config struct {
	// ServiceName is the instance name prefix. The gossip port is appended
	// to keep the instances of one host apart
	ServiceName string
	// Service is the service type, e.g. _typedakt._tcp
	Service string
	// Domain is the service domain, usually local.
	Domain string
	// Host is the advertised host of this node
	Host string
	// GossipPort is the membership port of this node
	GossipPort int
	// IPv6 also collects the IPv6 addresses of the peers
	IPv6 bool
	// BrowseTimeout bounds a DiscoverPeers call. It defaults to 2s
	BrowseTimeout time.Duration
}

// Validate checks the configuration
func (x Config) Validate() error {
	return validation.New(validation.FailFast()).
		AddValidator(validation.NewEmptyStringValidator("ServiceName", x.ServiceName)).
		AddValidator(validation.NewEmptyStringValidator("Service", x.Service)).
		AddValidator(validation.NewEmptyStringValidator("Domain", x.Domain)).
		AddValidator(validation.NewEmptyStringValidator("Host", x.Host)).
		AddAssertion(x.GossipPort > 0, "GossipPort is invalid").
		Validate()
}
