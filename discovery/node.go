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

package discovery

import (
	"fmt"
	"net"
	"strconv"

	"github.com/tochemey/typedakt/internal/validation"
)

// Node describes a cluster node as seen by the discovery providers
type Node struct {
	// Name specifies the node name. It defaults to the gossip address.
	Name string
	// Host specifies the node host
	Host string
	// GossipPort specifies the membership port
	GossipPort int
}

// GossipAddress returns the node host:port membership address
func (n Node) GossipAddress() string {
	return net.JoinHostPort(n.Host, strconv.Itoa(n.GossipPort))
}

// String returns the printable representation of the node
func (n Node) String() string {
	return fmt.Sprintf("[name=%s host=%s gossip=%d]", n.Name, n.Host, n.GossipPort)
}

// Validate checks the node fields
func (n Node) Validate() error {
	return validation.New(validation.FailFast()).
		AddValidator(validation.NewEmptyStringValidator("Host", n.Host)).
		AddValidator(validation.NewTCPAddressValidator(n.GossipAddress())).
		Validate()
}
