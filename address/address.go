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

// Package address provides the textual identity of actors.
//
// An address names one actor instance:
//
//	goakt://<system>@<host>:<port>/<name>#<id>
//
// The host and port are the ones the node is reachable at (its gossip
// endpoint when clustering is on). The id fragment distinguishes successive
// incarnations of an actor spawned under the same name, so a reference kept
// after the actor stopped never reaches its successor.
package address

import (
	"errors"
	"net"
	"strconv"
	"strings"

	"github.com/tochemey/typedakt/internal/validation"
)

const scheme = "goakt"

const namePattern = "^[a-zA-Z0-9][a-zA-Z0-9-_\\.]*$"

var errNamePattern = errors.New("must contain only word characters (i.e. [a-zA-Z0-9] plus non-leading '-' or '_')")

// Address identifies an actor. It is immutable once created.
type Address struct {
	system string
	host   string
	port   int
	name   string
	id     string
}

var _ validation.Validator = (*Address)(nil)

// New creates an Address. It does not validate its inputs.
func New(name, system, host string, port int, id string) *Address {
	return &Address{
		system: system,
		host:   host,
		port:   port,
		name:   name,
		id:     id,
	}
}

// Name returns the actor name
func (x *Address) Name() string {
	if x == nil {
		return ""
	}
	return x.name
}

// System returns the actor system name
func (x *Address) System() string {
	if x == nil {
		return ""
	}
	return x.system
}

// Host returns the node host
func (x *Address) Host() string {
	if x == nil {
		return ""
	}
	return x.host
}

// Port returns the node port
func (x *Address) Port() int {
	if x == nil {
		return 0
	}
	return x.port
}

// ID returns the actor incarnation id. It can be empty for addresses
// parsed without a fragment.
func (x *Address) ID() string {
	if x == nil {
		return ""
	}
	return x.id
}

// HostPort returns the node endpoint as host:port
func (x *Address) HostPort() string {
	return net.JoinHostPort(x.Host(), strconv.Itoa(x.Port()))
}

// Path returns the address without the incarnation id:
//
//	goakt://<system>@<host>:<port>/<name>
func (x *Address) Path() string {
	if x == nil {
		return ""
	}
	var builder strings.Builder
	builder.Grow(len(scheme) + 3 + len(x.system) + 1 + len(x.host) + 7 + len(x.name))
	builder.WriteString(scheme)
	builder.WriteString("://")
	builder.WriteString(x.system)
	builder.WriteByte('@')
	builder.WriteString(x.HostPort())
	builder.WriteByte('/')
	builder.WriteString(x.name)
	return builder.String()
}

// String returns the full address, including the id fragment when set
func (x *Address) String() string {
	if x == nil {
		return ""
	}
	if x.id == "" {
		return x.Path()
	}
	return x.Path() + "#" + x.id
}

// Equals reports whether both addresses denote the same actor incarnation.
// An empty id on either side matches any incarnation.
func (x *Address) Equals(y *Address) bool {
	if x == nil || y == nil {
		return false
	}
	if x.Path() != y.Path() {
		return false
	}
	return x.id == "" || y.id == "" || x.id == y.id
}

// Validate checks that the address is well formed
func (x *Address) Validate() error {
	if x == nil {
		return errors.New("address is nil")
	}
	return validation.
		New(validation.FailFast()).
		AddValidator(validation.NewEmptyStringValidator("system", x.system)).
		AddValidator(validation.NewEmptyStringValidator("name", x.name)).
		AddValidator(validation.NewTCPAddressValidator(x.HostPort())).
		AddAssertion(len(x.name) <= 255, "actor name is too long. Maximum length is 255").
		AddValidator(validation.NewPatternValidator(namePattern, x.system, errNamePattern)).
		AddValidator(validation.NewPatternValidator(namePattern, x.name, errNamePattern)).
		Validate()
}

// Parse reads an address produced by String or Path.
// IPv6 hosts must be bracketed, as produced by net.JoinHostPort.
func Parse(addr string) (*Address, error) {
	if addr == "" {
		return nil, errors.New("address is required")
	}

	schemePart, rest, ok := strings.Cut(addr, "://")
	if !ok {
		return nil, errors.New("address format is invalid")
	}

	if schemePart != scheme {
		return nil, errors.New("address protocol is not supported")
	}

	rest, id, _ := strings.Cut(rest, "#")

	system, rest, ok := strings.Cut(rest, "@")
	if !ok || strings.Contains(rest, "@") {
		return nil, errors.New("address format is invalid")
	}

	hostPort, name, ok := strings.Cut(rest, "/")
	if !ok || name == "" || strings.Contains(name, "/") {
		return nil, errors.New("address format is invalid")
	}

	host, portStr, err := net.SplitHostPort(hostPort)
	if err != nil {
		return nil, err
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, err
	}

	return New(name, system, host, port, id), nil
}
