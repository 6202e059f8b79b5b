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
package static

import (
	goset "github.com/deckarep/golang-set/v2"

	"github.com/tochemey/typedakt/internal/validation"
)

// Config lists the gossip addresses of the seed nodes
type Config struct {
	// Hosts are host:port gossip addresses. Duplicates are dropped.
	Hosts []string
}

// Validate requires at least one host, each one in host:port form
func (x Config) Validate() error {
	chain := validation.New(validation.FailFast()).
		AddAssertion(len(x.Hosts) > 0, "at least one seed host is required")
	for _, host := range x.Hosts {
		chain = chain.AddValidator(validation.NewTCPAddressValidator(host))
	}
	return chain.Validate()
}

// seeds returns the hosts in configuration order without duplicates
func (x Config) seeds() []string {
	seen := goset.NewThreadUnsafeSetWithSize[string](len(x.Hosts))
	seeds := make([]string, 0, len(x.Hosts))
	for _, host := range x.Hosts {
		if seen.Add(host) {
			seeds = append(seeds, host)
		}
	}
	return seeds
}
