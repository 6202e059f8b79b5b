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
package nats

import "github.com/tochemey/typedakt/log"

// Option customizes the provider
type Option func(*Discovery)

// Apply sets the option on the provider
func (f Option) Apply(d *Discovery) {
	f(d)
}

// WithLogger sets the logger of the discovery exchanges
func WithLogger(logger log.Logger) Option {
	return func(d *Discovery) {
		d.logger = logger
	}
}

// WithConnectAttempts sets how many times Initialize tries to reach the
// server. Values below one are ignored.
func WithConnectAttempts(attempts int) Option {
	return func(d *Discovery) {
		if attempts > 0 {
			d.connectAttempts = attempts
		}
	}
}
