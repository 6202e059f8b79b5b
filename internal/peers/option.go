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

package peers

import (
	"time"

	"github.com/tochemey/typedakt/discovery"
	"github.com/tochemey/typedakt/log"
)

// Option is the interface that applies a configuration option.
type Option interface {
	// Apply sets the Option value of a config.
	Apply(service *Service)
}

var _ Option = OptionFunc(nil)

// OptionFunc implements the Option interface.
type OptionFunc func(service *Service)

// Apply applies the options to Service
func (f OptionFunc) Apply(service *Service) {
	f(service)
}

// WithLogger sets the logger
func WithLogger(logger log.Logger) Option {
	return OptionFunc(func(service *Service) {
		service.logger = logger
	})
}

// WithProvider sets the discovery provider used to find seeds
func WithProvider(provider discovery.Provider) Option {
	return OptionFunc(func(service *Service) {
		service.provider = provider
	})
}

// WithJoinRetryInterval sets the interval between join attempts
func WithJoinRetryInterval(interval time.Duration) Option {
	return OptionFunc(func(service *Service) {
		service.joinRetryInterval = interval
	})
}

// WithJoinTimeout sets the overall join timeout
func WithJoinTimeout(timeout time.Duration) Option {
	return OptionFunc(func(service *Service) {
		service.joinTimeout = timeout
	})
}

// WithShutdownTimeout sets the graceful leave timeout
func WithShutdownTimeout(timeout time.Duration) Option {
	return OptionFunc(func(service *Service) {
		service.shutdownTimeout = timeout
	})
}

// WithGossipInterval sets the memberlist gossip interval
func WithGossipInterval(interval time.Duration) Option {
	return OptionFunc(func(service *Service) {
		service.gossipInterval = interval
	})
}

// WithProbeInterval sets the memberlist failure detection interval
func WithProbeInterval(interval time.Duration) Option {
	return OptionFunc(func(service *Service) {
		service.probeInterval = interval
	})
}

// WithPushPullInterval sets the full state exchange interval.
// A zero interval disables the periodic exchange.
func WithPushPullInterval(interval time.Duration) Option {
	return OptionFunc(func(service *Service) {
		service.pushPullInterval = interval
	})
}

// WithReorderTimeout sets how long an out of order message frame waits
// for the missing ones
func WithReorderTimeout(timeout time.Duration) Option {
	return OptionFunc(func(service *Service) {
		service.reorderTimeout = timeout
	})
}
