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

package actor

import (
	"go.opentelemetry.io/otel/metric"

	"github.com/tochemey/typedakt/log"
)

// Option is the interface that applies a configuration option.
type Option interface {
	// Apply sets the Option value of a config.
	Apply(sys *actorSystem)
}

// enforce compilation error
var _ Option = OptionFunc(nil)

// OptionFunc implements the Option interface.
type OptionFunc func(*actorSystem)

func (f OptionFunc) Apply(c *actorSystem) {
	f(c)
}

// WithLogger sets the actor system custom log
func WithLogger(logger log.Logger) Option {
	return OptionFunc(func(a *actorSystem) {
		a.logger = logger
	})
}

// WithCluster enables cluster membership and the replication of the
// receptionist directory across nodes
func WithCluster(config *ClusterConfig) Option {
	return OptionFunc(func(a *actorSystem) {
		a.clusterConfig = config
	})
}

// WithThroughput sets the maximum number of messages an actor processes
// before handing its worker back to the pool
func WithThroughput(throughput int) Option {
	return OptionFunc(func(a *actorSystem) {
		if throughput > 0 {
			a.throughput = throughput
		}
	})
}

// WithWorkers sets the number of goroutines of the shared worker pool
func WithWorkers(workers int) Option {
	return OptionFunc(func(a *actorSystem) {
		if workers > 0 {
			a.workers = workers
		}
	})
}

// WithMeterProvider sets the OpenTelemetry meter provider used to expose
// the actor system metrics. The global provider is used otherwise.
func WithMeterProvider(provider metric.MeterProvider) Option {
	return OptionFunc(func(a *actorSystem) {
		a.meterProvider = provider
	})
}
