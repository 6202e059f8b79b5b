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

package metric

import "go.opentelemetry.io/otel/metric"

// ActorSystemMetric groups the observable instruments of an actor system:
//   - actorsystem.actors.count
//   - actorsystem.deadletters.count
//   - actorsystem.unhandled.count
//   - actorsystem.processed.count
//   - actorsystem.peers.count
//   - actorsystem.uptime (seconds)
type ActorSystemMetric struct {
	actorsCount      metric.Int64ObservableCounter
	deadlettersCount metric.Int64ObservableCounter
	unhandledCount   metric.Int64ObservableCounter
	processedCount   metric.Int64ObservableCounter
	peersCount       metric.Int64ObservableCounter
	uptime           metric.Int64ObservableCounter
}

// NewActorSystemMetric creates the system instruments using the provided
// Meter. It fails on the first instrument that cannot be created.
func NewActorSystemMetric(meter metric.Meter) (*ActorSystemMetric, error) {
	var instruments ActorSystemMetric
	var err error

	if instruments.actorsCount, err = meter.Int64ObservableCounter(
		"actorsystem.actors.count",
		metric.WithDescription("Total number of live actors in the actor system"),
	); err != nil {
		return nil, err
	}

	if instruments.deadlettersCount, err = meter.Int64ObservableCounter(
		"actorsystem.deadletters.count",
		metric.WithDescription("Total number of deadletters in the actor system"),
	); err != nil {
		return nil, err
	}

	if instruments.unhandledCount, err = meter.Int64ObservableCounter(
		"actorsystem.unhandled.count",
		metric.WithDescription("Total number of messages left unhandled by their actor"),
	); err != nil {
		return nil, err
	}

	if instruments.processedCount, err = meter.Int64ObservableCounter(
		"actorsystem.processed.count",
		metric.WithDescription("Total number of messages processed by the actors"),
	); err != nil {
		return nil, err
	}

	if instruments.peersCount, err = meter.Int64ObservableCounter(
		"actorsystem.peers.count",
		metric.WithDescription("Total number of active cluster members"),
	); err != nil {
		return nil, err
	}

	if instruments.uptime, err = meter.Int64ObservableCounter(
		"actorsystem.uptime",
		metric.WithDescription("Uptime of the actor system in seconds"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return &instruments, nil
}

// ActorsCount returns the live actors counter
func (x *ActorSystemMetric) ActorsCount() metric.Int64ObservableCounter {
	return x.actorsCount
}

// DeadlettersCount returns the deadletters counter
func (x *ActorSystemMetric) DeadlettersCount() metric.Int64ObservableCounter {
	return x.deadlettersCount
}

// UnhandledCount returns the unhandled messages counter
func (x *ActorSystemMetric) UnhandledCount() metric.Int64ObservableCounter {
	return x.unhandledCount
}

// ProcessedCount returns the processed messages counter
func (x *ActorSystemMetric) ProcessedCount() metric.Int64ObservableCounter {
	return x.processedCount
}

// PeersCount returns the active cluster members counter
func (x *ActorSystemMetric) PeersCount() metric.Int64ObservableCounter {
	return x.peersCount
}

// Uptime returns the uptime counter
func (x *ActorSystemMetric) Uptime() metric.Int64ObservableCounter {
	return x.uptime
}

// Instruments returns every instrument, for callback registration
func (x *ActorSystemMetric) Instruments() []metric.Observable {
	return []metric.Observable{
		x.actorsCount,
		x.deadlettersCount,
		x.unhandledCount,
		x.processedCount,
		x.peersCount,
		x.uptime,
	}
}
