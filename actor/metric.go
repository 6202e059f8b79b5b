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
	"context"

	"go.opentelemetry.io/otel/metric"

	imetric "github.com/tochemey/typedakt/internal/metric"
)

// Metric is a snapshot of the actor system counters
type Metric struct {
	deadlettersCount int64
	unhandledCount   int64
	processedCount   int64
	actorsCount      int64
	uptime           int64
}

// DeadlettersCount returns the total number of deadletter
func (m *Metric) DeadlettersCount() int64 {
	return m.deadlettersCount
}

// UnhandledCount returns the total number of unhandled messages
func (m *Metric) UnhandledCount() int64 {
	return m.unhandledCount
}

// ProcessedCount returns the total number of processed messages
func (m *Metric) ProcessedCount() int64 {
	return m.processedCount
}

// ActorsCount returns the total number of actors in the system
func (m *Metric) ActorsCount() int64 {
	return m.actorsCount
}

// Uptime returns the number of seconds since the actor system started
func (m *Metric) Uptime() int64 {
	return m.uptime
}

// Metric returns a snapshot of the actor system counters, nil when the
// actor system is not started
func (x *actorSystem) Metric(ctx context.Context) *Metric {
	if ctx.Err() != nil || !x.started.Load() {
		return nil
	}
	return &Metric{
		deadlettersCount: x.deadlettersCount.Load(),
		unhandledCount:   x.unhandledCount.Load(),
		processedCount:   x.processedCount.Load(),
		actorsCount:      x.actorsCount.Load(),
		uptime:           x.Uptime(),
	}
}

// registerMetrics exposes the counters through OpenTelemetry
func (x *actorSystem) registerMetrics() error {
	provider := imetric.New(imetric.WithMeterProvider(x.meterProvider))
	meter := provider.Meter()

	instruments, err := imetric.NewActorSystemMetric(meter)
	if err != nil {
		return err
	}

	x.registration, err = meter.RegisterCallback(func(_ context.Context, observer metric.Observer) error {
		observer.ObserveInt64(instruments.ActorsCount(), x.actorsCount.Load())
		observer.ObserveInt64(instruments.DeadlettersCount(), x.deadlettersCount.Load())
		observer.ObserveInt64(instruments.UnhandledCount(), x.unhandledCount.Load())
		observer.ObserveInt64(instruments.ProcessedCount(), x.processedCount.Load())
		observer.ObserveInt64(instruments.PeersCount(), x.peersCount())
		observer.ObserveInt64(instruments.Uptime(), x.Uptime())
		return nil
	}, instruments.Instruments()...)
	return err
}

// peersCount returns the number of active remote members
func (x *actorSystem) peersCount() int64 {
	if x.cluster == nil {
		return 0
	}
	var count int64
	self := x.cluster.Whoami().Name
	for _, member := range x.cluster.Members() {
		if member.Name != self && member.Status.Active() {
			count++
		}
	}
	return count
}
