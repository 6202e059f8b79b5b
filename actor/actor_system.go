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
	"errors"
	"fmt"
	"net"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/atomic"
	"go.uber.org/multierr"

	"github.com/tochemey/typedakt/address"
	gerrors "github.com/tochemey/typedakt/errors"
	"github.com/tochemey/typedakt/eventstream"
	"github.com/tochemey/typedakt/internal/directory"
	"github.com/tochemey/typedakt/internal/peers"
	"github.com/tochemey/typedakt/internal/workerpool"
	"github.com/tochemey/typedakt/internal/xsync"
	"github.com/tochemey/typedakt/log"
	"github.com/tochemey/typedakt/remote"
)

const (
	// reservedNamesPrefix prefixes the names of the system actors
	reservedNamesPrefix = "GoAkt"
	// DefaultThroughput is the number of messages an actor processes
	// before handing its worker back to the pool
	DefaultThroughput = 32
	// DefaultShutdownTimeout bounds the time Stop waits for the actors
	DefaultShutdownTimeout = 30 * time.Second
)

// ActorSystem hosts actors, schedules their message processing on a
// shared worker pool and, when clustering is enabled, makes the node part
// of a cluster sharing the receptionist directory.
type ActorSystem interface {
	// Name returns the actor system name
	Name() string
	// Start starts the actor system and its receptionist.
	// Clustering requires an additional call to Join.
	Start(ctx context.Context) error
	// Stop stops every actor, leaves the cluster and releases the resources
	Stop(ctx context.Context) error
	// Running reports whether the actor system is started
	Running() bool
	// Spawn creates an actor with the given name and initial behavior
	Spawn(ctx context.Context, name string, behavior Behavior, opts ...SpawnOption) (*PID, error)
	// SpawnAnonymous creates an actor with a generated name
	SpawnAnonymous(ctx context.Context, behavior Behavior, opts ...SpawnOption) (*PID, error)
	// StopActor stops a local actor once the messages queued before the
	// request have been processed
	StopActor(ctx context.Context, pid *PID) error
	// Tell sends a message to an actor, local or remote, without waiting.
	// Messages to a stopped or unknown actor go to dead letters and no
	// error is returned.
	Tell(ctx context.Context, to *PID, message any) error
	// LocalActor returns the running local actor with the given name
	LocalActor(name string) (*PID, error)
	// Actors returns the running local actors, the system ones excluded
	Actors() []*PID
	// Receptionist returns the directory of the actor system
	Receptionist() *Receptionist
	// Join makes the node part of the cluster. Without seeds the
	// configured seeds, then the discovery provider, are used. A node
	// with no seed but itself forms a cluster on its own.
	Join(ctx context.Context, seeds ...string) error
	// Leave gracefully removes the node from the cluster
	Leave(ctx context.Context) error
	// Members returns the known cluster members
	Members() ([]Member, error)
	// Subscribe creates a subscriber to the dead letters, unhandled
	// messages and cluster events of the actor system
	Subscribe() (eventstream.Subscriber, error)
	// Unsubscribe removes the subscriber
	Unsubscribe(subscriber eventstream.Subscriber) error
	// Logger returns the actor system logger
	Logger() log.Logger
	// Uptime returns the number of seconds since the actor system started
	Uptime() int64
	// DeadlettersCount returns the number of undelivered messages
	DeadlettersCount() int64
	// UnhandledCount returns the number of messages left unhandled
	UnhandledCount() int64
	// ProcessedCount returns the number of messages processed by the actors
	ProcessedCount() int64
	// Metric returns a snapshot of the actor system counters
	Metric(ctx context.Context) *Metric
}

// actorSystem represents the actor system
type actorSystem struct {
	name   string
	logger log.Logger

	started  *atomic.Bool
	stopping *atomic.Bool
	lock     *sync.Mutex

	actors     *xsync.Map[string, *PID]
	pool       *workerpool.WorkerPool
	workers    int
	throughput int

	host        string
	port        int
	hostPort    string
	incarnation string

	eventsStream eventstream.Stream
	eventsTopic  string

	receptionist *Receptionist
	directory    *directory.Store

	clusterConfig *ClusterConfig
	cluster       *peers.Service
	serializer    remote.Serializer
	clusterEvents chan struct{}
	replications  sync.WaitGroup

	meterProvider metric.MeterProvider
	registration  metric.Registration

	processedCount   *atomic.Int64
	deadlettersCount *atomic.Int64
	unhandledCount   *atomic.Int64
	actorsCount      *atomic.Int64
	startedAt        *atomic.Int64
}

// enforce compilation error
var _ ActorSystem = (*actorSystem)(nil)

var systemNamePattern = regexp.MustCompile("^[a-zA-Z0-9][a-zA-Z0-9-_]*$")

// NewActorSystem creates an instance of ActorSystem
func NewActorSystem(name string, opts ...Option) (ActorSystem, error) {
	if name == "" {
		return nil, gerrors.ErrNameRequired
	}
	if !systemNamePattern.MatchString(name) {
		return nil, gerrors.ErrInvalidActorSystemName
	}

	system := &actorSystem{
		name:             name,
		logger:           log.DefaultLogger,
		started:          atomic.NewBool(false),
		stopping:         atomic.NewBool(false),
		lock:             &sync.Mutex{},
		actors:           xsync.NewMap[string, *PID](),
		throughput:       DefaultThroughput,
		eventsStream:     eventstream.New(),
		eventsTopic:      "topic.events." + name,
		processedCount:   atomic.NewInt64(0),
		deadlettersCount: atomic.NewInt64(0),
		unhandledCount:   atomic.NewInt64(0),
		actorsCount:      atomic.NewInt64(0),
		startedAt:        atomic.NewInt64(0),
	}

	for _, opt := range opts {
		opt.Apply(system)
	}

	if system.clusterConfig != nil {
		if err := system.clusterConfig.Validate(); err != nil {
			return nil, fmt.Errorf("invalid cluster config: %w", err)
		}
		system.serializer = system.clusterConfig.serializer
	}

	return system, nil
}

// Name returns the actor system name
func (x *actorSystem) Name() string {
	return x.name
}

// Logger returns the actor system logger
func (x *actorSystem) Logger() log.Logger {
	return x.logger
}

// Running reports whether the actor system is started
func (x *actorSystem) Running() bool {
	return x.started.Load() && !x.stopping.Load()
}

// Start starts the actor system
func (x *actorSystem) Start(ctx context.Context) error {
	x.lock.Lock()
	defer x.lock.Unlock()

	if x.started.Load() {
		return gerrors.ErrActorSystemAlreadyStarted
	}

	x.logger.Infof("%s actor system starting..", x.name)

	poolOpts := []workerpool.Option{
		workerpool.WithPanicHandler(func(recovered any) {
			x.logger.Errorf("worker recovered from panic: %v", recovered)
		}),
	}
	if x.workers > 0 {
		poolOpts = append(poolOpts, workerpool.WithSize(x.workers))
	}
	x.pool = workerpool.New(poolOpts...)
	x.pool.Start()

	if err := x.setupIdentity(); err != nil {
		x.pool.Stop()
		return err
	}

	if err := x.spawnReceptionist(); err != nil {
		x.pool.Stop()
		return err
	}

	if x.cluster != nil {
		if err := x.cluster.Start(ctx); err != nil {
			x.pool.Stop()
			x.actors.Reset()
			x.actorsCount.Store(0)
			return fmt.Errorf("failed to start cluster membership: %w", err)
		}
		x.clusterEvents = make(chan struct{})
		go x.consumeClusterEvents()
	}

	if err := x.registerMetrics(); err != nil {
		x.logger.Warnf("%s actor system metrics are disabled: %v", x.name, err)
	}

	x.startedAt.Store(time.Now().Unix())
	x.started.Store(true)
	x.stopping.Store(false)
	x.logger.Infof("%s actor system successfully started..:)", x.name)
	return nil
}

// Stop stops the actor system
func (x *actorSystem) Stop(ctx context.Context) error {
	x.lock.Lock()
	defer x.lock.Unlock()

	if !x.started.Load() {
		return gerrors.ErrActorSystemNotStarted
	}

	x.logger.Infof("%s actor system is shutting down..:)", x.name)
	x.stopping.Store(true)

	ctx, cancel := context.WithTimeout(ctx, DefaultShutdownTimeout)
	defer cancel()

	var err error
	for _, pid := range x.actors.Values() {
		if pid == x.receptionist.pid {
			continue
		}
		err = multierr.Append(err, x.shutdownActor(ctx, pid))
	}

	// the receptionist goes last so that it records every termination
	err = multierr.Append(err, x.shutdownActor(ctx, x.receptionist.pid))
	x.replications.Wait()

	if x.cluster != nil {
		err = multierr.Append(err, x.cluster.Stop(ctx))
		<-x.clusterEvents
	}

	if x.registration != nil {
		err = multierr.Append(err, x.registration.Unregister())
		x.registration = nil
	}

	x.pool.Stop()
	x.eventsStream.Close()
	x.eventsStream = eventstream.New()
	x.actors.Reset()
	x.started.Store(false)
	x.startedAt.Store(0)

	if err != nil {
		x.logger.Errorf("%s actor system failed to shutdown cleanly: %v", x.name, err)
		return err
	}

	x.logger.Infof("%s actor system successfully shutdown", x.name)
	return nil
}

// Spawn creates an actor with the given name
func (x *actorSystem) Spawn(ctx context.Context, name string, behavior Behavior, opts ...SpawnOption) (*PID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !x.Running() {
		return nil, gerrors.ErrActorSystemNotStarted
	}
	if strings.HasPrefix(name, reservedNamesPrefix) {
		return nil, gerrors.NewErrReservedName(name)
	}
	return x.spawn(name, behavior, newSpawnConfig(opts...))
}

// SpawnAnonymous creates an actor with a generated name
func (x *actorSystem) SpawnAnonymous(ctx context.Context, behavior Behavior, opts ...SpawnOption) (*PID, error) {
	return x.Spawn(ctx, "anonymous-"+uuid.NewString(), behavior, opts...)
}

// StopActor stops a local actor once its queued messages are processed
func (x *actorSystem) StopActor(ctx context.Context, pid *PID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if pid == nil {
		return gerrors.ErrUndefinedActor
	}

	local := x.localPID(pid.Address())
	if local == nil {
		if pid.IsLocal() || x.isLocalAddress(pid.Address()) {
			return gerrors.ErrDead
		}
		return gerrors.ErrNotLocal
	}
	return local.enqueue(NewEnvelope(&PoisonPill{}, nil))
}

// Tell sends a message to an actor without a sender
func (x *actorSystem) Tell(ctx context.Context, to *PID, message any) error {
	if !x.started.Load() {
		return gerrors.ErrActorSystemNotStarted
	}
	return x.tell(ctx, nil, to, message)
}

// LocalActor returns the running local actor with the given name
func (x *actorSystem) LocalActor(name string) (*PID, error) {
	if !x.started.Load() {
		return nil, gerrors.ErrActorSystemNotStarted
	}
	pid, ok := x.actors.Get(name)
	if !ok || !pid.IsRunning() {
		return nil, gerrors.NewErrActorNotFound(name)
	}
	return pid, nil
}

// Actors returns the running local actors, the system ones excluded
func (x *actorSystem) Actors() []*PID {
	var pids []*PID
	for _, pid := range x.actors.Values() {
		if strings.HasPrefix(pid.Name(), reservedNamesPrefix) || !pid.IsRunning() {
			continue
		}
		pids = append(pids, pid)
	}
	return pids
}

// Receptionist returns the directory of the actor system
func (x *actorSystem) Receptionist() *Receptionist {
	return x.receptionist
}

// Subscribe creates an events subscriber
func (x *actorSystem) Subscribe() (eventstream.Subscriber, error) {
	if !x.started.Load() {
		return nil, gerrors.ErrActorSystemNotStarted
	}
	subscriber := x.eventsStream.AddSubscriber()
	x.eventsStream.Subscribe(subscriber, x.eventsTopic)
	return subscriber, nil
}

// Unsubscribe removes an events subscriber
func (x *actorSystem) Unsubscribe(subscriber eventstream.Subscriber) error {
	if !x.started.Load() {
		return gerrors.ErrActorSystemNotStarted
	}
	x.eventsStream.Unsubscribe(subscriber, x.eventsTopic)
	x.eventsStream.RemoveSubscriber(subscriber)
	return nil
}

// Uptime returns the number of seconds since the actor system started
func (x *actorSystem) Uptime() int64 {
	startedAt := x.startedAt.Load()
	if startedAt == 0 {
		return 0
	}
	return time.Now().Unix() - startedAt
}

// DeadlettersCount returns the number of undelivered messages
func (x *actorSystem) DeadlettersCount() int64 {
	return x.deadlettersCount.Load()
}

// UnhandledCount returns the number of messages left unhandled
func (x *actorSystem) UnhandledCount() int64 {
	return x.unhandledCount.Load()
}

// ProcessedCount returns the number of messages processed by the actors
func (x *actorSystem) ProcessedCount() int64 {
	return x.processedCount.Load()
}

// setupIdentity sets the address actors are reachable at. In cluster
// mode it is the advertised gossip address of the node.
func (x *actorSystem) setupIdentity() error {
	if x.clusterConfig == nil {
		x.host, x.port = "127.0.0.1", 0
		x.incarnation = uuid.NewString()
	} else {
		if err := x.setupCluster(); err != nil {
			return err
		}
		self := x.cluster.Whoami()
		x.host, x.port, x.incarnation = self.Host, self.Port, self.Incarnation
	}

	x.hostPort = net.JoinHostPort(x.host, strconv.Itoa(x.port))
	x.directory = directory.NewStore(x.hostPort, x.incarnation, directory.WithMembership(x.memberIncarnation))
	return nil
}

func (x *actorSystem) spawnReceptionist() error {
	pid, err := x.spawn(receptionistName, newReceptionistBehavior(x, x.directory), newSpawnConfig())
	if err != nil {
		return fmt.Errorf("failed to start the receptionist: %w", err)
	}
	x.receptionist = &Receptionist{system: x, pid: pid, store: x.directory}
	return nil
}

func (x *actorSystem) spawn(name string, behavior Behavior, config *spawnConfig) (*PID, error) {
	if behavior == nil {
		return nil, gerrors.ErrUndefinedBehavior
	}

	addr := address.New(name, x.name, x.host, x.port, uuid.NewString())
	if err := addr.Validate(); err != nil {
		return nil, errors.Join(gerrors.ErrInvalidActorName, err)
	}

	mailbox := config.mailbox
	if mailbox == nil {
		mailbox = NewDefaultMailbox()
	}

	pid := newPID(x, addr, behavior, mailbox, x.throughput)
	if !x.actors.SetIfAbsent(name, pid) {
		return nil, gerrors.NewErrActorAlreadyExists(name)
	}
	x.actorsCount.Inc()

	// the start signal is the first message of every actor
	if err := pid.enqueue(NewEnvelope(startMessage, nil)); err != nil {
		x.actors.DeleteIf(name, func(v *PID) bool { return v == pid })
		x.actorsCount.Dec()
		return nil, err
	}

	x.logger.Debugf("actor=(%s) successfully spawned", addr.String())
	return pid, nil
}

// shutdownActor stops the actor and waits for its termination
func (x *actorSystem) shutdownActor(ctx context.Context, pid *PID) error {
	if pid.running.Load() {
		if err := pid.enqueue(NewEnvelope(&PoisonPill{}, nil)); err != nil && !errors.Is(err, gerrors.ErrDead) {
			return fmt.Errorf("failed to stop actor=(%s): %w", pid.Name(), err)
		}
	}

	select {
	case <-pid.stopped:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("actor=(%s) did not stop in time: %w", pid.Name(), ctx.Err())
	}
}

// removeActor is called by a terminating actor
func (x *actorSystem) removeActor(pid *PID) {
	if x.actors.DeleteIf(pid.Name(), func(v *PID) bool { return v == pid }) {
		x.actorsCount.Dec()
	}

	if x.receptionist == nil || pid == x.receptionist.pid {
		return
	}
	if err := x.tell(context.Background(), nil, x.receptionist.pid, &actorTerminated{ref: pid}); err != nil {
		x.logger.Warnf("failed to notify the receptionist of the termination of actor=(%s): %v", pid.Name(), err)
	}
}

// tell routes the message to a local mailbox or to the owning node
func (x *actorSystem) tell(ctx context.Context, from, to *PID, message any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if to == nil || to.Address() == nil {
		return gerrors.ErrUndefinedActor
	}
	if message == nil {
		return gerrors.ErrInvalidMessage
	}

	if local := x.localPID(to.Address()); local != nil {
		if err := local.enqueue(NewEnvelope(message, from)); err != nil {
			if errors.Is(err, gerrors.ErrMailboxFull) {
				x.deadLetter(from, to, message, "mailbox full")
				return err
			}
			x.deadLetter(from, to, message, "actor stopped")
		}
		return nil
	}

	if x.isLocalAddress(to.Address()) {
		x.deadLetter(from, to, message, "actor not found")
		return nil
	}
	return x.sendRemote(from, to, message)
}

// localPID returns the local actor at the given address, even when it
// is stopping. A successor spawned under the same name does not match.
func (x *actorSystem) localPID(addr *address.Address) *PID {
	if addr == nil || !x.isLocalAddress(addr) {
		return nil
	}
	pid, ok := x.actors.Get(addr.Name())
	if !ok || pid.ID() != addr.ID() {
		return nil
	}
	return pid
}

func (x *actorSystem) isLocalAddress(addr *address.Address) bool {
	return addr.System() == x.name && addr.HostPort() == x.hostPort
}
