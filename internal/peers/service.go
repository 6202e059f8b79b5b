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

// Package peers runs the cluster membership of a node on top of
// hashicorp/memberlist and carries the directory state and the remote
// actor messages between nodes.
package peers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/flowchartsman/retry"
	"github.com/google/uuid"
	sockaddr "github.com/hashicorp/go-sockaddr"
	"github.com/hashicorp/memberlist"
	"go.uber.org/atomic"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/tochemey/typedakt/discovery"
	gerrors "github.com/tochemey/typedakt/errors"
	"github.com/tochemey/typedakt/log"
)

// Handler is implemented by the owner of the replicated state and the
// recipient of remote actor messages. Its methods are called from
// memberlist goroutines and must not block.
type Handler interface {
	// LocalState returns the full encoded state exchanged during push/pull
	LocalState() []byte
	// LocalPartition returns the encoded state owned by this node
	LocalPartition() []byte
	// MergeState merges an encoded state. from is empty when the state
	// comes from the periodic push/pull exchange.
	MergeState(from string, state []byte)
	// HandleMessage delivers a remote actor message in sending order
	HandleMessage(from string, payload []byte)
}

// Service is the cluster membership of the local node
type Service struct {
	delegate *delegate
	handler  Handler

	self         *Peer
	memberConfig *memberlist.Config
	memberlist   *memberlist.Memberlist
	started      *atomic.Bool
	joined       *atomic.Bool
	localOpsLock *sync.RWMutex

	maxJoinAttempts   int
	joinRetryInterval time.Duration
	joinTimeout       time.Duration
	shutdownTimeout   time.Duration
	gossipInterval    time.Duration
	probeInterval     time.Duration
	pushPullInterval  time.Duration
	reorderTimeout    time.Duration

	broadcastRetryInterval time.Duration
	broadcastMaxRetries    int

	provider discovery.Provider
	logger   log.Logger

	stopEventsListener chan struct{}
	listenerDone       chan struct{}
	eventsQueue        chan *Event
	joinedQueue        chan *Peer
	joinedDone         chan struct{}

	members      *memberTable
	outboxes     map[string]*outbox
	outboxesLock *sync.Mutex
	inboxes      map[string]*inbox
	inboxesLock  *sync.Mutex
}

// NewService creates an instance of Service for the given node.
// A host set to 0.0.0.0 binds every interface and advertises the first
// private address found.
func NewService(node *discovery.Node, system string, handler Handler, opts ...Option) (*Service, error) {
	if err := node.Validate(); err != nil {
		return nil, err
	}

	advertiseHost := node.Host
	if advertiseHost == "0.0.0.0" {
		ip, err := sockaddr.GetPrivateIP()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve the advertise address: %w", err)
		}
		if ip == "" {
			return nil, errors.New("failed to resolve the advertise address: no private ip found")
		}
		advertiseHost = ip
	}

	self := &Peer{
		Host:        advertiseHost,
		Port:        node.GossipPort,
		System:      system,
		Incarnation: uuid.NewString(),
		CreatedAt:   time.Now().UTC().UnixNano(),
	}
	self.Name = self.Address()
	if node.Name == "" {
		node.Name = self.Name
	}

	service := &Service{
		handler:                handler,
		self:                   self,
		started:                atomic.NewBool(false),
		joined:                 atomic.NewBool(false),
		localOpsLock:           &sync.RWMutex{},
		joinRetryInterval:      100 * time.Millisecond,
		joinTimeout:            5 * time.Second,
		shutdownTimeout:        3 * time.Second,
		reorderTimeout:         time.Second,
		broadcastRetryInterval: 200 * time.Millisecond,
		logger:                 log.DiscardLogger,
		stopEventsListener:     make(chan struct{}),
		listenerDone:           make(chan struct{}),
		joinedDone:             make(chan struct{}),
		eventsQueue:            make(chan *Event, 256),
		joinedQueue:            make(chan *Peer, 64),
		members:                newMemberTable(),
		outboxes:               make(map[string]*outbox),
		outboxesLock:           &sync.Mutex{},
		inboxes:                make(map[string]*inbox),
		inboxesLock:            &sync.Mutex{},
	}

	for _, opt := range opts {
		opt.Apply(service)
	}

	service.maxJoinAttempts = maxRetries(service.joinTimeout, service.joinRetryInterval)
	service.broadcastMaxRetries = maxRetries(time.Second, service.broadcastRetryInterval)

	meta, err := self.meta()
	if err != nil {
		return nil, err
	}
	service.delegate = newDelegate(meta, service)

	mconfig := memberlist.DefaultLANConfig()
	mconfig.Name = self.Name
	mconfig.BindAddr = node.Host
	mconfig.BindPort = node.GossipPort
	mconfig.AdvertiseAddr = advertiseHost
	mconfig.AdvertisePort = node.GossipPort
	mconfig.Delegate = service.delegate
	if service.logger.Enabled(log.DebugLevel) {
		mconfig.Logger = service.logger.StdLogger()
	} else {
		mconfig.LogOutput = io.Discard
	}
	if service.gossipInterval > 0 {
		mconfig.GossipInterval = service.gossipInterval
	}
	if service.probeInterval > 0 {
		mconfig.ProbeInterval = service.probeInterval
	}
	mconfig.PushPullInterval = service.pushPullInterval

	service.memberConfig = mconfig
	return service, nil
}

// Start creates the memberlist and registers the node with the discovery
// provider. The node is Joining until Join succeeds.
func (s *Service) Start(ctx context.Context) error {
	s.localOpsLock.Lock()
	defer s.localOpsLock.Unlock()

	if s.started.Load() {
		return nil
	}

	eventsCh := make(chan memberlist.NodeEvent, 256)
	s.memberConfig.Events = &memberlist.ChannelEventDelegate{Ch: eventsCh}

	mlist, err := memberlist.Create(s.memberConfig)
	if err != nil {
		s.logger.Error(fmt.Errorf("%s failed to create memberlist: %w", s.self.String(), err))
		return err
	}
	s.memberlist = mlist

	if s.provider != nil {
		if err := multierr.Combine(s.provider.Initialize(), s.provider.Register()); err != nil {
			_ = mlist.Shutdown()
			return fmt.Errorf("%s failed to register with discovery provider=%s: %w", s.self.String(), s.provider.ID(), err)
		}
	}

	s.members.set(s.self, Joining)
	s.started.Store(true)

	go s.eventsListener(eventsCh)
	go s.handleJoinedPeers(ctx)

	s.logger.Infof("%s successfully started", s.self.String())
	return nil
}

// Join makes the node part of a cluster. Without seeds the discovery
// provider is asked for some. When no seed other than the node itself
// remains, the node forms a cluster on its own.
func (s *Service) Join(ctx context.Context, seeds ...string) error {
	s.localOpsLock.Lock()
	defer s.localOpsLock.Unlock()

	if !s.started.Load() {
		return ErrServiceNotStarted
	}

	if s.joined.Load() {
		return gerrors.ErrAlreadyJoined
	}

	if len(seeds) == 0 && s.provider != nil {
		discovered, err := s.discoverSeeds(ctx)
		if err != nil {
			return fmt.Errorf("%w: %w", gerrors.ErrJoinFailure, err)
		}
		seeds = discovered
	}

	seeds = slices.DeleteFunc(slices.Clone(seeds), func(seed string) bool {
		return seed == "" || seed == s.self.Address()
	})
	slices.Sort(seeds)
	seeds = slices.Compact(seeds)

	if len(seeds) > 0 {
		joinCtx, cancel := context.WithTimeout(ctx, s.joinTimeout)
		defer cancel()

		retrier := retry.NewRetrier(s.maxJoinAttempts, s.joinRetryInterval, s.joinRetryInterval)
		if err := retrier.RunContext(joinCtx, func(context.Context) error {
			_, err := s.memberlist.Join(seeds)
			return err
		}); err != nil {
			s.logger.Error(fmt.Errorf("%s failed to join cluster: %w", s.self.String(), err))
			return fmt.Errorf("%w: %w", gerrors.ErrJoinFailure, err)
		}
		s.logger.Infof("%s successfully joined cluster: [%s]", s.self.String(), strings.Join(seeds, ","))
	} else {
		s.logger.Infof("%s formed a new cluster", s.self.String())
	}

	s.joined.Store(true)
	s.emit(newEvent(s.members.set(s.self, Up), MemberUp))
	return nil
}

// Leave gracefully removes the node from the cluster
func (s *Service) Leave(context.Context) error {
	s.localOpsLock.Lock()
	defer s.localOpsLock.Unlock()
	return s.leave()
}

// Stop leaves the cluster when still joined and releases every resource
func (s *Service) Stop(context.Context) error {
	s.localOpsLock.Lock()
	defer s.localOpsLock.Unlock()

	if !s.started.Load() {
		return nil
	}

	err := s.leave()
	s.started.Store(false)

	// the listener is the only writer of the joined queue
	close(s.stopEventsListener)
	<-s.listenerDone
	close(s.joinedQueue)
	<-s.joinedDone

	err = multierr.Append(err, s.memberlist.Shutdown())
	if s.provider != nil {
		err = multierr.Append(err, s.provider.Close())
	}

	s.closeQueues()
	close(s.eventsQueue)

	if err != nil {
		s.logger.Error(fmt.Errorf("%s failed to stop: %w", s.self.String(), err))
		return err
	}
	s.logger.Infof("%s successfully stopped", s.self.String())
	return nil
}

// Whoami returns the local peer
func (s *Service) Whoami() *Peer {
	peer := *s.self
	return &peer
}

// Address returns the node host:port gossip address
func (s *Service) Address() string {
	return s.self.Address()
}

// Joined reports whether the node has joined a cluster
func (s *Service) Joined() bool {
	return s.joined.Load()
}

// Status returns the status of the local node
func (s *Service) Status() MemberStatus {
	member, ok := s.members.get(s.self.Name)
	if !ok {
		return Joining
	}
	return member.Status
}

// Members returns every member known to the node, the local one included
func (s *Service) Members() []Member {
	return s.members.list()
}

// Member returns the known member with the given name
func (s *Service) Member(name string) (Member, bool) {
	return s.members.get(name)
}

// Peers returns the active remote peers
func (s *Service) Peers() ([]*Peer, error) {
	if !s.started.Load() {
		return nil, ErrServiceNotStarted
	}

	var peers []*Peer
	for _, node := range s.memberlist.Members() {
		if node.Name == s.self.Name {
			continue
		}
		if node.State != memberlist.StateAlive && node.State != memberlist.StateSuspect {
			continue
		}
		peer, err := peerFromMeta(node.Meta)
		if err != nil {
			return nil, err
		}
		if member, ok := s.members.get(peer.Name); ok && !member.Status.Active() {
			continue
		}
		peers = append(peers, peer)
	}
	return peers, nil
}

// Events returns the channel where cluster events are published
func (s *Service) Events() <-chan *Event {
	return s.eventsQueue
}

// Broadcast pushes the given encoded state to every active peer
func (s *Service) Broadcast(ctx context.Context, state []byte) error {
	if !s.started.Load() {
		return ErrServiceNotStarted
	}

	peers, err := s.Peers()
	if err != nil {
		return err
	}

	frame, err := encodeFrame(stateFrame, &envelope{
		From:        s.self.Name,
		Incarnation: s.self.Incarnation,
		Payload:     state,
	})
	if err != nil {
		return err
	}

	eg, ctx := errgroup.WithContext(ctx)
	for _, peer := range peers {
		eg.Go(func() error {
			if err := s.pushFrame(ctx, peer, frame); err != nil {
				s.logger.Error(fmt.Errorf("%s failed to push state to peer=%s: %w", s.self.String(), peer.Name, err))
				return err
			}
			return nil
		})
	}
	return eg.Wait()
}

// Send queues an actor message for the peer at the given gossip address.
// Messages sent to the same peer are delivered in sending order.
func (s *Service) Send(address string, payload []byte) error {
	if !s.started.Load() {
		return ErrServiceNotStarted
	}

	member, ok := s.members.get(address)
	if !ok || member.Name == s.self.Name || !member.Status.Active() {
		return gerrors.ErrPeerNotFound
	}

	return s.outboxFor(member.peer()).enqueue(s.self, payload)
}

func (s *Service) leave() error {
	if !s.joined.Load() {
		return nil
	}

	s.emit(newEvent(s.members.set(s.self, Leaving), MemberLeft))
	var err error
	if s.memberlist != nil {
		err = s.memberlist.Leave(s.shutdownTimeout)
	}
	if s.provider != nil {
		err = multierr.Append(err, s.provider.Deregister())
	}
	s.joined.Store(false)
	s.emit(newEvent(s.members.set(s.self, Removed), MemberRemoved))
	s.logger.Infof("%s left the cluster", s.self.String())
	return err
}

func (s *Service) discoverSeeds(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.joinTimeout)
	defer cancel()

	var seeds []string
	retrier := retry.NewRetrier(s.maxJoinAttempts, s.joinRetryInterval, s.joinRetryInterval)
	err := retrier.RunContext(ctx, func(context.Context) error {
		var err error
		seeds, err = s.provider.DiscoverPeers()
		return err
	})
	return seeds, err
}

// emit publishes the event unless the service is stopping
func (s *Service) emit(event *Event) {
	select {
	case s.eventsQueue <- event:
	case <-s.stopEventsListener:
	}
}

// eventsListener turns memberlist notifications into cluster events
func (s *Service) eventsListener(eventsCh chan memberlist.NodeEvent) {
	defer close(s.listenerDone)
	for {
		select {
		case event := <-eventsCh:
			if !s.handleNodeEvent(event) {
				return
			}
		case <-s.stopEventsListener:
			return
		}
	}
}

// handleNodeEvent applies a memberlist notification to the member table.
// It returns false once the service is stopping.
func (s *Service) handleNodeEvent(event memberlist.NodeEvent) bool {
	if event.Node == nil || event.Node.Name == s.self.Name {
		return true
	}

	peer, err := peerFromMeta(event.Node.Meta)
	if err != nil {
		s.logger.Warnf("%s skipped event of node=%s: %v", s.self.String(), event.Node.Name, err)
		return true
	}

	switch event.Event {
	case memberlist.NodeJoin:
		s.logger.Infof("%s peer=%s joined", s.self.String(), peer.Name)
		return s.memberUp(peer)
	case memberlist.NodeLeave:
		if event.Node.State == memberlist.StateLeft {
			s.emit(newEvent(s.members.set(peer, Leaving), MemberLeft))
		}
		s.logger.Infof("%s peer=%s removed", s.self.String(), peer.Name)
		s.memberRemoved(peer)
	case memberlist.NodeUpdate:
		// a node restarted on the address of a member not yet detected as
		// failed is only seen as a metadata update
		current, ok := s.members.get(peer.Name)
		if ok && current.Incarnation == peer.Incarnation {
			return true
		}
		if ok && current.Status.Active() {
			s.logger.Infof("%s peer=%s restarted with incarnation=%s", s.self.String(), peer.Name, peer.Incarnation)
			s.memberRemoved(current.peer())
		}
		return s.memberUp(peer)
	}
	return true
}

// memberUp announces the peer and queues the push of the local partition
func (s *Service) memberUp(peer *Peer) bool {
	s.emit(newEvent(s.members.set(peer, Joining), MemberJoined))
	s.emit(newEvent(s.members.set(peer, Up), MemberUp))
	select {
	case s.joinedQueue <- peer:
		return true
	case <-s.stopEventsListener:
		return false
	}
}

// memberRemoved retires the peer incarnation and its message queues
func (s *Service) memberRemoved(peer *Peer) {
	removed := s.members.set(peer, Removed)
	s.dropQueues(peer)
	s.emit(newEvent(removed, MemberRemoved))
}

// handleJoinedPeers pushes the local partition to newly joined peers
func (s *Service) handleJoinedPeers(ctx context.Context) {
	defer close(s.joinedDone)
	for peer := range s.joinedQueue {
		frame, err := encodeFrame(stateFrame, &envelope{
			From:        s.self.Name,
			Incarnation: s.self.Incarnation,
			Payload:     s.handler.LocalPartition(),
		})
		if err != nil {
			s.logger.Error(fmt.Errorf("%s failed to encode handshake state: %w", s.self.String(), err))
			continue
		}

		pushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
		if err := s.pushFrame(pushCtx, peer, frame); err != nil {
			s.logger.Error(fmt.Errorf("%s failed to push state to joined peer=%s: %w", s.self.String(), peer.Name, err))
		}
		cancel()
	}
}

// pushFrame writes the frame to the peer with retries
func (s *Service) pushFrame(ctx context.Context, peer *Peer, frame []byte) error {
	retrier := retry.NewRetrier(s.broadcastMaxRetries, s.broadcastRetryInterval, s.broadcastRetryInterval)
	return retrier.RunContext(ctx, func(context.Context) error {
		node := s.memberNode(peer.Name)
		if node == nil {
			return gerrors.ErrPeerNotFound
		}
		return s.memberlist.SendReliable(node, frame)
	})
}

func (s *Service) memberNode(name string) *memberlist.Node {
	for _, node := range s.memberlist.Members() {
		if node.Name == name && (node.State == memberlist.StateAlive || node.State == memberlist.StateSuspect) {
			return node
		}
	}
	return nil
}

// handleFrame dispatches a frame received through memberlist
func (s *Service) handleFrame(buf []byte) {
	kind, env, err := decodeFrame(buf)
	if err != nil {
		s.logger.Warnf("%s dropped frame: %v", s.self.String(), err)
		return
	}

	switch kind {
	case stateFrame:
		if !s.members.accepts(env.From, env.Incarnation) {
			s.logger.Debugf("%s dropped state of inactive peer=%s", s.self.String(), env.From)
			return
		}
		s.handler.MergeState(env.From, env.Payload)
	case messageFrame:
		s.inboxFor(env.From, env.Incarnation).receive(env.Seq, env.Payload)
	}
}

func (s *Service) outboxFor(target *Peer) *outbox {
	s.outboxesLock.Lock()
	defer s.outboxesLock.Unlock()

	key := target.key()
	if box, ok := s.outboxes[key]; ok {
		return box
	}

	box := newOutbox(target)
	s.outboxes[key] = box
	go box.run(s.writeMessage)
	return box
}

func (s *Service) writeMessage(target *Peer, frame []byte) {
	node := s.memberNode(target.Name)
	if node == nil {
		s.logger.Warnf("%s dropped message to unreachable peer=%s", s.self.String(), target.Name)
		return
	}
	if err := s.memberlist.SendReliable(node, frame); err != nil {
		s.logger.Error(fmt.Errorf("%s failed to send message to peer=%s: %w", s.self.String(), target.Name, err))
	}
}

func (s *Service) inboxFor(from, incarnation string) *inbox {
	s.inboxesLock.Lock()
	defer s.inboxesLock.Unlock()

	key := from + "#" + incarnation
	if box, ok := s.inboxes[key]; ok {
		return box
	}

	box := newInbox(s.reorderTimeout, func(payload []byte) {
		s.handler.HandleMessage(from, payload)
	})
	s.inboxes[key] = box
	return box
}

// dropQueues releases the message queues of a removed peer incarnation
func (s *Service) dropQueues(peer *Peer) {
	key := peer.key()

	s.outboxesLock.Lock()
	box, ok := s.outboxes[key]
	delete(s.outboxes, key)
	s.outboxesLock.Unlock()
	if ok {
		box.dispose()
	}

	s.inboxesLock.Lock()
	in, ok := s.inboxes[key]
	delete(s.inboxes, key)
	s.inboxesLock.Unlock()
	if ok {
		in.close()
	}
}

func (s *Service) closeQueues() {
	s.outboxesLock.Lock()
	outboxes := s.outboxes
	s.outboxes = make(map[string]*outbox)
	s.outboxesLock.Unlock()
	for _, box := range outboxes {
		box.dispose()
	}

	s.inboxesLock.Lock()
	inboxes := s.inboxes
	s.inboxes = make(map[string]*inbox)
	s.inboxesLock.Unlock()
	for _, box := range inboxes {
		box.close()
	}
}

// maxRetries returns the number of attempts fitting in the timeout
func maxRetries(timeout, interval time.Duration) int {
	if interval <= 0 {
		return 1
	}
	attempts := int(timeout / interval)
	if attempts < 1 {
		return 1
	}
	return attempts
}
