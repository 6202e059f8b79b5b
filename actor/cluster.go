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

	"github.com/fxamacker/cbor/v2"

	"github.com/tochemey/typedakt/address"
	"github.com/tochemey/typedakt/discovery"
	gerrors "github.com/tochemey/typedakt/errors"
	"github.com/tochemey/typedakt/internal/directory"
	"github.com/tochemey/typedakt/internal/peers"
)

// remoteMessage is the payload of an actor message sent to another node
type remoteMessage struct {
	To      string `cbor:"1,keyasint"`
	From    string `cbor:"2,keyasint,omitempty"`
	Message []byte `cbor:"3,keyasint"`
}

// clusterBridge connects the membership layer to the actor system: it
// exposes the directory for replication and delivers remote messages
type clusterBridge struct {
	system *actorSystem
}

var _ peers.Handler = (*clusterBridge)(nil)

// LocalState returns the whole directory exchanged during push/pull
func (b *clusterBridge) LocalState() []byte {
	if b.system.directory == nil {
		return nil
	}
	state, err := directory.Encode(b.system.directory.Snapshot()...)
	if err != nil {
		b.system.logger.Errorf("failed to encode the directory: %v", err)
		return nil
	}
	return state
}

// LocalPartition returns the partition owned by this node
func (b *clusterBridge) LocalPartition() []byte {
	if b.system.directory == nil {
		return nil
	}
	state, err := directory.Encode(b.system.directory.LocalPartition())
	if err != nil {
		b.system.logger.Errorf("failed to encode the local directory: %v", err)
		return nil
	}
	return state
}

// MergeState hands the received partitions to the receptionist
func (b *clusterBridge) MergeState(from string, state []byte) {
	partitions, err := directory.Decode(state)
	if err != nil {
		if !errors.Is(err, directory.ErrEmptyState) {
			b.system.logger.Warnf("dropped invalid directory state from=(%s): %v", from, err)
		}
		return
	}

	receptionist := b.system.receptionist
	if receptionist == nil {
		return
	}
	if err := b.system.tell(context.Background(), nil, receptionist.pid, &mergePartitions{partitions: partitions}); err != nil {
		b.system.logger.Warnf("failed to merge directory state from=(%s): %v", from, err)
	}
}

// HandleMessage delivers a message sent by an actor of another node
func (b *clusterBridge) HandleMessage(from string, payload []byte) {
	x := b.system

	msg := new(remoteMessage)
	if err := cbor.Unmarshal(payload, msg); err != nil {
		x.logger.Warn(gerrors.NewErrInvalidRemoteMessage(fmt.Errorf("from=(%s): %w", from, err)))
		return
	}

	to, err := address.Parse(msg.To)
	if err != nil {
		x.logger.Warn(gerrors.NewErrInvalidAddress(msg.To, err))
		return
	}

	var sender *PID
	if msg.From != "" {
		if addr, err := address.Parse(msg.From); err == nil {
			sender = newRemotePID(x, addr)
		}
	}

	message, err := x.serializer.Deserialize(msg.Message)
	if err != nil {
		x.logger.Warn(gerrors.NewErrInvalidRemoteMessage(fmt.Errorf("from=(%s) to=(%s): %w", from, msg.To, err)))
		return
	}

	receiver := newRemotePID(x, to)
	local := x.localPID(to)
	if local == nil {
		x.deadLetter(sender, receiver, message, "actor not found")
		return
	}
	if err := local.enqueue(NewEnvelope(message, sender)); err != nil {
		x.deadLetter(sender, receiver, message, err.Error())
	}
}

// setupCluster creates the membership service of the node
func (x *actorSystem) setupCluster() error {
	config := x.clusterConfig
	node := &discovery.Node{
		Host:       config.host,
		GossipPort: config.gossipPort,
	}

	opts := []peers.Option{
		peers.WithLogger(x.logger),
		peers.WithJoinTimeout(config.joinTimeout),
		peers.WithJoinRetryInterval(config.joinRetryInterval),
		peers.WithShutdownTimeout(config.shutdownTimeout),
		peers.WithGossipInterval(config.gossipInterval),
		peers.WithProbeInterval(config.probeInterval),
		peers.WithPushPullInterval(config.pushPullInterval),
		peers.WithReorderTimeout(config.reorderTimeout),
	}
	if config.discovery != nil {
		opts = append(opts, peers.WithProvider(config.discovery))
	}

	service, err := peers.NewService(node, x.name, &clusterBridge{system: x}, opts...)
	if err != nil {
		return fmt.Errorf("failed to create cluster membership: %w", err)
	}
	x.cluster = service
	return nil
}

// Join makes the node part of the cluster
func (x *actorSystem) Join(ctx context.Context, seeds ...string) error {
	if !x.Running() {
		return gerrors.ErrActorSystemNotStarted
	}
	if x.cluster == nil {
		return gerrors.ErrClusterDisabled
	}
	if len(seeds) == 0 {
		seeds = x.clusterConfig.seeds
	}
	if err := x.cluster.Join(ctx, seeds...); err != nil {
		return err
	}

	// registrations made before joining
	x.replicate()
	return nil
}

// Leave gracefully removes the node from the cluster
func (x *actorSystem) Leave(ctx context.Context) error {
	if !x.started.Load() {
		return gerrors.ErrActorSystemNotStarted
	}
	if x.cluster == nil {
		return gerrors.ErrClusterDisabled
	}
	return x.cluster.Leave(ctx)
}

// Members returns the known cluster members, this node included
func (x *actorSystem) Members() ([]Member, error) {
	if !x.started.Load() {
		return nil, gerrors.ErrActorSystemNotStarted
	}
	if x.cluster == nil {
		return nil, gerrors.ErrClusterDisabled
	}
	return x.cluster.Members(), nil
}

// memberIncarnation tells the directory which incarnation of node is
// current and whether it is still active
func (x *actorSystem) memberIncarnation(node string) (string, bool, bool) {
	if x.cluster == nil {
		return "", false, false
	}
	member, ok := x.cluster.Member(node)
	if !ok {
		return "", false, false
	}
	return member.Incarnation, member.Status.Active(), true
}

// sendRemote serializes the message and queues it for the owning node
func (x *actorSystem) sendRemote(from, to *PID, message any) error {
	if x.cluster == nil {
		x.deadLetter(from, to, message, "cluster is not enabled")
		return nil
	}

	bytes, err := x.serializer.Serialize(message)
	if err != nil {
		return fmt.Errorf("failed to serialize message=(%T): %w", message, err)
	}

	payload, err := cbor.Marshal(&remoteMessage{
		To:      to.String(),
		From:    from.String(),
		Message: bytes,
	})
	if err != nil {
		return gerrors.NewErrRemoteSendFailure(err)
	}

	if err := x.cluster.Send(to.Address().HostPort(), payload); err != nil {
		if errors.Is(err, gerrors.ErrPeerNotFound) || errors.Is(err, peers.ErrServiceNotStarted) {
			x.deadLetter(from, to, message, "peer not found")
			return nil
		}
		return gerrors.NewErrRemoteSendFailure(err)
	}
	return nil
}

// consumeClusterEvents publishes the membership changes and purges the
// directory partition of removed members
func (x *actorSystem) consumeClusterEvents() {
	defer close(x.clusterEvents)
	self := x.cluster.Whoami().Name
	for event := range x.cluster.Events() {
		x.logger.Debugf("%s received cluster event=(%s) member=(%s)", x.name, event.Type, event.Member.Name)
		x.eventsStream.Publish(x.eventsTopic, event)

		if event.Type != peers.MemberRemoved || event.Member.Name == self {
			continue
		}
		if err := x.tell(context.Background(), nil, x.receptionist.pid, &purgeNode{
			node:        event.Member.Name,
			incarnation: event.Member.Incarnation,
		}); err != nil {
			x.logger.Warnf("failed to purge the directory of member=(%s): %v", event.Member.Name, err)
		}
	}
}
