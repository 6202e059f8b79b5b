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
	"slices"
	"time"

	"github.com/tochemey/typedakt/address"
	gerrors "github.com/tochemey/typedakt/errors"
	"github.com/tochemey/typedakt/internal/directory"
)

// receptionistName is the reserved name of the receptionist actor
const receptionistName = reservedNamesPrefix + "Receptionist"

// Receptionist is the directory of an actor system. Actors register under
// a service key and subscribers receive the full listing of the key each
// time it changes on any node of the cluster.
//
// Commands are processed in order by a system actor. Find reads the
// directory directly.
type Receptionist struct {
	system *actorSystem
	pid    *PID
	store  *directory.Store
}

type (
	register struct {
		key Key
		ref *PID
	}
	deregister struct {
		key Key
		ref *PID
	}
	subscribe struct {
		key        Key
		subscriber *PID
		adapter    func(*Listing) any
	}
	unsubscribe struct {
		key        Key
		subscriber *PID
	}
	actorTerminated struct {
		ref *PID
	}
	mergePartitions struct {
		partitions []*directory.Partition
	}
	purgeNode struct {
		node        string
		incarnation string
	}
)

// subscription is the delivery target of the listings of a key
type subscription struct {
	subscriber *PID
	adapter    func(*Listing) any
}

// Register adds ref to the actors registered under key. Registering the
// same ref twice is a no-op. The ref is removed once the actor stops.
func (r *Receptionist) Register(ctx context.Context, key Key, ref *PID) error {
	if !validKey(key) {
		return gerrors.ErrInvalidServiceKey
	}
	if ref == nil {
		return gerrors.ErrUndefinedActor
	}
	if !ref.IsLocal() {
		return gerrors.ErrNotLocal
	}
	return r.system.tell(ctx, nil, r.pid, &register{key: key, ref: ref})
}

// Deregister removes ref from the actors registered under key
func (r *Receptionist) Deregister(ctx context.Context, key Key, ref *PID) error {
	if !validKey(key) {
		return gerrors.ErrInvalidServiceKey
	}
	if ref == nil {
		return gerrors.ErrUndefinedActor
	}
	if !ref.IsLocal() {
		return gerrors.ErrNotLocal
	}
	return r.system.tell(ctx, nil, r.pid, &deregister{key: key, ref: ref})
}

// Subscribe delivers the current listing of key to the subscriber, then a
// new listing each time the set of registered actors changes. Subscribing
// again replaces the previous subscription of the same actor.
func (r *Receptionist) Subscribe(ctx context.Context, key Key, subscriber *PID, opts ...SubscribeOption) error {
	if !validKey(key) {
		return gerrors.ErrInvalidServiceKey
	}
	if subscriber == nil {
		return gerrors.ErrUndefinedActor
	}
	if !subscriber.IsLocal() {
		return gerrors.ErrNotLocal
	}

	sub := &subscription{subscriber: subscriber}
	for _, opt := range opts {
		opt.Apply(sub)
	}
	return r.system.tell(ctx, nil, r.pid, &subscribe{key: key, subscriber: subscriber, adapter: sub.adapter})
}

// Unsubscribe stops the deliveries of listings of key to the subscriber
func (r *Receptionist) Unsubscribe(ctx context.Context, key Key, subscriber *PID) error {
	if !validKey(key) {
		return gerrors.ErrInvalidServiceKey
	}
	if subscriber == nil {
		return gerrors.ErrUndefinedActor
	}
	return r.system.tell(ctx, nil, r.pid, &unsubscribe{key: key, subscriber: subscriber})
}

// Find returns the actors currently registered under key across the
// cluster as known by this node
func (r *Receptionist) Find(key Key) []*PID {
	if !validKey(key) {
		return nil
	}
	return r.system.resolveRefs(r.store.Lookup(key.ID()))
}

// receptionistBehavior is the state of the receptionist actor
type receptionistBehavior struct {
	system        *actorSystem
	store         *directory.Store
	keys          map[string]Key
	subscriptions map[string]map[string]*subscription
	digests       map[string]uint64
}

var _ Behavior = (*receptionistBehavior)(nil)

func newReceptionistBehavior(system *actorSystem, store *directory.Store) *receptionistBehavior {
	return &receptionistBehavior{
		system:        system,
		store:         store,
		keys:          make(map[string]Key),
		subscriptions: make(map[string]map[string]*subscription),
		digests:       make(map[string]uint64),
	}
}

// Receive handles the receptionist commands
func (x *receptionistBehavior) Receive(ctx *Context, message any) Behavior {
	switch msg := message.(type) {
	case *register:
		// the actor may have stopped while the command was queued
		if !msg.ref.IsRunning() {
			return Same()
		}
		x.keys[msg.key.ID()] = msg.key
		if x.store.Add(msg.key.ID(), msg.ref.String()) {
			x.changed(ctx, []string{msg.key.ID()}, true)
		}
	case *deregister:
		if x.store.Remove(msg.key.ID(), msg.ref.String()) {
			x.changed(ctx, []string{msg.key.ID()}, true)
		}
	case *subscribe:
		// a stopped subscriber would never be dropped
		if !msg.subscriber.IsRunning() {
			return Same()
		}
		x.subscribe(ctx, msg)
	case *unsubscribe:
		if subs, ok := x.subscriptions[msg.key.ID()]; ok {
			delete(subs, msg.subscriber.String())
			if len(subs) == 0 {
				delete(x.subscriptions, msg.key.ID())
			}
		}
	case *actorTerminated:
		x.dropSubscriber(msg.ref)
		if keys := x.store.RemoveRef(msg.ref.String()); len(keys) > 0 {
			x.changed(ctx, keys, true)
		}
	case *mergePartitions:
		var keys []string
		for _, partition := range msg.partitions {
			keys = append(keys, x.store.Merge(partition)...)
		}
		slices.Sort(keys)
		x.changed(ctx, slices.Compact(keys), false)
	case *purgeNode:
		if keys := x.store.Purge(msg.node, msg.incarnation); len(keys) > 0 {
			x.changed(ctx, keys, false)
		}
	case *PostStop:
		return Same()
	default:
		return Unhandled()
	}
	return Same()
}

func (x *receptionistBehavior) subscribe(ctx *Context, msg *subscribe) {
	keyID := msg.key.ID()
	x.keys[keyID] = msg.key

	subs, ok := x.subscriptions[keyID]
	if !ok {
		subs = make(map[string]*subscription)
		x.subscriptions[keyID] = subs
	}
	sub := &subscription{subscriber: msg.subscriber, adapter: msg.adapter}
	subs[msg.subscriber.String()] = sub

	refs := x.store.Lookup(keyID)
	x.digests[keyID] = directory.Digest(refs)
	x.deliver(ctx, sub, x.listing(keyID, refs))
}

// changed notifies the subscribers of the keys whose listing differs from
// the last one delivered, then replicates the local partition when it was
// modified by this node
func (x *receptionistBehavior) changed(ctx *Context, keys []string, local bool) {
	for _, keyID := range keys {
		refs := x.store.Lookup(keyID)
		digest := directory.Digest(refs)
		if previous, ok := x.digests[keyID]; ok && previous == digest {
			continue
		}
		x.digests[keyID] = digest

		subs := x.subscriptions[keyID]
		if len(subs) == 0 {
			continue
		}
		listing := x.listing(keyID, refs)
		for _, sub := range subs {
			x.deliver(ctx, sub, listing)
		}
	}

	if local {
		x.system.replicate()
	}
}

func (x *receptionistBehavior) deliver(ctx *Context, sub *subscription, listing *Listing) {
	var message any = listing
	if sub.adapter != nil {
		message = sub.adapter(listing)
		if message == nil {
			return
		}
	}
	ctx.Tell(sub.subscriber, message)
}

func (x *receptionistBehavior) listing(keyID string, refs []string) *Listing {
	return &Listing{key: x.keys[keyID], refs: x.system.resolveRefs(refs)}
}

func (x *receptionistBehavior) dropSubscriber(ref *PID) {
	name := ref.String()
	for keyID, subs := range x.subscriptions {
		delete(subs, name)
		if len(subs) == 0 {
			delete(x.subscriptions, keyID)
		}
	}
}

// resolveRefs turns directory entries into references, local ones when
// the actor lives on this node
func (x *actorSystem) resolveRefs(refs []string) []*PID {
	pids := make([]*PID, 0, len(refs))
	for _, ref := range refs {
		addr, err := address.Parse(ref)
		if err != nil {
			x.logger.Warnf("skipping invalid directory entry=(%s): %v", ref, err)
			continue
		}
		if pid := x.localPID(addr); pid != nil {
			pids = append(pids, pid)
			continue
		}
		pids = append(pids, newRemotePID(x, addr))
	}
	return pids
}

// replicate pushes the local partition to the cluster members
func (x *actorSystem) replicate() {
	if x.cluster == nil || !x.cluster.Joined() {
		return
	}

	state, err := directory.Encode(x.directory.LocalPartition())
	if err != nil {
		x.logger.Errorf("failed to encode the local directory: %v", err)
		return
	}

	x.replications.Add(1)
	go func() {
		defer x.replications.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := x.cluster.Broadcast(ctx, state); err != nil {
			x.logger.Warnf("failed to replicate the local directory: %v", err)
		}
	}()
}
