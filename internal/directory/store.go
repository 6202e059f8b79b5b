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

// Package directory holds the replicated service directory of a node.
//
// The directory is a set of partitions, one per cluster node. The local
// partition is written by the node itself; remote partitions are replaced
// wholesale when a newer version arrives, which makes merges idempotent
// and insensitive to the order in which replicas are received.
package directory

import (
	"slices"
	"sync"

	goset "github.com/deckarep/golang-set/v2"
)

// Membership returns the incarnation the cluster currently knows for
// node and whether that incarnation is active. known is false when the
// node has not been seen yet.
type Membership func(node string) (incarnation string, active, known bool)

// Option configures a Store
type Option func(*Store)

// WithMembership makes the store check merged partitions against the
// cluster membership. Partitions of inactive members or of an incarnation
// other than the current one are dropped.
func WithMembership(membership Membership) Option {
	return func(s *Store) {
		s.membership = membership
	}
}

// Store is safe for concurrent use
type Store struct {
	mu         sync.RWMutex
	local      *partitionSets
	remotes    map[string]*partitionSets
	tombstones goset.Set[string]
	membership Membership
}

// NewStore creates the directory of the given node incarnation
func NewStore(node, incarnation string, opts ...Option) *Store {
	store := &Store{
		local:      newPartitionSets(node, incarnation),
		remotes:    make(map[string]*partitionSets),
		tombstones: goset.NewThreadUnsafeSet[string](),
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

// Node returns the name of the owning node
func (s *Store) Node() string {
	return s.local.node
}

// Add registers ref under key in the local partition.
// It reports whether the partition changed.
func (s *Store) Add(key, ref string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.local.add(key, ref)
}

// Remove deregisters ref from key in the local partition.
// It reports whether the partition changed.
func (s *Store) Remove(key, ref string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.local.remove(key, ref)
}

// RemoveRef deregisters ref from every key of the local partition and
// returns the keys it was removed from.
func (s *Store) RemoveRef(ref string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var changed []string
	for _, key := range s.local.keys() {
		if s.local.remove(key, ref) {
			changed = append(changed, key)
		}
	}
	return changed
}

// LocalPartition returns a copy of the local partition
func (s *Store) LocalPartition() *Partition {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.local.toPartition()
}

// Snapshot returns a copy of every partition, the local one first
func (s *Store) Snapshot() []*Partition {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Partition, 0, len(s.remotes)+1)
	out = append(out, s.local.toPartition())
	for _, remote := range s.remotes {
		out = append(out, remote.toPartition())
	}
	return out
}

// Merge applies a partition received from another node and returns the
// keys whose union changed. Partitions of this node, of purged
// incarnations, of incarnations the membership does not vouch for, or not
// newer than the known copy are ignored.
func (s *Store) Merge(partition *Partition) []string {
	if partition == nil || partition.Node == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if partition.Node == s.local.node {
		return nil
	}

	if s.tombstones.Contains(tombstone(partition.Node, partition.Incarnation)) {
		return nil
	}

	current := s.remotes[partition.Node]
	if !s.admits(partition, current) {
		return nil
	}

	var known *Partition
	if current != nil {
		known = &Partition{Incarnation: current.incarnation, Version: current.version}
	}

	if !partition.newer(known) {
		return nil
	}

	// a new incarnation of the node buries the previous one
	if current != nil && current.incarnation != partition.Incarnation {
		s.tombstones.Add(tombstone(current.node, current.incarnation))
	}

	return s.swap(partition.Node, current, fromPartition(partition))
}

// admits checks the partition against the membership. Without membership
// every partition is admitted. A node the membership has not seen yet may
// only publish the incarnation already held, so a late replica can never
// displace a live one.
func (s *Store) admits(partition *Partition, current *partitionSets) bool {
	if s.membership == nil {
		return true
	}

	incarnation, active, known := s.membership(partition.Node)
	if known {
		return active && incarnation == partition.Incarnation
	}
	return current == nil || current.incarnation == partition.Incarnation
}

// Purge removes the partition of the given node incarnation and prevents
// it from being merged again. An empty incarnation purges whatever
// incarnation is known. It returns the keys whose union changed.
func (s *Store) Purge(node, incarnation string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if node == s.local.node {
		return nil
	}

	current, ok := s.remotes[node]
	if incarnation == "" && ok {
		incarnation = current.incarnation
	}

	if incarnation != "" {
		s.tombstones.Add(tombstone(node, incarnation))
	}

	if !ok || current.incarnation != incarnation {
		return nil
	}

	return s.swap(node, current, nil)
}

// Lookup returns the sorted union of refs registered under key
func (s *Store) Lookup(key string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lookup(key)
}

// Keys returns every key with at least one ref
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := goset.NewThreadUnsafeSet(s.local.keys()...)
	for _, remote := range s.remotes {
		keys.Append(remote.keys()...)
	}
	out := keys.ToSlice()
	slices.Sort(out)
	return out
}

// Nodes returns the names of the nodes owning a remote partition
func (s *Store) Nodes() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	nodes := make([]string, 0, len(s.remotes))
	for node := range s.remotes {
		nodes = append(nodes, node)
	}
	slices.Sort(nodes)
	return nodes
}

func (s *Store) lookup(key string) []string {
	union := goset.NewThreadUnsafeSet[string]()
	if set, ok := s.local.entries[key]; ok {
		union = union.Union(set)
	}
	for _, remote := range s.remotes {
		if set, ok := remote.entries[key]; ok {
			union = union.Union(set)
		}
	}
	refs := union.ToSlice()
	slices.Sort(refs)
	return refs
}

// swap replaces the partition of a node and returns the keys whose union
// changed. A nil next removes the partition.
func (s *Store) swap(node string, current, next *partitionSets) []string {
	keys := changedKeys(current, next)
	before := make(map[string][]string, len(keys))
	for _, key := range keys {
		before[key] = s.lookup(key)
	}

	if next == nil {
		delete(s.remotes, node)
	} else {
		s.remotes[node] = next
	}

	var changed []string
	for _, key := range keys {
		if !slices.Equal(before[key], s.lookup(key)) {
			changed = append(changed, key)
		}
	}
	return changed
}

func tombstone(node, incarnation string) string {
	return node + "#" + incarnation
}
