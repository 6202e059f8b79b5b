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

package directory

import (
	"slices"

	goset "github.com/deckarep/golang-set/v2"
)

// Partition is the slice of the directory owned by one node: the refs
// registered by actors living on that node, grouped by service key id.
// Only the owning node writes its partition; every write bumps Version.
type Partition struct {
	Node        string              `cbor:"1,keyasint"`
	Incarnation string              `cbor:"2,keyasint"`
	Version     uint64              `cbor:"3,keyasint"`
	Entries     map[string][]string `cbor:"4,keyasint,omitempty"`
}

// newer reports whether p supersedes other for the same node
func (p *Partition) newer(other *Partition) bool {
	if other == nil {
		return true
	}
	if p.Incarnation != other.Incarnation {
		return true
	}
	return p.Version > other.Version
}

// partitionSets is the in-memory form of a Partition
type partitionSets struct {
	node        string
	incarnation string
	version     uint64
	entries     map[string]goset.Set[string]
}

func newPartitionSets(node, incarnation string) *partitionSets {
	return &partitionSets{
		node:        node,
		incarnation: incarnation,
		entries:     make(map[string]goset.Set[string]),
	}
}

func fromPartition(p *Partition) *partitionSets {
	sets := newPartitionSets(p.Node, p.Incarnation)
	sets.version = p.Version
	for key, refs := range p.Entries {
		if len(refs) == 0 {
			continue
		}
		sets.entries[key] = goset.NewThreadUnsafeSet(refs...)
	}
	return sets
}

func (x *partitionSets) add(key, ref string) bool {
	set, ok := x.entries[key]
	if !ok {
		set = goset.NewThreadUnsafeSet[string]()
		x.entries[key] = set
	}
	if !set.Add(ref) {
		return false
	}
	x.version++
	return true
}

func (x *partitionSets) remove(key, ref string) bool {
	set, ok := x.entries[key]
	if !ok || !set.Contains(ref) {
		return false
	}
	set.Remove(ref)
	if set.Cardinality() == 0 {
		delete(x.entries, key)
	}
	x.version++
	return true
}

func (x *partitionSets) keys() []string {
	keys := make([]string, 0, len(x.entries))
	for key := range x.entries {
		keys = append(keys, key)
	}
	return keys
}

func (x *partitionSets) toPartition() *Partition {
	entries := make(map[string][]string, len(x.entries))
	for key, set := range x.entries {
		refs := set.ToSlice()
		slices.Sort(refs)
		entries[key] = refs
	}
	return &Partition{
		Node:        x.node,
		Incarnation: x.incarnation,
		Version:     x.version,
		Entries:     entries,
	}
}

// changedKeys returns the keys whose ref sets differ between both partitions
func changedKeys(before, after *partitionSets) []string {
	seen := goset.NewThreadUnsafeSet[string]()
	var changed []string
	compare := func(key string) {
		if !seen.Add(key) {
			return
		}
		var left, right goset.Set[string]
		if before != nil {
			left = before.entries[key]
		}
		if after != nil {
			right = after.entries[key]
		}
		switch {
		case left == nil && right == nil:
		case left == nil || right == nil:
			changed = append(changed, key)
		case !left.Equal(right):
			changed = append(changed, key)
		}
	}
	if before != nil {
		for key := range before.entries {
			compare(key)
		}
	}
	if after != nil {
		for key := range after.entries {
			compare(key)
		}
	}
	return changed
}
