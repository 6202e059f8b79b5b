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
	"slices"
	"strings"
	"sync"
)

// MemberStatus is the lifecycle stage of a cluster member
type MemberStatus int

const (
	// Joining is the status of a node that has started but not yet joined
	Joining MemberStatus = iota
	// Up is the status of a member taking part in the cluster
	Up
	// Leaving is the status of a member gracefully exiting
	Leaving
	// Removed is the terminal status of a member
	Removed
)

func (s MemberStatus) String() string {
	switch s {
	case Joining:
		return "Joining"
	case Up:
		return "Up"
	case Leaving:
		return "Leaving"
	case Removed:
		return "Removed"
	default:
		return "Unknown"
	}
}

// Active reports whether state may be exchanged with a member in this status
func (s MemberStatus) Active() bool {
	return s == Joining || s == Up
}

// Member is a snapshot of a cluster member
type Member struct {
	Name        string
	Host        string
	Port        int
	System      string
	Incarnation string
	Status      MemberStatus
}

func newMember(peer *Peer, status MemberStatus) Member {
	return Member{
		Name:        peer.Name,
		Host:        peer.Host,
		Port:        peer.Port,
		System:      peer.System,
		Incarnation: peer.Incarnation,
		Status:      status,
	}
}

func (m Member) peer() *Peer {
	return &Peer{
		Name:        m.Name,
		Host:        m.Host,
		Port:        m.Port,
		System:      m.System,
		Incarnation: m.Incarnation,
	}
}

// memberTable keeps the last known status of every member seen, the local
// node included. Removed members stay in the table until the same name
// joins again.
type memberTable struct {
	mu      sync.RWMutex
	members map[string]Member
}

func newMemberTable() *memberTable {
	return &memberTable{members: make(map[string]Member)}
}

func (x *memberTable) set(peer *Peer, status MemberStatus) Member {
	member := newMember(peer, status)
	x.mu.Lock()
	x.members[peer.Name] = member
	x.mu.Unlock()
	return member
}

func (x *memberTable) get(name string) (Member, bool) {
	x.mu.RLock()
	member, ok := x.members[name]
	x.mu.RUnlock()
	return member, ok
}

// accepts reports whether state coming from the given peer incarnation
// may be merged. Unknown senders are accepted: their state may arrive
// before the join notification.
func (x *memberTable) accepts(name, incarnation string) bool {
	member, ok := x.get(name)
	if !ok || member.Incarnation != incarnation {
		return true
	}
	return member.Status.Active()
}

func (x *memberTable) list() []Member {
	x.mu.RLock()
	members := make([]Member, 0, len(x.members))
	for _, member := range x.members {
		members = append(members, member)
	}
	x.mu.RUnlock()
	slices.SortFunc(members, func(a, b Member) int {
		return strings.Compare(a.Name, b.Name)
	})
	return members
}
