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

import "time"

// EventType defines the cluster event type
type EventType int

const (
	// MemberJoined is emitted when a node is first seen
	MemberJoined EventType = iota
	// MemberUp is emitted when a node becomes a full member
	MemberUp
	// MemberLeft is emitted when a node starts leaving gracefully
	MemberLeft
	// MemberRemoved is emitted when a node is gone for good
	MemberRemoved
)

func (x EventType) String() string {
	switch x {
	case MemberJoined:
		return "MemberJoined"
	case MemberUp:
		return "MemberUp"
	case MemberLeft:
		return "MemberLeft"
	case MemberRemoved:
		return "MemberRemoved"
	default:
		return "Unknown"
	}
}

// Event defines the cluster event
type Event struct {
	Member Member
	Type   EventType
	Time   time.Time
}

func newEvent(member Member, eventType EventType) *Event {
	return &Event{Member: member, Type: eventType, Time: time.Now().UTC()}
}
