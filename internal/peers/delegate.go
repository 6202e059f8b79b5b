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
	"sync"

	"github.com/hashicorp/memberlist"
)

// delegate implements memberlist.Delegate
type delegate struct {
	*sync.RWMutex
	meta    []byte
	service *Service
}

var _ memberlist.Delegate = (*delegate)(nil)

func newDelegate(meta []byte, service *Service) *delegate {
	return &delegate{
		RWMutex: &sync.RWMutex{},
		meta:    meta,
		service: service,
	}
}

// NodeMeta is used to retrieve meta-data about the current node
// when broadcasting an alive message. Its length is limited to
// the given byte size.
func (d *delegate) NodeMeta(limit int) []byte {
	d.RLock()
	defer d.RUnlock()
	if len(d.meta) > limit {
		return nil
	}
	return d.meta
}

// NotifyMsg is called when a user-data message is received.
// The buffer is only valid during the call, hence the copy.
func (d *delegate) NotifyMsg(bytes []byte) {
	buf := make([]byte, len(bytes))
	copy(buf, bytes)
	d.service.handleFrame(buf)
}

// GetBroadcasts is not used: state travels through direct pushes
// and the periodic push/pull exchange.
func (d *delegate) GetBroadcasts(int, int) [][]byte {
	return nil
}

// LocalState returns the full directory state during push/pull
func (d *delegate) LocalState(bool) []byte {
	return d.service.handler.LocalState()
}

// MergeRemoteState merges the state received during push/pull
func (d *delegate) MergeRemoteState(buf []byte, _ bool) {
	if len(buf) == 0 {
		return
	}
	d.service.handler.MergeState("", buf)
}
