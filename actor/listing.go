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

import "slices"

// Listing is the set of actors registered under a key across the
// cluster. Every delivery carries the full set, never a delta.
type Listing struct {
	key  Key
	refs []*PID
}

// Key returns the key the listing is about
func (l *Listing) Key() Key {
	return l.key
}

// Refs returns the registered actors ordered by address
func (l *Listing) Refs() []*PID {
	return slices.Clone(l.refs)
}

// IsForKey reports whether the listing is about the given key
func (l *Listing) IsForKey(key Key) bool {
	return key != nil && l.key.ID() == key.ID()
}

// Len returns the number of registered actors
func (l *Listing) Len() int {
	return len(l.refs)
}

// ServiceInstances returns the refs of the listing when it is about key,
// nil otherwise
func ServiceInstances[M any](listing *Listing, key ServiceKey[M]) []*PID {
	if listing == nil || !listing.IsForKey(key) {
		return nil
	}
	return listing.Refs()
}

// SubscribeOption configures a receptionist subscription
type SubscribeOption interface {
	// Apply sets the Option value of a subscription.
	Apply(sub *subscription)
}

var _ SubscribeOption = subscribeOption(nil)

type subscribeOption func(sub *subscription)

func (f subscribeOption) Apply(sub *subscription) {
	f(sub)
}

// WithListingAdapter converts each listing into a message of the
// subscriber's own protocol before delivery. A nil result skips the
// delivery.
func WithListingAdapter(adapter func(listing *Listing) any) SubscribeOption {
	return subscribeOption(func(sub *subscription) {
		sub.adapter = adapter
	})
}
