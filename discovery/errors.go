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

package discovery

import "errors"

// Lifecycle errors shared by the providers. The membership service calls
// Initialize, Register, DiscoverPeers, Deregister then Close in that order.
var (
	ErrAlreadyInitialized = errors.New("discovery provider already initialized")
	ErrNotInitialized     = errors.New("discovery provider not initialized")
	ErrAlreadyRegistered  = errors.New("node already registered with the discovery provider")
	ErrNotRegistered      = errors.New("node not registered with the discovery provider")
	// ErrInvalidConfig is joined with the validation error of a provider configuration
	ErrInvalidConfig = errors.New("invalid discovery provider configuration")
)
