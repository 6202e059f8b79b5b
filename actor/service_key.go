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
	"reflect"
	"strings"
)

// Key identifies a group of actors in the receptionist
type Key interface {
	// ID returns the identifier the directory is indexed with
	ID() string
	// Name returns the name the key was created with
	Name() string
}

// ServiceKey identifies actors accepting messages of type M. Two keys with
// the same name but different message types are different keys.
type ServiceKey[M any] struct {
	name string
	id   string
}

var _ Key = ServiceKey[any]{}

// NewServiceKey creates a ServiceKey for the message type M
func NewServiceKey[M any](name string) ServiceKey[M] {
	name = strings.TrimSpace(name)
	return ServiceKey[M]{
		name: name,
		id:   name + "/" + reflect.TypeFor[M]().String(),
	}
}

// ID returns the key identifier
func (k ServiceKey[M]) ID() string {
	return k.id
}

// Name returns the key name
func (k ServiceKey[M]) Name() string {
	return k.name
}

// String returns the key identifier
func (k ServiceKey[M]) String() string {
	return k.id
}

func validKey(key Key) bool {
	return key != nil && key.Name() != "" && key.ID() != ""
}
