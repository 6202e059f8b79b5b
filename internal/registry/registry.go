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

package registry

import (
	"reflect"
	"strings"

	"github.com/tochemey/typedakt/internal/xsync"
)

// Registry maps wire names to Go types so that a decoder can rebuild the
// concrete value a peer sent.
type Registry interface {
	// Register records the type of v. Pointer and value forms register the same name.
	Register(v any)
	// Exists reports whether the type of v is registered
	Exists(v any) bool
	// TypeOf returns the registered (non pointer) type for a wire name
	TypeOf(name string) (reflect.Type, bool)
}

type registry struct {
	types *xsync.Map[string, reflect.Type]
}

var _ Registry = (*registry)(nil)

// NewRegistry creates a new types registry
func NewRegistry() Registry {
	return &registry{types: xsync.NewMap[string, reflect.Type]()}
}

func (x *registry) Register(v any) {
	rtype := elemType(v)
	if rtype == nil {
		return
	}
	x.types.Set(normalize(rtype.String()), rtype)
}

func (x *registry) Exists(v any) bool {
	rtype := elemType(v)
	if rtype == nil {
		return false
	}
	_, ok := x.types.Get(normalize(rtype.String()))
	return ok
}

func (x *registry) TypeOf(name string) (reflect.Type, bool) {
	return x.types.Get(normalize(name))
}

// Name returns the wire name of v and whether v is a pointer.
func Name(v any) (string, bool) {
	rtype := reflect.TypeOf(v)
	if rtype == nil {
		return "", false
	}
	pointer := rtype.Kind() == reflect.Pointer
	if pointer {
		rtype = rtype.Elem()
	}
	return normalize(rtype.String()), pointer
}

func elemType(v any) reflect.Type {
	var rtype reflect.Type
	switch x := v.(type) {
	case nil:
		return nil
	case reflect.Type:
		rtype = x
	default:
		rtype = reflect.TypeOf(v)
	}
	if rtype.Kind() == reflect.Pointer {
		rtype = rtype.Elem()
	}
	return rtype
}

func normalize(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}
