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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type enable struct {
	Pin string
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	assert.False(t, reg.Exists(new(enable)))

	reg.Register(new(enable))
	assert.True(t, reg.Exists(enable{}))
	assert.True(t, reg.Exists(new(enable)))

	name, pointer := Name(&enable{Pin: "0000"})
	assert.True(t, pointer)
	assert.Equal(t, "registry.enable", name)

	name, pointer = Name(enable{})
	assert.False(t, pointer)

	rtype, ok := reg.TypeOf(name)
	require.True(t, ok)
	assert.Equal(t, reflect.TypeOf(enable{}), rtype)

	reg.Register(nil)
	_, ok = reg.TypeOf("")
	assert.False(t, ok)
}
