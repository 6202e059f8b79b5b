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

package remote

import (
	"encoding/binary"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gerrors "github.com/tochemey/typedakt/errors"
)

type testEnable struct {
	Pin string `cbor:"pin"`
}

type testActivity struct{}

type testNested struct {
	Inner testEnable        `cbor:"inner"`
	Tags  []string          `cbor:"tags"`
	Meta  map[string]string `cbor:"meta"`
	At    time.Time         `cbor:"at"`
}

type testUnregistered struct {
	ID int
}

type testUnencodable struct {
	Ch chan int
}

func TestCBORSerializer(t *testing.T) {
	RegisterSerializableTypes(new(testEnable), testActivity{}, new(testNested), new(testUnencodable))
	serializer := NewCBORSerializer()

	t.Run("With pointer message", func(t *testing.T) {
		data, err := serializer.Serialize(&testEnable{Pin: "0000"})
		require.NoError(t, err)

		actual, err := serializer.Deserialize(data)
		require.NoError(t, err)
		decoded, ok := actual.(*testEnable)
		require.True(t, ok)
		assert.Equal(t, "0000", decoded.Pin)
	})
	t.Run("With value message keeps the value shape", func(t *testing.T) {
		data, err := serializer.Serialize(testActivity{})
		require.NoError(t, err)

		actual, err := serializer.Deserialize(data)
		require.NoError(t, err)
		assert.IsType(t, testActivity{}, actual)
	})
	t.Run("With nested message", func(t *testing.T) {
		at := time.Unix(1700000000, 0).UTC()
		orig := &testNested{
			Inner: testEnable{Pin: "1234"},
			Tags:  []string{"a", "b"},
			Meta:  map[string]string{"k": "v"},
			At:    at,
		}
		data, err := serializer.Serialize(orig)
		require.NoError(t, err)

		actual, err := serializer.Deserialize(data)
		require.NoError(t, err)
		decoded := actual.(*testNested)
		assert.Equal(t, orig.Inner, decoded.Inner)
		assert.Equal(t, orig.Tags, decoded.Tags)
		assert.Equal(t, orig.Meta, decoded.Meta)
		assert.True(t, at.Equal(decoded.At))
	})
	t.Run("With nil message", func(t *testing.T) {
		_, err := serializer.Serialize(nil)
		assert.ErrorIs(t, err, ErrNilMessage)
	})
	t.Run("With unregistered type", func(t *testing.T) {
		assert.False(t, IsRegistered(new(testUnregistered)))
		_, err := serializer.Serialize(&testUnregistered{ID: 1})
		assert.ErrorIs(t, err, gerrors.ErrTypeNotRegistered)
	})
	t.Run("With unencodable value", func(t *testing.T) {
		_, err := serializer.Serialize(&testUnencodable{Ch: make(chan int)})
		assert.ErrorIs(t, err, ErrSerializeFailed)
	})
	t.Run("With truncated frame", func(t *testing.T) {
		_, err := serializer.Deserialize([]byte{0, 1})
		assert.ErrorIs(t, err, ErrInvalidFrame)

		data, err := serializer.Serialize(&testEnable{Pin: "0000"})
		require.NoError(t, err)
		_, err = serializer.Deserialize(data[:len(data)-1])
		assert.ErrorIs(t, err, ErrInvalidFrame)
	})
	t.Run("With inconsistent name length", func(t *testing.T) {
		data, err := serializer.Serialize(&testEnable{Pin: "0000"})
		require.NoError(t, err)
		binary.BigEndian.PutUint16(data[5:7], uint16(len(data)))
		_, err = serializer.Deserialize(data)
		assert.ErrorIs(t, err, ErrInvalidFrame)
	})
	t.Run("With unknown type name", func(t *testing.T) {
		data, err := serializer.Serialize(&testEnable{Pin: "0000"})
		require.NoError(t, err)
		data[headerSize] = 'x'
		_, err = serializer.Deserialize(data)
		assert.ErrorIs(t, err, gerrors.ErrTypeNotRegistered)
	})
	t.Run("With corrupted payload", func(t *testing.T) {
		data, err := serializer.Serialize(&testEnable{Pin: "0000"})
		require.NoError(t, err)
		start := headerSize + int(binary.BigEndian.Uint16(data[5:7]))
		data[start] = 0xff
		_, err = serializer.Deserialize(data)
		assert.ErrorIs(t, err, ErrDeserializeFailed)
	})
}
