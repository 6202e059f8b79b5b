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
	"errors"
	"fmt"
	"reflect"

	"github.com/fxamacker/cbor/v2"

	gerrors "github.com/tochemey/typedakt/errors"
	"github.com/tochemey/typedakt/internal/registry"
)

// typesRegistry resolves wire names on the receive path. It is shared by
// every CBORSerializer in the process.
var typesRegistry = registry.NewRegistry()

var (
	// ErrNilMessage is returned when serializing a nil message.
	ErrNilMessage = errors.New("remote: message is nil")
	// ErrSerializeFailed wraps CBOR marshaling errors.
	ErrSerializeFailed = errors.New("remote: failed to serialize message")
	// ErrDeserializeFailed wraps CBOR unmarshaling errors.
	ErrDeserializeFailed = errors.New("remote: failed to deserialize message")
	// ErrInvalidFrame is returned for truncated or inconsistent frames.
	ErrInvalidFrame = errors.New("remote: malformed or truncated frame")

	cborEncOpts = cbor.EncOptions{
		Sort:        cbor.SortNone,
		IndefLength: cbor.IndefLengthForbidden,
		Time:        cbor.TimeUnixDynamic,
	}
	cborDecOpts = cbor.DecOptions{
		MaxNestedLevels: 64,
		IndefLength:     cbor.IndefLengthForbidden,
		UTF8:            cbor.UTF8DecodeInvalid,
	}
)

const (
	headerSize  = 4 + 1 + 2
	pointerFlag = byte(1)
)

// CBORSerializer encodes registered Go types with CBOR.
//
// Frame layout, integers big-endian:
//
//	| totalLen u32 | flags u8 | nameLen u16 | type name | CBOR payload |
//
// The pointer flag records whether the sender passed a pointer so that the
// receiver hands the behavior the same shape it would have seen locally.
type CBORSerializer struct {
	encMode cbor.EncMode
	decMode cbor.DecMode
}

var _ Serializer = (*CBORSerializer)(nil)

// NewCBORSerializer returns a ready-to-use CBORSerializer
func NewCBORSerializer() *CBORSerializer {
	encMode, _ := cborEncOpts.EncMode()
	decMode, _ := cborDecOpts.DecMode()
	return &CBORSerializer{encMode: encMode, decMode: decMode}
}

// RegisterSerializableTypes registers the types of the given values so that
// they can be sent to and received from other nodes:
//
//	remote.RegisterSerializableTypes(new(Enable), new(Disable), ActivityEvent{})
func RegisterSerializableTypes(values ...any) {
	for _, v := range values {
		typesRegistry.Register(v)
	}
}

// IsRegistered reports whether the message type can be serialized
func IsRegistered(message any) bool {
	return typesRegistry.Exists(message)
}

// Serialize implements Serializer.
func (s *CBORSerializer) Serialize(message any) ([]byte, error) {
	name, pointer := registry.Name(message)
	if name == "" {
		return nil, ErrNilMessage
	}

	if _, ok := typesRegistry.TypeOf(name); !ok {
		return nil, fmt.Errorf("%w: %s", gerrors.ErrTypeNotRegistered, name)
	}

	payload, err := s.encMode.Marshal(message)
	if err != nil {
		return nil, errors.Join(ErrSerializeFailed, err)
	}

	var flags byte
	if pointer {
		flags |= pointerFlag
	}

	totalLen := headerSize + len(name) + len(payload)
	out := make([]byte, headerSize, totalLen)
	binary.BigEndian.PutUint32(out[0:4], uint32(totalLen))
	out[4] = flags
	binary.BigEndian.PutUint16(out[5:7], uint16(len(name)))
	out = append(out, name...)
	out = append(out, payload...)
	return out, nil
}

// Deserialize implements Serializer.
func (s *CBORSerializer) Deserialize(data []byte) (any, error) {
	if len(data) < headerSize {
		return nil, ErrInvalidFrame
	}

	totalLen := int(binary.BigEndian.Uint32(data[0:4]))
	if totalLen < headerSize || len(data) < totalLen {
		return nil, ErrInvalidFrame
	}

	flags := data[4]
	nameLen := int(binary.BigEndian.Uint16(data[5:7]))
	if headerSize+nameLen > totalLen {
		return nil, ErrInvalidFrame
	}

	name := string(data[headerSize : headerSize+nameLen])
	elemType, ok := typesRegistry.TypeOf(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", gerrors.ErrTypeNotRegistered, name)
	}

	ptr := reflect.New(elemType)
	if err := s.decMode.Unmarshal(data[headerSize+nameLen:totalLen], ptr.Interface()); err != nil {
		return nil, errors.Join(ErrDeserializeFailed, err)
	}

	if flags&pointerFlag == pointerFlag {
		return ptr.Interface(), nil
	}
	return ptr.Elem().Interface(), nil
}
