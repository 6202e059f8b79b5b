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
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// frameKind is the first byte of every frame exchanged between peers
type frameKind byte

const (
	stateFrame frameKind = iota + 1
	messageFrame
)

// envelope carries a frame payload along with its origin. Seq is only set
// on message frames and orders them per sender and receiver pair.
type envelope struct {
	From        string `cbor:"1,keyasint"`
	Incarnation string `cbor:"2,keyasint"`
	Seq         uint64 `cbor:"3,keyasint,omitempty"`
	Payload     []byte `cbor:"4,keyasint"`
}

func encodeFrame(kind frameKind, env *envelope) ([]byte, error) {
	raw, err := cbor.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("failed to encode frame: %w", err)
	}
	frame := make([]byte, 0, len(raw)+1)
	frame = append(frame, byte(kind))
	return append(frame, raw...), nil
}

func decodeFrame(buf []byte) (frameKind, *envelope, error) {
	if len(buf) < 2 {
		return 0, nil, ErrInvalidFrame
	}
	kind := frameKind(buf[0])
	if kind != stateFrame && kind != messageFrame {
		return 0, nil, fmt.Errorf("%w: unknown kind %d", ErrInvalidFrame, buf[0])
	}
	env := new(envelope)
	if err := cbor.Unmarshal(buf[1:], env); err != nil {
		return 0, nil, fmt.Errorf("%w: %w", ErrInvalidFrame, err)
	}
	return kind, env, nil
}
