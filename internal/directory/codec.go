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

package directory

import (
	"errors"
	"fmt"
	"sync"

	"github.com/fxamacker/cbor/v2"
	"github.com/klauspost/compress/zstd"
)

// ErrEmptyState is returned when decoding an empty buffer
var ErrEmptyState = errors.New("directory: empty state")

var (
	encoderOnce sync.Once
	encoder     *zstd.Encoder
	decoderOnce sync.Once
	decoder     *zstd.Decoder
)

// EncodeAll and DecodeAll are safe for concurrent use, so a single
// encoder and decoder serve every caller.
func zstdEncoder() *zstd.Encoder {
	encoderOnce.Do(func() {
		encoder, _ = zstd.NewWriter(nil,
			zstd.WithEncoderLevel(zstd.SpeedFastest),
			zstd.WithEncoderConcurrency(1))
	})
	return encoder
}

func zstdDecoder() *zstd.Decoder {
	decoderOnce.Do(func() {
		decoder, _ = zstd.NewReader(nil,
			zstd.WithDecoderConcurrency(0),
			zstd.WithDecoderMaxMemory(64<<20))
	})
	return decoder
}

// Encode serializes a set of partitions into a compressed frame
func Encode(partitions ...*Partition) ([]byte, error) {
	raw, err := cbor.Marshal(partitions)
	if err != nil {
		return nil, fmt.Errorf("directory: failed to encode state: %w", err)
	}
	return zstdEncoder().EncodeAll(raw, make([]byte, 0, len(raw)/2)), nil
}

// Decode parses a frame produced by Encode
func Decode(buf []byte) ([]*Partition, error) {
	if len(buf) == 0 {
		return nil, ErrEmptyState
	}
	raw, err := zstdDecoder().DecodeAll(buf, nil)
	if err != nil {
		return nil, fmt.Errorf("directory: failed to decompress state: %w", err)
	}
	var partitions []*Partition
	if err := cbor.Unmarshal(raw, &partitions); err != nil {
		return nil, fmt.Errorf("directory: failed to decode state: %w", err)
	}
	return partitions, nil
}
