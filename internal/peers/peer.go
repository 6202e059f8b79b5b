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
	"net"
	"strconv"

	"github.com/fxamacker/cbor/v2"
)

// Peer is the identity a node gossips through its memberlist metadata
type Peer struct {
	Name        string `cbor:"1,keyasint"`
	Host        string `cbor:"2,keyasint"`
	Port        int    `cbor:"3,keyasint"`
	System      string `cbor:"4,keyasint"`
	Incarnation string `cbor:"5,keyasint"`
	CreatedAt   int64  `cbor:"6,keyasint"`
}

// Address returns the peer host:port gossip address
func (x *Peer) Address() string {
	return net.JoinHostPort(x.Host, strconv.Itoa(x.Port))
}

// String returns the printable representation of the peer
func (x *Peer) String() string {
	return fmt.Sprintf("[name=%s system=%s incarnation=%s]", x.Name, x.System, x.Incarnation)
}

func (x *Peer) key() string {
	return x.Name + "#" + x.Incarnation
}

func (x *Peer) meta() ([]byte, error) {
	return cbor.Marshal(x)
}

func peerFromMeta(meta []byte) (*Peer, error) {
	peer := new(Peer)
	if err := cbor.Unmarshal(meta, peer); err != nil {
		return nil, fmt.Errorf("invalid peer metadata: %w", err)
	}
	return peer, nil
}
