/*
Copyright (c) mixrelay Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package prp

import (
	"fmt"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/chacha20"
)

// MAC computes a keyed message authentication code. Implementations must
// produce exactly intermediateKeyLength bytes: a single call then covers
// the whole head in the PRP's xor_hash round, and a longer output would
// also be XORed into the tail, which Inverse cannot undo.
type MAC interface {
	Sum(key, message []byte) ([]byte, error)
}

// StreamCipher applies a ChaCha20-semantics keystream in place: a
// little-endian u32 initial block counter and a 12-byte nonce.
type StreamCipher interface {
	Apply(key [intermediateKeyLength]byte, nonce [chacha20.NonceSize]byte, counter uint32, buf []byte) error
}

// blake2bMAC is the default MAC, grounded on golang.org/x/crypto/blake2b
// the way _examples/Tomsons-go-srp/srp.go grounds its own keyed hash on
// golang.org/x/crypto. Keyed BLAKE2b accepts up to a 64-byte key (our
// 48-byte round key||iv concatenation fits); the output size is fixed at
// exactly intermediateKeyLength bytes so xor_hash's min(|MAC|, |B|) XOR
// lands squarely on the head and never spills into the tail.
type blake2bMAC struct{}

func (blake2bMAC) Sum(key, message []byte) ([]byte, error) {
	h, err := blake2b.New(intermediateKeyLength, key)
	if err != nil {
		return nil, fmt.Errorf("prp: blake2b mac: %w", err)
	}
	if _, err := h.Write(message); err != nil {
		return nil, fmt.Errorf("prp: blake2b mac: %w", err)
	}
	return h.Sum(nil), nil
}

// chacha20Stream is the default StreamCipher, grounded the same way.
type chacha20Stream struct{}

func (chacha20Stream) Apply(key [intermediateKeyLength]byte, nonce [chacha20.NonceSize]byte, counter uint32, buf []byte) error {
	c, err := chacha20.NewUnauthenticatedCipher(key[:], nonce[:])
	if err != nil {
		return fmt.Errorf("prp: chacha20: %w", err)
	}
	c.SetCounter(counter)
	c.XORKeyStream(buf, buf)
	return nil
}

// DefaultMAC returns the production MAC used when no override is given to
// New.
func DefaultMAC() MAC { return blake2bMAC{} }

// DefaultStreamCipher returns the production stream cipher used when no
// override is given to New.
func DefaultStreamCipher() StreamCipher { return chacha20Stream{} }
