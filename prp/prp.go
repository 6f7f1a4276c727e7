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

// Package prp implements the wide-block pseudo-random permutation used to
// scramble onion-routing payloads. It is a four-round Lioness-style
// construction alternating a stream cipher and a keyed hash so that a
// single bit flip anywhere in the input diffuses over the whole block.
package prp

import (
	"golang.org/x/crypto/chacha20"
)

const (
	rounds = 4

	// intermediateKeyLength is the length of each per-round key, and also
	// the length of the PRP "head" and the minimum input length.
	intermediateKeyLength = 32
	// intermediateIVLength is the length of each per-round IV.
	intermediateIVLength = 16

	// KeyLength and IVLength are the sizes New requires: four
	// round keys and four round IVs back to back.
	KeyLength = rounds * intermediateKeyLength
	IVLength  = rounds * intermediateIVLength

	// MinInputLength is the minimum length accepted by Forward/Inverse:
	// the head must be fully present.
	MinInputLength = intermediateKeyLength
)

// Instance is an immutable, constructed PRP ready to permute buffers. It
// holds four 32-byte round keys and four 16-byte round IVs, partitioned
// positionally out of a 128-byte key and a 64-byte IV.
type Instance struct {
	keys [rounds][intermediateKeyLength]byte
	ivs  [rounds][intermediateIVLength]byte

	mac    MAC
	stream StreamCipher
}

// Option configures an Instance at construction time.
type Option func(*Instance)

// WithMAC overrides the keyed-hash primitive used by the xor_hash rounds.
// Defaults to DefaultMAC.
func WithMAC(m MAC) Option {
	return func(i *Instance) { i.mac = m }
}

// WithStreamCipher overrides the keystream primitive used by the
// xor_keystream rounds. Defaults to DefaultStreamCipher.
func WithStreamCipher(s StreamCipher) Option {
	return func(i *Instance) { i.stream = s }
}

// New partitions key (exactly KeyLength bytes) and iv (exactly IVLength
// bytes) into four round keys and four round IVs and returns a ready to
// use Instance. Both slices are copied; the caller's buffers are never
// retained.
func New(key, iv []byte, opts ...Option) (*Instance, error) {
	if len(key) != KeyLength {
		return nil, &InvalidParameterSizeError{Field: "key", Expected: KeyLength, Got: len(key)}
	}
	if len(iv) != IVLength {
		return nil, &InvalidParameterSizeError{Field: "iv", Expected: IVLength, Got: len(iv)}
	}

	inst := &Instance{
		mac:    DefaultMAC(),
		stream: DefaultStreamCipher(),
	}
	for r := 0; r < rounds; r++ {
		copy(inst.keys[r][:], key[r*intermediateKeyLength:(r+1)*intermediateKeyLength])
		copy(inst.ivs[r][:], iv[r*intermediateIVLength:(r+1)*intermediateIVLength])
	}
	for _, opt := range opts {
		opt(inst)
	}
	return inst, nil
}

// Forward applies the four-round wide-block permutation to plaintext and
// returns a freshly allocated ciphertext of the same length. plaintext is
// not mutated.
func (i *Instance) Forward(plaintext []byte) ([]byte, error) {
	buf, err := i.copyInput(plaintext)
	if err != nil {
		return nil, err
	}

	if err := i.xorKeystream(buf, 0); err != nil {
		return nil, err
	}
	if err := i.xorHash(buf, 1); err != nil {
		return nil, err
	}
	if err := i.xorKeystream(buf, 2); err != nil {
		return nil, err
	}
	if err := i.xorHash(buf, 3); err != nil {
		return nil, err
	}
	return buf, nil
}

// Inverse applies the four-round permutation in reverse order, undoing
// Forward. ciphertext is not mutated.
func (i *Instance) Inverse(ciphertext []byte) ([]byte, error) {
	buf, err := i.copyInput(ciphertext)
	if err != nil {
		return nil, err
	}

	if err := i.xorHash(buf, 3); err != nil {
		return nil, err
	}
	if err := i.xorKeystream(buf, 2); err != nil {
		return nil, err
	}
	if err := i.xorHash(buf, 1); err != nil {
		return nil, err
	}
	if err := i.xorKeystream(buf, 0); err != nil {
		return nil, err
	}
	return buf, nil
}

func (i *Instance) copyInput(in []byte) ([]byte, error) {
	if len(in) < MinInputLength {
		return nil, &InvalidInputValueError{Minimum: MinInputLength, Got: len(in)}
	}
	out := make([]byte, len(in))
	copy(out, in)
	return out, nil
}

// xorHash XORs the MAC of the tail into the buffer starting at offset 0,
// for min(|MAC|, |buf|) bytes, per spec. With a MAC sized exactly
// intermediateKeyLength this always lands on the head and never the tail,
// which is what makes the round self-inverse.
func (i *Instance) xorHash(buf []byte, round int) error {
	tail := buf[intermediateKeyLength:]

	keyAndIV := make([]byte, 0, intermediateKeyLength+intermediateIVLength)
	keyAndIV = append(keyAndIV, i.keys[round][:]...)
	keyAndIV = append(keyAndIV, i.ivs[round][:]...)

	mac, err := i.mac.Sum(keyAndIV, tail)
	if err != nil {
		return err
	}
	xorInPlace(buf, mac)
	return nil
}

// xorKeystream mutates only the tail as a function of the head and the
// round key/iv, per the Lioness construction.
func (i *Instance) xorKeystream(buf []byte, round int) error {
	head := buf[:intermediateKeyLength]
	tail := buf[intermediateKeyLength:]

	var derivedKey [intermediateKeyLength]byte
	copy(derivedKey[:], i.keys[round][:])
	xorInPlace(derivedKey[:], head)

	var nonce [chacha20.NonceSize]byte
	copy(nonce[:], i.ivs[round][4:intermediateIVLength])
	counter := leUint32(i.ivs[round][0:4])

	return i.stream.Apply(derivedKey, nonce, counter, tail)
}

func xorInPlace(dst, src []byte) {
	n := len(dst)
	if len(src) < n {
		n = len(src)
	}
	for k := 0; k < n; k++ {
		dst[k] ^= src[k]
	}
}

func leUint32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}
