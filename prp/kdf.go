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
	"crypto/sha256"
	"fmt"
	"io"

	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/hkdf"
)

// DomainTag is the fixed domain-separation string the PRP parameter KDF is
// keyed with.
const DomainTag = "HASH_KEY_PRP"

// KDF fills outKey and outIV deterministically from secret, keyed by the
// given domain tag. noExtraExpansion is the "no extra expansion" flag: false
// runs the full HKDF extract-then-expand; true skips the extract step and
// treats secret as already-uniform keying material.
type KDF interface {
	Derive(secret, domainTag []byte, outKey, outIV []byte, noExtraExpansion bool) error
}

// hkdfKDF is the default KDF, grounded on golang.org/x/crypto/hkdf -- the
// same module the corpus's _examples/Tomsons-go-srp/srp.go draws its own
// keyed-hash construction from.
type hkdfKDF struct{}

// DefaultKDF returns the production KDF used by DeriveParams.
func DefaultKDF() KDF { return hkdfKDF{} }

func (hkdfKDF) Derive(secret, domainTag []byte, outKey, outIV []byte, noExtraExpansion bool) error {
	var reader io.Reader
	if noExtraExpansion {
		// Treat secret as already-extracted keying material: skip the
		// extract step and expand it directly.
		reader = hkdf.Expand(sha256.New, secret, domainTag)
	} else {
		reader = hkdf.New(sha256.New, secret, nil, domainTag)
	}
	if _, err := io.ReadFull(reader, outKey); err != nil {
		return fmt.Errorf("prp: kdf: deriving key: %w", err)
	}
	if _, err := io.ReadFull(reader, outIV); err != nil {
		return fmt.Errorf("prp: kdf: deriving iv: %w", err)
	}
	return nil
}

// Params holds the one 128-byte key and one 64-byte IV derived
// deterministically from a shared secret.
type Params struct {
	Key [KeyLength]byte
	IV  [IVLength]byte
}

// DeriveParams runs kdf (DefaultKDF if nil) against secret using the fixed
// "HASH_KEY_PRP" domain tag and returns the resulting PRP parameters.
func DeriveParams(secret []byte, kdf KDF) (*Params, error) {
	if kdf == nil {
		kdf = DefaultKDF()
	}

	var p Params
	if err := kdf.Derive(secret, []byte(DomainTag), p.Key[:], p.IV[:], false); err != nil {
		log.WithError(err).Warn("prp: failed to derive PRP parameters")
		return nil, err
	}
	return &p, nil
}

// Instance builds a ready-to-use PRP Instance from derived parameters.
func (p *Params) Instance(opts ...Option) (*Instance, error) {
	return New(p.Key[:], p.IV[:], opts...)
}
