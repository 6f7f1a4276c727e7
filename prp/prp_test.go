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
	"bytes"
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func zeroParams() (key, iv []byte) {
	return make([]byte, KeyLength), make([]byte, IVLength)
}

func randomParams(t *testing.T) (key, iv []byte) {
	t.Helper()
	key = make([]byte, KeyLength)
	iv = make([]byte, IVLength)
	_, err := rand.Read(key)
	require.NoError(t, err)
	_, err = rand.Read(iv)
	require.NoError(t, err)
	return key, iv
}

func TestNewRejectsWrongSizes(t *testing.T) {
	key, iv := zeroParams()

	_, err := New(key[:KeyLength-1], iv)
	var sizeErr *InvalidParameterSizeError
	require.ErrorAs(t, err, &sizeErr)
	require.Equal(t, "key", sizeErr.Field)

	_, err = New(key, iv[:IVLength-1])
	require.ErrorAs(t, err, &sizeErr)
	require.Equal(t, "iv", sizeErr.Field)
}

func TestForwardRejectsShortInput(t *testing.T) {
	key, iv := zeroParams()
	inst, err := New(key, iv)
	require.NoError(t, err)

	_, err = inst.Forward(make([]byte, MinInputLength-1))
	var inputErr *InvalidInputValueError
	require.ErrorAs(t, err, &inputErr)

	_, err = inst.Inverse(make([]byte, MinInputLength-1))
	require.ErrorAs(t, err, &inputErr)
}

func TestRoundTripFixedZeroParams(t *testing.T) {
	key, iv := zeroParams()
	inst, err := New(key, iv)
	require.NoError(t, err)

	plaintext := make([]byte, 100)
	ciphertext, err := inst.Forward(plaintext)
	require.NoError(t, err)
	require.Len(t, ciphertext, len(plaintext))
	require.NotEqual(t, plaintext, ciphertext, "an all-zero block should not permute to itself")

	recovered, err := inst.Inverse(ciphertext)
	require.NoError(t, err)
	require.Equal(t, plaintext, recovered)
}

func TestRoundTripRandomParams(t *testing.T) {
	key, iv := randomParams(t)
	inst, err := New(key, iv)
	require.NoError(t, err)

	for _, n := range []int{MinInputLength, MinInputLength + 1, 100, 278, 4096} {
		plaintext := make([]byte, n)
		_, err := rand.Read(plaintext)
		require.NoError(t, err)

		ciphertext, err := inst.Forward(plaintext)
		require.NoError(t, err)
		require.Len(t, ciphertext, n)

		recovered, err := inst.Inverse(ciphertext)
		require.NoError(t, err)
		require.Equal(t, plaintext, recovered)
	}
}

func TestForwardDoesNotMutateInput(t *testing.T) {
	key, iv := randomParams(t)
	inst, err := New(key, iv)
	require.NoError(t, err)

	plaintext := make([]byte, 278)
	_, err = rand.Read(plaintext)
	require.NoError(t, err)
	original := bytes.Clone(plaintext)

	ciphertext, err := inst.Forward(plaintext)
	require.NoError(t, err)
	require.Equal(t, original, plaintext, "Forward must not mutate its input")

	ciphertextCopy := bytes.Clone(ciphertext)
	_, err = inst.Inverse(ciphertext)
	require.NoError(t, err)
	require.Equal(t, ciphertextCopy, ciphertext, "Inverse must not mutate its input")
}

func TestForwardIsDeterministic(t *testing.T) {
	key, iv := randomParams(t)
	inst, err := New(key, iv)
	require.NoError(t, err)

	plaintext := make([]byte, 278)
	_, err = rand.Read(plaintext)
	require.NoError(t, err)

	a, err := inst.Forward(plaintext)
	require.NoError(t, err)
	b, err := inst.Forward(plaintext)
	require.NoError(t, err)
	require.Equal(t, a, b)

	inst2, err := New(key, iv)
	require.NoError(t, err)
	c, err := inst2.Forward(plaintext)
	require.NoError(t, err)
	require.Equal(t, a, c, "same key/iv/plaintext must yield identical ciphertext across instances")
}

func TestSingleBitFlipDiffusesWholeBlock(t *testing.T) {
	key, iv := randomParams(t)
	inst, err := New(key, iv)
	require.NoError(t, err)

	plaintext := make([]byte, 278)
	_, err = rand.Read(plaintext)
	require.NoError(t, err)

	flipped := bytes.Clone(plaintext)
	flipped[len(flipped)-1] ^= 0x01

	ct1, err := inst.Forward(plaintext)
	require.NoError(t, err)
	ct2, err := inst.Forward(flipped)
	require.NoError(t, err)

	diff := 0
	for i := range ct1 {
		if ct1[i] != ct2[i] {
			diff++
		}
	}
	require.Greater(t, diff, len(ct1)/4, "a single bit flip should diffuse across a large fraction of the block")
}

func TestDeriveParamsIsDeterministicAndBuildsInstance(t *testing.T) {
	secret := make([]byte, 32)

	p1, err := DeriveParams(secret, nil)
	require.NoError(t, err)
	p2, err := DeriveParams(secret, nil)
	require.NoError(t, err)
	require.Equal(t, p1, p2)

	inst, err := p1.Instance()
	require.NoError(t, err)

	plaintext := make([]byte, 100)
	ct, err := inst.Forward(plaintext)
	require.NoError(t, err)
	pt, err := inst.Inverse(ct)
	require.NoError(t, err)
	require.Equal(t, plaintext, pt)
}

func TestDeriveParamsDifferentSecretsDiffer(t *testing.T) {
	secretA := bytes.Repeat([]byte{0x00}, 32)
	secretB := bytes.Repeat([]byte{0x01}, 32)

	pa, err := DeriveParams(secretA, nil)
	require.NoError(t, err)
	pb, err := DeriveParams(secretB, nil)
	require.NoError(t, err)

	require.NotEqual(t, pa.Key, pb.Key)
	require.NotEqual(t, pa.IV, pb.IV)
}
