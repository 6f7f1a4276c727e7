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

// Package peerfmt provides short, collision-tolerant peer identifier
// digests for log lines, where printing a full identifier would be
// unreadable noise.
package peerfmt

import "github.com/cespare/xxhash"

// ShortID returns an 8-hex-digit digest of id, stable across runs. It is
// for log correlation only and carries no uniqueness guarantee.
func ShortID(id []byte) string {
	h := xxhash.Sum64(id)
	const mask = 0xffffffff
	return hexUint32(uint32(h & mask))
}

func hexUint32(v uint32) string {
	const digits = "0123456789abcdef"
	buf := make([]byte, 8)
	for i := 7; i >= 0; i-- {
		buf[i] = digits[v&0xf]
		v >>= 4
	}
	return string(buf)
}
