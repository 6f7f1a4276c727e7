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

package peer

// ID is an opaque peer identifier, comparable by byte equality. The
// concrete wire format (multihash, libp2p PeerId, etc.) is an external
// collaborator's concern; this package only ever compares and hashes it.
type ID string

// IDFromBytes wraps a raw identifier so it can be used as a map key.
func IDFromBytes(b []byte) ID {
	return ID(b)
}

// Bytes returns the raw identifier bytes.
func (id ID) Bytes() []byte {
	return []byte(id)
}
