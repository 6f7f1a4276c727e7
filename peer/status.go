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

import (
	"fmt"
	"time"
)

// Status is a snapshot of everything the manager tracks about one peer.
type Status struct {
	Peer    ID
	Origin  Origin
	IsPublic bool

	// LastSeen is a millisecond timestamp, 0 if the peer was never seen.
	LastSeen int64

	// Quality is a moving scalar in [0, 1] approximating recent heartbeat
	// success.
	Quality float64

	HeartbeatsSent      uint64
	HeartbeatsSucceeded uint64

	// Backoff is a multiplicative delay factor, always >= MinBackoff.
	Backoff float64

	// IgnoredAt is the millisecond timestamp at which the peer entered
	// the ignore state, or nil if it is not currently ignored. It mirrors
	// Network's private ignored map at snapshot time; it is not stored on
	// the tracked entry itself.
	IgnoredAt *int64
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// clampQuality enforces the [0, 1] invariant.
func clampQuality(q float64) float64 {
	return clampFloat(q, 0.0, 1.0)
}

// clampBackoff enforces the [MinBackoff, MaxBackoff] invariant.
func clampBackoff(b float64) float64 {
	return clampFloat(b, MinBackoff, MaxBackoff)
}

// lastSeenTime converts the millisecond LastSeen field to a time.Time; the
// zero value maps to the zero time.Time ("never seen").
func (s Status) lastSeenTime() time.Time {
	if s.LastSeen == 0 {
		return time.Time{}
	}
	return time.UnixMilli(s.LastSeen)
}

// String renders a one-line diagnostic summary, used by mixpeerctl's
// peers listing and suitable for logging.
func (s Status) String() string {
	ignored := "never"
	if s.IgnoredAt != nil {
		ignored = fmt.Sprintf("%d", *s.IgnoredAt)
	}
	return fmt.Sprintf(
		"peer=%x origin=%q public=%t quality=%.2f backoff=%.3g heartbeats sent=%d heartbeats succeeded=%d last seen on=%d ignored at=%s",
		s.Peer.Bytes(), s.Origin, s.IsPublic, s.Quality, s.Backoff, s.HeartbeatsSent, s.HeartbeatsSucceeded, s.LastSeen, ignored,
	)
}
