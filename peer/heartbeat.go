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

import "time"

// HeartbeatResult is the outcome of a single heartbeat, fed into Update.
// It is either Ok(timestamp) or Err(cause); the heartbeat scheduler that
// produces these is an external collaborator (spec.md §1) and out of
// scope here.
type HeartbeatResult struct {
	timestamp time.Time
	err       error
	failed    bool
}

// HeartbeatOK reports a successful heartbeat observed at ts.
func HeartbeatOK(ts time.Time) HeartbeatResult {
	return HeartbeatResult{timestamp: ts}
}

// HeartbeatFailed reports a failed heartbeat. cause may be nil.
func HeartbeatFailed(cause error) HeartbeatResult {
	return HeartbeatResult{err: cause, failed: true}
}

// Ok reports whether the heartbeat succeeded.
func (r HeartbeatResult) Ok() bool { return !r.failed }

// Err returns the failure cause, or nil on success.
func (r HeartbeatResult) Err() error { return r.err }

// Timestamp returns the success timestamp. Only meaningful when Ok().
func (r HeartbeatResult) Timestamp() time.Time { return r.timestamp }
