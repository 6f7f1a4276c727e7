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

// Compile-time constants wired at the boundary; there is no runtime
// configuration for any of these.
const (
	MinDelay = 1 * time.Second
	MaxDelay = 300 * time.Second

	BackoffExponent = 1.5
	MinBackoff      = 2.0
	// MaxBackoff = MaxDelay.Milliseconds() / MinDelay.Milliseconds().
	MaxBackoff = float64(MaxDelay / MinDelay)

	BadQuality = 0.2

	IgnoreTimeframe = 600 * time.Second

	QualityStep = 0.1
)
