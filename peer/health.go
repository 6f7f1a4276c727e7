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

// Health is a coarse-grained network-health indicator. Its numeric value
// is load-bearing: metrics emit it directly, and UNKNOWN < RED < ORANGE <
// YELLOW < GREEN ordering must be preserved across any refactor.
type Health int

const (
	HealthUnknown Health = iota
	HealthRed
	HealthOrange
	HealthYellow
	HealthGreen
)

func (h Health) String() string {
	switch h {
	case HealthUnknown:
		return "unknown"
	case HealthRed:
		return "red"
	case HealthOrange:
		return "orange"
	case HealthYellow:
		return "yellow"
	case HealthGreen:
		return "green"
	}
	return "unknown"
}
