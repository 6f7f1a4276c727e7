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

import "fmt"

// InvalidParameterSizeError reports a key or IV that was not the exact
// length the PRP construction requires.
type InvalidParameterSizeError struct {
	Field    string
	Expected int
	Got      int
}

func (e *InvalidParameterSizeError) Error() string {
	return fmt.Sprintf("prp: invalid %s size: expected %d bytes, got %d", e.Field, e.Expected, e.Got)
}

// InvalidInputValueError reports a forward/inverse input shorter than the
// minimum block length (the round key size).
type InvalidInputValueError struct {
	Minimum int
	Got     int
}

func (e *InvalidInputValueError) Error() string {
	return fmt.Sprintf("prp: input too short: expected at least %d bytes, got %d", e.Minimum, e.Got)
}
