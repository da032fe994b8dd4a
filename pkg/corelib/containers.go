// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package corelib

import "reflect"

// Tuple is DANA's immutable fixed-size sequence, distinct from a list at
// the value-identity level (the `tuple()` constructor and `(a, b, c)`
// literal both produce this, never a plain []any).
type Tuple []any

// Set is DANA's unordered unique-value collection. Membership uses
// reflect.DeepEqual rather than a map, since DANA values (structs,
// lists, other sets) are not all Go-comparable.
type Set struct {
	items []any
}

// NewSet builds a Set from values, discarding duplicates in first-seen order.
func NewSet(values ...any) *Set {
	s := &Set{}
	for _, v := range values {
		s.Add(v)
	}
	return s
}

// Add inserts v if not already present, reporting whether it was added.
func (s *Set) Add(v any) bool {
	if s.Contains(v) {
		return false
	}
	s.items = append(s.items, v)
	return true
}

// Contains reports whether v is already a member.
func (s *Set) Contains(v any) bool {
	for _, item := range s.items {
		if reflect.DeepEqual(item, v) {
			return true
		}
	}
	return false
}

// Items returns the set's members in insertion order.
func (s *Set) Items() []any { return append([]any{}, s.items...) }

// Len reports the member count.
func (s *Set) Len() int { return len(s.items) }

// toSlice normalizes any DANA sequence-shaped value (list, Tuple, *Set,
// map keys) into a plain []any, for constructors that accept "any
// iterable".
func toSlice(v any) ([]any, bool) {
	switch x := v.(type) {
	case []any:
		return x, true
	case Tuple:
		return []any(x), true
	case *Set:
		return x.Items(), true
	case map[string]any:
		out := make([]any, 0, len(x))
		for k := range x {
			out = append(out, k)
		}
		return out, true
	}
	return nil, false
}
