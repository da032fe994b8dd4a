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

// Package ast defines the typed node set produced by pkg/parser.
//
// Every node is immutable after construction and carries a Location. The
// AST is the sole contract between the parser and the interpreter: no
// downstream stage reparses or re-tokenizes source text.
package ast

import "fmt"

// Location pins a node to its origin in source text.
type Location struct {
	Line    int
	Column  int
	Excerpt string
}

func (l Location) String() string {
	if l.Line == 0 {
		return "<unknown>"
	}
	return fmt.Sprintf("line %d, col %d", l.Line, l.Column)
}

// Zero reports whether the location was never set.
func (l Location) Zero() bool {
	return l.Line == 0 && l.Column == 0
}
