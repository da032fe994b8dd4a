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

package ast

// Node is the sealed interface implemented by every AST node.
type Node interface {
	node()
	Loc() Location
}

// Stmt is a statement node: executed for effect, yields no expression value.
type Stmt interface {
	Node
	stmt()
}

// Expr is an expression node: evaluated to a value.
type Expr interface {
	Node
	expr()
}

// Base carries the common Location every node needs. Embed it, don't
// duplicate it.
type Base struct {
	Location Location
}

func (b Base) Loc() Location { return b.Location }
func (Base) node()           {}

// Program is the root node: a module's top-level statement sequence.
type Program struct {
	Base
	Statements []Stmt
}
