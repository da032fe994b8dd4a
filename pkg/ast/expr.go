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

// BinaryOp enumerates DANA's binary operators.
type BinaryOp string

const (
	OpAdd BinaryOp = "+"
	OpSub BinaryOp = "-"
	OpMul BinaryOp = "*"
	OpDiv BinaryOp = "/"
	OpMod BinaryOp = "%"
	OpEq  BinaryOp = "=="
	OpNeq BinaryOp = "!="
	OpLt  BinaryOp = "<"
	OpGt  BinaryOp = ">"
	OpLe  BinaryOp = "<="
	OpGe  BinaryOp = ">="
	OpAnd BinaryOp = "and"
	OpOr  BinaryOp = "or"
	OpIn  BinaryOp = "in"
)

// Identifier is a (possibly scoped, possibly dotted) name reference.
//
// Scope is empty when the identifier carries no explicit `scope:` prefix;
// auto-scoping is resolved later by the sandbox, not here — the parser
// only records what the source text actually said.
type Identifier struct {
	Base
	Scope string // "", "local", "private", "public", "system"
	Path  string // dotted path, e.g. "a.b.c"
}

func (*Identifier) expr() {}

// LiteralKind tags the Go type carried by a LiteralExpression's Value.
type LiteralKind int

const (
	LiteralInt LiteralKind = iota
	LiteralFloat
	LiteralBool
	LiteralString
	LiteralNone
)

// LiteralExpression is a parsed scalar literal.
type LiteralExpression struct {
	Base
	Kind  LiteralKind
	Value any // int64, float64, bool, string, or nil for LiteralNone
}

func (*LiteralExpression) expr() {}

// ListExpression is a `[a, b, c]` literal.
type ListExpression struct {
	Base
	Elements []Expr
}

func (*ListExpression) expr() {}

// DictEntry is one `key: value` pair of a DictExpression.
type DictEntry struct {
	Key   Expr
	Value Expr
}

// DictExpression is a `{k: v, ...}` literal.
type DictExpression struct {
	Base
	Entries []DictEntry
}

func (*DictExpression) expr() {}

// SetExpression is a `{a, b, c}` literal.
type SetExpression struct {
	Base
	Elements []Expr
}

func (*SetExpression) expr() {}

// TupleExpression is a `(a, b, c)` literal.
type TupleExpression struct {
	Base
	Elements []Expr
}

func (*TupleExpression) expr() {}

// FStringPart is one alternating chunk of an f-string: either literal text
// (Expr == nil) or an embedded sub-expression (Text == "").
type FStringPart struct {
	Text string
	Expr Expr
}

// FStringExpression is a parsed `f"...{expr}..."`.
type FStringExpression struct {
	Base
	Parts []FStringPart
}

func (*FStringExpression) expr() {}

// BinaryExpression is a two-operand operator application.
type BinaryExpression struct {
	Base
	Left  Expr
	Op    BinaryOp
	Right Expr
}

func (*BinaryExpression) expr() {}

// UnaryOp enumerates the unary operators.
type UnaryOp string

const (
	UnaryNeg UnaryOp = "-"
	UnaryNot UnaryOp = "not"
)

// UnaryExpression is a single-operand operator application.
type UnaryExpression struct {
	Base
	Op      UnaryOp
	Operand Expr
}

func (*UnaryExpression) expr() {}

// Arg is one call argument: Name is empty for a positional argument.
type Arg struct {
	Name  string
	Value Expr
}

// FunctionCall is `name(positional..., named=value...)`, possibly with a
// receiver (Receiver != nil) for `obj.method(...)` method-call form.
type FunctionCall struct {
	Base
	Receiver Expr // nil for a bare function call
	Name     string
	Args     []Arg
}

func (*FunctionCall) expr() {}

// MemberAccess is `obj.field` with no call — attribute read.
type MemberAccess struct {
	Base
	Receiver Expr
	Field    string
}

func (*MemberAccess) expr() {}

// IndexExpression is `obj[index]`.
type IndexExpression struct {
	Base
	Receiver Expr
	Index    Expr
}

func (*IndexExpression) expr() {}

// PipelineExpression is `f | g`: composition, not invocation.
type PipelineExpression struct {
	Base
	Left  Expr
	Right Expr
}

func (*PipelineExpression) expr() {}
