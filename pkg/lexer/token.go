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

// Package lexer tokenizes DANA source text into an indentation-aware token
// stream consumed by pkg/parser. Grammar-driven, not regex-based: the
// lexer recognizes token *shapes* (numbers, strings, identifiers,
// operators, indentation) and leaves grammar decisions to the parser.
package lexer

// Kind classifies a Token.
type Kind int

const (
	EOF Kind = iota
	NEWLINE
	INDENT
	DEDENT

	IDENT
	INT
	FLOAT
	STRING
	FSTRING

	// Keywords
	KW_IF
	KW_ELSE
	KW_ELIF
	KW_WHILE
	KW_FOR
	KW_IN
	KW_TRY
	KW_EXCEPT
	KW_AS
	KW_RAISE
	KW_RETURN
	KW_DEF
	KW_STRUCT
	KW_AGENT
	KW_RESOURCE
	KW_IMPORT
	KW_AND
	KW_OR
	KW_NOT
	KW_TRUE
	KW_FALSE
	KW_NONE
	KW_PASS

	// Operators & punctuation
	PLUS
	MINUS
	STAR
	SLASH
	PERCENT
	ASSIGN
	EQ
	NEQ
	LT
	GT
	LE
	GE
	PIPE
	DOT
	COMMA
	COLON
	LPAREN
	RPAREN
	LBRACKET
	RBRACKET
	LBRACE
	RBRACE
)

// Token is one lexical unit with its source position.
type Token struct {
	Kind   Kind
	Text   string
	Line   int
	Column int
}

var keywords = map[string]Kind{
	"if":       KW_IF,
	"else":     KW_ELSE,
	"elif":     KW_ELIF,
	"while":    KW_WHILE,
	"for":      KW_FOR,
	"in":       KW_IN,
	"try":      KW_TRY,
	"except":   KW_EXCEPT,
	"as":       KW_AS,
	"raise":    KW_RAISE,
	"return":   KW_RETURN,
	"def":      KW_DEF,
	"struct":   KW_STRUCT,
	"agent":    KW_AGENT,
	"resource": KW_RESOURCE,
	"import":   KW_IMPORT,
	"and":      KW_AND,
	"or":       KW_OR,
	"not":      KW_NOT,
	"True":     KW_TRUE,
	"False":    KW_FALSE,
	"None":     KW_NONE,
	"pass":     KW_PASS,
}
