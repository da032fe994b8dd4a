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

// Package parser implements DANA's grammar-driven recursive-descent
// parser. It never falls back to regular expressions for structure; only
// string-literal scanning inside the lexer is pattern based.
package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dana-lang/dana/pkg/ast"
	"github.com/dana-lang/dana/pkg/lexer"
)

// SyntaxError is one parse-time error with its location and an optional
// one-line remediation hint.
type SyntaxError struct {
	Location ast.Location
	Message  string
	Hint     string
}

func (e *SyntaxError) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("%s (at %s): %s — %s", e.Message, e.Location, e.Message, e.Hint)
	}
	return fmt.Sprintf("%s (at %s)", e.Message, e.Location)
}

// ParseResult is the parser's output contract.
type ParseResult struct {
	Program *ast.Program
	Errors  []*SyntaxError
}

// IsValid reports whether parsing produced zero errors.
func (r *ParseResult) IsValid() bool { return len(r.Errors) == 0 }

// Parse tokenizes and parses src, collecting as many recoverable errors as
// possible before returning rather than stopping at the first one.
func Parse(src string) *ParseResult {
	lx := lexer.New(src)
	toks, lexErrs := lx.Tokenize()

	p := &parser{toks: toks, src: src}
	for _, le := range lexErrs {
		if lerr, ok := le.(*lexer.Error); ok {
			p.errors = append(p.errors, &SyntaxError{
				Location: ast.Location{Line: lerr.Line, Column: lerr.Column, Excerpt: p.excerptAt(lerr.Line)},
				Message:  lerr.Msg,
			})
		}
	}

	prog := p.parseProgram()
	return &ParseResult{Program: prog, Errors: p.errors}
}

type parser struct {
	toks   []lexer.Token
	pos    int
	src    string
	errors []*SyntaxError
}

func (p *parser) excerptAt(line int) string {
	lines := strings.Split(p.src, "\n")
	if line-1 >= 0 && line-1 < len(lines) {
		return strings.TrimRight(lines[line-1], "\r")
	}
	return ""
}

func (p *parser) cur() lexer.Token  { return p.toks[p.pos] }
func (p *parser) peekKind() lexer.Kind {
	return p.toks[p.pos].Kind
}
func (p *parser) at(k lexer.Kind) bool { return p.peekKind() == k }

func (p *parser) advance() lexer.Token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *parser) loc() ast.Location {
	t := p.cur()
	return ast.Location{Line: t.Line, Column: t.Column, Excerpt: p.excerptAt(t.Line)}
}

func (p *parser) errorf(hint string, format string, args ...any) {
	p.errors = append(p.errors, &SyntaxError{
		Location: p.loc(),
		Message:  fmt.Sprintf(format, args...),
		Hint:     hint,
	})
}

// expect consumes a token of kind k or records a syntax error (with a
// remediation hint for the common "missing colon" case) and synchronizes
// to the next statement boundary.
func (p *parser) expect(k lexer.Kind, what string) lexer.Token {
	if p.at(k) {
		return p.advance()
	}
	hint := ""
	if k == lexer.COLON {
		hint = "add ':' after the block header"
	}
	p.errorf(hint, "expected %s, found %q", what, p.cur().Text)
	return p.cur()
}

func (p *parser) skipNewlines() {
	for p.at(lexer.NEWLINE) {
		p.advance()
	}
}

// synchronize skips tokens until the next NEWLINE/DEDENT/EOF so one bad
// statement doesn't cascade into spurious follow-on errors.
func (p *parser) synchronize() {
	for !p.at(lexer.NEWLINE) && !p.at(lexer.DEDENT) && !p.at(lexer.EOF) {
		p.advance()
	}
	if p.at(lexer.NEWLINE) {
		p.advance()
	}
}

func (p *parser) parseProgram() *ast.Program {
	prog := &ast.Program{Base: ast.Base{Location: p.loc()}}
	p.skipNewlines()
	for !p.at(lexer.EOF) {
		stmt := p.parseStatement()
		if stmt != nil {
			prog.Statements = append(prog.Statements, stmt)
		}
		p.skipNewlines()
	}
	return prog
}

// parseBlock parses an indented statement sequence following `:`.
func (p *parser) parseBlock() []ast.Stmt {
	p.expect(lexer.COLON, "':'")
	p.skipNewlines()
	if !p.at(lexer.INDENT) {
		p.errorf("indent the block body", "expected an indented block")
		return nil
	}
	p.advance() // INDENT
	var stmts []ast.Stmt
	for !p.at(lexer.DEDENT) && !p.at(lexer.EOF) {
		s := p.parseStatement()
		if s != nil {
			stmts = append(stmts, s)
		}
		p.skipNewlines()
	}
	if p.at(lexer.DEDENT) {
		p.advance()
	}
	return stmts
}

func (p *parser) parseStatement() ast.Stmt {
	startLoc := p.loc()
	switch p.peekKind() {
	case lexer.NEWLINE:
		p.advance()
		return nil
	case lexer.KW_IF:
		return p.parseConditional()
	case lexer.KW_WHILE:
		return p.parseWhile()
	case lexer.KW_FOR:
		return p.parseFor()
	case lexer.KW_TRY:
		return p.parseTry()
	case lexer.KW_RAISE:
		return p.parseRaise()
	case lexer.KW_RETURN:
		return p.parseReturn()
	case lexer.KW_DEF:
		return p.parseFunctionDef(nil)
	case lexer.KW_STRUCT:
		return p.parseStructDef()
	case lexer.KW_AGENT:
		return p.parseAgentDef()
	case lexer.KW_RESOURCE:
		return p.parseResourceDef()
	case lexer.KW_IMPORT:
		return p.parseImport()
	case lexer.KW_PASS:
		p.advance()
		p.expectStmtEnd()
		return &ast.ExprStmt{Base: ast.Base{Location: startLoc}, Value: &ast.LiteralExpression{Base: ast.Base{Location: startLoc}, Kind: ast.LiteralNone}}
	default:
		return p.parseExprOrAssignment()
	}
}

func (p *parser) expectStmtEnd() {
	if p.at(lexer.NEWLINE) {
		p.advance()
		return
	}
	if p.at(lexer.DEDENT) || p.at(lexer.EOF) {
		return
	}
	p.errorf("", "expected end of statement, found %q", p.cur().Text)
	p.synchronize()
}

func (p *parser) parseExprOrAssignment() ast.Stmt {
	loc := p.loc()
	expr := p.parseExpression()
	if p.at(lexer.ASSIGN) {
		p.advance()
		value := p.parseExpression()
		p.expectStmtEnd()
		return &ast.Assignment{Base: ast.Base{Location: loc}, Target: expr, Value: value}
	}
	p.expectStmtEnd()
	return &ast.ExprStmt{Base: ast.Base{Location: loc}, Value: expr}
}

func (p *parser) parseConditional() ast.Stmt {
	loc := p.loc()
	p.advance() // if
	cond := p.parseExpression()
	body := p.parseBlock()
	var elseBody []ast.Stmt
	p.skipNewlines()
	if p.at(lexer.KW_ELIF) {
		elseBody = []ast.Stmt{p.parseConditional()}
		return &ast.Conditional{Base: ast.Base{Location: loc}, Condition: cond, Body: body, ElseBody: elseBody}
	}
	if p.at(lexer.KW_ELSE) {
		p.advance()
		elseBody = p.parseBlock()
	}
	return &ast.Conditional{Base: ast.Base{Location: loc}, Condition: cond, Body: body, ElseBody: elseBody}
}

func (p *parser) parseWhile() ast.Stmt {
	loc := p.loc()
	p.advance()
	cond := p.parseExpression()
	body := p.parseBlock()
	return &ast.WhileLoop{Base: ast.Base{Location: loc}, Condition: cond, Body: body}
}

func (p *parser) parseFor() ast.Stmt {
	loc := p.loc()
	p.advance()
	name := p.expect(lexer.IDENT, "loop variable name").Text
	p.expect(lexer.KW_IN, "'in'")
	iterable := p.parseExpression()
	body := p.parseBlock()
	return &ast.ForLoop{Base: ast.Base{Location: loc}, Target: name, Iterable: iterable, Body: body}
}

func (p *parser) parseTry() ast.Stmt {
	loc := p.loc()
	p.advance()
	body := p.parseBlock()
	var handlers []ast.ExceptHandler
	p.skipNewlines()
	for p.at(lexer.KW_EXCEPT) {
		p.advance()
		h := ast.ExceptHandler{}
		if p.at(lexer.IDENT) {
			h.TypeFilter = p.advance().Text
		}
		if p.at(lexer.KW_AS) {
			p.advance()
			h.BindName = p.expect(lexer.IDENT, "bound name").Text
		}
		h.Body = p.parseBlock()
		handlers = append(handlers, h)
		p.skipNewlines()
	}
	if len(handlers) == 0 {
		p.errorf("add at least one 'except' clause", "'try' requires at least one 'except' handler")
	}
	return &ast.TryExcept{Base: ast.Base{Location: loc}, Body: body, Handlers: handlers}
}

func (p *parser) parseRaise() ast.Stmt {
	loc := p.loc()
	p.advance()
	var val ast.Expr
	if !p.at(lexer.NEWLINE) && !p.at(lexer.DEDENT) && !p.at(lexer.EOF) {
		val = p.parseExpression()
	}
	p.expectStmtEnd()
	return &ast.Raise{Base: ast.Base{Location: loc}, Value: val}
}

func (p *parser) parseReturn() ast.Stmt {
	loc := p.loc()
	p.advance()
	var val ast.Expr
	if !p.at(lexer.NEWLINE) && !p.at(lexer.DEDENT) && !p.at(lexer.EOF) {
		val = p.parseExpression()
	}
	p.expectStmtEnd()
	return &ast.Return{Base: ast.Base{Location: loc}, Value: val}
}

func (p *parser) parseImport() ast.Stmt {
	loc := p.loc()
	p.advance()
	module := p.expect(lexer.IDENT, "module name").Text
	alias := ""
	if p.at(lexer.KW_AS) {
		p.advance()
		alias = p.expect(lexer.IDENT, "alias name").Text
	}
	p.expectStmtEnd()
	return &ast.ImportStatement{Base: ast.Base{Location: loc}, Module: module, Alias: alias}
}

func (p *parser) parseParamList() []ast.Param {
	p.expect(lexer.LPAREN, "'('")
	var params []ast.Param
	for !p.at(lexer.RPAREN) && !p.at(lexer.EOF) {
		name := p.expect(lexer.IDENT, "parameter name").Text
		param := ast.Param{Name: name}
		if p.at(lexer.COLON) {
			p.advance()
			param.Type = p.expect(lexer.IDENT, "type name").Text
		}
		if p.at(lexer.ASSIGN) {
			p.advance()
			param.Default = p.parseExpression()
		}
		params = append(params, param)
		if p.at(lexer.COMMA) {
			p.advance()
		}
	}
	p.expect(lexer.RPAREN, "')'")
	return params
}

func (p *parser) parseFunctionDef(decorators []string) ast.Stmt {
	loc := p.loc()
	p.advance() // def
	name := p.expect(lexer.IDENT, "function name").Text
	params := p.parseParamList()
	returnType := ""
	if p.at(lexer.MINUS) { // `->` isn't tokenized specially; treat '-' '>' sequence
		// Not reachable with current lexer (no GT-combo); kept for forward
		// compatibility if a return-type arrow is added to the grammar.
	}
	body := p.parseBlock()
	return &ast.FunctionDefinition{
		Base: ast.Base{Location: loc}, Name: name, Params: params,
		ReturnType: returnType, Body: body, Decorators: decorators,
	}
}

func (p *parser) parseFieldList() ([]ast.Field, string) {
	var fields []ast.Field
	doc := ""
	p.expect(lexer.COLON, "':'")
	p.skipNewlines()
	if !p.at(lexer.INDENT) {
		return fields, doc
	}
	p.advance()
	for !p.at(lexer.DEDENT) && !p.at(lexer.EOF) {
		if p.at(lexer.STRING) && doc == "" && len(fields) == 0 {
			doc = p.advance().Text
			p.expectStmtEnd()
			continue
		}
		name := p.expect(lexer.IDENT, "field name").Text
		field := ast.Field{Name: name}
		if p.at(lexer.COLON) {
			p.advance()
			field.Type = p.expect(lexer.IDENT, "field type").Text
		}
		if p.at(lexer.ASSIGN) {
			p.advance()
			field.Default = p.parseExpression()
		}
		fields = append(fields, field)
		p.expectStmtEnd()
	}
	if p.at(lexer.DEDENT) {
		p.advance()
	}
	return fields, doc
}

func (p *parser) parseStructDef() ast.Stmt {
	loc := p.loc()
	p.advance()
	name := p.expect(lexer.IDENT, "struct name").Text
	parent := ""
	if p.at(lexer.LPAREN) {
		p.advance()
		parent = p.expect(lexer.IDENT, "parent type name").Text
		p.expect(lexer.RPAREN, "')'")
	}
	fields, doc := p.parseFieldList()
	return &ast.StructDefinition{Base: ast.Base{Location: loc}, Name: name, Parent: parent, Fields: fields, Docstring: doc}
}

// parseMemberBlock parses the body of an agent/resource definition, which
// mixes field declarations with method `def`s.
func (p *parser) parseMemberBlock() ([]ast.Field, []ast.FunctionDefinition, string) {
	var fields []ast.Field
	var methods []ast.FunctionDefinition
	doc := ""
	p.expect(lexer.COLON, "':'")
	p.skipNewlines()
	if !p.at(lexer.INDENT) {
		return fields, methods, doc
	}
	p.advance()
	for !p.at(lexer.DEDENT) && !p.at(lexer.EOF) {
		if p.at(lexer.STRING) && doc == "" && len(fields) == 0 && len(methods) == 0 {
			doc = p.advance().Text
			p.expectStmtEnd()
			continue
		}
		if p.at(lexer.KW_DEF) {
			fd := p.parseFunctionDef(nil).(*ast.FunctionDefinition)
			methods = append(methods, *fd)
			continue
		}
		name := p.expect(lexer.IDENT, "field name").Text
		field := ast.Field{Name: name}
		if p.at(lexer.COLON) {
			p.advance()
			field.Type = p.expect(lexer.IDENT, "field type").Text
		}
		if p.at(lexer.ASSIGN) {
			p.advance()
			field.Default = p.parseExpression()
		}
		fields = append(fields, field)
		p.expectStmtEnd()
	}
	if p.at(lexer.DEDENT) {
		p.advance()
	}
	return fields, methods, doc
}

func (p *parser) parseAgentDef() ast.Stmt {
	loc := p.loc()
	p.advance()
	name := p.expect(lexer.IDENT, "agent name").Text
	parent := ""
	if p.at(lexer.LPAREN) {
		p.advance()
		parent = p.expect(lexer.IDENT, "parent type name").Text
		p.expect(lexer.RPAREN, "')'")
	}
	fields, methods, doc := p.parseMemberBlock()
	return &ast.AgentDefinition{Base: ast.Base{Location: loc}, Name: name, Parent: parent, Fields: fields, Methods: methods, Docstring: doc}
}

func (p *parser) parseResourceDef() ast.Stmt {
	loc := p.loc()
	p.advance()
	name := p.expect(lexer.IDENT, "resource name").Text
	parent := ""
	if p.at(lexer.LPAREN) {
		p.advance()
		parent = p.expect(lexer.IDENT, "parent type name").Text
		p.expect(lexer.RPAREN, "')'")
	}
	fields, methods, doc := p.parseMemberBlock()
	return &ast.ResourceDefinition{Base: ast.Base{Location: loc}, Name: name, Parent: parent, Fields: fields, Methods: methods, Docstring: doc}
}

// --- expressions -----------------------------------------------------

func (p *parser) parseExpression() ast.Expr {
	return p.parseOr()
}

func (p *parser) parseOr() ast.Expr {
	left := p.parseAnd()
	for p.at(lexer.KW_OR) {
		loc := p.loc()
		p.advance()
		right := p.parseAnd()
		left = &ast.BinaryExpression{Base: ast.Base{Location: loc}, Left: left, Op: ast.OpOr, Right: right}
	}
	return left
}

func (p *parser) parseAnd() ast.Expr {
	left := p.parseNot()
	for p.at(lexer.KW_AND) {
		loc := p.loc()
		p.advance()
		right := p.parseNot()
		left = &ast.BinaryExpression{Base: ast.Base{Location: loc}, Left: left, Op: ast.OpAnd, Right: right}
	}
	return left
}

func (p *parser) parseNot() ast.Expr {
	if p.at(lexer.KW_NOT) {
		loc := p.loc()
		p.advance()
		operand := p.parseNot()
		return &ast.UnaryExpression{Base: ast.Base{Location: loc}, Op: ast.UnaryNot, Operand: operand}
	}
	return p.parseComparison()
}

var comparisonOps = map[lexer.Kind]ast.BinaryOp{
	lexer.EQ: ast.OpEq, lexer.NEQ: ast.OpNeq, lexer.LT: ast.OpLt,
	lexer.GT: ast.OpGt, lexer.LE: ast.OpLe, lexer.GE: ast.OpGe,
}

func (p *parser) parseComparison() ast.Expr {
	left := p.parseAddSub()
	for {
		if op, ok := comparisonOps[p.peekKind()]; ok {
			loc := p.loc()
			p.advance()
			right := p.parseAddSub()
			left = &ast.BinaryExpression{Base: ast.Base{Location: loc}, Left: left, Op: op, Right: right}
			continue
		}
		if p.at(lexer.KW_IN) {
			loc := p.loc()
			p.advance()
			right := p.parseAddSub()
			left = &ast.BinaryExpression{Base: ast.Base{Location: loc}, Left: left, Op: ast.OpIn, Right: right}
			continue
		}
		break
	}
	return left
}

func (p *parser) parseAddSub() ast.Expr {
	left := p.parsePipeline()
	for p.at(lexer.PLUS) || p.at(lexer.MINUS) {
		loc := p.loc()
		op := ast.OpAdd
		if p.cur().Kind == lexer.MINUS {
			op = ast.OpSub
		}
		p.advance()
		right := p.parsePipeline()
		left = &ast.BinaryExpression{Base: ast.Base{Location: loc}, Left: left, Op: op, Right: right}
	}
	return left
}

// parsePipeline handles `f | g` composition. It sits between add/sub and
// mul/div: `|` binds tighter than + and - and looser than *, / and %, so
// `a + f | g` reads as `a + (f | g)`.
func (p *parser) parsePipeline() ast.Expr {
	left := p.parseMulDiv()
	for p.at(lexer.PIPE) {
		loc := p.loc()
		p.advance()
		right := p.parseMulDiv()
		left = &ast.PipelineExpression{Base: ast.Base{Location: loc}, Left: left, Right: right}
	}
	return left
}

func (p *parser) parseMulDiv() ast.Expr {
	left := p.parseUnary()
	for p.at(lexer.STAR) || p.at(lexer.SLASH) || p.at(lexer.PERCENT) {
		loc := p.loc()
		var op ast.BinaryOp
		switch p.cur().Kind {
		case lexer.STAR:
			op = ast.OpMul
		case lexer.SLASH:
			op = ast.OpDiv
		case lexer.PERCENT:
			op = ast.OpMod
		}
		p.advance()
		right := p.parseUnary()
		left = &ast.BinaryExpression{Base: ast.Base{Location: loc}, Left: left, Op: op, Right: right}
	}
	return left
}

func (p *parser) parseUnary() ast.Expr {
	if p.at(lexer.MINUS) {
		loc := p.loc()
		p.advance()
		operand := p.parseUnary()
		return &ast.UnaryExpression{Base: ast.Base{Location: loc}, Op: ast.UnaryNeg, Operand: operand}
	}
	return p.parsePostfix()
}

// parsePostfix handles `.field`, `.method(args)`, `[index]`, and
// `name(args)` call suffixes chained onto a primary expression.
func (p *parser) parsePostfix() ast.Expr {
	expr := p.parsePrimary()
	for {
		switch p.peekKind() {
		case lexer.DOT:
			loc := p.loc()
			p.advance()
			field := p.expect(lexer.IDENT, "member name").Text
			if p.at(lexer.LPAREN) {
				args := p.parseArgs()
				expr = &ast.FunctionCall{Base: ast.Base{Location: loc}, Receiver: expr, Name: field, Args: args}
			} else {
				expr = &ast.MemberAccess{Base: ast.Base{Location: loc}, Receiver: expr, Field: field}
			}
		case lexer.LBRACKET:
			loc := p.loc()
			p.advance()
			idx := p.parseExpression()
			p.expect(lexer.RBRACKET, "']'")
			expr = &ast.IndexExpression{Base: ast.Base{Location: loc}, Receiver: expr, Index: idx}
		case lexer.LPAREN:
			if id, ok := expr.(*ast.Identifier); ok && id.Scope == "" && !strings.Contains(id.Path, ".") {
				loc := p.loc()
				args := p.parseArgs()
				expr = &ast.FunctionCall{Base: ast.Base{Location: loc}, Name: id.Path, Args: args}
				continue
			}
			return expr
		default:
			return expr
		}
	}
}

func (p *parser) parseArgs() []ast.Arg {
	p.expect(lexer.LPAREN, "'('")
	var args []ast.Arg
	for !p.at(lexer.RPAREN) && !p.at(lexer.EOF) {
		if p.at(lexer.IDENT) && p.toks[p.pos+1].Kind == lexer.ASSIGN {
			name := p.advance().Text
			p.advance() // =
			val := p.parseExpression()
			args = append(args, ast.Arg{Name: name, Value: val})
		} else {
			val := p.parseExpression()
			args = append(args, ast.Arg{Value: val})
		}
		if p.at(lexer.COMMA) {
			p.advance()
		}
	}
	p.expect(lexer.RPAREN, "')'")
	return args
}

func (p *parser) parsePrimary() ast.Expr {
	loc := p.loc()
	switch p.peekKind() {
	case lexer.INT:
		text := p.advance().Text
		v, _ := strconv.ParseInt(text, 10, 64)
		return &ast.LiteralExpression{Base: ast.Base{Location: loc}, Kind: ast.LiteralInt, Value: v}
	case lexer.FLOAT:
		text := p.advance().Text
		v, _ := strconv.ParseFloat(text, 64)
		return &ast.LiteralExpression{Base: ast.Base{Location: loc}, Kind: ast.LiteralFloat, Value: v}
	case lexer.STRING:
		text := p.advance().Text
		return &ast.LiteralExpression{Base: ast.Base{Location: loc}, Kind: ast.LiteralString, Value: text}
	case lexer.FSTRING:
		text := p.advance().Text
		return p.parseFString(text, loc)
	case lexer.KW_TRUE:
		p.advance()
		return &ast.LiteralExpression{Base: ast.Base{Location: loc}, Kind: ast.LiteralBool, Value: true}
	case lexer.KW_FALSE:
		p.advance()
		return &ast.LiteralExpression{Base: ast.Base{Location: loc}, Kind: ast.LiteralBool, Value: false}
	case lexer.KW_NONE:
		p.advance()
		return &ast.LiteralExpression{Base: ast.Base{Location: loc}, Kind: ast.LiteralNone}
	case lexer.IDENT:
		text := p.advance().Text
		scope, path := splitScope(text)
		return &ast.Identifier{Base: ast.Base{Location: loc}, Scope: scope, Path: path}
	case lexer.LPAREN:
		p.advance()
		if p.at(lexer.RPAREN) {
			p.advance()
			return &ast.TupleExpression{Base: ast.Base{Location: loc}}
		}
		first := p.parseExpression()
		if p.at(lexer.COMMA) {
			elems := []ast.Expr{first}
			for p.at(lexer.COMMA) {
				p.advance()
				if p.at(lexer.RPAREN) {
					break
				}
				elems = append(elems, p.parseExpression())
			}
			p.expect(lexer.RPAREN, "')'")
			return &ast.TupleExpression{Base: ast.Base{Location: loc}, Elements: elems}
		}
		p.expect(lexer.RPAREN, "')'")
		return first
	case lexer.LBRACKET:
		p.advance()
		var elems []ast.Expr
		for !p.at(lexer.RBRACKET) && !p.at(lexer.EOF) {
			elems = append(elems, p.parseExpression())
			if p.at(lexer.COMMA) {
				p.advance()
			}
		}
		p.expect(lexer.RBRACKET, "']'")
		return &ast.ListExpression{Base: ast.Base{Location: loc}, Elements: elems}
	case lexer.LBRACE:
		return p.parseBraceLiteral(loc)
	default:
		p.errorf("", "unexpected token %q in expression", p.cur().Text)
		p.advance()
		return &ast.LiteralExpression{Base: ast.Base{Location: loc}, Kind: ast.LiteralNone}
	}
}

func (p *parser) parseBraceLiteral(loc ast.Location) ast.Expr {
	p.advance() // {
	if p.at(lexer.RBRACE) {
		p.advance()
		return &ast.DictExpression{Base: ast.Base{Location: loc}}
	}
	first := p.parseExpression()
	if p.at(lexer.COLON) {
		p.advance()
		val := p.parseExpression()
		entries := []ast.DictEntry{{Key: first, Value: val}}
		for p.at(lexer.COMMA) {
			p.advance()
			if p.at(lexer.RBRACE) {
				break
			}
			k := p.parseExpression()
			p.expect(lexer.COLON, "':'")
			v := p.parseExpression()
			entries = append(entries, ast.DictEntry{Key: k, Value: v})
		}
		p.expect(lexer.RBRACE, "'}'")
		return &ast.DictExpression{Base: ast.Base{Location: loc}, Entries: entries}
	}
	elems := []ast.Expr{first}
	for p.at(lexer.COMMA) {
		p.advance()
		if p.at(lexer.RBRACE) {
			break
		}
		elems = append(elems, p.parseExpression())
	}
	p.expect(lexer.RBRACE, "'}'")
	return &ast.SetExpression{Base: ast.Base{Location: loc}, Elements: elems}
}

func splitScope(text string) (scope, path string) {
	if i := strings.IndexByte(text, ':'); i >= 0 {
		return text[:i], text[i+1:]
	}
	return "", text
}

// parseFString splits the raw f-string body into alternating literal-text
// and expression parts. The lexer already validated brace balance.
func (p *parser) parseFString(raw string, loc ast.Location) ast.Expr {
	var parts []ast.FStringPart
	var lit strings.Builder
	i := 0
	for i < len(raw) {
		if raw[i] == '{' {
			if lit.Len() > 0 {
				parts = append(parts, ast.FStringPart{Text: lit.String()})
				lit.Reset()
			}
			depth := 1
			j := i + 1
			for j < len(raw) && depth > 0 {
				if raw[j] == '{' {
					depth++
				} else if raw[j] == '}' {
					depth--
					if depth == 0 {
						break
					}
				}
				j++
			}
			inner := raw[i+1 : j]
			sub := Parse(inner + "\n")
			var expr ast.Expr
			if len(sub.Program.Statements) == 1 {
				if es, ok := sub.Program.Statements[0].(*ast.ExprStmt); ok {
					expr = es.Value
				}
			}
			for _, e := range sub.Errors {
				p.errors = append(p.errors, e)
			}
			if expr == nil {
				expr = &ast.LiteralExpression{Base: ast.Base{Location: loc}, Kind: ast.LiteralNone}
			}
			parts = append(parts, ast.FStringPart{Expr: expr})
			i = j + 1
			continue
		}
		lit.WriteByte(raw[i])
		i++
	}
	if lit.Len() > 0 {
		parts = append(parts, ast.FStringPart{Text: lit.String()})
	}
	return &ast.FStringExpression{Base: ast.Base{Location: loc}, Parts: parts}
}
