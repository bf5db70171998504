// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package parser implements a recursive-descent parser for the playground
// language.
//
// Design overview:
//
//   - One token of lookahead (cur) and an expect primitive that either consumes
//     a token of the wanted type or fails naming the offending token.
//   - The first error is fatal; there is no recovery.
//   - A NAME starts a function call only when the raw character immediately
//     after it is '(' (see lexer.CurrentChar); otherwise it is a variable
//     reference or the start of a declaration.
//
// Grammar:
//
//	program        := statement_list EOF
//	statement_list := statement (';' statement_list)?   // if/function need no ';'
//	statement      := assignment | print_stmt | if_stmt | func_decl | func_call | return_stmt | empty
//	expr           := term (('+'|'-') term)*
//	term           := factor (('*'|'/') factor)*
//	factor         := ('+'|'-') factor | INT | FLOAT | STRING | BOOL | '(' expr ')' | NAME | func_call
//	func_call      := NAME '(' (expr (',' expr)*)? ')'
//	if_stmt        := 'if' comparison '{' block '}' ('else' '{' block '}')?
//	comparison     := '(' expr (cmp_op expr)? ')'
//	assignment     := NAME ':' TYPE '=' expr
//	print_stmt     := 'print' '(' expr (',' expr)* ')'
//	func_decl      := 'function' NAME '(' (param (',' param)*)? ')' '{' block '}'
//	param          := NAME ':' TYPE
//	return_stmt    := 'return' '(' (expr (',' expr)*)? ')'
package parser

import (
	"errors"
	"fmt"

	"github.com/probechain/probeplay/lang/ast"
	"github.com/probechain/probeplay/lang/lexer"
	"github.com/probechain/probeplay/lang/token"
)

// ErrUnexpectedToken is returned when the current token does not match the
// grammar at that point.
var ErrUnexpectedToken = errors.New("unexpected token")

// Error is a parse failure naming the offending token.
type Error struct {
	Want string // what the grammar expected
	Got  token.Token
}

func (e *Error) Error() string {
	return fmt.Sprintf("parse error at %s: expected %s, got %s (%q)", e.Got.Pos, e.Want, e.Got.Type, e.Got.Literal)
}

func (e *Error) Unwrap() error { return ErrUnexpectedToken }

// Parser holds the mutable state for a single parse run.
type Parser struct {
	lex *lexer.Lexer
	cur token.Token // current token
}

// New creates a parser over source and primes the first token.
func New(source string) (*Parser, error) {
	p := &Parser{lex: lexer.New(source)}
	if err := p.advance(); err != nil {
		return nil, err
	}
	return p, nil
}

// Parse is the public entry point: it parses source into the program Block.
func Parse(source string) (*ast.Block, error) {
	p, err := New(source)
	if err != nil {
		return nil, err
	}
	return p.Parse()
}

// Parse parses the whole program as a single top-level Block.
func (p *Parser) Parse() (*ast.Block, error) {
	prog, err := p.block()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.EOF, "end of input"); err != nil {
		return nil, err
	}
	return prog, nil
}

// ---------------------------------------------------------------------------
// Token navigation helpers
// ---------------------------------------------------------------------------

// advance reads the next token from the lexer into cur.
func (p *Parser) advance() error {
	tok, err := p.lex.NextToken()
	if err != nil {
		return err
	}
	p.cur = tok
	return nil
}

// expect consumes the current token if it matches typ, otherwise fails
// without consuming it.
func (p *Parser) expect(typ token.Type, want string) (token.Token, error) {
	if p.cur.Type != typ {
		if want == "" {
			want = typ.String()
		}
		return p.cur, &Error{Want: want, Got: p.cur}
	}
	tok := p.cur
	return tok, p.advance()
}

func (p *Parser) curIs(typ token.Type) bool { return p.cur.Type == typ }

// atCall reports whether the current NAME is immediately followed by '('.
func (p *Parser) atCall() bool {
	return p.curIs(token.NAME) && p.lex.CurrentChar() == '('
}

// ---------------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------------

func (p *Parser) block() (*ast.Block, error) {
	blk := &ast.Block{Token: p.cur}
	stmts, err := p.statementList()
	if err != nil {
		return nil, err
	}
	blk.Statements = stmts
	return blk, nil
}

func (p *Parser) statementList() ([]ast.Node, error) {
	var stmts []ast.Node
	for {
		stmt, err := p.statement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)

		switch stmt.(type) {
		case *ast.IfStatement, *ast.FuncDecl:
			continue
		}
		if !p.curIs(token.SEMICOLON) {
			return stmts, nil
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
}

func (p *Parser) statement() (ast.Node, error) {
	switch p.cur.Type {
	case token.NAME:
		if p.atCall() {
			return p.funcCall()
		}
		return p.assignment()
	case token.PRINT:
		return p.printStmt()
	case token.IF:
		return p.ifStmt()
	case token.FUNCTION:
		return p.funcDecl()
	case token.RETURN:
		return p.returnStmt()
	}
	return &ast.Empty{Token: p.cur}, nil
}

// assignment := NAME ':' TYPE '=' expr
func (p *Parser) assignment() (ast.Node, error) {
	name, err := p.expect(token.NAME, "")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.COLON, ""); err != nil {
		return nil, err
	}
	typ, err := p.expect(token.TYPE, "type name")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.ASSIGN, ""); err != nil {
		return nil, err
	}
	value, err := p.expr()
	if err != nil {
		return nil, err
	}
	return &ast.Assign{Token: name, Name: name.Literal, TypeName: typ.Literal, Value: value}, nil
}

// print_stmt := 'print' '(' expr (',' expr)* ')'
func (p *Parser) printStmt() (ast.Node, error) {
	tok := p.cur
	if err := p.advance(); err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LPAREN, ""); err != nil {
		return nil, err
	}
	args, err := p.exprList(1)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RPAREN, ""); err != nil {
		return nil, err
	}
	return &ast.Print{Token: tok, Args: args}, nil
}

// if_stmt := 'if' comparison '{' block '}' ('else' '{' block '}')?
func (p *Parser) ifStmt() (ast.Node, error) {
	node := &ast.IfStatement{Token: p.cur}
	if err := p.advance(); err != nil {
		return nil, err
	}
	cond, err := p.comparison()
	if err != nil {
		return nil, err
	}
	node.Cond = cond

	if node.Then, err = p.braced(); err != nil {
		return nil, err
	}
	if p.curIs(token.ELSE) {
		if err := p.advance(); err != nil {
			return nil, err
		}
		if node.Else, err = p.braced(); err != nil {
			return nil, err
		}
	}
	return node, nil
}

// braced parses '{' block '}'.
func (p *Parser) braced() (*ast.Block, error) {
	if _, err := p.expect(token.LBRACE, ""); err != nil {
		return nil, err
	}
	blk, err := p.block()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RBRACE, ""); err != nil {
		return nil, err
	}
	return blk, nil
}

// comparison := '(' expr (cmp_op expr)? ')'
func (p *Parser) comparison() (*ast.Comparison, error) {
	open, err := p.expect(token.LPAREN, "")
	if err != nil {
		return nil, err
	}
	left, err := p.expr()
	if err != nil {
		return nil, err
	}
	cmp := &ast.Comparison{Token: open, Left: left}
	if p.curIs(token.RPAREN) {
		return cmp, p.advance()
	}
	if !p.cur.Type.IsComparison() {
		return nil, &Error{Want: "comparison operator or )", Got: p.cur}
	}
	cmp.Op = p.cur.Type
	if err := p.advance(); err != nil {
		return nil, err
	}
	if cmp.Right, err = p.expr(); err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RPAREN, ""); err != nil {
		return nil, err
	}
	return cmp, nil
}

// func_decl := 'function' NAME '(' (param (',' param)*)? ')' '{' block '}'
func (p *Parser) funcDecl() (ast.Node, error) {
	fn := &ast.FuncDecl{Token: p.cur}
	if err := p.advance(); err != nil {
		return nil, err
	}
	name, err := p.expect(token.NAME, "function name")
	if err != nil {
		return nil, err
	}
	fn.Name = name.Literal

	if _, err := p.expect(token.LPAREN, ""); err != nil {
		return nil, err
	}
	for !p.curIs(token.RPAREN) {
		param, err := p.param()
		if err != nil {
			return nil, err
		}
		fn.Params = append(fn.Params, param)
		if !p.curIs(token.COMMA) {
			break
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(token.RPAREN, ""); err != nil {
		return nil, err
	}

	if fn.Body, err = p.braced(); err != nil {
		return nil, err
	}
	fn.Returns = trailingReturn(fn.Body)
	return fn, nil
}

// param := NAME ':' TYPE
func (p *Parser) param() (*ast.Param, error) {
	name, err := p.expect(token.NAME, "parameter name")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.COLON, ""); err != nil {
		return nil, err
	}
	typ, err := p.expect(token.TYPE, "type name")
	if err != nil {
		return nil, err
	}
	return &ast.Param{Token: name, Name: name.Literal, TypeName: typ.Literal}, nil
}

// trailingReturn returns the expressions of the last non-empty statement of
// body when it is a return statement.
func trailingReturn(body *ast.Block) []ast.Node {
	for i := len(body.Statements) - 1; i >= 0; i-- {
		switch s := body.Statements[i].(type) {
		case *ast.Empty:
			continue
		case *ast.Return:
			return s.Exprs
		}
		return nil
	}
	return nil
}

// return_stmt := 'return' '(' (expr (',' expr)*)? ')'
func (p *Parser) returnStmt() (ast.Node, error) {
	tok := p.cur
	if err := p.advance(); err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LPAREN, ""); err != nil {
		return nil, err
	}
	exprs, err := p.exprList(0)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RPAREN, ""); err != nil {
		return nil, err
	}
	return &ast.Return{Token: tok, Exprs: exprs}, nil
}

// func_call := NAME '(' (expr (',' expr)*)? ')'
func (p *Parser) funcCall() (*ast.FuncCall, error) {
	name, err := p.expect(token.NAME, "")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LPAREN, ""); err != nil {
		return nil, err
	}
	args, err := p.exprList(0)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RPAREN, ""); err != nil {
		return nil, err
	}
	return &ast.FuncCall{Token: name, Name: name.Literal, Args: args}, nil
}

// exprList parses comma-separated expressions up to (not including) ')'.
// At least min expressions are required.
func (p *Parser) exprList(min int) ([]ast.Node, error) {
	var list []ast.Node
	if min == 0 && p.curIs(token.RPAREN) {
		return list, nil
	}
	for {
		e, err := p.expr()
		if err != nil {
			return nil, err
		}
		list = append(list, e)
		if !p.curIs(token.COMMA) {
			return list, nil
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
}

// ---------------------------------------------------------------------------
// Arithmetic expressions
// ---------------------------------------------------------------------------

// expr := term (('+'|'-') term)*
func (p *Parser) expr() (ast.Node, error) {
	node, err := p.term()
	if err != nil {
		return nil, err
	}
	for p.curIs(token.PLUS) || p.curIs(token.MINUS) {
		op := p.cur
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.term()
		if err != nil {
			return nil, err
		}
		node = &ast.BinOp{Token: op, Op: op.Type, Left: node, Right: right}
	}
	return node, nil
}

// term := factor (('*'|'/') factor)*
func (p *Parser) term() (ast.Node, error) {
	node, err := p.factor()
	if err != nil {
		return nil, err
	}
	for p.curIs(token.MUL) || p.curIs(token.DIV) {
		op := p.cur
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.factor()
		if err != nil {
			return nil, err
		}
		node = &ast.BinOp{Token: op, Op: op.Type, Left: node, Right: right}
	}
	return node, nil
}

func (p *Parser) factor() (ast.Node, error) {
	tok := p.cur
	switch tok.Type {
	case token.PLUS, token.MINUS:
		if err := p.advance(); err != nil {
			return nil, err
		}
		operand, err := p.factor()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryOp{Token: tok, Op: tok.Type, Operand: operand}, nil

	case token.INT:
		return &ast.NumberLit{Token: tok, Value: tok.Value.(int64)}, p.advance()

	case token.FLOAT:
		return &ast.FloatLit{Token: tok, Value: tok.Value.(float64)}, p.advance()

	case token.STRING:
		return &ast.StringLit{Token: tok, Value: tok.Value.(string)}, p.advance()

	case token.BOOL:
		return &ast.BoolLit{Token: tok, Value: tok.Value.(bool)}, p.advance()

	case token.LPAREN:
		if err := p.advance(); err != nil {
			return nil, err
		}
		node, err := p.expr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RPAREN, ""); err != nil {
			return nil, err
		}
		return node, nil

	case token.NAME:
		if p.atCall() {
			return p.funcCall()
		}
		return &ast.Var{Token: tok, Name: tok.Literal}, p.advance()
	}
	return nil, &Error{Want: "expression", Got: tok}
}
