// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package ast defines the Abstract Syntax Tree for the playground language.
//
// Design overview:
//
//   - Statements and expressions share one closed sum type, Node. The set of
//     variants is sealed by the unexported node() marker, so consumers can
//     type-switch over every variant and treat anything else as a bug.
//   - Nodes are passive data. Analysis results are kept out of band (see the
//     semantic package), never written back into the tree.
//   - Every node records the token.Token that originated it so error messages
//     can reference source locations.
package ast

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/probechain/probeplay/lang/token"
)

// Node is the interface that every AST node implements.
type Node interface {
	// Pos returns the source position of the token that originated this node.
	Pos() token.Position

	// String returns a human-readable, parenthesised representation of the node
	// suitable for unit tests and debug output.
	String() string

	node()
}

// Block is a sequence of statements: the program itself and every
// brace-delimited body.
type Block struct {
	Token      token.Token
	Statements []Node
}

// NumberLit is an integer literal.
type NumberLit struct {
	Token token.Token
	Value int64
}

// FloatLit is a floating-point literal.
type FloatLit struct {
	Token token.Token
	Value float64
}

// BoolLit is True or False.
type BoolLit struct {
	Token token.Token
	Value bool
}

// StringLit is a quoted string; Value excludes the quotes.
type StringLit struct {
	Token token.Token
	Value string
}

// Var is a reference to a named variable.
type Var struct {
	Token token.Token
	Name  string
}

// UnaryOp is +x or -x.
type UnaryOp struct {
	Token   token.Token
	Op      token.Type // PLUS or MINUS
	Operand Node
}

// BinOp is an arithmetic operation.
type BinOp struct {
	Token token.Token
	Op    token.Type // PLUS, MINUS, MUL or DIV
	Left  Node
	Right Node
}

// Comparison is the condition of an if statement. When Op is token.ILLEGAL
// and Right is nil the comparison is a truthiness test of Left.
type Comparison struct {
	Token token.Token // the opening '('
	Left  Node
	Op    token.Type
	Right Node
}

// HasOp reports whether the comparison applies a relational operator.
func (c *Comparison) HasOp() bool { return c.Right != nil }

// Assign declares a variable with an initializer: name: type = value.
type Assign struct {
	Token    token.Token // the NAME token
	Name     string
	TypeName string
	Value    Node
}

// Print is print(arg, ...).
type Print struct {
	Token token.Token
	Args  []Node
}

// IfStatement is if (cond) { ... } else { ... }. Else is nil when absent.
type IfStatement struct {
	Token token.Token
	Cond  *Comparison
	Then  *Block
	Else  *Block
}

// Param is one formal parameter: name: type.
type Param struct {
	Token    token.Token
	Name     string
	TypeName string
}

// FuncDecl is a function declaration. Returns holds the expressions of the
// trailing return statement of Body, nil when the body does not end in one.
type FuncDecl struct {
	Token   token.Token // 'function'
	Name    string
	Params  []*Param
	Body    *Block
	Returns []Node
}

// FuncCall is name(arg, ...).
type FuncCall struct {
	Token token.Token // the NAME token
	Name  string
	Args  []Node
}

// Return is return (expr, ...).
type Return struct {
	Token token.Token
	Exprs []Node
}

// Empty is the placeholder for an empty statement.
type Empty struct {
	Token token.Token
}

func (*Block) node()       {}
func (*NumberLit) node()   {}
func (*FloatLit) node()    {}
func (*BoolLit) node()     {}
func (*StringLit) node()   {}
func (*Var) node()         {}
func (*UnaryOp) node()     {}
func (*BinOp) node()       {}
func (*Comparison) node()  {}
func (*Assign) node()      {}
func (*Print) node()       {}
func (*IfStatement) node() {}
func (*Param) node()       {}
func (*FuncDecl) node()    {}
func (*FuncCall) node()    {}
func (*Return) node()      {}
func (*Empty) node()       {}

func (n *Block) Pos() token.Position       { return n.Token.Pos }
func (n *NumberLit) Pos() token.Position   { return n.Token.Pos }
func (n *FloatLit) Pos() token.Position    { return n.Token.Pos }
func (n *BoolLit) Pos() token.Position     { return n.Token.Pos }
func (n *StringLit) Pos() token.Position   { return n.Token.Pos }
func (n *Var) Pos() token.Position         { return n.Token.Pos }
func (n *UnaryOp) Pos() token.Position     { return n.Token.Pos }
func (n *BinOp) Pos() token.Position       { return n.Token.Pos }
func (n *Comparison) Pos() token.Position  { return n.Token.Pos }
func (n *Assign) Pos() token.Position      { return n.Token.Pos }
func (n *Print) Pos() token.Position       { return n.Token.Pos }
func (n *IfStatement) Pos() token.Position { return n.Token.Pos }
func (n *Param) Pos() token.Position       { return n.Token.Pos }
func (n *FuncDecl) Pos() token.Position    { return n.Token.Pos }
func (n *FuncCall) Pos() token.Position    { return n.Token.Pos }
func (n *Return) Pos() token.Position      { return n.Token.Pos }
func (n *Empty) Pos() token.Position       { return n.Token.Pos }

// ---------------------------------------------------------------------------
// String forms
// ---------------------------------------------------------------------------

func (n *Block) String() string {
	var out bytes.Buffer
	out.WriteString("{ ")
	for _, s := range n.Statements {
		if _, ok := s.(*Empty); ok {
			continue
		}
		out.WriteString(s.String())
		out.WriteString("; ")
	}
	out.WriteString("}")
	return out.String()
}

func (n *NumberLit) String() string { return strconv.FormatInt(n.Value, 10) }
func (n *FloatLit) String() string  { return strconv.FormatFloat(n.Value, 'g', -1, 64) }
func (n *StringLit) String() string { return strconv.Quote(n.Value) }
func (n *Var) String() string       { return n.Name }
func (n *Empty) String() string     { return "" }

func (n *BoolLit) String() string {
	if n.Value {
		return "True"
	}
	return "False"
}

func (n *UnaryOp) String() string {
	return "(" + n.Op.String() + n.Operand.String() + ")"
}

func (n *BinOp) String() string {
	return "(" + n.Left.String() + " " + n.Op.String() + " " + n.Right.String() + ")"
}

func (n *Comparison) String() string {
	if !n.HasOp() {
		return "(" + n.Left.String() + ")"
	}
	return "(" + n.Left.String() + " " + n.Op.String() + " " + n.Right.String() + ")"
}

func (n *Assign) String() string {
	return n.Name + ": " + n.TypeName + " = " + n.Value.String()
}

func (n *Print) String() string {
	return "print(" + joinNodes(n.Args) + ")"
}

func (n *IfStatement) String() string {
	s := "if " + n.Cond.String() + " " + n.Then.String()
	if n.Else != nil {
		s += " else " + n.Else.String()
	}
	return s
}

func (n *Param) String() string { return n.Name + ": " + n.TypeName }

func (n *FuncDecl) String() string {
	params := make([]string, len(n.Params))
	for i, p := range n.Params {
		params[i] = p.String()
	}
	return "function " + n.Name + "(" + strings.Join(params, ", ") + ") " + n.Body.String()
}

func (n *FuncCall) String() string {
	return n.Name + "(" + joinNodes(n.Args) + ")"
}

func (n *Return) String() string {
	return "return (" + joinNodes(n.Exprs) + ")"
}

func joinNodes(nodes []Node) string {
	parts := make([]string, len(nodes))
	for i, n := range nodes {
		parts[i] = n.String()
	}
	return strings.Join(parts, ", ")
}

// IsArithmetic reports whether n is an arithmetic expression node.
func IsArithmetic(n Node) bool {
	switch n.(type) {
	case *BinOp, *UnaryOp:
		return true
	}
	return false
}
