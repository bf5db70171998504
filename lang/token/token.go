// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package token defines the lexical token types for the playground language.
//
// Design principles:
//   - Small, closed token set: one kind per punctuation symbol
//   - Reserved words are looked up from a fixed table after a name is scanned
//   - Literal tokens carry their decoded value so the parser never re-parses text
package token

import "fmt"

// Token represents a lexical token.
type Token struct {
	Type    Type
	Literal string      // source text of the token
	Value   interface{} // int64, float64, bool or string for literals; nil otherwise
	Pos     Position
}

func (t Token) String() string {
	if t.Value != nil {
		return fmt.Sprintf("Token(%s, %#v)", t.Type, t.Value)
	}
	return fmt.Sprintf("Token(%s, %q)", t.Type, t.Literal)
}

// Position tracks source location.
type Position struct {
	Line   int
	Column int
	Offset int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Type is the set of lexical token types.
type Type int

const (
	// Special tokens
	ILLEGAL Type = iota
	EOF

	// Literals
	NAME   // some_var
	INT    // 42
	FLOAT  // 3.14
	STRING // 'hey' or "hey"
	BOOL   // True / False

	// Arithmetic
	PLUS  // +
	MINUS // -
	MUL   // *
	DIV   // /

	// Comparison
	EQ  // ==
	LT  // <
	GT  // >
	LTE // <=
	GTE // >=

	// Delimiters
	ASSIGN    // =
	LPAREN    // (
	RPAREN    // )
	LBRACE    // {
	RBRACE    // }
	COMMA     // ,
	SEMICOLON // ;
	COLON     // :

	keywordStart
	PRINT    // print
	IF       // if
	ELSE     // else
	FUNCTION // function
	RETURN   // return
	TYPE     // int, float, bool, str
	keywordEnd
)

var tokenNames = [...]string{
	ILLEGAL: "ILLEGAL",
	EOF:     "EOF",

	NAME:   "NAME",
	INT:    "INT",
	FLOAT:  "FLOAT",
	STRING: "STRING",
	BOOL:   "BOOL",

	PLUS:  "+",
	MINUS: "-",
	MUL:   "*",
	DIV:   "/",

	EQ:  "==",
	LT:  "<",
	GT:  ">",
	LTE: "<=",
	GTE: ">=",

	ASSIGN:    "=",
	LPAREN:    "(",
	RPAREN:    ")",
	LBRACE:    "{",
	RBRACE:    "}",
	COMMA:     ",",
	SEMICOLON: ";",
	COLON:     ":",

	PRINT:    "print",
	IF:       "if",
	ELSE:     "else",
	FUNCTION: "function",
	RETURN:   "return",
	TYPE:     "TYPE",
}

// String returns the string form of a token type.
func (t Type) String() string {
	if int(t) < len(tokenNames) && tokenNames[t] != "" {
		return tokenNames[t]
	}
	return fmt.Sprintf("token(%d)", t)
}

// IsKeyword returns true if the token is a reserved word.
func (t Type) IsKeyword() bool {
	return t > keywordStart && t < keywordEnd
}

// IsComparison returns true for the relational operators usable in an if condition.
func (t Type) IsComparison() bool {
	return t >= EQ && t <= GTE
}

// IsLiteral returns true if the token is a literal value or a name.
func (t Type) IsLiteral() bool {
	return t >= NAME && t <= BOOL
}

// Built-in type names.
const (
	TypeInt   = "int"
	TypeFloat = "float"
	TypeBool  = "bool"
	TypeStr   = "str"
)

// BuiltinTypes lists the built-in type names in declaration order.
var BuiltinTypes = []string{TypeInt, TypeStr, TypeBool, TypeFloat}

// reserved maps reserved words to their token types.
var reserved = map[string]Type{
	"print":    PRINT,
	"if":       IF,
	"else":     ELSE,
	"function": FUNCTION,
	"return":   RETURN,
	TypeInt:    TYPE,
	TypeFloat:  TYPE,
	TypeBool:   TYPE,
	TypeStr:    TYPE,
	"True":     BOOL,
	"False":    BOOL,
}

// LookupName checks if a scanned name is a reserved word.
func LookupName(name string) Type {
	if tok, ok := reserved[name]; ok {
		return tok
	}
	return NAME
}
