// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package semantic

import (
	"fmt"
	"strings"

	"github.com/probechain/probeplay/lang/ast"
)

// Symbol is an entry in a SymbolTable.
type Symbol interface {
	// SymbolName returns the identifier the symbol is registered under.
	SymbolName() string

	// setLevel records the scope level of the table the symbol is inserted into.
	setLevel(level int)

	String() string
}

// TypeSymbol is a built-in type: int, str, bool or float.
type TypeSymbol struct {
	Name string
}

// VarSymbol is a declared variable or formal parameter.
type VarSymbol struct {
	Name       string
	Type       *TypeSymbol
	ScopeLevel int
}

// FunctionSymbol is a declared function. Params are in declaration order.
type FunctionSymbol struct {
	Name       string
	Params     []*VarSymbol
	Body       *ast.Block
	Returns    []ast.Node // declared return list, nil if the body has no trailing return
	ScopeLevel int
}

// ReturnArity is the number of values in the declared return list.
func (f *FunctionSymbol) ReturnArity() int { return len(f.Returns) }

func (s *TypeSymbol) SymbolName() string     { return s.Name }
func (s *VarSymbol) SymbolName() string      { return s.Name }
func (s *FunctionSymbol) SymbolName() string { return s.Name }

func (s *TypeSymbol) setLevel(int)           {}
func (s *VarSymbol) setLevel(level int)      { s.ScopeLevel = level }
func (s *FunctionSymbol) setLevel(level int) { s.ScopeLevel = level }

func (s *TypeSymbol) String() string { return "<type " + s.Name + ">" }

func (s *VarSymbol) String() string {
	return fmt.Sprintf("<var %s: %s @%d>", s.Name, s.Type.Name, s.ScopeLevel)
}

func (s *FunctionSymbol) String() string {
	params := make([]string, len(s.Params))
	for i, p := range s.Params {
		params[i] = p.Name + ": " + p.Type.Name
	}
	return fmt.Sprintf("<function %s(%s) @%d>", s.Name, strings.Join(params, ", "), s.ScopeLevel)
}
