// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package semantic

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/probechain/probeplay/lang/token"
)

// GlobalLevel is the scope level of the outermost SymbolTable.
const GlobalLevel = 1

// SymbolTable holds the symbols of one lexical scope. Parent is nil for the
// global scope.
type SymbolTable struct {
	Name   string
	Level  int
	Parent *SymbolTable

	symbols map[string]Symbol
}

// NewSymbolTable creates an empty scope nested inside parent.
func NewSymbolTable(name string, level int, parent *SymbolTable) *SymbolTable {
	return &SymbolTable{
		Name:    name,
		Level:   level,
		Parent:  parent,
		symbols: make(map[string]Symbol),
	}
}

// NewGlobalTable creates the level-1 scope pre-populated with the built-in
// types.
func NewGlobalTable() *SymbolTable {
	s := NewSymbolTable("global", GlobalLevel, nil)
	for _, name := range token.BuiltinTypes {
		s.symbols[name] = &TypeSymbol{Name: name}
	}
	return s
}

// Insert adds sym to this scope only. It fails if the name is already taken
// at this level; shadowing a name from an enclosing scope is allowed.
func (s *SymbolTable) Insert(sym Symbol) error {
	name := sym.SymbolName()
	if _, exists := s.symbols[name]; exists {
		return fmt.Errorf("%w: '%s' already declared in scope %s", ErrDuplicateIdentifier, name, s.Name)
	}
	sym.setLevel(s.Level)
	s.symbols[name] = sym
	return nil
}

// Lookup searches for name starting from this scope and walking outwards.
func (s *SymbolTable) Lookup(name string) (Symbol, bool) {
	for scope := s; scope != nil; scope = scope.Parent {
		if sym, ok := scope.symbols[name]; ok {
			return sym, true
		}
	}
	return nil, false
}

// LookupCurrent checks only this scope level.
func (s *SymbolTable) LookupCurrent(name string) (Symbol, bool) {
	sym, ok := s.symbols[name]
	return sym, ok
}

// Len returns the number of symbols declared at this level.
func (s *SymbolTable) Len() int { return len(s.symbols) }

func (s *SymbolTable) String() string {
	names := make([]string, 0, len(s.symbols))
	for name := range s.symbols {
		names = append(names, name)
	}
	sort.Strings(names)

	var out bytes.Buffer
	fmt.Fprintf(&out, "scope %s (level %d)\n", s.Name, s.Level)
	for _, name := range names {
		fmt.Fprintf(&out, "  %8s: %s\n", name, s.symbols[name])
	}
	return out.String()
}
