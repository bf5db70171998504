// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package semantic performs static scope and type checks over a parsed
// program.
//
// The analyzer walks the tree once, depth first, keeping a cursor on the
// current SymbolTable. Function declarations open a nested table; if/else
// bodies do not. Call sites are resolved to their FunctionSymbol and recorded
// in Info, keyed by node identity, so the interpreter never re-resolves them.
// The symbol tables themselves are discarded once analysis finishes.
package semantic

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/log"

	"github.com/probechain/probeplay/lang/ast"
	"github.com/probechain/probeplay/lang/token"
)

var (
	ErrDuplicateIdentifier = errors.New("duplicate identifier")
	ErrIdentifierNotFound  = errors.New("identifier not found")
	ErrTypeMismatch        = errors.New("type mismatch")
	ErrUndeclaredFunction  = errors.New("undeclared function")
	ErrArity               = errors.New("wrong number of arguments")
	ErrArgumentType        = errors.New("argument type mismatch")
	ErrUnknownType         = errors.New("unknown type")
	ErrNotAFunction        = errors.New("not a function")
	ErrNotAVariable        = errors.New("not a variable")
)

// Error is a semantic failure at a source position. Err wraps one of the
// Err* sentinels.
type Error struct {
	Pos token.Position
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("semantic error at %s: %v", e.Pos, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Info is the analysis result consumed by the interpreter.
type Info struct {
	// Calls maps every call site to the function it resolves to.
	Calls map[*ast.FuncCall]*FunctionSymbol

	// Functions maps every declaration to its symbol.
	Functions map[*ast.FuncDecl]*FunctionSymbol
}

// Analyzer holds the state of a single analysis run.
type Analyzer struct {
	scope *SymbolTable
	info  *Info
}

// New creates an analyzer with a fresh global scope.
func New() *Analyzer {
	return &Analyzer{
		scope: NewGlobalTable(),
		info: &Info{
			Calls:     make(map[*ast.FuncCall]*FunctionSymbol),
			Functions: make(map[*ast.FuncDecl]*FunctionSymbol),
		},
	}
}

// Analyse checks prog with a fresh analyzer.
func Analyse(prog *ast.Block) (*Info, error) {
	return New().Analyse(prog)
}

// Analyse checks prog and returns the call-site resolutions. The first
// violation aborts the walk.
func (a *Analyzer) Analyse(prog *ast.Block) (*Info, error) {
	if err := a.visit(prog); err != nil {
		return nil, err
	}
	log.Trace("Semantic analysis finished", "functions", len(a.info.Functions), "calls", len(a.info.Calls))
	return a.info, nil
}

func fail(pos token.Position, sentinel error, format string, args ...interface{}) error {
	return &Error{Pos: pos, Err: fmt.Errorf("%w: "+format, append([]interface{}{sentinel}, args...)...)}
}

func (a *Analyzer) visit(node ast.Node) error {
	switch n := node.(type) {
	case *ast.Block:
		for _, stmt := range n.Statements {
			if err := a.visit(stmt); err != nil {
				return err
			}
		}
		return nil

	case *ast.NumberLit, *ast.FloatLit, *ast.BoolLit, *ast.StringLit, *ast.Empty:
		return nil

	case *ast.Var:
		sym, ok := a.scope.Lookup(n.Name)
		if !ok {
			return fail(n.Pos(), ErrIdentifierNotFound, "'%s'", n.Name)
		}
		if _, ok := sym.(*VarSymbol); !ok {
			return fail(n.Pos(), ErrNotAVariable, "%s", n.Name)
		}
		return nil

	case *ast.UnaryOp:
		return a.visit(n.Operand)

	case *ast.BinOp:
		if err := a.visit(n.Left); err != nil {
			return err
		}
		return a.visit(n.Right)

	case *ast.Comparison:
		if err := a.visit(n.Left); err != nil {
			return err
		}
		if n.HasOp() {
			return a.visit(n.Right)
		}
		return nil

	case *ast.Assign:
		return a.visitAssign(n)

	case *ast.Print:
		return a.visitList(n.Args)

	case *ast.IfStatement:
		if err := a.visit(n.Cond); err != nil {
			return err
		}
		if err := a.visit(n.Then); err != nil {
			return err
		}
		if n.Else != nil {
			return a.visit(n.Else)
		}
		return nil

	case *ast.FuncDecl:
		return a.visitFuncDecl(n)

	case *ast.FuncCall:
		return a.visitFuncCall(n)

	case *ast.Return:
		return a.visitList(n.Exprs)
	}
	return fmt.Errorf("semantic: unexpected node %T", node)
}

func (a *Analyzer) visitList(nodes []ast.Node) error {
	for _, n := range nodes {
		if err := a.visit(n); err != nil {
			return err
		}
	}
	return nil
}

// resolveType looks up a declared type name.
func (a *Analyzer) resolveType(name string, pos token.Position) (*TypeSymbol, error) {
	sym, ok := a.scope.Lookup(name)
	if !ok {
		return nil, fail(pos, ErrUnknownType, "%s", name)
	}
	typ, ok := sym.(*TypeSymbol)
	if !ok {
		return nil, fail(pos, ErrUnknownType, "%s is not a type", name)
	}
	return typ, nil
}

func (a *Analyzer) visitAssign(n *ast.Assign) error {
	typ, err := a.resolveType(n.TypeName, n.Pos())
	if err != nil {
		return err
	}
	if _, dup := a.scope.LookupCurrent(n.Name); dup {
		return fail(n.Pos(), ErrDuplicateIdentifier, "'%s' found", n.Name)
	}
	if err := a.visit(n.Value); err != nil {
		return err
	}
	if accepted, deferred := a.initializerTypes(n.Value); !deferred && !contains(accepted, typ.Name) {
		return fail(n.Pos(), ErrTypeMismatch, "variable %s is not of type %s", n.Name, typ.Name)
	}
	return a.scope.Insert(&VarSymbol{Name: n.Name, Type: typ})
}

// initializerTypes returns the declared types an initializer may satisfy.
// Function calls are only checked at run time (deferred).
func (a *Analyzer) initializerTypes(value ast.Node) (accepted []string, deferred bool) {
	if ast.IsArithmetic(value) {
		return []string{token.TypeInt, token.TypeFloat}, false
	}
	switch v := value.(type) {
	case *ast.NumberLit:
		return []string{token.TypeInt}, false
	case *ast.FloatLit:
		return []string{token.TypeFloat}, false
	case *ast.BoolLit:
		return []string{token.TypeBool}, false
	case *ast.StringLit:
		return []string{token.TypeStr}, false
	case *ast.Var:
		if sym, ok := a.scope.Lookup(v.Name); ok {
			if vs, ok := sym.(*VarSymbol); ok {
				return []string{vs.Type.Name}, false
			}
		}
		return nil, false
	}
	return nil, true
}

func (a *Analyzer) visitFuncDecl(n *ast.FuncDecl) error {
	fn := &FunctionSymbol{Name: n.Name, Body: n.Body, Returns: n.Returns}
	if err := a.scope.Insert(fn); err != nil {
		return &Error{Pos: n.Pos(), Err: err}
	}
	a.info.Functions[n] = fn

	enclosing := a.scope
	a.scope = NewSymbolTable(n.Name, enclosing.Level+1, enclosing)
	defer func() { a.scope = enclosing }()
	log.Trace("Entered function scope", "name", n.Name, "level", a.scope.Level)

	for _, p := range n.Params {
		typ, err := a.resolveType(p.TypeName, p.Pos())
		if err != nil {
			return err
		}
		param := &VarSymbol{Name: p.Name, Type: typ}
		if err := a.scope.Insert(param); err != nil {
			return &Error{Pos: p.Pos(), Err: err}
		}
		fn.Params = append(fn.Params, param)
	}
	return a.visit(n.Body)
}

func (a *Analyzer) visitFuncCall(n *ast.FuncCall) error {
	sym, ok := a.scope.Lookup(n.Name)
	if !ok {
		return fail(n.Pos(), ErrUndeclaredFunction, "function %s is not declared", n.Name)
	}
	fn, ok := sym.(*FunctionSymbol)
	if !ok {
		return fail(n.Pos(), ErrNotAFunction, "%s", n.Name)
	}
	if len(n.Args) != len(fn.Params) {
		return fail(n.Pos(), ErrArity, "function %s was expecting %d params but got %d",
			n.Name, len(fn.Params), len(n.Args))
	}
	for i, arg := range n.Args {
		if err := a.visit(arg); err != nil {
			return err
		}
		formal := fn.Params[i]
		switch {
		case isDeferred(arg):
			continue
		case ast.IsArithmetic(arg):
			if formal.Type.Name != token.TypeInt {
				return fail(arg.Pos(), ErrArgumentType, "argument %d of %s: arithmetic given for %s %s",
					i+1, n.Name, formal.Name, formal.Type.Name)
			}
			continue
		}
		if got := literalType(arg); got != formal.Type.Name {
			return fail(arg.Pos(), ErrArgumentType, "argument %d of %s: %s given for %s %s",
				i+1, n.Name, got, formal.Name, formal.Type.Name)
		}
	}
	a.info.Calls[n] = fn
	return nil
}

// isDeferred reports whether an argument's type is only known at run time.
func isDeferred(n ast.Node) bool {
	switch n.(type) {
	case *ast.Var, *ast.FuncCall:
		return true
	}
	return false
}

// literalType names the built-in type of a literal node.
func literalType(n ast.Node) string {
	switch n.(type) {
	case *ast.NumberLit:
		return token.TypeInt
	case *ast.FloatLit:
		return token.TypeFloat
	case *ast.BoolLit:
		return token.TypeBool
	case *ast.StringLit:
		return token.TypeStr
	}
	return fmt.Sprintf("%T", n)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
