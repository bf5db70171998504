// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package semantic

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/probechain/probeplay/lang/ast"
	"github.com/probechain/probeplay/lang/parser"
)

func analyse(t *testing.T, src string) (*ast.Block, *Info, error) {
	t.Helper()
	prog, err := parser.Parse(src)
	require.NoError(t, err, "parse %q", src)
	info, err := Analyse(prog)
	return prog, info, err
}

func TestAnalyseAccepts(t *testing.T) {
	cases := []struct {
		name string
		src  string
	}{
		{"literals", `a: int = 1; b: str = 'x'; c: bool = True; d: float = 1.5;`},
		{"arithmetic into int", `a: int = 1; b: int = a * 2 + 1;`},
		{"arithmetic into float", `a: float = 1.5 * 2;`},
		{"var of same type", `a: str = 'x'; b: str = a;`},
		{"unary", `a: int = -1;`},
		{"call initializer deferred", `function f() { return (1); } a: str = f();`},
		{"shadowing in function", `a: int = 1; function f(a: str) { b: int = 2; }`},
		{"recursion", `function f(a:int){ if (a==1){return(1);} else {return(a*f(a-1));} } print(f(4));`},
		{"var argument deferred", `a: str = 'x'; function f(n: int) { } f(a);`},
		{"nested call argument", `function f(n: int) { return (n); } f(f(1));`},
		{"bool condition", `if (True) { print(1); }`},
		{"if shares scope", `if (1 < 2) { a: int = 1; } print(a);`},
		{"string plus int passes analysis", `a: str = "x"; b: int = 1; c: int = a + b;`},
		{"top-level return passes analysis", `return(3);`},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, _, err := analyse(t, c.src)
			assert.NoError(t, err)
		})
	}
}

func TestAnalyseRejects(t *testing.T) {
	cases := []struct {
		name string
		src  string
		want error
	}{
		{"str into int", `a: int = "x";`, ErrTypeMismatch},
		{"int into str", `a: str = 1;`, ErrTypeMismatch},
		{"float into int", `a: int = 1.5;`, ErrTypeMismatch},
		{"arithmetic into str", `a: str = 1 + 2;`, ErrTypeMismatch},
		{"var of other type", `a: int = 1; b: str = a;`, ErrTypeMismatch},
		{"undeclared var", `print(x);`, ErrIdentifierNotFound},
		{"self reference", `a: int = a + 1;`, ErrIdentifierNotFound},
		{"duplicate var", `a: int = 1; a: int = 2;`, ErrDuplicateIdentifier},
		{"duplicate function", `function f() { } function f() { }`, ErrDuplicateIdentifier},
		{"var clashes with function", `function f() { } f: int = 1;`, ErrDuplicateIdentifier},
		{"duplicate param", `function f(a: int, a: int) { }`, ErrDuplicateIdentifier},
		{"param clashes with local", `function f(a: int) { a: int = 2; }`, ErrDuplicateIdentifier},
		{"undeclared function", `f(1);`, ErrUndeclaredFunction},
		{"call before declaration", `f(); function f() { }`, ErrUndeclaredFunction},
		{"call a variable", `a: int = 1; a();`, ErrNotAFunction},
		{"function used as a value", `function f() { } print(f);`, ErrNotAVariable},
		{"function passed as argument", `function f() { } function g(a: int) { } g(f);`, ErrNotAVariable},
		{"too few args", `function f(a: int, b: int) { } f(1);`, ErrArity},
		{"too many args", `function f() { } f(1);`, ErrArity},
		{"literal arg mismatch", `function f(a: int) { } f('x');`, ErrArgumentType},
		{"arithmetic for str param", `function f(a: str) { } f(1 + 2);`, ErrArgumentType},
		{"arithmetic for float param", `function f(a: float) { } f(1.5 * 2);`, ErrArgumentType},
		{"undeclared in argument", `function f(a: int) { } f(y);`, ErrIdentifierNotFound},
		{"function scope closes", `function f() { b: int = 1; } print(b);`, ErrIdentifierNotFound},
		{"undeclared in condition", `if (z == 1) { }`, ErrIdentifierNotFound},
		{"undeclared in else", `if (True) { } else { print(q); }`, ErrIdentifierNotFound},
		{"undeclared in return", `function f() { return (r); }`, ErrIdentifierNotFound},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, _, err := analyse(t, c.src)
			require.Error(t, err)
			assert.True(t, errors.Is(err, c.want), "got %v, want %v", err, c.want)

			var serr *Error
			assert.True(t, errors.As(err, &serr), "got %T, want *Error", err)
		})
	}
}

func TestArityMessage(t *testing.T) {
	_, _, err := analyse(t, `function f(a: int, b: int) { } f(1);`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "function f was expecting 2 params but got 1")
	assert.Contains(t, err.Error(), "1:32")
}

func TestCallsRecorded(t *testing.T) {
	prog, info, err := analyse(t, `function f(a:int){ if (a==1){return(1);} else {return(a*f(a-1));} } print(f(4));`)
	require.NoError(t, err)
	require.Len(t, info.Calls, 2)
	require.Len(t, info.Functions, 1)

	decl := prog.Statements[0].(*ast.FuncDecl)
	fn := info.Functions[decl]
	require.NotNil(t, fn)
	assert.Equal(t, GlobalLevel, fn.ScopeLevel)
	require.Len(t, fn.Params, 1)
	assert.Equal(t, "a", fn.Params[0].Name)
	assert.Equal(t, "int", fn.Params[0].Type.Name)
	assert.Equal(t, GlobalLevel+1, fn.Params[0].ScopeLevel)

	pr := prog.Statements[1].(*ast.Print)
	call := pr.Args[0].(*ast.FuncCall)
	assert.Same(t, fn, info.Calls[call])
}

func TestReturnArity(t *testing.T) {
	prog, info, err := analyse(t, `function pair() { return (1, 2); } function none() { }`)
	require.NoError(t, err)
	assert.Equal(t, 2, info.Functions[prog.Statements[0].(*ast.FuncDecl)].ReturnArity())
	assert.Equal(t, 0, info.Functions[prog.Statements[1].(*ast.FuncDecl)].ReturnArity())
}

func TestNestedFunctionLevel(t *testing.T) {
	prog, info, err := analyse(t, `function outer() { function inner() { } inner(); }`)
	require.NoError(t, err)
	outer := prog.Statements[0].(*ast.FuncDecl)
	inner := outer.Body.Statements[0].(*ast.FuncDecl)
	assert.Equal(t, 1, info.Functions[outer].ScopeLevel)
	assert.Equal(t, 2, info.Functions[inner].ScopeLevel)
}

func TestSymbolTable(t *testing.T) {
	global := NewGlobalTable()
	for _, name := range []string{"int", "str", "bool", "float"} {
		sym, ok := global.LookupCurrent(name)
		require.True(t, ok, name)
		assert.IsType(t, &TypeSymbol{}, sym)
	}

	intType, _ := global.Lookup("int")
	require.NoError(t, global.Insert(&VarSymbol{Name: "x", Type: intType.(*TypeSymbol)}))
	err := global.Insert(&VarSymbol{Name: "x", Type: intType.(*TypeSymbol)})
	assert.True(t, errors.Is(err, ErrDuplicateIdentifier))

	inner := NewSymbolTable("f", global.Level+1, global)
	shadow := &VarSymbol{Name: "x", Type: intType.(*TypeSymbol)}
	require.NoError(t, inner.Insert(shadow))
	assert.Equal(t, 2, shadow.ScopeLevel)

	got, ok := inner.Lookup("x")
	require.True(t, ok)
	assert.Same(t, shadow, got)

	_, ok = inner.LookupCurrent("int")
	assert.False(t, ok)
	_, ok = inner.Lookup("int")
	assert.True(t, ok)
	assert.Contains(t, global.String(), "scope global (level 1)")
}

func TestDuplicateDeclarationPosition(t *testing.T) {
	_, _, err := analyse(t, "function f() { }\nfunction f() { }")
	var serr *Error
	require.True(t, errors.As(err, &serr))
	assert.True(t, errors.Is(err, ErrDuplicateIdentifier))
	assert.Equal(t, 2, serr.Pos.Line)

	_, _, err = analyse(t, "function g(a: int,\n a: int) { }")
	require.True(t, errors.As(err, &serr))
	assert.True(t, errors.Is(err, ErrDuplicateIdentifier))
	assert.Equal(t, 2, serr.Pos.Line)
}
