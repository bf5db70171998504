// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package engine

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/probechain/probeplay/lang/interp"
	"github.com/probechain/probeplay/lang/semantic"
)

func newEngine(t *testing.T, cfg Config) *Engine {
	t.Helper()
	e, err := New(cfg)
	require.NoError(t, err)
	return e
}

func TestRunPrograms(t *testing.T) {
	cases := []struct {
		name string
		src  string
		want []string
	}{
		{"literal prints", `a: int = 1; b: str = 'two'; c: bool = False; print(a); print(b, c);`,
			[]string{"1", "twoFalse"}},
		{"concatenation", `a: str = "a is "; b: int = 12; print(a, b);`, []string{"a is 12"}},
		{"factorial", `function f(a:int){ if (a==1){return(1);} else {return(a*f(a-1));} } print(f(4));`,
			[]string{"24"}},
		{"comments", "/*\n header\n*/\nprint('ok'); // done", []string{"ok"}},
	}
	e := newEngine(t, DefaultConfig)
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			res := e.Run(c.src)
			require.NoError(t, res.Err)
			assert.Equal(t, StatusSuccess, res.Status)
			assert.True(t, res.Success())
			assert.Empty(t, res.Message())
			if diff := cmp.Diff(c.want, res.Output); diff != "" {
				t.Errorf("output mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSemanticErrorPrintsNothing(t *testing.T) {
	res := Run(`print('never'); a: int = "x";`)
	require.Error(t, res.Err)
	assert.True(t, errors.Is(res.Err, semantic.ErrTypeMismatch))
	assert.Empty(t, res.Output)
	assert.Empty(t, res.Status)
	assert.Equal(t, "semantic", Stage(res.Err))
	assert.Contains(t, res.Message(), "variable a is not of type int")
}

func TestArityMismatch(t *testing.T) {
	res := Run(`function f(a: int, b: int) { } f(1, 2, 3);`)
	assert.True(t, errors.Is(res.Err, semantic.ErrArity))
	assert.Contains(t, res.Message(), "was expecting 2 params but got 3")
}

func TestRuntimeErrorKeepsOutput(t *testing.T) {
	res := Run(`a: str = "x"; b: int = 1; print('start'); c: int = a + b; print('end');`)
	require.Error(t, res.Err)
	assert.True(t, errors.Is(res.Err, interp.ErrOperandTypes))
	assert.Equal(t, []string{"start"}, res.Output)
	assert.Equal(t, "runtime", Stage(res.Err))
	assert.Contains(t, res.Message(), "can not run + operation on types str and int")
}

func TestTopLevelReturn(t *testing.T) {
	res := Run(`return(3);`)
	assert.True(t, errors.Is(res.Err, interp.ErrReturnOutsideFunction))
}

func TestStage(t *testing.T) {
	cases := map[string]string{
		`a: int = 1 $ 2;`:                 "lex",
		"print(1);\x00 print(2); @@@":     "lex",
		`a: int = ;`:                      "parse",
		`print(x);`:                       "semantic",
		`print(1 / 0);`:                   "runtime",
		`print(9223372036854775807 + 1);`: "runtime",
		`print('fine');`:                  "",
	}
	for src, want := range cases {
		assert.Equal(t, want, Stage(Run(src).Err), src)
	}
	assert.Equal(t, "", Stage(fmt.Errorf("plain")))
}

func TestCompileCache(t *testing.T) {
	e := newEngine(t, Config{CacheSize: 2})
	src := `print('cached');`

	p1, err := e.Compile(src)
	require.NoError(t, err)
	p2, err := e.Compile(src)
	require.NoError(t, err)
	assert.Same(t, p1, p2)
	assert.Equal(t, 1, e.CacheLen())

	_, err = e.Compile(`print(;`)
	require.Error(t, err)
	assert.Equal(t, 1, e.CacheLen(), "failed compile must not be cached")

	for i := 0; i < 4; i++ {
		_, err := e.Compile(fmt.Sprintf("print(%d);", i))
		require.NoError(t, err)
	}
	assert.Equal(t, 2, e.CacheLen())
}

func TestCacheDisabled(t *testing.T) {
	e := newEngine(t, Config{})
	p1, err := e.Compile(`print(1);`)
	require.NoError(t, err)
	p2, err := e.Compile(`print(1);`)
	require.NoError(t, err)
	assert.NotSame(t, p1, p2)
	assert.Equal(t, 0, e.CacheLen())
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	_, err := New(Config{CacheSize: -1})
	assert.True(t, errors.Is(err, ErrInvalidConfig))
	_, err = New(Config{MaxCallDepth: -1})
	assert.True(t, errors.Is(err, ErrInvalidConfig))
}

func TestMaxCallDepth(t *testing.T) {
	e := newEngine(t, Config{MaxCallDepth: 10})
	res := e.Run(`function f(n: int) { return (f(n + 1)); } f(0);`)
	assert.True(t, errors.Is(res.Err, interp.ErrCallDepthExceeded))
}

func TestExecuteConcurrently(t *testing.T) {
	e := newEngine(t, DefaultConfig)
	p, err := e.Compile(`function f(a:int){ if (a==1){return(1);} else {return(a*f(a-1));} } print(f(10));`)
	require.NoError(t, err)

	results := make([]*Result, 16)
	var g errgroup.Group
	for i := range results {
		i := i
		g.Go(func() error {
			results[i] = e.Execute(p)
			return results[i].Err
		})
	}
	require.NoError(t, g.Wait())
	for _, res := range results {
		assert.Equal(t, []string{"3628800"}, res.Output)
	}
}

func TestExecuteToStreams(t *testing.T) {
	e := newEngine(t, DefaultConfig)
	var buf bytes.Buffer
	res := e.RunTo(`print('a'); print('b');`, &buf)
	require.NoError(t, res.Err)
	assert.Equal(t, "a\nb\n", buf.String())
	assert.Equal(t, []string{"a", "b"}, res.Output)
}

func TestSourceHash(t *testing.T) {
	h1 := SourceHash("print(1);")
	h2 := SourceHash("print(1);")
	h3 := SourceHash("print(2);")
	assert.Equal(t, h1, h2)
	assert.NotEqual(t, h1, h3)
	assert.Len(t, h1.Hex(), 64)
	assert.Equal(t, h1.Hex(), h1.String())
}
