// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package main

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/probechain/probeplay/lang/engine"
)

func runApp(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	app := newApp(&stdout, &stderr)
	err := app.Run(append([]string{"probeplay", "--nocolor", "--verbosity", "0"}, args...))
	return stdout.String(), stderr.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestRunCommand(t *testing.T) {
	file := writeFile(t, "ok.play", "a: int = 6; b: float = 1.5;\nprint(a * b);\nprint('done');\n")
	out, _, err := runApp(t, "run", file)
	require.NoError(t, err)
	assert.Equal(t, "9.0\ndone\n", out)
}

func TestRunCommandKeepsOutputOnError(t *testing.T) {
	file := writeFile(t, "bad.play", "a: str = 'x'; b: int = 1; print('before'); c: int = a + b;")
	out, _, err := runApp(t, "run", file)
	require.Error(t, err)
	assert.Equal(t, "before\n", out)
	assert.Contains(t, err.Error(), file)
	assert.Equal(t, "runtime", engine.Stage(err))
}

func TestRunCommandArgs(t *testing.T) {
	_, _, err := runApp(t, "run")
	assert.EqualError(t, err, "run expects exactly one file argument")

	_, _, err = runApp(t, "run", filepath.Join(t.TempDir(), "missing.play"))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestMaxDepthFlag(t *testing.T) {
	file := writeFile(t, "deep.play", "function f(n:int){ if (n > 0) { return(f(n - 1)); } else { return(0); } } print(f(50));")
	out, _, err := runApp(t, "run", file)
	require.NoError(t, err)
	assert.Equal(t, "0\n", out)

	_, _, err = runApp(t, "--maxdepth", "10", "run", file)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "maximum call depth exceeded")
}

func TestCheckCommand(t *testing.T) {
	file := writeFile(t, "ok.play", "print(1);")
	out, _, err := runApp(t, "check", file)
	require.NoError(t, err)
	assert.Contains(t, out, file+": ok (1 statements")

	file = writeFile(t, "two.play", "function f() { } f(); print(2);")
	out, _, err = runApp(t, "check", file)
	require.NoError(t, err)
	assert.Contains(t, out, file+": ok (3 statements")

	file = writeFile(t, "bad.play", "a: int = 'x'; print(a);")
	out, _, err = runApp(t, "check", file)
	require.Error(t, err)
	assert.Empty(t, out)
	assert.Equal(t, "semantic", engine.Stage(err))
}

func TestTokensCommand(t *testing.T) {
	file := writeFile(t, "tokens.play", "a: int = 42;")
	out, _, err := runApp(t, "tokens", file)
	require.NoError(t, err)
	for _, want := range []string{"Pos", "Literal", "1:1", "42", "EOF"} {
		assert.Contains(t, out, want)
	}
}

func TestASTCommand(t *testing.T) {
	file := writeFile(t, "ast.play", "a: int = 1 + 2 * 3;")
	out, _, err := runApp(t, "ast", file)
	require.NoError(t, err)
	assert.Equal(t, "{ a: int = (1 + (2 * 3)); }\n", out)

	out, _, err = runApp(t, "ast", "--raw", file)
	require.NoError(t, err)
	assert.Contains(t, out, "ast.Assign")
	assert.Contains(t, out, "ast.BinOp")
	assert.Contains(t, out, "Statements:")
	assert.NotContains(t, out, "(1 + (2 * 3))")
}

func TestTestCommand(t *testing.T) {
	out, _, err := runApp(t, "test", filepath.Join("..", "..", "internal", "fixture", "testdata", "language.yaml"))
	require.NoError(t, err)
	assert.Contains(t, out, "PASS language/factorial")
	assert.Contains(t, out, " 0 failed")

	suite := writeFile(t, "broken.yaml", "cases:\n  - name: wrong\n    source: print(1);\n    output: ['2']\n")
	out, stderr, err := runApp(t, "test", suite)
	assert.Equal(t, errFixturesFailed, err)
	assert.Contains(t, out, "FAIL broken/wrong")
	assert.Contains(t, stderr, "output mismatch")
}

func TestDumpConfigRoundTrip(t *testing.T) {
	out, _, err := runApp(t, "dumpconfig", "--addr", "0.0.0.0:9000", "--cors", "https://a.example, https://b.example")
	require.NoError(t, err)
	assert.Contains(t, out, "[Engine]")
	assert.Contains(t, out, `Addr = "0.0.0.0:9000"`)

	var cfg probeplayConfig
	require.NoError(t, loadConfig(writeFile(t, "dump.toml", out), &cfg))
	assert.Equal(t, "0.0.0.0:9000", cfg.Playground.Addr)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Playground.CorsOrigins)
	assert.Equal(t, engine.DefaultConfig, cfg.Engine)
}

func TestConfigFile(t *testing.T) {
	file := writeFile(t, "probeplay.toml", "[Engine]\nMaxCallDepth = 5\n\n[Log]\nVerbosity = 4\n")
	out, _, err := runApp(t, "--config", file, "dumpconfig")
	require.NoError(t, err)
	assert.Contains(t, out, "MaxCallDepth = 5")

	bad := writeFile(t, "bad.toml", "[Engine]\nDepth = 5\n")
	_, _, err = runApp(t, "--config", bad, "dumpconfig")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "field 'Depth' is not defined in engine.Config")
	assert.True(t, strings.HasPrefix(err.Error(), bad))
}

func TestDumpConfigToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.toml")
	out, _, err := runApp(t, "dumpconfig", path)
	require.NoError(t, err)
	assert.Empty(t, out)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	data, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Contains(t, string(data), "[Playground]")
}

func TestSplitAndTrim(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitAndTrim(" a, ,b ,"))
	assert.Nil(t, splitAndTrim(""))
}
