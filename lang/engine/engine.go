// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package engine is the boundary between the language pipeline and its front
// ends: it takes one complete source text and returns the printed lines plus
// either a success status or a single error.
package engine

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"github.com/ethereum/go-ethereum/log"
	lru "github.com/hashicorp/golang-lru"
	"golang.org/x/crypto/sha3"

	"github.com/probechain/probeplay/lang/ast"
	"github.com/probechain/probeplay/lang/interp"
	"github.com/probechain/probeplay/lang/lexer"
	"github.com/probechain/probeplay/lang/parser"
	"github.com/probechain/probeplay/lang/semantic"
)

// StatusSuccess is the Result status of a run that finished without error.
const StatusSuccess = "success"

// ErrInvalidConfig is returned by New for unusable settings.
var ErrInvalidConfig = errors.New("invalid engine config")

// Config tunes an Engine.
type Config struct {
	CacheSize    int // compiled programs kept in memory; 0 disables the cache
	MaxCallDepth int // frames per run; 0 selects interp.DefaultMaxCallDepth
}

// DefaultConfig contains the default engine settings.
var DefaultConfig = Config{
	CacheSize:    256,
	MaxCallDepth: interp.DefaultMaxCallDepth,
}

// Hash identifies a source text by its SHA3-256 digest.
type Hash [32]byte

// SourceHash hashes a source text.
func SourceHash(source string) Hash {
	return sha3.Sum256([]byte(source))
}

// Hex returns the hex encoding of the hash.
func (h Hash) Hex() string { return hex.EncodeToString(h[:]) }

// TerminalString returns a shortened hash for log output.
func (h Hash) TerminalString() string { return fmt.Sprintf("%x…%x", h[:3], h[29:]) }

func (h Hash) String() string { return h.Hex() }

// Program is a lexed, parsed and analysed source text. It is immutable and may
// be executed any number of times, concurrently.
type Program struct {
	Hash   Hash
	Source string
	AST    *ast.Block
	Info   *semantic.Info
}

// Result is the outcome of one run.
type Result struct {
	Output []string // printed lines, including those before a runtime error
	Status string   // StatusSuccess, or empty when Err is set
	Err    error
}

// Success reports whether the run finished without error.
func (r *Result) Success() bool { return r.Err == nil }

// Message returns the single error message of a failed run, empty on success.
func (r *Result) Message() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// Engine compiles and executes programs. It is safe for concurrent use.
type Engine struct {
	cfg   Config
	cache *lru.ARCCache // Hash -> *Program, nil when disabled
	log   log.Logger
}

// New creates an engine.
func New(cfg Config) (*Engine, error) {
	if cfg.CacheSize < 0 {
		return nil, fmt.Errorf("%w: negative cache size %d", ErrInvalidConfig, cfg.CacheSize)
	}
	if cfg.MaxCallDepth < 0 {
		return nil, fmt.Errorf("%w: negative call depth %d", ErrInvalidConfig, cfg.MaxCallDepth)
	}
	e := &Engine{cfg: cfg, log: log.New("module", "engine")}
	if cfg.CacheSize > 0 {
		cache, err := lru.NewARC(cfg.CacheSize)
		if err != nil {
			return nil, err
		}
		e.cache = cache
	}
	return e, nil
}

// Config returns the settings the engine was created with.
func (e *Engine) Config() Config { return e.cfg }

// CacheLen returns the number of cached programs.
func (e *Engine) CacheLen() int {
	if e.cache == nil {
		return 0
	}
	return e.cache.Len()
}

// Compile lexes, parses and analyses source. Successfully analysed programs
// are cached by source hash; failures are not.
func (e *Engine) Compile(source string) (*Program, error) {
	hash := SourceHash(source)
	if e.cache != nil {
		if cached, ok := e.cache.Get(hash); ok {
			e.log.Trace("Compiled program cache hit", "hash", hash.TerminalString())
			return cached.(*Program), nil
		}
	}

	prog, err := parser.Parse(source)
	if err != nil {
		e.log.Debug("Program rejected", "hash", hash.TerminalString(), "stage", Stage(err), "err", err)
		return nil, err
	}
	info, err := semantic.Analyse(prog)
	if err != nil {
		e.log.Debug("Program rejected", "hash", hash.TerminalString(), "stage", Stage(err), "err", err)
		return nil, err
	}
	p := &Program{Hash: hash, Source: source, AST: prog, Info: info}
	if e.cache != nil {
		e.cache.Add(hash, p)
	}
	e.log.Debug("Compiled program", "hash", hash.TerminalString(), "statements", len(prog.Statements), "calls", len(info.Calls))
	return p, nil
}

// Execute runs a compiled program and collects its output.
func (e *Engine) Execute(p *Program) *Result {
	return e.ExecuteTo(p, nil)
}

// ExecuteTo runs a compiled program, additionally streaming every printed
// line to w when it is non-nil.
func (e *Engine) ExecuteTo(p *Program, w io.Writer) *Result {
	it := interp.New(p.Info, interp.Options{MaxCallDepth: e.cfg.MaxCallDepth})
	restore := it.Redirect(w)
	defer restore()

	err := it.Interpret(p.AST)
	res := &Result{Output: it.Output()}
	if err != nil {
		e.log.Debug("Program failed", "hash", p.Hash.TerminalString(), "lines", len(res.Output), "err", err)
		res.Err = err
		return res
	}
	res.Status = StatusSuccess
	return res
}

// Run compiles and executes source.
func (e *Engine) Run(source string) *Result {
	return e.RunTo(source, nil)
}

// RunTo compiles and executes source, streaming printed lines to w.
func (e *Engine) RunTo(source string, w io.Writer) *Result {
	p, err := e.Compile(source)
	if err != nil {
		return &Result{Err: err}
	}
	return e.ExecuteTo(p, w)
}

var defaultEngine, _ = New(DefaultConfig)

// Run compiles and executes source on a shared engine with default settings.
func Run(source string) *Result {
	return defaultEngine.Run(source)
}

// Stage names the pipeline stage an error came from: "lex", "parse",
// "semantic", "runtime" or "" for anything else.
func Stage(err error) string {
	var (
		lerr *lexer.Error
		perr *parser.Error
		serr *semantic.Error
		rerr *interp.RuntimeError
	)
	switch {
	case errors.As(err, &lerr):
		return "lex"
	case errors.As(err, &perr):
		return "parse"
	case errors.As(err, &serr):
		return "semantic"
	case errors.As(err, &rerr):
		return "runtime"
	}
	return ""
}
