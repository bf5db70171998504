// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/davecgh/go-spew/spew"
	"github.com/ethereum/go-ethereum/log"
	"github.com/olekukonko/tablewriter"
	"gopkg.in/urfave/cli.v1"

	"github.com/probechain/probeplay/internal/fixture"
	"github.com/probechain/probeplay/internal/playground"
	"github.com/probechain/probeplay/internal/snippets"
	"github.com/probechain/probeplay/lang/ast"
	"github.com/probechain/probeplay/lang/engine"
	"github.com/probechain/probeplay/lang/lexer"
	"github.com/probechain/probeplay/lang/parser"
)

var (
	runCommand = cli.Command{
		Action:    runProgram,
		Name:      "run",
		Usage:     "Execute a program",
		ArgsUsage: "<file>",
		Category:  "LANGUAGE COMMANDS",
		Description: `
The run command executes a program and prints every line it outputs. Lines
printed before a runtime error are kept; the command fails on any error.`,
	}
	checkCommand = cli.Command{
		Action:      checkProgram,
		Name:        "check",
		Usage:       "Lex, parse and analyse a program without running it",
		ArgsUsage:   "<file>",
		Category:    "LANGUAGE COMMANDS",
		Description: `The check command reports the first lexical, syntax or semantic error.`,
	}
	tokensCommand = cli.Command{
		Action:    printTokens,
		Name:      "tokens",
		Usage:     "Print the token stream of a program",
		ArgsUsage: "<file>",
		Category:  "LANGUAGE COMMANDS",
	}
	astCommand = cli.Command{
		Action:    printAST,
		Name:      "ast",
		Usage:     "Print the syntax tree of a program",
		ArgsUsage: "<file>",
		Flags:     []cli.Flag{rawFlag},
		Category:  "LANGUAGE COMMANDS",
	}
	serveCommand = cli.Command{
		Action:   serve,
		Name:     "serve",
		Usage:    "Serve the playground HTTP API",
		Flags:    serveFlags,
		Category: "PLAYGROUND COMMANDS",
		Description: `
The serve command starts the playground API on the configured address and runs
until interrupted. Snippets are stored in the configured database directory.`,
	}
	testCommand = cli.Command{
		Action:    runFixtures,
		Name:      "test",
		Usage:     "Run YAML fixture suites",
		ArgsUsage: "<suite.yaml> [<suite.yaml>...]",
		Category:  "LANGUAGE COMMANDS",
	}

	rawFlag = cli.BoolFlag{
		Name:  "raw",
		Usage: "Dump the Go structures instead of the rendered tree",
	}

	errFixturesFailed = errors.New("fixture cases failed")
)

func newEngine(ctx *cli.Context) (*engine.Engine, error) {
	return engine.New(appConfig(ctx).Engine)
}

// readSource loads the single file argument of a command.
func readSource(ctx *cli.Context) (string, string, error) {
	if ctx.NArg() != 1 {
		return "", "", fmt.Errorf("%s expects exactly one file argument", ctx.Command.Name)
	}
	file := ctx.Args().First()
	data, err := os.ReadFile(file)
	if err != nil {
		return "", "", err
	}
	return file, string(data), nil
}

func runProgram(ctx *cli.Context) error {
	file, src, err := readSource(ctx)
	if err != nil {
		return err
	}
	eng, err := newEngine(ctx)
	if err != nil {
		return err
	}
	if res := eng.RunTo(src, ctx.App.Writer); res.Err != nil {
		return fmt.Errorf("%s: %w", file, res.Err)
	}
	return nil
}

func checkProgram(ctx *cli.Context) error {
	file, src, err := readSource(ctx)
	if err != nil {
		return err
	}
	eng, err := newEngine(ctx)
	if err != nil {
		return err
	}
	prog, err := eng.Compile(src)
	if err != nil {
		return fmt.Errorf("%s: %w", file, err)
	}
	fmt.Fprintf(ctx.App.Writer, "%s: ok (%d statements, hash %s)\n", file, countStatements(prog.AST), prog.Hash.TerminalString())
	return nil
}

// countStatements counts the top-level statements, ignoring empty ones.
func countStatements(block *ast.Block) int {
	n := 0
	for _, stmt := range block.Statements {
		if _, empty := stmt.(*ast.Empty); !empty {
			n++
		}
	}
	return n
}

func printTokens(ctx *cli.Context) error {
	file, src, err := readSource(ctx)
	if err != nil {
		return err
	}
	tokens, err := lexer.New(src).Tokenize()
	if err != nil {
		return fmt.Errorf("%s: %w", file, err)
	}
	table := tablewriter.NewWriter(ctx.App.Writer)
	table.SetHeader([]string{"Pos", "Type", "Literal", "Value"})
	table.SetAutoFormatHeaders(false)
	for _, tok := range tokens {
		value := ""
		if tok.Type.IsLiteral() && tok.Value != nil {
			value = fmt.Sprintf("%#v", tok.Value)
		}
		table.Append([]string{tok.Pos.String(), tok.Type.String(), tok.Literal, value})
	}
	table.Render()
	return nil
}

func printAST(ctx *cli.Context) error {
	file, src, err := readSource(ctx)
	if err != nil {
		return err
	}
	prog, err := parser.Parse(src)
	if err != nil {
		return fmt.Errorf("%s: %w", file, err)
	}
	if ctx.Bool(rawFlag.Name) {
		cfg := spew.ConfigState{Indent: "  ", DisableMethods: true, DisablePointerAddresses: true, DisableCapacities: true}
		cfg.Fdump(ctx.App.Writer, prog)
		return nil
	}
	fmt.Fprintln(ctx.App.Writer, prog.String())
	return nil
}

func serve(ctx *cli.Context) error {
	cfg := appConfig(ctx)
	eng, err := engine.New(cfg.Engine)
	if err != nil {
		return err
	}
	store, err := snippets.Open(cfg.Snippets)
	if err != nil {
		return err
	}
	defer store.Close()

	sigctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("Starting playground", "addr", cfg.Playground.Addr, "snippets", store.Path())
	return playground.New(cfg.Playground, eng, store).ListenAndServe(sigctx)
}

func runFixtures(ctx *cli.Context) error {
	if ctx.NArg() == 0 {
		return errors.New("test expects at least one suite file")
	}
	eng, err := newEngine(ctx)
	if err != nil {
		return err
	}
	var passed, failed int
	for _, path := range ctx.Args() {
		suite, err := fixture.Load(path)
		if err != nil {
			return err
		}
		outcomes := fixture.RunSuite(eng, suite)
		for _, o := range outcomes {
			if o.Passed() {
				fmt.Fprintf(ctx.App.Writer, "PASS %s/%s\n", suite.Name, o.Case.Name)
				continue
			}
			fmt.Fprintf(ctx.App.Writer, "FAIL %s/%s\n", suite.Name, o.Case.Name)
			printError(ctx, "%s", o.Failure)
		}
		p, f := fixture.Summary(outcomes)
		passed, failed = passed+p, failed+f
	}
	fmt.Fprintf(ctx.App.Writer, "%d passed, %d failed\n", passed, failed)
	if failed > 0 {
		return errFixturesFailed
	}
	return nil
}
