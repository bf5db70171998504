// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// probeplay is the command line front end of the playground language.
//
// Usage:
//
//	probeplay [global flags] <command> [arguments]
//
// Commands:
//
//	run <file>            Execute a program
//	check <file>          Lex, parse and analyse a program without running it
//	tokens <file>         Print the token stream
//	ast [--raw] <file>    Print the syntax tree
//	console               Start an interactive console
//	serve                 Serve the playground HTTP API
//	test <suite.yaml>...  Run fixture suites
//	dumpconfig [<file>]   Show configuration values
package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/log"
	"github.com/fatih/color"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"gopkg.in/urfave/cli.v1"

	"github.com/probechain/probeplay/internal/playground"
)

const configKey = "config"

var (
	verbosityFlag = cli.IntFlag{
		Name:  "verbosity",
		Usage: "Logging verbosity: 0=silent, 1=error, 2=warn, 3=info, 4=debug, 5=detail",
		Value: 3,
	}
	noColorFlag = cli.BoolFlag{
		Name:  "nocolor",
		Usage: "Disable colored output",
	}
	maxDepthFlag = cli.IntFlag{
		Name:  "maxdepth",
		Usage: "Maximum call stack depth of a running program",
	}
	cacheFlag = cli.IntFlag{
		Name:  "cache",
		Usage: "Number of compiled programs kept in memory (0 disables the cache)",
	}

	addrFlag = cli.StringFlag{
		Name:  "addr",
		Usage: "Playground listening address",
	}
	corsFlag = cli.StringFlag{
		Name:  "cors",
		Usage: "Comma separated list of origins allowed to call the playground",
	}
	rateFlag = cli.Float64Flag{
		Name:  "rate",
		Usage: "Sustained playground requests per second (0 disables limiting)",
	}
	snippetsFlag = cli.StringFlag{
		Name:  "snippets",
		Usage: "Snippet database directory (empty keeps snippets in memory)",
	}
	serveFlags = []cli.Flag{addrFlag, corsFlag, rateFlag, snippetsFlag}

	errorColor = color.New(color.FgRed)
)

func newApp(stdout, stderr io.Writer) *cli.App {
	app := cli.NewApp()
	app.Name = "probeplay"
	app.Usage = "the playground language toolkit"
	app.Version = playground.Version
	app.Writer = stdout
	app.ErrWriter = stderr
	app.Flags = []cli.Flag{
		configFileFlag,
		verbosityFlag,
		noColorFlag,
		maxDepthFlag,
		cacheFlag,
	}
	app.Commands = []cli.Command{
		runCommand,
		checkCommand,
		tokensCommand,
		astCommand,
		consoleCommand,
		serveCommand,
		testCommand,
		dumpConfigCommand,
	}
	app.Before = func(ctx *cli.Context) error {
		cfg, err := makeConfig(ctx)
		if err != nil {
			return err
		}
		setupLogging(ctx.App.ErrWriter, cfg.Log)
		ctx.App.Metadata = map[string]interface{}{configKey: cfg}
		return nil
	}
	return app
}

func main() {
	if err := newApp(os.Stdout, os.Stderr).Run(os.Args); err != nil {
		errorColor.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setupLogging installs the root log handler.
func setupLogging(w io.Writer, cfg logConfig) {
	usecolor := false
	if f, ok := w.(*os.File); ok {
		usecolor = (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())) && os.Getenv("TERM") != "dumb"
		if usecolor && f == os.Stderr {
			w = colorable.NewColorableStderr()
		}
	}
	if cfg.NoColor {
		usecolor = false
		color.NoColor = true
	}
	handler := log.StreamHandler(w, log.TerminalFormat(usecolor))
	log.Root().SetHandler(log.LvlFilterHandler(log.Lvl(cfg.Verbosity), handler))
}

// appConfig returns the configuration resolved by the app's Before hook.
func appConfig(ctx *cli.Context) probeplayConfig {
	if cfg, ok := ctx.App.Metadata[configKey].(probeplayConfig); ok {
		applyServeConfig(ctx, &cfg)
		return cfg
	}
	return defaultConfig()
}

func splitAndTrim(input string) []string {
	var ret []string
	for _, r := range strings.Split(input, ",") {
		if r = strings.TrimSpace(r); r != "" {
			ret = append(ret, r)
		}
	}
	return ret
}

func printError(ctx *cli.Context, format string, args ...interface{}) {
	errorColor.Fprintln(ctx.App.ErrWriter, fmt.Sprintf(format, args...))
}
