// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"reflect"
	"unicode"

	"github.com/naoina/toml"
	"gopkg.in/urfave/cli.v1"

	"github.com/probechain/probeplay/internal/playground"
	"github.com/probechain/probeplay/internal/snippets"
	"github.com/probechain/probeplay/lang/engine"
)

var (
	dumpConfigCommand = cli.Command{
		Action:      dumpConfig,
		Name:        "dumpconfig",
		Usage:       "Show configuration values",
		ArgsUsage:   "[<file>]",
		Flags:       serveFlags,
		Category:    "MISCELLANEOUS COMMANDS",
		Description: `The dumpconfig command shows the effective configuration as TOML.`,
	}

	configFileFlag = cli.StringFlag{
		Name:  "config",
		Usage: "TOML configuration file",
	}
)

// These settings ensure that TOML keys use the same names as Go struct fields.
var tomlSettings = toml.Config{
	NormFieldName: func(rt reflect.Type, key string) string {
		return key
	},
	FieldToKey: func(rt reflect.Type, field string) string {
		return field
	},
	MissingField: func(rt reflect.Type, field string) error {
		var link string
		if unicode.IsUpper(rune(rt.Name()[0])) && rt.PkgPath() != "main" {
			link = fmt.Sprintf(", see https://pkg.go.dev/%s#%s for available fields", rt.PkgPath(), rt.Name())
		}
		return fmt.Errorf("field '%s' is not defined in %s%s", field, rt.String(), link)
	},
}

type logConfig struct {
	Verbosity int
	NoColor   bool
}

type probeplayConfig struct {
	Engine     engine.Config
	Playground playground.Config
	Snippets   snippets.Config
	Log        logConfig
}

func defaultConfig() probeplayConfig {
	pg := playground.DefaultConfig
	pg.CorsOrigins = append([]string(nil), pg.CorsOrigins...)
	return probeplayConfig{
		Engine:     engine.DefaultConfig,
		Playground: pg,
		Snippets:   snippets.Config{Cache: 16, Handles: 16},
		Log:        logConfig{Verbosity: 3},
	}
}

func loadConfig(file string, cfg *probeplayConfig) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	err = tomlSettings.NewDecoder(bufio.NewReader(f)).Decode(cfg)
	// Add file name to errors that have a line number.
	if _, ok := err.(*toml.LineError); ok {
		err = errors.New(file + ", " + err.Error())
	}
	return err
}

// makeConfig loads defaults, the config file and finally the flags.
func makeConfig(ctx *cli.Context) (probeplayConfig, error) {
	cfg := defaultConfig()

	if file := ctx.GlobalString(configFileFlag.Name); file != "" {
		if err := loadConfig(file, &cfg); err != nil {
			return cfg, err
		}
	}

	if ctx.GlobalIsSet(verbosityFlag.Name) {
		cfg.Log.Verbosity = ctx.GlobalInt(verbosityFlag.Name)
	}
	if ctx.GlobalIsSet(noColorFlag.Name) {
		cfg.Log.NoColor = ctx.GlobalBool(noColorFlag.Name)
	}
	if ctx.GlobalIsSet(maxDepthFlag.Name) {
		cfg.Engine.MaxCallDepth = ctx.GlobalInt(maxDepthFlag.Name)
	}
	if ctx.GlobalIsSet(cacheFlag.Name) {
		cfg.Engine.CacheSize = ctx.GlobalInt(cacheFlag.Name)
	}
	applyServeConfig(ctx, &cfg)
	return cfg, nil
}

func applyServeConfig(ctx *cli.Context, cfg *probeplayConfig) {
	if ctx.IsSet(addrFlag.Name) {
		cfg.Playground.Addr = ctx.String(addrFlag.Name)
	}
	if ctx.IsSet(corsFlag.Name) {
		cfg.Playground.CorsOrigins = splitAndTrim(ctx.String(corsFlag.Name))
	}
	if ctx.IsSet(rateFlag.Name) {
		cfg.Playground.RateLimit = ctx.Float64(rateFlag.Name)
	}
	if ctx.IsSet(snippetsFlag.Name) {
		cfg.Snippets.Path = ctx.String(snippetsFlag.Name)
	}
}

// dumpConfig is the dumpconfig command.
func dumpConfig(ctx *cli.Context) error {
	cfg, err := makeConfig(ctx)
	if err != nil {
		return err
	}
	out, err := tomlSettings.Marshal(&cfg)
	if err != nil {
		return err
	}

	dump := ctx.App.Writer
	if ctx.NArg() > 0 {
		f, err := os.OpenFile(ctx.Args().Get(0), os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
		if err != nil {
			return err
		}
		defer f.Close()
		dump = f
	}
	_, err = dump.Write(out)
	return err
}
