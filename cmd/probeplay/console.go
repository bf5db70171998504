// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ethereum/go-ethereum/log"
	"github.com/peterh/liner"
	"gopkg.in/urfave/cli.v1"

	"github.com/probechain/probeplay/lang/engine"
)

var consoleCommand = cli.Command{
	Action:   startConsole,
	Name:     "console",
	Usage:    "Start an interactive console",
	Category: "LANGUAGE COMMANDS",
	Description: `
The console runs each entered program through the engine and prints its
output. Input with unclosed braces continues on the next line. Type :quit or
press Ctrl-D to leave.`,
}

const (
	prompt         = "> "
	continuePrompt = "... "
)

// prompter reads lines of user input.
type prompter interface {
	Prompt(prompt string) (string, error)
	AppendHistory(item string)
}

// console is a read-eval-print loop on top of an engine.
type console struct {
	eng    *engine.Engine
	input  prompter
	out    io.Writer
	errOut io.Writer
}

func startConsole(ctx *cli.Context) error {
	eng, err := newEngine(ctx)
	if err != nil {
		return err
	}
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)
	line.SetMultiLineMode(true)

	fmt.Fprintf(ctx.App.Writer, "Welcome to the %s console %s\n", ctx.App.Name, ctx.App.Version)
	c := &console{eng: eng, input: line, out: ctx.App.Writer, errOut: ctx.App.ErrWriter}
	return c.loop()
}

// loop reads programs until :quit or end of input.
func (c *console) loop() error {
	for {
		src, err := c.read()
		switch {
		case errors.Is(err, liner.ErrPromptAborted):
			continue
		case errors.Is(err, io.EOF):
			fmt.Fprintln(c.out)
			return nil
		case err != nil:
			return err
		}
		src = strings.TrimSpace(src)
		switch src {
		case "":
			continue
		case ":quit", ":exit":
			return nil
		}
		c.input.AppendHistory(src)
		c.evaluate(src)
	}
}

// read collects lines until all braces are closed.
func (c *console) read() (string, error) {
	input, err := c.input.Prompt(prompt)
	if err != nil {
		return "", err
	}
	for depth := braceDepth(input); depth > 0; depth = braceDepth(input) {
		more, err := c.input.Prompt(continuePrompt + strings.Repeat("  ", depth))
		if err != nil {
			return "", err
		}
		input += "\n" + more
	}
	return input, nil
}

func (c *console) evaluate(src string) {
	res := c.eng.RunTo(src, c.out)
	if res.Err != nil {
		log.Debug("Console program failed", "stage", engine.Stage(res.Err))
		errorColor.Fprintln(c.errOut, res.Err)
	}
}

// braceDepth counts unclosed braces outside string literals and comments.
func braceDepth(src string) int {
	var (
		depth int
		quote byte
	)
	for i := 0; i < len(src); i++ {
		ch := src[i]
		switch {
		case quote != 0:
			if ch == quote {
				quote = 0
			}
		case ch == '\'' || ch == '"':
			quote = ch
		case ch == '/' && strings.HasPrefix(src[i:], "//"):
			for i < len(src) && src[i] != '\n' {
				i++
			}
		case ch == '/' && strings.HasPrefix(src[i:], "/*"):
			end := strings.Index(src[i+2:], "*/")
			if end < 0 {
				return depth
			}
			i += end + 3
		case ch == '{':
			depth++
		case ch == '}':
			depth--
		}
	}
	return depth
}
