// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package fixture loads YAML program suites and checks them against the
// engine.
//
// A suite file looks like:
//
//	name: basics
//	cases:
//	  - name: factorial
//	    source: |
//	      function f(a:int){ if (a==1){return(1);} else {return(a*f(a-1));} }
//	      print(f(4));
//	    output: ["24"]
//	  - name: bad declaration
//	    source: a: int = "x";
//	    error: not of type int
//
// A case with an error expects the run to fail with a message containing that
// text; output is compared either way.
package fixture

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/probechain/probeplay/lang/engine"
)

// Case is one program and its expected behaviour.
type Case struct {
	Name   string   `yaml:"name"`
	Source string   `yaml:"source"`
	Output []string `yaml:"output,omitempty"`
	Error  string   `yaml:"error,omitempty"`
}

// Suite is a named, ordered list of cases.
type Suite struct {
	Name  string `yaml:"name"`
	Cases []Case `yaml:"cases"`

	Path string `yaml:"-"`
}

// ValidationError aggregates suite validation failures.
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	b.WriteString("fixture validation failed:")
	for _, issue := range e.Issues {
		b.WriteString("\n- ")
		b.WriteString(issue)
	}
	return b.String()
}

// Load parses a suite file from disk.
func Load(path string) (*Suite, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("fixture: resolve %s: %w", path, err)
	}
	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("fixture: open %s: %w", absPath, err)
	}
	suite, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("fixture: %s: %w", absPath, err)
	}
	suite.Path = absPath
	if suite.Name == "" {
		suite.Name = strings.TrimSuffix(filepath.Base(absPath), filepath.Ext(absPath))
	}
	return suite, nil
}

// Parse decodes and validates a suite. Unknown keys are rejected.
func Parse(data []byte) (*Suite, error) {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	var suite Suite
	if err := decoder.Decode(&suite); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("suite is empty")
		}
		return nil, fmt.Errorf("parse: %w", err)
	}
	if err := suite.validate(); err != nil {
		return nil, err
	}
	return &suite, nil
}

func (s *Suite) validate() error {
	var issues []string
	if len(s.Cases) == 0 {
		issues = append(issues, "no cases")
	}
	seen := make(map[string]bool)
	for i, c := range s.Cases {
		switch {
		case c.Name == "":
			issues = append(issues, fmt.Sprintf("case %d has no name", i+1))
		case seen[c.Name]:
			issues = append(issues, fmt.Sprintf("duplicate case name %q", c.Name))
		}
		seen[c.Name] = true
	}
	if len(issues) > 0 {
		return &ValidationError{Issues: issues}
	}
	return nil
}

// Outcome is the result of checking one case.
type Outcome struct {
	Case    Case
	Result  *engine.Result
	Failure string // empty when the case passed
}

// Passed reports whether the case behaved as expected.
func (o Outcome) Passed() bool { return o.Failure == "" }

// RunSuite runs every case of suite on eng in parallel and returns the
// outcomes in declaration order.
func RunSuite(eng *engine.Engine, suite *Suite) []Outcome {
	outcomes := make([]Outcome, len(suite.Cases))

	var g errgroup.Group
	for i := range suite.Cases {
		i := i
		g.Go(func() error {
			outcomes[i] = Check(eng, suite.Cases[i])
			return nil
		})
	}
	g.Wait()
	return outcomes
}

// Check runs a single case.
func Check(eng *engine.Engine, c Case) Outcome {
	res := eng.Run(c.Source)
	out := Outcome{Case: c, Result: res}

	var problems []string
	switch {
	case c.Error == "" && res.Err != nil:
		problems = append(problems, fmt.Sprintf("unexpected error: %v", res.Err))
	case c.Error != "" && res.Err == nil:
		problems = append(problems, fmt.Sprintf("expected error containing %q, run succeeded", c.Error))
	case c.Error != "" && !strings.Contains(res.Message(), c.Error):
		problems = append(problems, fmt.Sprintf("error %q does not contain %q", res.Message(), c.Error))
	}
	if diff := cmp.Diff(c.Output, res.Output, cmpopts.EquateEmpty()); diff != "" {
		problems = append(problems, "output mismatch (-want +got):\n"+diff)
	}
	out.Failure = strings.Join(problems, "\n")
	return out
}

// Summary counts passed and failed outcomes.
func Summary(outcomes []Outcome) (passed, failed int) {
	for _, o := range outcomes {
		if o.Passed() {
			passed++
		} else {
			failed++
		}
	}
	return passed, failed
}
