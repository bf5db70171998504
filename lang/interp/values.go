// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package interp

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind categorizes a runtime value.
type Kind int

const (
	KindNone Kind = iota
	KindInt
	KindFloat
	KindStr
	KindBool
	KindTuple
)

var kindNames = [...]string{
	KindNone:  "none",
	KindInt:   "int",
	KindFloat: "float",
	KindStr:   "str",
	KindBool:  "bool",
	KindTuple: "tuple",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", k)
}

// IsNumeric reports whether k is int or float.
func (k Kind) IsNumeric() bool { return k == KindInt || k == KindFloat }

// Value is a runtime value. The absent value is a nil Value.
type Value interface {
	Kind() Kind

	// String returns the text print emits for the value.
	String() string
}

// Int is a 64-bit signed integer.
type Int int64

// Float is a 64-bit float.
type Float float64

// Str is a string.
type Str string

// Bool is True or False.
type Bool bool

// Tuple is the ordered result of a function returning more than one value.
type Tuple []Value

func (Int) Kind() Kind   { return KindInt }
func (Float) Kind() Kind { return KindFloat }
func (Str) Kind() Kind   { return KindStr }
func (Bool) Kind() Kind  { return KindBool }
func (Tuple) Kind() Kind { return KindTuple }

func (v Int) String() string { return strconv.FormatInt(int64(v), 10) }
func (v Str) String() string { return string(v) }

func (v Bool) String() string {
	if v {
		return "True"
	}
	return "False"
}

// String always renders a decimal point or an exponent, so 2.0 prints as
// "2.0" rather than "2".
func (v Float) String() string {
	f := float64(v)
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	if abs := math.Abs(f); abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsRune(s, '.') {
		s += ".0"
	}
	return s
}

func (v Tuple) String() string {
	parts := make([]string, len(v))
	for i, e := range v {
		parts[i] = Stringify(e)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// KindOf returns the kind of v, KindNone for the absent value.
func KindOf(v Value) Kind {
	if v == nil {
		return KindNone
	}
	return v.Kind()
}

// Stringify renders v for print; the absent value renders as empty text.
func Stringify(v Value) string {
	if v == nil {
		return ""
	}
	return v.String()
}

// toFloat widens a numeric value.
func toFloat(v Value) float64 {
	switch n := v.(type) {
	case Int:
		return float64(n)
	case Float:
		return float64(n)
	}
	return math.NaN()
}
