// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package interp evaluates an analysed program by walking its tree.
//
// Execution model:
//
//   - An explicit CallStack of ActivationRecords. The program runs in a
//     Global frame; every call pushes a Function frame one level above the
//     callee's declaration and pops it on return, including on errors.
//   - Variables are read from and written to the current frame only. A
//     function body does not see the globals of its caller.
//   - if/else bodies run in the enclosing frame.
//   - return fills the frame's return slot and does not stop the body; a later
//     return overwrites the slot.
//   - Call sites are resolved through semantic.Info, never by name.
package interp

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/log"

	"github.com/probechain/probeplay/lang/ast"
	"github.com/probechain/probeplay/lang/semantic"
	"github.com/probechain/probeplay/lang/token"
)

// DefaultMaxCallDepth bounds recursion when Options.MaxCallDepth is zero.
const DefaultMaxCallDepth = 2048

// ---- Error sentinels -------------------------------------------------------

// ErrOperandTypes is returned when an operator is applied to values of the
// wrong categories.
var ErrOperandTypes = errors.New("invalid operand types")

// ErrDivisionByZero is returned by '/' when the divisor is zero.
var ErrDivisionByZero = errors.New("division by zero")

// ErrIntegerOverflow is returned when int arithmetic leaves the 64-bit range.
var ErrIntegerOverflow = errors.New("integer overflow")

// ErrReturnOutsideFunction is returned for a return executed in the Global frame.
var ErrReturnOutsideFunction = errors.New("invalid syntax: return outside a function")

// ErrConditionNotBool is returned when a bare if condition is not a bool.
var ErrConditionNotBool = errors.New("condition is not a bool")

// ErrUnresolvedCall is returned for a call site the analyzer did not resolve.
var ErrUnresolvedCall = errors.New("unresolved function call")

// ErrCallDepthExceeded is returned when a call would exceed MaxCallDepth frames.
var ErrCallDepthExceeded = errors.New("maximum call depth exceeded")

// RuntimeError is an evaluation failure at a source position.
type RuntimeError struct {
	Pos token.Position
	Err error
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("runtime error at %s: %v", e.Pos, e.Err)
}

func (e *RuntimeError) Unwrap() error { return e.Err }

func runtimeErr(pos token.Position, sentinel error, format string, args ...interface{}) error {
	if format == "" {
		return &RuntimeError{Pos: pos, Err: sentinel}
	}
	return &RuntimeError{Pos: pos, Err: fmt.Errorf("%w: "+format, append([]interface{}{sentinel}, args...)...)}
}

// Options configures an Interpreter.
type Options struct {
	MaxCallDepth int // frames including the global one; 0 selects DefaultMaxCallDepth
}

// Interpreter executes one analysed program.
type Interpreter struct {
	info  *semantic.Info
	stack *CallStack
	out   io.Writer
	lines []string
}

// New creates an interpreter for a program analysed into info. Printed lines
// go to os.Stdout until redirected.
func New(info *semantic.Info, opts Options) *Interpreter {
	depth := opts.MaxCallDepth
	if depth <= 0 {
		depth = DefaultMaxCallDepth
	}
	return &Interpreter{
		info:  info,
		stack: NewCallStack(depth),
		out:   os.Stdout,
	}
}

// Redirect sends printed lines to w, nil discards them. The returned function
// restores the previous sink.
func (it *Interpreter) Redirect(w io.Writer) (restore func()) {
	prev := it.out
	it.out = w
	return func() { it.out = prev }
}

// Output returns every line printed so far.
func (it *Interpreter) Output() []string { return it.lines }

// Interpret runs prog in a fresh Global frame.
func (it *Interpreter) Interpret(prog *ast.Block) error {
	global := NewActivationRecord("global", Global, semantic.GlobalLevel)
	if err := it.stack.Push(global); err != nil {
		return runtimeErr(prog.Pos(), err, "")
	}
	defer it.stack.Pop()

	log.Trace("Entering program", "frame", global.Name, "level", global.ScopeLevel)
	if _, err := it.eval(prog); err != nil {
		return err
	}
	log.Trace("Leaving program", "lines", len(it.lines))
	return nil
}

func (it *Interpreter) emit(line string) error {
	it.lines = append(it.lines, line)
	if it.out == nil {
		return nil
	}
	_, err := io.WriteString(it.out, line+"\n")
	return err
}

// eval visits any node. Statements yield the absent value.
func (it *Interpreter) eval(node ast.Node) (Value, error) {
	switch n := node.(type) {
	case *ast.Block:
		for _, stmt := range n.Statements {
			if _, err := it.eval(stmt); err != nil {
				return nil, err
			}
		}
		return nil, nil

	case *ast.NumberLit:
		return Int(n.Value), nil
	case *ast.FloatLit:
		return Float(n.Value), nil
	case *ast.StringLit:
		return Str(n.Value), nil
	case *ast.BoolLit:
		return Bool(n.Value), nil

	case *ast.Var:
		v, _ := it.stack.Peek().Get(n.Name)
		return v, nil

	case *ast.UnaryOp:
		operand, err := it.eval(n.Operand)
		if err != nil {
			return nil, err
		}
		return unary(n, operand)

	case *ast.BinOp:
		left, err := it.eval(n.Left)
		if err != nil {
			return nil, err
		}
		right, err := it.eval(n.Right)
		if err != nil {
			return nil, err
		}
		return binary(n, left, right)

	case *ast.Comparison:
		c, err := it.compare(n)
		if err != nil {
			return nil, err
		}
		return Bool(c), nil

	case *ast.Assign:
		v, err := it.eval(n.Value)
		if err != nil {
			return nil, err
		}
		it.stack.Peek().Set(n.Name, v)
		return nil, nil

	case *ast.Print:
		return nil, it.print(n)

	case *ast.IfStatement:
		cond, err := it.compare(n.Cond)
		if err != nil {
			return nil, err
		}
		if cond {
			return it.eval(n.Then)
		}
		if n.Else != nil {
			return it.eval(n.Else)
		}
		return nil, nil

	case *ast.FuncDecl, *ast.Empty:
		return nil, nil

	case *ast.FuncCall:
		return it.call(n)

	case *ast.Return:
		return nil, it.ret(n)
	}
	return nil, fmt.Errorf("interp: unexpected node %T", node)
}

func (it *Interpreter) print(n *ast.Print) error {
	var line strings.Builder
	for _, arg := range n.Args {
		v, err := it.eval(arg)
		if err != nil {
			return err
		}
		if tuple, ok := v.(Tuple); ok {
			for _, e := range tuple {
				line.WriteString(Stringify(e))
			}
			continue
		}
		line.WriteString(Stringify(v))
	}
	return it.emit(line.String())
}

func (it *Interpreter) call(n *ast.FuncCall) (Value, error) {
	fn, ok := it.info.Calls[n]
	if !ok {
		return nil, runtimeErr(n.Pos(), ErrUnresolvedCall, "%s", n.Name)
	}
	args := make([]Value, len(n.Args))
	for i, arg := range n.Args {
		v, err := it.eval(arg)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}

	ar := NewActivationRecord(fn.Name, Function, fn.ScopeLevel+1)
	for i, param := range fn.Params {
		ar.Set(param.Name, args[i])
	}
	if err := it.stack.Push(ar); err != nil {
		return nil, runtimeErr(n.Pos(), err, "calling %s at depth %d", n.Name, it.stack.Len())
	}
	defer it.stack.Pop()

	log.Trace("Entering function", "name", fn.Name, "level", ar.ScopeLevel, "depth", it.stack.Len())
	if _, err := it.eval(fn.Body); err != nil {
		return nil, err
	}
	return ar.ReturnValue(), nil
}

func (it *Interpreter) ret(n *ast.Return) error {
	ar := it.stack.Peek()
	if ar.Kind == Global {
		return runtimeErr(n.Pos(), ErrReturnOutsideFunction, "")
	}
	vals := make([]Value, 0, len(n.Exprs))
	for _, e := range n.Exprs {
		v, err := it.eval(e)
		if err != nil {
			return err
		}
		vals = append(vals, v)
	}
	ar.setReturn(vals)
	return nil
}

// ---- Operators -------------------------------------------------------------

func operandError(pos token.Position, op token.Type, left, right Value) error {
	return runtimeErr(pos, ErrOperandTypes, "can not run %s operation on types %s and %s",
		op, KindOf(left), KindOf(right))
}

func unary(n *ast.UnaryOp, v Value) (Value, error) {
	switch x := v.(type) {
	case Int:
		if n.Op == token.MINUS {
			if x == math.MinInt64 {
				return nil, runtimeErr(n.Pos(), ErrIntegerOverflow, "-(%d)", int64(x))
			}
			return -x, nil
		}
		return x, nil
	case Float:
		if n.Op == token.MINUS {
			return -x, nil
		}
		return x, nil
	}
	return nil, runtimeErr(n.Pos(), ErrOperandTypes, "can not run unary %s operation on type %s", n.Op, KindOf(v))
}

func binary(n *ast.BinOp, left, right Value) (Value, error) {
	lk, rk := KindOf(left), KindOf(right)

	if lk == KindStr && rk == KindStr {
		if n.Op == token.PLUS {
			return left.(Str) + right.(Str), nil
		}
		return nil, operandError(n.Pos(), n.Op, left, right)
	}
	if !lk.IsNumeric() || !rk.IsNumeric() {
		return nil, operandError(n.Pos(), n.Op, left, right)
	}

	if n.Op == token.DIV {
		divisor := toFloat(right)
		if divisor == 0 {
			return nil, runtimeErr(n.Pos(), ErrDivisionByZero, "")
		}
		return Float(toFloat(left) / divisor), nil
	}

	if lk == KindInt && rk == KindInt {
		l, r := int64(left.(Int)), int64(right.(Int))
		var (
			v  int64
			ok bool
		)
		switch n.Op {
		case token.PLUS:
			v, ok = addInt(l, r)
		case token.MINUS:
			v, ok = subInt(l, r)
		case token.MUL:
			v, ok = mulInt(l, r)
		default:
			return nil, fmt.Errorf("interp: unexpected arithmetic operator %s", n.Op)
		}
		if !ok {
			return nil, runtimeErr(n.Pos(), ErrIntegerOverflow, "%d %s %d", l, n.Op, r)
		}
		return Int(v), nil
	} else {
		l, r := toFloat(left), toFloat(right)
		switch n.Op {
		case token.PLUS:
			return Float(l + r), nil
		case token.MINUS:
			return Float(l - r), nil
		case token.MUL:
			return Float(l * r), nil
		}
	}
	return nil, fmt.Errorf("interp: unexpected arithmetic operator %s", n.Op)
}

// addInt, subInt and mulInt report false when the result overflows int64.
func addInt(a, b int64) (int64, bool) {
	c := a + b
	return c, (c > a) == (b > 0)
}

func subInt(a, b int64) (int64, bool) {
	c := a - b
	return c, (c < a) == (b > 0)
}

func mulInt(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	c := a * b
	if (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) || c/b != a {
		return c, false
	}
	return c, true
}

// compare evaluates an if condition.
func (it *Interpreter) compare(n *ast.Comparison) (bool, error) {
	left, err := it.eval(n.Left)
	if err != nil {
		return false, err
	}
	if !n.HasOp() {
		b, ok := left.(Bool)
		if !ok {
			return false, runtimeErr(n.Pos(), ErrConditionNotBool, "got %s", KindOf(left))
		}
		return bool(b), nil
	}
	right, err := it.eval(n.Right)
	if err != nil {
		return false, err
	}

	lk, rk := KindOf(left), KindOf(right)
	if n.Op == token.EQ {
		return equal(left, right), nil
	}

	var c int
	switch {
	case lk == KindInt && rk == KindInt:
		c = compareInts(int64(left.(Int)), int64(right.(Int)))
	case lk.IsNumeric() && rk.IsNumeric():
		c = compareFloats(toFloat(left), toFloat(right))
	case lk == KindStr && rk == KindStr:
		c = strings.Compare(string(left.(Str)), string(right.(Str)))
	default:
		return false, runtimeErr(n.Pos(), ErrOperandTypes, "can not compare types %s and %s with %s", lk, rk, n.Op)
	}

	switch n.Op {
	case token.LT:
		return c < 0, nil
	case token.LTE:
		return c <= 0, nil
	case token.GT:
		return c > 0, nil
	case token.GTE:
		return c >= 0, nil
	}
	return false, fmt.Errorf("interp: unexpected comparison operator %s", n.Op)
}

// equal reports whether two values are equal. Values of different categories
// are never equal; int and float compare numerically.
func equal(left, right Value) bool {
	lk, rk := KindOf(left), KindOf(right)
	if lk.IsNumeric() && rk.IsNumeric() {
		if lk == KindInt && rk == KindInt {
			return left.(Int) == right.(Int)
		}
		return toFloat(left) == toFloat(right)
	}
	if lk != rk {
		return false
	}
	switch l := left.(type) {
	case nil:
		return true
	case Str:
		return l == right.(Str)
	case Bool:
		return l == right.(Bool)
	case Tuple:
		r := right.(Tuple)
		if len(l) != len(r) {
			return false
		}
		for i := range l {
			if !equal(l[i], r[i]) {
				return false
			}
		}
		return true
	}
	return false
}

func compareInts(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func compareFloats(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
