// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package interp

import (
	"bytes"
	"fmt"
	"sort"
)

// ARKind distinguishes the program frame from function frames.
type ARKind int

const (
	Global ARKind = iota
	Function
)

func (k ARKind) String() string {
	if k == Global {
		return "GLOBAL"
	}
	return "FUNCTION"
}

// returnSlot is the member holding a function frame's return values. It is
// a reserved word, so no declared variable can collide with it.
const returnSlot = "return"

// ActivationRecord holds the variables of one executing program or function
// body.
type ActivationRecord struct {
	Name       string
	Kind       ARKind
	ScopeLevel int
	Members    map[string]Value
}

// NewActivationRecord creates an empty frame.
func NewActivationRecord(name string, kind ARKind, level int) *ActivationRecord {
	return &ActivationRecord{
		Name:       name,
		Kind:       kind,
		ScopeLevel: level,
		Members:    make(map[string]Value),
	}
}

// Get returns the member called name, nil when absent.
func (ar *ActivationRecord) Get(name string) (Value, bool) {
	v, ok := ar.Members[name]
	return v, ok
}

// Set stores name in this frame, overwriting any previous value.
func (ar *ActivationRecord) Set(name string, v Value) {
	ar.Members[name] = v
}

// setReturn fills the return slot. A later return overwrites an earlier one.
func (ar *ActivationRecord) setReturn(vals []Value) {
	switch len(vals) {
	case 0:
		ar.Members[returnSlot] = nil
	case 1:
		ar.Members[returnSlot] = vals[0]
	default:
		ar.Members[returnSlot] = Tuple(vals)
	}
}

// ReturnValue is the call result: nil when nothing was returned, the value
// itself for one, a Tuple for several.
func (ar *ActivationRecord) ReturnValue() Value {
	return ar.Members[returnSlot]
}

func (ar *ActivationRecord) String() string {
	names := make([]string, 0, len(ar.Members))
	for name := range ar.Members {
		names = append(names, name)
	}
	sort.Strings(names)

	var out bytes.Buffer
	fmt.Fprintf(&out, "%d: %s %s\n", ar.ScopeLevel, ar.Kind, ar.Name)
	for _, name := range names {
		fmt.Fprintf(&out, "   %-20s: %s\n", name, Stringify(ar.Members[name]))
	}
	return out.String()
}

// CallStack is the explicit stack of activation records. The current frame
// is the tail.
type CallStack struct {
	records  []*ActivationRecord
	maxDepth int // 0 means unbounded
}

// NewCallStack creates an empty stack holding at most maxDepth records.
func NewCallStack(maxDepth int) *CallStack {
	return &CallStack{
		records:  make([]*ActivationRecord, 0, 16),
		maxDepth: maxDepth,
	}
}

// Push makes ar the current frame.
func (s *CallStack) Push(ar *ActivationRecord) error {
	if s.maxDepth > 0 && len(s.records) >= s.maxDepth {
		return ErrCallDepthExceeded
	}
	s.records = append(s.records, ar)
	return nil
}

// Pop removes and returns the current frame, nil if the stack is empty.
func (s *CallStack) Pop() *ActivationRecord {
	if len(s.records) == 0 {
		return nil
	}
	ar := s.records[len(s.records)-1]
	s.records[len(s.records)-1] = nil
	s.records = s.records[:len(s.records)-1]
	return ar
}

// Peek returns the current frame, nil if the stack is empty.
func (s *CallStack) Peek() *ActivationRecord {
	if len(s.records) == 0 {
		return nil
	}
	return s.records[len(s.records)-1]
}

// Len returns the number of frames on the stack.
func (s *CallStack) Len() int { return len(s.records) }

func (s *CallStack) String() string {
	var out bytes.Buffer
	out.WriteString("CALL STACK\n")
	for i := len(s.records) - 1; i >= 0; i-- {
		out.WriteString(s.records[i].String())
	}
	return out.String()
}
