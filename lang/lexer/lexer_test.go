// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package lexer_test

import (
	"errors"
	"testing"

	"github.com/probechain/probeplay/lang/lexer"
	"github.com/probechain/probeplay/lang/token"
)

// tokenCase is a single expected token in a table-driven test.
type tokenCase struct {
	typ     token.Type
	literal string
}

// runTokenize lexes input and checks that it produces exactly the expected
// sequence (plus a final EOF).
func runTokenize(t *testing.T, name, input string, want []tokenCase) {
	t.Helper()
	t.Run(name, func(t *testing.T) {
		t.Helper()
		toks, err := lexer.New(input).Tokenize()
		if err != nil {
			t.Fatalf("Tokenize: %v", err)
		}
		if len(toks) == 0 {
			t.Fatal("Tokenize returned empty slice")
		}
		last := toks[len(toks)-1]
		if last.Type != token.EOF {
			t.Errorf("last token is %s, want EOF", last.Type)
		}
		body := toks[:len(toks)-1]

		if len(body) != len(want) {
			t.Errorf("got %d tokens (excl. EOF), want %d", len(body), len(want))
			for i, tok := range body {
				t.Logf("  [%d] %s %q", i, tok.Type, tok.Literal)
			}
			return
		}
		for i, w := range want {
			got := body[i]
			if got.Type != w.typ {
				t.Errorf("token[%d]: type = %s, want %s (literal %q)", i, got.Type, w.typ, got.Literal)
			}
			if got.Literal != w.literal {
				t.Errorf("token[%d]: literal = %q, want %q", i, got.Literal, w.literal)
			}
		}
	})
}

func TestSingleCharTokens(t *testing.T) {
	cases := []struct {
		name    string
		input   string
		wantTyp token.Type
	}{
		{"plus", "+", token.PLUS},
		{"minus", "-", token.MINUS},
		{"mul", "*", token.MUL},
		{"div", "/", token.DIV},
		{"lt", "<", token.LT},
		{"gt", ">", token.GT},
		{"assign", "=", token.ASSIGN},
		{"colon", ":", token.COLON},
		{"lparen", "(", token.LPAREN},
		{"rparen", ")", token.RPAREN},
		{"lbrace", "{", token.LBRACE},
		{"rbrace", "}", token.RBRACE},
		{"comma", ",", token.COMMA},
		{"semicolon", ";", token.SEMICOLON},
	}
	for _, c := range cases {
		runTokenize(t, c.name, c.input, []tokenCase{{c.wantTyp, c.input}})
	}
}

func TestTwoCharOperators(t *testing.T) {
	runTokenize(t, "EQ", "==", []tokenCase{{token.EQ, "=="}})
	runTokenize(t, "LTE", "<=", []tokenCase{{token.LTE, "<="}})
	runTokenize(t, "GTE", ">=", []tokenCase{{token.GTE, ">="}})
	runTokenize(t, "assign-assign", "= =", []tokenCase{{token.ASSIGN, "="}, {token.ASSIGN, "="}})
	runTokenize(t, "mixed", "+ = ; : () == <= >=", []tokenCase{
		{token.PLUS, "+"}, {token.ASSIGN, "="}, {token.SEMICOLON, ";"}, {token.COLON, ":"},
		{token.LPAREN, "("}, {token.RPAREN, ")"}, {token.EQ, "=="}, {token.LTE, "<="}, {token.GTE, ">="},
	})
}

func TestReservedWords(t *testing.T) {
	runTokenize(t, "keywords", "print if else function return", []tokenCase{
		{token.PRINT, "print"}, {token.IF, "if"}, {token.ELSE, "else"},
		{token.FUNCTION, "function"}, {token.RETURN, "return"},
	})
	runTokenize(t, "types", "int float bool str", []tokenCase{
		{token.TYPE, "int"}, {token.TYPE, "float"}, {token.TYPE, "bool"}, {token.TYPE, "str"},
	})
	runTokenize(t, "names", "some_var Printer true", []tokenCase{
		{token.NAME, "some_var"}, {token.NAME, "Printer"}, {token.NAME, "true"},
	})
}

func TestLiteralValues(t *testing.T) {
	toks, err := lexer.New(`12 3.5 True False 'single' "double" name`).Tokenize()
	if err != nil {
		t.Fatalf("Tokenize: %v", err)
	}
	want := []struct {
		typ   token.Type
		value interface{}
	}{
		{token.INT, int64(12)},
		{token.FLOAT, 3.5},
		{token.BOOL, true},
		{token.BOOL, false},
		{token.STRING, "single"},
		{token.STRING, "double"},
		{token.NAME, "name"},
		{token.EOF, nil},
	}
	if len(toks) != len(want) {
		t.Fatalf("got %d tokens, want %d", len(toks), len(want))
	}
	for i, w := range want {
		if toks[i].Type != w.typ {
			t.Errorf("token[%d]: type = %s, want %s", i, toks[i].Type, w.typ)
		}
		if toks[i].Value != w.value {
			t.Errorf("token[%d]: value = %#v, want %#v", i, toks[i].Value, w.value)
		}
	}
}

func TestStringQuotes(t *testing.T) {
	runTokenize(t, "mixed quotes", `"it's"`, []tokenCase{{token.STRING, `"it's"`}})
	runTokenize(t, "single with double inside", `'say "hi"'`, []tokenCase{{token.STRING, `'say "hi"'`}})

	tok, err := lexer.New(`'a is '`).NextToken()
	if err != nil {
		t.Fatal(err)
	}
	if tok.Value != "a is " {
		t.Errorf("value = %q, want %q", tok.Value, "a is ")
	}
}

func TestNameStopsAtDigit(t *testing.T) {
	runTokenize(t, "digit splits name", "a1", []tokenCase{{token.NAME, "a"}, {token.INT, "1"}})
}

func TestComments(t *testing.T) {
	src := `
        /*
        I am a comment
        */
        a: int = 1; // trailing
    `
	runTokenize(t, "block and line", src, []tokenCase{
		{token.NAME, "a"}, {token.COLON, ":"}, {token.TYPE, "int"}, {token.ASSIGN, "="},
		{token.INT, "1"}, {token.SEMICOLON, ";"},
	})
	runTokenize(t, "division is not a comment", "4 / 2", []tokenCase{
		{token.INT, "4"}, {token.DIV, "/"}, {token.INT, "2"},
	})
}

func TestLexErrors(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  error
	}{
		{"unrecognized", "a: int = 1 $ 2;", lexer.ErrUnrecognizedCharacter},
		{"unterminated string", "a: str = 'never closed;", lexer.ErrUnterminatedString},
		{"quote mismatch", `a: str = "half';`, lexer.ErrUnterminatedString},
		{"unterminated comment", "/* open", lexer.ErrUnterminatedComment},
		{"two dots", "1.2.3", lexer.ErrMalformedNumber},
		{"overflow", "99999999999999999999", lexer.ErrMalformedNumber},
		{"leading underscore", "_x", lexer.ErrUnrecognizedCharacter},
		{"nul byte", "print(1);\x00 print(2);", lexer.ErrUnrecognizedCharacter},
		{"nul byte before garbage", "a\x00@@@", lexer.ErrUnrecognizedCharacter},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := lexer.New(c.input).Tokenize()
			if !errors.Is(err, c.want) {
				t.Fatalf("err = %v, want %v", err, c.want)
			}
			var lerr *lexer.Error
			if !errors.As(err, &lerr) {
				t.Fatalf("err %T is not *lexer.Error", err)
			}
		})
	}
}

func TestNulByteIsNotEndOfInput(t *testing.T) {
	toks, err := lexer.New("a;\x00").Tokenize()
	if !errors.Is(err, lexer.ErrUnrecognizedCharacter) {
		t.Fatalf("err = %v, want %v", err, lexer.ErrUnrecognizedCharacter)
	}
	if len(toks) != 2 {
		t.Fatalf("got %d tokens before the error, want 2", len(toks))
	}
	var lerr *lexer.Error
	if errors.As(err, &lerr) && lerr.Pos.Column != 3 {
		t.Errorf("error at %s, want 1:3", lerr.Pos)
	}

	runTokenize(t, "nul inside string", "'a\x00b'", []tokenCase{{token.STRING, "'a\x00b'"}})
	runTokenize(t, "nul inside comment", "/* \x00 */ 1 // \x00\n2", []tokenCase{
		{token.INT, "1"}, {token.INT, "2"},
	})
}

func TestPositions(t *testing.T) {
	toks, err := lexer.New("a\n  bc").Tokenize()
	if err != nil {
		t.Fatal(err)
	}
	if p := toks[0].Pos; p.Line != 1 || p.Column != 1 {
		t.Errorf("a at %s, want 1:1", p)
	}
	if p := toks[1].Pos; p.Line != 2 || p.Column != 3 {
		t.Errorf("bc at %s, want 2:3", p)
	}
}

func TestEOFIsStable(t *testing.T) {
	l := lexer.New("   ")
	for i := 0; i < 3; i++ {
		tok, err := l.NextToken()
		if err != nil {
			t.Fatal(err)
		}
		if tok.Type != token.EOF {
			t.Fatalf("call %d: got %s, want EOF", i, tok.Type)
		}
	}
}

func TestCurrentCharAfterName(t *testing.T) {
	cases := []struct {
		input string
		want  byte
	}{
		{"f(1)", '('},
		{"f (1)", ' '},
		{"a: int", ':'},
		{"abc", 0},
	}
	for _, c := range cases {
		l := lexer.New(c.input)
		if _, err := l.NextToken(); err != nil {
			t.Fatal(err)
		}
		if got := l.CurrentChar(); got != c.want {
			t.Errorf("%q: CurrentChar = %q, want %q", c.input, got, c.want)
		}
	}
}
