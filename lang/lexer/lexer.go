// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package lexer implements a single-pass, no-backtracking lexer for the
// playground language.
//
// Design principles:
//   - ASCII input, one byte of lookahead
//   - Tokens are produced lazily, one per NextToken call
//   - /* */ block comments and // line comments are skipped like whitespace
//   - String literals may be quoted with ' or " and end at the same quote
//   - Numeric literals are decoded while lexing; malformed ones are errors
package lexer

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/probechain/probeplay/lang/token"
)

var (
	// ErrUnrecognizedCharacter is returned for a byte that cannot start a token.
	ErrUnrecognizedCharacter = errors.New("unrecognized character")

	// ErrUnterminatedString is returned when input ends inside a string literal.
	ErrUnterminatedString = errors.New("unterminated string")

	// ErrUnterminatedComment is returned when input ends inside a /* comment.
	ErrUnterminatedComment = errors.New("unterminated comment")

	// ErrMalformedNumber is returned when a digit/dot run is not a valid number.
	ErrMalformedNumber = errors.New("malformed numeric literal")
)

// Error is a lexing failure at a source position.
type Error struct {
	Pos  token.Position
	Err  error  // one of the Err* sentinels above
	Text string // offending source text
}

func (e *Error) Error() string {
	return fmt.Sprintf("lex error at %s: %v %q", e.Pos, e.Err, e.Text)
}

func (e *Error) Unwrap() error { return e.Err }

// Lexer holds the state for a single-pass tokenization run.
type Lexer struct {
	input []byte

	// pos is the index into input of the next byte to be loaded into ch.
	// After advance(), ch == input[pos-1] and pos points one past it.
	pos  int
	line int // 1-based current line number
	col  int // 1-based current column number

	ch byte // current character; 0 when past end, see atEnd
}

// New creates a new Lexer for the given source text.
func New(input string) *Lexer {
	l := &Lexer{
		input: []byte(input),
		line:  1,
		col:   0,
	}
	l.advance() // prime l.ch with the first byte
	return l
}

// advance moves to the next byte in the input, updating line/column tracking.
// When the end of input is reached, ch is set to 0.
func (l *Lexer) advance() {
	if l.ch == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	if l.pos >= len(l.input) {
		l.ch = 0
		l.pos = len(l.input) + 1
		return
	}
	l.ch = l.input[l.pos]
	l.pos++
}

// atEnd reports whether the whole input has been consumed. A NUL byte inside
// the input is an ordinary character.
func (l *Lexer) atEnd() bool {
	return l.pos > len(l.input)
}

// peek returns the byte after the current character without consuming it.
// Returns 0 if at or past end.
func (l *Lexer) peek() byte {
	if l.pos >= len(l.input) {
		return 0
	}
	return l.input[l.pos]
}

// CurrentChar returns the raw character the lexer will look at next, without
// skipping whitespace. Right after a NAME token it is the byte immediately
// following the name, which lets the parser tell "f(" from "f (" or "f :".
func (l *Lexer) CurrentChar() byte {
	return l.ch
}

// currentPos returns a token.Position capturing the lexer's state right now.
func (l *Lexer) currentPos() token.Position {
	return token.Position{
		Line:   l.line,
		Column: l.col,
		Offset: l.pos - 1,
	}
}

func makeToken(typ token.Type, literal string, value interface{}, pos token.Position) token.Token {
	return token.Token{Type: typ, Literal: literal, Value: value, Pos: pos}
}

// skipIgnored consumes whitespace and comments.
func (l *Lexer) skipIgnored() error {
	for {
		switch {
		case isSpace(l.ch):
			l.advance()
		case l.ch == '/' && l.peek() == '*':
			pos := l.currentPos()
			l.advance() // '/'
			l.advance() // '*'
			for !(l.ch == '*' && l.peek() == '/') {
				if l.atEnd() {
					return &Error{Pos: pos, Err: ErrUnterminatedComment, Text: "/*"}
				}
				l.advance()
			}
			l.advance() // '*'
			l.advance() // '/'
		case l.ch == '/' && l.peek() == '/':
			for l.ch != '\n' && !l.atEnd() {
				l.advance()
			}
		default:
			return nil
		}
	}
}

// NextToken scans and returns the next token from the input.
// After EOF is reached, subsequent calls continue returning EOF tokens.
func (l *Lexer) NextToken() (token.Token, error) {
	if err := l.skipIgnored(); err != nil {
		return makeToken(token.ILLEGAL, "", nil, l.currentPos()), err
	}

	pos := l.currentPos()
	ch := l.ch

	if l.atEnd() {
		return makeToken(token.EOF, "", nil, pos), nil
	}

	switch {
	case isLetter(ch):
		return l.readName(pos), nil

	case isDigit(ch):
		return l.readNumber(pos)

	case ch == '"' || ch == '\'':
		return l.readString(pos)
	}

	l.advance() // consume ch; from here on, l.ch is the character AFTER ch

	switch ch {
	// Comparison and assignment: one byte of lookahead for the '=' suffix.
	case '=':
		if l.ch == '=' {
			l.advance()
			return makeToken(token.EQ, "==", nil, pos), nil
		}
		return makeToken(token.ASSIGN, "=", nil, pos), nil
	case '<':
		if l.ch == '=' {
			l.advance()
			return makeToken(token.LTE, "<=", nil, pos), nil
		}
		return makeToken(token.LT, "<", nil, pos), nil
	case '>':
		if l.ch == '=' {
			l.advance()
			return makeToken(token.GTE, ">=", nil, pos), nil
		}
		return makeToken(token.GT, ">", nil, pos), nil

	// Single-character punctuation.
	case '+':
		return makeToken(token.PLUS, "+", nil, pos), nil
	case '-':
		return makeToken(token.MINUS, "-", nil, pos), nil
	case '*':
		return makeToken(token.MUL, "*", nil, pos), nil
	case '/':
		return makeToken(token.DIV, "/", nil, pos), nil
	case '(':
		return makeToken(token.LPAREN, "(", nil, pos), nil
	case ')':
		return makeToken(token.RPAREN, ")", nil, pos), nil
	case '{':
		return makeToken(token.LBRACE, "{", nil, pos), nil
	case '}':
		return makeToken(token.RBRACE, "}", nil, pos), nil
	case ',':
		return makeToken(token.COMMA, ",", nil, pos), nil
	case ';':
		return makeToken(token.SEMICOLON, ";", nil, pos), nil
	case ':':
		return makeToken(token.COLON, ":", nil, pos), nil
	}

	lit := string([]byte{ch})
	return makeToken(token.ILLEGAL, lit, nil, pos), &Error{Pos: pos, Err: ErrUnrecognizedCharacter, Text: lit}
}

// Tokenize returns all tokens (including the final EOF) produced by repeated
// calls to NextToken. It stops at the first lexing error.
func (l *Lexer) Tokenize() ([]token.Token, error) {
	var toks []token.Token
	for {
		tok, err := l.NextToken()
		if err != nil {
			return toks, err
		}
		toks = append(toks, tok)
		if tok.Type == token.EOF {
			return toks, nil
		}
	}
}

// readName scans a run of letters and underscores and classifies it against
// the reserved-word table.
func (l *Lexer) readName(pos token.Position) token.Token {
	buf := make([]byte, 0, 16)
	for isLetter(l.ch) || l.ch == '_' {
		buf = append(buf, l.ch)
		l.advance()
	}
	lit := string(buf)
	typ := token.LookupName(lit)
	switch typ {
	case token.BOOL:
		return makeToken(typ, lit, lit == "True", pos)
	case token.NAME:
		return makeToken(typ, lit, lit, pos)
	}
	return makeToken(typ, lit, nil, pos)
}

// readNumber scans a run of digits and dots. A dot selects FLOAT.
func (l *Lexer) readNumber(pos token.Position) (token.Token, error) {
	buf := make([]byte, 0, 24)
	for isDigit(l.ch) || l.ch == '.' {
		buf = append(buf, l.ch)
		l.advance()
	}
	lit := string(buf)
	if strings.IndexByte(lit, '.') >= 0 {
		f, err := strconv.ParseFloat(lit, 64)
		if err != nil {
			return makeToken(token.ILLEGAL, lit, nil, pos), &Error{Pos: pos, Err: ErrMalformedNumber, Text: lit}
		}
		return makeToken(token.FLOAT, lit, f, pos), nil
	}
	n, err := strconv.ParseInt(lit, 10, 64)
	if err != nil {
		return makeToken(token.ILLEGAL, lit, nil, pos), &Error{Pos: pos, Err: ErrMalformedNumber, Text: lit}
	}
	return makeToken(token.INT, lit, n, pos), nil
}

// readString reads a string literal quoted with the current character. The
// token value excludes both quotes; no escape sequences are interpreted.
func (l *Lexer) readString(pos token.Position) (token.Token, error) {
	quote := l.ch
	l.advance() // opening quote
	buf := make([]byte, 0, 32)
	for l.ch != quote {
		if l.atEnd() {
			lit := string(quote) + string(buf)
			return makeToken(token.ILLEGAL, lit, nil, pos), &Error{Pos: pos, Err: ErrUnterminatedString, Text: lit}
		}
		buf = append(buf, l.ch)
		l.advance()
	}
	l.advance() // closing quote
	val := string(buf)
	return makeToken(token.STRING, string(quote)+val+string(quote), val, pos), nil
}

func isSpace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n' || ch == '\v' || ch == '\f'
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isLetter(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}
