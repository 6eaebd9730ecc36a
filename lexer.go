// Copyright 2011 Google Inc. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package mbuild

import (
	"fmt"
	"strings"
)

// maxMacroDepth bounds how many $(name) expansions may nest inside one
// another. A macro whose own value references another $(name) is allowed
// one level of that; beyond it the lexer reports an error rather than
// risking an expansion cycle.
const maxMacroDepth = 2

// MacroLookup resolves a $(name) reference to its replacement text, the
// same way a bare $name resolves a variable: an unbound name yields "",
// not an error. ManifestParser installs one backed by the current binding
// scope, so "for x in $(list)\n" expands list to whatever was bound to it
// before the for statement was reached.
type MacroLookup func(name string) string

// lexFrame is a saved scanning position, pushed when a $(name) macro
// expansion is entered and popped when it is exhausted.
type lexFrame struct {
	filename string
	input    []byte
	ofs      int
}

// LexerPos is an opaque saved scan position, returned by StoreTokenPos and
// accepted by RestoreTokenPos. It is only meaningful relative to the Lexer
// that produced it, and only outside of a macro expansion.
type LexerPos int

// Lexer turns manifest bytes into the Token alphabet. It tracks enough
// state (current offset, whether it is positioned at the start of a
// statement) to recognize keywords only where the grammar allows them, and
// a small frame stack to support $(name) macro expansion inline within
// ReadEvalString without a separate preprocessing pass.
type Lexer struct {
	filename string
	input    []byte
	ofs      int

	atLineStart bool
	lastOfs     int // ofs before the most recently returned token, for UnreadToken
	lastAtStart bool

	tokenText string // captured text for the most recently returned IDENT
	lastError string // message for the most recently returned ERROR token

	macros MacroLookup
	frames []lexFrame
}

// NewLexer returns a Lexer ready to scan input, reporting filename in error
// messages.
func NewLexer(filename string, input []byte) *Lexer {
	l := &Lexer{}
	l.Start(filename, input)
	return l
}

// Start (re)initializes the lexer to scan input from the beginning. It is
// also used to reuse a Lexer value across subninja/include files.
func (l *Lexer) Start(filename string, input []byte) {
	l.filename = filename
	l.input = input
	l.ofs = 0
	l.atLineStart = true
	l.lastOfs = 0
	l.lastAtStart = true
	l.tokenText = ""
	l.lastError = ""
	l.frames = l.frames[:0]
}

// SetMacroLookup installs the callback ReadEvalString uses to resolve
// $(name) references. A nil lookup makes every $(name) a lex error.
func (l *Lexer) SetMacroLookup(lookup MacroLookup) {
	l.macros = lookup
}

// TokenText returns the text captured by the most recent IDENT token.
func (l *Lexer) TokenText() string {
	return l.tokenText
}

func (l *Lexer) eof() bool {
	return l.ofs >= len(l.input)
}

func (l *Lexer) peekByte() byte {
	if l.eof() {
		return 0
	}
	return l.input[l.ofs]
}

func isIdentByte(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_' || c == '.' || c == '-'
}

// isBareVarByte is isIdentByte without '.': a bare $name reference stops at
// a dot, while a statement identifier (rule/pool/binding name) does not.
func isBareVarByte(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_' || c == '-'
}

// ReadToken scans and returns the next token, advancing past it. Keywords
// (build, pool, rule, default, include, subninja, for, end) are recognized
// only when atLineStart is true; "in" is recognized anywhere, since the
// "for x in ..." production needs it mid-statement.
func (l *Lexer) ReadToken() Token {
	l.lastOfs = l.ofs
	l.lastAtStart = l.atLineStart

	for {
		if l.eof() {
			return TEOF
		}
		c := l.peekByte()

		if c == '#' {
			for !l.eof() && l.peekByte() != '\n' {
				l.ofs++
			}
			if l.eof() {
				l.lastError = "unexpected EOF"
				return ERROR
			}
			continue
		}

		if c == '\t' {
			l.lastError = "tabs are not allowed, use spaces"
			return ERROR
		}

		if l.atLineStart && c == ' ' {
			for !l.eof() && l.peekByte() == ' ' {
				l.ofs++
			}
			l.atLineStart = false
			return INDENT
		}

		if c == ' ' {
			l.ofs++
			continue
		}

		if c == '\r' {
			l.ofs++
			continue
		}

		if c == '\n' {
			l.ofs++
			l.atLineStart = true
			return NEWLINE
		}

		switch c {
		case ':':
			l.ofs++
			l.atLineStart = false
			return COLON
		case '=':
			l.ofs++
			l.atLineStart = false
			return EQUALS
		case '|':
			l.ofs++
			if l.peekByte() == '|' {
				l.ofs++
				l.atLineStart = false
				return PIPE2
			}
			l.atLineStart = false
			return PIPE
		case '+':
			if l.ofs+1 < len(l.input) && l.input[l.ofs+1] == '=' {
				l.ofs += 2
				l.atLineStart = false
				return PLUSEQ
			}
		}

		if isIdentByte(c) {
			start := l.ofs
			for !l.eof() && isIdentByte(l.peekByte()) {
				l.ofs++
			}
			text := string(l.input[start:l.ofs])
			wasAtStart := l.atLineStart
			l.atLineStart = false
			if wasAtStart {
				if tok, ok := keywords[text]; ok {
					return tok
				}
			} else if text == "in" {
				return IN
			}
			l.tokenText = text
			return IDENT
		}

		l.atLineStart = false
		l.lastError = fmt.Sprintf("unexpected character '%c'", c)
		return ERROR
	}
}

// DescribeLastError returns the message for the most recently returned
// ERROR token.
func (l *Lexer) DescribeLastError() string {
	if l.lastError != "" {
		return l.lastError
	}
	return "unknown lexing error"
}

// UnreadToken rewinds the lexer so the next ReadToken call returns the same
// token again. Only one token of pushback is supported.
func (l *Lexer) UnreadToken() {
	l.ofs = l.lastOfs
	l.atLineStart = l.lastAtStart
}

// PeekToken consumes the next token if it equals expected, returning
// whether it matched. On a mismatch the token is pushed back.
func (l *Lexer) PeekToken(expected Token) bool {
	got := l.ReadToken()
	if got == expected {
		return true
	}
	l.UnreadToken()
	return false
}

// ReadIdent reads a bare identifier, used for rule/pool/binding names where
// the caller has already established (via ReadToken) that an IDENT
// follows.
func (l *Lexer) ReadIdent() (string, bool) {
	if l.ReadToken() != IDENT {
		l.UnreadToken()
		return "", false
	}
	return l.tokenText, true
}

// StoreTokenPos captures the current scan position for later rewinding, used
// by the for-loop implementation to replay its body once per iteration
// value. It is only valid outside of a macro expansion.
func (l *Lexer) StoreTokenPos() LexerPos {
	return LexerPos(l.ofs)
}

// RestoreTokenPos rewinds the lexer to a position previously returned by
// StoreTokenPos. The restored position counts as a statement start only
// when it is the start of input or directly follows a newline, so a stored
// mid-line position replays the same tokens it produced the first time.
func (l *Lexer) RestoreTokenPos(pos LexerPos) {
	l.ofs = int(pos)
	l.atLineStart = l.ofs == 0 || l.input[l.ofs-1] == '\n'
}

// ReadEvalString reads fragments up to an unescaped newline (or, when path
// is true, up to unescaped whitespace, ':' or '|') building an EvalString
// of literal and variable-reference fragments. $ escapes are resolved
// inline; a $(name) reference is expanded through the installed
// MacroLookup by pushing a frame over the macro's replacement text and
// continuing to scan it as if it had appeared literally at that point.
func (l *Lexer) ReadEvalString(path bool) (EvalString, error) {
	var eval EvalString

	// A single run of raw (non-escaped) leading spaces/tabs is always
	// insignificant: it is what separates a ':', '=' or keyword token from
	// the value that follows it, or one path-mode call's path from the
	// next. It is never part of the result.
	for !l.eof() && (l.peekByte() == ' ' || l.peekByte() == '\t') {
		l.ofs++
	}

	for {
		if l.eof() {
			if len(l.frames) > 0 {
				l.popFrame()
				continue
			}
			if path {
				return eval, nil
			}
			return eval, l.errAt(l.ofs, KindLex, "unexpected EOF")
		}

		c := l.peekByte()

		if c == '\n' {
			if len(l.frames) > 0 {
				l.popFrame()
				continue
			}
			if !path {
				l.ofs++
				l.atLineStart = true
			}
			return eval, nil
		}

		if path && (c == ' ' || c == '\t' || c == ':' || c == '|') {
			return eval, nil
		}

		if c == '$' {
			l.ofs++
			if err := l.readEscape(&eval, path); err != nil {
				return eval, err
			}
			continue
		}

		start := l.ofs
		for !l.eof() {
			c = l.peekByte()
			if c == '\n' || c == '$' {
				break
			}
			if path && (c == ' ' || c == '\t' || c == ':' || c == '|') {
				break
			}
			l.ofs++
		}
		eval.AddText(string(l.input[start:l.ofs]))
	}
}

// readEscape handles the byte(s) following an unescaped '$'.
func (l *Lexer) readEscape(eval *EvalString, path bool) error {
	if l.eof() {
		return l.errAt(l.ofs, KindLex, "unexpected EOF after '$'")
	}
	c := l.peekByte()
	switch {
	case c == '\n':
		l.ofs++
		for !l.eof() && (l.peekByte() == ' ' || l.peekByte() == '\t') {
			l.ofs++
		}
		return nil
	case c == ' ':
		l.ofs++
		eval.AddText(" ")
		return nil
	case c == ':':
		l.ofs++
		eval.AddText(":")
		return nil
	case c == '$':
		l.ofs++
		eval.AddText("$")
		return nil
	case c == '{':
		start := l.ofs + 1
		end := start
		for end < len(l.input) && l.input[end] != '}' {
			end++
		}
		if end >= len(l.input) {
			return l.errAt(l.ofs, KindLex, "expected closing '}' in ${varname}")
		}
		name := string(l.input[start:end])
		if name == "" {
			return l.errAt(l.ofs, KindLex, "empty ${} variable name")
		}
		l.ofs = end + 1
		eval.AddSpecial(name)
		return nil
	case c == '(':
		return l.readMacro(eval, path)
	case isBareVarByte(c) && !(c >= '0' && c <= '9'):
		// A bare $name (no braces) stops at the first byte that isn't a
		// letter, digit, underscore or '-': "$bar.dots" is $bar followed
		// by the literal ".dots", unlike ${bar.dots} or a rule/build
		// identifier, both of which do include dots.
		start := l.ofs
		for !l.eof() && isBareVarByte(l.peekByte()) {
			l.ofs++
		}
		eval.AddSpecial(string(l.input[start:l.ofs]))
		return nil
	default:
		return l.errAt(l.ofs, KindLex, "bad $-escape (literal $ must be written as '$$')")
	}
}

// readMacro handles "$(name)": it resolves name through the installed
// MacroLookup and continues scanning the replacement text in place, as a
// pushed lexer frame.
func (l *Lexer) readMacro(eval *EvalString, path bool) error {
	start := l.ofs + 1
	end := start
	for end < len(l.input) && l.input[end] != ')' {
		end++
	}
	if end >= len(l.input) {
		return l.errAt(l.ofs, KindLex, "expected closing ')' in $(name)")
	}
	name := string(l.input[start:end])
	if name == "" {
		return l.errAt(l.ofs, KindLex, "empty $() macro name")
	}
	l.ofs = end + 1

	if l.macros == nil {
		return l.errAt(start, KindLex, "$(name) used outside of a for-loop value list")
	}
	value := l.macros(name)
	if len(l.frames) >= maxMacroDepth {
		return l.errAt(start, KindLex, fmt.Sprintf("macro '%s' nested too deeply", name))
	}

	l.frames = append(l.frames, lexFrame{filename: l.filename, input: l.input, ofs: l.ofs})
	l.filename = fmt.Sprintf("$(%s)", name)
	l.input = []byte(value)
	l.ofs = 0
	return nil
}

func (l *Lexer) popFrame() {
	n := len(l.frames) - 1
	f := l.frames[n]
	l.frames = l.frames[:n]
	l.filename = f.filename
	l.input = f.input
	l.ofs = f.ofs
}

// Error formats msg as a lex error positioned at the current scan offset.
func (l *Lexer) Error(msg string) error {
	return l.errAt(l.ofs, KindLex, msg)
}

// ErrorAt formats msg as an error of the given kind, positioned at pos
// (typically the start offset of a previously read token). Parser code
// uses this so syntax and semantic errors get the same
// "filename:line:column: message" plus caret-snippet presentation as lex
// errors.
func (l *Lexer) ErrorAt(pos LexerPos, kind ErrorKind, msg string) error {
	return l.errAt(int(pos), kind, msg)
}

// errAt builds the formatted, positioned error. It always reports against
// the outermost (real file) buffer: while a macro frame is active, pos is an
// offset into expanded macro text, so it is replaced by the real-file offset
// just past the outermost $(name) reference. The column is 1-based.
func (l *Lexer) errAt(pos int, kind ErrorKind, msg string) *ParseError {
	input := l.input
	filename := l.filename
	if len(l.frames) > 0 {
		input = l.frames[0].input
		filename = l.frames[0].filename
		pos = l.frames[0].ofs
	}
	if pos > len(input) {
		pos = len(input)
	}

	line := 1
	lineStart := 0
	for i := 0; i < pos && i < len(input); i++ {
		if input[i] == '\n' {
			line++
			lineStart = i + 1
		}
	}
	lineEnd := lineStart
	for lineEnd < len(input) && input[lineEnd] != '\n' {
		lineEnd++
	}
	col := pos - lineStart

	var b strings.Builder
	fmt.Fprintf(&b, "%s:%d:%d: %s\n", filename, line, col+1, msg)
	b.Write(input[lineStart:lineEnd])
	b.WriteByte('\n')
	for i := 0; i < col; i++ {
		b.WriteByte(' ')
	}
	b.WriteByte('^')

	return newParseError(kind, b.String())
}
