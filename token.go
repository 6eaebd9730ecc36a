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

// Token is the alphabet produced by the lexer.
type Token int

// The token alphabet. Keywords other than "in" are only recognized at
// statement start; the lexer emits IDENT for the same bytes anywhere else.
// "in" is emitted as IN anywhere.
const (
	ERROR Token = iota
	BUILD
	COLON
	DEFAULT
	EQUALS
	PLUSEQ
	IDENT
	INCLUDE
	INDENT
	NEWLINE
	PIPE
	PIPE2
	POOL
	RULE
	SUBNINJA
	FOR
	IN
	END
	TEOF
)

// String returns a human-readable form of a token, used in error messages.
func (t Token) String() string {
	switch t {
	case ERROR:
		return "lexing error"
	case BUILD:
		return "'build'"
	case COLON:
		return "':'"
	case DEFAULT:
		return "'default'"
	case EQUALS:
		return "'='"
	case PLUSEQ:
		return "'+='"
	case IDENT:
		return "identifier"
	case INCLUDE:
		return "'include'"
	case INDENT:
		return "indent"
	case NEWLINE:
		return "newline"
	case PIPE:
		return "'|'"
	case PIPE2:
		return "'||'"
	case POOL:
		return "'pool'"
	case RULE:
		return "'rule'"
	case SUBNINJA:
		return "'subninja'"
	case FOR:
		return "'for'"
	case IN:
		return "'in'"
	case END:
		return "'end'"
	case TEOF:
		return "eof"
	}
	return "unknown token"
}

// errorHint returns a human-readable hint appended to "expected X, got Y"
// messages for tokens with a non-obvious escape.
func (t Token) errorHint() string {
	switch t {
	case COLON:
		return " ($ also escapes ':')"
	default:
		return ""
	}
}

// keywords maps the reserved words recognized at statement start (all but
// "in" are recognized only there).
var keywords = map[string]Token{
	"build":    BUILD,
	"pool":     POOL,
	"rule":     RULE,
	"default":  DEFAULT,
	"include":  INCLUDE,
	"subninja": SUBNINJA,
	"for":      FOR,
	"in":       IN,
	"end":      END,
}
