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

import "strings"

// Env is a scope for variable (e.g. "$foo") lookups.
type Env interface {
	LookupVariable(name string) string
}

// fragment is one piece of a parsed EvalString: either a literal run of
// bytes or the name of a variable to substitute at evaluation time.
type fragment struct {
	text      string
	isVarRef  bool
}

// EvalString is an ordered sequence of literal and variable-reference
// fragments produced by the lexer. It is immutable after construction and
// evaluated lazily against a scope.
type EvalString struct {
	parsed []fragment
}

// Empty reports whether the EvalString has no fragments.
func (e *EvalString) Empty() bool {
	return len(e.parsed) == 0
}

// Clear resets the EvalString to empty, for reuse across parser loops.
func (e *EvalString) Clear() {
	e.parsed = e.parsed[:0]
}

// AddText appends literal text, coalescing it onto the previous fragment
// when that fragment is itself a literal run (so "$ " followed by a plain
// word, say, serializes as one bracketed run instead of two).
func (e *EvalString) AddText(text string) {
	if n := len(e.parsed); n > 0 && !e.parsed[n-1].isVarRef {
		e.parsed[n-1].text += text
		return
	}
	e.parsed = append(e.parsed, fragment{text: text})
}

// AddSpecial appends a variable-reference fragment.
func (e *EvalString) AddSpecial(name string) {
	e.parsed = append(e.parsed, fragment{text: name, isVarRef: true})
}

// Evaluate concatenates each fragment: literals verbatim, variable
// references replaced by looking up the name in env (empty if unbound).
// Evaluation is a pure function of (fragment list, scope chain) — calling
// it twice against the same env yields identical bytes.
func (e *EvalString) Evaluate(env Env) string {
	if len(e.parsed) == 1 && !e.parsed[0].isVarRef {
		return e.parsed[0].text
	}
	var b strings.Builder
	for _, f := range e.parsed {
		if f.isVarRef {
			b.WriteString(env.LookupVariable(f.text))
		} else {
			b.WriteString(f.text)
		}
	}
	return b.String()
}

// Serialize produces a human-readable representation of the parsed
// fragments, for use in tests.
func (e *EvalString) Serialize() string {
	var b strings.Builder
	for _, f := range e.parsed {
		b.WriteByte('[')
		if f.isVarRef {
			b.WriteByte('$')
		}
		b.WriteString(f.text)
		b.WriteByte(']')
	}
	return b.String()
}

// Unparse renders the EvalString with variable references left
// unexpanded, as `${name}` placeholders.
func (e *EvalString) Unparse() string {
	var b strings.Builder
	for _, f := range e.parsed {
		if f.isVarRef {
			b.WriteString("${")
			b.WriteString(f.text)
			b.WriteByte('}')
		} else {
			b.WriteString(f.text)
		}
	}
	return b.String()
}
