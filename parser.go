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
	"strconv"

	"github.com/c-klapaucius/mbuild/internal/mlog"
)

// DupeEdgeAction controls what happens when two build statements produce
// the same output.
type DupeEdgeAction int

const (
	// DupeEdgeWarn logs and keeps the first edge that claimed the output.
	DupeEdgeWarn DupeEdgeAction = iota
	// DupeEdgeError turns a duplicate output into a hard parse error.
	DupeEdgeError
)

// ManifestParserOptions configures a ManifestParser's handling of
// questionable-but-recoverable manifest constructs.
type ManifestParserOptions struct {
	DupeEdgeAction DupeEdgeAction
	// Quiet suppresses the warning ManifestParser would otherwise log for
	// DupeEdgeWarn. ParseTest sets this so test output stays clean.
	Quiet bool
}

// ManifestParser turns manifest bytes into edges, pools, rules and
// defaults recorded into a State. One ManifestParser exists per file:
// subninja creates a child parser with a fresh BindingEnv scope, include
// creates one that shares the parent's scope, and both share the parent's
// State and FileReader.
type ManifestParser struct {
	state      *State
	env        *BindingEnv
	fileReader FileReader
	lexer      *Lexer
	options    ManifestParserOptions
	forLoops   []*ForLoop
}

// NewManifestParser returns a ManifestParser that will record what it
// parses into state, reading included/subninja'd files through fileReader.
func NewManifestParser(state *State, fileReader FileReader, options ManifestParserOptions) *ManifestParser {
	return &ManifestParser{
		state:      state,
		env:        state.Bindings,
		fileReader: fileReader,
		lexer:      &Lexer{},
		options:    options,
	}
}

// Load reads filename through the parser's FileReader and parses it.
// parent, if non-nil, is the including lexer, used only to position a
// read failure's error message at the include/subninja statement.
func (p *ManifestParser) Load(filename string, parent *Lexer) error {
	contents, err := p.fileReader.ReadFile(filename)
	if err != nil {
		ioErr := &IOError{Path: filename, Err: err}
		if parent != nil {
			return parent.errAt(parent.ofs, KindIO, ioErr.Error())
		}
		return ioErr
	}
	return p.Parse(filename, contents)
}

// ParseTest parses input as a standalone, filename-less manifest. It is a
// convenience for tests, matching ManifestParser::ParseTest.
func (p *ManifestParser) ParseTest(input string) error {
	p.options.Quiet = true
	return p.Parse("input", []byte(input))
}

// Parse is the top-level statement dispatch loop.
func (p *ManifestParser) Parse(filename string, input []byte) error {
	p.lexer.Start(filename, input)
	p.lexer.SetMacroLookup(p.env.LookupVariable)

	for {
		token := p.lexer.ReadToken()
		switch token {
		case POOL:
			if err := p.parsePool(); err != nil {
				return err
			}
		case BUILD:
			if err := p.parseEdge(); err != nil {
				return err
			}
		case RULE:
			if err := p.parseRule(); err != nil {
				return err
			}
		case DEFAULT:
			if err := p.parseDefault(); err != nil {
				return err
			}
		case IDENT:
			p.lexer.UnreadToken()
			name, value, pluseq, err := p.parseLet()
			if err != nil {
				return err
			}
			evaluated := value.Evaluate(p.env)
			if name == "ninja_required_version" {
				if err := CheckVersion(evaluated); err != nil {
					return err
				}
			}
			if pluseq {
				p.env.AddBinding(name, p.env.LookupVariable(name)+evaluated)
			} else {
				p.env.AddBinding(name, evaluated)
			}
		case INCLUDE:
			if err := p.parseFileInclude(false); err != nil {
				return err
			}
		case SUBNINJA:
			if err := p.parseFileInclude(true); err != nil {
				return err
			}
		case FOR:
			if err := p.parseFor(); err != nil {
				return err
			}
		case END:
			if err := p.parseEnd(); err != nil {
				return err
			}
		case NEWLINE:
			// Blank line between statements.
		case TEOF:
			return p.checkForEndExpected()
		case ERROR:
			return p.lexer.Error("unexpected character")
		default:
			return p.lexer.Error(fmt.Sprintf("unexpected %s", token))
		}
	}
}

func (p *ManifestParser) parsePool() error {
	start := p.lexer.StoreTokenPos()
	name, ok := p.lexer.ReadIdent()
	if !ok {
		return p.lexer.Error("expected pool name")
	}
	if err := p.expectToken(NEWLINE); err != nil {
		return err
	}
	if p.state.LookupPool(name) != nil {
		return p.lexer.ErrorAt(start, KindSemantic, fmt.Sprintf("duplicate pool '%s'", name))
	}

	depth := -1
	haveDepth := false
	for p.lexer.PeekToken(INDENT) {
		key, value, _, err := p.parseLetNoPlus()
		if err != nil {
			return err
		}
		if key != "depth" {
			return p.lexer.Error(fmt.Sprintf("unexpected variable '%s'", key))
		}
		depthStr := value.Evaluate(p.env)
		depth, err = strconv.Atoi(depthStr)
		if err != nil || depth < 0 {
			return p.lexer.Error("invalid pool depth")
		}
		haveDepth = true
	}
	if !haveDepth {
		return p.lexer.Error("expected 'depth =' line")
	}
	p.state.AddPool(NewPool(name, depth))
	mlog.Trace("parsed pool", map[string]any{"name": name, "depth": depth})
	return nil
}

func (p *ManifestParser) parseRule() error {
	name, ok := p.lexer.ReadIdent()
	if !ok {
		return p.lexer.Error("expected rule name")
	}
	if err := p.expectToken(NEWLINE); err != nil {
		return err
	}
	if p.env.LookupRuleCurrentScope(name) != nil {
		return p.lexer.Error(fmt.Sprintf("duplicate rule '%s'", name))
	}

	rule := NewRule(name)
	for p.lexer.PeekToken(INDENT) {
		key, value, _, err := p.parseLetNoPlus()
		if err != nil {
			return err
		}
		if !IsReservedBinding(key) {
			return p.lexer.Error(fmt.Sprintf("unexpected variable '%s'", key))
		}
		rule.AddBinding(key, value)
	}

	_, hasRspfile := rule.Bindings["rspfile"]
	_, hasRspfileContent := rule.Bindings["rspfile_content"]
	if hasRspfile != hasRspfileContent {
		return p.lexer.Error("rspfile and rspfile_content need to be both specified")
	}
	if _, ok := rule.Bindings["command"]; !ok {
		return p.lexer.Error("expected 'command =' line")
	}

	p.env.AddRule(rule)
	mlog.Trace("parsed rule", map[string]any{"name": name})
	return nil
}

// parseLet reads "name = value" or "name += value", reporting which.
func (p *ManifestParser) parseLet() (name string, value EvalString, pluseq bool, err error) {
	name, ok := p.lexer.ReadIdent()
	if !ok {
		return "", EvalString{}, false, p.lexer.Error("expected variable name")
	}
	token := p.lexer.ReadToken()
	if token != EQUALS && token != PLUSEQ {
		return "", EvalString{}, false, p.lexer.Error(
			fmt.Sprintf("expected %s or %s, got %s%s%s", EQUALS, PLUSEQ, token, EQUALS.errorHint(), PLUSEQ.errorHint()))
	}
	pluseq = token == PLUSEQ
	value, err = p.lexer.ReadEvalString(false)
	if err != nil {
		return "", EvalString{}, false, err
	}
	return name, value, pluseq, nil
}

// parseLetNoPlus reads "name = value" only, used where += makes no sense
// (pool/rule bodies bind each key exactly once).
func (p *ManifestParser) parseLetNoPlus() (name string, value EvalString, pluseq bool, err error) {
	name, ok := p.lexer.ReadIdent()
	if !ok {
		return "", EvalString{}, false, p.lexer.Error("expected variable name")
	}
	if err := p.expectToken(EQUALS); err != nil {
		return "", EvalString{}, false, err
	}
	value, err = p.lexer.ReadEvalString(false)
	if err != nil {
		return "", EvalString{}, false, err
	}
	return name, value, false, nil
}

func (p *ManifestParser) parseDefault() error {
	eval, err := p.lexer.ReadEvalString(true)
	if err != nil {
		return err
	}
	if eval.Empty() {
		return p.lexer.Error("expected target name")
	}

	for {
		path := eval.Evaluate(p.env)
		canon, slashBits, err := CanonicalizePath(path)
		if err != nil {
			return p.lexer.ErrorAt(p.lexer.StoreTokenPos(), KindSemantic, err.Error())
		}
		node := p.state.LookupNode(canon)
		if node == nil {
			return p.lexer.Error(fmt.Sprintf("unknown target '%s'", canon))
		}
		_ = slashBits
		p.state.AddDefault(node)

		eval, err = p.lexer.ReadEvalString(true)
		if err != nil {
			return err
		}
		if eval.Empty() {
			break
		}
	}
	return p.expectToken(NEWLINE)
}

func (p *ManifestParser) parseFor() error {
	var loop ForLoop
	name, ok := p.lexer.ReadIdent()
	if !ok {
		return p.lexer.Error("expected variable name")
	}
	loop.Variable = name
	if err := p.expectToken(IN); err != nil {
		return err
	}

	for {
		out, err := p.lexer.ReadEvalString(true)
		if err != nil {
			return err
		}
		if out.Empty() {
			if len(loop.Values) == 0 {
				return p.lexer.Error("expected path")
			}
			break
		}
		loop.Values = append(loop.Values, out)
	}

	loop.Index = 0
	if len(loop.Values) > 0 {
		value := loop.Values[loop.Index].Evaluate(p.env)
		loop.Index++
		p.env.AddBinding(loop.Variable, value)
		loop.BodyPos = p.lexer.StoreTokenPos()
	}
	p.forLoops = append(p.forLoops, &loop)
	return nil
}

func (p *ManifestParser) parseEnd() error {
	// Syntactic sugar: require "end for", not a bare "end". The lexer only
	// recognizes "for" as a keyword at statement start, so here it arrives
	// as an IDENT.
	pos := p.lexer.StoreTokenPos()
	if token := p.lexer.ReadToken(); token != FOR && !(token == IDENT && p.lexer.TokenText() == "for") {
		return p.lexer.ErrorAt(pos, KindSyntax,
			fmt.Sprintf("expected %s, got %s%s", FOR, token, token.errorHint()))
	}
	if len(p.forLoops) == 0 {
		return p.lexer.Error("'end for' without 'for'")
	}
	loop := p.forLoops[len(p.forLoops)-1]
	if loop.Index >= len(loop.Values) {
		p.forLoops = p.forLoops[:len(p.forLoops)-1]
		return nil
	}
	value := loop.Values[loop.Index].Evaluate(p.env)
	loop.Index++
	p.env.AddBinding(loop.Variable, value)
	p.lexer.RestoreTokenPos(loop.BodyPos)
	return nil
}

func (p *ManifestParser) checkForEndExpected() error {
	if len(p.forLoops) > 0 {
		return p.lexer.Error("'end for' expected")
	}
	return nil
}

func (p *ManifestParser) parseEdge() error {
	var outs []EvalString
	var ins []EvalString

	out, err := p.lexer.ReadEvalString(true)
	if err != nil {
		return err
	}
	if out.Empty() {
		return p.lexer.Error("expected path")
	}
	for !out.Empty() {
		outs = append(outs, out)
		out, err = p.lexer.ReadEvalString(true)
		if err != nil {
			return err
		}
	}

	implicitOuts := 0
	if p.lexer.PeekToken(PIPE) {
		for {
			out, err = p.lexer.ReadEvalString(true)
			if err != nil {
				return err
			}
			if out.Empty() {
				break
			}
			outs = append(outs, out)
			implicitOuts++
		}
	}

	if err := p.expectToken(COLON); err != nil {
		return err
	}

	ruleName, ok := p.lexer.ReadIdent()
	if !ok {
		return p.lexer.Error("expected build command name")
	}
	rule := p.env.LookupRule(ruleName)
	if rule == nil {
		return p.lexer.Error(fmt.Sprintf("unknown build rule '%s'", ruleName))
	}

	for {
		in, err := p.lexer.ReadEvalString(true)
		if err != nil {
			return err
		}
		if in.Empty() {
			break
		}
		ins = append(ins, in)
	}

	implicit := 0
	if p.lexer.PeekToken(PIPE) {
		for {
			in, err := p.lexer.ReadEvalString(true)
			if err != nil {
				return err
			}
			if in.Empty() {
				break
			}
			ins = append(ins, in)
			implicit++
		}
	}

	orderOnly := 0
	if p.lexer.PeekToken(PIPE2) {
		for {
			in, err := p.lexer.ReadEvalString(true)
			if err != nil {
				return err
			}
			if in.Empty() {
				break
			}
			ins = append(ins, in)
			orderOnly++
		}
	}

	if err := p.expectToken(NEWLINE); err != nil {
		return err
	}

	// Bindings on edges are rare: allocate a child scope only if one is
	// actually used.
	hasIndent := p.lexer.PeekToken(INDENT)
	env := p.env
	if hasIndent {
		env = NewBindingEnv(p.env)
	}
	for hasIndent {
		key, value, pluseq, err := p.parseLet()
		if err != nil {
			return err
		}
		if pluseq {
			env.AddBinding(key, env.LookupVariable(key)+value.Evaluate(p.env))
		} else {
			env.AddBinding(key, value.Evaluate(p.env))
		}
		hasIndent = p.lexer.PeekToken(INDENT)
	}

	edge := &Edge{Rule: rule, Env: env}

	poolName := env.LookupWithFallback("pool", rule.Bindings["pool"], edge.bindingEnvForEval())
	if poolName != "" {
		pool := p.state.LookupPool(poolName)
		if pool == nil {
			return p.lexer.Error(fmt.Sprintf("unknown pool name '%s'", poolName))
		}
		edge.Pool = pool
	}

	var keptOuts []*Node
	for i, o := range outs {
		path := o.Evaluate(env)
		canon, slashBits, err := CanonicalizePath(path)
		if err != nil {
			return p.lexer.ErrorAt(p.lexer.StoreTokenPos(), KindSemantic, err.Error())
		}
		if existing := p.state.LookupNode(canon); existing != nil && existing.InEdge != nil {
			if p.options.DupeEdgeAction == DupeEdgeError {
				return p.lexer.Error(fmt.Sprintf("multiple rules generate %s [-w dupbuild=err]", canon))
			}
			if !p.options.Quiet {
				mlog.Warn("multiple rules generate the same output; builds involving it will not be correct",
					map[string]any{"path": canon})
			}
			if len(outs)-i <= implicitOuts {
				implicitOuts--
			}
			continue
		}
		node := p.state.GetNode(canon, slashBits)
		keptOuts = append(keptOuts, node)
	}
	if len(keptOuts) == 0 {
		// Every output is already produced by another edge: drop this edge
		// entirely, the way a later identical "build" line is ignored.
		return nil
	}
	edge.Outs = keptOuts
	edge.ImplicitOuts = implicitOuts

	for _, in := range ins {
		path := in.Evaluate(env)
		canon, slashBits, err := CanonicalizePath(path)
		if err != nil {
			return p.lexer.ErrorAt(p.lexer.StoreTokenPos(), KindSemantic, err.Error())
		}
		edge.Ins = append(edge.Ins, p.state.GetNode(canon, slashBits))
	}
	edge.ImplicitDeps = implicit
	edge.OrderOnlyDeps = orderOnly

	depsType := env.LookupWithFallback("deps", rule.Bindings["deps"], edge.bindingEnvForEval())
	if depsType != "" && len(edge.Outputs()) > 1 {
		return p.lexer.Error("multiple outputs aren't supported alongside 'deps'")
	}

	p.state.AddEdge(edge)
	mlog.Trace("parsed edge", map[string]any{
		"rule":    rule.Name,
		"outputs": len(edge.Outs),
		"inputs":  len(edge.Ins),
	})
	return nil
}

// bindingEnvForEval returns the Env a rule binding should be evaluated
// against: the edge itself, so that a rule body like
// "command = $cxx $in -o $out" sees the edge's synthesized $in/$out as
// well as its scope's user bindings.
func (e *Edge) bindingEnvForEval() Env {
	return e
}

func (p *ManifestParser) parseFileInclude(newScope bool) error {
	eval, err := p.lexer.ReadEvalString(true)
	if err != nil {
		return err
	}
	path := eval.Evaluate(p.env)

	sub := NewManifestParser(p.state, p.fileReader, p.options)
	if newScope {
		sub.env = NewBindingEnv(p.env)
	} else {
		sub.env = p.env
	}
	if err := sub.Load(path, p.lexer); err != nil {
		return err
	}

	return p.expectToken(NEWLINE)
}

func (p *ManifestParser) expectToken(expected Token) error {
	pos := p.lexer.StoreTokenPos()
	token := p.lexer.ReadToken()
	if token != expected {
		return p.lexer.ErrorAt(pos, KindSyntax,
			fmt.Sprintf("expected %s, got %s%s", expected, token, token.errorHint()))
	}
	return nil
}
