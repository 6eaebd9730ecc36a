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

// reservedRuleBindings are the only keys a rule body is allowed to bind.
var reservedRuleBindings = map[string]bool{
	"command":           true,
	"description":       true,
	"depfile":           true,
	"deps":              true,
	"msvc_deps_prefix":  true,
	"generator":         true,
	"pool":              true,
	"restat":            true,
	"rspfile":           true,
	"rspfile_content":   true,
}

// IsReservedBinding reports whether name is a binding a rule body may set.
func IsReservedBinding(name string) bool {
	return reservedRuleBindings[name]
}

// Rule is a reusable command template with reserved bindings. Its bindings
// are stored as unevaluated EvalStrings: they are evaluated later, per
// edge, against the edge's scope (see BindingEnv.LookupWithFallback).
type Rule struct {
	Name     string
	Bindings map[string]*EvalString
}

// NewRule returns an empty Rule with the given name.
func NewRule(name string) *Rule {
	return &Rule{Name: name, Bindings: map[string]*EvalString{}}
}

// AddBinding records value for key. The caller is responsible for checking
// IsReservedBinding first.
func (r *Rule) AddBinding(key string, value EvalString) {
	r.Bindings[key] = &value
}

// BindingEnv is a tree of scopes. Each holds variable-name → string and
// rule-name → Rule maps, with an optional parent for lookup.
type BindingEnv struct {
	Bindings map[string]string
	Rules    map[string]*Rule
	Parent   *BindingEnv
}

// NewBindingEnv returns a fresh scope chained to parent (nil for a root
// scope).
func NewBindingEnv(parent *BindingEnv) *BindingEnv {
	return &BindingEnv{
		Bindings: map[string]string{},
		Rules:    map[string]*Rule{},
		Parent:   parent,
	}
}

// LookupVariable walks the parent chain, returning "" if name is unbound
// anywhere in the chain.
func (b *BindingEnv) LookupVariable(name string) string {
	if v, ok := b.Bindings[name]; ok {
		return v
	}
	if b.Parent != nil {
		return b.Parent.LookupVariable(name)
	}
	return ""
}

// AddBinding sets name to value in this scope.
func (b *BindingEnv) AddBinding(name, value string) {
	b.Bindings[name] = value
}

// LookupRuleCurrentScope looks up name in this scope only, used to detect
// duplicate rule definitions.
func (b *BindingEnv) LookupRuleCurrentScope(name string) *Rule {
	return b.Rules[name]
}

// LookupRule walks to the root, used at edge resolution.
func (b *BindingEnv) LookupRule(name string) *Rule {
	if r, ok := b.Rules[name]; ok {
		return r
	}
	if b.Parent != nil {
		return b.Parent.LookupRule(name)
	}
	return nil
}

// AddRule registers rule in this scope.
func (b *BindingEnv) AddRule(rule *Rule) {
	b.Rules[rule.Name] = rule
}

// LookupWithFallback implements the three-tier rule-binding expansion
// order described in spec.md §4.3:
//  1. value set on this scope (the edge's own scope);
//  2. eval, evaluated against env (typically the edge's scope, so that
//     rule bodies can reference $in/$out/user bindings set on the edge);
//  3. otherwise walk to the parent scope.
func (b *BindingEnv) LookupWithFallback(name string, eval *EvalString, env Env) string {
	if v, ok := b.Bindings[name]; ok {
		return v
	}
	if eval != nil {
		return eval.Evaluate(env)
	}
	if b.Parent != nil {
		return b.Parent.LookupVariable(name)
	}
	return ""
}

// Pool is a named concurrency-slot bucket. Depth is a non-negative
// concurrency-slot count (0 means unlimited); it is the core's job only to
// record it, not to schedule against it.
type Pool struct {
	Name  string
	Depth int
}

// NewPool returns a Pool with the given name and depth.
func NewPool(name string, depth int) *Pool {
	return &Pool{Name: name, Depth: depth}
}
