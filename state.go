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

// DefaultPoolName and ConsolePoolName are the two pools that exist without
// a pool statement: the implicit unbounded pool, and the console pool
// edges may opt into with "pool = console".
const (
	DefaultPoolName = ""
	ConsolePoolName = "console"
)

// Node is a path known to the graph, canonicalized once on first reference
// so that "foo/../bar.h" and "bar.h" name the same Node.
type Node struct {
	Path      string
	SlashBits uint64

	InEdge  *Edge
	OutEdges []*Edge
}

// Edge is one build statement: a rule applied to a set of inputs producing
// a set of outputs, plus the edge's own scope for rule-binding expansion.
type Edge struct {
	Rule    *Rule
	Pool    *Pool
	Outs    []*Node
	Ins     []*Node
	ImplicitDeps  int // count of the Ins (after the explicit ones) that are implicit ("|"-separated)
	OrderOnlyDeps int // count of the trailing Ins that are order-only ("||"-separated)
	ImplicitOuts  int // count of the trailing Outs that are implicit ("|"-separated)
	Env     *BindingEnv
}

// LookupVariable implements Env for an edge: $in, $in_newline and $out are
// synthesized from the edge's own input/output lists (space- or
// newline-joined explicit paths); every other name falls back to the
// edge's scope.
func (e *Edge) LookupVariable(name string) string {
	switch name {
	case "in":
		return joinNodePaths(e.Inputs(), " ")
	case "in_newline":
		return joinNodePaths(e.Inputs(), "\n")
	case "out":
		return joinNodePaths(e.Outputs(), " ")
	default:
		return e.Env.LookupVariable(name)
	}
}

func joinNodePaths(nodes []*Node, sep string) string {
	switch len(nodes) {
	case 0:
		return ""
	case 1:
		return nodes[0].Path
	}
	var b strings.Builder
	for i, n := range nodes {
		if i > 0 {
			b.WriteString(sep)
		}
		b.WriteString(n.Path)
	}
	return b.String()
}

// Binding evaluates name the same three-tier way a rule's own command
// template would: the edge's scope first, then the rule's binding (if any)
// evaluated against the edge itself (so $in/$out resolve), then the
// enclosing scope.
func (e *Edge) Binding(name string) string {
	return e.Env.LookupWithFallback(name, e.Rule.Bindings[name], e)
}

// EvaluateCommand evaluates the rule's command template against this
// edge, substituting $in and $out.
func (e *Edge) EvaluateCommand() string {
	return e.Binding("command")
}

// Inputs returns the edge's explicit (non-implicit, non-order-only) inputs.
func (e *Edge) Inputs() []*Node {
	return e.Ins[:len(e.Ins)-e.OrderOnlyDeps-e.ImplicitDeps]
}

// Outputs returns the edge's explicit (non-implicit) outputs.
func (e *Edge) Outputs() []*Node {
	return e.Outs[:len(e.Outs)-e.ImplicitOuts]
}

// State is the result of parsing one manifest (and everything it
// includes/subninjas): every pool, edge and default target seen, plus the
// interned Node for every path referenced, and the root binding scope.
type State struct {
	paths    map[string]*Node
	Pools    map[string]*Pool
	Edges    []*Edge
	Bindings *BindingEnv
	Defaults []*Node
}

// NewState returns an empty State with its root binding scope and the
// built-in console pool registered. The default pool is not registered: an
// edge in it has a nil Pool.
func NewState() *State {
	s := &State{
		paths:    map[string]*Node{},
		Pools:    map[string]*Pool{},
		Bindings: NewBindingEnv(nil),
		Defaults: nil,
	}
	s.Pools[ConsolePoolName] = NewPool(ConsolePoolName, 1)
	return s
}

// AddPool registers pool, returning false if the name is already taken.
func (s *State) AddPool(pool *Pool) bool {
	if _, ok := s.Pools[pool.Name]; ok {
		return false
	}
	s.Pools[pool.Name] = pool
	return true
}

// LookupPool returns the named pool, or nil if it was never declared.
func (s *State) LookupPool(name string) *Pool {
	return s.Pools[name]
}

// GetNode interns and returns the Node for a canonicalized path, creating
// it on first reference.
func (s *State) GetNode(path string, slashBits uint64) *Node {
	if n, ok := s.paths[path]; ok {
		return n
	}
	n := &Node{Path: path, SlashBits: slashBits}
	s.paths[path] = n
	return n
}

// LookupNode returns the Node for path if one has already been interned.
func (s *State) LookupNode(path string) *Node {
	return s.paths[path]
}

// AddEdge appends a freshly built edge to the graph, wiring each output's
// InEdge and each input's OutEdges back-pointer.
func (s *State) AddEdge(edge *Edge) {
	s.Edges = append(s.Edges, edge)
	for _, out := range edge.Outs {
		out.InEdge = edge
	}
	for _, in := range edge.Ins {
		in.OutEdges = append(in.OutEdges, edge)
	}
}

// AddDefault records target as a default build target, resolving it
// through GetNode-interned Nodes only (it must already have been
// referenced by some edge).
func (s *State) AddDefault(target *Node) {
	s.Defaults = append(s.Defaults, target)
}

// RootNodes returns every explicit edge output that no edge consumes as an
// input, in edge order — the targets ninja would build if nothing else were
// requested.
func (s *State) RootNodes() []*Node {
	var roots []*Node
	for _, e := range s.Edges {
		for _, out := range e.Outputs() {
			if len(out.OutEdges) == 0 {
				roots = append(roots, out)
			}
		}
	}
	return roots
}

// DefaultNodes returns the manifest's declared default targets, or
// RootNodes if none were declared.
func (s *State) DefaultNodes() []*Node {
	if len(s.Defaults) > 0 {
		return s.Defaults
	}
	return s.RootNodes()
}

// ForLoop is one active "for NAME in VALUES" frame: the loop variable, the
// remaining iteration values (kept unevaluated, like any other binding
// right-hand side, and evaluated against the enclosing scope once per
// iteration), and the lexer position to rewind to for each pass over the
// body.
type ForLoop struct {
	Variable string
	Values   []EvalString
	Index    int
	BodyPos  LexerPos
}
