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
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestManifestParser_SimpleRuleAndEdge(t *testing.T) {
	state := NewState()
	p := NewManifestParser(state, MapFileReader{}, ManifestParserOptions{})
	input := "rule cc\n  command = gcc $in -o $out\nbuild out.o: cc in.c\n"
	if err := p.ParseTest(input); err != nil {
		t.Fatalf("ParseTest: %v", err)
	}

	if got := len(state.Edges); got != 1 {
		t.Fatalf("len(Edges) = %d, want 1", got)
	}
	edge := state.Edges[0]
	if edge.Rule.Name != "cc" {
		t.Fatalf("edge.Rule.Name = %q, want %q", edge.Rule.Name, "cc")
	}

	outs := edge.Outputs()
	if len(outs) != 1 || outs[0].Path != "out.o" {
		t.Fatalf("Outputs() = %v, want [out.o]", outs)
	}
	ins := edge.Inputs()
	if len(ins) != 1 || ins[0].Path != "in.c" {
		t.Fatalf("Inputs() = %v, want [in.c]", ins)
	}
	if edge.ImplicitDeps != 0 || edge.OrderOnlyDeps != 0 || edge.ImplicitOuts != 0 {
		t.Fatalf("ImplicitDeps=%d OrderOnlyDeps=%d ImplicitOuts=%d, want all 0",
			edge.ImplicitDeps, edge.OrderOnlyDeps, edge.ImplicitOuts)
	}

	if got, want := edge.EvaluateCommand(), "gcc in.c -o out.o"; got != want {
		t.Fatalf("EvaluateCommand() = %q, want %q", got, want)
	}
}

func TestManifestParser_DuplicatePoolIsError(t *testing.T) {
	state := NewState()
	p := NewManifestParser(state, MapFileReader{}, ManifestParserOptions{})
	input := "pool link\n  depth = 2\npool link\n  depth = 4\n"
	err := p.ParseTest(input)
	if err == nil {
		t.Fatal("expected an error for a duplicate pool declaration")
	}
	pe, ok := err.(*ParseError)
	if !ok {
		t.Fatalf("err = %T, want *ParseError", err)
	}
	if pe.Kind != KindSemantic {
		t.Fatalf("pe.Kind = %v, want KindSemantic", pe.Kind)
	}
}

func TestManifestParser_PoolDepthRecorded(t *testing.T) {
	state := NewState()
	p := NewManifestParser(state, MapFileReader{}, ManifestParserOptions{})
	if err := p.ParseTest("pool link\n  depth = 2\n"); err != nil {
		t.Fatalf("ParseTest: %v", err)
	}
	pool := state.LookupPool("link")
	if pool == nil {
		t.Fatal("pool 'link' not registered")
	}
	if pool.Depth != 2 {
		t.Fatalf("pool.Depth = %d, want 2", pool.Depth)
	}
}

func TestManifestParser_NegativePoolDepthIsError(t *testing.T) {
	state := NewState()
	p := NewManifestParser(state, MapFileReader{}, ManifestParserOptions{})
	if err := p.ParseTest("pool link\n  depth = -1\n"); err == nil {
		t.Fatal("expected an error for a negative pool depth")
	}
}

func TestManifestParser_PlusEqAppendsAndExpands(t *testing.T) {
	state := NewState()
	p := NewManifestParser(state, MapFileReader{}, ManifestParserOptions{})
	input := "x = a\nx += b\ny = $x$x\n"
	if err := p.ParseTest(input); err != nil {
		t.Fatalf("ParseTest: %v", err)
	}
	if got, want := state.Bindings.LookupVariable("x"), "ab"; got != want {
		t.Fatalf("x = %q, want %q", got, want)
	}
	if got, want := state.Bindings.LookupVariable("y"), "abab"; got != want {
		t.Fatalf("y = %q, want %q", got, want)
	}
}

func TestManifestParser_ForLoopGeneratesEdgesInOrder(t *testing.T) {
	state := NewState()
	p := NewManifestParser(state, MapFileReader{}, ManifestParserOptions{})
	input := "rule cc\n  command = gcc $in -o $out\n" +
		"for n in a b c\nbuild $n.o: cc $n.c\nend for\n"
	if err := p.ParseTest(input); err != nil {
		t.Fatalf("ParseTest: %v", err)
	}
	if got := len(state.Edges); got != 3 {
		t.Fatalf("len(Edges) = %d, want 3", got)
	}
	var gotOuts []string
	for _, edge := range state.Edges {
		gotOuts = append(gotOuts, edge.Outputs()[0].Path)
	}
	wantOuts := []string{"a.o", "b.o", "c.o"}
	if diff := cmp.Diff(wantOuts, gotOuts); diff != "" {
		t.Fatalf("for-loop output order mismatch (-want +got):\n%s", diff)
	}
}

func TestManifestParser_OrderOnlyEmptyListWithoutNewlineIsSyntaxError(t *testing.T) {
	state := NewState()
	p := NewManifestParser(state, MapFileReader{}, ManifestParserOptions{})
	if err := p.ParseTest("rule cc\n  command = cc $in\nbuild a: cc x\n  ||"); err == nil {
		t.Fatal("expected an error when '||' is followed by EOF with no newline")
	}
}

func TestManifestParser_OrderOnlyEmptyListWithNewlineIsFine(t *testing.T) {
	state := NewState()
	p := NewManifestParser(state, MapFileReader{}, ManifestParserOptions{})
	if err := p.ParseTest("rule cc\n  command = cc $in\nbuild a: cc x ||\n"); err != nil {
		t.Fatalf("ParseTest: %v", err)
	}
	edge := state.Edges[0]
	if edge.OrderOnlyDeps != 0 {
		t.Fatalf("OrderOnlyDeps = %d, want 0", edge.OrderOnlyDeps)
	}
}

func TestManifestParser_ImplicitAndOrderOnlyCounts(t *testing.T) {
	state := NewState()
	p := NewManifestParser(state, MapFileReader{}, ManifestParserOptions{})
	input := "rule cc\n  command = cc $in -o $out\nbuild out: cc a | b || c\n"
	if err := p.ParseTest(input); err != nil {
		t.Fatalf("ParseTest: %v", err)
	}
	edge := state.Edges[0]
	var paths []string
	for _, n := range edge.Ins {
		paths = append(paths, n.Path)
	}
	wantPaths := []string{"a", "b", "c"}
	if diff := cmp.Diff(wantPaths, paths); diff != "" {
		t.Fatalf("edge.Ins paths mismatch (-want +got):\n%s", diff)
	}
	if edge.ImplicitDeps != 1 {
		t.Fatalf("ImplicitDeps = %d, want 1", edge.ImplicitDeps)
	}
	if edge.OrderOnlyDeps != 1 {
		t.Fatalf("OrderOnlyDeps = %d, want 1", edge.OrderOnlyDeps)
	}
	explicit := edge.Inputs()
	if len(explicit) != 1 || explicit[0].Path != "a" {
		t.Fatalf("Inputs() = %v, want [a]", explicit)
	}
}

func TestManifestParser_IncludeSharesScope(t *testing.T) {
	state := NewState()
	reader := MapFileReader{"included.mbuild": []byte("x = fromchild\n")}
	p := NewManifestParser(state, reader, ManifestParserOptions{})
	if err := p.ParseTest("include included.mbuild\n"); err != nil {
		t.Fatalf("ParseTest: %v", err)
	}
	if got, want := state.Bindings.LookupVariable("x"), "fromchild"; got != want {
		t.Fatalf("x = %q, want %q", got, want)
	}
}

func TestManifestParser_SubninjaGetsFreshScope(t *testing.T) {
	state := NewState()
	reader := MapFileReader{"sub.mbuild": []byte("x = fromsub\n")}
	p := NewManifestParser(state, reader, ManifestParserOptions{})
	if err := p.ParseTest("x = top\nsubninja sub.mbuild\n"); err != nil {
		t.Fatalf("ParseTest: %v", err)
	}
	if got, want := state.Bindings.LookupVariable("x"), "top"; got != want {
		t.Fatalf("x = %q, want %q (subninja must not leak bindings into the parent scope)", got, want)
	}
}

func TestManifestParser_UnknownDefaultTargetIsError(t *testing.T) {
	state := NewState()
	p := NewManifestParser(state, MapFileReader{}, ManifestParserOptions{})
	if err := p.ParseTest("default nope.txt\n"); err == nil {
		t.Fatal("expected an error for a default target that no edge produces")
	}
}

func TestManifestParser_DefaultTargetsRecorded(t *testing.T) {
	state := NewState()
	p := NewManifestParser(state, MapFileReader{}, ManifestParserOptions{})
	input := "rule cc\n  command = cc $in -o $out\nbuild out.o: cc in.c\ndefault out.o\n"
	if err := p.ParseTest(input); err != nil {
		t.Fatalf("ParseTest: %v", err)
	}
	if len(state.Defaults) != 1 || state.Defaults[0].Path != "out.o" {
		t.Fatalf("Defaults = %v, want [out.o]", state.Defaults)
	}
}

func TestManifestParser_DuplicateOutputWarnsAndKeepsFirst(t *testing.T) {
	state := NewState()
	p := NewManifestParser(state, MapFileReader{}, ManifestParserOptions{})
	input := "rule cc\n  command = cc $in -o $out\nbuild out.o: cc a.c\nbuild out.o: cc b.c\n"
	if err := p.ParseTest(input); err != nil {
		t.Fatalf("ParseTest: %v", err)
	}
	if got := len(state.Edges); got != 1 {
		t.Fatalf("len(Edges) = %d, want 1 (second edge dropped as a dupe)", got)
	}
	if got := state.Edges[0].Inputs()[0].Path; got != "a.c" {
		t.Fatalf("surviving edge input = %q, want %q", got, "a.c")
	}
}

func TestManifestParser_DuplicateOutputErrorsWhenConfigured(t *testing.T) {
	state := NewState()
	p := NewManifestParser(state, MapFileReader{}, ManifestParserOptions{DupeEdgeAction: DupeEdgeError})
	input := "rule cc\n  command = cc $in -o $out\nbuild out.o: cc a.c\nbuild out.o: cc b.c\n"
	if err := p.ParseTest(input); err == nil {
		t.Fatal("expected an error for a duplicate output under DupeEdgeError")
	}
}

func TestManifestParser_UnknownRuleIsError(t *testing.T) {
	state := NewState()
	p := NewManifestParser(state, MapFileReader{}, ManifestParserOptions{})
	if err := p.ParseTest("build out.o: nosuchrule in.c\n"); err == nil {
		t.Fatal("expected an error for an undeclared rule")
	}
}

func TestManifestParser_NewerMajorVersionIsFatal(t *testing.T) {
	state := NewState()
	p := NewManifestParser(state, MapFileReader{}, ManifestParserOptions{})
	if err := p.ParseTest("ninja_required_version = 99.0\n"); err == nil {
		t.Fatal("expected an error for a required version far newer than current")
	}
}

func TestManifestParser_EdgeScopedBindingOverridesRule(t *testing.T) {
	state := NewState()
	p := NewManifestParser(state, MapFileReader{}, ManifestParserOptions{})
	input := "rule cc\n  command = $flags $in -o $out\nbuild out.o: cc in.c\n  flags = -O2\n"
	if err := p.ParseTest(input); err != nil {
		t.Fatalf("ParseTest: %v", err)
	}
	if got, want := state.Edges[0].EvaluateCommand(), "-O2 in.c -o out.o"; got != want {
		t.Fatalf("EvaluateCommand() = %q, want %q", got, want)
	}
}
