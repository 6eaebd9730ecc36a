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

import "testing"

func TestCanonicalizePath_Samples(t *testing.T) {
	cases := []struct{ in, want string }{
		{"foo.h", "foo.h"},
		{"./foo.h", "foo.h"},
		{"./foo/./bar.h", "foo/bar.h"},
		{"./x/foo/../bar.h", "x/bar.h"},
		{"./x/foo/../../bar.h", "bar.h"},
		{"foo//bar", "foo/bar"},
		{"foo/.", "foo"},
		{"..", ".."},
		{"../foo.h", "../foo.h"},
	}
	for _, c := range cases {
		got, _, err := CanonicalizePath(c.in)
		if err != nil {
			t.Errorf("CanonicalizePath(%q) error: %v", c.in, err)
			continue
		}
		if got != c.want {
			t.Errorf("CanonicalizePath(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestCanonicalizePath_EmptyIsError(t *testing.T) {
	if _, _, err := CanonicalizePath(""); err == nil {
		t.Fatal("CanonicalizePath(\"\") should error")
	}
}

func TestCanonicalizePath_SlashBits(t *testing.T) {
	got, bits, err := CanonicalizePath(`foo\bar\baz.h`)
	if err != nil {
		t.Fatal(err)
	}
	if want := "foo/bar/baz.h"; got != want {
		t.Fatalf("CanonicalizePath() = %q, want %q", got, want)
	}
	// Both separators in the result were backslashes in the input.
	if want := uint64(0b11); bits != want {
		t.Errorf("slash bits = %b, want %b", bits, want)
	}
}

func TestCanonicalizePath_TooManyComponents(t *testing.T) {
	path := ""
	for i := 0; i < maxPathComponents+1; i++ {
		path += "a/"
	}
	path += "b.h"
	if _, _, err := CanonicalizePath(path); err == nil {
		t.Fatal("expected an error for a path with too many components")
	}
}
