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

// maxPathComponents bounds how many separator-delimited components a path
// may have; CanonicalizePath refuses to canonicalize anything deeper, since
// the slash-bits bitmap can only record that many backslash positions.
const maxPathComponents = 60

func isPathSeparator(c byte) bool {
	return c == '/' || c == '\\'
}

// CanonicalizePath normalizes a path like "foo/../bar.h" into "bar.h":
// repeated separators collapse, "." components are dropped, and ".."
// components pop the preceding component (without escaping the root). It
// returns the normalized path and a bitmap whose bit i is set when the i'th
// separator in the result was originally a backslash.
//
// An empty path is an error. A path with more than maxPathComponents
// separator-delimited components is rejected as too complex.
func CanonicalizePath(path string) (string, uint64, error) {
	if len(path) == 0 {
		return "", 0, newParseError(KindSemantic, "empty path")
	}

	var components [maxPathComponents]int // start offsets into dst, one per kept component
	componentCount := 0

	dst := make([]byte, 0, len(path))
	src := 0
	n := len(path)

	if isPathSeparator(path[src]) {
		// Network path starting with "//": both leading separators are kept,
		// unlike repeated separators anywhere else, which collapse to one.
		if src+1 < n && isPathSeparator(path[src+1]) {
			dst = append(dst, path[src], path[src+1])
			src += 2
		} else {
			dst = append(dst, path[src])
			src++
		}
	}

	for src < n {
		if path[src] == '.' {
			if src+1 == n || isPathSeparator(path[src+1]) {
				// "." component: eliminate.
				src += 2
				continue
			}
			if src+1 < n && path[src+1] == '.' && (src+2 == n || isPathSeparator(path[src+2])) {
				// ".." component: back up if possible.
				if componentCount > 0 {
					componentCount--
					dst = dst[:components[componentCount]]
					src += 3
				} else {
					// Nothing recorded to pop: back up isn't possible without
					// escaping whatever root the caller has in mind, so the
					// ".." is kept as a literal component instead.
					dst = append(dst, path[src], path[src+1])
					if src+2 < n {
						dst = append(dst, path[src+2])
					}
					src += 3
				}
				continue
			}
		}

		if isPathSeparator(path[src]) {
			src++
			continue
		}

		if componentCount == maxPathComponents {
			return "", 0, newParseError(KindSemantic, "path has too many components: "+path)
		}
		components[componentCount] = len(dst)
		componentCount++

		for src < n && !isPathSeparator(path[src]) {
			dst = append(dst, path[src])
			src++
		}
		if src < n {
			dst = append(dst, path[src]) // copy the separator itself
			src++
		}
	}

	if len(dst) == 0 {
		return ".", 0, nil
	}
	// Trim a trailing separator left by the component-copy loop above.
	if isPathSeparator(dst[len(dst)-1]) {
		dst = dst[:len(dst)-1]
	}

	var bits uint64
	var bitMask uint64 = 1
	for i, c := range dst {
		switch c {
		case '\\':
			bits |= bitMask
			dst[i] = '/'
			fallthrough
		case '/':
			bitMask <<= 1
		}
	}

	return string(dst), bits, nil
}
