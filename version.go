// Copyright 2013 Google Inc. All Rights Reserved.
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
	"strings"

	"github.com/c-klapaucius/mbuild/internal/mlog"
)

// CurrentVersion is the version this implementation claims compatibility
// with, compared against a manifest's "ninja_required_version" binding.
const CurrentVersion = "1.10.2"

// ParseVersion splits the major/minor components of a "MAJOR.MINOR[.PATCH]"
// version string. Non-numeric trailing noise is ignored.
func ParseVersion(version string) (major, minor int) {
	parts := strings.SplitN(version, ".", 3)
	major = parseLeadingDigits(parts[0])
	if len(parts) > 1 {
		minor = parseLeadingDigits(parts[1])
	}
	return major, minor
}

func parseLeadingDigits(s string) int {
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	n, _ := strconv.Atoi(s[:i])
	return n
}

// CheckVersion compares required against CurrentVersion. A required major
// version newer than CurrentVersion's is fatal (a KindVersion error); a
// required minor newer than CurrentVersion's, within the same major, only
// warns through mlog and returns nil — spec.md §4.6 treats that as a
// non-fatal heads-up, not a hard incompatibility.
func CheckVersion(required string) error {
	curMajor, curMinor := ParseVersion(CurrentVersion)
	reqMajor, reqMinor := ParseVersion(required)
	if reqMajor > curMajor {
		return newParseError(KindVersion, fmt.Sprintf(
			"version (%s) incompatible with build file ninja_required_version version (%s)",
			CurrentVersion, required))
	}
	if reqMajor == curMajor && reqMinor > curMinor {
		mlog.Warn("manifest requests a newer minor version than this implements", map[string]any{
			"current":  CurrentVersion,
			"required": required,
		})
	}
	return nil
}
