// Copyright 2024 The qpmodel Authors
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

package types

import "regexp"

// Like implements SQL wildcard matching: % matches any run of
// characters (including none), _ matches exactly one.
func Like(s, pattern string) bool {
	re := likeToRegexp(pattern)
	return re.MatchString(s)
}

func likeToRegexp(pattern string) *regexp.Regexp {
	var b []byte
	b = append(b, '^')
	for _, r := range pattern {
		switch r {
		case '%':
			b = append(b, '.', '*')
		case '_':
			b = append(b, '.')
		default:
			b = append(b, []byte(regexp.QuoteMeta(string(r)))...)
		}
	}
	b = append(b, '$')
	return regexp.MustCompile(string(b))
}
