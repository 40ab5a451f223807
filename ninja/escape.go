// Copyright 2024 The Foundry Authors. All rights reserved.
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

package ninja

import "strings"

// Manifest text escaping. Input and output paths keep "$" untouched so that
// variable references like $project survive; only characters that would
// change how ninja tokenizes the statement are escaped.

var inputEscaper = strings.NewReplacer(
	"\n", "$\n",
	" ", "$ ")

var outputEscaper = strings.NewReplacer(
	"\n", "$\n",
	" ", "$ ",
	":", "$:")

// EscapeInputPath escapes a path for use as an input to a build statement.
func EscapeInputPath(path string) string {
	return inputEscaper.Replace(path)
}

// EscapeOutputPath escapes a path for use as an output of a build statement.
func EscapeOutputPath(path string) string {
	return outputEscaper.Replace(path)
}

var ninjaEscaper = strings.NewReplacer(
	"$", "$$")

// NinjaEscape escapes a string that may contain characters that are
// meaningful to ninja ($) so that it is used literally. It must not be
// applied to strings that reference manifest variables.
func NinjaEscape(s string) string {
	return ninjaEscaper.Replace(s)
}

// NinjaEscapeList returns a new slice with NinjaEscape applied to every
// element.
func NinjaEscapeList(slice []string) []string {
	slice = append([]string(nil), slice...)
	for i, s := range slice {
		slice[i] = NinjaEscape(s)
	}
	return slice
}
