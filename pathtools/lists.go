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

package pathtools

import (
	"strings"
)

// ReplaceExtension replaces the extension of path with extension, or appends
// it if path's last element has none.
func ReplaceExtension(path string, extension string) string {
	dot := strings.LastIndex(path, ".")
	if dot < strings.LastIndex(path, "/") {
		dot = -1
	}
	if dot == -1 {
		return path + "." + extension
	}
	return path[:dot+1] + extension
}

// FirstUniquePaths returns each path of paths once, keeping the first
// occurrence and preserving order.
func FirstUniquePaths(paths []string) []string {
	seen := make(map[string]bool, len(paths))
	result := make([]string, 0, len(paths))
	for _, path := range paths {
		if seen[path] {
			continue
		}
		seen[path] = true
		result = append(result, path)
	}
	return result
}
