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

package foundry

import (
	"fmt"
	"strings"
)

// MissingToolchainError reports a requested architecture that cannot be
// built on this host.
type MissingToolchainError struct {
	Project string
	Arch    string
}

func (e *MissingToolchainError) Error() string {
	return fmt.Sprintf("%s: missing toolchain for %s", e.Project, e.Arch)
}

// UnsupportedSourceError reports source files whose extensions have no
// compile rule.
type UnsupportedSourceError struct {
	Project    string
	Extensions []string
}

func (e *UnsupportedSourceError) Error() string {
	return fmt.Sprintf("%s: %s source files are not supported",
		e.Project, strings.Join(e.Extensions, ", "))
}

// InvalidLayoutError reports a project directory that does not follow the
// expected layout.
type InvalidLayoutError struct {
	Project string
	Dir     string
	Reason  string
}

func (e *InvalidLayoutError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Project, e.Dir, e.Reason)
}

// ManifestError reports a failure to generate or replace a build manifest.
type ManifestError struct {
	Project string
	Err     error
}

func (e *ManifestError) Error() string {
	return fmt.Sprintf("%s: build manifest: %v", e.Project, e.Err)
}

func (e *ManifestError) Unwrap() error {
	return e.Err
}

// BuildError reports an executor invocation that failed.  Output holds the
// captured process output when it was not already streamed.
type BuildError struct {
	Task   string
	Output string
	Err    error
}

func (e *BuildError) Error() string {
	if e.Output != "" {
		return fmt.Sprintf("%s: %v\n%s", e.Task, e.Err, e.Output)
	}
	return fmt.Sprintf("%s: %v", e.Task, e.Err)
}

func (e *BuildError) Unwrap() error {
	return e.Err
}
