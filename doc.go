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

// Package foundry builds native (C, C++ and assembly) compilation units on
// behalf of a larger build tool.  For each project and requested target
// architecture it decides whether a rebuild is required, generates a ninja
// build manifest describing how sources become objects and objects become a
// deliverable, and drives ninja to perform the actual work.
//
// The embedding tool remains responsible for resolving project metadata and
// for scheduling independent projects; foundry owns the per-project decision
// protocol, the manifest contents, and the fan-out across architectures.
// Projects are handed in as resolved, read-only metadata (see
// ProjectProperties and NewDefaultProject), turned into build tasks with
// NewBuildTask, and run under a context that may carry a logger installed
// with WithLogger.
//
// Build graphs are deliberately not scheduled here.  Ninja owns file-level
// incrementality; this package only decides whether to (re)generate the
// manifest, whether stale outputs must be cleaned first, and what graph to
// hand over.
package foundry
