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

// Dependency is anything a project builds against.  Concrete dependencies
// advertise what they contribute through the optional provider interfaces;
// a dependency implementing neither contributes nothing.
type Dependency interface {
	Name() string
}

// IncludeDirProvider is implemented by dependencies that contribute header
// directories to their dependents' compile statements.
type IncludeDirProvider interface {
	// IncludeDirs returns absolute header directories.
	IncludeDirs() []string
}

// LibProvider is implemented by dependencies that contribute libraries to
// their dependents' link statements.
type LibProvider interface {
	// Libs returns absolute library paths.
	Libs() []string
}

// RuleSet locates the executor rule definitions a project compiles with.
// The rule file must define the cc, cxx, asm, ar, link and linkxx rules,
// plus cpp when assembly requires preprocessing.
type RuleSet interface {
	// RuleFile returns the path of the rule file to include.
	RuleFile() string
	// AsmRequiresPreprocess reports whether assembly sources must run
	// through the cpp rule before the asm rule.
	AsmRequiresPreprocess() bool
}

// Project is a buildable unit with a single deliverable.
type Project interface {
	// Name identifies the project in logs and errors.
	Name() string
	// OutDir is the root under which per-architecture build directories
	// are created.
	OutDir() string
	// TargetArchs lists the architectures the project builds for when
	// multiarch builds are enabled.  Empty means host only.
	TargetArchs() []string
	// Deliverable is the file name of the project's artifact within an
	// architecture build directory.
	Deliverable() string
	// GenerateManifest renders the build manifest for a build directory.
	// The output is deterministic: identical inputs yield identical bytes.
	GenerateManifest(outputDir string) ([]byte, error)
}

func dependencyIncludeDirs(deps []Dependency) []string {
	var dirs []string
	for _, dep := range deps {
		if p, ok := dep.(IncludeDirProvider); ok {
			dirs = append(dirs, p.IncludeDirs()...)
		}
	}
	return dirs
}

func dependencyLibs(deps []Dependency) []string {
	var libs []string
	for _, dep := range deps {
		if p, ok := dep.(LibProvider); ok {
			libs = append(libs, p.Libs()...)
		}
	}
	return libs
}
