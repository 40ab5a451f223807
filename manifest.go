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
	"bytes"
	"path/filepath"
	"slices"
	"strings"

	"github.com/foundrybuild/foundry/ninja"
	"github.com/foundrybuild/foundry/pathtools"
)

// supportedSourceExtensions are the extensions a default-layout project
// compiles or tolerates.  Editor swap files are ignored rather than
// rejected.
var supportedSourceExtensions = []string{".h", ".c", ".cc", ".S", ".swp"}

// GenerateManifest renders the build manifest for a build directory.  The
// output depends only on the project properties, the source tree and the
// resolved JDK, so regenerating for unchanged inputs reproduces the
// previous manifest byte for byte.
func (p *DefaultProject) GenerateManifest(outputDir string) ([]byte, error) {
	src, err := p.sources()
	if err != nil {
		return nil, &ManifestError{Project: p.name, Err: err}
	}

	if exts := unsupportedExtensions(src.byExt); len(exts) > 0 {
		return nil, &UnsupportedSourceError{Project: p.name, Extensions: exts}
	}

	var jdk JDK
	if p.JDKDependent() {
		jdk, err = resolveJDK()
		if err != nil {
			return nil, &ManifestError{Project: p.name, Err: err}
		}
	}
	deps := p.deps
	if p.useJDKHeaders {
		deps = append(slices.Clone(deps), jdkHeaders{jdk})
	}

	projectDir, err := filepath.Rel(outputDir, p.dir)
	if err != nil {
		return nil, &ManifestError{Project: p.name, Err: err}
	}

	var buf bytes.Buffer
	gen := &manifestGenerator{project: p, w: ninja.NewWriter(&buf)}

	gen.comment("Generated by foundry. Do not edit.")
	gen.newline()
	gen.variable("ninja_required_version", "1.3")
	gen.newline()

	gen.comment("Directories")
	// Must be relative, otherwise it does not compose with
	// -fdebug-prefix-map=.
	gen.variable("project", projectDir)
	gen.newline()

	gen.comment("Toolchain configuration")
	gen.include(p.toolchain.RuleFile())
	gen.newline()

	gen.variableList("cflags", substituteJDKVersion(p.buildCFlags(jdk.Home), jdk.Version))
	gen.newline()
	if p.kind != StaticLib {
		gen.variableList("ldflags", substituteJDKVersion(p.buildLDFlags(), jdk.Version))
		gen.variableList("ldlibs", p.ldlibs)
		gen.newline()
	}
	gen.includeDirs(headerDirs(src, deps))
	gen.newline()

	gen.comment("Compiled project sources")
	var objects []string
	for _, f := range src.byExt[".c"] {
		objects = append(objects, gen.compile("cc", f))
	}
	gen.newline()
	for _, f := range src.byExt[".cc"] {
		objects = append(objects, gen.compile("cxx", f))
	}
	gen.newline()
	for _, f := range src.byExt[".S"] {
		objects = append(objects, gen.asm(f))
	}
	gen.newline()

	gen.comment("Project deliverable")
	if p.kind == StaticLib {
		gen.build(ninja.BuildParams{
			Rule:    "ar",
			Outputs: []string{p.Deliverable()},
			Inputs:  objects,
		})
	} else {
		rule := "link"
		if len(src.byExt[".cc"]) > 0 {
			rule = "linkxx"
		}
		gen.build(ninja.BuildParams{
			Rule:    rule,
			Outputs: []string{p.Deliverable()},
			Inputs:  append(slices.Clone(objects), dependencyLibs(deps)...),
		})
	}
	gen.newline()

	gen.comment("Manifest dependencies")
	var tracked []string
	for _, dir := range src.tree {
		tracked = append(tracked, gen.phony(dir))
	}
	if p.descriptorPath != "" {
		tracked = append(tracked, p.descriptorPath)
	}
	gen.newline()

	gen.comment("Used by foundry to check...")
	gen.rule("dry_run", ninja.RuleParams{
		Command:   "DRY_RUN $out",
		Generator: true,
	})
	gen.newline()
	gen.comment("...whether the manifest needs to be regenerated")
	gen.build(ninja.BuildParams{
		Rule:      "dry_run",
		Outputs:   []string{ninja.DefaultManifest},
		Implicits: tracked,
	})
	gen.newline()

	if gen.err != nil {
		return nil, &ManifestError{Project: p.name, Err: gen.err}
	}
	return buf.Bytes(), nil
}

func unsupportedExtensions(byExt map[string][]string) []string {
	var exts []string
	for ext := range byExt {
		if !slices.Contains(supportedSourceExtensions, ext) {
			exts = append(exts, ext)
		}
	}
	slices.Sort(exts)
	return exts
}

// headerDirs returns the include search path: the directories of the
// project's own headers in discovery order, then the dependency
// contributions in declaration order, with duplicates dropped.
func headerDirs(src *projectSources, deps []Dependency) []string {
	var dirs []string
	for _, h := range src.byExt[".h"] {
		dirs = append(dirs, filepath.Dir(h))
	}
	dirs = append(dirs, dependencyIncludeDirs(deps)...)
	return pathtools.FirstUniquePaths(dirs)
}

func (p *DefaultProject) objectExt() string {
	if p.os == "windows" {
		return "obj"
	}
	return "o"
}

// resolveProjectPath anchors project-relative paths at the project
// variable; absolute paths, such as dependency contributions, are kept
// as they are.
func resolveProjectPath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join("$project", path)
}

// manifestGenerator wraps a ninja.Writer with the statement shapes used in
// project manifests.  The first error sticks and turns the remaining calls
// into no-ops.
type manifestGenerator struct {
	project *DefaultProject
	w       *ninja.Writer
	err     error
}

func (g *manifestGenerator) comment(text string) {
	if g.err != nil {
		return
	}
	g.err = g.w.Comment(text)
}

func (g *manifestGenerator) newline() {
	if g.err != nil {
		return
	}
	g.err = g.w.BlankLine()
}

func (g *manifestGenerator) variable(name, value string) {
	if g.err != nil {
		return
	}
	g.err = g.w.Assign(name, value)
}

func (g *manifestGenerator) variableList(name string, values []string) {
	g.variable(name, strings.Join(values, " "))
}

func (g *manifestGenerator) include(path string) {
	if g.err != nil {
		return
	}
	g.err = g.w.Include(ninja.EscapeOutputPath(path))
}

func (g *manifestGenerator) rule(name string, params ninja.RuleParams) {
	if g.err != nil {
		return
	}
	g.err = ninja.WriteRule(g.w, name, params)
}

func (g *manifestGenerator) build(params ninja.BuildParams) {
	if g.err != nil {
		return
	}
	g.err = ninja.WriteBuild(g.w, params)
}

// includeDirs emits the includes variable.  An entry is double-quoted when
// its resolved path can contain spaces, which for project-relative entries
// depends on where the project directory is.
func (g *manifestGenerator) includeDirs(dirs []string) {
	quote := func(path string) string {
		hasSpaces := strings.Contains(path, " ") ||
			(strings.Contains(path, "$project") && strings.Contains(g.project.dir, " "))
		if hasSpaces {
			return `"` + path + `"`
		}
		return path
	}

	flags := make([]string, len(dirs))
	for i, dir := range dirs {
		flags[i] = "-I" + quote(resolveProjectPath(dir))
	}
	g.variableList("includes", flags)
}

// compile emits one source compile and returns the object path.
func (g *manifestGenerator) compile(rule, source string) string {
	object := pathtools.ReplaceExtension(source, g.project.objectExt())
	g.build(ninja.BuildParams{
		Rule:    rule,
		Outputs: []string{object},
		Inputs:  []string{resolveProjectPath(source)},
	})
	return object
}

// asm emits an assembly compile, routing through the preprocessor first
// when the toolchain requires it.
func (g *manifestGenerator) asm(source string) string {
	input := resolveProjectPath(source)
	if g.project.toolchain.AsmRequiresPreprocess() {
		intermediate := pathtools.ReplaceExtension(source, "asm")
		g.build(ninja.BuildParams{
			Rule:    "cpp",
			Outputs: []string{intermediate},
			Inputs:  []string{input},
		})
		input = intermediate
	}

	object := pathtools.ReplaceExtension(source, g.project.objectExt())
	g.build(ninja.BuildParams{
		Rule:    "asm",
		Outputs: []string{object},
		Inputs:  []string{input},
	})
	return object
}

// phony emits a tracking node for a source directory and returns its
// target.
func (g *manifestGenerator) phony(dir string) string {
	target := resolveProjectPath(dir)
	g.build(ninja.BuildParams{
		Rule:    "phony",
		Outputs: []string{target},
	})
	return target
}
