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
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"sync"

	"github.com/foundrybuild/foundry/pathtools"
)

// DeliverableKind is the kind of artifact a default-layout project builds.
type DeliverableKind int

const (
	StaticLib DeliverableKind = iota
	SharedLib
	Executable
)

func (k DeliverableKind) String() string {
	switch k {
	case StaticLib:
		return "static_lib"
	case SharedLib:
		return "shared_lib"
	case Executable:
		return "executable"
	default:
		panic(fmt.Errorf("unknown deliverable kind: %d", int(k)))
	}
}

// Profile is a non-default target tuning configuration.  Its flags are
// appended to the platform defaults of every project it is attached to.
// This is an extension hook, not a cross-compilation system.
type Profile struct {
	Name    string
	CFlags  []string
	LDFlags []string
}

// ProjectProperties describes a default-layout project.
type ProjectProperties struct {
	// Name identifies the project, e.g. "com.example.renderer".
	Name string
	// Dir is the project root directory.
	Dir string
	// OutputRoot is the directory under which per-architecture build
	// directories are created.
	OutputRoot string
	// Kind selects the deliverable: static library, shared library or
	// executable.
	Kind DeliverableKind
	// DeliverableName overrides the artifact base name.  It defaults to
	// the last dot-separated segment of Name.
	DeliverableName string
	// Multiarch lists the architectures to build for when multiarch
	// builds are enabled.  It must include the host architecture.
	Multiarch []string

	CFlags  []string
	LDFlags []string
	LDLibs  []string

	// Deps are the build dependencies contributing include directories
	// and libraries.
	Deps []Dependency
	// Toolchain locates the rule file compiled against.
	Toolchain RuleSet
	// UseJDKHeaders adds the JDK header directories to the include path.
	UseJDKHeaders bool
	// VCRoot is the version-control root rewritten in debug info so that
	// host paths do not leak into shipped binaries.
	VCRoot string
	// Profile optionally tunes the default flags.
	Profile *Profile
	// DescriptorPath is the build configuration file whose changes make
	// the build manifest stale.
	DescriptorPath string

	// OS defaults to runtime.GOOS.
	OS string
	// FS defaults to the local disk.
	FS pathtools.FileSystem
}

const (
	includeDirName = "include"
	srcDirName     = "src"
)

// DefaultProject is a Project with a fixed directory layout: include/ is a
// flat directory of public headers and src/ holds sources and private
// headers.  All sources are compiled into a single deliverable, and the
// public headers are contributed to dependents.
type DefaultProject struct {
	name            string
	dir             string
	outputRoot      string
	kind            DeliverableKind
	deliverableName string
	multiarch       []string
	cflags          []string
	ldflags         []string
	ldlibs          []string
	deps            []Dependency
	toolchain       RuleSet
	useJDKHeaders   bool
	vcRoot          string
	profile         *Profile
	descriptorPath  string
	os              string
	fs              pathtools.FileSystem

	scanOnce sync.Once
	source   *projectSources
	scanErr  error
}

var _ Project = (*DefaultProject)(nil)
var _ Dependency = (*DefaultProject)(nil)
var _ IncludeDirProvider = (*DefaultProject)(nil)
var _ LibProvider = (*DefaultProject)(nil)

// NewDefaultProject validates the properties and returns the project.
func NewDefaultProject(props ProjectProperties) (*DefaultProject, error) {
	switch props.Kind {
	case StaticLib, SharedLib, Executable:
	default:
		return nil, fmt.Errorf("%s: the deliverable kind must be one of static_lib, shared_lib, executable", props.Name)
	}
	if props.Toolchain == nil {
		return nil, fmt.Errorf("%s: a toolchain rule set is required", props.Name)
	}

	p := &DefaultProject{
		name:            props.Name,
		dir:             props.Dir,
		outputRoot:      props.OutputRoot,
		kind:            props.Kind,
		deliverableName: props.DeliverableName,
		multiarch:       pathtools.FirstUniquePaths(props.Multiarch),
		cflags:          props.CFlags,
		ldflags:         props.LDFlags,
		ldlibs:          props.LDLibs,
		deps:            props.Deps,
		toolchain:       props.Toolchain,
		useJDKHeaders:   props.UseJDKHeaders,
		vcRoot:          props.VCRoot,
		profile:         props.Profile,
		descriptorPath:  props.DescriptorPath,
		os:              props.OS,
		fs:              props.FS,
	}
	if p.deliverableName == "" {
		segments := strings.Split(p.name, ".")
		p.deliverableName = segments[len(segments)-1]
	}
	if p.os == "" {
		p.os = runtime.GOOS
	}
	if p.fs == nil {
		p.fs = pathtools.OsFs
	}

	if len(p.multiarch) > 0 && !slices.Contains(p.multiarch, runtime.GOARCH) {
		return nil, fmt.Errorf("%s: multiarch %v does not include the host architecture %s",
			p.name, p.multiarch, runtime.GOARCH)
	}

	if err := p.checkIncludeLayout(); err != nil {
		return nil, err
	}

	return p, nil
}

// checkIncludeLayout rejects subdirectories of include/.  Public headers
// are archived flat, so nested headers would silently be dropped.
func (p *DefaultProject) checkIncludeLayout() error {
	includeDir := filepath.Join(p.dir, includeDirName)
	names, err := p.fs.ReadDirNames(includeDir)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	} else if err != nil {
		return err
	}

	for _, name := range names {
		isDir, err := p.fs.IsDir(filepath.Join(includeDir, name))
		if err != nil {
			return err
		}
		if isDir {
			return &InvalidLayoutError{
				Project: p.name,
				Dir:     includeDir,
				Reason:  "must have a flat structure",
			}
		}
	}
	return nil
}

func (p *DefaultProject) Name() string {
	return p.name
}

func (p *DefaultProject) OutDir() string {
	return p.outputRoot
}

func (p *DefaultProject) TargetArchs() []string {
	return p.multiarch
}

// Deliverable returns the artifact file name, derived from the kind and
// the platform naming conventions.
func (p *DefaultProject) Deliverable() string {
	name := p.deliverableName
	switch p.kind {
	case StaticLib:
		if p.os == "windows" {
			return name + ".lib"
		}
		return "lib" + name + ".a"
	case SharedLib:
		switch p.os {
		case "windows":
			return name + ".dll"
		case "darwin":
			return "lib" + name + ".dylib"
		default:
			return "lib" + name + ".so"
		}
	default:
		if p.os == "windows" {
			return name + ".exe"
		}
		return name
	}
}

// IncludeDirs contributes the public header directory to dependents.
func (p *DefaultProject) IncludeDirs() []string {
	return []string{filepath.Join(p.dir, includeDirName)}
}

// Libs advertises the built artifact of a static library to dependents.
func (p *DefaultProject) Libs() []string {
	if p.kind != StaticLib {
		return nil
	}
	return []string{filepath.Join(p.outputRoot, runtime.GOARCH, p.Deliverable())}
}

// JDKDependent reports whether the generated manifest depends on the JDK,
// either through JDK headers or through version-token substitution in the
// compiler flags.
func (p *DefaultProject) JDKDependent() bool {
	return p.useJDKHeaders || containsJDKVersionToken(p.cflags)
}

// projectSources is the result of scanning the source directories.
type projectSources struct {
	// byExt groups project-relative file paths by extension.
	byExt map[string][]string
	// tree lists the project-relative source directories in discovery
	// order.
	tree []string
}

func (p *DefaultProject) sources() (*projectSources, error) {
	p.scanOnce.Do(func() {
		p.source, p.scanErr = p.scanSources()
	})
	return p.source, p.scanErr
}

func (p *DefaultProject) scanSources() (*projectSources, error) {
	src := &projectSources{byExt: make(map[string][]string)}

	for _, sourceDir := range []string{includeDirName, srcDirName} {
		root := filepath.Join(p.dir, sourceDir)
		exists, _, err := p.fs.Exists(root)
		if err != nil {
			return nil, err
		}
		if !exists {
			continue
		}

		dirs, err := p.fs.ListDirsRecursive(root)
		if err != nil {
			return nil, err
		}
		for _, dir := range dirs {
			relDir, err := filepath.Rel(p.dir, dir)
			if err != nil {
				return nil, err
			}
			src.tree = append(src.tree, relDir)

			names, err := p.fs.ReadDirNames(dir)
			if err != nil {
				return nil, err
			}
			for _, name := range names {
				isDir, err := p.fs.IsDir(filepath.Join(dir, name))
				if err != nil {
					return nil, err
				}
				if isDir {
					continue
				}
				ext := filepath.Ext(name)
				src.byExt[ext] = append(src.byExt[ext], filepath.Join(relDir, name))
			}
		}
	}

	return src, nil
}

// buildCFlags returns the compiler flags in effect: platform defaults for
// the kind, profile flags, debug-info path rewrites, then declared flags.
func (p *DefaultProject) buildCFlags(jdkHome string) []string {
	var flags []string

	if p.kind == SharedLib {
		if p.os == "windows" {
			flags = append(flags, "-MD")
		} else {
			flags = append(flags, "-fPIC")
		}
	}

	if p.profile != nil {
		flags = append(flags, p.profile.CFlags...)
	}

	if p.os == "linux" || p.os == "darwin" {
		// Do not leak host paths via dwarf debuginfo.
		if p.vcRoot != "" {
			flags = append(flags, debugPrefixMap(p.vcRoot))
		}
		if jdkHome != "" {
			flags = append(flags, debugPrefixMap(jdkHome))
		}
		flags = append(flags, "-gno-record-gcc-switches")
	}

	return append(flags, p.cflags...)
}

func (p *DefaultProject) buildLDFlags() []string {
	var flags []string

	if p.kind == SharedLib {
		switch p.os {
		case "darwin":
			flags = append(flags, "-dynamiclib", "-undefined", "dynamic_lookup")
		case "windows":
			flags = append(flags, "-dll")
		default:
			flags = append(flags, "-shared", "-fPIC")
		}
	}

	if p.profile != nil {
		flags = append(flags, p.profile.LDFlags...)
	}

	return append(flags, p.ldflags...)
}

func debugPrefixMap(dir string) string {
	return "-fdebug-prefix-map=" + quoteIfSpaces(dir) + "=" + quoteIfSpaces(filepath.Base(dir))
}

func quoteIfSpaces(path string) string {
	if strings.Contains(path, " ") {
		return `"` + path + `"`
	}
	return path
}
