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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foundrybuild/foundry/pathtools"
)

const engineBuildDir = "/work/out/engine/x86"

func TestGenerateManifest(t *testing.T) {
	props := defaultProps(engineFs())
	props.CFlags = []string{"-O3"}
	props.VCRoot = "/work"
	props.DescriptorPath = "/work/proj.json"
	props.Deps = []Dependency{fakeDep{name: "sys", includes: []string{"/opt/sys/include"}}}
	p, err := NewDefaultProject(props)
	require.NoError(t, err)

	got, err := p.GenerateManifest(engineBuildDir)
	require.NoError(t, err)

	want := `# Generated by foundry. Do not edit.

ninja_required_version = 1.3

# Directories
project = ../../../proj

# Toolchain configuration
include /opt/toolchain/toolchain.ninja

cflags = -fdebug-prefix-map=/work=work -gno-record-gcc-switches -O3

includes = -I$project/include -I$project/src -I/opt/sys/include

# Compiled project sources
build src/main.o: cc $project/src/main.c

build src/util/hash.o: cxx $project/src/util/hash.cc

# Project deliverable
build libengine.a: ar src/main.o src/util/hash.o

# Manifest dependencies
build $project/include: phony
build $project/src: phony
build $project/src/util: phony

# Used by foundry to check...
rule dry_run
    command = DRY_RUN $out
    generator = true

# ...whether the manifest needs to be regenerated
build build.ninja: dry_run | $project/include $project/src $project/src/util $
        /work/proj.json

`
	assert.Equal(t, want, string(got))
}

func TestGenerateManifestDeterministic(t *testing.T) {
	build := func() []byte {
		props := defaultProps(engineFs())
		props.CFlags = []string{"-O3"}
		props.DescriptorPath = "/work/proj.json"
		p, err := NewDefaultProject(props)
		require.NoError(t, err)
		out, err := p.GenerateManifest(engineBuildDir)
		require.NoError(t, err)
		return out
	}

	first := build()
	assert.Equal(t, first, build())

	// The same instance is also stable across calls.
	p, err := NewDefaultProject(defaultProps(engineFs()))
	require.NoError(t, err)
	a, err := p.GenerateManifest(engineBuildDir)
	require.NoError(t, err)
	b, err := p.GenerateManifest(engineBuildDir)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestGenerateManifestIncludeOrder(t *testing.T) {
	props := defaultProps(engineFs())
	props.Deps = []Dependency{
		fakeDep{name: "d1", includes: []string{"/dep/one/include"}},
		fakeDep{name: "d2", includes: []string{"/dep/two/include", "/dep/one/include"}},
	}
	p, err := NewDefaultProject(props)
	require.NoError(t, err)

	got, err := p.GenerateManifest(engineBuildDir)
	require.NoError(t, err)

	// Own headers first, then dependency headers in declaration order,
	// duplicates dropped after their first occurrence.
	assert.Contains(t, string(got),
		"includes = -I$project/include -I$project/src -I/dep/one/include -I/dep/two/include\n")
}

func TestGenerateManifestRejectsUnknownSources(t *testing.T) {
	fs := pathtools.MockFs(map[string][]byte{
		"/work/proj/src/main.c":    nil,
		"/work/proj/src/lib.rs":    nil,
		"/work/proj/src/notes.txt": nil,
	})
	p, err := NewDefaultProject(defaultProps(fs))
	require.NoError(t, err)

	_, err = p.GenerateManifest(engineBuildDir)
	var unsupported *UnsupportedSourceError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, "org.demo.engine", unsupported.Project)
	assert.Equal(t, []string{".rs", ".txt"}, unsupported.Extensions)
}

func TestGenerateManifestSharedLibrary(t *testing.T) {
	props := defaultProps(engineFs())
	props.Kind = SharedLib
	props.LDFlags = []string{"-Wl,-z,defs"}
	props.LDLibs = []string{"-lm"}
	props.Deps = []Dependency{fakeDep{name: "sys", libs: []string{"/opt/sys/lib/libsys.a"}}}
	p, err := NewDefaultProject(props)
	require.NoError(t, err)

	got, err := p.GenerateManifest(engineBuildDir)
	require.NoError(t, err)
	manifest := string(got)

	assert.Contains(t, manifest, "ldflags = -shared -fPIC -Wl,-z,defs\n")
	assert.Contains(t, manifest, "ldlibs = -lm\n")
	assert.Contains(t, manifest,
		"build libengine.so: linkxx src/main.o src/util/hash.o /opt/sys/lib/libsys.a\n")
}

func TestGenerateManifestLinksCOnly(t *testing.T) {
	fs := pathtools.MockFs(map[string][]byte{
		"/work/proj/src/main.c": nil,
	})
	props := defaultProps(fs)
	props.Kind = Executable
	p, err := NewDefaultProject(props)
	require.NoError(t, err)

	got, err := p.GenerateManifest(engineBuildDir)
	require.NoError(t, err)
	assert.Contains(t, string(got), "build engine: link src/main.o\n")
}

func TestGenerateManifestAssembly(t *testing.T) {
	fs := pathtools.MockFs(map[string][]byte{
		"/work/proj/src/boot.S": nil,
	})

	p, err := NewDefaultProject(defaultProps(fs))
	require.NoError(t, err)
	got, err := p.GenerateManifest(engineBuildDir)
	require.NoError(t, err)
	assert.Contains(t, string(got), "build src/boot.o: asm $project/src/boot.S\n")

	props := defaultProps(fs)
	props.Toolchain = fakeRuleSet{file: "/opt/toolchain/toolchain.ninja", asmCpp: true}
	p, err = NewDefaultProject(props)
	require.NoError(t, err)
	got, err = p.GenerateManifest(engineBuildDir)
	require.NoError(t, err)
	assert.Contains(t, string(got), "build src/boot.asm: cpp $project/src/boot.S\n")
	assert.Contains(t, string(got), "build src/boot.o: asm src/boot.asm\n")
}

func TestGenerateManifestJDKDependent(t *testing.T) {
	SetJDKResolver(func() (JDK, error) {
		return JDK{
			Home:        "/opt/jdk",
			IncludeDirs: []string{"/opt/jdk/include", "/opt/jdk/include/linux"},
			Version:     "21",
		}, nil
	})
	defer SetJDKResolver(nil)

	props := defaultProps(engineFs())
	props.UseJDKHeaders = true
	props.VCRoot = "/work"
	props.CFlags = []string{"-DJDK_VER=<jdk_ver>"}
	p, err := NewDefaultProject(props)
	require.NoError(t, err)

	got, err := p.GenerateManifest(engineBuildDir)
	require.NoError(t, err)
	manifest := string(got)

	assert.Contains(t, manifest,
		"cflags = -fdebug-prefix-map=/work=work -fdebug-prefix-map=/opt/jdk=jdk -gno-record-gcc-switches -DJDK_VER=21\n")
	assert.Contains(t, manifest,
		"includes = -I$project/include -I$project/src -I/opt/jdk/include -I/opt/jdk/include/linux\n")
}

func TestGenerateManifestJDKUnresolved(t *testing.T) {
	SetJDKResolver(nil)

	props := defaultProps(engineFs())
	props.UseJDKHeaders = true
	p, err := NewDefaultProject(props)
	require.NoError(t, err)

	_, err = p.GenerateManifest(engineBuildDir)
	var manifestErr *ManifestError
	require.ErrorAs(t, err, &manifestErr)
	assert.Equal(t, "org.demo.engine", manifestErr.Project)
}

func TestGenerateManifestQuotesProjectIncludes(t *testing.T) {
	fs := pathtools.MockFs(map[string][]byte{
		"/my work/proj/include/api.h": nil,
		"/my work/proj/src/main.c":    nil,
	})
	props := defaultProps(fs)
	props.Dir = "/my work/proj"
	p, err := NewDefaultProject(props)
	require.NoError(t, err)

	got, err := p.GenerateManifest("/my work/out/engine/x86")
	require.NoError(t, err)
	assert.Contains(t, string(got), `includes = -I"$project/include"`+"\n")
}

func TestGenerateManifestEscapesSpaces(t *testing.T) {
	fs := pathtools.MockFs(map[string][]byte{
		"/work/proj/src/my file.c": nil,
	})
	p, err := NewDefaultProject(defaultProps(fs))
	require.NoError(t, err)

	got, err := p.GenerateManifest(engineBuildDir)
	require.NoError(t, err)
	assert.Contains(t, string(got), "build src/my$ file.o: cc $project/src/my$ file.c\n")
}
